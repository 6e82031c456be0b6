// Package accounts implements the Account Provisioner (C2): creating
// or loading pre-funded accounts for a chain's data directory, per
// spec §4.2. Behavior is EVM-specific.
package accounts

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/chaind/chain-manager/internal/domain"
)

// defaultGanacheBalance is Ganache's default initial account balance,
// 100 ETH expressed in wei, per spec §4.2.
var defaultGanacheBalance = new(big.Int).Mul(big.NewInt(100), big.NewInt(1_000_000_000_000_000_000))

var hexAddrRE = regexp.MustCompile(`0x[0-9a-fA-F]{40}`)

// GethProvisioner shells out to a geth binary to create or list
// keystore accounts.
type GethProvisioner struct {
	GethExecutable string
	PasswordFile   string
}

// Provision creates n accounts for dbPath with `geth account new` if
// dbPath's keystore is empty; otherwise it returns every address
// `geth account list` reports, whatever n is. Index 0 is the
// coinbase, per spec §3.
func (g *GethProvisioner) Provision(dbPath string, n int) ([]domain.Account, error) {
	keystore := filepath.Join(dbPath, "keystore")
	entries, _ := os.ReadDir(keystore)

	var addrs []string
	if len(entries) == 0 {
		for i := 0; i < n; i++ {
			addr, err := g.accountNew(dbPath)
			if err != nil {
				return nil, fmt.Errorf("accounts: geth account new: %w", err)
			}
			addrs = append(addrs, addr)
		}
	} else {
		list, err := g.accountList(dbPath)
		if err != nil {
			return nil, fmt.Errorf("accounts: geth account list: %w", err)
		}
		addrs = list
	}

	out := make([]domain.Account, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, domain.Account{Address: a, Balance: "0"})
	}
	return out, nil
}

func (g *GethProvisioner) accountNew(dbPath string) (string, error) {
	cmd := exec.Command(g.GethExecutable, "--datadir", dbPath, "account", "new", "--password", g.PasswordFile)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%w: %s", err, out)
	}
	addr := hexAddrRE.FindString(string(out))
	if addr == "" {
		return "", fmt.Errorf("accounts: no address found in geth account new output")
	}
	return addr, nil
}

func (g *GethProvisioner) accountList(dbPath string) ([]string, error) {
	cmd := exec.Command(g.GethExecutable, "--datadir", dbPath, "account", "list")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, out)
	}

	return hexAddrRE.FindAllString(string(out), -1), nil
}

// GanacheProvisioner derives n deterministic accounts from a fixed
// seed, matching Ganache's own deterministic-mnemonic mode, per spec
// §4.2: "accounts are declared on the command line with deterministic
// private keys".
type GanacheProvisioner struct {
	// Seed anchors the deterministic derivation. The zero value uses
	// a fixed default so repeated runs without an explicit seed still
	// produce the same account set, mirroring Ganache's own
	// `--deterministic` flag.
	Seed string
}

const defaultGanacheSeed = "chain-manager deterministic ganache seed"

// Provision derives n accounts deterministically: privkey_i =
// keccak256(seed + "/" + i), rehashed with keccak256 until it is a
// valid secp256k1 scalar (at most 18 candidates). This is not Ganache's exact BIP-32 derivation (which needs a
// real mnemonic/HD-wallet library out of scope here) but satisfies the
// spec's requirement of deterministic keys with a fixed balance in
// CLI order.
func (g *GanacheProvisioner) Provision(n int) ([]domain.Account, error) {
	seed := g.Seed
	if seed == "" {
		seed = defaultGanacheSeed
	}

	accounts := make([]domain.Account, 0, n)
	for i := 0; i < n; i++ {
		key, err := deriveKey(seed, i)
		if err != nil {
			return nil, fmt.Errorf("accounts: deriving ganache account %d: %w", i, err)
		}
		addr := crypto.PubkeyToAddress(key.PublicKey)
		accounts = append(accounts, domain.Account{
			Address: addr.Hex(),
			Balance: defaultGanacheBalance.String(),
			PrivKey: fmt.Sprintf("%x", crypto.FromECDSA(key)),
		})
	}
	return accounts, nil
}

func deriveKey(seed string, index int) (*ecdsa.PrivateKey, error) {
	material := crypto.Keccak256([]byte(fmt.Sprintf("%s/%d", seed, index)))
	for attempt := 0; ; attempt++ {
		key, err := crypto.ToECDSA(material)
		if err == nil {
			return key, nil
		}
		material = crypto.Keccak256(material)
		if attempt > 16 {
			return nil, fmt.Errorf("could not derive a valid scalar")
		}
	}
}
