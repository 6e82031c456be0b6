// Package allocator implements the Resource Allocator (C1): chain ID
// generation, port allocation, and the advisory in-use probes spec
// §4.1 describes.
package allocator

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"

	"github.com/chaind/chain-manager/internal/config"
)

// Registry is the subset of the Chain Registry the Allocator consults
// for collision checks, kept narrow so this package doesn't import
// the worker handle type.
type Registry interface {
	Contains(id string) bool
	PortInUse(port int) bool
	PathInUse(path string) bool
}

// Allocator implements C1 against a Registry and the operator's
// configured base path and port range.
type Allocator struct {
	reg Registry
	cfg *config.Runtime
}

func New(reg Registry, cfg *config.Runtime) *Allocator {
	return &Allocator{reg: reg, cfg: cfg}
}

// maxChainID is the exclusive upper bound for the 64-bit random
// decimal chain/snapshot IDs spec §9 mandates.
var maxChainID = new(big.Int).SetUint64(1<<63 - 1)

// NewID generates a 64-bit random integer rendered as a decimal
// string, rejecting candidates already present in the Registry or on
// disk, per spec §4.1 and §9's "registry ∧ filesystem" invariant.
func (a *Allocator) NewID() (string, error) {
	for attempt := 0; attempt < 100; attempt++ {
		n, err := rand.Int(rand.Reader, maxChainID)
		if err != nil {
			return "", fmt.Errorf("allocator: generating random id: %w", err)
		}
		id := n.String()
		if a.reg.Contains(id) {
			continue
		}
		if _, err := os.Stat(filepath.Join(a.cfg.BasePath, id)); err == nil {
			continue
		}
		return id, nil
	}
	return "", fmt.Errorf("allocator: could not find an unused id after 100 attempts")
}

// PortInUse first consults the Registry's view for ports owned by
// workers this process itself launched but that are still mid-spawn,
// then probes p with a non-blocking bind attempt, per spec §4.1's
// "probe: attempt a non-blocking bind/connect".
func (a *Allocator) PortInUse(p int) bool {
	if a.reg.PortInUse(p) {
		return true
	}
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", p))
	if err != nil {
		return true
	}
	_ = ln.Close()
	return false
}

// PathInUse reports whether path is declared as a live worker's
// db_path.
func (a *Allocator) PathInUse(path string) bool {
	return a.reg.PathInUse(path)
}

// AllocatePorts draws an (http, ws) pair from the configured range,
// per spec §4.1. Candidates are scanned in order starting from a
// random offset to spread allocations across the range rather than
// always preferring the low end.
func (a *Allocator) AllocatePorts() (http, ws int, err error) {
	lo, hi := a.cfg.EVMPortRange.Low, a.cfg.EVMPortRange.High
	span := hi - lo + 1
	if span < 2 {
		return 0, 0, fmt.Errorf("allocator: evm_port_range too small: [%d,%d]", lo, hi)
	}

	offsetN, err := rand.Int(rand.Reader, big.NewInt(int64(span)))
	if err != nil {
		return 0, 0, fmt.Errorf("allocator: generating random offset: %w", err)
	}
	offset := int(offsetN.Int64())

	var httpPort int
	found := false
	for i := 0; i < span; i++ {
		candidate := lo + (offset+i)%span
		if !a.PortInUse(candidate) {
			httpPort = candidate
			found = true
			break
		}
	}
	if !found {
		return 0, 0, fmt.Errorf("allocator: no free port in range [%d,%d]", lo, hi)
	}

	for i := 0; i < span; i++ {
		candidate := lo + (offset+httpPort-lo+1+i)%span
		if candidate == httpPort {
			continue
		}
		if !a.PortInUse(candidate) {
			return httpPort, candidate, nil
		}
	}
	return 0, 0, fmt.Errorf("allocator: no second free port in range [%d,%d]", lo, hi)
}
