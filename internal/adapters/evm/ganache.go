package evm

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"

	"github.com/chaind/chain-manager/internal/domain"
)

// GanacheHandle is the ProcessHandle for a running ganache-cli wrapper
// script process.
type GanacheHandle struct {
	cmd      *exec.Cmd
	httpPort int
	frontURL string

	exited  chan struct{}
	waitErr error
}

func (h *GanacheHandle) RPCURL() string {
	return fmt.Sprintf("http://%s:%d", h.frontURL, h.httpPort)
}

func (h *GanacheHandle) wsURL() string {
	return fmt.Sprintf("ws://%s:%d", h.frontURL, h.httpPort)
}

func (h *GanacheHandle) Pid() int {
	if h.cmd == nil || h.cmd.Process == nil {
		return 0
	}
	return h.cmd.Process.Pid
}

func (h *GanacheHandle) Exited() <-chan struct{} { return h.exited }

// GanacheAdapter implements Adapter for the ganache-cli wrapper
// script, per spec §4.3.
type GanacheAdapter struct {
	WrapperScript string
	FrontURL      string
	Provisioner   interface {
		Provision(n int) ([]domain.Account, error)
	}
}

func (a *GanacheAdapter) EVMType() domain.EVMType { return domain.EVMGanache }

// buildGanacheArgs constructs the wrapper-script command line per
// spec §4.3: accounts declared on the command line, deterministic
// keys, http_port == ws_port (Facade.Start normalizes this before
// Start is ever called).
func buildGanacheArgs(cfg domain.ChainConfig, accounts []domain.Account) []string {
	args := []string{
		"--port", strconv.Itoa(cfg.HTTPPort),
		"--networkId", strconv.Itoa(cfg.NetworkID),
		"--db", cfg.DBPath,
	}
	if cfg.BlockMineTimeMs > 0 {
		args = append(args, "--blockTime", strconv.Itoa(cfg.BlockMineTimeMs/1000))
	}
	for _, acc := range accounts {
		args = append(args, "--account", fmt.Sprintf("0x%s,%s", acc.PrivKey, acc.Balance))
	}
	return args
}

func (a *GanacheAdapter) Start(ctx context.Context, cfg domain.ChainConfig) (*StartResult, error) {
	if err := os.MkdirAll(cfg.DBPath, 0o755); err != nil {
		return nil, fmt.Errorf("evm/ganache: creating db path: %w", err)
	}

	accounts, err := a.Provisioner.Provision(cfg.AccountsRequested)
	if err != nil {
		return nil, fmt.Errorf("evm/ganache: provisioning accounts: %w", err)
	}

	args := buildGanacheArgs(cfg, accounts)
	// The child process must outlive this call: ctx only bounds the
	// synchronous readiness probe below, not the process's OS lifetime.
	// Stop/Terminate own killing it later.
	cmd := exec.Command(a.WrapperScript, args...)

	var logWriter io.Writer = io.Discard
	if cfg.OutputLogPath != "" {
		f, err := os.OpenFile(cfg.OutputLogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("evm/ganache: opening output log: %w", err)
		}
		logWriter = f
	}
	cmd.Stdout = logWriter
	cmd.Stderr = logWriter

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("evm/ganache: starting process: %w", err)
	}

	handle := &GanacheHandle{cmd: cmd, httpPort: cfg.HTTPPort, frontURL: a.FrontURL, exited: make(chan struct{})}
	go func() {
		handle.waitErr = cmd.Wait()
		close(handle.exited)
	}()

	if err := waitReadyOrCrash(ctx, handle.RPCURL(), handle.exited); err != nil {
		_ = a.Terminate(context.Background(), handle)
		return nil, err
	}

	coinbase := ""
	if len(accounts) > 0 {
		coinbase = accounts[0].Address
	}

	return &StartResult{Handle: handle, Accounts: accounts, Coinbase: coinbase}, nil
}

func (a *GanacheAdapter) Stop(ctx context.Context, h ProcessHandle) error {
	gh, ok := h.(*GanacheHandle)
	if !ok {
		return fmt.Errorf("evm/ganache: wrong handle type")
	}
	if gh.cmd.Process == nil {
		return nil
	}
	_ = gh.cmd.Process.Signal(os.Interrupt)

	select {
	case <-gh.exited:
		return nil
	case <-ctx.Done():
		return a.Terminate(context.Background(), h)
	}
}

func (a *GanacheAdapter) Terminate(ctx context.Context, h ProcessHandle) error {
	gh, ok := h.(*GanacheHandle)
	if !ok {
		return fmt.Errorf("evm/ganache: wrong handle type")
	}
	if gh.cmd.Process == nil {
		return nil
	}
	if err := gh.cmd.Process.Kill(); err != nil {
		return fmt.Errorf("evm/ganache: killing process: %w", err)
	}
	return nil
}

func (a *GanacheAdapter) StartMine(ctx context.Context, h ProcessHandle) error {
	gh := h.(*GanacheHandle)
	var ok bool
	return rpcCall(ctx, gh.RPCURL(), "miner_start", &ok)
}

func (a *GanacheAdapter) StopMine(ctx context.Context, h ProcessHandle) error {
	gh := h.(*GanacheHandle)
	var ok bool
	return rpcCall(ctx, gh.RPCURL(), "miner_stop", &ok)
}

func (a *GanacheAdapter) TakeInternalSnapshot(ctx context.Context, h ProcessHandle) (string, error) {
	gh := h.(*GanacheHandle)
	var id string
	if err := rpcCall(ctx, gh.RPCURL(), "evm_snapshot", &id); err != nil {
		return "", fmt.Errorf("evm/ganache: evm_snapshot: %w", err)
	}
	return id, nil
}

func (a *GanacheAdapter) RevertInternalSnapshot(ctx context.Context, h ProcessHandle, id string) error {
	gh := h.(*GanacheHandle)
	var ok bool
	if err := rpcCall(ctx, gh.RPCURL(), "evm_revert", &ok, id); err != nil {
		return fmt.Errorf("evm/ganache: evm_revert: %w", err)
	}
	if !ok {
		return fmt.Errorf("evm/ganache: evm_revert rejected snapshot %s", id)
	}
	return nil
}

func (a *GanacheAdapter) Version(ctx context.Context, h ProcessHandle) (string, error) {
	gh := h.(*GanacheHandle)
	var version string
	if err := rpcCall(ctx, gh.RPCURL(), "web3_clientVersion", &version); err != nil {
		return "", fmt.Errorf("evm/ganache: version: %w", err)
	}
	return version, nil
}
