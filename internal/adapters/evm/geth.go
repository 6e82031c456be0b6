package evm

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/creack/pty"

	"github.com/chaind/chain-manager/internal/domain"
)

// GethHandle is the ProcessHandle for a running geth console process.
// The console is attached to a pty because it is an interactive REPL
// and behaves correctly only with a controlling tty; stop writes the
// literal string "exit\n" to it, per spec §4.3.
type GethHandle struct {
	cmd      *exec.Cmd
	pty      *os.File
	httpPort int
	wsPort   int
	frontURL string

	exited  chan struct{}
	waitErr error
}

func (h *GethHandle) RPCURL() string {
	return fmt.Sprintf("http://%s:%d", h.frontURL, h.httpPort)
}

func (h *GethHandle) wsURL() string {
	return fmt.Sprintf("ws://%s:%d", h.frontURL, h.wsPort)
}

func (h *GethHandle) Pid() int {
	if h.cmd == nil || h.cmd.Process == nil {
		return 0
	}
	return h.cmd.Process.Pid
}

func (h *GethHandle) Exited() <-chan struct{} { return h.exited }

// GethAdapter implements Adapter for go-ethereum's geth binary.
type GethAdapter struct {
	Executable   string
	PasswordFile string
	FrontURL     string
	Provisioner  interface {
		Provision(dbPath string, n int) ([]domain.Account, error)
	}
}

// buildGethArgs constructs the geth console command line documented in
// spec §4.3.
func buildGethArgs(cfg domain.ChainConfig, pwFile string, addrs []string) []string {
	args := []string{
		"--dev",
		"--datadir", cfg.DBPath,
		"--networkid", strconv.Itoa(cfg.NetworkID),
		"--ipcdisable",
		"--rpc", "--rpcport", strconv.Itoa(cfg.HTTPPort),
		"--rpcapi", "admin,personal,eth,miner,debug,txpool,net",
		"--ws", "--wsport", strconv.Itoa(cfg.WSPort),
		`--wsorigins=*`,
		`--gasprice=2000000000`,
		`--targetgaslimit=9000000000000`,
	}
	if cfg.BlockMineTimeMs > 0 {
		args = append(args, fmt.Sprintf(`--dev.period=%d`, cfg.BlockMineTimeMs))
	}
	if pwFile != "" {
		args = append(args, fmt.Sprintf("--password=%s", pwFile))
	}
	if len(addrs) > 0 {
		args = append(args, fmt.Sprintf(`--etherbase=%s`, addrs[0]))
		args = append(args, fmt.Sprintf(`--unlock=%s`, strings.Join(addrs, ",")))
	}
	args = append(args, "console")
	return args
}

func (a *GethAdapter) EVMType() domain.EVMType { return domain.EVMGeth }

func (a *GethAdapter) Start(ctx context.Context, cfg domain.ChainConfig) (*StartResult, error) {
	if err := os.MkdirAll(cfg.DBPath, 0o755); err != nil {
		return nil, fmt.Errorf("evm/geth: creating datadir: %w", err)
	}

	accounts, err := a.Provisioner.Provision(cfg.DBPath, cfg.AccountsRequested)
	if err != nil {
		return nil, fmt.Errorf("evm/geth: provisioning accounts: %w", err)
	}
	addrs := make([]string, len(accounts))
	for i, acc := range accounts {
		addrs[i] = acc.Address
	}

	args := buildGethArgs(cfg, a.PasswordFile, addrs)
	// The child process must outlive this call: ctx only bounds the
	// synchronous readiness probe below, not the console's OS lifetime.
	// Stop/Terminate own killing it later.
	cmd := exec.Command(a.Executable, args...)

	var logWriter io.Writer = io.Discard
	if cfg.OutputLogPath != "" {
		f, err := os.OpenFile(cfg.OutputLogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("evm/geth: opening output log: %w", err)
		}
		logWriter = f
	}

	ptyFile, err := pty.Start(cmd)
	if err != nil {
		return nil, fmt.Errorf("evm/geth: starting console under pty: %w", err)
	}
	go func() { _, _ = io.Copy(logWriter, ptyFile) }()

	handle := &GethHandle{
		cmd:      cmd,
		pty:      ptyFile,
		httpPort: cfg.HTTPPort,
		wsPort:   cfg.WSPort,
		frontURL: a.FrontURL,
		exited:   make(chan struct{}),
	}
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

func (a *GethAdapter) Stop(ctx context.Context, h ProcessHandle) error {
	gh, ok := h.(*GethHandle)
	if !ok {
		return fmt.Errorf("evm/geth: wrong handle type")
	}

	_, _ = gh.pty.Write([]byte("exit\n"))

	select {
	case <-gh.exited:
		return nil
	case <-ctx.Done():
		return a.Terminate(context.Background(), h)
	}
}

func (a *GethAdapter) Terminate(ctx context.Context, h ProcessHandle) error {
	gh, ok := h.(*GethHandle)
	if !ok {
		return fmt.Errorf("evm/geth: wrong handle type")
	}
	if gh.cmd.Process == nil {
		return nil
	}
	if err := gh.cmd.Process.Kill(); err != nil && !strings.Contains(err.Error(), "process already finished") {
		return fmt.Errorf("evm/geth: killing process: %w", err)
	}
	_ = gh.pty.Close()
	return nil
}

func (a *GethAdapter) StartMine(ctx context.Context, h ProcessHandle) error {
	gh := h.(*GethHandle)
	var ok bool
	return rpcCall(ctx, gh.RPCURL(), "miner_start", &ok, 1)
}

func (a *GethAdapter) StopMine(ctx context.Context, h ProcessHandle) error {
	gh := h.(*GethHandle)
	var ok bool
	return rpcCall(ctx, gh.RPCURL(), "miner_stop", &ok)
}

// TakeInternalSnapshot is unsupported on Geth, per spec §4.3.
func (a *GethAdapter) TakeInternalSnapshot(ctx context.Context, h ProcessHandle) (string, error) {
	return "", domain.ErrUnsupported
}

func (a *GethAdapter) RevertInternalSnapshot(ctx context.Context, h ProcessHandle, id string) error {
	return domain.ErrUnsupported
}

func (a *GethAdapter) Version(ctx context.Context, h ProcessHandle) (string, error) {
	gh := h.(*GethHandle)
	var version string
	if err := rpcCall(ctx, gh.RPCURL(), "web3_clientVersion", &version); err != nil {
		return "", fmt.Errorf("evm/geth: version: %w", err)
	}
	return version, nil
}

// WSURLFor exposes the ws endpoint of a Geth or Ganache handle to
// callers outside this package; it returns "" for any other handle.
func WSURLFor(h ProcessHandle) string {
	if gh, ok := h.(*GethHandle); ok {
		return gh.wsURL()
	}
	if gan, ok := h.(*GanacheHandle); ok {
		return gan.wsURL()
	}
	return ""
}
