package evm

import (
	"context"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaind/chain-manager/internal/domain"
)

func TestGethHandle_RPCURL(t *testing.T) {
	h := &GethHandle{httpPort: 8545, frontURL: "localhost"}
	assert.Equal(t, "http://localhost:8545", h.RPCURL())
}

func TestGethHandle_Pid_ZeroWhenNoProcess(t *testing.T) {
	h := &GethHandle{}
	assert.Equal(t, 0, h.Pid())
}

func TestWSURLFor_Geth(t *testing.T) {
	h := &GethHandle{wsPort: 8546, frontURL: "localhost"}
	assert.Equal(t, "ws://localhost:8546", WSURLFor(h))
}

// spawnUnderPty starts a real long-lived process attached to a pty, the
// way GethAdapter.Start does for the console, without depending on a
// real geth binary being installed.
func spawnUnderPty(t *testing.T) *GethHandle {
	t.Helper()
	cmd := exec.Command("sleep", "5")
	ptyFile, err := pty.Start(cmd)
	require.NoError(t, err)

	h := &GethHandle{cmd: cmd, pty: ptyFile, httpPort: 0, frontURL: "localhost", exited: make(chan struct{})}
	go func() {
		h.waitErr = cmd.Wait()
		close(h.exited)
	}()
	return h
}

func TestGethAdapter_Stop_FallsBackToTerminateOnTimeout(t *testing.T) {
	h := spawnUnderPty(t)
	a := &GethAdapter{}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	require.NoError(t, a.Stop(ctx, h))

	select {
	case <-h.exited:
	case <-time.After(time.Second):
		t.Fatal("process was not killed by Terminate fallback")
	}
}

func TestGethAdapter_Terminate_ToleratesAlreadyExitedProcess(t *testing.T) {
	h := spawnUnderPty(t)
	a := &GethAdapter{}

	_ = h.cmd.Process.Kill()
	<-h.exited

	assert.NoError(t, a.Terminate(context.Background(), h))
}

func TestGethAdapter_TakeInternalSnapshot_Unsupported(t *testing.T) {
	a := &GethAdapter{}
	_, err := a.TakeInternalSnapshot(context.Background(), &GethHandle{})
	assert.ErrorIs(t, err, domain.ErrUnsupported)
}

func TestGethAdapter_RevertInternalSnapshot_Unsupported(t *testing.T) {
	a := &GethAdapter{}
	err := a.RevertInternalSnapshot(context.Background(), &GethHandle{}, "0x1")
	assert.ErrorIs(t, err, domain.ErrUnsupported)
}

func TestGethAdapter_EVMType(t *testing.T) {
	assert.Equal(t, domain.EVMGeth, (&GethAdapter{}).EVMType())
}

type noAccountsProvisioner struct{}

func (noAccountsProvisioner) Provision(dbPath string, n int) ([]domain.Account, error) {
	return nil, nil
}

// TestGethAdapter_Start_ProcessSurvivesCallerCancelingItsOwnContext is a
// regression test for Start tying the child process's OS lifetime to
// the caller's bounding context: a caller is expected to cancel the
// context it passed to Start as soon as Start returns (the Worker does
// exactly this to bound only the readiness probe), and that must not
// kill an already-started, healthy process.
func TestGethAdapter_Start_ProcessSurvivesCallerCancelingItsOwnContext(t *testing.T) {
	t.Setenv("CHAIND_TEST_HELPER", "rpc-server")
	port := freePort(t)

	a := &GethAdapter{Executable: os.Args[0], FrontURL: "127.0.0.1", Provisioner: noAccountsProvisioner{}}
	cfg := domain.ChainConfig{DBPath: t.TempDir(), NetworkID: 999, HTTPPort: port, WSPort: port + 1}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	result, err := a.Start(ctx, cfg)
	cancel()
	require.NoError(t, err)
	defer func() { _ = a.Terminate(context.Background(), result.Handle) }()

	select {
	case <-result.Handle.Exited():
		t.Fatal("child process exited right after Start's own context was canceled")
	case <-time.After(200 * time.Millisecond):
	}
}

// TestGethAdapter_Start_ClassifiesEarlyExitAsPortInUseAtLaunch is a
// regression test for Start never surfacing ErrPortInUseAtLaunch: a
// process that dies before the readiness probe ever succeeds, as a
// port-bind race would cause, must fail with that sentinel rather than
// the generic ErrStartTimeout a slow-but-healthy process would give.
func TestGethAdapter_Start_ClassifiesEarlyExitAsPortInUseAtLaunch(t *testing.T) {
	t.Setenv("CHAIND_TEST_HELPER", "crash-early")
	port := freePort(t)

	a := &GethAdapter{Executable: os.Args[0], FrontURL: "127.0.0.1", Provisioner: noAccountsProvisioner{}}
	cfg := domain.ChainConfig{DBPath: t.TempDir(), NetworkID: 999, HTTPPort: port, WSPort: port + 1}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := a.Start(ctx, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPortInUseAtLaunch)
}
