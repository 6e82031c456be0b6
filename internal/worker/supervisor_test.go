package worker

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaind/chain-manager/internal/adapters/registry"
	"github.com/chaind/chain-manager/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newSupervisorUnderTest(t *testing.T) (*Supervisor, *registry.Registry) {
	t.Helper()
	reg := registry.New()
	return NewSupervisor(reg, testLogger()), reg
}

func TestSupervisor_Spawn_RegistersWorker(t *testing.T) {
	sup, reg := newSupervisorUnderTest(t)
	bus := &recordingBus{}
	adapter := newFakeAdapter()
	w := newTestWorker(t, domain.ChainConfig{ID: "1", Type: domain.EVMGeth}, adapter, bus)

	sup.Spawn(w)

	_, ok := reg.Lookup("1")
	assert.True(t, ok)

	require.NoError(t, w.Stop())
}

func TestSupervisor_RestartsOnCrash(t *testing.T) {
	sup, reg := newSupervisorUnderTest(t)
	bus := &recordingBus{}
	adapter := newFakeAdapter()
	w := newTestWorker(t, domain.ChainConfig{ID: "1", Type: domain.EVMGeth}, adapter, bus)

	sup.Spawn(w)
	waitForStatus(t, w, domain.StatusActive, time.Second)

	close(adapter.lastHandle.exited)
	waitForStatus(t, w, domain.StatusFailed, time.Second)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if h, ok := reg.Lookup("1"); ok {
			if replacement, ok := h.(*Worker); ok && replacement != w {
				return
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("supervisor never replaced the crashed worker with a new one")
}

func TestSupervisor_RestartRateLimited(t *testing.T) {
	sup, _ := newSupervisorUnderTest(t)

	for i := 0; i < maxRestarts; i++ {
		assert.True(t, sup.allowRestart("chain-x"))
	}
	assert.False(t, sup.allowRestart("chain-x"), "4th restart within the window should be denied")
}

func TestSupervisor_RestartRateLimit_PerChain(t *testing.T) {
	sup, _ := newSupervisorUnderTest(t)

	for i := 0; i < maxRestarts; i++ {
		assert.True(t, sup.allowRestart("chain-a"))
	}
	assert.True(t, sup.allowRestart("chain-b"), "rate limit should be scoped per chain id")
}

func TestSupervisor_Shutdown_StopsAllWorkers(t *testing.T) {
	sup, reg := newSupervisorUnderTest(t)
	bus := &recordingBus{}

	for _, id := range []string{"1", "2"} {
		adapter := newFakeAdapter()
		w := newTestWorker(t, domain.ChainConfig{ID: id, Type: domain.EVMGeth}, adapter, bus)
		sup.Spawn(w)
		waitForStatus(t, w, domain.StatusActive, time.Second)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	sup.Shutdown(ctx)

	assert.Empty(t, reg.List())
}
