package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/chaind/chain-manager/internal/adapters/registry"
	"github.com/chaind/chain-manager/internal/domain"
)

// restartWindow and maxRestarts implement spec §4.6's transient
// restart policy default: 3 restarts in 60s.
const (
	restartWindow = 60 * time.Second
	maxRestarts   = 3
)

// Supervisor spawns Chain Workers, registers/deregisters them in the
// Chain Registry, and restarts them transiently on unexpected
// crashes, per spec §4.6.
type Supervisor struct {
	reg *registry.Registry
	log *slog.Logger

	mu        sync.Mutex
	restarts  map[string][]time.Time
}

func NewSupervisor(reg *registry.Registry, log *slog.Logger) *Supervisor {
	return &Supervisor{reg: reg, log: log, restarts: make(map[string][]time.Time)}
}

// Spawn registers w and runs it in its own goroutine. It blocks only
// long enough to insert w into the Registry, per spec §4.9 ("Facade
// ... does not wait for started").
func (s *Supervisor) Spawn(w *Worker) {
	s.reg.Insert(w.ID(), w)
	go s.supervise(w)
}

func (s *Supervisor) supervise(w *Worker) {
	w.Run()
	s.reg.Remove(w.ID())

	if w.Status() == domain.StatusFailed && w.Crashed() && s.allowRestart(w.ID()) {
		s.log.Warn("restarting crashed chain worker", "chain_id", w.ID())
		replacement := New(w.cfg, w.adapter, w.snaps, w.bus, w.runtime, w.metrics, s.log)
		s.Spawn(replacement)
	}
}

// allowRestart applies the rate limit: at most maxRestarts within
// restartWindow per chain ID.
func (s *Supervisor) allowRestart(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-restartWindow)
	kept := s.restarts[id][:0]
	for _, t := range s.restarts[id] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	s.restarts[id] = kept

	if len(kept) >= maxRestarts {
		return false
	}
	s.restarts[id] = append(s.restarts[id], now)
	return true
}

// Shutdown sends a cooperative stop to every live worker and waits up
// to killTimeout for all of them to exit, per spec §4.6's bounded
// termination. Workers that don't exit in time are left to their own
// adapter-level kill timeout (already enforced per-call inside each
// worker); Shutdown itself never blocks past ctx's deadline.
func (s *Supervisor) Shutdown(ctx context.Context) {
	handles := s.reg.List()

	var wg sync.WaitGroup
	for _, h := range handles {
		wg.Add(1)
		go func(h registry.Handle) {
			defer wg.Done()
			stopped := make(chan struct{})
			go func() {
				_ = h.Stop()
				close(stopped)
			}()
			select {
			case <-stopped:
			case <-ctx.Done():
			}
		}(h)
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

	select {
	case <-done:
	case <-ctx.Done():
		s.log.Warn("supervisor shutdown deadline exceeded, some workers may still be terminating")
	}
}
