// Package worker implements the Chain Worker (C4) and Chain
// Supervisor (C6): a per-chain serialized command processor with a
// state machine exactly matching spec §4.4's transition table, and
// the supervisor that spawns workers under a transient restart
// policy with a bounded kill timeout, per spec §4.6.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chaind/chain-manager/internal/adapters/evm"
	"github.com/chaind/chain-manager/internal/adapters/snapshot"
	"github.com/chaind/chain-manager/internal/config"
	"github.com/chaind/chain-manager/internal/domain"
	"github.com/chaind/chain-manager/internal/metrics"
)

// mailboxSize is the worker's command channel depth. Spec §4.4 only
// requires per-chain serialization, not a specific depth; a small
// buffer lets the Facade's non-blocking submit (spec §4.9: "does not
// wait for started") queue a couple of commands without the caller
// stalling on a busy worker.
const mailboxSize = 8

// Bus is the subset of the Notification Bus a Worker publishes to.
type Bus interface {
	Publish(topic string, evt domain.Event)
}

// Worker is one chain's state machine and command processor. It
// satisfies registry.Handle.
type Worker struct {
	cfg      domain.ChainConfig
	adapter  evm.Adapter
	snaps    *snapshot.Manager
	bus      Bus
	runtime  *config.Runtime
	metrics  *metrics.Registry
	log      *slog.Logger

	mailbox chan command
	done    chan struct{}
	closed  atomic.Bool // set once loop has started draining the mailbox for good

	status atomic.Value // domain.ChainStatus
	mu     sync.RWMutex
	handle evm.ProcessHandle
	accts  []domain.Account
	coinbase string

	crashed chan struct{} // closed if the worker exits via an unexpected adapter crash, for the Supervisor's restart policy
}

// New constructs a Worker for cfg. It does not start the EVM process;
// call Run to do that (spec §4.4's "(auto) adapter.start" transition
// happens at the top of Run).
func New(cfg domain.ChainConfig, adapter evm.Adapter, snaps *snapshot.Manager, bus Bus, rt *config.Runtime, reg *metrics.Registry, log *slog.Logger) *Worker {
	w := &Worker{
		cfg:     cfg,
		adapter: adapter,
		snaps:   snaps,
		bus:     bus,
		runtime: rt,
		metrics: reg,
		log:     log.With("chain_id", cfg.ID, "evm_type", string(cfg.Type)),
		mailbox: make(chan command, mailboxSize),
		done:    make(chan struct{}),
		crashed: make(chan struct{}),
	}
	w.status.Store(domain.StatusInitializing)
	return w
}

func (w *Worker) ID() string               { return w.cfg.ID }
func (w *Worker) HTTPPort() int            { return w.cfg.HTTPPort }
func (w *Worker) WSPort() int              { return w.cfg.WSPort }
func (w *Worker) DBPath() string           { return w.cfg.DBPath }
func (w *Worker) Status() domain.ChainStatus { return w.status.Load().(domain.ChainStatus) }

// Crashed reports, after Run has returned, whether the exit was an
// unexpected adapter crash (vs. a clean stop/start-failure), for the
// Supervisor's transient restart policy.
func (w *Worker) Crashed() bool {
	select {
	case <-w.crashed:
		return true
	default:
		return false
	}
}


func (w *Worker) setStatus(s domain.ChainStatus) {
	w.status.Store(s)
	w.bus.Publish(domain.ChainTopic(w.cfg.ID), domain.Event{
		ChainID: w.cfg.ID, Topic: domain.ChainTopic(w.cfg.ID), Type: domain.EventStatusChanged,
		Payload: domain.StatusChangedPayload{Status: s}, At: time.Now(),
	})
	w.bus.Publish(domain.APITopic, domain.Event{
		ChainID: w.cfg.ID, Topic: domain.APITopic, Type: domain.EventStatusChanged,
		Payload: domain.StatusChangedPayload{Status: s}, At: time.Now(),
	})
}

func (w *Worker) emit(evtType domain.EventType, payload interface{}) {
	now := time.Now()
	w.bus.Publish(domain.ChainTopic(w.cfg.ID), domain.Event{ChainID: w.cfg.ID, Topic: domain.ChainTopic(w.cfg.ID), Type: evtType, Payload: payload, At: now})
	w.bus.Publish(domain.APITopic, domain.Event{ChainID: w.cfg.ID, Topic: domain.APITopic, Type: evtType, Payload: payload, At: now})
}

func (w *Worker) killCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(w.runtime.KillTimeoutMs)*time.Millisecond)
}

// stopGraceTimeout is the fixed cooperative-then-forceful grace period
// spec §5 mandates for stop specifically (send exit/SIGINT, wait, then
// OS-kill), independent of kill_timeout_ms which bounds every other
// blocking adapter call (start, snapshot create/extract, mining toggles).
const stopGraceTimeout = 5 * time.Second

func (w *Worker) stopCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), stopGraceTimeout)
}

// Run is the Worker's goroutine body: the "(auto) adapter.start"
// transition, then the serialized command loop, per spec §4.4. It
// returns once the worker reaches a terminal state (stopped or
// failed).
func (w *Worker) Run() {
	defer close(w.done)

	ctx, cancel := w.killCtx()
	result, err := w.adapter.Start(ctx, w.cfg)
	cancel()
	if err != nil {
		w.log.Error("chain failed to start", "err", err)
		w.status.Store(domain.StatusFailed)
		w.emit(domain.EventError, domain.ErrorPayload{Message: err.Error()})
		w.setStatus(domain.StatusFailed)
		if w.metrics != nil {
			w.metrics.ChainFailures.WithLabelValues(string(w.cfg.Type), "start_timeout").Inc()
		}
		return
	}

	w.mu.Lock()
	w.handle = result.Handle
	w.accts = result.Accounts
	w.coinbase = result.Coinbase
	w.mu.Unlock()

	w.status.Store(domain.StatusActive)
	if w.metrics != nil {
		w.metrics.ChainStarts.WithLabelValues(string(w.cfg.Type)).Inc()
		w.metrics.ChainsActive.Inc()
	}
	w.emit(domain.EventStarted, w.details())
	w.setStatus(domain.StatusActive)

	w.loop()

	if w.metrics != nil {
		w.metrics.ChainsActive.Dec()
	}
}

// loop processes commands serially until a terminating command or an
// adapter crash ends the worker, per spec §4.4's transition table. It
// watches the current process handle's Exited channel alongside the
// mailbox so an unexpected EVM exit is noticed even with no command
// pending.
func (w *Worker) loop() {
	defer w.drainMailbox()
	for {
		select {
		case cmd, ok := <-w.mailbox:
			if !ok {
				return
			}
			if w.dispatch(cmd) {
				return
			}
			if w.Status() == domain.StatusFailed {
				return
			}

		case <-w.currentHandle().Exited():
			if w.Status() == domain.StatusActive {
				w.log.Error("evm process exited unexpectedly")
				w.status.Store(domain.StatusFailed)
				w.emit(domain.EventError, domain.ErrorPayload{Message: "evm process exited unexpectedly"})
				w.setStatus(domain.StatusFailed)
				close(w.crashed)
				if w.metrics != nil {
					w.metrics.ChainFailures.WithLabelValues(string(w.cfg.Type), "crash").Inc()
				}
			}
			return
		}
	}
}

// drainMailbox runs once loop is about to return for good: it marks the
// worker closed so submit stops accepting new commands, then replies to
// every command still sitting in the mailbox buffer instead of leaving
// the submitter blocked forever. A queued stop is treated as already
// satisfied — the chain isn't running any more, which is what stop
// wanted — per spec §4.4's "stop received during a snapshot op ... or
// after its failure" edge case; every other command reports the worker
// as no longer accepting work.
func (w *Worker) drainMailbox() {
	w.closed.Store(true)
	for {
		select {
		case cmd := <-w.mailbox:
			w.failQueuedCommand(cmd)
		default:
			return
		}
	}
}

func (w *Worker) failQueuedCommand(cmd command) {
	switch c := cmd.(type) {
	case cmdStop:
		c.reply <- nil
	case cmdTakeSnapshot:
		c.reply <- TakeSnapshotResult{Err: domain.ErrBusy}
	case cmdRevertSnapshot:
		c.reply <- domain.ErrBusy
	case cmdStartMine:
		c.reply <- domain.ErrBusy
	case cmdStopMine:
		c.reply <- domain.ErrBusy
	case cmdDetails:
		c.reply <- w.details()
	case cmdVersion:
		c.reply <- VersionResult{Err: domain.ErrBusy}
	case cmdWriteExternal:
		c.reply <- domain.ErrBusy
	case cmdReadExternal:
		c.reply <- ReadExternalResult{Err: domain.ErrBusy}
	}
}

// dispatch handles one mailbox command, returning true if the worker
// should exit its loop (only cmdStop does).
func (w *Worker) dispatch(cmd command) bool {
	switch c := cmd.(type) {
	case cmdStop:
		c.reply <- w.handleStop()
		return true
	case cmdTakeSnapshot:
		c.reply <- w.handleTakeSnapshot(c.description)
	case cmdRevertSnapshot:
		c.reply <- w.handleRevertSnapshot(c.details)
	case cmdStartMine:
		ctx, cancel := w.killCtx()
		c.reply <- w.adapter.StartMine(ctx, w.currentHandle())
		cancel()
	case cmdStopMine:
		ctx, cancel := w.killCtx()
		c.reply <- w.adapter.StopMine(ctx, w.currentHandle())
		cancel()
	case cmdDetails:
		c.reply <- w.details()
	case cmdVersion:
		ctx, cancel := w.killCtx()
		v, err := w.adapter.Version(ctx, w.currentHandle())
		cancel()
		c.reply <- VersionResult{Version: v, Err: err}
	case cmdWriteExternal:
		c.reply <- w.writeExternal(c.data)
	case cmdReadExternal:
		data, err := w.readExternal()
		c.reply <- ReadExternalResult{Data: data, Err: err}
	}
	return false
}

func (w *Worker) currentHandle() evm.ProcessHandle {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.handle
}

func (w *Worker) details() domain.ChainHandle {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return domain.ChainHandle{
		ID:       w.cfg.ID,
		Type:     w.cfg.Type,
		Status:   w.Status(),
		Accounts: w.accts,
		Coinbase: w.coinbase,
		RPCURL:   fmt.Sprintf("http://%s:%d", w.runtime.FrontURL, w.cfg.HTTPPort),
		WSURL:    fmt.Sprintf("ws://%s:%d", w.runtime.FrontURL, w.cfg.WSPort),
	}
}

// handleStop implements the terminating transition: cooperative stop,
// optional wipe, stopped event, per spec §4.4/§4.6.
func (w *Worker) handleStop() error {
	w.setStatus(domain.StatusTerminating)

	ctx, cancel := w.stopCtx()
	err := w.adapter.Stop(ctx, w.currentHandle())
	cancel()
	if err != nil {
		w.log.Warn("adapter stop returned error, proceeding with shutdown", "err", err)
	}

	if w.cfg.CleanOnStop {
		if rmErr := os.RemoveAll(w.cfg.DBPath); rmErr != nil {
			w.log.Warn("failed to clean data directory on stop", "err", rmErr)
		}
	}

	w.status.Store(domain.StatusStopped)
	w.emit(domain.EventStopped, nil)
	return nil
}

// handleTakeSnapshot implements the snapshot_taking sequence in spec
// §4.4: stop, archive, index, restart, re-probe.
func (w *Worker) handleTakeSnapshot(description string) TakeSnapshotResult {
	if w.Status() != domain.StatusActive {
		return TakeSnapshotResult{Err: domain.ErrBusy}
	}
	w.setStatus(domain.StatusSnapshotTaking)

	stopCtx, cancel := w.stopCtx()
	stopErr := w.adapter.Stop(stopCtx, w.currentHandle())
	cancel()
	if stopErr != nil {
		return w.failSnapshot(fmt.Errorf("stopping before snapshot: %w", stopErr))
	}

	archiveCtx, cancel := w.killCtx()
	details, err := w.snaps.Take(archiveCtx, w.cfg.Type, w.cfg.DBPath, description)
	cancel()
	if err != nil {
		return w.failSnapshot(fmt.Errorf("archiving: %w", err))
	}

	if err := w.restartAfter("snapshot"); err != nil {
		return w.failSnapshot(err)
	}

	w.emit(domain.EventSnapshotTaken, details)
	w.setStatus(domain.StatusActive)
	w.emit(domain.EventStarted, w.details())

	return TakeSnapshotResult{Details: details}
}

func (w *Worker) failSnapshot(err error) TakeSnapshotResult {
	w.log.Error("snapshot operation failed", "err", err)
	w.status.Store(domain.StatusFailed)
	w.emit(domain.EventError, domain.ErrorPayload{Message: err.Error()})
	w.setStatus(domain.StatusFailed)
	if w.metrics != nil {
		w.metrics.SnapshotOps.WithLabelValues("take", "error").Inc()
	}
	return TakeSnapshotResult{Err: err}
}

// handleRevertSnapshot implements the snapshot_reverting sequence in
// spec §4.4: stop, clear db_path, extract, restart, re-probe.
func (w *Worker) handleRevertSnapshot(details domain.SnapshotDetails) error {
	if w.Status() != domain.StatusActive {
		return domain.ErrBusy
	}
	w.setStatus(domain.StatusSnapshotReverting)

	stopCtx, cancel := w.stopCtx()
	stopErr := w.adapter.Stop(stopCtx, w.currentHandle())
	cancel()
	if stopErr != nil {
		return w.failRevert(fmt.Errorf("stopping before revert: %w", stopErr))
	}

	restoreCtx, cancel := w.killCtx()
	err := w.snaps.Restore(restoreCtx, details, w.cfg.DBPath)
	cancel()
	if err != nil {
		return w.failRevert(fmt.Errorf("restoring: %w", err))
	}

	if err := w.restartAfter("revert"); err != nil {
		return w.failRevert(err)
	}

	w.emit(domain.EventSnapshotReverted, details)
	w.setStatus(domain.StatusActive)
	w.emit(domain.EventStarted, w.details())

	if w.metrics != nil {
		w.metrics.SnapshotOps.WithLabelValues("revert", "ok").Inc()
	}
	return nil
}

func (w *Worker) failRevert(err error) error {
	w.log.Error("revert operation failed", "err", err)
	w.status.Store(domain.StatusFailed)
	w.emit(domain.EventError, domain.ErrorPayload{Message: err.Error()})
	w.setStatus(domain.StatusFailed)
	if w.metrics != nil {
		w.metrics.SnapshotOps.WithLabelValues("revert", "error").Inc()
	}
	return err
}

// restartAfter re-launches the adapter with the worker's original
// config and re-probes readiness, shared by the snapshot take/revert
// paths.
func (w *Worker) restartAfter(op string) error {
	startCtx, cancel := w.killCtx()
	result, err := w.adapter.Start(startCtx, w.cfg)
	cancel()
	if err != nil {
		return fmt.Errorf("restarting after %s: %w", op, err)
	}
	w.mu.Lock()
	w.handle = result.Handle
	w.accts = result.Accounts
	w.coinbase = result.Coinbase
	w.mu.Unlock()
	return nil
}

// externalPath is <base_path>/<id>/external.json, per spec §6's
// persisted state layout.
func (w *Worker) externalPath() string {
	return filepath.Join(w.cfg.DBPath, "external.json")
}

func (w *Worker) writeExternal(data map[string]interface{}) error {
	buf, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("worker: marshaling external data: %w", err)
	}
	if err := os.WriteFile(w.externalPath(), buf, 0o644); err != nil {
		return fmt.Errorf("worker: writing external.json: %w", err)
	}
	return nil
}

func (w *Worker) readExternal() (map[string]interface{}, error) {
	buf, err := os.ReadFile(w.externalPath())
	if os.IsNotExist(err) {
		return map[string]interface{}{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("worker: reading external.json: %w", err)
	}
	var data map[string]interface{}
	if err := json.Unmarshal(buf, &data); err != nil {
		return nil, fmt.Errorf("worker: parsing external.json: %w", err)
	}
	return data, nil
}
