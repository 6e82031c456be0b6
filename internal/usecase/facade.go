package usecase

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/chaind/chain-manager/internal/domain"
)

// Facade is the Chain Manager's public API (C9): start, stop,
// take_snapshot, revert_snapshot, start_mine, stop_mine, details,
// alive?, version, plus the SPEC_FULL external-data pair. It never
// touches a process, a socket, or a file directly — everything goes
// through the ports in ports.go.
type Facade struct {
	alloc     Allocator
	reg       Registry
	sup       Supervisor
	adapters  AdapterFactory
	snapshots SnapshotIndex
	basePath  string
}

func NewFacade(alloc Allocator, reg Registry, sup Supervisor, adapters AdapterFactory, snapshots SnapshotIndex, basePath string) *Facade {
	return &Facade{alloc: alloc, reg: reg, sup: sup, adapters: adapters, snapshots: snapshots, basePath: basePath}
}

// StartResult is what Start returns, per spec §4.9: `{ok, id}`
// returned after the Supervisor accepts the worker, without waiting
// for the `started` event.
type StartResult struct {
	ID string
}

// Start validates cfg, fills in missing id/ports/path via the
// Allocator, and asks the Supervisor to spawn a worker, per spec
// §4.9. It returns as soon as the Supervisor accepts the worker; the
// caller observes `started` on the Notification Bus.
func (f *Facade) Start(cfg domain.ChainConfig) (StartResult, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return StartResult{}, err
	}

	if cfg.ID == "" {
		id, err := f.alloc.NewID()
		if err != nil {
			return StartResult{}, fmt.Errorf("facade: allocating id: %w", err)
		}
		cfg.ID = id
	}

	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(f.basePath, cfg.ID)
	} else if f.alloc.PathInUse(cfg.DBPath) {
		return StartResult{}, fmt.Errorf("%w: %s", domain.ErrPathInUse, cfg.DBPath)
	}

	if cfg.Type == domain.EVMGanache && cfg.HTTPPort != 0 {
		cfg.WSPort = cfg.HTTPPort // Ganache invariant: http_port == ws_port, per spec §3
	}

	if cfg.HTTPPort == 0 {
		http, ws, err := f.alloc.AllocatePorts()
		if err != nil {
			return StartResult{}, fmt.Errorf("facade: allocating ports: %w", err)
		}
		cfg.HTTPPort, cfg.WSPort = http, ws
		if cfg.Type == domain.EVMGanache {
			cfg.WSPort = cfg.HTTPPort
		}
	} else {
		if f.alloc.PortInUse(cfg.HTTPPort) || (cfg.WSPort != 0 && f.alloc.PortInUse(cfg.WSPort)) {
			return StartResult{}, fmt.Errorf("%w: http=%d ws=%d", domain.ErrPortInUse, cfg.HTTPPort, cfg.WSPort)
		}
		if cfg.WSPort == 0 {
			cfg.WSPort = cfg.HTTPPort
		}
	}

	if cfg.SnapshotID != "" {
		details, err := f.snapshots.ByID(cfg.SnapshotID)
		if err != nil {
			return StartResult{}, fmt.Errorf("facade: resolving snapshot %s: %w", cfg.SnapshotID, err)
		}
		if err := f.snapshots.Restore(context.Background(), details, cfg.DBPath); err != nil {
			return StartResult{}, fmt.Errorf("facade: seeding from snapshot %s: %w", cfg.SnapshotID, err)
		}
	}

	adapter, err := f.adapters.For(cfg.Type)
	if err != nil {
		return StartResult{}, fmt.Errorf("facade: selecting adapter: %w", err)
	}

	if err := f.sup.StartChain(cfg, adapter); err != nil {
		return StartResult{}, fmt.Errorf("facade: spawning worker: %w", err)
	}

	return StartResult{ID: cfg.ID}, nil
}

func (f *Facade) lookup(id string) (Handle, error) {
	h, ok := f.reg.Lookup(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return h, nil
}

// Stop asks the chain's worker to terminate, per spec §4.9/§4.4.
func (f *Facade) Stop(id string) error {
	h, err := f.lookup(id)
	if err != nil {
		return err
	}
	return h.Stop()
}

// TakeSnapshot routes take_snapshot to the chain's worker.
func (f *Facade) TakeSnapshot(id, description string) (domain.SnapshotDetails, error) {
	h, err := f.lookup(id)
	if err != nil {
		return domain.SnapshotDetails{}, err
	}
	return h.TakeSnapshot(description)
}

// RevertSnapshot routes revert_snapshot to the chain's worker.
func (f *Facade) RevertSnapshot(id string, details domain.SnapshotDetails) error {
	h, err := f.lookup(id)
	if err != nil {
		return err
	}
	return h.RevertSnapshot(details)
}

func (f *Facade) StartMine(id string) error {
	h, err := f.lookup(id)
	if err != nil {
		return err
	}
	return h.StartMine()
}

func (f *Facade) StopMine(id string) error {
	h, err := f.lookup(id)
	if err != nil {
		return err
	}
	return h.StopMine()
}

// Details returns the chain's current ChainHandle, per spec §4.9.
func (f *Facade) Details(id string) (domain.ChainHandle, error) {
	h, err := f.lookup(id)
	if err != nil {
		return domain.ChainHandle{}, err
	}
	return h.Details(), nil
}

// Alive reports whether id names a live worker, per spec §4.9's
// `alive?`.
func (f *Facade) Alive(id string) bool {
	h, ok := f.reg.Lookup(id)
	if !ok {
		return false
	}
	return h.Status().Live()
}

// Version returns the underlying EVM's client version string.
func (f *Facade) Version(id string) (string, error) {
	h, err := f.lookup(id)
	if err != nil {
		return "", err
	}
	return h.Version()
}

// List returns ChainHandles for every live chain, used by `chainctl
// list` and by the `details/1` operation spec §9 says the source
// declared but never implemented.
func (f *Facade) List() []domain.ChainHandle {
	handles := f.reg.List()
	out := make([]domain.ChainHandle, 0, len(handles))
	for _, h := range handles {
		d, err := f.Details(h.ID())
		if err == nil {
			out = append(out, d)
		}
	}
	return out
}

// WriteExternalData persists opaque client metadata for id, per
// SPEC_FULL's promoted write_external_data operation.
func (f *Facade) WriteExternalData(id string, data map[string]interface{}) error {
	h, err := f.lookup(id)
	if err != nil {
		return err
	}
	return h.WriteExternalData(data)
}

// ReadExternalData reads back opaque client metadata for id.
func (f *Facade) ReadExternalData(id string) (map[string]interface{}, error) {
	h, err := f.lookup(id)
	if err != nil {
		return nil, err
	}
	return h.ReadExternalData()
}

// SnapshotByID, SnapshotsByChain, SnapshotsList, and RemoveSnapshot
// expose the Snapshot Manager's index operations spec §4.7 lists,
// which are not chain-worker-routed (the index is consulted directly,
// not serialized through a chain's mailbox).
func (f *Facade) SnapshotByID(id string) (domain.SnapshotDetails, error) {
	return f.snapshots.ByID(id)
}

func (f *Facade) SnapshotsByChain(t domain.EVMType) ([]domain.SnapshotDetails, error) {
	return f.snapshots.ByChain(t)
}

func (f *Facade) SnapshotsList() ([]domain.SnapshotDetails, error) {
	return f.snapshots.List()
}

func (f *Facade) RemoveSnapshot(id string) error {
	return f.snapshots.Remove(id)
}
