// Package usecase implements the Chain Facade (C9): the thin public
// dispatcher spec §4.9 describes. It depends only on the narrow
// interfaces below so it can be tested against fakes; concrete
// adapters are wired in by internal/app.
package usecase

import (
	"context"

	"github.com/chaind/chain-manager/internal/adapters/evm"
	"github.com/chaind/chain-manager/internal/domain"
)

// Allocator is the subset of the Resource Allocator the Facade needs
// to fill in a submitted ChainConfig's missing fields, per spec §4.1.
type Allocator interface {
	NewID() (string, error)
	AllocatePorts() (http, ws int, err error)
	PortInUse(port int) bool
	PathInUse(path string) bool
}

// Handle is the minimal view of a live worker the Facade routes
// commands through. Any worker handle (e.g. *worker.Worker) satisfies
// this structurally.
type Handle interface {
	ID() string
	HTTPPort() int
	WSPort() int
	DBPath() string
	Status() domain.ChainStatus
	Stop() error
	TakeSnapshot(description string) (domain.SnapshotDetails, error)
	RevertSnapshot(details domain.SnapshotDetails) error
	StartMine() error
	StopMine() error
	Details() domain.ChainHandle
	Version() (string, error)
	WriteExternalData(data map[string]interface{}) error
	ReadExternalData() (map[string]interface{}, error)
}

// Registry is the subset of the Chain Registry the Facade routes
// commands through, per spec §4.5.
type Registry interface {
	Lookup(id string) (Handle, bool)
	List() []Handle
}

// Supervisor is the subset of the Chain Supervisor the Facade uses to
// start new workers, per spec §4.6. StartChain registers the new
// worker in the Registry itself before returning, so the Facade's
// `start` can immediately route to it via Registry.Lookup.
type Supervisor interface {
	StartChain(cfg domain.ChainConfig, adapter evm.Adapter) error
}

// AdapterFactory builds the right EVM Adapter for a chain type, per
// spec §4.3's polymorphism requirement.
type AdapterFactory interface {
	For(t domain.EVMType) (evm.Adapter, error)
}

// SnapshotIndex is the subset of the Snapshot Manager the Facade
// consults for by_id/by_chain/list/remove, plus restore to seed a new
// chain's data directory in Start; take, and restore during a revert,
// happen inside the Worker during a take_snapshot/revert_snapshot
// command.
type SnapshotIndex interface {
	ByID(id string) (domain.SnapshotDetails, error)
	ByChain(t domain.EVMType) ([]domain.SnapshotDetails, error)
	List() ([]domain.SnapshotDetails, error)
	Remove(id string) error
	Restore(ctx context.Context, details domain.SnapshotDetails, dbPath string) error
}
