package domain

import "errors"

// Sentinel errors for the error kinds enumerated in spec §7. Callers
// use errors.Is against these; adapters and usecases wrap them with
// %w to add context as they cross layer boundaries.
var (
	// ErrValidation covers kind 1: bad chain type, negative counts.
	ErrValidation = errors.New("invalid chain configuration")

	// ErrPortInUse and ErrPathInUse cover kind 2: resource conflict
	// discovered by the Allocator's probe before a worker is spawned.
	ErrPortInUse = errors.New("port in use")
	ErrPathInUse = errors.New("path in use")

	// ErrPortInUseAtLaunch is the authoritative resource-conflict
	// surfaced by the EVM Adapter itself when the Allocator's advisory
	// probe lost a race.
	ErrPortInUseAtLaunch = errors.New("port in use at launch")

	// ErrStartTimeout covers kind 3: the readiness probe never
	// succeeded within kill_timeout. An EVM process that exits before
	// its first successful probe is reported as ErrPortInUseAtLaunch.
	ErrStartTimeout = errors.New("evm did not become ready before kill timeout")

	// ErrBusy covers kind 6: a command landed on a worker that isn't
	// in a state that accepts it.
	ErrBusy = errors.New("chain busy")

	// ErrNotFound is returned by the Facade and Snapshot Manager for
	// unknown chain or snapshot IDs.
	ErrNotFound = errors.New("not found")

	// ErrUnsupported is returned by EVM Adapter operations the variant
	// does not implement (e.g. Geth internal snapshots).
	ErrUnsupported = errors.New("unsupported operation for this evm type")

	// ErrMissingArchive is surfaced by the Snapshot Manager when an
	// indexed SnapshotDetails has no corresponding archive file.
	ErrMissingArchive = errors.New("missing archive")
)
