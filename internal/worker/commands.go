package worker

import "github.com/chaind/chain-manager/internal/domain"

// command is the mailbox message type. Each concrete command carries
// its own response channel so the submitter can wait for the result
// without the Worker needing to know about request/reply framing.
type command interface {
	isCommand()
}

type cmdStop struct {
	reply chan error
}

func (cmdStop) isCommand() {}

type cmdTakeSnapshot struct {
	description string
	reply       chan TakeSnapshotResult
}

func (cmdTakeSnapshot) isCommand() {}

// TakeSnapshotResult is the reply shape for a take_snapshot command.
type TakeSnapshotResult struct {
	Details domain.SnapshotDetails
	Err     error
}

type cmdRevertSnapshot struct {
	details domain.SnapshotDetails
	reply   chan error
}

func (cmdRevertSnapshot) isCommand() {}

type cmdStartMine struct {
	reply chan error
}

func (cmdStartMine) isCommand() {}

type cmdStopMine struct {
	reply chan error
}

func (cmdStopMine) isCommand() {}

type cmdDetails struct {
	reply chan domain.ChainHandle
}

func (cmdDetails) isCommand() {}

type cmdVersion struct {
	reply chan VersionResult
}

func (cmdVersion) isCommand() {}

// VersionResult is the reply shape for a version command.
type VersionResult struct {
	Version string
	Err     error
}

type cmdWriteExternal struct {
	data  map[string]interface{}
	reply chan error
}

func (cmdWriteExternal) isCommand() {}

type cmdReadExternal struct {
	reply chan ReadExternalResult
}

func (cmdReadExternal) isCommand() {}

// ReadExternalResult is the reply shape for a read_external_data command.
type ReadExternalResult struct {
	Data map[string]interface{}
	Err  error
}
