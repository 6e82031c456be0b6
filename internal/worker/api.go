package worker

import "github.com/chaind/chain-manager/internal/domain"

// This file is the Worker's public command API: each method builds
// the matching mailbox command, submits it, and blocks for the
// reply. It is the only way callers outside this package reach a
// running chain — the usecase.Handle port is satisfied structurally
// by these methods.

// submit enqueues cmd on the mailbox. Per spec §4.4's tie-break policy,
// stop is the only command allowed to queue behind an in-flight op;
// every other command is rejected with busy immediately when the
// worker isn't active, rather than silently waiting in the buffer for
// the worker to become active again.
func (w *Worker) submit(cmd command) error {
	if w.closed.Load() {
		return domain.ErrBusy
	}
	if _, isStop := cmd.(cmdStop); !isStop && w.Status() != domain.StatusActive {
		return domain.ErrBusy
	}
	select {
	case w.mailbox <- cmd:
		return nil
	case <-w.done:
		return domain.ErrBusy
	}
}

// Stop asks the worker to terminate, per spec §4.9.
func (w *Worker) Stop() error {
	reply := make(chan error, 1)
	if err := w.submit(cmdStop{reply: reply}); err != nil {
		return err
	}
	return <-reply
}

// TakeSnapshot routes a take_snapshot command to the worker.
func (w *Worker) TakeSnapshot(description string) (domain.SnapshotDetails, error) {
	reply := make(chan TakeSnapshotResult, 1)
	if err := w.submit(cmdTakeSnapshot{description: description, reply: reply}); err != nil {
		return domain.SnapshotDetails{}, err
	}
	r := <-reply
	return r.Details, r.Err
}

// RevertSnapshot routes a revert_snapshot command to the worker.
func (w *Worker) RevertSnapshot(details domain.SnapshotDetails) error {
	reply := make(chan error, 1)
	if err := w.submit(cmdRevertSnapshot{details: details, reply: reply}); err != nil {
		return err
	}
	return <-reply
}

func (w *Worker) StartMine() error {
	reply := make(chan error, 1)
	if err := w.submit(cmdStartMine{reply: reply}); err != nil {
		return err
	}
	return <-reply
}

func (w *Worker) StopMine() error {
	reply := make(chan error, 1)
	if err := w.submit(cmdStopMine{reply: reply}); err != nil {
		return err
	}
	return <-reply
}

// Details returns the worker's current ChainHandle view.
func (w *Worker) Details() domain.ChainHandle {
	reply := make(chan domain.ChainHandle, 1)
	if err := w.submit(cmdDetails{reply: reply}); err != nil {
		// Worker has exited, or is busy with another op; either way
		// synthesize a view from the last known state rather than
		// blocking or surfacing busy for a read-only query.
		return w.details()
	}
	return <-reply
}

func (w *Worker) Version() (string, error) {
	reply := make(chan VersionResult, 1)
	if err := w.submit(cmdVersion{reply: reply}); err != nil {
		return "", err
	}
	r := <-reply
	return r.Version, r.Err
}

func (w *Worker) WriteExternalData(data map[string]interface{}) error {
	reply := make(chan error, 1)
	if err := w.submit(cmdWriteExternal{data: data, reply: reply}); err != nil {
		return err
	}
	return <-reply
}

func (w *Worker) ReadExternalData() (map[string]interface{}, error) {
	reply := make(chan ReadExternalResult, 1)
	if err := w.submit(cmdReadExternal{reply: reply}); err != nil {
		return nil, err
	}
	r := <-reply
	return r.Data, r.Err
}
