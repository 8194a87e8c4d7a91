package retire

import (
	"errors"
	"fmt"
)

// Status classifies the result of a single index's retirement run
type Status int

const (
	// StatusRetired means the index was snapshotted and deleted
	StatusRetired Status = iota
	// StatusSnapshotFailed means the snapshot reached FAILED or PARTIAL
	// while strict snapshot error handling was enabled
	StatusSnapshotFailed
	// StatusTransportError means a cluster call failed
	StatusTransportError
)

func (s Status) String() string {
	switch s {
	case StatusRetired:
		return "retired"
	case StatusSnapshotFailed:
		return "snapshot failed"
	case StatusTransportError:
		return "transport error"
	default:
		return "unknown"
	}
}

// Outcome is the per-index result of a retirement run. Outcomes are reported,
// never persisted; a re-run re-queries current cluster state.
type Outcome struct {
	Index  string
	Status Status
	Err    error
}

// SnapshotStateError reports a snapshot observed in a non-recoverable state
// during polling. It only surfaces when strict snapshot error handling is on;
// otherwise FAILED and PARTIAL are re-polled like IN_PROGRESS.
type SnapshotStateError struct {
	Snapshot string
	State    string
}

func (e *SnapshotStateError) Error() string {
	return fmt.Sprintf("snapshot %s reached state %s", e.Snapshot, e.State)
}

// classify maps an error from the state machine to an outcome status
func classify(err error) Status {
	var stateErr *SnapshotStateError
	if errors.As(err, &stateErr) {
		return StatusSnapshotFailed
	}
	return StatusTransportError
}
