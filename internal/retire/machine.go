package retire

import (
	"fmt"
	"strings"

	"github.com/stackward/esretire/internal/elasticsearch"
	"github.com/stackward/esretire/internal/logger"
)

// State is the position of a single index in its retirement sequence
type State int

const (
	// StatePending is the initial state, before the snapshot gate
	StatePending State = iota
	// StateGateWait waits for cluster-wide snapshot activity to clear
	StateGateWait
	// StateSnapshotRequested issues the snapshot creation call
	StateSnapshotRequested
	// StateSnapshotPolling polls until the snapshot reaches SUCCESS
	StateSnapshotPolling
	// StateSnapshotDone deletes the index now that its snapshot succeeded
	StateSnapshotDone
	// StateIndexDeleted is the terminal success state
	StateIndexDeleted
	// StateFailed is the terminal failure state, reachable from any state
	// on a cluster call error
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateGateWait:
		return "gate-wait"
	case StateSnapshotRequested:
		return "snapshot-requested"
	case StateSnapshotPolling:
		return "snapshot-polling"
	case StateSnapshotDone:
		return "snapshot-done"
	case StateIndexDeleted:
		return "index-deleted"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// StepResult tells the caller what to do after a step
type StepResult int

const (
	// StepAdvance means the machine moved to a new state; step again
	StepAdvance StepResult = iota
	// StepWait means an external condition is not met yet; sleep, then
	// step again
	StepWait
	// StepDone means the index has been retired
	StepDone
)

// Machine runs one index through the retirement sequence. Each Step performs
// at most one cluster call and returns a signal for the caller-controlled
// loop, which owns all sleeping. The machine itself never blocks.
type Machine struct {
	client     elasticsearch.Interface
	log        *logger.Logger
	repository string
	index      string
	strict     bool
	state      State
}

// NewMachine creates a retirement machine for a single index. With strict
// enabled, a snapshot observed in FAILED or PARTIAL state fails the machine
// instead of being re-polled indefinitely.
func NewMachine(client elasticsearch.Interface, log *logger.Logger, repository, index string, strict bool) *Machine {
	return &Machine{
		client:     client,
		log:        log,
		repository: repository,
		index:      index,
		strict:     strict,
		state:      StatePending,
	}
}

// State returns the machine's current state
func (m *Machine) State() State {
	return m.state
}

// Step advances the machine by one transition. On error the machine is in
// StateFailed and must not be stepped again.
func (m *Machine) Step() (StepResult, error) {
	switch m.state {
	case StatePending:
		m.state = StateGateWait
		return StepAdvance, nil

	case StateGateWait:
		return m.stepGateWait()

	case StateSnapshotRequested:
		return m.stepCreateSnapshot()

	case StateSnapshotPolling:
		return m.stepPollSnapshot()

	case StateSnapshotDone:
		return m.stepDeleteIndex()

	case StateIndexDeleted:
		return StepDone, nil

	default:
		return StepDone, fmt.Errorf("retirement of %s already failed", m.index)
	}
}

// stepGateWait checks the cluster-wide snapshot status. The gate is
// cooperative: it never claims a lock, it only waits for the observed
// in-progress set to be empty, so a race remains between this check and the
// create call if another process starts a snapshot in between.
func (m *Machine) stepGateWait() (StepResult, error) {
	running, err := m.client.ClusterSnapshotStatus()
	if err != nil {
		m.state = StateFailed
		return StepDone, fmt.Errorf("failed to check cluster snapshot activity: %w", err)
	}

	if len(running) > 0 {
		names := make([]string, 0, len(running))
		for _, s := range running {
			names = append(names, s.Snapshot)
		}
		m.log.Infof("Waiting for running snapshot(s) to finish: %s", strings.Join(names, ", "))
		return StepWait, nil
	}

	m.state = StateSnapshotRequested
	return StepAdvance, nil
}

func (m *Machine) stepCreateSnapshot() (StepResult, error) {
	m.log.Infof("Taking snapshot of %s into repository '%s'...", m.index, m.repository)

	body, err := m.client.CreateSnapshot(m.repository, m.index)
	if err != nil {
		m.state = StateFailed
		return StepDone, fmt.Errorf("failed to create snapshot for %s: %w", m.index, err)
	}
	m.log.Responsef("create snapshot", body)

	m.state = StateSnapshotPolling
	return StepAdvance, nil
}

func (m *Machine) stepPollSnapshot() (StepResult, error) {
	statuses, err := m.client.SnapshotStatus(m.repository, []string{m.index})
	if err != nil {
		m.state = StateFailed
		return StepDone, fmt.Errorf("failed to check snapshot status for %s: %w", m.index, err)
	}

	for _, s := range statuses {
		if s.Snapshot != m.index {
			continue
		}
		if s.State == elasticsearch.SnapshotStateSuccess {
			m.state = StateSnapshotDone
			return StepAdvance, nil
		}
		if m.strict && (s.State == elasticsearch.SnapshotStateFailed || s.State == elasticsearch.SnapshotStatePartial) {
			m.state = StateFailed
			return StepDone, &SnapshotStateError{Snapshot: s.Snapshot, State: s.State}
		}
	}

	m.log.Infof("Snapshot %s is not ready yet, waiting...", m.index)
	return StepWait, nil
}

// stepDeleteIndex deletes the index. Deletion is fire-and-forget once the
// precondition holds: a same-named snapshot has been observed in SUCCESS.
func (m *Machine) stepDeleteIndex() (StepResult, error) {
	body, err := m.client.DeleteIndex(m.index)
	if err != nil {
		m.state = StateFailed
		return StepDone, fmt.Errorf("failed to delete index %s: %w", m.index, err)
	}
	m.log.Responsef("delete index", body)
	m.log.Successf("Retired index %s", m.index)

	m.state = StateIndexDeleted
	return StepDone, nil
}
