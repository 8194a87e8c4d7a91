package retire

import (
	"fmt"
	"strings"
	"time"

	"github.com/stackward/esretire/internal/elasticsearch"
	"github.com/stackward/esretire/internal/logger"
)

// PollInterval is the fixed delay between snapshot status checks. Retirement
// runs are infrequent batch jobs, so a plain fixed interval is enough; no
// backoff.
const PollInterval = 10 * time.Second

// Options configures a retirement run
type Options struct {
	// Repository is the snapshot repository indices are archived into
	Repository string
	// KeepDays is the retention window; indices strictly older are retired
	KeepDays int
	// IndexFilter is a comma-separated list of index name patterns
	IndexFilter string
	// StrictSnapshotErrors makes a FAILED or PARTIAL snapshot state fatal
	// instead of re-polling it like IN_PROGRESS
	StrictSnapshotErrors bool
}

// Candidate is an index eligible for retirement, with its age for reporting
type Candidate struct {
	Index        string
	CreationDate time.Time
	AgeDays      int64
}

// Runner drives the retirement state machine over every eligible index,
// strictly sequentially. The cluster's global snapshot slot is a shared
// single-occupancy resource, so no two machines ever run concurrently.
type Runner struct {
	client elasticsearch.Interface
	log    *logger.Logger
	clock  Clock
	opts   Options
}

// NewRunner creates a runner. A nil clock means the wall clock.
func NewRunner(client elasticsearch.Interface, log *logger.Logger, clock Clock, opts Options) *Runner {
	if clock == nil {
		clock = NewClock()
	}
	return &Runner{
		client: client,
		log:    log,
		clock:  clock,
		opts:   opts,
	}
}

// SplitIndexFilter splits a comma-separated filter into discrete name
// patterns, dropping empty entries
func SplitIndexFilter(filter string) []string {
	parts := strings.Split(filter, ",")
	patterns := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			patterns = append(patterns, p)
		}
	}
	return patterns
}

// Plan lists the retirement candidates without mutating anything. Used by the
// list-outdated command and dry runs.
func (r *Runner) Plan() ([]Candidate, error) {
	patterns := SplitIndexFilter(r.opts.IndexFilter)

	indices, err := r.client.ListIndicesWithCreationDate(patterns)
	if err != nil {
		return nil, fmt.Errorf("failed to list indices: %w", err)
	}

	now := r.clock.Now()
	var candidates []Candidate
	for _, record := range indices {
		age := AgeInDays(now, record.CreationDate.Time)
		if age > int64(r.opts.KeepDays) {
			candidates = append(candidates, Candidate{
				Index:        record.Index,
				CreationDate: record.CreationDate.Time,
				AgeDays:      age,
			})
		}
	}
	return candidates, nil
}

// RetireOutdated runs the full pipeline: select outdated indices, then for
// each one wait for the snapshot gate, snapshot it, poll until the snapshot
// succeeds, and delete it. The first fatal error aborts the run, leaving the
// remaining candidates unprocessed. The returned outcomes cover every index
// that was attempted, including the failed one.
func (r *Runner) RetireOutdated() ([]Outcome, error) {
	patterns := SplitIndexFilter(r.opts.IndexFilter)

	indices, err := r.client.ListIndicesWithCreationDate(patterns)
	if err != nil {
		return nil, fmt.Errorf("failed to list indices: %w", err)
	}
	r.log.Debugf("index filter %v matched %d indices", patterns, len(indices))

	outdated := SelectOutdated(indices, r.opts.KeepDays, r.clock.Now())
	if len(outdated) > 0 {
		r.log.Infof("%d outdated indices found (older than %d days)", len(outdated), r.opts.KeepDays)
	}

	outcomes := make([]Outcome, 0, len(outdated))
	for _, index := range outdated {
		if err := r.retireOne(index); err != nil {
			outcomes = append(outcomes, Outcome{Index: index, Status: classify(err), Err: err})
			return outcomes, err
		}
		outcomes = append(outcomes, Outcome{Index: index, Status: StatusRetired})
	}

	return outcomes, nil
}

// retireOne runs a single index's state machine to completion. The loop owns
// the waiting: the machine signals StepWait and the runner sleeps through the
// injected clock.
func (r *Runner) retireOne(index string) error {
	m := NewMachine(r.client, r.log, r.opts.Repository, index, r.opts.StrictSnapshotErrors)

	for {
		result, err := m.Step()
		if err != nil {
			return err
		}
		switch result {
		case StepWait:
			r.clock.Sleep(PollInterval)
		case StepDone:
			return nil
		}
	}
}
