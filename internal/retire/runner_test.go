package retire

import (
	"errors"
	"testing"
	"time"

	"github.com/stackward/esretire/internal/elasticsearch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRunner(client *fakeClient, opts Options) (*Runner, *fakeClock) {
	clock := &fakeClock{now: testNow}
	return NewRunner(client, testLogger(), clock, opts), clock
}

func TestSplitIndexFilter(t *testing.T) {
	tests := []struct {
		name     string
		filter   string
		expected []string
	}{
		{
			name:     "single pattern",
			filter:   "logstash-*",
			expected: []string{"logstash-*"},
		},
		{
			name:     "multiple patterns",
			filter:   "istio-system-*,kong-*,logstash-*",
			expected: []string{"istio-system-*", "kong-*", "logstash-*"},
		},
		{
			name:     "whitespace around patterns",
			filter:   " kong-* , logstash-* ",
			expected: []string{"kong-*", "logstash-*"},
		},
		{
			name:     "empty entries dropped",
			filter:   "kong-*,,logstash-*,",
			expected: []string{"kong-*", "logstash-*"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitIndexFilter(tt.filter))
		})
	}
}

func TestRunner_EmptyListing(t *testing.T) {
	client := &fakeClient{}
	runner, _ := newTestRunner(client, Options{
		Repository:  "backup-repo",
		KeepDays:    15,
		IndexFilter: "logstash-*",
	})

	outcomes, err := runner.RetireOutdated()

	require.NoError(t, err)
	assert.Empty(t, outcomes)
	// only the listing call, zero snapshot or delete calls
	assert.Equal(t, []string{"list"}, client.calls)
}

func TestRunner_RetiresOutdatedIndex(t *testing.T) {
	client := &fakeClient{
		indices: []elasticsearch.IndexRecord{
			record("logs-2021.01.01", testNow.Add(-20*24*time.Hour)),
			record("logs-fresh", testNow.Add(-24*time.Hour)),
		},
	}
	runner, _ := newTestRunner(client, Options{
		Repository:  "backup-repo",
		KeepDays:    15,
		IndexFilter: "logs-*",
	})

	outcomes, err := runner.RetireOutdated()

	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, "logs-2021.01.01", outcomes[0].Index)
	assert.Equal(t, StatusRetired, outcomes[0].Status)

	assert.Contains(t, client.calls, "create:logs-2021.01.01")
	assert.Contains(t, client.calls, "delete:logs-2021.01.01")
	assert.NotContains(t, client.calls, "create:logs-fresh")
	assert.NotContains(t, client.calls, "delete:logs-fresh")
}

func TestRunner_SequentialProcessing(t *testing.T) {
	// While processing a, the cluster shows an unrelated running snapshot;
	// the gate must block before a's snapshot, and b must not start until
	// a's full snapshot+delete sequence has finished
	client := &fakeClient{
		indices: []elasticsearch.IndexRecord{
			record("logs-a", testNow.Add(-20*24*time.Hour)),
			record("logs-b", testNow.Add(-20*24*time.Hour)),
		},
		gateQueue: [][]elasticsearch.SnapshotStatus{
			running("nightly-backup"),
			nil,
		},
	}
	runner, clock := newTestRunner(client, Options{
		Repository:  "backup-repo",
		KeepDays:    15,
		IndexFilter: "logs-*",
	})

	outcomes, err := runner.RetireOutdated()

	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	assert.Equal(t, []string{
		"list",
		"gate",
		"gate",
		"create:logs-a",
		"status:logs-a",
		"delete:logs-a",
		"gate",
		"create:logs-b",
		"status:logs-b",
		"delete:logs-b",
	}, client.calls)

	// the blocked gate slept through the injected clock
	require.Len(t, clock.sleeps, 1)
	assert.Equal(t, PollInterval, clock.sleeps[0])
}

func TestRunner_AbortsOnFirstFatalError(t *testing.T) {
	client := &fakeClient{
		indices: []elasticsearch.IndexRecord{
			record("logs-a", testNow.Add(-20*24*time.Hour)),
			record("logs-b", testNow.Add(-20*24*time.Hour)),
		},
		createErr: errors.New("connection refused"),
	}
	runner, _ := newTestRunner(client, Options{
		Repository:  "backup-repo",
		KeepDays:    15,
		IndexFilter: "logs-*",
	})

	outcomes, err := runner.RetireOutdated()

	require.Error(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, "logs-a", outcomes[0].Index)
	assert.Equal(t, StatusTransportError, outcomes[0].Status)

	// the failed index is not deleted and the next candidate never starts
	assert.NotContains(t, client.calls, "delete:logs-a")
	assert.NotContains(t, client.calls, "create:logs-b")
}

func TestRunner_StrictSnapshotFailureOutcome(t *testing.T) {
	client := &fakeClient{
		indices: []elasticsearch.IndexRecord{
			record("logs-a", testNow.Add(-20*24*time.Hour)),
		},
		pollQueue: [][]elasticsearch.SnapshotStatus{
			{{Snapshot: "logs-a", State: elasticsearch.SnapshotStatePartial}},
		},
	}
	runner, _ := newTestRunner(client, Options{
		Repository:           "backup-repo",
		KeepDays:             15,
		IndexFilter:          "logs-*",
		StrictSnapshotErrors: true,
	})

	outcomes, err := runner.RetireOutdated()

	require.Error(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, StatusSnapshotFailed, outcomes[0].Status)
	assert.NotContains(t, client.calls, "delete:logs-a")
}

func TestRunner_ListErrorPropagates(t *testing.T) {
	client := &fakeClient{
		listErr: errors.New("connection refused"),
	}
	runner, _ := newTestRunner(client, Options{
		Repository:  "backup-repo",
		KeepDays:    15,
		IndexFilter: "logs-*",
	})

	outcomes, err := runner.RetireOutdated()

	require.Error(t, err)
	assert.Nil(t, outcomes)
}

func TestRunner_Plan(t *testing.T) {
	client := &fakeClient{
		indices: []elasticsearch.IndexRecord{
			record("logs-old", testNow.Add(-20*24*time.Hour)),
			record("logs-new", testNow.Add(-2*24*time.Hour)),
		},
	}
	runner, _ := newTestRunner(client, Options{
		Repository:  "backup-repo",
		KeepDays:    15,
		IndexFilter: "logs-*",
	})

	candidates, err := runner.Plan()

	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "logs-old", candidates[0].Index)
	assert.Equal(t, int64(20), candidates[0].AgeDays)

	// planning never mutates the cluster
	assert.Equal(t, []string{"list"}, client.calls)
}

func TestOutcomeStatus_String(t *testing.T) {
	assert.Equal(t, "retired", StatusRetired.String())
	assert.Equal(t, "snapshot failed", StatusSnapshotFailed.String())
	assert.Equal(t, "transport error", StatusTransportError.String())
}
