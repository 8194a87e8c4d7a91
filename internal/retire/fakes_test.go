package retire

import (
	"time"

	"github.com/stackward/esretire/internal/elasticsearch"
)

// fakeClient is a scriptable stand-in for the cluster client. Queued
// responses are consumed one per call; exhausted queues fall back to "no
// snapshot running" for the gate and "snapshot succeeded" for status polls.
// Every call is appended to calls so tests can assert strict sequencing.
type fakeClient struct {
	indices []elasticsearch.IndexRecord
	listErr error

	gateQueue [][]elasticsearch.SnapshotStatus
	gateErr   error

	pollQueue [][]elasticsearch.SnapshotStatus
	pollErr   error

	createErr error
	deleteErr error

	calls []string
}

func (f *fakeClient) ListIndicesWithCreationDate(_ []string) ([]elasticsearch.IndexRecord, error) {
	f.calls = append(f.calls, "list")
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.indices, nil
}

func (f *fakeClient) ClusterSnapshotStatus() ([]elasticsearch.SnapshotStatus, error) {
	f.calls = append(f.calls, "gate")
	if f.gateErr != nil {
		return nil, f.gateErr
	}
	if len(f.gateQueue) > 0 {
		res := f.gateQueue[0]
		f.gateQueue = f.gateQueue[1:]
		return res, nil
	}
	return nil, nil
}

func (f *fakeClient) SnapshotStatus(repository string, snapshots []string) ([]elasticsearch.SnapshotStatus, error) {
	f.calls = append(f.calls, "status:"+snapshots[0])
	if f.pollErr != nil {
		return nil, f.pollErr
	}
	if len(f.pollQueue) > 0 {
		res := f.pollQueue[0]
		f.pollQueue = f.pollQueue[1:]
		return res, nil
	}
	return []elasticsearch.SnapshotStatus{
		{Snapshot: snapshots[0], Repository: repository, State: elasticsearch.SnapshotStateSuccess},
	}, nil
}

func (f *fakeClient) CreateSnapshot(_, index string) (string, error) {
	f.calls = append(f.calls, "create:"+index)
	if f.createErr != nil {
		return "", f.createErr
	}
	return `{"accepted":true}`, nil
}

func (f *fakeClient) DeleteIndex(index string) (string, error) {
	f.calls = append(f.calls, "delete:"+index)
	if f.deleteErr != nil {
		return "", f.deleteErr
	}
	return `{"acknowledged":true}`, nil
}

var _ elasticsearch.Interface = (*fakeClient)(nil)

// fakeClock advances instantly on Sleep and records every sleep
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
}

func record(index string, created time.Time) elasticsearch.IndexRecord {
	return elasticsearch.IndexRecord{
		Index:        index,
		CreationDate: elasticsearch.EpochMillis{Time: created},
	}
}

func running(names ...string) []elasticsearch.SnapshotStatus {
	statuses := make([]elasticsearch.SnapshotStatus, 0, len(names))
	for _, name := range names {
		statuses = append(statuses, elasticsearch.SnapshotStatus{
			Snapshot: name,
			State:    elasticsearch.SnapshotStateInProgress,
		})
	}
	return statuses
}
