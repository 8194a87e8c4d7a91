package elasticsearch

// Interface defines the contract for Elasticsearch client operations
// This interface allows for easy mocking in tests
type Interface interface {
	// Index operations
	ListIndicesWithCreationDate(patterns []string) ([]IndexRecord, error)
	DeleteIndex(index string) (string, error)

	// Snapshot operations
	SnapshotStatus(repository string, snapshots []string) ([]SnapshotStatus, error)
	ClusterSnapshotStatus() ([]SnapshotStatus, error)
	CreateSnapshot(repository, index string) (string, error)
}

// Ensure *Client implements Interface
var _ Interface = (*Client)(nil)
