// Package elasticsearch provides a client for the cluster operations the
// retirement pipeline needs: listing indices with their creation dates,
// checking snapshot status, creating snapshots, and deleting indices.
package elasticsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
)

// Snapshot states as reported by the snapshot status API
const (
	SnapshotStateInProgress = "IN_PROGRESS"
	SnapshotStateSuccess    = "SUCCESS"
	SnapshotStateFailed     = "FAILED"
	SnapshotStatePartial    = "PARTIAL"
)

// Client represents an Elasticsearch client
type Client struct {
	es *elasticsearch.Client
}

// EpochMillis is a point in time that travels over the wire as a
// string-wrapped millisecond epoch, which is how the cat indices API encodes
// creation.date. Parsing and Millis round-trip exactly.
type EpochMillis struct {
	time.Time
}

// UnmarshalJSON decodes a string-wrapped millisecond epoch
func (m *EpochMillis) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("creation date is not a string: %w", err)
	}
	millis, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid creation date %q: %w", s, err)
	}
	m.Time = time.UnixMilli(millis).UTC()
	return nil
}

// Millis returns the timestamp as a millisecond epoch
func (m EpochMillis) Millis() int64 {
	return m.UnixMilli()
}

// IndexRecord is one row of the cat indices listing
type IndexRecord struct {
	Index        string      `json:"index"`
	CreationDate EpochMillis `json:"creation.date"`
}

// SnapshotStatus represents one entry of the snapshot status API response
type SnapshotStatus struct {
	Snapshot    string `json:"snapshot"`
	Repository  string `json:"repository"`
	UUID        string `json:"uuid"`
	State       string `json:"state"`
	ShardsStats struct {
		Done   int `json:"done"`
		Failed int `json:"failed"`
		Total  int `json:"total"`
	} `json:"shards_stats"`
}

// snapshotStatusResponse represents the response from the snapshot status API
type snapshotStatusResponse struct {
	Snapshots []SnapshotStatus `json:"snapshots"`
}

// NewClient creates a new Elasticsearch client
func NewClient(baseURL string) (*Client, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{baseURL},
	}

	es, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	return &Client{
		es: es,
	}, nil
}

// ListIndicesWithCreationDate retrieves the indices matching the given name
// patterns together with their creation timestamps
func (c *Client) ListIndicesWithCreationDate(patterns []string) ([]IndexRecord, error) {
	res, err := c.es.Cat.Indices(
		c.es.Cat.Indices.WithContext(context.Background()),
		c.es.Cat.Indices.WithIndex(patterns...),
		c.es.Cat.Indices.WithH("index,creation.date"),
		c.es.Cat.Indices.WithFormat("json"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list indices: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch returned error: %s", res.String())
	}

	var indices []IndexRecord
	if err := json.NewDecoder(res.Body).Decode(&indices); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return indices, nil
}

// SnapshotStatus retrieves the status of the named snapshots in a repository
func (c *Client) SnapshotStatus(repository string, snapshots []string) ([]SnapshotStatus, error) {
	res, err := c.es.Snapshot.Status(
		c.es.Snapshot.Status.WithContext(context.Background()),
		c.es.Snapshot.Status.WithRepository(repository),
		c.es.Snapshot.Status.WithSnapshot(snapshots...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot status: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch returned error: %s", res.String())
	}

	var statusResp snapshotStatusResponse
	if err := json.NewDecoder(res.Body).Decode(&statusResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return statusResp.Snapshots, nil
}

// ClusterSnapshotStatus retrieves the status of every snapshot currently
// running anywhere in the cluster (no repository or snapshot filter)
func (c *Client) ClusterSnapshotStatus() ([]SnapshotStatus, error) {
	res, err := c.es.Snapshot.Status(
		c.es.Snapshot.Status.WithContext(context.Background()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get cluster snapshot status: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch returned error: %s", res.String())
	}

	var statusResp snapshotStatusResponse
	if err := json.NewDecoder(res.Body).Decode(&statusResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return statusResp.Snapshots, nil
}

// CreateSnapshot requests a snapshot of a single index, named after the index
// it archives. The call is fire-and-forget: the raw response body is returned
// for diagnostic logging and never parsed for per-shard success.
func (c *Client) CreateSnapshot(repository, index string) (string, error) {
	body := map[string]interface{}{
		"indices":              index,
		"ignore_unavailable":   true,
		"include_global_state": false,
		"metadata": map[string]interface{}{
			"taken_by":      "esretire",
			"taken_because": "scheduled backup",
		},
	}

	bodyJSON, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	res, err := c.es.Snapshot.Create(
		repository,
		index,
		c.es.Snapshot.Create.WithContext(context.Background()),
		c.es.Snapshot.Create.WithBody(strings.NewReader(string(bodyJSON))),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create snapshot: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return "", fmt.Errorf("elasticsearch returned error: %s", res.String())
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	return string(raw), nil
}

// DeleteIndex deletes a specific index. Like CreateSnapshot the raw response
// body is returned only for diagnostic logging.
func (c *Client) DeleteIndex(index string) (string, error) {
	res, err := c.es.Indices.Delete(
		[]string{index},
		c.es.Indices.Delete.WithContext(context.Background()),
	)
	if err != nil {
		return "", fmt.Errorf("failed to delete index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return "", fmt.Errorf("elasticsearch returned error: %s", res.String())
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	return string(raw), nil
}
