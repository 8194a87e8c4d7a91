package metrics

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackward/esretire/internal/retire"
)

func TestCollector_RecordRun(t *testing.T) {
	tests := []struct {
		name             string
		outcomes         []retire.Outcome
		err              error
		expectedRetired  float64
		expectedFailures float64
		expectedResult   string
	}{
		{
			name: "successful run",
			outcomes: []retire.Outcome{
				{Index: "logs-a", Status: retire.StatusRetired},
				{Index: "logs-b", Status: retire.StatusRetired},
			},
			expectedRetired: 2,
			expectedResult:  "success",
		},
		{
			name: "run with snapshot failure",
			outcomes: []retire.Outcome{
				{Index: "logs-a", Status: retire.StatusRetired},
				{Index: "logs-b", Status: retire.StatusSnapshotFailed},
			},
			err:              errors.New("snapshot logs-b reached state FAILED"),
			expectedRetired:  1,
			expectedFailures: 1,
			expectedResult:   "error",
		},
		{
			name:           "empty run",
			outcomes:       nil,
			expectedResult: "success",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collector := NewCollector(prometheus.NewRegistry())

			collector.RecordRun(tt.outcomes, tt.err)

			assert.Equal(t, tt.expectedRetired, testutil.ToFloat64(collector.indicesRetired))
			assert.Equal(t, tt.expectedFailures, testutil.ToFloat64(collector.snapshotFailures))
			assert.Equal(t, float64(1), testutil.ToFloat64(collector.runs.WithLabelValues(tt.expectedResult)))
		})
	}
}

func TestCollector_Handler(t *testing.T) {
	collector := NewCollector(nil)
	collector.RecordRun([]retire.Outcome{
		{Index: "logs-a", Status: retire.StatusRetired},
	}, nil)

	server := httptest.NewServer(collector.Handler())
	defer server.Close()

	res, err := server.Client().Get(server.URL)
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, 200, res.StatusCode)

	body := make([]byte, 64*1024)
	n, _ := res.Body.Read(body)
	assert.Contains(t, string(body[:n]), "esretire_indices_retired_total")
}
