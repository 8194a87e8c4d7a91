// Package metrics exposes Prometheus metrics for scheduled retirement runs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stackward/esretire/internal/logger"
	"github.com/stackward/esretire/internal/retire"
)

// Collector owns the metric instances and their registry
type Collector struct {
	registry *prometheus.Registry

	runs             *prometheus.CounterVec
	indicesRetired   prometheus.Counter
	snapshotFailures prometheus.Counter
	lastRun          prometheus.Gauge
}

// NewCollector creates a collector on a private registry. If registry is nil
// a fresh one is used.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		registry: registry,
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "esretire_runs_total",
			Help: "Total retirement runs, partitioned by result.",
		}, []string{"result"}),
		indicesRetired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "esretire_indices_retired_total",
			Help: "Total indices snapshotted and deleted.",
		}),
		snapshotFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "esretire_snapshot_failures_total",
			Help: "Total snapshots observed in FAILED or PARTIAL state.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "esretire_last_run_timestamp_seconds",
			Help: "Unix time of the last completed retirement run.",
		}),
	}

	registry.MustRegister(c.runs, c.indicesRetired, c.snapshotFailures, c.lastRun)
	return c
}

// RecordRun records the outcomes of one completed retirement run
func (c *Collector) RecordRun(outcomes []retire.Outcome, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	c.runs.WithLabelValues(result).Inc()

	for _, outcome := range outcomes {
		switch outcome.Status {
		case retire.StatusRetired:
			c.indicesRetired.Inc()
		case retire.StatusSnapshotFailed:
			c.snapshotFailures.Inc()
		}
	}

	c.lastRun.SetToCurrentTime()
}

// Handler returns the Prometheus scrape handler for the collector's registry
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr in a background goroutine. Listen errors are
// logged, not fatal: a broken metrics endpoint must not stop retirement runs.
func (c *Collector) Serve(addr string, log *logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())

	go func() {
		log.Infof("Serving metrics on %s/metrics", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Errorf("metrics server failed: %v", err)
		}
	}()
}
