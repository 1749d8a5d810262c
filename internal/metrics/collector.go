package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Collector owns the Prometheus registry and the sync instruments. A private
// registry keeps the exported set limited to what shieldscan registers.
type Collector struct {
	registry *prometheus.Registry

	BlocksFetched  prometheus.Counter
	FetchErrors    *prometheus.CounterVec
	SyncRuns       *prometheus.CounterVec
	SyncDuration   prometheus.Histogram
	StoreEntries   prometheus.Gauge
	ChainTipHeight prometheus.Gauge
}

// NewCollector creates a collector with all sync metrics registered.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		BlocksFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shieldscan_blocks_fetched_total",
			Help: "Block heights fetched from the remote node",
		}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shieldscan_fetch_errors_total",
			Help: "Fetch failures by kind",
		}, []string{"kind"}),
		SyncRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shieldscan_sync_runs_total",
			Help: "Synchronization runs by outcome",
		}, []string{"outcome"}),
		SyncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "shieldscan_sync_duration_seconds",
			Help:    "Wall time of synchronization runs",
			Buckets: prometheus.ExponentialBuckets(0.1, 4, 10),
		}),
		StoreEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "shieldscan_store_entries",
			Help: "Entries currently persisted in the series store",
		}),
		ChainTipHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "shieldscan_chain_tip_height",
			Help: "Chain tip height reported by the remote node",
		}),
	}

	registry.MustRegister(
		c.BlocksFetched,
		c.FetchErrors,
		c.SyncRuns,
		c.SyncDuration,
		c.StoreEntries,
		c.ChainTipHeight,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// GetRegistry returns the registry for the promhttp handler.
func (c *Collector) GetRegistry() *prometheus.Registry {
	return c.registry
}
