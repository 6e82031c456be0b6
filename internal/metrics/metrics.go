// Package metrics exposes the Chain Manager's prometheus instrumentation.
// Collection is always active; scraping is optional (config.Runtime's
// MetricsAddr enables an HTTP listener in cmd/chaind when non-empty).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry bundles the metrics the Worker, Supervisor, Snapshot
// Manager, and Notification Bus record against.
type Registry struct {
	ChainStarts    *prometheus.CounterVec
	ChainFailures  *prometheus.CounterVec
	ChainsActive   prometheus.Gauge
	SnapshotOps    *prometheus.CounterVec
	BusDropped     *prometheus.CounterVec
}

// New registers and returns a Registry against reg. Pass
// prometheus.DefaultRegisterer to wire into the default handler, or a
// fresh prometheus.NewRegistry() in tests to avoid global state.
func New(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)
	return &Registry{
		ChainStarts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chain_starts_total",
			Help: "Total number of chains successfully started.",
		}, []string{"evm_type"}),
		ChainFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chain_failures_total",
			Help: "Total number of chains that transitioned to failed.",
		}, []string{"evm_type", "reason"}),
		ChainsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "chains_active",
			Help: "Number of chains currently in a live state.",
		}),
		SnapshotOps: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "snapshot_ops_total",
			Help: "Total number of snapshot take/revert operations.",
		}, []string{"op", "result"}),
		BusDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bus_dropped_events_total",
			Help: "Total number of events dropped by a slow notification bus subscriber.",
		}, []string{"topic"}),
	}
}
