// Package metrics registers the Prometheus instruments for the pipeline.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry holds all dexPulse metrics.
type Registry struct {
	// Upstream fetch metrics
	UpstreamRequests *prometheus.CounterVec
	UpstreamErrors   *prometheus.CounterVec

	// Snapshot cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Pipeline metrics
	ItemsDropped *prometheus.CounterVec
	ListSize     *prometheus.GaugeVec

	// Store metrics
	VetoTotal  prometheus.Counter
	BuySignals *prometheus.CounterVec
	Flushes    *prometheus.CounterVec
}

// NewRegistry creates the metric set. Instruments are registered explicitly
// via Register so tests can use throwaway registries.
func NewRegistry() *Registry {
	return &Registry{
		UpstreamRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dexpulse_upstream_requests_total",
				Help: "Upstream fetches by endpoint and outcome (hit, fetch, error)",
			},
			[]string{"endpoint", "outcome"},
		),
		UpstreamErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dexpulse_upstream_errors_total",
				Help: "Upstream fetch failures by endpoint",
			},
			[]string{"endpoint"},
		),
		CacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "dexpulse_cache_hits_total",
				Help: "Snapshot cache hits",
			},
		),
		CacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "dexpulse_cache_misses_total",
				Help: "Snapshot cache misses",
			},
		),
		ItemsDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dexpulse_items_dropped_total",
				Help: "Seed items dropped before list building, by cause",
			},
			[]string{"cause"},
		),
		ListSize: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dexpulse_list_size",
				Help: "Items in the most recent build of each list view",
			},
			[]string{"view"},
		),
		VetoTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "dexpulse_veto_total",
				Help: "Addresses added to the veto blacklist",
			},
		),
		BuySignals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dexpulse_buy_signals_total",
				Help: "Buy signals recorded in the performance ledger, by source",
			},
			[]string{"source"},
		),
		Flushes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dexpulse_store_flushes_total",
				Help: "Store flush attempts by store and outcome",
			},
			[]string{"store", "outcome"},
		),
	}
}

// Register adds every instrument to the given Prometheus registerer.
func (r *Registry) Register(reg prometheus.Registerer) {
	reg.MustRegister(
		r.UpstreamRequests,
		r.UpstreamErrors,
		r.CacheHits,
		r.CacheMisses,
		r.ItemsDropped,
		r.ListSize,
		r.VetoTotal,
		r.BuySignals,
		r.Flushes,
	)
}
