// Package metrics holds the Prometheus collectors for route searches.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for SearchesTotal.
const (
	OutcomeSingle   = "single"
	OutcomeSplit    = "split"
	OutcomePartial  = "partial"
	OutcomeNoRoute  = "no_route"
	OutcomeInvalid  = "invalid"
	OutcomeExhaust  = "budget_exhausted"
	OutcomeInternal = "internal"
)

// Metrics is one set of registered collectors.
type Metrics struct {
	SearchesTotal     *prometheus.CounterVec
	SolverIterations  prometheus.Histogram
	SolverStatesTotal *prometheus.CounterVec
	PrunedEdgesTotal  prometheus.Counter
	NegativeCycles    prometheus.Counter
	SplitLegsTotal    *prometheus.CounterVec
	SearchLatencyMs   prometheus.Histogram
	RoutePriceImpact  prometheus.Histogram
	GraphPools        prometheus.Gauge
	GraphAssets       prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SearchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dexroute_searches_total", Help: "Route requests by outcome",
		}, []string{"outcome"}),
		SolverIterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "dexroute_solver_iterations", Help: "Relaxation rounds per solver invocation",
			Buckets: prometheus.LinearBuckets(1, 1, 16),
		}),
		SolverStatesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dexroute_solver_states_total", Help: "Solver terminal states",
		}, []string{"state"}),
		PrunedEdgesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dexroute_pruned_edges_total", Help: "Edge evaluations rejected by liquidity or impact constraints",
		}),
		NegativeCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dexroute_negative_cycles_total", Help: "Searches that observed a negative-weight cycle",
		}),
		SplitLegsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dexroute_split_legs_total", Help: "Split legs by result",
		}, []string{"result"}),
		SearchLatencyMs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "dexroute_search_latency_ms", Help: "End-to-end request latency",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 14),
		}),
		RoutePriceImpact: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "dexroute_route_price_impact", Help: "Total price impact of returned routes",
			Buckets: prometheus.LinearBuckets(0, 0.005, 20),
		}),
		GraphPools: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dexroute_graph_pools", Help: "Pools in the last searched snapshot",
		}),
		GraphAssets: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dexroute_graph_assets", Help: "Assets in the last searched snapshot",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.SearchesTotal, m.SolverIterations, m.SolverStatesTotal, m.PrunedEdgesTotal,
			m.NegativeCycles, m.SplitLegsTotal, m.SearchLatencyMs, m.RoutePriceImpact,
			m.GraphPools, m.GraphAssets,
		)
	}

	return m
}

// NewRegistry returns a registry with the Go and process collectors plus a
// fresh Metrics set.
func NewRegistry() (*prometheus.Registry, *Metrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return reg, New(reg)
}

// ObserveSolver records one solver invocation.
func (m *Metrics) ObserveSolver(iterations, pruned int, state string, negativeCycle bool) {
	if m == nil {
		return
	}
	m.SolverIterations.Observe(float64(iterations))
	m.SolverStatesTotal.WithLabelValues(state).Inc()
	m.PrunedEdgesTotal.Add(float64(pruned))
	if negativeCycle {
		m.NegativeCycles.Inc()
	}
}

// ObserveRequest records the outcome and latency of one request.
func (m *Metrics) ObserveRequest(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.SearchesTotal.WithLabelValues(outcome).Inc()
	m.SearchLatencyMs.Observe(float64(d) / float64(time.Millisecond))
}

// ObserveSplit records the legs of one split allocation.
func (m *Metrics) ObserveSplit(ok, failed int) {
	if m == nil {
		return
	}
	m.SplitLegsTotal.WithLabelValues("ok").Add(float64(ok))
	m.SplitLegsTotal.WithLabelValues("failed").Add(float64(failed))
}

// ObserveRoute records the price impact of a returned route.
func (m *Metrics) ObserveRoute(priceImpact float64) {
	if m == nil {
		return
	}
	m.RoutePriceImpact.Observe(priceImpact)
}

// ObserveGraph records the size of the searched snapshot.
func (m *Metrics) ObserveGraph(assets, pools int) {
	if m == nil {
		return
	}
	m.GraphAssets.Set(float64(assets))
	m.GraphPools.Set(float64(pools))
}

// Handler serves reg in the Prometheus text format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
