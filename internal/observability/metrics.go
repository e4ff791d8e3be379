package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// risk service.
type Metrics struct {
	RowsLoaded  *prometheus.GaugeVec   // labels: dataset={environment,occurrence}
	RowsDropped *prometheus.GaugeVec   // labels: dataset
	DataLoaded  *prometheus.GaugeVec   // labels: dataset; 1 when a usable file was found
	Queries     *prometheus.CounterVec // labels: operation, outcome={success,no_match,unavailable,error}
	Assessments *prometheus.CounterVec // labels: tier={safe,caution,severe}

	QueryDuration *prometheus.HistogramVec // labels: operation
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RowsLoaded,
		m.RowsDropped,
		m.DataLoaded,
		m.Queries,
		m.Assessments,
		m.QueryDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RowsLoaded: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "redtide",
			Name:      "rows_loaded",
			Help:      "Rows kept from each dataset at load time.",
		}, []string{"dataset"}),
		RowsDropped: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "redtide",
			Name:      "rows_dropped",
			Help:      "Rows discarded at load time for failing type coercion or bounds checks.",
		}, []string{"dataset"}),
		DataLoaded: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "redtide",
			Name:      "dataset_loaded",
			Help:      "1 when a candidate path yielded a parseable file for the dataset.",
		}, []string{"dataset"}),
		Queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "redtide",
			Name:      "queries_total",
			Help:      "Dashboard queries by operation and outcome.",
		}, []string{"operation", "outcome"}),
		Assessments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "redtide",
			Name:      "assessments_total",
			Help:      "Risk assessments produced, by tier.",
		}, []string{"tier"}),
		QueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "redtide",
			Name:      "query_duration_seconds",
			Help:      "Duration of one dashboard query, including any model fit.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		}, []string{"operation"}),
	}
}
