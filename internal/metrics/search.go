package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vouchex",
			Name:      "search_requests_total",
			Help:      "Total number of search requests",
		},
		[]string{"status"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vouchex",
			Name:      "search_duration_seconds",
			Help:      "End-to-end search duration in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"branch"}, // weight branch: base / location / service / target
	)

	VouchersIndexedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vouchex",
			Name:      "vouchers_indexed_total",
			Help:      "Voucher documents indexed, by outcome",
		},
		[]string{"status"}, // "ok" / "error"
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus retrieval metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(VouchersIndexedTotal)
	searchMetricsRegistered = true
}
