// Package metrics exposes pipeline observability over Prometheus. The
// availability design means failures never surface to users, so the
// live-versus-fallback counters here are the only honest signal of how
// the upstream provider is actually doing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all marketpulse Prometheus metrics.
type Registry struct {
	registry *prometheus.Registry

	QuoteFetches  *prometheus.CounterVec
	CycleDuration prometheus.Histogram
	Cycles        *prometheus.CounterVec
	Subscribers   prometheus.Gauge
	StreamClients prometheus.Gauge
	StoreRequests *prometheus.CounterVec
	HTTPRequests  *prometheus.CounterVec
}

// NewRegistry creates and registers all metrics on a private registry.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),

		QuoteFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketpulse_quote_fetches_total",
				Help: "Per-item fetch outcomes by kind (stock/currency) and source (live/fallback)",
			},
			[]string{"kind", "source"},
		),

		CycleDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "marketpulse_cycle_duration_seconds",
				Help:    "Duration of full batch fetch cycles",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 8, 10, 15},
			},
		),

		Cycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketpulse_cycles_total",
				Help: "Completed refresh cycles by result (live/fallback)",
			},
			[]string{"result"},
		),

		Subscribers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "marketpulse_scheduler_subscribers",
				Help: "Currently registered snapshot subscribers",
			},
		),

		StreamClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "marketpulse_stream_clients",
				Help: "Currently connected websocket clients",
			},
		),

		StoreRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketpulse_store_requests_total",
				Help: "Document store operations by document, op (load/save), and result",
			},
			[]string{"document", "op", "result"},
		),

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketpulse_http_requests_total",
				Help: "HTTP requests by route and status class",
			},
			[]string{"route", "status"},
		),
	}

	r.registry.MustRegister(
		r.QuoteFetches,
		r.CycleDuration,
		r.Cycles,
		r.Subscribers,
		r.StreamClients,
		r.StoreRequests,
		r.HTTPRequests,
	)
	return r
}

// Handler returns the /metrics exposition handler.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// QuoteFetched implements market.FetchObserver.
func (r *Registry) QuoteFetched(kind, source string) {
	r.QuoteFetches.WithLabelValues(kind, source).Inc()
}

// CycleCompleted implements market.FetchObserver.
func (r *Registry) CycleCompleted(duration time.Duration, fallback bool) {
	r.CycleDuration.Observe(duration.Seconds())
	result := "live"
	if fallback {
		result = "fallback"
	}
	r.Cycles.WithLabelValues(result).Inc()
}
