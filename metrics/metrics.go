// Package metrics owns the Prometheus registry. Every recording method is
// nil-safe so components can run without metrics in tests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	reg *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	submissions  prometheus.Counter
	reviews      *prometheus.CounterVec
	moderation   *prometheus.CounterVec
	resolutions  *prometheus.CounterVec
	cache        *prometheus.CounterVec
	events       *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "route"}),
		submissions: f.NewCounter(prometheus.CounterOpts{
			Name: "listing_submissions_total",
			Help: "Total number of listings submitted for moderation.",
		}),
		reviews: f.NewCounterVec(prometheus.CounterOpts{
			Name: "reviews_total",
			Help: "Review submissions by outcome.",
		}, []string{"outcome"}),
		moderation: f.NewCounterVec(prometheus.CounterOpts{
			Name: "moderation_decisions_total",
			Help: "Listing moderation decisions by action.",
		}, []string{"action"}),
		resolutions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "location_resolutions_total",
			Help: "Location segment resolutions by level and outcome.",
		}, []string{"level", "outcome"}),
		cache: f.NewCounterVec(prometheus.CounterOpts{
			Name: "response_cache_total",
			Help: "Response cache lookups by result.",
		}, []string{"result"}),
		events: f.NewCounterVec(prometheus.CounterOpts{
			Name: "events_total",
			Help: "Published and consumed events by queue and outcome.",
		}, []string{"queue", "outcome"}),
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) ListingSubmitted() {
	if m == nil {
		return
	}
	m.submissions.Inc()
}

// Review records a review submission outcome: created, duplicate, rejected.
func (m *Metrics) Review(outcome string) {
	if m == nil {
		return
	}
	m.reviews.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Moderation(action string) {
	if m == nil {
		return
	}
	m.moderation.WithLabelValues(action).Inc()
}

// Resolution records how a URL segment resolved: exact, fuzzy or miss.
func (m *Metrics) Resolution(level, outcome string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(level, outcome).Inc()
}

func (m *Metrics) Cache(result string) {
	if m == nil {
		return
	}
	m.cache.WithLabelValues(result).Inc()
}

func (m *Metrics) Event(queue, outcome string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(queue, outcome).Inc()
}
