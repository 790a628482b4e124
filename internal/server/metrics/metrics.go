// Package metrics wires the service's Prometheus collectors onto a private
// registry and exposes them over HTTP.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Refresh outcomes.
const (
	OutcomeRotated          = "rotated"
	OutcomeCoalesced        = "coalesced"
	OutcomeInvalid          = "invalid"
	OutcomeNegativeHit      = "negative_hit"
	OutcomeStoreUnavailable = "store_unavailable"
)

// Reaper run results.
const (
	ReaperOK    = "ok"
	ReaperError = "error"
)

// Cache names used as label values.
const (
	CacheNegative = "negative"
	CacheSession  = "session"
)

// Metrics holds every collector the service records into. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	refreshTotal    *prometheus.CounterVec
	reaperRuns      *prometheus.CounterVec
	reapedTokens    prometheus.Counter
	cacheErrors     *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	refreshTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gophauth_refresh_requests_total",
		Help: "Refresh requests by outcome",
	}, []string{"outcome"})

	reaperRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gophauth_reaper_runs_total",
		Help: "Expired token purges by result",
	}, []string{"result"})

	reapedTokens := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gophauth_reaped_tokens_total",
		Help: "Expired refresh tokens removed by the reaper",
	})

	cacheErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gophauth_cache_errors_total",
		Help: "Cache operations that failed and were ignored",
	}, []string{"cache"})

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gophauth_http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	registry.MustRegister(
		refreshTotal, reaperRuns, reapedTokens, cacheErrors, requestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		refreshTotal:    refreshTotal,
		reaperRuns:      reaperRuns,
		reapedTokens:    reapedTokens,
		cacheErrors:     cacheErrors,
		requestDuration: requestDuration,
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) RefreshOutcome(outcome string) {
	if m == nil {
		return
	}
	m.refreshTotal.WithLabelValues(outcome).Inc()
}

// ReaperRun records one purge and, on success, how many rows it removed.
func (m *Metrics) ReaperRun(removed int64, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.reaperRuns.WithLabelValues(ReaperError).Inc()
		return
	}
	m.reaperRuns.WithLabelValues(ReaperOK).Inc()
	m.reapedTokens.Add(float64(removed))
}

func (m *Metrics) CacheError(cache string) {
	if m == nil {
		return
	}
	m.cacheErrors.WithLabelValues(cache).Inc()
}

func (m *Metrics) ObserveHTTPRequest(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, path, strconv.Itoa(status)).Observe(d.Seconds())
}
