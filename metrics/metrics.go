package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors the service exports. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	bookings        prometheus.Counter
	crowdSamples    *prometheus.CounterVec
	alerts          *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
}

// New registers every collector on reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "yatra_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "yatra_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		bookings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "yatra_bookings_created_total",
			Help: "Darshan bookings created.",
		}),
		crowdSamples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "yatra_crowd_samples_total",
			Help: "Crowd samples ingested by reported crowd level.",
		}, []string{"level"}),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "yatra_alerts_raised_total",
			Help: "Panic alerts raised by type.",
		}, []string{"type"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "yatra_temple_cache_lookups_total",
			Help: "Temple listing cache lookups by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.requests, m.requestDuration, m.bookings, m.crowdSamples, m.alerts, m.cacheLookups)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) BookingCreated() {
	if m == nil {
		return
	}
	m.bookings.Inc()
}

func (m *Metrics) CrowdSampleIngested(level string) {
	if m == nil {
		return
	}
	if level == "" {
		level = "none"
	}
	m.crowdSamples.WithLabelValues(level).Inc()
}

func (m *Metrics) AlertRaised(alertType string) {
	if m == nil {
		return
	}
	m.alerts.WithLabelValues(alertType).Inc()
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Instrument wraps a route handler. route is the registered pattern, not the
// raw path, so ids do not explode label cardinality.
func (m *Metrics) Instrument(route string, next httprouter.Handle) httprouter.Handle {
	if m == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next(sw, r, ps)
		m.requests.WithLabelValues(route, r.Method, strconv.Itoa(sw.status)).Inc()
		m.requestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	}
}
