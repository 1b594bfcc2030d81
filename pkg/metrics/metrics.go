package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "newsletter"

// Metrics holds the service collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	lifecycle   *prometheus.CounterVec
	emailSends  *prometheus.CounterVec
	emailTiming *prometheus.HistogramVec
	broadcasts  *prometheus.CounterVec
	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

// New registers all collectors. Process and Go runtime collectors are
// included so /metrics is useful without a second registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		lifecycle: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscriber_events_total",
			Help:      "Subscriber lifecycle events by event and outcome.",
		}, []string{"event", "outcome"}),
		emailSends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "email_sends_total",
			Help:      "Outbound emails by provider, kind and result.",
		}, []string{"provider", "kind", "result"}),
		emailTiming: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "email_send_duration_seconds",
			Help:      "Time spent in provider calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider", "kind"}),
		broadcasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcast_recipients_total",
			Help:      "Newsletter broadcast recipients by result.",
		}, []string{"result"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.lifecycle,
		m.emailSends,
		m.emailTiming,
		m.broadcasts,
		m.requests,
		m.latency,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// SubscriberEvent counts a lifecycle operation. outcome is a short label such
// as "ok", "conflict" or "expired".
func (m *Metrics) SubscriberEvent(event, outcome string) {
	if m == nil {
		return
	}
	m.lifecycle.WithLabelValues(event, outcome).Inc()
}

// EmailSend records one provider call.
func (m *Metrics) EmailSend(provider, kind string, success bool, took time.Duration) {
	if m == nil {
		return
	}
	m.emailSends.WithLabelValues(provider, kind, result(success)).Inc()
	m.emailTiming.WithLabelValues(provider, kind).Observe(took.Seconds())
}

// BroadcastResult adds the outcome of a finished broadcast batch.
func (m *Metrics) BroadcastResult(sent, failed int) {
	if m == nil {
		return
	}
	m.broadcasts.WithLabelValues("success").Add(float64(sent))
	m.broadcasts.WithLabelValues("failure").Add(float64(failed))
}

// Middleware records request counts and latency labelled by the chi route
// pattern, so path parameters and query strings do not blow up cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Inc()
		m.latency.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

func result(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
