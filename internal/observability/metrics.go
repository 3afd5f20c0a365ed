package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the process prometheus registry. All methods are safe on a
// nil receiver so components can run without metrics in tests.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	authzDecisions  *prometheus.CounterVec
	logins          *prometheus.CounterVec
	rehashes        prometheus.Counter
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rogue_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rogue_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rogue_authz_decisions_total",
		Help: "Authorization gate decisions by action and outcome.",
	}, []string{"action", "outcome"})
	logins := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rogue_logins_total",
		Help: "Login attempts by outcome.",
	}, []string{"outcome"})
	rehashes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rogue_password_rehashes_total",
		Help: "Stored password hashes upgraded on login.",
	})
	registry.MustRegister(requests, duration, decisions, logins, rehashes)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		authzDecisions:  decisions,
		logins:          logins,
		rehashes:        rehashes,
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) ObserveAuthzDecision(action, outcome string) {
	if m == nil {
		return
	}
	m.authzDecisions.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) ObserveLogin(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObservePasswordRehash() {
	if m == nil {
		return
	}
	m.rehashes.Inc()
}

func (m *Metrics) AuthzDecisions() *prometheus.CounterVec {
	if m == nil {
		return nil
	}
	return m.authzDecisions
}

func (m *Metrics) Logins() *prometheus.CounterVec {
	if m == nil {
		return nil
	}
	return m.logins
}

func (m *Metrics) PasswordRehashes() prometheus.Counter {
	if m == nil {
		return nil
	}
	return m.rehashes
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
