// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "kintai"

// Clock event outcomes.
const (
	ClockIn          = "clock_in"
	ClockOut         = "clock_out"
	ClockOutNoRecord = "clock_out_no_record"
	AlreadyClockedIn = "already_clocked_in"
)

// Metrics owns a private registry so that tests can build as many as they
// like. All methods are safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	clockEvents    *prometheus.CounterVec
	membersWorking prometheus.Gauge
	logins         *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		clockEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clock_events_total",
			Help:      "Clock-in and clock-out requests by outcome.",
		}, []string{"outcome"}),
		membersWorking: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "members_working",
			Help:      "Members currently holding an open attendance record.",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by kind and result.",
		}, []string{"kind", "result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.clockEvents,
		m.membersWorking,
		m.logins,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// MembersWorkingGauge exposes the gauge for assertions in tests.
func (m *Metrics) MembersWorkingGauge() prometheus.Gauge {
	return m.membersWorking
}

func (m *Metrics) ObserveClockEvent(outcome string) {
	if m == nil {
		return
	}
	m.clockEvents.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetMembersWorking(n int64) {
	if m == nil {
		return
	}
	m.membersWorking.Set(float64(n))
}

func (m *Metrics) AddMembersWorking(delta float64) {
	if m == nil {
		return
	}
	m.membersWorking.Add(delta)
}

func (m *Metrics) ObserveLogin(kind string, success bool) {
	if m == nil {
		return
	}
	result := "failure"
	if success {
		result = "success"
	}
	m.logins.WithLabelValues(kind, result).Inc()
}

// Middleware records request counts and latency labelled by the matched chi
// route pattern, keeping label cardinality bounded.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
