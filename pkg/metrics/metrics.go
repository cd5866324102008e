// Package metrics holds the Prometheus collectors for codec passes and the
// HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Metrics holds all Prometheus metrics. A nil *Metrics records nothing.
type Metrics struct {
	// Codec metrics
	codecOperationsTotal   *prometheus.CounterVec
	codecOperationDuration *prometheus.HistogramVec
	codecBitsTotal         *prometheus.CounterVec

	// HTTP request metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight *prometheus.GaugeVec

	// API key authentication metrics
	authRequestsTotal *prometheus.CounterVec
}

// New creates the metrics and registers them on reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		codecOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bitspec_codec_operations_total",
				Help: "Total number of encode and decode passes",
			},
			[]string{"layout", "operation", "status"},
		),

		codecOperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bitspec_codec_operation_duration_seconds",
				Help:    "Encode and decode pass duration in seconds",
				Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
			},
			[]string{"layout", "operation"},
		),

		codecBitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bitspec_codec_bits_total",
				Help: "Total number of content bits encoded or decoded",
			},
			[]string{"layout", "operation"},
		),

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bitspec_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bitspec_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		httpRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bitspec_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"method"},
		),

		authRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bitspec_auth_requests_total",
				Help: "Total number of authentication attempts",
			},
			[]string{"status"},
		),
	}
}

func statusOf(success bool) string {
	if success {
		return statusSuccess
	}
	return statusError
}

// RecordCodecOperation records one encode or decode pass over bits content bits
func (m *Metrics) RecordCodecOperation(layout, operation string, bits int, err error, duration time.Duration) {
	if m == nil {
		return
	}
	m.codecOperationsTotal.WithLabelValues(layout, operation, statusOf(err == nil)).Inc()
	m.codecOperationDuration.WithLabelValues(layout, operation).Observe(duration.Seconds())
	if err == nil {
		m.codecBitsTotal.WithLabelValues(layout, operation).Add(float64(bits))
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordAuthRequest records an authentication attempt
func (m *Metrics) RecordAuthRequest(success bool) {
	if m == nil {
		return
	}
	m.authRequestsTotal.WithLabelValues(statusOf(success)).Inc()
}

// Middleware records every request under its chi route pattern, so
// /layouts/{name} is one series regardless of the name requested.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		gauge := m.httpRequestsInFlight.WithLabelValues(r.Method)
		gauge.Inc()
		defer gauge.Dec()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.RecordHTTPRequest(r.Method, route, status, time.Since(start))
	})
}
