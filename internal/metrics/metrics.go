// Package metrics holds the prometheus collectors of the service.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the service collectors. A nil *Metrics records nothing.
type Metrics struct {
	gatherer         prometheus.Gatherer
	curriculumSaves  *prometheus.CounterVec
	progressWrites   *prometheus.CounterVec
	debounced        prometheus.Counter
	requestCounter   *prometheus.CounterVec
	requestDurations *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		gatherer: reg,
		curriculumSaves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "curriculum_saves_total",
				Help: "Curriculum reconciliations by result",
			},
			[]string{"result"},
		),
		progressWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "progress_writes_total",
				Help: "Progress record writes by kind and result",
			},
			[]string{"kind", "result"},
		),
		debounced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "progress_writes_debounced_total",
			Help: "Video progress events collapsed into a later write",
		}),
		requestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		requestDurations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"method", "endpoint"},
		),
	}
	reg.MustRegister(m.curriculumSaves, m.progressWrites, m.debounced, m.requestCounter, m.requestDurations)
	return m
}

// CurriculumSave counts one reconciliation attempt.
func (m *Metrics) CurriculumSave(result string) {
	if m == nil {
		return
	}
	m.curriculumSaves.WithLabelValues(result).Inc()
}

// ProgressWrite counts one progress record write.
func (m *Metrics) ProgressWrite(kind, result string) {
	if m == nil {
		return
	}
	m.progressWrites.WithLabelValues(kind, result).Inc()
}

// Debounced counts one collapsed progress event.
func (m *Metrics) Debounced() {
	if m == nil {
		return
	}
	m.debounced.Inc()
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Middleware records request counts and durations; endpoint is the route pattern.
func (m *Metrics) Middleware(endpoint string, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		m.requestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(rec.status)).Inc()
		m.requestDurations.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
	})
}

// Result maps an error to a metric label.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack lets websocket upgrades pass through the middleware.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return h.Hijack()
}
