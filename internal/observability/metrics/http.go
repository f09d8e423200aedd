package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	queriesTotal        *prometheus.CounterVec
	queryTTFB           *prometheus.HistogramVec
	queryDuration       *prometheus.HistogramVec
	querySources        *prometheus.HistogramVec
	degradedStagesTotal *prometheus.CounterVec
	sessionRejectsTotal *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "voxrag",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "voxrag",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "voxrag",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queriesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "voxrag",
			Subsystem: "query",
			Name:      "total",
			Help:      "Total query pipeline executions by outcome.",
		},
		[]string{"service", "status"},
	)
	queryTTFB := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "voxrag",
			Subsystem: "query",
			Name:      "ttfb_seconds",
			Help:      "Time from query arrival to the first audible token.",
			Buckets:   []float64{0.05, 0.1, 0.2, 0.3, 0.5, 0.75, 1, 1.5, 2, 3},
		},
		[]string{"service"},
	)
	queryDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "voxrag",
			Subsystem: "query",
			Name:      "duration_seconds",
			Help:      "End-to-end query pipeline duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	querySources := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "voxrag",
			Subsystem: "query",
			Name:      "sources",
			Help:      "Distribution of cited sources per answered query.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8},
		},
		[]string{"service"},
	)
	degradedStagesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "voxrag",
			Subsystem: "query",
			Name:      "degraded_stages_total",
			Help:      "Total pipeline stage degradations by stage name.",
		},
		[]string{"service", "stage"},
	)
	sessionRejectsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "voxrag",
			Subsystem: "session",
			Name:      "rejects_total",
			Help:      "Total queries rejected because the session was busy.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		queriesTotal,
		queryTTFB,
		queryDuration,
		querySources,
		degradedStagesTotal,
		sessionRejectsTotal,
	)

	return &HTTPServerMetrics{
		registry:            registry,
		requestTotal:        requestTotal,
		requestDuration:     requestDuration,
		requestInFlight:     requestInFlight,
		queriesTotal:        queriesTotal,
		queryTTFB:           queryTTFB,
		queryDuration:       queryDuration,
		querySources:        querySources,
		degradedStagesTotal: degradedStagesTotal,
		sessionRejectsTotal: sessionRejectsTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/documents/"):
		return "/v1/documents/{document_id}"
	default:
		return path
	}
}

// RecordQuery observes one completed (or failed) pipeline run.
func (m *HTTPServerMetrics) RecordQuery(service, status string, ttfb, total time.Duration, sources int, degradedStages []string) {
	if status == "" {
		status = "unknown"
	}
	m.queriesTotal.WithLabelValues(service, status).Inc()
	for _, stage := range degradedStages {
		m.degradedStagesTotal.WithLabelValues(service, stage).Inc()
	}
	if status != "ok" {
		return
	}
	m.queryTTFB.WithLabelValues(service).Observe(ttfb.Seconds())
	m.queryDuration.WithLabelValues(service).Observe(total.Seconds())
	m.querySources.WithLabelValues(service).Observe(float64(sources))
}

func (m *HTTPServerMetrics) RecordSessionReject(service string) {
	m.sessionRejectsTotal.WithLabelValues(service).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
