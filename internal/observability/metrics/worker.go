package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	processTotal    *prometheus.CounterVec
	processDuration *prometheus.HistogramVec
	processInFlight prometheus.Gauge
	queueLag        *prometheus.HistogramVec
	indexedChunks   *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	processTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "voxrag",
			Subsystem: "worker",
			Name:      "document_process_total",
			Help:      "Total processed documents by status.",
		},
		[]string{"service", "status"},
	)
	processDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "voxrag",
			Subsystem: "worker",
			Name:      "document_process_duration_seconds",
			Help:      "Document processing duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	processInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "voxrag",
			Subsystem: "worker",
			Name:      "document_process_in_flight",
			Help:      "Number of in-flight document processing tasks.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "voxrag",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between document creation and processing start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)

	indexedChunks := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "voxrag",
			Subsystem: "worker",
			Name:      "indexed_chunks",
			Help:      "Distribution of chunks indexed per processed document.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"service"},
	)

	registry.MustRegister(processTotal, processDuration, processInFlight, queueLag, indexedChunks)

	return &WorkerMetrics{
		registry:        registry,
		processTotal:    processTotal,
		processDuration: processDuration,
		processInFlight: processInFlight,
		queueLag:        queueLag,
		indexedChunks:   indexedChunks,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartDocument() {
	m.processInFlight.Inc()
}

func (m *WorkerMetrics) FinishDocument(service string, duration time.Duration, err error) {
	m.processInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.processTotal.WithLabelValues(service, status).Inc()
	m.processDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveIndexedChunks(service string, count int) {
	if count < 0 {
		return
	}
	m.indexedChunks.WithLabelValues(service).Observe(float64(count))
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}
