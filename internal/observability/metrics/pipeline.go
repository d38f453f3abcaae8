// Package metrics exposes Prometheus instrumentation for the intake
// pipeline and its HTTP surface.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/meridianbio/labintake/internal/core/domain"
)

type PipelineMetrics struct {
	registry *prometheus.Registry

	processTotal    *prometheus.CounterVec
	processDuration *prometheus.HistogramVec
	processInFlight prometheus.Gauge
	decisionsTotal  *prometheus.CounterVec
	attempts        *prometheus.HistogramVec
	confidence      *prometheus.HistogramVec
	reviewWait      *prometheus.HistogramVec
	queueLag        *prometheus.HistogramVec
}

func NewPipelineMetrics(service string) *PipelineMetrics {
	registry := prometheus.NewRegistry()

	processTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "labintake",
			Subsystem: "pipeline",
			Name:      "documents_total",
			Help:      "Total processed submission documents by outcome.",
		},
		[]string{"service", "outcome"},
	)
	processDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "labintake",
			Subsystem: "pipeline",
			Name:      "document_duration_seconds",
			Help:      "End-to-end processing duration per document.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "outcome"},
	)
	processInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "labintake",
			Subsystem: "pipeline",
			Name:      "documents_in_flight",
			Help:      "Documents currently being processed.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	decisionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "labintake",
			Subsystem: "pipeline",
			Name:      "decisions_total",
			Help:      "Quality-gate decisions taken per attempt.",
		},
		[]string{"service", "decision"},
	)
	attempts := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "labintake",
			Subsystem: "pipeline",
			Name:      "attempts_per_document",
			Help:      "Extraction attempts consumed per document.",
			Buckets:   []float64{1, 2, 3},
		},
		[]string{"service"},
	)
	confidence := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "labintake",
			Subsystem: "pipeline",
			Name:      "confidence_score",
			Help:      "Final confidence score per document.",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.85, 0.9, 0.95, 1},
		},
		[]string{"service"},
	)
	reviewWait := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "labintake",
			Subsystem: "pipeline",
			Name:      "review_wait_seconds",
			Help:      "Time spent waiting on a human reviewer.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"service", "verdict"},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "labintake",
			Subsystem: "pipeline",
			Name:      "queue_lag_seconds",
			Help:      "Delay between submission intake and processing start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)

	registry.MustRegister(
		processTotal, processDuration, processInFlight,
		decisionsTotal, attempts, confidence, reviewWait, queueLag,
	)

	return &PipelineMetrics{
		registry:        registry,
		processTotal:    processTotal,
		processDuration: processDuration,
		processInFlight: processInFlight,
		decisionsTotal:  decisionsTotal,
		attempts:        attempts,
		confidence:      confidence,
		reviewWait:      reviewWait,
		queueLag:        queueLag,
	}
}

func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *PipelineMetrics) StartDocument() {
	m.processInFlight.Inc()
}

func (m *PipelineMetrics) FinishDocument(service string, result *domain.ExtractionResult) {
	m.processInFlight.Dec()
	if result == nil {
		m.processTotal.WithLabelValues(service, "error").Inc()
		return
	}

	outcome := "failed"
	switch {
	case result.Success && result.HumanReviewed:
		outcome = "accepted_after_review"
	case result.Success:
		outcome = "accepted"
	case result.HumanReviewed:
		outcome = "rejected"
	}

	m.processTotal.WithLabelValues(service, outcome).Inc()
	m.processDuration.WithLabelValues(service, outcome).Observe(result.ProcessingTime.Seconds())
	m.confidence.WithLabelValues(service).Observe(result.ConfidenceScore)
	if result.Attempts > 0 {
		m.attempts.WithLabelValues(service).Observe(float64(result.Attempts))
	}
}

func (m *PipelineMetrics) RecordDecision(service string, decision domain.Decision) {
	m.decisionsTotal.WithLabelValues(service, string(decision)).Inc()
}

func (m *PipelineMetrics) ObserveReviewWait(service, verdict string, wait time.Duration) {
	if wait < 0 {
		return
	}
	if verdict == "" {
		verdict = "timeout"
	}
	m.reviewWait.WithLabelValues(service, verdict).Observe(wait.Seconds())
}

func (m *PipelineMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}
