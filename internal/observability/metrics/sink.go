package metrics

import (
	"context"
	"log/slog"

	"github.com/meridianbio/labintake/internal/core/domain"
)

// EventRecorder feeds workflow audit events into the pipeline metrics and
// the structured log.
type EventRecorder struct {
	service string
	metrics *PipelineMetrics
	logger  *slog.Logger
}

func NewEventRecorder(service string, metrics *PipelineMetrics, logger *slog.Logger) *EventRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventRecorder{service: service, metrics: metrics, logger: logger}
}

func (r *EventRecorder) Record(_ context.Context, event domain.Event) {
	if r.metrics != nil && event.Kind == domain.EventDecision {
		r.metrics.RecordDecision(r.service, event.Decision)
	}

	attrs := []any{
		"kind", string(event.Kind),
		"submission_id", event.SubmissionID,
	}
	if event.Attempt > 0 {
		attrs = append(attrs, "attempt", event.Attempt)
	}
	if event.Chunks > 0 {
		attrs = append(attrs, "chunks", event.Chunks)
	}
	if event.Kind == domain.EventScored || event.Kind == domain.EventDecision {
		attrs = append(attrs, "confidence", event.Confidence)
	}
	if event.Decision != "" {
		attrs = append(attrs, "decision", string(event.Decision))
	}
	if event.Detail != "" {
		attrs = append(attrs, "detail", event.Detail)
	}
	r.logger.Info("pipeline event", attrs...)
}
