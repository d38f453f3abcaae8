package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/meridianbio/labintake/internal/core/domain"
	"github.com/meridianbio/labintake/internal/core/ports"
	"github.com/meridianbio/labintake/internal/core/rules"
	"github.com/meridianbio/labintake/internal/core/scoring"
)

const DefaultReviewTimeout = 300 * time.Second

// IntakeWorkflow runs one document through validate → extract → score →
// decide, looping on retry with accumulated feedback, escalating to human
// review when enabled, and persisting accepted results. It always produces
// exactly one terminal ExtractionResult per run.
type IntakeWorkflow struct {
	files         *FileValidator
	extractor     ports.SubmissionExtractor
	scorer        *scoring.Scorer
	validator     *rules.Validator
	policy        rules.QualityPolicy
	review        ports.ReviewChannel
	store         ports.SubmissionStore
	events        ports.EventSink
	logger        *slog.Logger
	reviewTimeout time.Duration
}

type WorkflowOptions struct {
	Review        ports.ReviewChannel
	Store         ports.SubmissionStore
	Events        ports.EventSink
	Logger        *slog.Logger
	ReviewTimeout time.Duration
}

func NewIntakeWorkflow(
	files *FileValidator,
	extractor ports.SubmissionExtractor,
	policy rules.QualityPolicy,
	opts WorkflowOptions,
) *IntakeWorkflow {
	if opts.ReviewTimeout <= 0 {
		opts.ReviewTimeout = DefaultReviewTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &IntakeWorkflow{
		files:         files,
		extractor:     extractor,
		scorer:        scoring.New(),
		validator:     rules.NewValidator(policy),
		policy:        policy,
		review:        opts.Review,
		store:         opts.Store,
		events:        opts.Events,
		logger:        opts.Logger,
		reviewTimeout: opts.ReviewTimeout,
	}
}

// ProcessDocument is synchronous from the caller's perspective. Quality
// failures terminate in the result object, not the error; the error is
// reserved for context cancellation.
func (w *IntakeWorkflow) ProcessDocument(ctx context.Context, path string, opts domain.ProcessOptions) (*domain.ExtractionResult, error) {
	start := time.Now()
	submissionID := opts.SubmissionID
	if submissionID == "" {
		submissionID = uuid.NewString()
	}

	if err := w.files.Check(path); err != nil {
		w.emit(ctx, domain.Event{
			Kind: domain.EventValidated, SubmissionID: submissionID, Detail: err.Error(),
		})
		result := &domain.ExtractionResult{
			SubmissionID:    submissionID,
			SourceDocument:  path,
			Success:         false,
			ConfidenceScore: 0,
			MissingFields:   []string{},
			Warnings:        []string{err.Error()},
			Attempts:        0,
		}
		return w.finish(ctx, result, start), nil
	}
	w.emit(ctx, domain.Event{Kind: domain.EventValidated, SubmissionID: submissionID})

	var (
		history     domain.AttemptHistory
		lastData    *domain.SubmissionData
		lastReport  domain.ConfidenceReport
		lastOutcome domain.ValidationOutcome
		feedback    []string
		suggestions []string
	)

	reviewEnabled := opts.RequireHumanReview && w.review != nil

	for attempt := 1; attempt <= w.policy.MaxAttempts; attempt++ {
		req := domain.ExtractionRequest{
			SubmissionID:   submissionID,
			SourceDocument: path,
			Attempt:        attempt,
			Previous:       lastData,
			Errors:         feedback,
			Suggestions:    suggestions,
			Mode:           opts.ExtractionMode,
		}

		data, chunks, err := w.extractor.Extract(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Extraction failures re-enter the same bounded loop as
			// low-quality attempts.
			w.logger.Warn("extraction attempt failed",
				"submission_id", submissionID, "attempt", attempt, "error", err)
			data = &domain.SubmissionData{}
			lastReport = domain.ConfidenceReport{}
			lastOutcome = domain.ValidationOutcome{
				Errors:        []string{fmt.Sprintf("extraction failed: %v", err)},
				MissingFields: []string{},
			}
		} else {
			if chunks > 0 {
				w.emit(ctx, domain.Event{
					Kind: domain.EventChunked, SubmissionID: submissionID, Attempt: attempt, Chunks: chunks,
				})
			}
			lastReport = w.scorer.Score(data)
			lastOutcome = w.validator.Validate(data)
		}

		lastData = data
		history = append(history, domain.ExtractionAttempt{
			Number: attempt, Data: data, At: time.Now().UTC(),
		})
		w.emit(ctx, domain.Event{
			Kind: domain.EventScored, SubmissionID: submissionID,
			Attempt: attempt, Confidence: lastReport.Overall,
		})

		decision := Decide(w.policy, DecisionInput{
			Attempt:       attempt,
			Confidence:    lastReport.Overall,
			Outcome:       lastOutcome,
			ReviewEnabled: reviewEnabled,
		})
		w.emit(ctx, domain.Event{
			Kind: domain.EventDecision, SubmissionID: submissionID,
			Attempt: attempt, Confidence: lastReport.Overall, Decision: decision,
		})

		switch decision {
		case domain.DecisionAccept:
			result := &domain.ExtractionResult{
				SubmissionID:    submissionID,
				SourceDocument:  path,
				Success:         true,
				ConfidenceScore: lastReport.Overall,
				Data:            lastData,
				MissingFields:   lastOutcome.MissingFields,
				Warnings:        []string{},
				Attempts:        len(history),
			}
			return w.finish(ctx, result, start), nil

		case domain.DecisionRetry:
			feedback = lastOutcome.Errors
			suggestions = rules.Suggestions(lastOutcome)
			continue

		case domain.DecisionHumanReview:
			result := w.runReview(ctx, submissionID, path, lastData, lastReport, lastOutcome, len(history))
			return w.finish(ctx, result, start), nil

		case domain.DecisionBestEffort:
			result := w.bestEffort(submissionID, path, lastData, lastReport, lastOutcome, len(history))
			return w.finish(ctx, result, start), nil
		}
	}

	// The decision engine only returns RETRY below MaxAttempts, so the loop
	// always terminates inside the switch.
	result := w.bestEffort(submissionID, path, lastData, lastReport, lastOutcome, len(history))
	return w.finish(ctx, result, start), nil
}

// bestEffort terminates with the last attempt's data; every outstanding
// validation error is carried as a warning.
func (w *IntakeWorkflow) bestEffort(
	submissionID, path string,
	data *domain.SubmissionData,
	report domain.ConfidenceReport,
	outcome domain.ValidationOutcome,
	attempts int,
) *domain.ExtractionResult {
	warnings := make([]string, 0, len(outcome.Errors))
	warnings = append(warnings, outcome.Errors...)
	return &domain.ExtractionResult{
		SubmissionID:    submissionID,
		SourceDocument:  path,
		Success:         report.Overall >= w.policy.BestEffortThreshold,
		ConfidenceScore: report.Overall,
		Data:            data,
		MissingFields:   outcome.MissingFields,
		Warnings:        warnings,
		Attempts:        attempts,
	}
}

// runReview emits the single ReviewRequest of the run and suspends on the
// reviewer up to the configured deadline. The wait is a context deadline on
// an async request, never a blocking sleep, so concurrent documents keep
// processing.
func (w *IntakeWorkflow) runReview(
	ctx context.Context,
	submissionID, path string,
	data *domain.SubmissionData,
	report domain.ConfidenceReport,
	outcome domain.ValidationOutcome,
	attempts int,
) *domain.ExtractionResult {
	req := domain.ReviewRequest{
		SubmissionID:   submissionID,
		SourceDocument: path,
		Data:           data,
		Confidence:     report.Overall,
		Errors:         outcome.Errors,
		MissingFields:  outcome.MissingFields,
		Attempts:       attempts,
		RequestedAt:    time.Now().UTC(),
	}
	w.emit(ctx, domain.Event{
		Kind: domain.EventReviewRequested, SubmissionID: submissionID,
		Attempt: attempts, Confidence: report.Overall,
	})

	reviewCtx, cancel := context.WithTimeout(ctx, w.reviewTimeout)
	defer cancel()

	resp, err := w.review.RequestReview(reviewCtx, req)
	if err != nil {
		detail := fmt.Sprintf("human review timed out after %s", w.reviewTimeout)
		if !domain.IsKind(err, domain.ErrReviewTimeout) && reviewCtx.Err() == nil {
			detail = fmt.Sprintf("human review unavailable: %v", err)
		}
		w.emit(ctx, domain.Event{
			Kind: domain.EventReviewResolved, SubmissionID: submissionID, Detail: detail,
		})
		warnings := append(append([]string{}, outcome.Errors...), detail)
		return &domain.ExtractionResult{
			SubmissionID:    submissionID,
			SourceDocument:  path,
			Success:         false,
			ConfidenceScore: report.Overall,
			Data:            data,
			MissingFields:   outcome.MissingFields,
			Warnings:        warnings,
			Attempts:        attempts,
		}
	}

	w.emit(ctx, domain.Event{
		Kind: domain.EventReviewResolved, SubmissionID: submissionID, Detail: string(resp.Verdict),
	})

	if resp.Verdict != domain.ReviewApproved {
		warnings := append(append([]string{}, outcome.Errors...), "submission rejected by human reviewer")
		return &domain.ExtractionResult{
			SubmissionID:    submissionID,
			SourceDocument:  path,
			Success:         false,
			ConfidenceScore: report.Overall,
			Data:            nil,
			MissingFields:   outcome.MissingFields,
			Warnings:        warnings,
			Attempts:        attempts,
		}
	}

	merged := data.Clone()
	if merged == nil {
		merged = &domain.SubmissionData{}
	}
	warnings := []string{}
	if err := merged.ApplyCorrections(resp.Corrections); err != nil {
		warnings = append(warnings, fmt.Sprintf("correction not applied: %v", err))
	}
	return &domain.ExtractionResult{
		SubmissionID:    submissionID,
		SourceDocument:  path,
		Success:         true,
		ConfidenceScore: 1.0,
		Data:            merged,
		MissingFields:   []string{},
		Warnings:        warnings,
		Attempts:        attempts,
		HumanReviewed:   true,
	}
}

// finish stamps timing and hands the terminal result to the persistence
// coordinator. Persistence failure degrades to a warning, never to a failed
// run.
func (w *IntakeWorkflow) finish(ctx context.Context, result *domain.ExtractionResult, start time.Time) *domain.ExtractionResult {
	result.ProcessingTime = time.Since(start)
	result.CompletedAt = time.Now().UTC()
	if result.MissingFields == nil {
		result.MissingFields = []string{}
	}
	if result.Warnings == nil {
		result.Warnings = []string{}
	}

	if w.store != nil {
		if err := w.store.SaveResult(ctx, result); err != nil {
			w.logger.Warn("result not persisted",
				"submission_id", result.SubmissionID, "error", err)
			result.Warnings = append(result.Warnings, fmt.Sprintf("result not persisted: %v", err))
		}
	}

	w.logger.Info("document workflow finished",
		"submission_id", result.SubmissionID,
		"source", result.SourceDocument,
		"success", result.Success,
		"confidence", result.ConfidenceScore,
		"attempts", result.Attempts,
		"human_reviewed", result.HumanReviewed,
		"duration_ms", float64(result.ProcessingTime.Microseconds())/1000.0,
	)
	return result
}

func (w *IntakeWorkflow) emit(ctx context.Context, event domain.Event) {
	if w.events == nil {
		return
	}
	event.At = time.Now().UTC()
	w.events.Record(ctx, event)
}
