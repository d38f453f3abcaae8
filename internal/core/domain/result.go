package domain

import "time"

// Decision is the quality-gate verdict for one extraction attempt.
type Decision string

const (
	DecisionAccept      Decision = "accept"
	DecisionRetry       Decision = "retry"
	DecisionHumanReview Decision = "human_review"
	DecisionBestEffort  Decision = "accept_best_effort"
)

// ProcessOptions configure one workflow run.
type ProcessOptions struct {
	// SubmissionID reuses an existing intake record; empty means a new one
	// is generated for the run.
	SubmissionID       string
	RequireHumanReview bool
	ExtractionMode     string
}

// ExtractionResult is the single terminal artifact of a workflow run.
type ExtractionResult struct {
	SubmissionID    string          `json:"submission_id"`
	SourceDocument  string          `json:"source_document"`
	Success         bool            `json:"success"`
	ConfidenceScore float64         `json:"confidence_score"`
	Data            *SubmissionData `json:"data,omitempty"`
	MissingFields   []string        `json:"missing_fields"`
	Warnings        []string        `json:"warnings"`
	Attempts        int             `json:"attempts"`
	HumanReviewed   bool            `json:"human_reviewed"`
	ProcessingTime  time.Duration   `json:"processing_time"`
	CompletedAt     time.Time       `json:"completed_at"`
}
