package domain

import "time"

// ReviewRequest is emitted at most once per workflow run.
type ReviewRequest struct {
	SubmissionID   string          `json:"submission_id"`
	SourceDocument string          `json:"source_document"`
	Data           *SubmissionData `json:"data"`
	Confidence     float64         `json:"confidence"`
	Errors         []string        `json:"errors"`
	MissingFields  []string        `json:"missing_fields"`
	Attempts       int             `json:"attempts"`
	RequestedAt    time.Time       `json:"requested_at"`
}

type ReviewVerdict string

const (
	ReviewApproved ReviewVerdict = "approved"
	ReviewRejected ReviewVerdict = "rejected"
)

// ReviewResponse carries the reviewer verdict, with optional field-level
// corrections keyed by dotted path ("administrative.submitter_email").
type ReviewResponse struct {
	Verdict     ReviewVerdict     `json:"verdict"`
	Corrections map[string]string `json:"corrections,omitempty"`
	Reviewer    string            `json:"reviewer,omitempty"`
	Note        string            `json:"note,omitempty"`
}
