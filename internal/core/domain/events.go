package domain

import "time"

// EventKind is a closed set; consumers dispatch with a single switch
// instead of an open type hierarchy.
type EventKind string

const (
	EventValidated       EventKind = "validated"
	EventChunked         EventKind = "chunked"
	EventScored          EventKind = "scored"
	EventDecision        EventKind = "decision"
	EventReviewRequested EventKind = "review_requested"
	EventReviewResolved  EventKind = "review_resolved"
)

// Event is one audit entry in a workflow run's lifecycle.
type Event struct {
	Kind         EventKind `json:"kind"`
	SubmissionID string    `json:"submission_id"`
	Attempt      int       `json:"attempt,omitempty"`
	Chunks       int       `json:"chunks,omitempty"`
	Confidence   float64   `json:"confidence,omitempty"`
	Decision     Decision  `json:"decision,omitempty"`
	Detail       string    `json:"detail,omitempty"`
	At           time.Time `json:"at"`
}
