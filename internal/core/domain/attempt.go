package domain

import "time"

// ExtractionAttempt is one pass through the extraction adapter. Immutable
// once appended to the run's history.
type ExtractionAttempt struct {
	Number int             `json:"number"`
	Data   *SubmissionData `json:"data"`
	At     time.Time       `json:"at"`
}

// AttemptHistory is the ordered, append-only audit trail of a single run.
type AttemptHistory []ExtractionAttempt

type FieldScore struct {
	Category Category `json:"category"`
	Field    string   `json:"field"`
	Score    float64  `json:"score"`
}

// ConfidenceReport is recomputed from the attempt's data, never stored.
type ConfidenceReport struct {
	Overall float64      `json:"overall"`
	Fields  []FieldScore `json:"fields"`
}

// ValidationOutcome separates malformed-but-present values (Errors) from
// absent required values (MissingFields).
type ValidationOutcome struct {
	Errors        []string `json:"errors"`
	MissingFields []string `json:"missing_fields"`
}

func (v ValidationOutcome) Clean() bool {
	return len(v.Errors) == 0
}

// ScoredChunk is one similarity-search hit used as extraction context.
type ScoredChunk struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// ExtractionRequest carries everything the structured extractor needs.
// Retries include the previous payload plus validation feedback so the
// underlying model can target specific weaknesses.
type ExtractionRequest struct {
	SubmissionID   string
	SourceDocument string
	Attempt        int
	ContextChunks  []ScoredChunk
	Previous       *SubmissionData
	Errors         []string
	Suggestions    []string
	Mode           string
}
