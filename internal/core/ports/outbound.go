package ports

import (
	"context"
	"io"

	"github.com/meridianbio/labintake/internal/core/domain"
)

// SubmissionStore persists intake records and terminal extraction results.
// SaveResult writes submission, document and result records as one
// transaction.
type SubmissionStore interface {
	CreateSubmission(ctx context.Context, sub *domain.Submission) error
	GetSubmission(ctx context.Context, id string) (*domain.Submission, error)
	UpdateStatus(ctx context.Context, id string, status domain.SubmissionStatus, errMessage string) error
	SaveResult(ctx context.Context, result *domain.ExtractionResult) error
	GetResult(ctx context.Context, submissionID string) (*domain.ExtractionResult, error)
}

// ObjectStorage stores uploaded source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes submission intake events.
type MessageQueue interface {
	PublishSubmissionReceived(ctx context.Context, submissionID string) error
	SubscribeSubmissionReceived(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor reads plain text out of a document file on disk.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Chunker splits extracted text into indexable chunks.
type Chunker interface {
	Split(text string) []string
}

// Embedder builds vectors for chunks and retrieval queries.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorStore indexes document chunks and retrieves extraction context,
// scoped to a single submission.
type VectorStore interface {
	IndexChunks(ctx context.Context, submissionID, sourceDocument string, chunks []string, vectors [][]float32) error
	Search(ctx context.Context, submissionID string, queryVector []float32, limit int) ([]domain.ScoredChunk, error)
}

// StructuredExtractor turns document context into submission fields. It must
// support re-invocation with prior errors and suggestions as added context.
type StructuredExtractor interface {
	ExtractFields(ctx context.Context, req domain.ExtractionRequest) (*domain.SubmissionData, error)
}

// SubmissionExtractor is the workflow-facing extraction capability: one call
// covering chunk, embed, index, context retrieval and structured extraction.
type SubmissionExtractor interface {
	Extract(ctx context.Context, req domain.ExtractionRequest) (*domain.SubmissionData, int, error)
}

// ReviewChannel suspends on an external reviewer. The context deadline bounds
// the wait; expiry surfaces as a domain.ErrReviewTimeout kind.
type ReviewChannel interface {
	RequestReview(ctx context.Context, req domain.ReviewRequest) (domain.ReviewResponse, error)
}

// EventSink records workflow audit events.
type EventSink interface {
	Record(ctx context.Context, event domain.Event)
}
