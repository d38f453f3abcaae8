package ports

import (
	"context"
	"io"

	"github.com/meridianbio/labintake/internal/core/domain"
)

// DocumentProcessor runs the quality-controlled extraction workflow.
// ProcessDocument always returns a result object; the error is reserved for
// context cancellation and internal faults, not extraction quality.
type DocumentProcessor interface {
	ProcessDocument(ctx context.Context, path string, opts domain.ProcessOptions) (*domain.ExtractionResult, error)
	ProcessBatch(ctx context.Context, paths []string, batchSize int, opts domain.ProcessOptions) ([]*domain.ExtractionResult, error)
}

// DocumentIngestor accepts an uploaded document and enqueues it for
// asynchronous processing.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Submission, error)
}
