package usecase

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/meridianbio/labintake/internal/core/domain"
)

const DefaultBatchSize = 5

// ProcessBatch runs independent workflow instances for each path,
// bounded by batchSize. Documents share no state, so order of completion is
// irrelevant; results are returned in input order. Cancellation stops
// launching new documents but lets in-flight ones finish.
func (w *IntakeWorkflow) ProcessBatch(ctx context.Context, paths []string, batchSize int, opts domain.ProcessOptions) ([]*domain.ExtractionResult, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	results := make([]*domain.ExtractionResult, len(paths))
	var g errgroup.Group
	g.SetLimit(batchSize)

	for i, path := range paths {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// Each document gets its own submission identity.
			perDoc := opts
			perDoc.SubmissionID = ""
			result, err := w.ProcessDocument(ctx, path, perDoc)
			if err != nil {
				result = &domain.ExtractionResult{
					SourceDocument: path,
					Success:        false,
					MissingFields:  []string{},
					Warnings:       []string{err.Error()},
				}
			}
			results[i] = result
			return nil
		})
	}
	_ = g.Wait()

	for i, path := range paths {
		if results[i] == nil {
			results[i] = &domain.ExtractionResult{
				SourceDocument: path,
				Success:        false,
				MissingFields:  []string{},
				Warnings:       []string{"batch cancelled before processing"},
			}
		}
	}
	return results, ctx.Err()
}
