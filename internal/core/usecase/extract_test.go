package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/meridianbio/labintake/internal/core/domain"
)

type textExtractorFake struct {
	text  string
	err   error
	calls int
}

func (f *textExtractorFake) Extract(context.Context, string) (string, error) {
	f.calls++
	return f.text, f.err
}

type chunkerFake struct {
	chunks []string
}

func (f *chunkerFake) Split(string) []string { return f.chunks }

type embedderFake struct {
	vectors      [][]float32
	embedErr     error
	queryErr     error
	queryTexts   []string
	embedBatches int
}

func (f *embedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.embedBatches++
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	if f.vectors != nil {
		return f.vectors, nil
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i)}
	}
	return out, nil
}

func (f *embedderFake) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.queryTexts = append(f.queryTexts, text)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return []float32{0.5}, nil
}

type vectorStoreFake struct {
	indexCalls  int
	searchCalls int
	indexErr    error
	searchErr   error
	hits        []domain.ScoredChunk
}

func (f *vectorStoreFake) IndexChunks(context.Context, string, string, []string, [][]float32) error {
	f.indexCalls++
	return f.indexErr
}

func (f *vectorStoreFake) Search(context.Context, string, []float32, int) ([]domain.ScoredChunk, error) {
	f.searchCalls++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if f.hits != nil {
		return f.hits, nil
	}
	return []domain.ScoredChunk{{Text: "chunk", Score: 0.9}}, nil
}

type structuredExtractorFake struct {
	data     *domain.SubmissionData
	err      error
	requests []domain.ExtractionRequest
}

func (f *structuredExtractorFake) ExtractFields(_ context.Context, req domain.ExtractionRequest) (*domain.SubmissionData, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

func newPipelineFakes() (*textExtractorFake, *chunkerFake, *embedderFake, *vectorStoreFake, *structuredExtractorFake) {
	return &textExtractorFake{text: "intake form contents"},
		&chunkerFake{chunks: []string{"a", "b", "c"}},
		&embedderFake{},
		&vectorStoreFake{},
		&structuredExtractorFake{data: &domain.SubmissionData{Sample: &domain.Sample{SampleID: "SAMPLE-001"}}}
}

func TestExtractFirstAttemptIndexesDocument(t *testing.T) {
	files, chunker, embedder, vectors, extractor := newPipelineFakes()
	p := NewExtractionPipeline(files, chunker, embedder, vectors, extractor, 4)

	data, chunks, err := p.Extract(context.Background(), domain.ExtractionRequest{
		SubmissionID: "sub-1", SourceDocument: "form.pdf", Attempt: 1,
	})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if data == nil || data.Field(domain.CategorySample, "sample_id") != "SAMPLE-001" {
		t.Fatalf("unexpected data: %+v", data)
	}
	if chunks != 3 {
		t.Fatalf("expected 3 indexed chunks, got %d", chunks)
	}
	if vectors.indexCalls != 1 {
		t.Fatalf("expected 1 index call, got %d", vectors.indexCalls)
	}
	if len(extractor.requests) != 1 || len(extractor.requests[0].ContextChunks) == 0 {
		t.Fatalf("extractor did not receive context chunks: %+v", extractor.requests)
	}
}

func TestExtractRetryReusesIndexAndTargetsFeedback(t *testing.T) {
	files, chunker, embedder, vectors, extractor := newPipelineFakes()
	p := NewExtractionPipeline(files, chunker, embedder, vectors, extractor, 4)

	_, chunks, err := p.Extract(context.Background(), domain.ExtractionRequest{
		SubmissionID: "sub-1", SourceDocument: "form.pdf", Attempt: 2,
		Suggestions: []string{"locate a value for administrative.submitter_email"},
	})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if chunks != 0 {
		t.Fatalf("retry should not re-index, got %d chunks", chunks)
	}
	if files.calls != 0 || vectors.indexCalls != 0 {
		t.Fatalf("retry re-read or re-indexed the document")
	}
	if len(embedder.queryTexts) != 1 || !strings.Contains(embedder.queryTexts[0], "submitter_email") {
		t.Fatalf("retry context query should carry feedback, got %v", embedder.queryTexts)
	}
}

func TestExtractEmptyTextIsProcessingError(t *testing.T) {
	files, chunker, embedder, vectors, extractor := newPipelineFakes()
	files.text = "   "
	p := NewExtractionPipeline(files, chunker, embedder, vectors, extractor, 4)

	_, _, err := p.Extract(context.Background(), domain.ExtractionRequest{Attempt: 1})
	if err == nil || !domain.IsKind(err, domain.ErrProcessing) {
		t.Fatalf("expected ErrProcessing for empty text, got %v", err)
	}
}

func TestExtractVectorMismatchIsProcessingError(t *testing.T) {
	files, chunker, embedder, vectors, extractor := newPipelineFakes()
	embedder.vectors = [][]float32{{1}}
	p := NewExtractionPipeline(files, chunker, embedder, vectors, extractor, 4)

	_, _, err := p.Extract(context.Background(), domain.ExtractionRequest{Attempt: 1})
	if err == nil || !domain.IsKind(err, domain.ErrProcessing) {
		t.Fatalf("expected ErrProcessing for vector mismatch, got %v", err)
	}
}

func TestExtractWrapsExtractorFailure(t *testing.T) {
	files, chunker, embedder, vectors, extractor := newPipelineFakes()
	extractor.err = errors.New("model unavailable")
	p := NewExtractionPipeline(files, chunker, embedder, vectors, extractor, 4)

	_, _, err := p.Extract(context.Background(), domain.ExtractionRequest{Attempt: 1})
	if err == nil || !domain.IsKind(err, domain.ErrProcessing) {
		t.Fatalf("expected ErrProcessing, got %v", err)
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("expected cause preserved, got %v", err)
	}
}
