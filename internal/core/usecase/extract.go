package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/meridianbio/labintake/internal/core/domain"
	"github.com/meridianbio/labintake/internal/core/ports"
)

// defaultContextQuery seeds retrieval on the first attempt, before any
// validation feedback exists.
const defaultContextQuery = "laboratory submission form: submitter contact, sample details, sequencing request, storage conditions"

// ExtractionPipeline is the extraction collaborator adapter: it composes
// text reading, chunking, embedding, vector indexing and LLM extraction
// behind a single call. On retries the similarity query is rebuilt from the
// validation feedback so the retrieved context targets the weak fields.
type ExtractionPipeline struct {
	files      ports.TextExtractor
	chunker    ports.Chunker
	embedder   ports.Embedder
	vectors    ports.VectorStore
	extractor  ports.StructuredExtractor
	contextTop int
}

func NewExtractionPipeline(
	files ports.TextExtractor,
	chunker ports.Chunker,
	embedder ports.Embedder,
	vectors ports.VectorStore,
	extractor ports.StructuredExtractor,
	contextTop int,
) *ExtractionPipeline {
	if contextTop <= 0 {
		contextTop = 8
	}
	return &ExtractionPipeline{
		files:      files,
		chunker:    chunker,
		embedder:   embedder,
		vectors:    vectors,
		extractor:  extractor,
		contextTop: contextTop,
	}
}

// Extract runs one attempt and returns the structured data plus the number
// of chunks indexed for this attempt (zero on retries, which reuse the
// index). All failures are domain.ErrProcessing kinds so the workflow can
// route them through the same bounded retry loop as quality failures.
func (p *ExtractionPipeline) Extract(ctx context.Context, req domain.ExtractionRequest) (*domain.SubmissionData, int, error) {
	chunkCount := 0
	if req.Attempt <= 1 {
		n, err := p.indexDocument(ctx, req.SubmissionID, req.SourceDocument)
		if err != nil {
			return nil, 0, err
		}
		chunkCount = n
	}

	contextChunks, err := p.retrieveContext(ctx, req)
	if err != nil {
		return nil, chunkCount, err
	}
	req.ContextChunks = contextChunks

	data, err := p.extractor.ExtractFields(ctx, req)
	if err != nil {
		if domain.IsKind(err, domain.ErrProcessing) {
			return nil, chunkCount, err
		}
		return nil, chunkCount, domain.WrapError(domain.ErrProcessing, "extract fields", err)
	}
	if data == nil {
		return nil, chunkCount, domain.WrapError(domain.ErrProcessing, "extract fields", errors.New("extractor returned no data"))
	}
	return data, chunkCount, nil
}

func (p *ExtractionPipeline) indexDocument(ctx context.Context, submissionID, path string) (int, error) {
	text, err := p.files.Extract(ctx, path)
	if err != nil {
		return 0, domain.WrapError(domain.ErrProcessing, "read document text", err)
	}
	if strings.TrimSpace(text) == "" {
		return 0, domain.WrapError(domain.ErrProcessing, "read document text", errors.New("document produced no text"))
	}

	chunks := p.chunker.Split(text)
	if len(chunks) == 0 {
		return 0, domain.WrapError(domain.ErrProcessing, "chunk document", errors.New("chunking produced zero chunks"))
	}

	vectors, err := p.embedder.Embed(ctx, chunks)
	if err != nil {
		return 0, domain.WrapError(domain.ErrProcessing, "embed chunks", err)
	}
	if len(vectors) != len(chunks) {
		return 0, domain.WrapError(domain.ErrProcessing, "embed chunks",
			fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(chunks)))
	}

	if err := p.vectors.IndexChunks(ctx, submissionID, path, chunks, vectors); err != nil {
		return 0, domain.WrapError(domain.ErrProcessing, "index chunks", err)
	}
	return len(chunks), nil
}

func (p *ExtractionPipeline) retrieveContext(ctx context.Context, req domain.ExtractionRequest) ([]domain.ScoredChunk, error) {
	query := defaultContextQuery
	if len(req.Suggestions) > 0 {
		query = strings.Join(req.Suggestions, "; ")
	}

	vector, err := p.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, domain.WrapError(domain.ErrProcessing, "embed context query", err)
	}

	chunks, err := p.vectors.Search(ctx, req.SubmissionID, vector, p.contextTop)
	if err != nil {
		return nil, domain.WrapError(domain.ErrProcessing, "search context", err)
	}
	if len(chunks) == 0 {
		return nil, domain.WrapError(domain.ErrProcessing, "search context", errors.New("no context chunks retrieved"))
	}
	return chunks, nil
}
