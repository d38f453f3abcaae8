package ollama

import (
	"context"
	"fmt"

	"github.com/meridianbio/labintake/internal/core/domain"
)

// Extractor asks the generation model for structured submission fields. One
// schema violation gets a single immediate re-ask with the violation quoted
// back; transport-level retry already happened underneath.
type Extractor struct {
	client *Client
}

func NewExtractor(client *Client) *Extractor {
	return &Extractor{client: client}
}

func (e *Extractor) ExtractFields(ctx context.Context, req domain.ExtractionRequest) (*domain.SubmissionData, error) {
	prompt := buildExtractionPrompt(req)

	raw, err := e.client.generateJSON(ctx, prompt)
	if err != nil {
		return nil, err
	}

	data, err := parseSubmission(raw)
	if err == nil {
		return data, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	repair := fmt.Sprintf("%s\n\nYour previous answer was invalid: %v\nReturn only the corrected JSON object.", prompt, err)
	raw, genErr := e.client.generateJSON(ctx, repair)
	if genErr != nil {
		return nil, genErr
	}
	data, err = parseSubmission(raw)
	if err != nil {
		return nil, fmt.Errorf("model output invalid after repair: %w", err)
	}
	return data, nil
}
