package ollama

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/meridianbio/labintake/internal/core/domain"
)

const extractionInstructions = `You extract laboratory submission metadata from document excerpts.
Return a strict JSON object with exactly these keys:
  administrative: {submitter_email, first_name, last_name, institution, phone, department}
  sample: {sample_id, sample_type, volume, concentration, collection_date}
  sequencing: {platform, coverage, read_length, library_prep}
  storage: {temperature, container_type, location}
All values are strings. Use "" for anything the document does not state.
Never invent values. No markdown, no extra keys, no commentary.`

func buildExtractionPrompt(req domain.ExtractionRequest) string {
	var b strings.Builder
	b.WriteString(extractionInstructions)

	if req.Mode != "" {
		fmt.Fprintf(&b, "\n\nExtraction mode: %s.", req.Mode)
	}

	if req.Attempt > 1 {
		fmt.Fprintf(&b, "\n\nThis is attempt %d. The previous extraction was rejected.", req.Attempt)
		if req.Previous != nil {
			if prev, err := json.Marshal(req.Previous); err == nil {
				b.WriteString("\nPrevious extraction:\n")
				b.Write(prev)
			}
		}
		if len(req.Errors) > 0 {
			b.WriteString("\nProblems found:\n")
			for _, e := range req.Errors {
				b.WriteString("- " + e + "\n")
			}
		}
		if len(req.Suggestions) > 0 {
			b.WriteString("Corrections to apply:\n")
			for _, s := range req.Suggestions {
				b.WriteString("- " + s + "\n")
			}
		}
	}

	b.WriteString("\n\nDocument excerpts:\n")
	for idx, chunk := range req.ContextChunks {
		fmt.Fprintf(&b, "[%d] relevance=%.3f\n%s\n\n", idx+1, chunk.Score, chunk.Text)
	}
	return b.String()
}
