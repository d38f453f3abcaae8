package ollama

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/meridianbio/labintake/internal/core/domain"
)

// submissionSchema is enforced on everything the model returns before any
// value reaches the domain. Nulls are tolerated and normalized away.
const submissionSchema = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "administrative": {
      "type": ["object", "null"],
      "additionalProperties": false,
      "properties": {
        "submitter_email": {"type": ["string", "null"]},
        "first_name": {"type": ["string", "null"]},
        "last_name": {"type": ["string", "null"]},
        "institution": {"type": ["string", "null"]},
        "phone": {"type": ["string", "null"]},
        "department": {"type": ["string", "null"]}
      }
    },
    "sample": {
      "type": ["object", "null"],
      "additionalProperties": false,
      "properties": {
        "sample_id": {"type": ["string", "null"]},
        "sample_type": {"type": ["string", "null"]},
        "volume": {"type": ["string", "null"]},
        "concentration": {"type": ["string", "null"]},
        "collection_date": {"type": ["string", "null"]}
      }
    },
    "sequencing": {
      "type": ["object", "null"],
      "additionalProperties": false,
      "properties": {
        "platform": {"type": ["string", "null"]},
        "coverage": {"type": ["string", "null"]},
        "read_length": {"type": ["string", "null"]},
        "library_prep": {"type": ["string", "null"]}
      }
    },
    "storage": {
      "type": ["object", "null"],
      "additionalProperties": false,
      "properties": {
        "temperature": {"type": ["string", "null"]},
        "container_type": {"type": ["string", "null"]},
        "location": {"type": ["string", "null"]}
      }
    }
  }
}`

var compiledSchema = jsonschema.MustCompileString("submission.json", submissionSchema)

// parseSubmission validates the model output against the schema and maps it
// into the domain payload. Empty categories collapse to nil so scoring sees
// them as absent rather than blank.
func parseSubmission(raw string) (*domain.SubmissionData, error) {
	payload := extractJSONObject(raw)

	var decoded any
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		return nil, fmt.Errorf("parse model output: %w", err)
	}
	if err := compiledSchema.Validate(decoded); err != nil {
		return nil, fmt.Errorf("model output rejected by schema: %w", err)
	}

	object, ok := decoded.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("model output is not an object")
	}

	data := &domain.SubmissionData{}
	if fields := normalizeCategory(object["administrative"]); fields != nil {
		data.Administrative = &domain.Administrative{
			SubmitterEmail: fields["submitter_email"],
			FirstName:      fields["first_name"],
			LastName:       fields["last_name"],
			Institution:    fields["institution"],
			Phone:          fields["phone"],
			Department:     fields["department"],
		}
	}
	if fields := normalizeCategory(object["sample"]); fields != nil {
		data.Sample = &domain.Sample{
			SampleID:       fields["sample_id"],
			SampleType:     fields["sample_type"],
			Volume:         fields["volume"],
			Concentration:  fields["concentration"],
			CollectionDate: fields["collection_date"],
		}
	}
	if fields := normalizeCategory(object["sequencing"]); fields != nil {
		data.Sequencing = &domain.Sequencing{
			Platform:    fields["platform"],
			Coverage:    fields["coverage"],
			ReadLength:  fields["read_length"],
			LibraryPrep: fields["library_prep"],
		}
	}
	if fields := normalizeCategory(object["storage"]); fields != nil {
		data.Storage = &domain.Storage{
			Temperature:   fields["temperature"],
			ContainerType: fields["container_type"],
			Location:      fields["location"],
		}
	}
	return data, nil
}

// normalizeCategory returns nil when the category is missing, null or has no
// usable values.
func normalizeCategory(value any) map[string]string {
	object, ok := value.(map[string]any)
	if !ok {
		return nil
	}

	out := make(map[string]string, len(object))
	populated := false
	for key, v := range object {
		s, _ := v.(string)
		s = normalizeValue(s)
		out[key] = s
		if s != "" {
			populated = true
		}
	}
	if !populated {
		return nil
	}
	return out
}

func normalizeValue(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "null", "none", "n/a", "unknown", "not specified":
		return ""
	}
	return s
}
