// Package scoring computes weighted extraction-confidence scores. Scoring is
// a pure function of the extracted data: the same input always produces the
// same report.
package scoring

import (
	"regexp"
	"strings"

	"github.com/meridianbio/labintake/internal/core/domain"
)

const presentBaseScore = 0.7

var (
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phonePattern    = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
	sampleIDPattern = regexp.MustCompile(`^[A-Z0-9\-_]+$`)
)

type fieldWeight struct {
	field  string
	weight float64
}

// Per-category field weights; each table sums to 1.0.
var fieldWeights = map[domain.Category][]fieldWeight{
	domain.CategoryAdministrative: {
		{"submitter_email", 0.30},
		{"first_name", 0.20},
		{"last_name", 0.20},
		{"institution", 0.15},
		{"phone", 0.10},
		{"department", 0.05},
	},
	domain.CategorySample: {
		{"sample_id", 0.30},
		{"sample_type", 0.25},
		{"volume", 0.15},
		{"concentration", 0.15},
		{"collection_date", 0.15},
	},
	domain.CategorySequencing: {
		{"platform", 0.40},
		{"coverage", 0.30},
		{"read_length", 0.20},
		{"library_prep", 0.10},
	},
	domain.CategoryStorage: {
		{"temperature", 0.50},
		{"container_type", 0.30},
		{"location", 0.20},
	},
}

var categoryWeights = map[domain.Category]float64{
	domain.CategoryAdministrative: 0.30,
	domain.CategorySample:         0.30,
	domain.CategorySequencing:     0.25,
	domain.CategoryStorage:        0.15,
}

type Scorer struct{}

func New() *Scorer {
	return &Scorer{}
}

// Score computes per-field and overall confidence for one attempt's data.
// An absent category contributes zero for all of its fields.
func (s *Scorer) Score(data *domain.SubmissionData) domain.ConfidenceReport {
	report := domain.ConfidenceReport{}
	overall := 0.0

	for _, category := range domain.Categories() {
		fields, _ := data.CategoryFields(category)
		categoryScore := 0.0
		for _, fw := range fieldWeights[category] {
			score := scoreField(fw.field, fields[fw.field])
			categoryScore += score * fw.weight
			report.Fields = append(report.Fields, domain.FieldScore{
				Category: category,
				Field:    fw.field,
				Score:    score,
			})
		}
		overall += categoryScore * categoryWeights[category]
	}

	report.Overall = clamp01(overall)
	return report
}

// scoreField: 0 when absent, 0.7 base when present, 1.0 when the value also
// passes its format check (or, for free-text fields, is longer than one
// character).
func scoreField(field, value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "null") {
		return 0
	}

	switch field {
	case "submitter_email":
		if emailPattern.MatchString(value) {
			return 1.0
		}
	case "phone":
		if phonePattern.MatchString(normalizePhone(value)) {
			return 1.0
		}
	case "sample_id":
		if sampleIDPattern.MatchString(value) {
			return 1.0
		}
	default:
		if len([]rune(value)) > 1 {
			return 1.0
		}
	}
	return presentBaseScore
}

func normalizePhone(value string) string {
	var b strings.Builder
	for _, r := range value {
		switch r {
		case ' ', '-', '(', ')', '.':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
