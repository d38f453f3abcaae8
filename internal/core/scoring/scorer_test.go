package scoring

import (
	"reflect"
	"testing"

	"github.com/meridianbio/labintake/internal/core/domain"
)

func completeSubmission() *domain.SubmissionData {
	return &domain.SubmissionData{
		Administrative: &domain.Administrative{
			SubmitterEmail: "jane.doe@genomics.example.org",
			FirstName:      "Jane",
			LastName:       "Doe",
			Institution:    "Meridian Institute",
			Phone:          "+15551234567",
			Department:     "Genomics Core",
		},
		Sample: &domain.Sample{
			SampleID:       "SAMPLE-001",
			SampleType:     "dna",
			Volume:         "50",
			Concentration:  "120",
			CollectionDate: "2026-01-15",
		},
		Sequencing: &domain.Sequencing{
			Platform:    "illumina",
			Coverage:    "30x",
			ReadLength:  "150",
			LibraryPrep: "truseq",
		},
		Storage: &domain.Storage{
			Temperature:   "-80",
			ContainerType: "cryovial",
			Location:      "freezer B2",
		},
	}
}

func TestScoreCompleteSubmissionIsHighConfidence(t *testing.T) {
	report := New().Score(completeSubmission())
	if report.Overall < 0.85 {
		t.Fatalf("expected overall >= 0.85 for complete submission, got %.3f", report.Overall)
	}
	if report.Overall > 1.0 {
		t.Fatalf("overall exceeds 1.0: %.3f", report.Overall)
	}
}

func TestScoreEmptySubmissionIsZero(t *testing.T) {
	report := New().Score(&domain.SubmissionData{})
	if report.Overall != 0 {
		t.Fatalf("expected 0 for empty submission, got %.3f", report.Overall)
	}
	for _, fs := range report.Fields {
		if fs.Score != 0 {
			t.Fatalf("expected 0 field score for %s.%s, got %.2f", fs.Category, fs.Field, fs.Score)
		}
	}
}

func TestScoreFieldGradations(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value string
		want  float64
	}{
		{"absent", "submitter_email", "", 0},
		{"literal null", "sample_id", "null", 0},
		{"valid email", "submitter_email", "a@b.org", 1.0},
		{"malformed email", "submitter_email", "not-an-email", presentBaseScore},
		{"valid sample id", "sample_id", "SAMPLE-001", 1.0},
		{"lowercase sample id", "sample_id", "lowercase id", presentBaseScore},
		{"valid phone", "phone", "+1 555 123 4567", 1.0},
		{"short phone", "phone", "123", presentBaseScore},
		{"free text long", "institution", "Meridian Institute", 1.0},
		{"free text single char", "volume", "5", presentBaseScore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scoreField(tt.field, tt.value); got != tt.want {
				t.Fatalf("scoreField(%q, %q) = %.2f, want %.2f", tt.field, tt.value, got, tt.want)
			}
		})
	}
}

func TestScoreWeightsMissingEmailAndBadSampleID(t *testing.T) {
	data := completeSubmission()
	data.Administrative.SubmitterEmail = ""
	data.Sample.SampleID = "lowercase id"

	report := New().Score(data)
	if report.Overall >= 0.85 {
		t.Fatalf("expected degraded confidence, got %.3f", report.Overall)
	}

	for _, fs := range report.Fields {
		if fs.Category == domain.CategoryAdministrative && fs.Field == "submitter_email" && fs.Score != 0 {
			t.Fatalf("missing email should score 0, got %.2f", fs.Score)
		}
		if fs.Category == domain.CategorySample && fs.Field == "sample_id" && fs.Score != presentBaseScore {
			t.Fatalf("malformed sample id should score %.1f, got %.2f", presentBaseScore, fs.Score)
		}
	}
}

func TestScoreIsIdempotent(t *testing.T) {
	data := completeSubmission()
	scorer := New()
	first := scorer.Score(data)
	second := scorer.Score(data)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("scoring the same data twice differed:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestFieldWeightTablesSumToOne(t *testing.T) {
	for category, weights := range fieldWeights {
		sum := 0.0
		for _, fw := range weights {
			sum += fw.weight
		}
		if sum < 0.999 || sum > 1.001 {
			t.Fatalf("weights for %s sum to %.3f, want 1.0", category, sum)
		}
	}
}
