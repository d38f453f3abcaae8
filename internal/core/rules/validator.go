// Package rules performs structural validation of extracted submission data,
// independent of confidence scoring. Errors mean malformed-but-present
// values; missing fields mean absent required values. The two lists are
// disjoint and both feed the quality decision engine.
package rules

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/meridianbio/labintake/internal/core/domain"
)

var (
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phonePattern    = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
	sampleIDPattern = regexp.MustCompile(`^[A-Z0-9\-_]+$`)
)

type Validator struct {
	policy QualityPolicy
}

func NewValidator(policy QualityPolicy) *Validator {
	return &Validator{policy: policy.normalize()}
}

// Validate is a pure function of the data; validating the same payload twice
// yields an identical outcome.
func (v *Validator) Validate(data *domain.SubmissionData) domain.ValidationOutcome {
	outcome := domain.ValidationOutcome{
		Errors:        []string{},
		MissingFields: []string{},
	}

	for _, category := range domain.RequiredCategories() {
		if _, ok := data.CategoryFields(category); !ok {
			outcome.Errors = append(outcome.Errors, fmt.Sprintf("missing required category: %s", category))
		}
	}

	v.validateAdministrative(data, &outcome)
	v.validateSample(data, &outcome)
	v.validateSequencing(data, &outcome)
	return outcome
}

func (v *Validator) validateAdministrative(data *domain.SubmissionData, outcome *domain.ValidationOutcome) {
	if _, ok := data.CategoryFields(domain.CategoryAdministrative); !ok {
		return
	}

	email := data.Field(domain.CategoryAdministrative, "submitter_email")
	switch {
	case email == "":
		outcome.MissingFields = append(outcome.MissingFields, "administrative.submitter_email")
	case !emailPattern.MatchString(email):
		outcome.Errors = append(outcome.Errors, fmt.Sprintf("invalid submitter_email format: %q", email))
	}

	if data.Field(domain.CategoryAdministrative, "first_name") == "" {
		outcome.MissingFields = append(outcome.MissingFields, "administrative.first_name")
	}
	if data.Field(domain.CategoryAdministrative, "last_name") == "" {
		outcome.MissingFields = append(outcome.MissingFields, "administrative.last_name")
	}

	if phone := data.Field(domain.CategoryAdministrative, "phone"); phone != "" {
		if !phonePattern.MatchString(normalizePhone(phone)) {
			outcome.Errors = append(outcome.Errors, fmt.Sprintf("invalid phone format: %q", phone))
		}
	}
}

func (v *Validator) validateSample(data *domain.SubmissionData, outcome *domain.ValidationOutcome) {
	if _, ok := data.CategoryFields(domain.CategorySample); !ok {
		return
	}

	sampleID := data.Field(domain.CategorySample, "sample_id")
	switch {
	case sampleID == "":
		outcome.MissingFields = append(outcome.MissingFields, "sample.sample_id")
	case !sampleIDPattern.MatchString(sampleID):
		outcome.Errors = append(outcome.Errors, fmt.Sprintf("invalid sample_id format: %q", sampleID))
	}

	sampleType := data.Field(domain.CategorySample, "sample_type")
	switch {
	case sampleType == "":
		outcome.MissingFields = append(outcome.MissingFields, "sample.sample_type")
	case !slices.Contains(v.policy.SampleTypes, strings.ToLower(sampleType)):
		// Warning-class: an unknown type still processes.
		outcome.Errors = append(outcome.Errors, fmt.Sprintf("unrecognized sample_type: %q", sampleType))
	}

	if volume := data.Field(domain.CategorySample, "volume"); volume != "" {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(volume), 64)
		if err != nil || parsed <= 0 {
			outcome.Errors = append(outcome.Errors, fmt.Sprintf("volume must be a positive number, got %q", volume))
		}
	}
}

func (v *Validator) validateSequencing(data *domain.SubmissionData, outcome *domain.ValidationOutcome) {
	if _, ok := data.CategoryFields(domain.CategorySequencing); !ok {
		return
	}

	if platform := data.Field(domain.CategorySequencing, "platform"); platform != "" {
		if !slices.Contains(v.policy.Platforms, strings.ToLower(platform)) {
			outcome.Errors = append(outcome.Errors, fmt.Sprintf("unrecognized sequencing platform: %q", platform))
		}
	}
}

// Suggestions renders a validation outcome into natural-language improvement
// feedback for the next extraction attempt.
func Suggestions(outcome domain.ValidationOutcome) []string {
	var out []string
	for _, errText := range outcome.Errors {
		switch {
		case strings.Contains(errText, "submitter_email"):
			out = append(out, "ensure the submitter email contains @ and a valid domain")
		case strings.Contains(errText, "sample_id"):
			out = append(out, "format sample IDs with uppercase letters, digits, hyphens and underscores only")
		case strings.Contains(errText, "phone"):
			out = append(out, "use an international phone format, digits with an optional leading +")
		case strings.Contains(errText, "volume"):
			out = append(out, "report sample volume as a positive number")
		case strings.Contains(errText, "sample_type"):
			out = append(out, "use a standard sample type such as dna, rna, blood or tissue")
		case strings.Contains(errText, "platform"):
			out = append(out, "use a known sequencing platform such as illumina, nanopore or pacbio")
		case strings.Contains(errText, "missing required category"):
			out = append(out, "include the "+strings.TrimPrefix(errText, "missing required category: ")+" section even if some fields are unknown")
		default:
			out = append(out, "fix: "+errText)
		}
	}
	for _, field := range outcome.MissingFields {
		out = append(out, "locate a value for "+field+" in the document")
	}
	return out
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
