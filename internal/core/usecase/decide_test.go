package usecase

import (
	"testing"

	"github.com/meridianbio/labintake/internal/core/domain"
	"github.com/meridianbio/labintake/internal/core/rules"
)

func TestDecideTransitionTable(t *testing.T) {
	policy := rules.DefaultPolicy()
	errs := domain.ValidationOutcome{Errors: []string{"invalid sample_id"}}
	clean := domain.ValidationOutcome{}

	tests := []struct {
		name string
		in   DecisionInput
		want domain.Decision
	}{
		{"clean first attempt accepts", DecisionInput{Attempt: 1, Confidence: 0.9, Outcome: clean}, domain.DecisionAccept},
		{"accept exactly at threshold", DecisionInput{Attempt: 1, Confidence: 0.85, Outcome: clean}, domain.DecisionAccept},
		{"high confidence with errors retries", DecisionInput{Attempt: 1, Confidence: 0.9, Outcome: errs}, domain.DecisionRetry},
		{"low confidence retries", DecisionInput{Attempt: 2, Confidence: 0.4, Outcome: clean}, domain.DecisionRetry},
		{"exhausted retries fall to best effort", DecisionInput{Attempt: 3, Confidence: 0.4, Outcome: errs}, domain.DecisionBestEffort},
		{"exhausted retries escalate when review enabled", DecisionInput{Attempt: 3, Confidence: 0.4, Outcome: errs, ReviewEnabled: true}, domain.DecisionHumanReview},
		{"medium band escalates when review enabled", DecisionInput{Attempt: 1, Confidence: 0.75, Outcome: clean, ReviewEnabled: true}, domain.DecisionHumanReview},
		{"medium band without review is best effort", DecisionInput{Attempt: 1, Confidence: 0.75, Outcome: clean}, domain.DecisionBestEffort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decide(policy, tt.in); got != tt.want {
				t.Fatalf("Decide(%+v) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecideNeverRetriesPastMaxAttempts(t *testing.T) {
	policy := rules.DefaultPolicy()
	for attempt := policy.MaxAttempts; attempt <= policy.MaxAttempts+2; attempt++ {
		got := Decide(policy, DecisionInput{
			Attempt:    attempt,
			Confidence: 0.1,
			Outcome:    domain.ValidationOutcome{Errors: []string{"bad"}},
		})
		if got == domain.DecisionRetry {
			t.Fatalf("attempt %d must not retry", attempt)
		}
	}
}
