package usecase

import (
	"github.com/meridianbio/labintake/internal/core/domain"
	"github.com/meridianbio/labintake/internal/core/rules"
)

// DecisionInput is the state the quality gate evaluates after each attempt.
type DecisionInput struct {
	Attempt       int
	Confidence    float64
	Outcome       domain.ValidationOutcome
	ReviewEnabled bool
}

// Decide applies the transition rules in priority order:
//
//  1. accept when confidence clears the bar and validation is clean,
//  2. retry while attempts remain and quality is below the retry bar,
//  3. escalate to human review when enabled (retries exhausted, or
//     confidence stuck in the medium band),
//  4. otherwise terminate best-effort.
//
// The ordering guarantees a clean first attempt never retries and a run
// never exceeds MaxAttempts extraction calls.
func Decide(policy rules.QualityPolicy, in DecisionInput) domain.Decision {
	if in.Confidence >= policy.AcceptThreshold && in.Outcome.Clean() {
		return domain.DecisionAccept
	}

	if in.Attempt < policy.MaxAttempts && (in.Confidence < policy.RetryThreshold || !in.Outcome.Clean()) {
		return domain.DecisionRetry
	}

	if in.ReviewEnabled {
		exhausted := in.Attempt >= policy.MaxAttempts
		mediumBand := in.Confidence >= policy.RetryThreshold && in.Confidence < policy.AcceptThreshold
		if exhausted || mediumBand {
			return domain.DecisionHumanReview
		}
	}

	return domain.DecisionBestEffort
}
