package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// QualityPolicy holds the thresholds and enumerations the decision engine
// and rule validator operate on. Defaults match the intake quality gates;
// deployments may override individual values from a YAML file.
type QualityPolicy struct {
	AcceptThreshold     float64  `yaml:"accept_threshold"`
	RetryThreshold      float64  `yaml:"retry_threshold"`
	BestEffortThreshold float64  `yaml:"best_effort_threshold"`
	MaxAttempts         int      `yaml:"max_attempts"`
	SampleTypes         []string `yaml:"sample_types"`
	Platforms           []string `yaml:"platforms"`
}

func DefaultPolicy() QualityPolicy {
	return QualityPolicy{
		AcceptThreshold:     0.85,
		RetryThreshold:      0.70,
		BestEffortThreshold: 0.50,
		MaxAttempts:         3,
		SampleTypes: []string{
			"dna", "rna", "blood", "tissue", "saliva", "plasma", "serum", "swab",
		},
		Platforms: []string{
			"illumina", "nanopore", "pacbio", "iontorrent", "bgi",
		},
	}
}

// LoadPolicy reads YAML overrides on top of the defaults. An empty path
// returns the defaults unchanged.
func LoadPolicy(path string) (QualityPolicy, error) {
	policy := DefaultPolicy()
	if path == "" {
		return policy, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return QualityPolicy{}, fmt.Errorf("read quality policy: %w", err)
	}
	if err := yaml.Unmarshal(raw, &policy); err != nil {
		return QualityPolicy{}, fmt.Errorf("parse quality policy: %w", err)
	}
	return policy.normalize(), nil
}

func (p QualityPolicy) normalize() QualityPolicy {
	def := DefaultPolicy()
	out := p
	if out.AcceptThreshold <= 0 || out.AcceptThreshold > 1 {
		out.AcceptThreshold = def.AcceptThreshold
	}
	if out.RetryThreshold <= 0 || out.RetryThreshold > out.AcceptThreshold {
		out.RetryThreshold = def.RetryThreshold
	}
	if out.BestEffortThreshold <= 0 || out.BestEffortThreshold > out.RetryThreshold {
		out.BestEffortThreshold = def.BestEffortThreshold
	}
	if out.MaxAttempts <= 0 {
		out.MaxAttempts = def.MaxAttempts
	}
	if len(out.SampleTypes) == 0 {
		out.SampleTypes = def.SampleTypes
	}
	if len(out.Platforms) == 0 {
		out.Platforms = def.Platforms
	}
	return out
}
