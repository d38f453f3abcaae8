package config

import "testing"

func TestLoadPipelineDefaults(t *testing.T) {
	t.Setenv("BATCH_SIZE", "")
	t.Setenv("MAX_DOCUMENT_MB", "")
	t.Setenv("REVIEW_TIMEOUT_SECONDS", "")
	t.Setenv("REQUIRE_HUMAN_REVIEW", "")
	t.Setenv("OLLAMA_RPS", "")

	cfg := Load()
	if cfg.BatchSize != 5 {
		t.Fatalf("expected default batch size 5, got %d", cfg.BatchSize)
	}
	if cfg.MaxDocumentMB != 50 {
		t.Fatalf("expected default max document 50MB, got %d", cfg.MaxDocumentMB)
	}
	if cfg.ReviewTimeoutSeconds != 300 {
		t.Fatalf("expected default review timeout 300s, got %d", cfg.ReviewTimeoutSeconds)
	}
	if cfg.RequireHumanReview {
		t.Fatalf("human review must default off")
	}
	if cfg.OllamaRPS != 4 {
		t.Fatalf("expected default 4 rps, got %v", cfg.OllamaRPS)
	}
	if cfg.NATSSubject != "submissions.received" || cfg.ReviewSubject != "submissions.review" {
		t.Fatalf("unexpected subjects %q / %q", cfg.NATSSubject, cfg.ReviewSubject)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("BATCH_SIZE", "12")
	t.Setenv("REVIEW_TIMEOUT_SECONDS", "60")
	t.Setenv("REQUIRE_HUMAN_REVIEW", "true")
	t.Setenv("OLLAMA_RPS", "2.5")
	t.Setenv("QUALITY_POLICY_PATH", "/etc/labintake/policy.yaml")

	cfg := Load()
	if cfg.BatchSize != 12 {
		t.Fatalf("expected batch size 12, got %d", cfg.BatchSize)
	}
	if cfg.ReviewTimeoutSeconds != 60 {
		t.Fatalf("expected review timeout 60, got %d", cfg.ReviewTimeoutSeconds)
	}
	if !cfg.RequireHumanReview {
		t.Fatalf("expected human review enabled")
	}
	if cfg.OllamaRPS != 2.5 {
		t.Fatalf("expected 2.5 rps, got %v", cfg.OllamaRPS)
	}
	if cfg.QualityPolicyPath != "/etc/labintake/policy.yaml" {
		t.Fatalf("unexpected policy path %q", cfg.QualityPolicyPath)
	}
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("BATCH_SIZE", "many")
	t.Setenv("OLLAMA_RPS", "fast")

	cfg := Load()
	if cfg.BatchSize != 5 || cfg.OllamaRPS != 4 {
		t.Fatalf("malformed values must fall back to defaults, got %d / %v", cfg.BatchSize, cfg.OllamaRPS)
	}
}
