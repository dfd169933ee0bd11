package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadFromReaderMergesDefaults(t *testing.T) {
	yaml := `
resolve:
  rate_limit: 500ms
  max_pages_per_domain: 3
  enabled_sources: [Google_Maps, linkedin]
robots:
  cache_ttl: 90
`
	cfg, err := LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Resolve.RateLimit.Duration != 500*time.Millisecond {
		t.Fatalf("expected 500ms rate limit, got %v", cfg.Resolve.RateLimit.Duration)
	}
	if cfg.Resolve.MaxPagesPerDomain != 3 {
		t.Fatalf("expected 3 pages, got %d", cfg.Resolve.MaxPagesPerDomain)
	}
	if cfg.Resolve.MaxRetries != 3 {
		t.Fatalf("expected default retries preserved, got %d", cfg.Resolve.MaxRetries)
	}
	if cfg.Robots.CacheTTL.Duration != 90*time.Second {
		t.Fatalf("expected bare number read as seconds, got %v", cfg.Robots.CacheTTL.Duration)
	}
	if !cfg.SourceEnabled("google_maps") {
		t.Fatal("expected sources lowercased")
	}
	if cfg.SourceEnabled("directories") {
		t.Fatal("expected directories disabled by override")
	}
}

func TestLoadFromReaderRejectsUnknownFields(t *testing.T) {
	if _, err := LoadFromReader(strings.NewReader("resolve:\n  max_depth: 3\n")); err == nil {
		t.Fatal("expected unknown field to be rejected")
	}
}

func TestLoadFromReaderRejectsUnknownSource(t *testing.T) {
	if _, err := LoadFromReader(strings.NewReader("resolve:\n  enabled_sources: [fax_machine]\n")); err == nil {
		t.Fatal("expected unknown source to be rejected")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Resolve.MaxRetries = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected max_retries validation error")
	}

	cfg = Default()
	cfg.Fetch.UserAgent = " "
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected user_agent validation error")
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}
