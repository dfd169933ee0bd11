package types

import (
	"reflect"
	"testing"
)

func TestMergeSocialFirstWins(t *testing.T) {
	b := NewExtractionBundle()
	b.MergeSocial("linkedin", "https://linkedin.com/company/acme")
	b.MergeSocial("linkedin", "https://linkedin.com/company/other")
	b.MergeSocial("twitter", "")

	if got := b.SocialLinks["linkedin"]; got != "https://linkedin.com/company/acme" {
		t.Fatalf("expected first link kept, got %q", got)
	}
	if _, ok := b.SocialLinks["twitter"]; ok {
		t.Fatal("empty links must not be recorded")
	}
}

func TestAddSourceDeduplicates(t *testing.T) {
	b := NewExtractionBundle()
	b.AddSource("website")
	b.AddSource("google_maps")
	b.AddSource("website")

	want := []string{"website", "google_maps"}
	if !reflect.DeepEqual(b.Sources, want) {
		t.Fatalf("expected %v, got %v", want, b.Sources)
	}
	if !b.HasSource("google_maps") || b.HasSource("yelp") {
		t.Fatal("HasSource mismatch")
	}
}

func TestSocialPlatformsSorted(t *testing.T) {
	r := ResolutionResult{SocialLinks: map[string]string{
		"twitter":  "https://twitter.com/acme",
		"facebook": "https://facebook.com/acme",
		"linkedin": "https://linkedin.com/company/acme",
	}}
	want := []string{"facebook", "linkedin", "twitter"}
	if got := r.SocialPlatforms(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
