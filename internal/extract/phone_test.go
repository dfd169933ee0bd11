package extract

import (
	"reflect"
	"testing"
)

func TestPhoneFromText(t *testing.T) {
	text := "Call us at (650) 253-0000 or 650.253.4000 for support."
	got := PhoneExtractor{}.FromText(text)
	if len(got) < 2 {
		t.Fatalf("expected at least 2 candidates, got %d (%v)", len(got), got)
	}
}

func TestPhoneFromTextRejectsShortRuns(t *testing.T) {
	got := PhoneExtractor{}.FromText("Suite 1234, floor 56, est. 1987")
	if len(got) != 0 {
		t.Fatalf("expected no candidates from short digit runs, got %v", got)
	}
}

func TestPhoneFromHTMLIncludesTelLinks(t *testing.T) {
	html := []byte(`<html><body><a href="tel:+16502530000">Call</a><p>No other numbers here.</p></body></html>`)
	got := PhoneExtractor{}.FromHTML(html)
	if len(got) == 0 {
		t.Fatal("expected tel: link to produce a candidate")
	}
	if got[0] != "+16502530000" {
		t.Fatalf("expected tel: target first, got %q", got[0])
	}
}

func TestPhoneNormalizeE164(t *testing.T) {
	e := PhoneExtractor{DefaultRegion: "US"}
	if got := e.Normalize("(650) 253-0000"); got != "+16502530000" {
		t.Fatalf("expected +16502530000, got %q", got)
	}
}

func TestPhoneNormalizeKeepsInvalidCleaned(t *testing.T) {
	e := PhoneExtractor{}
	if got := e.Normalize("000-000-0000"); got != "0000000000" {
		t.Fatalf("expected invalid number kept in cleaned form, got %q", got)
	}
}

func TestPhoneDeduplicateAndNormalize(t *testing.T) {
	e := PhoneExtractor{DefaultRegion: "US"}
	in := []string{"(650) 253-0000", "650.253.0000", "+1 650 253 0000"}
	got := e.DeduplicateAndNormalize(in)
	want := []string{"+16502530000"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	again := e.DeduplicateAndNormalize(got)
	if !reflect.DeepEqual(again, want) {
		t.Fatalf("expected idempotent normalisation, got %v", again)
	}
}
