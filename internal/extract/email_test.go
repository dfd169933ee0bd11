package extract

import (
	"reflect"
	"testing"
)

func TestEmailDeobfuscate(t *testing.T) {
	e := EmailExtractor{}
	cases := []struct {
		in   string
		want string
	}{
		{"john [at] example [dot] com", "john@example.com"},
		{"jane (at) example (dot) org", "jane@example.org"},
		{"sales @ example . net", "sales@example.net"},
	}
	for _, tc := range cases {
		if got := e.Deobfuscate(tc.in); got != tc.want {
			t.Fatalf("Deobfuscate(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestEmailFromText(t *testing.T) {
	text := "Reach us at info@example.com or john [at] example [dot] com."
	got := EmailExtractor{}.FromText(text)
	want := []string{"info@example.com", "john@example.com"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestEmailFromHTMLIncludesMailtoLinks(t *testing.T) {
	html := []byte(`<html><body><a href="mailto:support@example.com?subject=Hi">Email</a></body></html>`)
	got := EmailExtractor{}.FromHTML(html)
	want := []string{"support@example.com"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestEmailDeduplicateAndNormalize(t *testing.T) {
	e := EmailExtractor{}
	in := []string{"Info@Example.com", "info@example.com", "not-an-email"}
	got := e.DeduplicateAndNormalize(in)
	want := []string{"info@example.com"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
