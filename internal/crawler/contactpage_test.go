package crawler

import (
	"net/url"
	"reflect"
	"testing"
)

func TestIsContactPage(t *testing.T) {
	cases := []struct {
		pageURL string
		text    string
		want    bool
	}{
		{"https://example.com/contact", "", true},
		{"https://example.com/pricing", "Reach us", true},
		{"https://example.com/about-us", "", true},
		{"https://example.com/pricing", "Plans", false},
	}
	for _, tc := range cases {
		if got := IsContactPage(tc.pageURL, tc.text); got != tc.want {
			t.Fatalf("IsContactPage(%q, %q): expected %v, got %v", tc.pageURL, tc.text, tc.want, got)
		}
	}
}

func TestFindContactLinks(t *testing.T) {
	base, _ := url.Parse("https://example.com/")
	html := []byte(`<html><body>
		<a href="/contact">Contact us</a>
		<a href="/contact">Contact again</a>
		<a href="https://other.example/contact">External</a>
		<a href="mailto:hi@example.com">Mail</a>
		<a href="javascript:void(0)">Menu</a>
		<a href="/pricing">Pricing</a>
		<a href="/team">Our team</a>
	</body></html>`)

	got := FindContactLinks(html, base)
	want := []string{"https://example.com/contact", "https://example.com/team"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
