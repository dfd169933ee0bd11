package extract

import (
	"net/url"
	"testing"
)

func TestSocialFromHTMLFirstMatchWins(t *testing.T) {
	html := []byte(`<html><body>
		<a href="https://www.linkedin.com/company/acme">LinkedIn</a>
		<a href="https://linkedin.com/company/acme-old">Old LinkedIn</a>
		<a href="https://twitter.com/acme">Twitter</a>
		<a href="https://fb.com/acme">Facebook</a>
	</body></html>`)

	links := SocialLinkExtractor{}.FromHTML(html, nil)
	if got := links["linkedin"]; got != "https://www.linkedin.com/company/acme" {
		t.Fatalf("expected first linkedin link kept, got %q", got)
	}
	if got := links["twitter"]; got != "https://twitter.com/acme" {
		t.Fatalf("expected twitter link, got %q", got)
	}
	if got := links["facebook"]; got != "https://fb.com/acme" {
		t.Fatalf("expected fb.com link mapped to facebook, got %q", got)
	}
	if _, found := links["instagram"]; found {
		t.Fatal("expected no instagram link")
	}
}

func TestSocialFromHTMLResolvesRelativeLinks(t *testing.T) {
	base, _ := url.Parse("https://instagram.com/acme")
	html := []byte(`<a href="/acme">Profile</a>`)

	links := SocialLinkExtractor{}.FromHTML(html, base)
	if got := links["instagram"]; got != "https://instagram.com/acme" {
		t.Fatalf("expected relative link resolved against base, got %q", got)
	}
}
