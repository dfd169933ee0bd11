package sources

import (
	"bytes"
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ByteCodeVikash/lead-scraper/internal/fetcher"
)

var (
	linkedinSlugChars  = regexp.MustCompile(`[^a-z0-9\s-]`)
	linkedinSlugSpaces = regexp.MustCompile(`\s+`)
	linkedinSlugSuffix = regexp.MustCompile(`-(inc|llc|ltd|corporation|corp)$`)
)

// LinkedInScraper reads public LinkedIn company pages. LinkedIn answers
// most scrapers with HTTP 999, which is reported as a blocked outcome.
type LinkedInScraper struct {
	fetcher fetcher.Fetcher
	logger  *slog.Logger
}

// NewLinkedInScraper builds a LinkedIn scraper sharing the given fetcher.
func NewLinkedInScraper(f fetcher.Fetcher, logger *slog.Logger) *LinkedInScraper {
	if logger == nil {
		logger = slog.Default()
	}
	return &LinkedInScraper{fetcher: f, logger: logger}
}

// Name identifies the source in result records.
func (l *LinkedInScraper) Name() string { return "linkedin" }

// Lookup guesses the public company page URL from the company name and
// extracts the external website link when the page is reachable.
func (l *LinkedInScraper) Lookup(ctx context.Context, companyName string) Result {
	companyURL := "https://www.linkedin.com/company/" + slugifyCompanyName(companyName)

	page, outcome := fetch(ctx, l.fetcher, companyURL)
	if outcome != OutcomeFound {
		l.logger.Debug("linkedin lookup unavailable", "company", companyName, "outcome", string(outcome))
		return Result{Outcome: outcome}
	}

	result := Result{Outcome: OutcomeNotFound, LinkedInURL: companyURL, Names: []string{l.Name()}}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return result
	}

	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if strings.Contains(href, "http") && !strings.Contains(href, "linkedin.com") {
			result.Website = stripTrackingParams(href)
			return false
		}
		return true
	})

	if result.Website == "" {
		doc.Find(`meta[property="og:url"]`).Each(func(_ int, s *goquery.Selection) {
			content, _ := s.Attr("content")
			if strings.Contains(content, "http") && !strings.Contains(content, "linkedin.com") {
				result.Website = content
			}
		})
	}

	if result.Website != "" {
		result.Outcome = OutcomeFound
	}
	return result
}

// slugifyCompanyName turns "Acme Widgets Inc" into "acme-widgets", the
// form LinkedIn uses for public company page paths.
func slugifyCompanyName(name string) string {
	slug := linkedinSlugChars.ReplaceAllString(strings.ToLower(name), "")
	slug = linkedinSlugSpaces.ReplaceAllString(strings.TrimSpace(slug), "-")
	return linkedinSlugSuffix.ReplaceAllString(slug, "")
}

func stripTrackingParams(href string) string {
	if i := strings.Index(href, "?trk="); i >= 0 {
		return href[:i]
	}
	return href
}
