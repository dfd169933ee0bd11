package sources

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ByteCodeVikash/lead-scraper/internal/fetcher"
)

// MapsScraper pulls business contact details from the Google Maps search
// page. Maps markup shifts constantly, so this is a best-effort fallback:
// the first phone-looking match and the first external link win.
type MapsScraper struct {
	fetcher fetcher.Fetcher
	logger  *slog.Logger
}

// NewMapsScraper builds a maps scraper sharing the given fetcher.
func NewMapsScraper(f fetcher.Fetcher, logger *slog.Logger) *MapsScraper {
	if logger == nil {
		logger = slog.Default()
	}
	return &MapsScraper{fetcher: f, logger: logger}
}

// Name identifies the source in result records.
func (m *MapsScraper) Name() string { return "google_maps" }

// Lookup searches Maps for the business and extracts a phone and website
// when present.
func (m *MapsScraper) Lookup(ctx context.Context, companyName string) Result {
	searchURL := "https://www.google.com/maps/search/" + url.QueryEscape(companyName)
	page, outcome := fetch(ctx, m.fetcher, searchURL)
	if outcome != OutcomeFound {
		m.logger.Debug("maps lookup unavailable", "company", companyName, "outcome", string(outcome))
		return Result{Outcome: outcome}
	}

	result := Result{Outcome: OutcomeNotFound, Names: []string{m.Name()}}
	result.Phone = firstPhone(page.Body)

	if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body)); err == nil {
		doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			href, _ := s.Attr("href")
			if strings.Contains(href, "http") &&
				!strings.Contains(href, "google.com") &&
				!strings.Contains(href, "maps") {
				result.Website = href
				return false
			}
			return true
		})
	}

	if result.Phone != "" || result.Website != "" {
		result.Outcome = OutcomeFound
	}
	return result
}
