package sources

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/ByteCodeVikash/lead-scraper/internal/fetcher"
)

// DirectoryScraper queries business directories. The individual directory
// lookups target independent hosts, so they are issued concurrently and
// joined; the first phone and website found win per field.
type DirectoryScraper struct {
	fetcher fetcher.Fetcher
	logger  *slog.Logger
}

// NewDirectoryScraper builds a directory scraper sharing the given fetcher.
func NewDirectoryScraper(f fetcher.Fetcher, logger *slog.Logger) *DirectoryScraper {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirectoryScraper{fetcher: f, logger: logger}
}

// Name identifies the source in result records.
func (d *DirectoryScraper) Name() string { return "directories" }

// Lookup fans out to every directory and merges their results.
func (d *DirectoryScraper) Lookup(ctx context.Context, companyName string) Result {
	lookups := []func(context.Context, string) Result{
		d.searchYellowPages,
		d.searchYelp,
	}

	results := make([]Result, len(lookups))
	var wg sync.WaitGroup
	for i, lookup := range lookups {
		wg.Add(1)
		go func(i int, lookup func(context.Context, string) Result) {
			defer wg.Done()
			results[i] = lookup(ctx, companyName)
		}(i, lookup)
	}
	wg.Wait()

	combined := Result{Outcome: OutcomeNotFound}
	blocked := 0
	for _, result := range results {
		if result.Outcome == OutcomeBlocked {
			blocked++
			continue
		}
		if result.Outcome != OutcomeFound {
			continue
		}
		if result.Phone != "" && combined.Phone == "" {
			combined.Phone = result.Phone
		}
		if result.Website != "" && combined.Website == "" {
			combined.Website = result.Website
		}
		combined.Names = append(combined.Names, result.Names...)
	}

	switch {
	case combined.Phone != "" || combined.Website != "":
		combined.Outcome = OutcomeFound
	case blocked == len(lookups):
		combined.Outcome = OutcomeBlocked
	}
	return combined
}

func (d *DirectoryScraper) searchYellowPages(ctx context.Context, companyName string) Result {
	searchURL := "https://www.yellowpages.com/search?search_terms=" +
		url.QueryEscape(companyName) + "&geo_location_terms=USA"
	page, outcome := fetch(ctx, d.fetcher, searchURL)
	if outcome != OutcomeFound {
		d.logger.Debug("yellowpages lookup unavailable", "company", companyName, "outcome", string(outcome))
		return Result{Outcome: outcome}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return NotFound()
	}

	entry := doc.Find("div.result").First()
	if entry.Length() == 0 {
		return NotFound()
	}

	result := Result{Outcome: OutcomeNotFound, Names: []string{"yellowpages"}}
	result.Phone = strings.TrimSpace(entry.Find("div.phones").First().Text())
	if href, ok := entry.Find("a.track-visit-website").First().Attr("href"); ok {
		result.Website = href
	}

	if result.Phone != "" || result.Website != "" {
		result.Outcome = OutcomeFound
	}
	return result
}

func (d *DirectoryScraper) searchYelp(ctx context.Context, companyName string) Result {
	searchURL := "https://www.yelp.com/search?find_desc=" + url.QueryEscape(companyName)
	page, outcome := fetch(ctx, d.fetcher, searchURL)
	if outcome != OutcomeFound {
		d.logger.Debug("yelp lookup unavailable", "company", companyName, "outcome", string(outcome))
		return Result{Outcome: outcome}
	}

	result := Result{Outcome: OutcomeNotFound, Names: []string{"yelp"}}
	result.Phone = firstPhone(page.Body)

	if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body)); err == nil {
		doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			href, _ := s.Attr("href")
			if strings.Contains(href, "/biz_redir?") {
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
