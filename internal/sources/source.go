package sources

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/ByteCodeVikash/lead-scraper/internal/fetcher"
	"github.com/ByteCodeVikash/lead-scraper/pkg/types"
)

// Outcome is the typed result of a source lookup. Sources never surface
// errors: network failures, bad statuses, and anti-bot blocks all collapse
// into an outcome so the fallback chain is driven by values, not
// exceptions.
type Outcome string

const (
	OutcomeFound    Outcome = "found"
	OutcomeNotFound Outcome = "not_found"
	OutcomeBlocked  Outcome = "blocked"
)

// Result carries whatever a secondary source could contribute.
type Result struct {
	Outcome     Outcome
	Phone       string
	Website     string
	LinkedInURL string
	// Names lists the concrete source names that contributed, eg.
	// "yellowpages" and "yelp" for a directory lookup.
	Names []string
}

// NotFound is the zero result.
func NotFound() Result { return Result{Outcome: OutcomeNotFound} }

// Blocked marks an anti-bot terminal response.
func Blocked() Result { return Result{Outcome: OutcomeBlocked} }

// Source is the uniform best-effort contract every secondary source
// implements.
type Source interface {
	Name() string
	Lookup(ctx context.Context, companyName string) Result
}

// blockedStatus reports whether an HTTP status is an anti-bot block.
// LinkedIn answers scrapers with 999.
func blockedStatus(code int) bool {
	return code == 403 || code == 429 || code == 999
}

// fetch is the shared GET helper: parse, fetch, and fold errors and bad
// statuses into (page, outcome).
func fetch(ctx context.Context, f fetcher.Fetcher, rawURL string) (*types.Page, Outcome) {
	target, err := url.Parse(rawURL)
	if err != nil {
		return nil, OutcomeNotFound
	}
	page, err := f.Fetch(ctx, types.FetchRequest{URL: target})
	if err != nil {
		return nil, OutcomeNotFound
	}
	if blockedStatus(page.StatusCode) {
		return nil, OutcomeBlocked
	}
	if page.StatusCode != 200 {
		return nil, OutcomeNotFound
	}
	return page, OutcomeFound
}

// phoneCandidate matches the first phone-looking run in raw page text.
var phoneCandidate = regexp.MustCompile(`[\+\(]?[1-9][0-9 .\-\(\)]{8,}[0-9]`)

func firstPhone(body []byte) string {
	return strings.TrimSpace(phoneCandidate.FindString(string(body)))
}
