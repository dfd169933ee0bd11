package sources

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ByteCodeVikash/lead-scraper/internal/fetcher"
)

// directoryDomains are never candidates for an official company website.
var directoryDomains = []string{
	"linkedin.com", "facebook.com", "twitter.com", "instagram.com",
	"yellowpages.com", "yelp.com", "bbb.org", "manta.com",
	"wikipedia.org", "bloomberg.com", "crunchbase.com",
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]`)

// SearchResult is one ranked web search hit.
type SearchResult struct {
	Title   string
	URL     string
	Snippet string
}

// WebSearcher resolves company names to candidate websites using
// DuckDuckGo HTML results, with Bing as a fallback when DuckDuckGo
// returns nothing.
type WebSearcher struct {
	fetcher    fetcher.Fetcher
	maxResults int
	logger     *slog.Logger
}

// NewWebSearcher builds a searcher sharing the given fetcher.
func NewWebSearcher(f fetcher.Fetcher, maxResults int, logger *slog.Logger) *WebSearcher {
	if maxResults <= 0 {
		maxResults = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WebSearcher{fetcher: f, maxResults: maxResults, logger: logger}
}

// Search returns up to maxResults hits for a company name. Failures yield
// an empty slice, never an error.
func (w *WebSearcher) Search(ctx context.Context, companyName string) []SearchResult {
	results := w.searchDuckDuckGo(ctx, companyName)
	if len(results) > 0 {
		return results
	}
	return w.searchBing(ctx, companyName)
}

func (w *WebSearcher) searchDuckDuckGo(ctx context.Context, query string) []SearchResult {
	page, outcome := fetch(ctx, w.fetcher, "https://html.duckduckgo.com/html/?q="+url.QueryEscape(query))
	if outcome != OutcomeFound {
		w.logger.Debug("duckduckgo search unavailable", "query", query, "outcome", string(outcome))
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil
	}

	var results []SearchResult
	doc.Find("div.result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		title := s.Find("a.result__a").First()
		if title.Length() == 0 {
			return true
		}
		href, _ := title.Attr("href")
		actual := unwrapDDGRedirect(href)
		if actual == "" {
			return true
		}
		results = append(results, SearchResult{
			Title:   strings.TrimSpace(title.Text()),
			URL:     actual,
			Snippet: strings.TrimSpace(s.Find("a.result__snippet").First().Text()),
		})
		return len(results) < w.maxResults
	})
	return results
}

// unwrapDDGRedirect extracts the target URL from a DuckDuckGo redirect
// link of the form //duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com.
func unwrapDDGRedirect(redirect string) string {
	if !strings.Contains(redirect, "uddg=") {
		return redirect
	}
	parts := strings.SplitN(redirect, "uddg=", 2)
	encoded := parts[1]
	if i := strings.Index(encoded, "&"); i >= 0 {
		encoded = encoded[:i]
	}
	decoded, err := url.QueryUnescape(encoded)
	if err != nil {
		return redirect
	}
	return decoded
}

func (w *WebSearcher) searchBing(ctx context.Context, query string) []SearchResult {
	page, outcome := fetch(ctx, w.fetcher, "https://www.bing.com/search?q="+url.QueryEscape(query))
	if outcome != OutcomeFound {
		w.logger.Debug("bing search unavailable", "query", query, "outcome", string(outcome))
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil
	}

	var results []SearchResult
	doc.Find("li.b_algo").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		link := s.Find("h2 a").First()
		if link.Length() == 0 {
			return true
		}
		href, _ := link.Attr("href")
		if !strings.HasPrefix(href, "http") {
			return true
		}
		results = append(results, SearchResult{
			Title:   strings.TrimSpace(link.Text()),
			URL:     href,
			Snippet: strings.TrimSpace(s.Find("p").First().Text()),
		})
		return len(results) < w.maxResults
	})
	return results
}

// FindOfficialDomain ranks search results and picks the most likely
// official company website.
//
// Scoring: +10 when the domain token overlaps the normalised company
// name, +5 when the company name appears in the result title, up to +5
// for shorter domains, +3 for a root path. Directory and social domains
// are excluded outright. Ties keep the earlier search result. When no
// candidate scores above zero, the first non-directory result is used.
func (w *WebSearcher) FindOfficialDomain(companyName string, results []SearchResult) string {
	if len(results) == 0 {
		return ""
	}

	companyNormalized := nonAlnum.ReplaceAllString(strings.ToLower(companyName), "")

	bestScore := 0
	bestURL := ""

	for _, result := range results {
		parsed, err := url.Parse(result.URL)
		if err != nil {
			continue
		}
		domain := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
		if isDirectoryDomain(domain) {
			continue
		}

		score := 0

		domainToken := nonAlnum.ReplaceAllString(strings.Split(domain, ".")[0], "")
		if domainToken != "" && companyNormalized != "" &&
			(strings.Contains(domainToken, companyNormalized) || strings.Contains(companyNormalized, domainToken)) {
			score += 10
		}

		if strings.Contains(strings.ToLower(result.Title), strings.ToLower(companyName)) {
			score += 5
		}

		if labels := 5 - len(strings.Split(domain, ".")); labels > 0 {
			score += labels
		}

		if parsed.Path == "" || parsed.Path == "/" {
			score += 3
		}

		if score > bestScore {
			bestScore = score
			bestURL = result.URL
		}
	}

	if bestScore > 0 {
		return bestURL
	}

	for _, result := range results {
		parsed, err := url.Parse(result.URL)
		if err != nil {
			continue
		}
		if !isDirectoryDomain(strings.ToLower(parsed.Hostname())) {
			return result.URL
		}
	}
	return ""
}

func isDirectoryDomain(domain string) bool {
	for _, dir := range directoryDomains {
		if strings.Contains(domain, dir) {
			return true
		}
	}
	return false
}
