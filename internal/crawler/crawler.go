package crawler

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/ByteCodeVikash/lead-scraper/internal/fetcher"
	"github.com/ByteCodeVikash/lead-scraper/internal/robots"
	"github.com/ByteCodeVikash/lead-scraper/pkg/types"
)

// priorityPaths are crawled in order after the homepage; contact links
// discovered on the homepage extend the list.
var priorityPaths = []string{"/", "/contact", "/contact-us", "/about", "/about-us", "/team", "/people"}

// Options configures a Crawler.
type Options struct {
	Fetcher       fetcher.Fetcher
	Robots        *robots.Agent
	Limiter       *DomainLimiter
	RespectRobots bool
	MaxRetries    int
	Render        bool
	Logger        *slog.Logger

	// Backoff is the base unit for exponential retry backoff. Defaults to
	// one second; tests shrink it.
	Backoff time.Duration
}

// Crawler fetches pages politely: robots check, per-domain rate limit,
// retry with exponential backoff. Crawls are bounded and deterministic.
type Crawler struct {
	fetcher       fetcher.Fetcher
	robots        *robots.Agent
	limiter       *DomainLimiter
	respectRobots bool
	maxRetries    int
	render        bool
	backoff       time.Duration
	logger        *slog.Logger
}

// New builds a crawler from options.
func New(opts Options) *Crawler {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Crawler{
		fetcher:       opts.Fetcher,
		robots:        opts.Robots,
		limiter:       opts.Limiter,
		respectRobots: opts.RespectRobots,
		maxRetries:    opts.MaxRetries,
		render:        opts.Render,
		backoff:       opts.Backoff,
		logger:        logger,
	}
}

// FetchPage retrieves a single URL, applying robots policy, rate limiting,
// and the retry policy: HTTP 403/429/999 are terminal (likely a block), other
// failures retry with 2^attempt backoff. A false return means the page was
// abandoned; crawling continues with other candidates.
func (c *Crawler) FetchPage(ctx context.Context, rawURL string) (*types.Page, bool) {
	target, err := url.Parse(rawURL)
	if err != nil || target.Host == "" {
		return nil, false
	}

	if c.respectRobots && c.robots != nil {
		if !c.robots.Allowed(ctx, target) {
			c.logger.Debug("blocked by robots.txt", "url", rawURL)
			return nil, false
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, target.Hostname()); err != nil {
			return nil, false
		}
	}

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		page, err := c.fetcher.Fetch(ctx, types.FetchRequest{URL: target, Render: c.render})
		if err != nil {
			c.logger.Debug("fetch attempt failed", "url", rawURL, "attempt", attempt, "error", err)
			if !c.sleepBackoff(ctx, attempt) {
				return nil, false
			}
			continue
		}

		switch {
		case page.StatusCode >= 200 && page.StatusCode < 300:
			return page, true
		case page.StatusCode == 403 || page.StatusCode == 429 || page.StatusCode == 999:
			// Likely a block; retrying would make it worse.
			c.logger.Debug("fetch blocked", "url", rawURL, "status", page.StatusCode)
			return nil, false
		default:
			c.logger.Debug("fetch returned error status", "url", rawURL, "status", page.StatusCode, "attempt", attempt)
			if !c.sleepBackoff(ctx, attempt) {
				return nil, false
			}
		}
	}
	return nil, false
}

// sleepBackoff waits 2^attempt backoff units unless this was the final
// attempt. It returns false when the context is cancelled.
func (c *Crawler) sleepBackoff(ctx context.Context, attempt int) bool {
	if attempt >= c.maxRetries-1 {
		return true
	}
	timer := time.NewTimer(c.backoff << uint(attempt))
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// CrawlDomain fetches up to maxPages pages of one domain, homepage first,
// then the fixed priority paths, then contact links discovered on the
// homepage. Only same-domain, previously unvisited URLs are fetched; the
// candidate list is finite, so the crawl always terminates.
func (c *Crawler) CrawlDomain(ctx context.Context, baseURL string, maxPages int) []*types.Page {
	if maxPages <= 0 {
		return nil
	}

	if !strings.Contains(baseURL, "://") {
		baseURL = "https://" + baseURL
	}
	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return nil
	}

	visited := make(map[string]struct{})
	var pages []*types.Page

	candidates := make([]string, 0, len(priorityPaths)+8)
	for _, path := range priorityPaths {
		if ref, err := base.Parse(path); err == nil {
			candidates = append(candidates, ref.String())
		}
	}

	homepage, ok := c.FetchPage(ctx, base.String())
	if ok {
		pages = append(pages, homepage)
		visited[normalizeURL(homepage.FinalURL.String())] = struct{}{}
		visited[normalizeURL(base.String())] = struct{}{}

		candidates = append(candidates, FindContactLinks(homepage.Body, base)...)
	}

	for _, candidate := range candidates {
		if len(pages) >= maxPages {
			break
		}
		if ctx.Err() != nil {
			break
		}

		normalized := normalizeURL(candidate)
		if _, dup := visited[normalized]; dup {
			continue
		}
		candidateURL, err := url.Parse(normalized)
		if err != nil || !strings.EqualFold(candidateURL.Hostname(), base.Hostname()) {
			continue
		}

		page, ok := c.FetchPage(ctx, normalized)
		if !ok {
			visited[normalized] = struct{}{}
			continue
		}
		pages = append(pages, page)
		visited[normalized] = struct{}{}
	}

	return pages
}

// normalizeURL strips fragment, query, and trailing slash so URLs that
// differ only in those parts count as one page for visitation. The root
// path and the bare host collapse to the same key.
func normalizeURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	normalized := parsed.Scheme + "://" + parsed.Host + parsed.Path
	return strings.TrimSuffix(normalized, "/")
}
