package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/ByteCodeVikash/lead-scraper/internal/config"
	"github.com/ByteCodeVikash/lead-scraper/internal/crawler"
	"github.com/ByteCodeVikash/lead-scraper/internal/extract"
	"github.com/ByteCodeVikash/lead-scraper/internal/fetcher"
	"github.com/ByteCodeVikash/lead-scraper/internal/robots"
	"github.com/ByteCodeVikash/lead-scraper/internal/sources"
	"github.com/ByteCodeVikash/lead-scraper/pkg/types"
)

// domainCrawler is the slice of crawler.Crawler the resolver depends on.
type domainCrawler interface {
	CrawlDomain(ctx context.Context, baseURL string, maxPages int) []*types.Page
}

// websiteSearcher resolves a company name to candidate websites.
type websiteSearcher interface {
	Search(ctx context.Context, companyName string) []sources.SearchResult
	FindOfficialDomain(companyName string, results []sources.SearchResult) string
}

// Resolver turns one company identifier into a ResolutionResult. It owns
// its crawler session state (robots cache, rate-limiter timestamps), so
// resolutions built from separate Resolvers are fully independent; one
// Resolver may also be shared across concurrent resolutions since all of
// that state is mutex-guarded.
type Resolver struct {
	crawler   domainCrawler
	searcher  websiteSearcher
	fallbacks []sources.Source

	phones extract.PhoneExtractor
	emails extract.EmailExtractor
	social extract.SocialLinkExtractor

	maxPages int
	logger   *slog.Logger
}

// Option customises a Resolver, mostly for tests.
type Option func(*Resolver)

// WithCrawler replaces the domain crawler.
func WithCrawler(c domainCrawler) Option {
	return func(r *Resolver) { r.crawler = c }
}

// WithSearcher replaces the web searcher.
func WithSearcher(s websiteSearcher) Option {
	return func(r *Resolver) { r.searcher = s }
}

// WithFallbacks replaces the secondary source chain. Order is preserved.
func WithFallbacks(srcs ...sources.Source) Option {
	return func(r *Resolver) { r.fallbacks = srcs }
}

// New wires a resolver from configuration: a bot-identified fetcher for
// the site crawl, a browser-identified one for the secondary sources, a
// robots agent sharing the crawl client, and the per-domain limiter.
func New(cfg config.Config, logger *slog.Logger, opts ...Option) (*Resolver, error) {
	if logger == nil {
		logger = slog.Default()
	}

	crawlFetcher, err := fetcher.NewHTTPFetcher(fetcher.Options{
		UserAgent:    cfg.Fetch.UserAgent,
		Headers:      cfg.Fetch.Headers,
		Timeout:      cfg.Resolve.FetchTimeout.Duration,
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
		ProxyURL:     cfg.Fetch.ProxyURL,
	})
	if err != nil {
		return nil, fmt.Errorf("crawl fetcher: %w", err)
	}

	browserAgent := cfg.Fetch.BrowserAgent
	if browserAgent == "" {
		browserAgent = cfg.Fetch.UserAgent
	}
	sourceFetcher, err := fetcher.NewHTTPFetcher(fetcher.Options{
		UserAgent:    browserAgent,
		Timeout:      cfg.Resolve.FetchTimeout.Duration,
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
		ProxyURL:     cfg.Fetch.ProxyURL,
	})
	if err != nil {
		return nil, fmt.Errorf("source fetcher: %w", err)
	}

	var crawlPipeline fetcher.Fetcher = crawlFetcher
	if cfg.Rendering.Enabled {
		renderer := fetcher.NewChromedpRenderer(fetcher.RenderOptions{
			Timeout:            cfg.Rendering.Timeout.Duration,
			WaitForSelector:    cfg.Rendering.WaitForSelector,
			UserAgent:          cfg.Fetch.UserAgent,
			MaxBodyBytes:       cfg.Fetch.MaxBodyBytes,
			DisableHeadless:    cfg.Rendering.DisableHeadless,
			ConcurrentSessions: cfg.Rendering.ConcurrentSessions,
		})
		crawlPipeline = fetcher.NewComposite(crawlFetcher, renderer)
	}

	agent := robots.NewAgent(cfg.Robots, crawlFetcher.Client())
	limiter := crawler.NewDomainLimiter(cfg.Resolve.RateLimit.Duration, crawler.RateLimiterSettings{
		Requests: cfg.Resolve.RateLimitPerDomain.Requests,
		Window:   cfg.Resolve.RateLimitPerDomain.Window.Duration,
	})

	r := &Resolver{
		crawler: crawler.New(crawler.Options{
			Fetcher:       crawlPipeline,
			Robots:        agent,
			Limiter:       limiter,
			RespectRobots: cfg.Robots.Respect,
			MaxRetries:    cfg.Resolve.MaxRetries,
			Render:        cfg.Rendering.Enabled,
			Logger:        logger,
		}),
		searcher: sources.NewWebSearcher(sourceFetcher, cfg.Resolve.SearchMaxResults, logger),
		phones:   extract.PhoneExtractor{DefaultRegion: cfg.Resolve.DefaultRegion},
		maxPages: cfg.Resolve.MaxPagesPerDomain,
		logger:   logger,
	}

	// Fallback order is fixed: maps, then linkedin, then directories.
	if cfg.SourceEnabled("google_maps") {
		r.fallbacks = append(r.fallbacks, sources.NewMapsScraper(sourceFetcher, logger))
	}
	if cfg.SourceEnabled("linkedin") {
		r.fallbacks = append(r.fallbacks, sources.NewLinkedInScraper(sourceFetcher, logger))
	}
	if cfg.SourceEnabled("directories") {
		r.fallbacks = append(r.fallbacks, sources.NewDirectoryScraper(sourceFetcher, logger))
	}

	for _, opt := range opts {
		opt(r)
	}
	if r.maxPages <= 0 {
		r.maxPages = 10
	}
	return r, nil
}

// Resolve processes one company identifier. It never returns an error:
// every failure mode is encoded in the result's status and notes, and
// partial data gathered before a failure is kept.
func (r *Resolver) Resolve(ctx context.Context, input string) (result types.ResolutionResult) {
	result = types.ResolutionResult{
		OriginalInput:    strings.TrimSpace(input),
		ExtractionStatus: types.StatusNotFound,
		PhoneNumbers:     []string{},
		Emails:           []string{},
	}
	bundle := types.NewExtractionBundle()
	var notes strings.Builder

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("resolution panicked", "input", input, "error", rec)
			r.finalize(&result, bundle, 0, 0)
			result.ExtractionStatus = types.StatusFailed
			result.ConfidenceScore = 0
			notes.WriteString(fmt.Sprintf("Error: %v", rec))
			result.Notes = notes.String()
		}
	}()

	attempted, blocked := r.run(ctx, &result, bundle, &notes)
	r.finalize(&result, bundle, attempted, blocked)
	result.Notes = notes.String()
	return result
}

// run walks the resolution states: classify, resolve website, crawl,
// fallbacks. It returns how many fallback sources were attempted and how
// many of those reported an anti-bot block.
func (r *Resolver) run(ctx context.Context, result *types.ResolutionResult, bundle *types.ExtractionBundle, notes *strings.Builder) (attempted, blocked int) {
	inputType, normalized := ClassifyInput(result.OriginalInput)
	result.DetectedInputType = inputType

	var websiteURL string
	switch inputType {
	case types.InputTypeURL:
		websiteURL = normalized
		result.ResolvedWebsiteURL = websiteURL
		result.ResolvedCompanyName = companyNameFromURL(websiteURL)
	default:
		result.ResolvedCompanyName = normalized
		if found := r.searcher.FindOfficialDomain(normalized, r.searcher.Search(ctx, normalized)); found != "" {
			websiteURL = found
			result.ResolvedWebsiteURL = websiteURL
			notes.WriteString("Found via web search. ")
		}
	}

	if websiteURL != "" {
		r.crawlWebsite(ctx, websiteURL, result, bundle)
	}

	if len(bundle.Phones) > 0 || len(bundle.Emails) > 0 || result.ResolvedCompanyName == "" {
		return 0, 0
	}

	for _, source := range r.fallbacks {
		if ctx.Err() != nil {
			break
		}
		attempted++
		lookup := source.Lookup(ctx, result.ResolvedCompanyName)
		switch lookup.Outcome {
		case sources.OutcomeBlocked:
			blocked++
			r.logger.Debug("fallback source blocked", "source", source.Name(), "company", result.ResolvedCompanyName)
		case sources.OutcomeFound:
			r.applyFallback(source.Name(), lookup, result, bundle, notes)
		}
	}
	return attempted, blocked
}

// crawlWebsite runs the prioritized domain crawl and all three extractors
// over every fetched page. The website counts as a contributing source
// only when it actually yielded contact data.
func (r *Resolver) crawlWebsite(ctx context.Context, websiteURL string, result *types.ResolutionResult, bundle *types.ExtractionBundle) {
	pages := r.crawler.CrawlDomain(ctx, websiteURL, r.maxPages)

	found := false
	for _, page := range pages {
		result.PageRefs = append(result.PageRefs, types.PageRef{
			URL:        page.FinalURL.String(),
			StatusCode: page.StatusCode,
		})

		phones := r.phones.FromHTML(page.Body)
		emails := r.emails.FromHTML(page.Body)
		social := r.social.FromHTML(page.Body, page.FinalURL)

		bundle.Phones = append(bundle.Phones, phones...)
		bundle.Emails = append(bundle.Emails, emails...)
		for _, platform := range []string{"linkedin", "facebook", "twitter", "instagram"} {
			if link, ok := social[platform]; ok {
				bundle.MergeSocial(platform, link)
			}
		}
		if len(phones) > 0 || len(emails) > 0 || len(social) > 0 {
			found = true
		}
	}
	if found {
		bundle.AddSource("website")
	}
}

// applyFallback merges one successful secondary lookup into the bundle.
// A website contributed by a fallback never overwrites one resolved by a
// higher-priority step.
func (r *Resolver) applyFallback(sourceName string, lookup sources.Result, result *types.ResolutionResult, bundle *types.ExtractionBundle, notes *strings.Builder) {
	if lookup.Phone != "" {
		bundle.Phones = append(bundle.Phones, lookup.Phone)
	}
	if lookup.Website != "" && result.ResolvedWebsiteURL == "" {
		result.ResolvedWebsiteURL = lookup.Website
	}
	if lookup.LinkedInURL != "" {
		bundle.MergeSocial("linkedin", lookup.LinkedInURL)
	}
	for _, name := range lookup.Names {
		bundle.AddSource(name)
	}

	switch sourceName {
	case "google_maps":
		notes.WriteString("Found on Google Maps. ")
	case "linkedin":
		notes.WriteString("Found on LinkedIn. ")
	case "directories":
		if len(lookup.Names) > 0 {
			notes.WriteString("Found in directories: " + strings.Join(lookup.Names, ", ") + ". ")
		}
	}
}

// finalize runs the extractors' deduplicate-and-normalize pass over the
// accumulated raw lists and derives status and confidence.
func (r *Resolver) finalize(result *types.ResolutionResult, bundle *types.ExtractionBundle, attempted, blocked int) {
	result.PhoneNumbers = r.phones.DeduplicateAndNormalize(bundle.Phones)
	result.Emails = r.emails.DeduplicateAndNormalize(bundle.Emails)
	if len(bundle.SocialLinks) > 0 {
		result.SocialLinks = bundle.SocialLinks
	}
	result.Sources = bundle.Sources

	status, score := scoreResult(result, attempted, blocked)
	result.ExtractionStatus = status
	result.ConfidenceScore = score
}

// scoreResult derives status and confidence from the highest-priority
// contributing source, with completeness bonuses capped at 100. When
// nothing was extracted and every attempted fallback was anti-bot
// blocked, the status is captcha_blocked rather than not_found.
func scoreResult(result *types.ResolutionResult, attempted, blocked int) (types.ExtractionStatus, float64) {
	if len(result.PhoneNumbers) == 0 && len(result.Emails) == 0 {
		if attempted > 0 && blocked == attempted {
			return types.StatusCaptchaBlocked, 0
		}
		return types.StatusNotFound, 0
	}

	var status types.ExtractionStatus
	var score float64
	switch {
	case hasSource(result.Sources, "website"):
		status, score = types.StatusFoundOnWebsite, 80
	case hasSource(result.Sources, "google_maps"):
		status, score = types.StatusFoundOnMaps, 60
	case hasSource(result.Sources, "linkedin"):
		status, score = types.StatusFoundOnLinkedIn, 50
	case hasSource(result.Sources, "yellowpages") || hasSource(result.Sources, "yelp"):
		status, score = types.StatusFoundOnDirectory, 40
	default:
		return types.StatusNotFound, 0
	}

	if len(result.PhoneNumbers) > 0 {
		score += 10
	}
	if len(result.Emails) > 0 {
		score += 10
	}
	if len(result.SocialLinks) > 0 {
		score += 5
	}
	if score > 100 {
		score = 100
	}
	return status, score
}

func hasSource(sources []string, name string) bool {
	for _, src := range sources {
		if src == name {
			return true
		}
	}
	return false
}

// companyNameFromURL derives a provisional company name from the
// registrable-domain label: "https://acme-widgets.com" becomes
// "Acme-Widgets".
func companyNameFromURL(websiteURL string) string {
	parsed, err := url.Parse(websiteURL)
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	label := strings.Split(host, ".")[0]
	return titleCase(label)
}

func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if r >= 'a' && r <= 'z' && !prevLetter {
			r -= 'a' - 'A'
		}
		prevLetter = (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		b.WriteRune(r)
	}
	return b.String()
}
