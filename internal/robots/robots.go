package robots

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"

	"github.com/ByteCodeVikash/lead-scraper/internal/config"
)

// Agent evaluates robots.txt rules with caching and host overrides. Lookups
// fail open: if robots.txt cannot be fetched or parsed, crawling is allowed
// rather than making the whole resolution unusable. A host whose robots.txt
// is absent or unfetchable is cached with an allow-all sentinel so the
// lookup is not repeated on every page.
type Agent struct {
	client    *http.Client
	userAgent string
	ttl       time.Duration
	respect   bool

	mu        sync.RWMutex
	cache     map[string]cacheEntry
	overrides map[string]struct{}
}

// Cache entries are keyed by scheme://host so http and https policies are
// tracked independently. A nil rules pointer is the allow-all sentinel.
type cacheEntry struct {
	fetched time.Time
	rules   *robotstxt.RobotsData
}

// Robots lookups gate every page fetch, so they run on a short timeout
// even when the caller's client carries a larger crawl budget.
const fetchTimeout = 10 * time.Second

// NewAgent constructs a robots agent from configuration.
func NewAgent(cfg config.RobotsConfig, client *http.Client) *Agent {
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	} else if client.Timeout == 0 || client.Timeout > fetchTimeout {
		capped := *client
		capped.Timeout = fetchTimeout
		client = &capped
	}

	ttl := cfg.CacheTTL.Duration
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}

	overrides := make(map[string]struct{}, len(cfg.Overrides))
	for _, host := range cfg.Overrides {
		host = strings.ToLower(strings.TrimSpace(host))
		if host == "" {
			continue
		}
		overrides[host] = struct{}{}
	}

	return &Agent{
		client:    client,
		userAgent: cfg.UserAgent,
		ttl:       ttl,
		respect:   cfg.Respect,
		cache:     make(map[string]cacheEntry),
		overrides: overrides,
	}
}

// Allowed reports whether the target URL is permitted for this agent's
// user agent.
func (a *Agent) Allowed(ctx context.Context, target *url.URL) bool {
	if target == nil || !target.IsAbs() {
		return false
	}
	if !a.respect {
		return true
	}

	host := strings.ToLower(target.Hostname())
	if _, ok := a.overrides[host]; ok {
		return true
	}

	rules := a.rules(ctx, target)
	if rules == nil {
		return true
	}

	group := rules.FindGroup(a.userAgent)
	if group == nil {
		group = rules.FindGroup("*")
		if group == nil {
			return true
		}
	}
	return group.Test(target.Path)
}

// rules returns the cached policy for the target's scheme://host, fetching
// it on first use. A nil return means allow-all.
func (a *Agent) rules(ctx context.Context, target *url.URL) *robotstxt.RobotsData {
	key := strings.ToLower(target.Scheme + "://" + target.Host)

	a.mu.RLock()
	entry, ok := a.cache[key]
	if ok && time.Since(entry.fetched) < a.ttl {
		a.mu.RUnlock()
		return entry.rules
	}
	a.mu.RUnlock()

	rules, err := a.fetch(ctx, target)
	if err != nil {
		rules = nil
	}

	a.mu.Lock()
	a.cache[key] = cacheEntry{fetched: time.Now(), rules: rules}
	a.mu.Unlock()

	return rules
}

func (a *Agent) fetch(ctx context.Context, target *url.URL) (*robotstxt.RobotsData, error) {
	robotsURL := target.Scheme + "://" + target.Host + "/robots.txt"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build robots request: %w", err)
	}
	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("robots returned status %d", resp.StatusCode)
	}

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}
	return data, nil
}

// Purge evicts cached robots rules for a scheme://host key.
func (a *Agent) Purge(key string) {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return
	}
	a.mu.Lock()
	delete(a.cache, key)
	a.mu.Unlock()
}
