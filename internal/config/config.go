package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// KnownSources enumerates the secondary lookup sources that can be enabled.
var KnownSources = []string{"google_maps", "linkedin", "directories"}

// Config captures the full configuration required to run the resolver.
type Config struct {
	Resolve   ResolveConfig   `yaml:"resolve"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Robots    RobotsConfig    `yaml:"robots"`
	Rendering RenderingConfig `yaml:"rendering"`
	DB        SQLConfig       `yaml:"db"`
	API       APIConfig       `yaml:"api"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ResolveConfig controls the crawl budget and fallback behaviour of a
// single company resolution.
type ResolveConfig struct {
	RateLimit          Duration        `yaml:"rate_limit"`
	RateLimitPerDomain RateLimitConfig `yaml:"rate_limit_per_domain"`
	MaxRetries         int             `yaml:"max_retries"`
	FetchTimeout       Duration        `yaml:"fetch_timeout"`
	MaxPagesPerDomain  int             `yaml:"max_pages_per_domain"`
	EnabledSources     []string        `yaml:"enabled_sources"`
	DefaultRegion      string          `yaml:"default_region"`
	SearchMaxResults   int             `yaml:"search_max_results"`
}

// FetchConfig controls the HTTP client shared by crawler and sources.
type FetchConfig struct {
	UserAgent      string            `yaml:"user_agent"`
	BrowserAgent   string            `yaml:"browser_agent"`
	Headers        map[string]string `yaml:"headers"`
	ProxyURL       string            `yaml:"proxy_url"`
	MaxBodyBytes   int64             `yaml:"max_body_bytes"`
	RequestTimeout Duration          `yaml:"request_timeout"`
}

// RateLimitConfig applies an optional token bucket per domain on top of the
// minimum-interval throttle.
type RateLimitConfig struct {
	Requests int      `yaml:"requests"`
	Window   Duration `yaml:"window"`
}

// Enabled reports whether per-domain token-bucket limiting is active.
func (r RateLimitConfig) Enabled() bool {
	return r.Requests > 0 && !r.Window.IsZero()
}

// RobotsConfig configures robots.txt handling.
type RobotsConfig struct {
	Respect   bool     `yaml:"respect"`
	Overrides []string `yaml:"overrides"`
	UserAgent string   `yaml:"user_agent"`
	CacheTTL  Duration `yaml:"cache_ttl"`
}

// RenderingConfig controls optional JavaScript rendering.
type RenderingConfig struct {
	Enabled            bool     `yaml:"enabled"`
	Timeout            Duration `yaml:"timeout"`
	WaitForSelector    string   `yaml:"wait_for_selector"`
	ConcurrentSessions int      `yaml:"concurrent_sessions"`
	DisableHeadless    bool     `yaml:"disable_headless"`
}

// SQLConfig describes the optional relational database used to persist
// finished resolution results.
type SQLConfig struct {
	Driver          string   `yaml:"driver"`
	DSN             string   `yaml:"dsn"`
	MaxOpenConns    int      `yaml:"max_open_conns"`
	MaxIdleConns    int      `yaml:"max_idle_conns"`
	ConnMaxLifetime Duration `yaml:"conn_max_lifetime"`
	AutoMigrate     bool     `yaml:"auto_migrate"`
	CreateIfMissing bool     `yaml:"create_if_missing"`
}

// APIConfig sizes the job layer.
type APIConfig struct {
	MaxConcurrentJobs int `yaml:"max_concurrent_jobs"`
	JobConcurrency    int `yaml:"job_concurrency"`
}

// LoggingConfig selects log verbosity and format.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Structured bool   `yaml:"structured"`
}

// Default returns a Config populated with sensible defaults.
func Default() Config {
	return Config{
		Resolve: ResolveConfig{
			RateLimit:         DurationFrom(2 * time.Second),
			MaxRetries:        3,
			FetchTimeout:      DurationFrom(30 * time.Second),
			MaxPagesPerDomain: 10,
			EnabledSources:    append([]string(nil), KnownSources...),
			DefaultRegion:     "US",
			SearchMaxResults:  5,
		},
		Fetch: FetchConfig{
			UserAgent:      "lead-scraper-bot/1.0",
			BrowserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
			Headers:        map[string]string{},
			MaxBodyBytes:   6 * 1024 * 1024,
			RequestTimeout: DurationFrom(30 * time.Second),
		},
		Robots: RobotsConfig{
			Respect:   true,
			Overrides: []string{},
			UserAgent: "lead-scraper-bot/1.0",
			CacheTTL:  DurationFrom(6 * time.Hour),
		},
		Rendering: RenderingConfig{
			Enabled:            false,
			Timeout:            DurationFrom(15 * time.Second),
			ConcurrentSessions: 2,
		},
		DB: SQLConfig{
			AutoMigrate: true,
		},
		API: APIConfig{
			MaxConcurrentJobs: 5,
			JobConcurrency:    5,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Structured: true,
		},
	}
}

// Load reads, merges, and validates configuration from a YAML file.
func Load(path string) (*Config, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer fh.Close()
	return LoadFromReader(fh)
}

// LoadFromReader decodes configuration from an arbitrary reader.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalise()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces required invariants for the resolver configuration.
func (c Config) Validate() error {
	if c.Resolve.RateLimit.Duration < 0 {
		return errors.New("resolve.rate_limit must be >= 0")
	}
	if c.Resolve.MaxRetries <= 0 {
		return fmt.Errorf("resolve.max_retries must be > 0 (got %d)", c.Resolve.MaxRetries)
	}
	if c.Resolve.MaxPagesPerDomain <= 0 {
		return fmt.Errorf("resolve.max_pages_per_domain must be > 0 (got %d)", c.Resolve.MaxPagesPerDomain)
	}
	if c.Resolve.SearchMaxResults <= 0 {
		return fmt.Errorf("resolve.search_max_results must be > 0 (got %d)", c.Resolve.SearchMaxResults)
	}
	if rl := c.Resolve.RateLimitPerDomain; rl.Requests < 0 {
		return fmt.Errorf("resolve.rate_limit_per_domain.requests must be >= 0 (got %d)", rl.Requests)
	}
	for _, src := range c.Resolve.EnabledSources {
		if !knownSource(src) {
			return fmt.Errorf("unknown source %q in resolve.enabled_sources", src)
		}
	}
	if strings.TrimSpace(c.Fetch.UserAgent) == "" {
		return errors.New("fetch.user_agent must be set")
	}
	if c.Fetch.MaxBodyBytes <= 0 {
		return fmt.Errorf("fetch.max_body_bytes must be > 0 (got %d)", c.Fetch.MaxBodyBytes)
	}
	if strings.TrimSpace(c.Robots.UserAgent) == "" {
		return errors.New("robots.user_agent must be set")
	}
	if c.API.MaxConcurrentJobs <= 0 {
		return fmt.Errorf("api.max_concurrent_jobs must be > 0 (got %d)", c.API.MaxConcurrentJobs)
	}
	if c.API.JobConcurrency <= 0 {
		return fmt.Errorf("api.job_concurrency must be > 0 (got %d)", c.API.JobConcurrency)
	}
	return nil
}

// SourceEnabled reports whether a secondary source is switched on.
func (c Config) SourceEnabled(name string) bool {
	for _, src := range c.Resolve.EnabledSources {
		if src == name {
			return true
		}
	}
	return false
}

func (c *Config) normalise() {
	c.Fetch.UserAgent = strings.TrimSpace(c.Fetch.UserAgent)
	c.Fetch.BrowserAgent = strings.TrimSpace(c.Fetch.BrowserAgent)
	c.Fetch.ProxyURL = strings.TrimSpace(c.Fetch.ProxyURL)
	c.Robots.UserAgent = strings.TrimSpace(c.Robots.UserAgent)
	c.Resolve.DefaultRegion = strings.ToUpper(strings.TrimSpace(c.Resolve.DefaultRegion))
	if c.Resolve.DefaultRegion == "" {
		c.Resolve.DefaultRegion = "US"
	}
	if len(c.Resolve.EnabledSources) > 0 {
		c.Resolve.EnabledSources = dedupeLower(c.Resolve.EnabledSources)
	}
	if len(c.Robots.Overrides) > 0 {
		c.Robots.Overrides = dedupeLower(c.Robots.Overrides)
	}
}

func knownSource(name string) bool {
	for _, src := range KnownSources {
		if src == name {
			return true
		}
	}
	return false
}

func dedupeLower(values []string) []string {
	unique := make(map[string]struct{}, len(values))
	cleaned := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, ok := unique[v]; ok {
			continue
		}
		unique[v] = struct{}{}
		cleaned = append(cleaned, v)
	}
	sort.Strings(cleaned)
	return cleaned
}
