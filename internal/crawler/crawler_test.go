package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ByteCodeVikash/lead-scraper/internal/fetcher"
)

func newTestCrawler(t *testing.T, maxRetries int) *Crawler {
	t.Helper()
	f, err := fetcher.NewHTTPFetcher(fetcher.Options{UserAgent: "test-bot/1.0"})
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	return New(Options{
		Fetcher:    f,
		MaxRetries: maxRetries,
		Backoff:    time.Millisecond,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestCrawlDomainBounded(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		fmt.Fprint(w, `<html><body><a href="/contact">Contact</a><a href="/about">About</a></body></html>`)
	}))
	defer server.Close()

	c := newTestCrawler(t, 1)

	pages := c.CrawlDomain(context.Background(), server.URL, 3)
	if len(pages) != 3 {
		t.Fatalf("expected exactly 3 pages, got %d", len(pages))
	}
	if got := requests.Load(); got != 3 {
		t.Fatalf("expected exactly 3 requests, got %d", got)
	}
}

func TestCrawlDomainStaysOnDomain(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
			<a href="https://elsewhere.invalid/contact">External contact</a>
			<a href="/team">Team</a>
		</body></html>`)
	}))
	defer server.Close()

	c := newTestCrawler(t, 1)

	pages := c.CrawlDomain(context.Background(), server.URL, 20)
	if len(pages) == 0 {
		t.Fatal("expected pages from the crawl")
	}
	for _, page := range pages {
		if page.FinalURL.Hostname() != "127.0.0.1" {
			t.Fatalf("crawled off-domain page %s", page.FinalURL)
		}
	}
}

func TestFetchPageBlockedStatusNotRetried(t *testing.T) {
	for _, status := range []int{http.StatusForbidden, http.StatusTooManyRequests, 999} {
		t.Run(fmt.Sprintf("status %d", status), func(t *testing.T) {
			var requests atomic.Int64
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				requests.Add(1)
				w.WriteHeader(status)
			}))
			defer server.Close()

			c := newTestCrawler(t, 3)

			if _, ok := c.FetchPage(context.Background(), server.URL); ok {
				t.Fatal("expected blocked fetch to fail")
			}
			if got := requests.Load(); got != 1 {
				t.Fatalf("expected a single request for %d, got %d", status, got)
			}
		})
	}
}

func TestFetchPageRetriesServerErrors(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, "<html><body>ok</body></html>")
	}))
	defer server.Close()

	c := newTestCrawler(t, 3)

	page, ok := c.FetchPage(context.Background(), server.URL)
	if !ok {
		t.Fatal("expected fetch to succeed after retries")
	}
	if page.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", page.StatusCode)
	}
	if got := requests.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestNormalizeURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://example.com/contact/?ref=1#team", "https://example.com/contact"},
		{"https://example.com/", "https://example.com"},
		{"https://example.com", "https://example.com"},
	}
	for _, tc := range cases {
		if got := normalizeURL(tc.in); got != tc.want {
			t.Fatalf("normalizeURL(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}
