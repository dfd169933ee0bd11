package sources

import (
	"context"
	"testing"
)

func TestUnwrapDDGRedirect(t *testing.T) {
	redirect := "//duckduckgo.com/l/?uddg=https%3A%2F%2Facmewidgets.com%2F&rut=abc"
	if got := unwrapDDGRedirect(redirect); got != "https://acmewidgets.com/" {
		t.Fatalf("expected unwrapped URL, got %q", got)
	}
	if got := unwrapDDGRedirect("https://direct.example/"); got != "https://direct.example/" {
		t.Fatalf("expected direct URL passed through, got %q", got)
	}
}

func TestSearchParsesDuckDuckGoResults(t *testing.T) {
	ddg := `<html><body>
		<div class="result">
			<a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Facmewidgets.com%2F">Acme Widgets</a>
			<a class="result__snippet">Official site of Acme Widgets.</a>
		</div>
		<div class="result">
			<a class="result__a" href="https://www.linkedin.com/company/acme-widgets">Acme Widgets | LinkedIn</a>
		</div>
	</body></html>`

	searcher := NewWebSearcher(fakeFetcher{responses: map[string]fakeResponse{
		"html.duckduckgo.com": {body: ddg},
	}}, 5, discardLogger())

	results := searcher.Search(context.Background(), "Acme Widgets")
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].URL != "https://acmewidgets.com/" {
		t.Fatalf("expected redirect unwrapped, got %q", results[0].URL)
	}
	if results[0].Title != "Acme Widgets" {
		t.Fatalf("unexpected title %q", results[0].Title)
	}
}

func TestSearchFallsBackToBing(t *testing.T) {
	bing := `<html><body><ol>
		<li class="b_algo">
			<h2><a href="https://acmewidgets.com/">Acme Widgets</a></h2>
			<p>Official site.</p>
		</li>
	</ol></body></html>`

	searcher := NewWebSearcher(fakeFetcher{responses: map[string]fakeResponse{
		"html.duckduckgo.com": {body: "<html><body>blocked</body></html>"},
		"www.bing.com":        {body: bing},
	}}, 5, discardLogger())

	results := searcher.Search(context.Background(), "Acme Widgets")
	if len(results) != 1 {
		t.Fatalf("expected 1 bing result, got %d", len(results))
	}
	if results[0].URL != "https://acmewidgets.com/" {
		t.Fatalf("unexpected URL %q", results[0].URL)
	}
}

func TestSearchCapsResults(t *testing.T) {
	ddg := `<html><body>
		<div class="result"><a class="result__a" href="https://one.example/">One</a></div>
		<div class="result"><a class="result__a" href="https://two.example/">Two</a></div>
		<div class="result"><a class="result__a" href="https://three.example/">Three</a></div>
	</body></html>`

	searcher := NewWebSearcher(fakeFetcher{responses: map[string]fakeResponse{
		"html.duckduckgo.com": {body: ddg},
	}}, 2, discardLogger())

	if results := searcher.Search(context.Background(), "anything"); len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
}

func TestFindOfficialDomainPrefersMatchingDomain(t *testing.T) {
	searcher := NewWebSearcher(nil, 5, discardLogger())
	results := []SearchResult{
		{Title: "Acme Widgets | LinkedIn", URL: "https://www.linkedin.com/company/acme-widgets"},
		{Title: "Acme Widgets reviewed", URL: "https://blog.somereview.example/posts/acme-widgets"},
		{Title: "Acme Widgets - Home", URL: "https://acmewidgets.com/"},
	}

	if got := searcher.FindOfficialDomain("Acme Widgets", results); got != "https://acmewidgets.com/" {
		t.Fatalf("expected official domain, got %q", got)
	}
}

func TestFindOfficialDomainExcludesDirectories(t *testing.T) {
	searcher := NewWebSearcher(nil, 5, discardLogger())
	results := []SearchResult{
		{Title: "Acme on Yelp", URL: "https://www.yelp.com/biz/acme"},
		{Title: "Acme | LinkedIn", URL: "https://www.linkedin.com/company/acme"},
	}

	if got := searcher.FindOfficialDomain("Acme", results); got != "" {
		t.Fatalf("expected no candidate among directories, got %q", got)
	}
}

func TestFindOfficialDomainZeroScoreFallback(t *testing.T) {
	searcher := NewWebSearcher(nil, 5, discardLogger())
	results := []SearchResult{
		{Title: "Business directory", URL: "https://www.yellowpages.com/acme"},
		{Title: "Something unrelated", URL: "https://a.b.c.unrelated.example/deep/path"},
	}

	if got := searcher.FindOfficialDomain("Totally Different Name", results); got != "https://a.b.c.unrelated.example/deep/path" {
		t.Fatalf("expected first non-directory fallback, got %q", got)
	}
}
