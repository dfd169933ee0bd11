package extract

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// socialPlatforms maps platform names to href patterns. Slice order fixes
// evaluation order; the first matching link per platform wins.
var socialPlatforms = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{"linkedin", regexp.MustCompile(`linkedin\.com`)},
	{"facebook", regexp.MustCompile(`facebook\.com|fb\.com`)},
	{"twitter", regexp.MustCompile(`twitter\.com|x\.com`)},
	{"instagram", regexp.MustCompile(`instagram\.com`)},
}

// SocialLinkExtractor finds social media profile links in HTML.
type SocialLinkExtractor struct{}

// FromHTML resolves every anchor against base and returns the first match
// per platform. Later matches for an already-found platform are ignored.
func (SocialLinkExtractor) FromHTML(html []byte, base *url.URL) map[string]string {
	links := make(map[string]string)

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return links
	}

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		href = strings.ToLower(strings.TrimSpace(href))
		if href == "" {
			return
		}

		if base != nil && !strings.HasPrefix(href, "http") {
			if resolved, err := base.Parse(href); err == nil {
				href = strings.ToLower(resolved.String())
			}
		}

		for _, platform := range socialPlatforms {
			if !platform.pattern.MatchString(href) {
				continue
			}
			if _, found := links[platform.name]; !found {
				links[platform.name] = href
			}
			break
		}
	})

	return links
}
