package crawler

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// contactKeywords classify a link as contact-relevant. Matching is used
// only to prioritise crawl targets, never to gate extraction.
var contactKeywords = []string{
	"contact", "about", "team", "staff", "people",
	"connect", "reach", "get-in-touch", "support",
	"help", "office", "location", "address",
}

// IsContactPage reports whether a URL or its link text suggests a contact
// page.
func IsContactPage(pageURL, text string) bool {
	haystack := strings.ToLower(pageURL + " " + text)
	for _, keyword := range contactKeywords {
		if strings.Contains(haystack, keyword) {
			return true
		}
	}
	return false
}

// FindContactLinks scans anchors in HTML for contact-page candidates on the
// same host as base. Results are absolute URLs in first-seen order.
func FindContactLinks(html []byte, base *url.URL) []string {
	if len(html) == 0 || base == nil {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil
	}

	seen := make(map[string]struct{})
	var links []string

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "javascript:") ||
			strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") {
			return
		}

		resolved, err := base.Parse(href)
		if err != nil {
			return
		}
		if !strings.EqualFold(resolved.Hostname(), base.Hostname()) {
			return
		}

		text := strings.TrimSpace(s.Text())
		absolute := resolved.String()
		if !IsContactPage(absolute, text) {
			return
		}
		if _, dup := seen[absolute]; dup {
			return
		}
		seen[absolute] = struct{}{}
		links = append(links, absolute)
	})

	return links
}
