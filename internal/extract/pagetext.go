package extract

import (
	"bytes"

	"github.com/PuerkitoBio/goquery"
)

// PageText returns the visible text of an HTML document with script, style,
// and noscript content removed, so the pattern extractors do not match
// inline JavaScript.
func PageText(html []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return string(html)
	}
	doc.Find("script, style, noscript").Remove()
	return doc.Text()
}

// anchorHrefs collects the href attribute of every anchor in the document.
func anchorHrefs(html []byte) []string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil
	}
	var hrefs []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			hrefs = append(hrefs, href)
		}
	})
	return hrefs
}
