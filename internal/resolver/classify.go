package resolver

import (
	"regexp"
	"strings"

	"github.com/ByteCodeVikash/lead-scraper/pkg/types"
)

var (
	schemePattern = regexp.MustCompile(`(?i)^https?://`)
	wwwPattern    = regexp.MustCompile(`(?i)^www\.`)
	tldPattern    = regexp.MustCompile(`(?i)\.(com|org|net|io|co|biz|info|edu|gov)(/|$)`)
)

// ClassifyInput decides whether an identifier is a website address or a
// company name. URL-like inputs are canonicalized: scheme forced to
// https when absent and a leading "www." dropped. Anything else is a
// company name and passes through trimmed but otherwise untouched.
func ClassifyInput(input string) (types.InputType, string) {
	trimmed := strings.TrimSpace(input)

	urlLike := schemePattern.MatchString(trimmed) ||
		wwwPattern.MatchString(trimmed) ||
		tldPattern.MatchString(trimmed)
	if !urlLike {
		return types.InputTypeName, trimmed
	}

	if !schemePattern.MatchString(trimmed) {
		trimmed = "https://" + strings.TrimPrefix(trimmed, "www.")
	}
	return types.InputTypeURL, trimmed
}
