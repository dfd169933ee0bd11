package extract

import (
	"net/mail"
	"regexp"
	"sort"
	"strings"
)

var emailPattern = regexp.MustCompile(`(?i)\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

// obfuscationPatterns undo the common evasions people use to hide
// addresses from harvesters: "[at]/[dot]", "(at)/(dot)", and spaced-out
// separators.
var obfuscationPatterns = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`(?i)(\w+)\s*\[at\]\s*(\w+)\s*\[dot\]\s*(\w+)`), `$1@$2.$3`},
	{regexp.MustCompile(`(?i)(\w+)\s*\(at\)\s*(\w+)\s*\(dot\)\s*(\w+)`), `$1@$2.$3`},
	{regexp.MustCompile(`(\w+)\s*@\s*(\w+)\s*\.\s*(\w+)`), `$1@$2.$3`},
}

// EmailExtractor extracts and normalises email addresses from text and
// HTML.
type EmailExtractor struct{}

// Deobfuscate rewrites obfuscated addresses into plain ones.
func (EmailExtractor) Deobfuscate(text string) string {
	result := text
	for _, o := range obfuscationPatterns {
		result = o.pattern.ReplaceAllString(result, o.replacement)
	}
	return result
}

// FromText extracts email addresses from plain text, de-obfuscating
// first. Order is first-seen, duplicates removed.
func (e EmailExtractor) FromText(text string) []string {
	deobfuscated := e.Deobfuscate(text)

	seen := make(map[string]struct{})
	var emails []string
	for _, match := range emailPattern.FindAllString(deobfuscated, -1) {
		if _, dup := seen[match]; dup {
			continue
		}
		seen[match] = struct{}{}
		emails = append(emails, match)
	}
	return emails
}

// FromHTML extracts email addresses from HTML, including mailto: link
// targets (with any ?subject=... query stripped).
func (e EmailExtractor) FromHTML(html []byte) []string {
	seen := make(map[string]struct{})
	var emails []string

	for _, href := range anchorHrefs(html) {
		if !strings.HasPrefix(href, "mailto:") {
			continue
		}
		address := strings.TrimSpace(strings.TrimPrefix(href, "mailto:"))
		if i := strings.Index(address, "?"); i >= 0 {
			address = address[:i]
		}
		if address == "" {
			continue
		}
		if _, dup := seen[address]; dup {
			continue
		}
		seen[address] = struct{}{}
		emails = append(emails, address)
	}

	for _, address := range e.FromText(PageText(html)) {
		if _, dup := seen[address]; dup {
			continue
		}
		seen[address] = struct{}{}
		emails = append(emails, address)
	}
	return emails
}

// Normalize lowercases and validates an address. Addresses that fail
// RFC 5322 parsing are retained lowercased rather than dropped.
func (EmailExtractor) Normalize(email string) string {
	trimmed := strings.TrimSpace(email)
	parsed, err := mail.ParseAddress(trimmed)
	if err != nil {
		return strings.ToLower(trimmed)
	}
	return strings.ToLower(parsed.Address)
}

// DeduplicateAndNormalize normalises every candidate, keeps only values
// containing an @, and returns the sorted unique list. Idempotent.
func (e EmailExtractor) DeduplicateAndNormalize(emails []string) []string {
	unique := make(map[string]struct{}, len(emails))
	for _, email := range emails {
		normalized := e.Normalize(email)
		if normalized == "" || !strings.Contains(normalized, "@") {
			continue
		}
		unique[normalized] = struct{}{}
	}

	out := make([]string, 0, len(unique))
	for email := range unique {
		out = append(out, email)
	}
	sort.Strings(out)
	return out
}
