package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// phonePatterns are applied in order: international, US-formatted, simple,
// and bare digit runs. Overlap between patterns is fine since candidates
// are deduplicated after normalisation.
var phonePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\+?\d{1,4}[-.\s]?\(?\d{1,4}\)?[-.\s]?\d{1,4}[-.\s]?\d{1,9}`),
	regexp.MustCompile(`\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`),
	regexp.MustCompile(`\d{3}[-.\s]?\d{3}[-.\s]?\d{4}`),
	regexp.MustCompile(`\d{10,}`),
}

var nonPhoneChars = regexp.MustCompile(`[^\d+]`)

// PhoneExtractor extracts and normalises phone numbers from text and HTML.
// The zero value uses the "US" default region.
type PhoneExtractor struct {
	DefaultRegion string
}

func (e PhoneExtractor) region() string {
	if e.DefaultRegion == "" {
		return "US"
	}
	return e.DefaultRegion
}

// FromText extracts phone number candidates from plain text. Matches keep
// their original formatting; candidates with fewer than ten digits are
// discarded. Order is first-seen, duplicates removed.
func (e PhoneExtractor) FromText(text string) []string {
	seen := make(map[string]struct{})
	var phones []string

	for _, pattern := range phonePatterns {
		for _, match := range pattern.FindAllString(text, -1) {
			cleaned := nonPhoneChars.ReplaceAllString(match, "")
			if len(strings.TrimPrefix(cleaned, "+")) < 10 {
				continue
			}
			if _, dup := seen[match]; dup {
				continue
			}
			seen[match] = struct{}{}
			phones = append(phones, match)
		}
	}
	return phones
}

// FromHTML extracts phone numbers from HTML, including tel: link targets.
func (e PhoneExtractor) FromHTML(html []byte) []string {
	seen := make(map[string]struct{})
	var phones []string

	for _, href := range anchorHrefs(html) {
		if !strings.HasPrefix(href, "tel:") {
			continue
		}
		phone := strings.TrimSpace(strings.TrimPrefix(href, "tel:"))
		if phone == "" {
			continue
		}
		if _, dup := seen[phone]; dup {
			continue
		}
		seen[phone] = struct{}{}
		phones = append(phones, phone)
	}

	for _, phone := range e.FromText(PageText(html)) {
		if _, dup := seen[phone]; dup {
			continue
		}
		seen[phone] = struct{}{}
		phones = append(phones, phone)
	}
	return phones
}

// Normalize converts a candidate to E.164. Numbers that fail parsing or
// validation are returned in cleaned form rather than dropped.
func (e PhoneExtractor) Normalize(phone string) string {
	cleaned := nonPhoneChars.ReplaceAllString(phone, "")
	if cleaned == "" {
		return strings.TrimSpace(phone)
	}

	parsed, err := phonenumbers.Parse(cleaned, e.region())
	if err != nil {
		return cleaned
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return cleaned
	}
	return phonenumbers.Format(parsed, phonenumbers.E164)
}

// DeduplicateAndNormalize normalises every candidate and returns the
// sorted unique values. Applying it twice yields the same output.
func (e PhoneExtractor) DeduplicateAndNormalize(phones []string) []string {
	unique := make(map[string]struct{}, len(phones))
	for _, phone := range phones {
		normalized := e.Normalize(phone)
		if normalized == "" {
			continue
		}
		unique[normalized] = struct{}{}
	}

	out := make([]string, 0, len(unique))
	for phone := range unique {
		out = append(out, phone)
	}
	sort.Strings(out)
	return out
}
