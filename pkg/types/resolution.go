package types

import (
	"net/http"
	"net/url"
	"sort"
	"time"
)

// InputType classifies what kind of company identifier was submitted.
type InputType string

const (
	InputTypeURL  InputType = "url"
	InputTypeName InputType = "name"
)

// ExtractionStatus records which source (if any) produced contact data.
type ExtractionStatus string

const (
	StatusFoundOnWebsite   ExtractionStatus = "found_on_website"
	StatusFoundOnMaps      ExtractionStatus = "found_on_maps"
	StatusFoundOnLinkedIn  ExtractionStatus = "found_on_linkedin"
	StatusFoundOnDirectory ExtractionStatus = "found_on_directory"
	StatusNotFound         ExtractionStatus = "not_found"
	StatusFailed           ExtractionStatus = "failed"
	StatusCaptchaBlocked   ExtractionStatus = "captcha_blocked"
)

// FetchRequest models a single page retrieval.
type FetchRequest struct {
	URL    *url.URL
	Render bool
}

// Page represents the fetched content. The URL field is the requested URL,
// FinalURL the post-redirect one.
type Page struct {
	URL             *url.URL
	FinalURL        *url.URL
	Body            []byte
	ContentType     string
	StatusCode      int
	Headers         http.Header
	FetchedAt       time.Time
	Rendered        bool
	ResponseLatency time.Duration
}

// PageRef is the lightweight record of a crawled page kept on the result.
type PageRef struct {
	URL        string `json:"url"`
	StatusCode int    `json:"status_code"`
}

// ExtractionBundle accumulates raw contact candidates while sources are
// processed. Values are deduplicated only at the normalisation step.
type ExtractionBundle struct {
	Phones      []string
	Emails      []string
	SocialLinks map[string]string
	Sources     []string
}

// NewExtractionBundle returns an empty bundle ready for accumulation.
func NewExtractionBundle() *ExtractionBundle {
	return &ExtractionBundle{
		SocialLinks: make(map[string]string),
	}
}

// MergeSocial records a platform link unless one was already found.
// First seen wins.
func (b *ExtractionBundle) MergeSocial(platform, link string) {
	if platform == "" || link == "" {
		return
	}
	if _, ok := b.SocialLinks[platform]; !ok {
		b.SocialLinks[platform] = link
	}
}

// AddSource appends a contributing source name, once.
func (b *ExtractionBundle) AddSource(name string) {
	if name == "" {
		return
	}
	for _, existing := range b.Sources {
		if existing == name {
			return
		}
	}
	b.Sources = append(b.Sources, name)
}

// HasSource reports whether a source already contributed.
func (b *ExtractionBundle) HasSource(name string) bool {
	for _, existing := range b.Sources {
		if existing == name {
			return true
		}
	}
	return false
}

// ResolutionResult is the terminal outcome of resolving one company
// identifier. It is created once per input and never mutated after return.
type ResolutionResult struct {
	OriginalInput       string            `json:"original_input"`
	DetectedInputType   InputType         `json:"detected_input_type"`
	ResolvedCompanyName string            `json:"resolved_company_name,omitempty"`
	ResolvedWebsiteURL  string            `json:"resolved_website_url,omitempty"`
	PhoneNumbers        []string          `json:"phone_numbers"`
	Emails              []string          `json:"emails"`
	SocialLinks         map[string]string `json:"social_links,omitempty"`
	Sources             []string          `json:"data_sources,omitempty"`
	ExtractionStatus    ExtractionStatus  `json:"extraction_status"`
	ConfidenceScore     float64           `json:"confidence_score"`
	Notes               string            `json:"notes,omitempty"`
	PageRefs            []PageRef         `json:"raw_page_refs,omitempty"`
}

// SocialPlatforms lists the platforms of a result in stable order.
func (r ResolutionResult) SocialPlatforms() []string {
	platforms := make([]string, 0, len(r.SocialLinks))
	for platform := range r.SocialLinks {
		platforms = append(platforms, platform)
	}
	sort.Strings(platforms)
	return platforms
}
