package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/ByteCodeVikash/lead-scraper/pkg/types"
)

func TestWriteCSV(t *testing.T) {
	results := []types.ResolutionResult{
		{
			OriginalInput:       "Acme Widgets",
			DetectedInputType:   types.InputTypeName,
			ResolvedCompanyName: "Acme Widgets",
			ResolvedWebsiteURL:  "https://acmewidgets.com",
			PhoneNumbers:        []string{"+16502530000", "+16502530001"},
			Emails:              []string{"info@acmewidgets.com"},
			SocialLinks: map[string]string{
				"twitter":  "https://twitter.com/acme",
				"linkedin": "https://linkedin.com/company/acme",
			},
			Sources:          []string{"website"},
			ExtractionStatus: types.StatusFoundOnWebsite,
			ConfidenceScore:  100,
		},
		{
			OriginalInput:    "Ghost Co",
			ExtractionStatus: types.StatusNotFound,
		},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, results); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(records))
	}
	if records[0][0] != "original_input" {
		t.Fatalf("unexpected header %v", records[0])
	}

	row := records[1]
	if row[4] != "+16502530000;+16502530001" {
		t.Fatalf("unexpected phones column %q", row[4])
	}
	if row[6] != "linkedin=https://linkedin.com/company/acme;twitter=https://twitter.com/acme" {
		t.Fatalf("expected platforms in sorted order, got %q", row[6])
	}
	if row[9] != "100" {
		t.Fatalf("unexpected confidence column %q", row[9])
	}
}
