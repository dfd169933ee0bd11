package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ByteCodeVikash/lead-scraper/pkg/types"
)

var csvHeader = []string{
	"original_input",
	"detected_input_type",
	"resolved_company_name",
	"resolved_website_url",
	"phone_numbers",
	"emails",
	"social_links",
	"data_sources",
	"extraction_status",
	"confidence_score",
	"notes",
}

// WriteCSV renders resolution results as a spreadsheet-friendly table.
// List columns are semicolon-joined; social links are platform=url pairs
// in sorted platform order.
func WriteCSV(w io.Writer, results []types.ResolutionResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, result := range results {
		social := make([]string, 0, len(result.SocialLinks))
		for _, platform := range result.SocialPlatforms() {
			social = append(social, platform+"="+result.SocialLinks[platform])
		}
		record := []string{
			result.OriginalInput,
			string(result.DetectedInputType),
			result.ResolvedCompanyName,
			result.ResolvedWebsiteURL,
			strings.Join(result.PhoneNumbers, ";"),
			strings.Join(result.Emails, ";"),
			strings.Join(social, ";"),
			strings.Join(result.Sources, ";"),
			string(result.ExtractionStatus),
			strconv.FormatFloat(result.ConfidenceScore, 'f', -1, 64),
			result.Notes,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
