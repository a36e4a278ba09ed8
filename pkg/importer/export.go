package importer

import (
	"strings"
	"time"
)

// Export is a catalogue export. Records reference each other by their
// notion_id, which has no meaning outside the file.
type Export struct {
	ExportedAt string            `json:"exported_at"`
	Genders    []ExportReference `json:"genders"`
	Formats    []ExportReference `json:"formats"`
	Authors    []ExportAuthor    `json:"authors"`
	Series     []ExportSeries    `json:"series"`
	Books      []ExportBook      `json:"books"`
}

type ExportReference struct {
	NotionID string `json:"notion_id"`
	Name     string `json:"name"`
}

type ExportAuthor struct {
	NotionID        string  `json:"notion_id"`
	Name            string  `json:"name"`
	Pronouns        *string `json:"pronouns"`
	GenderNotionID  *string `json:"gender_notion_id"`
	GoodreadsURL    *string `json:"goodreads_url"`
	AmazonURL       *string `json:"amazon_url"`
	StorygraphURL   *string `json:"storygraph_url"`
	Website         *string `json:"website"`
	AliasOfNotionID *string `json:"alias_of_notion_id"`
}

type ExportSeries struct {
	NotionID       string   `json:"notion_id"`
	Name           string   `json:"name"`
	NumberInSeries *float64 `json:"number_in_series"`
	GoodreadsURL   *string  `json:"goodreads_url"`
	AmazonURL      *string  `json:"amazon_url"`
	StorygraphURL  *string  `json:"storygraph_url"`
}

type ExportBook struct {
	NotionID        string   `json:"notion_id"`
	Title           string   `json:"title"`
	Subtitle        *string  `json:"subtitle"`
	Description     *string  `json:"description"`
	AuthorNotionIDs []string `json:"author_notion_ids"`
	SeriesNotionID  *string  `json:"series_notion_id"`
	SeriesNumber    *float64 `json:"series_number"`
	FormatNotionID  *string  `json:"format_notion_id"`
	PageCount       *float64 `json:"page_count"`
	Cost            *float64 `json:"cost"`
	Paid            *float64 `json:"paid"`
	Discounts       *float64 `json:"discounts"`
	DatePurchased   *string  `json:"date_purchased"`
	DateAdded       *string  `json:"date_added"`
	Rating          *float64 `json:"rating"`
	Comment         *string  `json:"comment"`
	IsBookBundle    bool     `json:"is_book_bundle"`
	BundledBooks    *string  `json:"bundled_books"`
	CoverURL        *string  `json:"cover_url"`
	ReadStatus      *string  `json:"read_status"`
	StartDate       *string  `json:"start_date"`
	FinishDate      *string  `json:"finish_date"`
	ReadCount       *float64 `json:"read_count"`
}

// parseExportDate accepts plain dates and full timestamps. Anything else is
// treated as missing.
func parseExportDate(value *string) (*time.Time, bool) {
	if value == nil {
		return nil, true
	}
	s := strings.TrimSpace(*value)
	if s == "" {
		return nil, true
	}
	layouts := []string{"2006-01-02", time.RFC3339Nano, "2006-01-02T15:04:05.000", "2006-01-02T15:04:05"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, true
		}
	}
	return nil, false
}

func toInt(f *float64) *int {
	if f == nil {
		return nil
	}
	i := int(*f)
	return &i
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// blank turns empty strings into nil so optional columns stay null.
func blank(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
