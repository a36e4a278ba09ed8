package importer

// EntityCount tracks one table. Total is the row count after the import.
type EntityCount struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Total   int `json:"total"`
}

func (c *EntityCount) record(created bool) {
	if created {
		c.Created++
	} else {
		c.Skipped++
	}
}

type Summary struct {
	Genders EntityCount `json:"genders"`
	Formats EntityCount `json:"formats"`
	Authors EntityCount `json:"authors"`
	Series  EntityCount `json:"series"`
	Books   EntityCount `json:"books"`
	Reads   EntityCount `json:"reads"`

	Aliases       int `json:"aliases"`
	Covers        int `json:"covers"`
	CoverFailures int `json:"cover_failures"`
	Warnings      int `json:"warnings"`
}

type SummaryRow struct {
	Entity string
	EntityCount
}

// Rows lists the per-entity counts in display order.
func (s *Summary) Rows() []SummaryRow {
	return []SummaryRow{
		{"Genders", s.Genders},
		{"Formats", s.Formats},
		{"Authors", s.Authors},
		{"Series", s.Series},
		{"Books", s.Books},
		{"Reads", s.Reads},
	}
}
