package search

import "github.com/bookdatabase/bookdb/pkg/models"

type GlobalSearchQuery struct {
	Query string `query:"q" json:"q" mod:"trim" validate:"max=100"`
}

type GlobalSearchResponse struct {
	Query   string           `json:"query"`
	Books   []*models.Book   `json:"books"`
	Authors []*models.Author `json:"authors"`
	Series  []*models.Series `json:"series"`
}
