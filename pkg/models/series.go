package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Series struct {
	bun.BaseModel `bun:"table:series,alias:s"`

	ID             int       `bun:",pk,nullzero" json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Name           string    `bun:",notnull" json:"name"`
	NumberInSeries *int      `json:"number_in_series"`
	GoodreadsURL   *string   `bun:"goodreads_url" json:"goodreads_url"`
	AmazonURL      *string   `bun:"amazon_url" json:"amazon_url"`
	StorygraphURL  *string   `bun:"storygraph_url" json:"storygraph_url"`
	Books          []*Book   `bun:"rel:has-many,join:id=series_id" json:"books,omitempty"`
	BookCount      int       `bun:",scanonly" json:"book_count"`
}
