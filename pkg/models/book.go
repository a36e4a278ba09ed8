package models

import (
	"strings"
	"time"

	"github.com/segmentio/encoding/json"
	"github.com/uptrace/bun"
)

type Book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID             int           `bun:",pk,nullzero" json:"id"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
	Title          string        `bun:",notnull" json:"title"`
	Subtitle       *string       `json:"subtitle"`
	Description    *string       `json:"description"`
	PageCount      *int          `json:"page_count"`
	SeriesID       *int          `json:"series_id"`
	Series         *Series       `bun:"rel:belongs-to,join:series_id=id" json:"series,omitempty"`
	SeriesNumber   *float64      `json:"series_number"`
	FormatID       int           `bun:",notnull" json:"format_id"`
	Format         *Format       `bun:"rel:belongs-to,join:format_id=id" json:"format,omitempty"`
	Cost           *float64      `json:"cost"`
	Paid           *float64      `json:"paid"`
	Discounts      *float64      `json:"discounts"`
	IsBundle       bool          `bun:",notnull" json:"is_bundle"`
	BundledBooks   *string       `json:"bundled_books"`
	CoverImagePath *string       `json:"cover_image_path"`
	Rating         *float64      `json:"rating"`
	Comment        *string       `json:"comment"`
	DateAdded      time.Time     `bun:",notnull" json:"date_added"`
	DatePurchased  *time.Time    `json:"date_purchased"`
	Authors        []*BookAuthor `bun:"rel:has-many,join:id=book_id" json:"authors,omitempty"`
	Reads          []*Read       `bun:"rel:has-many,join:id=book_id" json:"reads,omitempty"`
}

// Saved is how much less than the cover price was paid. Missing amounts
// count as zero.
func (b *Book) Saved() float64 {
	var cost, paid float64
	if b.Cost != nil {
		cost = *b.Cost
	}
	if b.Paid != nil {
		paid = *b.Paid
	}
	return cost - paid
}

// ActiveRead returns the loaded read that is still in progress, if any.
func (b *Book) ActiveRead() *Read {
	for _, r := range b.Reads {
		if r.Status == ReadStatusReading {
			return r
		}
	}
	return nil
}

func (b *Book) AuthorNames() string {
	names := make([]string, 0, len(b.Authors))
	for _, ba := range b.Authors {
		if ba.Author != nil {
			names = append(names, ba.Author.Name)
		}
	}
	return strings.Join(names, ", ")
}

func (b *Book) MarshalJSON() ([]byte, error) {
	type book Book
	return json.Marshal(struct {
		*book
		Saved      float64 `json:"saved"`
		ActiveRead *Read   `json:"active_read,omitempty"`
	}{(*book)(b), b.Saved(), b.ActiveRead()})
}

type BookAuthor struct {
	bun.BaseModel `bun:"table:book_authors,alias:ba"`

	BookID   int     `bun:",pk" json:"book_id"`
	AuthorID int     `bun:",pk" json:"author_id"`
	Author   *Author `bun:"rel:belongs-to,join:author_id=id" json:"author,omitempty"`
}
