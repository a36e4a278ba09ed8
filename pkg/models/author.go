package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Author struct {
	bun.BaseModel `bun:"table:authors,alias:a"`

	ID            int       `bun:",pk,nullzero" json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Name          string    `bun:",notnull" json:"name"`
	Pronouns      *string   `json:"pronouns"`
	GenderID      *int      `json:"gender_id"`
	Gender        *Gender   `bun:"rel:belongs-to,join:gender_id=id" json:"gender,omitempty"`
	GoodreadsURL  *string   `bun:"goodreads_url" json:"goodreads_url"`
	AmazonURL     *string   `bun:"amazon_url" json:"amazon_url"`
	StorygraphURL *string   `bun:"storygraph_url" json:"storygraph_url"`
	Website       *string   `json:"website"`
	// AliasOfID points at the author this one is a pen name of.
	AliasOfID *int      `json:"alias_of_id"`
	AliasOf   *Author   `bun:"rel:belongs-to,join:alias_of_id=id" json:"alias_of,omitempty"`
	Aliases   []*Author `bun:"rel:has-many,join:id=alias_of_id" json:"aliases,omitempty"`
}

func (a *Author) IsAlias() bool {
	return a.AliasOfID != nil
}
