package authors

type ListAuthorsQuery struct {
	Limit          int     `query:"limit" json:"limit,omitempty" default:"50" validate:"min=1,max=100"`
	Offset         int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
	Search         *string `query:"search" json:"search,omitempty" validate:"omitempty,max=100"`
	IncludeAliases bool    `query:"include_aliases" json:"include_aliases,omitempty"`
}

type PickerQuery struct {
	Query   string `query:"q" json:"q" mod:"trim" validate:"max=100"`
	Exclude string `query:"exclude" json:"exclude,omitempty" validate:"omitempty,max=1000"`
}

type DeleteAuthorQuery struct {
	Detach bool `query:"detach" json:"detach,omitempty"`
}

type CreateAuthorPayload struct {
	Name          string  `json:"name" mod:"trim" validate:"required,max=300"`
	Pronouns      *string `json:"pronouns,omitempty" mod:"trim" validate:"omitempty,max=50"`
	GenderID      *int    `json:"gender_id,omitempty" validate:"omitempty,min=1"`
	GoodreadsURL  *string `json:"goodreads_url,omitempty" mod:"trim" validate:"omitempty,url"`
	AmazonURL     *string `json:"amazon_url,omitempty" mod:"trim" validate:"omitempty,url"`
	StorygraphURL *string `json:"storygraph_url,omitempty" mod:"trim" validate:"omitempty,url"`
	Website       *string `json:"website,omitempty" mod:"trim" validate:"omitempty,url"`
	AliasOfID     *int    `json:"alias_of_id,omitempty" validate:"omitempty,min=1"`
}

type QuickAddPayload struct {
	Name string `json:"name" mod:"trim" validate:"required,max=300"`
}

// UpdateAuthorPayload fields are only applied when present. An empty string
// clears an optional text field, and clear_alias removes the alias link.
type UpdateAuthorPayload struct {
	Name          *string `json:"name,omitempty" mod:"trim" validate:"omitempty,max=300"`
	Pronouns      *string `json:"pronouns,omitempty" mod:"trim" validate:"omitempty,max=50"`
	GenderID      *int    `json:"gender_id,omitempty" validate:"omitempty,min=1"`
	ClearGender   bool    `json:"clear_gender,omitempty"`
	GoodreadsURL  *string `json:"goodreads_url,omitempty" mod:"trim" validate:"omitempty,url"`
	AmazonURL     *string `json:"amazon_url,omitempty" mod:"trim" validate:"omitempty,url"`
	StorygraphURL *string `json:"storygraph_url,omitempty" mod:"trim" validate:"omitempty,url"`
	Website       *string `json:"website,omitempty" mod:"trim" validate:"omitempty,url"`
	AliasOfID     *int    `json:"alias_of_id,omitempty" validate:"omitempty,min=1"`
	ClearAlias    bool    `json:"clear_alias,omitempty"`
}
