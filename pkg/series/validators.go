package series

type ListSeriesQuery struct {
	Limit  int     `query:"limit" json:"limit,omitempty" default:"24" validate:"min=1,max=100"`
	Offset int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
	Search *string `query:"search" json:"search,omitempty" validate:"omitempty,max=100"`
}

type CreateSeriesPayload struct {
	Name           string  `json:"name" mod:"trim" validate:"required,max=300"`
	NumberInSeries *int    `json:"number_in_series,omitempty" validate:"omitempty,min=0"`
	GoodreadsURL   *string `json:"goodreads_url,omitempty" mod:"trim" validate:"omitempty,url"`
	AmazonURL      *string `json:"amazon_url,omitempty" mod:"trim" validate:"omitempty,url"`
	StorygraphURL  *string `json:"storygraph_url,omitempty" mod:"trim" validate:"omitempty,url"`
}

type UpdateSeriesPayload struct {
	Name                *string `json:"name,omitempty" mod:"trim" validate:"omitempty,max=300"`
	NumberInSeries      *int    `json:"number_in_series,omitempty" validate:"omitempty,min=0"`
	ClearNumberInSeries bool    `json:"clear_number_in_series,omitempty"`
	GoodreadsURL        *string `json:"goodreads_url,omitempty" mod:"trim" validate:"omitempty,url"`
	AmazonURL           *string `json:"amazon_url,omitempty" mod:"trim" validate:"omitempty,url"`
	StorygraphURL       *string `json:"storygraph_url,omitempty" mod:"trim" validate:"omitempty,url"`
}
