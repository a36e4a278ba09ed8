package books

import "mime/multipart"

type ListBooksQuery struct {
	Limit    int  `query:"limit" json:"limit,omitempty" default:"24" validate:"min=1,max=100"`
	Offset   int  `query:"offset" json:"offset,omitempty" validate:"min=0"`
	SeriesID *int `query:"series_id" json:"series_id,omitempty" validate:"omitempty,min=1"`
	FormatID *int `query:"format_id" json:"format_id,omitempty" validate:"omitempty,min=1"`
}

type CreateBookPayload struct {
	Title         string   `json:"title" mod:"trim" validate:"required,max=500"`
	Subtitle      *string  `json:"subtitle,omitempty" mod:"trim" validate:"omitempty,max=500"`
	Description   *string  `json:"description,omitempty" validate:"omitempty,max=10000"`
	PageCount     *int     `json:"page_count,omitempty" validate:"omitempty,min=0"`
	SeriesID      *int     `json:"series_id,omitempty" validate:"omitempty,min=1"`
	SeriesNumber  *float64 `json:"series_number,omitempty" validate:"omitempty,min=0"`
	FormatID      int      `json:"format_id" validate:"required,min=1"`
	Cost          *float64 `json:"cost,omitempty" validate:"omitempty,min=0"`
	Paid          *float64 `json:"paid,omitempty" validate:"omitempty,min=0"`
	Discounts     *float64 `json:"discounts,omitempty" validate:"omitempty,min=0"`
	IsBundle      bool     `json:"is_bundle,omitempty"`
	BundledBooks  *string  `json:"bundled_books,omitempty" validate:"omitempty,max=5000"`
	Rating        *float64 `json:"rating,omitempty" validate:"omitempty,rating"`
	Comment       *string  `json:"comment,omitempty" validate:"omitempty,max=10000"`
	DateAdded     string   `json:"date_added,omitempty" validate:"omitempty,date"`
	DatePurchased string   `json:"date_purchased,omitempty" validate:"omitempty,date"`
	AuthorIDs     []int    `json:"author_ids,omitempty" validate:"omitempty,max=50,dive,min=1"`
}

// UpdateBookPayload only touches fields that are present. Nullable fields
// named in Clear are set to null.
type UpdateBookPayload struct {
	Title         *string  `json:"title,omitempty" mod:"trim" validate:"omitempty,min=1,max=500"`
	Subtitle      *string  `json:"subtitle,omitempty" mod:"trim" validate:"omitempty,max=500"`
	Description   *string  `json:"description,omitempty" validate:"omitempty,max=10000"`
	PageCount     *int     `json:"page_count,omitempty" validate:"omitempty,min=0"`
	SeriesID      *int     `json:"series_id,omitempty" validate:"omitempty,min=1"`
	SeriesNumber  *float64 `json:"series_number,omitempty" validate:"omitempty,min=0"`
	FormatID      *int     `json:"format_id,omitempty" validate:"omitempty,min=1"`
	Cost          *float64 `json:"cost,omitempty" validate:"omitempty,min=0"`
	Paid          *float64 `json:"paid,omitempty" validate:"omitempty,min=0"`
	Discounts     *float64 `json:"discounts,omitempty" validate:"omitempty,min=0"`
	IsBundle      *bool    `json:"is_bundle,omitempty"`
	BundledBooks  *string  `json:"bundled_books,omitempty" validate:"omitempty,max=5000"`
	Rating        *float64 `json:"rating,omitempty" validate:"omitempty,rating"`
	Comment       *string  `json:"comment,omitempty" validate:"omitempty,max=10000"`
	DateAdded     *string  `json:"date_added,omitempty" validate:"omitempty,date"`
	DatePurchased *string  `json:"date_purchased,omitempty" validate:"omitempty,date"`
	AuthorIDs     *[]int   `json:"author_ids,omitempty" validate:"omitempty,max=50,dive,min=1"`
	Clear         []string `json:"clear,omitempty" validate:"omitempty,dive,oneof=subtitle description page_count series_id series_number cost paid discounts bundled_books rating comment date_purchased"`
}

type UploadCoverPayload struct {
	FormFiles map[string]*multipart.FileHeader `json:"-"`
}
