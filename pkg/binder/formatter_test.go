package binder

import (
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type titlePayload struct {
	Title string `json:"title" validate:"required,max=300"`
}

type initialPayload struct {
	Initial string `json:"initial" validate:"omitempty,max=1"`
}

type pagePayload struct {
	PageCount *int `json:"page_count" validate:"omitempty,min=0"`
}

type listPayload struct {
	Limit int `json:"limit" validate:"min=1,max=100"`
}

type authorLinksPayload struct {
	AuthorIDs []int `json:"author_ids" validate:"omitempty,max=50,dive,min=1"`
}

type clearPayload struct {
	Clear []string `json:"clear" validate:"omitempty,dive,oneof=start_date finish_date"`
}

type readPayload struct {
	Status     string   `json:"status" validate:"omitempty,read_status"`
	StartDate  string   `json:"start_date" validate:"omitempty,date"`
	Rating     *float64 `json:"rating" validate:"omitempty,rating"`
	Website    string   `json:"website" validate:"omitempty,url"`
	SeriesName string   `json:"series_name" validate:"omitempty,min=2"`
}

type contactPayload struct {
	Contact string `json:"contact" validate:"email"`
}

type shelfPayload struct {
	Shelf int `json:"shelf" validate:"even"`
}

func TestFormatValidationError(t *testing.T) {
	t.Parallel()
	b, err := New()
	require.NoError(t, err)
	require.NoError(t, b.validate.RegisterValidation("even", func(fl validator.FieldLevel) bool {
		return fl.Field().Int()%2 == 0
	}))

	negative := -1
	offStep := 3.3
	manyAuthors := make([]int, 51)
	for i := range manyAuthors {
		manyAuthors[i] = i + 1
	}

	cases := []struct {
		name    string
		payload interface{}
		msg     string
	}{
		{"missing title", &titlePayload{}, `"title" is required`},
		{"long title", &titlePayload{Title: strings.Repeat("x", 301)}, `"title" length must be less than or equal to 300 characters`},
		{"single character", &initialPayload{Initial: "ab"}, `"initial" length must be less than or equal to 1 character`},
		{"negative page count", &pagePayload{PageCount: &negative}, `"page_count" must be greater than or equal to 0`},
		{"limit too small", &listPayload{Limit: 0}, `"limit" must be greater than or equal to 1`},
		{"limit too large", &listPayload{Limit: 101}, `"limit" must be less than or equal to 100`},
		{"too many authors", &authorLinksPayload{AuthorIDs: manyAuthors}, `"author_ids" length must be less than or equal to 50 elements`},
		{"zero author id", &authorLinksPayload{AuthorIDs: []int{3, 0}}, `"author_ids[1]" must be greater than or equal to 1`},
		{"unknown clear field", &clearPayload{Clear: []string{"rating"}}, `"clear[0]" must be one of the following: "start_date", "finish_date"`},
		{"unknown read status", &readPayload{Status: "Paused"}, `"status" must be one of the following: "Reading", "Completed", "Abandoned"`},
		{"bad date", &readPayload{StartDate: "2024-1-1"}, `"start_date" should be in the format of YYYY-MM-DD`},
		{"off-step rating", &readPayload{Rating: &offStep}, `"rating" must be between 0 and 5 in steps of 0.25`},
		{"relative url", &readPayload{Website: "/covers/dune.jpg"}, `"website" must be an http or https URL`},
		{"short series name", &readPayload{SeriesName: "D"}, `"series_name" length must be greater than or equal to 2 characters`},
		{"translated fallback", &contactPayload{Contact: "nope"}, `contact must be a valid email address`},
		{"tag without any message", &shelfPayload{Shelf: 3}, `"shelf" is invalid`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := b.validate.Struct(tc.payload)
			var errs validator.ValidationErrors
			require.ErrorAs(t, err, &errs)
			assert.Equal(t, tc.msg, formatValidationError(errs[0], b.trans))
		})
	}
}

func TestFormatValidationError_ValidPayloads(t *testing.T) {
	t.Parallel()
	b, err := New()
	require.NoError(t, err)

	rating := 4.25
	pages := 0
	for _, payload := range []interface{}{
		&titlePayload{Title: "Dune"},
		&pagePayload{PageCount: &pages},
		&pagePayload{},
		&listPayload{Limit: 100},
		&authorLinksPayload{},
		&clearPayload{Clear: []string{"start_date", "finish_date"}},
		&readPayload{Status: "Abandoned", StartDate: "2024-05-01", Rating: &rating, Website: "https://example.com/dune"},
	} {
		assert.NoError(t, b.validate.Struct(payload))
	}
}
