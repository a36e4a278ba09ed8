package books

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/bookdatabase/bookdb/pkg/binder"
	"github.com/bookdatabase/bookdb/pkg/errcodes"
	"github.com/labstack/echo/v4"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bookResponse struct {
	ID            int      `json:"id"`
	Title         string   `json:"title"`
	Subtitle      *string  `json:"subtitle"`
	Rating        *float64 `json:"rating"`
	Saved         *float64 `json:"saved"`
	DateAdded     string   `json:"date_added"`
	DatePurchased *string  `json:"date_purchased"`
	SeriesID      *int     `json:"series_id"`
	SeriesNumber  *float64 `json:"series_number"`
	CoverImage    *string  `json:"cover_image_path"`
	Authors       []struct {
		AuthorID int `json:"author_id"`
	} `json:"authors"`
}

func setupTestServer(t *testing.T) (*echo.Echo, *Service) {
	t.Helper()
	svc, _ := setupTestService(t)

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	RegisterRoutesWithGroup(e.Group("/books"), svc.db, svc.covers)

	return e, svc
}

func doRequest(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, req)
	return rr
}

func decodeBook(t *testing.T, rr *httptest.ResponseRecorder) bookResponse {
	t.Helper()
	var book bookResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &book))
	return book
}

func TestHandlers_CreateRetrieveList(t *testing.T) {
	t.Parallel()
	e, svc := setupTestServer(t)
	author := insertAuthor(t, svc.db, "Frank Herbert")

	body := `{"title":"Dune","format_id":5,"author_ids":[` + strconv.Itoa(author.ID) + `],"cost":10,"paid":7.5,"rating":4.5,"date_added":"2024-02-01","date_purchased":"2024-01-30"}`
	rr := doRequest(e, http.MethodPost, "/books", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	created := decodeBook(t, rr)
	assert.Equal(t, "Dune", created.Title)
	require.NotNil(t, created.Saved)
	assert.InDelta(t, 2.5, *created.Saved, 0.0001)
	require.Len(t, created.Authors, 1)
	assert.True(t, strings.HasPrefix(created.DateAdded, "2024-02-01"))

	rr = doRequest(e, http.MethodGet, "/books/"+strconv.Itoa(created.ID), "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = doRequest(e, http.MethodGet, "/books?limit=10", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var list struct {
		Books []bookResponse `json:"books"`
		Total int            `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)
	require.Len(t, list.Books, 1)

	rr = doRequest(e, http.MethodGet, "/books/nope", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandlers_CreateValidation(t *testing.T) {
	t.Parallel()
	e, _ := setupTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing title", `{"format_id":5}`},
		{"missing format", `{"title":"Dune"}`},
		{"off-step rating", `{"title":"Dune","format_id":5,"rating":3.3}`},
		{"bad date", `{"title":"Dune","format_id":5,"date_added":"01/02/2024"}`},
		{"unknown format", `{"title":"Dune","format_id":99}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(e, http.MethodPost, "/books", tt.body)
			assert.Equal(t, http.StatusUnprocessableEntity, rr.Code, rr.Body.String())
		})
	}
}

func TestHandlers_UpdateAndClear(t *testing.T) {
	t.Parallel()
	e, _ := setupTestServer(t)

	rr := doRequest(e, http.MethodPost, "/books", `{"title":"Dune","subtitle":"Book One","format_id":5,"rating":4}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	id := strconv.Itoa(decodeBook(t, rr).ID)

	rr = doRequest(e, http.MethodPatch, "/books/"+id, `{"title":"Dune Messiah","clear":["subtitle","rating"]}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	updated := decodeBook(t, rr)
	assert.Equal(t, "Dune Messiah", updated.Title)
	assert.Nil(t, updated.Subtitle)
	assert.Nil(t, updated.Rating)

	rr = doRequest(e, http.MethodPatch, "/books/"+id, `{"clear":["title"]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = doRequest(e, http.MethodPatch, "/books/"+id, `{"date_added":""}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = doRequest(e, http.MethodPatch, "/books/9999", `{"title":"Ghost"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandlers_DeleteBook(t *testing.T) {
	t.Parallel()
	e, _ := setupTestServer(t)

	rr := doRequest(e, http.MethodPost, "/books", `{"title":"Dune","format_id":5}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	id := strconv.Itoa(decodeBook(t, rr).ID)

	rr = doRequest(e, http.MethodDelete, "/books/"+id, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = doRequest(e, http.MethodDelete, "/books/"+id, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandlers_UploadCover(t *testing.T) {
	t.Parallel()
	e, _ := setupTestServer(t)

	rr := doRequest(e, http.MethodPost, "/books", `{"title":"Dune","format_id":5}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	id := strconv.Itoa(decodeBook(t, rr).ID)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("cover", "cover.png")
	require.NoError(t, err)
	_, err = part.Write(pngCover(t))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/books/"+id+"/cover", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rr = httptest.NewRecorder()
	e.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	withCover := decodeBook(t, rr)
	require.NotNil(t, withCover.CoverImage)
	assert.True(t, strings.HasSuffix(*withCover.CoverImage, ".png"))

	rr = doRequest(e, http.MethodDelete, "/books/"+id+"/cover", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, decodeBook(t, rr).CoverImage)
}
