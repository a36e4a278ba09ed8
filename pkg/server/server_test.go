package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bookdatabase/bookdb/pkg/config"
	"github.com/bookdatabase/bookdb/pkg/covers"
	"github.com/bookdatabase/bookdb/pkg/database"
	"github.com/bookdatabase/bookdb/pkg/migrations"
	"github.com/bookdatabase/bookdb/pkg/referencedata"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestEcho(t *testing.T) (*echo.Echo, *covers.LocalStorage) {
	t.Helper()
	ctx := context.Background()

	cfg := config.NewForTest()
	cfg.DatabaseFilePath = filepath.Join(t.TempDir(), "bookdb.sqlite")
	cfg.UploadDir = filepath.Join(t.TempDir(), "uploads")

	db, err := database.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
	})
	_, err = migrations.BringUpToDate(ctx, db)
	require.NoError(t, err)
	require.NoError(t, referencedata.Seed(ctx, db))

	storage, err := covers.NewLocalStorage(cfg.UploadDir, cfg.MaxUploadSizeBytes())
	require.NoError(t, err)

	e, err := newEcho(cfg, db, storage)
	require.NoError(t, err)
	return e, storage
}

func serve(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
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

func TestNew(t *testing.T) {
	t.Parallel()
	cfg := config.NewForTest()
	cfg.ServerPort = 4321
	storage, err := covers.NewLocalStorage(t.TempDir(), cfg.MaxUploadSizeBytes())
	require.NoError(t, err)

	srv, err := New(cfg, nil, storage)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:4321", srv.Addr)
}

func TestRoutes(t *testing.T) {
	t.Parallel()
	e, storage := setupTestEcho(t)

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/dashboard", http.StatusOK},
		{http.MethodGet, "/formats", http.StatusOK},
		{http.MethodGet, "/genders", http.StatusOK},
		{http.MethodGet, "/books", http.StatusOK},
		{http.MethodGet, "/authors", http.StatusOK},
		{http.MethodGet, "/series", http.StatusOK},
		{http.MethodGet, "/search?q=dune", http.StatusOK},
		{http.MethodGet, "/books/1/reads", http.StatusNotFound},
		{http.MethodGet, "/nowhere", http.StatusNotFound},
	}
	for _, tt := range tests {
		rr := serve(e, tt.method, tt.path, "")
		assert.Equal(t, tt.status, rr.Code, "%s %s: %s", tt.method, tt.path, rr.Body.String())
	}

	require.NoError(t, os.WriteFile(filepath.Join(storage.Dir(), "book-1-test.png"), []byte("png"), 0o600))
	rr := serve(e, http.MethodGet, "/uploads/book-1-test.png", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestEndToEnd_ReadingFlow(t *testing.T) {
	t.Parallel()
	e, _ := setupTestEcho(t)

	rr := serve(e, http.MethodPost, "/books", `{"title":"Dune","format_id":5}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = serve(e, http.MethodPost, "/books/1/reads", "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = serve(e, http.MethodGet, "/dashboard", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"total_books":1`)
	assert.Contains(t, rr.Body.String(), `"title":"Dune"`)

	rr = serve(e, http.MethodDelete, "/test/data", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"books":1`)

	rr = serve(e, http.MethodGet, "/books", "")
	assert.Contains(t, rr.Body.String(), `"total":0`)
}
