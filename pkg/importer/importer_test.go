package importer

import (
	"bytes"
	"context"
	"database/sql"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bookdatabase/bookdb/pkg/covers"
	"github.com/bookdatabase/bookdb/pkg/migrations"
	"github.com/bookdatabase/bookdb/pkg/models"
	"github.com/bookdatabase/bookdb/pkg/referencedata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const exportTemplate = `{
  "exported_at": "2024-06-01T10:00:00Z",
  "genders": [{"notion_id": "g1", "name": "Male"}, {"notion_id": "g2", "name": "Agender"}],
  "formats": [{"notion_id": "f1", "name": "Paperback"}],
  "authors": [
    {"notion_id": "a1", "name": "Richard Bachman", "gender_notion_id": "g1", "alias_of_notion_id": "a2"},
    {"notion_id": "a2", "name": "Stephen King", "gender_notion_id": "g1", "website": "https://stephenking.com"},
    {"notion_id": "a3", "name": "Frank Herbert", "pronouns": "he/him"}
  ],
  "series": [{"notion_id": "s1", "name": "Dune", "number_in_series": 6.0}],
  "books": [
    {"notion_id": "b1", "title": "Dune", "author_notion_ids": ["a3"], "series_notion_id": "s1", "series_number": 1,
     "format_notion_id": "f1", "page_count": 412.0, "cost": 10, "paid": 8, "rating": 4.5,
     "date_added": "2024-01-02", "read_status": "Reading", "start_date": "2024-05-01", "read_count": 3,
     "cover_url": "COVER_URL"},
    {"notion_id": "b2", "title": "The Long Walk", "author_notion_ids": ["a1", "missing"], "rating": 3.3,
     "read_status": "Completed", "start_date": "2023-01-01T00:00:00.000Z", "finish_date": "2023-02-01"},
    {"notion_id": "b3", "title": "", "author_notion_ids": []}
  ]
}`

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()
	ctx := context.Background()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	_, err = db.Exec("PRAGMA foreign_keys = ON")
	require.NoError(t, err)

	_, err = migrations.BringUpToDate(ctx, db)
	require.NoError(t, err)
	require.NoError(t, referencedata.Seed(ctx, db))

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func coverServer(t *testing.T) *httptest.Server {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 3, 4))))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cover.png" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(buf.Bytes())
	}))
	t.Cleanup(srv.Close)
	return srv
}

func setupImporter(t *testing.T) (*Importer, *bun.DB, *covers.LocalStorage) {
	t.Helper()
	db := setupTestDB(t)
	storage, err := covers.NewLocalStorage(filepath.Join(t.TempDir(), "uploads"), 1024*1024)
	require.NoError(t, err)
	return New(db, storage), db, storage
}

func exportJSON(coverURL string) string {
	return strings.Replace(exportTemplate, "COVER_URL", coverURL, 1)
}

func TestImport(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	im, db, storage := setupImporter(t)
	srv := coverServer(t)

	summary, err := im.Import(ctx, strings.NewReader(exportJSON(srv.URL+"/cover.png")), Options{})
	require.NoError(t, err)

	assert.Equal(t, EntityCount{Created: 1, Skipped: 1, Total: 5}, summary.Genders)
	assert.Equal(t, EntityCount{Created: 0, Skipped: 1, Total: 8}, summary.Formats)
	assert.Equal(t, 3, summary.Authors.Created)
	assert.Equal(t, 1, summary.Series.Created)
	assert.Equal(t, 2, summary.Books.Created)
	assert.Equal(t, 4, summary.Reads.Created)
	assert.Equal(t, 1, summary.Aliases)
	assert.Equal(t, 1, summary.Covers)
	// invalid rating and the untitled book
	assert.Equal(t, 2, summary.Warnings)

	dune := &models.Book{}
	require.NoError(t, db.NewSelect().Model(dune).Relation("Format").Relation("Series").Relation("Reads").Where("b.title = ?", "Dune").Scan(ctx))
	assert.Equal(t, "Paperback", dune.Format.Name)
	assert.Equal(t, "Dune", dune.Series.Name)
	assert.Equal(t, 412, *dune.PageCount)
	assert.Equal(t, "2024-01-02", dune.DateAdded.Format("2006-01-02"))
	require.Len(t, dune.Reads, 3)
	require.NotNil(t, dune.ActiveRead())
	require.NotNil(t, dune.CoverImagePath)
	assert.FileExists(t, filepath.Join(storage.Dir(), *dune.CoverImagePath))

	walk := &models.Book{}
	require.NoError(t, db.NewSelect().Model(walk).Relation("Authors.Author").Where("b.title = ?", "The Long Walk").Scan(ctx))
	assert.Nil(t, walk.Rating)
	assert.Equal(t, referencedata.DefaultFormats[0], formatName(t, db, walk.FormatID))
	require.Len(t, walk.Authors, 1)
	assert.Equal(t, "Richard Bachman", walk.Authors[0].Author.Name)

	bachman := &models.Author{}
	require.NoError(t, db.NewSelect().Model(bachman).Relation("AliasOf").Where("a.name = ?", "Richard Bachman").Scan(ctx))
	require.NotNil(t, bachman.AliasOf)
	assert.Equal(t, "Stephen King", bachman.AliasOf.Name)
}

func formatName(t *testing.T, db *bun.DB, id int) string {
	t.Helper()
	f := &models.Format{}
	require.NoError(t, db.NewSelect().Model(f).Where("id = ?", id).Scan(context.Background()))
	return f.Name
}

func TestImport_SkipsExisting(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	im, _, _ := setupImporter(t)

	_, err := im.Import(ctx, strings.NewReader(exportJSON("")), Options{SkipCovers: true})
	require.NoError(t, err)

	summary, err := im.Import(ctx, strings.NewReader(exportJSON("")), Options{SkipCovers: true})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Authors.Created)
	assert.Equal(t, 3, summary.Authors.Skipped)
	assert.Equal(t, 1, summary.Series.Skipped)
	assert.Equal(t, 2, summary.Books.Skipped)
	assert.Equal(t, 0, summary.Reads.Created)
	assert.Equal(t, 2, summary.Books.Total)
	assert.Equal(t, 4, summary.Reads.Total)
	assert.Equal(t, 0, summary.Aliases)
}

func TestImport_Clear(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	im, db, storage := setupImporter(t)
	srv := coverServer(t)

	_, err := im.Import(ctx, strings.NewReader(exportJSON(srv.URL+"/cover.png")), Options{})
	require.NoError(t, err)
	before, err := filepath.Glob(filepath.Join(storage.Dir(), "book-*"))
	require.NoError(t, err)
	require.Len(t, before, 1)

	summary, err := im.Import(ctx, strings.NewReader(exportJSON(srv.URL+"/missing.png")), Options{Clear: true})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Books.Created)
	assert.Equal(t, 2, summary.Books.Total)
	assert.Equal(t, 3, summary.Authors.Total)
	assert.Equal(t, 1, summary.CoverFailures)

	_, err = os.Stat(before[0])
	assert.True(t, os.IsNotExist(err))

	formats, err := db.NewSelect().Model((*models.Format)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(referencedata.DefaultFormats), formats)
}

func TestImport_MalformedFile(t *testing.T) {
	t.Parallel()
	im, _, _ := setupImporter(t)

	_, err := im.Import(context.Background(), strings.NewReader(`{"books": [`), Options{})
	assert.Error(t, err)

	_, err = im.ImportFile(context.Background(), filepath.Join(t.TempDir(), "missing.json"), Options{})
	assert.Error(t, err)
}
