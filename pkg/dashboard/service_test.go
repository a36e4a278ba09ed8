package dashboard

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bookdatabase/bookdb/pkg/migrations"
	"github.com/bookdatabase/bookdb/pkg/models"
	"github.com/bookdatabase/bookdb/pkg/reads"
	"github.com/bookdatabase/bookdb/pkg/referencedata"
	"github.com/labstack/echo/v4"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

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

func seedBooks(t *testing.T, db *bun.DB) {
	t.Helper()
	ctx := context.Background()
	readService := reads.NewService(db)

	for i, title := range []string{"Dune", "Hyperion", "Neuromancer"} {
		book := &models.Book{Title: title, FormatID: 1, DateAdded: time.Now()}
		_, err := db.NewInsert().Model(book).Exec(ctx)
		require.NoError(t, err)

		start := time.Date(2024, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC)
		switch title {
		case "Dune":
			require.NoError(t, readService.RecordRead(ctx, &models.Read{BookID: book.ID, Status: models.ReadStatusCompleted}))
			require.NoError(t, readService.RecordRead(ctx, &models.Read{BookID: book.ID, Status: models.ReadStatusCompleted}))
			_, err = readService.StartRead(ctx, book.ID, &start)
		case "Hyperion":
			_, err = readService.StartRead(ctx, book.ID, &start)
		case "Neuromancer":
			err = readService.RecordRead(ctx, &models.Read{BookID: book.ID, StartDate: &start, Status: models.ReadStatusAbandoned})
		}
		require.NoError(t, err)
	}
}

func TestRetrieveDashboard(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := setupTestDB(t)
	seedBooks(t, db)

	dashboard, err := NewService(db).RetrieveDashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, dashboard.TotalBooks)
	assert.Equal(t, 2, dashboard.CompletedReads)
	require.Len(t, dashboard.ActiveReads, 2)
	assert.Equal(t, "Hyperion", dashboard.ActiveReads[0].Book.Title)
	assert.Equal(t, "Dune", dashboard.ActiveReads[1].Book.Title)
}

func TestRetrieveDashboard_Empty(t *testing.T) {
	t.Parallel()
	e := echo.New()
	RegisterRoutes(e, setupTestDB(t))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		ActiveReads []interface{} `json:"active_reads"`
		TotalBooks  int           `json:"total_books"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.NotNil(t, body.ActiveReads)
	assert.Empty(t, body.ActiveReads)
	assert.Equal(t, 0, body.TotalBooks)
}
