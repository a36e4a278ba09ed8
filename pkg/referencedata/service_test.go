package referencedata

import (
	"context"
	"database/sql"
	"testing"

	"github.com/bookdatabase/bookdb/pkg/errcodes"
	"github.com/bookdatabase/bookdb/pkg/migrations"
	"github.com/bookdatabase/bookdb/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func TestSeed_Idempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := setupTestDB(t)

	require.NoError(t, Seed(ctx, db))
	require.NoError(t, Seed(ctx, db))

	svc := NewService(db)
	formats, err := svc.ListFormats(ctx)
	require.NoError(t, err)
	require.Len(t, formats, len(DefaultFormats))
	assert.Equal(t, "Kindle", formats[0].Name)

	genders, err := svc.ListGenders(ctx)
	require.NoError(t, err)
	assert.Len(t, genders, len(DefaultGenders))
}

func TestSeed_KeepsExistingRows(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := setupTestDB(t)

	_, err := db.NewInsert().Model(&models.Format{Name: "Paperback"}).Exec(ctx)
	require.NoError(t, err)

	require.NoError(t, Seed(ctx, db))

	svc := NewService(db)
	paperback, err := svc.RetrieveFormatByName(ctx, "paperback")
	require.NoError(t, err)
	assert.Equal(t, 1, paperback.ID)

	formats, err := svc.ListFormats(ctx)
	require.NoError(t, err)
	assert.Len(t, formats, len(DefaultFormats))
}

func TestRetrieveGenderByName_NotFound(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := setupTestDB(t)
	require.NoError(t, Seed(ctx, db))

	_, err := NewService(db).RetrieveGenderByName(ctx, "Robot")
	assert.True(t, errcodes.HasCode(err, errcodes.CodeNotFound))

	g, err := NewService(db).RetrieveGenderByName(ctx, "nonbinary")
	require.NoError(t, err)
	assert.Equal(t, "Nonbinary", g.Name)

	exists, err := GenderExists(ctx, db, g.ID)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = FormatExists(ctx, db, 999)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFindOrCreateFormat(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := setupTestDB(t)
	require.NoError(t, Seed(ctx, db))
	svc := NewService(db)

	existing, created, err := svc.FindOrCreateFormat(ctx, "paperback")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "Paperback", existing.Name)

	added, created, err := svc.FindOrCreateFormat(ctx, " Zine ")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Zine", added.Name)
	assert.NotZero(t, added.ID)

	again, created, err := svc.FindOrCreateFormat(ctx, "ZINE")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, added.ID, again.ID)

	_, _, err = svc.FindOrCreateGender(ctx, "  ")
	assert.True(t, errcodes.HasCode(err, errcodes.CodeValidation))
}
