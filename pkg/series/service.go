package series

import (
	"context"
	"database/sql"
	"slices"
	"strings"
	"time"

	"github.com/bookdatabase/bookdb/pkg/errcodes"
	"github.com/bookdatabase/bookdb/pkg/models"
	"github.com/bookdatabase/bookdb/pkg/search"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type RetrieveSeriesOptions struct {
	ID   *int
	Name *string
}

type ListSeriesOptions struct {
	Limit  *int
	Offset *int
	Search *string

	includeTotal bool
}

type UpdateSeriesOptions struct {
	Columns []string
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

func (svc *Service) CreateSeries(ctx context.Context, series *models.Series) error {
	series.Name = strings.TrimSpace(series.Name)
	if series.Name == "" {
		return errcodes.ValidationError("Series name can't be empty.")
	}

	now := time.Now()
	if series.CreatedAt.IsZero() {
		series.CreatedAt = now
	}
	series.UpdatedAt = series.CreatedAt

	_, err := svc.db.
		NewInsert().
		Model(series).
		Returning("*").
		Exec(ctx)
	return errors.WithStack(err)
}

func (svc *Service) RetrieveSeries(ctx context.Context, opts RetrieveSeriesOptions) (*models.Series, error) {
	series := &models.Series{}

	q := svc.db.
		NewSelect().
		Model(series).
		ColumnExpr("s.*").
		ColumnExpr("(SELECT COUNT(*) FROM books WHERE books.series_id = s.id) AS book_count")

	if opts.ID != nil {
		q = q.Where("s.id = ?", *opts.ID)
	}
	if opts.Name != nil {
		// Case-insensitive match
		q = q.Where("LOWER(s.name) = LOWER(?)", *opts.Name).Order("s.id ASC").Limit(1)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Series")
		}
		return nil, errors.WithStack(err)
	}

	return series, nil
}

// RetrieveSeriesByID retrieves a series by its ID.
func (svc *Service) RetrieveSeriesByID(ctx context.Context, id int) (*models.Series, error) {
	return svc.RetrieveSeries(ctx, RetrieveSeriesOptions{ID: &id})
}

func (svc *Service) ListSeries(ctx context.Context, opts ListSeriesOptions) ([]*models.Series, error) {
	s, _, err := svc.listSeriesWithTotal(ctx, opts)
	return s, errors.WithStack(err)
}

func (svc *Service) ListSeriesWithTotal(ctx context.Context, opts ListSeriesOptions) ([]*models.Series, int, error) {
	opts.includeTotal = true
	return svc.listSeriesWithTotal(ctx, opts)
}

func (svc *Service) listSeriesWithTotal(ctx context.Context, opts ListSeriesOptions) ([]*models.Series, int, error) {
	series := []*models.Series{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&series).
		ColumnExpr("s.*").
		ColumnExpr("(SELECT COUNT(*) FROM books WHERE books.series_id = s.id) AS book_count").
		Order("s.name ASC", "s.id ASC")

	if opts.Search != nil {
		if pattern := search.ContainsPattern(*opts.Search); pattern != "" {
			q = q.Where(`s.name LIKE ? ESCAPE '\'`, pattern)
		}
	}
	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return series, total, nil
}

// ListSeriesBooks returns the series' books in reading order. Books without a
// series number sort last.
func (svc *Service) ListSeriesBooks(ctx context.Context, id int) ([]*models.Book, error) {
	if _, err := svc.RetrieveSeriesByID(ctx, id); err != nil {
		return nil, err
	}

	books := []*models.Book{}
	err := svc.db.NewSelect().
		Model(&books).
		Relation("Format").
		Relation("Authors.Author").
		Where("b.series_id = ?", id).
		OrderExpr("b.series_number IS NULL, b.series_number ASC, b.title ASC").
		Scan(ctx)
	return books, errors.WithStack(err)
}

func (svc *Service) UpdateSeries(ctx context.Context, series *models.Series, opts UpdateSeriesOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	for _, col := range opts.Columns {
		if col == "name" {
			series.Name = strings.TrimSpace(series.Name)
			if series.Name == "" {
				return errcodes.ValidationError("Series name can't be empty.")
			}
		}
	}

	now := time.Now()
	series.UpdatedAt = now
	columns := slices.Concat(opts.Columns, []string{"updated_at"})

	res, err := svc.db.
		NewUpdate().
		Model(series).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errcodes.NotFound("Series")
	}
	return nil
}

// DeleteSeries detaches every book from the series, clearing both the link
// and the position, then deletes the series. Books are kept.
func (svc *Service) DeleteSeries(ctx context.Context, seriesID int) error {
	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewUpdate().
			Model((*models.Book)(nil)).
			Set("series_id = NULL").
			Set("series_number = NULL").
			Set("updated_at = ?", time.Now()).
			Where("series_id = ?", seriesID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		res, err := tx.NewDelete().
			Model((*models.Series)(nil)).
			Where("id = ?", seriesID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errcodes.NotFound("Series")
		}
		return nil
	})
}
