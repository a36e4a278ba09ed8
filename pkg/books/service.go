package books

import (
	"context"
	"database/sql"
	"io"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/bookdatabase/bookdb/pkg/covers"
	"github.com/bookdatabase/bookdb/pkg/errcodes"
	"github.com/bookdatabase/bookdb/pkg/models"
	"github.com/bookdatabase/bookdb/pkg/referencedata"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

type RetrieveBookOptions struct {
	ID    *int
	Title *string
}

type ListBooksOptions struct {
	Limit    *int
	Offset   *int
	SeriesID *int
	FormatID *int

	includeTotal bool
}

type UpdateBookOptions struct {
	Columns []string
	// AuthorIDs replaces the book's author links when non-nil.
	AuthorIDs *[]int
}

type Service struct {
	db     *bun.DB
	covers covers.Storage
}

func NewService(db *bun.DB, storage covers.Storage) *Service {
	return &Service{db, storage}
}

func (svc *Service) CreateBook(ctx context.Context, book *models.Book, authorIDs []int) error {
	if err := validateBook(book, nil); err != nil {
		return err
	}

	now := time.Now()
	if book.CreatedAt.IsZero() {
		book.CreatedAt = now
	}
	book.UpdatedAt = book.CreatedAt
	if book.DateAdded.IsZero() {
		book.DateAdded = now
	}

	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if err := validateReferences(ctx, tx, book, nil); err != nil {
			return err
		}

		_, err := tx.
			NewInsert().
			Model(book).
			Returning("*").
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		return replaceAuthors(ctx, tx, book.ID, authorIDs)
	})
}

func (svc *Service) RetrieveBook(ctx context.Context, opts RetrieveBookOptions) (*models.Book, error) {
	book := &models.Book{}

	q := svc.db.
		NewSelect().
		Model(book).
		Relation("Format").
		Relation("Series").
		Relation("Authors.Author").
		Relation("Reads", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("r.start_date IS NULL, r.start_date DESC, r.id DESC")
		})

	if opts.ID != nil {
		q = q.Where("b.id = ?", *opts.ID)
	}
	if opts.Title != nil {
		q = q.Where("LOWER(b.title) = LOWER(?)", *opts.Title).Order("b.id ASC").Limit(1)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book")
		}
		return nil, errors.WithStack(err)
	}

	return book, nil
}

func (svc *Service) RetrieveBookByID(ctx context.Context, id int) (*models.Book, error) {
	return svc.RetrieveBook(ctx, RetrieveBookOptions{ID: &id})
}

func (svc *Service) ListBooks(ctx context.Context, opts ListBooksOptions) ([]*models.Book, error) {
	b, _, err := svc.listBooksWithTotal(ctx, opts)
	return b, errors.WithStack(err)
}

func (svc *Service) ListBooksWithTotal(ctx context.Context, opts ListBooksOptions) ([]*models.Book, int, error) {
	opts.includeTotal = true
	return svc.listBooksWithTotal(ctx, opts)
}

func (svc *Service) listBooksWithTotal(ctx context.Context, opts ListBooksOptions) ([]*models.Book, int, error) {
	books := []*models.Book{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&books).
		Relation("Format").
		Relation("Series").
		Relation("Authors.Author").
		// Only the active read, so list entries can show reading progress.
		Relation("Reads", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("r.status = ?", models.ReadStatusReading)
		}).
		Order("b.date_added DESC", "b.id DESC")

	if opts.SeriesID != nil {
		q = q.Where("b.series_id = ?", *opts.SeriesID)
	}
	if opts.FormatID != nil {
		q = q.Where("b.format_id = ?", *opts.FormatID)
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

	return books, total, nil
}

func (svc *Service) CountBooks(ctx context.Context) (int, error) {
	count, err := svc.db.NewSelect().
		Model((*models.Book)(nil)).
		Count(ctx)
	return count, errors.WithStack(err)
}

func (svc *Service) UpdateBook(ctx context.Context, book *models.Book, opts UpdateBookOptions) error {
	if len(opts.Columns) == 0 && opts.AuthorIDs == nil {
		return nil
	}

	if err := validateBook(book, opts.Columns); err != nil {
		return err
	}

	now := time.Now()
	book.UpdatedAt = now
	columns := slices.Concat(opts.Columns, []string{"updated_at"})

	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if err := validateReferences(ctx, tx, book, opts.Columns); err != nil {
			return err
		}

		res, err := tx.
			NewUpdate().
			Model(book).
			Column(columns...).
			WherePK().
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errcodes.NotFound("Book")
		}

		if opts.AuthorIDs != nil {
			return replaceAuthors(ctx, tx, book.ID, *opts.AuthorIDs)
		}
		return nil
	})
}

// DeleteBook removes the book along with its reads and author links. The
// cover file goes last, once the rows are gone.
func (svc *Service) DeleteBook(ctx context.Context, id int) error {
	var coverImagePath *string

	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		book := &models.Book{}
		err := tx.NewSelect().
			Model(book).
			Column("id", "cover_image_path").
			Where("b.id = ?", id).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errcodes.NotFound("Book")
			}
			return errors.WithStack(err)
		}
		coverImagePath = book.CoverImagePath

		_, err = tx.NewDelete().
			Model((*models.Read)(nil)).
			Where("book_id = ?", id).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = tx.NewDelete().
			Model((*models.BookAuthor)(nil)).
			Where("book_id = ?", id).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = tx.NewDelete().
			Model((*models.Book)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return err
	}

	if coverImagePath != nil {
		svc.deleteCoverFile(ctx, id, *coverImagePath)
	}
	return nil
}

// SetCover stores a new cover image for the book and removes the previous
// one.
func (svc *Service) SetCover(ctx context.Context, id int, r io.Reader) (*models.Book, error) {
	book, err := svc.RetrieveBookByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := book.CoverImagePath

	filename, err := svc.covers.StoreCoverImage(ctx, id, r)
	if err != nil {
		return nil, err
	}

	book.CoverImagePath = &filename
	err = svc.UpdateBook(ctx, book, UpdateBookOptions{Columns: []string{"cover_image_path"}})
	if err != nil {
		svc.deleteCoverFile(ctx, id, filename)
		return nil, err
	}

	if previous != nil && *previous != filename {
		svc.deleteCoverFile(ctx, id, *previous)
	}
	return book, nil
}

func (svc *Service) RemoveCover(ctx context.Context, id int) (*models.Book, error) {
	book, err := svc.RetrieveBookByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if book.CoverImagePath == nil {
		return book, nil
	}
	previous := *book.CoverImagePath

	book.CoverImagePath = nil
	err = svc.UpdateBook(ctx, book, UpdateBookOptions{Columns: []string{"cover_image_path"}})
	if err != nil {
		return nil, err
	}

	svc.deleteCoverFile(ctx, id, previous)
	return book, nil
}

// deleteCoverFile only logs failures. The database is already consistent at
// this point and an orphaned file is harmless.
func (svc *Service) deleteCoverFile(ctx context.Context, bookID int, filename string) {
	if err := svc.covers.DeleteCoverImage(ctx, filename); err != nil {
		logger.FromContext(ctx).Err(err).Warn("failed to delete cover image", logger.Data{"book_id": bookID, "filename": filename})
	}
}

func replaceAuthors(ctx context.Context, tx bun.Tx, bookID int, authorIDs []int) error {
	_, err := tx.NewDelete().
		Model((*models.BookAuthor)(nil)).
		Where("book_id = ?", bookID).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	ids := uniqueIDs(authorIDs)
	if len(ids) == 0 {
		return nil
	}

	count, err := tx.NewSelect().
		Model((*models.Author)(nil)).
		Where("id IN (?)", bun.In(ids)).
		Count(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if count != len(ids) {
		return errcodes.ValidationError("One or more authors don't exist.")
	}

	links := make([]*models.BookAuthor, 0, len(ids))
	for _, authorID := range ids {
		links = append(links, &models.BookAuthor{BookID: bookID, AuthorID: authorID})
	}
	_, err = tx.NewInsert().
		Model(&links).
		Exec(ctx)
	return errors.WithStack(err)
}

func uniqueIDs(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Ints(out)
	return out
}

// writesColumn reports whether col is being written. A nil columns list means
// every field is, as on create.
func writesColumn(columns []string, col string) bool {
	if columns == nil {
		return true
	}
	for _, c := range columns {
		if c == col {
			return true
		}
	}
	return false
}

// validateBook checks the fields being written.
func validateBook(book *models.Book, columns []string) error {
	writes := func(col string) bool { return writesColumn(columns, col) }

	if writes("title") {
		book.Title = strings.TrimSpace(book.Title)
		if book.Title == "" {
			return errcodes.ValidationError("Book title can't be empty.")
		}
	}
	if writes("rating") && book.Rating != nil && !models.ValidRating(*book.Rating) {
		return errcodes.ValidationError("Rating must be between 0 and 5 in steps of 0.25.")
	}
	if writes("page_count") && book.PageCount != nil && *book.PageCount < 0 {
		return errcodes.ValidationError("Page count can't be negative.")
	}
	if writes("series_number") && book.SeriesNumber != nil && *book.SeriesNumber < 0 {
		return errcodes.ValidationError("Series number can't be negative.")
	}
	for col, v := range map[string]*float64{"cost": book.Cost, "paid": book.Paid, "discounts": book.Discounts} {
		if writes(col) && v != nil && *v < 0 {
			return errcodes.ValidationError("Amounts can't be negative.")
		}
	}
	return nil
}

func validateReferences(ctx context.Context, tx bun.Tx, book *models.Book, columns []string) error {
	writes := func(col string) bool { return writesColumn(columns, col) }

	if writes("format_id") {
		exists, err := referencedata.FormatExists(ctx, tx, book.FormatID)
		if err != nil {
			return err
		}
		if !exists {
			return errcodes.ValidationError("Format doesn't exist.")
		}
	}
	if writes("series_id") && book.SeriesID != nil {
		exists, err := tx.NewSelect().
			Model((*models.Series)(nil)).
			Where("id = ?", *book.SeriesID).
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if !exists {
			return errcodes.ValidationError("Series doesn't exist.")
		}
	}
	return nil
}
