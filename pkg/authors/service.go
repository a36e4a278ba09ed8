package authors

import (
	"context"
	"database/sql"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/bookdatabase/bookdb/pkg/errcodes"
	"github.com/bookdatabase/bookdb/pkg/models"
	"github.com/bookdatabase/bookdb/pkg/referencedata"
	"github.com/bookdatabase/bookdb/pkg/search"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

const pickerLimit = 10

type RetrieveAuthorOptions struct {
	ID   *int
	Name *string
}

type ListAuthorsOptions struct {
	Limit          *int
	Offset         *int
	Search         *string
	IncludeAliases bool

	includeTotal bool
}

type UpdateAuthorOptions struct {
	Columns []string
}

type DeleteAuthorOptions struct {
	// Detach removes book links and clears aliases pointing at the author
	// instead of refusing the delete.
	Detach bool
}

type PickerOptions struct {
	Query      string
	ExcludeIDs []int
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

func (svc *Service) CreateAuthor(ctx context.Context, author *models.Author) error {
	author.Name = strings.TrimSpace(author.Name)
	if author.Name == "" {
		return errcodes.ValidationError("Author name can't be empty.")
	}

	now := time.Now()
	if author.CreatedAt.IsZero() {
		author.CreatedAt = now
	}
	author.UpdatedAt = author.CreatedAt

	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if err := validateGender(ctx, tx, author.GenderID); err != nil {
			return err
		}
		if author.AliasOfID != nil {
			if err := validateAlias(ctx, tx, 0, *author.AliasOfID); err != nil {
				return err
			}
		}

		_, err := tx.NewInsert().
			Model(author).
			Returning("*").
			Exec(ctx)
		return errors.WithStack(err)
	})
}

// QuickAdd creates an author from just a name, for adding someone while
// filling out a book.
func (svc *Service) QuickAdd(ctx context.Context, name string) (*models.Author, error) {
	author := &models.Author{Name: name}
	if err := svc.CreateAuthor(ctx, author); err != nil {
		return nil, err
	}
	return author, nil
}

func (svc *Service) RetrieveAuthor(ctx context.Context, opts RetrieveAuthorOptions) (*models.Author, error) {
	author := &models.Author{}

	q := svc.db.
		NewSelect().
		Model(author).
		Relation("Gender").
		Relation("AliasOf").
		Relation("Aliases", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("a.name ASC")
		})

	if opts.ID != nil {
		q = q.Where("a.id = ?", *opts.ID)
	}
	if opts.Name != nil {
		q = q.Where("LOWER(a.name) = LOWER(?)", *opts.Name).Order("a.id ASC").Limit(1)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Author")
		}
		return nil, errors.WithStack(err)
	}

	return author, nil
}

func (svc *Service) RetrieveAuthorByID(ctx context.Context, id int) (*models.Author, error) {
	return svc.RetrieveAuthor(ctx, RetrieveAuthorOptions{ID: &id})
}

func (svc *Service) ListAuthors(ctx context.Context, opts ListAuthorsOptions) ([]*models.Author, error) {
	a, _, err := svc.listAuthorsWithTotal(ctx, opts)
	return a, errors.WithStack(err)
}

func (svc *Service) ListAuthorsWithTotal(ctx context.Context, opts ListAuthorsOptions) ([]*models.Author, int, error) {
	opts.includeTotal = true
	return svc.listAuthorsWithTotal(ctx, opts)
}

func (svc *Service) listAuthorsWithTotal(ctx context.Context, opts ListAuthorsOptions) ([]*models.Author, int, error) {
	authors := []*models.Author{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&authors).
		Relation("Gender").
		Relation("AliasOf").
		Order("a.name ASC", "a.id ASC")

	if !opts.IncludeAliases {
		q = q.Where("a.alias_of_id IS NULL")
	}
	if opts.Search != nil {
		if pattern := search.ContainsPattern(*opts.Search); pattern != "" {
			q = q.Where(`a.name LIKE ? ESCAPE '\'`, pattern)
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

	return authors, total, nil
}

// Picker backs the author typeahead on the book form. Aliases are left out so
// books get linked to the name they were published under through the
// canonical author's alias list instead.
func (svc *Service) Picker(ctx context.Context, opts PickerOptions) ([]*models.Author, error) {
	authors := []*models.Author{}

	q := svc.db.
		NewSelect().
		Model(&authors).
		Where("a.alias_of_id IS NULL").
		Order("a.name ASC").
		Limit(pickerLimit)

	if pattern := search.ContainsPattern(opts.Query); pattern != "" {
		q = q.Where(`a.name LIKE ? ESCAPE '\'`, pattern)
	}
	if len(opts.ExcludeIDs) > 0 {
		q = q.Where("a.id NOT IN (?)", bun.In(opts.ExcludeIDs))
	}

	err := q.Scan(ctx)
	return authors, errors.WithStack(err)
}

func (svc *Service) UpdateAuthor(ctx context.Context, author *models.Author, opts UpdateAuthorOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	for _, col := range opts.Columns {
		if col == "name" {
			author.Name = strings.TrimSpace(author.Name)
			if author.Name == "" {
				return errcodes.ValidationError("Author name can't be empty.")
			}
		}
	}

	now := time.Now()
	author.UpdatedAt = now
	columns := slices.Concat(opts.Columns, []string{"updated_at"})

	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		for _, col := range opts.Columns {
			switch col {
			case "gender_id":
				if err := validateGender(ctx, tx, author.GenderID); err != nil {
					return err
				}
			case "alias_of_id":
				if author.AliasOfID != nil {
					if err := validateAlias(ctx, tx, author.ID, *author.AliasOfID); err != nil {
						return err
					}
				}
			}
		}

		res, err := tx.
			NewUpdate().
			Model(author).
			Column(columns...).
			WherePK().
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errcodes.NotFound("Author")
		}
		return nil
	})
}

// DeleteAuthor refuses to delete an author that books or aliases still point
// at unless opts.Detach is set. Books are never deleted along with an author.
func (svc *Service) DeleteAuthor(ctx context.Context, id int, opts DeleteAuthorOptions) error {
	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*models.Author)(nil)).
			Where("id = ?", id).
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if !exists {
			return errcodes.NotFound("Author")
		}

		bookCount, err := tx.NewSelect().
			Model((*models.BookAuthor)(nil)).
			Where("author_id = ?", id).
			Count(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		aliasCount, err := tx.NewSelect().
			Model((*models.Author)(nil)).
			Where("alias_of_id = ?", id).
			Count(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		if !opts.Detach && (bookCount > 0 || aliasCount > 0) {
			var dependents []string
			if bookCount > 0 {
				dependents = append(dependents, pluralize(bookCount, "book"))
			}
			if aliasCount > 0 {
				dependents = append(dependents, pluralize(aliasCount, "alias"))
			}
			return errcodes.ReferentialConflict("Author", dependents...)
		}

		_, err = tx.NewDelete().
			Model((*models.BookAuthor)(nil)).
			Where("author_id = ?", id).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = tx.NewUpdate().
			Model((*models.Author)(nil)).
			Set("alias_of_id = NULL").
			Set("updated_at = ?", time.Now()).
			Where("alias_of_id = ?", id).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = tx.NewDelete().
			Model((*models.Author)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		return errors.WithStack(err)
	})
}

// ListBooksByAuthor returns the books linked directly to the author, newest
// first.
func (svc *Service) ListBooksByAuthor(ctx context.Context, id int) ([]*models.Book, error) {
	if _, err := svc.RetrieveAuthorByID(ctx, id); err != nil {
		return nil, err
	}

	books := []*models.Book{}
	err := svc.db.NewSelect().
		Model(&books).
		Relation("Format").
		Relation("Series").
		Relation("Authors.Author").
		Where("b.id IN (SELECT book_id FROM book_authors WHERE author_id = ?)", id).
		Order("b.date_added DESC", "b.id DESC").
		Scan(ctx)
	return books, errors.WithStack(err)
}

func validateGender(ctx context.Context, db bun.IDB, genderID *int) error {
	if genderID == nil {
		return nil
	}
	exists, err := referencedata.GenderExists(ctx, db, *genderID)
	if err != nil {
		return err
	}
	if !exists {
		return errcodes.ValidationError("Gender doesn't exist.")
	}
	return nil
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	if strings.HasSuffix(noun, "s") {
		return strconv.Itoa(n) + " " + noun + "es"
	}
	return strconv.Itoa(n) + " " + noun + "s"
}
