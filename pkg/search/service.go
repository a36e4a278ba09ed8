package search

import (
	"context"

	"github.com/bookdatabase/bookdb/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

type Service struct {
	db    *bun.DB
	limit int
}

// NewService caps each search at limit rows. Out of range limits fall back to
// the default.
func NewService(db *bun.DB, limit int) *Service {
	if limit < 1 || limit > MaxLimit {
		limit = DefaultLimit
	}
	return &Service{db, limit}
}

// SearchBooks matches the title, subtitle or description, case-insensitively.
func (svc *Service) SearchBooks(ctx context.Context, query string) ([]*models.Book, error) {
	books := []*models.Book{}
	pattern := ContainsPattern(query)
	if pattern == "" {
		return books, nil
	}

	err := svc.db.NewSelect().
		Model(&books).
		Relation("Format").
		Relation("Series").
		Relation("Authors.Author").
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where(`b.title LIKE ? ESCAPE '\'`, pattern).
				WhereOr(`b.subtitle LIKE ? ESCAPE '\'`, pattern).
				WhereOr(`b.description LIKE ? ESCAPE '\'`, pattern)
		}).
		Order("b.id ASC").
		Limit(svc.limit).
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return books, nil
}

func (svc *Service) SearchAuthors(ctx context.Context, query string) ([]*models.Author, error) {
	authors := []*models.Author{}
	pattern := ContainsPattern(query)
	if pattern == "" {
		return authors, nil
	}

	err := svc.db.NewSelect().
		Model(&authors).
		Relation("AliasOf").
		Where(`a.name LIKE ? ESCAPE '\'`, pattern).
		Order("a.id ASC").
		Limit(svc.limit).
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return authors, nil
}

func (svc *Service) SearchSeries(ctx context.Context, query string) ([]*models.Series, error) {
	series := []*models.Series{}
	pattern := ContainsPattern(query)
	if pattern == "" {
		return series, nil
	}

	err := svc.db.NewSelect().
		Model(&series).
		Where(`s.name LIKE ? ESCAPE '\'`, pattern).
		Order("s.id ASC").
		Limit(svc.limit).
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return series, nil
}

// GlobalSearch runs all three searches for the search page.
func (svc *Service) GlobalSearch(ctx context.Context, query string) (*GlobalSearchResponse, error) {
	books, err := svc.SearchBooks(ctx, query)
	if err != nil {
		return nil, err
	}
	authors, err := svc.SearchAuthors(ctx, query)
	if err != nil {
		return nil, err
	}
	series, err := svc.SearchSeries(ctx, query)
	if err != nil {
		return nil, err
	}

	return &GlobalSearchResponse{
		Query:   query,
		Books:   books,
		Authors: authors,
		Series:  series,
	}, nil
}
