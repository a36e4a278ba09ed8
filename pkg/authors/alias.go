package authors

import (
	"context"
	"database/sql"

	"github.com/bookdatabase/bookdb/pkg/errcodes"
	"github.com/bookdatabase/bookdb/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// validateAlias checks that pointing authorID at targetID keeps the alias
// graph acyclic. authorID is 0 for an author that hasn't been inserted yet.
func validateAlias(ctx context.Context, db bun.IDB, authorID, targetID int) error {
	if authorID != 0 && authorID == targetID {
		return errcodes.Cycle("An author can't be an alias of itself.")
	}

	bound, err := db.NewSelect().Model((*models.Author)(nil)).Count(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	visited := map[int]bool{}
	current := targetID
	for step := 0; step <= bound; step++ {
		if current == authorID {
			return errcodes.Cycle("Alias chain would loop back to this author.")
		}
		if visited[current] {
			return errcodes.Cycle("Alias chain already contains a loop.")
		}
		visited[current] = true

		next, err := aliasOf(ctx, db, current)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errcodes.NotFound("Author")
			}
			return err
		}
		if next == nil {
			return nil
		}
		current = *next
	}

	return errcodes.Cycle("Alias chain is too long.")
}

// ResolveCanonical follows alias links from the author to the one that isn't
// an alias of anybody.
func (svc *Service) ResolveCanonical(ctx context.Context, id int) (*models.Author, error) {
	bound, err := svc.db.NewSelect().Model((*models.Author)(nil)).Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	visited := map[int]bool{}
	current := id
	for step := 0; step <= bound; step++ {
		if visited[current] {
			return nil, errcodes.Cycle("Alias chain contains a loop.")
		}
		visited[current] = true

		next, err := aliasOf(ctx, svc.db, current)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, errcodes.NotFound("Author")
			}
			return nil, err
		}
		if next == nil {
			return svc.RetrieveAuthorByID(ctx, current)
		}
		current = *next
	}

	return nil, errcodes.Cycle("Alias chain contains a loop.")
}

func aliasOf(ctx context.Context, db bun.IDB, id int) (*int, error) {
	var aliasOfID sql.NullInt64
	err := db.NewSelect().
		Model((*models.Author)(nil)).
		Column("alias_of_id").
		Where("id = ?", id).
		Scan(ctx, &aliasOfID)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if !aliasOfID.Valid {
		return nil, nil
	}
	next := int(aliasOfID.Int64)
	return &next, nil
}
