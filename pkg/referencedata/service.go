package referencedata

import (
	"context"
	"database/sql"
	"strings"

	"github.com/bookdatabase/bookdb/pkg/errcodes"
	"github.com/bookdatabase/bookdb/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

var DefaultFormats = []string{
	"Kindle",
	"Kobo",
	"ePub",
	"Hardcover",
	"Paperback",
	"Comic Archive",
	"Audiobook",
	"PDF",
}

var DefaultGenders = []string{
	"Female",
	"Male",
	"Nonbinary",
	"Unknown",
}

// Seed inserts any missing default formats and genders. Existing rows are
// left alone, so running it again is a no-op.
func Seed(ctx context.Context, db bun.IDB) error {
	formats := make([]*models.Format, 0, len(DefaultFormats))
	for _, name := range DefaultFormats {
		formats = append(formats, &models.Format{Name: name})
	}
	_, err := db.NewInsert().
		Model(&formats).
		On("CONFLICT (name) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to seed formats")
	}

	genders := make([]*models.Gender, 0, len(DefaultGenders))
	for _, name := range DefaultGenders {
		genders = append(genders, &models.Gender{Name: name})
	}
	_, err = db.NewInsert().
		Model(&genders).
		On("CONFLICT (name) DO NOTHING").
		Exec(ctx)
	return errors.Wrap(err, "failed to seed genders")
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

func (svc *Service) ListFormats(ctx context.Context) ([]*models.Format, error) {
	var formats []*models.Format
	err := svc.db.NewSelect().
		Model(&formats).
		Order("f.id ASC").
		Scan(ctx)
	return formats, errors.WithStack(err)
}

func (svc *Service) ListGenders(ctx context.Context) ([]*models.Gender, error) {
	var genders []*models.Gender
	err := svc.db.NewSelect().
		Model(&genders).
		Order("g.id ASC").
		Scan(ctx)
	return genders, errors.WithStack(err)
}

// RetrieveFormatByName matches case-insensitively.
func (svc *Service) RetrieveFormatByName(ctx context.Context, name string) (*models.Format, error) {
	format := &models.Format{}
	err := svc.db.NewSelect().
		Model(format).
		Where("LOWER(f.name) = LOWER(?)", name).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Format")
		}
		return nil, errors.WithStack(err)
	}
	return format, nil
}

// RetrieveGenderByName matches case-insensitively.
func (svc *Service) RetrieveGenderByName(ctx context.Context, name string) (*models.Gender, error) {
	gender := &models.Gender{}
	err := svc.db.NewSelect().
		Model(gender).
		Where("LOWER(g.name) = LOWER(?)", name).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Gender")
		}
		return nil, errors.WithStack(err)
	}
	return gender, nil
}

// FindOrCreateFormat returns the format with the given name, adding it when
// it isn't known yet.
func (svc *Service) FindOrCreateFormat(ctx context.Context, name string) (*models.Format, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, errcodes.ValidationError("Format name can't be empty.")
	}
	format, err := svc.RetrieveFormatByName(ctx, name)
	if err == nil {
		return format, false, nil
	}
	if !errcodes.HasCode(err, errcodes.CodeNotFound) {
		return nil, false, err
	}

	format = &models.Format{Name: name}
	_, err = svc.db.NewInsert().
		Model(format).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, false, errors.WithStack(err)
	}
	return format, true, nil
}

// FindOrCreateGender returns the gender with the given name, adding it when
// it isn't known yet.
func (svc *Service) FindOrCreateGender(ctx context.Context, name string) (*models.Gender, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, errcodes.ValidationError("Gender name can't be empty.")
	}
	gender, err := svc.RetrieveGenderByName(ctx, name)
	if err == nil {
		return gender, false, nil
	}
	if !errcodes.HasCode(err, errcodes.CodeNotFound) {
		return nil, false, err
	}

	gender = &models.Gender{Name: name}
	_, err = svc.db.NewInsert().
		Model(gender).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, false, errors.WithStack(err)
	}
	return gender, true, nil
}

// FormatExists is used by the book service to reject unknown format ids
// with a validation error rather than a foreign key failure.
func FormatExists(ctx context.Context, db bun.IDB, id int) (bool, error) {
	exists, err := db.NewSelect().
		Model((*models.Format)(nil)).
		Where("id = ?", id).
		Exists(ctx)
	return exists, errors.WithStack(err)
}

func GenderExists(ctx context.Context, db bun.IDB, id int) (bool, error) {
	exists, err := db.NewSelect().
		Model((*models.Gender)(nil)).
		Where("id = ?", id).
		Exists(ctx)
	return exists, errors.WithStack(err)
}
