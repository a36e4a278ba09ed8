package reads

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/bookdatabase/bookdb/pkg/database"
	"github.com/bookdatabase/bookdb/pkg/errcodes"
	"github.com/bookdatabase/bookdb/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

const activeReadConflict = "This book already has a read in progress."

// bookLocks serialises read mutations per book across every Service in the
// process. The partial unique index on reads is the last line behind it.
var bookLocks sync.Map // map[int]*sync.Mutex

func lockBook(bookID int) func() {
	mu, _ := bookLocks.LoadOrStore(bookID, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

// EditReadOptions describes a correction to an existing read. Unlike
// UpdateReadStatus, any status change is allowed here.
type EditReadOptions struct {
	StartDate       *time.Time
	FinishDate      *time.Time
	Status          *string
	ClearStartDate  bool
	ClearFinishDate bool
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// StartRead begins a new read of the book. startDate defaults to now.
func (svc *Service) StartRead(ctx context.Context, bookID int, startDate *time.Time) (*models.Read, error) {
	if startDate == nil {
		now := time.Now()
		startDate = &now
	}
	read := &models.Read{
		BookID:    bookID,
		StartDate: startDate,
		Status:    models.ReadStatusReading,
	}
	if err := svc.RecordRead(ctx, read); err != nil {
		return nil, err
	}
	return read, nil
}

// RecordRead inserts a read with whatever status it carries. Only reads in
// the Reading status are checked against the book's other reads.
func (svc *Service) RecordRead(ctx context.Context, read *models.Read) error {
	if !models.IsValidReadStatus(read.Status) {
		return errcodes.ValidationError("Read status must be one of Reading, Completed or Abandoned.")
	}
	if read.CreatedAt.IsZero() {
		read.CreatedAt = time.Now()
	}

	unlock := lockBook(read.BookID)
	defer unlock()

	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*models.Book)(nil)).
			Where("id = ?", read.BookID).
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if !exists {
			return errcodes.NotFound("Book")
		}

		if read.Status == models.ReadStatusReading {
			if err := ensureNoActiveRead(ctx, tx, read.BookID, 0); err != nil {
				return err
			}
		}

		_, err = tx.NewInsert().
			Model(read).
			Returning("*").
			Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return translateWriteError(err)
	}

	logger.FromContext(ctx).Info("recorded read", logger.Data{"read_id": read.ID, "book_id": read.BookID, "status": read.Status})
	return nil
}

// UpdateReadStatus moves an active read to Completed or Abandoned. Completing
// a read without a finish date stamps it with now. Abandoning one only sets
// the finish date when given.
func (svc *Service) UpdateReadStatus(ctx context.Context, readID int, status string, finishDate *time.Time) (*models.Read, error) {
	if !models.IsValidReadStatus(status) {
		return nil, errcodes.ValidationError("Read status must be one of Reading, Completed or Abandoned.")
	}

	read, err := svc.RetrieveRead(ctx, readID)
	if err != nil {
		return nil, err
	}

	unlock := lockBook(read.BookID)
	defer unlock()

	err = svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		// Reload under the lock, the status may have moved on.
		if err := tx.NewSelect().Model(read).WherePK().Scan(ctx); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errcodes.NotFound("Read")
			}
			return errors.WithStack(err)
		}

		if read.Status != models.ReadStatusReading || status == models.ReadStatusReading {
			return errcodes.InvalidTransition(read.Status, status)
		}

		read.Status = status
		switch {
		case finishDate != nil:
			read.FinishDate = finishDate
		case status == models.ReadStatusCompleted:
			now := time.Now()
			read.FinishDate = &now
		}

		_, err := tx.NewUpdate().
			Model(read).
			Column("status", "finish_date").
			WherePK().
			Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, translateWriteError(err)
	}

	return read, nil
}

// EditRead corrects a read's dates or status. Moving a read back to Reading
// still has to respect the single active read rule.
func (svc *Service) EditRead(ctx context.Context, readID int, opts EditReadOptions) (*models.Read, error) {
	if opts.Status != nil && !models.IsValidReadStatus(*opts.Status) {
		return nil, errcodes.ValidationError("Read status must be one of Reading, Completed or Abandoned.")
	}

	read, err := svc.RetrieveRead(ctx, readID)
	if err != nil {
		return nil, err
	}

	unlock := lockBook(read.BookID)
	defer unlock()

	err = svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if err := tx.NewSelect().Model(read).WherePK().Scan(ctx); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errcodes.NotFound("Read")
			}
			return errors.WithStack(err)
		}

		columns := []string{}
		if opts.ClearStartDate {
			read.StartDate = nil
			columns = append(columns, "start_date")
		} else if opts.StartDate != nil {
			read.StartDate = opts.StartDate
			columns = append(columns, "start_date")
		}
		if opts.ClearFinishDate {
			read.FinishDate = nil
			columns = append(columns, "finish_date")
		} else if opts.FinishDate != nil {
			read.FinishDate = opts.FinishDate
			columns = append(columns, "finish_date")
		}
		if opts.Status != nil {
			read.Status = *opts.Status
			columns = append(columns, "status")
		}
		if len(columns) == 0 {
			return nil
		}

		if read.Status == models.ReadStatusReading {
			if err := ensureNoActiveRead(ctx, tx, read.BookID, read.ID); err != nil {
				return err
			}
		}

		_, err := tx.NewUpdate().
			Model(read).
			Column(columns...).
			WherePK().
			Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, translateWriteError(err)
	}

	return read, nil
}

func (svc *Service) DeleteRead(ctx context.Context, readID int) error {
	read, err := svc.RetrieveRead(ctx, readID)
	if err != nil {
		return err
	}

	unlock := lockBook(read.BookID)
	defer unlock()

	res, err := svc.db.NewDelete().
		Model((*models.Read)(nil)).
		Where("id = ?", readID).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errcodes.NotFound("Read")
	}
	return nil
}

func (svc *Service) RetrieveRead(ctx context.Context, readID int) (*models.Read, error) {
	read := &models.Read{}
	err := svc.db.NewSelect().
		Model(read).
		Where("r.id = ?", readID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Read")
		}
		return nil, errors.WithStack(err)
	}
	return read, nil
}

// ListReadsForBook returns the newest reads first. Reads without a start
// date sort last.
func (svc *Service) ListReadsForBook(ctx context.Context, bookID int) ([]*models.Read, error) {
	exists, err := svc.db.NewSelect().
		Model((*models.Book)(nil)).
		Where("id = ?", bookID).
		Exists(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if !exists {
		return nil, errcodes.NotFound("Book")
	}

	reads := []*models.Read{}
	err = svc.db.NewSelect().
		Model(&reads).
		Where("r.book_id = ?", bookID).
		OrderExpr("r.start_date IS NULL, r.start_date DESC, r.id DESC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return reads, nil
}

// ListActiveReads returns every read in progress along with its book, most
// recently started first.
func (svc *Service) ListActiveReads(ctx context.Context) ([]*models.Read, error) {
	reads := []*models.Read{}
	err := svc.db.NewSelect().
		Model(&reads).
		Relation("Book").
		Relation("Book.Format").
		Relation("Book.Series").
		Where("r.status = ?", models.ReadStatusReading).
		OrderExpr("r.start_date IS NULL, r.start_date DESC, r.id DESC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return reads, nil
}

// CountReads counts reads with the given status, or all reads when status is
// empty.
func (svc *Service) CountReads(ctx context.Context, status string) (int, error) {
	q := svc.db.NewSelect().Model((*models.Read)(nil))
	if status != "" {
		q = q.Where("status = ?", status)
	}
	count, err := q.Count(ctx)
	return count, errors.WithStack(err)
}

func ensureNoActiveRead(ctx context.Context, tx bun.Tx, bookID, excludeID int) error {
	q := tx.NewSelect().
		Model((*models.Read)(nil)).
		Where("book_id = ?", bookID).
		Where("status = ?", models.ReadStatusReading)
	if excludeID != 0 {
		q = q.Where("id != ?", excludeID)
	}
	exists, err := q.Exists(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if exists {
		return errcodes.Conflict(activeReadConflict)
	}
	return nil
}

// translateWriteError turns a hit on the active read index into the same
// conflict the in-process check reports.
func translateWriteError(err error) error {
	if database.IsUniqueViolation(err) {
		return errcodes.Conflict(activeReadConflict)
	}
	return err
}
