package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		// At most one in-progress read per book.
		_, err := db.Exec(`CREATE UNIQUE INDEX ux_reads_active_book ON reads (book_id) WHERE status = 'Reading'`)
		return errors.WithStack(err)
	}

	down := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec(`DROP INDEX IF EXISTS ux_reads_active_book`)
		return errors.WithStack(err)
	}

	Migrations.MustRegister(up, down)
}
