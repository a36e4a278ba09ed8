package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"time"

	"github.com/bookdatabase/bookdb/pkg/config"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type logQueryHook struct {
	log logger.Logger
}

func (*logQueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (qh *logQueryHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	data := logger.Data{"duration_ms": time.Since(event.StartTime).Milliseconds()}
	if event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) {
		data["error"] = event.Err.Error()
	}
	qh.log.Debug(event.Query, data)
}

// New opens the SQLite database, verifies the connection and applies the
// pragmas the services rely on.
func New(cfg *config.Config) (*bun.DB, error) {
	drv := sqliteshim.Driver()
	drvCtx, ok := drv.(driver.DriverContext)
	var connector driver.Connector
	if ok {
		c, err := drvCtx.OpenConnector(cfg.DatabaseFilePath)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		connector = c
	} else {
		connector = newDriverConnector(drv, cfg.DatabaseFilePath)
	}

	sqldb := sql.OpenDB(newRetryConnector(connector, cfg.DatabaseMaxRetries))

	// A single connection serializes writers, and keeps per-connection pragmas
	// (and :memory: databases) consistent for every query.
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	if cfg.DatabaseDebug {
		db.AddQueryHook(&logQueryHook{logger.NewWithLevel("debug")})
	}

	var err error
	for i := 0; i < cfg.DatabaseConnectRetryCount; i++ {
		_, err = db.Exec("SELECT 1")
		if err == nil {
			break
		}
		time.Sleep(cfg.DatabaseConnectRetryDelay)
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if err := Configure(db, cfg.DatabaseBusyTimeout); err != nil {
		return nil, err
	}

	return db, nil
}

// Configure applies the pragmas every connection needs. Tests that open their
// own in-memory database call this directly.
func Configure(db *bun.DB, busyTimeout time.Duration) error {
	_, err := db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return errors.Wrap(err, "failed to enable foreign keys")
	}

	// WAL lets readers proceed while a write transaction is open.
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		return errors.Wrap(err, "failed to enable WAL mode")
	}

	_, err = db.Exec("PRAGMA busy_timeout=?", busyTimeout.Milliseconds())
	if err != nil {
		return errors.Wrap(err, "failed to set busy_timeout")
	}

	return nil
}

// IsUniqueViolation reports whether err came from a UNIQUE constraint or a
// unique index.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return containsAny(err.Error(), "UNIQUE constraint failed", "constraint failed: UNIQUE")
}
