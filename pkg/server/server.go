package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/bookdatabase/bookdb/pkg/authors"
	"github.com/bookdatabase/bookdb/pkg/binder"
	"github.com/bookdatabase/bookdb/pkg/books"
	"github.com/bookdatabase/bookdb/pkg/config"
	"github.com/bookdatabase/bookdb/pkg/covers"
	"github.com/bookdatabase/bookdb/pkg/dashboard"
	"github.com/bookdatabase/bookdb/pkg/errcodes"
	"github.com/bookdatabase/bookdb/pkg/reads"
	"github.com/bookdatabase/bookdb/pkg/referencedata"
	"github.com/bookdatabase/bookdb/pkg/search"
	"github.com/bookdatabase/bookdb/pkg/series"
	"github.com/bookdatabase/bookdb/pkg/testutils"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/uptrace/bun"
)

// multipartOverhead leaves room for form boundaries on top of the largest
// accepted cover.
const multipartOverhead = 1

func New(cfg *config.Config, db *bun.DB, storage *covers.LocalStorage) (*http.Server, error) {
	e, err := newEcho(cfg, db, storage)
	if err != nil {
		return nil, err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

func newEcho(cfg *config.Config, db *bun.DB, storage *covers.LocalStorage) (*echo.Echo, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", cfg.MaxUploadSizeMB+multipartOverhead)))

	health.RegisterRoutes(e)

	registerRoutes(e, cfg, db, storage)

	// Covers are served straight from the upload directory.
	e.Static("/uploads", storage.Dir())

	if cfg.Environment == config.EnvironmentTest {
		testutils.RegisterRoutes(e, db, storage)
	}

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	return e, nil
}

func registerRoutes(e *echo.Echo, cfg *config.Config, db *bun.DB, storage covers.Storage) {
	dashboard.RegisterRoutes(e, db)
	referencedata.RegisterRoutes(e, db)

	books.RegisterRoutesWithGroup(e.Group("/books"), db, storage)
	// Registers /books/:id/reads alongside /reads.
	reads.RegisterRoutes(e, db)

	authors.RegisterRoutesWithGroup(e.Group("/authors"), db)
	series.RegisterRoutesWithGroup(e.Group("/series"), db)
	search.RegisterRoutesWithGroup(e.Group("/search"), db, cfg.SearchResultLimit)
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
