// Package testutils provides test-only API endpoints.
// These routes are only registered when ENVIRONMENT=test.
package testutils

import (
	"github.com/bookdatabase/bookdb/pkg/importer"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers test-only routes.
// These endpoints should ONLY be registered in test environments.
func RegisterRoutes(e *echo.Echo, db *bun.DB, storage importer.CoverStore) {
	h := &handler{db: db, importer: importer.New(db, storage)}

	test := e.Group("/test")
	test.DELETE("/data", h.reset)
	test.POST("/import", h.importCatalogue)
}
