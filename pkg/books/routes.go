package books

import (
	"github.com/bookdatabase/bookdb/pkg/covers"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers book routes on a pre-configured group.
// Reading sessions under /books/:id/reads are registered by the reads
// package.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, storage covers.Storage) {
	h := &handler{
		bookService: NewService(db, storage),
	}

	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.retrieve)
	g.PATCH("/:id", h.update)
	g.DELETE("/:id", h.delete)
	g.POST("/:id/cover", h.uploadCover)
	g.DELETE("/:id/cover", h.removeCover)
}
