package authors

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers author routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB) {
	h := &handler{
		authorService: NewService(db),
	}

	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/picker", h.picker)
	g.POST("/quick-add", h.quickAdd)
	g.GET("/:id", h.retrieve)
	g.GET("/:id/canonical", h.canonical)
	g.GET("/:id/books", h.books)
	g.PATCH("/:id", h.update)
	g.DELETE("/:id", h.delete)
}
