package reads

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers the read routes nested under books as well as the
// top-level /reads routes.
func RegisterRoutes(e *echo.Echo, db *bun.DB) {
	h := &handler{
		readService: NewService(db),
	}

	e.GET("/books/:id/reads", h.listForBook)
	e.POST("/books/:id/reads", h.create)

	g := e.Group("/reads")
	g.PATCH("/:id", h.edit)
	g.POST("/:id/status", h.updateStatus)
	g.DELETE("/:id", h.delete)
}
