package search

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, limit int) {
	h := &handler{
		searchService: NewService(db, limit),
	}

	g.GET("", h.globalSearch)
}
