package referencedata

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

func RegisterRoutes(e *echo.Echo, db *bun.DB) {
	h := &handler{referenceDataService: NewService(db)}

	e.GET("/formats", h.listFormats)
	e.GET("/genders", h.listGenders)
}
