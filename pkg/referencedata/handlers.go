package referencedata

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	referenceDataService *Service
}

func (h *handler) listFormats(c echo.Context) error {
	formats, err := h.referenceDataService.ListFormats(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(c.JSON(http.StatusOK, formats))
}

func (h *handler) listGenders(c echo.Context) error {
	genders, err := h.referenceDataService.ListGenders(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(c.JSON(http.StatusOK, genders))
}
