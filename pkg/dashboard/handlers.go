package dashboard

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	dashboardService *Service
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	dashboard, err := h.dashboardService.RetrieveDashboard(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, dashboard))
}
