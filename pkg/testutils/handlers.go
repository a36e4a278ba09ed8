package testutils

import (
	"net/http"
	"strings"

	"github.com/bookdatabase/bookdb/pkg/importer"
	"github.com/bookdatabase/bookdb/pkg/models"
	"github.com/bookdatabase/bookdb/pkg/referencedata"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type handler struct {
	db       *bun.DB
	importer *importer.Importer
}

// resetResponse is the response body for wiping the catalogue.
type resetResponse struct {
	Books   int `json:"books"`
	Authors int `json:"authors"`
	Series  int `json:"series"`
}

// reset deletes every book, author, series and read, along with stored
// covers, and restores the default reference data.
// DELETE /test/data.
func (h *handler) reset(c echo.Context) error {
	ctx := c.Request().Context()

	resp := resetResponse{}
	counts := []struct {
		model interface{}
		n     *int
	}{
		{(*models.Book)(nil), &resp.Books},
		{(*models.Author)(nil), &resp.Authors},
		{(*models.Series)(nil), &resp.Series},
	}
	for _, count := range counts {
		n, err := h.db.NewSelect().Model(count.model).Count(ctx)
		if err != nil {
			return errors.Wrap(err, "failed to count rows")
		}
		*count.n = n
	}

	// An empty import with Clear set wipes everything an import would
	// create.
	_, err := h.importer.Import(ctx, strings.NewReader("{}"), importer.Options{Clear: true, SkipCovers: true})
	if err != nil {
		return errors.Wrap(err, "failed to clear catalogue")
	}

	if err := referencedata.Seed(ctx, h.db); err != nil {
		return errors.WithStack(err)
	}

	return c.JSON(http.StatusOK, resp)
}

// importCatalogue loads an export from the request body.
// POST /test/import.
func (h *handler) importCatalogue(c echo.Context) error {
	ctx := c.Request().Context()
	defer c.Request().Body.Close()

	summary, err := h.importer.Import(ctx, c.Request().Body, importer.Options{SkipCovers: true})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, summary)
}
