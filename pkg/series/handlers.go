package series

import (
	"net/http"
	"strconv"

	"github.com/bookdatabase/bookdb/pkg/errcodes"
	"github.com/bookdatabase/bookdb/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

type handler struct {
	seriesService *Service
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateSeriesPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	series := &models.Series{
		Name:           params.Name,
		NumberInSeries: params.NumberInSeries,
		GoodreadsURL:   nilIfEmpty(params.GoodreadsURL),
		AmazonURL:      nilIfEmpty(params.AmazonURL),
		StorygraphURL:  nilIfEmpty(params.StorygraphURL),
	}
	if err := h.seriesService.CreateSeries(ctx, series); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, series))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Series")
	}

	series, err := h.seriesService.RetrieveSeriesByID(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, series))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListSeriesQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	seriesList, total, err := h.seriesService.ListSeriesWithTotal(ctx, ListSeriesOptions{
		Limit:  &params.Limit,
		Offset: &params.Offset,
		Search: params.Search,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	response := map[string]interface{}{
		"series": seriesList,
		"total":  total,
	}

	return errors.WithStack(c.JSON(http.StatusOK, response))
}

func (h *handler) seriesBooks(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Series")
	}

	books, err := h.seriesService.ListSeriesBooks(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, books))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Series")
	}

	params := UpdateSeriesPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	series, err := h.seriesService.RetrieveSeriesByID(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	// Keep track of what's been changed
	opts := UpdateSeriesOptions{Columns: []string{}}

	if params.Name != nil && *params.Name != series.Name {
		series.Name = *params.Name
		opts.Columns = append(opts.Columns, "name")
	}
	if params.ClearNumberInSeries {
		series.NumberInSeries = nil
		opts.Columns = append(opts.Columns, "number_in_series")
	} else if params.NumberInSeries != nil {
		series.NumberInSeries = params.NumberInSeries
		opts.Columns = append(opts.Columns, "number_in_series")
	}
	if params.GoodreadsURL != nil {
		series.GoodreadsURL = nilIfEmpty(params.GoodreadsURL)
		opts.Columns = append(opts.Columns, "goodreads_url")
	}
	if params.AmazonURL != nil {
		series.AmazonURL = nilIfEmpty(params.AmazonURL)
		opts.Columns = append(opts.Columns, "amazon_url")
	}
	if params.StorygraphURL != nil {
		series.StorygraphURL = nilIfEmpty(params.StorygraphURL)
		opts.Columns = append(opts.Columns, "storygraph_url")
	}

	err = h.seriesService.UpdateSeries(ctx, series, opts)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, series))
}

func (h *handler) deleteSeries(c echo.Context) error {
	ctx := c.Request().Context()
	log := logger.FromContext(ctx)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Series")
	}

	err = h.seriesService.DeleteSeries(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	log.Info("deleted series", logger.Data{"series_id": id})

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}

func nilIfEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
