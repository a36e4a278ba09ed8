package reads

import (
	"net/http"
	"strconv"

	"github.com/bookdatabase/bookdb/pkg/binder"
	"github.com/bookdatabase/bookdb/pkg/errcodes"
	"github.com/bookdatabase/bookdb/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	readService *Service
}

func (h *handler) listForBook(c echo.Context) error {
	ctx := c.Request().Context()
	bookID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	reads, err := h.readService.ListReadsForBook(ctx, bookID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, reads))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()
	bookID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	// An empty body just starts a read today.
	binder.AllowEmptyBody(c)
	params := CreateReadPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	startDate, err := binder.ParseDate(params.StartDate)
	if err != nil {
		return errors.WithStack(err)
	}
	finishDate, err := binder.ParseDate(params.FinishDate)
	if err != nil {
		return errors.WithStack(err)
	}

	var read *models.Read
	if params.Status == "" {
		if finishDate != nil {
			return errcodes.ValidationError(`"finish_date" requires a "status"`)
		}
		read, err = h.readService.StartRead(ctx, bookID, startDate)
	} else {
		read = &models.Read{
			BookID:     bookID,
			StartDate:  startDate,
			FinishDate: finishDate,
			Status:     params.Status,
		}
		err = h.readService.RecordRead(ctx, read)
	}
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, read))
}

func (h *handler) updateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Read")
	}

	params := UpdateReadStatusPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}
	finishDate, err := binder.ParseDate(params.FinishDate)
	if err != nil {
		return errors.WithStack(err)
	}

	read, err := h.readService.UpdateReadStatus(ctx, id, params.Status, finishDate)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, read))
}

func (h *handler) edit(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Read")
	}

	params := EditReadPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	opts := EditReadOptions{Status: params.Status}
	if params.StartDate != nil {
		if opts.StartDate, err = binder.ParseDate(*params.StartDate); err != nil {
			return errors.WithStack(err)
		}
	}
	if params.FinishDate != nil {
		if opts.FinishDate, err = binder.ParseDate(*params.FinishDate); err != nil {
			return errors.WithStack(err)
		}
	}
	for _, col := range params.Clear {
		switch col {
		case "start_date":
			opts.ClearStartDate = true
		case "finish_date":
			opts.ClearFinishDate = true
		}
	}

	read, err := h.readService.EditRead(ctx, id, opts)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, read))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Read")
	}

	if err := h.readService.DeleteRead(ctx, id); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}
