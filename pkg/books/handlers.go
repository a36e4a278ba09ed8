package books

import (
	"net/http"
	"strconv"

	"github.com/bookdatabase/bookdb/pkg/binder"
	"github.com/bookdatabase/bookdb/pkg/errcodes"
	"github.com/bookdatabase/bookdb/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

const coverFormField = "cover"

type handler struct {
	bookService *Service
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	book := &models.Book{
		Title:        params.Title,
		Subtitle:     nilIfEmpty(params.Subtitle),
		Description:  nilIfEmpty(params.Description),
		PageCount:    params.PageCount,
		SeriesID:     params.SeriesID,
		SeriesNumber: params.SeriesNumber,
		FormatID:     params.FormatID,
		Cost:         params.Cost,
		Paid:         params.Paid,
		Discounts:    params.Discounts,
		IsBundle:     params.IsBundle,
		BundledBooks: nilIfEmpty(params.BundledBooks),
		Rating:       params.Rating,
		Comment:      nilIfEmpty(params.Comment),
	}

	dateAdded, err := binder.ParseDate(params.DateAdded)
	if err != nil {
		return errors.WithStack(err)
	}
	if dateAdded != nil {
		book.DateAdded = *dateAdded
	}
	book.DatePurchased, err = binder.ParseDate(params.DatePurchased)
	if err != nil {
		return errors.WithStack(err)
	}

	if err := h.bookService.CreateBook(ctx, book, params.AuthorIDs); err != nil {
		return errors.WithStack(err)
	}

	book, err = h.bookService.RetrieveBookByID(ctx, book.ID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, book))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	book, err := h.bookService.RetrieveBookByID(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, book))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListBooksQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	books, total, err := h.bookService.ListBooksWithTotal(ctx, ListBooksOptions{
		Limit:    &params.Limit,
		Offset:   &params.Offset,
		SeriesID: params.SeriesID,
		FormatID: params.FormatID,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Books []*models.Book `json:"books"`
		Total int            `json:"total"`
	}{books, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	params := UpdateBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	book, err := h.bookService.RetrieveBookByID(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	opts, err := applyUpdate(book, params)
	if err != nil {
		return errors.WithStack(err)
	}

	if err := h.bookService.UpdateBook(ctx, book, opts); err != nil {
		return errors.WithStack(err)
	}

	book, err = h.bookService.RetrieveBookByID(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, book))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	if err := h.bookService.DeleteBook(ctx, id); err != nil {
		return errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("deleted book", logger.Data{"book_id": id})

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}

func (h *handler) uploadCover(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	params := UploadCoverPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	header, ok := params.FormFiles[coverFormField]
	if !ok {
		return errcodes.ValidationError(`"cover" file is required`)
	}
	file, err := header.Open()
	if err != nil {
		return errors.WithStack(err)
	}
	defer file.Close()

	book, err := h.bookService.SetCover(ctx, id, file)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, book))
}

func (h *handler) removeCover(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	book, err := h.bookService.RemoveCover(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, book))
}

// applyUpdate copies the present payload fields onto book and returns the
// columns that changed.
func applyUpdate(book *models.Book, params UpdateBookPayload) (UpdateBookOptions, error) {
	opts := UpdateBookOptions{Columns: []string{}, AuthorIDs: params.AuthorIDs}
	set := func(col string) { opts.Columns = append(opts.Columns, col) }

	if params.Title != nil && *params.Title != book.Title {
		book.Title = *params.Title
		set("title")
	}
	if params.Subtitle != nil {
		book.Subtitle = nilIfEmpty(params.Subtitle)
		set("subtitle")
	}
	if params.Description != nil {
		book.Description = nilIfEmpty(params.Description)
		set("description")
	}
	if params.PageCount != nil {
		book.PageCount = params.PageCount
		set("page_count")
	}
	if params.SeriesID != nil {
		book.SeriesID = params.SeriesID
		set("series_id")
	}
	if params.SeriesNumber != nil {
		book.SeriesNumber = params.SeriesNumber
		set("series_number")
	}
	if params.FormatID != nil {
		book.FormatID = *params.FormatID
		set("format_id")
	}
	if params.Cost != nil {
		book.Cost = params.Cost
		set("cost")
	}
	if params.Paid != nil {
		book.Paid = params.Paid
		set("paid")
	}
	if params.Discounts != nil {
		book.Discounts = params.Discounts
		set("discounts")
	}
	if params.IsBundle != nil {
		book.IsBundle = *params.IsBundle
		set("is_bundle")
	}
	if params.BundledBooks != nil {
		book.BundledBooks = nilIfEmpty(params.BundledBooks)
		set("bundled_books")
	}
	if params.Rating != nil {
		book.Rating = params.Rating
		set("rating")
	}
	if params.Comment != nil {
		book.Comment = nilIfEmpty(params.Comment)
		set("comment")
	}
	if params.DateAdded != nil {
		d, err := binder.ParseDate(*params.DateAdded)
		if err != nil {
			return opts, err
		}
		if d == nil {
			return opts, errcodes.ValidationError(`"date_added" cannot be empty`)
		}
		book.DateAdded = *d
		set("date_added")
	}
	if params.DatePurchased != nil {
		d, err := binder.ParseDate(*params.DatePurchased)
		if err != nil {
			return opts, err
		}
		book.DatePurchased = d
		set("date_purchased")
	}

	for _, col := range params.Clear {
		switch col {
		case "subtitle":
			book.Subtitle = nil
		case "description":
			book.Description = nil
		case "page_count":
			book.PageCount = nil
		case "series_id":
			book.SeriesID = nil
			book.SeriesNumber = nil
			set("series_number")
		case "series_number":
			book.SeriesNumber = nil
		case "cost":
			book.Cost = nil
		case "paid":
			book.Paid = nil
		case "discounts":
			book.Discounts = nil
		case "bundled_books":
			book.BundledBooks = nil
		case "rating":
			book.Rating = nil
		case "comment":
			book.Comment = nil
		case "date_purchased":
			book.DatePurchased = nil
		}
		set(col)
	}

	return opts, nil
}

func nilIfEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
