package authors

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/bookdatabase/bookdb/pkg/errcodes"
	"github.com/bookdatabase/bookdb/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

type handler struct {
	authorService *Service
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateAuthorPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	author := &models.Author{
		Name:          params.Name,
		Pronouns:      nilIfEmpty(params.Pronouns),
		GenderID:      params.GenderID,
		GoodreadsURL:  nilIfEmpty(params.GoodreadsURL),
		AmazonURL:     nilIfEmpty(params.AmazonURL),
		StorygraphURL: nilIfEmpty(params.StorygraphURL),
		Website:       nilIfEmpty(params.Website),
		AliasOfID:     params.AliasOfID,
	}
	if err := h.authorService.CreateAuthor(ctx, author); err != nil {
		return errors.WithStack(err)
	}

	author, err := h.authorService.RetrieveAuthorByID(ctx, author.ID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, author))
}

func (h *handler) quickAdd(c echo.Context) error {
	ctx := c.Request().Context()

	params := QuickAddPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	author, err := h.authorService.QuickAdd(ctx, params.Name)
	if err != nil {
		return errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("quick-added author", logger.Data{"author_id": author.ID})

	return errors.WithStack(c.JSON(http.StatusCreated, author))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Author")
	}

	author, err := h.authorService.RetrieveAuthorByID(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, author))
}

func (h *handler) canonical(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Author")
	}

	author, err := h.authorService.ResolveCanonical(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, author))
}

func (h *handler) books(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Author")
	}

	books, err := h.authorService.ListBooksByAuthor(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, books))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListAuthorsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	authors, total, err := h.authorService.ListAuthorsWithTotal(ctx, ListAuthorsOptions{
		Limit:          &params.Limit,
		Offset:         &params.Offset,
		Search:         params.Search,
		IncludeAliases: params.IncludeAliases,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Authors []*models.Author `json:"authors"`
		Total   int              `json:"total"`
	}{authors, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) picker(c echo.Context) error {
	ctx := c.Request().Context()

	params := PickerQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	exclude, err := parseIDList(params.Exclude)
	if err != nil {
		return errors.WithStack(err)
	}

	authors, err := h.authorService.Picker(ctx, PickerOptions{
		Query:      params.Query,
		ExcludeIDs: exclude,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, authors))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Author")
	}

	params := UpdateAuthorPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	author, err := h.authorService.RetrieveAuthorByID(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	opts := UpdateAuthorOptions{Columns: []string{}}

	if params.Name != nil && *params.Name != author.Name {
		author.Name = *params.Name
		opts.Columns = append(opts.Columns, "name")
	}
	if params.Pronouns != nil {
		author.Pronouns = nilIfEmpty(params.Pronouns)
		opts.Columns = append(opts.Columns, "pronouns")
	}
	if params.ClearGender {
		author.GenderID = nil
		opts.Columns = append(opts.Columns, "gender_id")
	} else if params.GenderID != nil {
		author.GenderID = params.GenderID
		opts.Columns = append(opts.Columns, "gender_id")
	}
	if params.GoodreadsURL != nil {
		author.GoodreadsURL = nilIfEmpty(params.GoodreadsURL)
		opts.Columns = append(opts.Columns, "goodreads_url")
	}
	if params.AmazonURL != nil {
		author.AmazonURL = nilIfEmpty(params.AmazonURL)
		opts.Columns = append(opts.Columns, "amazon_url")
	}
	if params.StorygraphURL != nil {
		author.StorygraphURL = nilIfEmpty(params.StorygraphURL)
		opts.Columns = append(opts.Columns, "storygraph_url")
	}
	if params.Website != nil {
		author.Website = nilIfEmpty(params.Website)
		opts.Columns = append(opts.Columns, "website")
	}
	if params.ClearAlias {
		author.AliasOfID = nil
		opts.Columns = append(opts.Columns, "alias_of_id")
	} else if params.AliasOfID != nil {
		author.AliasOfID = params.AliasOfID
		opts.Columns = append(opts.Columns, "alias_of_id")
	}

	err = h.authorService.UpdateAuthor(ctx, author, opts)
	if err != nil {
		return errors.WithStack(err)
	}

	author, err = h.authorService.RetrieveAuthorByID(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, author))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Author")
	}

	params := DeleteAuthorQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	err = h.authorService.DeleteAuthor(ctx, id, DeleteAuthorOptions{Detach: params.Detach})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}

func nilIfEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

// parseIDList parses "1,2,3". Blank entries are skipped.
func parseIDList(raw string) ([]int, error) {
	var ids []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, errcodes.ValidationError(`"exclude" must be a comma separated list of ids`)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
