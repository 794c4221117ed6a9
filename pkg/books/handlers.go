package books

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/libraryms/libraryms/pkg/envelope"
	"github.com/libraryms/libraryms/pkg/errcodes"
	"github.com/libraryms/libraryms/pkg/models"
	"github.com/pkg/errors"
)

type handler struct {
	bookService *Service
}

// bookID returns the :id path param, rejecting anything that isn't a UUID.
func bookID(c echo.Context) (string, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return "", errcodes.InvalidID("book")
	}
	return id.String(), nil
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	book := &models.Book{
		Title:       params.Title,
		Author:      params.Author,
		Genre:       params.Genre,
		ISBN:        params.ISBN,
		Description: params.Description,
		Copies:      *params.Copies,
	}
	err := h.bookService.CreateBook(ctx, book)
	if err != nil {
		return errors.WithStack(err)
	}

	return envelope.JSON(c, http.StatusCreated, "Book created successfully", book)
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListBooksQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	books, err := h.bookService.ListBooks(ctx, ListBooksOptions{
		Genre:         params.Filter,
		SortBy:        params.SortBy,
		SortDirection: params.Sort,
		Limit:         &params.Limit,
		Offset:        &params.Offset,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return envelope.JSON(c, http.StatusOK, "Books retrieved successfully", books)
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := bookID(c)
	if err != nil {
		return err
	}

	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{ID: id})
	if err != nil {
		return errors.WithStack(err)
	}

	return envelope.JSON(c, http.StatusOK, "Book retrieved successfully", book)
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := bookID(c)
	if err != nil {
		return err
	}

	params := UpdateBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{ID: id})
	if err != nil {
		return errors.WithStack(err)
	}

	opts := UpdateBookOptions{Columns: []string{}}
	if params.Title != nil && *params.Title != book.Title {
		book.Title = *params.Title
		opts.Columns = append(opts.Columns, "title")
	}
	if params.Author != nil && *params.Author != book.Author {
		book.Author = *params.Author
		opts.Columns = append(opts.Columns, "author")
	}
	if params.Genre != nil && *params.Genre != book.Genre {
		book.Genre = *params.Genre
		opts.Columns = append(opts.Columns, "genre")
	}
	if params.ISBN != nil && *params.ISBN != book.ISBN {
		book.ISBN = *params.ISBN
		opts.Columns = append(opts.Columns, "isbn")
	}
	if params.Description != nil {
		book.Description = params.Description
		opts.Columns = append(opts.Columns, "description")
	}
	if params.Copies != nil && *params.Copies != book.Copies {
		book.Copies = *params.Copies
		opts.Columns = append(opts.Columns, "copies")
	}

	err = h.bookService.UpdateBook(ctx, book, opts)
	if err != nil {
		return errors.WithStack(err)
	}

	return envelope.JSON(c, http.StatusOK, "Book updated successfully", book)
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := bookID(c)
	if err != nil {
		return err
	}

	err = h.bookService.DeleteBook(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	return envelope.JSON(c, http.StatusOK, "Book deleted successfully", nil)
}
