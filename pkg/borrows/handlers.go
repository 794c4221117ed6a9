package borrows

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/libraryms/libraryms/pkg/binder"
	"github.com/libraryms/libraryms/pkg/envelope"
	"github.com/pkg/errors"
)

type handler struct {
	borrowService *Service
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateBorrowPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	// Already validated by the binder.
	dueDate, err := binder.ParseTimestamp(params.DueDate)
	if err != nil {
		return errors.WithStack(err)
	}

	borrow, err := h.borrowService.BorrowBook(ctx, BorrowBookOptions{
		BookID:   params.Book,
		Quantity: params.Quantity,
		DueDate:  dueDate,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return envelope.JSON(c, http.StatusCreated, "Book borrowed successfully", borrow)
}

func (h *handler) summary(c echo.Context) error {
	ctx := c.Request().Context()

	summaries, err := h.borrowService.Summary(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return envelope.JSON(c, http.StatusOK, "Borrowed books summary retrieved successfully", summaries)
}
