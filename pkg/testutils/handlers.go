package testutils

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/libraryms/libraryms/pkg/binder"
	"github.com/libraryms/libraryms/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type handler struct {
	db *bun.DB
}

// createBorrowRequest is the request body for inserting a borrow record
// directly. Unlike POST /api/borrow it doesn't touch the book's copies and
// accepts due dates in the past, so overdue and orphaned history can be set up.
type createBorrowRequest struct {
	Book     string `json:"book" validate:"required"`
	Quantity int    `json:"quantity" validate:"min=1"`
	DueDate  string `json:"dueDate" validate:"required,timestamp"`
}

// createBorrow inserts a borrow record as-is.
// POST /test/borrows.
func (h *handler) createBorrow(c echo.Context) error {
	ctx := c.Request().Context()

	var req createBorrowRequest
	if err := c.Bind(&req); err != nil {
		return errors.WithStack(err)
	}

	dueDate, err := binder.ParseTimestamp(req.DueDate)
	if err != nil {
		return errors.WithStack(err)
	}

	now := time.Now()
	borrow := &models.Borrow{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
		BookID:    req.Book,
		Quantity:  req.Quantity,
		DueDate:   dueDate,
	}
	_, err = h.db.NewInsert().Model(borrow).Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to create borrow")
	}

	return c.JSON(http.StatusCreated, borrow)
}

// deleteAllDataResponse is the response body for wiping the database.
type deleteAllDataResponse struct {
	Books   int `json:"books"`
	Borrows int `json:"borrows"`
}

// deleteAllData deletes every book and borrow record.
// DELETE /test/data.
func (h *handler) deleteAllData(c echo.Context) error {
	ctx := c.Request().Context()

	borrows, err := h.db.NewDelete().
		Model((*models.Borrow)(nil)).
		Where("1=1").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to delete borrows")
	}

	books, err := h.db.NewDelete().
		Model((*models.Book)(nil)).
		Where("1=1").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to delete books")
	}

	deletedBorrows, _ := borrows.RowsAffected()
	deletedBooks, _ := books.RowsAffected()

	return c.JSON(http.StatusOK, deleteAllDataResponse{
		Books:   int(deletedBooks),
		Borrows: int(deletedBorrows),
	})
}
