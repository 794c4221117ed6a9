package borrows

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/libraryms/libraryms/pkg/errcodes"
	"github.com/libraryms/libraryms/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

type BorrowBookOptions struct {
	BookID   string
	Quantity int
	DueDate  time.Time
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// BorrowBook takes Quantity copies of a book off the shelf and records the
// borrow. Both writes happen in one transaction, and the decrement only
// applies while enough copies remain, so concurrent borrows can't drive copies
// below zero.
func (svc *Service) BorrowBook(ctx context.Context, opts BorrowBookOptions) (*models.Borrow, error) {
	now := time.Now()
	borrow := &models.Borrow{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
		BookID:    opts.BookID,
		Quantity:  opts.Quantity,
		DueDate:   opts.DueDate,
	}

	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		book := &models.Book{}
		err := tx.NewSelect().
			Model(book).
			Where("b.id = ?", opts.BookID).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errcodes.NotFound("Book")
			}
			return errors.WithStack(err)
		}

		if book.Copies < opts.Quantity {
			return errcodes.InsufficientCopies(book.Copies, opts.Quantity)
		}

		res, err := tx.NewUpdate().
			Model((*models.Book)(nil)).
			Set("copies = copies - ?", opts.Quantity).
			Set("available = (copies - ?) > 0", opts.Quantity).
			Set("updated_at = ?", now).
			Where("b.id = ?", opts.BookID).
			Where("b.copies >= ?", opts.Quantity).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return errors.WithStack(err)
		}
		if n == 0 {
			// Another borrow got there between the read and the write.
			remaining := 0
			err := tx.NewSelect().
				Model((*models.Book)(nil)).
				Column("copies").
				Where("b.id = ?", opts.BookID).
				Scan(ctx, &remaining)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return errors.WithStack(err)
			}
			return errcodes.InsufficientCopies(remaining, opts.Quantity)
		}

		_, err = tx.NewInsert().
			Model(borrow).
			Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("book borrowed", logger.Data{
		"book_id":   opts.BookID,
		"borrow_id": borrow.ID,
		"quantity":  opts.Quantity,
	})

	return borrow, nil
}

type summaryRow struct {
	Title         string `bun:"title"`
	ISBN          string `bun:"isbn"`
	TotalQuantity int    `bun:"total_quantity"`
}

// Summary totals the borrowed quantity per book. Borrows of books that have
// since been deleted are left out.
func (svc *Service) Summary(ctx context.Context) ([]*models.BorrowSummary, error) {
	rows := []summaryRow{}

	err := svc.db.
		NewSelect().
		Model((*models.Borrow)(nil)).
		ColumnExpr("b.title AS title").
		ColumnExpr("b.isbn AS isbn").
		ColumnExpr("SUM(br.quantity) AS total_quantity").
		Join("JOIN books AS b ON b.id = br.book_id").
		GroupExpr("br.book_id, b.title, b.isbn").
		OrderExpr("b.title ASC, b.isbn ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	summaries := make([]*models.BorrowSummary, 0, len(rows))
	for _, r := range rows {
		summaries = append(summaries, &models.BorrowSummary{
			Book: models.BorrowSummaryBook{
				Title: r.Title,
				ISBN:  r.ISBN,
			},
			TotalQuantity: r.TotalQuantity,
		})
	}
	return summaries, nil
}
