package books

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/libraryms/libraryms/pkg/errcodes"
	"github.com/libraryms/libraryms/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

// sortColumns maps the sortBy values clients send to the columns they order
// by. Anything outside of this map is never interpolated into a query.
var sortColumns = map[string]string{
	"createdAt": "b.created_at",
	"updatedAt": "b.updated_at",
	"title":     "b.title",
	"author":    "b.author",
	"genre":     "b.genre",
	"isbn":      "b.isbn",
	"copies":    "b.copies",
	"available": "b.available",
}

type RetrieveBookOptions struct {
	ID string
}

type ListBooksOptions struct {
	Genre         *string
	SortBy        string
	SortDirection string
	Limit         *int
	Offset        *int
}

type UpdateBookOptions struct {
	Columns []string
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

func (svc *Service) CreateBook(ctx context.Context, book *models.Book) error {
	if book.ID == "" {
		book.ID = uuid.NewString()
	}
	now := time.Now()
	if book.CreatedAt.IsZero() {
		book.CreatedAt = now
	}
	book.UpdatedAt = book.CreatedAt

	_, err := svc.db.
		NewInsert().
		Model(book).
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return errcodes.DuplicateKey("ISBN")
		}
		return errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("book created", logger.Data{"book_id": book.ID, "isbn": book.ISBN})

	return nil
}

func (svc *Service) RetrieveBook(ctx context.Context, opts RetrieveBookOptions) (*models.Book, error) {
	book := &models.Book{}

	err := svc.db.
		NewSelect().
		Model(book).
		Where("b.id = ?", opts.ID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book")
		}
		return nil, errors.WithStack(err)
	}

	return book, nil
}

func (svc *Service) ListBooks(ctx context.Context, opts ListBooksOptions) ([]*models.Book, error) {
	books := []*models.Book{}

	column, ok := sortColumns[opts.SortBy]
	if !ok {
		column = sortColumns["createdAt"]
	}
	direction := "ASC"
	if strings.EqualFold(opts.SortDirection, "desc") {
		direction = "DESC"
	}

	q := svc.db.
		NewSelect().
		Model(&books).
		OrderExpr(column + " " + direction).
		OrderExpr("b.id ASC")

	if opts.Genre != nil {
		q = q.Where("b.genre = ?", *opts.Genre)
	}
	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}

	err := q.Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return books, nil
}

// UpdateBook writes the given columns of book. Changing copies always writes
// available alongside it.
func (svc *Service) UpdateBook(ctx context.Context, book *models.Book, opts UpdateBookOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	columns := make([]string, 0, len(opts.Columns)+2)
	columns = append(columns, opts.Columns...)
	for _, c := range opts.Columns {
		if c == "copies" {
			columns = append(columns, "available")
			break
		}
	}
	book.UpdatedAt = time.Now()
	columns = append(columns, "updated_at")

	res, err := svc.db.
		NewUpdate().
		Model(book).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return errcodes.DuplicateKey("ISBN")
		}
		return errors.WithStack(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errcodes.NotFound("Book")
	}

	return nil
}

// DeleteBook removes the book. Its borrow records are kept as history.
func (svc *Service) DeleteBook(ctx context.Context, id string) error {
	res, err := svc.db.
		NewDelete().
		Model((*models.Book)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.WithStack(err)
	}
	if n == 0 {
		return errcodes.NotFound("Book")
	}

	logger.FromContext(ctx).Info("book deleted", logger.Data{"book_id": id})

	return nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint")
}
