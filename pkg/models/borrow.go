package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Borrow struct {
	bun.BaseModel `bun:"table:borrows,alias:br" tstype:"-"`

	ID        string    `bun:",pk" json:"_id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	BookID    string    `bun:",nullzero" json:"book"`
	Quantity  int       `json:"quantity"`
	DueDate   time.Time `json:"dueDate"`
}

// BorrowSummaryBook is the slice of a book shown next to its borrowed total.
type BorrowSummaryBook struct {
	Title string `json:"title"`
	ISBN  string `json:"isbn"`
}

// BorrowSummary is the total quantity borrowed for a single book. It's computed
// on read and never stored.
type BorrowSummary struct {
	Book          BorrowSummaryBook `json:"book"`
	TotalQuantity int               `json:"totalQuantity"`
}
