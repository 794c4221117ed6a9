package models

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

const (
	//tygo:emit export type Genre = typeof GenreFiction | typeof GenreNonFiction | typeof GenreScience | typeof GenreHistory | typeof GenreBiography | typeof GenreFantasy;
	GenreFiction    = "FICTION"
	GenreNonFiction = "NON_FICTION"
	GenreScience    = "SCIENCE"
	GenreHistory    = "HISTORY"
	GenreBiography  = "BIOGRAPHY"
	GenreFantasy    = "FANTASY"
)

// Genres lists every genre in the order they're presented to clients.
var Genres = []string{
	GenreFiction,
	GenreNonFiction,
	GenreScience,
	GenreHistory,
	GenreBiography,
	GenreFantasy,
}

type Book struct {
	bun.BaseModel `bun:"table:books,alias:b" tstype:"-"`

	ID          string    `bun:",pk" json:"_id"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Title       string    `bun:",nullzero" json:"title"`
	Author      string    `bun:",nullzero" json:"author"`
	Genre       string    `bun:",nullzero" json:"genre" tstype:"Genre"`
	ISBN        string    `bun:"isbn,nullzero" json:"isbn"`
	Description *string   `json:"description,omitempty"`
	Copies      int       `json:"copies"`
	Available   bool      `json:"available"`
}

var _ bun.BeforeAppendModelHook = (*Book)(nil)

// BeforeAppendModel keeps Available in step with Copies on every insert and
// update that goes through the model.
func (b *Book) BeforeAppendModel(_ context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.InsertQuery, *bun.UpdateQuery:
		b.SyncAvailability()
	}
	return nil
}

// SyncAvailability derives Available from Copies.
func (b *Book) SyncAvailability() {
	b.Available = b.Copies > 0
}
