package books

type ListBooksQuery struct {
	Filter *string `query:"filter" json:"filter,omitempty" mod:"trim" validate:"omitempty,oneof=FICTION NON_FICTION SCIENCE HISTORY BIOGRAPHY FANTASY" tstype:"Genre"`
	Sort   string  `query:"sort" json:"sort,omitempty" mod:"trim,lcase" default:"asc" validate:"oneof=asc desc" tstype:"'asc' | 'desc'"`
	SortBy string  `query:"sortBy" json:"sortBy,omitempty" mod:"trim" default:"createdAt" validate:"oneof=createdAt updatedAt title author genre isbn copies available"`
	Limit  int     `query:"limit" json:"limit,omitempty" default:"10" validate:"min=1,max=100"`
	Offset int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
}

// CreateBookPayload accepts "available" so that clients echoing a full record
// back aren't rejected, but the value is always derived from copies.
type CreateBookPayload struct {
	Title       string  `json:"title" mod:"trim" validate:"required,max=300"`
	Author      string  `json:"author" mod:"trim" validate:"required,max=200"`
	Genre       string  `json:"genre" mod:"trim" validate:"required,oneof=FICTION NON_FICTION SCIENCE HISTORY BIOGRAPHY FANTASY" tstype:"Genre"`
	ISBN        string  `json:"isbn" mod:"trim" validate:"required,max=20"`
	Description *string `json:"description,omitempty" mod:"trim" validate:"omitempty,max=2000"`
	Copies      *int    `json:"copies" validate:"required,min=0" tstype:"number"`
	Available   *bool   `json:"available,omitempty" tstype:"boolean"`
}

type UpdateBookPayload struct {
	Title       *string `json:"title,omitempty" mod:"trim" validate:"omitempty,min=1,max=300"`
	Author      *string `json:"author,omitempty" mod:"trim" validate:"omitempty,min=1,max=200"`
	Genre       *string `json:"genre,omitempty" mod:"trim" validate:"omitempty,oneof=FICTION NON_FICTION SCIENCE HISTORY BIOGRAPHY FANTASY" tstype:"Genre"`
	ISBN        *string `json:"isbn,omitempty" mod:"trim" validate:"omitempty,min=1,max=20"`
	Description *string `json:"description,omitempty" mod:"trim" validate:"omitempty,max=2000"`
	Copies      *int    `json:"copies,omitempty" validate:"omitempty,min=0" tstype:"number"`
	Available   *bool   `json:"available,omitempty" tstype:"boolean"`
}
