package borrows

type CreateBorrowPayload struct {
	Book     string `json:"book" mod:"trim" validate:"required,uuid"`
	Quantity int    `json:"quantity" validate:"min=1"`
	DueDate  string `json:"dueDate" mod:"trim" validate:"required,timestamp,future" tstype:"string"`
}
