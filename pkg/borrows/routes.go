package borrows

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers borrow routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB) {
	borrowService := NewService(db)

	h := &handler{
		borrowService: borrowService,
	}

	g.POST("", h.create)
	g.GET("", h.summary)
}
