package books

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers book routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB) {
	bookService := NewService(db)

	h := &handler{
		bookService: bookService,
	}

	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.retrieve)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
}
