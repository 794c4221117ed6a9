// Package envelope wraps successful API responses in the
// {success, message, data} shape every client of the API expects. Error
// responses use the same shape and are written by errcodes.Handler.
package envelope

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// JSON writes data wrapped in a success envelope. A nil data is still
// serialized as "data": null.
func JSON(c echo.Context, code int, message string, data interface{}) error {
	return errors.WithStack(c.JSON(code, Envelope{
		Success: true,
		Message: message,
		Data:    data,
	}))
}
