package errcodes

import (
	"net/http"

	"github.com/iancoleman/strcase"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/errutils"
)

// Body is the "error" member of an error envelope.
type Body struct {
	Name       string       `json:"name"`
	Code       string       `json:"code"`
	StatusCode int          `json:"statusCode"`
	Detail     string       `json:"detail,omitempty"`
	Errors     []FieldError `json:"errors,omitempty"`
}

// Envelope mirrors envelope.Envelope for failures.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   Body   `json:"error"`
}

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// Handle is an Echo error handler that uses HTTP errors accordingly, and any
// generic error will be interpreted as an internal server error.
func (h *Handler) Handle(err error, c echo.Context) {
	if errutils.IsIgnorableErr(err) {
		logger.FromEchoContext(c).Err(err).Warn("broken pipe")
		return
	}
	if c.Response().Committed {
		return
	}

	httpCode, payload := h.generatePayload(err)

	if httpCode == http.StatusInternalServerError {
		logger.FromEchoContext(c).Err(err).Error("server error")
	}

	if err := c.JSON(httpCode, payload); err != nil {
		logger.FromEchoContext(c).Err(errors.WithStack(err)).Error("error handler json error")
	}
}

func (h *Handler) generatePayload(err error) (int, Envelope) {
	httpCode := http.StatusInternalServerError
	body := Body{}
	msg := ""

	// Echo errors
	var he *echo.HTTPError
	if ok := errors.As(err, &he); ok {
		httpCode = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(he.Code)
		}
		body.Code = strcase.ToSnake(msg)
		body.Name = strcase.ToCamel(msg)
	}

	// Custom errors
	var e *Error
	if ok := errors.As(err, &e); ok {
		httpCode = e.HTTPCode
		msg = e.Message
		body.Code = e.Code
		body.Name = e.Name
		body.Detail = e.Detail
		body.Errors = e.Fields
	}

	// Internal server errors that aren't Echo errors or custom errors
	if httpCode == http.StatusInternalServerError {
		msg = "Internal server error"
		body = Body{
			Name: NameInternalError,
			Code: "internal_server_error",
		}
	}

	body.StatusCode = httpCode

	return httpCode, Envelope{
		Success: false,
		Message: msg,
		Error:   body,
	}
}
