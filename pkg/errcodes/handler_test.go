package errcodes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func handle(t *testing.T, err error) (int, Envelope) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	NewHandler().Handle(err, c)

	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec.Code, env
}

func TestHandle(t *testing.T) {
	t.Parallel()

	t.Run("custom errors keep their status, name and detail", func(tt *testing.T) {
		code, env := handle(tt, errors.WithStack(InsufficientCopies(1, 2)))
		assert.Equal(tt, http.StatusBadRequest, code)
		assert.False(tt, env.Success)
		assert.Equal(tt, "Insufficient copies available", env.Message)
		assert.Equal(tt, NameCapacityError, env.Error.Name)
		assert.Equal(tt, "insufficient_copies", env.Error.Code)
		assert.Equal(tt, http.StatusBadRequest, env.Error.StatusCode)
		assert.Equal(tt, "Only 1 copies available, but 2 requested", env.Error.Detail)
	})

	t.Run("validation errors carry every field", func(tt *testing.T) {
		code, env := handle(tt, ValidationFailed([]FieldError{
			{Field: "title", Message: `"title" is required`},
			{Field: "copies", Message: `"copies" must be greater than or equal to 0`},
		}))
		assert.Equal(tt, http.StatusBadRequest, code)
		assert.Equal(tt, "Validation failed", env.Message)
		assert.Equal(tt, NameValidationError, env.Error.Name)
		require.Len(tt, env.Error.Errors, 2)
		assert.Equal(tt, "copies", env.Error.Errors[1].Field)
	})

	t.Run("echo errors are converted", func(tt *testing.T) {
		code, env := handle(tt, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "Request Entity Too Large"))
		assert.Equal(tt, http.StatusRequestEntityTooLarge, code)
		assert.Equal(tt, "request_entity_too_large", env.Error.Code)
		assert.Equal(tt, "RequestEntityTooLarge", env.Error.Name)
	})

	t.Run("generic errors become internal errors without leaking", func(tt *testing.T) {
		code, env := handle(tt, errors.New("sql: connection is already closed"))
		assert.Equal(tt, http.StatusInternalServerError, code)
		assert.Equal(tt, "Internal server error", env.Message)
		assert.Equal(tt, NameInternalError, env.Error.Name)
		assert.Empty(tt, env.Error.Detail)
	})
}

func TestErrorIs(t *testing.T) {
	t.Parallel()

	err := errors.WithStack(NotFound("Book"))
	assert.True(t, errors.Is(err, NotFound("Book")))
	assert.False(t, errors.Is(err, NotFound("Borrow")))
	assert.False(t, errors.Is(DuplicateKey("ISBN"), InvalidID("book")))
}

func TestRouteNotFound(t *testing.T) {
	t.Parallel()

	err := RouteNotFound(http.MethodPatch, "/api/nope")
	assert.Equal(t, "Route not found: Cannot PATCH /api/nope", err.Error())
}
