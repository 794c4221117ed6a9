package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/libraryms/libraryms/pkg/config"
	"github.com/libraryms/libraryms/pkg/errcodes"
	"github.com/libraryms/libraryms/pkg/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type response struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   errcodes.Body   `json:"error"`
}

func newTestEcho(t *testing.T, mutate func(cfg *config.Config)) *echo.Echo {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() {
		db.Close()
	})
	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	cfg := config.NewForTest()
	if mutate != nil {
		mutate(cfg)
	}
	e, err := newEcho(cfg, db)
	require.NoError(t, err)
	return e
}

func request(t *testing.T, e *echo.Echo, method, target, body string) (int, response) {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var resp response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec.Code, resp
}

func TestNew(t *testing.T) {
	t.Parallel()

	cfg := config.NewForTest()
	cfg.ServerPort = 5050
	srv, err := New(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:5050", srv.Addr)
	assert.Equal(t, 3*time.Second, srv.ReadHeaderTimeout)
}

func TestRoot(t *testing.T) {
	t.Parallel()
	e := newTestEcho(t, nil)

	code, resp := request(t, e, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)
	assert.Equal(t, "Library Management System API is running!", resp.Message)
}

func TestRouteNotFound(t *testing.T) {
	t.Parallel()
	e := newTestEcho(t, nil)

	code, resp := request(t, e, http.MethodGet, "/api/authors", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, resp.Success)
	assert.Equal(t, "Route not found", resp.Message)
	assert.Equal(t, errcodes.NameRouteNotFound, resp.Error.Name)
	assert.Equal(t, "Cannot GET /api/authors", resp.Error.Detail)

	code, resp = request(t, e, http.MethodPatch, "/api/borrow", `{}`)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Cannot PATCH /api/borrow", resp.Error.Detail)
}

func TestBorrowFlow(t *testing.T) {
	t.Parallel()
	e := newTestEcho(t, nil)

	code, resp := request(t, e, http.MethodPost, "/api/books/", `{"title":"Lilith's Brood","author":"Octavia E. Butler","genre":"SCIENCE","isbn":"9780446676106","copies":3}`)
	require.Equal(t, http.StatusCreated, code)
	var book struct {
		ID        string `json:"_id"`
		Copies    int    `json:"copies"`
		Available bool   `json:"available"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &book))

	due := time.Now().Add(24 * time.Hour).Format(time.RFC3339)
	code, resp = request(t, e, http.MethodPost, "/api/borrow", `{"book":"`+book.ID+`","quantity":2,"dueDate":"`+due+`"}`)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "Book borrowed successfully", resp.Message)

	code, resp = request(t, e, http.MethodPost, "/api/borrow", `{"book":"`+book.ID+`","quantity":2,"dueDate":"`+due+`"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, errcodes.NameCapacityError, resp.Error.Name)

	code, resp = request(t, e, http.MethodGet, "/api/books/"+book.ID, "")
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(resp.Data, &book))
	assert.Equal(t, 1, book.Copies)
	assert.True(t, book.Available)

	code, resp = request(t, e, http.MethodGet, "/api/borrow", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[{"book":{"title":"Lilith's Brood","isbn":"9780446676106"},"totalQuantity":2}]`, string(resp.Data))
}

func TestAPIPrefix(t *testing.T) {
	t.Parallel()
	e := newTestEcho(t, func(cfg *config.Config) {
		cfg.APIPrefix = "/v2"
	})

	code, _ := request(t, e, http.MethodGet, "/v2/books", "")
	assert.Equal(t, http.StatusOK, code)

	code, _ = request(t, e, http.MethodGet, "/api/books", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestBodyLimit(t *testing.T) {
	t.Parallel()
	e := newTestEcho(t, func(cfg *config.Config) {
		cfg.RequestBodyLimit = "64B"
	})

	code, resp := request(t, e, http.MethodPost, "/api/books", `{"title":"`+strings.Repeat("x", 200)+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, code)
	assert.False(t, resp.Success)
}

func TestTestRoutes(t *testing.T) {
	t.Parallel()
	e := newTestEcho(t, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/test/borrows", strings.NewReader(`{"book":"gone","quantity":4,"dueDate":"2020-01-01"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// The borrowed book doesn't exist, so it's left out of the summary.
	code, resp := request(t, e, http.MethodGet, "/api/borrow", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(resp.Data))

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/test/data", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"books":0,"borrows":1}`, rec.Body.String())

	production := newTestEcho(t, func(cfg *config.Config) {
		cfg.Environment = "production"
	})
	code, _ = request(t, production, http.MethodDelete, "/test/data", "")
	assert.Equal(t, http.StatusNotFound, code)
}
