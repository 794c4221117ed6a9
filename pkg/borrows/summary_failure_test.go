package borrows

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/libraryms/libraryms/pkg/errcodes"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

func newMockDB(t *testing.T) (*bun.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqldb, mock, err := sqlmock.New()
	require.NoError(t, err)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() {
		db.Close()
	})
	return db, mock
}

func TestHandler_Summary_StorageFailure(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	e := newTestEcho(t, db)

	mock.ExpectQuery(`SELECT .* FROM "borrows" AS "br" JOIN books AS b ON b.id = br.book_id GROUP BY`).
		WillReturnError(errors.New("disk I/O error"))

	req := httptest.NewRequest(http.MethodGet, "/api/borrow", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var env errcodes.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.False(t, env.Success)
	assert.Equal(t, "Internal server error", env.Message)
	assert.Equal(t, errcodes.NameInternalError, env.Error.Name)
	assert.Equal(t, http.StatusInternalServerError, env.Error.StatusCode)
	assert.NotContains(t, rec.Body.String(), "disk I/O error")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_BorrowBook_BeginFailure(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	svc := NewService(db)

	mock.ExpectBegin().WillReturnError(errors.New("database is closed"))

	_, err := svc.BorrowBook(t.Context(), BorrowBookOptions{BookID: "b", Quantity: 1, DueDate: nextWeek()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is closed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_BorrowBook_InsertFailureRollsBack(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	svc := NewService(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "books" AS "b" WHERE \(b.id = 'b'\)`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "copies", "available"}).AddRow("b", 3, true))
	mock.ExpectExec(`UPDATE "books" .*SET copies = copies - 1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "borrows"`).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := svc.BorrowBook(t.Context(), BorrowBookOptions{BookID: "b", Quantity: 1, DueDate: nextWeek()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}
