package database

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/libraryms/libraryms/pkg/config"
	"github.com/libraryms/libraryms/pkg/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

// newFileDB opens a migrated database backed by a temp file, so every
// connection sees the same data.
func newFileDB(t *testing.T) *bun.DB {
	t.Helper()

	cfg := config.NewForTest()
	cfg.DatabaseFilePath = filepath.Join(t.TempDir(), "library.sqlite")
	cfg.DatabaseMaxRetries = 0
	cfg.DatabaseBusyTimeout = 1_000_000 // 1ms

	db, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
	})

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)
	return db
}

func TestNew_MemoryDatabase(t *testing.T) {
	t.Parallel()

	db, err := New(config.NewForTest())
	require.NoError(t, err)
	defer db.Close()

	var one int
	require.NoError(t, db.QueryRow("SELECT 1").Scan(&one))
	assert.Equal(t, 1, one)
	assert.Equal(t, 1, db.Stats().MaxOpenConnections)
}

func TestNew_UnreachableDatabase(t *testing.T) {
	t.Parallel()

	cfg := config.NewForTest()
	cfg.DatabaseFilePath = filepath.Join(t.TempDir(), "missing", "dir", "library.sqlite")
	cfg.DatabaseConnectRetryCount = 2
	cfg.DatabaseConnectRetryDelay = 0

	_, err := New(cfg)
	assert.Error(t, err)
}

// TestConcurrentInserts checks that many writers sharing the pool never see
// "database is locked".
func TestConcurrentInserts(t *testing.T) {
	t.Parallel()
	db := newFileDB(t)

	const workers = 20
	const perWorker = 25

	var wg sync.WaitGroup
	var failures atomic.Int32
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				_, err := db.Exec(
					`INSERT INTO books (id, title, author, genre, isbn, copies, available) VALUES (?, ?, 'A', 'FICTION', ?, 1, TRUE)`,
					fmt.Sprintf("%d-%d", worker, i),
					fmt.Sprintf("Book %d-%d", worker, i),
					fmt.Sprintf("isbn-%d-%d", worker, i),
				)
				if err != nil {
					failures.Add(1)
				}
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, int32(0), failures.Load())

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM books").Scan(&count))
	assert.Equal(t, workers*perWorker, count)
}

// TestConcurrentConditionalDecrements runs transactional decrements against a
// single row and checks that exactly as many succeed as there were copies.
func TestConcurrentConditionalDecrements(t *testing.T) {
	t.Parallel()
	db := newFileDB(t)
	ctx := context.Background()

	const copies = 10
	const workers = 25

	_, err := db.Exec(`INSERT INTO books (id, title, author, genre, isbn, copies, available) VALUES ('b', 'T', 'A', 'FICTION', '1', ?, TRUE)`, copies)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var taken, refused, failures atomic.Int32
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
				res, err := tx.ExecContext(ctx, `UPDATE books SET copies = copies - 1, available = (copies - 1) > 0 WHERE id = 'b' AND copies >= 1`)
				if err != nil {
					return err
				}
				n, err := res.RowsAffected()
				if err != nil {
					return err
				}
				if n == 0 {
					refused.Add(1)
					return nil
				}
				taken.Add(1)
				return nil
			})
			if err != nil {
				failures.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(0), failures.Load())
	assert.Equal(t, int32(copies), taken.Load())
	assert.Equal(t, int32(workers-copies), refused.Load())

	var remaining int
	var available bool
	require.NoError(t, db.QueryRow("SELECT copies, available FROM books WHERE id = 'b'").Scan(&remaining, &available))
	assert.Equal(t, 0, remaining)
	assert.False(t, available)
}
