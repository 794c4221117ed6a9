package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"time"

	"github.com/libraryms/libraryms/pkg/config"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type queryLogHook struct {
	log logger.Logger
}

func (*queryLogHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (qh *queryLogHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	data := logger.Data{"duration_ms": time.Since(event.StartTime).Milliseconds()}
	if event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) {
		data["error"] = event.Err.Error()
	}
	qh.log.Debug(event.Query, data)
}

// New opens the SQLite database at cfg.DatabaseFilePath. Every connection
// retries SQLITE_BUSY with backoff, and the pool is limited to a single
// connection so writers never contend with each other.
func New(cfg *config.Config) (*bun.DB, error) {
	log := logger.New()

	connector, err := openConnector(sqliteshim.Driver(), cfg.DatabaseFilePath)
	if err != nil {
		return nil, err
	}
	sqldb := sql.OpenDB(newBusyConnector(connector, backoff{
		maxRetries: cfg.DatabaseMaxRetries,
		baseDelay:  50 * time.Millisecond,
		maxDelay:   2 * time.Second,
	}))
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	if cfg.DatabaseDebug {
		db.AddQueryHook(&queryLogHook{logger.NewWithLevel("debug")})
	}

	for attempt := 1; ; attempt++ {
		err = db.Ping()
		if err == nil || attempt >= cfg.DatabaseConnectRetryCount {
			break
		}
		log.Warn("database not reachable yet, retrying", logger.Data{
			"attempt": attempt,
			"delay":   cfg.DatabaseConnectRetryDelay.String(),
			"error":   err.Error(),
		})
		time.Sleep(cfg.DatabaseConnectRetryDelay)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	// WAL lets readers keep going while a write is in flight. In-memory
	// databases silently stay in "memory" mode.
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		return nil, errors.Wrap(err, "failed to enable WAL mode")
	}

	_, err = db.Exec("PRAGMA busy_timeout=?", cfg.DatabaseBusyTimeout.Milliseconds())
	if err != nil {
		return nil, errors.Wrap(err, "failed to set busy_timeout")
	}

	return db, nil
}

func openConnector(drv driver.Driver, dsn string) (driver.Connector, error) {
	if dc, ok := drv.(driver.DriverContext); ok {
		connector, err := dc.OpenConnector(dsn)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return connector, nil
	}
	return &dsnConnector{driver: drv, dsn: dsn}, nil
}
