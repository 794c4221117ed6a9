package database

import (
	"context"
	"database/sql/driver"
	"math/rand"
	"strings"
	"time"
)

// busyMarkers are the fragments SQLite drivers put in lock contention errors.
// The numeric codes cover modernc.org/sqlite, which reports "(5)" and "(6)".
var busyMarkers = []string{
	"database is locked",
	"database table is locked",
	"SQLITE_BUSY",
	"SQLITE_LOCKED",
	"(5)",
	"(6)",
}

func isBusyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, m := range busyMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// backoff retries an operation while it keeps failing with a busy error.
type backoff struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// delay returns how long to wait before the given retry (0-indexed), with up
// to 25% jitter.
func (b backoff) delay(retry int) time.Duration {
	d := b.baseDelay << retry
	if d <= 0 || d > b.maxDelay {
		d = b.maxDelay
	}
	if q := int64(d / 4); q > 0 {
		d += time.Duration(rand.Int63n(q)) //nolint:gosec
	}
	if d > b.maxDelay {
		d = b.maxDelay
	}
	return d
}

func (b backoff) do(ctx context.Context, fn func() error) error {
	err := fn()
	for retry := 0; retry < b.maxRetries && isBusyError(err); retry++ {
		t := time.NewTimer(b.delay(retry))
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		err = fn()
	}
	return err
}

// dsnConnector adapts a driver without OpenConnector to driver.Connector.
type dsnConnector struct {
	driver driver.Driver
	dsn    string
}

func (dc *dsnConnector) Connect(_ context.Context) (driver.Conn, error) {
	return dc.driver.Open(dc.dsn)
}

func (dc *dsnConnector) Driver() driver.Driver {
	return dc.driver
}

// busyConnector hands out connections whose statements retry on SQLITE_BUSY.
type busyConnector struct {
	driver.Connector
	policy backoff
}

func newBusyConnector(connector driver.Connector, policy backoff) *busyConnector {
	return &busyConnector{Connector: connector, policy: policy}
}

func (bc *busyConnector) Connect(ctx context.Context) (driver.Conn, error) {
	conn, err := bc.Connector.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return &busyConn{conn: conn, policy: bc.policy}, nil
}

type busyConn struct {
	conn   driver.Conn
	policy backoff
}

var (
	_ driver.ConnBeginTx        = (*busyConn)(nil)
	_ driver.ConnPrepareContext = (*busyConn)(nil)
	_ driver.ExecerContext      = (*busyConn)(nil)
	_ driver.QueryerContext     = (*busyConn)(nil)
	_ driver.Pinger             = (*busyConn)(nil)
	_ driver.SessionResetter    = (*busyConn)(nil)
	_ driver.Validator          = (*busyConn)(nil)
)

func (c *busyConn) Prepare(query string) (driver.Stmt, error) {
	return c.PrepareContext(context.Background(), query)
}

func (c *busyConn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	var (
		stmt driver.Stmt
		err  error
	)
	if pc, ok := c.conn.(driver.ConnPrepareContext); ok {
		stmt, err = pc.PrepareContext(ctx, query)
	} else {
		stmt, err = c.conn.Prepare(query)
	}
	if err != nil {
		return nil, err
	}
	return &busyStmt{stmt: stmt, policy: c.policy}, nil
}

func (c *busyConn) Close() error {
	return c.conn.Close()
}

func (c *busyConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

func (c *busyConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	var tx driver.Tx
	err := c.policy.do(ctx, func() error {
		var err error
		if bt, ok := c.conn.(driver.ConnBeginTx); ok {
			tx, err = bt.BeginTx(ctx, opts)
		} else {
			tx, err = c.conn.Begin() //nolint:staticcheck
		}
		return err
	})
	return tx, err
}

func (c *busyConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	ec, ok := c.conn.(driver.ExecerContext)
	if !ok {
		return nil, driver.ErrSkip
	}
	var res driver.Result
	err := c.policy.do(ctx, func() error {
		var err error
		res, err = ec.ExecContext(ctx, query, args)
		return err
	})
	return res, err
}

func (c *busyConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	qc, ok := c.conn.(driver.QueryerContext)
	if !ok {
		return nil, driver.ErrSkip
	}
	var rows driver.Rows
	err := c.policy.do(ctx, func() error {
		var err error
		rows, err = qc.QueryContext(ctx, query, args)
		return err
	})
	return rows, err
}

func (c *busyConn) Ping(ctx context.Context) error {
	if p, ok := c.conn.(driver.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (c *busyConn) ResetSession(ctx context.Context) error {
	if r, ok := c.conn.(driver.SessionResetter); ok {
		return r.ResetSession(ctx)
	}
	return nil
}

func (c *busyConn) IsValid() bool {
	if v, ok := c.conn.(driver.Validator); ok {
		return v.IsValid()
	}
	return true
}

type busyStmt struct {
	stmt   driver.Stmt
	policy backoff
}

func (s *busyStmt) Close() error {
	return s.stmt.Close()
}

func (s *busyStmt) NumInput() int {
	return s.stmt.NumInput()
}

func (s *busyStmt) Exec(args []driver.Value) (driver.Result, error) {
	var res driver.Result
	err := s.policy.do(context.Background(), func() error {
		var err error
		res, err = s.stmt.Exec(args) //nolint:staticcheck
		return err
	})
	return res, err
}

func (s *busyStmt) Query(args []driver.Value) (driver.Rows, error) {
	var rows driver.Rows
	err := s.policy.do(context.Background(), func() error {
		var err error
		rows, err = s.stmt.Query(args) //nolint:staticcheck
		return err
	})
	return rows, err
}

func (s *busyStmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	sec, ok := s.stmt.(driver.StmtExecContext)
	if !ok {
		return s.Exec(namedToValues(args))
	}
	var res driver.Result
	err := s.policy.do(ctx, func() error {
		var err error
		res, err = sec.ExecContext(ctx, args)
		return err
	})
	return res, err
}

func (s *busyStmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	sqc, ok := s.stmt.(driver.StmtQueryContext)
	if !ok {
		return s.Query(namedToValues(args))
	}
	var rows driver.Rows
	err := s.policy.do(ctx, func() error {
		var err error
		rows, err = sqc.QueryContext(ctx, args)
		return err
	})
	return rows, err
}

func namedToValues(args []driver.NamedValue) []driver.Value {
	values := make([]driver.Value, len(args))
	for i, arg := range args {
		values[i] = arg.Value
	}
	return values
}
