package db

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// SlowStatement is the duration above which a statement is logged at warn
// level instead of debug.
const SlowStatement = 200 * time.Millisecond

// maxLoggedArg truncates long text arguments in log lines.
const maxLoggedArg = 64

// loggingConnector opens sqlite3 connections whose statements are logged
// with their arguments and duration.
type loggingConnector struct {
	dsn    string
	logger *slog.Logger
	slow   time.Duration
}

type loggingConn struct {
	driver.Conn
	logger *slog.Logger
	slow   time.Duration
}

type loggingStmt struct {
	driver.Stmt
	query  string
	logger *slog.Logger
	slow   time.Duration
}

// NewLoggingConnector returns a connector for sql.OpenDB that logs every
// statement. A nil logger means slog.Default().
func NewLoggingConnector(dsn string, logger *slog.Logger) (driver.Connector, error) {
	if dsn == "" {
		return nil, errors.New("sqlite3-log: empty dsn")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &loggingConnector{dsn: dsn, logger: logger.With("component", "sql"), slow: SlowStatement}, nil
}

func (c *loggingConnector) Driver() driver.Driver {
	return unsupportedDriver{}
}

func (c *loggingConnector) Connect(ctx context.Context) (driver.Conn, error) {
	conn, err := (&sqlite3.SQLiteDriver{}).Open(c.dsn)
	if err != nil {
		return nil, err
	}
	return &loggingConn{Conn: conn, logger: c.logger, slow: c.slow}, nil
}

// unsupportedDriver only exists to satisfy driver.Connector.
type unsupportedDriver struct{}

func (unsupportedDriver) Open(string) (driver.Conn, error) {
	return nil, errors.New("sqlite3-log: open through sql.OpenDB(NewLoggingConnector(...))")
}

func (c *loggingConn) Prepare(query string) (driver.Stmt, error) {
	return c.PrepareContext(context.Background(), query)
}

func (c *loggingConn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	var (
		stmt driver.Stmt
		err  error
	)
	if prep, ok := c.Conn.(driver.ConnPrepareContext); ok {
		stmt, err = prep.PrepareContext(ctx, query)
	} else {
		stmt, err = c.Conn.Prepare(query)
	}
	if err != nil {
		c.logger.Warn("sql prepare failed", "sql", query, "error", err)
		return nil, err
	}
	return &loggingStmt{Stmt: stmt, query: query, logger: c.logger, slow: c.slow}, nil
}

// ExecContext runs statements without preparing them first, which keeps
// multi-statement scripts such as migrations intact.
func (c *loggingConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	e, ok := c.Conn.(driver.ExecerContext)
	if !ok {
		return nil, driver.ErrSkip
	}
	start := time.Now()
	res, err := e.ExecContext(ctx, query, args)
	logExec(c.logger, c.slow, query, start, args, res, err)
	return res, err
}

func (c *loggingConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	q, ok := c.Conn.(driver.QueryerContext)
	if !ok {
		return nil, driver.ErrSkip
	}
	start := time.Now()
	rows, err := q.QueryContext(ctx, query, args)
	logStatement(c.logger, c.slow, query, start, args, err, "op", "query")
	return rows, err
}

func (c *loggingConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	if b, ok := c.Conn.(driver.ConnBeginTx); ok {
		return b.BeginTx(ctx, opts)
	}
	//nolint:staticcheck // fallback for connections without BeginTx
	return c.Conn.Begin()
}

func (s *loggingStmt) Exec(args []driver.Value) (driver.Result, error) {
	return s.ExecContext(context.Background(), valuesToNamed(args))
}

func (s *loggingStmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	start := time.Now()
	var (
		res driver.Result
		err error
	)
	if e, ok := s.Stmt.(driver.StmtExecContext); ok {
		res, err = e.ExecContext(ctx, args)
	} else {
		//nolint:staticcheck // fallback for statements without ExecContext
		res, err = s.Stmt.Exec(namedToValues(args))
	}
	logExec(s.logger, s.slow, s.query, start, args, res, err)
	return res, err
}

func (s *loggingStmt) Query(args []driver.Value) (driver.Rows, error) {
	return s.QueryContext(context.Background(), valuesToNamed(args))
}

func (s *loggingStmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	start := time.Now()
	var (
		rows driver.Rows
		err  error
	)
	if q, ok := s.Stmt.(driver.StmtQueryContext); ok {
		rows, err = q.QueryContext(ctx, args)
	} else {
		//nolint:staticcheck // fallback for statements without QueryContext
		rows, err = s.Stmt.Query(namedToValues(args))
	}
	logStatement(s.logger, s.slow, s.query, start, args, err, "op", "query")
	return rows, err
}

func logExec(logger *slog.Logger, slow time.Duration, query string, start time.Time, args []driver.NamedValue, res driver.Result, err error) {
	attrs := []any{"op", "exec"}
	if err == nil {
		if n, rerr := res.RowsAffected(); rerr == nil {
			attrs = append(attrs, "rows", n)
		}
	}
	logStatement(logger, slow, query, start, args, err, attrs...)
}

func logStatement(logger *slog.Logger, slow time.Duration, query string, start time.Time, args []driver.NamedValue, err error, attrs ...any) {
	elapsed := time.Since(start)
	attrs = append(attrs,
		"sql", query,
		"args", formatArgs(args),
		"duration_ms", elapsed.Milliseconds(),
	)
	switch {
	case err != nil:
		logger.Warn("sql", append(attrs, "error", err)...)
	case elapsed >= slow:
		logger.Warn("sql", attrs...)
	default:
		logger.Debug("sql", attrs...)
	}
}

func formatArgs(args []driver.NamedValue) []string {
	out := make([]string, len(args))
	for i, a := range args {
		v := formatArg(a.Value)
		if a.Name != "" {
			v = a.Name + "=" + v
		}
		out[i] = v
	}
	return out
}

func formatArg(v driver.Value) string {
	var s string
	switch t := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		s = string(t)
	case time.Time:
		s = t.UTC().Format(time.RFC3339Nano)
	default:
		s = fmt.Sprint(t)
	}
	if len(s) > maxLoggedArg {
		s = s[:maxLoggedArg] + "..."
	}
	return s
}

func valuesToNamed(args []driver.Value) []driver.NamedValue {
	out := make([]driver.NamedValue, len(args))
	for i, v := range args {
		out[i] = driver.NamedValue{Ordinal: i + 1, Value: v}
	}
	return out
}

func namedToValues(args []driver.NamedValue) []driver.Value {
	out := make([]driver.Value, len(args))
	for i := range args {
		out[i] = args[i].Value
	}
	return out
}
