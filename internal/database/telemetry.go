package database

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
)

// DefaultSlowQueryThreshold is the duration above which a statement is logged at warn
const DefaultSlowQueryThreshold = 500 * time.Millisecond

// QueryObserver receives the timing of every statement
type QueryObserver interface {
	ObserveQuery(operation string, duration time.Duration, err error)
}

// TracedDB wraps a pool, reporting statement timings to an observer and
// logging slow statements.
type TracedDB struct {
	pool          DatabasePool
	observer      QueryObserver
	logger        *logrus.Logger
	SlowThreshold time.Duration
}

// NewTracedDB wraps pool. A nil observer only logs.
func NewTracedDB(pool DatabasePool, observer QueryObserver, logger *logrus.Logger) *TracedDB {
	return &TracedDB{
		pool:          pool,
		observer:      observer,
		logger:        logger,
		SlowThreshold: DefaultSlowQueryThreshold,
	}
}

func (db *TracedDB) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	start := time.Now()
	rows, err := db.pool.Query(ctx, sql, args...)
	db.observe("query", sql, time.Since(start), err)
	return rows, err
}

func (db *TracedDB) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	start := time.Now()
	row := db.pool.QueryRow(ctx, sql, args...)
	db.observe("query_row", sql, time.Since(start), nil)
	return row
}

func (db *TracedDB) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	start := time.Now()
	tag, err := db.pool.Exec(ctx, sql, args...)
	db.observe("exec", sql, time.Since(start), err)
	return tag, err
}

func (db *TracedDB) Begin(ctx context.Context) (pgx.Tx, error) {
	start := time.Now()
	tx, err := db.pool.Begin(ctx)
	db.observe("begin", "BEGIN", time.Since(start), err)
	return tx, err
}

func (db *TracedDB) observe(operation, sql string, duration time.Duration, err error) {
	if db.observer != nil {
		db.observer.ObserveQuery(operation, duration, err)
	}
	if db.logger == nil || duration < db.SlowThreshold {
		return
	}
	db.logger.WithFields(logrus.Fields{
		"operation":   operation,
		"statement":   statementName(sql),
		"duration_ms": duration.Milliseconds(),
	}).Warn("Slow database statement")
}

// statementName returns the verb and target table of a statement for logging
func statementName(sql string) string {
	fields := strings.Fields(sql)
	for i, f := range fields {
		switch strings.ToUpper(f) {
		case "FROM", "INTO", "UPDATE":
			if i+1 < len(fields) {
				return strings.ToUpper(fields[0]) + " " + fields[i+1]
			}
		}
	}
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(fields[0])
}
