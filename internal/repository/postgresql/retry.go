package postgresql

import (
	"context"
	"database/sql/driver"
	"errors"
	"io"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// sqlState extracts the SQLSTATE code from a driver error. The pgx stdlib
// driver surfaces *pgconn.PgError; *pq.Error is handled too so the lib/pq
// connector remains usable for tooling.
func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// isTransient reports whether err looks like a connection-level failure that
// is safe to retry without side effects having happened.
func isTransient(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	// 08xxx = connection exception, 57xxx = operator intervention
	// (e.g. server shutdown mid-query).
	code := sqlState(err)
	return strings.HasPrefix(code, "08") || strings.HasPrefix(code, "57")
}

// withRetry runs fn and retries it exactly once if it fails with a transient
// connection error. Retry policy lives here in the adapter; services above
// never retry.
func withRetry(ctx context.Context, fn func() error) error {
	err := fn()
	if err == nil || !isTransient(err) {
		return err
	}
	if ctx.Err() != nil {
		return err
	}
	return fn()
}

// isUniqueViolation reports whether err is a postgres unique-constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return sqlState(err) == "23505"
}
