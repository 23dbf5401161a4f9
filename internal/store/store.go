// Package store opens the database behind the interaction log and the
// appointment book and makes sure its schema exists.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Driver string

const (
	Postgres Driver = "postgres"
	SQLite   Driver = "sqlite"
)

// TimeLayout is how timestamps are written to SQLite: UTC, fixed width,
// so text order equals time order.
const TimeLayout = "2006-01-02T15:04:05.000000Z07:00"

var ErrUnknownDriver = errors.New("unknown store driver")

// DB is a database handle tagged with the SQL dialect it speaks.
type DB struct {
	*sql.DB
	Driver Driver
}

// Open connects to the configured store and initializes its schema.
// Initialization is idempotent.
func Open(ctx context.Context, driver, dsn string, log *zap.Logger) (*DB, error) {
	switch Driver(strings.ToLower(driver)) {
	case Postgres:
		return OpenPostgres(ctx, dsn, log)
	case SQLite, "":
		if dsn == "" || dsn == ":memory:" {
			return OpenSQLiteInMemory()
		}
		return OpenSQLite(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

// IsMissingTable reports whether err means the schema has not been created
// yet.
func IsMissingTable(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "42P01" // undefined_table
	}
	return strings.Contains(err.Error(), "no such table")
}

// FormatTime renders t for a SQLite TEXT column.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime reads a value written by FormatTime.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t.UTC(), nil
}
