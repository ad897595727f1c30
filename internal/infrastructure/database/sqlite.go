package database

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
)

// driverName is the go-sqlite3 driver with the casefold function
// registered on every connection.
const driverName = "sqlite3_rza"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: registerFunctions,
	})
}

// registerFunctions adds casefold(text), a Unicode lower-casing that SQLite's
// built-in lower() does not provide outside ASCII.
func registerFunctions(conn *sqlite3.SQLiteConn) error {
	return conn.RegisterFunc("casefold", strings.ToLower, true)
}

// TimeFormat is the stored form of every timestamp column. It is fixed
// width, so text ordering matches chronological ordering.
const TimeFormat = "2006-01-02T15:04:05.000000Z"

// FormatTime converts t to its stored UTC text form.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

// FormatNullTime returns nil for a nil time, otherwise its stored text form.
func FormatNullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return FormatTime(*t)
}

// ParseTime parses a stored timestamp. It also accepts RFC 3339 values
// written by hand or by older tooling; unparseable input yields the zero time.
func ParseTime(s string) time.Time {
	if t, err := time.Parse(TimeFormat, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC()
	}
	return time.Time{}
}

// ParseNullTime parses a nullable timestamp column.
func ParseNullTime(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t := ParseTime(ns.String)
	return &t
}

// NullString converts a *string to a value for a nullable TEXT column.
func NullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// StringPtr converts a scanned nullable TEXT column to *string.
func StringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// IsUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
func IsUniqueViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}

// IsForeignKeyViolation reports whether err is a SQLite FOREIGN KEY constraint failure.
func IsForeignKeyViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintForeignKey
}
