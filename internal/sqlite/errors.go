package sqlite

import (
	"errors"
	"strings"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// constraintFailed reports whether err is the SQLite constraint failure
// identified by code (an extended result code) or, when the driver only
// reports the primary code, by msg.
func constraintFailed(err error, code int, msg string) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code() == code {
		return true
	}
	return strings.Contains(err.Error(), msg)
}

func isForeignKeyViolation(err error) bool {
	return constraintFailed(err, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY, "FOREIGN KEY constraint failed")
}

func isUniqueViolation(err error) bool {
	return constraintFailed(err, sqlite3.SQLITE_CONSTRAINT_UNIQUE, "UNIQUE constraint failed") ||
		constraintFailed(err, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, "PRIMARY KEY constraint failed")
}
