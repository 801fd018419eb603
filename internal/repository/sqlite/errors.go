package sqlite

import (
	"database/sql"
	"errors"
	"strings"
)

// isUniqueViolation reports whether the error is a unique constraint
// violation. modernc.org/sqlite exposes constraint failures only through
// the error message, so this matches on text.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "constraint failed: UNIQUE")
}

// isNoRows checks if an error indicates no rows were found.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
