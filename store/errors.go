package store

import (
	"errors"
	"strings"

	"github.com/lib/pq"
)

// IsUniqueViolation reports whether err is a unique-constraint violation
// from either backend, so callers can surface it as a specific
// recoverable error without depending on driver internals at every call
// site.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	// modernc.org/sqlite surfaces constraint violations as plain errors
	// whose message contains the SQLite "UNIQUE constraint failed" text;
	// it does not export a typed error for this, so string matching is
	// the only option.
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint")
}
