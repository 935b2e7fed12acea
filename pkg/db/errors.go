package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const sqlStateUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique-index failure from
// postgres or sqlite. A non-empty constraint narrows the match to that index.
func IsUniqueViolation(err error, constraint string) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == sqlStateUniqueViolation && (constraint == "" || pgErr.ConstraintName == constraint)
	}
	// sqlite: "UNIQUE constraint failed: orders.code"
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") && (constraint == "" || strings.Contains(msg, constraint))
}
