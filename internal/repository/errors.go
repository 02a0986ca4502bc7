package repository

import (
	"errors"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a Postgres unique constraint
// failure, optionally on a specific index.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}
