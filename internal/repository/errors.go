package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a lookup matches no row
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when an insert violates a unique constraint
	ErrDuplicate = errors.New("duplicate")
	// ErrLimitReached is returned when an insert would exceed a per-user cap
	ErrLimitReached = errors.New("limit reached")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// Page converts a 1-based page and a page size into limit/offset
func Page(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	return limit, (page - 1) * limit
}
