package shared

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes the repositories care about.
const (
	pgUniqueViolation    = "23505"
	pgSerializationError = "40001"
)

// IsUniqueViolation reports whether err is a unique constraint violation.
// Used to map ownership and index collisions onto duplicate errors.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// IsSerializationFailure reports whether err is a serializable-transaction
// conflict. Callers may retry the whole transaction once.
func IsSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgSerializationError
}
