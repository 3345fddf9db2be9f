package repositories

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDuplicateEmail is returned when an insert or update violates the
// unique constraint on users.email.
var ErrDuplicateEmail = errors.New("email already exists")

// pgUniqueViolation is the Postgres error code for unique_violation.
const pgUniqueViolation = "23505"

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
