package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Unique constraint names, shared with the in-memory store
const (
	ConstraintUserUsername = "users_username_key"
	ConstraintUserEmail    = "users_email_key"
	ConstraintUserToken    = "users_token_key"
	ConstraintPOIName      = "pois_name_key"
)

const pgUniqueViolation = "23505"

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("record not found")

// UniqueViolationError reports a write rejected by a unique constraint
type UniqueViolationError struct {
	Constraint string
}

func (e *UniqueViolationError) Error() string {
	return fmt.Sprintf("unique constraint %q violated", e.Constraint)
}

// translateError converts driver errors into repository errors
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return &UniqueViolationError{Constraint: pgErr.ConstraintName}
	}
	return err
}
