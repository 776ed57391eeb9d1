package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Duplicate errors surfaced when a database unique constraint fires. The
// constraint, not an application pre-check, is the source of truth, so
// concurrent inserts resolve to exactly one winner.
var (
	ErrDuplicateUsername = errors.New("username already in use")
	ErrDuplicateEmail    = errors.New("email already in use")
	ErrDuplicateSlug     = errors.New("slug already in use")
	ErrDuplicateReview   = errors.New("review already exists for this title and author")
)

const uniqueViolationCode = "23505"

// translateUniqueViolation maps a postgres unique-violation to the matching
// sentinel by constraint name. Other errors pass through unchanged.
func translateUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolationCode {
		return err
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "username"):
		return ErrDuplicateUsername
	case strings.Contains(pgErr.ConstraintName, "email"):
		return ErrDuplicateEmail
	case strings.Contains(pgErr.ConstraintName, "slug"):
		return ErrDuplicateSlug
	case strings.Contains(pgErr.ConstraintName, "title_author"):
		return ErrDuplicateReview
	}
	return err
}
