package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/EmpoweredVote/meal-tracker/internal/apperr"
)

// SQLSTATE codes the stores care about.
const (
	CodeUniqueViolation     = "23505"
	CodeForeignKeyViolation = "23503"
	CodeCheckViolation      = "23514"
)

// Code returns the SQLSTATE of a Postgres error in err's chain, or "".
func Code(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func IsUniqueViolation(err error) bool { return Code(err) == CodeUniqueViolation }

func IsCheckViolation(err error) bool { return Code(err) == CodeCheckViolation }

func IsForeignKeyViolation(err error) bool { return Code(err) == CodeForeignKeyViolation }

// Classify maps a gorm/Postgres error onto the application error kinds.
// users.username is the only unique constraint, so any unique violation is a
// duplicate username. Unrecognized errors are wrapped as "db error".
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.Wrap(apperr.KindNotFound, "not found", err)
	case IsUniqueViolation(err):
		return apperr.Wrap(apperr.KindDuplicateUsername, apperr.ErrDuplicateUsername.Message, err)
	case IsCheckViolation(err):
		return apperr.Wrap(apperr.KindIntegrity, "record violates a storage constraint", err)
	case IsForeignKeyViolation(err):
		return apperr.Wrap(apperr.KindNotFound, "user not found", err)
	default:
		return fmt.Errorf("db error: %w", err)
	}
}
