package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clinicdesk/clinic-backend/internal/apperror"
)

// TranslateConstraint converts storage-level constraint violations into the
// application error taxonomy so raw SQLSTATE codes never leak to callers.
func TranslateConstraint(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23505": // unique_violation
		return apperror.Conflict("a record with these values already exists")
	case "23503": // foreign_key_violation
		return apperror.Validation("referenced record does not exist",
			apperror.FieldError{Field: pgErr.ConstraintName, Message: "referenced record does not exist"})
	case "23502": // not_null_violation
		return apperror.Validation("missing required value",
			apperror.FieldError{Field: pgErr.ColumnName, Message: "must not be null"})
	}
	return err
}
