// Package pgerr translates PostgreSQL error codes into sentinel and domain
// errors so stores and services share one mapping.
package pgerr

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	dErrors "registro/pkg/domain-errors"
	"registro/pkg/platform/sentinel"
)

// PostgreSQL SQLSTATE codes the registry reacts to.
const (
	UniqueViolation     = "23505"
	ForeignKeyViolation = "23503"
	NotNullViolation    = "23502"
	CheckViolation      = "23514"
	InvalidTextRepr     = "22P02"
	NumericOutOfRange   = "22003"
)

// Code returns the SQLSTATE carried by err, or "" for non-Postgres errors.
func Code(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func IsUniqueViolation(err error) bool {
	return Code(err) == UniqueViolation
}

func IsForeignKeyViolation(err error) bool {
	return Code(err) == ForeignKeyViolation
}

// Constraint returns the violated constraint name, if any.
func Constraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

// Translate maps a store error into a domain error. Known constraint
// violations become client errors; sentinel not-found becomes 404; anything
// else is reported as an internal failure with the generic message msg.
func Translate(err error, msg string) error {
	if err == nil {
		return nil
	}
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "registro no encontrado")
	case errors.Is(err, sentinel.ErrConflict), errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.Wrap(err, dErrors.CodeConflict, "el registro ya existe")
	}
	switch Code(err) {
	case UniqueViolation:
		return dErrors.Wrap(err, dErrors.CodeConflict, "el registro ya existe")
	case ForeignKeyViolation:
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "referencia a un registro inexistente")
	case NotNullViolation, CheckViolation, InvalidTextRepr, NumericOutOfRange:
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "datos invalidos")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
