package pgerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	dErrors "registro/pkg/domain-errors"
	"registro/pkg/platform/sentinel"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want dErrors.Code
	}{
		{"unique violation", &pgconn.PgError{Code: UniqueViolation}, dErrors.CodeConflict},
		{"foreign key violation", &pgconn.PgError{Code: ForeignKeyViolation}, dErrors.CodeBadRequest},
		{"wrapped foreign key violation", fmt.Errorf("insert: %w", &pgconn.PgError{Code: ForeignKeyViolation}), dErrors.CodeBadRequest},
		{"not null violation", &pgconn.PgError{Code: NotNullViolation}, dErrors.CodeBadRequest},
		{"numeric out of range", &pgconn.PgError{Code: NumericOutOfRange}, dErrors.CodeBadRequest},
		{"sentinel not found", fmt.Errorf("find: %w", sentinel.ErrNotFound), dErrors.CodeNotFound},
		{"sentinel conflict", sentinel.ErrConflict, dErrors.CodeConflict},
		{"unknown pg error", &pgconn.PgError{Code: "40001"}, dErrors.CodeInternal},
		{"plain error", errors.New("connection refused"), dErrors.CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Translate(tt.err, "fallo interno")
			assert.True(t, dErrors.HasCode(got, tt.want), "got %v", got)
		})
	}
}

func TestTranslateKeepsDomainErrors(t *testing.T) {
	original := dErrors.New(dErrors.CodeForbidden, "sin permiso")
	assert.Same(t, original, Translate(original, "x"))
	assert.NoError(t, Translate(nil, "x"))
}

func TestConstraint(t *testing.T) {
	err := fmt.Errorf("wrap: %w", &pgconn.PgError{Code: UniqueViolation, ConstraintName: "telefonos_cedula_numero_key"})
	assert.Equal(t, "telefonos_cedula_numero_key", Constraint(err))
	assert.True(t, IsUniqueViolation(err))
	assert.False(t, IsForeignKeyViolation(err))
	assert.Empty(t, Constraint(errors.New("x")))
}
