package validation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "registro/pkg/domain-errors"
)

type personaInput struct {
	Cedula    string `validate:"required,cedula"`
	Nombres   string `validate:"notblank,max=120"`
	Email     string `validate:"omitempty,email"`
	Telefono  string `validate:"omitempty,telefono"`
	Intervalo string `validate:"omitempty,oneof=mensual anual"`
}

func TestValidate(t *testing.T) {
	valid := personaInput{Cedula: "1.234.567", Nombres: "Ana", Email: "ana@example.com", Telefono: "+595 981 123456"}

	tests := []struct {
		name    string
		mutate  func(p *personaInput)
		wantMsg string
	}{
		{"missing cedula", func(p *personaInput) { p.Cedula = "" }, "cedula is required"},
		{"bad cedula", func(p *personaInput) { p.Cedula = "12ab" }, "cedula must be a valid cedula"},
		{"blank name", func(p *personaInput) { p.Nombres = "   " }, "nombres must not be blank"},
		{"bad email", func(p *personaInput) { p.Email = "nope" }, "email must be a valid email"},
		{"bad phone", func(p *personaInput) { p.Telefono = "12" }, "telefono must be a valid phone number"},
		{"bad interval", func(p *personaInput) { p.Intervalo = "semanal" }, "intervalo must be one of [mensual anual]"},
	}

	require.NoError(t, Validate(valid))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			err := Validate(in)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
			assert.Equal(t, tt.wantMsg, err.Error())
		})
	}
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+595981123456", NormalizePhone(" +595 (981) 123-456 "))
	assert.Equal(t, "0981123456", NormalizePhone("0981-123-456"))
	assert.Equal(t, "", NormalizePhone("123"))
	assert.Equal(t, "", NormalizePhone(""))
}

func TestToSnakeCase(t *testing.T) {
	assert.Equal(t, "fecha_nacimiento", toSnakeCase("FechaNacimiento"))
	assert.Equal(t, "plan_id", toSnakeCase("PlanID"))
}

func TestFitsNumeric(t *testing.T) {
	assert.True(t, FitsNumeric(decimal.RequireFromString("999999999999.99")))
	assert.True(t, FitsNumeric(decimal.RequireFromString("-5")))
	assert.False(t, FitsNumeric(decimal.RequireFromString("999999999999.995")), "rounds up to 1e12")
	assert.False(t, FitsNumeric(decimal.RequireFromString("1e15")))
}
