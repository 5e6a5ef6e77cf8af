package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "registro/pkg/domain-errors"
)

func TestPersonaInput_NormalizeAndValidate(t *testing.T) {
	t.Run("strips cedula separators and trims fields", func(t *testing.T) {
		in := &PersonaInput{Cedula: " 1.234.567 ", Nombres: " Ana ", Sexo: "f", Email: " ANA@Mail.com "}
		in.Normalize()
		require.NoError(t, in.Validate())
		assert.Equal(t, "1234567", in.Cedula)
		assert.Equal(t, "Ana", in.Nombres)
		assert.Equal(t, "F", in.Sexo)
		assert.Equal(t, "ana@mail.com", in.Email)
	})

	t.Run("rejects non-numeric cedula", func(t *testing.T) {
		in := &PersonaInput{Cedula: "12AB"}
		in.Normalize()
		err := in.Validate()
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects malformed date", func(t *testing.T) {
		in := &PersonaInput{Cedula: "123", FechaNacimiento: "01/02/1990"}
		in.Normalize()
		assert.Error(t, in.Validate())
	})

	t.Run("rejects garbage phone but accepts blank", func(t *testing.T) {
		in := &PersonaInput{Cedula: "123", Telefonos: []TelefonoInput{{Numero: ""}, {Numero: "abc"}}}
		in.Normalize()
		assert.Error(t, in.Validate())

		in.Telefonos = in.Telefonos[:1]
		assert.NoError(t, in.Validate())
	})
}

func TestPersonaInput_ToPersona(t *testing.T) {
	in := &PersonaInput{Cedula: "4567", Nombres: "Luis", FechaNacimiento: "1990-05-17",
		Telefonos: []TelefonoInput{{Numero: "0981 123-456", Tipo: "movil"}}}
	p, err := in.ToPersona()
	require.NoError(t, err)
	assert.Equal(t, "4567", p.Cedula.String())
	require.NotNil(t, p.FechaNacimiento)
	assert.Equal(t, 1990, p.FechaNacimiento.Year())
	require.Len(t, p.Telefonos, 1)
}

func TestNormalizeTelefonos(t *testing.T) {
	got := NormalizeTelefonos([]Telefono{
		{Numero: "0981 123 456", Tipo: "movil"},
		{Numero: ""},
		{Numero: "(0981) 123-456", Tipo: "laboral"},
		{Numero: "+595 21 555 000"},
		{Numero: "12"},
	})
	assert.Equal(t, []Telefono{
		{Numero: "0981123456", Tipo: "laboral"},
		{Numero: "+59521555000"},
	}, got)
}

func TestToPersonaResponse_EmptyPhonesIsArray(t *testing.T) {
	res := ToPersonaResponse(&Persona{Cedula: "1"})
	assert.NotNil(t, res.Telefonos)
	assert.Nil(t, res.FechaNacimiento)
	assert.Nil(t, ToPersonaResponse(nil))
}
