package models

import (
	"strings"
	"time"

	pmodels "registro/internal/persona/models"
	id "registro/pkg/domain"
)

// Fuente names where a lookup was answered from.
type Fuente string

const (
	FuenteLocal  Fuente = "local"
	FuenteCache  Fuente = "cache"
	FuenteRemota Fuente = "remoto"
)

// Identidad is a national ID record as returned by the identity service.
// It is also the cached representation.
type Identidad struct {
	Cedula          id.Cedula  `json:"cedula"`
	Nombres         string     `json:"nombres"`
	Apellidos       string     `json:"apellidos"`
	FechaNacimiento *time.Time `json:"fecha_nacimiento,omitempty"`
	Sexo            string     `json:"sexo,omitempty"`
}

// NormalizeSexo maps the service's spellings onto M, F or X. Unknown
// values become empty so they never overwrite a stored value.
func NormalizeSexo(raw string) string {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "M", "MASCULINO", "HOMBRE":
		return "M"
	case "F", "FEMENINO", "MUJER":
		return "F"
	case "X":
		return "X"
	}
	return ""
}

func FromPersona(p *pmodels.Persona) *Identidad {
	return &Identidad{
		Cedula:          p.Cedula,
		Nombres:         p.Nombres,
		Apellidos:       p.Apellidos,
		FechaNacimiento: p.FechaNacimiento,
		Sexo:            p.Sexo,
	}
}

// ToPersona builds the general row written when a lookup is persisted.
// Empty fields leave stored values untouched.
func (i *Identidad) ToPersona() *pmodels.Persona {
	return &pmodels.Persona{
		Cedula:          i.Cedula,
		Nombres:         i.Nombres,
		Apellidos:       i.Apellidos,
		FechaNacimiento: i.FechaNacimiento,
		Sexo:            i.Sexo,
	}
}

// LookupResponse is the answer of GET /api/cedula/{cedula}.
type LookupResponse struct {
	Cedula          string  `json:"cedula"`
	Nombres         string  `json:"nombres"`
	Apellidos       string  `json:"apellidos"`
	NombreCompleto  string  `json:"nombre_completo"`
	FechaNacimiento *string `json:"fecha_nacimiento"`
	Sexo            string  `json:"sexo,omitempty"`
	Fuente          Fuente  `json:"fuente"`
	// Registrado reports whether the cedula exists in general after the call.
	Registrado bool `json:"registrado"`
}

func ToLookupResponse(i *Identidad, fuente Fuente, registrado bool) *LookupResponse {
	res := &LookupResponse{
		Cedula:         i.Cedula.String(),
		Nombres:        i.Nombres,
		Apellidos:      i.Apellidos,
		NombreCompleto: strings.TrimSpace(i.Nombres + " " + i.Apellidos),
		Sexo:           i.Sexo,
		Fuente:         fuente,
		Registrado:     registrado,
	}
	if i.FechaNacimiento != nil {
		s := i.FechaNacimiento.Format(pmodels.DateLayout)
		res.FechaNacimiento = &s
	}
	return res
}
