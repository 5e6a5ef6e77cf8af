package models

import (
	"strings"
	"time"

	id "registro/pkg/domain"
	dErrors "registro/pkg/domain-errors"
	"registro/pkg/validation"
)

// TelefonoInput is one phone entry of a persona payload.
type TelefonoInput struct {
	Numero string `json:"numero" validate:"omitempty,telefono"`
	Tipo   string `json:"tipo" validate:"omitempty,oneof=movil fijo laboral otro"`
}

// PersonaInput carries the identity fields shared by general and every
// roster payload. Empty fields leave stored values untouched on upsert.
type PersonaInput struct {
	Cedula          string          `json:"cedula" validate:"required,cedula"`
	Nombres         string          `json:"nombres" validate:"max=200"`
	Apellidos       string          `json:"apellidos" validate:"max=200"`
	FechaNacimiento string          `json:"fecha_nacimiento" validate:"omitempty,datetime=2006-01-02"`
	Sexo            string          `json:"sexo" validate:"omitempty,oneof=M F X"`
	Direccion       string          `json:"direccion" validate:"max=300"`
	Ciudad          string          `json:"ciudad" validate:"max=120"`
	Email           string          `json:"email" validate:"omitempty,email,max=200"`
	Telefonos       []TelefonoInput `json:"telefonos" validate:"max=20,dive"`
}

func (r *PersonaInput) Normalize() {
	if c, err := id.ParseCedula(r.Cedula); err == nil {
		r.Cedula = c.String()
	}
	r.Nombres = strings.TrimSpace(r.Nombres)
	r.Apellidos = strings.TrimSpace(r.Apellidos)
	r.FechaNacimiento = strings.TrimSpace(r.FechaNacimiento)
	r.Sexo = strings.ToUpper(strings.TrimSpace(r.Sexo))
	r.Direccion = strings.TrimSpace(r.Direccion)
	r.Ciudad = strings.TrimSpace(r.Ciudad)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	for i := range r.Telefonos {
		r.Telefonos[i].Numero = strings.TrimSpace(r.Telefonos[i].Numero)
		r.Telefonos[i].Tipo = strings.ToLower(strings.TrimSpace(r.Telefonos[i].Tipo))
	}
}

func (r *PersonaInput) Validate() error {
	return validation.Validate(r)
}

// ToPersona converts a validated input into a Persona.
func (r *PersonaInput) ToPersona() (*Persona, error) {
	cedula, err := id.ParseCedula(r.Cedula)
	if err != nil {
		return nil, err
	}
	p := &Persona{
		Cedula:    cedula,
		Nombres:   r.Nombres,
		Apellidos: r.Apellidos,
		Sexo:      r.Sexo,
		Direccion: r.Direccion,
		Ciudad:    r.Ciudad,
		Email:     r.Email,
	}
	if r.FechaNacimiento != "" {
		t, err := time.Parse(DateLayout, r.FechaNacimiento)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeValidation, "fecha_nacimiento must be YYYY-MM-DD")
		}
		p.FechaNacimiento = &t
	}
	for _, t := range r.Telefonos {
		p.Telefonos = append(p.Telefonos, Telefono{Numero: t.Numero, Tipo: t.Tipo})
	}
	return p, nil
}

// NormalizeTelefonos canonicalizes numbers and drops blanks and duplicates,
// keeping the first occurrence's position and the last non-empty tipo.
func NormalizeTelefonos(in []Telefono) []Telefono {
	out := make([]Telefono, 0, len(in))
	seen := make(map[string]int, len(in))
	for _, t := range in {
		numero := validation.NormalizePhone(t.Numero)
		if numero == "" {
			continue
		}
		if i, ok := seen[numero]; ok {
			if t.Tipo != "" {
				out[i].Tipo = t.Tipo
			}
			continue
		}
		seen[numero] = len(out)
		out = append(out, Telefono{Numero: numero, Tipo: t.Tipo})
	}
	return out
}
