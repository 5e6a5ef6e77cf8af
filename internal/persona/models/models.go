package models

import (
	"time"

	id "registro/pkg/domain"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// Persona is a row of the shared general identity table. Every roster
// specialization references one by cedula.
type Persona struct {
	Cedula          id.Cedula
	Nombres         string
	Apellidos       string
	FechaNacimiento *time.Time
	Sexo            string
	Direccion       string
	Ciudad          string
	Email           string
	Telefonos       []Telefono
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Telefono is a phone number attached to a persona.
type Telefono struct {
	Numero string
	Tipo   string
}

// NombreCompleto joins names for display and logs.
func (p *Persona) NombreCompleto() string {
	switch {
	case p.Nombres == "":
		return p.Apellidos
	case p.Apellidos == "":
		return p.Nombres
	}
	return p.Nombres + " " + p.Apellidos
}
