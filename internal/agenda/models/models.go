package models

import (
	"strings"
	"time"

	id "registro/pkg/domain"
	"registro/pkg/validation"
)

// Contacto is an entry of a user's private agenda. Unlike roster records it
// does not reference general: the cedula is free text.
type Contacto struct {
	ID        id.ContactID
	OwnerID   id.UserID
	Nombres   string
	Apellidos string
	Cedula    string
	Empresa   string
	Email     string
	Telefonos []string
	Notas     string
	Favorito  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ListFilter narrows an agenda listing. A nil OwnerID lists every agenda.
type ListFilter struct {
	OwnerID  *id.UserID
	Q        string
	Favorito *bool
}

// ContactoRequest is the body of POST and PUT /api/contactos.
type ContactoRequest struct {
	Nombres   string   `json:"nombres" validate:"required,notblank,max=200"`
	Apellidos string   `json:"apellidos" validate:"max=200"`
	Cedula    string   `json:"cedula" validate:"omitempty,cedula"`
	Empresa   string   `json:"empresa" validate:"max=200"`
	Email     string   `json:"email" validate:"omitempty,email,max=200"`
	Telefonos []string `json:"telefonos" validate:"max=10,dive,telefono"`
	Notas     string   `json:"notas" validate:"max=2000"`
	Favorito  bool     `json:"favorito"`
}

func (r *ContactoRequest) Normalize() {
	r.Nombres = strings.TrimSpace(r.Nombres)
	r.Apellidos = strings.TrimSpace(r.Apellidos)
	r.Cedula = strings.TrimSpace(r.Cedula)
	if c, err := id.ParseCedula(r.Cedula); err == nil {
		r.Cedula = c.String()
	}
	r.Empresa = strings.TrimSpace(r.Empresa)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Notas = strings.TrimSpace(r.Notas)
}

func (r *ContactoRequest) Validate() error {
	return validation.Validate(r)
}

// Apply copies the request onto c, normalizing and de-duplicating phones.
func (r *ContactoRequest) Apply(c *Contacto) {
	c.Nombres = r.Nombres
	c.Apellidos = r.Apellidos
	c.Cedula = r.Cedula
	c.Empresa = r.Empresa
	c.Email = r.Email
	c.Notas = r.Notas
	c.Favorito = r.Favorito
	c.Telefonos = normalizePhones(r.Telefonos)
}

func normalizePhones(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, raw := range in {
		n := validation.NormalizePhone(raw)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// ContactoResponse is the JSON view of a Contacto.
type ContactoResponse struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Nombres   string    `json:"nombres"`
	Apellidos string    `json:"apellidos"`
	Cedula    string    `json:"cedula,omitempty"`
	Empresa   string    `json:"empresa,omitempty"`
	Email     string    `json:"email,omitempty"`
	Telefonos []string  `json:"telefonos"`
	Notas     string    `json:"notas,omitempty"`
	Favorito  bool      `json:"favorito"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ToContactoResponse(c *Contacto) *ContactoResponse {
	if c == nil {
		return nil
	}
	phones := c.Telefonos
	if phones == nil {
		phones = []string{}
	}
	return &ContactoResponse{
		ID:        c.ID.String(),
		OwnerID:   c.OwnerID.String(),
		Nombres:   c.Nombres,
		Apellidos: c.Apellidos,
		Cedula:    c.Cedula,
		Empresa:   c.Empresa,
		Email:     c.Email,
		Telefonos: phones,
		Notas:     c.Notas,
		Favorito:  c.Favorito,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
