package models

import "time"

type TelefonoResponse struct {
	Numero string `json:"numero"`
	Tipo   string `json:"tipo,omitempty"`
}

// PersonaResponse is the JSON view of a general row and its phones.
type PersonaResponse struct {
	Cedula          string             `json:"cedula"`
	Nombres         string             `json:"nombres"`
	Apellidos       string             `json:"apellidos"`
	FechaNacimiento *string            `json:"fecha_nacimiento"`
	Sexo            string             `json:"sexo,omitempty"`
	Direccion       string             `json:"direccion,omitempty"`
	Ciudad          string             `json:"ciudad,omitempty"`
	Email           string             `json:"email,omitempty"`
	Telefonos       []TelefonoResponse `json:"telefonos"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

func ToPersonaResponse(p *Persona) *PersonaResponse {
	if p == nil {
		return nil
	}
	res := &PersonaResponse{
		Cedula:    p.Cedula.String(),
		Nombres:   p.Nombres,
		Apellidos: p.Apellidos,
		Sexo:      p.Sexo,
		Direccion: p.Direccion,
		Ciudad:    p.Ciudad,
		Email:     p.Email,
		Telefonos: make([]TelefonoResponse, 0, len(p.Telefonos)),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.FechaNacimiento != nil {
		s := p.FechaNacimiento.Format(DateLayout)
		res.FechaNacimiento = &s
	}
	for _, t := range p.Telefonos {
		res.Telefonos = append(res.Telefonos, TelefonoResponse{Numero: t.Numero, Tipo: t.Tipo})
	}
	return res
}
