package models

import (
	"encoding/json"
	"time"

	pmodels "registro/internal/persona/models"
	id "registro/pkg/domain"
)

// Record is one specialization row joined with its general identity.
type Record struct {
	ID        id.RecordID
	Kind      string
	Persona   *pmodels.Persona
	Datos     Values
	CreatedBy *id.UserID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RecordRequest is the body of POST and PUT /api/{kind}.
type RecordRequest struct {
	Persona pmodels.PersonaInput       `json:"persona"`
	Datos   map[string]json.RawMessage `json:"datos"`
}

func (r *RecordRequest) Normalize() {
	r.Persona.Normalize()
}

func (r *RecordRequest) Validate() error {
	return r.Persona.Validate()
}

// RecordResponse is the JSON view of a Record.
type RecordResponse struct {
	ID        string                   `json:"id"`
	Kind      string                   `json:"kind"`
	Cedula    string                   `json:"cedula"`
	Persona   *pmodels.PersonaResponse `json:"persona"`
	Datos     map[string]any           `json:"datos"`
	CreatedBy *string                  `json:"created_by"`
	CreatedAt time.Time                `json:"created_at"`
	UpdatedAt time.Time                `json:"updated_at"`
}

func ToRecordResponse(k Kind, r *Record) *RecordResponse {
	if r == nil {
		return nil
	}
	res := &RecordResponse{
		ID:        r.ID.String(),
		Kind:      k.Name,
		Persona:   pmodels.ToPersonaResponse(r.Persona),
		Datos:     k.JSON(r.Datos),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.Persona != nil {
		res.Cedula = r.Persona.Cedula.String()
	}
	if r.CreatedBy != nil {
		s := r.CreatedBy.String()
		res.CreatedBy = &s
	}
	return res
}
