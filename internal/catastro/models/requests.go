package models

import (
	"strings"

	"github.com/shopspring/decimal"

	id "registro/pkg/domain"
	dErrors "registro/pkg/domain-errors"
	"registro/pkg/validation"
)

// MaxBatchSize bounds POST /geo-data/batch.
const MaxBatchSize = 50

// PropiedadRequest is the body of POST and PUT /api/propiedades.
type PropiedadRequest struct {
	ParcelaKey
	CtaCte            string `json:"cta_cte" validate:"max=40"`
	Zona              string `json:"zona" validate:"max=40"`
	PropietarioCedula string `json:"propietario_cedula" validate:"omitempty,cedula"`
	Superficie        string `json:"superficie"`
	Direccion         string `json:"direccion" validate:"max=300"`
	Observaciones     string `json:"observaciones" validate:"max=2000"`
}

func (r *PropiedadRequest) Normalize() {
	r.ParcelaKey.Normalize()
	r.CtaCte = strings.TrimSpace(r.CtaCte)
	r.Zona = strings.TrimSpace(r.Zona)
	r.PropietarioCedula = strings.TrimSpace(r.PropietarioCedula)
	r.Superficie = strings.TrimSpace(r.Superficie)
	r.Direccion = strings.TrimSpace(r.Direccion)
	r.Observaciones = strings.TrimSpace(r.Observaciones)
}

func (r *PropiedadRequest) Validate() error {
	if err := validation.Validate(r); err != nil {
		return err
	}
	if _, err := r.superficie(); err != nil {
		return err
	}
	return nil
}

func (r *PropiedadRequest) superficie() (decimal.NullDecimal, error) {
	if r.Superficie == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(r.Superficie)
	if err != nil || d.IsNegative() {
		return decimal.NullDecimal{}, dErrors.New(dErrors.CodeValidation, "superficie debe ser un numero no negativo")
	}
	if !validation.FitsNumeric(d) {
		return decimal.NullDecimal{}, dErrors.New(dErrors.CodeValidation, "superficie es demasiado grande")
	}
	return decimal.NullDecimal{Decimal: d.Round(2), Valid: true}, nil
}

// Apply copies the request onto p. Validate must have passed.
func (r *PropiedadRequest) Apply(p *Propiedad) {
	p.ParcelaKey = r.ParcelaKey
	p.CtaCte = r.CtaCte
	p.Zona = r.Zona
	p.PropietarioCedula = nil
	if c, err := id.ParseCedula(r.PropietarioCedula); err == nil {
		p.PropietarioCedula = &c
	}
	p.Superficie, _ = r.superficie()
	p.Direccion = r.Direccion
	p.Observaciones = r.Observaciones
}

// BatchRequest is the body of POST /api/geo-data/batch.
type BatchRequest struct {
	Parcelas []ParcelaKey `json:"parcelas" validate:"required,min=1,max=50,dive"`
}

func (r *BatchRequest) Normalize() {
	for i := range r.Parcelas {
		r.Parcelas[i].Normalize()
	}
}

func (r *BatchRequest) Validate() error {
	if len(r.Parcelas) > MaxBatchSize {
		return dErrors.New(dErrors.CodeValidation, "se admiten hasta 50 parcelas por lote")
	}
	return validation.Validate(r)
}
