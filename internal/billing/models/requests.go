package models

import (
	"strings"

	"github.com/shopspring/decimal"

	dErrors "registro/pkg/domain-errors"
	"registro/pkg/validation"
)

// PlanRequest is the body of POST and PUT /api/planes.
type PlanRequest struct {
	Codigo    string `json:"codigo" validate:"required,notblank,max=40"`
	Nombre    string `json:"nombre" validate:"required,notblank,max=200"`
	Precio    string `json:"precio" validate:"required"`
	Moneda    string `json:"moneda" validate:"omitempty,len=3,alpha"`
	Intervalo string `json:"intervalo" validate:"required,oneof=mensual anual"`
	Activo    *bool  `json:"activo"`
}

func (r *PlanRequest) Normalize() {
	r.Codigo = strings.ToLower(strings.TrimSpace(r.Codigo))
	r.Nombre = strings.TrimSpace(r.Nombre)
	r.Precio = strings.TrimSpace(r.Precio)
	r.Moneda = strings.ToUpper(strings.TrimSpace(r.Moneda))
	if r.Moneda == "" {
		r.Moneda = DefaultMoneda
	}
	r.Intervalo = strings.ToLower(strings.TrimSpace(r.Intervalo))
}

func (r *PlanRequest) Validate() error {
	if err := validation.Validate(r); err != nil {
		return err
	}
	_, err := r.precio()
	return err
}

func (r *PlanRequest) precio() (decimal.Decimal, error) {
	return positiveAmount(r.Precio, "precio")
}

// Apply copies the request onto p. A nil Activo keeps the current flag.
func (r *PlanRequest) Apply(p *Plan) {
	p.Codigo = r.Codigo
	p.Nombre = r.Nombre
	p.Precio, _ = r.precio()
	p.Moneda = r.Moneda
	p.Intervalo = Intervalo(r.Intervalo)
	if r.Activo != nil {
		p.Activo = *r.Activo
	}
}

// SuscripcionRequest is the body of POST /api/suscripciones.
type SuscripcionRequest struct {
	PlanID string `json:"plan_id" validate:"required,uuid"`
}

func (r *SuscripcionRequest) Normalize() {
	r.PlanID = strings.TrimSpace(r.PlanID)
}

func (r *SuscripcionRequest) Validate() error {
	return validation.Validate(r)
}

// PagoRequest is the body of POST /api/suscripciones/{id}/pagos.
type PagoRequest struct {
	Monto      string `json:"monto" validate:"required"`
	Moneda     string `json:"moneda" validate:"omitempty,len=3,alpha"`
	Metodo     string `json:"metodo" validate:"required,oneof=efectivo transferencia tarjeta"`
	Referencia string `json:"referencia" validate:"required,notblank,max=100"`
}

func (r *PagoRequest) Normalize() {
	r.Monto = strings.TrimSpace(r.Monto)
	r.Moneda = strings.ToUpper(strings.TrimSpace(r.Moneda))
	if r.Moneda == "" {
		r.Moneda = DefaultMoneda
	}
	r.Metodo = strings.ToLower(strings.TrimSpace(r.Metodo))
	r.Referencia = strings.TrimSpace(r.Referencia)
}

func (r *PagoRequest) Validate() error {
	if err := validation.Validate(r); err != nil {
		return err
	}
	_, err := r.MontoDecimal()
	return err
}

// MontoDecimal parses the amount. Validate must have passed.
func (r *PagoRequest) MontoDecimal() (decimal.Decimal, error) {
	return positiveAmount(r.Monto, "monto")
}

func positiveAmount(raw, field string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil || !d.IsPositive() {
		return decimal.Decimal{}, dErrors.New(dErrors.CodeValidation, field+" debe ser un numero positivo")
	}
	if d.Exponent() < -2 {
		return decimal.Decimal{}, dErrors.New(dErrors.CodeValidation, field+" admite hasta dos decimales")
	}
	if !validation.FitsNumeric(d) {
		return decimal.Decimal{}, dErrors.New(dErrors.CodeValidation, field+" es demasiado grande")
	}
	return d, nil
}
