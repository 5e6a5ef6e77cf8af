package models

import (
	"time"

	"github.com/shopspring/decimal"

	id "registro/pkg/domain"
)

// DefaultMoneda is the currency plans and payments use when none is given.
const DefaultMoneda = "PYG"

// Intervalo is the billing period of a plan.
type Intervalo string

const (
	IntervaloMensual Intervalo = "mensual"
	IntervaloAnual   Intervalo = "anual"
)

func (i Intervalo) IsValid() bool {
	return i == IntervaloMensual || i == IntervaloAnual
}

// Next returns t advanced by one period. Month arithmetic follows
// time.AddDate, so Jan 31 + mensual normalises into March.
func (i Intervalo) Next(t time.Time) time.Time {
	if i == IntervaloAnual {
		return t.AddDate(1, 0, 0)
	}
	return t.AddDate(0, 1, 0)
}

// Estado is the lifecycle state of a subscription.
type Estado string

const (
	// EstadoPendiente is a subscription created but never paid.
	EstadoPendiente Estado = "pendiente"
	EstadoActiva    Estado = "activa"
	EstadoVencida   Estado = "vencida"
	EstadoCancelada Estado = "cancelada"
)

// IsLive reports whether the state still blocks a new subscription for the
// same user.
func (e Estado) IsLive() bool {
	return e == EstadoPendiente || e == EstadoActiva || e == EstadoVencida
}

func (e Estado) IsValid() bool {
	return e.IsLive() || e == EstadoCancelada
}

type Plan struct {
	ID        id.PlanID
	Codigo    string
	Nombre    string
	Precio    decimal.Decimal
	Moneda    string
	Intervalo Intervalo
	Activo    bool
	CreatedAt time.Time
}

type Suscripcion struct {
	ID          id.SubscriptionID
	UserID      id.UserID
	PlanID      id.PlanID
	Estado      Estado
	Inicio      time.Time
	FinPeriodo  time.Time
	CanceladaEn *time.Time
	CreatedAt   time.Time
}

// ActiveAt reports whether the subscription grants access at now.
func (s *Suscripcion) ActiveAt(now time.Time) bool {
	return s.Estado == EstadoActiva && now.Before(s.FinPeriodo)
}

type Pago struct {
	ID            id.PaymentID
	SuscripcionID id.SubscriptionID
	Monto         decimal.Decimal
	Moneda        string
	Metodo        string
	Referencia    string
	PagadoEn      time.Time
}

// SuscripcionFilter narrows the admin subscription listing.
type SuscripcionFilter struct {
	Estado *Estado
	UserID *id.UserID
}
