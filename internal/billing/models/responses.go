package models

import "time"

type PlanResponse struct {
	ID        string    `json:"id"`
	Codigo    string    `json:"codigo"`
	Nombre    string    `json:"nombre"`
	Precio    string    `json:"precio"`
	Moneda    string    `json:"moneda"`
	Intervalo string    `json:"intervalo"`
	Activo    bool      `json:"activo"`
	CreatedAt time.Time `json:"created_at"`
}

func ToPlanResponse(p *Plan) *PlanResponse {
	if p == nil {
		return nil
	}
	return &PlanResponse{
		ID:        p.ID.String(),
		Codigo:    p.Codigo,
		Nombre:    p.Nombre,
		Precio:    p.Precio.StringFixed(2),
		Moneda:    p.Moneda,
		Intervalo: string(p.Intervalo),
		Activo:    p.Activo,
		CreatedAt: p.CreatedAt,
	}
}

type SuscripcionResponse struct {
	ID          string        `json:"id"`
	UserID      string        `json:"user_id"`
	Estado      string        `json:"estado"`
	Vigente     bool          `json:"vigente"`
	Inicio      time.Time     `json:"inicio"`
	FinPeriodo  time.Time     `json:"fin_periodo"`
	CanceladaEn *time.Time    `json:"cancelada_en"`
	CreatedAt   time.Time     `json:"created_at"`
	Plan        *PlanResponse `json:"plan"`
}

// ToSuscripcionResponse renders s. plan may be nil when the caller did not
// load it.
func ToSuscripcionResponse(s *Suscripcion, plan *Plan, now time.Time) *SuscripcionResponse {
	if s == nil {
		return nil
	}
	return &SuscripcionResponse{
		ID:          s.ID.String(),
		UserID:      s.UserID.String(),
		Estado:      string(s.Estado),
		Vigente:     s.ActiveAt(now),
		Inicio:      s.Inicio,
		FinPeriodo:  s.FinPeriodo,
		CanceladaEn: s.CanceladaEn,
		CreatedAt:   s.CreatedAt,
		Plan:        ToPlanResponse(plan),
	}
}

type PagoResponse struct {
	ID            string    `json:"id"`
	SuscripcionID string    `json:"suscripcion_id"`
	Monto         string    `json:"monto"`
	Moneda        string    `json:"moneda"`
	Metodo        string    `json:"metodo"`
	Referencia    string    `json:"referencia"`
	PagadoEn      time.Time `json:"pagado_en"`
}

func ToPagoResponse(p *Pago) *PagoResponse {
	return &PagoResponse{
		ID:            p.ID.String(),
		SuscripcionID: p.SuscripcionID.String(),
		Monto:         p.Monto.StringFixed(2),
		Moneda:        p.Moneda,
		Metodo:        p.Metodo,
		Referencia:    p.Referencia,
		PagadoEn:      p.PagadoEn,
	}
}

// PagoRegistradoResponse answers a recorded payment with the renewed
// subscription.
type PagoRegistradoResponse struct {
	Pago        *PagoResponse        `json:"pago"`
	Suscripcion *SuscripcionResponse `json:"suscripcion"`
}
