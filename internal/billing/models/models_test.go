package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "registro/pkg/domain-errors"
)

func TestIntervaloNext(t *testing.T) {
	base := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 2, 15, 10, 0, 0, 0, time.UTC), IntervaloMensual.Next(base))
	assert.Equal(t, time.Date(2027, 1, 15, 10, 0, 0, 0, time.UTC), IntervaloAnual.Next(base))
}

func TestSuscripcionActiveAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	s := &Suscripcion{Estado: EstadoActiva, FinPeriodo: now.Add(time.Hour)}
	assert.True(t, s.ActiveAt(now))
	assert.False(t, s.ActiveAt(now.Add(time.Hour)), "period end is exclusive")

	s.Estado = EstadoVencida
	assert.False(t, s.ActiveAt(now))
	s.Estado = EstadoPendiente
	assert.False(t, s.ActiveAt(now))
}

func TestEstadoIsLive(t *testing.T) {
	assert.True(t, EstadoPendiente.IsLive())
	assert.True(t, EstadoVencida.IsLive())
	assert.False(t, EstadoCancelada.IsLive())
	assert.True(t, EstadoCancelada.IsValid())
	assert.False(t, Estado("pausada").IsValid())
}

func TestPlanRequest(t *testing.T) {
	req := &PlanRequest{Codigo: " Basico ", Nombre: "Basico", Precio: "150000", Intervalo: "Mensual"}
	req.Normalize()
	require.NoError(t, req.Validate())

	var p Plan
	p.Activo = true
	req.Apply(&p)
	assert.Equal(t, "basico", p.Codigo)
	assert.Equal(t, DefaultMoneda, p.Moneda)
	assert.Equal(t, IntervaloMensual, p.Intervalo)
	assert.True(t, p.Precio.Equal(decimal.NewFromInt(150000)))
	assert.True(t, p.Activo, "nil activo keeps the flag")

	off := false
	req.Activo = &off
	req.Apply(&p)
	assert.False(t, p.Activo)
}

func TestPlanRequestRejectsBadPrices(t *testing.T) {
	for _, precio := range []string{"0", "-1", "abc", "10.001", "1e15", "999999999999.995"} {
		req := &PlanRequest{Codigo: "x", Nombre: "x", Precio: precio, Intervalo: "anual"}
		req.Normalize()
		assert.True(t, dErrors.HasCode(req.Validate(), dErrors.CodeValidation), precio)
	}
}

func TestPagoRequest(t *testing.T) {
	req := &PagoRequest{Monto: "150000.00", Metodo: " Transferencia ", Referencia: " TX-1 "}
	req.Normalize()
	require.NoError(t, req.Validate())
	assert.Equal(t, "transferencia", req.Metodo)
	assert.Equal(t, "TX-1", req.Referencia)
	assert.Equal(t, DefaultMoneda, req.Moneda)

	req.Metodo = "cheque"
	assert.Error(t, req.Validate())
}
