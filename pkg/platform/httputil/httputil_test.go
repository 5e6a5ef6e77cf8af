package httputil

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	dErrors "registro/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantDesc   string
	}{
		{"not found", dErrors.New(dErrors.CodeNotFound, "persona no encontrada"), http.StatusNotFound, "not_found", "persona no encontrada"},
		{"conflict", dErrors.New(dErrors.CodeConflict, "cedula duplicada"), http.StatusConflict, "conflict", "cedula duplicada"},
		{"forbidden", dErrors.New(dErrors.CodeForbidden, "sin permiso"), http.StatusForbidden, "forbidden", "sin permiso"},
		{"subscription", dErrors.New(dErrors.CodePaymentRequired, "suscripcion requerida"), http.StatusPaymentRequired, "subscription_required", "suscripcion requerida"},
		{"throttled", dErrors.New(dErrors.CodeTooManyRequests, "demasiados intentos"), http.StatusTooManyRequests, "too_many_requests", "demasiados intentos"},
		{"canceled", dErrors.New(dErrors.CodeCanceled, "la solicitud fue cancelada"), http.StatusRequestTimeout, "request_canceled", "la solicitud fue cancelada"},
		{"upstream", dErrors.New(dErrors.CodeUpstream, "wfs: status 500"), http.StatusBadGateway, "upstream_error", "error en el servicio externo"},
		{"internal hides message", dErrors.New(dErrors.CodeInternal, "pq: relation missing"), http.StatusInternalServerError, "internal_error", "error interno del servidor"},
		{"wrapped domain error", fmt.Errorf("svc: %w", dErrors.New(dErrors.CodeValidation, "limit invalido")), http.StatusBadRequest, "validation_error", "limit invalido"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "internal_error", "error interno del servidor"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeError(t, w)
			assert.Equal(t, tt.wantCode, resp.Error)
			assert.Equal(t, tt.wantDesc, resp.ErrorDescription)
		})
	}
}
