package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "registro/pkg/domain-errors"
)

// ErrorResponse is the JSON body of every error answer.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; an encoding error cannot change the status.
	_ = json.NewEncoder(w).Encode(response)
}

// WriteNoContent answers 204 with no body.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteError translates domain errors into HTTP responses. Internal errors
// never leak their message to the client.
func WriteError(w http.ResponseWriter, err error) {
	status, resp := ErrorFor(err)
	WriteJSON(w, status, resp)
}

// ErrorFor returns the status and body WriteError would send for err.
// Server-side failures carry a generic description so internals do not leak.
func ErrorFor(err error) (int, ErrorResponse) {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		status := DomainCodeToHTTPStatus(domainErr.Code)
		resp := ErrorResponse{Error: DomainCodeToHTTPCode(domainErr.Code)}
		if status < http.StatusInternalServerError || status == http.StatusServiceUnavailable {
			resp.ErrorDescription = domainErr.Message
		} else {
			resp.ErrorDescription = genericDescription(status)
		}
		return status, resp
	}
	return http.StatusInternalServerError, ErrorResponse{
		Error:            DomainCodeToHTTPCode(dErrors.CodeInternal),
		ErrorDescription: genericDescription(http.StatusInternalServerError),
	}
}

func genericDescription(status int) string {
	switch status {
	case http.StatusBadGateway:
		return "error en el servicio externo"
	case http.StatusGatewayTimeout:
		return "el servicio externo no respondio a tiempo"
	default:
		return "error interno del servidor"
	}
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodePaymentRequired:
		return http.StatusPaymentRequired
	case dErrors.CodeTooManyRequests:
		return http.StatusTooManyRequests
	case dErrors.CodeCanceled:
		return http.StatusRequestTimeout
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	case dErrors.CodeUpstream:
		return http.StatusBadGateway
	case dErrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// DomainCodeToHTTPCode translates domain error codes to the JSON "error" field.
func DomainCodeToHTTPCode(code dErrors.Code) string {
	switch code {
	case dErrors.CodeNotFound:
		return "not_found"
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput:
		return "bad_request"
	case dErrors.CodeValidation:
		return "validation_error"
	case dErrors.CodeConflict:
		return "conflict"
	case dErrors.CodeUnauthorized:
		return "unauthorized"
	case dErrors.CodeForbidden:
		return "forbidden"
	case dErrors.CodePaymentRequired:
		return "subscription_required"
	case dErrors.CodeTooManyRequests:
		return "too_many_requests"
	case dErrors.CodeCanceled:
		return "request_canceled"
	case dErrors.CodeTimeout:
		return "upstream_timeout"
	case dErrors.CodeUpstream:
		return "upstream_error"
	case dErrors.CodeUnavailable:
		return "service_unavailable"
	default:
		return "internal_error"
	}
}
