// Package upstream normalizes failures of outbound HTTP services so callers
// map them to API errors without inspecting transport details.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	dErrors "registro/pkg/domain-errors"
)

// Category is the normalized failure taxonomy.
type Category string

const (
	CategoryTimeout        Category = "timeout"
	CategoryNotFound       Category = "not_found"
	CategoryBadData        Category = "bad_data"
	CategoryAuthentication Category = "authentication"
	CategoryRateLimited    Category = "rate_limited"
	CategoryOutage         Category = "outage"
	CategoryCircuitOpen    Category = "circuit_open"
	CategoryInternal       Category = "internal"
)

// Error wraps an outbound failure with its category and the service name.
type Error struct {
	Category   Category
	Service    string
	Message    string
	Underlying error
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s [%s]: %s: %v", e.Service, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s [%s]: %s", e.Service, e.Category, e.Message)
}

func (e *Error) Unwrap() error { return e.Underlying }

func New(category Category, service, message string, underlying error) *Error {
	return &Error{Category: category, Service: service, Message: message, Underlying: underlying}
}

// CategoryOf returns the category of err, or CategoryInternal for foreign errors.
func CategoryOf(err error) Category {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Category
	}
	return CategoryInternal
}

// CountsAsFailure reports whether err should trip a circuit breaker. A
// missing record means the service answered.
func CountsAsFailure(err error) bool {
	switch CategoryOf(err) {
	case CategoryNotFound, CategoryBadData, CategoryCircuitOpen:
		return false
	}
	return err != nil
}

// FromTransport classifies an error returned by http.Client.Do.
func FromTransport(ctx context.Context, service string, err error) *Error {
	var netErr net.Error
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return New(CategoryTimeout, service, "request timeout", err)
	}
	return New(CategoryOutage, service, "request failed", err)
}

// FromStatus classifies a non-200 response status.
func FromStatus(service string, status int) *Error {
	msg := fmt.Sprintf("unexpected status %d", status)
	switch {
	case status == http.StatusNotFound:
		return New(CategoryNotFound, service, "not found", nil)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return New(CategoryAuthentication, service, msg, nil)
	case status == http.StatusTooManyRequests:
		return New(CategoryRateLimited, service, msg, nil)
	case status == http.StatusGatewayTimeout || status == http.StatusRequestTimeout:
		return New(CategoryTimeout, service, msg, nil)
	case status >= 500:
		return New(CategoryOutage, service, msg, nil)
	default:
		return New(CategoryBadData, service, msg, nil)
	}
}

// ToDomain maps an upstream failure to an API error: not found 404,
// timeout 504, open circuit 503 and anything else 502.
func ToDomain(err error, notFoundMsg string) error {
	if err == nil {
		return nil
	}
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		return err
	}
	switch CategoryOf(err) {
	case CategoryNotFound:
		return dErrors.Wrap(err, dErrors.CodeNotFound, notFoundMsg)
	case CategoryTimeout:
		return dErrors.Wrap(err, dErrors.CodeTimeout, "el servicio externo no respondio a tiempo")
	case CategoryCircuitOpen:
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "servicio externo temporalmente no disponible")
	default:
		return dErrors.Wrap(err, dErrors.CodeUpstream, "error del servicio externo")
	}
}
