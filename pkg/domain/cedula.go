package domain

import (
	"strings"

	dErrors "registro/pkg/domain-errors"
)

// MaxCedulaDigits bounds Paraguayan identity numbers.
const MaxCedulaDigits = 10

// Cedula is a national identity number normalized to bare digits.
type Cedula string

// ParseCedula strips thousands separators and whitespace ("1.234.567" ->
// "1234567") and rejects anything that is not 1..10 digits.
func ParseCedula(s string) (Cedula, error) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r == '.' || r == ' ' || r == '-':
			continue
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			return "", dErrors.New(dErrors.CodeInvalidInput, "cedula must contain only digits")
		}
	}
	c := strings.TrimLeft(b.String(), "0")
	if c == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "cedula is required")
	}
	if len(c) > MaxCedulaDigits {
		return "", dErrors.New(dErrors.CodeInvalidInput, "cedula is too long")
	}
	return Cedula(c), nil
}

func (c Cedula) String() string { return string(c) }
func (c Cedula) IsZero() bool   { return c == "" }

// Role is the authorization level of a registry user.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleReader Role = "lector"
)

// ParseRole validates a role string.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleEditor, RoleReader:
		return r, nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "role must be one of admin, editor, lector")
}

// CanWrite reports whether the role may create or modify registry records.
func (r Role) CanWrite() bool {
	return r == RoleAdmin || r == RoleEditor
}

func (r Role) String() string { return string(r) }
