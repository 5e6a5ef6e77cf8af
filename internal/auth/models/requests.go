package models

import (
	"strings"

	id "registro/pkg/domain"
	dErrors "registro/pkg/domain-errors"
	"registro/pkg/validation"
)

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required,notblank,max=100"`
	Password string `json:"password" validate:"required,max=200"`
}

func (r *LoginRequest) Normalize() {
	r.Username = strings.ToLower(strings.TrimSpace(r.Username))
}

func (r *LoginRequest) Validate() error {
	return validation.Validate(r)
}

// CreateUserRequest is the body of POST /api/usuarios.
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,notblank,min=3,max=100"`
	Password string `json:"password" validate:"required,min=8,max=200"`
	Nombre   string `json:"nombre" validate:"max=200"`
	Role     string `json:"role" validate:"required,oneof=admin editor lector"`
}

func (r *CreateUserRequest) Normalize() {
	r.Username = strings.ToLower(strings.TrimSpace(r.Username))
	r.Nombre = strings.TrimSpace(r.Nombre)
	r.Role = strings.ToLower(strings.TrimSpace(r.Role))
}

func (r *CreateUserRequest) Validate() error {
	return validation.Validate(r)
}

// UpdateUserRequest is the body of PATCH /api/usuarios/{id}. Absent fields are left unchanged.
type UpdateUserRequest struct {
	Nombre   *string `json:"nombre" validate:"omitempty,max=200"`
	Role     *string `json:"role" validate:"omitempty,oneof=admin editor lector"`
	Active   *bool   `json:"active"`
	Password *string `json:"password" validate:"omitempty,min=8,max=200"`
}

func (r *UpdateUserRequest) Normalize() {
	if r.Nombre != nil {
		v := strings.TrimSpace(*r.Nombre)
		r.Nombre = &v
	}
	if r.Role != nil {
		v := strings.ToLower(strings.TrimSpace(*r.Role))
		r.Role = &v
	}
}

func (r *UpdateUserRequest) Validate() error {
	if r.Nombre == nil && r.Role == nil && r.Active == nil && r.Password == nil {
		return dErrors.New(dErrors.CodeValidation, "at least one field is required")
	}
	return validation.Validate(r)
}

// ToUpdate converts the request into a store-level update.
func (r *UpdateUserRequest) ToUpdate() UserUpdate {
	u := UserUpdate{Nombre: r.Nombre, Active: r.Active, Password: r.Password}
	if r.Role != nil {
		role := id.Role(*r.Role)
		u.Role = &role
	}
	return u
}
