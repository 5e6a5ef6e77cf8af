// Package access holds the row-level permission rule shared by every module
// that owns records: rosters, properties, agenda contacts and subscriptions.
package access

import (
	id "registro/pkg/domain"
	dErrors "registro/pkg/domain-errors"
	"registro/pkg/requestcontext"
)

// CanAccessRecord reports whether principal may modify a row created or owned
// by ownerID. Admins always may; everyone else only on their own rows. A row
// with no recorded owner is admin-only.
func CanAccessRecord(principal requestcontext.AuthPrincipal, ownerID *id.UserID) bool {
	if principal.IsZero() {
		return false
	}
	if principal.IsAdmin() {
		return true
	}
	return ownerID != nil && *ownerID == principal.UserID
}

// RequireRecordAccess is CanAccessRecord returning a 403 domain error.
func RequireRecordAccess(principal requestcontext.AuthPrincipal, ownerID *id.UserID) error {
	if CanAccessRecord(principal, ownerID) {
		return nil
	}
	return dErrors.New(dErrors.CodeForbidden, "no tiene permiso sobre este registro")
}

// RequireWriter rejects principals whose role cannot create or modify records.
func RequireWriter(principal requestcontext.AuthPrincipal) error {
	if principal.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "autenticacion requerida")
	}
	if !principal.Role.CanWrite() {
		return dErrors.New(dErrors.CodeForbidden, "su rol no permite modificar registros")
	}
	return nil
}
