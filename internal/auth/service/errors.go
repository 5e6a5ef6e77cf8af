package service

import (
	"errors"

	dErrors "registro/pkg/domain-errors"
	"registro/pkg/platform/pgerr"
	"registro/pkg/platform/sentinel"
)

var (
	errInvalidCredentials = dErrors.New(dErrors.CodeUnauthorized, "credenciales invalidas")
	errInvalidRefresh     = dErrors.New(dErrors.CodeUnauthorized, "sesion expirada, inicie sesion nuevamente")
	errLastAdmin          = dErrors.New(dErrors.CodeConflict, "debe quedar al menos un administrador activo")
	errSelfDelete         = dErrors.New(dErrors.CodeConflict, "no puede eliminar su propio usuario")
)

func isNotFound(err error) bool {
	return errors.Is(err, sentinel.ErrNotFound)
}

// translate maps store errors to domain errors for user management.
func translate(err error, msg string) error {
	if errors.Is(err, sentinel.ErrConflict) {
		return dErrors.Wrap(err, dErrors.CodeConflict, "el nombre de usuario ya existe")
	}
	if isNotFound(err) {
		return dErrors.Wrap(err, dErrors.CodeNotFound, "usuario no encontrado")
	}
	return pgerr.Translate(err, msg)
}
