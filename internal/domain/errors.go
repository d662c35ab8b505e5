package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrConflict          = errors.New("conflicto de concurrencia sobre el recurso")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrBusinessRule      = errors.New("regla de negocio violada")
)

// IsClientError indica si el error es corregible por el cliente (o reintentable, en el caso de ErrConflict).
// Cualquier otro error se considera fatal y debe registrarse con contexto completo.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrDuplicate) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrBusinessRule)
}
