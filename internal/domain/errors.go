package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")

	// Errores del almacén de entidades. Los adaptadores envuelven el error del driver con uno de estos.
	ErrStoreUnavailable    = errors.New("almacén no disponible")
	ErrConstraintViolation = errors.New("violación de restricción de unicidad o referencia")
	ErrValidationReject    = errors.New("documento rechazado por el esquema del almacén")

	// ErrUnreadableWorkbook indica que el archivo subido no es una hoja de cálculo legible.
	ErrUnreadableWorkbook = errors.New("no se pudo leer el libro de cálculo")
)
