package repository

import (
	"context"

	"github.com/jhoicas/Transporte-api/internal/domain/entity"
)

// EntityStore es el puerto del almacén documental de entidades (DIP).
// Las búsquedas solo ven documentos activos; un documento ausente devuelve nil, nil.
// Los errores envuelven domain.ErrStoreUnavailable, domain.ErrConstraintViolation
// o domain.ErrValidationReject según corresponda.
type EntityStore interface {
	FindByNaturalKey(ctx context.Context, kind entity.Kind, key string) (entity.Record, error)
	FindManyByNaturalKey(ctx context.Context, kind entity.Kind, keys []string) (map[string]entity.Record, error)

	// Insert persiste el registro como activo, asigna ID si no lo tiene y lo devuelve.
	// Falla con domain.ErrConstraintViolation si la clave natural ya existe.
	Insert(ctx context.Context, rec entity.Record) (string, error)
	Update(ctx context.Context, kind entity.Kind, id string, diff entity.Diff) error

	// AppendToArray agrega value al arreglo si no está (semántica de conjunto).
	AppendToArray(ctx context.Context, kind entity.Kind, id, field, value string) error
	RemoveFromArray(ctx context.Context, kind entity.Kind, id, field, value string) error

	// WithLogicalScope ejecuta fn con un ID de correlación en el contexto para los logs.
	// No implica atomicidad.
	WithLogicalScope(ctx context.Context, fn func(ctx context.Context) error) error
}

// GroupedStore lo implementan los almacenes que pueden agrupar operaciones de forma atómica.
// RunGrouped ejecuta fn con un almacén atado al grupo; si fn falla, nada del grupo persiste.
type GroupedStore interface {
	RunGrouped(ctx context.Context, fn func(store EntityStore) error) error
}

// EntityReader es el lado de consulta del registro.
type EntityReader interface {
	FindByNaturalKey(ctx context.Context, kind entity.Kind, key string) (entity.Record, error)
	// FindByID devuelve también documentos inactivos; nil, nil si no existe.
	FindByID(ctx context.Context, kind entity.Kind, id string) (entity.Record, error)
	// List devuelve los documentos activos del tipo ordenados por clave natural.
	List(ctx context.Context, kind entity.Kind) ([]entity.Record, error)
}
