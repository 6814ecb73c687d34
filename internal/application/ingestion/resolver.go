package ingestion

import (
	"context"
	"fmt"

	"github.com/jhoicas/Transporte-api/internal/domain"
	"github.com/jhoicas/Transporte-api/internal/domain/entity"
	"github.com/jhoicas/Transporte-api/internal/domain/repository"
)

// Resolved es una referencia textual resuelta: el ID destino más una instantánea de la entidad.
// InBatch indica que el destino se crea en este mismo lote; su ID se conoce recién al aplicar.
type Resolved[T entity.Record] struct {
	Key     string
	ID      string
	Entity  T
	InBatch bool
}

// Resolver traduce claves naturales a entidades. Cachea las búsquedas durante una petición
// (también las ausencias) y conoce las entidades que el lote va a crear.
type Resolver struct {
	store   repository.EntityStore
	cache   map[entity.Kind]map[string]entity.Record
	planned map[entity.Kind]map[string]entity.Record
}

// NewResolver crea un resolvedor con caché vacía, válido para una sola petición.
func NewResolver(store repository.EntityStore) *Resolver {
	return &Resolver{
		store:   store,
		cache:   make(map[entity.Kind]map[string]entity.Record),
		planned: make(map[entity.Kind]map[string]entity.Record),
	}
}

// Prefetch carga en caché varias claves con una sola consulta.
func (r *Resolver) Prefetch(ctx context.Context, kind entity.Kind, keys []string) error {
	var pending []string
	seen := make(map[string]bool)
	for _, k := range keys {
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		if _, ok := r.cache[kind][k]; !ok {
			pending = append(pending, k)
		}
	}
	if len(pending) == 0 {
		return nil
	}
	found, err := r.store.FindManyByNaturalKey(ctx, kind, pending)
	if err != nil {
		return fmt.Errorf("prefetch %s: %w", kind, err)
	}
	for _, k := range pending {
		r.remember(kind, k, found[k])
	}
	return nil
}

// Existing devuelve la entidad almacenada con esa clave, o nil.
func (r *Resolver) Existing(ctx context.Context, kind entity.Kind, key string) (entity.Record, error) {
	if rec, ok := r.cache[kind][key]; ok {
		return rec, nil
	}
	rec, err := r.store.FindByNaturalKey(ctx, kind, key)
	if err != nil {
		return nil, fmt.Errorf("find %s %q: %w", kind, key, err)
	}
	r.remember(kind, key, rec)
	return rec, nil
}

// Plan registra la entidad que el lote creará para que las filas siguientes la puedan referenciar.
func (r *Resolver) Plan(rec entity.Record) {
	kind := rec.Kind()
	if r.planned[kind] == nil {
		r.planned[kind] = make(map[string]entity.Record)
	}
	r.planned[kind][rec.NaturalKey()] = rec
}

func (r *Resolver) remember(kind entity.Kind, key string, rec entity.Record) {
	if r.cache[kind] == nil {
		r.cache[kind] = make(map[string]entity.Record)
	}
	r.cache[kind][key] = rec
}

// Resolve busca la referencia primero en el almacén y luego entre las entidades planificadas.
// Una referencia sin destino devuelve *MissingReference; los errores del almacén se devuelven
// envueltos en domain.ErrStoreUnavailable.
func Resolve[T entity.Record](ctx context.Context, r *Resolver, kind entity.Kind, key, column string) (Resolved[T], error) {
	var zero Resolved[T]
	rec, err := r.Existing(ctx, kind, key)
	if err != nil {
		return zero, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	inBatch := false
	if rec == nil {
		if p, ok := r.planned[kind][key]; ok {
			rec, inBatch = p, true
		}
	}
	if rec == nil {
		return zero, &MissingReference{Kind: kind, Key: key, Column: column}
	}
	typed, ok := rec.(T)
	if !ok {
		return zero, fmt.Errorf("resolve %s %q: tipo inesperado %T", kind, key, rec)
	}
	res := Resolved[T]{Key: key, Entity: typed, InBatch: inBatch}
	if !inBatch {
		res.ID = rec.GetMeta().ID
	}
	return res, nil
}
