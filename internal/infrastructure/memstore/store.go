// Package memstore implementa el almacén de entidades en memoria. Replica la semántica del
// almacén documental (unicidad de clave natural entre activos, arreglos con semántica de
// conjunto, sin transacciones multi-documento) y sirve para desarrollo y pruebas.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Transporte-api/internal/domain"
	"github.com/jhoicas/Transporte-api/internal/domain/entity"
	"github.com/jhoicas/Transporte-api/internal/domain/repository"
	"github.com/jhoicas/Transporte-api/pkg/logger"
)

var (
	_ repository.EntityStore  = (*Store)(nil)
	_ repository.EntityReader = (*Store)(nil)
)

// Op nombra una operación del almacén, para inyectar fallas.
type Op string

const (
	OpFind   Op = "find"
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpAppend Op = "append"
	OpRemove Op = "remove"
)

// FaultFunc permite simular fallas: si devuelve error, la operación falla con él.
type FaultFunc func(op Op, kind entity.Kind, id string) error

// Option configura el Store.
type Option func(*Store)

// WithClock fija el reloj usado para created_at/updated_at.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// WithFault instala un inyector de fallas.
func WithFault(fn FaultFunc) Option { return func(s *Store) { s.fault = fn } }

// Store guarda cada documento como JSON, indexado por ID y por clave natural (solo activos).
type Store struct {
	mu    sync.RWMutex
	docs  map[entity.Kind]map[string][]byte
	keys  map[entity.Kind]map[string]string
	now   func() time.Time
	fault FaultFunc
}

// New construye un almacén vacío.
func New(opts ...Option) *Store {
	s := &Store{
		docs: make(map[entity.Kind]map[string][]byte),
		keys: make(map[entity.Kind]map[string]string),
		now:  time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// SetFault reemplaza el inyector de fallas (nil lo desactiva).
func (s *Store) SetFault(fn FaultFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = fn
}

func (s *Store) check(op Op, kind entity.Kind, id string) error {
	if s.fault == nil {
		return nil
	}
	return s.fault(op, kind, id)
}

func (s *Store) FindByNaturalKey(ctx context.Context, kind entity.Kind, key string) (entity.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(OpFind, kind, key); err != nil {
		return nil, err
	}
	id, ok := s.keys[kind][key]
	if !ok {
		return nil, nil
	}
	return entity.Decode(kind, s.docs[kind][id])
}

func (s *Store) FindManyByNaturalKey(ctx context.Context, kind entity.Kind, keys []string) (map[string]entity.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(OpFind, kind, ""); err != nil {
		return nil, err
	}
	out := make(map[string]entity.Record, len(keys))
	for _, key := range keys {
		id, ok := s.keys[kind][key]
		if !ok {
			continue
		}
		rec, err := entity.Decode(kind, s.docs[kind][id])
		if err != nil {
			return nil, err
		}
		out[key] = rec
	}
	return out, nil
}

func (s *Store) Insert(ctx context.Context, rec entity.Record) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kind := rec.Kind()
	if err := s.check(OpInsert, kind, ""); err != nil {
		return "", err
	}
	key := rec.NaturalKey()
	if key == "" {
		return "", fmt.Errorf("insert %s: clave natural vacía: %w", kind, domain.ErrValidationReject)
	}
	if _, exists := s.keys[kind][key]; exists {
		return "", fmt.Errorf("insert %s %q: %w", kind, key, domain.ErrConstraintViolation)
	}
	doc, err := entity.Clone(rec)
	if err != nil {
		return "", fmt.Errorf("insert %s: %w", kind, err)
	}
	meta := doc.GetMeta()
	if meta.ID == "" {
		meta.ID = uuid.New().String()
	}
	now := s.now().UTC()
	meta.Active = true
	meta.CreatedAt = now
	meta.UpdatedAt = now
	if err := s.put(doc); err != nil {
		return "", err
	}
	logger.Ctx(ctx).Debug().Str("kind", string(kind)).Str("id", meta.ID).Str("key", key).Msg("documento insertado")
	return meta.ID, nil
}

func (s *Store) Update(ctx context.Context, kind entity.Kind, id string, diff entity.Diff) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(OpUpdate, kind, id); err != nil {
		return err
	}
	current, err := s.get(kind, id)
	if err != nil {
		return err
	}
	oldKey := current.NaturalKey()
	next, err := entity.ApplyDiff(current, diff)
	if err != nil {
		return fmt.Errorf("update %s %s: %v: %w", kind, id, err, domain.ErrValidationReject)
	}
	if newKey := next.NaturalKey(); newKey != oldKey {
		if other, taken := s.keys[kind][newKey]; taken && other != id {
			return fmt.Errorf("update %s %q: %w", kind, newKey, domain.ErrConstraintViolation)
		}
		delete(s.keys[kind], oldKey)
	}
	next.GetMeta().UpdatedAt = s.now().UTC()
	return s.put(next)
}

func (s *Store) AppendToArray(ctx context.Context, kind entity.Kind, id, field, value string) error {
	return s.mutateArray(kind, id, field, OpAppend, func(ids []string) []string {
		for _, v := range ids {
			if v == value {
				return ids
			}
		}
		return append(ids, value)
	})
}

func (s *Store) RemoveFromArray(ctx context.Context, kind entity.Kind, id, field, value string) error {
	return s.mutateArray(kind, id, field, OpRemove, func(ids []string) []string {
		out := ids[:0]
		for _, v := range ids {
			if v != value {
				out = append(out, v)
			}
		}
		return out
	})
}

func (s *Store) mutateArray(kind entity.Kind, id, field string, op Op, fn func([]string) []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(op, kind, id); err != nil {
		return err
	}
	raw, ok := s.docs[kind][id]
	if !ok {
		return fmt.Errorf("%s %s %s: %w", op, kind, id, domain.ErrNotFound)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	current, ok := doc[field]
	if !ok {
		return fmt.Errorf("%s %s.%s: campo inexistente: %w", op, kind, field, domain.ErrValidationReject)
	}
	var ids []string
	if err := json.Unmarshal(current, &ids); err != nil {
		return fmt.Errorf("%s %s.%s: no es arreglo: %w", op, kind, field, domain.ErrValidationReject)
	}
	ids = fn(ids)
	if ids == nil {
		ids = []string{}
	}
	encoded, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	doc[field] = encoded
	out, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	s.docs[kind][id] = out
	return nil
}

// WithLogicalScope asigna un ID de correlación; no hay atomicidad.
func (s *Store) WithLogicalScope(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx = logger.ContextWithCorrelationID(ctx, uuid.New().String())
	return fn(ctx)
}

// FindByID lee un documento por ID, activo o no.
func (s *Store) FindByID(ctx context.Context, kind entity.Kind, id string) (entity.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, err := s.get(kind, id)
	if err != nil {
		return nil, nil
	}
	return rec, nil
}

// List devuelve los documentos activos de un tipo ordenados por clave natural.
func (s *Store) List(ctx context.Context, kind entity.Kind) ([]entity.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.keys[kind]))
	for k := range s.keys[kind] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]entity.Record, 0, len(keys))
	for _, k := range keys {
		rec, err := entity.Decode(kind, s.docs[kind][s.keys[kind][k]])
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Deactivate marca el documento como lápida: deja de ser visible para las búsquedas.
func (s *Store) Deactivate(ctx context.Context, kind entity.Kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.get(kind, id)
	if err != nil {
		return err
	}
	rec.GetMeta().Active = false
	return s.put(rec)
}

func (s *Store) get(kind entity.Kind, id string) (entity.Record, error) {
	raw, ok := s.docs[kind][id]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)
	}
	return entity.Decode(kind, raw)
}

// put guarda el documento y mantiene el índice de claves de los activos.
func (s *Store) put(rec entity.Record) error {
	kind := rec.Kind()
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode %s: %w", kind, err)
	}
	if s.docs[kind] == nil {
		s.docs[kind] = make(map[string][]byte)
		s.keys[kind] = make(map[string]string)
	}
	meta := rec.GetMeta()
	s.docs[kind][meta.ID] = raw
	key := rec.NaturalKey()
	if meta.Active {
		s.keys[kind][key] = meta.ID
	} else if s.keys[kind][key] == meta.ID {
		delete(s.keys[kind], key)
	}
	return nil
}
