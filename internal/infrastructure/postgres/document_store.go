package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Transporte-api/internal/domain"
	"github.com/jhoicas/Transporte-api/internal/domain/entity"
	"github.com/jhoicas/Transporte-api/internal/domain/repository"
	"github.com/jhoicas/Transporte-api/pkg/logger"
)

// Asegura que DocumentStore implementa los puertos del almacén.
var (
	_ repository.EntityStore  = (*DocumentStore)(nil)
	_ repository.GroupedStore = (*DocumentStore)(nil)
	_ repository.EntityReader = (*DocumentStore)(nil)
)

// querier es lo común entre el pool y una transacción.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DocumentStore guarda cada entidad como un documento JSONB en entity_documents.
// Los metadatos (id, active, created_at, updated_at) viven en columnas y se mezclan al leer.
type DocumentStore struct {
	db  querier
	tx  *TxRunner // nil dentro de un grupo
	now func() time.Time
}

// NewDocumentStore construye el adaptador sobre el pool.
func NewDocumentStore(pool *pgxpool.Pool) *DocumentStore {
	return &DocumentStore{db: pool, tx: NewTxRunner(pool), now: time.Now}
}

// selectDoc reconstruye el documento completo con sus metadatos.
const selectDoc = `doc || jsonb_build_object('id', id, 'active', active, 'created_at', created_at, 'updated_at', updated_at)`

// FindByNaturalKey busca un documento activo por clave natural. nil, nil si no existe.
func (s *DocumentStore) FindByNaturalKey(ctx context.Context, kind entity.Kind, key string) (entity.Record, error) {
	query := `SELECT ` + selectDoc + ` FROM entity_documents
		WHERE kind = $1 AND natural_key = $2 AND active`
	var raw []byte
	if err := s.db.QueryRow(ctx, query, string(kind), key).Scan(&raw); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, mapError(fmt.Sprintf("find %s %q", kind, key), err)
	}
	return entity.Decode(kind, raw)
}

// FindManyByNaturalKey trae varias claves en una consulta; las ausentes no aparecen en el mapa.
func (s *DocumentStore) FindManyByNaturalKey(ctx context.Context, kind entity.Kind, keys []string) (map[string]entity.Record, error) {
	out := make(map[string]entity.Record, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	query := `SELECT natural_key, ` + selectDoc + ` FROM entity_documents
		WHERE kind = $1 AND natural_key = ANY($2) AND active`
	rows, err := s.db.Query(ctx, query, string(kind), keys)
	if err != nil {
		return nil, mapError(fmt.Sprintf("find many %s", kind), err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			key string
			raw []byte
		)
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, mapError(fmt.Sprintf("scan %s", kind), err)
		}
		rec, err := entity.Decode(kind, raw)
		if err != nil {
			return nil, err
		}
		out[key] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(fmt.Sprintf("find many %s", kind), err)
	}
	return out, nil
}

// FindByID lee un documento por ID, activo o no.
func (s *DocumentStore) FindByID(ctx context.Context, kind entity.Kind, id string) (entity.Record, error) {
	query := `SELECT ` + selectDoc + ` FROM entity_documents WHERE kind = $1 AND id = $2`
	var raw []byte
	if err := s.db.QueryRow(ctx, query, string(kind), id).Scan(&raw); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, mapError(fmt.Sprintf("find %s %s", kind, id), err)
	}
	return entity.Decode(kind, raw)
}

// List devuelve los documentos activos del tipo ordenados por clave natural.
func (s *DocumentStore) List(ctx context.Context, kind entity.Kind) ([]entity.Record, error) {
	query := `SELECT ` + selectDoc + ` FROM entity_documents
		WHERE kind = $1 AND active ORDER BY natural_key`
	rows, err := s.db.Query(ctx, query, string(kind))
	if err != nil {
		return nil, mapError(fmt.Sprintf("list %s", kind), err)
	}
	defer rows.Close()
	var list []entity.Record
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, mapError(fmt.Sprintf("scan %s", kind), err)
		}
		rec, err := entity.Decode(kind, raw)
		if err != nil {
			return nil, err
		}
		list = append(list, rec)
	}
	return list, mapError(fmt.Sprintf("list %s", kind), rows.Err())
}

// Insert persiste el registro como activo. La unicidad de la clave la garantiza el índice parcial.
func (s *DocumentStore) Insert(ctx context.Context, rec entity.Record) (string, error) {
	kind := rec.Kind()
	key := rec.NaturalKey()
	if key == "" {
		return "", fmt.Errorf("insert %s: clave natural vacía: %w", kind, domain.ErrValidationReject)
	}
	id := rec.GetMeta().ID
	if id == "" {
		id = uuid.New().String()
	}
	doc, err := documentBody(rec)
	if err != nil {
		return "", fmt.Errorf("insert %s: %w", kind, err)
	}
	now := s.now().UTC()
	query := `
		INSERT INTO entity_documents (id, kind, natural_key, active, doc, created_at, updated_at)
		VALUES ($1, $2, $3, TRUE, $4::jsonb, $5, $5)`
	if _, err := s.db.Exec(ctx, query, id, string(kind), key, doc, now); err != nil {
		return "", mapError(fmt.Sprintf("insert %s %q", kind, key), err)
	}
	logger.Ctx(ctx).Debug().Str("kind", string(kind)).Str("id", id).Str("key", key).Msg("documento insertado")
	return id, nil
}

// Update mezcla el diff sobre el documento (doc || diff). El diff se valida contra el tipo
// antes de escribir; la clave natural se recalcula por si cambió.
func (s *DocumentStore) Update(ctx context.Context, kind entity.Kind, id string, diff entity.Diff) error {
	current, err := s.FindByID(ctx, kind, id)
	if err != nil {
		return err
	}
	if current == nil || !current.GetMeta().Active {
		return fmt.Errorf("update %s %s: %w", kind, id, domain.ErrNotFound)
	}
	next, err := entity.ApplyDiff(current, diff)
	if err != nil {
		return fmt.Errorf("update %s %s: %v: %w", kind, id, err, domain.ErrValidationReject)
	}
	patch, err := json.Marshal(stripMeta(diff))
	if err != nil {
		return fmt.Errorf("update %s %s: %v: %w", kind, id, err, domain.ErrValidationReject)
	}
	query := `
		UPDATE entity_documents
		   SET doc = doc || $3::jsonb, natural_key = $4, updated_at = $5
		 WHERE kind = $1 AND id = $2 AND active`
	tag, err := s.db.Exec(ctx, query, string(kind), id, string(patch), next.NaturalKey(), s.now().UTC())
	if err != nil {
		return mapError(fmt.Sprintf("update %s %s", kind, id), err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update %s %s: %w", kind, id, domain.ErrNotFound)
	}
	return nil
}

// AppendToArray agrega value al arreglo si no está. Un campo null cuenta como arreglo vacío.
func (s *DocumentStore) AppendToArray(ctx context.Context, kind entity.Kind, id, field, value string) error {
	query := `
		UPDATE entity_documents
		   SET doc = CASE
		           WHEN doc->$3::text @> jsonb_build_array($4::text) THEN doc
		           ELSE jsonb_set(doc, ARRAY[$3::text],
		                COALESCE(CASE WHEN jsonb_typeof(doc->$3::text) = 'array' THEN doc->$3::text END, '[]'::jsonb)
		                || jsonb_build_array($4::text))
		       END,
		       updated_at = $5
		 WHERE kind = $1 AND id = $2 AND jsonb_typeof(doc->$3::text) IN ('array', 'null')`
	return s.mutateArray(ctx, "append", query, kind, id, field, value)
}

// RemoveFromArray quita value del arreglo; si no estaba no hace nada.
func (s *DocumentStore) RemoveFromArray(ctx context.Context, kind entity.Kind, id, field, value string) error {
	query := `
		UPDATE entity_documents
		   SET doc = jsonb_set(doc, ARRAY[$3::text],
		           COALESCE(CASE WHEN jsonb_typeof(doc->$3::text) = 'array' THEN doc->$3::text END, '[]'::jsonb) - $4::text),
		       updated_at = $5
		 WHERE kind = $1 AND id = $2 AND jsonb_typeof(doc->$3::text) IN ('array', 'null')`
	return s.mutateArray(ctx, "remove", query, kind, id, field, value)
}

func (s *DocumentStore) mutateArray(ctx context.Context, op, query string, kind entity.Kind, id, field, value string) error {
	tag, err := s.db.Exec(ctx, query, string(kind), id, field, value, s.now().UTC())
	if err != nil {
		return mapError(fmt.Sprintf("%s %s.%s", op, kind, field), err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	// Nada cambió: o el documento no existe o el campo no es un arreglo.
	var typ *string
	err = s.db.QueryRow(ctx, `SELECT jsonb_typeof(doc->$3::text) FROM entity_documents WHERE kind = $1 AND id = $2`,
		string(kind), id, field).Scan(&typ)
	switch {
	case isNoRows(err):
		return fmt.Errorf("%s %s %s: %w", op, kind, id, domain.ErrNotFound)
	case err != nil:
		return mapError(fmt.Sprintf("%s %s.%s", op, kind, field), err)
	case typ == nil:
		return fmt.Errorf("%s %s.%s: campo inexistente: %w", op, kind, field, domain.ErrValidationReject)
	default:
		return fmt.Errorf("%s %s.%s: es %s, no arreglo: %w", op, kind, field, *typ, domain.ErrValidationReject)
	}
}

// WithLogicalScope asigna un ID de correlación. Las operaciones siguen siendo independientes.
func (s *DocumentStore) WithLogicalScope(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx = logger.ContextWithCorrelationID(ctx, uuid.New().String())
	return fn(ctx)
}

// RunGrouped ejecuta fn dentro de una transacción: si fn falla, ninguna escritura del grupo persiste.
func (s *DocumentStore) RunGrouped(ctx context.Context, fn func(store repository.EntityStore) error) error {
	if s.tx == nil {
		return fn(s)
	}
	return s.tx.Run(ctx, func(tx pgx.Tx) error {
		return fn(&DocumentStore{db: tx, now: s.now})
	})
}

// documentBody serializa el registro sin los metadatos, que van en columnas.
func documentBody(rec entity.Record) (string, error) {
	fields, err := entity.Fields(rec)
	if err != nil {
		return "", err
	}
	raw, err := json.Marshal(stripMeta(fields))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

var metaFields = []string{"id", "active", "created_at", "updated_at"}

func stripMeta[M ~map[string]any](m M) M {
	out := make(M, len(m))
	for k, v := range m {
		out[k] = v
	}
	for _, f := range metaFields {
		delete(out, f)
	}
	return out
}
