package ingestion

import (
	"context"
	"errors"
	"fmt"

	"github.com/jhoicas/Transporte-api/internal/domain/entity"
	"github.com/jhoicas/Transporte-api/internal/domain/repository"
	"github.com/jhoicas/Transporte-api/pkg/logger"
)

// Verdict es el resultado final de una fila.
type Verdict string

const (
	VerdictCreated        Verdict = "CREATED"
	VerdictUpdated        Verdict = "UPDATED"
	VerdictSkipped        Verdict = "SKIPPED"
	VerdictFailed         Verdict = "FAILED"
	VerdictPartialFailure Verdict = "PARTIAL_FAILURE"
	VerdictNotAttempted   Verdict = "NOT_ATTEMPTED"
)

// Step es una escritura completada contra el almacén.
type Step struct {
	Op    string
	Kind  entity.Kind
	ID    string
	Field string
	Value string
}

// Outcome es lo que pasó con un cambio al aplicarlo.
type Outcome struct {
	Change      *Change
	Verdict     Verdict
	ResultingID string
	Errors      []Issue
	// Completed lista las escrituras hechas por una fila que quedó a medias.
	Completed []Step
}

// Result es el resultado de aplicar un plan. Aborted no es vacío si el lote se detuvo.
type Result struct {
	Outcomes []*Outcome
	Aborted  Code
}

// Executor aplica un plan a través del almacén y mantiene los arreglos de enlace de los padres.
type Executor struct {
	store repository.EntityStore
}

func NewExecutor(store repository.EntityStore) *Executor {
	return &Executor{store: store}
}

// batchIDs guarda los IDs asignados a las entidades creadas en el lote.
type batchIDs map[entity.Kind]map[string]string

func (b batchIDs) get(kind entity.Kind, key string) string { return b[kind][key] }

func (b batchIDs) put(kind entity.Kind, key, id string) {
	if b[kind] == nil {
		b[kind] = make(map[string]string)
	}
	b[kind][key] = id
}

// Apply ejecuta los cambios en orden. Un error de almacén no disponible detiene el lote y las
// filas restantes quedan NOT_ATTEMPTED; igual si se cancela el contexto.
func (e *Executor) Apply(ctx context.Context, plan *Plan) *Result {
	res := &Result{}
	ids := make(batchIDs)
	grouped, _ := e.store.(repository.GroupedStore)

	_ = e.store.WithLogicalScope(ctx, func(ctx context.Context) error {
		log := logger.Ctx(ctx)
		for _, ch := range plan.Changes {
			out := &Outcome{Change: ch}
			res.Outcomes = append(res.Outcomes, out)

			switch {
			case ch.Action == ActionSkip:
				out.Verdict, out.ResultingID, out.Errors = VerdictSkipped, ch.TargetID, ch.Errors
				continue
			case ch.Action == ActionReject:
				out.Verdict, out.Errors = VerdictFailed, ch.Errors
				continue
			case res.Aborted != "" || ctx.Err() != nil:
				out.Verdict = VerdictNotAttempted
				continue
			}

			var (
				id    string
				steps []Step
				err   error
			)
			if grouped != nil {
				err = grouped.RunGrouped(ctx, func(tx repository.EntityStore) error {
					id, steps, err = e.applyChange(ctx, tx, ch, ids)
					return err
				})
				if err != nil {
					// el grupo se revirtió completo
					steps = nil
				}
			} else {
				id, steps, err = e.applyChange(ctx, e.store, ch, ids)
			}
			e.settle(out, id, steps, err)
			if id != "" && ch.Action == ActionCreate && len(steps) > 0 {
				ids.put(ch.Kind, ch.Key, id)
			}
			if out.Verdict == VerdictFailed || out.Verdict == VerdictPartialFailure {
				log.Warn().Int("row", ch.Row).Str("key", ch.Key).Str("verdict", string(out.Verdict)).Err(err).Msg("fila no aplicada")
			}
			var missing *MissingReference
			if err != nil && !errors.As(err, &missing) {
				if _, abort := classifyStoreError(err); abort {
					res.Aborted = CodeStoreUnavailable
					log.Error().Err(err).Int("row", ch.Row).Msg("almacén no disponible: se detiene el lote")
				}
			}
		}
		return nil
	})
	return res
}

// settle traduce el resultado de applyChange a veredicto.
func (e *Executor) settle(out *Outcome, id string, steps []Step, err error) {
	ch := out.Change
	if err == nil {
		out.ResultingID = id
		if ch.Action == ActionCreate {
			out.Verdict = VerdictCreated
		} else {
			out.Verdict = VerdictUpdated
		}
		out.Errors = append(out.Errors, ch.Errors...)
		return
	}

	var missing *MissingReference
	if errors.As(err, &missing) {
		out.Verdict = VerdictFailed
		out.Errors = append(out.Errors, missing.Issue())
		return
	}
	code, _ := classifyStoreError(err)
	if len(steps) > 0 {
		// la escritura principal quedó hecha, algún enlace no
		out.Verdict = VerdictPartialFailure
		out.ResultingID = id
		out.Completed = steps
		out.Errors = append(out.Errors,
			Issue{Code: CodePartialFailure, Message: fmt.Sprintf("%d escrituras completadas antes de la falla; revisar manualmente", len(steps))},
			storeIssue(code, err))
		return
	}
	out.Verdict = VerdictFailed
	out.Errors = append(out.Errors, storeIssue(code, err))
}

// applyChange escribe un cambio y sus enlaces. Devuelve las escrituras completadas aunque falle.
func (e *Executor) applyChange(ctx context.Context, st repository.EntityStore, ch *Change, ids batchIDs) (string, []Step, error) {
	bound := make(map[string]string, len(ch.Refs))
	for _, b := range ch.Refs {
		id := b.ID
		if id == "" {
			id = ids.get(b.Kind, b.Key)
		}
		if id == "" {
			return "", nil, &MissingReference{Kind: b.Kind, Key: b.Key}
		}
		bound[b.Field] = id
	}

	switch ch.Action {
	case ActionCreate:
		return e.create(ctx, st, ch, bound)
	case ActionUpdate:
		return e.update(ctx, st, ch, bound)
	}
	return "", nil, fmt.Errorf("acción %s no aplicable", ch.Action)
}

func (e *Executor) create(ctx context.Context, st repository.EntityStore, ch *Change, bound map[string]string) (string, []Step, error) {
	rec, err := entity.Clone(ch.Record)
	if err != nil {
		return "", nil, err
	}
	for field, id := range bound {
		if err := entity.SetRef(rec, field, id); err != nil {
			return "", nil, err
		}
	}
	id, err := st.Insert(ctx, rec)
	if err != nil {
		return "", nil, fmt.Errorf("insert %s %s: %w", ch.Kind, ch.Key, err)
	}
	steps := []Step{{Op: "insert", Kind: ch.Kind, ID: id}}

	for _, lf := range entity.LinkFields(ch.Kind) {
		parentID := entity.RefValue(rec, lf.Field)
		if parentID == "" {
			continue
		}
		if err := link(ctx, st, lf, parentID, id); err != nil {
			return id, steps, err
		}
		steps = append(steps, Step{Op: "link", Kind: lf.ParentKind, ID: parentID, Field: lf.ParentArray, Value: id})
	}
	return id, steps, nil
}

func (e *Executor) update(ctx context.Context, st repository.EntityStore, ch *Change, bound map[string]string) (string, []Step, error) {
	diff := make(entity.Diff, len(ch.Diff))
	for k, v := range ch.Diff {
		diff[k] = v
	}
	for field, id := range bound {
		if _, ok := diff[field]; ok {
			diff[field] = id
		}
	}
	if err := st.Update(ctx, ch.Kind, ch.TargetID, diff); err != nil {
		return "", nil, fmt.Errorf("update %s %s: %w", ch.Kind, ch.Key, err)
	}
	steps := []Step{{Op: "update", Kind: ch.Kind, ID: ch.TargetID}}

	for _, lf := range entity.LinkFields(ch.Kind) {
		newParent, changed := diff[lf.Field].(string)
		if !changed {
			continue
		}
		oldParent := entity.RefValue(ch.Existing, lf.Field)
		if oldParent != "" && oldParent != newParent {
			if err := unlink(ctx, st, lf, oldParent, ch.TargetID); err != nil {
				return ch.TargetID, steps, err
			}
			steps = append(steps, Step{Op: "unlink", Kind: lf.ParentKind, ID: oldParent, Field: lf.ParentArray, Value: ch.TargetID})
		}
		if newParent != "" {
			if err := link(ctx, st, lf, newParent, ch.TargetID); err != nil {
				return ch.TargetID, steps, err
			}
			steps = append(steps, Step{Op: "link", Kind: lf.ParentKind, ID: newParent, Field: lf.ParentArray, Value: ch.TargetID})
		}
	}
	return ch.TargetID, steps, nil
}

// link agrega el hijo al arreglo del padre declarado por el campo de enlace. El lado hijo
// (el campo de referencia) ya quedó escrito con el documento.
func link(ctx context.Context, st repository.EntityStore, lf entity.LinkField, parentID, childID string) error {
	if err := st.AppendToArray(ctx, lf.ParentKind, parentID, lf.ParentArray, childID); err != nil {
		return fmt.Errorf("link %s.%s: %w", lf.ParentKind, lf.ParentArray, err)
	}
	return nil
}

func unlink(ctx context.Context, st repository.EntityStore, lf entity.LinkField, parentID, childID string) error {
	if err := st.RemoveFromArray(ctx, lf.ParentKind, parentID, lf.ParentArray, childID); err != nil {
		return fmt.Errorf("unlink %s.%s: %w", lf.ParentKind, lf.ParentArray, err)
	}
	return nil
}
