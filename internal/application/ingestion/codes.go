package ingestion

import (
	"errors"
	"fmt"

	"github.com/jhoicas/Transporte-api/internal/domain"
	"github.com/jhoicas/Transporte-api/internal/domain/entity"
)

// Code clasifica los errores y advertencias que la carga expone al usuario.
type Code string

const (
	CodeFieldInvalid           Code = "ROW_FIELD_INVALID"
	CodeMandatoryMissing       Code = "ROW_MANDATORY_MISSING"
	CodeDuplicateInBatch       Code = "DUPLICATE_IN_BATCH"
	CodeMissingReference       Code = "MISSING_REFERENCE"
	CodeConstraintViolation    Code = "CONSTRAINT_VIOLATION"
	CodeValidationReject       Code = "VALIDATION_REJECT"
	CodeVigencyEndRecalculated Code = "VIGENCY_END_RECALCULATED"
	CodeStoreUnavailable       Code = "STORE_UNAVAILABLE"
	CodePartialFailure         Code = "PARTIAL_FAILURE"
	CodeUnreadableWorkbook     Code = "UNREADABLE_WORKBOOK"
)

// Issue es un error o advertencia de fila.
type Issue struct {
	Code    Code
	Column  string
	Message string
}

func (i Issue) String() string {
	if i.Column != "" {
		return fmt.Sprintf("%s [%s]: %s", i.Code, i.Column, i.Message)
	}
	return fmt.Sprintf("%s: %s", i.Code, i.Message)
}

func fieldInvalid(column string, format string, args ...any) Issue {
	return Issue{Code: CodeFieldInvalid, Column: column, Message: fmt.Sprintf(format, args...)}
}

func mandatoryMissing(column string) Issue {
	return Issue{Code: CodeMandatoryMissing, Column: column, Message: "campo obligatorio vacío"}
}

// MissingReference es la variante explícita de una referencia sin destino.
type MissingReference struct {
	Kind   entity.Kind
	Key    string
	Column string
}

func (m *MissingReference) Error() string {
	return fmt.Sprintf("%s %s %s", CodeMissingReference, m.Kind, m.Key)
}

// Issue convierte la referencia faltante en error de fila.
func (m *MissingReference) Issue() Issue {
	return Issue{Code: CodeMissingReference, Column: m.Column, Message: fmt.Sprintf("%s %s", m.Kind, m.Key)}
}

// AbortError detiene la carga completa: STORE_UNAVAILABLE o UNREADABLE_WORKBOOK.
type AbortError struct {
	Code Code
	Err  error
}

func (e *AbortError) Error() string { return fmt.Sprintf("%s: %v", e.Code, e.Err) }
func (e *AbortError) Unwrap() error { return e.Err }

// classifyStoreError traduce un error del almacén al código de fila correspondiente.
// abort indica que el resto del lote no debe intentarse.
func classifyStoreError(err error) (code Code, abort bool) {
	switch {
	case errors.Is(err, domain.ErrConstraintViolation):
		return CodeConstraintViolation, false
	case errors.Is(err, domain.ErrNotFound):
		// el destino se desactivó entre la planificación y la escritura
		return CodeConstraintViolation, false
	case errors.Is(err, domain.ErrValidationReject):
		return CodeValidationReject, false
	default:
		// incluye domain.ErrStoreUnavailable y cualquier error no clasificado
		return CodeStoreUnavailable, true
	}
}

func storeIssue(code Code, err error) Issue {
	return Issue{Code: code, Message: err.Error()}
}
