// Package vigencia calcula el periodo de vigencia de una resolución.
//
// Regla: fin = inicio + años - 1 día. Una resolución de 10 años que inicia el 15/02/2025
// vence el 14/02/2035.
package vigencia

import (
	"errors"
	"fmt"
	"time"
)

const (
	MinYears = 1
	MaxYears = 10
)

var (
	ErrMissingStart    = errors.New("falta la fecha de inicio de vigencia")
	ErrMissingYears    = errors.New("faltan los años de vigencia o la fecha de fin")
	ErrYearsOutOfRange = fmt.Errorf("años de vigencia fuera del rango %d-%d", MinYears, MaxYears)
	ErrYearsNotInteger = errors.New("la fecha de fin no corresponde a un número entero de años")
	ErrDateOrder       = errors.New("fechas incoherentes: se requiere emisión ≤ inicio ≤ fin")
)

// WarnEndRecalculated se emite cuando la fecha de fin de la hoja contradice los años.
const WarnEndRecalculated = "VIGENCY_END_RECALCULATED"

// Input son los datos de vigencia disponibles; los punteros nil son valores ausentes.
type Input struct {
	Emission *time.Time
	Start    *time.Time
	Years    *int
	End      *time.Time
}

// Result es la vigencia resuelta.
type Result struct {
	Start    time.Time
	Years    int
	End      time.Time
	Warnings []string
}

// EndDate aplica la regla inicio + años - 1 día.
func EndDate(start time.Time, years int) time.Time {
	return DateOnly(start).AddDate(years, 0, 0).AddDate(0, 0, -1)
}

// DateOnly trunca a fecha en UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ValidYears informa si los años están en el rango permitido.
func ValidYears(years int) bool {
	return years >= MinYears && years <= MaxYears
}

// Calculate resuelve la vigencia:
//   - inicio + años (fin vacío): calcula el fin.
//   - inicio + años + fin: verifica; si no coincide, prevalecen los años y se advierte.
//   - inicio + fin (años vacío): infiere los años, que deben ser enteros.
func Calculate(in Input) (Result, error) {
	if in.Start == nil {
		return Result{}, ErrMissingStart
	}
	start := DateOnly(*in.Start)
	res := Result{Start: start}

	switch {
	case in.Years != nil:
		if !ValidYears(*in.Years) {
			return Result{}, fmt.Errorf("%w: %d", ErrYearsOutOfRange, *in.Years)
		}
		res.Years = *in.Years
		res.End = EndDate(start, res.Years)
		if in.End != nil && !DateOnly(*in.End).Equal(res.End) {
			res.Warnings = append(res.Warnings, WarnEndRecalculated)
		}
	case in.End != nil:
		years, err := InferYears(start, DateOnly(*in.End))
		if err != nil {
			return Result{}, err
		}
		res.Years = years
		res.End = DateOnly(*in.End)
	default:
		return Result{}, ErrMissingYears
	}

	if in.Emission != nil && DateOnly(*in.Emission).After(start) {
		return Result{}, fmt.Errorf("%w: emisión %s posterior al inicio %s",
			ErrDateOrder, in.Emission.Format(time.DateOnly), start.Format(time.DateOnly))
	}
	if res.End.Before(start) {
		return Result{}, ErrDateOrder
	}
	return res, nil
}

// InferYears busca los años enteros que producen exactamente el fin dado.
func InferYears(start, end time.Time) (int, error) {
	for y := MinYears; y <= MaxYears; y++ {
		if EndDate(start, y).Equal(DateOnly(end)) {
			return y, nil
		}
	}
	return 0, fmt.Errorf("%w: %s → %s", ErrYearsNotInteger, start.Format(time.DateOnly), end.Format(time.DateOnly))
}
