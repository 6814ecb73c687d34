package ingestion

import (
	"sort"
	"strconv"

	"github.com/jhoicas/Transporte-api/internal/application/dto"
	"github.com/jhoicas/Transporte-api/internal/domain/entity"
)

// DryRunPrefix antecede a todo veredicto en modo validación.
const DryRunPrefix = "WOULD_"

// plannedVerdict es el veredicto que la aplicación daría a un cambio si no hay fallas de almacén.
func plannedVerdict(ch *Change) Verdict {
	switch ch.Action {
	case ActionCreate:
		return VerdictCreated
	case ActionUpdate:
		return VerdictUpdated
	case ActionSkip:
		return VerdictSkipped
	}
	return VerdictFailed
}

// ReportFromPlan arma el reporte de una validación: cada veredicto lleva el prefijo WOULD_.
func ReportFromPlan(plan *Plan) *dto.IngestionReport {
	rep := newReport(plan.Kind, dto.ModeDryRun)
	for _, ch := range plan.ByRow() {
		v := plannedVerdict(ch)
		row := rowResult(ch, v, ch.Errors)
		row.Verdict = DryRunPrefix + string(v)
		if ch.Action == ActionUpdate || ch.Action == ActionSkip {
			row.ResultingID = ch.TargetID
		}
		rep.Rows = append(rep.Rows, row)
		count(rep, v)
		if v != VerdictFailed {
			addStats(rep.Stats, ch.After)
		}
	}
	rep.TotalRows = len(rep.Rows)
	return rep
}

// ReportFromResult arma el reporte de una aplicación.
func ReportFromResult(plan *Plan, res *Result) *dto.IngestionReport {
	rep := newReport(plan.Kind, dto.ModeApply)
	outcomes := append([]*Outcome(nil), res.Outcomes...)
	sort.SliceStable(outcomes, func(i, j int) bool { return outcomes[i].Change.Row < outcomes[j].Change.Row })
	for _, out := range outcomes {
		row := rowResult(out.Change, out.Verdict, out.Errors)
		row.ResultingID = out.ResultingID
		for _, s := range out.Completed {
			row.Compensation = append(row.Compensation, dto.StepDTO{
				Op: s.Op, Kind: string(s.Kind), ID: s.ID, Field: s.Field, Value: s.Value,
			})
		}
		rep.Rows = append(rep.Rows, row)
		count(rep, out.Verdict)
		switch out.Verdict {
		case VerdictCreated, VerdictUpdated, VerdictSkipped:
			addStats(rep.Stats, out.Change.After)
		}
	}
	rep.TotalRows = len(rep.Rows)
	rep.Aborted = string(res.Aborted)
	return rep
}

func newReport(kind entity.Kind, mode string) *dto.IngestionReport {
	return &dto.IngestionReport{
		Tipo:     string(kind),
		Modo:     mode,
		Warnings: []string{},
		Rows:     []dto.RowResultDTO{},
		Stats:    map[string]map[string]int{},
	}
}

func rowResult(ch *Change, v Verdict, errs []Issue) dto.RowResultDTO {
	return dto.RowResultDTO{
		RowIndex:   ch.Row,
		NaturalKey: ch.Key,
		Verdict:    string(v),
		Warnings:   issuesDTO(ch.Warnings),
		Errors:     issuesDTO(errs),
	}
}

func issuesDTO(in []Issue) []dto.IssueDTO {
	out := make([]dto.IssueDTO, 0, len(in))
	for _, i := range in {
		out = append(out, dto.IssueDTO{Code: string(i.Code), Column: i.Column, Message: i.Message})
	}
	return out
}

func count(rep *dto.IngestionReport, v Verdict) {
	switch v {
	case VerdictCreated:
		rep.Created++
	case VerdictUpdated:
		rep.Updated++
	case VerdictSkipped:
		rep.Skipped++
	case VerdictFailed, VerdictPartialFailure:
		rep.Failed++
	case VerdictNotAttempted:
		rep.NotAttempted++
	}
}

// addStats acumula las estadísticas por tipo de entidad sobre el estado resultante.
func addStats(stats map[string]map[string]int, rec entity.Record) {
	inc := func(group, value string) {
		if value == "" {
			value = "SIN_DATO"
		}
		if stats[group] == nil {
			stats[group] = map[string]int{}
		}
		stats[group][value]++
	}
	switch r := rec.(type) {
	case *entity.Company:
		inc("estado", r.Status)
	case *entity.Resolution:
		inc("anios_vigencia", strconv.Itoa(r.VigencyYears))
		inc("tipo_resolucion", r.ResolutionKind)
		inc("tipo_tramite", r.ProcedureType)
	case *entity.Vehicle:
		inc("categoria", r.Category)
		if r.IsOrphan() {
			inc("resolucion", "HUERFANO")
		} else {
			inc("resolucion", "CON_RESOLUCION")
		}
	case *entity.Route:
		inc("tipo_servicio", r.ServiceType)
		inc("tipo_ruta", r.RouteType)
	}
}
