package ingestion

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/jhoicas/Transporte-api/internal/domain/entity"
	"github.com/jhoicas/Transporte-api/internal/domain/vigencia"
	"github.com/jhoicas/Transporte-api/pkg/drtc"
)

// Action es la clasificación de una fila por el planificador.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionSkip   Action = "SKIP"
	ActionReject Action = "REJECT"
)

// RefBinding liga un campo de referencia a su destino. ID vacío indica un destino creado en el
// mismo lote; el ejecutor lo completa con el ID asignado.
type RefBinding struct {
	Field string
	Kind  entity.Kind
	Key   string
	ID    string
}

// Change es la decisión sobre una fila.
type Change struct {
	Row      int
	Kind     entity.Kind
	Key      string
	Action   Action
	TargetID string        // UPDATE: ID del documento existente
	Existing entity.Record // UPDATE/SKIP: instantánea previa
	Record   entity.Record // CREATE: documento completo a insertar
	Diff     entity.Diff   // UPDATE: solo los campos que cambian
	Refs     []RefBinding
	// After es como quedará la entidad; alimenta las estadísticas.
	After    entity.Record
	Errors   []Issue
	Warnings []Issue
}

// Plan es la lista de cambios en orden de aplicación.
type Plan struct {
	Kind    entity.Kind
	Changes []*Change
}

// ByRow devuelve los cambios ordenados por número de fila.
func (p *Plan) ByRow() []*Change {
	out := append([]*Change(nil), p.Changes...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Row < out[j].Row })
	return out
}

// Planner clasifica las filas en CREATE/UPDATE/SKIP sin escribir en el almacén.
type Planner struct {
	resolver *Resolver
}

func NewPlanner(resolver *Resolver) *Planner {
	return &Planner{resolver: resolver}
}

// Plan clasifica las filas normalizadas. Solo devuelve error si el almacén no responde.
func (p *Planner) Plan(ctx context.Context, kind entity.Kind, rows []Row) (*Plan, error) {
	plan := &Plan{Kind: kind}
	dups := markDuplicates(rows)

	var pending []Row
	for _, row := range rows {
		h := row.Header()
		switch first, dup := dups[row]; {
		case dup:
			ch := newChange(kind, h, ActionSkip)
			ch.Errors = append(ch.Errors, duplicateIssue(first))
			plan.Changes = append(plan.Changes, ch)
		case !h.Valid():
			ch := newChange(kind, h, ActionReject)
			ch.Errors = append(ch.Errors, h.Issues...)
			plan.Changes = append(plan.Changes, ch)
		default:
			pending = append(pending, row)
		}
	}

	if err := p.prefetch(ctx, kind, pending); err != nil {
		return nil, err
	}

	ordered := pending
	if kind == entity.KindResolution {
		ordered = p.orderResolutions(plan, pending)
	}

	for _, row := range ordered {
		ch, err := p.planRow(ctx, row)
		if err != nil {
			var missing *MissingReference
			if !errors.As(err, &missing) {
				return nil, err
			}
			ch = newChange(kind, row.Header(), ActionReject)
			ch.Errors = append(ch.Errors, missing.Issue())
		}
		plan.Changes = append(plan.Changes, ch)
	}

	// Las filas descartadas no se aplican; el orden de aplicación es el de las restantes.
	sort.SliceStable(plan.Changes, func(i, j int) bool {
		return applies(plan.Changes[i]) && !applies(plan.Changes[j])
	})
	return plan, nil
}

func applies(ch *Change) bool {
	return ch.Action == ActionCreate || ch.Action == ActionUpdate
}

func newChange(kind entity.Kind, h *RowHeader, action Action) *Change {
	return &Change{Row: h.Index, Kind: kind, Key: h.Key, Action: action}
}

func (p *Planner) orderResolutions(plan *Plan, rows []Row) []Row {
	typed := make([]*ResolutionRow, 0, len(rows))
	for _, r := range rows {
		typed = append(typed, r.(*ResolutionRow))
	}
	ordered, cyclic := orderByParent(typed)
	for _, r := range cyclic {
		ch := newChange(entity.KindResolution, &r.RowHeader, ActionReject)
		ch.Errors = append(ch.Errors, fieldInvalid(ColParentResolution, "referencia circular entre resoluciones padre"))
		plan.Changes = append(plan.Changes, ch)
	}
	out := make([]Row, 0, len(ordered))
	for _, r := range ordered {
		out = append(out, r)
	}
	return out
}

// prefetch trae en bloque las entidades del lote y las referencias textuales.
func (p *Planner) prefetch(ctx context.Context, kind entity.Kind, rows []Row) error {
	keys := make(map[entity.Kind][]string)
	add := func(k entity.Kind, v *string) {
		if v != nil {
			keys[k] = append(keys[k], *v)
		}
	}
	for _, row := range rows {
		keys[kind] = append(keys[kind], row.Header().Key)
		switch r := row.(type) {
		case *ResolutionRow:
			add(entity.KindCompany, r.CompanyRUC)
			add(entity.KindResolution, r.ParentNumber)
		case *VehicleRow:
			add(entity.KindCompany, r.CompanyRUC)
			add(entity.KindResolution, r.ResolutionNumber)
		case *RouteRow:
			add(entity.KindCompany, r.CompanyRUC)
			add(entity.KindResolution, &r.ResolutionNumber)
		}
	}
	for _, k := range entity.ApplyOrder {
		if err := p.resolver.Prefetch(ctx, k, keys[k]); err != nil {
			return err
		}
	}
	return nil
}

func (p *Planner) planRow(ctx context.Context, row Row) (*Change, error) {
	switch r := row.(type) {
	case *CompanyRow:
		return p.planCompany(ctx, r)
	case *ResolutionRow:
		return p.planResolution(ctx, r)
	case *VehicleRow:
		return p.planVehicle(ctx, r)
	case *RouteRow:
		return p.planRoute(ctx, r)
	}
	return nil, fmt.Errorf("fila de tipo %T no soportada", row)
}

// upsert decide entre CREATE, UPDATE y SKIP. incoming lleva solo los campos no vacíos de la fila;
// defaults es el documento base de un CREATE (clave, valores de relleno y arreglos vacíos).
func (p *Planner) upsert(h *RowHeader, existing entity.Record, incoming entity.Diff, refs []RefBinding, defaults entity.Record) *Change {
	kind := defaults.Kind()
	if existing == nil {
		if len(h.Missing) > 0 {
			ch := newChange(kind, h, ActionReject)
			for _, col := range h.Missing {
				ch.Errors = append(ch.Errors, mandatoryMissing(col))
			}
			return ch
		}
		rec, err := entity.ApplyDiff(defaults, incoming)
		if err != nil {
			ch := newChange(kind, h, ActionReject)
			ch.Errors = append(ch.Errors, Issue{Code: CodeValidationReject, Message: err.Error()})
			return ch
		}
		for _, b := range refs {
			_ = entity.SetRef(rec, b.Field, b.ID)
		}
		p.resolver.Plan(rec)
		ch := newChange(kind, h, ActionCreate)
		ch.Record, ch.After, ch.Refs = rec, rec, refs
		return ch
	}

	ch := newChange(kind, h, ActionSkip)
	ch.TargetID = existing.GetMeta().ID
	ch.Existing, ch.After = existing, existing

	current, err := entity.Fields(existing)
	if err != nil {
		ch.Action = ActionReject
		ch.Errors = append(ch.Errors, Issue{Code: CodeValidationReject, Message: err.Error()})
		return ch
	}
	diff := entity.Diff{}
	for field, v := range incoming {
		if !entity.SameValue(current[field], v) {
			diff[field] = v
		}
	}
	for _, b := range refs {
		if b.ID == "" || b.ID != entity.RefValue(existing, b.Field) {
			diff[b.Field] = b.ID
			ch.Refs = append(ch.Refs, b)
		}
	}
	if len(diff) == 0 {
		return ch
	}
	after, err := entity.ApplyDiff(existing, diff)
	if err != nil {
		ch.Action = ActionReject
		ch.Errors = append(ch.Errors, Issue{Code: CodeValidationReject, Message: err.Error()})
		return ch
	}
	ch.Action, ch.Diff, ch.After = ActionUpdate, diff, after
	return ch
}

func set[T any](d entity.Diff, field string, v *T) {
	if v != nil {
		d[field] = *v
	}
}

// ── empresas ────────────────────────────────────────────────────────────────

func (p *Planner) planCompany(ctx context.Context, r *CompanyRow) (*Change, error) {
	existing, err := p.existing(ctx, entity.KindCompany, r.RUC)
	if err != nil {
		return nil, err
	}
	in := entity.Diff{"ruc": r.RUC}
	set(in, "name", r.Name)
	set(in, "legal_name_short", r.LegalNameShort)
	set(in, "legal_name_long", r.LegalNameLong)
	set(in, "fiscal_address", r.FiscalAddress)
	set(in, "phones", r.Phones)
	set(in, "email", r.Email)
	set(in, "representative_dni", r.RepresentativeDNI)
	set(in, "representative_given_names", r.RepresentativeGivenNames)
	set(in, "representative_family_names", r.RepresentativeFamilyNames)
	set(in, "status", r.Status)
	set(in, "observations", r.Observations)

	defaults := &entity.Company{
		RUC:                       r.RUC,
		LegalNameShort:            SentinelText,
		LegalNameLong:             SentinelText,
		FiscalAddress:             SentinelText,
		RepresentativeDNI:         SentinelDNI,
		RepresentativeGivenNames:  SentinelText,
		RepresentativeFamilyNames: SentinelText,
		Status:                    drtc.CompanyAuthorized,
		ResolutionIDs:             []string{},
		VehicleIDs:                []string{},
		DriverIDs:                 []string{},
		RouteIDs:                  []string{},
	}
	return p.upsert(&r.RowHeader, existing, in, nil, defaults), nil
}

// ── resoluciones ────────────────────────────────────────────────────────────

func (p *Planner) planResolution(ctx context.Context, r *ResolutionRow) (*Change, error) {
	existing, err := p.existing(ctx, entity.KindResolution, r.Number)
	if err != nil {
		return nil, err
	}
	var prev *entity.Resolution
	if existing != nil {
		prev = existing.(*entity.Resolution)
	}

	var refs []RefBinding
	companyID := ""
	if prev != nil {
		companyID = prev.CompanyID
	}
	if r.CompanyRUC != nil {
		company, err := Resolve[*entity.Company](ctx, p.resolver, entity.KindCompany, *r.CompanyRUC, ColCompanyRUC)
		if err != nil {
			return nil, err
		}
		companyID = company.ID
		refs = append(refs, RefBinding{Field: "company_id", Kind: entity.KindCompany, Key: company.Key, ID: company.ID})
	}

	kind := pick(r.ResolutionKind, prev, func(x *entity.Resolution) string { return x.ResolutionKind })
	procedure := pick(r.Procedure, prev, func(x *entity.Resolution) string { return x.ProcedureType })
	hasParent := prev != nil && prev.ParentID != ""

	var issues []Issue
	if r.ParentNumber != nil {
		parent, err := Resolve[*entity.Resolution](ctx, p.resolver, entity.KindResolution, *r.ParentNumber, ColParentResolution)
		if err != nil {
			return nil, err
		}
		hasParent = true
		if parent.Entity.ResolutionKind != drtc.ResolutionParent {
			issues = append(issues, fieldInvalid(ColParentResolution, "la resolución %s no es de tipo PADRE", parent.Key))
		}
		if companyID != "" && parent.Entity.CompanyID != companyID {
			issues = append(issues, fieldInvalid(ColParentResolution, "la resolución padre %s pertenece a otra empresa", parent.Key))
		}
		refs = append(refs, RefBinding{Field: "parent_id", Kind: entity.KindResolution, Key: parent.Key, ID: parent.ID})
	}
	checkKind := prev == nil || r.ResolutionKind != nil || r.Procedure != nil || r.ParentNumber != nil
	switch {
	case !checkKind:
	case kind == drtc.ResolutionChild:
		if !hasParent {
			issues = append(issues, fieldInvalid(ColParentResolution, "una resolución HIJO requiere resolución padre"))
		}
		if procedure == drtc.ProcedureInitial {
			issues = append(issues, fieldInvalid(ColProcedureType, "una autorización inicial no puede ser resolución HIJO"))
		}
	case kind == drtc.ResolutionParent:
		if drtc.ProcedureImpliesParent(procedure) {
			issues = append(issues, fieldInvalid(ColProcedureType, "el trámite %s solo se emite como resolución HIJO", procedure))
		}
		if r.ParentNumber != nil {
			issues = append(issues, fieldInvalid(ColParentResolution, "una resolución PADRE no tiene resolución padre"))
		}
	}

	in := entity.Diff{"number": r.Number}
	set(in, "resolution_kind", r.ResolutionKind)
	set(in, "procedure_type", r.Procedure)
	set(in, "emission_date", r.Emission)
	set(in, "description", r.Description)
	set(in, "status", r.Status)
	set(in, "observations", r.Observations)

	var warnings []Issue
	if vin, ok := vigencyInput(r, prev); ok && !missingVigency(r, prev) {
		res, err := vigencia.Calculate(vin)
		if err != nil {
			issues = append(issues, vigencyIssue(err))
		} else {
			in["vigency_start"] = res.Start
			in["vigency_years"] = res.Years
			in["vigency_end"] = res.End
			for range res.Warnings {
				warnings = append(warnings, Issue{
					Code:    CodeVigencyEndRecalculated,
					Column:  ColVigencyEnd,
					Message: fmt.Sprintf("la fecha de fin se recalculó a %s según %d años de vigencia", res.End.Format("02/01/2006"), res.Years),
				})
			}
		}
	}
	if len(issues) > 0 {
		ch := newChange(entity.KindResolution, &r.RowHeader, ActionReject)
		if prev == nil {
			for _, col := range r.Missing {
				ch.Errors = append(ch.Errors, mandatoryMissing(col))
			}
		}
		ch.Errors = append(ch.Errors, issues...)
		return ch, nil
	}

	defaults := &entity.Resolution{
		Number:      r.Number,
		Status:      drtc.ResolutionValid,
		Description: SentinelText,
		ChildIDs:    []string{},
		VehicleIDs:  []string{},
		RouteIDs:    []string{},
	}
	ch := p.upsert(&r.RowHeader, existing, in, refs, defaults)
	if ch.Action != ActionReject {
		ch.Warnings = append(ch.Warnings, warnings...)
	}
	return ch, nil
}

// vigencyInput arma la entrada del cálculo. En un UPDATE sin columnas de vigencia no hay nada
// que recalcular; con alguna, lo ausente se completa con lo almacenado. Los años almacenados
// solo se usan si la hoja no trae fecha de fin.
func vigencyInput(r *ResolutionRow, prev *entity.Resolution) (vigencia.Input, bool) {
	in := vigencia.Input{Emission: r.Emission, Start: r.Start, Years: r.Years, End: r.End}
	if prev == nil {
		return in, true
	}
	if r.Emission == nil && r.Start == nil && r.Years == nil && r.End == nil {
		return in, false
	}
	if in.Emission == nil && !prev.EmissionDate.IsZero() {
		in.Emission = &prev.EmissionDate
	}
	if in.Start == nil && !prev.VigencyStart.IsZero() {
		in.Start = &prev.VigencyStart
	}
	if in.Years == nil && in.End == nil && prev.VigencyYears != 0 {
		in.Years = &prev.VigencyYears
	}
	return in, true
}

// missingVigency informa si un CREATE carece de una columna de vigencia obligatoria; en ese
// caso la fila se rechaza como ROW_MANDATORY_MISSING sin intentar el cálculo.
func missingVigency(r *ResolutionRow, prev *entity.Resolution) bool {
	if prev != nil {
		return false
	}
	return slices.Contains(r.Missing, ColVigencyStart) || slices.Contains(r.Missing, ColVigencyYears)
}

func vigencyIssue(err error) Issue {
	col := ColVigencyEnd
	switch {
	case errors.Is(err, vigencia.ErrMissingStart):
		col = ColVigencyStart
	case errors.Is(err, vigencia.ErrMissingYears), errors.Is(err, vigencia.ErrYearsOutOfRange):
		col = ColVigencyYears
	case errors.Is(err, vigencia.ErrDateOrder):
		col = ColEmissionDate
	}
	return fieldInvalid(col, "%v", err)
}

// pick devuelve el valor entrante o, si está vacío, el almacenado.
func pick[T any](incoming *string, prev *T, get func(*T) string) string {
	if incoming != nil {
		return *incoming
	}
	if prev != nil {
		return get(prev)
	}
	return ""
}

// ── vehículos ───────────────────────────────────────────────────────────────

func (p *Planner) planVehicle(ctx context.Context, r *VehicleRow) (*Change, error) {
	existing, err := p.existing(ctx, entity.KindVehicle, r.Plate)
	if err != nil {
		return nil, err
	}
	var prev *entity.Vehicle
	if existing != nil {
		prev = existing.(*entity.Vehicle)
	}

	var refs []RefBinding
	companyID := ""
	if prev != nil {
		companyID = prev.CompanyID
	}
	if r.CompanyRUC != nil {
		company, err := Resolve[*entity.Company](ctx, p.resolver, entity.KindCompany, *r.CompanyRUC, ColCompanyRUC)
		if err != nil {
			return nil, err
		}
		companyID = company.ID
		refs = append(refs, RefBinding{Field: "company_id", Kind: entity.KindCompany, Key: company.Key, ID: company.ID})
	}
	if r.ResolutionNumber != nil {
		res, err := Resolve[*entity.Resolution](ctx, p.resolver, entity.KindResolution, *r.ResolutionNumber, ColResolutionNumber)
		if err != nil {
			return nil, err
		}
		if companyID != "" && res.Entity.CompanyID != companyID {
			ch := newChange(entity.KindVehicle, &r.RowHeader, ActionReject)
			ch.Errors = append(ch.Errors, fieldInvalid(ColResolutionNumber, "la resolución %s pertenece a otra empresa", res.Key))
			return ch, nil
		}
		refs = append(refs, RefBinding{Field: "resolution_id", Kind: entity.KindResolution, Key: res.Key, ID: res.ID})
	} else if prev != nil && prev.ResolutionID != "" && companyID != prev.CompanyID {
		ch := newChange(entity.KindVehicle, &r.RowHeader, ActionReject)
		ch.Errors = append(ch.Errors, fieldInvalid(ColResolutionNumber, "el vehículo cambia de empresa: indique la resolución de la nueva empresa"))
		return ch, nil
	}

	in := entity.Diff{"plate": r.Plate}
	set(in, "category", r.Category)
	set(in, "make", r.Make)
	set(in, "model", r.Model)
	set(in, "year", r.Year)
	set(in, "fuel", r.Fuel)
	set(in, "seats", r.Seats)
	set(in, "gross_weight", r.GrossWeight)
	set(in, "net_weight", r.NetWeight)
	set(in, "payload", r.Payload)
	set(in, "length", r.Length)
	set(in, "width", r.Width)
	set(in, "height", r.Height)
	set(in, "color", r.Color)
	set(in, "serial_number", r.SerialNumber)
	set(in, "engine_number", r.EngineNumber)
	set(in, "status", r.Status)
	set(in, "observations", r.Observations)

	defaults := &entity.Vehicle{
		Plate:        r.Plate,
		Color:        SentinelText,
		SerialNumber: SentinelText,
		EngineNumber: SentinelText,
		Status:       drtc.VehicleActive,
	}
	return p.upsert(&r.RowHeader, existing, in, refs, defaults), nil
}

// ── rutas ───────────────────────────────────────────────────────────────────

func (p *Planner) planRoute(ctx context.Context, r *RouteRow) (*Change, error) {
	existing, err := p.existing(ctx, entity.KindRoute, r.Key)
	if err != nil {
		return nil, err
	}
	res, err := Resolve[*entity.Resolution](ctx, p.resolver, entity.KindResolution, r.ResolutionNumber, ColResolutionNumber)
	if err != nil {
		return nil, err
	}
	companyID := res.Entity.CompanyID
	if r.CompanyRUC != nil {
		company, err := Resolve[*entity.Company](ctx, p.resolver, entity.KindCompany, *r.CompanyRUC, ColCompanyRUC)
		if err != nil {
			return nil, err
		}
		if company.ID != companyID {
			ch := newChange(entity.KindRoute, &r.RowHeader, ActionReject)
			ch.Errors = append(ch.Errors, fieldInvalid(ColCompanyRUC, "la resolución %s no pertenece a la empresa %s", res.Key, company.Key))
			return ch, nil
		}
	}
	refs := []RefBinding{
		{Field: "company_id", Kind: entity.KindCompany, ID: companyID},
		{Field: "resolution_id", Kind: entity.KindResolution, Key: res.Key, ID: res.ID},
	}

	in := entity.Diff{"code": r.Code, "resolution_number": r.ResolutionNumber}
	var origin, destination *entity.LocalityRef
	if r.Origin != nil {
		if origin, err = p.locality(ctx, *r.Origin, ColOrigin); err != nil {
			return nil, err
		}
		in["origin"] = *origin
	}
	if r.Destination != nil {
		if destination, err = p.locality(ctx, *r.Destination, ColDestination); err != nil {
			return nil, err
		}
		in["destination"] = *destination
	}
	set(in, "name", r.Name)
	set(in, "itinerary", r.Itinerary)
	set(in, "distance_km", r.Distance)
	set(in, "estimated_time", r.EstimatedTime)
	set(in, "frequency", r.Frequency)
	set(in, "service_type", r.ServiceType)
	set(in, "route_type", r.RouteType)
	set(in, "tariff", r.Tariff)
	set(in, "status", r.Status)
	set(in, "observations", r.Observations)

	defaults := &entity.Route{
		Code:             r.Code,
		ResolutionNumber: r.ResolutionNumber,
		Itinerary:        SentinelText,
		ServiceType:      "REGULAR",
		Status:           "ACTIVA",
	}
	if r.Name == nil && origin != nil && destination != nil {
		defaults.Name = origin.Name + " - " + destination.Name
	}
	return p.upsert(&r.RowHeader, existing, in, refs, defaults), nil
}

// locality resuelve un ubigeo de 6 dígitos contra el almacén; cualquier otro texto se guarda
// como referencia solo por nombre.
func (p *Planner) locality(ctx context.Context, text, column string) (*entity.LocalityRef, error) {
	code := numericText(text)
	if len(code) == 6 && isAllDigits(code) {
		loc, err := Resolve[*entity.Locality](ctx, p.resolver, entity.KindLocality, code, column)
		if err != nil {
			return nil, err
		}
		return &entity.LocalityRef{ID: loc.ID, Name: loc.Entity.DisplayName()}, nil
	}
	return &entity.LocalityRef{Name: text}, nil
}

func (p *Planner) existing(ctx context.Context, kind entity.Kind, key string) (entity.Record, error) {
	rec, err := p.resolver.Existing(ctx, kind, key)
	if err != nil {
		return nil, &AbortError{Code: CodeStoreUnavailable, Err: err}
	}
	return rec, nil
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

