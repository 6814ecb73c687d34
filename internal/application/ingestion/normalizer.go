package ingestion

import (
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/Transporte-api/internal/domain/entity"
	"github.com/jhoicas/Transporte-api/pkg/drtc"
)

// Valores de relleno para opcionales vacíos en un CREATE.
const (
	SentinelText = "POR ACTUALIZAR"
	SentinelDNI  = drtc.PlaceholderDNI
)

// Options son las políticas configurables de validación.
type Options struct {
	EmailDomains []string // vacío = sin política de dominio
	StrictRUC    bool     // verificar dígito del RUC
}

// Normalizer convierte las filas de la hoja en variantes tipadas y validadas.
type Normalizer struct {
	opts Options
	now  func() time.Time
}

// NewNormalizer construye el normalizador. now se usa para el rango de años.
func NewNormalizer(opts Options, now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}
	return &Normalizer{opts: opts, now: now}
}

// Normalize devuelve una fila tipada por cada fila de datos, más las advertencias de la hoja
// (columnas obligatorias ausentes, encabezados desconocidos). Las filas de ejemplo de la
// plantilla se descartan.
func (n *Normalizer) Normalize(kind entity.Kind, sheet *Sheet) ([]Row, []string) {
	warnings := append([]string(nil), sheet.Warnings...)
	warnings = append(warnings, n.headerWarnings(kind, sheet)...)

	now := n.now()
	rows := make([]Row, 0, len(sheet.Rows))
	for _, sr := range sheet.Rows {
		if isTemplateExample(sheet, sr) {
			continue
		}
		c := &cells{row: sr, opts: n.opts, now: now}
		var row Row
		switch kind {
		case entity.KindCompany:
			row = normalizeCompany(c)
		case entity.KindResolution:
			row = normalizeResolution(c)
		case entity.KindVehicle:
			row = normalizeVehicle(c)
		case entity.KindRoute:
			row = normalizeRoute(c)
		default:
			continue
		}
		rows = append(rows, row)
	}
	return rows, warnings
}

func (n *Normalizer) headerWarnings(kind entity.Kind, sheet *Sheet) []string {
	var out []string
	for _, col := range mandatoryColumns(kind) {
		if !sheet.HasHeader(col) && !(kind == entity.KindCompany && col == ColRUC && sheet.HasHeader(ColCompanyRUC)) {
			out = append(out, fmt.Sprintf("falta la columna obligatoria %q", col))
		}
	}
	for _, h := range sheet.Headers {
		if h != "" && !knownColumn(kind, h) && !(kind == entity.KindCompany && h == ColCompanyRUC) {
			out = append(out, fmt.Sprintf("columna desconocida %q ignorada", h))
		}
	}
	return out
}

// isTemplateExample reconoce la fila de ejemplo de la plantilla: su primera celda empieza con
// "EJEMPLO" o "Ej:".
func isTemplateExample(sheet *Sheet, sr SheetRow) bool {
	if len(sheet.Headers) == 0 {
		return false
	}
	first := strings.ToUpper(cleanCell(sr.Get(sheet.Headers[0])))
	return strings.HasPrefix(first, "EJEMPLO") || strings.HasPrefix(first, "EJ:")
}

func normalizeCompany(c *cells) *CompanyRow {
	r := &CompanyRow{}
	r.Index = c.row.Index
	c.head = &r.RowHeader

	keyCol := ColRUC
	if c.raw(ColRUC) == "" && c.raw(ColCompanyRUC) != "" {
		keyCol = ColCompanyRUC
	}
	r.RUC = c.key(keyCol, func(s string) string { return drtc.NormalizeRUC(numericText(s)) }, c.checkRUC)
	r.Key = r.RUC

	r.Name = c.upper(ColCompanyName)
	c.mandatory(ColCompanyName, r.Name != nil)
	r.LegalNameShort = c.upper(ColLegalNameShort)
	r.LegalNameLong = c.upper(ColLegalNameLong)
	r.FiscalAddress = c.upper(ColFiscalAddress)
	r.Phones = c.phones(ColPhones)
	r.Email = c.email(ColEmail)
	r.RepresentativeDNI = c.dni(ColRepresentativeDNI)
	r.RepresentativeGivenNames = c.upper(ColRepresentativeGiven)
	r.RepresentativeFamilyNames = c.upper(ColRepresentativeLast)
	r.Status = c.enum(ColStatus, drtc.CompanyStatuses)
	r.Observations = c.text(ColObservations)
	return r
}

func normalizeResolution(c *cells) *ResolutionRow {
	r := &ResolutionRow{}
	r.Index = c.row.Index
	c.head = &r.RowHeader

	r.Number = c.key(ColResolutionNumber, drtc.CanonicalResolutionNumber, nil)
	r.Key = r.Number

	r.CompanyRUC = c.ruc(ColCompanyRUC)
	r.ResolutionKind = c.enum(ColResolutionKind, drtc.ResolutionKinds)
	r.Procedure = c.enum(ColProcedureType, drtc.ProcedureTypes)
	r.Emission = c.date(ColEmissionDate)
	r.Start = c.date(ColVigencyStart)
	r.Years = c.vigencyYears(ColVigencyYears)
	r.End = c.date(ColVigencyEnd)
	r.ParentNumber = c.resolutionNumber(ColParentResolution)
	r.Description = c.text(ColDescription)
	r.Status = c.enum(ColStatus, drtc.ResolutionStatuses)
	r.Observations = c.text(ColObservations)

	c.mandatory(ColCompanyRUC, c.raw(ColCompanyRUC) != "")
	c.mandatory(ColResolutionKind, c.raw(ColResolutionKind) != "")
	c.mandatory(ColProcedureType, c.raw(ColProcedureType) != "")
	c.mandatory(ColEmissionDate, c.raw(ColEmissionDate) != "")
	c.mandatory(ColVigencyStart, c.raw(ColVigencyStart) != "")
	// con fecha de fin los años se infieren
	c.mandatory(ColVigencyYears, c.raw(ColVigencyYears) != "" || c.raw(ColVigencyEnd) != "")

	if r.ParentNumber != nil && *r.ParentNumber == r.Number && r.Number != "" {
		c.fail(fieldInvalid(ColParentResolution, "una resolución no puede ser su propia padre"))
	}
	return r
}

func normalizeVehicle(c *cells) *VehicleRow {
	r := &VehicleRow{}
	r.Index = c.row.Index
	c.head = &r.RowHeader

	r.Plate = c.key(ColPlate, drtc.NormalizePlate, drtc.ValidatePlate)
	r.Key = r.Plate

	r.CompanyRUC = c.ruc(ColCompanyRUC)
	r.ResolutionNumber = c.resolutionNumber(ColResolutionNumber)
	r.Category = c.enum(ColCategory, drtc.VehicleCategories)
	r.Make = c.upper(ColMake)
	r.Model = c.upper(ColModel)
	r.Year = c.year(ColYear)
	r.Fuel = c.enum(ColFuel, drtc.FuelTypes)
	r.Seats = c.integer(ColSeats, 1, maxSeats)
	r.GrossWeight = c.amount(ColGrossWeight)
	r.NetWeight = c.amount(ColNetWeight)
	r.Payload = c.amount(ColPayload)
	r.Length = c.amount(ColLength)
	r.Width = c.amount(ColWidth)
	r.Height = c.amount(ColHeight)
	r.Color = c.upper(ColColor)
	r.SerialNumber = c.upper(ColSerialNumber)
	r.EngineNumber = c.upper(ColEngineNumber)
	r.Status = c.enum(ColStatus, drtc.VehicleStatuses)
	r.Observations = c.text(ColObservations)

	for _, col := range []string{ColCompanyRUC, ColCategory, ColMake, ColModel, ColYear} {
		c.mandatory(col, c.raw(col) != "")
	}
	if r.GrossWeight != nil && r.NetWeight != nil && r.NetWeight.GreaterThan(*r.GrossWeight) {
		c.fail(fieldInvalid(ColNetWeight, "el peso neto no puede superar al bruto"))
	}
	return r
}

func normalizeRoute(c *cells) *RouteRow {
	r := &RouteRow{}
	r.Index = c.row.Index
	c.head = &r.RowHeader

	r.Code = c.key(ColRouteCode, func(s string) string { return drtc.NormalizeRouteCode(numericText(s)) }, drtc.ValidateRouteCode)
	r.ResolutionNumber = c.key(ColResolutionNumber, drtc.CanonicalResolutionNumber, nil)
	if r.Code != "" && r.ResolutionNumber != "" {
		r.Key = entity.RouteKey(r.ResolutionNumber, r.Code)
	}

	r.CompanyRUC = c.ruc(ColCompanyRUC)
	r.Name = c.upper(ColRouteName)
	r.Origin = c.upper(ColOrigin)
	r.Destination = c.upper(ColDestination)
	r.Itinerary = c.upper(ColItinerary)
	r.Distance = c.amount(ColDistance)
	r.EstimatedTime = c.text(ColEstimatedTime)
	r.Frequency = c.upper(ColFrequency)
	r.ServiceType = c.enum(ColServiceType, drtc.ServiceTypes)
	r.RouteType = c.enum(ColRouteType, drtc.RouteTypes)
	r.Tariff = c.amount(ColTariff)
	r.Status = c.enum(ColStatus, drtc.RouteStatuses)
	r.Observations = c.text(ColObservations)

	for _, col := range []string{ColOrigin, ColDestination, ColFrequency} {
		c.mandatory(col, c.raw(col) != "")
	}
	return r
}
