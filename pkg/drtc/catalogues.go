// Package drtc contiene catálogos y formatos del registro regional de transporte
// (empresas, resoluciones, vehículos y rutas) usados por la carga masiva.
package drtc

import "sort"

// Catalogue es un conjunto cerrado de valores con sus variantes aceptadas.
type Catalogue struct {
	Name    string
	aliases map[string]string // forma plegada -> valor canónico
	values  []string
}

func newCatalogue(name string, entries map[string][]string) Catalogue {
	c := Catalogue{Name: name, aliases: make(map[string]string)}
	for canonical, variants := range entries {
		c.values = append(c.values, canonical)
		c.aliases[Fold(canonical)] = canonical
		for _, v := range variants {
			c.aliases[Fold(v)] = canonical
		}
	}
	sort.Strings(c.values)
	return c
}

// Lookup resuelve un valor ignorando mayúsculas, tildes y separadores.
func (c Catalogue) Lookup(s string) (string, bool) {
	v, ok := c.aliases[Fold(s)]
	return v, ok
}

// Values devuelve los valores canónicos ordenados.
func (c Catalogue) Values() []string {
	return append([]string(nil), c.values...)
}

// =============================================================================
// Empresas
// =============================================================================

const (
	CompanyAuthorized     = "AUTORIZADA"
	CompanyInProcess      = "EN_TRAMITE"
	CompanySuspended      = "SUSPENDIDA"
	CompanyCancelled      = "CANCELADA"
	CompanyDecommissioned = "DADA_DE_BAJA"
)

var CompanyStatuses = newCatalogue("estado de empresa", map[string][]string{
	CompanyAuthorized:     {"HABILITADA", "ACTIVA", "AUTORIZADO"},
	CompanyInProcess:      {"EN PROCESO", "TRAMITE"},
	CompanySuspended:      {"SUSPENDIDO"},
	CompanyCancelled:      {"CANCELADO", "ANULADA"},
	CompanyDecommissioned: {"BAJA", "DE BAJA", "DADO DE BAJA"},
})

// =============================================================================
// Resoluciones
// =============================================================================

const (
	ResolutionParent = "PADRE"
	ResolutionChild  = "HIJO"

	ProcedureInitial      = "AUTORIZACION"
	ProcedureRenewal      = "RENOVACION"
	ProcedureIncrement    = "INCREMENTO"
	ProcedureAmendment    = "MODIFICACION"
	ProcedureSubstitution = "SUSTITUCION"
	ProcedureOther        = "OTROS"

	ResolutionValid     = "VIGENTE"
	ResolutionSuspended = "SUSPENDIDA"
	ResolutionExpired   = "VENCIDA"
	ResolutionCancelled = "ANULADA"
)

var ResolutionKinds = newCatalogue("tipo de resolución", map[string][]string{
	ResolutionParent: {"PRINCIPAL", "MADRE"},
	ResolutionChild:  {"HIJA", "DERIVADA"},
})

var ProcedureTypes = newCatalogue("tipo de trámite", map[string][]string{
	ProcedureInitial:      {"AUTORIZACION NUEVA", "PRIMIGENIA", "INICIAL", "OTORGAMIENTO"},
	ProcedureRenewal:      {"RENOVACION DE AUTORIZACION"},
	ProcedureIncrement:    {"INCREMENTO DE FLOTA", "INCREMENTO VEHICULAR"},
	ProcedureAmendment:    {"MODIFICACION DE TERMINOS", "AMPLIACION", "ENMIENDA"},
	ProcedureSubstitution: {"SUSTITUCION VEHICULAR", "SUSTITUCION DE FLOTA"},
	ProcedureOther:        {"OTRO"},
})

var ResolutionStatuses = newCatalogue("estado de resolución", map[string][]string{
	ResolutionValid:     {"ACTIVA"},
	ResolutionSuspended: {"SUSPENDIDO"},
	ResolutionExpired:   {"VENCIDO", "CADUCADA"},
	ResolutionCancelled: {"ANULADO", "CANCELADA", "REVOCADA"},
})

// ProcedureImpliesParent indica si el trámite solo puede emitirse sobre una resolución padre.
func ProcedureImpliesParent(procedure string) bool {
	switch procedure {
	case ProcedureIncrement, ProcedureAmendment, ProcedureSubstitution:
		return true
	}
	return false
}

// =============================================================================
// Vehículos
// =============================================================================

const (
	VehicleActive         = "HABILITADO"
	VehicleInactive       = "NO_HABILITADO"
	VehicleMaintenance    = "EN_MANTENIMIENTO"
	VehicleDecommissioned = "DADO_DE_BAJA"
)

var VehicleStatuses = newCatalogue("estado de vehículo", map[string][]string{
	VehicleActive:         {"ACTIVO", "HABILITADA"},
	VehicleInactive:       {"INACTIVO", "INHABILITADO"},
	VehicleMaintenance:    {"MANTENIMIENTO", "EN REPARACION"},
	VehicleDecommissioned: {"BAJA", "DE BAJA"},
})

var VehicleCategories = newCatalogue("categoría vehicular", map[string][]string{
	"M1": {"AUTOMOVIL", "STATION WAGON"},
	"M2": {"MINIBUS", "COMBI", "MICROBUS"},
	"M3": {"OMNIBUS", "BUS"},
	"N1": {"CAMIONETA"},
	"N2": {"CAMION LIVIANO"},
	"N3": {"CAMION"},
})

var FuelTypes = newCatalogue("combustible", map[string][]string{
	"DIESEL":    {"PETROLEO", "D2", "DSL"},
	"GASOLINA":  {"GASOHOL"},
	"GLP":       {"GAS LICUADO"},
	"GNV":       {"GAS NATURAL"},
	"ELECTRICO": {"ELECTRICA"},
	"HIBRIDO":   {"HIBRIDA"},
	"BIFUEL":    {"DUAL"},
})

// =============================================================================
// Rutas
// =============================================================================

var ServiceTypes = newCatalogue("tipo de servicio", map[string][]string{
	"REGULAR":      {"TRANSPORTE REGULAR", "REGULAR DE PERSONAS"},
	"ESPECIAL":     {"TRANSPORTE ESPECIAL"},
	"TURISTICO":    {"TURISMO"},
	"TRABAJADORES": {"PERSONAL"},
	"ESTUDIANTES":  {"ESCOLAR"},
})

var RouteTypes = newCatalogue("tipo de ruta", map[string][]string{
	"INTERPROVINCIAL": {"INTER PROVINCIAL"},
	"INTERDISTRITAL":  {"INTER DISTRITAL"},
	"URBANA":          {"URBANO"},
	"RURAL":           {},
})

var RouteStatuses = newCatalogue("estado de ruta", map[string][]string{
	"ACTIVA":     {"ACTIVO", "VIGENTE"},
	"INACTIVA":   {"INACTIVO"},
	"SUSPENDIDA": {"SUSPENDIDO"},
})
