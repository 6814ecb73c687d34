package entity

import "time"

// Resolution es el acto administrativo que autoriza a una empresa a operar.
// Una resolución HIJO (incremento, modificación, sustitución) cuelga de una PADRE de la misma empresa
// y hereda su marco de vigencia.
type Resolution struct {
	Meta
	Number    string `json:"number"` // canónico: mayúsculas y espacios colapsados
	CompanyID string `json:"company_id" link:"empresa,resolution_ids"`
	ParentID  string `json:"parent_id" link:"resolucion,child_ids"`

	EmissionDate   time.Time `json:"emission_date"`
	VigencyStart   time.Time `json:"vigency_start"`
	VigencyYears   int       `json:"vigency_years"`
	VigencyEnd     time.Time `json:"vigency_end"`     // = inicio + años - 1 día
	ResolutionKind string    `json:"resolution_kind"` // PADRE | HIJO
	ProcedureType  string    `json:"procedure_type"`
	Status         string    `json:"status"`
	Description    string    `json:"description"`
	Observations   string    `json:"observations"`

	ChildIDs   []string `json:"child_ids"`
	VehicleIDs []string `json:"vehicle_ids"`
	RouteIDs   []string `json:"route_ids"`
}

func (r *Resolution) Kind() Kind         { return KindResolution }
func (r *Resolution) NaturalKey() string { return r.Number }
