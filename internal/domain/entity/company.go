package entity

// Company es una empresa de transporte inscrita en el registro regional.
// El RUC es inmutable; la empresa nunca se elimina, solo cambia de estado.
type Company struct {
	Meta
	RUC            string `json:"ruc"`
	Name           string `json:"name"`             // razón social principal
	LegalNameShort string `json:"legal_name_short"` // razón social mínima
	LegalNameLong  string `json:"legal_name_long"`  // razón social ampliada
	FiscalAddress  string `json:"fiscal_address"`
	Phones         string `json:"phones"` // lista canónica separada por comas
	Email          string `json:"email"`

	RepresentativeDNI         string `json:"representative_dni"`
	RepresentativeGivenNames  string `json:"representative_given_names"`
	RepresentativeFamilyNames string `json:"representative_family_names"`

	Status       string `json:"status"` // ver drtc.Company*
	Observations string `json:"observations"`

	ResolutionIDs []string `json:"resolution_ids"`
	VehicleIDs    []string `json:"vehicle_ids"`
	DriverIDs     []string `json:"driver_ids"`
	RouteIDs      []string `json:"route_ids"`
}

func (c *Company) Kind() Kind         { return KindCompany }
func (c *Company) NaturalKey() string { return c.RUC }
