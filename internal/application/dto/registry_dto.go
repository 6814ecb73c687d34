package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CompanyResponse salida de una empresa del registro.
type CompanyResponse struct {
	ID                string    `json:"id"`
	RUC               string    `json:"ruc"`
	Name              string    `json:"razon_social"`
	FiscalAddress     string    `json:"domicilio_fiscal"`
	Phones            string    `json:"telefonos"`
	Email             string    `json:"correo"`
	RepresentativeDNI string    `json:"dni_representante"`
	Representative    string    `json:"representante_legal"`
	Status            string    `json:"estado"`
	ResolutionCount   int       `json:"total_resoluciones"`
	VehicleCount      int       `json:"total_vehiculos"`
	RouteCount        int       `json:"total_rutas"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// CompanyListResponse lista paginada de empresas.
type CompanyListResponse struct {
	Items []CompanyResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// ResolutionResponse salida de una resolución con sus enlaces resueltos a claves naturales.
type ResolutionResponse struct {
	ID             string    `json:"id"`
	Number         string    `json:"numero"`
	CompanyRUC     string    `json:"ruc_empresa"`
	ResolutionKind string    `json:"tipo_resolucion"`
	ProcedureType  string    `json:"tipo_tramite"`
	ParentNumber   string    `json:"resolucion_padre,omitempty"`
	EmissionDate   time.Time `json:"fecha_emision"`
	VigencyStart   time.Time `json:"inicio_vigencia"`
	VigencyYears   int       `json:"anios_vigencia"`
	VigencyEnd     time.Time `json:"fin_vigencia"`
	Status         string    `json:"estado"`
	Children       []string  `json:"resoluciones_hijas"`
	Plates         []string  `json:"placas"`
	RouteCodes     []string  `json:"rutas"`
}

// VehicleResponse salida de un vehículo.
type VehicleResponse struct {
	ID               string          `json:"id"`
	Plate            string          `json:"placa"`
	CompanyRUC       string          `json:"ruc_empresa"`
	ResolutionNumber string          `json:"numero_resolucion,omitempty"`
	Category         string          `json:"categoria"`
	Make             string          `json:"marca"`
	Model            string          `json:"modelo"`
	Year             int             `json:"anio"`
	Seats            int             `json:"asientos"`
	GrossWeight      decimal.Decimal `json:"peso_bruto"`
	Status           string          `json:"estado"`
	Orphan           bool            `json:"huerfano"`
}
