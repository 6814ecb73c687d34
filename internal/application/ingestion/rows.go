package ingestion

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Transporte-api/internal/domain/entity"
)

// Row es la variante tipada de una fila normalizada. Hay una por tipo de entidad;
// los campos puntero en nil significan "celda vacía".
type Row interface {
	Kind() entity.Kind
	Header() *RowHeader
}

// RowHeader son los datos comunes de toda fila.
type RowHeader struct {
	Index int    // número de fila en Excel
	Key   string // clave natural canónica; "" si no pudo leerse
	// Issues son errores de validación; una fila con issues no se planifica.
	Issues []Issue
	// Missing son obligatorias vacías que solo impiden un CREATE.
	Missing []string
}

func (h *RowHeader) Header() *RowHeader { return h }

// Valid informa si la fila pasó la validación de campos.
func (h *RowHeader) Valid() bool { return len(h.Issues) == 0 }

// CompanyRow es una fila de la hoja de empresas.
type CompanyRow struct {
	RowHeader
	RUC                       string
	Name                      *string
	LegalNameShort            *string
	LegalNameLong             *string
	FiscalAddress             *string
	Phones                    *string
	Email                     *string
	RepresentativeDNI         *string
	RepresentativeGivenNames  *string
	RepresentativeFamilyNames *string
	Status                    *string
	Observations              *string
}

func (*CompanyRow) Kind() entity.Kind { return entity.KindCompany }

// ResolutionRow es una fila de la hoja de resoluciones.
type ResolutionRow struct {
	RowHeader
	Number         string
	CompanyRUC     *string
	ResolutionKind *string
	Procedure      *string
	Emission       *time.Time
	Start          *time.Time
	Years          *int
	End            *time.Time
	ParentNumber   *string
	Description    *string
	Status         *string
	Observations   *string
}

func (*ResolutionRow) Kind() entity.Kind { return entity.KindResolution }

// VehicleRow es una fila de la hoja de vehículos.
type VehicleRow struct {
	RowHeader
	Plate            string
	CompanyRUC       *string
	ResolutionNumber *string
	Category         *string
	Make             *string
	Model            *string
	Year             *int
	Fuel             *string
	Seats            *int
	GrossWeight      *decimal.Decimal
	NetWeight        *decimal.Decimal
	Payload          *decimal.Decimal
	Length           *decimal.Decimal
	Width            *decimal.Decimal
	Height           *decimal.Decimal
	Color            *string
	SerialNumber     *string
	EngineNumber     *string
	Status           *string
	Observations     *string
}

func (*VehicleRow) Kind() entity.Kind { return entity.KindVehicle }

// RouteRow es una fila de la hoja de rutas. La clave combina resolución y código.
type RouteRow struct {
	RowHeader
	Code             string
	ResolutionNumber string
	CompanyRUC       *string
	Name             *string
	Origin           *string
	Destination      *string
	Itinerary        *string
	Distance         *decimal.Decimal
	EstimatedTime    *string
	Frequency        *string
	ServiceType      *string
	RouteType        *string
	Tariff           *decimal.Decimal
	Status           *string
	Observations     *string
}

func (*RouteRow) Kind() entity.Kind { return entity.KindRoute }
