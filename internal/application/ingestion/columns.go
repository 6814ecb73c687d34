package ingestion

import (
	"fmt"
	"strings"

	"github.com/jhoicas/Transporte-api/internal/domain/entity"
	"github.com/jhoicas/Transporte-api/pkg/drtc"
)

// Nombres canónicos de columna, tal como quedan tras la tabla de alias.
const (
	ColRUC                 = "RUC"
	ColCompanyName         = "Razón Social Principal"
	ColLegalNameShort      = "Razón Social Mínima"
	ColLegalNameLong       = "Razón Social Ampliada"
	ColFiscalAddress       = "Dirección Fiscal"
	ColPhones              = "Teléfonos"
	ColEmail               = "Correo Electrónico"
	ColRepresentativeDNI   = "DNI Representante"
	ColRepresentativeGiven = "Nombres Representante"
	ColRepresentativeLast  = "Apellidos Representante"
	ColStatus              = "Estado"
	ColObservations        = "Observaciones"

	ColCompanyRUC       = "RUC Empresa"
	ColResolutionNumber = "Número Resolución"
	ColResolutionKind   = "Tipo Resolución"
	ColProcedureType    = "Tipo Trámite"
	ColEmissionDate     = "Fecha Emisión"
	ColVigencyStart     = "Fecha Vigencia Inicio"
	ColVigencyYears     = "Años Vigencia"
	ColVigencyEnd       = "Fecha Vigencia Fin"
	ColParentResolution = "Resolución Padre"
	ColDescription      = "Descripción"

	ColPlate        = "Placa"
	ColCategory     = "Categoría"
	ColMake         = "Marca"
	ColModel        = "Modelo"
	ColYear         = "Año Fabricación"
	ColFuel         = "Combustible"
	ColSeats        = "Asientos"
	ColGrossWeight  = "Peso Bruto"
	ColNetWeight    = "Peso Neto"
	ColPayload      = "Carga Útil"
	ColLength       = "Largo"
	ColWidth        = "Ancho"
	ColHeight       = "Alto"
	ColColor        = "Color"
	ColSerialNumber = "Número Serie"
	ColEngineNumber = "Número Motor"

	ColRouteCode     = "Código Ruta"
	ColRouteName     = "Nombre Ruta"
	ColOrigin        = "Origen"
	ColDestination   = "Destino"
	ColItinerary     = "Itinerario"
	ColDistance      = "Distancia"
	ColEstimatedTime = "Tiempo Estimado"
	ColFrequency     = "Frecuencia"
	ColServiceType   = "Tipo Servicio"
	ColRouteType     = "Tipo Ruta"
	ColTariff        = "Tarifa"
)

// Column describe una columna de la plantilla de un tipo.
type Column struct {
	Name      string
	Mandatory bool
	Example   string
	Help      string
}

var columnsByKind = map[entity.Kind][]Column{
	entity.KindCompany: {
		{Name: ColRUC, Mandatory: true, Example: "20131312955", Help: "11 dígitos"},
		{Name: ColCompanyName, Mandatory: true, Example: "TRANSPORTES EL SOL S.A.C."},
		{Name: ColLegalNameShort, Example: "EL SOL"},
		{Name: ColLegalNameLong, Example: "EMPRESA DE TRANSPORTES EL SOL S.A.C."},
		{Name: ColFiscalAddress, Example: "AV. GRAU 123, TACNA"},
		{Name: ColPhones, Example: "052412345, 952123456", Help: "separados por espacio, coma o punto y coma"},
		{Name: ColEmail, Example: "contacto@elsol.pe"},
		{Name: ColRepresentativeDNI, Example: "45678912", Help: "8 dígitos"},
		{Name: ColRepresentativeGiven, Example: "JUAN CARLOS"},
		{Name: ColRepresentativeLast, Example: "PEREZ QUISPE"},
		{Name: ColStatus, Example: drtc.CompanyAuthorized, Help: strings.Join(drtc.CompanyStatuses.Values(), ", ")},
		{Name: ColObservations},
	},
	entity.KindResolution: {
		{Name: ColCompanyRUC, Mandatory: true, Example: "20131312955"},
		{Name: ColResolutionNumber, Mandatory: true, Example: "R-0001-2025"},
		{Name: ColResolutionKind, Mandatory: true, Example: drtc.ResolutionParent, Help: "PADRE o HIJO"},
		{Name: ColProcedureType, Mandatory: true, Example: drtc.ProcedureInitial, Help: strings.Join(drtc.ProcedureTypes.Values(), ", ")},
		{Name: ColEmissionDate, Mandatory: true, Example: "10/02/2025", Help: "DD/MM/AAAA o AAAA-MM-DD"},
		{Name: ColVigencyStart, Mandatory: true, Example: "15/02/2025"},
		{Name: ColVigencyYears, Mandatory: true, Example: "10", Help: "entero de 1 a 10"},
		{Name: ColVigencyEnd, Help: "se calcula: inicio + años - 1 día"},
		{Name: ColParentResolution, Help: "obligatoria si el tipo es HIJO"},
		{Name: ColDescription},
		{Name: ColStatus, Example: drtc.ResolutionValid, Help: strings.Join(drtc.ResolutionStatuses.Values(), ", ")},
		{Name: ColObservations},
	},
	entity.KindVehicle: {
		{Name: ColPlate, Mandatory: true, Example: "ABC-123"},
		{Name: ColCompanyRUC, Mandatory: true, Example: "20131312955"},
		{Name: ColResolutionNumber, Example: "R-0001-2025", Help: "resolución actual; vacía deja el vehículo sin resolución"},
		{Name: ColCategory, Mandatory: true, Example: "M3", Help: strings.Join(drtc.VehicleCategories.Values(), ", ")},
		{Name: ColMake, Mandatory: true, Example: "MERCEDES BENZ"},
		{Name: ColModel, Mandatory: true, Example: "O500"},
		{Name: ColYear, Mandatory: true, Example: "2018"},
		{Name: ColFuel, Example: "DIESEL", Help: strings.Join(drtc.FuelTypes.Values(), ", ")},
		{Name: ColSeats, Example: "45"},
		{Name: ColGrossWeight, Example: "18.5"},
		{Name: ColNetWeight, Example: "12.3"},
		{Name: ColPayload, Example: "6.2"},
		{Name: ColLength, Example: "12.8"},
		{Name: ColWidth, Example: "2.6"},
		{Name: ColHeight, Example: "3.7"},
		{Name: ColColor, Example: "BLANCO"},
		{Name: ColSerialNumber},
		{Name: ColEngineNumber},
		{Name: ColStatus, Example: drtc.VehicleActive, Help: strings.Join(drtc.VehicleStatuses.Values(), ", ")},
		{Name: ColObservations},
	},
	entity.KindRoute: {
		{Name: ColRouteCode, Mandatory: true, Example: "01", Help: "2 dígitos, único por resolución"},
		{Name: ColResolutionNumber, Mandatory: true, Example: "R-0001-2025"},
		{Name: ColCompanyRUC, Help: "opcional; si se indica debe coincidir con la empresa de la resolución"},
		{Name: ColRouteName, Example: "TACNA - TARATA"},
		{Name: ColOrigin, Mandatory: true, Example: "230101", Help: "ubigeo de 6 dígitos o nombre"},
		{Name: ColDestination, Mandatory: true, Example: "TARATA"},
		{Name: ColItinerary},
		{Name: ColDistance, Example: "87.5", Help: "km"},
		{Name: ColEstimatedTime, Example: "2h 30m"},
		{Name: ColFrequency, Mandatory: true, Example: "DIARIA 6 SALIDAS"},
		{Name: ColServiceType, Example: "REGULAR", Help: strings.Join(drtc.ServiceTypes.Values(), ", ")},
		{Name: ColRouteType, Example: "INTERPROVINCIAL", Help: strings.Join(drtc.RouteTypes.Values(), ", ")},
		{Name: ColTariff, Example: "15.00"},
		{Name: ColStatus, Example: "ACTIVA", Help: strings.Join(drtc.RouteStatuses.Values(), ", ")},
		{Name: ColObservations},
	},
}

// Columns devuelve las columnas reconocidas para el tipo, en orden de plantilla.
func Columns(kind entity.Kind) []Column {
	return append([]Column(nil), columnsByKind[kind]...)
}

func mandatoryColumns(kind entity.Kind) []string {
	var out []string
	for _, c := range columnsByKind[kind] {
		if c.Mandatory {
			out = append(out, c.Name)
		}
	}
	return out
}

func knownColumn(kind entity.Kind, name string) bool {
	for _, c := range columnsByKind[kind] {
		if c.Name == name {
			return true
		}
	}
	return false
}

// ParseKind interpreta el tipo de la URL o de la CLI: "empresas", "resoluciones", "vehiculos", "rutas"
// (también en singular).
func ParseKind(s string) (entity.Kind, error) {
	switch drtc.Fold(s) {
	case "EMPRESAS", "EMPRESA":
		return entity.KindCompany, nil
	case "RESOLUCIONES", "RESOLUCION":
		return entity.KindResolution, nil
	case "VEHICULOS", "VEHICULO":
		return entity.KindVehicle, nil
	case "RUTAS", "RUTA":
		return entity.KindRoute, nil
	}
	return "", fmt.Errorf("tipo de carga desconocido: %q", s)
}
