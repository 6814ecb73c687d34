package entity

import "github.com/shopspring/decimal"

// LocalityRef referencia una localidad por ID estable más su nombre para mostrar.
// ID vacío indica que la localidad se registró solo por nombre.
type LocalityRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Route es una ruta autorizada por una resolución. El código (dos dígitos) es único dentro
// de la resolución; la clave natural combina número de resolución y código.
type Route struct {
	Meta
	Code             string `json:"code"`
	ResolutionNumber string `json:"resolution_number"`
	CompanyID        string `json:"company_id" link:"empresa,route_ids"`
	ResolutionID     string `json:"resolution_id" link:"resolucion,route_ids"`

	Name          string          `json:"name"`
	Origin        LocalityRef     `json:"origin"`
	Destination   LocalityRef     `json:"destination"`
	Itinerary     string          `json:"itinerary"`
	DistanceKm    decimal.Decimal `json:"distance_km"`
	EstimatedTime string          `json:"estimated_time"`
	Frequency     string          `json:"frequency"`
	ServiceType   string          `json:"service_type"`
	RouteType     string          `json:"route_type"`
	Tariff        decimal.Decimal `json:"tariff"`
	Status        string          `json:"status"`
	Observations  string          `json:"observations"`
}

func (r *Route) Kind() Kind         { return KindRoute }
func (r *Route) NaturalKey() string { return RouteKey(r.ResolutionNumber, r.Code) }

// RouteKey compone la clave natural de una ruta.
func RouteKey(resolutionNumber, code string) string {
	return resolutionNumber + "#" + code
}
