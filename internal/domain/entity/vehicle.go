package entity

import "github.com/shopspring/decimal"

// Vehicle es un vehículo de la flota de una empresa. La placa es única en todo el registro.
// Sin resolución vigente el vehículo queda "huérfano" y no puede recibir rutas.
type Vehicle struct {
	Meta
	Plate        string `json:"plate"`
	CompanyID    string `json:"company_id" link:"empresa,vehicle_ids"`
	ResolutionID string `json:"resolution_id" link:"resolucion,vehicle_ids"`
	Category     string `json:"category"`

	Make         string          `json:"make"`
	Model        string          `json:"model"`
	Year         int             `json:"year"`
	Fuel         string          `json:"fuel"`
	Seats        int             `json:"seats"`
	GrossWeight  decimal.Decimal `json:"gross_weight"`
	NetWeight    decimal.Decimal `json:"net_weight"`
	Payload      decimal.Decimal `json:"payload"`
	Length       decimal.Decimal `json:"length"`
	Width        decimal.Decimal `json:"width"`
	Height       decimal.Decimal `json:"height"`
	Color        string          `json:"color"`
	SerialNumber string          `json:"serial_number"`
	EngineNumber string          `json:"engine_number"`

	Status       string `json:"status"`
	Observations string `json:"observations"`
}

func (v *Vehicle) Kind() Kind         { return KindVehicle }
func (v *Vehicle) NaturalKey() string { return v.Plate }

// IsOrphan informa si el vehículo no tiene resolución actual.
func (v *Vehicle) IsOrphan() bool { return v.ResolutionID == "" }
