package entity

import "time"

// Expediente es un caso que circula entre oficinas. La carga masiva no lo escribe;
// existe como destino de referencias.
type Expediente struct {
	Meta
	Number        string     `json:"number"`
	ProcedureType string     `json:"procedure_type"`
	CompanyID     string     `json:"company_id"`
	CurrentOffice string     `json:"current_office"`
	Priority      string     `json:"priority"`
	Status        string     `json:"status"`
	Movements     []Movement `json:"movements"` // solo se agregan
}

// Movement es un paso del expediente entre oficinas.
type Movement struct {
	FromOffice string    `json:"from_office"`
	ToOffice   string    `json:"to_office"`
	At         time.Time `json:"at"`
	Note       string    `json:"note"`
}

func (e *Expediente) Kind() Kind         { return KindExpediente }
func (e *Expediente) NaturalKey() string { return e.Number }

// AddMovement agrega un movimiento y actualiza la oficina actual.
func (e *Expediente) AddMovement(m Movement) {
	e.Movements = append(e.Movements, m)
	e.CurrentOffice = m.ToOffice
}
