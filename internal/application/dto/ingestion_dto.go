package dto

// Modos de una carga masiva.
const (
	ModeDryRun = "validacion"
	ModeApply  = "aplicacion"
)

// IssueDTO es un error o advertencia de fila.
type IssueDTO struct {
	Code    string `json:"code"`
	Column  string `json:"column,omitempty"`
	Message string `json:"message"`
}

// StepDTO es una escritura ya realizada de una fila que no terminó (lista de compensación).
type StepDTO struct {
	Op    string `json:"op"`
	Kind  string `json:"kind"`
	ID    string `json:"id"`
	Field string `json:"field,omitempty"`
	Value string `json:"value,omitempty"`
}

// RowResultDTO es el veredicto de una fila.
type RowResultDTO struct {
	RowIndex     int        `json:"row_index"`
	NaturalKey   string     `json:"natural_key"`
	Verdict      string     `json:"verdict"`
	Warnings     []IssueDTO `json:"warnings"`
	Errors       []IssueDTO `json:"errors"`
	ResultingID  string     `json:"resulting_id,omitempty"`
	Compensation []StepDTO  `json:"compensation,omitempty"`
}

// IngestionReport es la respuesta de una carga masiva, en validación o en aplicación.
type IngestionReport struct {
	Tipo         string                    `json:"tipo"`
	Modo         string                    `json:"modo"`
	ArchivoHash  string                    `json:"archivo_hash"`
	Hoja         string                    `json:"hoja"`
	TotalRows    int                       `json:"total_rows"`
	Created      int                       `json:"created"`
	Updated      int                       `json:"updated"`
	Skipped      int                       `json:"skipped"`
	Failed       int                       `json:"failed"`
	NotAttempted int                       `json:"not_attempted"`
	Aborted      string                    `json:"aborted,omitempty"`
	Warnings     []string                  `json:"warnings"`
	Rows         []RowResultDTO            `json:"rows"`
	Stats        map[string]map[string]int `json:"stats"`
}
