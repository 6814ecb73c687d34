// Package ingestion implementa la carga masiva desde hojas de cálculo: lectura, normalización,
// validación, deduplicación, resolución de referencias, planificación y aplicación sobre el
// almacén de entidades.
package ingestion

import (
	"context"

	"github.com/jhoicas/Transporte-api/internal/application/dto"
	"github.com/jhoicas/Transporte-api/internal/domain/entity"
)

// WorkbookReader abre un libro subido y devuelve la hoja de datos con encabezados canónicos.
// Falla con domain.ErrUnreadableWorkbook si el archivo no puede interpretarse.
type WorkbookReader interface {
	Read(ctx context.Context, data []byte) (*Sheet, error)
}

// TemplateBuilder genera la plantilla xlsx de un tipo de entidad.
type TemplateBuilder interface {
	Build(kind entity.Kind, columns []Column) ([]byte, error)
}

// MetricsRecorder recibe el reporte de cada carga terminada.
type MetricsRecorder interface {
	ObserveUpload(kind entity.Kind, report *dto.IngestionReport)
}

// Sheet es la tabla leída: nombre de la hoja, encabezados canónicos en orden de columna y filas.
type Sheet struct {
	Name     string
	Headers  []string
	Rows     []SheetRow
	Warnings []string
}

// SheetRow es una fila de datos. Index es el número de fila en Excel (1-based).
type SheetRow struct {
	Index int
	Cells map[string]string
}

// Get devuelve la celda de la columna canónica, o "" si no existe.
func (r SheetRow) Get(column string) string {
	return r.Cells[column]
}

// HasHeader informa si la hoja trae la columna canónica.
func (s *Sheet) HasHeader(column string) bool {
	for _, h := range s.Headers {
		if h == column {
			return true
		}
	}
	return false
}
