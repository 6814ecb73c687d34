// Package excel lee y genera los libros xlsx de la carga masiva.
package excel

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/Transporte-api/internal/application/ingestion"
	"github.com/jhoicas/Transporte-api/internal/domain"
)

// DataSheet es la hoja preferida del libro.
const DataSheet = "DATA"

const mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var _ ingestion.WorkbookReader = (*Workbook)(nil)

// Workbook implementa la lectura de libros subidos y la generación de plantillas.
type Workbook struct{}

func NewWorkbook() *Workbook { return &Workbook{} }

// Read abre el libro y toma la primera hoja legible en el orden DATA, primera hoja, hoja activa.
// El encabezado es la primera fila no vacía; las filas totalmente vacías se descartan.
func (w *Workbook) Read(ctx context.Context, data []byte) (*ingestion.Sheet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: archivo vacío", domain.ErrUnreadableWorkbook)
	}
	mt := mimetype.Detect(data)
	if !mt.Is(mimeXLSX) && !mt.Is("application/zip") {
		return nil, fmt.Errorf("%w: tipo %s no soportado, se espera .xlsx", domain.ErrUnreadableWorkbook, mt.String())
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnreadableWorkbook, err)
	}
	defer f.Close()

	var lastErr error
	for _, name := range candidateSheets(f) {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			lastErr = err
			continue
		}
		sheet, ok := buildSheet(name, rows)
		if !ok {
			lastErr = fmt.Errorf("la hoja %q no tiene datos", name)
			continue
		}
		return sheet, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("el libro no tiene hojas")
	}
	return nil, fmt.Errorf("%w: %v", domain.ErrUnreadableWorkbook, lastErr)
}

func candidateSheets(f *excelize.File) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	sheets := f.GetSheetList()
	for _, s := range sheets {
		if strings.EqualFold(strings.TrimSpace(s), DataSheet) {
			add(s)
		}
	}
	if len(sheets) > 0 {
		add(sheets[0])
	}
	add(f.GetSheetName(f.GetActiveSheetIndex()))
	return out
}

// buildSheet ubica el encabezado, lo canoniza y arma las filas de datos.
func buildSheet(name string, rows [][]string) (*ingestion.Sheet, bool) {
	headerAt := -1
	for i, r := range rows {
		if !blankRow(r) {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return nil, false
	}

	sheet := &ingestion.Sheet{Name: name}
	columns := make([]string, len(rows[headerAt]))
	seen := make(map[string]bool)
	for i, raw := range rows[headerAt] {
		h := CanonicalHeader(raw)
		if h == "" {
			continue
		}
		if seen[h] {
			sheet.Warnings = append(sheet.Warnings, fmt.Sprintf("columna %q repetida; se usa la primera", h))
			continue
		}
		seen[h] = true
		columns[i] = h
		sheet.Headers = append(sheet.Headers, h)
	}

	for i := headerAt + 1; i < len(rows); i++ {
		if blankRow(rows[i]) {
			continue
		}
		cells := make(map[string]string, len(sheet.Headers))
		for j, v := range rows[i] {
			if j < len(columns) && columns[j] != "" {
				cells[columns[j]] = strings.TrimSpace(v)
			}
		}
		sheet.Rows = append(sheet.Rows, ingestion.SheetRow{Index: i + 1, Cells: cells})
	}
	return sheet, true
}

func blankRow(r []string) bool {
	for _, c := range r {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
