package excel

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/Transporte-api/internal/application/ingestion"
	"github.com/jhoicas/Transporte-api/internal/domain/entity"
)

// InstructionsSheet es la hoja de ayuda de la plantilla.
const InstructionsSheet = "INSTRUCCIONES"

var _ ingestion.TemplateBuilder = (*Workbook)(nil)

// Build genera la plantilla: hoja DATA con los encabezados canónicos (las obligatorias con "(*)")
// y una fila de ejemplo, más una hoja INSTRUCCIONES con la ayuda por columna.
func (w *Workbook) Build(kind entity.Kind, columns []ingestion.Column) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", DataSheet); err != nil {
		return nil, fmt.Errorf("plantilla: %w", err)
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"1F4E78"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("plantilla: %w", err)
	}
	example, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Italic: true, Color: "808080"}})
	if err != nil {
		return nil, fmt.Errorf("plantilla: %w", err)
	}

	for i, col := range columns {
		name := col.Name
		if col.Mandatory {
			name += " (*)"
		}
		headCell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		exampleCell, _ := excelize.CoordinatesToCellName(i+1, 2)
		if err := f.SetCellStr(DataSheet, headCell, name); err != nil {
			return nil, err
		}
		value := col.Example
		if i == 0 {
			value = "EJEMPLO " + value
		}
		if err := f.SetCellStr(DataSheet, exampleCell, value); err != nil {
			return nil, err
		}
		colName, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(DataSheet, colName, colName, float64(max(len(name), 14)+4)); err != nil {
			return nil, err
		}
	}
	if len(columns) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(columns), 1)
		if err := f.SetCellStyle(DataSheet, "A1", last, header); err != nil {
			return nil, err
		}
		lastExample, _ := excelize.CoordinatesToCellName(len(columns), 2)
		if err := f.SetCellStyle(DataSheet, "A2", lastExample, example); err != nil {
			return nil, err
		}
	}

	if _, err := f.NewSheet(InstructionsSheet); err != nil {
		return nil, fmt.Errorf("plantilla: %w", err)
	}
	lines := [][]string{
		{fmt.Sprintf("Plantilla de carga masiva: %s", kind)},
		{"Complete la hoja DATA desde la fila 3. La fila de EJEMPLO se ignora."},
		{"Las columnas marcadas con (*) son obligatorias al crear; al actualizar, una celda vacía conserva el valor registrado."},
		{"Orden de carga: " + loadOrder()},
		{},
		{"Columna", "Obligatoria", "Ayuda"},
	}
	for _, col := range columns {
		mandatory := "NO"
		if col.Mandatory {
			mandatory = "SÍ"
		}
		lines = append(lines, []string{col.Name, mandatory, col.Help})
	}
	for i, line := range lines {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		row := make([]any, len(line))
		for j, v := range line {
			row[j] = v
		}
		if err := f.SetSheetRow(InstructionsSheet, cell, &row); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(InstructionsSheet, "A", "A", 28); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(InstructionsSheet, "C", "C", 70); err != nil {
		return nil, err
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("plantilla: %w", err)
	}
	return buf.Bytes(), nil
}

func loadOrder() string {
	kinds := make([]string, len(entity.ApplyOrder))
	for i, k := range entity.ApplyOrder {
		kinds[i] = string(k)
	}
	return strings.Join(kinds, " > ")
}
