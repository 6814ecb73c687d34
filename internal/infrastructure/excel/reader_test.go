package excel_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/Transporte-api/internal/application/ingestion"
	"github.com/jhoicas/Transporte-api/internal/domain"
	"github.com/jhoicas/Transporte-api/internal/domain/entity"
	"github.com/jhoicas/Transporte-api/internal/infrastructure/excel"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

// buildXLSX arma un libro en memoria. sheets se escribe en orden; la primera reemplaza a Sheet1.
func buildXLSX(t *testing.T, sheets map[string][][]any, order ...string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, name := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			values := row
			require.NoError(t, f.SetSheetRow(name, cell, &values))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

// ──────────────────────────────────────────────────────────────────────────────
// Tabla de alias
// ──────────────────────────────────────────────────────────────────────────────

func TestAliases_CadaVarianteLlevaASuCanonico(t *testing.T) {
	for canonical, variants := range excel.Aliases() {
		assert.Equal(t, canonical, excel.CanonicalHeader(canonical))
		assert.Equal(t, canonical, excel.CanonicalHeader(strings.ToLower(canonical)))
		legacy := strings.ReplaceAll(strings.ToUpper(canonical), " ", "_")
		assert.Equal(t, canonical, excel.CanonicalHeader(legacy), legacy)
		for _, v := range variants {
			assert.Equal(t, canonical, excel.CanonicalHeader(v), v)
		}
	}
}

func TestAliases_CubreTodasLasColumnasDeCarga(t *testing.T) {
	table := excel.Aliases()
	for _, kind := range entity.ApplyOrder {
		for _, col := range ingestion.Columns(kind) {
			_, ok := table[col.Name]
			assert.True(t, ok, "columna %q de %s sin entrada en la tabla de alias", col.Name, kind)
		}
	}
}

func TestCanonicalHeader_QuitaAnotaciones(t *testing.T) {
	cases := map[string]string{
		"RUC (*)":                     ingestion.ColRUC,
		"  Años Vigencia (required)":  ingestion.ColVigencyYears,
		"ANIOS_VIGENCIA":              ingestion.ColVigencyYears,
		"Placa*":                      ingestion.ColPlate,
		"Fecha Emisión (obligatorio)": ingestion.ColEmissionDate,
		"numero_resolucion":           ingestion.ColResolutionNumber,
	}
	for in, want := range cases {
		assert.Equal(t, want, excel.CanonicalHeader(in), in)
	}
}

func TestCanonicalHeader_DesconocidoPasaLimpio(t *testing.T) {
	assert.Equal(t, "Columna Rara", excel.CanonicalHeader("  Columna   Rara (*) "))
}

// ──────────────────────────────────────────────────────────────────────────────
// Lectura
// ──────────────────────────────────────────────────────────────────────────────

func TestRead_PrefiereHojaDATA(t *testing.T) {
	data := buildXLSX(t, map[string][][]any{
		"Resumen": {{"nada que ver"}},
		"DATA": {
			{"PLACA", "RUC_EMPRESA (*)"},
			{"abc123", "20131312955"},
		},
	}, "Resumen", "DATA")

	sheet, err := excel.NewWorkbook().Read(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, "DATA", sheet.Name)
	assert.Equal(t, []string{ingestion.ColPlate, ingestion.ColCompanyRUC}, sheet.Headers)
	require.Len(t, sheet.Rows, 1)
	assert.Equal(t, "abc123", sheet.Rows[0].Get(ingestion.ColPlate))
	assert.Equal(t, 2, sheet.Rows[0].Index)
}

func TestRead_SinDATAUsaPrimeraHoja(t *testing.T) {
	data := buildXLSX(t, map[string][][]any{
		"Vehiculos": {{"Placa"}, {"XYZ-999"}},
		"Otra":      {{"Placa"}, {"AAA-111"}},
	}, "Vehiculos", "Otra")

	sheet, err := excel.NewWorkbook().Read(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, "Vehiculos", sheet.Name)
	assert.Equal(t, "XYZ-999", sheet.Rows[0].Get(ingestion.ColPlate))
}

func TestRead_EncabezadoTrasFilasVaciasYFilasVaciasDescartadas(t *testing.T) {
	data := buildXLSX(t, map[string][][]any{
		"DATA": {
			{},
			{"Código Ruta", "Número Resolución", "Columna Extra"},
			{"1", "R-0001-2025", "x"},
			{"", "", ""},
			{"2", "R-0001-2025", ""},
			{},
		},
	}, "DATA")

	sheet, err := excel.NewWorkbook().Read(context.Background(), data)
	require.NoError(t, err)
	assert.Contains(t, sheet.Headers, "Columna Extra")
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, 3, sheet.Rows[0].Index)
	assert.Equal(t, 5, sheet.Rows[1].Index)
	assert.Equal(t, "2", sheet.Rows[1].Get(ingestion.ColRouteCode))
}

func TestRead_ColumnaRepetidaAdvierte(t *testing.T) {
	data := buildXLSX(t, map[string][][]any{
		"DATA": {{"Placa", "PLACA_VEHICULO"}, {"ABC-123", "ZZZ-999"}},
	}, "DATA")

	sheet, err := excel.NewWorkbook().Read(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, "ABC-123", sheet.Rows[0].Get(ingestion.ColPlate))
	assert.Len(t, sheet.Warnings, 1)
}

func TestRead_NoEsXLSX(t *testing.T) {
	_, err := excel.NewWorkbook().Read(context.Background(), []byte("RUC,Razon Social\n20131312955,X\n"))
	assert.ErrorIs(t, err, domain.ErrUnreadableWorkbook)

	_, err = excel.NewWorkbook().Read(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrUnreadableWorkbook)
}

func TestRead_LibroSinDatos(t *testing.T) {
	data := buildXLSX(t, map[string][][]any{"DATA": {}}, "DATA")
	_, err := excel.NewWorkbook().Read(context.Background(), data)
	assert.ErrorIs(t, err, domain.ErrUnreadableWorkbook)
}

// ──────────────────────────────────────────────────────────────────────────────
// Plantilla
// ──────────────────────────────────────────────────────────────────────────────

func TestBuild_PlantillaSeLeeConEncabezadosCanonicos(t *testing.T) {
	wb := excel.NewWorkbook()
	for _, kind := range entity.ApplyOrder {
		cols := ingestion.Columns(kind)
		data, err := wb.Build(kind, cols)
		require.NoError(t, err)

		sheet, err := wb.Read(context.Background(), data)
		require.NoError(t, err)
		assert.Equal(t, excel.DataSheet, sheet.Name)
		require.Len(t, sheet.Headers, len(cols))
		for i, c := range cols {
			assert.Equal(t, c.Name, sheet.Headers[i])
		}
		require.Len(t, sheet.Rows, 1, "solo la fila de ejemplo")
		assert.True(t, strings.HasPrefix(sheet.Rows[0].Get(cols[0].Name), "EJEMPLO"))
	}
}

func TestBuild_IncluyeInstrucciones(t *testing.T) {
	data, err := excel.NewWorkbook().Build(entity.KindVehicle, ingestion.Columns(entity.KindVehicle))
	require.NoError(t, err)

	f, err := excelize.OpenReader(strings.NewReader(string(data)))
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), excel.InstructionsSheet)
	head, err := f.GetCellValue(excel.DataSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Placa (*)", head)
}
