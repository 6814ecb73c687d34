package ingestion_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Transporte-api/internal/application/ingestion"
	"github.com/jhoicas/Transporte-api/internal/domain/entity"
)

func normalize(opts ingestion.Options, kind entity.Kind, sheet *ingestion.Sheet) ([]ingestion.Row, []string) {
	return ingestion.NewNormalizer(opts, fixedNow).Normalize(kind, sheet)
}

func headerIssueCodes(h *ingestion.RowHeader) []ingestion.Code {
	var out []ingestion.Code
	for _, i := range h.Issues {
		out = append(out, i.Code)
	}
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Empresas
// ──────────────────────────────────────────────────────────────────────────────

func TestNormalize_EmpresaCanonizaCampos(t *testing.T) {
	sheet := sheetOf(companyHeaders,
		[]string{" 20-131.312-955 ", "transportes  el sol", " Contacto@ElSol.PE ", "052-412345; 952123456 ,  987654321", "1234567"},
	)
	rows, _ := normalize(ingestion.Options{}, entity.KindCompany, sheet)
	require.Len(t, rows, 1)
	r := rows[0].(*ingestion.CompanyRow)

	assert.True(t, r.Valid(), r.Issues)
	assert.Equal(t, rucSol, r.RUC)
	assert.Equal(t, rucSol, r.Key)
	assert.Equal(t, "TRANSPORTES EL SOL", *r.Name)
	assert.Equal(t, "contacto@elsol.pe", *r.Email)
	assert.Equal(t, "052-412345,952123456,987654321", *r.Phones)
	assert.Equal(t, "01234567", *r.RepresentativeDNI)
	assert.Nil(t, r.Status, "vacío queda como nil")
}

func TestNormalize_EmpresaRUCInvalido(t *testing.T) {
	sheet := sheetOf(companyHeaders, []string{"2013131295", "X", "", "", ""})
	rows, _ := normalize(ingestion.Options{}, entity.KindCompany, sheet)
	h := rows[0].Header()
	assert.False(t, h.Valid())
	assert.Equal(t, []ingestion.Code{ingestion.CodeFieldInvalid}, headerIssueCodes(h))
	assert.Equal(t, ingestion.ColRUC, h.Issues[0].Column)
}

func TestNormalize_EmpresaRUCVacioEsObligatorio(t *testing.T) {
	sheet := sheetOf(companyHeaders, []string{"", "X", "", "", ""})
	rows, _ := normalize(ingestion.Options{}, entity.KindCompany, sheet)
	assert.Equal(t, []ingestion.Code{ingestion.CodeMandatoryMissing}, headerIssueCodes(rows[0].Header()))
}

func TestNormalize_RUCEstrictoVerificaDigito(t *testing.T) {
	sheet := sheetOf(companyHeaders, []string{rucLuna, "X", "", "", ""}, []string{rucSol, "Y", "", "", ""})
	rows, _ := normalize(ingestion.Options{StrictRUC: true}, entity.KindCompany, sheet)
	assert.False(t, rows[0].Header().Valid())
	assert.True(t, rows[1].Header().Valid())
}

func TestNormalize_RUCEnNotacionCientifica(t *testing.T) {
	sheet := sheetOf(companyHeaders, []string{"2.0131312955E+10", "X", "", "", ""})
	rows, _ := normalize(ingestion.Options{}, entity.KindCompany, sheet)
	assert.Equal(t, rucSol, rows[0].(*ingestion.CompanyRow).RUC)
}

func TestNormalize_CorreoConPoliticaDeDominio(t *testing.T) {
	sheet := sheetOf(companyHeaders,
		[]string{rucSol, "X", "gerencia@elsol.pe", "", ""},
		[]string{rucLuna, "Y", "alguien@gmail.com", "", ""},
		[]string{"20100070970", "Z", "no-es-correo", "", ""},
	)
	rows, _ := normalize(ingestion.Options{EmailDomains: []string{"elsol.pe"}}, entity.KindCompany, sheet)
	assert.True(t, rows[0].Header().Valid())
	assert.False(t, rows[1].Header().Valid())
	assert.Equal(t, ingestion.ColEmail, rows[1].Header().Issues[0].Column)
	assert.False(t, rows[2].Header().Valid())
}

func TestNormalize_TelefonoConLetrasFalla(t *testing.T) {
	sheet := sheetOf(companyHeaders, []string{rucSol, "X", "", "952123456 anexo", ""})
	rows, _ := normalize(ingestion.Options{}, entity.KindCompany, sheet)
	assert.Equal(t, []ingestion.Code{ingestion.CodeFieldInvalid}, headerIssueCodes(rows[0].Header()))
}

func TestNormalize_FaltaNombreSoloImpideCrear(t *testing.T) {
	sheet := sheetOf(companyHeaders, []string{rucSol, "", "", "", ""})
	rows, _ := normalize(ingestion.Options{}, entity.KindCompany, sheet)
	h := rows[0].Header()
	assert.True(t, h.Valid())
	assert.Equal(t, []string{ingestion.ColCompanyName}, h.Missing)
}

func TestNormalize_DescartaFilaDeEjemploYDecoraciones(t *testing.T) {
	sheet := sheetOf(companyHeaders,
		[]string{"EJEMPLO 20131312955", "TRANSPORTES EL SOL S.A.C.", "", "", ""},
		[]string{"'20123456789", "LUNA\u00a0SAC\u200b", "", "", ""},
	)
	rows, _ := normalize(ingestion.Options{}, entity.KindCompany, sheet)
	require.Len(t, rows, 1)
	r := rows[0].(*ingestion.CompanyRow)
	assert.Equal(t, rucLuna, r.RUC)
	assert.Equal(t, "LUNA SAC", *r.Name)
	assert.Equal(t, 3, r.Index)
}

func TestNormalize_AdvierteColumnasFaltantesYDesconocidas(t *testing.T) {
	sheet := sheetOf([]string{ingestion.ColRUC, "Columna Rara"}, []string{rucSol, "x"})
	_, warnings := normalize(ingestion.Options{}, entity.KindCompany, sheet)
	assert.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], ingestion.ColCompanyName)
	assert.Contains(t, warnings[1], "Columna Rara")
}

// ──────────────────────────────────────────────────────────────────────────────
// Resoluciones
// ──────────────────────────────────────────────────────────────────────────────

func TestNormalize_FechasEnVariosFormatos(t *testing.T) {
	want := time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"15/02/2025", "2025-02-15", "2025-02-15T10:30:00Z", "45703", "15-02-2025"} {
		sheet := sheetOf(resolutionHeaders, []string{rucSol, "r-1", "padre", "autorización", in, in, "10", "", ""})
		rows, _ := normalize(ingestion.Options{}, entity.KindResolution, sheet)
		r := rows[0].(*ingestion.ResolutionRow)
		require.True(t, r.Valid(), "%s: %v", in, r.Issues)
		assert.Equal(t, want, *r.Start, in)
		assert.Equal(t, "R-1", r.Number)
		assert.Equal(t, "PADRE", *r.ResolutionKind)
		assert.Equal(t, "AUTORIZACION", *r.Procedure)
	}
}

func TestNormalize_FechaInexistenteFalla(t *testing.T) {
	sheet := sheetOf(resolutionHeaders, []string{rucSol, "R-1", "PADRE", "AUTORIZACION", "31/02/2025", "", "10", "", ""})
	rows, _ := normalize(ingestion.Options{}, entity.KindResolution, sheet)
	h := rows[0].Header()
	require.False(t, h.Valid())
	assert.Equal(t, ingestion.ColEmissionDate, h.Issues[0].Column)
}

func TestNormalize_AnioSueltoNoEsFecha(t *testing.T) {
	for _, in := range []string{"2025", "15", "18263"} {
		sheet := sheetOf(resolutionHeaders, []string{rucSol, "R-1", "PADRE", "AUTORIZACION", "2025-01-01", in, "10", "", ""})
		rows, _ := normalize(ingestion.Options{}, entity.KindResolution, sheet)
		h := rows[0].Header()
		require.False(t, h.Valid(), in)
		assert.Equal(t, ingestion.ColVigencyStart, h.Issues[0].Column, in)
	}

	sheet := sheetOf(resolutionHeaders, []string{rucSol, "R-1", "PADRE", "AUTORIZACION", "2025-01-01", "18264", "10", "", ""})
	rows, _ := normalize(ingestion.Options{}, entity.KindResolution, sheet)
	r := rows[0].(*ingestion.ResolutionRow)
	require.True(t, r.Valid(), r.Issues)
	assert.Equal(t, time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC), *r.Start)
}

func TestNormalize_AniosVigenciaFueraDeRango(t *testing.T) {
	for _, years := range []string{"0", "11", "4.5", "diez"} {
		sheet := sheetOf(resolutionHeaders, []string{rucSol, "R-1", "PADRE", "AUTORIZACION", "2025-01-01", "2025-01-01", years, "", ""})
		rows, _ := normalize(ingestion.Options{}, entity.KindResolution, sheet)
		assert.False(t, rows[0].Header().Valid(), years)
	}
}

func TestNormalize_EnumeracionDesconocidaFalla(t *testing.T) {
	sheet := sheetOf(resolutionHeaders, []string{rucSol, "R-1", "ABUELA", "AUTORIZACION", "2025-01-01", "2025-01-01", "4", "", ""})
	rows, _ := normalize(ingestion.Options{}, entity.KindResolution, sheet)
	h := rows[0].Header()
	require.False(t, h.Valid())
	assert.Equal(t, ingestion.ColResolutionKind, h.Issues[0].Column)
}

// ──────────────────────────────────────────────────────────────────────────────
// Vehículos y rutas
// ──────────────────────────────────────────────────────────────────────────────

func TestNormalize_VehiculoPlacaYAnio(t *testing.T) {
	sheet := sheetOf(vehicleHeaders,
		[]string{"abc123", rucSol, "", "m3", "Mercedes", "O500", "2026"},
		[]string{"XYZ-999", rucSol, "", "M3", "Volvo", "B7R", "2027"},
		[]string{"123-456", rucSol, "", "M3", "Volvo", "B7R", "1949"},
	)
	rows, _ := normalize(ingestion.Options{}, entity.KindVehicle, sheet)
	first := rows[0].(*ingestion.VehicleRow)
	assert.True(t, first.Valid(), first.Issues)
	assert.Equal(t, "ABC-123", first.Plate)
	assert.Equal(t, "MERCEDES", *first.Make)
	assert.Equal(t, 2026, *first.Year)

	assert.False(t, rows[1].Header().Valid(), "2027 > año actual + 1")
	assert.Len(t, rows[2].Header().Issues, 2, "placa sin letras y año < 1950")
}

func TestNormalize_VehiculoPesos(t *testing.T) {
	headers := append(append([]string(nil), vehicleHeaders...), ingestion.ColGrossWeight, ingestion.ColNetWeight)
	sheet := sheetOf(headers,
		[]string{"ABC-123", rucSol, "", "M3", "A", "B", "2020", "18,5", "12.30"},
		[]string{"ABC-124", rucSol, "", "M3", "A", "B", "2020", "10", "12"},
	)
	rows, _ := normalize(ingestion.Options{}, entity.KindVehicle, sheet)
	r := rows[0].(*ingestion.VehicleRow)
	require.True(t, r.Valid(), r.Issues)
	assert.True(t, decimal.RequireFromString("18.5").Equal(*r.GrossWeight))
	assert.False(t, rows[1].Header().Valid(), "neto mayor que bruto")
}

func TestNormalize_RutaClaveCompuesta(t *testing.T) {
	sheet := sheetOf(routeHeaders, []string{"1", " r-0001-2025 ", "Tacna", "230101", "diaria"})
	rows, _ := normalize(ingestion.Options{}, entity.KindRoute, sheet)
	r := rows[0].(*ingestion.RouteRow)
	require.True(t, r.Valid(), r.Issues)
	assert.Equal(t, "01", r.Code)
	assert.Equal(t, entity.RouteKey(resPadre, "01"), r.Key)
	assert.Equal(t, "TACNA", *r.Origin)
}
