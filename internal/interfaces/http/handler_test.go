package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/Transporte-api/internal/application/dto"
	"github.com/jhoicas/Transporte-api/internal/application/ingestion"
	"github.com/jhoicas/Transporte-api/internal/application/usecase"
	"github.com/jhoicas/Transporte-api/internal/domain"
	"github.com/jhoicas/Transporte-api/internal/domain/entity"
	"github.com/jhoicas/Transporte-api/internal/infrastructure/excel"
	"github.com/jhoicas/Transporte-api/internal/infrastructure/memstore"
	"github.com/jhoicas/Transporte-api/internal/infrastructure/metrics"
	apphttp "github.com/jhoicas/Transporte-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/Transporte-api/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const testMaxBytes = 1 << 20

type apiFixture struct {
	app   *fiber.App
	store *memstore.Store
	reg   *prometheus.Registry
}

func newAPI(t *testing.T) apiFixture {
	t.Helper()
	store := memstore.New()
	reg := prometheus.NewRegistry()
	wb := excel.NewWorkbook()
	bulk := ingestion.NewBulkUploadUseCase(wb, wb, store, ingestion.Options{}, metrics.NewRecorder(reg))

	app := fiber.New(fiber.Config{BodyLimit: 4 * testMaxBytes})
	apphttp.Router(app, apphttp.RouterDeps{
		BulkUpload:     bulk,
		RegistryUC:     usecase.NewRegistryUseCase(store),
		JWTSecret:      testJWTSecret,
		MaxUploadBytes: testMaxBytes,
		Gatherer:       reg,
	})
	return apiFixture{app: app, store: store, reg: reg}
}

// companyWorkbook arma un xlsx con hoja DATA y las filas de empresa dadas (RUC, razón social).
func companyWorkbook(t *testing.T, rows ...[2]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", "DATA"))
	require.NoError(t, f.SetSheetRow("DATA", "A1", &[]any{ingestion.ColRUC, ingestion.ColCompanyName}))
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("DATA", cell, &[]any{r[0], r[1]}))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func uploadRequest(t *testing.T, url, role string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if data != nil {
		part, err := w.CreateFormFile(apphttp.FormFileField, "empresas.xlsx")
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, url, &body)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	req.Header.Set(fiber.HeaderAuthorization, tokenForRole(t, role))
	return req
}

func getRequest(t *testing.T, url, role string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	req.Header.Set(fiber.HeaderAuthorization, tokenForRole(t, role))
	return req
}

func send(t *testing.T, app *fiber.App, req *http.Request) *http.Response {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeReport(t *testing.T, resp *http.Response) dto.IngestionReport {
	t.Helper()
	var rep dto.IngestionReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rep))
	return rep
}

// ──────────────────────────────────────────────────────────────────────────────
// Carga masiva
// ──────────────────────────────────────────────────────────────────────────────

func TestCargaMasiva_AdminAplica(t *testing.T) {
	api := newAPI(t)
	data := companyWorkbook(t, [2]string{"20131312955", "TRANSPORTES SOL"})

	resp := send(t, api.app, uploadRequest(t, "/api/carga-masiva/empresas?solo_validar=false", pkgjwt.RoleAdmin, data))
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	rep := decodeReport(t, resp)
	assert.Equal(t, dto.ModeApply, rep.Modo)
	assert.Equal(t, 1, rep.Created)
	assert.Equal(t, "DATA", rep.Hoja)

	rec, err := api.store.FindByNaturalKey(context.Background(), entity.KindCompany, "20131312955")
	require.NoError(t, err)
	assert.NotNil(t, rec)
}

func TestCargaMasiva_OperadorSoloValida(t *testing.T) {
	api := newAPI(t)
	data := companyWorkbook(t, [2]string{"20131312955", "TRANSPORTES SOL"})

	resp := send(t, api.app, uploadRequest(t, "/api/carga-masiva/empresas", pkgjwt.RoleOperator, data))
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	rep := decodeReport(t, resp)
	assert.Equal(t, dto.ModeDryRun, rep.Modo)
	require.Len(t, rep.Rows, 1)
	assert.Equal(t, ingestion.DryRunPrefix+"CREATED", rep.Rows[0].Verdict)

	rec, err := api.store.FindByNaturalKey(context.Background(), entity.KindCompany, "20131312955")
	require.NoError(t, err)
	assert.Nil(t, rec, "la validación no escribe")
}

func TestCargaMasiva_OperadorNoAplica(t *testing.T) {
	api := newAPI(t)
	data := companyWorkbook(t, [2]string{"20131312955", "TRANSPORTES SOL"})

	resp := send(t, api.app, uploadRequest(t, "/api/carga-masiva/empresas?solo_validar=false", pkgjwt.RoleOperator, data))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCargaMasiva_ConsultaNoAccede(t *testing.T) {
	api := newAPI(t)
	data := companyWorkbook(t, [2]string{"20131312955", "TRANSPORTES SOL"})

	resp := send(t, api.app, uploadRequest(t, "/api/carga-masiva/empresas", pkgjwt.RoleViewer, data))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCargaMasiva_TipoDesconocido(t *testing.T) {
	api := newAPI(t)

	resp := send(t, api.app, uploadRequest(t, "/api/carga-masiva/conductores", pkgjwt.RoleAdmin, []byte("x")))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "INVALID_TIPO")
}

func TestCargaMasiva_SinArchivo(t *testing.T) {
	api := newAPI(t)

	resp := send(t, api.app, uploadRequest(t, "/api/carga-masiva/empresas", pkgjwt.RoleAdmin, nil))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "MISSING_FILE")
}

func TestCargaMasiva_LibroIlegible(t *testing.T) {
	api := newAPI(t)

	resp := send(t, api.app, uploadRequest(t, "/api/carga-masiva/empresas", pkgjwt.RoleAdmin, []byte("no es un xlsx")))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), string(ingestion.CodeUnreadableWorkbook))
}

func TestCargaMasiva_ArchivoDemasiadoGrande(t *testing.T) {
	api := newAPI(t)

	resp := send(t, api.app, uploadRequest(t, "/api/carga-masiva/empresas", pkgjwt.RoleAdmin, make([]byte, testMaxBytes+1)))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestCargaMasiva_AlmacenCaido_503ConReporteParcial(t *testing.T) {
	api := newAPI(t)
	api.store.SetFault(func(op memstore.Op, _ entity.Kind, _ string) error {
		if op == memstore.OpInsert {
			return domain.ErrStoreUnavailable
		}
		return nil
	})
	data := companyWorkbook(t,
		[2]string{"20131312955", "TRANSPORTES SOL"},
		[2]string{"20100070970", "SIERRA"},
	)

	resp := send(t, api.app, uploadRequest(t, "/api/carga-masiva/empresas?solo_validar=false", pkgjwt.RoleAdmin, data))
	defer resp.Body.Close()

	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	rep := decodeReport(t, resp)
	assert.Equal(t, string(ingestion.CodeStoreUnavailable), rep.Aborted)
	assert.Equal(t, 1, rep.Failed)
	assert.Equal(t, 1, rep.NotAttempted)
}

func TestCargaMasiva_Plantilla(t *testing.T) {
	api := newAPI(t)

	resp := send(t, api.app, getRequest(t, "/api/carga-masiva/vehiculos/plantilla", pkgjwt.RoleOperator))
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "plantilla_vehiculo.xlsx")
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "DATA")
}

// ──────────────────────────────────────────────────────────────────────────────
// Consultas y métricas
// ──────────────────────────────────────────────────────────────────────────────

func TestConsulta_EmpresaTrasCarga(t *testing.T) {
	api := newAPI(t)
	data := companyWorkbook(t, [2]string{"20131312955", "TRANSPORTES SOL"})
	resp := send(t, api.app, uploadRequest(t, "/api/carga-masiva/empresas?solo_validar=false", pkgjwt.RoleAdmin, data))
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = send(t, api.app, getRequest(t, "/api/empresas/20131312955", pkgjwt.RoleViewer))
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out dto.CompanyResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "TRANSPORTES SOL", out.Name)

	list := send(t, api.app, getRequest(t, "/api/empresas?limit=5", pkgjwt.RoleViewer))
	defer list.Body.Close()
	var page dto.CompanyListResponse
	require.NoError(t, json.NewDecoder(list.Body).Decode(&page))
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 5, page.Page.Limit)

	huge := send(t, api.app, getRequest(t, "/api/empresas?limit=9223372036854775807", pkgjwt.RoleViewer))
	defer huge.Body.Close()
	require.Equal(t, http.StatusOK, huge.StatusCode)
	var clamped dto.CompanyListResponse
	require.NoError(t, json.NewDecoder(huge.Body).Decode(&clamped))
	assert.Equal(t, dto.MaxPageLimit, clamped.Page.Limit)
}

func TestConsulta_NoEncontradoYEntradaInvalida(t *testing.T) {
	api := newAPI(t)

	cases := []struct {
		url    string
		status int
	}{
		{"/api/empresas/20123456789", http.StatusNotFound},
		{"/api/empresas/123", http.StatusBadRequest},
		{"/api/vehiculos/ABC-123", http.StatusNotFound},
		{"/api/vehiculos/%3F%3F", http.StatusBadRequest},
		{"/api/resoluciones/R-0001-2025", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.url, func(t *testing.T) {
			resp := send(t, api.app, getRequest(t, tc.url, pkgjwt.RoleViewer))
			defer resp.Body.Close()
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestConsulta_SinToken(t *testing.T) {
	api := newAPI(t)

	resp := send(t, api.app, httptest.NewRequest(http.MethodGet, "/api/empresas", nil))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMetrics_ExponeContadores(t *testing.T) {
	api := newAPI(t)
	data := companyWorkbook(t, [2]string{"20131312955", "TRANSPORTES SOL"})
	resp := send(t, api.app, uploadRequest(t, "/api/carga-masiva/empresas", pkgjwt.RoleAdmin, data))
	resp.Body.Close()

	resp = send(t, api.app, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "carga_masiva_uploads_total")
}
