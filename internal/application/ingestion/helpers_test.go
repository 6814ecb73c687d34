package ingestion_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Transporte-api/internal/application/dto"
	"github.com/jhoicas/Transporte-api/internal/application/ingestion"
	"github.com/jhoicas/Transporte-api/internal/domain/entity"
	"github.com/jhoicas/Transporte-api/internal/infrastructure/memstore"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	rucSol   = "20131312955"
	rucLuna  = "20123456789"
	resPadre = "R-0001-2025"
)

var fixedNow = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }

// sheetOf arma una hoja con encabezados canónicos; las filas empiezan en la fila 2 de Excel.
func sheetOf(headers []string, rows ...[]string) *ingestion.Sheet {
	s := &ingestion.Sheet{Name: "DATA", Headers: headers}
	for i, values := range rows {
		cells := make(map[string]string, len(headers))
		for j, v := range values {
			cells[headers[j]] = v
		}
		s.Rows = append(s.Rows, ingestion.SheetRow{Index: i + 2, Cells: cells})
	}
	return s
}

// sheetReader devuelve siempre la misma hoja, sin importar los bytes.
type sheetReader struct{ sheet *ingestion.Sheet }

func (r sheetReader) Read(context.Context, []byte) (*ingestion.Sheet, error) { return r.sheet, nil }

func newUseCase(store *memstore.Store, sheet *ingestion.Sheet) *ingestion.BulkUploadUseCase {
	return ingestion.NewBulkUploadUseCase(sheetReader{sheet}, nil, store, ingestion.Options{}, nil).WithClock(fixedNow)
}

func upload(t *testing.T, store *memstore.Store, kind entity.Kind, dryRun bool, sheet *ingestion.Sheet) *dto.IngestionReport {
	t.Helper()
	rep, err := newUseCase(store, sheet).Upload(context.Background(), ingestion.UploadRequest{
		Kind: kind, FileName: "carga.xlsx", Data: []byte("x"), DryRun: dryRun,
	})
	require.NoError(t, err)
	require.NotNil(t, rep)
	return rep
}

func seedCompany(t *testing.T, store *memstore.Store, ruc string) string {
	t.Helper()
	id, err := store.Insert(context.Background(), &entity.Company{
		RUC: ruc, Name: "EMPRESA " + ruc, Email: "old@x.pe", Status: "AUTORIZADA",
		ResolutionIDs: []string{}, VehicleIDs: []string{}, DriverIDs: []string{}, RouteIDs: []string{},
	})
	require.NoError(t, err)
	return id
}

// seedResolution registra una resolución PADRE de la empresa y su enlace inverso.
func seedResolution(t *testing.T, store *memstore.Store, number, companyID string) string {
	t.Helper()
	ctx := context.Background()
	start := time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC)
	id, err := store.Insert(ctx, &entity.Resolution{
		Number: number, CompanyID: companyID, ResolutionKind: "PADRE", ProcedureType: "AUTORIZACION",
		EmissionDate: start, VigencyStart: start, VigencyYears: 10, VigencyEnd: start.AddDate(10, 0, -1),
		Status: "VIGENTE", ChildIDs: []string{}, VehicleIDs: []string{}, RouteIDs: []string{},
	})
	require.NoError(t, err)
	require.NoError(t, store.AppendToArray(ctx, entity.KindCompany, companyID, "resolution_ids", id))
	return id
}

func findCompany(t *testing.T, store *memstore.Store, ruc string) *entity.Company {
	t.Helper()
	rec, err := store.FindByNaturalKey(context.Background(), entity.KindCompany, ruc)
	require.NoError(t, err)
	require.NotNil(t, rec, "empresa %s", ruc)
	return rec.(*entity.Company)
}

func findResolution(t *testing.T, store *memstore.Store, number string) *entity.Resolution {
	t.Helper()
	rec, err := store.FindByNaturalKey(context.Background(), entity.KindResolution, number)
	require.NoError(t, err)
	require.NotNil(t, rec, "resolución %s", number)
	return rec.(*entity.Resolution)
}

func findVehicle(t *testing.T, store *memstore.Store, plate string) *entity.Vehicle {
	t.Helper()
	rec, err := store.FindByNaturalKey(context.Background(), entity.KindVehicle, plate)
	require.NoError(t, err)
	require.NotNil(t, rec, "vehículo %s", plate)
	return rec.(*entity.Vehicle)
}

func rowByIndex(t *testing.T, rep *dto.IngestionReport, index int) dto.RowResultDTO {
	t.Helper()
	for _, r := range rep.Rows {
		if r.RowIndex == index {
			return r
		}
	}
	t.Fatalf("fila %d no está en el reporte", index)
	return dto.RowResultDTO{}
}

func codes(issues []dto.IssueDTO) []string {
	out := make([]string, 0, len(issues))
	for _, i := range issues {
		out = append(out, i.Code)
	}
	return out
}

var (
	companyHeaders    = []string{ingestion.ColRUC, ingestion.ColCompanyName, ingestion.ColEmail, ingestion.ColPhones, ingestion.ColRepresentativeDNI}
	resolutionHeaders = []string{
		ingestion.ColCompanyRUC, ingestion.ColResolutionNumber, ingestion.ColResolutionKind, ingestion.ColProcedureType,
		ingestion.ColEmissionDate, ingestion.ColVigencyStart, ingestion.ColVigencyYears, ingestion.ColVigencyEnd,
		ingestion.ColParentResolution,
	}
	vehicleHeaders = []string{
		ingestion.ColPlate, ingestion.ColCompanyRUC, ingestion.ColResolutionNumber, ingestion.ColCategory,
		ingestion.ColMake, ingestion.ColModel, ingestion.ColYear,
	}
	routeHeaders = []string{
		ingestion.ColRouteCode, ingestion.ColResolutionNumber, ingestion.ColOrigin, ingestion.ColDestination, ingestion.ColFrequency,
	}
)
