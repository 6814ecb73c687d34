package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Transporte-api/internal/application/dto"
	"github.com/jhoicas/Transporte-api/internal/domain/entity"
	"github.com/jhoicas/Transporte-api/internal/infrastructure/metrics"
)

func TestObserveUpload_CuentaCargasYVeredictos(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := metrics.NewRecorder(reg)

	rec.ObserveUpload(entity.KindVehicle, &dto.IngestionReport{
		Modo:      dto.ModeApply,
		TotalRows: 3,
		Rows: []dto.RowResultDTO{
			{Verdict: "CREATED"}, {Verdict: "CREATED"}, {Verdict: "FAILED"},
		},
	})
	rec.ObserveUpload(entity.KindVehicle, &dto.IngestionReport{
		Modo:    dto.ModeApply,
		Aborted: "STORE_UNAVAILABLE",
		Rows:    []dto.RowResultDTO{{Verdict: "NOT_ATTEMPTED"}},
	})

	uploads, err := testutil.GatherAndCount(reg, "carga_masiva_uploads_total")
	require.NoError(t, err)
	assert.Equal(t, 2, uploads)

	rows, err := testutil.GatherAndCount(reg, "carga_masiva_rows_total")
	require.NoError(t, err)
	assert.Equal(t, 3, rows)
}

func TestObserveUpload_ModoValidacion(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := metrics.NewRecorder(reg)

	rec.ObserveUpload(entity.KindCompany, &dto.IngestionReport{
		Modo: dto.ModeDryRun,
		Rows: []dto.RowResultDTO{{Verdict: "WOULD_CREATED"}, {Verdict: "WOULD_CREATED"}},
	})

	rows, err := testutil.GatherAndCount(reg, "carga_masiva_rows_total", "carga_masiva_upload_rows")
	require.NoError(t, err)
	assert.Equal(t, 2, rows)
}
