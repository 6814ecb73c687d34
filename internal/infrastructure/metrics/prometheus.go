// Package metrics expone contadores Prometheus de la carga masiva.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jhoicas/Transporte-api/internal/application/dto"
	"github.com/jhoicas/Transporte-api/internal/application/ingestion"
	"github.com/jhoicas/Transporte-api/internal/domain/entity"
)

var _ ingestion.MetricsRecorder = (*Recorder)(nil)

// Recorder cuenta cargas y veredictos de fila por tipo y modo.
type Recorder struct {
	uploads  *prometheus.CounterVec
	rows     *prometheus.CounterVec
	rowCount *prometheus.HistogramVec
}

// NewRecorder registra las métricas en reg (prometheus.DefaultRegisterer en producción).
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		uploads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carga_masiva",
			Name:      "uploads_total",
			Help:      "Total de cargas procesadas, por tipo, modo y resultado.",
		}, []string{"tipo", "modo", "resultado"}),
		rows: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carga_masiva",
			Name:      "rows_total",
			Help:      "Total de filas procesadas, por tipo, modo y veredicto.",
		}, []string{"tipo", "modo", "veredicto"}),
		rowCount: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "carga_masiva",
			Name:      "upload_rows",
			Help:      "Filas por archivo cargado.",
			Buckets:   []float64{1, 10, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"tipo"}),
	}
}

// ObserveUpload registra una carga terminada, abortada o no.
func (r *Recorder) ObserveUpload(kind entity.Kind, report *dto.IngestionReport) {
	result := "ok"
	if report.Aborted != "" {
		result = "abortada"
	}
	r.uploads.WithLabelValues(string(kind), report.Modo, result).Inc()
	r.rowCount.WithLabelValues(string(kind)).Observe(float64(report.TotalRows))
	for _, row := range report.Rows {
		r.rows.WithLabelValues(string(kind), report.Modo, row.Verdict).Inc()
	}
}
