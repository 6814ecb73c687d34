package ingestion

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/jhoicas/Transporte-api/internal/application/dto"
	"github.com/jhoicas/Transporte-api/internal/domain"
	"github.com/jhoicas/Transporte-api/internal/domain/entity"
	"github.com/jhoicas/Transporte-api/internal/domain/repository"
	"github.com/jhoicas/Transporte-api/pkg/logger"
)

// UploadRequest es una carga masiva: el tipo de entidad, el archivo y el modo.
type UploadRequest struct {
	Kind     entity.Kind
	FileName string
	Data     []byte
	DryRun   bool
}

// BulkUploadUseCase orquesta la carga: leer → normalizar → planificar → (aplicar) → reportar.
type BulkUploadUseCase struct {
	reader     WorkbookReader
	templates  TemplateBuilder
	store      repository.EntityStore
	normalizer *Normalizer
	metrics    MetricsRecorder
}

// NewBulkUploadUseCase construye el caso de uso. metrics y templates pueden ser nil.
func NewBulkUploadUseCase(reader WorkbookReader, templates TemplateBuilder, store repository.EntityStore, opts Options, metrics MetricsRecorder) *BulkUploadUseCase {
	return &BulkUploadUseCase{
		reader:     reader,
		templates:  templates,
		store:      store,
		normalizer: NewNormalizer(opts, time.Now),
		metrics:    metrics,
	}
}

// WithClock reemplaza el reloj del normalizador (pruebas).
func (uc *BulkUploadUseCase) WithClock(now func() time.Time) *BulkUploadUseCase {
	uc.normalizer.now = now
	return uc
}

// Upload procesa el archivo. En validación no escribe nada. Los errores que abortan la carga
// son *AbortError; si el almacén cae durante la aplicación se devuelve además el reporte parcial.
func (uc *BulkUploadUseCase) Upload(ctx context.Context, req UploadRequest) (*dto.IngestionReport, error) {
	if len(columnsByKind[req.Kind]) == 0 {
		return nil, fmt.Errorf("%w: tipo de carga %q", domain.ErrInvalidInput, req.Kind)
	}
	sum := blake2b.Sum256(req.Data)
	hash := hex.EncodeToString(sum[:])
	log := logger.Ctx(ctx).With().
		Str("tipo", string(req.Kind)).
		Str("archivo", req.FileName).
		Str("archivo_hash", hash).
		Bool("solo_validar", req.DryRun).
		Logger()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sheet, err := uc.reader.Read(ctx, req.Data)
	if err != nil {
		log.Warn().Err(err).Msg("libro ilegible")
		return nil, &AbortError{Code: CodeUnreadableWorkbook, Err: err}
	}

	rows, warnings := uc.normalizer.Normalize(req.Kind, sheet)

	plan, err := NewPlanner(NewResolver(uc.store)).Plan(ctx, req.Kind, rows)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		log.Error().Err(err).Msg("no se pudo planificar la carga")
		return nil, &AbortError{Code: CodeStoreUnavailable, Err: err}
	}

	var report *dto.IngestionReport
	var abort error
	if req.DryRun {
		report = ReportFromPlan(plan)
	} else {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res := NewExecutor(uc.store).Apply(ctx, plan)
		report = ReportFromResult(plan, res)
		if res.Aborted != "" {
			abort = &AbortError{Code: res.Aborted, Err: domain.ErrStoreUnavailable}
		}
	}
	report.ArchivoHash = hash
	report.Hoja = sheet.Name
	report.Warnings = append(report.Warnings, warnings...)

	log.Info().
		Int("total", report.TotalRows).
		Int("created", report.Created).
		Int("updated", report.Updated).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Int("not_attempted", report.NotAttempted).
		Msg("carga masiva procesada")
	if uc.metrics != nil {
		uc.metrics.ObserveUpload(req.Kind, report)
	}
	return report, abort
}

// Template devuelve la plantilla xlsx del tipo.
func (uc *BulkUploadUseCase) Template(kind entity.Kind) ([]byte, error) {
	if uc.templates == nil {
		return nil, errors.New("generador de plantillas no configurado")
	}
	cols := Columns(kind)
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: tipo de plantilla %q", domain.ErrInvalidInput, kind)
	}
	return uc.templates.Build(kind, cols)
}
