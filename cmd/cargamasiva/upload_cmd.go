package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jhoicas/Transporte-api/internal/application/dto"
	"github.com/jhoicas/Transporte-api/internal/application/ingestion"
	"github.com/jhoicas/Transporte-api/internal/domain/entity"
	"github.com/jhoicas/Transporte-api/internal/domain/repository"
	"github.com/jhoicas/Transporte-api/internal/infrastructure/excel"
	"github.com/jhoicas/Transporte-api/internal/infrastructure/memstore"
	"github.com/jhoicas/Transporte-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Transporte-api/pkg/config"
	"github.com/jhoicas/Transporte-api/pkg/logger"
)

type uploadOptions struct {
	kind   string
	output string
}

// newUploadCmd construye "validar" (dryRun) o "aplicar".
func newUploadCmd(g *globalOptions, dryRun bool) *cobra.Command {
	var opts uploadOptions
	use, short := "aplicar", "Aplica el libro al registro e imprime el reporte"
	if dryRun {
		use, short = "validar", "Valida el libro sin escribir e imprime el reporte"
	}
	cmd := &cobra.Command{
		Use:   use + " ARCHIVO.xlsx",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := ingestion.ParseKind(opts.kind)
			if err != nil {
				return withCode(exitUsage, err)
			}
			return runUpload(cmd.Context(), cmd.OutOrStdout(), g, opts, kind, args[0], dryRun)
		},
	}
	cmd.Flags().StringVar(&opts.kind, "tipo", "", "empresas | resoluciones | vehiculos | rutas (requerido)")
	cmd.Flags().StringVar(&opts.output, "salida", "", "Archivo JSON del reporte (por defecto stdout)")
	_ = cmd.MarkFlagRequired("tipo")
	return cmd
}

func runUpload(ctx context.Context, stdout io.Writer, g *globalOptions, opts uploadOptions, kind entity.Kind, path string, dryRun bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return withCode(exitUsage, fmt.Errorf("leer %s: %w", path, err))
	}
	cfg, err := config.Load()
	if err != nil {
		return withCode(exitUsage, fmt.Errorf("cargar configuración: %w", err))
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Output: os.Stderr})
	ctx = log.WithContext(ctx)

	store, closeStore, err := openStore(ctx, cfg, g.memory)
	if err != nil {
		return withCode(exitStore, err)
	}
	defer closeStore()

	workbook := excel.NewWorkbook()
	uc := ingestion.NewBulkUploadUseCase(workbook, workbook, store, ingestion.Options{
		EmailDomains: cfg.Upload.EmailDomains,
		StrictRUC:    cfg.Upload.StrictRUC,
	}, nil)
	report, upErr := uc.Upload(ctx, ingestion.UploadRequest{
		Kind:     kind,
		FileName: filepath.Base(path),
		Data:     data,
		DryRun:   dryRun,
	})
	if report != nil {
		if err := writeReport(stdout, opts.output, report); err != nil {
			return withCode(exitUsage, err)
		}
	}
	return uploadExit(report, upErr)
}

func uploadExit(report *dto.IngestionReport, err error) error {
	var abort *ingestion.AbortError
	switch {
	case errors.As(err, &abort) && abort.Code == ingestion.CodeUnreadableWorkbook:
		return withCode(exitUnreadable, err)
	case err != nil:
		return withCode(exitStore, err)
	case report.Failed > 0:
		return withCode(exitRowsFailed, fmt.Errorf("%d de %d filas con error", report.Failed, report.TotalRows))
	}
	return nil
}

func writeReport(stdout io.Writer, path string, report *dto.IngestionReport) error {
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	out = append(out, '\n')
	if path == "" {
		_, err = stdout.Write(out)
		return err
	}
	return os.WriteFile(path, out, 0o644)
}

// openStore abre el almacén configurado; memory fuerza el de memoria.
func openStore(ctx context.Context, cfg *config.Config, memory bool) (repository.EntityStore, func(), error) {
	if memory || cfg.Store.Driver == config.StoreMemory {
		return memstore.New(), func() {}, nil
	}
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migración del esquema: %w", err)
	}
	return postgres.NewDocumentStore(pool), pool.Close, nil
}
