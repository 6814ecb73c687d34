package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jhoicas/Transporte-api/internal/application/ingestion"
	"github.com/jhoicas/Transporte-api/internal/application/usecase"
	"github.com/jhoicas/Transporte-api/internal/domain/repository"
	"github.com/jhoicas/Transporte-api/internal/infrastructure/excel"
	"github.com/jhoicas/Transporte-api/internal/infrastructure/memstore"
	"github.com/jhoicas/Transporte-api/internal/infrastructure/metrics"
	"github.com/jhoicas/Transporte-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Transporte-api/internal/interfaces/http"
	"github.com/jhoicas/Transporte-api/pkg/config"
	"github.com/jhoicas/Transporte-api/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

// registryStore es lo que la API necesita del almacén: escritura para la carga y lectura para consultas.
type registryStore interface {
	repository.EntityStore
	repository.EntityReader
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	var store registryStore
	switch cfg.Store.Driver {
	case config.StoreMemory:
		log.Warn().Msg("almacén en memoria: los datos se pierden al reiniciar")
		store = memstore.New()
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("migración del esquema")
		}
		store = postgres.NewDocumentStore(pool)
	}

	workbook := excel.NewWorkbook()
	recorder := metrics.NewRecorder(prometheus.DefaultRegisterer)
	bulkUC := ingestion.NewBulkUploadUseCase(workbook, workbook, store, ingestion.Options{
		EmailDomains: cfg.Upload.EmailDomains,
		StrictRUC:    cfg.Upload.StrictRUC,
	}, recorder)
	registryUC := usecase.NewRegistryUseCase(store)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 30,
		WriteTimeout: time.Second * 60,
		IdleTimeout:  time.Second * 60,
		// margen para el resto del multipart; el archivo se limita en el handler
		BodyLimit: cfg.Upload.MaxBytes + 64<<10,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestContext(log))

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Registro de Transporte - Carga masiva",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		BulkUpload:     bulkUC,
		RegistryUC:     registryUC,
		JWTSecret:      cfg.JWT.Secret,
		MaxUploadBytes: cfg.Upload.MaxBytes,
		Gatherer:       prometheus.DefaultGatherer,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
