package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/Transporte-api/internal/application/ingestion"
	"github.com/jhoicas/Transporte-api/internal/application/usecase"
	"github.com/jhoicas/Transporte-api/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	BulkUpload     *ingestion.BulkUploadUseCase
	RegistryUC     *usecase.RegistryUseCase
	JWTSecret      string
	MaxUploadBytes int
	Gatherer       prometheus.Gatherer // nil: sin /metrics
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	// Todo /api requiere Bearer Token
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))
	anyRole := RequireRole(jwt.RoleAdmin, jwt.RoleOperator, jwt.RoleViewer)

	// Carga masiva: validación para admin y operador; aplicación solo admin (se verifica en el handler)
	carga := api.Group("/carga-masiva", RequireRole(jwt.RoleAdmin, jwt.RoleOperator))
	ingestionHandler := NewIngestionHandler(deps.BulkUpload, deps.MaxUploadBytes)
	carga.Post("/:tipo", ingestionHandler.Upload)
	carga.Get("/:tipo/plantilla", ingestionHandler.Template)

	// Consultas del registro
	registryHandler := NewRegistryHandler(deps.RegistryUC)
	api.Get("/empresas", anyRole, registryHandler.ListCompanies)
	api.Get("/empresas/:ruc", anyRole, registryHandler.GetCompany)
	api.Get("/resoluciones/:numero", anyRole, registryHandler.GetResolution)
	api.Get("/vehiculos/:placa", anyRole, registryHandler.GetVehicle)
}
