package http

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Transporte-api/internal/application/dto"
	"github.com/jhoicas/Transporte-api/internal/application/ingestion"
	"github.com/jhoicas/Transporte-api/internal/domain"
	"github.com/jhoicas/Transporte-api/pkg/jwt"
	"github.com/jhoicas/Transporte-api/pkg/logger"
)

// FormFileField nombre del campo multipart con el libro.
const FormFileField = "archivo"

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// IngestionHandler expone la carga masiva de hojas de cálculo.
type IngestionHandler struct {
	uc       *ingestion.BulkUploadUseCase
	maxBytes int
}

// NewIngestionHandler construye el handler. maxBytes <= 0 desactiva el límite propio
// (queda el BodyLimit del servidor).
func NewIngestionHandler(uc *ingestion.BulkUploadUseCase, maxBytes int) *IngestionHandler {
	return &IngestionHandler{uc: uc, maxBytes: maxBytes}
}

// Upload godoc
// @Summary      Carga masiva desde Excel
// @Description  Por defecto solo valida y devuelve lo que haría sin escribir. solo_validar=false aplica y requiere rol admin.
// @Tags         carga-masiva
// @Accept       multipart/form-data
// @Produce      json
// @Param        tipo          path      string  true   "empresas | resoluciones | vehiculos | rutas"
// @Param        solo_validar  query     bool    false  "Solo validar"  default(true)
// @Param        archivo       formData  file    true   "Libro .xlsx"
// @Success      200  {object}  dto.IngestionReport
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      413  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.IngestionReport
// @Router       /api/carga-masiva/{tipo} [post]
func (h *IngestionHandler) Upload(c *fiber.Ctx) error {
	kind, err := ingestion.ParseKind(c.Params("tipo"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_TIPO", Message: err.Error()})
	}
	dryRun := c.QueryBool("solo_validar", true)
	if !dryRun && GetRole(c) != jwt.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "solo admin puede aplicar cargas"})
	}

	fh, err := c.FormFile(FormFileField)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_FILE", Message: fmt.Sprintf("campo %q requerido", FormFileField)})
	}
	if h.maxBytes > 0 && fh.Size > int64(h.maxBytes) {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(dto.ErrorResponse{Code: "FILE_TOO_LARGE", Message: fmt.Sprintf("el archivo supera %d bytes", h.maxBytes)})
	}
	f, err := fh.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_FILE", Message: err.Error()})
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_FILE", Message: err.Error()})
	}

	ctx := c.UserContext()
	report, err := h.uc.Upload(ctx, ingestion.UploadRequest{
		Kind:     kind,
		FileName: fh.Filename,
		Data:     data,
		DryRun:   dryRun,
	})
	if err == nil {
		return c.JSON(report)
	}

	var abort *ingestion.AbortError
	switch {
	case errors.As(err, &abort) && abort.Code == ingestion.CodeUnreadableWorkbook:
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: string(abort.Code), Message: abort.Err.Error()})
	case errors.As(err, &abort):
		logger.Ctx(ctx).Error().Err(err).Msg("carga abortada")
		if report != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(report)
		}
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: string(abort.Code), Message: "almacén no disponible, intente más tarde"})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return c.Status(fiber.StatusRequestTimeout).JSON(dto.ErrorResponse{Code: "CANCELLED", Message: err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}

// Template godoc
// @Summary      Plantilla xlsx del tipo
// @Tags         carga-masiva
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        tipo  path  string  true  "empresas | resoluciones | vehiculos | rutas"
// @Success      200
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/carga-masiva/{tipo}/plantilla [get]
func (h *IngestionHandler) Template(c *fiber.Ctx) error {
	kind, err := ingestion.ParseKind(c.Params("tipo"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_TIPO", Message: err.Error()})
	}
	data, err := h.uc.Template(kind)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	c.Attachment(fmt.Sprintf("plantilla_%s.xlsx", kind))
	c.Set(fiber.HeaderContentType, xlsxContentType)
	return c.Send(data)
}
