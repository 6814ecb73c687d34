package http

import (
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Transporte-api/internal/application/dto"
	"github.com/jhoicas/Transporte-api/internal/application/usecase"
	"github.com/jhoicas/Transporte-api/internal/domain"
)

// RegistryHandler consultas de lectura del registro por clave natural.
type RegistryHandler struct {
	uc *usecase.RegistryUseCase
}

func NewRegistryHandler(uc *usecase.RegistryUseCase) *RegistryHandler {
	return &RegistryHandler{uc: uc}
}

// ListCompanies godoc
// @Summary      Listar empresas
// @Tags         registro
// @Produce      json
// @Param        limit   query  int  false  "Límite (máximo 100)"  default(20)
// @Param        offset  query  int  false  "Offset"  default(0)
// @Success      200     {object}  dto.CompanyListResponse
// @Router       /api/empresas [get]
func (h *RegistryHandler) ListCompanies(c *fiber.Ctx) error {
	page := dto.PageRequest{Limit: c.QueryInt("limit", dto.DefaultPageLimit), Offset: c.QueryInt("offset", 0)}
	out, err := h.uc.ListCompanies(c.UserContext(), page)
	if err != nil {
		return lookupError(c, err)
	}
	return c.JSON(out)
}

// GetCompany godoc
// @Summary      Empresa por RUC
// @Tags         registro
// @Produce      json
// @Param        ruc  path  string  true  "RUC"
// @Success      200  {object}  dto.CompanyResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/empresas/{ruc} [get]
func (h *RegistryHandler) GetCompany(c *fiber.Ctx) error {
	out, err := h.uc.GetCompany(c.UserContext(), c.Params("ruc"))
	if err != nil {
		return lookupError(c, err)
	}
	if out == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "empresa no encontrada"})
	}
	return c.JSON(out)
}

// GetResolution godoc
// @Summary      Resolución por número
// @Tags         registro
// @Produce      json
// @Param        numero  path  string  true  "Número de resolución"
// @Success      200  {object}  dto.ResolutionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/resoluciones/{numero} [get]
func (h *RegistryHandler) GetResolution(c *fiber.Ctx) error {
	// el número puede traer "/" y espacios codificados
	number, err := url.PathUnescape(c.Params("numero"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()})
	}
	out, err := h.uc.GetResolution(c.UserContext(), number)
	if err != nil {
		return lookupError(c, err)
	}
	if out == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "resolución no encontrada"})
	}
	return c.JSON(out)
}

// GetVehicle godoc
// @Summary      Vehículo por placa
// @Tags         registro
// @Produce      json
// @Param        placa  path  string  true  "Placa"
// @Success      200  {object}  dto.VehicleResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/vehiculos/{placa} [get]
func (h *RegistryHandler) GetVehicle(c *fiber.Ctx) error {
	out, err := h.uc.GetVehicle(c.UserContext(), c.Params("placa"))
	if err != nil {
		return lookupError(c, err)
	}
	if out == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "vehículo no encontrado"})
	}
	return c.JSON(out)
}

func lookupError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()})
	case errors.Is(err, domain.ErrStoreUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "STORE_UNAVAILABLE", Message: "almacén no disponible"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}
