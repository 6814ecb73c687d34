package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/Transporte-api/internal/application/dto"
	"github.com/jhoicas/Transporte-api/internal/domain"
	"github.com/jhoicas/Transporte-api/internal/domain/entity"
	"github.com/jhoicas/Transporte-api/internal/domain/repository"
	"github.com/jhoicas/Transporte-api/pkg/drtc"
)

// RegistryUseCase responde consultas del registro por clave natural.
type RegistryUseCase struct {
	store repository.EntityReader
}

// NewRegistryUseCase construye el caso de uso con el lado de lectura del almacén.
func NewRegistryUseCase(store repository.EntityReader) *RegistryUseCase {
	return &RegistryUseCase{store: store}
}

// GetCompany busca una empresa por RUC. Devuelve nil, nil si no existe.
func (uc *RegistryUseCase) GetCompany(ctx context.Context, ruc string) (*dto.CompanyResponse, error) {
	ruc = drtc.NormalizeRUC(ruc)
	if err := drtc.ValidateRUC(ruc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	rec, err := uc.store.FindByNaturalKey(ctx, entity.KindCompany, ruc)
	if err != nil || rec == nil {
		return nil, err
	}
	return companyResponse(rec.(*entity.Company)), nil
}

// ListCompanies lista las empresas activas por RUC.
func (uc *RegistryUseCase) ListCompanies(ctx context.Context, page dto.PageRequest) (*dto.CompanyListResponse, error) {
	page.DefaultPage()
	list, err := uc.store.List(ctx, entity.KindCompany)
	if err != nil {
		return nil, err
	}
	items := make([]dto.CompanyResponse, 0, max(0, min(page.Limit, len(list)-page.Offset)))
	for i := page.Offset; i < len(list) && len(items) < page.Limit; i++ {
		items = append(items, *companyResponse(list[i].(*entity.Company)))
	}
	return &dto.CompanyListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: len(list)},
	}, nil
}

// GetResolution busca una resolución por número, con empresa, padre, hijas, placas y rutas
// expresadas por su clave natural.
func (uc *RegistryUseCase) GetResolution(ctx context.Context, number string) (*dto.ResolutionResponse, error) {
	rec, err := uc.store.FindByNaturalKey(ctx, entity.KindResolution, drtc.CanonicalResolutionNumber(number))
	if err != nil || rec == nil {
		return nil, err
	}
	r := rec.(*entity.Resolution)
	out := &dto.ResolutionResponse{
		ID:             r.ID,
		Number:         r.Number,
		ResolutionKind: r.ResolutionKind,
		ProcedureType:  r.ProcedureType,
		EmissionDate:   r.EmissionDate,
		VigencyStart:   r.VigencyStart,
		VigencyYears:   r.VigencyYears,
		VigencyEnd:     r.VigencyEnd,
		Status:         r.Status,
	}
	if out.CompanyRUC, err = uc.keyOf(ctx, entity.KindCompany, r.CompanyID); err != nil {
		return nil, err
	}
	if out.ParentNumber, err = uc.keyOf(ctx, entity.KindResolution, r.ParentID); err != nil {
		return nil, err
	}
	if out.Children, err = uc.keysOf(ctx, entity.KindResolution, r.ChildIDs); err != nil {
		return nil, err
	}
	if out.Plates, err = uc.keysOf(ctx, entity.KindVehicle, r.VehicleIDs); err != nil {
		return nil, err
	}
	routes, err := uc.keysOf(ctx, entity.KindRoute, r.RouteIDs)
	if err != nil {
		return nil, err
	}
	for _, key := range routes {
		// la clave de ruta es "<resolución>#<código>"
		out.RouteCodes = append(out.RouteCodes, key[strings.LastIndex(key, "#")+1:])
	}
	if out.RouteCodes == nil {
		out.RouteCodes = []string{}
	}
	return out, nil
}

// GetVehicle busca un vehículo por placa.
func (uc *RegistryUseCase) GetVehicle(ctx context.Context, plate string) (*dto.VehicleResponse, error) {
	plate = drtc.NormalizePlate(plate)
	if err := drtc.ValidatePlate(plate); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	rec, err := uc.store.FindByNaturalKey(ctx, entity.KindVehicle, plate)
	if err != nil || rec == nil {
		return nil, err
	}
	v := rec.(*entity.Vehicle)
	out := &dto.VehicleResponse{
		ID:          v.ID,
		Plate:       v.Plate,
		Category:    v.Category,
		Make:        v.Make,
		Model:       v.Model,
		Year:        v.Year,
		Seats:       v.Seats,
		GrossWeight: v.GrossWeight,
		Status:      v.Status,
		Orphan:      v.IsOrphan(),
	}
	if out.CompanyRUC, err = uc.keyOf(ctx, entity.KindCompany, v.CompanyID); err != nil {
		return nil, err
	}
	if out.ResolutionNumber, err = uc.keyOf(ctx, entity.KindResolution, v.ResolutionID); err != nil {
		return nil, err
	}
	return out, nil
}

func (uc *RegistryUseCase) keyOf(ctx context.Context, kind entity.Kind, id string) (string, error) {
	if id == "" {
		return "", nil
	}
	rec, err := uc.store.FindByID(ctx, kind, id)
	if err != nil || rec == nil {
		return "", err
	}
	return rec.NaturalKey(), nil
}

// keysOf traduce IDs a claves naturales; los IDs sin documento se omiten.
func (uc *RegistryUseCase) keysOf(ctx context.Context, kind entity.Kind, ids []string) ([]string, error) {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		key, err := uc.keyOf(ctx, kind, id)
		if err != nil {
			return nil, err
		}
		if key != "" {
			out = append(out, key)
		}
	}
	return out, nil
}

func companyResponse(c *entity.Company) *dto.CompanyResponse {
	return &dto.CompanyResponse{
		ID:                c.ID,
		RUC:               c.RUC,
		Name:              c.Name,
		FiscalAddress:     c.FiscalAddress,
		Phones:            c.Phones,
		Email:             c.Email,
		RepresentativeDNI: c.RepresentativeDNI,
		Representative:    strings.TrimSpace(c.RepresentativeGivenNames + " " + c.RepresentativeFamilyNames),
		Status:            c.Status,
		ResolutionCount:   len(c.ResolutionIDs),
		VehicleCount:      len(c.VehicleIDs),
		RouteCount:        len(c.RouteIDs),
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}
