package material

import (
	"context"

	"github.com/chemstock/backend/internal/domain/material"
	"github.com/chemstock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Service handles material master data operations
type Service struct {
	materialRepo material.Repository
	conversion   *material.ConversionService
}

// NewService creates a new material service
func NewService(materialRepo material.Repository, conversion *material.ConversionService) *Service {
	return &Service{
		materialRepo: materialRepo,
		conversion:   conversion,
	}
}

// Create registers a new material with its conversion table. The default
// purchase unit must be convertible to the stock unit before the material
// is accepted.
func (s *Service) Create(ctx context.Context, req CreateMaterialRequest) (*MaterialResponse, error) {
	exists, err := s.materialRepo.ExistsBySKU(ctx, req.SKU)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "A material with this SKU already exists")
	}

	mat, err := material.NewMaterial(req.SKU, req.Name, req.StockUnit, req.DefaultPurchaseUnit)
	if err != nil {
		return nil, err
	}

	if req.Description != "" {
		if err := mat.UpdateDetails(req.Name, req.Description); err != nil {
			return nil, err
		}
	}
	if req.MinStock != nil || req.MaxStock != nil {
		if err := mat.SetThresholds(req.MinStock, req.MaxStock); err != nil {
			return nil, err
		}
	}
	if req.SyncToMonox {
		mat.EnableMonoxSync(true)
	}

	for _, c := range req.Conversions {
		if err := mat.AddConversion(c.FromUnit, c.ToUnit, c.Factor); err != nil {
			return nil, err
		}
	}

	if err := s.conversion.ValidateConvertibility(mat); err != nil {
		return nil, err
	}

	if err := s.materialRepo.Save(ctx, mat); err != nil {
		return nil, err
	}

	response := ToMaterialResponse(mat)
	return &response, nil
}

// Update updates material details and thresholds
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateMaterialRequest) (*MaterialResponse, error) {
	mat, err := s.materialRepo.FindByIDWithConversions(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := mat.UpdateDetails(req.Name, req.Description); err != nil {
		return nil, err
	}
	if err := mat.SetThresholds(req.MinStock, req.MaxStock); err != nil {
		return nil, err
	}

	if err := s.materialRepo.SaveWithLock(ctx, mat); err != nil {
		return nil, err
	}

	response := ToMaterialResponse(mat)
	return &response, nil
}

// GetByID retrieves a material with its conversion table
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*MaterialResponse, error) {
	mat, err := s.materialRepo.FindByIDWithConversions(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToMaterialResponse(mat)
	return &response, nil
}

// GetBySKU retrieves a material by its SKU
func (s *Service) GetBySKU(ctx context.Context, sku string) (*MaterialResponse, error) {
	mat, err := s.materialRepo.FindBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	response := ToMaterialResponse(mat)
	return &response, nil
}

// List retrieves materials matching the filter
func (s *Service) List(ctx context.Context, filter MaterialListFilter) ([]MaterialResponse, int64, error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}
	domainFilter.Search = filter.Search

	materials, err := s.materialRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.materialRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToMaterialResponses(materials), total, nil
}

// ListSyncedToMonox retrieves materials flagged for external sync
func (s *Service) ListSyncedToMonox(ctx context.Context) ([]MaterialResponse, error) {
	materials, err := s.materialRepo.FindSyncedToMonox(ctx)
	if err != nil {
		return nil, err
	}
	return ToMaterialResponses(materials), nil
}

// AddConversion adds a unit conversion to a material
func (s *Service) AddConversion(ctx context.Context, id uuid.UUID, req ConversionInput) (*MaterialResponse, error) {
	mat, err := s.materialRepo.FindByIDWithConversions(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := mat.AddConversion(req.FromUnit, req.ToUnit, req.Factor); err != nil {
		return nil, err
	}
	if err := s.materialRepo.SaveWithLock(ctx, mat); err != nil {
		return nil, err
	}
	response := ToMaterialResponse(mat)
	return &response, nil
}

// RemoveConversion removes a unit conversion. Removal is rejected when it
// would leave the default purchase unit unconvertible.
func (s *Service) RemoveConversion(ctx context.Context, id, conversionID uuid.UUID) (*MaterialResponse, error) {
	mat, err := s.materialRepo.FindByIDWithConversions(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := mat.RemoveConversionByID(conversionID); err != nil {
		return nil, err
	}
	if err := s.conversion.ValidateConvertibility(mat); err != nil {
		return nil, err
	}
	if err := s.materialRepo.SaveWithLock(ctx, mat); err != nil {
		return nil, err
	}
	response := ToMaterialResponse(mat)
	return &response, nil
}

// AvailableUnits lists the units a quantity can be entered in for a material
func (s *Service) AvailableUnits(ctx context.Context, id uuid.UUID) ([]string, error) {
	mat, err := s.materialRepo.FindByIDWithConversions(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.conversion.AvailableUnits(mat), nil
}

// Delete deletes a material. Materials with stock on hand cannot be deleted.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	mat, err := s.materialRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if mat.CurrentStock.IsPositive() {
		return shared.NewDomainError("INVALID_STATE", "Materials with stock on hand cannot be deleted")
	}
	return s.materialRepo.Delete(ctx, id)
}
