package procurement

import (
	"context"
	"time"

	"github.com/chemstock/backend/internal/domain/procurement"
	"github.com/chemstock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// SupplierService handles supplier master data
type SupplierService struct {
	supplierRepo procurement.SupplierRepository
}

// NewSupplierService creates a new supplier service
func NewSupplierService(supplierRepo procurement.SupplierRepository) *SupplierService {
	return &SupplierService{supplierRepo: supplierRepo}
}

// Create registers a new supplier with a unique code
func (s *SupplierService) Create(ctx context.Context, req CreateSupplierRequest) (*SupplierResponse, error) {
	existing, err := s.supplierRepo.FindByCode(ctx, req.Code)
	if err != nil && !shared.IsNotFound(err) {
		return nil, err
	}
	if existing != nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Supplier code already in use")
	}

	supplier, err := procurement.NewSupplier(req.Code, req.Name)
	if err != nil {
		return nil, err
	}
	if req.ContactEmail != "" || req.Phone != "" {
		supplier.ContactEmail = req.ContactEmail
		supplier.Phone = req.Phone
	}

	if err := s.supplierRepo.Save(ctx, supplier); err != nil {
		return nil, err
	}

	resp := ToSupplierResponse(supplier)
	return &resp, nil
}

// GetByID retrieves a supplier by ID
func (s *SupplierService) GetByID(ctx context.Context, id uuid.UUID) (*SupplierResponse, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToSupplierResponse(supplier)
	return &resp, nil
}

// List retrieves suppliers matching the filter
func (s *SupplierService) List(ctx context.Context, filter shared.Filter) ([]SupplierResponse, error) {
	suppliers, err := s.supplierRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	return ToSupplierResponses(suppliers), nil
}

// UpdateContact updates a supplier's contact details
func (s *SupplierService) UpdateContact(ctx context.Context, id uuid.UUID, req UpdateSupplierContactRequest) (*SupplierResponse, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	supplier.UpdateContact(req.ContactEmail, req.Phone)
	if req.Name != "" {
		supplier.Name = req.Name
		supplier.UpdatedAt = time.Now()
	}

	if err := s.supplierRepo.Save(ctx, supplier); err != nil {
		return nil, err
	}

	resp := ToSupplierResponse(supplier)
	return &resp, nil
}

// Deactivate marks a supplier as unusable for new orders
func (s *SupplierService) Deactivate(ctx context.Context, id uuid.UUID) (*SupplierResponse, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	supplier.Deactivate()

	if err := s.supplierRepo.Save(ctx, supplier); err != nil {
		return nil, err
	}

	resp := ToSupplierResponse(supplier)
	return &resp, nil
}
