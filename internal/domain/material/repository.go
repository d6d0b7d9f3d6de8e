package material

import (
	"context"

	"github.com/chemstock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository defines the interface for material persistence
type Repository interface {
	// FindByID finds a material by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Material, error)

	// FindByIDWithConversions finds a material with its conversion table preloaded
	FindByIDWithConversions(ctx context.Context, id uuid.UUID) (*Material, error)

	// FindBySKU finds a material by its unique SKU
	FindBySKU(ctx context.Context, sku string) (*Material, error)

	// FindAll finds materials matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Material, error)

	// FindByIDs finds multiple materials by their IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Material, error)

	// FindSyncedToMonox finds materials flagged for external sync
	FindSyncedToMonox(ctx context.Context) ([]Material, error)

	// Save creates or updates a material
	Save(ctx context.Context, m *Material) error

	// SaveWithLock saves with optimistic locking (checks version)
	SaveWithLock(ctx context.Context, m *Material) error

	// Delete deletes a material
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts materials matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// ExistsBySKU checks whether a material with the SKU exists
	ExistsBySKU(ctx context.Context, sku string) (bool, error)
}
