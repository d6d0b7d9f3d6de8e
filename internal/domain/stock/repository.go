package stock

import (
	"context"
	"time"

	"github.com/chemstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaterialLotRepository defines the interface for lot persistence
type MaterialLotRepository interface {
	// FindByID finds a lot by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*MaterialLot, error)

	// FindByIDForUpdate finds a lot by ID with a row lock held for the
	// duration of the surrounding transaction
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*MaterialLot, error)

	// FindByIdentity finds a lot by its (material, lot number, location) identity
	FindByIdentity(ctx context.Context, materialID uuid.UUID, lotNo string, storageLocationID *uuid.UUID) (*MaterialLot, error)

	// FindByIdentityForUpdate is FindByIdentity with a row lock
	FindByIdentityForUpdate(ctx context.Context, materialID uuid.UUID, lotNo string, storageLocationID *uuid.UUID) (*MaterialLot, error)

	// FindByMaterial finds all lots of a material
	FindByMaterial(ctx context.Context, materialID uuid.UUID, filter shared.Filter) ([]MaterialLot, error)

	// FindExpiringBefore finds non-empty lots expiring before the given time
	FindExpiringBefore(ctx context.Context, before time.Time) ([]MaterialLot, error)

	// Save creates or updates a lot
	Save(ctx context.Context, lot *MaterialLot) error

	// SaveWithLock saves with optimistic locking (checks version)
	SaveWithLock(ctx context.Context, lot *MaterialLot) error

	// SumOnHandByMaterial sums qty_on_hand across all lots of a material
	SumOnHandByMaterial(ctx context.Context, materialID uuid.UUID) (decimal.Decimal, error)

	// SumOnHand sums qty_on_hand across all lots
	SumOnHand(ctx context.Context) (decimal.Decimal, error)

	// Count counts lots matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}

// StorageLocationRepository defines the interface for location persistence
type StorageLocationRepository interface {
	// FindByID finds a location by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*StorageLocation, error)

	// FindByCode finds a location by its unique code
	FindByCode(ctx context.Context, code string) (*StorageLocation, error)

	// FindAll finds locations matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]StorageLocation, error)

	// Save creates or updates a location
	Save(ctx context.Context, location *StorageLocation) error

	// Delete deletes a location
	Delete(ctx context.Context, id uuid.UUID) error
}

// StockMovementRepository defines the interface for the movement log.
// The log is append-only: movements are created and queried, never
// updated or deleted.
type StockMovementRepository interface {
	// Create appends a movement record
	Create(ctx context.Context, movement *StockMovement) error

	// FindByID finds a movement by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*StockMovement, error)

	// FindByMaterial finds movements for a material, newest first
	FindByMaterial(ctx context.Context, materialID uuid.UUID, filter shared.Filter) ([]StockMovement, error)

	// FindByLot finds movements for a lot, newest first
	FindByLot(ctx context.Context, lotID uuid.UUID, filter shared.Filter) ([]StockMovement, error)

	// FindBySource finds movements caused by a source document
	FindBySource(ctx context.Context, sourceType, sourceID string) ([]StockMovement, error)

	// SumSignedQuantityByLot sums the signed quantities of all movements
	// for a lot, used for ledger reconciliation
	SumSignedQuantityByLot(ctx context.Context, lotID uuid.UUID) (decimal.Decimal, error)

	// Count counts movements matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
