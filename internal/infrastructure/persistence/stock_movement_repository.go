package persistence

import (
	"context"
	"errors"

	"github.com/chemstock/backend/internal/domain/shared"
	"github.com/chemstock/backend/internal/domain/stock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormStockMovementRepository implements stock.StockMovementRepository using
// GORM. The movement log is append-only, so the repository exposes no update
// or delete operations.
type GormStockMovementRepository struct {
	db *gorm.DB
}

// NewGormStockMovementRepository creates a new GormStockMovementRepository
func NewGormStockMovementRepository(db *gorm.DB) *GormStockMovementRepository {
	return &GormStockMovementRepository{db: db}
}

// Create appends a movement record
func (r *GormStockMovementRepository) Create(ctx context.Context, movement *stock.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

// FindByID finds a movement by its ID
func (r *GormStockMovementRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.StockMovement, error) {
	var movement stock.StockMovement
	if err := r.db.WithContext(ctx).First(&movement, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &movement, nil
}

// FindByMaterial finds movements for a material, newest first
func (r *GormStockMovementRepository) FindByMaterial(ctx context.Context, materialID uuid.UUID, filter shared.Filter) ([]stock.StockMovement, error) {
	var movements []stock.StockMovement
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&stock.StockMovement{}).
			Where("material_id = ?", materialID),
		filter,
	)

	if err := query.Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

// FindByLot finds movements for a lot, newest first
func (r *GormStockMovementRepository) FindByLot(ctx context.Context, lotID uuid.UUID, filter shared.Filter) ([]stock.StockMovement, error) {
	var movements []stock.StockMovement
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&stock.StockMovement{}).
			Where("lot_id = ?", lotID),
		filter,
	)

	if err := query.Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

// FindBySource finds movements caused by a source document
func (r *GormStockMovementRepository) FindBySource(ctx context.Context, sourceType, sourceID string) ([]stock.StockMovement, error) {
	var movements []stock.StockMovement
	if err := r.db.WithContext(ctx).
		Where("source_type = ? AND source_id = ?", sourceType, sourceID).
		Order("movement_date DESC").
		Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

// SumSignedQuantityByLot sums the signed quantities of all movements for a
// lot. Decrease types count negative, everything else positive.
func (r *GormStockMovementRepository) SumSignedQuantityByLot(ctx context.Context, lotID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&stock.StockMovement{}).
		Select("COALESCE(SUM(CASE WHEN movement_type IN (?, ?, ?) THEN -quantity ELSE quantity END), 0) as total",
			stock.MovementTypeOut, stock.MovementTypeAdjustDecrease, stock.MovementTypeTransferOut).
		Where("lot_id = ?", lotID).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// Count counts movements matching the filter
func (r *GormStockMovementRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&stock.StockMovement{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormStockMovementRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, MovementSortFields, "movement_date")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(orderBy + " " + orderDir)
}

func (r *GormStockMovementRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "material_id":
			query = query.Where("material_id = ?", value)
		case "lot_id":
			query = query.Where("lot_id = ?", value)
		case "movement_type":
			query = query.Where("movement_type = ?", value)
		case "source_type":
			query = query.Where("source_type = ?", value)
		case "since":
			query = query.Where("movement_date >= ?", value)
		case "until":
			query = query.Where("movement_date < ?", value)
		case "is_external_sync":
			query = query.Where("is_external_sync = ?", value)
		}
	}

	return query
}

// Ensure GormStockMovementRepository implements stock.StockMovementRepository
var _ stock.StockMovementRepository = (*GormStockMovementRepository)(nil)
