package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/chemstock/backend/internal/domain/shared"
	"github.com/chemstock/backend/internal/domain/stock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormMaterialLotRepository implements stock.MaterialLotRepository using GORM
type GormMaterialLotRepository struct {
	db *gorm.DB
}

// NewGormMaterialLotRepository creates a new GormMaterialLotRepository
func NewGormMaterialLotRepository(db *gorm.DB) *GormMaterialLotRepository {
	return &GormMaterialLotRepository{db: db}
}

// FindByID finds a lot by its ID
func (r *GormMaterialLotRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.MaterialLot, error) {
	var lot stock.MaterialLot
	if err := r.db.WithContext(ctx).First(&lot, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &lot, nil
}

// FindByIDForUpdate finds a lot by ID with a row lock held for the
// duration of the surrounding transaction
func (r *GormMaterialLotRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*stock.MaterialLot, error) {
	var lot stock.MaterialLot
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&lot, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &lot, nil
}

// FindByIdentity finds a lot by its (material, lot number, location) identity
func (r *GormMaterialLotRepository) FindByIdentity(ctx context.Context, materialID uuid.UUID, lotNo string, storageLocationID *uuid.UUID) (*stock.MaterialLot, error) {
	return r.findByIdentity(ctx, r.db, materialID, lotNo, storageLocationID)
}

// FindByIdentityForUpdate is FindByIdentity with a row lock
func (r *GormMaterialLotRepository) FindByIdentityForUpdate(ctx context.Context, materialID uuid.UUID, lotNo string, storageLocationID *uuid.UUID) (*stock.MaterialLot, error) {
	return r.findByIdentity(ctx, r.db.Clauses(clause.Locking{Strength: "UPDATE"}), materialID, lotNo, storageLocationID)
}

func (r *GormMaterialLotRepository) findByIdentity(ctx context.Context, db *gorm.DB, materialID uuid.UUID, lotNo string, storageLocationID *uuid.UUID) (*stock.MaterialLot, error) {
	query := db.WithContext(ctx).Where("material_id = ? AND lot_no = ?", materialID, lotNo)
	if storageLocationID == nil {
		query = query.Where("storage_location_id IS NULL")
	} else {
		query = query.Where("storage_location_id = ?", *storageLocationID)
	}

	var lot stock.MaterialLot
	if err := query.First(&lot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &lot, nil
}

// FindByMaterial finds all lots of a material
func (r *GormMaterialLotRepository) FindByMaterial(ctx context.Context, materialID uuid.UUID, filter shared.Filter) ([]stock.MaterialLot, error) {
	var lots []stock.MaterialLot
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&stock.MaterialLot{}).
			Where("material_id = ?", materialID),
		filter,
	)

	if err := query.Find(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}

// FindExpiringBefore finds non-empty lots expiring before the given time
func (r *GormMaterialLotRepository) FindExpiringBefore(ctx context.Context, before time.Time) ([]stock.MaterialLot, error) {
	var lots []stock.MaterialLot
	if err := r.db.WithContext(ctx).
		Where("expiry_date IS NOT NULL AND expiry_date < ? AND qty_on_hand > 0", before).
		Order("expiry_date ASC").
		Find(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}

// Save creates or updates a lot
func (r *GormMaterialLotRepository) Save(ctx context.Context, lot *stock.MaterialLot) error {
	return r.db.WithContext(ctx).Save(lot).Error
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormMaterialLotRepository) SaveWithLock(ctx context.Context, lot *stock.MaterialLot) error {
	result := r.db.WithContext(ctx).
		Model(lot).
		Where("id = ? AND version = ?", lot.ID, lot.Version-1).
		Updates(map[string]interface{}{
			"qty_on_hand": lot.QtyOnHand,
			"mfg_date":    lot.MfgDate,
			"expiry_date": lot.ExpiryDate,
			"version":     lot.Version,
			"updated_at":  lot.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// SumOnHandByMaterial sums qty_on_hand across all lots of a material
func (r *GormMaterialLotRepository) SumOnHandByMaterial(ctx context.Context, materialID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&stock.MaterialLot{}).
		Select("COALESCE(SUM(qty_on_hand), 0) as total").
		Where("material_id = ?", materialID).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// SumOnHand sums qty_on_hand across all lots
func (r *GormMaterialLotRepository) SumOnHand(ctx context.Context) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&stock.MaterialLot{}).
		Select("COALESCE(SUM(qty_on_hand), 0) as total").
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// Count counts lots matching the filter
func (r *GormMaterialLotRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&stock.MaterialLot{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormMaterialLotRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, LotSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(orderBy + " " + orderDir)
}

func (r *GormMaterialLotRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("lot_no ILIKE ?", "%"+filter.Search+"%")
	}

	for key, value := range filter.Filters {
		switch key {
		case "material_id":
			query = query.Where("material_id = ?", value)
		case "storage_location_id":
			query = query.Where("storage_location_id = ?", value)
		case "lot_no":
			query = query.Where("lot_no = ?", value)
		case "has_stock":
			if value == true {
				query = query.Where("qty_on_hand > 0")
			}
		case "expiring_before":
			query = query.Where("expiry_date IS NOT NULL AND expiry_date < ?", value)
		}
	}

	return query
}

// Ensure GormMaterialLotRepository implements stock.MaterialLotRepository
var _ stock.MaterialLotRepository = (*GormMaterialLotRepository)(nil)
