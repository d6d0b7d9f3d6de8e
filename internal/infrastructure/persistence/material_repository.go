package persistence

import (
	"context"
	"errors"

	"github.com/chemstock/backend/internal/domain/material"
	"github.com/chemstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormMaterialRepository implements material.Repository using GORM
type GormMaterialRepository struct {
	db *gorm.DB
}

// NewGormMaterialRepository creates a new GormMaterialRepository
func NewGormMaterialRepository(db *gorm.DB) *GormMaterialRepository {
	return &GormMaterialRepository{db: db}
}

// FindByID finds a material by its ID
func (r *GormMaterialRepository) FindByID(ctx context.Context, id uuid.UUID) (*material.Material, error) {
	var m material.Material
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// FindByIDWithConversions finds a material with its conversion table preloaded
func (r *GormMaterialRepository) FindByIDWithConversions(ctx context.Context, id uuid.UUID) (*material.Material, error) {
	var m material.Material
	if err := r.db.WithContext(ctx).
		Preload("Conversions").
		First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// FindBySKU finds a material by its unique SKU
func (r *GormMaterialRepository) FindBySKU(ctx context.Context, sku string) (*material.Material, error) {
	var m material.Material
	if err := r.db.WithContext(ctx).
		Preload("Conversions").
		First(&m, "sku = ?", sku).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// FindAll finds materials matching the filter
func (r *GormMaterialRepository) FindAll(ctx context.Context, filter shared.Filter) ([]material.Material, error) {
	var materials []material.Material
	query := r.applyFilter(r.db.WithContext(ctx).Model(&material.Material{}), filter)

	if err := query.Find(&materials).Error; err != nil {
		return nil, err
	}
	return materials, nil
}

// FindByIDs finds multiple materials by their IDs
func (r *GormMaterialRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]material.Material, error) {
	if len(ids) == 0 {
		return []material.Material{}, nil
	}

	var materials []material.Material
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&materials).Error; err != nil {
		return nil, err
	}
	return materials, nil
}

// FindSyncedToMonox finds materials flagged for external sync
func (r *GormMaterialRepository) FindSyncedToMonox(ctx context.Context) ([]material.Material, error) {
	var materials []material.Material
	if err := r.db.WithContext(ctx).
		Where("sync_to_monox = ?", true).
		Find(&materials).Error; err != nil {
		return nil, err
	}
	return materials, nil
}

// Save creates or updates a material with its conversions
func (r *GormMaterialRepository) Save(ctx context.Context, m *material.Material) error {
	return r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(m).Error
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormMaterialRepository) SaveWithLock(ctx context.Context, m *material.Material) error {
	result := r.db.WithContext(ctx).
		Model(m).
		Where("id = ? AND version = ?", m.ID, m.Version-1).
		Updates(map[string]interface{}{
			"name":                  m.Name,
			"description":           m.Description,
			"default_purchase_unit": m.DefaultPurchaseUnit,
			"min_stock":             m.MinStock,
			"max_stock":             m.MaxStock,
			"current_stock":         m.CurrentStock,
			"sync_to_monox":         m.SyncToMonox,
			"is_lot_managed":        m.IsLotManaged,
			"version":               m.Version,
			"updated_at":            m.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}

	// Conversions are replaced as a set, not diffed
	if err := r.db.WithContext(ctx).
		Where("material_id = ?", m.ID).
		Delete(&material.UnitConversion{}).Error; err != nil {
		return err
	}
	if len(m.Conversions) > 0 {
		if err := r.db.WithContext(ctx).Create(&m.Conversions).Error; err != nil {
			return err
		}
	}
	return nil
}

// Delete deletes a material and its conversions
func (r *GormMaterialRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("material_id = ?", id).
		Delete(&material.UnitConversion{}).Error; err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Delete(&material.Material{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts materials matching the filter
func (r *GormMaterialRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&material.Material{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsBySKU checks whether a material with the SKU exists
func (r *GormMaterialRepository) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&material.Material{}).
		Where("sku = ?", sku).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormMaterialRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, MaterialSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(orderBy + " " + orderDir)
}

func (r *GormMaterialRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("sku ILIKE ? OR name ILIKE ?", pattern, pattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "sync_to_monox":
			query = query.Where("sync_to_monox = ?", value)
		case "is_lot_managed":
			query = query.Where("is_lot_managed = ?", value)
		case "below_minimum":
			if value == true {
				query = query.Where("min_stock IS NOT NULL AND current_stock < min_stock")
			}
		case "stock_unit":
			query = query.Where("stock_unit = ?", value)
		}
	}

	return query
}

// Ensure GormMaterialRepository implements material.Repository
var _ material.Repository = (*GormMaterialRepository)(nil)
