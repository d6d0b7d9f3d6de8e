package persistence

import (
	"context"
	"errors"

	"github.com/chemstock/backend/internal/domain/procurement"
	"github.com/chemstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormReceivingRepository implements procurement.ReceivingRepository using GORM
type GormReceivingRepository struct {
	db *gorm.DB
}

// NewGormReceivingRepository creates a new GormReceivingRepository
func NewGormReceivingRepository(db *gorm.DB) *GormReceivingRepository {
	return &GormReceivingRepository{db: db}
}

// FindByID finds a receiving by ID with its items preloaded
func (r *GormReceivingRepository) FindByID(ctx context.Context, id uuid.UUID) (*procurement.Receiving, error) {
	var receiving procurement.Receiving
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&receiving, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &receiving, nil
}

// FindByPurchaseOrder finds all receivings for an order, newest first
func (r *GormReceivingRepository) FindByPurchaseOrder(ctx context.Context, orderID uuid.UUID) ([]procurement.Receiving, error) {
	var receivings []procurement.Receiving
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("purchase_order_id = ?", orderID).
		Order("received_at DESC").
		Find(&receivings).Error; err != nil {
		return nil, err
	}
	return receivings, nil
}

// Save creates or updates a receiving with its items
func (r *GormReceivingRepository) Save(ctx context.Context, receiving *procurement.Receiving) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(receiving).Error; err != nil {
			return err
		}
		for i := range receiving.Items {
			receiving.Items[i].ReceivingID = receiving.ID
			if err := tx.Save(&receiving.Items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SumBaseByOrderItem sums the base-unit receipts recorded against one line
func (r *GormReceivingRepository) SumBaseByOrderItem(ctx context.Context, orderItemID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&procurement.ReceivingItem{}).
		Select("COALESCE(SUM(qty_base), 0) as total").
		Where("purchase_order_item_id = ?", orderItemID).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// SumBaseByOrder sums base-unit receipts per line across an order
func (r *GormReceivingRepository) SumBaseByOrder(ctx context.Context, orderID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	var rows []struct {
		PurchaseOrderItemID uuid.UUID
		Total               decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&procurement.ReceivingItem{}).
		Select("receiving_items.purchase_order_item_id, COALESCE(SUM(receiving_items.qty_base), 0) as total").
		Joins("JOIN receivings ON receivings.id = receiving_items.receiving_id").
		Where("receivings.purchase_order_id = ?", orderID).
		Group("receiving_items.purchase_order_item_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	sums := make(map[uuid.UUID]decimal.Decimal, len(rows))
	for _, row := range rows {
		sums[row.PurchaseOrderItemID] = row.Total
	}
	return sums, nil
}

// ExistsByPurchaseOrder reports whether the order has any receipts
func (r *GormReceivingRepository) ExistsByPurchaseOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&procurement.Receiving{}).
		Where("purchase_order_id = ?", orderID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormReceivingRepository implements procurement.ReceivingRepository
var _ procurement.ReceivingRepository = (*GormReceivingRepository)(nil)
