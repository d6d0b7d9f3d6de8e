package procurement

import (
	"time"

	"github.com/chemstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Receiving groups the item-level receipts of one receiving event
// against a purchase order
type Receiving struct {
	shared.BaseAggregateRoot
	PurchaseOrderID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ReferenceNumber string          `gorm:"type:varchar(100)"` // Delivery note / packing slip reference
	ReceivedAt      time.Time       `gorm:"type:timestamptz;not null"`
	Items           []ReceivingItem `gorm:"foreignKey:ReceivingID;references:ID"`
}

// TableName returns the table name for GORM
func (Receiving) TableName() string {
	return "receivings"
}

// NewReceiving creates a new receiving event for a purchase order
func NewReceiving(purchaseOrderID uuid.UUID, referenceNumber string) (*Receiving, error) {
	if purchaseOrderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER", "Purchase order ID cannot be empty")
	}

	return &Receiving{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PurchaseOrderID:   purchaseOrderID,
		ReferenceNumber:   referenceNumber,
		ReceivedAt:        time.Now(),
		Items:             make([]ReceivingItem, 0),
	}, nil
}

// AddItem records one line receipt. Quantities are carried in both the
// purchase unit it was counted in and the material's stock unit.
func (r *Receiving) AddItem(orderItemID uuid.UUID, materialID *uuid.UUID, qtyReceived decimal.Decimal, unit string, qtyBase decimal.Decimal, lotID *uuid.UUID) (*ReceivingItem, error) {
	if orderItemID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ITEM", "Order item ID cannot be empty")
	}
	if qtyReceived.LessThanOrEqual(decimal.Zero) || qtyBase.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Received quantity must be positive")
	}

	item := ReceivingItem{
		BaseEntity:          shared.NewBaseEntity(),
		ReceivingID:         r.ID,
		PurchaseOrderItemID: orderItemID,
		MaterialID:          materialID,
		QtyReceived:         qtyReceived,
		Unit:                unit,
		QtyBase:             qtyBase,
		LotID:               lotID,
	}
	r.Items = append(r.Items, item)
	r.UpdatedAt = time.Now()
	return &r.Items[len(r.Items)-1], nil
}

// SumBaseForItem sums the base-unit quantity already recorded in this
// receiving for one purchase order line
func (r *Receiving) SumBaseForItem(orderItemID uuid.UUID) decimal.Decimal {
	total := decimal.Zero
	for _, item := range r.Items {
		if item.PurchaseOrderItemID == orderItemID {
			total = total.Add(item.QtyBase)
		}
	}
	return total
}

// TotalBaseQuantity sums the base-unit quantity across all item receipts
func (r *Receiving) TotalBaseQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, item := range r.Items {
		total = total.Add(item.QtyBase)
	}
	return total
}

// ReceivingItem records one line-level receipt, linked to exactly one
// purchase order line
type ReceivingItem struct {
	shared.BaseEntity
	ReceivingID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	PurchaseOrderItemID uuid.UUID       `gorm:"type:uuid;not null;index"`
	MaterialID          *uuid.UUID      `gorm:"type:uuid;index"`
	QtyReceived         decimal.Decimal `gorm:"type:decimal(18,6);not null"` // In the purchase unit
	Unit                string          `gorm:"type:varchar(32);not null"`
	QtyBase             decimal.Decimal `gorm:"type:decimal(18,6);not null"` // In the material's stock unit
	LotID               *uuid.UUID      `gorm:"type:uuid;index"`             // Lot the goods went into
}

// TableName returns the table name for GORM
func (ReceivingItem) TableName() string {
	return "receiving_items"
}
