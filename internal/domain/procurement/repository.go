package procurement

import (
	"context"

	"github.com/chemstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrderRepository defines the interface for purchase order persistence
type PurchaseOrderRepository interface {
	// FindByID finds an order by ID with its items preloaded
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)

	// FindByOrderNumber finds an order by its unique order number
	FindByOrderNumber(ctx context.Context, orderNumber string) (*PurchaseOrder, error)

	// FindByItemScanToken finds the order owning the line with the given
	// scan token, items preloaded
	FindByItemScanToken(ctx context.Context, token uuid.UUID) (*PurchaseOrder, error)

	// FindAll finds orders matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]PurchaseOrder, error)

	// FindBySupplier finds orders for a supplier
	FindBySupplier(ctx context.Context, supplierID uuid.UUID, filter shared.Filter) ([]PurchaseOrder, error)

	// FindByStatus finds orders in the given status
	FindByStatus(ctx context.Context, status PurchaseOrderStatus, filter shared.Filter) ([]PurchaseOrder, error)

	// Save creates or updates an order with its items
	Save(ctx context.Context, order *PurchaseOrder) error

	// SaveWithLock saves with optimistic locking (checks version)
	SaveWithLock(ctx context.Context, order *PurchaseOrder) error

	// Delete deletes an order
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts orders matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// CountByStatus counts orders grouped by status
	CountByStatus(ctx context.Context) (map[PurchaseOrderStatus]int64, error)
}

// SupplierRepository defines the interface for supplier persistence
type SupplierRepository interface {
	// FindByID finds a supplier by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Supplier, error)

	// FindByCode finds a supplier by its unique code
	FindByCode(ctx context.Context, code string) (*Supplier, error)

	// FindAll finds suppliers matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Supplier, error)

	// Save creates or updates a supplier
	Save(ctx context.Context, supplier *Supplier) error

	// Delete deletes a supplier
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts suppliers matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}

// ReceivingRepository defines the interface for receiving persistence
type ReceivingRepository interface {
	// FindByID finds a receiving by ID with its items preloaded
	FindByID(ctx context.Context, id uuid.UUID) (*Receiving, error)

	// FindByPurchaseOrder finds all receivings for an order
	FindByPurchaseOrder(ctx context.Context, orderID uuid.UUID) ([]Receiving, error)

	// Save creates or updates a receiving with its items
	Save(ctx context.Context, receiving *Receiving) error

	// SumBaseByOrderItem sums the prior base-unit receipts for one line
	SumBaseByOrderItem(ctx context.Context, orderItemID uuid.UUID) (decimal.Decimal, error)

	// SumBaseByOrder sums prior base-unit receipts per line across an order
	SumBaseByOrder(ctx context.Context, orderID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)

	// ExistsByPurchaseOrder reports whether the order has any receipts
	ExistsByPurchaseOrder(ctx context.Context, orderID uuid.UUID) (bool, error)
}
