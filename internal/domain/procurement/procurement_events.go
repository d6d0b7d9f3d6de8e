package procurement

import (
	"github.com/chemstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypePurchaseOrder = "PurchaseOrder"

// Event type constants
const (
	EventTypePurchaseOrderCreated       = "PurchaseOrderCreated"
	EventTypePurchaseOrderIssued        = "PurchaseOrderIssued"
	EventTypePurchaseOrderClosed        = "PurchaseOrderClosed"
	EventTypePurchaseOrderCancelled     = "PurchaseOrderCancelled"
	EventTypePurchaseOrderItemCancelled = "PurchaseOrderItemCancelled"
)

// PurchaseOrderCreatedEvent is raised when a new order is created
type PurchaseOrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	SupplierID  uuid.UUID `json:"supplier_id"`
}

// NewPurchaseOrderCreatedEvent creates a new PurchaseOrderCreatedEvent
func NewPurchaseOrderCreatedEvent(order *PurchaseOrder) *PurchaseOrderCreatedEvent {
	return &PurchaseOrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderCreated, AggregateTypePurchaseOrder, order.ID),
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		SupplierID:      order.SupplierID,
	}
}

// EventType returns the event type name
func (e *PurchaseOrderCreatedEvent) EventType() string {
	return EventTypePurchaseOrderCreated
}

// PurchaseOrderIssuedEvent is raised when an order is finalized. It
// carries what a supplier notification needs.
type PurchaseOrderIssuedEvent struct {
	shared.BaseDomainEvent
	OrderID      uuid.UUID       `json:"order_id"`
	OrderNumber  string          `json:"order_number"`
	SupplierID   uuid.UUID       `json:"supplier_id"`
	SupplierName string          `json:"supplier_name"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	ItemCount    int             `json:"item_count"`
}

// NewPurchaseOrderIssuedEvent creates a new PurchaseOrderIssuedEvent
func NewPurchaseOrderIssuedEvent(order *PurchaseOrder) *PurchaseOrderIssuedEvent {
	return &PurchaseOrderIssuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderIssued, AggregateTypePurchaseOrder, order.ID),
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		SupplierID:      order.SupplierID,
		SupplierName:    order.SupplierName,
		TotalAmount:     order.TotalAmount,
		ItemCount:       order.ItemCount(),
	}
}

// EventType returns the event type name
func (e *PurchaseOrderIssuedEvent) EventType() string {
	return EventTypePurchaseOrderIssued
}

// PurchaseOrderClosedEvent is raised when every line's remaining
// quantity is exhausted
type PurchaseOrderClosedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
}

// NewPurchaseOrderClosedEvent creates a new PurchaseOrderClosedEvent
func NewPurchaseOrderClosedEvent(order *PurchaseOrder) *PurchaseOrderClosedEvent {
	return &PurchaseOrderClosedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderClosed, AggregateTypePurchaseOrder, order.ID),
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
	}
}

// EventType returns the event type name
func (e *PurchaseOrderClosedEvent) EventType() string {
	return EventTypePurchaseOrderClosed
}

// PurchaseOrderCancelledEvent is raised when an order is cancelled
type PurchaseOrderCancelledEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	Reason      string    `json:"reason"`
}

// NewPurchaseOrderCancelledEvent creates a new PurchaseOrderCancelledEvent
func NewPurchaseOrderCancelledEvent(order *PurchaseOrder, reason string) *PurchaseOrderCancelledEvent {
	return &PurchaseOrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderCancelled, AggregateTypePurchaseOrder, order.ID),
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		Reason:          reason,
	}
}

// EventType returns the event type name
func (e *PurchaseOrderCancelledEvent) EventType() string {
	return EventTypePurchaseOrderCancelled
}

// PurchaseOrderItemCancelledEvent is raised when remaining quantity on a
// line is cancelled
type PurchaseOrderItemCancelledEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID       `json:"order_id"`
	ItemID      uuid.UUID       `json:"item_id"`
	QtyCanceled decimal.Decimal `json:"qty_canceled"`
	Reason      string          `json:"reason"`
}

// NewPurchaseOrderItemCancelledEvent creates a new PurchaseOrderItemCancelledEvent
func NewPurchaseOrderItemCancelledEvent(order *PurchaseOrder, item *PurchaseOrderItem, qty decimal.Decimal, reason string) *PurchaseOrderItemCancelledEvent {
	return &PurchaseOrderItemCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderItemCancelled, AggregateTypePurchaseOrder, order.ID),
		OrderID:         order.ID,
		ItemID:          item.ID,
		QtyCanceled:     qty,
		Reason:          reason,
	}
}

// EventType returns the event type name
func (e *PurchaseOrderItemCancelledEvent) EventType() string {
	return EventTypePurchaseOrderItemCancelled
}
