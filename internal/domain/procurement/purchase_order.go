package procurement

import (
	"fmt"
	"time"

	"github.com/chemstock/backend/internal/domain/shared"
	"github.com/chemstock/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrderStatus represents the status of a purchase order
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft     PurchaseOrderStatus = "DRAFT"
	PurchaseOrderStatusIssued    PurchaseOrderStatus = "ISSUED"
	PurchaseOrderStatusReceiving PurchaseOrderStatus = "RECEIVING"
	PurchaseOrderStatusClosed    PurchaseOrderStatus = "CLOSED"
	PurchaseOrderStatusCancelled PurchaseOrderStatus = "CANCELLED"
)

// IsValid checks if the status is a valid PurchaseOrderStatus
func (s PurchaseOrderStatus) IsValid() bool {
	switch s {
	case PurchaseOrderStatusDraft, PurchaseOrderStatusIssued, PurchaseOrderStatusReceiving,
		PurchaseOrderStatusClosed, PurchaseOrderStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of PurchaseOrderStatus
func (s PurchaseOrderStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status.
// CANCELLED is reachable from DRAFT directly, and from ISSUED/RECEIVING only
// through completion review when no goods were ever received.
func (s PurchaseOrderStatus) CanTransitionTo(target PurchaseOrderStatus) bool {
	switch s {
	case PurchaseOrderStatusDraft:
		return target == PurchaseOrderStatusIssued || target == PurchaseOrderStatusCancelled
	case PurchaseOrderStatusIssued:
		return target == PurchaseOrderStatusReceiving || target == PurchaseOrderStatusClosed || target == PurchaseOrderStatusCancelled
	case PurchaseOrderStatusReceiving:
		return target == PurchaseOrderStatusClosed || target == PurchaseOrderStatusCancelled
	case PurchaseOrderStatusClosed, PurchaseOrderStatusCancelled:
		return false // Terminal states
	}
	return false
}

// CanReceive returns true if receiving goods is allowed in this status
func (s PurchaseOrderStatus) CanReceive() bool {
	return s == PurchaseOrderStatusIssued || s == PurchaseOrderStatusReceiving
}

// IsTerminal returns true if no further transitions are possible
func (s PurchaseOrderStatus) IsTerminal() bool {
	return s == PurchaseOrderStatusClosed || s == PurchaseOrderStatusCancelled
}

// ShippingFeeUnit marks an order line as a shipping-fee charge. Such lines
// are excluded from physical receiving and from cancellation.
const ShippingFeeUnit = "SHIPPING_FEE"

// cancelTolerance absorbs decimal representation noise when comparing
// canceled against ordered quantities
var cancelTolerance = decimal.NewFromFloat(1e-9)

// PurchaseOrderItem represents a line item in a purchase order
type PurchaseOrderItem struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	MaterialID   *uuid.UUID      `gorm:"type:uuid;index"` // Nullable for ad-hoc lines with no catalog material
	Description  string          `gorm:"type:varchar(255);not null"`
	QtyOrdered   decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	QtyCanceled  decimal.Decimal `gorm:"type:decimal(18,6);not null;default:0"`
	PurchaseUnit string          `gorm:"type:varchar(32);not null"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Amount       decimal.Decimal `gorm:"type:decimal(18,2);not null"` // QtyOrdered * UnitPrice
	ScanToken    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"` // QR-code-driven receiving
	CanceledAt   *time.Time
	CancelReason string    `gorm:"type:varchar(500)"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PurchaseOrderItem) TableName() string {
	return "purchase_order_items"
}

// NewPurchaseOrderItem creates a new purchase order line
func NewPurchaseOrderItem(orderID uuid.UUID, materialID *uuid.UUID, description, purchaseUnit string, qty decimal.Decimal, unitPrice valueobject.Money) (*PurchaseOrderItem, error) {
	if description == "" {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Line description cannot be empty")
	}
	if purchaseUnit == "" {
		return nil, shared.NewDomainError("INVALID_UNIT", "Purchase unit cannot be empty")
	}
	if qty.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.Amount().IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	now := time.Now()
	return &PurchaseOrderItem{
		ID:           uuid.New(),
		OrderID:      orderID,
		MaterialID:   materialID,
		Description:  description,
		QtyOrdered:   qty,
		QtyCanceled:  decimal.Zero,
		PurchaseUnit: purchaseUnit,
		UnitPrice:    unitPrice.Amount(),
		Amount:       qty.Mul(unitPrice.Amount()).Round(2),
		ScanToken:    uuid.New(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// IsShippingFee returns true if this line is a shipping-fee charge
func (i *PurchaseOrderItem) IsShippingFee() bool {
	return i.PurchaseUnit == ShippingFeeUnit
}

// EffectiveOrdered returns ordered minus canceled quantity, never negative
func (i *PurchaseOrderItem) EffectiveOrdered() decimal.Decimal {
	effective := i.QtyOrdered.Sub(i.QtyCanceled)
	if effective.IsNegative() {
		return decimal.Zero
	}
	return effective
}

// IsFullyCanceled returns true if the canceled quantity has reached the
// ordered quantity, within tolerance
func (i *PurchaseOrderItem) IsFullyCanceled() bool {
	return i.QtyCanceled.GreaterThanOrEqual(i.QtyOrdered.Sub(cancelTolerance))
}

// UpdateQuantity updates the ordered quantity and recalculates the amount
func (i *PurchaseOrderItem) UpdateQuantity(qty decimal.Decimal) error {
	if qty.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	i.QtyOrdered = qty
	i.Amount = qty.Mul(i.UnitPrice).Round(2)
	i.UpdatedAt = time.Now()
	return nil
}

// applyCancellation increases the canceled quantity, enforcing
// 0 <= qty_canceled <= qty_ordered
func (i *PurchaseOrderItem) applyCancellation(qty decimal.Decimal, reason string) error {
	if qty.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Cancel quantity must be positive")
	}
	newCanceled := i.QtyCanceled.Add(qty)
	if newCanceled.GreaterThan(i.QtyOrdered.Add(cancelTolerance)) {
		return shared.NewDomainError("INVALID_QUANTITY",
			fmt.Sprintf("Cannot cancel %s, only %s effective quantity remains", qty.String(), i.EffectiveOrdered().String()))
	}
	if newCanceled.GreaterThan(i.QtyOrdered) {
		newCanceled = i.QtyOrdered
	}

	now := time.Now()
	i.QtyCanceled = newCanceled
	i.CanceledAt = &now
	i.CancelReason = reason
	i.UpdatedAt = now
	return nil
}

// GetUnitPriceMoney returns the unit price as a Money value object
func (i *PurchaseOrderItem) GetUnitPriceMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(i.UnitPrice)
}

// PurchaseOrder represents a purchase order aggregate root.
// It manages the lifecycle of a supplier order from draft to closure.
// Monetary totals are computed when the items change in DRAFT and are
// never recomputed on cancellation.
type PurchaseOrder struct {
	shared.BaseAggregateRoot
	OrderNumber  string              `gorm:"type:varchar(50);not null;uniqueIndex"`
	SupplierID   uuid.UUID           `gorm:"type:uuid;not null;index"`
	SupplierName string              `gorm:"type:varchar(255);not null"`
	Items        []PurchaseOrderItem `gorm:"foreignKey:OrderID;references:ID"`
	Subtotal     decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"` // Material lines
	TaxAmount    decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	ShippingFee  decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"` // Shipping-fee lines
	TotalAmount  decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"` // Subtotal + Tax + Shipping
	Status       PurchaseOrderStatus `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	Remark       string              `gorm:"type:text"`
	IssuedAt     *time.Time          `gorm:"index"`
	ClosedAt     *time.Time
	CancelledAt  *time.Time
	CancelReason string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

// NewPurchaseOrder creates a new purchase order in DRAFT status
func NewPurchaseOrder(orderNumber string, supplierID uuid.UUID, supplierName string) (*PurchaseOrder, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if len(orderNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot exceed 50 characters")
	}
	if supplierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier ID cannot be empty")
	}
	if supplierName == "" {
		return nil, shared.NewDomainError("INVALID_SUPPLIER_NAME", "Supplier name cannot be empty")
	}

	order := &PurchaseOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		SupplierID:        supplierID,
		SupplierName:      supplierName,
		Items:             make([]PurchaseOrderItem, 0),
		Subtotal:          decimal.Zero,
		TaxAmount:         decimal.Zero,
		ShippingFee:       decimal.Zero,
		TotalAmount:       decimal.Zero,
		Status:            PurchaseOrderStatusDraft,
	}

	order.AddDomainEvent(NewPurchaseOrderCreatedEvent(order))

	return order, nil
}

// AddItem adds a material line to the order. Only allowed in DRAFT status.
func (o *PurchaseOrder) AddItem(materialID *uuid.UUID, description, purchaseUnit string, qty decimal.Decimal, unitPrice valueobject.Money) (*PurchaseOrderItem, error) {
	if o.Status != PurchaseOrderStatusDraft {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add items to a non-draft order")
	}

	item, err := NewPurchaseOrderItem(o.ID, materialID, description, purchaseUnit, qty, unitPrice)
	if err != nil {
		return nil, err
	}

	o.Items = append(o.Items, *item)
	o.recalculateTotals()
	o.UpdatedAt = time.Now()
	o.IncrementVersion()

	return item, nil
}

// AddShippingFee adds a shipping-fee line to the order
func (o *PurchaseOrder) AddShippingFee(amount valueobject.Money) (*PurchaseOrderItem, error) {
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_PRICE", "Shipping fee must be positive")
	}
	return o.AddItem(nil, "Shipping fee", ShippingFeeUnit, decimal.NewFromInt(1), amount)
}

// UpdateItemQuantity updates the ordered quantity of an existing line.
// Only allowed in DRAFT status.
func (o *PurchaseOrder) UpdateItemQuantity(itemID uuid.UUID, qty decimal.Decimal) error {
	if o.Status != PurchaseOrderStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Cannot update items in a non-draft order")
	}

	for idx := range o.Items {
		if o.Items[idx].ID == itemID {
			if err := o.Items[idx].UpdateQuantity(qty); err != nil {
				return err
			}
			o.recalculateTotals()
			o.UpdatedAt = time.Now()
			o.IncrementVersion()
			return nil
		}
	}

	return shared.NewDomainError("ITEM_NOT_FOUND", "Order item not found")
}

// RemoveItem removes a line from the order. Only allowed in DRAFT status.
func (o *PurchaseOrder) RemoveItem(itemID uuid.UUID) error {
	if o.Status != PurchaseOrderStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Cannot remove items from a non-draft order")
	}

	for idx, item := range o.Items {
		if item.ID == itemID {
			o.Items = append(o.Items[:idx], o.Items[idx+1:]...)
			o.recalculateTotals()
			o.UpdatedAt = time.Now()
			o.IncrementVersion()
			return nil
		}
	}

	return shared.NewDomainError("ITEM_NOT_FOUND", "Order item not found")
}

// SetTax sets the order-level tax amount. Only allowed in DRAFT status.
func (o *PurchaseOrder) SetTax(tax valueobject.Money) error {
	if o.Status != PurchaseOrderStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Cannot change tax on a non-draft order")
	}
	if tax.Amount().IsNegative() {
		return shared.NewDomainError("INVALID_TAX", "Tax cannot be negative")
	}
	o.TaxAmount = tax.Amount().Round(2)
	o.recalculateTotals()
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
	return nil
}

// SetRemark sets the order remark
func (o *PurchaseOrder) SetRemark(remark string) {
	o.Remark = remark
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
}

// Issue finalizes the order, transitioning DRAFT to ISSUED. This is the
// entry point external approval workflows call once an order is approved;
// the raised event carries what a supplier notification needs.
func (o *PurchaseOrder) Issue() error {
	if !o.Status.CanTransitionTo(PurchaseOrderStatusIssued) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot issue order in %s status", o.Status))
	}
	if len(o.Items) == 0 {
		return shared.NewDomainError("NO_ITEMS", "Cannot issue order without items")
	}
	if !o.hasReceivableItems() {
		return shared.NewDomainError("NO_ITEMS", "Cannot issue order with only shipping-fee lines")
	}

	now := time.Now()
	o.Status = PurchaseOrderStatusIssued
	o.IssuedAt = &now
	o.UpdatedAt = now
	o.IncrementVersion()

	o.AddDomainEvent(NewPurchaseOrderIssuedEvent(o))

	return nil
}

// MarkReceiving transitions the order to RECEIVING once goods start
// arriving. No-op when already in RECEIVING.
func (o *PurchaseOrder) MarkReceiving() error {
	if o.Status == PurchaseOrderStatusReceiving {
		return nil
	}
	if !o.Status.CanTransitionTo(PurchaseOrderStatusReceiving) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot start receiving for order in %s status", o.Status))
	}
	o.Status = PurchaseOrderStatusReceiving
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
	return nil
}

// Close transitions the order to CLOSED once every line's remaining
// quantity is exhausted
func (o *PurchaseOrder) Close() error {
	if !o.Status.CanTransitionTo(PurchaseOrderStatusClosed) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot close order in %s status", o.Status))
	}

	now := time.Now()
	o.Status = PurchaseOrderStatusClosed
	o.ClosedAt = &now
	o.UpdatedAt = now
	o.IncrementVersion()

	o.AddDomainEvent(NewPurchaseOrderClosedEvent(o))

	return nil
}

// CancelOrder cancels the whole order. Permitted only while in DRAFT;
// issued orders are wound down through line cancellation instead.
func (o *PurchaseOrder) CancelOrder(reason string) error {
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}
	if o.Status != PurchaseOrderStatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel order in %s status, cancel remaining lines instead", o.Status))
	}

	o.cancel(reason)
	return nil
}

// CancelItemRemaining cancels the given remaining quantity on a line.
// Allowed only while the order is ISSUED or RECEIVING; shipping-fee lines
// and fully canceled lines are rejected. The caller computes the remaining
// quantity from ordered minus received minus already-canceled.
func (o *PurchaseOrder) CancelItemRemaining(itemID uuid.UUID, remaining decimal.Decimal, reason string) error {
	if !o.Status.CanReceive() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel lines of order in %s status", o.Status))
	}

	for idx := range o.Items {
		if o.Items[idx].ID != itemID {
			continue
		}
		item := &o.Items[idx]
		if item.IsShippingFee() {
			return shared.NewDomainError("NOT_RECEIVABLE", "Shipping-fee lines cannot be canceled")
		}
		if item.IsFullyCanceled() {
			return shared.NewDomainError("INVALID_STATE", "Line is already fully canceled")
		}
		if err := item.applyCancellation(remaining, reason); err != nil {
			return err
		}
		o.UpdatedAt = time.Now()
		o.IncrementVersion()
		o.AddDomainEvent(NewPurchaseOrderItemCancelledEvent(o, item, remaining, reason))
		return nil
	}

	return shared.NewDomainError("ITEM_NOT_FOUND", "Order item not found")
}

// ReviewCompletion finalizes the order once every receivable line has a
// zero remaining quantity. The order closes when any goods were ever
// received and cancels when none were. The caller reports both facts
// since receipts are tracked on receiving records, not on the order.
func (o *PurchaseOrder) ReviewCompletion(allLinesExhausted, anyReceipts bool) error {
	if !allLinesExhausted || o.Status.IsTerminal() {
		return nil
	}
	if !o.Status.CanReceive() {
		return nil
	}
	if anyReceipts {
		return o.Close()
	}
	o.cancel("All lines canceled before any receipt")
	return nil
}

func (o *PurchaseOrder) cancel(reason string) {
	now := time.Now()
	o.Status = PurchaseOrderStatusCancelled
	o.CancelledAt = &now
	o.CancelReason = reason
	o.UpdatedAt = now
	o.IncrementVersion()

	o.AddDomainEvent(NewPurchaseOrderCancelledEvent(o, reason))
}

// recalculateTotals recomputes subtotal, shipping, and total from the
// current lines. Called on DRAFT mutations only; totals are fixed at
// issue time and never recomputed on cancellation.
func (o *PurchaseOrder) recalculateTotals() {
	subtotal := decimal.Zero
	shipping := decimal.Zero
	for _, item := range o.Items {
		if item.IsShippingFee() {
			shipping = shipping.Add(item.Amount)
		} else {
			subtotal = subtotal.Add(item.Amount)
		}
	}
	o.Subtotal = subtotal.Round(2)
	o.ShippingFee = shipping.Round(2)
	o.TotalAmount = o.Subtotal.Add(o.TaxAmount).Add(o.ShippingFee).Round(2)
}

func (o *PurchaseOrder) hasReceivableItems() bool {
	for _, item := range o.Items {
		if !item.IsShippingFee() {
			return true
		}
	}
	return false
}

// GetItem returns a line by its ID
func (o *PurchaseOrder) GetItem(itemID uuid.UUID) *PurchaseOrderItem {
	for idx := range o.Items {
		if o.Items[idx].ID == itemID {
			return &o.Items[idx]
		}
	}
	return nil
}

// GetItemByScanToken returns a line by its unique scan token
func (o *PurchaseOrder) GetItemByScanToken(token uuid.UUID) *PurchaseOrderItem {
	for idx := range o.Items {
		if o.Items[idx].ScanToken == token {
			return &o.Items[idx]
		}
	}
	return nil
}

// ReceivableItems returns the lines subject to physical receiving
func (o *PurchaseOrder) ReceivableItems() []PurchaseOrderItem {
	items := make([]PurchaseOrderItem, 0, len(o.Items))
	for _, item := range o.Items {
		if !item.IsShippingFee() {
			items = append(items, item)
		}
	}
	return items
}

// ItemCount returns the number of lines in the order
func (o *PurchaseOrder) ItemCount() int {
	return len(o.Items)
}

// IsDraft returns true if the order is in draft status
func (o *PurchaseOrder) IsDraft() bool {
	return o.Status == PurchaseOrderStatusDraft
}

// CanModify returns true if the order lines can still be edited
func (o *PurchaseOrder) CanModify() bool {
	return o.IsDraft()
}

// CanReceiveGoods returns true if the order can receive goods
func (o *PurchaseOrder) CanReceiveGoods() bool {
	return o.Status.CanReceive()
}

// GetTotalAmountMoney returns the order total as Money
func (o *PurchaseOrder) GetTotalAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(o.TotalAmount)
}
