package procurement

import (
	"time"

	"github.com/chemstock/backend/internal/domain/procurement"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItemInput is one line of a create-order request. Lines without a
// material reference are ad-hoc purchases accounted in the entered unit.
type OrderItemInput struct {
	MaterialID  *uuid.UUID      `json:"material_id"`
	Description string          `json:"description" binding:"required"`
	Qty         decimal.Decimal `json:"qty" binding:"required"`
	Unit        string          `json:"unit" binding:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"required"`
}

// CreateOrderRequest represents a request to create a purchase order
type CreateOrderRequest struct {
	SupplierID  uuid.UUID        `json:"supplier_id" binding:"required"`
	Items       []OrderItemInput `json:"items" binding:"required,min=1,dive"`
	ShippingFee *decimal.Decimal `json:"shipping_fee"`
	TaxAmount   *decimal.Decimal `json:"tax_amount"`
	Remark      string           `json:"remark"`
}

// CancelOrderRequest represents a request to cancel a draft order
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// CancelItemRequest represents a request to cancel a line's remaining quantity
type CancelItemRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// CancelItemResult reports the outcome of a line cancellation. NoOp is
// set when nothing remained to cancel net of receipts.
type CancelItemResult struct {
	NoOp        bool            `json:"no_op"`
	Message     string          `json:"message,omitempty"`
	QtyCanceled decimal.Decimal `json:"qty_canceled"`
	OrderStatus string          `json:"order_status"`
}

// OrderListFilter represents filter options for listing orders
type OrderListFilter struct {
	SupplierID *uuid.UUID `form:"supplier_id"`
	Status     string     `form:"status"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// OrderItemResponse represents a purchase order line in API responses
type OrderItemResponse struct {
	ID               uuid.UUID       `json:"id"`
	MaterialID       *uuid.UUID      `json:"material_id,omitempty"`
	Description      string          `json:"description"`
	QtyOrdered       decimal.Decimal `json:"qty_ordered"`
	QtyCanceled      decimal.Decimal `json:"qty_canceled"`
	EffectiveOrdered decimal.Decimal `json:"effective_ordered"`
	PurchaseUnit     string          `json:"purchase_unit"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	Amount           decimal.Decimal `json:"amount"`
	ScanToken        uuid.UUID       `json:"scan_token"`
	IsShippingFee    bool            `json:"is_shipping_fee"`
	CanceledAt       *time.Time      `json:"canceled_at,omitempty"`
	CancelReason     string          `json:"cancel_reason,omitempty"`
}

// OrderResponse represents a purchase order in API responses
type OrderResponse struct {
	ID           uuid.UUID           `json:"id"`
	OrderNumber  string              `json:"order_number"`
	SupplierID   uuid.UUID           `json:"supplier_id"`
	SupplierName string              `json:"supplier_name"`
	Status       string              `json:"status"`
	Items        []OrderItemResponse `json:"items"`
	Subtotal     decimal.Decimal     `json:"subtotal"`
	TaxAmount    decimal.Decimal     `json:"tax_amount"`
	ShippingFee  decimal.Decimal     `json:"shipping_fee"`
	TotalAmount  decimal.Decimal     `json:"total_amount"`
	Remark       string              `json:"remark,omitempty"`
	IssuedAt     *time.Time          `json:"issued_at,omitempty"`
	ClosedAt     *time.Time          `json:"closed_at,omitempty"`
	CancelledAt  *time.Time          `json:"cancelled_at,omitempty"`
	CancelReason string              `json:"cancel_reason,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// ToOrderItemResponse maps a purchase order line
func ToOrderItemResponse(item *procurement.PurchaseOrderItem) OrderItemResponse {
	return OrderItemResponse{
		ID:               item.ID,
		MaterialID:       item.MaterialID,
		Description:      item.Description,
		QtyOrdered:       item.QtyOrdered,
		QtyCanceled:      item.QtyCanceled,
		EffectiveOrdered: item.EffectiveOrdered(),
		PurchaseUnit:     item.PurchaseUnit,
		UnitPrice:        item.UnitPrice,
		Amount:           item.Amount,
		ScanToken:        item.ScanToken,
		IsShippingFee:    item.IsShippingFee(),
		CanceledAt:       item.CanceledAt,
		CancelReason:     item.CancelReason,
	}
}

// ToOrderResponse maps a purchase order to its response representation
func ToOrderResponse(order *procurement.PurchaseOrder) OrderResponse {
	items := make([]OrderItemResponse, len(order.Items))
	for i := range order.Items {
		items[i] = ToOrderItemResponse(&order.Items[i])
	}
	return OrderResponse{
		ID:           order.ID,
		OrderNumber:  order.OrderNumber,
		SupplierID:   order.SupplierID,
		SupplierName: order.SupplierName,
		Status:       order.Status.String(),
		Items:        items,
		Subtotal:     order.Subtotal,
		TaxAmount:    order.TaxAmount,
		ShippingFee:  order.ShippingFee,
		TotalAmount:  order.TotalAmount,
		Remark:       order.Remark,
		IssuedAt:     order.IssuedAt,
		ClosedAt:     order.ClosedAt,
		CancelledAt:  order.CancelledAt,
		CancelReason: order.CancelReason,
		CreatedAt:    order.CreatedAt,
		UpdatedAt:    order.UpdatedAt,
	}
}

// ToOrderResponses maps a slice of orders
func ToOrderResponses(orders []procurement.PurchaseOrder) []OrderResponse {
	responses := make([]OrderResponse, len(orders))
	for i := range orders {
		responses[i] = ToOrderResponse(&orders[i])
	}
	return responses
}

// ScanInfoResponse is the snapshot returned for a scan token before the
// operator confirms a receipt
type ScanInfoResponse struct {
	OrderID          uuid.UUID       `json:"order_id"`
	OrderNumber      string          `json:"order_number"`
	OrderStatus      string          `json:"order_status"`
	SupplierName     string          `json:"supplier_name"`
	ItemID           uuid.UUID       `json:"item_id"`
	Description      string          `json:"description"`
	MaterialID       *uuid.UUID      `json:"material_id,omitempty"`
	MaterialSKU      string          `json:"material_sku,omitempty"`
	StockUnit        string          `json:"stock_unit,omitempty"`
	PurchaseUnit     string          `json:"purchase_unit"`
	EffectiveOrdered decimal.Decimal `json:"effective_ordered"`
	OrderedBase      decimal.Decimal `json:"ordered_base"`
	ReceivedBase     decimal.Decimal `json:"received_base"`
	RemainingBase    decimal.Decimal `json:"remaining_base"`
}

// ReceiveByScanRequest represents a scan-driven receipt of one line
type ReceiveByScanRequest struct {
	Qty               decimal.Decimal `json:"qty" binding:"required"`
	Unit              string          `json:"unit"`
	LotNo             string          `json:"lot_no"`
	StorageLocationID *uuid.UUID      `json:"storage_location_id"`
	MfgDate           *time.Time      `json:"mfg_date"`
	ExpiryDate        *time.Time      `json:"expiry_date"`
	ReferenceNumber   string          `json:"reference_number"`
	ActorID           *uuid.UUID      `json:"actor_id"`
}

// ReceiveItemInput is one line of a batch receipt
type ReceiveItemInput struct {
	PurchaseOrderItemID uuid.UUID       `json:"purchase_order_item_id" binding:"required"`
	Qty                 decimal.Decimal `json:"qty" binding:"required"`
	Unit                string          `json:"unit"`
	LotNo               string          `json:"lot_no"`
	StorageLocationID   *uuid.UUID      `json:"storage_location_id"`
	MfgDate             *time.Time      `json:"mfg_date"`
	ExpiryDate          *time.Time      `json:"expiry_date"`
}

// ReceiveByItemsRequest represents a batch receipt against an order
type ReceiveByItemsRequest struct {
	Items           []ReceiveItemInput `json:"items" binding:"required,min=1,dive"`
	ReferenceNumber string             `json:"reference_number"`
	ActorID         *uuid.UUID         `json:"actor_id"`
}

// ReceivingItemResponse represents one received line
type ReceivingItemResponse struct {
	ID                  uuid.UUID       `json:"id"`
	PurchaseOrderItemID uuid.UUID       `json:"purchase_order_item_id"`
	MaterialID          *uuid.UUID      `json:"material_id,omitempty"`
	QtyReceived         decimal.Decimal `json:"qty_received"`
	Unit                string          `json:"unit"`
	QtyBase             decimal.Decimal `json:"qty_base"`
	LotID               *uuid.UUID      `json:"lot_id,omitempty"`
}

// ReceivingResponse represents a receiving in API responses
type ReceivingResponse struct {
	ID              uuid.UUID               `json:"id"`
	PurchaseOrderID uuid.UUID               `json:"purchase_order_id"`
	ReferenceNumber string                  `json:"reference_number,omitempty"`
	ReceivedAt      time.Time               `json:"received_at"`
	Items           []ReceivingItemResponse `json:"items"`
	OrderStatus     string                  `json:"order_status"`
}

// ToReceivingResponse maps a receiving and the resulting order status
func ToReceivingResponse(receiving *procurement.Receiving, orderStatus procurement.PurchaseOrderStatus) ReceivingResponse {
	items := make([]ReceivingItemResponse, len(receiving.Items))
	for i, item := range receiving.Items {
		items[i] = ReceivingItemResponse{
			ID:                  item.ID,
			PurchaseOrderItemID: item.PurchaseOrderItemID,
			MaterialID:          item.MaterialID,
			QtyReceived:         item.QtyReceived,
			Unit:                item.Unit,
			QtyBase:             item.QtyBase,
			LotID:               item.LotID,
		}
	}
	return ReceivingResponse{
		ID:              receiving.ID,
		PurchaseOrderID: receiving.PurchaseOrderID,
		ReferenceNumber: receiving.ReferenceNumber,
		ReceivedAt:      receiving.ReceivedAt,
		Items:           items,
		OrderStatus:     orderStatus.String(),
	}
}

// CreateSupplierRequest represents a request to register a supplier
type CreateSupplierRequest struct {
	Code         string `json:"code" binding:"required"`
	Name         string `json:"name" binding:"required"`
	ContactEmail string `json:"contact_email" binding:"omitempty,email"`
	Phone        string `json:"phone"`
}

// UpdateSupplierContactRequest represents a request to update supplier details
type UpdateSupplierContactRequest struct {
	Name         string `json:"name"`
	ContactEmail string `json:"contact_email" binding:"omitempty,email"`
	Phone        string `json:"phone"`
}

// SupplierResponse represents a supplier in API responses
type SupplierResponse struct {
	ID           uuid.UUID `json:"id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	ContactEmail string    `json:"contact_email,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ToSupplierResponse maps a supplier to its response representation
func ToSupplierResponse(s *procurement.Supplier) SupplierResponse {
	return SupplierResponse{
		ID:           s.ID,
		Code:         s.Code,
		Name:         s.Name,
		ContactEmail: s.ContactEmail,
		Phone:        s.Phone,
		Active:       s.Active,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

// ToSupplierResponses maps a slice of suppliers
func ToSupplierResponses(suppliers []procurement.Supplier) []SupplierResponse {
	responses := make([]SupplierResponse, len(suppliers))
	for i := range suppliers {
		responses[i] = ToSupplierResponse(&suppliers[i])
	}
	return responses
}
