package procurement

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chemstock/backend/internal/domain/material"
	"github.com/chemstock/backend/internal/domain/procurement"
	"github.com/chemstock/backend/internal/domain/shared"
	"github.com/chemstock/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrderService handles purchase order business operations
type PurchaseOrderService struct {
	orderRepo      procurement.PurchaseOrderRepository
	supplierRepo   procurement.SupplierRepository
	receivingRepo  procurement.ReceivingRepository
	materialRepo   material.Repository
	txScope        TransactionScope
	conversion     *material.ConversionService
	eventPublisher shared.EventPublisher
}

// NewPurchaseOrderService creates a new purchase order service
func NewPurchaseOrderService(
	orderRepo procurement.PurchaseOrderRepository,
	supplierRepo procurement.SupplierRepository,
	receivingRepo procurement.ReceivingRepository,
	materialRepo material.Repository,
	txScope TransactionScope,
	conversion *material.ConversionService,
) *PurchaseOrderService {
	return &PurchaseOrderService{
		orderRepo:     orderRepo,
		supplierRepo:  supplierRepo,
		receivingRepo: receivingRepo,
		materialRepo:  materialRepo,
		txScope:       txScope,
		conversion:    conversion,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *PurchaseOrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates a draft purchase order. Lines referencing a material
// must be entered in a unit convertible to that material's stock unit.
func (s *PurchaseOrderService) Create(ctx context.Context, req CreateOrderRequest) (*OrderResponse, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, req.SupplierID)
	if err != nil {
		return nil, err
	}

	order, err := procurement.NewPurchaseOrder(generateOrderNumber(), supplier.ID, supplier.Name)
	if err != nil {
		return nil, err
	}

	for _, input := range req.Items {
		if input.MaterialID != nil {
			mat, err := s.materialRepo.FindByIDWithConversions(ctx, *input.MaterialID)
			if err != nil {
				return nil, err
			}
			if _, err := s.conversion.Factor(mat, input.Unit, mat.StockUnit); err != nil {
				return nil, err
			}
		}
		price := valueobject.NewMoneyUSD(input.UnitPrice)
		if _, err := order.AddItem(input.MaterialID, input.Description, input.Unit, input.Qty, price); err != nil {
			return nil, err
		}
	}

	if req.ShippingFee != nil && !req.ShippingFee.IsZero() {
		if _, err := order.AddShippingFee(valueobject.NewMoneyUSD(*req.ShippingFee)); err != nil {
			return nil, err
		}
	}
	if req.TaxAmount != nil && !req.TaxAmount.IsZero() {
		if err := order.SetTax(valueobject.NewMoneyUSD(*req.TaxAmount)); err != nil {
			return nil, err
		}
	}
	if req.Remark != "" {
		order.SetRemark(req.Remark)
	}

	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, err
	}
	s.publishAggregateEvents(ctx, order)

	response := ToOrderResponse(order)
	return &response, nil
}

// GetByID retrieves a purchase order with its items
func (s *PurchaseOrderService) GetByID(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(order)
	return &response, nil
}

// GetByOrderNumber retrieves a purchase order by its order number
func (s *PurchaseOrderService) GetByOrderNumber(ctx context.Context, orderNumber string) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(order)
	return &response, nil
}

// List retrieves purchase orders matching the filter
func (s *PurchaseOrderService) List(ctx context.Context, filter OrderListFilter) ([]OrderResponse, int64, error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}

	var orders []procurement.PurchaseOrder
	var err error
	switch {
	case filter.SupplierID != nil:
		orders, err = s.orderRepo.FindBySupplier(ctx, *filter.SupplierID, domainFilter)
	case filter.Status != "":
		status := procurement.PurchaseOrderStatus(strings.ToUpper(filter.Status))
		if !status.IsValid() {
			return nil, 0, shared.NewDomainError("INVALID_INPUT", "Unknown purchase order status")
		}
		orders, err = s.orderRepo.FindByStatus(ctx, status, domainFilter)
	default:
		orders, err = s.orderRepo.FindAll(ctx, domainFilter)
	}
	if err != nil {
		return nil, 0, err
	}

	total, err := s.orderRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToOrderResponses(orders), total, nil
}

// Issue finalizes a draft order and releases it to the supplier
func (s *PurchaseOrderService) Issue(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.Issue(); err != nil {
		return nil, err
	}
	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}
	s.publishAggregateEvents(ctx, order)

	response := ToOrderResponse(order)
	return &response, nil
}

// Cancel cancels a whole order. Only draft orders can be cancelled this way.
func (s *PurchaseOrderService) Cancel(ctx context.Context, orderID uuid.UUID, req CancelOrderRequest) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.CancelOrder(req.Reason); err != nil {
		return nil, err
	}
	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}
	s.publishAggregateEvents(ctx, order)

	response := ToOrderResponse(order)
	return &response, nil
}

// CancelItem cancels the remaining un-received quantity of one line.
// Receipts already recorded are kept; when nothing remains net of
// receipts the call reports a no-op instead of erroring. Cancelling the
// last open quantity closes the order when any receipt exists, or
// cancels it when none does.
func (s *PurchaseOrderService) CancelItem(ctx context.Context, orderID, itemID uuid.UUID, req CancelItemRequest) (*CancelItemResult, error) {
	var result CancelItemResult
	var order *procurement.PurchaseOrder

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		order, err = repos.OrderRepo().FindByID(ctx, orderID)
		if err != nil {
			return err
		}

		item := order.GetItem(itemID)
		if item == nil {
			return shared.NewDomainError("NOT_FOUND", "Purchase order item not found")
		}
		if !order.Status.CanReceive() {
			return shared.NewDomainError("INVALID_STATE", "Lines can only be cancelled while the order is issued or receiving")
		}
		if item.IsShippingFee() {
			return shared.NewDomainError("NOT_RECEIVABLE", "Shipping-fee lines cannot be cancelled this way")
		}
		if item.IsFullyCanceled() {
			return shared.NewDomainError("INVALID_STATE", "Line is already fully cancelled")
		}

		receivedBase, err := repos.ReceivingRepo().SumBaseByOrderItem(ctx, item.ID)
		if err != nil {
			return err
		}
		receivedPurchaseUnits, err := s.toPurchaseUnits(ctx, repos.MaterialRepo(), item, receivedBase)
		if err != nil {
			return err
		}

		remaining := item.QtyOrdered.Sub(receivedPurchaseUnits).Sub(item.QtyCanceled)
		if remaining.LessThanOrEqual(decimal.Zero) {
			result = CancelItemResult{
				NoOp:        true,
				Message:     "Nothing remains to cancel, the line is fully received",
				QtyCanceled: item.QtyCanceled,
				OrderStatus: order.Status.String(),
			}
			return nil
		}

		if err := order.CancelItemRemaining(item.ID, remaining, req.Reason); err != nil {
			return err
		}

		allExhausted, err := linesExhausted(ctx, s.conversion, repos, order)
		if err != nil {
			return err
		}
		anyReceipts, err := repos.ReceivingRepo().ExistsByPurchaseOrder(ctx, order.ID)
		if err != nil {
			return err
		}
		if err := order.ReviewCompletion(allExhausted, anyReceipts); err != nil {
			return err
		}

		if err := repos.OrderRepo().SaveWithLock(ctx, order); err != nil {
			return err
		}

		result = CancelItemResult{
			QtyCanceled: order.GetItem(itemID).QtyCanceled,
			OrderStatus: order.Status.String(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishAggregateEvents(ctx, order)
	return &result, nil
}

// GetStatusSummary counts orders per status
func (s *PurchaseOrderService) GetStatusSummary(ctx context.Context) (map[string]int64, error) {
	counts, err := s.orderRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	summary := make(map[string]int64, len(counts))
	for status, count := range counts {
		summary[status.String()] = count
	}
	return summary, nil
}

// Delete deletes a draft order
func (s *PurchaseOrderService) Delete(ctx context.Context, orderID uuid.UUID) error {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if !order.IsDraft() {
		return shared.NewDomainError("INVALID_STATE", "Only draft orders can be deleted")
	}
	return s.orderRepo.Delete(ctx, orderID)
}

// toPurchaseUnits converts a base-unit receipt sum back into the line's
// purchase unit. Ad-hoc lines without a material are accounted in the
// entered unit directly.
func (s *PurchaseOrderService) toPurchaseUnits(ctx context.Context, materialRepo material.Repository, item *procurement.PurchaseOrderItem, qtyBase decimal.Decimal) (decimal.Decimal, error) {
	if item.MaterialID == nil {
		return qtyBase, nil
	}
	mat, err := materialRepo.FindByIDWithConversions(ctx, *item.MaterialID)
	if err != nil {
		return decimal.Zero, err
	}
	return s.conversion.FromBaseUnit(mat, qtyBase, item.PurchaseUnit)
}

func (s *PurchaseOrderService) publishAggregateEvents(ctx context.Context, order *procurement.PurchaseOrder) {
	if s.eventPublisher == nil || order == nil {
		return
	}
	events := order.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	order.ClearDomainEvents()
}

func generateOrderNumber() string {
	return fmt.Sprintf("PO-%s-%s", time.Now().Format("20060102"), strings.ToUpper(uuid.New().String()[:8]))
}
