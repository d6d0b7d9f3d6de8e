package procurement

import (
	"context"
	"time"

	"github.com/chemstock/backend/internal/domain/material"
	"github.com/chemstock/backend/internal/domain/procurement"
	"github.com/chemstock/backend/internal/domain/shared"
	"github.com/chemstock/backend/internal/domain/stock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReceivingService handles goods receipt against purchase orders, by
// scan token or by explicit item list. A receipt writes the receiving
// rows, the lot increment, the movement, and the order transition in one
// transaction.
type ReceivingService struct {
	orderRepo      procurement.PurchaseOrderRepository
	receivingRepo  procurement.ReceivingRepository
	materialRepo   material.Repository
	txScope        TransactionScope
	conversion     *material.ConversionService
	eventPublisher shared.EventPublisher
}

// NewReceivingService creates a new receiving service
func NewReceivingService(
	orderRepo procurement.PurchaseOrderRepository,
	receivingRepo procurement.ReceivingRepository,
	materialRepo material.Repository,
	txScope TransactionScope,
	conversion *material.ConversionService,
) *ReceivingService {
	return &ReceivingService{
		orderRepo:     orderRepo,
		receivingRepo: receivingRepo,
		materialRepo:  materialRepo,
		txScope:       txScope,
		conversion:    conversion,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *ReceivingService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// InfoByToken returns the snapshot an operator sees after scanning a
// line's token, before confirming the receipt
func (s *ReceivingService) InfoByToken(ctx context.Context, token uuid.UUID) (*ScanInfoResponse, error) {
	order, err := s.orderRepo.FindByItemScanToken(ctx, token)
	if err != nil {
		return nil, err
	}
	item := order.GetItemByScanToken(token)
	if item == nil {
		return nil, shared.ErrNotFound
	}
	if !order.Status.CanReceive() {
		return nil, shared.NewDomainError("INVALID_STATE", "Order is not open for receiving")
	}
	if item.IsShippingFee() {
		return nil, shared.NewDomainError("NOT_RECEIVABLE", "Shipping-fee lines are not received physically")
	}

	info := ScanInfoResponse{
		OrderID:          order.ID,
		OrderNumber:      order.OrderNumber,
		OrderStatus:      order.Status.String(),
		SupplierName:     order.SupplierName,
		ItemID:           item.ID,
		Description:      item.Description,
		MaterialID:       item.MaterialID,
		PurchaseUnit:     item.PurchaseUnit,
		EffectiveOrdered: item.EffectiveOrdered(),
	}

	orderedBase := item.EffectiveOrdered()
	if item.MaterialID != nil {
		mat, err := s.materialRepo.FindByIDWithConversions(ctx, *item.MaterialID)
		if err != nil {
			return nil, err
		}
		info.MaterialSKU = mat.SKU
		info.StockUnit = mat.StockUnit
		orderedBase, err = s.conversion.ToBaseUnit(mat, item.EffectiveOrdered(), item.PurchaseUnit)
		if err != nil {
			return nil, err
		}
	}
	receivedBase, err := s.receivingRepo.SumBaseByOrderItem(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	info.OrderedBase = orderedBase
	info.ReceivedBase = receivedBase
	info.RemainingBase = remainingBaseQty(orderedBase, receivedBase)
	return &info, nil
}

// ReceiveByScan receives one line identified by its scan token
func (s *ReceivingService) ReceiveByScan(ctx context.Context, token uuid.UUID, req ReceiveByScanRequest) (*ReceivingResponse, error) {
	if req.Qty.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Received quantity must be positive")
	}

	var response ReceivingResponse
	var events []shared.DomainEvent

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		order, err := repos.OrderRepo().FindByItemScanToken(ctx, token)
		if err != nil {
			return err
		}
		item := order.GetItemByScanToken(token)
		if item == nil {
			return shared.ErrNotFound
		}

		receiving, err := procurement.NewReceiving(order.ID, req.ReferenceNumber)
		if err != nil {
			return err
		}
		line := receiptLine{
			item:              item,
			qty:               req.Qty,
			unit:              req.Unit,
			lotNo:             req.LotNo,
			storageLocationID: req.StorageLocationID,
			mfgDate:           req.MfgDate,
			expiryDate:        req.ExpiryDate,
		}
		lineEvents, err := s.receiveLine(ctx, repos, order, receiving, line, req.ActorID)
		if err != nil {
			return err
		}
		events = append(events, lineEvents...)

		if err := repos.ReceivingRepo().Save(ctx, receiving); err != nil {
			return err
		}
		if err := s.transitionOrder(ctx, repos, order); err != nil {
			return err
		}
		events = append(events, order.GetDomainEvents()...)
		order.ClearDomainEvents()

		response = ToReceivingResponse(receiving, order.Status)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events)
	return &response, nil
}

// ReceiveByItems receives an explicit list of lines of one order in a
// single batch, applying the same per-line checks as scan receiving
func (s *ReceivingService) ReceiveByItems(ctx context.Context, orderID uuid.UUID, req ReceiveByItemsRequest) (*ReceivingResponse, error) {
	for _, input := range req.Items {
		if input.Qty.LessThanOrEqual(decimal.Zero) {
			return nil, shared.NewDomainError("INVALID_INPUT", "Received quantity must be positive")
		}
	}

	var response ReceivingResponse
	var events []shared.DomainEvent

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		order, err := repos.OrderRepo().FindByID(ctx, orderID)
		if err != nil {
			return err
		}

		receiving, err := procurement.NewReceiving(order.ID, req.ReferenceNumber)
		if err != nil {
			return err
		}
		for _, input := range req.Items {
			item := order.GetItem(input.PurchaseOrderItemID)
			if item == nil {
				return shared.NewDomainError("NOT_FOUND", "Purchase order item not found")
			}
			line := receiptLine{
				item:              item,
				qty:               input.Qty,
				unit:              input.Unit,
				lotNo:             input.LotNo,
				storageLocationID: input.StorageLocationID,
				mfgDate:           input.MfgDate,
				expiryDate:        input.ExpiryDate,
			}
			lineEvents, err := s.receiveLine(ctx, repos, order, receiving, line, req.ActorID)
			if err != nil {
				return err
			}
			events = append(events, lineEvents...)
		}

		if err := repos.ReceivingRepo().Save(ctx, receiving); err != nil {
			return err
		}
		if err := s.transitionOrder(ctx, repos, order); err != nil {
			return err
		}
		events = append(events, order.GetDomainEvents()...)
		order.ClearDomainEvents()

		response = ToReceivingResponse(receiving, order.Status)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events)
	return &response, nil
}

type receiptLine struct {
	item              *procurement.PurchaseOrderItem
	qty               decimal.Decimal
	unit              string
	lotNo             string
	storageLocationID *uuid.UUID
	mfgDate           *time.Time
	expiryDate        *time.Time
}

// receiveLine applies the per-line receiving checks, records the receipt
// row, and for material lines increments the target lot and appends the
// movement
func (s *ReceivingService) receiveLine(ctx context.Context, repos TransactionalRepositories, order *procurement.PurchaseOrder, receiving *procurement.Receiving, line receiptLine, actorID *uuid.UUID) ([]shared.DomainEvent, error) {
	item := line.item
	if !order.Status.CanReceive() {
		return nil, shared.NewDomainError("INVALID_STATE", "Order is not open for receiving")
	}
	if item.IsShippingFee() {
		return nil, shared.NewDomainError("NOT_RECEIVABLE", "Shipping-fee lines are not received physically")
	}

	var mat *material.Material
	orderedBase := item.EffectiveOrdered()
	if item.MaterialID != nil {
		var err error
		mat, err = repos.MaterialRepo().FindByIDWithConversions(ctx, *item.MaterialID)
		if err != nil {
			return nil, err
		}
		orderedBase, err = s.conversion.ToBaseUnit(mat, item.EffectiveOrdered(), item.PurchaseUnit)
		if err != nil {
			return nil, err
		}
	}
	receivedBase, err := repos.ReceivingRepo().SumBaseByOrderItem(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	// Count rows already recorded in this batch; they are not persisted yet
	receivedBase = receivedBase.Add(receiving.SumBaseForItem(item.ID))
	if remainingBaseQty(orderedBase, receivedBase).LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("NOTHING_TO_RECEIVE", "Line has no remaining quantity to receive")
	}

	unit := line.unit
	if unit == "" {
		unit = item.PurchaseUnit
	}

	// Ad-hoc line: record the receipt in the entered unit, no lot or movement
	if mat == nil {
		if _, err := receiving.AddItem(item.ID, nil, line.qty, unit, line.qty, nil); err != nil {
			return nil, err
		}
		return nil, nil
	}

	qtyBase, err := s.conversion.ToBaseUnit(mat, line.qty, unit)
	if err != nil {
		return nil, err
	}
	if mat.IsLotManaged && line.lotNo == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Lot number is required for lot-managed materials")
	}

	lot, err := repos.LotRepo().FindByIdentityForUpdate(ctx, mat.ID, line.lotNo, line.storageLocationID)
	if err != nil {
		if !shared.IsNotFound(err) {
			return nil, err
		}
		lot, err = stock.NewMaterialLot(mat.ID, line.lotNo, line.storageLocationID)
		if err != nil {
			return nil, err
		}
		lot.SetDates(line.mfgDate, line.expiryDate)
	}

	balanceBefore := lot.QtyOnHand
	if err := lot.Increase(qtyBase); err != nil {
		return nil, err
	}
	if err := repos.LotRepo().Save(ctx, lot); err != nil {
		return nil, err
	}

	movement, err := stock.NewStockMovement(mat.ID, stock.MovementTypeIn, qtyBase, unit, balanceBefore, lot.QtyOnHand)
	if err != nil {
		return nil, err
	}
	movement.WithLotID(lot.ID).
		WithSource("PURCHASE_ORDER", order.ID.String()).
		WithReason("Receipt against "+order.OrderNumber).
		WithActor(receiptActor(actorID))
	if err := repos.MovementRepo().Create(ctx, movement); err != nil {
		return nil, err
	}

	if _, err := receiving.AddItem(item.ID, item.MaterialID, line.qty, unit, qtyBase, &lot.ID); err != nil {
		return nil, err
	}

	sum, err := repos.LotRepo().SumOnHandByMaterial(ctx, mat.ID)
	if err != nil {
		return nil, err
	}
	mat.CurrentStock = sum
	if err := repos.MaterialRepo().Save(ctx, mat); err != nil {
		return nil, err
	}

	return []shared.DomainEvent{stock.NewMovementRecordedEvent(movement)}, nil
}

// transitionOrder moves the order to receiving, or closes it when every
// line is exhausted after this batch
func (s *ReceivingService) transitionOrder(ctx context.Context, repos TransactionalRepositories, order *procurement.PurchaseOrder) error {
	if err := order.MarkReceiving(); err != nil {
		return err
	}
	allExhausted, err := linesExhausted(ctx, s.conversion, repos, order)
	if err != nil {
		return err
	}
	if allExhausted {
		if err := order.Close(); err != nil {
			return err
		}
	}
	return repos.OrderRepo().SaveWithLock(ctx, order)
}

func (s *ReceivingService) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
}

func receiptActor(actorID *uuid.UUID) stock.Actor {
	if actorID != nil {
		return stock.UserActor(*actorID)
	}
	return stock.SystemActor()
}
