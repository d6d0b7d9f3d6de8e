package procurement

import (
	"context"
	"errors"
	"testing"

	"github.com/chemstock/backend/internal/domain/procurement"
	"github.com/chemstock/backend/internal/domain/shared"
	"github.com/chemstock/backend/internal/domain/stock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestReceivingService_InfoByToken(t *testing.T) {
	ctx := context.Background()

	t.Run("snapshot with remaining quantity", func(t *testing.T) {
		f := newProcurementFixture()
		service := f.receivingService()
		mat := createDrumMaterial(t)
		order, item := createIssuedOrderWithLine(t, mat, 10)

		f.orderRepo.On("FindByItemScanToken", ctx, item.ScanToken).Return(order, nil).Once()
		f.materialRepo.On("FindByIDWithConversions", ctx, mat.ID).Return(mat, nil).Once()
		f.receivingRepo.On("SumBaseByOrderItem", ctx, item.ID).Return(decimal.NewFromInt(400), nil).Once()

		info, err := service.InfoByToken(ctx, item.ScanToken)

		require.NoError(t, err)
		assert.Equal(t, order.OrderNumber, info.OrderNumber)
		assert.Equal(t, "ACETONE-01", info.MaterialSKU)
		assert.Equal(t, "L", info.StockUnit)
		// 10 DRUM at factor 200 with 400 L already in
		assert.True(t, info.OrderedBase.Equal(decimal.NewFromInt(2000)))
		assert.True(t, info.ReceivedBase.Equal(decimal.NewFromInt(400)))
		assert.True(t, info.RemainingBase.Equal(decimal.NewFromInt(1600)))
	})

	t.Run("unknown token", func(t *testing.T) {
		f := newProcurementFixture()
		service := f.receivingService()
		token := uuid.New()

		f.orderRepo.On("FindByItemScanToken", ctx, token).Return(nil, shared.ErrNotFound).Once()

		_, err := service.InfoByToken(ctx, token)

		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("draft order rejected", func(t *testing.T) {
		f := newProcurementFixture()
		service := f.receivingService()
		mat := createDrumMaterial(t)
		order, err := procurement.NewPurchaseOrder("PO-20260829-TEST10", uuid.New(), "Kemton Supply Co")
		require.NoError(t, err)
		item, err := order.AddItem(&mat.ID, mat.Name, "DRUM", decimal.NewFromInt(5), mustMoneyUSD(150))
		require.NoError(t, err)

		f.orderRepo.On("FindByItemScanToken", ctx, item.ScanToken).Return(order, nil).Once()

		_, err = service.InfoByToken(ctx, item.ScanToken)

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "INVALID_STATE", domainErr.Code)
	})

	t.Run("shipping line rejected", func(t *testing.T) {
		f := newProcurementFixture()
		service := f.receivingService()
		mat := createDrumMaterial(t)
		order, err := procurement.NewPurchaseOrder("PO-20260829-TEST11", uuid.New(), "Kemton Supply Co")
		require.NoError(t, err)
		_, err = order.AddItem(&mat.ID, mat.Name, "DRUM", decimal.NewFromInt(5), mustMoneyUSD(150))
		require.NoError(t, err)
		shippingItem, err := order.AddShippingFee(mustMoneyUSD(80))
		require.NoError(t, err)
		require.NoError(t, order.Issue())

		f.orderRepo.On("FindByItemScanToken", ctx, shippingItem.ScanToken).Return(order, nil).Once()

		_, err = service.InfoByToken(ctx, shippingItem.ScanToken)

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "NOT_RECEIVABLE", domainErr.Code)
	})
}

func TestReceivingService_ReceiveByScan(t *testing.T) {
	ctx := context.Background()

	t.Run("partial receipt creates lot and moves order to receiving", func(t *testing.T) {
		f := newProcurementFixture()
		service := f.receivingService()
		mat := createDrumMaterial(t)
		order, item := createIssuedOrderWithLine(t, mat, 10)
		locationID := uuid.New()

		f.orderRepo.On("FindByItemScanToken", mock.Anything, item.ScanToken).Return(order, nil).Once()
		f.materialRepo.On("FindByIDWithConversions", mock.Anything, mat.ID).Return(mat, nil)
		f.receivingRepo.On("SumBaseByOrderItem", mock.Anything, item.ID).Return(decimal.Zero, nil).Once()
		f.lotRepo.On("FindByIdentityForUpdate", mock.Anything, mat.ID, "LOT-2026-010", &locationID).Return(nil, shared.ErrNotFound).Once()
		var savedLot *stock.MaterialLot
		f.lotRepo.On("Save", mock.Anything, mock.AnythingOfType("*stock.MaterialLot")).Run(func(args mock.Arguments) {
			savedLot = args.Get(1).(*stock.MaterialLot)
		}).Return(nil).Once()
		var movement *stock.StockMovement
		f.movementRepo.On("Create", mock.Anything, mock.AnythingOfType("*stock.StockMovement")).Run(func(args mock.Arguments) {
			movement = args.Get(1).(*stock.StockMovement)
		}).Return(nil).Once()
		f.lotRepo.On("SumOnHandByMaterial", mock.Anything, mat.ID).Return(decimal.NewFromInt(800), nil).Once()
		f.materialRepo.On("Save", mock.Anything, mat).Return(nil).Once()
		f.receivingRepo.On("Save", mock.Anything, mock.AnythingOfType("*procurement.Receiving")).Return(nil).Once()
		f.receivingRepo.On("SumBaseByOrder", mock.Anything, order.ID).Return(map[uuid.UUID]decimal.Decimal{item.ID: decimal.NewFromInt(800)}, nil).Once()
		f.orderRepo.On("SaveWithLock", mock.Anything, order).Return(nil).Once()

		response, err := service.ReceiveByScan(ctx, item.ScanToken, ReceiveByScanRequest{
			Qty:               decimal.NewFromInt(4),
			LotNo:             "LOT-2026-010",
			StorageLocationID: &locationID,
			ReferenceNumber:   "DN-555",
		})

		require.NoError(t, err)
		assert.Equal(t, "RECEIVING", response.OrderStatus)
		require.Len(t, response.Items, 1)
		// Unit defaults to the line's purchase unit
		assert.Equal(t, "DRUM", response.Items[0].Unit)
		assert.True(t, response.Items[0].QtyBase.Equal(decimal.NewFromInt(800)))

		require.NotNil(t, savedLot)
		assert.True(t, savedLot.QtyOnHand.Equal(decimal.NewFromInt(800)))
		require.NotNil(t, movement)
		assert.Equal(t, stock.MovementTypeIn, movement.MovementType)
		assert.Equal(t, "PURCHASE_ORDER", movement.SourceType)
		assert.True(t, mat.CurrentStock.Equal(decimal.NewFromInt(800)))
		assert.Len(t, f.publisher.GetEventsByType(stock.EventTypeMovementRecorded), 1)
	})

	t.Run("final receipt closes the order", func(t *testing.T) {
		f := newProcurementFixture()
		service := f.receivingService()
		mat := createDrumMaterial(t)
		order, item := createIssuedOrderWithLine(t, mat, 10)

		f.orderRepo.On("FindByItemScanToken", mock.Anything, item.ScanToken).Return(order, nil).Once()
		f.materialRepo.On("FindByIDWithConversions", mock.Anything, mat.ID).Return(mat, nil)
		f.receivingRepo.On("SumBaseByOrderItem", mock.Anything, item.ID).Return(decimal.NewFromInt(1800), nil).Once()
		f.lotRepo.On("FindByIdentityForUpdate", mock.Anything, mat.ID, "LOT-2026-011", (*uuid.UUID)(nil)).Return(nil, shared.ErrNotFound).Once()
		f.lotRepo.On("Save", mock.Anything, mock.AnythingOfType("*stock.MaterialLot")).Return(nil).Once()
		f.movementRepo.On("Create", mock.Anything, mock.AnythingOfType("*stock.StockMovement")).Return(nil).Once()
		f.lotRepo.On("SumOnHandByMaterial", mock.Anything, mat.ID).Return(decimal.NewFromInt(2000), nil).Once()
		f.materialRepo.On("Save", mock.Anything, mat).Return(nil).Once()
		f.receivingRepo.On("Save", mock.Anything, mock.AnythingOfType("*procurement.Receiving")).Return(nil).Once()
		f.receivingRepo.On("SumBaseByOrder", mock.Anything, order.ID).Return(map[uuid.UUID]decimal.Decimal{item.ID: decimal.NewFromInt(2000)}, nil).Once()
		f.orderRepo.On("SaveWithLock", mock.Anything, order).Return(nil).Once()

		response, err := service.ReceiveByScan(ctx, item.ScanToken, ReceiveByScanRequest{
			Qty:   decimal.NewFromInt(1),
			LotNo: "LOT-2026-011",
		})

		require.NoError(t, err)
		assert.Equal(t, "CLOSED", response.OrderStatus)
		assert.Len(t, f.publisher.GetEventsByType(procurement.EventTypePurchaseOrderClosed), 1)
	})

	t.Run("nothing remaining to receive", func(t *testing.T) {
		f := newProcurementFixture()
		service := f.receivingService()
		mat := createDrumMaterial(t)
		order, item := createIssuedOrderWithLine(t, mat, 10)

		f.orderRepo.On("FindByItemScanToken", mock.Anything, item.ScanToken).Return(order, nil).Once()
		f.materialRepo.On("FindByIDWithConversions", mock.Anything, mat.ID).Return(mat, nil).Once()
		f.receivingRepo.On("SumBaseByOrderItem", mock.Anything, item.ID).Return(decimal.NewFromInt(2000), nil).Once()

		_, err := service.ReceiveByScan(ctx, item.ScanToken, ReceiveByScanRequest{
			Qty:   decimal.NewFromInt(1),
			LotNo: "LOT-2026-012",
		})

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "NOTHING_TO_RECEIVE", domainErr.Code)
		f.lotRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		f.movementRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		f.receivingRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("lot number required for lot-managed materials", func(t *testing.T) {
		f := newProcurementFixture()
		service := f.receivingService()
		mat := createDrumMaterial(t)
		order, item := createIssuedOrderWithLine(t, mat, 10)

		f.orderRepo.On("FindByItemScanToken", mock.Anything, item.ScanToken).Return(order, nil).Once()
		f.materialRepo.On("FindByIDWithConversions", mock.Anything, mat.ID).Return(mat, nil).Once()
		f.receivingRepo.On("SumBaseByOrderItem", mock.Anything, item.ID).Return(decimal.Zero, nil).Once()

		_, err := service.ReceiveByScan(ctx, item.ScanToken, ReceiveByScanRequest{
			Qty: decimal.NewFromInt(1),
		})

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "INVALID_INPUT", domainErr.Code)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		f := newProcurementFixture()
		service := f.receivingService()

		_, err := service.ReceiveByScan(ctx, uuid.New(), ReceiveByScanRequest{Qty: decimal.Zero})

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "INVALID_INPUT", domainErr.Code)
	})
}

func TestReceivingService_ReceiveByItems(t *testing.T) {
	ctx := context.Background()

	t.Run("batch receipt with an ad-hoc line", func(t *testing.T) {
		f := newProcurementFixture()
		service := f.receivingService()
		mat := createDrumMaterial(t)

		order, err := procurement.NewPurchaseOrder("PO-20260829-TEST12", uuid.New(), "Kemton Supply Co")
		require.NoError(t, err)
		matItem, err := order.AddItem(&mat.ID, mat.Name, "DRUM", decimal.NewFromInt(2), mustMoneyUSD(150))
		require.NoError(t, err)
		adhocItem, err := order.AddItem(nil, "Safety gloves", "BOX", decimal.NewFromInt(5), mustMoneyUSD(12))
		require.NoError(t, err)
		require.NoError(t, order.Issue())
		order.ClearDomainEvents()

		f.orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil).Once()
		f.materialRepo.On("FindByIDWithConversions", mock.Anything, mat.ID).Return(mat, nil)
		f.receivingRepo.On("SumBaseByOrderItem", mock.Anything, matItem.ID).Return(decimal.Zero, nil).Once()
		f.receivingRepo.On("SumBaseByOrderItem", mock.Anything, adhocItem.ID).Return(decimal.Zero, nil).Once()
		f.lotRepo.On("FindByIdentityForUpdate", mock.Anything, mat.ID, "LOT-2026-013", (*uuid.UUID)(nil)).Return(nil, shared.ErrNotFound).Once()
		f.lotRepo.On("Save", mock.Anything, mock.AnythingOfType("*stock.MaterialLot")).Return(nil).Once()
		f.movementRepo.On("Create", mock.Anything, mock.AnythingOfType("*stock.StockMovement")).Return(nil).Once()
		f.lotRepo.On("SumOnHandByMaterial", mock.Anything, mat.ID).Return(decimal.NewFromInt(400), nil).Once()
		f.materialRepo.On("Save", mock.Anything, mat).Return(nil).Once()
		f.receivingRepo.On("Save", mock.Anything, mock.AnythingOfType("*procurement.Receiving")).Return(nil).Once()
		f.receivingRepo.On("SumBaseByOrder", mock.Anything, order.ID).Return(map[uuid.UUID]decimal.Decimal{
			matItem.ID:   decimal.NewFromInt(400),
			adhocItem.ID: decimal.NewFromInt(5),
		}, nil).Once()
		f.orderRepo.On("SaveWithLock", mock.Anything, order).Return(nil).Once()

		response, err := service.ReceiveByItems(ctx, order.ID, ReceiveByItemsRequest{
			Items: []ReceiveItemInput{
				{PurchaseOrderItemID: matItem.ID, Qty: decimal.NewFromInt(2), LotNo: "LOT-2026-013"},
				{PurchaseOrderItemID: adhocItem.ID, Qty: decimal.NewFromInt(5)},
			},
			ReferenceNumber: "DN-556",
		})

		require.NoError(t, err)
		require.Len(t, response.Items, 2)
		// Both ordered quantities are exhausted, the order closes
		assert.Equal(t, "CLOSED", response.OrderStatus)
		// Ad-hoc line carries no lot and is accounted in the entered unit
		assert.Nil(t, response.Items[1].LotID)
		assert.True(t, response.Items[1].QtyBase.Equal(decimal.NewFromInt(5)))
	})

	t.Run("duplicate line in batch cannot over-receive", func(t *testing.T) {
		f := newProcurementFixture()
		service := f.receivingService()
		mat := createDrumMaterial(t)
		// 1 DRUM ordered = 200 L base; the first batch line exhausts it
		order, item := createIssuedOrderWithLine(t, mat, 1)

		f.orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil).Once()
		f.materialRepo.On("FindByIDWithConversions", mock.Anything, mat.ID).Return(mat, nil)
		f.receivingRepo.On("SumBaseByOrderItem", mock.Anything, item.ID).Return(decimal.Zero, nil).Twice()
		f.lotRepo.On("FindByIdentityForUpdate", mock.Anything, mat.ID, "LOT-2026-014", (*uuid.UUID)(nil)).Return(nil, shared.ErrNotFound).Once()
		f.lotRepo.On("Save", mock.Anything, mock.AnythingOfType("*stock.MaterialLot")).Return(nil).Once()
		f.movementRepo.On("Create", mock.Anything, mock.AnythingOfType("*stock.StockMovement")).Return(nil).Once()
		f.lotRepo.On("SumOnHandByMaterial", mock.Anything, mat.ID).Return(decimal.NewFromInt(200), nil).Once()
		f.materialRepo.On("Save", mock.Anything, mat).Return(nil).Once()

		_, err := service.ReceiveByItems(ctx, order.ID, ReceiveByItemsRequest{
			Items: []ReceiveItemInput{
				{PurchaseOrderItemID: item.ID, Qty: decimal.NewFromInt(1), LotNo: "LOT-2026-014"},
				{PurchaseOrderItemID: item.ID, Qty: decimal.NewFromInt(1), LotNo: "LOT-2026-014"},
			},
		})

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "NOTHING_TO_RECEIVE", domainErr.Code)
		f.receivingRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("unknown line in batch", func(t *testing.T) {
		f := newProcurementFixture()
		service := f.receivingService()
		mat := createDrumMaterial(t)
		order, _ := createIssuedOrderWithLine(t, mat, 10)

		f.orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil).Once()

		_, err := service.ReceiveByItems(ctx, order.ID, ReceiveByItemsRequest{
			Items: []ReceiveItemInput{{PurchaseOrderItemID: uuid.New(), Qty: decimal.NewFromInt(1)}},
		})

		assert.True(t, shared.IsNotFound(err))
	})
}
