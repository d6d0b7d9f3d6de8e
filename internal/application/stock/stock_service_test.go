package stock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/chemstock/backend/internal/domain/material"
	"github.com/chemstock/backend/internal/domain/shared"
	"github.com/chemstock/backend/internal/domain/stock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{events: make([]shared.DomainEvent, 0)}
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *MockEventPublisher) GetEventsByType(eventType string) []shared.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]shared.DomainEvent, 0)
	for _, e := range m.events {
		if e.EventType() == eventType {
			result = append(result, e)
		}
	}
	return result
}

// MockMaterialRepository is a mock implementation of material.Repository
type MockMaterialRepository struct {
	mock.Mock
}

func (m *MockMaterialRepository) FindByID(ctx context.Context, id uuid.UUID) (*material.Material, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*material.Material), args.Error(1)
}

func (m *MockMaterialRepository) FindByIDWithConversions(ctx context.Context, id uuid.UUID) (*material.Material, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*material.Material), args.Error(1)
}

func (m *MockMaterialRepository) FindBySKU(ctx context.Context, sku string) (*material.Material, error) {
	args := m.Called(ctx, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*material.Material), args.Error(1)
}

func (m *MockMaterialRepository) FindAll(ctx context.Context, filter shared.Filter) ([]material.Material, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]material.Material), args.Error(1)
}

func (m *MockMaterialRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]material.Material, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]material.Material), args.Error(1)
}

func (m *MockMaterialRepository) FindSyncedToMonox(ctx context.Context) ([]material.Material, error) {
	args := m.Called(ctx)
	return args.Get(0).([]material.Material), args.Error(1)
}

func (m *MockMaterialRepository) Save(ctx context.Context, mat *material.Material) error {
	args := m.Called(ctx, mat)
	return args.Error(0)
}

func (m *MockMaterialRepository) SaveWithLock(ctx context.Context, mat *material.Material) error {
	args := m.Called(ctx, mat)
	return args.Error(0)
}

func (m *MockMaterialRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockMaterialRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMaterialRepository) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	args := m.Called(ctx, sku)
	return args.Get(0).(bool), args.Error(1)
}

// MockLotRepository is a mock implementation of stock.MaterialLotRepository
type MockLotRepository struct {
	mock.Mock
}

func (m *MockLotRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.MaterialLot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stock.MaterialLot), args.Error(1)
}

func (m *MockLotRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*stock.MaterialLot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stock.MaterialLot), args.Error(1)
}

func (m *MockLotRepository) FindByIdentity(ctx context.Context, materialID uuid.UUID, lotNo string, storageLocationID *uuid.UUID) (*stock.MaterialLot, error) {
	args := m.Called(ctx, materialID, lotNo, storageLocationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stock.MaterialLot), args.Error(1)
}

func (m *MockLotRepository) FindByIdentityForUpdate(ctx context.Context, materialID uuid.UUID, lotNo string, storageLocationID *uuid.UUID) (*stock.MaterialLot, error) {
	args := m.Called(ctx, materialID, lotNo, storageLocationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stock.MaterialLot), args.Error(1)
}

func (m *MockLotRepository) FindByMaterial(ctx context.Context, materialID uuid.UUID, filter shared.Filter) ([]stock.MaterialLot, error) {
	args := m.Called(ctx, materialID, filter)
	return args.Get(0).([]stock.MaterialLot), args.Error(1)
}

func (m *MockLotRepository) FindExpiringBefore(ctx context.Context, before time.Time) ([]stock.MaterialLot, error) {
	args := m.Called(ctx, before)
	return args.Get(0).([]stock.MaterialLot), args.Error(1)
}

func (m *MockLotRepository) Save(ctx context.Context, lot *stock.MaterialLot) error {
	args := m.Called(ctx, lot)
	return args.Error(0)
}

func (m *MockLotRepository) SaveWithLock(ctx context.Context, lot *stock.MaterialLot) error {
	args := m.Called(ctx, lot)
	return args.Error(0)
}

func (m *MockLotRepository) SumOnHandByMaterial(ctx context.Context, materialID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, materialID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockLotRepository) SumOnHand(ctx context.Context) (decimal.Decimal, error) {
	args := m.Called(ctx)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockLotRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockMovementRepository is a mock implementation of stock.StockMovementRepository
type MockMovementRepository struct {
	mock.Mock
}

func (m *MockMovementRepository) Create(ctx context.Context, movement *stock.StockMovement) error {
	args := m.Called(ctx, movement)
	return args.Error(0)
}

func (m *MockMovementRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.StockMovement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stock.StockMovement), args.Error(1)
}

func (m *MockMovementRepository) FindByMaterial(ctx context.Context, materialID uuid.UUID, filter shared.Filter) ([]stock.StockMovement, error) {
	args := m.Called(ctx, materialID, filter)
	return args.Get(0).([]stock.StockMovement), args.Error(1)
}

func (m *MockMovementRepository) FindByLot(ctx context.Context, lotID uuid.UUID, filter shared.Filter) ([]stock.StockMovement, error) {
	args := m.Called(ctx, lotID, filter)
	return args.Get(0).([]stock.StockMovement), args.Error(1)
}

func (m *MockMovementRepository) FindBySource(ctx context.Context, sourceType, sourceID string) ([]stock.StockMovement, error) {
	args := m.Called(ctx, sourceType, sourceID)
	return args.Get(0).([]stock.StockMovement), args.Error(1)
}

func (m *MockMovementRepository) SumSignedQuantityByLot(ctx context.Context, lotID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, lotID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockMovementRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockLocationRepository is a mock implementation of stock.StorageLocationRepository
type MockLocationRepository struct {
	mock.Mock
}

func (m *MockLocationRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.StorageLocation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stock.StorageLocation), args.Error(1)
}

func (m *MockLocationRepository) FindByCode(ctx context.Context, code string) (*stock.StorageLocation, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stock.StorageLocation), args.Error(1)
}

func (m *MockLocationRepository) FindAll(ctx context.Context, filter shared.Filter) ([]stock.StorageLocation, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]stock.StorageLocation), args.Error(1)
}

func (m *MockLocationRepository) Save(ctx context.Context, location *stock.StorageLocation) error {
	args := m.Called(ctx, location)
	return args.Error(0)
}

func (m *MockLocationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Test helpers

type serviceFixture struct {
	service      *Service
	lotRepo      *MockLotRepository
	movementRepo *MockMovementRepository
	locationRepo *MockLocationRepository
	materialRepo *MockMaterialRepository
	publisher    *MockEventPublisher
}

func newServiceFixture() *serviceFixture {
	lotRepo := new(MockLotRepository)
	movementRepo := new(MockMovementRepository)
	locationRepo := new(MockLocationRepository)
	materialRepo := new(MockMaterialRepository)
	txScope := NewNoOpTransactionScope(lotRepo, movementRepo, materialRepo)
	service := NewService(lotRepo, movementRepo, locationRepo, materialRepo, txScope, material.NewConversionService())
	publisher := NewMockEventPublisher()
	service.SetEventPublisher(publisher)
	return &serviceFixture{
		service:      service,
		lotRepo:      lotRepo,
		movementRepo: movementRepo,
		locationRepo: locationRepo,
		materialRepo: materialRepo,
		publisher:    publisher,
	}
}

func createSolventMaterial(t *testing.T) *material.Material {
	t.Helper()
	mat, err := material.NewMaterial("ACETONE-01", "Acetone Technical", "L", "DRUM")
	require.NoError(t, err)
	require.NoError(t, mat.AddConversion("DRUM", "L", decimal.NewFromInt(200)))
	return mat
}

func createStockedLot(t *testing.T, materialID uuid.UUID, lotNo string, qty decimal.Decimal) *stock.MaterialLot {
	t.Helper()
	lot, err := stock.NewMaterialLot(materialID, lotNo, nil)
	require.NoError(t, err)
	require.NoError(t, lot.Increase(qty))
	return lot
}

// Tests

func TestService_Issue(t *testing.T) {
	ctx := context.Background()

	t.Run("success in purchase units", func(t *testing.T) {
		f := newServiceFixture()
		mat := createSolventMaterial(t)
		lot := createStockedLot(t, mat.ID, "LOT-2026-001", decimal.NewFromInt(500))

		f.materialRepo.On("FindByIDWithConversions", mock.Anything, mat.ID).Return(mat, nil).Once()
		f.lotRepo.On("FindByIDForUpdate", mock.Anything, lot.ID).Return(lot, nil).Once()
		f.lotRepo.On("SaveWithLock", mock.Anything, lot).Return(nil).Once()
		f.movementRepo.On("Create", mock.Anything, mock.AnythingOfType("*stock.StockMovement")).Return(nil).Once()
		f.lotRepo.On("SumOnHandByMaterial", mock.Anything, mat.ID).Return(decimal.NewFromInt(100), nil).Once()
		f.materialRepo.On("FindByID", mock.Anything, mat.ID).Return(mat, nil).Once()
		f.materialRepo.On("Save", mock.Anything, mat).Return(nil).Once()

		results, err := f.service.Issue(ctx, IssueRequest{
			MaterialID: mat.ID,
			Lines: []IssueLine{{
				Qty:        decimal.NewFromInt(2),
				Unit:       "DRUM",
				LotID:      &lot.ID,
				SourceType: "WORK_ORDER",
				SourceID:   "WO-100",
			}},
			Reason: "Batch 7 production",
		})

		require.NoError(t, err)
		require.Len(t, results, 1)
		// 2 DRUM at factor 200 leaves 100 L of the original 500
		assert.True(t, results[0].QtyBase.Equal(decimal.NewFromInt(400)))
		assert.True(t, lot.QtyOnHand.Equal(decimal.NewFromInt(100)))
		assert.True(t, mat.CurrentStock.Equal(decimal.NewFromInt(100)))

		events := f.publisher.GetEventsByType(stock.EventTypeMovementRecorded)
		require.Len(t, events, 1)
		recorded := events[0].(*stock.MovementRecordedEvent)
		assert.Equal(t, stock.MovementTypeOut, recorded.MovementType)
		assert.True(t, recorded.Quantity.Equal(decimal.NewFromInt(400)))
	})

	t.Run("insufficient stock leaves lot untouched", func(t *testing.T) {
		f := newServiceFixture()
		mat := createSolventMaterial(t)
		lot := createStockedLot(t, mat.ID, "LOT-2026-002", decimal.NewFromInt(100))

		f.materialRepo.On("FindByIDWithConversions", mock.Anything, mat.ID).Return(mat, nil).Once()
		f.lotRepo.On("FindByIDForUpdate", mock.Anything, lot.ID).Return(lot, nil).Once()

		results, err := f.service.Issue(ctx, IssueRequest{
			MaterialID: mat.ID,
			Lines: []IssueLine{{
				Qty:        decimal.NewFromInt(1),
				Unit:       "DRUM",
				LotID:      &lot.ID,
				SourceType: "WORK_ORDER",
				SourceID:   "WO-101",
			}},
		})

		assert.Nil(t, results)
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
		assert.True(t, lot.QtyOnHand.Equal(decimal.NewFromInt(100)))
		f.movementRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		assert.Empty(t, f.publisher.GetEventsByType(stock.EventTypeMovementRecorded))
	})

	t.Run("missing conversion rejected", func(t *testing.T) {
		f := newServiceFixture()
		mat := createSolventMaterial(t)
		lot := createStockedLot(t, mat.ID, "LOT-2026-003", decimal.NewFromInt(100))

		f.materialRepo.On("FindByIDWithConversions", mock.Anything, mat.ID).Return(mat, nil).Once()

		_, err := f.service.Issue(ctx, IssueRequest{
			MaterialID: mat.ID,
			Lines: []IssueLine{{
				Qty:        decimal.NewFromInt(1),
				Unit:       "PALLET",
				LotID:      &lot.ID,
				SourceType: "WORK_ORDER",
				SourceID:   "WO-102",
			}},
		})

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "MISSING_CONVERSION", domainErr.Code)
	})

	t.Run("line addressed by lot number", func(t *testing.T) {
		f := newServiceFixture()
		mat := createSolventMaterial(t)
		lot := createStockedLot(t, mat.ID, "LOT-2026-004", decimal.NewFromInt(50))

		f.materialRepo.On("FindByIDWithConversions", mock.Anything, mat.ID).Return(mat, nil).Once()
		f.lotRepo.On("FindByIdentityForUpdate", mock.Anything, mat.ID, "LOT-2026-004", (*uuid.UUID)(nil)).Return(lot, nil).Once()
		f.lotRepo.On("SaveWithLock", mock.Anything, lot).Return(nil).Once()
		f.movementRepo.On("Create", mock.Anything, mock.AnythingOfType("*stock.StockMovement")).Return(nil).Once()
		f.lotRepo.On("SumOnHandByMaterial", mock.Anything, mat.ID).Return(decimal.NewFromInt(20), nil).Once()
		f.materialRepo.On("FindByID", mock.Anything, mat.ID).Return(mat, nil).Once()
		f.materialRepo.On("Save", mock.Anything, mat).Return(nil).Once()

		results, err := f.service.Issue(ctx, IssueRequest{
			MaterialID: mat.ID,
			Lines: []IssueLine{{
				Qty:        decimal.NewFromInt(30),
				Unit:       "L",
				LotNo:      "LOT-2026-004",
				SourceType: "WORK_ORDER",
				SourceID:   "WO-103",
			}},
		})

		require.NoError(t, err)
		assert.Equal(t, "LOT-2026-004", results[0].LotNo)
		assert.True(t, lot.QtyOnHand.Equal(decimal.NewFromInt(20)))
	})

	t.Run("validation failures", func(t *testing.T) {
		f := newServiceFixture()
		matID := uuid.New()
		lotID := uuid.New()

		cases := []struct {
			name string
			req  IssueRequest
		}{
			{"no lines", IssueRequest{MaterialID: matID}},
			{"non-positive qty", IssueRequest{MaterialID: matID, Lines: []IssueLine{{Qty: decimal.Zero, Unit: "L", LotID: &lotID}}}},
			{"missing unit", IssueRequest{MaterialID: matID, Lines: []IssueLine{{Qty: decimal.NewFromInt(1), LotID: &lotID}}}},
			{"no lot reference", IssueRequest{MaterialID: matID, Lines: []IssueLine{{Qty: decimal.NewFromInt(1), Unit: "L"}}}},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := f.service.Issue(ctx, tc.req)
				var domainErr *shared.DomainError
				require.True(t, errors.As(err, &domainErr))
				assert.Equal(t, "INVALID_INPUT", domainErr.Code)
			})
		}
	})

	t.Run("threshold event on crossing below minimum", func(t *testing.T) {
		f := newServiceFixture()
		mat := createSolventMaterial(t)
		require.NoError(t, mat.SetThresholds(decimalPtr(decimal.NewFromInt(100)), nil))
		mat.CurrentStock = decimal.NewFromInt(150)
		lot := createStockedLot(t, mat.ID, "LOT-2026-005", decimal.NewFromInt(150))

		f.materialRepo.On("FindByIDWithConversions", mock.Anything, mat.ID).Return(mat, nil).Once()
		f.lotRepo.On("FindByIDForUpdate", mock.Anything, lot.ID).Return(lot, nil).Once()
		f.lotRepo.On("SaveWithLock", mock.Anything, lot).Return(nil).Once()
		f.movementRepo.On("Create", mock.Anything, mock.AnythingOfType("*stock.StockMovement")).Return(nil).Once()
		f.lotRepo.On("SumOnHandByMaterial", mock.Anything, mat.ID).Return(decimal.NewFromInt(70), nil).Once()
		f.materialRepo.On("FindByID", mock.Anything, mat.ID).Return(mat, nil).Once()
		f.materialRepo.On("Save", mock.Anything, mat).Return(nil).Once()

		_, err := f.service.Issue(ctx, IssueRequest{
			MaterialID: mat.ID,
			Lines: []IssueLine{{
				Qty:        decimal.NewFromInt(80),
				Unit:       "L",
				LotID:      &lot.ID,
				SourceType: "WORK_ORDER",
				SourceID:   "WO-104",
			}},
		})

		require.NoError(t, err)
		events := f.publisher.GetEventsByType(stock.EventTypeStockBelowThreshold)
		require.Len(t, events, 1)
		threshold := events[0].(*stock.StockBelowThresholdEvent)
		assert.Equal(t, "ACETONE-01", threshold.SKU)
		assert.True(t, threshold.CurrentStock.Equal(decimal.NewFromInt(70)))
	})
}

func TestService_Receive(t *testing.T) {
	ctx := context.Background()

	t.Run("creates lot on first receipt", func(t *testing.T) {
		f := newServiceFixture()
		mat := createSolventMaterial(t)
		mfg := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

		f.materialRepo.On("FindByIDWithConversions", mock.Anything, mat.ID).Return(mat, nil).Once()
		f.lotRepo.On("FindByIdentityForUpdate", mock.Anything, mat.ID, "LOT-NEW-01", (*uuid.UUID)(nil)).Return(nil, shared.ErrNotFound).Once()
		var savedLot *stock.MaterialLot
		f.lotRepo.On("Save", mock.Anything, mock.AnythingOfType("*stock.MaterialLot")).Run(func(args mock.Arguments) {
			savedLot = args.Get(1).(*stock.MaterialLot)
		}).Return(nil).Once()
		f.movementRepo.On("Create", mock.Anything, mock.AnythingOfType("*stock.StockMovement")).Return(nil).Once()
		f.lotRepo.On("SumOnHandByMaterial", mock.Anything, mat.ID).Return(decimal.NewFromInt(400), nil).Once()
		f.materialRepo.On("FindByID", mock.Anything, mat.ID).Return(mat, nil).Once()
		f.materialRepo.On("Save", mock.Anything, mat).Return(nil).Once()

		response, err := f.service.Receive(ctx, ReceiveRequest{
			MaterialID: mat.ID,
			LotNo:      "LOT-NEW-01",
			Qty:        decimal.NewFromInt(2),
			Unit:       "DRUM",
			MfgDate:    &mfg,
			SourceType: "PURCHASE_ORDER",
			SourceID:   "PO-001",
		})

		require.NoError(t, err)
		require.NotNil(t, savedLot)
		assert.True(t, response.QtyOnHand.Equal(decimal.NewFromInt(400)))
		assert.Equal(t, &mfg, savedLot.MfgDate)

		events := f.publisher.GetEventsByType(stock.EventTypeMovementRecorded)
		require.Len(t, events, 1)
		assert.Equal(t, stock.MovementTypeIn, events[0].(*stock.MovementRecordedEvent).MovementType)
	})

	t.Run("increments existing lot and keeps original dates", func(t *testing.T) {
		f := newServiceFixture()
		mat := createSolventMaterial(t)
		lot := createStockedLot(t, mat.ID, "LOT-NEW-02", decimal.NewFromInt(100))
		originalMfg := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
		lot.SetDates(&originalMfg, nil)
		laterMfg := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

		f.materialRepo.On("FindByIDWithConversions", mock.Anything, mat.ID).Return(mat, nil).Once()
		f.lotRepo.On("FindByIdentityForUpdate", mock.Anything, mat.ID, "LOT-NEW-02", (*uuid.UUID)(nil)).Return(lot, nil).Once()
		f.lotRepo.On("Save", mock.Anything, lot).Return(nil).Once()
		f.movementRepo.On("Create", mock.Anything, mock.AnythingOfType("*stock.StockMovement")).Return(nil).Once()
		f.lotRepo.On("SumOnHandByMaterial", mock.Anything, mat.ID).Return(decimal.NewFromInt(150), nil).Once()
		f.materialRepo.On("FindByID", mock.Anything, mat.ID).Return(mat, nil).Once()
		f.materialRepo.On("Save", mock.Anything, mat).Return(nil).Once()

		response, err := f.service.Receive(ctx, ReceiveRequest{
			MaterialID: mat.ID,
			LotNo:      "LOT-NEW-02",
			Qty:        decimal.NewFromInt(50),
			Unit:       "L",
			MfgDate:    &laterMfg,
			SourceType: "PURCHASE_ORDER",
			SourceID:   "PO-002",
		})

		require.NoError(t, err)
		assert.True(t, response.QtyOnHand.Equal(decimal.NewFromInt(150)))
		assert.Equal(t, &originalMfg, lot.MfgDate)
	})

	t.Run("external sync marks the movement", func(t *testing.T) {
		f := newServiceFixture()
		mat := createSolventMaterial(t)
		lot := createStockedLot(t, mat.ID, "LOT-SYNC-01", decimal.NewFromInt(10))

		f.materialRepo.On("FindByIDWithConversions", mock.Anything, mat.ID).Return(mat, nil).Once()
		f.lotRepo.On("FindByIdentityForUpdate", mock.Anything, mat.ID, "LOT-SYNC-01", (*uuid.UUID)(nil)).Return(lot, nil).Once()
		f.lotRepo.On("Save", mock.Anything, lot).Return(nil).Once()
		var created *stock.StockMovement
		f.movementRepo.On("Create", mock.Anything, mock.AnythingOfType("*stock.StockMovement")).Run(func(args mock.Arguments) {
			created = args.Get(1).(*stock.StockMovement)
		}).Return(nil).Once()
		f.lotRepo.On("SumOnHandByMaterial", mock.Anything, mat.ID).Return(decimal.NewFromInt(15), nil).Once()
		f.materialRepo.On("FindByID", mock.Anything, mat.ID).Return(mat, nil).Once()
		f.materialRepo.On("Save", mock.Anything, mat).Return(nil).Once()

		_, err := f.service.Receive(ctx, ReceiveRequest{
			MaterialID:     mat.ID,
			LotNo:          "LOT-SYNC-01",
			Qty:            decimal.NewFromInt(5),
			Unit:           "L",
			SourceType:     "MONOX_SYNC",
			SourceID:       "MX-9",
			IsExternalSync: true,
		})

		require.NoError(t, err)
		require.NotNil(t, created)
		assert.True(t, created.IsExternalSync)
		assert.Equal(t, stock.ActorKindExternalSync, created.Actor.Kind)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		f := newServiceFixture()
		_, err := f.service.Receive(ctx, ReceiveRequest{
			MaterialID: uuid.New(),
			LotNo:      "LOT-X",
			Qty:        decimal.NewFromInt(-1),
			Unit:       "L",
		})
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "INVALID_INPUT", domainErr.Code)
	})
}

func TestService_Transfer(t *testing.T) {
	ctx := context.Background()

	t.Run("conserves quantity across locations", func(t *testing.T) {
		f := newServiceFixture()
		mat := createSolventMaterial(t)
		sourceLoc := uuid.New()
		destLoc := uuid.New()
		source, err := stock.NewMaterialLot(mat.ID, "LOT-T-01", &sourceLoc)
		require.NoError(t, err)
		require.NoError(t, source.Increase(decimal.NewFromInt(100)))

		f.lotRepo.On("FindByID", mock.Anything, source.ID).Return(source, nil).Once()
		f.lotRepo.On("FindByIdentity", mock.Anything, mat.ID, "LOT-T-01", &destLoc).Return(nil, shared.ErrNotFound).Once()
		f.lotRepo.On("FindByIDForUpdate", mock.Anything, source.ID).Return(source, nil).Once()
		f.materialRepo.On("FindByIDWithConversions", mock.Anything, mat.ID).Return(mat, nil).Once()
		f.lotRepo.On("FindByIdentityForUpdate", mock.Anything, mat.ID, "LOT-T-01", &destLoc).Return(nil, shared.ErrNotFound).Once()
		f.lotRepo.On("SaveWithLock", mock.Anything, source).Return(nil).Once()
		f.lotRepo.On("Save", mock.Anything, mock.AnythingOfType("*stock.MaterialLot")).Return(nil).Once()
		f.movementRepo.On("Create", mock.Anything, mock.AnythingOfType("*stock.StockMovement")).Return(nil).Twice()
		f.lotRepo.On("SumOnHandByMaterial", mock.Anything, mat.ID).Return(decimal.NewFromInt(100), nil).Once()
		f.materialRepo.On("FindByID", mock.Anything, mat.ID).Return(mat, nil).Once()
		f.materialRepo.On("Save", mock.Anything, mat).Return(nil).Once()

		result, err := f.service.Transfer(ctx, TransferRequest{
			SourceLotID:    source.ID,
			DestLocationID: &destLoc,
			Qty:            decimal.NewFromInt(30),
			Unit:           "L",
			Reason:         "Rebalance",
		})

		require.NoError(t, err)
		assert.True(t, result.SourceLot.QtyOnHand.Equal(decimal.NewFromInt(70)))
		assert.True(t, result.DestLot.QtyOnHand.Equal(decimal.NewFromInt(30)))
		assert.Equal(t, "LOT-T-01", result.DestLot.LotNo)

		events := f.publisher.GetEventsByType(stock.EventTypeMovementRecorded)
		require.Len(t, events, 2)
		total := decimal.Zero
		for _, e := range events {
			total = total.Add(e.(*stock.MovementRecordedEvent).Quantity.Mul(signOf(e.(*stock.MovementRecordedEvent).MovementType)))
		}
		assert.True(t, total.IsZero())
	})

	t.Run("locks the lower lot ID first", func(t *testing.T) {
		f := newServiceFixture()
		mat := createSolventMaterial(t)
		sourceLoc := uuid.New()
		destLoc := uuid.New()
		source, err := stock.NewMaterialLot(mat.ID, "LOT-T-03", &sourceLoc)
		require.NoError(t, err)
		require.NoError(t, source.Increase(decimal.NewFromInt(50)))
		dest, err := stock.NewMaterialLot(mat.ID, "LOT-T-03", &destLoc)
		require.NoError(t, err)
		source.ID = uuid.MustParse("ffffffff-0000-0000-0000-000000000001")
		dest.ID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

		var lockOrder []uuid.UUID
		f.lotRepo.On("FindByID", mock.Anything, source.ID).Return(source, nil).Once()
		f.lotRepo.On("FindByIdentity", mock.Anything, mat.ID, "LOT-T-03", &destLoc).Return(dest, nil).Once()
		f.lotRepo.On("FindByIDForUpdate", mock.Anything, dest.ID).Run(func(args mock.Arguments) {
			lockOrder = append(lockOrder, args.Get(1).(uuid.UUID))
		}).Return(dest, nil).Once()
		f.lotRepo.On("FindByIDForUpdate", mock.Anything, source.ID).Run(func(args mock.Arguments) {
			lockOrder = append(lockOrder, args.Get(1).(uuid.UUID))
		}).Return(source, nil).Once()
		f.materialRepo.On("FindByIDWithConversions", mock.Anything, mat.ID).Return(mat, nil).Once()
		f.lotRepo.On("SaveWithLock", mock.Anything, source).Return(nil).Once()
		f.lotRepo.On("Save", mock.Anything, dest).Return(nil).Once()
		f.movementRepo.On("Create", mock.Anything, mock.AnythingOfType("*stock.StockMovement")).Return(nil).Twice()
		f.lotRepo.On("SumOnHandByMaterial", mock.Anything, mat.ID).Return(decimal.NewFromInt(50), nil).Once()
		f.materialRepo.On("FindByID", mock.Anything, mat.ID).Return(mat, nil).Once()
		f.materialRepo.On("Save", mock.Anything, mat).Return(nil).Once()

		_, err = f.service.Transfer(ctx, TransferRequest{
			SourceLotID:    source.ID,
			DestLocationID: &destLoc,
			Qty:            decimal.NewFromInt(10),
			Unit:           "L",
		})

		require.NoError(t, err)
		require.Equal(t, []uuid.UUID{dest.ID, source.ID}, lockOrder)
	})

	t.Run("rejects same location", func(t *testing.T) {
		f := newServiceFixture()
		loc := uuid.New()
		source, err := stock.NewMaterialLot(uuid.New(), "LOT-T-02", &loc)
		require.NoError(t, err)

		f.lotRepo.On("FindByID", mock.Anything, source.ID).Return(source, nil).Once()

		_, err = f.service.Transfer(ctx, TransferRequest{
			SourceLotID:    source.ID,
			DestLocationID: &loc,
			Qty:            decimal.NewFromInt(10),
			Unit:           "L",
		})

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "INVALID_INPUT", domainErr.Code)
	})
}

func TestService_Summary(t *testing.T) {
	ctx := context.Background()

	t.Run("total on hand comes from the lot aggregate", func(t *testing.T) {
		f := newServiceFixture()

		f.materialRepo.On("Count", mock.Anything, mock.Anything).Return(int64(2500), nil).Once()
		f.lotRepo.On("Count", mock.Anything, mock.Anything).Return(int64(9000), nil).Once()
		f.materialRepo.On("Count", mock.Anything, mock.Anything).Return(int64(12), nil).Once()
		f.lotRepo.On("SumOnHand", mock.Anything).Return(decimal.NewFromInt(1234567), nil).Once()
		f.movementRepo.On("Count", mock.Anything, mock.Anything).Return(int64(40), nil).Once()

		summary, err := f.service.Summary(ctx)

		require.NoError(t, err)
		assert.Equal(t, int64(2500), summary.MaterialCount)
		assert.Equal(t, int64(12), summary.BelowMinimumCount)
		assert.True(t, summary.TotalOnHand.Equal(decimal.NewFromInt(1234567)))
		// The sum is a single aggregate query, never a paged listing
		f.materialRepo.AssertNotCalled(t, "FindAll", mock.Anything, mock.Anything)
	})
}

func TestService_Adjust(t *testing.T) {
	ctx := context.Background()

	t.Run("decrease to counted quantity", func(t *testing.T) {
		f := newServiceFixture()
		mat := createSolventMaterial(t)
		lot := createStockedLot(t, mat.ID, "LOT-A-01", decimal.NewFromInt(100))

		f.lotRepo.On("FindByIDForUpdate", mock.Anything, lot.ID).Return(lot, nil).Once()
		f.materialRepo.On("FindByID", mock.Anything, mat.ID).Return(mat, nil).Twice()
		f.lotRepo.On("SaveWithLock", mock.Anything, lot).Return(nil).Once()
		var created *stock.StockMovement
		f.movementRepo.On("Create", mock.Anything, mock.AnythingOfType("*stock.StockMovement")).Run(func(args mock.Arguments) {
			created = args.Get(1).(*stock.StockMovement)
		}).Return(nil).Once()
		f.lotRepo.On("SumOnHandByMaterial", mock.Anything, mat.ID).Return(decimal.NewFromInt(95), nil).Once()
		f.materialRepo.On("Save", mock.Anything, mat).Return(nil).Once()

		response, err := f.service.Adjust(ctx, AdjustRequest{
			LotID:     lot.ID,
			ActualQty: decimal.NewFromInt(95),
			Reason:    "Cycle count shortfall",
		})

		require.NoError(t, err)
		assert.True(t, response.QtyOnHand.Equal(decimal.NewFromInt(95)))
		require.NotNil(t, created)
		assert.Equal(t, stock.MovementTypeAdjustDecrease, created.MovementType)
		assert.True(t, created.Quantity.Equal(decimal.NewFromInt(5)))
	})

	t.Run("zero delta is a no-op", func(t *testing.T) {
		f := newServiceFixture()
		mat := createSolventMaterial(t)
		lot := createStockedLot(t, mat.ID, "LOT-A-02", decimal.NewFromInt(40))

		f.lotRepo.On("FindByIDForUpdate", mock.Anything, lot.ID).Return(lot, nil).Once()
		f.materialRepo.On("FindByID", mock.Anything, mat.ID).Return(mat, nil).Once()

		response, err := f.service.Adjust(ctx, AdjustRequest{
			LotID:     lot.ID,
			ActualQty: decimal.NewFromInt(40),
			Reason:    "Cycle count match",
		})

		require.NoError(t, err)
		assert.True(t, response.QtyOnHand.Equal(decimal.NewFromInt(40)))
		f.movementRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("requires a reason", func(t *testing.T) {
		f := newServiceFixture()
		_, err := f.service.Adjust(ctx, AdjustRequest{
			LotID:     uuid.New(),
			ActualQty: decimal.NewFromInt(10),
		})
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "INVALID_INPUT", domainErr.Code)
	})
}

func TestService_ReconcileLot(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture()
	lot := createStockedLot(t, uuid.New(), "LOT-R-01", decimal.NewFromInt(75))

	t.Run("balanced ledger", func(t *testing.T) {
		f.lotRepo.On("FindByID", ctx, lot.ID).Return(lot, nil).Once()
		f.movementRepo.On("SumSignedQuantityByLot", ctx, lot.ID).Return(decimal.NewFromInt(75), nil).Once()

		ok, sum, err := f.service.ReconcileLot(ctx, lot.ID)

		require.NoError(t, err)
		assert.True(t, ok)
		assert.True(t, sum.Equal(decimal.NewFromInt(75)))
	})

	t.Run("drifted ledger", func(t *testing.T) {
		f.lotRepo.On("FindByID", ctx, lot.ID).Return(lot, nil).Once()
		f.movementRepo.On("SumSignedQuantityByLot", ctx, lot.ID).Return(decimal.NewFromInt(70), nil).Once()

		ok, _, err := f.service.ReconcileLot(ctx, lot.ID)

		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestService_ListMovements(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture()
	materialID := uuid.New()

	t.Run("requires a filter", func(t *testing.T) {
		_, err := f.service.ListMovements(ctx, MovementListFilter{})
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "INVALID_INPUT", domainErr.Code)
	})

	t.Run("by material", func(t *testing.T) {
		f.movementRepo.On("FindByMaterial", ctx, materialID, mock.AnythingOfType("shared.Filter")).Return([]stock.StockMovement{}, nil).Once()

		responses, err := f.service.ListMovements(ctx, MovementListFilter{MaterialID: &materialID})

		require.NoError(t, err)
		assert.Empty(t, responses)
	})
}

func decimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}

func signOf(t stock.MovementType) decimal.Decimal {
	if t.IsDecrease() {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromInt(1)
}
