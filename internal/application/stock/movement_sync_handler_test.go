package stock

import (
	"context"
	"errors"
	"testing"

	"github.com/chemstock/backend/internal/domain/shared"
	"github.com/chemstock/backend/internal/domain/stock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockMonoxExporter is a mock implementation of MonoxExporter
type MockMonoxExporter struct {
	mock.Mock
}

func (m *MockMonoxExporter) ExportMovement(ctx context.Context, movement MonoxMovement) error {
	args := m.Called(ctx, movement)
	return args.Error(0)
}

func createRecordedEvent(t *testing.T, materialID uuid.UUID, isExternalSync bool) *stock.MovementRecordedEvent {
	t.Helper()
	movement, err := stock.NewStockMovement(materialID, stock.MovementTypeOut, decimal.NewFromInt(10), "L", decimal.NewFromInt(50), decimal.NewFromInt(40))
	require.NoError(t, err)
	movement.WithReason("Batch 7 production")
	if isExternalSync {
		movement.WithExternalSync()
	}
	return stock.NewMovementRecordedEvent(movement)
}

func TestMovementSyncHandler_EventTypes(t *testing.T) {
	handler := NewMovementSyncHandler(new(MockMaterialRepository), new(MockMonoxExporter), zap.NewNop())
	assert.Equal(t, []string{stock.EventTypeMovementRecorded}, handler.EventTypes())
}

func TestMovementSyncHandler_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("exports movement of sync-enabled material", func(t *testing.T) {
		materialRepo := new(MockMaterialRepository)
		exporter := new(MockMonoxExporter)
		handler := NewMovementSyncHandler(materialRepo, exporter, zap.NewNop())

		mat := createSolventMaterial(t)
		mat.EnableMonoxSync(true)
		event := createRecordedEvent(t, mat.ID, false)

		materialRepo.On("FindByID", ctx, mat.ID).Return(mat, nil).Once()
		var exported MonoxMovement
		exporter.On("ExportMovement", ctx, mock.AnythingOfType("MonoxMovement")).Run(func(args mock.Arguments) {
			exported = args.Get(1).(MonoxMovement)
		}).Return(nil).Once()

		err := handler.Handle(ctx, event)

		require.NoError(t, err)
		assert.Equal(t, "ACETONE-01", exported.SKU)
		assert.Equal(t, "OUT", exported.MovementType)
		assert.Equal(t, "10", exported.Quantity)
		assert.Equal(t, "Batch 7 production", exported.Reason)
	})

	t.Run("skips externally synced movements", func(t *testing.T) {
		materialRepo := new(MockMaterialRepository)
		exporter := new(MockMonoxExporter)
		handler := NewMovementSyncHandler(materialRepo, exporter, zap.NewNop())

		mat := createSolventMaterial(t)
		mat.EnableMonoxSync(true)
		event := createRecordedEvent(t, mat.ID, true)

		err := handler.Handle(ctx, event)

		require.NoError(t, err)
		materialRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
		exporter.AssertNotCalled(t, "ExportMovement", mock.Anything, mock.Anything)
	})

	t.Run("skips materials not flagged for sync", func(t *testing.T) {
		materialRepo := new(MockMaterialRepository)
		exporter := new(MockMonoxExporter)
		handler := NewMovementSyncHandler(materialRepo, exporter, zap.NewNop())

		mat := createSolventMaterial(t)
		event := createRecordedEvent(t, mat.ID, false)

		materialRepo.On("FindByID", ctx, mat.ID).Return(mat, nil).Once()

		err := handler.Handle(ctx, event)

		require.NoError(t, err)
		exporter.AssertNotCalled(t, "ExportMovement", mock.Anything, mock.Anything)
	})

	t.Run("swallows exporter failures", func(t *testing.T) {
		materialRepo := new(MockMaterialRepository)
		exporter := new(MockMonoxExporter)
		handler := NewMovementSyncHandler(materialRepo, exporter, zap.NewNop())

		mat := createSolventMaterial(t)
		mat.EnableMonoxSync(true)
		event := createRecordedEvent(t, mat.ID, false)

		materialRepo.On("FindByID", ctx, mat.ID).Return(mat, nil).Once()
		exporter.On("ExportMovement", ctx, mock.AnythingOfType("MonoxMovement")).Return(errors.New("monox unreachable")).Once()

		err := handler.Handle(ctx, event)

		assert.NoError(t, err)
	})

	t.Run("swallows material lookup failures", func(t *testing.T) {
		materialRepo := new(MockMaterialRepository)
		exporter := new(MockMonoxExporter)
		handler := NewMovementSyncHandler(materialRepo, exporter, zap.NewNop())

		mat := createSolventMaterial(t)
		event := createRecordedEvent(t, mat.ID, false)

		materialRepo.On("FindByID", ctx, mat.ID).Return(nil, shared.ErrNotFound).Once()

		err := handler.Handle(ctx, event)

		assert.NoError(t, err)
		exporter.AssertNotCalled(t, "ExportMovement", mock.Anything, mock.Anything)
	})

	t.Run("ignores unrelated events", func(t *testing.T) {
		materialRepo := new(MockMaterialRepository)
		exporter := new(MockMonoxExporter)
		handler := NewMovementSyncHandler(materialRepo, exporter, zap.NewNop())

		base := shared.NewBaseDomainEvent("other.event", "Other", uuid.New())
		err := handler.Handle(ctx, &base)

		assert.NoError(t, err)
	})
}
