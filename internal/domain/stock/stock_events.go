package stock

import (
	"github.com/chemstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypeMaterialLot   = "MaterialLot"
	AggregateTypeStockMovement = "StockMovement"
)

// Event type constants
const (
	EventTypeMovementRecorded    = "MovementRecorded"
	EventTypeStockBelowThreshold = "StockBelowThreshold"
)

// MovementRecordedEvent is raised after a stock movement has been
// committed. It drives the outbound external-sync notification.
type MovementRecordedEvent struct {
	shared.BaseDomainEvent
	MovementID     uuid.UUID       `json:"movement_id"`
	MaterialID     uuid.UUID       `json:"material_id"`
	LotID          *uuid.UUID      `json:"lot_id,omitempty"`
	MovementType   MovementType    `json:"movement_type"`
	Quantity       decimal.Decimal `json:"quantity"`
	Reason         string          `json:"reason,omitempty"`
	IsExternalSync bool            `json:"is_external_sync"`
}

// NewMovementRecordedEvent creates a new MovementRecordedEvent
func NewMovementRecordedEvent(movement *StockMovement) *MovementRecordedEvent {
	return &MovementRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMovementRecorded, AggregateTypeStockMovement, movement.ID),
		MovementID:      movement.ID,
		MaterialID:      movement.MaterialID,
		LotID:           movement.LotID,
		MovementType:    movement.MovementType,
		Quantity:        movement.Quantity,
		Reason:          movement.Reason,
		IsExternalSync:  movement.IsExternalSync,
	}
}

// EventType returns the event type name
func (e *MovementRecordedEvent) EventType() string {
	return EventTypeMovementRecorded
}

// StockBelowThresholdEvent is raised when a movement drives a material's
// total stock below its configured minimum
type StockBelowThresholdEvent struct {
	shared.BaseDomainEvent
	MaterialID   uuid.UUID       `json:"material_id"`
	SKU          string          `json:"sku"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	MinStock     decimal.Decimal `json:"min_stock"`
}

// NewStockBelowThresholdEvent creates a new StockBelowThresholdEvent
func NewStockBelowThresholdEvent(materialID uuid.UUID, sku string, currentStock, minStock decimal.Decimal) *StockBelowThresholdEvent {
	return &StockBelowThresholdEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockBelowThreshold, AggregateTypeMaterialLot, materialID),
		MaterialID:      materialID,
		SKU:             sku,
		CurrentStock:    currentStock,
		MinStock:        minStock,
	}
}

// EventType returns the event type name
func (e *StockBelowThresholdEvent) EventType() string {
	return EventTypeStockBelowThreshold
}
