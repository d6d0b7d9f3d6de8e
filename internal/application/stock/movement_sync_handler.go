package stock

import (
	"context"

	"github.com/chemstock/backend/internal/domain/material"
	"github.com/chemstock/backend/internal/domain/shared"
	"github.com/chemstock/backend/internal/domain/stock"
	"go.uber.org/zap"
)

// MonoxMovement is the outbound payload pushed to the Monox system
type MonoxMovement struct {
	SKU          string `json:"sku"`
	MovementType string `json:"movement_type"`
	Quantity     string `json:"quantity"`
	Reason       string `json:"reason,omitempty"`
}

// MonoxExporter pushes stock movements to the external Monox system
type MonoxExporter interface {
	ExportMovement(ctx context.Context, movement MonoxMovement) error
}

// MovementSyncHandler forwards recorded movements of sync-enabled
// materials to Monox. Export is fire-and-forget: a failed push is logged
// and never fails the originating transaction, which has already
// committed by the time this handler runs.
type MovementSyncHandler struct {
	materialRepo material.Repository
	exporter     MonoxExporter
	logger       *zap.Logger
}

// NewMovementSyncHandler creates a handler that exports movements to Monox
func NewMovementSyncHandler(materialRepo material.Repository, exporter MonoxExporter, logger *zap.Logger) *MovementSyncHandler {
	return &MovementSyncHandler{
		materialRepo: materialRepo,
		exporter:     exporter,
		logger:       logger,
	}
}

// EventTypes returns the event types this handler processes
func (h *MovementSyncHandler) EventTypes() []string {
	return []string{stock.EventTypeMovementRecorded}
}

// Handle processes a movement recorded event
func (h *MovementSyncHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	recorded, ok := event.(*stock.MovementRecordedEvent)
	if !ok {
		return nil
	}

	// Movements that originated from Monox must not echo back
	if recorded.IsExternalSync {
		return nil
	}

	mat, err := h.materialRepo.FindByID(ctx, recorded.MaterialID)
	if err != nil {
		h.logger.Warn("monox export skipped, material lookup failed",
			zap.String("material_id", recorded.MaterialID.String()),
			zap.Error(err))
		return nil
	}
	if !mat.SyncToMonox {
		return nil
	}

	payload := MonoxMovement{
		SKU:          mat.SKU,
		MovementType: string(recorded.MovementType),
		Quantity:     recorded.Quantity.String(),
		Reason:       recorded.Reason,
	}
	if err := h.exporter.ExportMovement(ctx, payload); err != nil {
		h.logger.Warn("monox export failed",
			zap.String("sku", mat.SKU),
			zap.String("movement_id", recorded.MovementID.String()),
			zap.Error(err))
	}
	return nil
}
