package stock

import (
	"time"

	"github.com/chemstock/backend/internal/domain/stock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IssueLine is one line of an issue request. The target lot is addressed
// either by ID or by lot number (optionally with a location).
type IssueLine struct {
	Qty               decimal.Decimal `json:"qty" binding:"required"`
	Unit              string          `json:"unit" binding:"required"`
	LotID             *uuid.UUID      `json:"lot_id"`
	LotNo             string          `json:"lot_no"`
	StorageLocationID *uuid.UUID      `json:"storage_location_id"`
	SourceType        string          `json:"source_type" binding:"required"`
	SourceID          string          `json:"source_id" binding:"required"`
}

// IssueRequest represents a request to issue stock out of one or more lots
type IssueRequest struct {
	MaterialID uuid.UUID   `json:"material_id" binding:"required"`
	Lines      []IssueLine `json:"lines" binding:"required,min=1,dive"`
	Reason     string      `json:"reason"`
	ActorID    *uuid.UUID  `json:"actor_id"`
}

// IssueLineResult reports the lot and base-unit quantity of one issued line
type IssueLineResult struct {
	LotID   uuid.UUID       `json:"lot_id"`
	LotNo   string          `json:"lot_no"`
	QtyBase decimal.Decimal `json:"qty_base"`
}

// ReceiveRequest represents a request to receive stock into a lot,
// creating the lot on first receipt of a new lot number at a location
type ReceiveRequest struct {
	MaterialID        uuid.UUID       `json:"material_id" binding:"required"`
	LotNo             string          `json:"lot_no" binding:"required"`
	StorageLocationID *uuid.UUID      `json:"storage_location_id"`
	Qty               decimal.Decimal `json:"qty" binding:"required"`
	Unit              string          `json:"unit" binding:"required"`
	MfgDate           *time.Time      `json:"mfg_date"`
	ExpiryDate        *time.Time      `json:"expiry_date"`
	SourceType        string          `json:"source_type" binding:"required"`
	SourceID          string          `json:"source_id" binding:"required"`
	Reason            string          `json:"reason"`
	ActorID           *uuid.UUID      `json:"actor_id"`
	IsExternalSync    bool            `json:"is_external_sync"` // Set when the change originates from the external system
}

// TransferRequest represents a request to move quantity between locations
type TransferRequest struct {
	SourceLotID    uuid.UUID       `json:"source_lot_id" binding:"required"`
	DestLocationID *uuid.UUID      `json:"dest_location_id"`
	Qty            decimal.Decimal `json:"qty" binding:"required"`
	Unit           string          `json:"unit" binding:"required"`
	Reason         string          `json:"reason"`
	ActorID        *uuid.UUID      `json:"actor_id"`
}

// TransferResult reports the source and destination lots after a transfer
type TransferResult struct {
	SourceLot LotResponse `json:"source_lot"`
	DestLot   LotResponse `json:"dest_lot"`
}

// AdjustRequest represents a set-to-actual stock correction for a lot
type AdjustRequest struct {
	LotID     uuid.UUID       `json:"lot_id" binding:"required"`
	ActualQty decimal.Decimal `json:"actual_qty" binding:"required"`
	Reason    string          `json:"reason" binding:"required"`
	ActorID   *uuid.UUID      `json:"actor_id"`
}

// LotResponse represents a material lot in API responses
type LotResponse struct {
	ID                uuid.UUID       `json:"id"`
	MaterialID        uuid.UUID       `json:"material_id"`
	LotNo             string          `json:"lot_no"`
	StorageLocationID *uuid.UUID      `json:"storage_location_id,omitempty"`
	QtyOnHand         decimal.Decimal `json:"qty_on_hand"`
	MfgDate           *time.Time      `json:"mfg_date,omitempty"`
	ExpiryDate        *time.Time      `json:"expiry_date,omitempty"`
	IsExpired         bool            `json:"is_expired"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ToLotResponse maps a lot to its response representation
func ToLotResponse(lot *stock.MaterialLot) LotResponse {
	return LotResponse{
		ID:                lot.ID,
		MaterialID:        lot.MaterialID,
		LotNo:             lot.LotNo,
		StorageLocationID: lot.StorageLocationID,
		QtyOnHand:         lot.QtyOnHand,
		MfgDate:           lot.MfgDate,
		ExpiryDate:        lot.ExpiryDate,
		IsExpired:         lot.IsExpired(),
		CreatedAt:         lot.CreatedAt,
		UpdatedAt:         lot.UpdatedAt,
	}
}

// ToLotResponses maps a slice of lots
func ToLotResponses(lots []stock.MaterialLot) []LotResponse {
	responses := make([]LotResponse, len(lots))
	for i := range lots {
		responses[i] = ToLotResponse(&lots[i])
	}
	return responses
}

// MovementResponse represents a stock movement in API responses
type MovementResponse struct {
	ID             uuid.UUID          `json:"id"`
	MaterialID     uuid.UUID          `json:"material_id"`
	LotID          *uuid.UUID         `json:"lot_id,omitempty"`
	MovementType   stock.MovementType `json:"movement_type"`
	Quantity       decimal.Decimal    `json:"quantity"`
	SignedQuantity decimal.Decimal    `json:"signed_quantity"`
	Unit           string             `json:"unit"`
	BalanceBefore  decimal.Decimal    `json:"balance_before"`
	BalanceAfter   decimal.Decimal    `json:"balance_after"`
	SourceType     string             `json:"source_type,omitempty"`
	SourceID       string             `json:"source_id,omitempty"`
	Reason         string             `json:"reason,omitempty"`
	Actor          stock.Actor        `json:"actor"`
	IsExternalSync bool               `json:"is_external_sync"`
	MovementDate   time.Time          `json:"movement_date"`
}

// ToMovementResponse maps a movement to its response representation
func ToMovementResponse(m *stock.StockMovement) MovementResponse {
	return MovementResponse{
		ID:             m.ID,
		MaterialID:     m.MaterialID,
		LotID:          m.LotID,
		MovementType:   m.MovementType,
		Quantity:       m.Quantity,
		SignedQuantity: m.SignedQuantity(),
		Unit:           m.Unit,
		BalanceBefore:  m.BalanceBefore,
		BalanceAfter:   m.BalanceAfter,
		SourceType:     m.SourceType,
		SourceID:       m.SourceID,
		Reason:         m.Reason,
		Actor:          m.Actor,
		IsExternalSync: m.IsExternalSync,
		MovementDate:   m.MovementDate,
	}
}

// ToMovementResponses maps a slice of movements
func ToMovementResponses(movements []stock.StockMovement) []MovementResponse {
	responses := make([]MovementResponse, len(movements))
	for i := range movements {
		responses[i] = ToMovementResponse(&movements[i])
	}
	return responses
}

// MovementListFilter represents filter options for the movement log
type MovementListFilter struct {
	MaterialID *uuid.UUID `form:"material_id"`
	LotID      *uuid.UUID `form:"lot_id"`
	Type       string     `form:"type"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// SummaryResponse carries dashboard aggregates. Served through a
// short-TTL cache, never used for ledger reads.
type SummaryResponse struct {
	MaterialCount     int64           `json:"material_count"`
	LotCount          int64           `json:"lot_count"`
	BelowMinimumCount int64           `json:"below_minimum_count"`
	TotalOnHand       decimal.Decimal `json:"total_on_hand"`
	MovementsToday    int64           `json:"movements_today"`
	GeneratedAt       time.Time       `json:"generated_at"`
}
