package stock

import (
	"time"

	"github.com/chemstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementType represents the semantic type of a stock movement
type MovementType string

const (
	// MovementTypeIn represents stock coming in (purchase receiving)
	MovementTypeIn MovementType = "IN"
	// MovementTypeOut represents stock issued out (production, consumption)
	MovementTypeOut MovementType = "OUT"
	// MovementTypeAdjustIncrease represents a positive stock correction
	MovementTypeAdjustIncrease MovementType = "ADJUST_INCREASE"
	// MovementTypeAdjustDecrease represents a negative stock correction
	MovementTypeAdjustDecrease MovementType = "ADJUST_DECREASE"
	// MovementTypeTransferIn represents stock arriving from another location
	MovementTypeTransferIn MovementType = "TRANSFER_IN"
	// MovementTypeTransferOut represents stock leaving for another location
	MovementTypeTransferOut MovementType = "TRANSFER_OUT"
)

// String returns the string representation of MovementType
func (t MovementType) String() string {
	return string(t)
}

// IsValid returns true if the movement type is valid
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeIn,
		MovementTypeOut,
		MovementTypeAdjustIncrease,
		MovementTypeAdjustDecrease,
		MovementTypeTransferIn,
		MovementTypeTransferOut:
		return true
	}
	return false
}

// IsIncrease returns true if this movement type increases on-hand quantity
func (t MovementType) IsIncrease() bool {
	switch t {
	case MovementTypeIn, MovementTypeAdjustIncrease, MovementTypeTransferIn:
		return true
	}
	return false
}

// IsDecrease returns true if this movement type decreases on-hand quantity
func (t MovementType) IsDecrease() bool {
	switch t {
	case MovementTypeOut, MovementTypeAdjustDecrease, MovementTypeTransferOut:
		return true
	}
	return false
}

// ActorKind identifies what kind of actor caused a movement
type ActorKind string

const (
	// ActorKindUser is a human operator
	ActorKindUser ActorKind = "USER"
	// ActorKindSystem is an internal automated process
	ActorKindSystem ActorKind = "SYSTEM"
	// ActorKindExternalSync is the external inventory system pushing changes in
	ActorKindExternalSync ActorKind = "EXTERNAL_SYNC"
)

// IsValid returns true if the actor kind is valid
func (k ActorKind) IsValid() bool {
	switch k {
	case ActorKindUser, ActorKindSystem, ActorKindExternalSync:
		return true
	}
	return false
}

// Actor identifies who or what caused a movement
type Actor struct {
	Kind ActorKind  `gorm:"column:actor_kind;type:varchar(20);not null;default:'SYSTEM'" json:"kind"`
	ID   *uuid.UUID `gorm:"column:actor_id;type:uuid" json:"id,omitempty"`
}

// SystemActor returns the default actor for internally triggered movements
func SystemActor() Actor {
	return Actor{Kind: ActorKindSystem}
}

// UserActor returns an actor for a human operator
func UserActor(userID uuid.UUID) Actor {
	return Actor{Kind: ActorKindUser, ID: &userID}
}

// ExternalSyncActor returns the actor for movements pushed in by the
// external inventory system
func ExternalSyncActor() Actor {
	return Actor{Kind: ActorKindExternalSync}
}

// StockMovement is an immutable record of one quantity change for one
// material, optionally one lot. Movements are append-only: corrections
// are made with new adjustment movements, never by editing history.
// The sum of signed quantities for a lot reconciles to its on-hand total.
type StockMovement struct {
	shared.BaseEntity
	MaterialID     uuid.UUID       `gorm:"type:uuid;not null;index:idx_stock_movement_material"`
	LotID          *uuid.UUID      `gorm:"type:uuid;index:idx_stock_movement_lot"` // Nullable for non-lot-managed materials
	MovementType   MovementType    `gorm:"type:varchar(20);not null;index:idx_stock_movement_type"`
	Quantity       decimal.Decimal `gorm:"type:decimal(18,6);not null"` // Always positive, in stock units; direction from type
	Unit           string          `gorm:"type:varchar(32);not null"`   // Unit label the operation was entered in
	BalanceBefore  decimal.Decimal `gorm:"type:decimal(18,6);not null"` // Lot on-hand before the movement
	BalanceAfter   decimal.Decimal `gorm:"type:decimal(18,6);not null"` // Lot on-hand after the movement
	SourceType     string          `gorm:"type:varchar(50);index:idx_stock_movement_source,priority:1"` // Polymorphic cause document type
	SourceID       string          `gorm:"type:varchar(64);index:idx_stock_movement_source,priority:2"`
	Reason         string          `gorm:"type:varchar(255)"`
	Actor          Actor           `gorm:"embedded"`
	IsExternalSync bool            `gorm:"not null;default:false"` // Suppresses the outbound sync hook to prevent loops
	MovementDate   time.Time       `gorm:"type:timestamptz;not null;index"`
}

// TableName returns the table name for GORM
func (StockMovement) TableName() string {
	return "stock_movements"
}

// NewStockMovement creates a new movement record
func NewStockMovement(
	materialID uuid.UUID,
	movementType MovementType,
	quantity decimal.Decimal,
	unit string,
	balanceBefore, balanceAfter decimal.Decimal,
) (*StockMovement, error) {
	if materialID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MATERIAL", "Material ID cannot be empty")
	}
	if !movementType.IsValid() {
		return nil, shared.NewDomainError("INVALID_MOVEMENT_TYPE", "Invalid movement type")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unit == "" {
		return nil, shared.NewDomainError("INVALID_UNIT", "Unit cannot be empty")
	}

	return &StockMovement{
		BaseEntity:    shared.NewBaseEntity(),
		MaterialID:    materialID,
		MovementType:  movementType,
		Quantity:      quantity,
		Unit:          unit,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceAfter,
		Actor:         SystemActor(),
		MovementDate:  time.Now(),
	}, nil
}

// WithLotID sets the lot the movement applies to
func (m *StockMovement) WithLotID(lotID uuid.UUID) *StockMovement {
	m.LotID = &lotID
	return m
}

// WithSource sets the polymorphic cause document reference
func (m *StockMovement) WithSource(sourceType, sourceID string) *StockMovement {
	m.SourceType = sourceType
	m.SourceID = sourceID
	return m
}

// WithReason sets the free-text reason
func (m *StockMovement) WithReason(reason string) *StockMovement {
	m.Reason = reason
	return m
}

// WithActor sets the actor that caused the movement
func (m *StockMovement) WithActor(actor Actor) *StockMovement {
	m.Actor = actor
	return m
}

// WithExternalSync flags the movement as originating from the external
// inventory system, suppressing the outbound notification
func (m *StockMovement) WithExternalSync() *StockMovement {
	m.IsExternalSync = true
	m.Actor = ExternalSyncActor()
	return m
}

// WithMovementDate overrides the movement timestamp
func (m *StockMovement) WithMovementDate(date time.Time) *StockMovement {
	m.MovementDate = date
	return m
}

// SignedQuantity returns the quantity with sign based on movement type,
// positive for increases and negative for decreases
func (m *StockMovement) SignedQuantity() decimal.Decimal {
	if m.MovementType.IsDecrease() {
		return m.Quantity.Neg()
	}
	return m.Quantity
}
