package stock

import (
	"strings"
	"time"

	"github.com/chemstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaterialLot represents the on-hand quantity of one lot of a material at
// one storage location. It is the aggregate root of the lot ledger.
// The composite identifier is MaterialID + LotNo + StorageLocationID; the
// same lot number at a different location is a distinct row.
// Lots are never deleted, a fully issued lot remains at zero.
type MaterialLot struct {
	shared.BaseAggregateRoot
	MaterialID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_material_lot_identity,priority:1"`
	LotNo             string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_material_lot_identity,priority:2"`
	StorageLocationID *uuid.UUID      `gorm:"type:uuid;uniqueIndex:idx_material_lot_identity,priority:3"`
	QtyOnHand         decimal.Decimal `gorm:"type:decimal(18,6);not null;default:0"` // Stock units, never negative
	MfgDate           *time.Time      `gorm:"type:date"`
	ExpiryDate        *time.Time      `gorm:"type:date"`
}

// TableName returns the table name for GORM
func (MaterialLot) TableName() string {
	return "material_lots"
}

// NewMaterialLot creates a new empty lot for a material at a location
func NewMaterialLot(materialID uuid.UUID, lotNo string, storageLocationID *uuid.UUID) (*MaterialLot, error) {
	if materialID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MATERIAL", "Material ID cannot be empty")
	}
	lotNo = strings.TrimSpace(lotNo)
	if lotNo == "" {
		return nil, shared.NewDomainError("INVALID_LOT_NO", "Lot number cannot be empty")
	}

	return &MaterialLot{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		MaterialID:        materialID,
		LotNo:             lotNo,
		StorageLocationID: storageLocationID,
		QtyOnHand:         decimal.Zero,
	}, nil
}

// SetDates records manufacturing/expiry metadata, normally on first receipt
func (l *MaterialLot) SetDates(mfgDate, expiryDate *time.Time) {
	l.MfgDate = mfgDate
	l.ExpiryDate = expiryDate
	l.UpdatedAt = time.Now()
}

// Increase adds the given base-unit quantity to the lot
func (l *MaterialLot) Increase(qty decimal.Decimal) error {
	if qty.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	l.QtyOnHand = l.QtyOnHand.Add(qty)
	l.UpdatedAt = time.Now()
	l.IncrementVersion()
	return nil
}

// Decrease removes the given base-unit quantity from the lot.
// Fails with INSUFFICIENT_STOCK when the lot does not hold enough;
// the on-hand quantity can never go negative.
func (l *MaterialLot) Decrease(qty decimal.Decimal) error {
	if qty.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if l.QtyOnHand.LessThan(qty) {
		return shared.ErrInsufficientStock
	}
	l.QtyOnHand = l.QtyOnHand.Sub(qty)
	l.UpdatedAt = time.Now()
	l.IncrementVersion()
	return nil
}

// IsEmpty returns true if the lot holds no stock
func (l *MaterialLot) IsEmpty() bool {
	return l.QtyOnHand.IsZero()
}

// IsExpired returns true if the lot has passed its expiry date
func (l *MaterialLot) IsExpired() bool {
	if l.ExpiryDate == nil {
		return false
	}
	return l.ExpiryDate.Before(time.Now())
}

// WillExpireWithin returns true if the lot expires within the given duration
func (l *MaterialLot) WillExpireWithin(duration time.Duration) bool {
	if l.ExpiryDate == nil {
		return false
	}
	return l.ExpiryDate.Before(time.Now().Add(duration))
}
