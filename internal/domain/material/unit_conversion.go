package material

import (
	"strings"

	"github.com/chemstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UnitConversion maps a source unit to a target unit for one material.
// Quantity in toUnit = quantity in fromUnit * Factor.
type UnitConversion struct {
	shared.BaseEntity
	MaterialID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_unit_conversion_pair,priority:1"`
	FromUnit   string          `gorm:"type:varchar(32);not null;uniqueIndex:idx_unit_conversion_pair,priority:2"`
	ToUnit     string          `gorm:"type:varchar(32);not null;uniqueIndex:idx_unit_conversion_pair,priority:3"`
	Factor     decimal.Decimal `gorm:"type:decimal(18,6);not null"`
}

// TableName returns the table name for GORM
func (UnitConversion) TableName() string {
	return "unit_conversions"
}

// NewUnitConversion creates a conversion row after validating the pair and factor
func NewUnitConversion(materialID uuid.UUID, fromUnit, toUnit string, factor decimal.Decimal) (*UnitConversion, error) {
	fromUnit = strings.TrimSpace(fromUnit)
	toUnit = strings.TrimSpace(toUnit)
	if fromUnit == "" || toUnit == "" {
		return nil, shared.NewDomainError("INVALID_UNIT", "Conversion units cannot be empty")
	}
	if fromUnit == toUnit {
		return nil, shared.NewDomainError("INVALID_CONVERSION", "Identity conversions are implicit and cannot be stored")
	}
	if factor.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_FACTOR", "Conversion factor must be positive")
	}

	return &UnitConversion{
		BaseEntity: shared.NewBaseEntity(),
		MaterialID: materialID,
		FromUnit:   fromUnit,
		ToUnit:     toUnit,
		Factor:     factor,
	}, nil
}
