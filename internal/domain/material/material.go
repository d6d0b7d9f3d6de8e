package material

import (
	"strings"
	"time"

	"github.com/chemstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Material represents a chemical material tracked in stock.
// It is the aggregate root for the material catalog, including
// its per-material unit conversion table.
type Material struct {
	shared.BaseAggregateRoot
	SKU                 string           `gorm:"type:varchar(64);not null;uniqueIndex"`
	Name                string           `gorm:"type:varchar(255);not null"`
	Description         string           `gorm:"type:text"`
	StockUnit           string           `gorm:"type:varchar(32);not null"` // Canonical unit all quantities are accounted in
	DefaultPurchaseUnit string           `gorm:"type:varchar(32);not null"`
	MinStock            *decimal.Decimal `gorm:"type:decimal(18,6)"` // Threshold for low-stock alerts, nil disables
	MaxStock            *decimal.Decimal `gorm:"type:decimal(18,6)"`
	CurrentStock        decimal.Decimal  `gorm:"type:decimal(18,6);not null;default:0"` // Recomputed from lot sums, never incremented by callers
	SyncToMonox         bool             `gorm:"not null;default:false"`
	IsLotManaged        bool             `gorm:"not null;default:true"`

	// Associations - loaded lazily
	Conversions []UnitConversion `gorm:"foreignKey:MaterialID;references:ID"`
}

// TableName returns the table name for GORM
func (Material) TableName() string {
	return "materials"
}

// NewMaterial creates a new material with the given identity and units
func NewMaterial(sku, name, stockUnit, defaultPurchaseUnit string) (*Material, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Material name cannot be empty")
	}
	if strings.TrimSpace(stockUnit) == "" {
		return nil, shared.NewDomainError("INVALID_UNIT", "Stock unit cannot be empty")
	}
	if strings.TrimSpace(defaultPurchaseUnit) == "" {
		defaultPurchaseUnit = stockUnit
	}

	return &Material{
		BaseAggregateRoot:   shared.NewBaseAggregateRoot(),
		SKU:                 sku,
		Name:                name,
		StockUnit:           stockUnit,
		DefaultPurchaseUnit: defaultPurchaseUnit,
		CurrentStock:        decimal.Zero,
		IsLotManaged:        true,
		Conversions:         make([]UnitConversion, 0),
	}, nil
}

// UpdateDetails updates the descriptive fields of the material
func (m *Material) UpdateDetails(name, description string) error {
	if strings.TrimSpace(name) == "" {
		return shared.NewDomainError("INVALID_NAME", "Material name cannot be empty")
	}
	m.Name = name
	m.Description = description
	m.UpdatedAt = time.Now()
	m.IncrementVersion()
	return nil
}

// SetThresholds sets the min/max stock thresholds, nil disables a threshold
func (m *Material) SetThresholds(minStock, maxStock *decimal.Decimal) error {
	if minStock != nil && minStock.IsNegative() {
		return shared.NewDomainError("INVALID_THRESHOLD", "Minimum stock cannot be negative")
	}
	if maxStock != nil && maxStock.IsNegative() {
		return shared.NewDomainError("INVALID_THRESHOLD", "Maximum stock cannot be negative")
	}
	if minStock != nil && maxStock != nil && maxStock.LessThan(*minStock) {
		return shared.NewDomainError("INVALID_THRESHOLD", "Maximum stock must be greater than or equal to minimum stock")
	}
	m.MinStock = minStock
	m.MaxStock = maxStock
	m.UpdatedAt = time.Now()
	m.IncrementVersion()
	return nil
}

// EnableMonoxSync toggles the outbound movement sync flag
func (m *Material) EnableMonoxSync(enabled bool) {
	m.SyncToMonox = enabled
	m.UpdatedAt = time.Now()
	m.IncrementVersion()
}

// IsBelowMinimum reports whether the given quantity is below the
// configured minimum threshold. Always false when no threshold is set.
func (m *Material) IsBelowMinimum(qty decimal.Decimal) bool {
	if m.MinStock == nil {
		return false
	}
	return qty.LessThan(*m.MinStock)
}

// AddConversion adds a unit conversion row to the material's table
func (m *Material) AddConversion(fromUnit, toUnit string, factor decimal.Decimal) error {
	conv, err := NewUnitConversion(m.ID, fromUnit, toUnit, factor)
	if err != nil {
		return err
	}
	for _, existing := range m.Conversions {
		if existing.FromUnit == conv.FromUnit && existing.ToUnit == conv.ToUnit {
			return shared.NewDomainError("DUPLICATE_CONVERSION", "A conversion for this unit pair already exists")
		}
	}
	m.Conversions = append(m.Conversions, *conv)
	m.UpdatedAt = time.Now()
	m.IncrementVersion()
	return nil
}

// RemoveConversionByID removes a conversion row by its identifier
func (m *Material) RemoveConversionByID(conversionID uuid.UUID) error {
	for i, existing := range m.Conversions {
		if existing.ID == conversionID {
			m.Conversions = append(m.Conversions[:i], m.Conversions[i+1:]...)
			m.UpdatedAt = time.Now()
			m.IncrementVersion()
			return nil
		}
	}
	return shared.ErrNotFound
}

// RemoveConversion removes a conversion row by its unit pair
func (m *Material) RemoveConversion(fromUnit, toUnit string) error {
	for i, existing := range m.Conversions {
		if existing.FromUnit == fromUnit && existing.ToUnit == toUnit {
			m.Conversions = append(m.Conversions[:i], m.Conversions[i+1:]...)
			m.UpdatedAt = time.Now()
			m.IncrementVersion()
			return nil
		}
	}
	return shared.ErrNotFound
}
