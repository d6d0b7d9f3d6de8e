package material

import (
	"fmt"
	"sort"

	"github.com/chemstock/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ConversionService resolves multiplicative factors between a material's
// purchase/display units and its canonical stock unit. Pure lookup over
// the material's conversion table, no side effects.
type ConversionService struct{}

// NewConversionService creates a conversion service
func NewConversionService() *ConversionService {
	return &ConversionService{}
}

// Factor returns the multiplicative factor converting fromUnit to toUnit
// for the given material. Identity pairs always resolve to 1. A pair with
// no configured conversion row is a MISSING_CONVERSION error, never a
// silent identity fallback.
func (s *ConversionService) Factor(m *Material, fromUnit, toUnit string) (decimal.Decimal, error) {
	if fromUnit == toUnit {
		return decimal.NewFromInt(1), nil
	}
	for _, conv := range m.Conversions {
		if conv.FromUnit == fromUnit && conv.ToUnit == toUnit {
			return conv.Factor, nil
		}
	}
	return decimal.Zero, shared.NewDomainError("MISSING_CONVERSION",
		fmt.Sprintf("No conversion configured for material %s from %s to %s", m.SKU, fromUnit, toUnit))
}

// ToBaseUnit converts a quantity in the given unit to the material's
// stock unit, rounded to 6 decimal places
func (s *ConversionService) ToBaseUnit(m *Material, qty decimal.Decimal, unit string) (decimal.Decimal, error) {
	factor, err := s.Factor(m, unit, m.StockUnit)
	if err != nil {
		return decimal.Zero, err
	}
	return qty.Mul(factor).Round(6), nil
}

// FromBaseUnit converts a quantity in the material's stock unit back to
// the given unit, rounded to 6 decimal places
func (s *ConversionService) FromBaseUnit(m *Material, qtyBase decimal.Decimal, unit string) (decimal.Decimal, error) {
	if unit == m.StockUnit {
		return qtyBase, nil
	}
	factor, err := s.Factor(m, unit, m.StockUnit)
	if err != nil {
		return decimal.Zero, err
	}
	return qtyBase.Div(factor).Round(6), nil
}

// AvailableUnits returns the units the material can be transacted in:
// the stock unit first, then every distinct from_unit in the conversion
// table in lexical order.
func (s *ConversionService) AvailableUnits(m *Material) []string {
	seen := map[string]bool{m.StockUnit: true}
	extras := make([]string, 0, len(m.Conversions))
	for _, conv := range m.Conversions {
		if !seen[conv.FromUnit] {
			seen[conv.FromUnit] = true
			extras = append(extras, conv.FromUnit)
		}
	}
	sort.Strings(extras)
	return append([]string{m.StockUnit}, extras...)
}

// ValidateConvertibility checks that the material's default purchase unit
// can be converted to its stock unit. Called at material save time so a
// missing pair is caught as a configuration error rather than at the
// first receiving.
func (s *ConversionService) ValidateConvertibility(m *Material) error {
	_, err := s.Factor(m, m.DefaultPurchaseUnit, m.StockUnit)
	return err
}
