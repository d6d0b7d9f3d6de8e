package procurement

import (
	"context"

	"github.com/chemstock/backend/internal/domain/material"
	"github.com/chemstock/backend/internal/domain/procurement"
	"github.com/shopspring/decimal"
)

// orderedBaseQty converts a line's effective ordered quantity to base
// units. Ad-hoc lines without a material reference are accounted in the
// entered unit directly.
func orderedBaseQty(ctx context.Context, conversion *material.ConversionService, materialRepo material.Repository, item *procurement.PurchaseOrderItem) (decimal.Decimal, error) {
	effective := item.EffectiveOrdered()
	if item.MaterialID == nil {
		return effective, nil
	}
	mat, err := materialRepo.FindByIDWithConversions(ctx, *item.MaterialID)
	if err != nil {
		return decimal.Zero, err
	}
	return conversion.ToBaseUnit(mat, effective, item.PurchaseUnit)
}

// remainingBaseQty computes a line's open base quantity net of receipts,
// floored at zero
func remainingBaseQty(orderedBase, receivedBase decimal.Decimal) decimal.Decimal {
	remaining := orderedBase.Sub(receivedBase)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// linesExhausted reports whether every non-shipping line of the order
// has zero remaining base quantity
func linesExhausted(ctx context.Context, conversion *material.ConversionService, repos TransactionalRepositories, order *procurement.PurchaseOrder) (bool, error) {
	receivedByItem, err := repos.ReceivingRepo().SumBaseByOrder(ctx, order.ID)
	if err != nil {
		return false, err
	}
	for i := range order.Items {
		item := &order.Items[i]
		if item.IsShippingFee() {
			continue
		}
		orderedBase, err := orderedBaseQty(ctx, conversion, repos.MaterialRepo(), item)
		if err != nil {
			return false, err
		}
		if remainingBaseQty(orderedBase, receivedByItem[item.ID]).GreaterThan(decimal.Zero) {
			return false, nil
		}
	}
	return true, nil
}
