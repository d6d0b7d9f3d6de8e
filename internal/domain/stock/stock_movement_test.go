package stock

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMovementType(t *testing.T) {
	increases := []MovementType{MovementTypeIn, MovementTypeAdjustIncrease, MovementTypeTransferIn}
	decreases := []MovementType{MovementTypeOut, MovementTypeAdjustDecrease, MovementTypeTransferOut}

	for _, mt := range increases {
		assert.True(t, mt.IsValid(), "%s should be valid", mt)
		assert.True(t, mt.IsIncrease(), "%s should increase", mt)
		assert.False(t, mt.IsDecrease(), "%s should not decrease", mt)
	}
	for _, mt := range decreases {
		assert.True(t, mt.IsValid(), "%s should be valid", mt)
		assert.True(t, mt.IsDecrease(), "%s should decrease", mt)
		assert.False(t, mt.IsIncrease(), "%s should not increase", mt)
	}

	assert.False(t, MovementType("BOGUS").IsValid())
}

func TestNewStockMovement(t *testing.T) {
	materialID := uuid.New()

	t.Run("creates movement successfully", func(t *testing.T) {
		m, err := NewStockMovement(materialID, MovementTypeOut,
			decimal.NewFromInt(20), "L",
			decimal.NewFromInt(50), decimal.NewFromInt(30))

		require.NoError(t, err)
		assert.Equal(t, materialID, m.MaterialID)
		assert.Equal(t, MovementTypeOut, m.MovementType)
		assert.Equal(t, ActorKindSystem, m.Actor.Kind)
		assert.False(t, m.IsExternalSync)
		assert.False(t, m.MovementDate.IsZero())
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		_, err := NewStockMovement(materialID, MovementTypeIn,
			decimal.Zero, "L", decimal.Zero, decimal.Zero)
		require.Error(t, err)

		_, err = NewStockMovement(materialID, MovementTypeIn,
			decimal.NewFromInt(-1), "L", decimal.Zero, decimal.Zero)
		require.Error(t, err)
	})

	t.Run("rejects invalid movement type", func(t *testing.T) {
		_, err := NewStockMovement(materialID, MovementType("BOGUS"),
			decimal.NewFromInt(1), "L", decimal.Zero, decimal.NewFromInt(1))
		require.Error(t, err)
	})

	t.Run("rejects nil material", func(t *testing.T) {
		_, err := NewStockMovement(uuid.Nil, MovementTypeIn,
			decimal.NewFromInt(1), "L", decimal.Zero, decimal.NewFromInt(1))
		require.Error(t, err)
	})
}

func TestStockMovement_SignedQuantity(t *testing.T) {
	materialID := uuid.New()
	qty := decimal.NewFromFloat(12.5)

	out, err := NewStockMovement(materialID, MovementTypeOut, qty, "L",
		decimal.NewFromInt(50), decimal.NewFromFloat(37.5))
	require.NoError(t, err)
	assert.True(t, out.SignedQuantity().Equal(qty.Neg()))

	in, err := NewStockMovement(materialID, MovementTypeIn, qty, "L",
		decimal.Zero, qty)
	require.NoError(t, err)
	assert.True(t, in.SignedQuantity().Equal(qty))
}

func TestStockMovement_Builders(t *testing.T) {
	materialID := uuid.New()
	lotID := uuid.New()
	userID := uuid.New()

	m, err := NewStockMovement(materialID, MovementTypeIn,
		decimal.NewFromInt(10), "L", decimal.Zero, decimal.NewFromInt(10))
	require.NoError(t, err)

	m.WithLotID(lotID).
		WithSource("RECEIVING", "rcv-42").
		WithReason("incoming delivery").
		WithActor(UserActor(userID))

	assert.Equal(t, &lotID, m.LotID)
	assert.Equal(t, "RECEIVING", m.SourceType)
	assert.Equal(t, "rcv-42", m.SourceID)
	assert.Equal(t, ActorKindUser, m.Actor.Kind)
	assert.Equal(t, &userID, m.Actor.ID)
}

func TestStockMovement_WithExternalSync(t *testing.T) {
	m, err := NewStockMovement(uuid.New(), MovementTypeIn,
		decimal.NewFromInt(10), "L", decimal.Zero, decimal.NewFromInt(10))
	require.NoError(t, err)

	m.WithExternalSync()

	assert.True(t, m.IsExternalSync)
	assert.Equal(t, ActorKindExternalSync, m.Actor.Kind)
}
