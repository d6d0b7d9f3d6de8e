package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/chemstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newMockMaterialRepository(t *testing.T) (*GormMaterialRepository, sqlmock.Sqlmock, *sql.DB) {
	gormDB, mock, mockDB := newMockDB(t)
	return NewGormMaterialRepository(gormDB), mock, mockDB
}

func TestGormMaterialRepository_FindByIDWithConversions(t *testing.T) {
	t.Run("preloads conversion rows", func(t *testing.T) {
		repo, mock, mockDB := newMockMaterialRepository(t)
		defer mockDB.Close()

		materialID := uuid.New()

		materialRows := sqlmock.NewRows([]string{"id", "sku", "name", "stock_unit", "default_purchase_unit", "current_stock", "version"}).
			AddRow(materialID, "ACETONE-01", "Acetone", "L", "DRUM", decimal.NewFromInt(500), 1)

		mock.ExpectQuery(`SELECT \* FROM "materials" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(materialID, 1).
			WillReturnRows(materialRows)

		conversionRows := sqlmock.NewRows([]string{"id", "material_id", "from_unit", "to_unit", "factor"}).
			AddRow(uuid.New(), materialID, "DRUM", "L", decimal.NewFromInt(200))

		mock.ExpectQuery(`SELECT \* FROM "unit_conversions" WHERE "unit_conversions"\."material_id" = \$1`).
			WithArgs(materialID).
			WillReturnRows(conversionRows)

		m, err := repo.FindByIDWithConversions(context.Background(), materialID)

		assert.NoError(t, err)
		require.NotNil(t, m)
		assert.Equal(t, "ACETONE-01", m.SKU)
		require.Len(t, m.Conversions, 1)
		assert.Equal(t, "DRUM", m.Conversions[0].FromUnit)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps missing material to ErrNotFound", func(t *testing.T) {
		repo, mock, mockDB := newMockMaterialRepository(t)
		defer mockDB.Close()

		materialID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "materials" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(materialID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		m, err := repo.FindByIDWithConversions(context.Background(), materialID)

		assert.Nil(t, m)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormMaterialRepository_ExistsBySKU(t *testing.T) {
	t.Run("true when SKU exists", func(t *testing.T) {
		repo, mock, mockDB := newMockMaterialRepository(t)
		defer mockDB.Close()

		rows := sqlmock.NewRows([]string{"count"}).AddRow(int64(1))

		mock.ExpectQuery(`SELECT count\(\*\) FROM "materials" WHERE sku = \$1`).
			WithArgs("ACETONE-01").
			WillReturnRows(rows)

		exists, err := repo.ExistsBySKU(context.Background(), "ACETONE-01")

		assert.NoError(t, err)
		assert.True(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormMaterialRepository_FindSyncedToMonox(t *testing.T) {
	t.Run("filters on sync flag", func(t *testing.T) {
		repo, mock, mockDB := newMockMaterialRepository(t)
		defer mockDB.Close()

		rows := sqlmock.NewRows([]string{"id", "sku", "name", "stock_unit", "default_purchase_unit", "sync_to_monox", "version"}).
			AddRow(uuid.New(), "ACETONE-01", "Acetone", "L", "DRUM", true, 1)

		mock.ExpectQuery(`SELECT \* FROM "materials" WHERE sync_to_monox = \$1`).
			WithArgs(true).
			WillReturnRows(rows)

		materials, err := repo.FindSyncedToMonox(context.Background())

		assert.NoError(t, err)
		require.Len(t, materials, 1)
		assert.True(t, materials[0].SyncToMonox)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
