package persistence

import (
	"context"

	approcurement "github.com/chemstock/backend/internal/application/procurement"
	appstock "github.com/chemstock/backend/internal/application/stock"
	"github.com/chemstock/backend/internal/domain/material"
	"github.com/chemstock/backend/internal/domain/procurement"
	"github.com/chemstock/backend/internal/domain/stock"
	"gorm.io/gorm"
)

// GormStockTransactionScope implements the stock application layer's
// TransactionScope using GORM transactions.
type GormStockTransactionScope struct {
	db *gorm.DB
}

// NewGormStockTransactionScope creates a new GormStockTransactionScope
func NewGormStockTransactionScope(db *gorm.DB) *GormStockTransactionScope {
	return &GormStockTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormStockTransactionScope) Execute(ctx context.Context, fn func(repos appstock.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// GormProcurementTransactionScope implements the procurement application
// layer's TransactionScope using GORM transactions.
type GormProcurementTransactionScope struct {
	db *gorm.DB
}

// NewGormProcurementTransactionScope creates a new GormProcurementTransactionScope
func NewGormProcurementTransactionScope(db *gorm.DB) *GormProcurementTransactionScope {
	return &GormProcurementTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormProcurementTransactionScope) Execute(ctx context.Context, fn func(repos approcurement.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories provides all repositories bound to one
// transaction. It satisfies the transactional repository interfaces of both
// application layers.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// LotRepo returns the material lot repository scoped to the current transaction
func (r *gormTransactionalRepositories) LotRepo() stock.MaterialLotRepository {
	return NewGormMaterialLotRepository(r.tx)
}

// MovementRepo returns the movement log repository scoped to the current transaction
func (r *gormTransactionalRepositories) MovementRepo() stock.StockMovementRepository {
	return NewGormStockMovementRepository(r.tx)
}

// MaterialRepo returns the material repository scoped to the current transaction
func (r *gormTransactionalRepositories) MaterialRepo() material.Repository {
	return NewGormMaterialRepository(r.tx)
}

// OrderRepo returns the purchase order repository scoped to the current transaction
func (r *gormTransactionalRepositories) OrderRepo() procurement.PurchaseOrderRepository {
	return NewGormPurchaseOrderRepository(r.tx)
}

// ReceivingRepo returns the receiving repository scoped to the current transaction
func (r *gormTransactionalRepositories) ReceivingRepo() procurement.ReceivingRepository {
	return NewGormReceivingRepository(r.tx)
}

// Ensure the scopes implement the application transaction scope interfaces
var _ appstock.TransactionScope = (*GormStockTransactionScope)(nil)
var _ approcurement.TransactionScope = (*GormProcurementTransactionScope)(nil)

// Ensure gormTransactionalRepositories satisfies both repository bundles
var _ appstock.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
var _ approcurement.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
