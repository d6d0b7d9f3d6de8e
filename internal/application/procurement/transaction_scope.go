package procurement

import (
	"context"

	"github.com/chemstock/backend/internal/domain/material"
	"github.com/chemstock/backend/internal/domain/procurement"
	"github.com/chemstock/backend/internal/domain/stock"
)

// TransactionScope provides transactional access to the repositories a
// receiving or cancellation touches. Order state, receipt rows, lot
// quantities, and movements commit or roll back together.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the procurement and
// ledger repositories within a transaction
type TransactionalRepositories interface {
	// OrderRepo returns the purchase order repository scoped to the current transaction
	OrderRepo() procurement.PurchaseOrderRepository
	// ReceivingRepo returns the receiving repository scoped to the current transaction
	ReceivingRepo() procurement.ReceivingRepository
	// LotRepo returns the material lot repository scoped to the current transaction
	LotRepo() stock.MaterialLotRepository
	// MovementRepo returns the movement log repository scoped to the current transaction
	MovementRepo() stock.StockMovementRepository
	// MaterialRepo returns the material repository scoped to the current transaction
	MaterialRepo() material.Repository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. Useful for testing.
type NoOpTransactionScope struct {
	orderRepo     procurement.PurchaseOrderRepository
	receivingRepo procurement.ReceivingRepository
	lotRepo       stock.MaterialLotRepository
	movementRepo  stock.StockMovementRepository
	materialRepo  material.Repository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	orderRepo procurement.PurchaseOrderRepository,
	receivingRepo procurement.ReceivingRepository,
	lotRepo stock.MaterialLotRepository,
	movementRepo stock.StockMovementRepository,
	materialRepo material.Repository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		orderRepo:     orderRepo,
		receivingRepo: receivingRepo,
		lotRepo:       lotRepo,
		movementRepo:  movementRepo,
		materialRepo:  materialRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// OrderRepo returns the purchase order repository.
func (s *NoOpTransactionScope) OrderRepo() procurement.PurchaseOrderRepository {
	return s.orderRepo
}

// ReceivingRepo returns the receiving repository.
func (s *NoOpTransactionScope) ReceivingRepo() procurement.ReceivingRepository {
	return s.receivingRepo
}

// LotRepo returns the material lot repository.
func (s *NoOpTransactionScope) LotRepo() stock.MaterialLotRepository {
	return s.lotRepo
}

// MovementRepo returns the movement log repository.
func (s *NoOpTransactionScope) MovementRepo() stock.StockMovementRepository {
	return s.movementRepo
}

// MaterialRepo returns the material repository.
func (s *NoOpTransactionScope) MaterialRepo() material.Repository {
	return s.materialRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
