package stock

import (
	"context"

	"github.com/chemstock/backend/internal/domain/material"
	"github.com/chemstock/backend/internal/domain/stock"
)

// TransactionScope provides transactional access to the lot ledger
// repositories. When a function is executed within a transaction scope,
// all repository operations are part of the same database transaction
// and commit or roll back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the ledger repositories
// within a transaction. All repositories returned share the same
// underlying database transaction.
type TransactionalRepositories interface {
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
	lotRepo      stock.MaterialLotRepository
	movementRepo stock.StockMovementRepository
	materialRepo material.Repository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	lotRepo stock.MaterialLotRepository,
	movementRepo stock.StockMovementRepository,
	materialRepo material.Repository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		lotRepo:      lotRepo,
		movementRepo: movementRepo,
		materialRepo: materialRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
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
