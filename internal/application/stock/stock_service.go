package stock

import (
	"bytes"
	"context"
	"time"

	"github.com/chemstock/backend/internal/domain/material"
	"github.com/chemstock/backend/internal/domain/shared"
	"github.com/chemstock/backend/internal/domain/stock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SummaryCache caches dashboard aggregates for a few minutes. The lot
// ledger itself is never read through it.
type SummaryCache interface {
	Get(ctx context.Context) (*SummaryResponse, bool)
	Set(ctx context.Context, summary *SummaryResponse)
}

// Service handles the lot ledger operations: issue, receive, transfer,
// and adjust. Every mutation runs inside a single transaction that
// row-locks the target lot before the balance check, appends exactly one
// movement per lot touched, and recomputes the material's denormalized
// current stock from the lot sum.
type Service struct {
	lotRepo        stock.MaterialLotRepository
	movementRepo   stock.StockMovementRepository
	locationRepo   stock.StorageLocationRepository
	materialRepo   material.Repository
	txScope        TransactionScope
	conversion     *material.ConversionService
	summaryCache   SummaryCache
	eventPublisher shared.EventPublisher
}

// NewService creates a new stock service
func NewService(
	lotRepo stock.MaterialLotRepository,
	movementRepo stock.StockMovementRepository,
	locationRepo stock.StorageLocationRepository,
	materialRepo material.Repository,
	txScope TransactionScope,
	conversion *material.ConversionService,
) *Service {
	return &Service{
		lotRepo:      lotRepo,
		movementRepo: movementRepo,
		locationRepo: locationRepo,
		materialRepo: materialRepo,
		txScope:      txScope,
		conversion:   conversion,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetSummaryCache sets the dashboard summary cache
func (s *Service) SetSummaryCache(cache SummaryCache) {
	s.summaryCache = cache
}

// Issue issues stock out of one or more lots of a material. Each line is
// converted to base units, checked against the locked lot's balance, and
// recorded as one OUT movement. Any failing line rolls back the whole
// request.
func (s *Service) Issue(ctx context.Context, req IssueRequest) ([]IssueLineResult, error) {
	if len(req.Lines) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "At least one issue line is required")
	}
	for _, line := range req.Lines {
		if line.Qty.LessThanOrEqual(decimal.Zero) {
			return nil, shared.NewDomainError("INVALID_INPUT", "Issue quantity must be positive")
		}
		if line.Unit == "" {
			return nil, shared.NewDomainError("INVALID_INPUT", "Issue unit is required")
		}
		if line.LotID == nil && line.LotNo == "" {
			return nil, shared.NewDomainError("INVALID_INPUT", "Each line must reference a lot by ID or lot number")
		}
	}

	results := make([]IssueLineResult, 0, len(req.Lines))
	var events []shared.DomainEvent

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		mat, err := repos.MaterialRepo().FindByIDWithConversions(ctx, req.MaterialID)
		if err != nil {
			return err
		}

		for _, line := range req.Lines {
			qtyBase, err := s.conversion.ToBaseUnit(mat, line.Qty, line.Unit)
			if err != nil {
				return err
			}

			lot, err := s.lockLine(ctx, repos, mat.ID, line)
			if err != nil {
				return err
			}

			balanceBefore := lot.QtyOnHand
			if err := lot.Decrease(qtyBase); err != nil {
				return err
			}
			if err := repos.LotRepo().SaveWithLock(ctx, lot); err != nil {
				return err
			}

			movement, err := stock.NewStockMovement(mat.ID, stock.MovementTypeOut, qtyBase, line.Unit, balanceBefore, lot.QtyOnHand)
			if err != nil {
				return err
			}
			movement.WithLotID(lot.ID).
				WithSource(line.SourceType, line.SourceID).
				WithReason(req.Reason).
				WithActor(actorFrom(req.ActorID))
			if err := repos.MovementRepo().Create(ctx, movement); err != nil {
				return err
			}
			events = append(events, stock.NewMovementRecordedEvent(movement))

			results = append(results, IssueLineResult{LotID: lot.ID, LotNo: lot.LotNo, QtyBase: qtyBase})
		}

		thresholdEvent, err := s.recomputeCurrentStock(ctx, repos, mat.ID)
		if err != nil {
			return err
		}
		if thresholdEvent != nil {
			events = append(events, thresholdEvent)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, events)
	return results, nil
}

// Receive receives stock into a lot, creating the lot on first receipt
// of a new lot number at a location. Metadata is recorded on creation
// only; later receipts into the same lot keep the original dates.
func (s *Service) Receive(ctx context.Context, req ReceiveRequest) (*LotResponse, error) {
	if req.Qty.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Receive quantity must be positive")
	}
	if req.LotNo == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Lot number is required")
	}

	var response LotResponse
	var events []shared.DomainEvent

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		mat, err := repos.MaterialRepo().FindByIDWithConversions(ctx, req.MaterialID)
		if err != nil {
			return err
		}

		qtyBase, err := s.conversion.ToBaseUnit(mat, req.Qty, req.Unit)
		if err != nil {
			return err
		}

		lot, err := repos.LotRepo().FindByIdentityForUpdate(ctx, mat.ID, req.LotNo, req.StorageLocationID)
		if err != nil {
			if !shared.IsNotFound(err) {
				return err
			}
			lot, err = stock.NewMaterialLot(mat.ID, req.LotNo, req.StorageLocationID)
			if err != nil {
				return err
			}
			lot.SetDates(req.MfgDate, req.ExpiryDate)
		}

		balanceBefore := lot.QtyOnHand
		if err := lot.Increase(qtyBase); err != nil {
			return err
		}
		if err := repos.LotRepo().Save(ctx, lot); err != nil {
			return err
		}

		movement, err := stock.NewStockMovement(mat.ID, stock.MovementTypeIn, qtyBase, req.Unit, balanceBefore, lot.QtyOnHand)
		if err != nil {
			return err
		}
		movement.WithLotID(lot.ID).
			WithSource(req.SourceType, req.SourceID).
			WithReason(req.Reason).
			WithActor(actorFrom(req.ActorID))
		if req.IsExternalSync {
			movement.WithExternalSync()
		}
		if err := repos.MovementRepo().Create(ctx, movement); err != nil {
			return err
		}
		events = append(events, stock.NewMovementRecordedEvent(movement))

		if _, err := s.recomputeCurrentStock(ctx, repos, mat.ID); err != nil {
			return err
		}

		response = ToLotResponse(lot)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, events)
	return &response, nil
}

// Transfer moves quantity from a source lot to the same lot number at
// another location, creating the destination lot when it does not exist
// yet. Both movements share one transaction; quantity is conserved.
func (s *Service) Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	if req.Qty.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Transfer quantity must be positive")
	}

	var result TransferResult
	var events []shared.DomainEvent

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		probe, err := repos.LotRepo().FindByID(ctx, req.SourceLotID)
		if err != nil {
			return err
		}
		if sameLocation(probe.StorageLocationID, req.DestLocationID) {
			return shared.NewDomainError("INVALID_INPUT", "Destination location must differ from the source location")
		}

		destProbe, err := repos.LotRepo().FindByIdentity(ctx, probe.MaterialID, probe.LotNo, req.DestLocationID)
		if err != nil && !shared.IsNotFound(err) {
			return err
		}

		// Lock the two rows in ascending ID order so two opposite
		// transfers over the same pair of lots cannot deadlock
		var source, dest *stock.MaterialLot
		if destProbe != nil && bytes.Compare(destProbe.ID[:], req.SourceLotID[:]) < 0 {
			dest, err = repos.LotRepo().FindByIDForUpdate(ctx, destProbe.ID)
			if err != nil {
				return err
			}
			source, err = repos.LotRepo().FindByIDForUpdate(ctx, req.SourceLotID)
			if err != nil {
				return err
			}
		} else {
			source, err = repos.LotRepo().FindByIDForUpdate(ctx, req.SourceLotID)
			if err != nil {
				return err
			}
			// The destination may have been created since the probe
			dest, err = repos.LotRepo().FindByIdentityForUpdate(ctx, source.MaterialID, source.LotNo, req.DestLocationID)
			if err != nil {
				if !shared.IsNotFound(err) {
					return err
				}
				dest, err = stock.NewMaterialLot(source.MaterialID, source.LotNo, req.DestLocationID)
				if err != nil {
					return err
				}
				dest.SetDates(source.MfgDate, source.ExpiryDate)
			}
		}

		mat, err := repos.MaterialRepo().FindByIDWithConversions(ctx, source.MaterialID)
		if err != nil {
			return err
		}
		qtyBase, err := s.conversion.ToBaseUnit(mat, req.Qty, req.Unit)
		if err != nil {
			return err
		}

		sourceBefore := source.QtyOnHand
		if err := source.Decrease(qtyBase); err != nil {
			return err
		}
		if err := repos.LotRepo().SaveWithLock(ctx, source); err != nil {
			return err
		}

		destBefore := dest.QtyOnHand
		if err := dest.Increase(qtyBase); err != nil {
			return err
		}
		if err := repos.LotRepo().Save(ctx, dest); err != nil {
			return err
		}

		actor := actorFrom(req.ActorID)
		out, err := stock.NewStockMovement(source.MaterialID, stock.MovementTypeTransferOut, qtyBase, req.Unit, sourceBefore, source.QtyOnHand)
		if err != nil {
			return err
		}
		out.WithLotID(source.ID).
			WithSource("TRANSFER", dest.ID.String()).
			WithReason(req.Reason).
			WithActor(actor)
		if err := repos.MovementRepo().Create(ctx, out); err != nil {
			return err
		}

		in, err := stock.NewStockMovement(source.MaterialID, stock.MovementTypeTransferIn, qtyBase, req.Unit, destBefore, dest.QtyOnHand)
		if err != nil {
			return err
		}
		in.WithLotID(dest.ID).
			WithSource("TRANSFER", source.ID.String()).
			WithReason(req.Reason).
			WithActor(actor)
		if err := repos.MovementRepo().Create(ctx, in); err != nil {
			return err
		}

		events = append(events, stock.NewMovementRecordedEvent(out), stock.NewMovementRecordedEvent(in))

		// A transfer is quantity-neutral per material, the recompute keeps
		// the aggregate honest regardless
		if _, err := s.recomputeCurrentStock(ctx, repos, source.MaterialID); err != nil {
			return err
		}

		result = TransferResult{SourceLot: ToLotResponse(source), DestLot: ToLotResponse(dest)}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, events)
	return &result, nil
}

// Adjust corrects a lot to a counted actual quantity, recording the
// delta as an adjustment movement. A zero delta is a no-op.
func (s *Service) Adjust(ctx context.Context, req AdjustRequest) (*LotResponse, error) {
	if req.ActualQty.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Actual quantity cannot be negative")
	}
	if req.Reason == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Adjustment reason is required")
	}

	var response LotResponse
	var events []shared.DomainEvent

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		lot, err := repos.LotRepo().FindByIDForUpdate(ctx, req.LotID)
		if err != nil {
			return err
		}

		mat, err := repos.MaterialRepo().FindByID(ctx, lot.MaterialID)
		if err != nil {
			return err
		}

		delta := req.ActualQty.Sub(lot.QtyOnHand)
		if delta.IsZero() {
			response = ToLotResponse(lot)
			return nil
		}

		balanceBefore := lot.QtyOnHand
		movementType := stock.MovementTypeAdjustIncrease
		if delta.IsNegative() {
			movementType = stock.MovementTypeAdjustDecrease
			if err := lot.Decrease(delta.Neg()); err != nil {
				return err
			}
		} else {
			if err := lot.Increase(delta); err != nil {
				return err
			}
		}
		if err := repos.LotRepo().SaveWithLock(ctx, lot); err != nil {
			return err
		}

		movement, err := stock.NewStockMovement(mat.ID, movementType, delta.Abs(), mat.StockUnit, balanceBefore, lot.QtyOnHand)
		if err != nil {
			return err
		}
		movement.WithLotID(lot.ID).
			WithSource("MANUAL_ADJUSTMENT", lot.ID.String()).
			WithReason(req.Reason).
			WithActor(actorFrom(req.ActorID))
		if err := repos.MovementRepo().Create(ctx, movement); err != nil {
			return err
		}
		events = append(events, stock.NewMovementRecordedEvent(movement))

		thresholdEvent, err := s.recomputeCurrentStock(ctx, repos, mat.ID)
		if err != nil {
			return err
		}
		if thresholdEvent != nil {
			events = append(events, thresholdEvent)
		}

		response = ToLotResponse(lot)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, events)
	return &response, nil
}

// GetLot retrieves a lot by ID
func (s *Service) GetLot(ctx context.Context, lotID uuid.UUID) (*LotResponse, error) {
	lot, err := s.lotRepo.FindByID(ctx, lotID)
	if err != nil {
		return nil, err
	}
	response := ToLotResponse(lot)
	return &response, nil
}

// ListLots retrieves the lots of a material
func (s *Service) ListLots(ctx context.Context, materialID uuid.UUID, filter shared.Filter) ([]LotResponse, error) {
	lots, err := s.lotRepo.FindByMaterial(ctx, materialID, filter)
	if err != nil {
		return nil, err
	}
	return ToLotResponses(lots), nil
}

// ListMovements retrieves movement log entries. Always a live read.
func (s *Service) ListMovements(ctx context.Context, filter MovementListFilter) ([]MovementResponse, error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	domainFilter.OrderBy = "movement_date"
	if filter.Type != "" {
		domainFilter.Filters["movement_type"] = filter.Type
	}

	switch {
	case filter.LotID != nil:
		movements, err := s.movementRepo.FindByLot(ctx, *filter.LotID, domainFilter)
		if err != nil {
			return nil, err
		}
		return ToMovementResponses(movements), nil
	case filter.MaterialID != nil:
		movements, err := s.movementRepo.FindByMaterial(ctx, *filter.MaterialID, domainFilter)
		if err != nil {
			return nil, err
		}
		return ToMovementResponses(movements), nil
	default:
		return nil, shared.NewDomainError("INVALID_INPUT", "A material or lot filter is required")
	}
}

// ReconcileLot verifies that the sum of signed movements for a lot
// equals its current on-hand quantity
func (s *Service) ReconcileLot(ctx context.Context, lotID uuid.UUID) (bool, decimal.Decimal, error) {
	lot, err := s.lotRepo.FindByID(ctx, lotID)
	if err != nil {
		return false, decimal.Zero, err
	}
	sum, err := s.movementRepo.SumSignedQuantityByLot(ctx, lotID)
	if err != nil {
		return false, decimal.Zero, err
	}
	return sum.Equal(lot.QtyOnHand), sum, nil
}

// Summary returns dashboard aggregates, served from the short-TTL cache
// when warm
func (s *Service) Summary(ctx context.Context) (*SummaryResponse, error) {
	if s.summaryCache != nil {
		if cached, ok := s.summaryCache.Get(ctx); ok {
			return cached, nil
		}
	}

	filter := shared.DefaultFilter()
	materialCount, err := s.materialRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	lotCount, err := s.lotRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	belowMin := shared.DefaultFilter()
	belowMin.Filters["below_minimum"] = true
	belowMinCount, err := s.materialRepo.Count(ctx, belowMin)
	if err != nil {
		return nil, err
	}

	totalOnHand, err := s.lotRepo.SumOnHand(ctx)
	if err != nil {
		return nil, err
	}

	today := shared.DefaultFilter()
	today.Filters["since"] = time.Now().Truncate(24 * time.Hour)
	movementsToday, err := s.movementRepo.Count(ctx, today)
	if err != nil {
		return nil, err
	}

	summary := &SummaryResponse{
		MaterialCount:     materialCount,
		LotCount:          lotCount,
		BelowMinimumCount: belowMinCount,
		TotalOnHand:       totalOnHand,
		MovementsToday:    movementsToday,
		GeneratedAt:       time.Now(),
	}
	if s.summaryCache != nil {
		s.summaryCache.Set(ctx, summary)
	}
	return summary, nil
}

// CreateLocation registers a storage location
func (s *Service) CreateLocation(ctx context.Context, code, name string) (*stock.StorageLocation, error) {
	if existing, err := s.locationRepo.FindByCode(ctx, code); err == nil && existing != nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "A storage location with this code already exists")
	} else if err != nil && !shared.IsNotFound(err) {
		return nil, err
	}
	location, err := stock.NewStorageLocation(code, name)
	if err != nil {
		return nil, err
	}
	if err := s.locationRepo.Save(ctx, location); err != nil {
		return nil, err
	}
	return location, nil
}

// ListLocations retrieves storage locations
func (s *Service) ListLocations(ctx context.Context, filter shared.Filter) ([]stock.StorageLocation, error) {
	return s.locationRepo.FindAll(ctx, filter)
}

// ListExpiringLots finds non-empty lots that expire within the given
// number of days
func (s *Service) ListExpiringLots(ctx context.Context, withinDays int) ([]LotResponse, error) {
	if withinDays < 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Expiry window cannot be negative")
	}
	before := time.Now().AddDate(0, 0, withinDays)
	lots, err := s.lotRepo.FindExpiringBefore(ctx, before)
	if err != nil {
		return nil, err
	}
	return ToLotResponses(lots), nil
}

// lockLine resolves and row-locks the lot addressed by an issue line
func (s *Service) lockLine(ctx context.Context, repos TransactionalRepositories, materialID uuid.UUID, line IssueLine) (*stock.MaterialLot, error) {
	if line.LotID != nil {
		return repos.LotRepo().FindByIDForUpdate(ctx, *line.LotID)
	}
	return repos.LotRepo().FindByIdentityForUpdate(ctx, materialID, line.LotNo, line.StorageLocationID)
}

// recomputeCurrentStock refreshes the material's denormalized aggregate
// from the lot sum inside the current transaction. Returns a threshold
// event when the total dropped below the configured minimum.
func (s *Service) recomputeCurrentStock(ctx context.Context, repos TransactionalRepositories, materialID uuid.UUID) (shared.DomainEvent, error) {
	sum, err := repos.LotRepo().SumOnHandByMaterial(ctx, materialID)
	if err != nil {
		return nil, err
	}
	mat, err := repos.MaterialRepo().FindByID(ctx, materialID)
	if err != nil {
		return nil, err
	}
	wasBelow := mat.IsBelowMinimum(mat.CurrentStock)
	mat.CurrentStock = sum
	if err := repos.MaterialRepo().Save(ctx, mat); err != nil {
		return nil, err
	}
	if !wasBelow && mat.IsBelowMinimum(sum) {
		return stock.NewStockBelowThresholdEvent(mat.ID, mat.SKU, sum, *mat.MinStock), nil
	}
	return nil, nil
}

func (s *Service) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	// Errors are logged by the event bus, not propagated
	_ = s.eventPublisher.Publish(ctx, events...)
}

func actorFrom(actorID *uuid.UUID) stock.Actor {
	if actorID != nil {
		return stock.UserActor(*actorID)
	}
	return stock.SystemActor()
}

func sameLocation(a, b *uuid.UUID) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
