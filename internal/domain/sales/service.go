package sales

import (
	"context"
	"fmt"
	"time"

	"dapur/internal/core/apperror"
	"dapur/internal/core/appctx"
	"dapur/internal/core/id"
	"dapur/internal/core/tx"
	"dapur/internal/core/types"
	"dapur/internal/domain/ledger"
	"dapur/internal/domain/notify"
	"dapur/pkg/logger"
)

// Service orchestrates the sale lifecycle. Every operation ends in one of
// two states: Committed (sale record and stock consistent) or Rejected
// (nothing changed). The compensation step in Update exists to collapse a
// half-reversed state back to Rejected even on stores without multi-record
// atomicity.
type Service struct {
	repo      Repository
	resolver  *Resolver
	ledger    *ledger.Ledger
	txManager tx.Manager
	sink      notify.Sink
}

// NewService creates a sale lifecycle service.
func NewService(repo Repository, resolver *Resolver, stockLedger *ledger.Ledger, txManager tx.Manager, sink notify.Sink) *Service {
	if sink == nil {
		sink = notify.Noop{}
	}
	return &Service{
		repo:      repo,
		resolver:  resolver,
		ledger:    stockLedger,
		txManager: txManager,
		sink:      sink,
	}
}

// Create resolves the sale's recipes, consumes stock, and persists the
// sale with its consumption snapshot as one unit. On InsufficientStock
// nothing is persisted.
func (s *Service) Create(ctx context.Context, sale *Sale) error {
	if id.IsNil(sale.OwnerID) {
		sale.OwnerID = appctx.GetUserID(ctx)
	}
	sale.RecalculateAmount()
	if err := sale.Validate(ctx); err != nil {
		return err
	}

	entries, err := s.resolver.Resolve(ctx, sale.Lines)
	if err != nil {
		return err
	}

	var applied []ledger.Applied
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		snapshot, err := s.ledger.Snapshot(ctx, materialIDs(entries))
		if err != nil {
			return err
		}
		deltas, err := Plan(entries, snapshot, Consume)
		if err != nil {
			return err
		}
		applied, err = s.ledger.Apply(ctx, deltas)
		if err != nil {
			return err
		}

		sale.Consumption = entries
		if err := s.repo.Create(ctx, sale); err != nil {
			return fmt.Errorf("persist sale: %w", err)
		}
		return nil
	})
	if err != nil {
		s.observeRejection(ctx, sale.OwnerID, err)
		return err
	}

	logger.Info(ctx, "sale created",
		"id", sale.ID,
		"customer", sale.CustomerName,
		"amount", sale.Amount.String(),
		"materials", len(entries),
	)
	s.observeCommit(ctx, sale, "created", applied)
	return nil
}

// GetByID retrieves a sale scoped to the caller.
func (s *Service) GetByID(ctx context.Context, saleID id.ID) (*Sale, error) {
	sale, err := s.repo.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if err := s.checkOwner(ctx, sale); err != nil {
		return nil, err
	}
	return sale, nil
}

// List retrieves the caller's sales with period filtering and pagination.
func (s *Service) List(ctx context.Context, filter ListFilter) (ListResult, error) {
	if filter.Month < 0 || filter.Month > 12 {
		return ListResult{}, apperror.NewValidation("month must be between 1 and 12").
			WithDetail("month", filter.Month)
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	return s.repo.List(ctx, appctx.GetUserID(ctx), filter)
}

// Update replaces a sale's line items: the old consumption is fully
// reversed, then the new consumption is planned against the restored
// stock and applied, all as one logical step. If the new consumption does
// not fit, the old consumption is re-applied (compensation) so the update
// degrades to a clean rejection with no state change.
func (s *Service) Update(ctx context.Context, saleID id.ID, customerName string, date time.Time, newLines []SaleLine) (*Sale, error) {
	sale, err := s.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}

	oldEntries, err := s.reversalEntries(ctx, sale)
	if err != nil {
		return nil, err
	}

	updated := *sale
	updated.Lines = newLines
	if customerName != "" {
		updated.CustomerName = customerName
	}
	if !date.IsZero() {
		updated.Date = date
	}
	updated.RecalculateAmount()
	updated.UpdatedAt = time.Now().UTC()
	if err := updated.Validate(ctx); err != nil {
		return nil, err
	}

	newEntries, err := s.resolver.Resolve(ctx, newLines)
	if err != nil {
		return nil, err
	}

	var applied []ledger.Applied
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.restore(ctx, oldEntries); err != nil {
			return err
		}

		snapshot, err := s.ledger.Snapshot(ctx, materialIDs(newEntries))
		if err != nil {
			return err
		}
		deltas, err := Plan(newEntries, snapshot, Consume)
		if err == nil {
			applied, err = s.ledger.Apply(ctx, deltas)
		}
		if err != nil {
			if compErr := s.compensate(ctx, oldEntries); compErr != nil {
				return compErr
			}
			return err
		}

		updated.Consumption = newEntries
		if err := s.repo.Update(ctx, &updated); err != nil {
			return fmt.Errorf("persist sale update: %w", err)
		}
		return nil
	})
	if err != nil {
		s.observeRejection(ctx, sale.OwnerID, err)
		return nil, err
	}

	logger.Info(ctx, "sale updated",
		"id", updated.ID,
		"customer", updated.CustomerName,
		"amount", updated.Amount.String(),
	)
	s.observeCommit(ctx, &updated, "updated", applied)
	return &updated, nil
}

// Delete reverses the sale's consumption and removes the record. If the
// sale predates consumption snapshots and one of its menus has been
// retired since, the delete is refused rather than losing the ability to
// reconcile stock.
func (s *Service) Delete(ctx context.Context, saleID id.ID) error {
	sale, err := s.GetByID(ctx, saleID)
	if err != nil {
		return err
	}

	entries, err := s.reversalEntries(ctx, sale)
	if err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.restore(ctx, entries); err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, saleID); err != nil {
			return fmt.Errorf("delete sale: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "sale deleted", "id", sale.ID, "customer", sale.CustomerName)
	s.sink.SaleCommitted(ctx, notify.SaleEvent{
		OwnerID:      sale.OwnerID,
		SaleID:       sale.ID,
		Operation:    "deleted",
		CustomerName: sale.CustomerName,
		Amount:       sale.Amount,
		At:           time.Now().UTC(),
	})
	return nil
}

// reversalEntries returns the consumption to give back when undoing a
// sale. The snapshot captured at commit time is authoritative; live
// resolution is only a fallback for records created before snapshots
// existed.
func (s *Service) reversalEntries(ctx context.Context, sale *Sale) ([]ConsumptionEntry, error) {
	if len(sale.Consumption) > 0 {
		return sale.Consumption, nil
	}
	entries, err := s.resolver.Resolve(ctx, sale.Lines)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// restore adds a previously committed consumption back to stock.
func (s *Service) restore(ctx context.Context, entries []ConsumptionEntry) error {
	snapshot, err := s.ledger.Snapshot(ctx, materialIDs(entries))
	if err != nil {
		return err
	}
	deltas, err := Plan(entries, snapshot, Restore)
	if err != nil {
		return err
	}
	_, err = s.ledger.Apply(ctx, deltas)
	return err
}

// compensate re-applies the old consumption after a failed re-consume.
// Re-consuming quantities that were just restored is always admissible
// under correct bookkeeping, so a failure here is ledger corruption.
func (s *Service) compensate(ctx context.Context, entries []ConsumptionEntry) error {
	snapshot, err := s.ledger.Snapshot(ctx, materialIDs(entries))
	if err == nil {
		var deltas []ledger.Delta
		deltas, err = Plan(entries, snapshot, Consume)
		if err == nil {
			_, err = s.ledger.Apply(ctx, deltas)
		}
	}
	if err != nil {
		logger.Error(ctx, "compensation failed, stock requires manual reconciliation",
			"error", err,
		)
		return apperror.NewLedgerCorruption("failed to re-apply consumption after rejected update").
			WithCause(err)
	}
	return nil
}

func (s *Service) observeCommit(ctx context.Context, sale *Sale, operation string, applied []ledger.Applied) {
	now := time.Now().UTC()
	s.sink.SaleCommitted(ctx, notify.SaleEvent{
		OwnerID:      sale.OwnerID,
		SaleID:       sale.ID,
		Operation:    operation,
		CustomerName: sale.CustomerName,
		Amount:       sale.Amount,
		At:           now,
	})

	for _, a := range applied {
		rec := a.Record
		if rec.MinimumStock.IsZero() {
			continue
		}
		crossed := a.Before.GreaterThan(rec.MinimumStock) &&
			a.Quantity.LessThanOrEqual(rec.MinimumStock)
		if !crossed {
			continue
		}
		s.sink.LowStock(ctx, notify.LowStockEvent{
			OwnerID:      sale.OwnerID,
			MaterialID:   rec.MaterialID,
			MaterialName: rec.Name,
			Stock:        a.Quantity,
			Minimum:      rec.MinimumStock,
			Unit:         rec.Unit,
			At:           now,
		})
	}
}

func (s *Service) observeRejection(ctx context.Context, ownerID id.ID, err error) {
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeInsufficientStock {
		return
	}
	e := notify.RejectionEvent{OwnerID: ownerID, At: time.Now().UTC()}
	if name, ok := appErr.Details["material_name"].(string); ok {
		e.MaterialName = name
	}
	if req, ok := appErr.Details["requested"].(string); ok {
		if q, perr := parseQuantity(req); perr == nil {
			e.Requested = q
		}
	}
	if avail, ok := appErr.Details["available"].(string); ok {
		if q, perr := parseQuantity(avail); perr == nil {
			e.Available = q
		}
	}
	s.sink.SaleRejected(ctx, e)
}

func (s *Service) checkOwner(ctx context.Context, sale *Sale) error {
	callerID := appctx.GetUserID(ctx)
	if id.IsNil(callerID) || callerID == sale.OwnerID {
		return nil
	}
	return apperror.NewForbidden("sale belongs to another user").
		WithDetail("sale_id", sale.ID)
}

func parseQuantity(s string) (types.Quantity, error) {
	return types.NewQuantityFromString(s)
}

func materialIDs(entries []ConsumptionEntry) []id.ID {
	ids := make([]id.ID, len(entries))
	for i, e := range entries {
		ids[i] = e.MaterialID
	}
	return ids
}
