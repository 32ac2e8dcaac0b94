package ledger

import (
	"context"
	"errors"
	"sort"
	"time"

	"dapur/internal/core/apperror"
	"dapur/internal/core/id"
	"dapur/internal/core/types"
	"dapur/pkg/logger"
)

// Config bounds the ledger's retry behavior. No store call may block
// indefinitely: every read-modify-write has a bounded retry count and a
// per-call timeout.
type Config struct {
	MaxRetries   int
	RetryBackoff time.Duration
	CallTimeout  time.Duration
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		MaxRetries:   3,
		RetryBackoff: 50 * time.Millisecond,
		CallTimeout:  5 * time.Second,
	}
}

// Ledger applies and reverses stock deltas against the store.
type Ledger struct {
	store Store
	cfg   Config
}

// New creates a stock ledger over the given store.
func New(store Store, cfg Config) *Ledger {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultConfig().MaxRetries
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultConfig().CallTimeout
	}
	return &Ledger{store: store, cfg: cfg}
}

// Snapshot reads the current records for a set of materials. The result is
// a point-in-time view for the consumption planner; versions captured here
// guard the subsequent writes.
func (l *Ledger) Snapshot(ctx context.Context, materialIDs []id.ID) (map[id.ID]Record, error) {
	snap := make(map[id.ID]Record, len(materialIDs))
	for _, mid := range materialIDs {
		rec, err := l.getRecord(ctx, mid)
		if err != nil {
			return nil, err
		}
		snap[mid] = rec
	}
	return snap, nil
}

// Apply commits a set of signed deltas, one version-guarded
// read-modify-write per record. Deltas are applied in material-id order so
// two operations touching the same materials serialize identically.
//
// On a version conflict the record is re-read and the write retried up to
// the bounded count; a consume delta that no longer fits the re-read stock
// surfaces INSUFFICIENT_STOCK. Exhausted retries surface
// CONCURRENT_MODIFICATION. The caller is expected to run Apply inside a
// transaction so earlier deltas roll back when a later one fails.
func (l *Ledger) Apply(ctx context.Context, deltas []Delta) ([]Applied, error) {
	ordered := make([]Delta, len(deltas))
	copy(ordered, deltas)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].MaterialID.String() < ordered[j].MaterialID.String()
	})

	applied := make([]Applied, 0, len(ordered))
	for _, d := range ordered {
		a, err := l.applyOne(ctx, d)
		if err != nil {
			return nil, err
		}
		applied = append(applied, a)
	}
	return applied, nil
}

// Reverse commits the opposite of the given deltas.
func (l *Ledger) Reverse(ctx context.Context, deltas []Delta) ([]Applied, error) {
	reversed := make([]Delta, len(deltas))
	for i, d := range deltas {
		reversed[i] = Delta{MaterialID: d.MaterialID, Quantity: d.Quantity.Neg()}
	}
	return l.Apply(ctx, reversed)
}

// Adjust applies a single delta. Satisfies material.StockAdjuster for
// restocking.
func (l *Ledger) Adjust(ctx context.Context, materialID id.ID, delta types.Quantity) error {
	_, err := l.Apply(ctx, []Delta{{MaterialID: materialID, Quantity: delta}})
	return err
}

func (l *Ledger) applyOne(ctx context.Context, d Delta) (Applied, error) {
	var lastErr error
	for attempt := 0; attempt <= l.cfg.MaxRetries; attempt++ {
		if attempt > 0 && l.cfg.RetryBackoff > 0 {
			select {
			case <-ctx.Done():
				return Applied{}, apperror.NewLedgerUnavailable(ctx.Err())
			case <-time.After(l.cfg.RetryBackoff * time.Duration(attempt)):
			}
		}

		rec, err := l.getRecord(ctx, d.MaterialID)
		if err != nil {
			return Applied{}, err
		}

		if rec.Quantity.IsNegative() {
			// Stored stock below zero means a previous write bypassed the
			// invariant. Not retried; needs manual reconciliation.
			logger.Error(ctx, "negative stock detected",
				"material_id", rec.MaterialID,
				"stock", rec.Quantity.String(),
			)
			return Applied{}, apperror.NewLedgerCorruption("negative stock detected").
				WithDetail("material_id", rec.MaterialID).
				WithDetail("stock", rec.Quantity.String())
		}

		newQty := rec.Quantity.Add(d.Quantity)
		if newQty.IsNegative() {
			return Applied{}, apperror.NewInsufficientStock(
				rec.MaterialID.String(),
				rec.Name,
				d.Quantity.Neg().String(),
				rec.Quantity.String(),
			)
		}

		newVersion, err := l.applyDelta(ctx, d.MaterialID, d.Quantity, rec.Version)
		if errors.Is(err, ErrVersionConflict) {
			lastErr = err
			continue
		}
		if err != nil {
			return Applied{}, err
		}

		after := rec
		after.Quantity = newQty
		after.Version = newVersion
		return Applied{Record: after, Before: rec.Quantity, Quantity: newQty}, nil
	}

	return Applied{}, apperror.NewConcurrentModification("material", d.MaterialID).
		WithCause(lastErr)
}

// getRecord reads with a per-call timeout, retrying transient store
// failures with backoff before surfacing LEDGER_UNAVAILABLE.
func (l *Ledger) getRecord(ctx context.Context, materialID id.ID) (Record, error) {
	var lastErr error
	for attempt := 0; attempt <= l.cfg.MaxRetries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, l.cfg.CallTimeout)
		rec, err := l.store.GetRecord(callCtx, materialID)
		cancel()
		if err == nil {
			return rec, nil
		}
		if _, ok := apperror.AsAppError(err); ok {
			return Record{}, err
		}
		lastErr = err
		if l.cfg.RetryBackoff > 0 {
			select {
			case <-ctx.Done():
				return Record{}, apperror.NewLedgerUnavailable(ctx.Err())
			case <-time.After(l.cfg.RetryBackoff * time.Duration(attempt+1)):
			}
		}
	}
	return Record{}, apperror.NewLedgerUnavailable(lastErr)
}

func (l *Ledger) applyDelta(ctx context.Context, materialID id.ID, delta types.Quantity, expectedVersion int) (int, error) {
	callCtx, cancel := context.WithTimeout(ctx, l.cfg.CallTimeout)
	defer cancel()

	newVersion, err := l.store.ApplyDelta(callCtx, materialID, delta, expectedVersion)
	if err != nil {
		if errors.Is(err, ErrVersionConflict) {
			return 0, err
		}
		if _, ok := apperror.AsAppError(err); ok {
			return 0, err
		}
		return 0, apperror.NewLedgerUnavailable(err)
	}
	return newVersion, nil
}
