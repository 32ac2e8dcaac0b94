package sales

import (
	"dapur/internal/core/apperror"
	"dapur/internal/core/id"
	"dapur/internal/domain/ledger"
)

// Direction selects whether a plan subtracts stock (a new consumption) or
// adds it back (reversal of a previously committed sale).
type Direction int

const (
	Consume Direction = iota
	Restore
)

// Plan decides whether a consumption is admissible against a stock
// snapshot and computes the resulting signed deltas. It is pure: the
// snapshot is never mutated and no live state is read.
//
// For Consume, every entry must fit within the snapshot stock; the first
// entry that would drive stock negative fails the entire plan, so partial
// consumption is never applied. For Restore no lower bound applies, but
// the inputs are still validated as a defensive invariant check: a
// negative snapshot quantity or a negative entry magnitude means the
// bookkeeping is already broken.
func Plan(entries []ConsumptionEntry, snapshot map[id.ID]ledger.Record, direction Direction) ([]ledger.Delta, error) {
	deltas := make([]ledger.Delta, 0, len(entries))

	for _, entry := range entries {
		rec, ok := snapshot[entry.MaterialID]
		if !ok {
			return nil, apperror.NewNotFound("material", entry.MaterialID).
				WithDetail("material_name", entry.MaterialName)
		}

		if entry.Quantity.IsNegative() || rec.Quantity.IsNegative() {
			return nil, apperror.NewLedgerCorruption("stock bookkeeping invariant violated").
				WithDetail("material_id", entry.MaterialID).
				WithDetail("entry_quantity", entry.Quantity.String()).
				WithDetail("stock", rec.Quantity.String())
		}

		switch direction {
		case Consume:
			if rec.Quantity.Sub(entry.Quantity).IsNegative() {
				return nil, apperror.NewInsufficientStock(
					entry.MaterialID.String(),
					rec.Name,
					entry.Quantity.String(),
					rec.Quantity.String(),
				)
			}
			deltas = append(deltas, ledger.Delta{
				MaterialID: entry.MaterialID,
				Quantity:   entry.Quantity.Neg(),
			})
		case Restore:
			deltas = append(deltas, ledger.Delta{
				MaterialID: entry.MaterialID,
				Quantity:   entry.Quantity,
			})
		}
	}

	return deltas, nil
}
