// Package ledger applies signed stock deltas to raw-material records under
// per-record optimistic concurrency control. It is the only writer of stock
// quantities in the system.
package ledger

import (
	"context"
	"errors"

	"dapur/internal/core/id"
	"dapur/internal/core/types"
	"dapur/internal/domain/measure"
)

// ErrVersionConflict is returned by a Store when the expected version no
// longer matches the stored record. The ledger retries on it.
var ErrVersionConflict = errors.New("stock record version conflict")

// Record is the ledger's view of one raw-material stock record.
type Record struct {
	MaterialID   id.ID
	Name         string
	Unit         measure.Unit
	Quantity     types.Quantity
	MinimumStock types.Quantity
	Version      int
}

// Store is the persistence contract the ledger writes through.
type Store interface {
	// GetRecord reads the current stock record. Missing materials surface
	// as a NOT_FOUND application error.
	GetRecord(ctx context.Context, materialID id.ID) (Record, error)

	// ApplyDelta atomically adds a signed quantity to the record, but only
	// if its version still equals expectedVersion. Returns the new version
	// on success and ErrVersionConflict when the guard fails.
	ApplyDelta(ctx context.Context, materialID id.ID, delta types.Quantity, expectedVersion int) (int, error)
}

// Delta is one signed stock change in the material's tracking unit.
type Delta struct {
	MaterialID id.ID
	Quantity   types.Quantity
}

// Applied describes one committed delta: the record before the write and
// the resulting quantity, used for low-stock threshold detection.
type Applied struct {
	Record   Record
	Before   types.Quantity
	Quantity types.Quantity
}
