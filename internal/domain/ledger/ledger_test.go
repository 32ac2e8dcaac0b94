package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dapur/internal/core/apperror"
	"dapur/internal/core/id"
	"dapur/internal/core/types"
	"dapur/internal/domain/measure"
)

func qty(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// memStore is an in-memory Store with injectable failures.
type memStore struct {
	mu      sync.Mutex
	records map[id.ID]Record

	// conflictsLeft makes the next N ApplyDelta calls fail with a
	// version conflict while still advancing the stored version, as a
	// concurrent writer would.
	conflictsLeft int

	// failReads makes GetRecord fail with a transient error.
	failReads error
}

func newMemStore(records ...Record) *memStore {
	s := &memStore{records: make(map[id.ID]Record)}
	for _, r := range records {
		s.records[r.MaterialID] = r
	}
	return s
}

func (s *memStore) GetRecord(_ context.Context, materialID id.ID) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failReads != nil {
		return Record{}, s.failReads
	}
	rec, ok := s.records[materialID]
	if !ok {
		return Record{}, apperror.NewNotFound("material", materialID)
	}
	return rec, nil
}

func (s *memStore) ApplyDelta(_ context.Context, materialID id.ID, delta types.Quantity, expectedVersion int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[materialID]
	if !ok {
		return 0, apperror.NewNotFound("material", materialID)
	}
	if s.conflictsLeft > 0 {
		s.conflictsLeft--
		rec.Version++
		s.records[materialID] = rec
		return 0, ErrVersionConflict
	}
	if rec.Version != expectedVersion {
		return 0, ErrVersionConflict
	}

	rec.Quantity = rec.Quantity.Add(delta)
	rec.Version++
	s.records[materialID] = rec
	return rec.Version, nil
}

func testRecord(stock string) Record {
	return Record{
		MaterialID: id.New(),
		Name:       "Rice",
		Unit:       measure.UnitGram,
		Quantity:   qty(stock),
		Version:    1,
	}
}

func fastConfig() Config {
	return Config{MaxRetries: 3, RetryBackoff: time.Millisecond, CallTimeout: time.Second}
}

func TestApply_ConsumeAndRestore(t *testing.T) {
	rec := testRecord("1000")
	store := newMemStore(rec)
	l := New(store, fastConfig())
	ctx := context.Background()

	applied, err := l.Apply(ctx, []Delta{{MaterialID: rec.MaterialID, Quantity: qty("-150")}})
	require.NoError(t, err)
	require.Len(t, applied, 1)
	assert.True(t, applied[0].Before.Equal(qty("1000")))
	assert.True(t, applied[0].Quantity.Equal(qty("850")))

	_, err = l.Reverse(ctx, []Delta{{MaterialID: rec.MaterialID, Quantity: qty("-150")}})
	require.NoError(t, err)

	got, err := store.GetRecord(ctx, rec.MaterialID)
	require.NoError(t, err)
	assert.True(t, got.Quantity.Equal(qty("1000")))
}

func TestApply_InsufficientStock(t *testing.T) {
	rec := testRecord("100")
	l := New(newMemStore(rec), fastConfig())

	_, err := l.Apply(context.Background(), []Delta{
		{MaterialID: rec.MaterialID, Quantity: qty("-150")},
	})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.Equal(t, "150", appErr.Details["requested"])
	assert.Equal(t, "100", appErr.Details["available"])
}

func TestApply_RetriesVersionConflict(t *testing.T) {
	rec := testRecord("1000")
	store := newMemStore(rec)
	store.conflictsLeft = 2
	l := New(store, fastConfig())

	applied, err := l.Apply(context.Background(), []Delta{
		{MaterialID: rec.MaterialID, Quantity: qty("-100")},
	})
	require.NoError(t, err, "conflicts within the retry budget must succeed")
	assert.True(t, applied[0].Quantity.Equal(qty("900")))
}

func TestApply_BoundedRetries(t *testing.T) {
	rec := testRecord("1000")
	store := newMemStore(rec)
	store.conflictsLeft = 100
	l := New(store, fastConfig())

	_, err := l.Apply(context.Background(), []Delta{
		{MaterialID: rec.MaterialID, Quantity: qty("-100")},
	})
	assert.True(t, apperror.IsConcurrentModification(err))
}

func TestApply_TransientReadFailure(t *testing.T) {
	rec := testRecord("1000")
	store := newMemStore(rec)
	store.failReads = errors.New("connection refused")
	l := New(store, fastConfig())

	_, err := l.Apply(context.Background(), []Delta{
		{MaterialID: rec.MaterialID, Quantity: qty("-100")},
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeLedgerUnavailable))
}

func TestApply_NegativeStoredStockIsCorruption(t *testing.T) {
	rec := testRecord("-5")
	l := New(newMemStore(rec), fastConfig())

	_, err := l.Apply(context.Background(), []Delta{
		{MaterialID: rec.MaterialID, Quantity: qty("10")},
	})
	assert.True(t, apperror.IsLedgerCorruption(err))
}

func TestApply_UnknownMaterial(t *testing.T) {
	l := New(newMemStore(), fastConfig())

	_, err := l.Apply(context.Background(), []Delta{
		{MaterialID: id.New(), Quantity: qty("-1")},
	})
	assert.True(t, apperror.IsNotFound(err))
}

func TestApply_DeterministicOrder(t *testing.T) {
	a := testRecord("100")
	b := testRecord("100")
	store := newMemStore(a, b)
	l := New(store, fastConfig())

	applied, err := l.Apply(context.Background(), []Delta{
		{MaterialID: b.MaterialID, Quantity: qty("-10")},
		{MaterialID: a.MaterialID, Quantity: qty("-10")},
	})
	require.NoError(t, err)
	require.Len(t, applied, 2)
	assert.Less(t, applied[0].Record.MaterialID.String(), applied[1].Record.MaterialID.String())
}

func TestSnapshot(t *testing.T) {
	a := testRecord("100")
	b := testRecord("200")
	l := New(newMemStore(a, b), fastConfig())

	snap, err := l.Snapshot(context.Background(), []id.ID{a.MaterialID, b.MaterialID})
	require.NoError(t, err)
	require.Len(t, snap, 2)
	assert.True(t, snap[a.MaterialID].Quantity.Equal(qty("100")))
	assert.True(t, snap[b.MaterialID].Quantity.Equal(qty("200")))
}

func TestAdjust_Restock(t *testing.T) {
	rec := testRecord("100")
	store := newMemStore(rec)
	l := New(store, fastConfig())

	require.NoError(t, l.Adjust(context.Background(), rec.MaterialID, qty("500")))

	got, err := store.GetRecord(context.Background(), rec.MaterialID)
	require.NoError(t, err)
	assert.True(t, got.Quantity.Equal(qty("600")))
}
