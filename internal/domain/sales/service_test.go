package sales

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dapur/internal/core/apperror"
	"dapur/internal/core/id"
	"dapur/internal/core/types"
	"dapur/internal/domain/catalogs/material"
	"dapur/internal/domain/catalogs/menu"
	"dapur/internal/domain/ledger"
	"dapur/internal/domain/measure"
	"dapur/internal/domain/notify"
)

// --- Fakes ---

// memLedgerStore implements ledger.Store over the same material map the
// resolver reads, so stock and version behave like one backing store.
type memLedgerStore struct {
	mu        sync.Mutex
	materials fakeMaterials
}

func (s *memLedgerStore) GetRecord(_ context.Context, materialID id.ID) (ledger.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.materials[materialID]
	if !ok {
		return ledger.Record{}, apperror.NewNotFound("material", materialID)
	}
	return ledger.Record{
		MaterialID:   m.ID,
		Name:         m.Name,
		Unit:         m.Unit,
		Quantity:     m.Stock,
		MinimumStock: m.MinimumStock,
		Version:      m.Version,
	}, nil
}

func (s *memLedgerStore) ApplyDelta(_ context.Context, materialID id.ID, delta types.Quantity, expectedVersion int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.materials[materialID]
	if !ok {
		return 0, apperror.NewNotFound("material", materialID)
	}
	if m.Version != expectedVersion {
		return 0, ledger.ErrVersionConflict
	}
	if m.Stock.Add(delta).IsNegative() {
		return 0, ledger.ErrVersionConflict
	}
	m.Stock = m.Stock.Add(delta)
	m.Version++
	return m.Version, nil
}

type memSaleRepo struct {
	mu    sync.Mutex
	sales map[id.ID]*Sale
}

func newMemSaleRepo() *memSaleRepo {
	return &memSaleRepo{sales: make(map[id.ID]*Sale)}
}

func (r *memSaleRepo) Create(_ context.Context, s *Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.sales[s.ID] = &cp
	return nil
}

func (r *memSaleRepo) GetByID(_ context.Context, saleID id.ID) (*Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sales[saleID]
	if !ok {
		return nil, apperror.NewNotFound("sale", saleID)
	}
	cp := *s
	return &cp, nil
}

func (r *memSaleRepo) List(_ context.Context, ownerID id.ID, _ ListFilter) (ListResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := ListResult{TotalIncome: types.Zero()}
	for _, s := range r.sales {
		if s.OwnerID != ownerID {
			continue
		}
		cp := *s
		res.Items = append(res.Items, &cp)
		res.TotalCount++
		res.TotalIncome = res.TotalIncome.Add(s.Amount)
	}
	return res, nil
}

func (r *memSaleRepo) Update(_ context.Context, s *Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sales[s.ID]; !ok {
		return apperror.NewNotFound("sale", s.ID)
	}
	cp := *s
	r.sales[s.ID] = &cp
	return nil
}

func (r *memSaleRepo) Delete(_ context.Context, saleID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sales[saleID]; !ok {
		return apperror.NewNotFound("sale", saleID)
	}
	delete(r.sales, saleID)
	return nil
}

func (r *memSaleRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sales)
}

// nopTxManager runs the function without transactional semantics. The
// service's compensation logic must keep state consistent on its own.
type nopTxManager struct{}

func (nopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type captureSink struct {
	mu        sync.Mutex
	committed []notify.SaleEvent
	rejected  []notify.RejectionEvent
	lowStock  []notify.LowStockEvent
}

func (c *captureSink) SaleCommitted(_ context.Context, e notify.SaleEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.committed = append(c.committed, e)
}

func (c *captureSink) SaleRejected(_ context.Context, e notify.RejectionEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rejected = append(c.rejected, e)
}

func (c *captureSink) LowStock(_ context.Context, e notify.LowStockEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lowStock = append(c.lowStock, e)
}

// --- Fixture ---

type kitchen struct {
	owner     id.ID
	rice      *material.RawMaterial
	oil       *material.RawMaterial
	friedRice *menu.Menu
	materials fakeMaterials
	menus     fakeMenus
	repo      *memSaleRepo
	sink      *captureSink
	service   *Service
}

// newKitchen builds the fried rice fixture: 1000 g of rice, 2000 ml of
// oil, and a menu consuming 150 g rice and 15 ml oil per unit.
func newKitchen(t *testing.T) *kitchen {
	t.Helper()

	owner := id.New()

	rice := material.NewRawMaterial(owner, "Rice", measure.UnitGram, qty("1000"))
	rice.MinimumStock = qty("200")
	oil := material.NewRawMaterial(owner, "Cooking Oil", measure.UnitMilliliter, qty("2000"))

	friedRice := menu.NewMenu(owner, "Nasi Goreng", qty("25000"))
	friedRice.AddLine(rice.ID, qty("150"), measure.UnitGram)
	friedRice.AddLine(oil.ID, qty("15"), measure.UnitMilliliter)

	materials := fakeMaterials{rice.ID: rice, oil.ID: oil}
	menus := fakeMenus{friedRice.ID: friedRice}

	stockLedger := ledger.New(&memLedgerStore{materials: materials}, ledger.Config{
		MaxRetries:   3,
		RetryBackoff: time.Millisecond,
		CallTimeout:  time.Second,
	})
	resolver := NewResolver(menus, materials, measure.NewConverter())
	repo := newMemSaleRepo()
	sink := &captureSink{}

	return &kitchen{
		owner:     owner,
		rice:      rice,
		oil:       oil,
		friedRice: friedRice,
		materials: materials,
		menus:     menus,
		repo:      repo,
		sink:      sink,
		service:   NewService(repo, resolver, stockLedger, nopTxManager{}, sink),
	}
}

func (k *kitchen) sellFriedRice(t *testing.T, units string) *Sale {
	t.Helper()
	sale := NewSale(k.owner, "", time.Time{})
	sale.AddLine(k.friedRice.ID, qty(units), k.friedRice.Price)
	require.NoError(t, k.service.Create(context.Background(), sale))
	return sale
}

// --- Tests ---

func TestCreate_ConsumesStock(t *testing.T) {
	k := newKitchen(t)

	sale := k.sellFriedRice(t, "2")

	assert.True(t, k.rice.Stock.Equal(qty("700")))
	assert.True(t, k.oil.Stock.Equal(qty("1970")))
	assert.True(t, sale.Amount.Equal(qty("50000")))
	assert.Equal(t, DefaultCustomerName, sale.CustomerName)

	stored, err := k.repo.GetByID(context.Background(), sale.ID)
	require.NoError(t, err)
	require.Len(t, stored.Consumption, 2, "consumption snapshot must be persisted")
}

func TestCreate_SequentialSalesUntilExhaustion(t *testing.T) {
	k := newKitchen(t)
	ctx := context.Background()

	// Six units of 150 g leave exactly 100 g of rice.
	for i := 0; i < 6; i++ {
		k.sellFriedRice(t, "1")
	}
	assert.True(t, k.rice.Stock.Equal(qty("100")))

	// The seventh does not fit and must change nothing.
	sale := NewSale(k.owner, "", time.Time{})
	sale.AddLine(k.friedRice.ID, qty("1"), k.friedRice.Price)
	err := k.service.Create(ctx, sale)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.Equal(t, "Rice", appErr.Details["material_name"])
	assert.Equal(t, "150", appErr.Details["requested"])
	assert.Equal(t, "100", appErr.Details["available"])

	assert.True(t, k.rice.Stock.Equal(qty("100")), "rejected sale must not touch stock")
	assert.Equal(t, 6, k.repo.count(), "rejected sale must not be persisted")
}

func TestCreate_EmitsRejectionEvent(t *testing.T) {
	k := newKitchen(t)

	sale := NewSale(k.owner, "", time.Time{})
	sale.AddLine(k.friedRice.ID, qty("100"), k.friedRice.Price)
	require.Error(t, k.service.Create(context.Background(), sale))

	require.Len(t, k.sink.rejected, 1)
	assert.Equal(t, "Rice", k.sink.rejected[0].MaterialName)
	assert.True(t, k.sink.rejected[0].Requested.Equal(qty("15000")))
	assert.True(t, k.sink.rejected[0].Available.Equal(qty("1000")))
}

func TestCreate_LowStockThresholdCrossing(t *testing.T) {
	k := newKitchen(t)

	// 1000 g down to 250 g: above the 200 g minimum, no alert.
	k.sellFriedRice(t, "5")
	assert.Empty(t, k.sink.lowStock)

	// 250 g down to 100 g crosses the minimum, one alert.
	k.sellFriedRice(t, "1")
	require.Len(t, k.sink.lowStock, 1)
	e := k.sink.lowStock[0]
	assert.Equal(t, "Rice", e.MaterialName)
	assert.True(t, e.Stock.Equal(qty("100")))
	assert.True(t, e.Minimum.Equal(qty("200")))

	// Already below minimum: no repeated alert.
	// 100 g left cannot cover another unit, so restock-free check uses oil.
	assert.Len(t, k.sink.lowStock, 1)
}

func TestUpdate_RollbackThenReapply(t *testing.T) {
	k := newKitchen(t)
	ctx := context.Background()

	sale := k.sellFriedRice(t, "2")
	assert.True(t, k.rice.Stock.Equal(qty("700")))

	updated, err := k.service.Update(ctx, sale.ID, "Budi", time.Time{}, []SaleLine{
		{LineNo: 1, MenuID: k.friedRice.ID, Quantity: qty("3"), UnitPrice: k.friedRice.Price},
	})
	require.NoError(t, err)

	// Net effect: restore 300 g, consume 450 g.
	assert.True(t, k.rice.Stock.Equal(qty("550")))
	assert.Equal(t, "Budi", updated.CustomerName)
	assert.True(t, updated.Amount.Equal(qty("75000")))

	stored, err := k.repo.GetByID(ctx, sale.ID)
	require.NoError(t, err)
	require.Len(t, stored.Consumption, 2)
}

func TestUpdate_CompensatesOnInsufficientStock(t *testing.T) {
	k := newKitchen(t)
	ctx := context.Background()

	sale := k.sellFriedRice(t, "2")
	before, err := k.repo.GetByID(ctx, sale.ID)
	require.NoError(t, err)

	// 8 units need 1200 g; even with the 300 g restored the 1000 g total
	// cannot cover it. The old consumption must be re-applied.
	_, err = k.service.Update(ctx, sale.ID, "", time.Time{}, []SaleLine{
		{LineNo: 1, MenuID: k.friedRice.ID, Quantity: qty("8"), UnitPrice: k.friedRice.Price},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	assert.True(t, k.rice.Stock.Equal(qty("700")), "stock must be back to pre-update state")

	after, err := k.repo.GetByID(ctx, sale.ID)
	require.NoError(t, err)
	assert.True(t, after.Amount.Equal(before.Amount), "sale record must be unchanged")
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
}

func TestDelete_RestoresStock(t *testing.T) {
	k := newKitchen(t)
	ctx := context.Background()

	sale := k.sellFriedRice(t, "4")
	assert.True(t, k.rice.Stock.Equal(qty("400")))

	require.NoError(t, k.service.Delete(ctx, sale.ID))

	assert.True(t, k.rice.Stock.Equal(qty("1000")))
	assert.True(t, k.oil.Stock.Equal(qty("2000")))
	assert.Equal(t, 0, k.repo.count())

	_, err := k.service.GetByID(ctx, sale.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestDelete_UsesSnapshotNotCurrentRecipe(t *testing.T) {
	k := newKitchen(t)
	ctx := context.Background()

	sale := k.sellFriedRice(t, "2")
	assert.True(t, k.rice.Stock.Equal(qty("700")))

	// The recipe is made greedier after the sale. Reversal must give back
	// what was actually consumed (300 g), not what the recipe says now.
	k.friedRice.Lines[0].Quantity = qty("500")

	require.NoError(t, k.service.Delete(ctx, sale.ID))
	assert.True(t, k.rice.Stock.Equal(qty("1000")))
}

func TestUpdate_UsesSnapshotNotCurrentRecipe(t *testing.T) {
	k := newKitchen(t)
	ctx := context.Background()

	sale := k.sellFriedRice(t, "2")

	// Recipe shrinks after the sale was committed.
	k.friedRice.Lines[0].Quantity = qty("100")

	_, err := k.service.Update(ctx, sale.ID, "", time.Time{}, []SaleLine{
		{LineNo: 1, MenuID: k.friedRice.ID, Quantity: qty("1"), UnitPrice: k.friedRice.Price},
	})
	require.NoError(t, err)

	// Old snapshot restores 300 g, new recipe consumes 100 g.
	assert.True(t, k.rice.Stock.Equal(qty("900")))
}

func TestConservation_CreateUpdateDelete(t *testing.T) {
	k := newKitchen(t)
	ctx := context.Background()

	initialRice := k.rice.Stock
	initialOil := k.oil.Stock

	sale := k.sellFriedRice(t, "3")
	_, err := k.service.Update(ctx, sale.ID, "", time.Time{}, []SaleLine{
		{LineNo: 1, MenuID: k.friedRice.ID, Quantity: qty("1"), UnitPrice: k.friedRice.Price},
	})
	require.NoError(t, err)
	require.NoError(t, k.service.Delete(ctx, sale.ID))

	assert.True(t, k.rice.Stock.Equal(initialRice), "create+update+delete must conserve stock")
	assert.True(t, k.oil.Stock.Equal(initialOil))
}

func TestCreate_ValidationFailures(t *testing.T) {
	k := newKitchen(t)
	ctx := context.Background()

	t.Run("no lines", func(t *testing.T) {
		sale := NewSale(k.owner, "", time.Time{})
		err := k.service.Create(ctx, sale)
		assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	})

	t.Run("non-positive quantity", func(t *testing.T) {
		sale := NewSale(k.owner, "", time.Time{})
		sale.AddLine(k.friedRice.ID, qty("0"), k.friedRice.Price)
		err := k.service.Create(ctx, sale)
		assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	})

	t.Run("unknown menu", func(t *testing.T) {
		sale := NewSale(k.owner, "", time.Time{})
		sale.AddLine(id.New(), qty("1"), qty("1000"))
		err := k.service.Create(ctx, sale)
		assert.True(t, apperror.IsNotFound(err))
	})
}

func TestCreate_EmitsCommitEvent(t *testing.T) {
	k := newKitchen(t)

	sale := k.sellFriedRice(t, "1")

	require.Len(t, k.sink.committed, 1)
	e := k.sink.committed[0]
	assert.Equal(t, "created", e.Operation)
	assert.Equal(t, sale.ID, e.SaleID)
	assert.True(t, e.Amount.Equal(qty("25000")))
}
