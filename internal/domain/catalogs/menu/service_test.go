package menu

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dapur/internal/core/apperror"
	"dapur/internal/core/id"
	"dapur/internal/core/types"
	"dapur/internal/domain/catalogs/material"
	"dapur/internal/domain/measure"
)

type memMenuRepo struct {
	menus map[id.ID]*Menu
}

func newMemMenuRepo() *memMenuRepo {
	return &memMenuRepo{menus: make(map[id.ID]*Menu)}
}

func (r *memMenuRepo) Create(_ context.Context, m *Menu) error {
	cp := *m
	r.menus[m.ID] = &cp
	return nil
}

func (r *memMenuRepo) GetByID(_ context.Context, menuID id.ID) (*Menu, error) {
	m, ok := r.menus[menuID]
	if !ok {
		return nil, apperror.NewNotFound("menu", menuID)
	}
	cp := *m
	return &cp, nil
}

func (r *memMenuRepo) List(_ context.Context, ownerID id.ID, _ ListFilter) (ListResult, error) {
	var res ListResult
	for _, m := range r.menus {
		if m.OwnerID != ownerID {
			continue
		}
		cp := *m
		res.Items = append(res.Items, &cp)
		res.TotalCount++
	}
	return res, nil
}

func (r *memMenuRepo) Update(_ context.Context, m *Menu) error {
	if _, ok := r.menus[m.ID]; !ok {
		return apperror.NewNotFound("menu", m.ID)
	}
	cp := *m
	r.menus[m.ID] = &cp
	return nil
}

func (r *memMenuRepo) SaveLines(_ context.Context, menuID id.ID, lines []RecipeLine) error {
	m, ok := r.menus[menuID]
	if !ok {
		return apperror.NewNotFound("menu", menuID)
	}
	m.Lines = append([]RecipeLine(nil), lines...)
	return nil
}

func (r *memMenuRepo) Delete(_ context.Context, menuID id.ID) error {
	if _, ok := r.menus[menuID]; !ok {
		return apperror.NewNotFound("menu", menuID)
	}
	delete(r.menus, menuID)
	return nil
}

type memMaterialRepo struct {
	materials map[id.ID]*material.RawMaterial
}

func (r *memMaterialRepo) Create(_ context.Context, m *material.RawMaterial) error {
	r.materials[m.ID] = m
	return nil
}

func (r *memMaterialRepo) GetByID(_ context.Context, materialID id.ID) (*material.RawMaterial, error) {
	m, ok := r.materials[materialID]
	if !ok {
		return nil, apperror.NewNotFound("material", materialID)
	}
	return m, nil
}

func (r *memMaterialRepo) List(_ context.Context, _ id.ID, _ material.ListFilter) (material.ListResult, error) {
	return material.ListResult{}, nil
}

func (r *memMaterialRepo) Update(_ context.Context, _ *material.RawMaterial) error { return nil }
func (r *memMaterialRepo) Delete(_ context.Context, _ id.ID) error                 { return nil }

type nopTxManager struct{}

func (nopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func qty(s string) types.Quantity {
	return decimal.RequireFromString(s)
}

func newTestService(materials ...*material.RawMaterial) (*Service, *memMenuRepo) {
	matRepo := &memMaterialRepo{materials: make(map[id.ID]*material.RawMaterial)}
	for _, m := range materials {
		matRepo.materials[m.ID] = m
	}
	repo := newMemMenuRepo()
	return NewService(repo, matRepo, measure.NewConverter(), nopTxManager{}), repo
}

func TestCreate_PersistsMenuWithRecipe(t *testing.T) {
	owner := id.New()
	rice := material.NewRawMaterial(owner, "Rice", measure.UnitGram, qty("1000"))
	svc, repo := newTestService(rice)

	m := NewMenu(owner, "Nasi Goreng", qty("25000"))
	m.AddLine(rice.ID, qty("150"), measure.UnitGram)

	require.NoError(t, svc.Create(context.Background(), m))

	stored, err := repo.GetByID(context.Background(), m.ID)
	require.NoError(t, err)
	require.Len(t, stored.Lines, 1)
	assert.True(t, stored.Lines[0].Quantity.Equal(qty("150")))
}

func TestCreate_AcceptsConvertibleRecipeUnit(t *testing.T) {
	owner := id.New()
	rice := material.NewRawMaterial(owner, "Rice", measure.UnitGram, qty("1000"))
	svc, _ := newTestService(rice)

	m := NewMenu(owner, "Bubur", qty("15000"))
	m.AddLine(rice.ID, qty("0.1"), measure.UnitKilogram)

	assert.NoError(t, svc.Create(context.Background(), m))
}

func TestCreate_RejectsUnsupportedConversion(t *testing.T) {
	owner := id.New()
	rice := material.NewRawMaterial(owner, "Rice", measure.UnitGram, qty("1000"))
	svc, _ := newTestService(rice)

	// A volume line against a mass-tracked material must fail when the
	// menu is configured, not at the first sale.
	m := NewMenu(owner, "Broken", qty("1000"))
	m.AddLine(rice.ID, qty("100"), measure.UnitMilliliter)

	err := svc.Create(context.Background(), m)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeUnsupportedConversion, appErr.Code)
	assert.Equal(t, "Rice", appErr.Details["material_name"])
}

func TestCreate_RejectsUnknownMaterial(t *testing.T) {
	owner := id.New()
	svc, _ := newTestService()

	m := NewMenu(owner, "Ghost", qty("1000"))
	m.AddLine(id.New(), qty("1"), measure.UnitGram)

	err := svc.Create(context.Background(), m)
	assert.True(t, apperror.IsNotFound(err))
}

func TestUpdate_ReplacesRecipe(t *testing.T) {
	owner := id.New()
	rice := material.NewRawMaterial(owner, "Rice", measure.UnitGram, qty("1000"))
	oil := material.NewRawMaterial(owner, "Cooking Oil", measure.UnitMilliliter, qty("2000"))
	svc, repo := newTestService(rice, oil)
	ctx := context.Background()

	m := NewMenu(owner, "Nasi Goreng", qty("25000"))
	m.AddLine(rice.ID, qty("150"), measure.UnitGram)
	require.NoError(t, svc.Create(ctx, m))

	updated := *m
	updated.Lines = nil
	updated.AddLine(rice.ID, qty("200"), measure.UnitGram)
	updated.AddLine(oil.ID, qty("15"), measure.UnitMilliliter)
	require.NoError(t, svc.Update(ctx, &updated))

	stored, err := repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, stored.Lines, 2)
	assert.True(t, stored.Lines[0].Quantity.Equal(qty("200")))
}

func TestDelete_RetiredMenuIsGone(t *testing.T) {
	owner := id.New()
	rice := material.NewRawMaterial(owner, "Rice", measure.UnitGram, qty("1000"))
	svc, _ := newTestService(rice)
	ctx := context.Background()

	m := NewMenu(owner, "Nasi Goreng", qty("25000"))
	m.AddLine(rice.ID, qty("150"), measure.UnitGram)
	require.NoError(t, svc.Create(ctx, m))

	require.NoError(t, svc.Delete(ctx, m.ID))

	_, err := svc.GetByID(ctx, m.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestValidate_MenuInvariants(t *testing.T) {
	owner := id.New()

	tests := []struct {
		name string
		menu func() *Menu
	}{
		{"empty name", func() *Menu {
			return NewMenu(owner, "", qty("1000"))
		}},
		{"negative price", func() *Menu {
			return NewMenu(owner, "Nasi Goreng", qty("-1"))
		}},
		{"non-positive line quantity", func() *Menu {
			m := NewMenu(owner, "Nasi Goreng", qty("1000"))
			m.AddLine(id.New(), qty("0"), measure.UnitGram)
			return m
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.menu().Validate(context.Background())
			assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
		})
	}
}
