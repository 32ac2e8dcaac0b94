package sales

import (
	"context"
	"sort"

	"dapur/internal/core/id"
	"dapur/internal/domain/catalogs/material"
	"dapur/internal/domain/catalogs/menu"
	"dapur/internal/domain/measure"
)

// MenuGetter loads menu definitions for resolution. A retired menu must
// surface as NOT_FOUND, never resolve silently.
type MenuGetter interface {
	GetByID(ctx context.Context, menuID id.ID) (*menu.Menu, error)
}

// MaterialGetter loads material definitions for unit normalization.
type MaterialGetter interface {
	GetByID(ctx context.Context, materialID id.ID) (*material.RawMaterial, error)
}

// Resolver expands sale line items into the net raw-material consumption
// they imply, normalized to each material's tracking unit.
type Resolver struct {
	menus     MenuGetter
	materials MaterialGetter
	converter *measure.Converter
}

// NewResolver creates a recipe resolver.
func NewResolver(menus MenuGetter, materials MaterialGetter, converter *measure.Converter) *Resolver {
	return &Resolver{menus: menus, materials: materials, converter: converter}
}

// Resolve maps sale lines to consumption entries. Recipe lines hitting the
// same material (within one recipe or across menus in the same sale) are
// merged into a single net entry per material, so the ledger sees one delta
// per material per sale and intermediate balances can never produce a false
// insufficient-stock rejection. Entries are returned in material-id order;
// ordering is otherwise insignificant.
func (r *Resolver) Resolve(ctx context.Context, lines []SaleLine) ([]ConsumptionEntry, error) {
	merged := make(map[id.ID]*ConsumptionEntry)

	for _, line := range lines {
		menuItem, err := r.menus.GetByID(ctx, line.MenuID)
		if err != nil {
			return nil, err
		}

		for _, rl := range menuItem.Lines {
			mat, err := r.materials.GetByID(ctx, rl.MaterialID)
			if err != nil {
				return nil, err
			}

			required := rl.Quantity.Mul(line.Quantity)
			normalized, err := r.converter.Convert(required, rl.Unit, mat.Unit)
			if err != nil {
				return nil, err
			}

			if entry, ok := merged[mat.ID]; ok {
				entry.Quantity = entry.Quantity.Add(normalized)
				continue
			}
			merged[mat.ID] = &ConsumptionEntry{
				MaterialID:   mat.ID,
				MaterialName: mat.Name,
				Quantity:     normalized,
				Unit:         mat.Unit,
			}
		}
	}

	entries := make([]ConsumptionEntry, 0, len(merged))
	for _, entry := range merged {
		entries = append(entries, *entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].MaterialID.String() < entries[j].MaterialID.String()
	})
	return entries, nil
}
