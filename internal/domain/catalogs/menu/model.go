// Package menu provides the sellable item catalog. Each menu owns an
// ordered recipe: the raw materials consumed per unit sold.
package menu

import (
	"context"
	"time"

	"dapur/internal/core/apperror"
	"dapur/internal/core/id"
	"dapur/internal/core/types"
	"dapur/internal/domain/measure"
)

// Menu represents a sellable item defined by a recipe.
type Menu struct {
	ID      id.ID `db:"id" json:"id"`
	OwnerID id.ID `db:"owner_id" json:"ownerId"`

	Name     string      `db:"name" json:"name"`
	Category string      `db:"category" json:"category,omitempty"`
	Price    types.Money `db:"price" json:"price"`

	// Lines is the recipe. Order is preserved for display only; it is
	// insignificant for consumption.
	Lines []RecipeLine `db:"-" json:"lines"`

	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `db:"updated_at" json:"updatedAt"`
	DeletedAt *time.Time `db:"deleted_at" json:"deletedAt,omitempty"`
}

// RecipeLine declares how much of one raw material a single sold unit of
// the menu consumes. The unit may differ from the material's tracking unit.
type RecipeLine struct {
	LineNo     int            `db:"line_no" json:"lineNo"`
	MaterialID id.ID          `db:"material_id" json:"materialId"`
	Quantity   types.Quantity `db:"quantity" json:"quantity"`
	Unit       measure.Unit   `db:"unit" json:"unit"`
}

// NewMenu creates a sellable item.
func NewMenu(ownerID id.ID, name string, price types.Money) *Menu {
	now := time.Now().UTC()
	return &Menu{
		ID:        id.New(),
		OwnerID:   ownerID,
		Name:      name,
		Price:     price,
		Lines:     make([]RecipeLine, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddLine appends a recipe line.
func (m *Menu) AddLine(materialID id.ID, quantity types.Quantity, unit measure.Unit) {
	m.Lines = append(m.Lines, RecipeLine{
		LineNo:     len(m.Lines) + 1,
		MaterialID: materialID,
		Quantity:   quantity,
		Unit:       unit,
	})
}

// IsRetired reports whether the menu has been soft-deleted.
func (m *Menu) IsRetired() bool {
	return m.DeletedAt != nil
}

// Validate checks catalog invariants.
func (m *Menu) Validate(ctx context.Context) error {
	if len(m.Name) < 3 || len(m.Name) > 100 {
		return apperror.NewValidation("name must be between 3 and 100 characters").
			WithDetail("field", "name")
	}
	if m.Price.IsNegative() {
		return apperror.NewValidation("price must not be negative").
			WithDetail("field", "price")
	}
	if id.IsNil(m.OwnerID) {
		return apperror.NewValidation("owner is required").
			WithDetail("field", "ownerId")
	}

	for i, line := range m.Lines {
		if id.IsNil(line.MaterialID) {
			return apperror.NewValidation("recipe line requires a material").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if !line.Quantity.IsPositive() {
			return apperror.NewValidation("recipe quantity must be positive").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if !line.Unit.IsValid() {
			return apperror.NewValidation("unknown measurement unit").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1).
				WithDetail("value", string(line.Unit))
		}
	}
	return nil
}
