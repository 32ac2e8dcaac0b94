// Package material provides the raw material catalog (bahan baku).
// A raw material tracks its stock in exactly one unit; stock is only ever
// mutated through the stock ledger, never directly.
package material

import (
	"context"
	"time"

	"dapur/internal/core/apperror"
	"dapur/internal/core/id"
	"dapur/internal/core/types"
	"dapur/internal/domain/measure"
)

// RawMaterial represents a purchasable ingredient with tracked stock.
type RawMaterial struct {
	ID      id.ID `db:"id" json:"id"`
	OwnerID id.ID `db:"owner_id" json:"ownerId"`

	Name     string `db:"name" json:"name"`
	Category string `db:"category" json:"category,omitempty"`

	// Unit is the tracking unit: the unit in which stock is stored and
	// compared against thresholds.
	Unit measure.Unit `db:"unit" json:"unit"`

	// Stock is the current tracked quantity. Invariant: never negative
	// after any committed operation.
	Stock types.Quantity `db:"stock" json:"stock"`

	// MinimumStock is the low-stock alert threshold in the tracking unit.
	MinimumStock types.Quantity `db:"minimum_stock" json:"minimumStock"`

	// Price per tracking unit, used for purchase cost reporting.
	Price types.Money `db:"price" json:"price"`

	// Version guards read-modify-write cycles on the stock value.
	Version int `db:"version" json:"version"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewRawMaterial creates a raw material with initial stock.
func NewRawMaterial(ownerID id.ID, name string, unit measure.Unit, stock types.Quantity) *RawMaterial {
	now := time.Now().UTC()
	return &RawMaterial{
		ID:        id.New(),
		OwnerID:   ownerID,
		Name:      name,
		Unit:      unit,
		Stock:     stock,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks catalog invariants.
func (m *RawMaterial) Validate(ctx context.Context) error {
	if len(m.Name) < 3 || len(m.Name) > 100 {
		return apperror.NewValidation("name must be between 3 and 100 characters").
			WithDetail("field", "name")
	}
	if !m.Unit.IsValid() {
		return apperror.NewValidation("unknown measurement unit").
			WithDetail("field", "unit").
			WithDetail("value", string(m.Unit))
	}
	if m.Stock.IsNegative() {
		return apperror.NewValidation("stock must not be negative").
			WithDetail("field", "stock")
	}
	if m.MinimumStock.IsNegative() {
		return apperror.NewValidation("minimum stock must not be negative").
			WithDetail("field", "minimumStock")
	}
	if m.Price.IsNegative() {
		return apperror.NewValidation("price must not be negative").
			WithDetail("field", "price")
	}
	if id.IsNil(m.OwnerID) {
		return apperror.NewValidation("owner is required").
			WithDetail("field", "ownerId")
	}
	return nil
}

// BelowMinimum reports whether current stock is at or below the alert
// threshold. A zero threshold disables alerts.
func (m *RawMaterial) BelowMinimum() bool {
	if m.MinimumStock.IsZero() {
		return false
	}
	return m.Stock.LessThanOrEqual(m.MinimumStock)
}
