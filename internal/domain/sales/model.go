// Package sales implements the sale lifecycle: recipe resolution,
// consumption planning, and the rollback-then-reapply protocol that keeps
// raw-material stock consistent with recorded sales.
package sales

import (
	"context"
	"time"

	"dapur/internal/core/apperror"
	"dapur/internal/core/id"
	"dapur/internal/core/types"
	"dapur/internal/domain/measure"
)

// Sale is one recorded transaction: an ordered list of menu line items and
// the consumption footprint they produced at commit time.
type Sale struct {
	ID      id.ID `db:"id" json:"id"`
	OwnerID id.ID `db:"owner_id" json:"ownerId"`

	CustomerName string    `db:"customer_name" json:"customerName"`
	Date         time.Time `db:"date" json:"date"`

	Lines []SaleLine `db:"-" json:"lines"`

	// Amount is derived: sum of quantity × unit price over lines.
	Amount types.Money `db:"amount" json:"amount"`

	// Consumption is the resolved footprint snapshotted when the sale was
	// committed, already normalized to tracking units. Reversal always uses
	// this snapshot, so later recipe edits never change what an old sale
	// gives back.
	Consumption []ConsumptionEntry `db:"-" json:"consumption,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// SaleLine references a menu and how many units of it were sold.
type SaleLine struct {
	LineNo    int            `db:"line_no" json:"lineNo"`
	MenuID    id.ID          `db:"menu_id" json:"menuId"`
	Quantity  types.Quantity `db:"quantity" json:"quantity"`
	UnitPrice types.Money    `db:"unit_price" json:"unitPrice"`
}

// ConsumptionEntry is the net stock requirement of one raw material for a
// whole sale, expressed in the material's tracking unit. Quantities are
// positive magnitudes; direction comes from the planner.
type ConsumptionEntry struct {
	MaterialID   id.ID          `db:"material_id" json:"materialId"`
	MaterialName string         `db:"material_name" json:"materialName"`
	Quantity     types.Quantity `db:"quantity" json:"quantity"`
	Unit         measure.Unit   `db:"unit" json:"unit"`
}

// DefaultCustomerName labels walk-in sales without an explicit customer.
const DefaultCustomerName = "Walk-in"

// NewSale creates a sale skeleton; lines are added by the caller.
func NewSale(ownerID id.ID, customerName string, date time.Time) *Sale {
	if customerName == "" {
		customerName = DefaultCustomerName
	}
	if date.IsZero() {
		date = time.Now().UTC()
	}
	now := time.Now().UTC()
	return &Sale{
		ID:           id.New(),
		OwnerID:      ownerID,
		CustomerName: customerName,
		Date:         date,
		Lines:        make([]SaleLine, 0),
		Amount:       types.Zero(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// AddLine appends a line item and recalculates the total.
func (s *Sale) AddLine(menuID id.ID, quantity types.Quantity, unitPrice types.Money) {
	s.Lines = append(s.Lines, SaleLine{
		LineNo:    len(s.Lines) + 1,
		MenuID:    menuID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	})
	s.RecalculateAmount()
}

// RecalculateAmount recomputes the derived total from the line items.
func (s *Sale) RecalculateAmount() {
	total := types.Zero()
	for _, line := range s.Lines {
		total = total.Add(line.Quantity.Mul(line.UnitPrice))
	}
	s.Amount = total
}

// Validate checks sale invariants.
func (s *Sale) Validate(ctx context.Context) error {
	if id.IsNil(s.OwnerID) {
		return apperror.NewValidation("owner is required").
			WithDetail("field", "ownerId")
	}
	if len(s.Lines) == 0 {
		return apperror.NewValidation("at least one line item is required").
			WithDetail("field", "lines")
	}
	for i, line := range s.Lines {
		if id.IsNil(line.MenuID) {
			return apperror.NewValidation("line item requires a menu").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if !line.Quantity.IsPositive() {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if line.UnitPrice.IsNegative() {
			return apperror.NewValidation("unit price must not be negative").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
	}
	return nil
}
