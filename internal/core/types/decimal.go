// Package types provides common value types shared across the domain.
package types

import (
	"github.com/shopspring/decimal"
)

// Quantity represents an exact decimal amount of a raw material or a menu
// item. decimal.Decimal is used instead of float64 so that repeated
// apply/reverse cycles never accumulate rounding drift.
type Quantity = decimal.Decimal

// Money represents a monetary value with full precision.
type Money = decimal.Decimal

// Zero returns a zero decimal value.
func Zero() decimal.Decimal {
	return decimal.Zero
}

// NewQuantityFromString parses an exact decimal quantity.
// This is the preferred constructor at API boundaries.
func NewQuantityFromString(s string) (Quantity, error) {
	return decimal.NewFromString(s)
}

// MustQuantity parses a decimal quantity, panics on error.
// Use only for constants and tests.
func MustQuantity(s string) Quantity {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// NewQuantityFromInt creates a Quantity from an integer count.
func NewQuantityFromInt(n int64) Quantity {
	return decimal.NewFromInt(n)
}
