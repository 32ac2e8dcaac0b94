package measure

import (
	"sync"

	"github.com/shopspring/decimal"

	"dapur/internal/core/apperror"
	"dapur/internal/core/types"
)

// Rule declares a directed conversion between two units.
// Factor is the multiplier applied when converting From → To.
// Cross-class rules (e.g. piece → gram for a countable ingredient sold by
// weight) must carry a Name so they stay explicit in configuration.
type Rule struct {
	Name   string
	From   Unit
	To     Unit
	Factor types.Quantity
}

type convKey struct {
	from Unit
	to   Unit
}

// entry records how to convert a pair. The reverse of a registered rule is
// stored as a division by the same factor, so the round trip is the exact
// mathematical inverse.
type entry struct {
	factor decimal.Decimal
	divide bool
}

// Converter converts quantities between measurement units via a directed
// table of rules. The table is closed: registering A→B always registers
// B→A as its inverse.
type Converter struct {
	mu    sync.RWMutex
	table map[convKey]entry
}

// NewConverter returns a converter preloaded with the same-class rules:
// gram↔kilogram and milliliter↔liter. Count has no implicit conversions.
func NewConverter() *Converter {
	c := &Converter{table: make(map[convKey]entry)}
	thousand := decimal.NewFromInt(1000)
	c.register(UnitKilogram, UnitGram, thousand)
	c.register(UnitLiter, UnitMilliliter, thousand)
	return c
}

// Register adds a named cross-class rule and its inverse.
func (c *Converter) Register(rule Rule) error {
	if rule.Name == "" {
		return apperror.NewValidation("conversion rule requires a name")
	}
	if !rule.From.IsValid() || !rule.To.IsValid() {
		return apperror.NewValidation("conversion rule references unknown unit").
			WithDetail("from", string(rule.From)).
			WithDetail("to", string(rule.To))
	}
	if rule.From == rule.To {
		return apperror.NewValidation("conversion rule must relate two distinct units")
	}
	if !rule.Factor.IsPositive() {
		return apperror.NewValidation("conversion factor must be positive").
			WithDetail("factor", rule.Factor.String())
	}
	c.register(rule.From, rule.To, rule.Factor)
	return nil
}

func (c *Converter) register(from, to Unit, factor decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.table[convKey{from, to}] = entry{factor: factor}
	c.table[convKey{to, from}] = entry{factor: factor, divide: true}
}

// Supports reports whether a rule exists for the (from, to) pair.
func (c *Converter) Supports(from, to Unit) bool {
	if from == to {
		return true
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.table[convKey{from, to}]
	return ok
}

// Convert converts a quantity from one unit to another. Same-unit
// conversion is the identity. A missing rule surfaces as
// UNSUPPORTED_CONVERSION, never as a silent identity.
func (c *Converter) Convert(q types.Quantity, from, to Unit) (types.Quantity, error) {
	if from == to {
		return q, nil
	}

	c.mu.RLock()
	e, ok := c.table[convKey{from, to}]
	c.mu.RUnlock()
	if !ok {
		return decimal.Zero, apperror.NewUnsupportedConversion(string(from), string(to))
	}

	if e.divide {
		return q.Div(e.factor), nil
	}
	return q.Mul(e.factor), nil
}

// Pairs returns every (from, to) pair the converter currently supports.
// Used by tests to verify closure of the table.
func (c *Converter) Pairs() [][2]Unit {
	c.mu.RLock()
	defer c.mu.RUnlock()
	pairs := make([][2]Unit, 0, len(c.table))
	for k := range c.table {
		pairs = append(pairs, [2]Unit{k.from, k.to})
	}
	return pairs
}
