package measure

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dapur/internal/core/apperror"
)

func TestConvert_SameClass(t *testing.T) {
	c := NewConverter()

	tests := []struct {
		name string
		qty  string
		from Unit
		to   Unit
		want string
	}{
		{"kilogram to gram", "1.5", UnitKilogram, UnitGram, "1500"},
		{"gram to kilogram", "250", UnitGram, UnitKilogram, "0.25"},
		{"liter to milliliter", "0.75", UnitLiter, UnitMilliliter, "750"},
		{"milliliter to liter", "330", UnitMilliliter, UnitLiter, "0.33"},
		{"identity", "42", UnitGram, UnitGram, "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Convert(decimal.RequireFromString(tt.qty), tt.from, tt.to)
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
				"want %s, got %s", tt.want, got.String())
		})
	}
}

func TestConvert_Unsupported(t *testing.T) {
	c := NewConverter()

	_, err := c.Convert(decimal.NewFromInt(100), UnitGram, UnitMilliliter)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeUnsupportedConversion, appErr.Code)
	assert.Equal(t, "gram", appErr.Details["from"])
	assert.Equal(t, "milliliter", appErr.Details["to"])
}

func TestConvert_CountHasNoImplicitRules(t *testing.T) {
	c := NewConverter()

	for _, to := range []Unit{UnitGram, UnitKilogram, UnitMilliliter, UnitLiter} {
		_, err := c.Convert(decimal.NewFromInt(1), UnitPiece, to)
		assert.True(t, apperror.HasCode(err, apperror.CodeUnsupportedConversion),
			"piece to %s should be unsupported", to)
	}
}

func TestRegister_CrossClassRule(t *testing.T) {
	c := NewConverter()

	err := c.Register(Rule{
		Name:   "chicken-piece-weight",
		From:   UnitPiece,
		To:     UnitGram,
		Factor: decimal.NewFromInt(1200),
	})
	require.NoError(t, err)

	got, err := c.Convert(decimal.NewFromInt(2), UnitPiece, UnitGram)
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(2400)))

	// Inverse is derived automatically and is the exact inverse.
	back, err := c.Convert(got, UnitGram, UnitPiece)
	require.NoError(t, err)
	assert.True(t, back.Equal(decimal.NewFromInt(2)))
}

func TestRegister_Validation(t *testing.T) {
	c := NewConverter()
	factor := decimal.NewFromInt(10)

	tests := []struct {
		name string
		rule Rule
	}{
		{"missing name", Rule{From: UnitPiece, To: UnitGram, Factor: factor}},
		{"unknown unit", Rule{Name: "x", From: Unit("stone"), To: UnitGram, Factor: factor}},
		{"same unit", Rule{Name: "x", From: UnitGram, To: UnitGram, Factor: factor}},
		{"zero factor", Rule{Name: "x", From: UnitPiece, To: UnitGram, Factor: decimal.Zero}},
		{"negative factor", Rule{Name: "x", From: UnitPiece, To: UnitGram, Factor: decimal.NewFromInt(-5)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Register(tt.rule)
			assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
		})
	}
}

// TestTableClosure verifies that every registered direction has a working
// inverse and that a round trip restores the original quantity exactly.
func TestTableClosure(t *testing.T) {
	c := NewConverter()
	require.NoError(t, c.Register(Rule{
		Name:   "egg-piece-weight",
		From:   UnitPiece,
		To:     UnitGram,
		Factor: decimal.RequireFromString("62.5"),
	}))

	qty := decimal.RequireFromString("3.2")
	for _, pair := range c.Pairs() {
		from, to := pair[0], pair[1]

		assert.True(t, c.Supports(from, to), "%s to %s", from, to)
		assert.True(t, c.Supports(to, from), "missing inverse %s to %s", to, from)

		there, err := c.Convert(qty, from, to)
		require.NoError(t, err)
		back, err := c.Convert(there, to, from)
		require.NoError(t, err)
		assert.True(t, back.Equal(qty),
			"round trip %s to %s: want %s, got %s", from, to, qty.String(), back.String())
	}
}

func TestParseUnit(t *testing.T) {
	for alias, want := range map[string]Unit{
		"g":          UnitGram,
		"gram":       UnitGram,
		"kg":         UnitKilogram,
		"ml":         UnitMilliliter,
		"l":          UnitLiter,
		"pcs":        UnitPiece,
		"piece":      UnitPiece,
		"milliliter": UnitMilliliter,
	} {
		got, err := ParseUnit(alias)
		require.NoError(t, err, alias)
		assert.Equal(t, want, got, alias)
	}

	_, err := ParseUnit("bushel")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}
