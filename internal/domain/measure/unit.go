// Package measure provides measurement units and quantity conversion.
// Conversion is pure: no I/O, deterministic, and every failure is explicit.
package measure

import (
	"strings"

	"dapur/internal/core/apperror"
)

// Class defines a compatibility class of measurement units.
// Conversion is only implicitly defined inside one class; crossing classes
// requires a named rule (see Converter.Register).
type Class string

const (
	ClassMass   Class = "mass"
	ClassVolume Class = "volume"
	ClassCount  Class = "count"
)

// Unit is an enumerated measurement unit.
type Unit string

const (
	UnitGram       Unit = "gram"
	UnitKilogram   Unit = "kilogram"
	UnitMilliliter Unit = "milliliter"
	UnitLiter      Unit = "liter"
	UnitPiece      Unit = "piece"
)

// Class returns the compatibility class of the unit.
func (u Unit) Class() (Class, bool) {
	switch u {
	case UnitGram, UnitKilogram:
		return ClassMass, true
	case UnitMilliliter, UnitLiter:
		return ClassVolume, true
	case UnitPiece:
		return ClassCount, true
	}
	return "", false
}

// Symbol returns the short display symbol for the unit.
func (u Unit) Symbol() string {
	switch u {
	case UnitGram:
		return "g"
	case UnitKilogram:
		return "kg"
	case UnitMilliliter:
		return "ml"
	case UnitLiter:
		return "l"
	case UnitPiece:
		return "pcs"
	}
	return string(u)
}

// IsValid reports whether the unit is one of the known enumerated values.
func (u Unit) IsValid() bool {
	_, ok := u.Class()
	return ok
}

var unitAliases = map[string]Unit{
	"gram":       UnitGram,
	"g":          UnitGram,
	"kilogram":   UnitKilogram,
	"kg":         UnitKilogram,
	"milliliter": UnitMilliliter,
	"ml":         UnitMilliliter,
	"liter":      UnitLiter,
	"l":          UnitLiter,
	"piece":      UnitPiece,
	"pcs":        UnitPiece,
}

// ParseUnit converts a string (canonical name or common symbol) to a Unit.
func ParseUnit(s string) (Unit, error) {
	if u, ok := unitAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return u, nil
	}
	return "", apperror.NewValidation("unknown measurement unit").
		WithDetail("unit", s)
}
