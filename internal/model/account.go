package model

import "github.com/shopspring/decimal"

// GeneratorKind identifies a type of power generator.
type GeneratorKind string

const (
	SolarPanel   GeneratorKind = "solar_panel"
	WindTurbine  GeneratorKind = "wind_turbine"
	GasGenerator GeneratorKind = "gas_generator"
)

// GeneratorKinds lists every kind in display order.
var GeneratorKinds = []GeneratorKind{SolarPanel, WindTurbine, GasGenerator}

// Valid reports whether k is one of the known kinds.
func (k GeneratorKind) Valid() bool {
	for _, known := range GeneratorKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Account is one player's farm.
type Account struct {
	Name        string
	Money       decimal.Decimal
	Energy      float64
	BatteryTier int
	Generators  map[GeneratorKind]int
}

// Clone returns a deep copy, safe to hand out of the store.
func (a *Account) Clone() Account {
	c := *a
	c.Generators = make(map[GeneratorKind]int, len(a.Generators))
	for k, v := range a.Generators {
		c.Generators[k] = v
	}
	return c
}

// Count returns how many generators of kind k the account owns.
func (a *Account) Count(k GeneratorKind) int {
	if a.Generators == nil {
		return 0
	}
	return a.Generators[k]
}
