package economy

import (
	"fmt"

	"SunshineSolar/internal/model"

	"github.com/shopspring/decimal"
)

// Generator describes one purchasable generator kind.
type Generator struct {
	Kind        model.GeneratorKind
	Label       string
	Yield       float64         // energy per unit per tick
	Price       decimal.Decimal // purchase price per unit
	Maintenance decimal.Decimal // charge per unit per maintenance pass
	BurnsFuel   bool
}

// Battery describes one storage tier.
type Battery struct {
	Tier     int
	Capacity float64
	Price    decimal.Decimal // cost of upgrading into this tier
}

// Table is the mutable input used to build Rates.
type Table struct {
	Generators         []Generator
	Batteries          []Battery
	FuelCost           decimal.Decimal // per fuel-burning unit per tick
	SalePrice          decimal.Decimal // per energy unit
	StartingMoney      decimal.Decimal
	StartingGenerators map[model.GeneratorKind]int
}

// DefaultTable returns the reference game balance.
func DefaultTable() Table {
	return Table{
		Generators: []Generator{
			{Kind: model.SolarPanel, Label: "Solar Panel", Yield: 15, Price: decimal.NewFromInt(1000), Maintenance: decimal.NewFromInt(20)},
			{Kind: model.WindTurbine, Label: "Wind Turbine", Yield: 25, Price: decimal.NewFromInt(2500), Maintenance: decimal.NewFromInt(75)},
			{Kind: model.GasGenerator, Label: "Gas Generator", Yield: 40, Price: decimal.NewFromInt(5000), Maintenance: decimal.NewFromInt(200), BurnsFuel: true},
		},
		Batteries: []Battery{
			{Tier: 1, Capacity: 1000, Price: decimal.NewFromInt(2000)},
			{Tier: 2, Capacity: 3000, Price: decimal.NewFromInt(7500)},
			{Tier: 3, Capacity: 10000, Price: decimal.NewFromInt(25000)},
			{Tier: 4, Capacity: 50000, Price: decimal.NewFromInt(100000)},
			{Tier: 5, Capacity: 250000, Price: decimal.NewFromInt(500000)},
		},
		FuelCost:      decimal.NewFromInt(5),
		SalePrice:     decimal.RequireFromString("0.1"),
		StartingMoney: decimal.NewFromInt(1000),
		StartingGenerators: map[model.GeneratorKind]int{
			model.SolarPanel: 1,
		},
	}
}

// Rates is the immutable rate table shared by the store and the accrual jobs.
// All accessors return copies.
type Rates struct {
	generators         []Generator
	byKind             map[model.GeneratorKind]Generator
	batteries          []Battery
	fuelCost           decimal.Decimal
	salePrice          decimal.Decimal
	startingMoney      decimal.Decimal
	startingGenerators map[model.GeneratorKind]int
}

// NewRates validates t and freezes it.
func NewRates(t Table) (*Rates, error) {
	r := &Rates{
		byKind:             make(map[model.GeneratorKind]Generator, len(t.Generators)),
		fuelCost:           t.FuelCost,
		salePrice:          t.SalePrice,
		startingMoney:      t.StartingMoney,
		startingGenerators: make(map[model.GeneratorKind]int, len(t.StartingGenerators)),
	}

	for _, g := range t.Generators {
		if !g.Kind.Valid() {
			return nil, fmt.Errorf("unknown generator kind %q", g.Kind)
		}
		if _, dup := r.byKind[g.Kind]; dup {
			return nil, fmt.Errorf("generator %q listed twice", g.Kind)
		}
		if g.Yield < 0 || !g.Price.IsPositive() || g.Maintenance.IsNegative() {
			return nil, fmt.Errorf("generator %q: yield and maintenance must be non-negative, price positive", g.Kind)
		}
		if g.Label == "" {
			g.Label = string(g.Kind)
		}
		r.byKind[g.Kind] = g
		r.generators = append(r.generators, g)
	}
	for _, k := range model.GeneratorKinds {
		if _, ok := r.byKind[k]; !ok {
			return nil, fmt.Errorf("missing rates for generator %q", k)
		}
	}

	if len(t.Batteries) == 0 {
		return nil, fmt.Errorf("at least one battery tier is required")
	}
	for i, b := range t.Batteries {
		if b.Tier != i+1 {
			return nil, fmt.Errorf("battery tiers must be contiguous from 1, got tier %d at position %d", b.Tier, i+1)
		}
		if b.Capacity <= 0 || b.Price.IsNegative() {
			return nil, fmt.Errorf("battery tier %d: capacity must be positive, price non-negative", b.Tier)
		}
		if i > 0 && b.Capacity < t.Batteries[i-1].Capacity {
			return nil, fmt.Errorf("battery tier %d: capacity must not shrink", b.Tier)
		}
	}
	r.batteries = append([]Battery(nil), t.Batteries...)

	if r.fuelCost.IsNegative() {
		return nil, fmt.Errorf("fuel cost must be non-negative")
	}
	if !r.salePrice.IsPositive() {
		return nil, fmt.Errorf("energy sale price must be positive")
	}
	if r.startingMoney.IsNegative() {
		return nil, fmt.Errorf("starting money must be non-negative")
	}
	for k, n := range t.StartingGenerators {
		if !k.Valid() || n < 0 {
			return nil, fmt.Errorf("invalid starting generator %q x%d", k, n)
		}
		r.startingGenerators[k] = n
	}
	return r, nil
}

// MustDefault returns the reference rates. It panics only if DefaultTable is broken.
func MustDefault() *Rates {
	r, err := NewRates(DefaultTable())
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Rates) Generator(k model.GeneratorKind) (Generator, bool) {
	g, ok := r.byKind[k]
	return g, ok
}

func (r *Rates) Generators() []Generator {
	return append([]Generator(nil), r.generators...)
}

func (r *Rates) Battery(tier int) (Battery, bool) {
	if tier < 1 || tier > len(r.batteries) {
		return Battery{}, false
	}
	return r.batteries[tier-1], true
}

func (r *Rates) Batteries() []Battery {
	return append([]Battery(nil), r.batteries...)
}

// Capacity returns the storage limit of tier, or 0 for an unknown tier.
func (r *Rates) Capacity(tier int) float64 {
	b, ok := r.Battery(tier)
	if !ok {
		return 0
	}
	return b.Capacity
}

func (r *Rates) MaxTier() int { return len(r.batteries) }
func (r *Rates) FuelCost() decimal.Decimal { return r.fuelCost }
func (r *Rates) SalePrice() decimal.Decimal { return r.salePrice }
func (r *Rates) StartingMoney() decimal.Decimal { return r.startingMoney }

// NewAccount builds a freshly registered account.
func (r *Rates) NewAccount(name string) model.Account {
	gens := make(map[model.GeneratorKind]int, len(model.GeneratorKinds))
	for _, k := range model.GeneratorKinds {
		gens[k] = r.startingGenerators[k]
	}
	return model.Account{
		Name:        name,
		Money:       r.startingMoney,
		Energy:      0,
		BatteryTier: 1,
		Generators:  gens,
	}
}
