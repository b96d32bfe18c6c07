package economy

import (
	"errors"
	"fmt"
	"math"

	"SunshineSolar/internal/model"

	"github.com/shopspring/decimal"
)

// ErrUnknownTier is returned when an account references a tier with no capacity.
var ErrUnknownTier = errors.New("unknown battery tier")

// TickResult describes what one generation tick did to an account.
type TickResult struct {
	Generated   float64         // produced this tick, before clipping
	Stored      float64         // actually added to storage
	FuelPaid    decimal.Decimal // debited for fuel
	FuelSkipped bool            // fuel units owned but not funded this tick
}

// Generate applies one tick of production to acc.
//
// Free-fuel kinds always produce. A fuel-burning kind produces only when the
// whole fuel bill for that kind is covered; otherwise it produces nothing and
// no debt is recorded. Stored energy is capped at the current tier's capacity.
func (r *Rates) Generate(acc *model.Account) (TickResult, error) {
	var res TickResult
	capacity := r.Capacity(acc.BatteryTier)
	if capacity <= 0 {
		return res, fmt.Errorf("%w: %d", ErrUnknownTier, acc.BatteryTier)
	}

	for _, g := range r.generators {
		n := acc.Count(g.Kind)
		if n <= 0 {
			continue
		}
		if g.BurnsFuel {
			due := r.fuelCost.Mul(decimal.NewFromInt(int64(n)))
			if acc.Money.LessThan(due) {
				res.FuelSkipped = true
				continue
			}
			acc.Money = acc.Money.Sub(due)
			res.FuelPaid = res.FuelPaid.Add(due)
		}
		res.Generated += float64(n) * g.Yield
	}

	before := acc.Energy
	acc.Energy = math.Min(acc.Energy+res.Generated, capacity)
	res.Stored = acc.Energy - before
	return res, nil
}

// MaintenanceDue is the total maintenance charge for acc's equipment.
func (r *Rates) MaintenanceDue(acc *model.Account) decimal.Decimal {
	total := decimal.Zero
	for _, g := range r.generators {
		if n := acc.Count(g.Kind); n > 0 {
			total = total.Add(g.Maintenance.Mul(decimal.NewFromInt(int64(n))))
		}
	}
	return total
}

// ApplyMaintenance charges maintenance, clamping the balance at zero.
// It returns the amount actually taken.
func (r *Rates) ApplyMaintenance(acc *model.Account) decimal.Decimal {
	due := r.MaintenanceDue(acc)
	if !due.IsPositive() {
		return decimal.Zero
	}
	if acc.Money.LessThan(due) {
		taken := acc.Money
		acc.Money = decimal.Zero
		return taken
	}
	acc.Money = acc.Money.Sub(due)
	return due
}

// GenerationRate is the nominal output per tick with every generator running.
func (r *Rates) GenerationRate(acc *model.Account) float64 {
	var total float64
	for _, g := range r.generators {
		total += float64(acc.Count(g.Kind)) * g.Yield
	}
	return total
}

// KindRate is the output per tick of n units of kind k.
func (r *Rates) KindRate(k model.GeneratorKind, n int) float64 {
	g, ok := r.byKind[k]
	if !ok {
		return 0
	}
	return float64(n) * g.Yield
}

// FuelPerTick is the fuel bill per tick for acc's fuel-burning units.
func (r *Rates) FuelPerTick(acc *model.Account) decimal.Decimal {
	total := decimal.Zero
	for _, g := range r.generators {
		if g.BurnsFuel {
			total = total.Add(r.fuelCost.Mul(decimal.NewFromInt(int64(acc.Count(g.Kind)))))
		}
	}
	return total
}

// DailyFuelCost is the fuel bill if every fuel unit runs for ticksPerDay ticks.
func (r *Rates) DailyFuelCost(acc *model.Account, ticksPerDay int) decimal.Decimal {
	return r.FuelPerTick(acc).Mul(decimal.NewFromInt(int64(ticksPerDay)))
}
