package ledger

import (
	"fmt"
	"log"

	"SunshineSolar/internal/metrics"
	"SunshineSolar/internal/model"

	"github.com/shopspring/decimal"
)

// PurchaseResult describes a completed generator purchase.
type PurchaseResult struct {
	Kind             model.GeneratorKind
	Quantity         int
	Cost             decimal.Decimal
	Balance          decimal.Decimal
	Owned            int
	RateDelta        float64         // extra energy per tick
	MaintenanceDelta decimal.Decimal // extra maintenance per pass
	FuelDelta        decimal.Decimal // extra fuel per tick, zero for free-fuel kinds
}

// UpgradeResult describes a completed battery upgrade.
type UpgradeResult struct {
	FromTier    int
	ToTier      int
	Cost        decimal.Decimal
	Balance     decimal.Decimal
	OldCapacity float64
	NewCapacity float64
}

// SaleResult describes a completed energy sale.
type SaleResult struct {
	Sold      float64
	UnitPrice decimal.Decimal
	Earnings  decimal.Decimal
	Balance   decimal.Decimal
	Energy    float64
	Capacity  float64
}

// Register creates a starter account for id.
func (s *Store) Register(id, name string) (model.Account, error) {
	acc := s.rates.NewAccount(name)
	if err := s.Create(id, acc); err != nil {
		observe("register", err)
		return model.Account{}, err
	}
	observe("register", nil)
	log.Printf("[INFO] new user registered: %s (%s)", name, id)
	return acc, nil
}

// Status returns a copy of id's account.
func (s *Store) Status(id string) (model.Account, error) {
	return s.Get(id)
}

// Purchase buys qty generators of kind for id.
func (s *Store) Purchase(id string, kind model.GeneratorKind, qty int) (res PurchaseResult, err error) {
	defer func() { observe("purchase", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok || acc == nil {
		return res, ErrUnknownAccount
	}
	if qty <= 0 {
		return res, &InvalidQuantityError{Requested: float64(qty)}
	}
	g, ok := s.rates.Generator(kind)
	if !ok {
		return res, fmt.Errorf("%w: %q", ErrUnknownGenerator, kind)
	}
	n := decimal.NewFromInt(int64(qty))
	cost := g.Price.Mul(n)
	if acc.Money.LessThan(cost) {
		return res, &InsufficientFundsError{Need: cost, Have: acc.Money}
	}

	acc.Money = acc.Money.Sub(cost)
	if acc.Generators == nil {
		acc.Generators = make(map[model.GeneratorKind]int)
	}
	acc.Generators[kind] += qty
	s.saveLocked()

	res = PurchaseResult{
		Kind:             kind,
		Quantity:         qty,
		Cost:             cost,
		Balance:          acc.Money,
		Owned:            acc.Generators[kind],
		RateDelta:        s.rates.KindRate(kind, qty),
		MaintenanceDelta: g.Maintenance.Mul(n),
		FuelDelta:        decimal.Zero,
	}
	if g.BurnsFuel {
		res.FuelDelta = s.rates.FuelCost().Mul(n)
	}
	log.Printf("[INFO] user %s bought %dx %s for %s", id, qty, kind, cost.StringFixed(2))
	return res, nil
}

// UpgradeBattery moves id's battery up exactly one tier.
func (s *Store) UpgradeBattery(id string) (res UpgradeResult, err error) {
	defer func() { observe("upgrade_battery", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok || acc == nil {
		return res, ErrUnknownAccount
	}
	if acc.BatteryTier >= s.rates.MaxTier() {
		return res, fmt.Errorf("%w (tier %d)", ErrAlreadyMaxTier, acc.BatteryTier)
	}
	next, _ := s.rates.Battery(acc.BatteryTier + 1)
	if acc.Money.LessThan(next.Price) {
		return res, &InsufficientFundsError{Need: next.Price, Have: acc.Money}
	}

	res = UpgradeResult{
		FromTier:    acc.BatteryTier,
		ToTier:      next.Tier,
		Cost:        next.Price,
		OldCapacity: s.rates.Capacity(acc.BatteryTier),
		NewCapacity: next.Capacity,
	}
	acc.Money = acc.Money.Sub(next.Price)
	acc.BatteryTier = next.Tier
	res.Balance = acc.Money
	s.saveLocked()

	log.Printf("[INFO] user %s upgraded battery to tier %d for %s", id, next.Tier, next.Price.StringFixed(2))
	return res, nil
}

// SellEnergy sells qty units of stored energy for id.
func (s *Store) SellEnergy(id string, qty float64) (SaleResult, error) {
	return s.sell(id, qty, false)
}

// SellAllEnergy sells everything id has stored.
func (s *Store) SellAllEnergy(id string) (SaleResult, error) {
	return s.sell(id, 0, true)
}

func (s *Store) sell(id string, qty float64, all bool) (res SaleResult, err error) {
	defer func() { observe("sell_energy", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok || acc == nil {
		return res, ErrUnknownAccount
	}
	if acc.Energy <= 0 {
		return res, ErrNoEnergyAvailable
	}
	if all {
		qty = acc.Energy
	}
	if qty <= 0 || qty > acc.Energy {
		return res, &InvalidQuantityError{Requested: qty, Available: acc.Energy}
	}

	price := s.rates.SalePrice()
	earnings := decimal.NewFromFloat(qty).Mul(price)
	acc.Energy -= qty
	acc.Money = acc.Money.Add(earnings)
	s.saveLocked()

	log.Printf("[INFO] user %s sold %.0f energy for %s", id, qty, earnings.StringFixed(2))
	return SaleResult{
		Sold:      qty,
		UnitPrice: price,
		Earnings:  earnings,
		Balance:   acc.Money,
		Energy:    acc.Energy,
		Capacity:  s.rates.Capacity(acc.BatteryTier),
	}, nil
}

func observe(op string, err error) {
	result := "ok"
	if err != nil {
		result = "rejected"
	}
	metrics.Operations.WithLabelValues(op, result).Inc()
}
