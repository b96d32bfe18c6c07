package ledger

import (
	"errors"
	"testing"

	"SunshineSolar/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setAccount overwrites an account in place for test setup.
func setAccount(t *testing.T, s *Store, id string, mutate func(*model.Account)) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	require.True(t, ok, "account %s missing", id)
	mutate(acc)
}

func TestRegister(t *testing.T) {
	s, _ := newTestStore(t)

	acc, err := s.Register("u1", "alice")
	require.NoError(t, err)
	assert.Equal(t, "1000", acc.Money.String())
	assert.Zero(t, acc.Energy)
	assert.Equal(t, 1, acc.BatteryTier)
	assert.Equal(t, 1, acc.Generators[model.SolarPanel])

	_, err = s.Register("u1", "alice again")
	assert.ErrorIs(t, err, ErrAlreadyExists)

	got, err := s.Status("u1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Name)
}

func TestOperations_UnknownAccount(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Status("ghost")
	assert.ErrorIs(t, err, ErrUnknownAccount)
	_, err = s.Purchase("ghost", model.SolarPanel, 1)
	assert.ErrorIs(t, err, ErrUnknownAccount)
	_, err = s.UpgradeBattery("ghost")
	assert.ErrorIs(t, err, ErrUnknownAccount)
	_, err = s.SellAllEnergy("ghost")
	assert.ErrorIs(t, err, ErrUnknownAccount)
	assert.Equal(t, 0, s.Len(), "operations must not auto-create accounts")
}

func TestPurchase(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Register("u1", "alice")
	require.NoError(t, err)
	setAccount(t, s, "u1", func(a *model.Account) { a.Money = decimal.NewFromInt(12000) })

	res, err := s.Purchase("u1", model.GasGenerator, 2)
	require.NoError(t, err)
	assert.Equal(t, "10000", res.Cost.String())
	assert.Equal(t, "2000", res.Balance.String())
	assert.Equal(t, 2, res.Owned)
	assert.Equal(t, 80.0, res.RateDelta)
	assert.Equal(t, "400", res.MaintenanceDelta.String())
	assert.Equal(t, "10", res.FuelDelta.String())

	acc, err := s.Status("u1")
	require.NoError(t, err)
	assert.Equal(t, "2000", acc.Money.String())
	assert.Equal(t, 2, acc.Generators[model.GasGenerator])
}

func TestPurchase_Rejections(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Register("u1", "alice")
	require.NoError(t, err)

	tests := []struct {
		name string
		kind model.GeneratorKind
		qty  int
		want error
	}{
		{"zero quantity", model.SolarPanel, 0, ErrInvalidQuantity},
		{"negative quantity", model.SolarPanel, -3, ErrInvalidQuantity},
		{"unknown kind", model.GeneratorKind("nuclear"), 1, ErrUnknownGenerator},
		{"too expensive", model.WindTurbine, 1, ErrInsufficientFunds},
		{"too many", model.SolarPanel, 2, ErrInsufficientFunds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Purchase("u1", tt.kind, tt.qty)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	acc, err := s.Status("u1")
	require.NoError(t, err)
	assert.Equal(t, "1000", acc.Money.String(), "rejected purchases must not change the balance")
	assert.Equal(t, 1, acc.Generators[model.SolarPanel])
}

func TestPurchase_InsufficientFundsDetail(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Register("u1", "alice")
	require.NoError(t, err)

	_, err = s.Purchase("u1", model.WindTurbine, 1)
	var ife *InsufficientFundsError
	require.True(t, errors.As(err, &ife))
	assert.Equal(t, "2500", ife.Need.String())
	assert.Equal(t, "1000", ife.Have.String())
	assert.Equal(t, "1500", ife.Shortfall().String())
}

func TestPurchase_ExactBalance(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Register("u1", "alice")
	require.NoError(t, err)

	res, err := s.Purchase("u1", model.SolarPanel, 1)
	require.NoError(t, err)
	assert.True(t, res.Balance.IsZero())
	assert.Equal(t, 2, res.Owned)
}

func TestUpgradeBattery(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Register("u1", "alice")
	require.NoError(t, err)

	_, err = s.UpgradeBattery("u1")
	var ife *InsufficientFundsError
	require.ErrorAs(t, err, &ife)
	assert.Equal(t, "7500", ife.Need.String())

	setAccount(t, s, "u1", func(a *model.Account) { a.Money = decimal.NewFromInt(10000) })
	res, err := s.UpgradeBattery("u1")
	require.NoError(t, err)
	assert.Equal(t, 1, res.FromTier)
	assert.Equal(t, 2, res.ToTier)
	assert.Equal(t, 1000.0, res.OldCapacity)
	assert.Equal(t, 3000.0, res.NewCapacity)
	assert.Equal(t, "2500", res.Balance.String())

	acc, _ := s.Status("u1")
	assert.Equal(t, 2, acc.BatteryTier)
}

func TestUpgradeBattery_MaxTierRegardlessOfBalance(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Register("u1", "alice")
	require.NoError(t, err)
	setAccount(t, s, "u1", func(a *model.Account) {
		a.BatteryTier = 5
		a.Money = decimal.NewFromInt(1e12)
	})

	_, err = s.UpgradeBattery("u1")
	assert.ErrorIs(t, err, ErrAlreadyMaxTier)
	acc, _ := s.Status("u1")
	assert.Equal(t, 5, acc.BatteryTier)
	assert.Equal(t, "1000000000000", acc.Money.String())
}

func TestSellEnergy(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Register("u1", "alice")
	require.NoError(t, err)
	setAccount(t, s, "u1", func(a *model.Account) { a.Energy = 100 })

	tests := []struct {
		qty  float64
		want error
	}{
		{0, ErrInvalidQuantity},
		{-1, ErrInvalidQuantity},
		{100.5, ErrInvalidQuantity},
	}
	for _, tt := range tests {
		_, err := s.SellEnergy("u1", tt.qty)
		assert.ErrorIs(t, err, tt.want, "qty %v", tt.qty)
	}

	res, err := s.SellEnergy("u1", 40)
	require.NoError(t, err)
	assert.Equal(t, "4", res.Earnings.String())
	assert.Equal(t, "1004", res.Balance.String())
	assert.Equal(t, 60.0, res.Energy)
	assert.Equal(t, 1000.0, res.Capacity)

	res, err = s.SellAllEnergy("u1")
	require.NoError(t, err)
	assert.Equal(t, 60.0, res.Sold)
	assert.Zero(t, res.Energy)

	_, err = s.SellAllEnergy("u1")
	assert.ErrorIs(t, err, ErrNoEnergyAvailable)
}

func TestScenario_EndToEnd(t *testing.T) {
	s, _ := newTestStore(t)

	acc, err := s.Register("u1", "alice")
	require.NoError(t, err)
	assert.Equal(t, "1000", acc.Money.String())

	s.RunGeneration()
	acc, _ = s.Status("u1")
	assert.Equal(t, 15.0, acc.Energy)

	_, err = s.Purchase("u1", model.WindTurbine, 1)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	res, err := s.SellEnergy("u1", 15)
	require.NoError(t, err)
	assert.Equal(t, "1001.5", res.Balance.String())
	assert.Zero(t, res.Energy)

	_, err = s.SellEnergy("u1", 15)
	assert.ErrorIs(t, err, ErrNoEnergyAvailable)
}
