package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"SunshineSolar/internal/economy"
	"SunshineSolar/internal/model"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// storedAccount is the on-disk shape of one account.
type storedAccount struct {
	Name        string                      `json:"name"`
	Money       float64                     `json:"money"`
	Energy      float64                     `json:"energy"`
	BatteryTier int                         `json:"battery_tier"`
	Generators  map[model.GeneratorKind]int `json:"generators"`
}

// rawAccount is what a snapshot record decodes into before normalisation.
// Pointer fields distinguish "missing" from "zero".
type rawAccount struct {
	Name        *string                     `json:"name"`
	Money       *float64                    `json:"money" validate:"required,gte=0"`
	Energy      *float64                    `json:"energy" validate:"required,gte=0"`
	BatteryTier *int                        `json:"battery_tier" validate:"required,gte=1"`
	Generators  map[model.GeneratorKind]int `json:"generators" validate:"required,dive,keys,oneof=solar_panel wind_turbine gas_generator,endkeys,gte=0"`
}

// decodeSnapshot parses a whole snapshot. A syntax error or a non-object
// document is ErrStorageCorrupt; individual bad records are rejected and the
// rest are kept.
func decodeSnapshot(data []byte, rates *economy.Rates, v *validator.Validate) (map[string]*model.Account, []string, []string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %v", ErrStorageCorrupt, err)
	}

	accounts := make(map[string]*model.Account, len(raw))
	var repaired, rejected []string
	for _, id := range sortedKeys(raw) {
		msg := raw[id]
		if id == "" || bytes.Equal(bytes.TrimSpace(msg), []byte("null")) {
			rejected = append(rejected, fmt.Sprintf("%q: empty record", id))
			continue
		}
		var rec rawAccount
		if err := json.Unmarshal(msg, &rec); err != nil {
			rejected = append(rejected, fmt.Sprintf("%q: %v", id, err))
			continue
		}
		acc, fixes := normalize(&rec, rates, v)
		if len(fixes) > 0 {
			repaired = append(repaired, fmt.Sprintf("%q: %s", id, strings.Join(fixes, ", ")))
		}
		accounts[id] = acc
	}
	return accounts, repaired, rejected, nil
}

// normalize turns a decoded record into a full account, filling defaults and
// clamping values into range. The returned notes describe every repair.
func normalize(rec *rawAccount, rates *economy.Rates, v *validator.Validate) (*model.Account, []string) {
	var notes []string
	if err := v.Struct(rec); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				notes = append(notes, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
			}
		} else {
			notes = append(notes, err.Error())
		}
	}

	acc := &model.Account{
		Money:       decimal.Zero,
		BatteryTier: 1,
		Generators:  make(map[model.GeneratorKind]int, len(model.GeneratorKinds)),
	}
	if rec.Name != nil {
		acc.Name = *rec.Name
	}
	if rec.Money != nil && *rec.Money > 0 && !math.IsInf(*rec.Money, 0) {
		acc.Money = decimal.NewFromFloat(*rec.Money)
	}
	if rec.BatteryTier != nil {
		acc.BatteryTier = *rec.BatteryTier
	}
	if acc.BatteryTier < 1 {
		acc.BatteryTier = 1
	}
	if maxTier := rates.MaxTier(); acc.BatteryTier > maxTier {
		notes = append(notes, fmt.Sprintf("BatteryTier %d above max %d", acc.BatteryTier, maxTier))
		acc.BatteryTier = maxTier
	}
	if rec.Energy != nil && *rec.Energy > 0 {
		acc.Energy = *rec.Energy
	}
	if capacity := rates.Capacity(acc.BatteryTier); acc.Energy > capacity {
		notes = append(notes, fmt.Sprintf("Energy %g above capacity %g", acc.Energy, capacity))
		acc.Energy = capacity
	}
	for _, k := range model.GeneratorKinds {
		if n := rec.Generators[k]; n > 0 {
			acc.Generators[k] = n
		} else {
			acc.Generators[k] = 0
		}
	}
	return acc, notes
}

func encodeSnapshot(accounts map[string]*model.Account) ([]byte, error) {
	out := make(map[string]storedAccount, len(accounts))
	for id, acc := range accounts {
		if acc == nil {
			continue
		}
		gens := make(map[model.GeneratorKind]int, len(model.GeneratorKinds))
		for _, k := range model.GeneratorKinds {
			gens[k] = acc.Count(k)
		}
		out[id] = storedAccount{
			Name:        acc.Name,
			Money:       acc.Money.InexactFloat64(),
			Energy:      acc.Energy,
			BatteryTier: acc.BatteryTier,
			Generators:  gens,
		}
	}
	return json.MarshalIndent(out, "", "    ")
}

func writeSnapshot(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create ledger dir: %w", err)
		}
	}
	return os.WriteFile(path, data, 0644)
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
