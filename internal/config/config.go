package config

import (
	"fmt"
	"os"
	"strconv"

	"SunshineSolar/internal/economy"
	"SunshineSolar/internal/model"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Discord struct {
		Token  string `yaml:"token"`
		Prefix string `yaml:"command_prefix"`
	} `yaml:"discord"`
	Ledger struct {
		File     string `yaml:"file"`
		SeedFile string `yaml:"seed_file"`
	} `yaml:"ledger"`
	Schedule struct {
		Generation  string `yaml:"generation"`
		Maintenance string `yaml:"maintenance"`
		TicksPerDay int    `yaml:"ticks_per_day"`
	} `yaml:"schedule"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Commands struct {
		RatePerSecond float64 `yaml:"rate_per_second"`
		Burst         int     `yaml:"burst"`
	} `yaml:"commands"`
	Rates RatesConfig `yaml:"rates"`
}

// RatesConfig overrides parts of the reference rate table. Anything left
// unset keeps its reference value.
type RatesConfig struct {
	Generators         map[string]GeneratorConfig `yaml:"generators"`
	Batteries          []BatteryConfig            `yaml:"batteries"`
	FuelCost           *float64                   `yaml:"fuel_cost"`
	EnergyPrice        *float64                   `yaml:"energy_price"`
	StartingMoney      *float64                   `yaml:"starting_money"`
	StartingGenerators map[string]int             `yaml:"starting_generators"`
}

type GeneratorConfig struct {
	Label       string   `yaml:"label"`
	Yield       *float64 `yaml:"yield"`
	Price       *float64 `yaml:"price"`
	Maintenance *float64 `yaml:"maintenance"`
}

type BatteryConfig struct {
	Tier     int     `yaml:"tier"`
	Capacity float64 `yaml:"capacity"`
	Price    float64 `yaml:"price"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("DISCORD_TOKEN"); v != "" {
		cfg.Discord.Token = v
	}
	if v := os.Getenv("COMMAND_PREFIX"); v != "" {
		cfg.Discord.Prefix = v
	}
	if v := os.Getenv("LEDGER_FILE"); v != "" {
		cfg.Ledger.File = v
	}
	if v := os.Getenv("LEDGER_SEED_FILE"); v != "" {
		cfg.Ledger.SeedFile = v
	}
	if v := os.Getenv("GENERATION_SCHEDULE"); v != "" {
		cfg.Schedule.Generation = v
	}
	if v := os.Getenv("MAINTENANCE_SCHEDULE"); v != "" {
		cfg.Schedule.Maintenance = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("TICKS_PER_DAY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Schedule.TicksPerDay = n
		}
	}

	// Defaults
	if cfg.Discord.Prefix == "" {
		cfg.Discord.Prefix = "!"
	}
	if cfg.Ledger.File == "" {
		cfg.Ledger.File = "data/users.json"
	}
	if cfg.Ledger.SeedFile == "" {
		cfg.Ledger.SeedFile = "data/default_users.json"
	}
	if cfg.Schedule.Generation == "" {
		cfg.Schedule.Generation = "@every 1m"
	}
	if cfg.Schedule.Maintenance == "" {
		cfg.Schedule.Maintenance = "@every 24h"
	}
	if cfg.Schedule.TicksPerDay == 0 {
		cfg.Schedule.TicksPerDay = 60 * 24
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.Commands.RatePerSecond == 0 {
		cfg.Commands.RatePerSecond = 1
	}
	if cfg.Commands.Burst == 0 {
		cfg.Commands.Burst = 3
	}

	return cfg, nil
}

// Validate checks the settings every subcommand needs.
func (c *Config) Validate() error {
	if c.Ledger.File == "" {
		return fmt.Errorf("ledger.file is required")
	}
	if c.Schedule.TicksPerDay <= 0 {
		return fmt.Errorf("schedule.ticks_per_day must be positive")
	}
	if c.Commands.RatePerSecond < 0 || c.Commands.Burst < 0 {
		return fmt.Errorf("commands rate limits must not be negative")
	}
	if _, err := c.BuildRates(); err != nil {
		return fmt.Errorf("rates: %w", err)
	}
	return nil
}

// ValidateBot additionally checks what the chat bot needs to connect.
func (c *Config) ValidateBot() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Discord.Token == "" {
		return fmt.Errorf("discord.token is required")
	}
	return nil
}

// BuildRates applies the rates overrides to the reference table and freezes it.
func (c *Config) BuildRates() (*economy.Rates, error) {
	t := economy.DefaultTable()
	rc := c.Rates

	for name, gc := range rc.Generators {
		idx := -1
		for i, g := range t.Generators {
			if string(g.Kind) == name {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("unknown generator %q", name)
		}
		g := &t.Generators[idx]
		if gc.Label != "" {
			g.Label = gc.Label
		}
		if gc.Yield != nil {
			g.Yield = *gc.Yield
		}
		if gc.Price != nil {
			g.Price = decimal.NewFromFloat(*gc.Price)
		}
		if gc.Maintenance != nil {
			g.Maintenance = decimal.NewFromFloat(*gc.Maintenance)
		}
	}

	if len(rc.Batteries) > 0 {
		t.Batteries = make([]economy.Battery, 0, len(rc.Batteries))
		for _, b := range rc.Batteries {
			t.Batteries = append(t.Batteries, economy.Battery{
				Tier:     b.Tier,
				Capacity: b.Capacity,
				Price:    decimal.NewFromFloat(b.Price),
			})
		}
	}
	if rc.FuelCost != nil {
		t.FuelCost = decimal.NewFromFloat(*rc.FuelCost)
	}
	if rc.EnergyPrice != nil {
		t.SalePrice = decimal.NewFromFloat(*rc.EnergyPrice)
	}
	if rc.StartingMoney != nil {
		t.StartingMoney = decimal.NewFromFloat(*rc.StartingMoney)
	}
	if rc.StartingGenerators != nil {
		t.StartingGenerators = make(map[model.GeneratorKind]int, len(rc.StartingGenerators))
		for k, n := range rc.StartingGenerators {
			t.StartingGenerators[model.GeneratorKind(k)] = n
		}
	}

	return economy.NewRates(t)
}
