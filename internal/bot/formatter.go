package bot

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"SunshineSolar/internal/economy"
	"SunshineSolar/internal/ledger"
	"SunshineSolar/internal/metrics"
	"SunshineSolar/internal/model"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

var kindIcons = map[model.GeneratorKind]string{
	model.SolarPanel:   "🌞",
	model.WindTurbine:  "🌀",
	model.GasGenerator: "⛽",
}

// FormatMoney renders an amount as dollars with thousands separators, e.g. $1,234.56.
func FormatMoney(d decimal.Decimal) string {
	return "$" + humanize.FormatFloat("#,###.##", d.InexactFloat64())
}

// FormatEnergy renders an energy amount rounded to whole units.
func FormatEnergy(v float64) string {
	return humanize.FormatFloat("#,###.", v)
}

func FormatWelcome(name string, acc model.Account, r *economy.Rates, prefix string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("☀️ **Welcome to Sunshine Solar, %s!**\n\n", name))
	b.WriteString(fmt.Sprintf("You start with %s and:\n", FormatMoney(acc.Money)))
	for _, g := range r.Generators() {
		if n := acc.Count(g.Kind); n > 0 {
			b.WriteString(fmt.Sprintf("  %s %d× %s\n", kindIcons[g.Kind], n, g.Label))
		}
	}
	b.WriteString(fmt.Sprintf("  🔋 Tier %d battery (%s capacity)\n\n", acc.BatteryTier, FormatEnergy(r.Capacity(acc.BatteryTier))))
	b.WriteString(fmt.Sprintf("Use `%sstatus` to check your farm and `%shelp` for all commands.", prefix, prefix))
	return b.String()
}

// FormatStatus renders an account's farm overview.
func FormatStatus(name string, acc model.Account, r *economy.Rates, ticksPerDay int) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("☀️ **%s's Solar Farm**\n\n", name))
	b.WriteString(fmt.Sprintf("💰 Money: %s\n", FormatMoney(acc.Money)))
	capacity := r.Capacity(acc.BatteryTier)
	b.WriteString(fmt.Sprintf("⚡ Energy: %s/%s\n", FormatEnergy(acc.Energy), FormatEnergy(capacity)))
	b.WriteString(fmt.Sprintf("⚡ Generation: %s units/tick\n\n", FormatEnergy(r.GenerationRate(&acc))))

	b.WriteString("🔋 **Generators:**\n")
	listed := false
	for _, g := range r.Generators() {
		n := acc.Count(g.Kind)
		if n == 0 {
			continue
		}
		listed = true
		b.WriteString(fmt.Sprintf("  %s %s: %d (%s units/tick)\n", kindIcons[g.Kind], g.Label, n, FormatEnergy(r.KindRate(g.Kind, n))))
	}
	if !listed {
		b.WriteString("  None\n")
	}
	b.WriteString(fmt.Sprintf("\n🔋 Battery: Tier %d (%s capacity)\n", acc.BatteryTier, FormatEnergy(capacity)))
	b.WriteString(fmt.Sprintf("🔧 Daily maintenance: %s\n", FormatMoney(r.MaintenanceDue(&acc))))
	if fuel := r.DailyFuelCost(&acc, ticksPerDay); fuel.IsPositive() {
		b.WriteString(fmt.Sprintf("⛽ Daily fuel (if always funded): %s\n", FormatMoney(fuel)))
	}
	return b.String()
}

func FormatPurchase(res ledger.PurchaseResult, r *economy.Rates) string {
	label := string(res.Kind)
	if g, ok := r.Generator(res.Kind); ok {
		label = g.Label
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s **Purchase complete!** You bought %d× %s for %s.\n\n",
		kindIcons[res.Kind], res.Quantity, label, FormatMoney(res.Cost)))
	b.WriteString(fmt.Sprintf("Now owned: %d\n", res.Owned))
	b.WriteString(fmt.Sprintf("New balance: %s\n", FormatMoney(res.Balance)))
	b.WriteString(fmt.Sprintf("Generation: +%s units/tick\n", FormatEnergy(res.RateDelta)))
	b.WriteString(fmt.Sprintf("Maintenance: +%s/day\n", FormatMoney(res.MaintenanceDelta)))
	if res.FuelDelta.IsPositive() {
		b.WriteString(fmt.Sprintf("Fuel: %s per tick while funded\n", FormatMoney(res.FuelDelta)))
	}
	return b.String()
}

func FormatSale(res ledger.SaleResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("💸 **Energy sold!** You sold %s units for %s.\n\n", FormatEnergy(res.Sold), FormatMoney(res.Earnings)))
	b.WriteString(fmt.Sprintf("Price per unit: $%s\n", res.UnitPrice.String()))
	b.WriteString(fmt.Sprintf("New balance: %s\n", FormatMoney(res.Balance)))
	b.WriteString(fmt.Sprintf("Remaining energy: %s/%s\n", FormatEnergy(res.Energy), FormatEnergy(res.Capacity)))
	return b.String()
}

func FormatUpgrade(res ledger.UpgradeResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔋 **Battery upgraded** from Tier %d to Tier %d!\n\n", res.FromTier, res.ToTier))
	b.WriteString(fmt.Sprintf("Cost: %s\n", FormatMoney(res.Cost)))
	b.WriteString(fmt.Sprintf("Remaining balance: %s\n", FormatMoney(res.Balance)))
	b.WriteString(fmt.Sprintf("Capacity: %s → %s units\n", FormatEnergy(res.OldCapacity), FormatEnergy(res.NewCapacity)))
	return b.String()
}

// FormatPrices lists the shop.
func FormatPrices(r *economy.Rates) string {
	var b strings.Builder
	b.WriteString("🛒 **Generators**\n")
	for _, g := range r.Generators() {
		b.WriteString(fmt.Sprintf("  %s %s (`%s`): %s, %s units/tick, %s/day maintenance",
			kindIcons[g.Kind], g.Label, g.Kind, FormatMoney(g.Price), FormatEnergy(g.Yield), FormatMoney(g.Maintenance)))
		if g.BurnsFuel {
			b.WriteString(fmt.Sprintf(", burns %s fuel per tick", FormatMoney(r.FuelCost())))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n🔋 **Batteries**\n")
	for _, bat := range r.Batteries() {
		b.WriteString(fmt.Sprintf("  Tier %d: %s capacity, %s\n", bat.Tier, FormatEnergy(bat.Capacity), FormatMoney(bat.Price)))
	}
	b.WriteString(fmt.Sprintf("\n💸 Energy sells for $%s per unit\n", r.SalePrice().String()))
	return b.String()
}

func FormatHelp(prefix string) string {
	lines := []struct{ cmd, desc string }{
		{"start", "open your solar farm"},
		{"status", "show money, energy, generators and battery"},
		{"buy <type> [amount]", "buy generators (solar_panel, wind_turbine, gas_generator)"},
		{"sell [amount|all]", "sell stored energy, everything by default"},
		{"upgrade_battery", "move your battery up one tier"},
		{"prices", "list generator and battery prices"},
		{"analytics", "bot usage statistics"},
		{"help", "this message"},
	}
	var b strings.Builder
	b.WriteString("☀️ **Sunshine Solar commands**\n\n")
	for _, l := range lines {
		b.WriteString(fmt.Sprintf("`%s%s` %s\n", prefix, l.cmd, l.desc))
	}
	b.WriteString("\nGenerators produce energy every tick until your battery is full. Maintenance is charged once a day.")
	return b.String()
}

func FormatAnalytics(s StatsSnapshot, users int) string {
	var b strings.Builder
	b.WriteString("📊 **Sunshine Solar analytics**\n\n")
	b.WriteString(fmt.Sprintf("👥 Users: %d\n", users))
	b.WriteString(fmt.Sprintf("🔄 Uptime: %s\n", formatUptime(s.Uptime)))
	b.WriteString(fmt.Sprintf("📈 Commands used: %s\n", humanize.Comma(s.Commands)))
	b.WriteString(fmt.Sprintf("⚡ Energy generated: %s\n", FormatEnergy(s.Generated)))
	if t, ok := s.LastPass[metrics.JobGeneration]; ok {
		b.WriteString(fmt.Sprintf("⏱️ Last generation pass: %s\n", humanize.Time(t)))
	}
	if t, ok := s.LastPass[metrics.JobMaintenance]; ok {
		b.WriteString(fmt.Sprintf("🔧 Last maintenance pass: %s\n", humanize.Time(t)))
	}
	return b.String()
}

func formatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	days, secs := secs/86400, secs%86400
	hours, secs := secs/3600, secs%3600
	minutes, secs := secs/60, secs%60
	return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, secs)
}

// FormatError turns a ledger rejection into a reply for the user.
func FormatError(err error, prefix string) string {
	var funds *ledger.InsufficientFundsError
	var qty *ledger.InvalidQuantityError
	switch {
	case errors.As(err, &funds):
		return fmt.Sprintf("You don't have enough money! You need %s but only have %s.", FormatMoney(funds.Need), FormatMoney(funds.Have))
	case errors.As(err, &qty):
		if qty.Available > 0 && qty.Requested > qty.Available {
			return fmt.Sprintf("You only have %s units of energy to sell.", FormatEnergy(qty.Available))
		}
		return "Please enter a positive amount."
	case errors.Is(err, ledger.ErrUnknownAccount):
		return fmt.Sprintf("You don't have a solar farm yet! Use `%sstart` to begin your adventure.", prefix)
	case errors.Is(err, ledger.ErrAlreadyExists):
		return fmt.Sprintf("You already have a solar farm! Use `%sstatus` to view your progress.", prefix)
	case errors.Is(err, ledger.ErrAlreadyMaxTier):
		return "Your battery is already at the maximum tier!"
	case errors.Is(err, ledger.ErrNoEnergyAvailable):
		return "You don't have any energy to sell! Wait for your generators to produce some."
	case errors.Is(err, ledger.ErrUnknownGenerator):
		return fmt.Sprintf("Unknown generator type. See `%sprices` for what is on sale.", prefix)
	default:
		return "Something went wrong, please try again later."
	}
}

func FormatUsage(cmd, prefix string) string {
	switch cmd {
	case "buy":
		return fmt.Sprintf("Usage: `%sbuy <solar_panel|wind_turbine|gas_generator> [amount]`", prefix)
	case "sell":
		return fmt.Sprintf("Please enter a valid amount or 'all'. Usage: `%ssell [amount|all]`", prefix)
	}
	return FormatHelp(prefix)
}

func FormatUnknownGenerator(name, prefix string) string {
	return fmt.Sprintf("I don't sell `%s`. See `%sprices` for what is on sale.", name, prefix)
}

func FormatUnknownCommand(name, prefix string) string {
	return fmt.Sprintf("Unknown command `%s`. Try `%shelp`.", name, prefix)
}
