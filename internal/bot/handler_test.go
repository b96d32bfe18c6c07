package bot

import (
	"path/filepath"
	"testing"
	"time"

	"SunshineSolar/internal/economy"
	"SunshineSolar/internal/ledger"
	"SunshineSolar/internal/model"

	"github.com/bwmarrin/discordgo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, opts Options) (*Handler, *ledger.Store, *Stats) {
	t.Helper()
	dir := t.TempDir()
	store, rep := ledger.Open(filepath.Join(dir, "users.json"), filepath.Join(dir, "seed.json"), economy.MustDefault())
	require.NoError(t, rep.Err)
	stats := NewStats(time.Now())
	return NewHandler(store, stats, opts), store, stats
}

func send(t *testing.T, h *Handler, userID, text string) string {
	t.Helper()
	reply, ok := h.Handle(Request{UserID: userID, UserName: "alice", Text: text})
	require.True(t, ok, "no reply to %q", text)
	return reply
}

func TestHandle_IgnoresOtherMessages(t *testing.T) {
	h, _, _ := newTestHandler(t, Options{})
	for _, text := range []string{"hello", "", "!", "  ", "?status"} {
		_, ok := h.Handle(Request{UserID: "u1", Text: text})
		assert.False(t, ok, "text %q", text)
	}
}

func TestHandle_UnknownCommand(t *testing.T) {
	h, _, _ := newTestHandler(t, Options{})
	assert.Contains(t, send(t, h, "u1", "!dance"), "Unknown command `dance`")
}

func TestHandle_EndToEnd(t *testing.T) {
	h, store, _ := newTestHandler(t, Options{})

	assert.Contains(t, send(t, h, "u1", "!start"), "Welcome to Sunshine Solar, alice")
	assert.Contains(t, send(t, h, "u1", "!START"), "already have a solar farm")

	store.RunGeneration()
	status := send(t, h, "u1", "!status")
	assert.Contains(t, status, "$1,000.00")
	assert.Contains(t, status, "15/1,000")
	assert.Contains(t, status, "Solar Panel: 1")
	assert.Contains(t, status, "Daily maintenance: $20.00")
	assert.NotContains(t, status, "Daily fuel")

	assert.Contains(t, send(t, h, "u1", "!buy wind_turbine"), "You need $2,500.00 but only have $1,000.00")

	sale := send(t, h, "u1", "!sell")
	assert.Contains(t, sale, "You sold 15 units for $1.50")
	assert.Contains(t, sale, "$1,001.50")

	acc, err := store.Status("u1")
	require.NoError(t, err)
	assert.Equal(t, "1001.5", acc.Money.String())
	assert.Zero(t, acc.Energy)
}

func TestHandle_Buy(t *testing.T) {
	h, store, _ := newTestHandler(t, Options{})
	send(t, h, "u1", "!start")

	tests := []struct {
		text string
		want string
	}{
		{"!buy", "Usage: `!buy"},
		{"!buy solar x", "Usage: `!buy"},
		{"!buy nuclear", "I don't sell `nuclear`"},
		{"!buy solar 0", "positive amount"},
		{"!buy solar -2", "positive amount"},
		{"!buy gas", "You need $5,000.00"},
		{"!buy solar", "You bought 1× Solar Panel for $1,000.00"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Contains(t, send(t, h, "u1", tt.text), tt.want)
		})
	}

	acc, _ := store.Status("u1")
	assert.Equal(t, 2, acc.Generators[model.SolarPanel])
	assert.True(t, acc.Money.IsZero())
}

func TestHandle_BuyGasShowsFuel(t *testing.T) {
	h, store, _ := newTestHandler(t, Options{})
	send(t, h, "u1", "!start")
	require.NoError(t, store.Create("rich", model.Account{
		Name:        "rich",
		Money:       decimal.NewFromInt(20000),
		BatteryTier: 1,
		Generators:  map[model.GeneratorKind]int{},
	}))

	reply := send(t, h, "rich", "!buy gas 2")
	assert.Contains(t, reply, "You bought 2× Gas Generator for $10,000.00")
	assert.Contains(t, reply, "+80 units/tick")
	assert.Contains(t, reply, "Maintenance: +$400.00/day")
	assert.Contains(t, reply, "Fuel: $10.00 per tick")

	status := send(t, h, "rich", "!status")
	assert.Contains(t, status, "Daily fuel (if always funded): $14,400.00")
}

func TestHandle_Sell(t *testing.T) {
	h, store, _ := newTestHandler(t, Options{})
	send(t, h, "u1", "!start")

	assert.Contains(t, send(t, h, "u1", "!sell"), "don't have any energy")
	store.RunGeneration()
	assert.Contains(t, send(t, h, "u1", "!sell lots"), "valid amount")
	assert.Contains(t, send(t, h, "u1", "!sell NaN"), "valid amount")
	assert.Contains(t, send(t, h, "u1", "!sell 100"), "only have 15 units")
	assert.Contains(t, send(t, h, "u1", "!sell -1"), "positive amount")
	assert.Contains(t, send(t, h, "u1", "!sell 10"), "Remaining energy: 5/1,000")
	assert.Contains(t, send(t, h, "u1", "!sell ALL"), "You sold 5 units")
}

func TestHandle_UpgradeBattery(t *testing.T) {
	h, store, _ := newTestHandler(t, Options{})
	send(t, h, "u1", "!start")
	assert.Contains(t, send(t, h, "u1", "!upgrade_battery"), "You need $7,500.00 but only have $1,000.00")

	require.NoError(t, store.Create("rich", model.Account{
		Name:        "rich",
		Money:       decimal.NewFromInt(1000000),
		BatteryTier: 4,
	}))
	reply := send(t, h, "rich", "!upgrade")
	assert.Contains(t, reply, "from Tier 4 to Tier 5")
	assert.Contains(t, reply, "50,000 → 250,000")
	assert.Contains(t, send(t, h, "rich", "!upgrade_battery"), "maximum tier")
}

func TestHandle_NotRegistered(t *testing.T) {
	h, _, _ := newTestHandler(t, Options{})
	for _, text := range []string{"!status", "!buy solar", "!sell", "!upgrade_battery"} {
		assert.Contains(t, send(t, h, "ghost", text), "Use `!start`", text)
	}
}

func TestHandle_InfoCommands(t *testing.T) {
	h, store, stats := newTestHandler(t, Options{Prefix: "$"})
	send(t, h, "u1", "$start")

	prices := send(t, h, "u1", "$prices")
	assert.Contains(t, prices, "Wind Turbine (`wind_turbine`): $2,500.00")
	assert.Contains(t, prices, "burns $5.00 fuel per tick")
	assert.Contains(t, prices, "Tier 5: 250,000 capacity, $500,000.00")
	assert.Contains(t, prices, "$0.1 per unit")

	assert.Contains(t, send(t, h, "u1", "$help"), "`$sell [amount|all]`")

	stats.ObservePass(store.RunGeneration())
	analytics := send(t, h, "u1", "$analytics")
	assert.Contains(t, analytics, "Users: 1")
	assert.Contains(t, analytics, "Commands used: 4")
	assert.Contains(t, analytics, "Energy generated: 15")
	assert.Contains(t, analytics, "Last generation pass")
	assert.NotContains(t, analytics, "Last maintenance pass")
}

func TestHandle_RateLimit(t *testing.T) {
	h, _, _ := newTestHandler(t, Options{RatePerSecond: 0.001, Burst: 2})
	send(t, h, "u1", "!help")
	send(t, h, "u1", "!help")
	_, ok := h.Handle(Request{UserID: "u1", Text: "!help"})
	assert.False(t, ok)

	_, ok = h.Handle(Request{UserID: "u2", Text: "!help"})
	assert.True(t, ok, "limits are per user")
}

func TestParseGeneratorKind(t *testing.T) {
	tests := []struct {
		in   string
		want model.GeneratorKind
		ok   bool
	}{
		{"solar_panel", model.SolarPanel, true},
		{"Wind", model.WindTurbine, true},
		{"GAS_GENERATOR", model.GasGenerator, true},
		{"turbine", model.WindTurbine, true},
		{"coal", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseGeneratorKind(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "$1,001.50", FormatMoney(decimal.RequireFromString("1001.5")))
	assert.Equal(t, "$1,234,567.89", FormatMoney(decimal.RequireFromString("1234567.89")))
	assert.Equal(t, "250,000", FormatEnergy(250000))
	assert.Equal(t, "1d 2h 3m 4s", formatUptime(26*time.Hour+3*time.Minute+4*time.Second))
	assert.Equal(t, "0d 0h 0m 0s", formatUptime(-time.Second))
}

func TestDiscordReply(t *testing.T) {
	h, _, _ := newTestHandler(t, Options{})
	d := &Discord{handler: h}

	msg := func(author *discordgo.User, content string) *discordgo.MessageCreate {
		return &discordgo.MessageCreate{Message: &discordgo.Message{Author: author, Content: content, ChannelID: "c1"}}
	}

	_, ok := d.reply(msg(&discordgo.User{ID: "b1", Username: "otherbot", Bot: true}, "!help"))
	assert.False(t, ok)
	_, ok = d.reply(msg(nil, "!help"))
	assert.False(t, ok)
	_, ok = d.reply(&discordgo.MessageCreate{})
	assert.False(t, ok)

	reply, ok := d.reply(msg(&discordgo.User{ID: "u1", Username: "alice", GlobalName: "Alice A"}, "!start"))
	require.True(t, ok)
	assert.Contains(t, reply, "Welcome to Sunshine Solar, Alice A")
}
