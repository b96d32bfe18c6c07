package bot

import (
	"errors"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"SunshineSolar/internal/economy"
	"SunshineSolar/internal/ledger"
	"SunshineSolar/internal/metrics"
	"SunshineSolar/internal/model"
)

// Ledger is what the chat commands need from the account store.
type Ledger interface {
	Register(id, name string) (model.Account, error)
	Status(id string) (model.Account, error)
	Purchase(id string, kind model.GeneratorKind, qty int) (ledger.PurchaseResult, error)
	UpgradeBattery(id string) (ledger.UpgradeResult, error)
	SellEnergy(id string, qty float64) (ledger.SaleResult, error)
	SellAllEnergy(id string) (ledger.SaleResult, error)
	Len() int
	Rates() *economy.Rates
}

// Options tunes a Handler.
type Options struct {
	Prefix        string
	TicksPerDay   int
	RatePerSecond float64
	Burst         int
}

// Request is one chat message addressed to the bot.
type Request struct {
	UserID   string
	UserName string
	Text     string
}

// Handler turns chat messages into ledger operations and replies.
type Handler struct {
	ledger      Ledger
	stats       *Stats
	prefix      string
	ticksPerDay int
	limiters    *limiterSet
	now         func() time.Time
}

func NewHandler(l Ledger, stats *Stats, opts Options) *Handler {
	if opts.Prefix == "" {
		opts.Prefix = "!"
	}
	if opts.TicksPerDay <= 0 {
		opts.TicksPerDay = 60 * 24
	}
	return &Handler{
		ledger:      l,
		stats:       stats,
		prefix:      opts.Prefix,
		ticksPerDay: opts.TicksPerDay,
		limiters:    newLimiterSet(opts.RatePerSecond, opts.Burst),
		now:         time.Now,
	}
}

type commandFunc func(h *Handler, req Request, args []string) string

var commands = map[string]commandFunc{
	"start":           (*Handler).start,
	"status":          (*Handler).status,
	"buy":             (*Handler).buy,
	"sell":            (*Handler).sell,
	"upgrade_battery": (*Handler).upgrade,
	"upgrade":         (*Handler).upgrade,
	"prices":          (*Handler).prices,
	"help":            (*Handler).help,
	"analytics":       (*Handler).analytics,
}

// Handle runs the command in req. ok is false when the message is not a
// command for this bot or was dropped by the rate limiter.
func (h *Handler) Handle(req Request) (reply string, ok bool) {
	text := strings.TrimSpace(req.Text)
	if !strings.HasPrefix(text, h.prefix) {
		return "", false
	}
	fields := strings.Fields(strings.TrimPrefix(text, h.prefix))
	if len(fields) == 0 {
		return "", false
	}
	name := strings.ToLower(fields[0])
	cmd, known := commands[name]
	if !known {
		return FormatUnknownCommand(name, h.prefix), true
	}
	if !h.limiters.Allow(req.UserID) {
		log.Printf("[WARN] rate limited %s (%s) on %s", req.UserName, req.UserID, name)
		return "", false
	}

	metrics.Commands.WithLabelValues(name).Inc()
	if h.stats != nil {
		h.stats.CommandHandled()
	}
	log.Printf("[INFO] %s used by %s (%s)", name, req.UserName, req.UserID)
	return cmd(h, req, fields[1:]), true
}

func (h *Handler) start(req Request, _ []string) string {
	acc, err := h.ledger.Register(req.UserID, req.UserName)
	if err != nil {
		return h.errorReply(err)
	}
	return FormatWelcome(req.UserName, acc, h.ledger.Rates(), h.prefix)
}

func (h *Handler) status(req Request, _ []string) string {
	acc, err := h.ledger.Status(req.UserID)
	if err != nil {
		return h.errorReply(err)
	}
	return FormatStatus(req.UserName, acc, h.ledger.Rates(), h.ticksPerDay)
}

func (h *Handler) buy(req Request, args []string) string {
	if len(args) == 0 || len(args) > 2 {
		return FormatUsage("buy", h.prefix)
	}
	kind, ok := ParseGeneratorKind(args[0])
	if !ok {
		return FormatUnknownGenerator(args[0], h.prefix)
	}
	qty := 1
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return FormatUsage("buy", h.prefix)
		}
		qty = n
	}
	res, err := h.ledger.Purchase(req.UserID, kind, qty)
	if err != nil {
		return h.errorReply(err)
	}
	return FormatPurchase(res, h.ledger.Rates())
}

func (h *Handler) sell(req Request, args []string) string {
	if len(args) > 1 {
		return FormatUsage("sell", h.prefix)
	}
	var (
		res ledger.SaleResult
		err error
	)
	if len(args) == 0 || strings.EqualFold(args[0], "all") {
		res, err = h.ledger.SellAllEnergy(req.UserID)
	} else {
		qty, perr := strconv.ParseFloat(args[0], 64)
		if perr != nil || math.IsNaN(qty) || math.IsInf(qty, 0) {
			return FormatUsage("sell", h.prefix)
		}
		res, err = h.ledger.SellEnergy(req.UserID, qty)
	}
	if err != nil {
		return h.errorReply(err)
	}
	return FormatSale(res)
}

func (h *Handler) upgrade(req Request, _ []string) string {
	res, err := h.ledger.UpgradeBattery(req.UserID)
	if err != nil {
		return h.errorReply(err)
	}
	return FormatUpgrade(res)
}

func (h *Handler) prices(_ Request, _ []string) string {
	return FormatPrices(h.ledger.Rates())
}

func (h *Handler) help(_ Request, _ []string) string {
	return FormatHelp(h.prefix)
}

func (h *Handler) analytics(_ Request, _ []string) string {
	var snap StatsSnapshot
	if h.stats != nil {
		snap = h.stats.Snapshot(h.now())
	}
	return FormatAnalytics(snap, h.ledger.Len())
}

func (h *Handler) errorReply(err error) string {
	msg := FormatError(err, h.prefix)
	if !isUserError(err) {
		log.Printf("[ERROR] command failed: %v", err)
	}
	return msg
}

func isUserError(err error) bool {
	for _, target := range []error{
		ledger.ErrUnknownAccount, ledger.ErrAlreadyExists, ledger.ErrInvalidQuantity,
		ledger.ErrInsufficientFunds, ledger.ErrAlreadyMaxTier, ledger.ErrNoEnergyAvailable,
		ledger.ErrUnknownGenerator,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

var generatorAliases = map[string]model.GeneratorKind{
	"solar":   model.SolarPanel,
	"panel":   model.SolarPanel,
	"wind":    model.WindTurbine,
	"turbine": model.WindTurbine,
	"gas":     model.GasGenerator,
}

// ParseGeneratorKind accepts a canonical kind name or a short alias.
func ParseGeneratorKind(s string) (model.GeneratorKind, bool) {
	s = strings.ToLower(s)
	if k := model.GeneratorKind(s); k.Valid() {
		return k, true
	}
	k, ok := generatorAliases[s]
	return k, ok
}
