package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"SunshineSolar/internal/economy"
	"SunshineSolar/internal/ledger"
	"SunshineSolar/internal/metrics"
	"SunshineSolar/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Accounts is the read side of the ledger.
type Accounts interface {
	Len() int
	Status(id string) (model.Account, error)
	Rates() *economy.Rates
}

// Jobs reports on the accrual schedule.
type Jobs interface {
	LastRun(job string) (ledger.PassSummary, bool)
	NextRun(job string) time.Time
}

// Server is the operator HTTP surface: health, metrics, rates and job state.
type Server struct {
	addr     string
	accounts Accounts
	jobs     Jobs
}

func NewServer(addr string, accounts Accounts, jobs Jobs) *Server {
	return &Server{addr: addr, accounts: accounts, jobs: jobs}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
	)

	r.Get("/healthz", s.health)
	r.Get("/rates", s.rates)
	r.Get("/scheduler", s.scheduler)
	r.Get("/accounts/{id}", s.account)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[INFO] http listening on %s", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, OK(map[string]any{
		"status":   "ok",
		"accounts": s.accounts.Len(),
	}))
}

type generatorView struct {
	Kind        string  `json:"kind"`
	Label       string  `json:"label"`
	Yield       float64 `json:"yield_per_tick"`
	Price       string  `json:"price"`
	Maintenance string  `json:"maintenance_per_day"`
	BurnsFuel   bool    `json:"burns_fuel"`
}

type batteryView struct {
	Tier     int     `json:"tier"`
	Capacity float64 `json:"capacity"`
	Price    string  `json:"price"`
}

func (s *Server) rates(w http.ResponseWriter, r *http.Request) {
	rt := s.accounts.Rates()
	gens := make([]generatorView, 0, len(rt.Generators()))
	for _, g := range rt.Generators() {
		gens = append(gens, generatorView{
			Kind:        string(g.Kind),
			Label:       g.Label,
			Yield:       g.Yield,
			Price:       g.Price.StringFixed(2),
			Maintenance: g.Maintenance.StringFixed(2),
			BurnsFuel:   g.BurnsFuel,
		})
	}
	bats := make([]batteryView, 0, rt.MaxTier())
	for _, b := range rt.Batteries() {
		bats = append(bats, batteryView{Tier: b.Tier, Capacity: b.Capacity, Price: b.Price.StringFixed(2)})
	}
	render.JSON(w, r, OK(map[string]any{
		"generators":   gens,
		"batteries":    bats,
		"fuel_cost":    rt.FuelCost().StringFixed(2),
		"energy_price": rt.SalePrice().String(),
	}))
}

type jobView struct {
	Next    *time.Time `json:"next_run,omitempty"`
	LastID  string     `json:"last_run_id,omitempty"`
	LastAt  *time.Time `json:"last_run_at,omitempty"`
	Took    string     `json:"last_duration,omitempty"`
	Touched int        `json:"last_accounts"`
	SaveErr string     `json:"last_save_error,omitempty"`
}

func (s *Server) scheduler(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]jobView, 2)
	for _, job := range []string{metrics.JobGeneration, metrics.JobMaintenance} {
		var v jobView
		if next := s.jobs.NextRun(job); !next.IsZero() {
			v.Next = &next
		}
		if sum, ok := s.jobs.LastRun(job); ok {
			started := sum.StartedAt
			v.LastID = sum.ID
			v.LastAt = &started
			v.Took = sum.Duration.String()
			v.Touched = sum.Accounts
			if sum.SaveErr != nil {
				v.SaveErr = sum.SaveErr.Error()
			}
		}
		out[job] = v
	}
	render.JSON(w, r, OK(out))
}

type accountView struct {
	Name        string         `json:"name"`
	Money       string         `json:"money"`
	Energy      float64        `json:"energy"`
	Capacity    float64        `json:"capacity"`
	BatteryTier int            `json:"battery_tier"`
	Generators  map[string]int `json:"generators"`
}

func (s *Server) account(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	acc, err := s.accounts.Status(id)
	if errors.Is(err, ledger.ErrUnknownAccount) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, Error("account not found"))
		return
	}
	if err != nil {
		log.Printf("[ERROR] read account %s: %v", id, err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, Error("internal error"))
		return
	}

	gens := make(map[string]int, len(acc.Generators))
	for k, n := range acc.Generators {
		gens[string(k)] = n
	}
	render.JSON(w, r, OK(accountView{
		Name:        acc.Name,
		Money:       acc.Money.StringFixed(2),
		Energy:      acc.Energy,
		Capacity:    s.accounts.Rates().Capacity(acc.BatteryTier),
		BatteryTier: acc.BatteryTier,
		Generators:  gens,
	}))
}
