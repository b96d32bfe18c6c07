package ledger

import (
	"log"
	"time"

	"SunshineSolar/internal/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PassSummary reports one full-table accrual pass.
type PassSummary struct {
	ID          string
	Job         string
	StartedAt   time.Time
	Duration    time.Duration
	Accounts    int
	Skipped     int
	Generated   float64         // generation: energy added to storage
	FuelPaid    decimal.Decimal // generation: fuel debited
	FuelSkipped int             // generation: accounts whose fuel units idled
	Charged     decimal.Decimal // maintenance: money collected
	SaveErr     error
}

// RunGeneration applies one generation tick to every account and saves once.
// An account whose record cannot be ticked is skipped for this pass only.
func (s *Store) RunGeneration() PassSummary {
	sum := newPass(metrics.JobGeneration)

	s.mu.Lock()
	for id, acc := range s.accounts {
		if acc == nil {
			log.Printf("[WARN] generation: skipping empty account %s", id)
			sum.Skipped++
			continue
		}
		res, err := s.rates.Generate(acc)
		if err != nil {
			log.Printf("[WARN] generation: skipping account %s: %v", id, err)
			sum.Skipped++
			continue
		}
		sum.Accounts++
		sum.Generated += res.Stored
		sum.FuelPaid = sum.FuelPaid.Add(res.FuelPaid)
		if res.FuelSkipped {
			sum.FuelSkipped++
		}
	}
	sum.SaveErr = s.saveLocked()
	s.mu.Unlock()

	metrics.EnergyGenerated.Add(sum.Generated)
	metrics.FuelSkipped.Add(float64(sum.FuelSkipped))
	return finishPass(sum)
}

// RunMaintenance charges daily maintenance to every account and saves once.
func (s *Store) RunMaintenance() PassSummary {
	sum := newPass(metrics.JobMaintenance)

	s.mu.Lock()
	for id, acc := range s.accounts {
		if acc == nil {
			log.Printf("[WARN] maintenance: skipping empty account %s", id)
			sum.Skipped++
			continue
		}
		sum.Charged = sum.Charged.Add(s.rates.ApplyMaintenance(acc))
		sum.Accounts++
	}
	sum.SaveErr = s.saveLocked()
	s.mu.Unlock()

	metrics.MaintenanceCollected.Add(sum.Charged.InexactFloat64())
	return finishPass(sum)
}

func newPass(job string) PassSummary {
	return PassSummary{
		ID:        uuid.NewString(),
		Job:       job,
		StartedAt: time.Now(),
		FuelPaid:  decimal.Zero,
		Charged:   decimal.Zero,
	}
}

func finishPass(sum PassSummary) PassSummary {
	sum.Duration = time.Since(sum.StartedAt)
	metrics.PassesTotal.WithLabelValues(sum.Job).Inc()
	metrics.PassDuration.WithLabelValues(sum.Job).Observe(sum.Duration.Seconds())
	if sum.Skipped > 0 {
		metrics.AccountsSkipped.WithLabelValues(sum.Job).Add(float64(sum.Skipped))
	}
	log.Printf("[INFO] %s pass %s: %d accounts, %d skipped in %v", sum.Job, sum.ID, sum.Accounts, sum.Skipped, sum.Duration)
	return sum
}
