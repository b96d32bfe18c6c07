package scheduler

import (
	"fmt"
	"log"
	"sync"
	"time"

	"SunshineSolar/internal/ledger"
	"SunshineSolar/internal/metrics"

	"github.com/robfig/cron/v3"
)

// Job names.
const (
	JobGeneration  = metrics.JobGeneration
	JobMaintenance = metrics.JobMaintenance
)

// Ledger is the part of the store the accrual jobs drive.
type Ledger interface {
	RunGeneration() ledger.PassSummary
	RunMaintenance() ledger.PassSummary
}

// Scheduler runs the generation and maintenance passes on their own cron
// entries. Each entry is wrapped in SkipIfStillRunning, so a slow pass delays
// the next tick rather than overlapping it, and missed ticks are not replayed.
type Scheduler struct {
	Cron   *cron.Cron
	Ledger Ledger

	// OnPass, when set, sees every finished pass.
	OnPass func(ledger.PassSummary)

	mu      sync.Mutex
	last    map[string]ledger.PassSummary
	entries map[string]cron.EntryID
}

// NewScheduler creates a Scheduler. Schedules accept the standard cron
// syntax with an optional leading seconds field, or descriptors like "@every 1m".
func NewScheduler(l Ledger) *Scheduler {
	logger := cron.PrintfLogger(log.Default())
	return &Scheduler{
		Cron: cron.New(
			cron.WithParser(cron.NewParser(cron.SecondOptional|cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow|cron.Descriptor)),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
			cron.WithLogger(logger),
		),
		Ledger:  l,
		last:    make(map[string]ledger.PassSummary),
		entries: make(map[string]cron.EntryID),
	}
}

// RegisterAll registers both accrual jobs.
func (s *Scheduler) RegisterAll(generationSpec, maintenanceSpec string) error {
	id, err := s.Cron.AddFunc(generationSpec, func() { s.RunGenerationNow() })
	if err != nil {
		return fmt.Errorf("register generation task: %w", err)
	}
	s.entries[JobGeneration] = id

	id, err = s.Cron.AddFunc(maintenanceSpec, func() { s.RunMaintenanceNow() })
	if err != nil {
		return fmt.Errorf("register maintenance task: %w", err)
	}
	s.entries[JobMaintenance] = id
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the scheduler and waits for a running pass to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunGenerationNow executes one generation pass immediately.
func (s *Scheduler) RunGenerationNow() ledger.PassSummary {
	sum := s.Ledger.RunGeneration()
	s.record(sum)
	return sum
}

// RunMaintenanceNow executes one maintenance pass immediately.
func (s *Scheduler) RunMaintenanceNow() ledger.PassSummary {
	log.Println("[INFO] running daily maintenance")
	sum := s.Ledger.RunMaintenance()
	s.record(sum)
	return sum
}

// LastRun returns the most recent pass of job, if any has run.
func (s *Scheduler) LastRun(job string) (ledger.PassSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum, ok := s.last[job]
	return sum, ok
}

// NextRun returns when job is next due, or the zero time if it is not scheduled.
func (s *Scheduler) NextRun(job string) time.Time {
	s.mu.Lock()
	id, ok := s.entries[job]
	s.mu.Unlock()
	if !ok {
		return time.Time{}
	}
	return s.Cron.Entry(id).Next
}

func (s *Scheduler) record(sum ledger.PassSummary) {
	if sum.SaveErr != nil {
		log.Printf("[ERROR] %s pass %s not persisted: %v", sum.Job, sum.ID, sum.SaveErr)
	}
	s.mu.Lock()
	s.last[sum.Job] = sum
	s.mu.Unlock()
	if s.OnPass != nil {
		s.OnPass(sum)
	}
}
