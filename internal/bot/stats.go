package bot

import (
	"sync"
	"time"

	"SunshineSolar/internal/ledger"
)

// Stats holds the in-memory usage counters behind the analytics command.
// They reset on restart.
type Stats struct {
	mu        sync.Mutex
	started   time.Time
	commands  int64
	generated float64
	lastPass  map[string]time.Time
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Started   time.Time
	Uptime    time.Duration
	Commands  int64
	Generated float64
	LastPass  map[string]time.Time
}

func NewStats(started time.Time) *Stats {
	return &Stats{started: started, lastPass: make(map[string]time.Time)}
}

func (s *Stats) CommandHandled() {
	s.mu.Lock()
	s.commands++
	s.mu.Unlock()
}

// ObservePass folds a finished accrual pass into the counters.
func (s *Stats) ObservePass(sum ledger.PassSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generated += sum.Generated
	s.lastPass[sum.Job] = sum.StartedAt
}

func (s *Stats) Snapshot(now time.Time) StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	last := make(map[string]time.Time, len(s.lastPass))
	for k, v := range s.lastPass {
		last[k] = v
	}
	return StatsSnapshot{
		Started:   s.started,
		Uptime:    now.Sub(s.started),
		Commands:  s.commands,
		Generated: s.generated,
		LastPass:  last,
	}
}
