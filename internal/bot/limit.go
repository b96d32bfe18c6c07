package bot

import (
	"sync"

	"golang.org/x/time/rate"
)

// limiterSet keeps one token bucket per user.
type limiterSet struct {
	mu    sync.Mutex
	every rate.Limit
	burst int
	users map[string]*rate.Limiter
}

func newLimiterSet(perSecond float64, burst int) *limiterSet {
	return &limiterSet{
		every: rate.Limit(perSecond),
		burst: burst,
		users: make(map[string]*rate.Limiter),
	}
}

// Allow reports whether userID may run a command now. A zero rate disables limiting.
func (l *limiterSet) Allow(userID string) bool {
	if l == nil || l.every <= 0 {
		return true
	}
	l.mu.Lock()
	lim, ok := l.users[userID]
	if !ok {
		lim = rate.NewLimiter(l.every, l.burst)
		l.users[userID] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}
