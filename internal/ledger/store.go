package ledger

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"

	"SunshineSolar/internal/economy"
	"SunshineSolar/internal/metrics"
	"SunshineSolar/internal/model"

	"github.com/go-playground/validator/v10"
)

// Load sources.
const (
	SourcePrimary = "primary"
	SourceSeed    = "seed"
	SourceEmpty   = "empty"
)

// LoadReport summarises what Load found on disk.
type LoadReport struct {
	Source   string
	Accounts int
	Repaired []string
	Rejected []string
	Err      error // set when the primary snapshot was unreadable or malformed
}

// Store owns the account table. One mutex guards the whole map; every
// snapshot is taken under it so saves are always whole-table consistent.
type Store struct {
	mu       sync.Mutex
	accounts map[string]*model.Account
	rates    *economy.Rates
	path     string
	seedPath string
	validate *validator.Validate
}

// NewStore creates an empty store bound to a primary snapshot path and an
// optional read-only seed path. Call Load before use.
func NewStore(path, seedPath string, rates *economy.Rates) *Store {
	return &Store{
		accounts: make(map[string]*model.Account),
		rates:    rates,
		path:     path,
		seedPath: seedPath,
		validate: validator.New(),
	}
}

// Open is NewStore followed by Load.
func Open(path, seedPath string, rates *economy.Rates) (*Store, LoadReport) {
	s := NewStore(path, seedPath, rates)
	return s, s.Load()
}

// Rates returns the rate table the store was built with.
func (s *Store) Rates() *economy.Rates { return s.rates }

// Load replaces the in-memory table from disk. It never fails: a corrupt
// primary snapshot is replaced by an empty table, and a missing one falls
// back to the seed snapshot, then to an empty table.
func (s *Store) Load() LoadReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rep LoadReport
	data, err := os.ReadFile(s.path)
	switch {
	case err == nil:
		accounts, repaired, rejected, derr := decodeSnapshot(data, s.rates, s.validate)
		if derr != nil {
			log.Printf("[ERROR] ledger %s: %v, starting with an empty ledger", s.path, derr)
			rep.Err = derr
			s.replaceLocked(map[string]*model.Account{}, &rep, SourceEmpty)
			s.saveLocked()
			return rep
		}
		rep.Repaired, rep.Rejected = repaired, rejected
		s.replaceLocked(accounts, &rep, SourcePrimary)
		if len(repaired) > 0 || len(rejected) > 0 {
			s.saveLocked()
		}

	case errors.Is(err, os.ErrNotExist):
		log.Printf("[WARN] ledger file %s not found", s.path)
		seeded := s.loadSeedLocked(&rep)
		s.replaceLocked(seeded, &rep, rep.Source)
		s.saveLocked()

	default:
		rep.Err = fmt.Errorf("%w: %v", ErrStorageCorrupt, err)
		log.Printf("[ERROR] read ledger %s: %v, starting with an empty ledger", s.path, err)
		s.replaceLocked(map[string]*model.Account{}, &rep, SourceEmpty)
		s.saveLocked()
	}

	for _, r := range rep.Repaired {
		log.Printf("[WARN] repaired account %s", r)
	}
	for _, r := range rep.Rejected {
		log.Printf("[WARN] rejected account %s", r)
	}
	log.Printf("[INFO] loaded %d accounts from %s ledger", rep.Accounts, rep.Source)
	return rep
}

func (s *Store) loadSeedLocked(rep *LoadReport) map[string]*model.Account {
	rep.Source = SourceEmpty
	if s.seedPath == "" {
		return map[string]*model.Account{}
	}
	data, err := os.ReadFile(s.seedPath)
	if err != nil {
		log.Println("[WARN] no seed ledger found, starting with empty data")
		return map[string]*model.Account{}
	}
	accounts, repaired, rejected, err := decodeSnapshot(data, s.rates, s.validate)
	if err != nil {
		log.Printf("[WARN] seed ledger %s unusable: %v, starting with empty data", s.seedPath, err)
		return map[string]*model.Account{}
	}
	rep.Source = SourceSeed
	rep.Repaired, rep.Rejected = repaired, rejected
	return accounts
}

func (s *Store) replaceLocked(accounts map[string]*model.Account, rep *LoadReport, source string) {
	s.accounts = accounts
	rep.Source = source
	rep.Accounts = len(accounts)
	metrics.Accounts.Set(float64(len(accounts)))
}

// Save writes the whole table to the primary snapshot.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

// saveLocked persists the table. Failures are logged and counted; the
// in-memory table stays authoritative for the next attempt.
func (s *Store) saveLocked() error {
	data, err := encodeSnapshot(s.accounts)
	if err == nil {
		err = writeSnapshot(s.path, data)
	}
	if err != nil {
		metrics.SaveFailures.Inc()
		log.Printf("[ERROR] failed to save ledger: %v", err)
		return fmt.Errorf("save ledger: %w", err)
	}
	return nil
}

// Get returns a copy of the account.
func (s *Store) Get(id string) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok || acc == nil {
		return model.Account{}, ErrUnknownAccount
	}
	return acc.Clone(), nil
}

// Create inserts a new account and persists. It refuses to overwrite.
func (s *Store) Create(id string, acc model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[id]; ok {
		return ErrAlreadyExists
	}
	c := acc.Clone()
	s.accounts[id] = &c
	metrics.Accounts.Set(float64(len(s.accounts)))
	s.saveLocked()
	return nil
}

// Len is the number of registered accounts.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accounts)
}

// IDs lists account ids in sorted order.
func (s *Store) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.accounts))
	for id := range s.accounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
