package scheduler

import (
	"errors"
	"testing"
	"time"

	"SunshineSolar/internal/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) RunGeneration() ledger.PassSummary {
	args := m.Called()
	return args.Get(0).(ledger.PassSummary)
}

func (m *MockLedger) RunMaintenance() ledger.PassSummary {
	args := m.Called()
	return args.Get(0).(ledger.PassSummary)
}

func TestRunNow_RecordsLastRun(t *testing.T) {
	l := new(MockLedger)
	gen := ledger.PassSummary{ID: "g1", Job: JobGeneration, StartedAt: time.Now(), Accounts: 3}
	maint := ledger.PassSummary{ID: "m1", Job: JobMaintenance, StartedAt: time.Now(), SaveErr: errors.New("disk full")}
	l.On("RunGeneration").Return(gen).Once()
	l.On("RunMaintenance").Return(maint).Once()

	s := NewScheduler(l)
	var seen []string
	s.OnPass = func(sum ledger.PassSummary) { seen = append(seen, sum.ID) }
	_, ok := s.LastRun(JobGeneration)
	assert.False(t, ok)

	assert.Equal(t, gen, s.RunGenerationNow())
	assert.Equal(t, maint, s.RunMaintenanceNow())

	last, ok := s.LastRun(JobGeneration)
	require.True(t, ok)
	assert.Equal(t, "g1", last.ID)
	last, ok = s.LastRun(JobMaintenance)
	require.True(t, ok)
	assert.Error(t, last.SaveErr)
	assert.Equal(t, []string{"g1", "m1"}, seen)

	l.AssertExpectations(t)
}

func TestRegisterAll(t *testing.T) {
	s := NewScheduler(new(MockLedger))
	require.NoError(t, s.RegisterAll("@every 1m", "@every 24h"))
	assert.Len(t, s.Cron.Entries(), 2)

	s.Start()
	defer s.Stop()
	next := s.NextRun(JobGeneration)
	assert.WithinDuration(t, time.Now().Add(time.Minute), next, 5*time.Second)
	assert.True(t, s.NextRun(JobMaintenance).After(next))
}

func TestRegisterAll_SecondsField(t *testing.T) {
	s := NewScheduler(new(MockLedger))
	assert.NoError(t, s.RegisterAll("0 * * * * *", "0 0 0 * * *"))
}

func TestRegisterAll_BadSpec(t *testing.T) {
	s := NewScheduler(new(MockLedger))
	err := s.RegisterAll("every minute please", "@every 24h")
	assert.ErrorContains(t, err, "register generation task")
	assert.True(t, s.NextRun(JobMaintenance).IsZero())
}

func TestCronFires(t *testing.T) {
	l := new(MockLedger)
	fired := make(chan struct{}, 1)
	l.On("RunGeneration").Return(ledger.PassSummary{Job: JobGeneration}).Run(func(mock.Arguments) {
		select {
		case fired <- struct{}{}:
		default:
		}
	})

	s := NewScheduler(l)
	require.NoError(t, s.RegisterAll("@every 1s", "@every 24h"))
	s.Start()
	defer s.Stop()

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("generation job did not fire")
	}
}
