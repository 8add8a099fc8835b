package session

import (
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hookCounter struct {
	mu       sync.Mutex
	warnings int
	refreshs int
	expired  int
}

func (h *hookCounter) hooks() Hooks {
	return Hooks{
		OnWarning: func() { h.mu.Lock(); h.warnings++; h.mu.Unlock() },
		OnRefresh: func() { h.mu.Lock(); h.refreshs++; h.mu.Unlock() },
		OnExpired: func() { h.mu.Lock(); h.expired++; h.mu.Unlock() },
	}
}

func (h *hookCounter) counts() (warnings, refreshs, expired int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.warnings, h.refreshs, h.expired
}

func TestScheduler_WarningFiresAtLeadBeforeExpiry(t *testing.T) {
	mock := clock.NewMock()
	h := &hookCounter{}
	s := NewScheduler(mock, h.hooks())
	defer s.Cancel()

	s.Arm(time.Hour)

	mock.Add(54 * time.Minute)
	warnings, _, _ := h.counts()
	require.Equal(t, 0, warnings)

	// 55m mark: the one-shot warning timer fires.
	mock.Add(time.Minute)
	warnings, _, expired := h.counts()
	assert.GreaterOrEqual(t, warnings, 1)
	assert.Equal(t, 0, expired)
}

func TestScheduler_ShortTTL_NoRecurringRefresh(t *testing.T) {
	mock := clock.NewMock()
	h := &hookCounter{}
	s := NewScheduler(mock, h.hooks())
	defer s.Cancel()

	// 15m is below the 20m floor: refreshing would race natural expiry.
	s.Arm(15 * time.Minute)

	mock.Add(14 * time.Minute)
	_, refreshs, _ := h.counts()
	assert.Equal(t, 0, refreshs)
}

func TestScheduler_LongTTL_RefreshRecursEvery10Minutes(t *testing.T) {
	mock := clock.NewMock()
	h := &hookCounter{}
	s := NewScheduler(mock, h.hooks())
	defer s.Cancel()

	s.Arm(2 * time.Hour)

	mock.Add(30 * time.Minute)
	_, refreshs, _ := h.counts()
	assert.Equal(t, 3, refreshs)
}

func TestScheduler_RearmDiscardsPreviousTimers(t *testing.T) {
	mock := clock.NewMock()
	h := &hookCounter{}
	s := NewScheduler(mock, h.hooks())
	defer s.Cancel()

	s.Arm(10 * time.Minute)
	s.Arm(2 * time.Hour)

	// The first arm's warning at 5m must not fire after the re-arm.
	mock.Add(time.Hour)
	warnings, refreshs, expired := h.counts()
	assert.Equal(t, 0, warnings)
	assert.Equal(t, 6, refreshs)
	assert.Equal(t, 0, expired)
}

func TestScheduler_CancelStopsEverything(t *testing.T) {
	mock := clock.NewMock()
	h := &hookCounter{}
	s := NewScheduler(mock, h.hooks())

	s.Arm(time.Hour)
	s.Cancel()
	s.Cancel()

	mock.Add(3 * time.Hour)
	warnings, refreshs, expired := h.counts()
	assert.Equal(t, 0, warnings)
	assert.Equal(t, 0, refreshs)
	assert.Equal(t, 0, expired)
}

func TestScheduler_WatchdogDetectsExpiry(t *testing.T) {
	mock := clock.NewMock()
	h := &hookCounter{}
	s := NewScheduler(mock, h.hooks())
	defer s.Cancel()

	s.Arm(90 * time.Second)

	// First watchdog tick at 1m: inside the warning window, not expired.
	mock.Add(time.Minute)
	warnings, _, expired := h.counts()
	require.GreaterOrEqual(t, warnings, 1)
	require.Equal(t, 0, expired)

	// Second tick at 2m: past expiry.
	mock.Add(time.Minute)
	_, _, expired = h.counts()
	assert.Equal(t, 1, expired)

	// The watchdog does not re-arm after reporting expiry.
	mock.Add(10 * time.Minute)
	_, _, expired = h.counts()
	assert.Equal(t, 1, expired)
}

func TestScheduler_WatchdogSurvivesMissedOneShots(t *testing.T) {
	mock := clock.NewMock()
	h := &hookCounter{}
	s := NewScheduler(mock, h.hooks())
	defer s.Cancel()

	s.Arm(30 * time.Minute)

	// A single large jump, as after a device sleep. The mock delivers all
	// due timers; what matters is that expiry is reported exactly once.
	mock.Add(2 * time.Hour)
	_, _, expired := h.counts()
	assert.Equal(t, 1, expired)
}
