package session

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

const (
	// warningLead is how long before token expiry the warning fires.
	warningLead = 5 * time.Minute

	// refreshInterval is the period of the recurring background refresh.
	refreshInterval = 10 * time.Minute

	// minRefreshableTTL is the shortest token lifetime that gets a
	// recurring refresh. Shorter sessions would race the refresh against
	// natural expiry.
	minRefreshableTTL = 20 * time.Minute

	// watchdogInterval is the period of the wall-clock expiry check. The
	// watchdog backstops the one-shot timers: after a device sleep those
	// may fire late or not at all, while the next watchdog tick still
	// compares real time against the expiry.
	watchdogInterval = time.Minute
)

// Hooks are the scheduler's outbound callbacks. They are invoked without
// any scheduler lock held, so implementations may call back into the
// scheduler (including Cancel).
type Hooks struct {
	// OnWarning fires when the session enters the pre-expiry warning
	// window, either via the one-shot warning timer or the watchdog.
	// Must be idempotent.
	OnWarning func()

	// OnRefresh fires on every recurring refresh tick.
	OnRefresh func()

	// OnExpired fires when the watchdog observes wall-clock time at or
	// past the session expiry. Must be idempotent.
	OnExpired func()
}

// Scheduler owns the timers of one active session: a one-shot warning
// timer, a recurring refresh timer, and the expiry watchdog.
//
// Arm always cancels previous timers before creating new ones, so at most
// one timer of each kind is live regardless of how often it is called.
type Scheduler struct {
	clk   clock.Clock
	hooks Hooks

	mu            sync.Mutex
	gen           uint64
	expiryAt      time.Time
	warnTimer     *clock.Timer
	refreshTimer  *clock.Timer
	watchdogTimer *clock.Timer
}

func NewScheduler(clk clock.Clock, hooks Hooks) *Scheduler {
	return &Scheduler{clk: clk, hooks: hooks}
}

// Arm schedules timers for a session expiring expiresIn from now. Any
// previously armed timers are cancelled first; stale callbacks from them
// are discarded even if already in flight.
func (s *Scheduler) Arm(expiresIn time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked()
	gen := s.gen
	s.expiryAt = s.clk.Now().Add(expiresIn)

	if lead := expiresIn - warningLead; lead > 0 {
		s.warnTimer = s.clk.AfterFunc(lead, func() { s.fireWarning(gen) })
	}
	if expiresIn > minRefreshableTTL {
		s.refreshTimer = s.clk.AfterFunc(refreshInterval, func() { s.fireRefresh(gen) })
	}
	s.watchdogTimer = s.clk.AfterFunc(watchdogInterval, func() { s.fireWatchdog(gen) })
}

// Cancel stops all timers. Idempotent and safe to call with none armed.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
}

func (s *Scheduler) cancelLocked() {
	s.gen++
	for _, t := range []*clock.Timer{s.warnTimer, s.refreshTimer, s.watchdogTimer} {
		if t != nil {
			t.Stop()
		}
	}
	s.warnTimer, s.refreshTimer, s.watchdogTimer = nil, nil, nil
}

func (s *Scheduler) fireWarning(gen uint64) {
	s.mu.Lock()
	stale := gen != s.gen
	s.mu.Unlock()
	if stale {
		return
	}
	s.hooks.OnWarning()
}

func (s *Scheduler) fireRefresh(gen uint64) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.refreshTimer = s.clk.AfterFunc(refreshInterval, func() { s.fireRefresh(gen) })
	s.mu.Unlock()
	s.hooks.OnRefresh()
}

func (s *Scheduler) fireWatchdog(gen uint64) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	now := s.clk.Now()
	expiryAt := s.expiryAt
	expired := !now.Before(expiryAt)
	if !expired {
		s.watchdogTimer = s.clk.AfterFunc(watchdogInterval, func() { s.fireWatchdog(gen) })
	}
	s.mu.Unlock()

	if expired {
		s.hooks.OnExpired()
		return
	}
	if expiryAt.Sub(now) <= warningLead {
		s.hooks.OnWarning()
	}
}
