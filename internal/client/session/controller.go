package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/rdacruz/maintdash/internal/client/gateway"
	"github.com/rdacruz/maintdash/internal/client/models"
	"github.com/rdacruz/maintdash/internal/client/repositories/credentials"
	"github.com/rdacruz/maintdash/internal/common"
	"github.com/rdacruz/maintdash/internal/logging"
)

// Credential retention in the local store. The token itself usually
// expires much earlier; retention only bounds how long the entry may sit
// on disk.
const (
	defaultRetention    = 24 * time.Hour
	rememberMeRetention = 30 * 24 * time.Hour

	defaultRequestTimeout = 10 * time.Second
)

// State is the controller's lifecycle state.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticating
	StateAuthenticated
	StateError
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Controller is the session lifecycle state machine. It composes the
// gateway, the credential store, the scheduler, and the refresher, and is
// the sole owner of the in-memory session.
//
// Controllers are independent: construct as many as needed (tests run
// several side by side). All methods are safe for concurrent use; the
// internal lock is held only across state mutations, never across gateway
// calls, and every completion of an in-flight call re-checks that its
// token is still the active one before touching state.
type Controller struct {
	gw             gateway.Gateway
	repo           credentials.Repository
	log            logging.Logger
	clk            clock.Clock
	sched          *Scheduler
	refresher      *Refresher
	requestTimeout time.Duration

	mu    sync.Mutex
	state State
	sess  *models.Session

	wg sync.WaitGroup
}

func NewController(gw gateway.Gateway, repo credentials.Repository, log logging.Logger, clk clock.Clock) *Controller {
	c := &Controller{
		gw:             gw,
		repo:           repo,
		log:            log,
		clk:            clk,
		state:          StateUnauthenticated,
		requestTimeout: defaultRequestTimeout,
	}
	c.sched = NewScheduler(clk, Hooks{
		OnWarning: c.raiseWarning,
		OnRefresh: c.backgroundRefresh,
		OnExpired: c.expireNow,
	})
	c.refresher = NewRefresher(gw, c, log)
	return c
}

// WithRequestTimeout sets the timeout for detached background calls.
func (c *Controller) WithRequestTimeout(d time.Duration) *Controller {
	c.requestTimeout = d
	return c
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns a copy of the current session, if one exists.
func (c *Controller) Snapshot() (models.Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return models.Session{}, false
	}
	return *c.sess, true
}

// Restore loads persisted credentials at startup without contacting the
// gateway. A corrupt or aged-out entry was already wiped by the store; an
// entry whose token is past expiry is cleared here. Never fails.
func (c *Controller) Restore(ctx context.Context) {
	entry, err := c.repo.Load(ctx)
	if err != nil {
		c.log.Warn(ctx, "failed to read stored credentials", "error", err)
		return
	}
	if entry == nil {
		return
	}

	now := c.clk.Now()
	if !now.Before(entry.ExpiryAt) {
		c.log.Info(ctx, "stored session already expired, clearing")
		if err := c.repo.Clear(ctx); err != nil {
			c.log.Warn(ctx, "failed to clear stored credentials", "error", err)
		}
		return
	}

	user := entry.User
	c.mu.Lock()
	c.sess = &models.Session{
		Token:    entry.Token,
		User:     &user,
		ExpiryAt: entry.ExpiryAt,
	}
	c.state = StateAuthenticated
	c.mu.Unlock()

	c.sched.Arm(entry.ExpiryAt.Sub(now))
	c.log.Info(ctx, "session restored", "user", user.Username, "expires_at", entry.ExpiryAt)
}

// Login authenticates, resolves the user profile, persists the session,
// and arms the scheduler. On any step failing no partial session survives
// and the error is returned to the caller. After a successful login the
// session-count fetch and the first refresh run detached; their failures
// are logged, never surfaced.
func (c *Controller) Login(ctx context.Context, creds gateway.Credentials) (*models.Session, error) {
	c.mu.Lock()
	c.state = StateAuthenticating
	c.mu.Unlock()

	auth, err := c.gw.Authenticate(ctx, creds)
	if err != nil {
		c.failLogin(ctx)
		return nil, err
	}

	user, err := c.gw.FetchCurrentUser(ctx, auth.Token)
	if err != nil {
		c.failLogin(ctx)
		return nil, err
	}

	now := c.clk.Now()
	retention := defaultRetention
	if auth.RememberMe {
		retention = rememberMeRetention
	}

	entry := &credentials.Entry{
		Token:       auth.Token,
		User:        *user,
		ExpiryAt:    now.Add(auth.ExpiresIn),
		RetainUntil: now.Add(retention),
	}
	if err := c.repo.Save(ctx, entry); err != nil {
		c.failLogin(ctx)
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	sess := &models.Session{
		Token:      auth.Token,
		User:       user,
		ExpiryAt:   entry.ExpiryAt,
		RememberMe: auth.RememberMe,
	}

	c.mu.Lock()
	c.sess = sess
	c.state = StateAuthenticated
	snapshot := *sess
	c.mu.Unlock()

	c.sched.Arm(auth.ExpiresIn)
	c.log.Info(ctx, "login successful", "user", user.Username, "expires_at", entry.ExpiryAt)

	c.detach(func(ctx context.Context) { c.FetchUserSessions(ctx) })
	c.detach(func(ctx context.Context) { c.RefreshSession(ctx) })

	return &snapshot, nil
}

// failLogin is the full teardown for a failed login attempt. Login is
// reachable while already authenticated (a re-login from the REPL), so the
// previous session's timers and stored entry must go down with the
// in-memory session, not just the snapshot.
func (c *Controller) failLogin(ctx context.Context) {
	c.mu.Lock()
	c.sess = nil
	c.state = StateError
	c.mu.Unlock()

	c.sched.Cancel()
	if err := c.repo.Clear(ctx); err != nil {
		c.log.Warn(ctx, "failed to clear stored credentials", "error", err)
	}
}

// Logout ends the session. The gateway call is best-effort: its errors are
// logged and local state is cleared regardless. Never fails outward.
func (c *Controller) Logout(ctx context.Context) {
	token, ok := c.currentToken()
	if ok {
		if err := c.gw.Logout(ctx, token); err != nil {
			c.log.Warn(ctx, "logout call failed", "error", err)
		}
	}
	c.clearSession(ctx, token, "user logout")
}

// RefreshSession runs one refresh round-trip. No-op without a token.
// A failed refresh ends the session silently (ambient failure), it never
// produces an error display.
func (c *Controller) RefreshSession(ctx context.Context) {
	c.refresher.Run(ctx)
}

// DismissWarning clears the pre-expiry warning. Idempotent; it never
// touches the expiry and never reinstates a cleared session.
func (c *Controller) DismissWarning() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess != nil {
		c.sess.WarningActive = false
	}
}

// RevokeSession revokes another device's session in the server-side
// registry, then re-fetches the active session count. Failures are
// surfaced to the caller and leave the current session untouched.
func (c *Controller) RevokeSession(ctx context.Context, otherToken string) error {
	token, ok := c.currentToken()
	if !ok {
		return common.ErrNotAuthenticated
	}
	if err := c.gw.RevokeSession(ctx, token, otherToken); err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			c.clearSession(ctx, token, "revoke rejected as unauthorized")
		}
		return err
	}
	c.FetchUserSessions(ctx)
	return nil
}

// FetchUserSessions lists the user's active sessions and updates the
// session count. Best-effort: failures are logged and yield nil. No-op
// when unauthenticated.
func (c *Controller) FetchUserSessions(ctx context.Context) []models.RemoteSession {
	c.mu.Lock()
	var token, userID string
	if c.sess.Authenticated() {
		token = c.sess.Token
		userID = c.sess.User.ID
	}
	c.mu.Unlock()
	if token == "" || userID == "" {
		return nil
	}

	sessions, err := c.gw.ListSessions(ctx, token, userID)
	if err != nil {
		c.log.Warn(ctx, "failed to list user sessions", "error", err)
		if errors.Is(err, common.ErrUnauthorized) {
			// The server no longer trusts this token; fail closed.
			c.clearSession(ctx, token, "listing rejected as unauthorized")
		}
		return nil
	}

	c.mu.Lock()
	if c.sess != nil && c.sess.Token == token {
		c.sess.ActiveSessionCount = len(sessions)
	}
	c.mu.Unlock()

	return sessions
}

// Close releases the scheduler's timers and waits for detached tasks.
func (c *Controller) Close() {
	c.sched.Cancel()
	c.wg.Wait()
}

// currentToken returns the active token, if the session is authenticated.
func (c *Controller) currentToken() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.sess.Authenticated() {
		return "", false
	}
	return c.sess.Token, true
}

// clearSession is the single terminal path: it drops the in-memory
// session, cancels all timers, and wipes the store. Idempotent. When token
// is non-empty and a different session is now active (the trigger was a
// stale in-flight call), the clear is discarded instead.
func (c *Controller) clearSession(ctx context.Context, token, reason string) {
	c.mu.Lock()
	if token != "" && c.sess != nil && c.sess.Token != token {
		c.mu.Unlock()
		c.log.Debug(ctx, "discarding stale session clear", "reason", reason)
		return
	}
	hadSession := c.sess != nil
	c.sess = nil
	c.state = StateUnauthenticated
	c.mu.Unlock()

	c.sched.Cancel()
	if err := c.repo.Clear(ctx); err != nil {
		c.log.Warn(ctx, "failed to clear stored credentials", "error", err)
	}
	if hadSession {
		c.log.Info(ctx, "session ended", "reason", reason)
	}
}

// applyRefresh interprets a successful refresh for the session that
// started it. Stale results (the token changed or the session is gone)
// are discarded.
func (c *Controller) applyRefresh(ctx context.Context, token string, res *gateway.RefreshResult) {
	if res.SecondsUntilMidnight <= 0 {
		c.log.Info(ctx, "reference-day cutoff reached, ending session", "server_time", res.ServerTime)
		c.clearSession(ctx, token, "midnight cutoff")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil || c.sess.Token != token {
		return
	}

	c.sess.ReferenceClock = &models.ReferenceClock{
		ServerTime:           res.ServerTime,
		SecondsUntilMidnight: res.SecondsUntilMidnight,
		ReportedAt:           c.clk.Now(),
	}

	if res.SecondsUntilMidnight <= midnightWarningSeconds {
		c.sess.WarningActive = true
	} else if c.sess.WarningActive && c.sess.ExpiryAt.Sub(c.clk.Now()) > warningLead {
		// Only a midnight-driven warning is cleared here; one within the
		// token-TTL window belongs to the watchdog.
		c.sess.WarningActive = false
	}
}

// raiseWarning marks the warning active. Idempotent; no-op without a
// session.
func (c *Controller) raiseWarning() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess != nil && !c.sess.WarningActive {
		c.sess.WarningActive = true
	}
}

// backgroundRefresh is the recurring refresh tick.
func (c *Controller) backgroundRefresh() {
	ctx, cancel := context.WithTimeout(context.Background(), c.requestTimeout)
	defer cancel()
	c.refresher.Run(ctx)
}

// expireNow is the watchdog's forced logout: wall-clock time reached the
// session expiry, whether or not the one-shot timers ever fired.
func (c *Controller) expireNow() {
	token, ok := c.currentToken()
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.requestTimeout)
	defer cancel()
	c.clearSession(ctx, token, "token expiry")
}

// detach runs fn on its own goroutine with a bounded context. Used for the
// post-login warmup calls, whose failures must never affect the caller.
func (c *Controller) detach(fn func(context.Context)) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), c.requestTimeout)
		defer cancel()
		fn(ctx)
	}()
}
