package gateway

import (
	"context"
	"time"

	"github.com/rdacruz/maintdash/internal/client/models"
)

// Credentials are the user-supplied login inputs.
type Credentials struct {
	Username   string
	Password   string
	RememberMe bool
}

// AuthResult is the outcome of a successful authenticate call. ExpiresIn is
// the server-declared token lifetime; the caller derives the absolute expiry
// from it at acquisition time.
type AuthResult struct {
	Token      string
	ExpiresIn  time.Duration
	RememberMe bool
}

// RefreshResult carries the server's authoritative reference-timezone clock:
// a wall-clock string and the number of seconds remaining until local
// midnight in that timezone. Negative or zero seconds means the calendar-day
// cutoff has already passed.
type RefreshResult struct {
	ServerTime           string
	SecondsUntilMidnight int64
	Message              string
}

// Gateway is the stateless remote session API consumed by the session layer.
//
// Implementations perform single requests only: no retries, no backoff, no
// caching. Failures are returned to the caller, which decides whether the
// operation was user-initiated (surfaced) or ambient (logged / fail-closed).
type Gateway interface {
	Authenticate(ctx context.Context, creds Credentials) (*AuthResult, error)
	FetchCurrentUser(ctx context.Context, token string) (*models.UserProfile, error)
	Refresh(ctx context.Context, token string) (*RefreshResult, error)
	Logout(ctx context.Context, token string) error
	ListSessions(ctx context.Context, token, userID string) ([]models.RemoteSession, error)
	RevokeSession(ctx context.Context, token, otherToken string) error
}
