package credentials

import (
	"context"
	"time"

	"github.com/rdacruz/maintdash/internal/client/models"
)

// Entry is one persisted credential set: the bearer token, the resolved
// user profile, the client-side token expiry, and the retention bound of
// the entry itself (1 day by default, 30 days for remember-me logins).
type Entry struct {
	Token       string
	User        models.UserProfile
	ExpiryAt    time.Time
	RetainUntil time.Time
}

// Repository persists at most one credential entry.
//
// Load returns (nil, nil) when no usable entry exists. A corrupt entry
// (unparseable profile JSON or timestamps) or one past its retention bound
// is deleted during Load and reported as absent, never as an error.
type Repository interface {
	Load(ctx context.Context) (*Entry, error)
	Save(ctx context.Context, entry *Entry) error
	Clear(ctx context.Context) error
}
