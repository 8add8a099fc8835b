// Package models defines the client-held session records.
package models

import "time"

// ReferenceClock is the server's authoritative view of "now" in the fixed
// reference timezone, reported only on a successful refresh. It is stale
// between refreshes; ReportedAt records when it was received.
type ReferenceClock struct {
	ServerTime           string
	SecondsUntilMidnight int64
	ReportedAt           time.Time
}

// Session is the single live authenticated context. At most one exists per
// controller instance.
type Session struct {
	Token              string
	User               *UserProfile
	ExpiryAt           time.Time
	RememberMe         bool
	WarningActive      bool
	ReferenceClock     *ReferenceClock
	ActiveSessionCount int
}

// Authenticated reports whether the session holds both a token and a user
// profile. The two are always set and cleared together.
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != "" && s.User != nil
}

// IsExpired reports whether the token is past its client-side expiry.
func (s *Session) IsExpired(now time.Time) bool {
	if s == nil || s.ExpiryAt.IsZero() {
		return false
	}
	return !now.Before(s.ExpiryAt)
}

// RemoteSession is one entry of the server-side multi-device session
// registry for the current user.
type RemoteSession struct {
	Token      string
	DeviceName string
	LastSeen   time.Time
	Current    bool
}
