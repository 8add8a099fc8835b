// Package common defines shared sentinel errors used across the session
// client layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Gateway-level errors.
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")

	// Session-level errors.
	ErrNotAuthenticated = errors.New("not authenticated")
)
