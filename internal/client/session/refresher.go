package session

import (
	"context"

	"github.com/rdacruz/maintdash/internal/client/gateway"
	"github.com/rdacruz/maintdash/internal/logging"
)

// midnightWarningSeconds is the reference-day warning window: once the
// server reports less than an hour to local midnight, the user is warned.
const midnightWarningSeconds = 3600

// Refresher performs one refresh round-trip and interprets the server's
// authoritative reference clock.
//
// The midnight cutoff it enforces is a business rule independent of token
// TTL: sessions end at local midnight in the fixed reference timezone no
// matter how much token lifetime remains. Any refresh failure is
// fail-closed — an untrusted token must not stay active locally.
type Refresher struct {
	gw   gateway.Gateway
	ctrl *Controller
	log  logging.Logger
}

func NewRefresher(gw gateway.Gateway, ctrl *Controller, log logging.Logger) *Refresher {
	return &Refresher{gw: gw, ctrl: ctrl, log: log}
}

// Run refreshes the current session once. No-op when no token is present.
func (r *Refresher) Run(ctx context.Context) {
	token, ok := r.ctrl.currentToken()
	if !ok {
		return
	}

	res, err := r.gw.Refresh(ctx, token)
	if err != nil {
		r.log.Warn(ctx, "session refresh failed, ending session", "error", err)
		r.ctrl.clearSession(ctx, token, "refresh failure")
		return
	}

	r.ctrl.applyRefresh(ctx, token, res)
}
