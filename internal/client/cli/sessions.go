package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rdacruz/maintdash/internal/client/session"
)

func (a *App) whoami(ctx context.Context) {
	sess, ok := a.ctrl.Snapshot()
	if !ok {
		fmt.Fprintln(a.out, "Not logged in")
		return
	}
	fmt.Fprintf(a.out, "%s (%s), role %s\n", sess.User.Username, sess.User.FullName, sess.User.Role)
	fmt.Fprintf(a.out, "Session valid until %s\n", sess.ExpiryAt.Format("2006-01-02 15:04:05"))
	if sess.ReferenceClock != nil {
		fmt.Fprintf(a.out, "Server time %s, %ds until day cutoff\n",
			sess.ReferenceClock.ServerTime, sess.ReferenceClock.SecondsUntilMidnight)
	}
	if sess.ActiveSessionCount > 0 {
		fmt.Fprintf(a.out, "Active sessions: %d\n", sess.ActiveSessionCount)
	}
	if sess.WarningActive {
		fmt.Fprintln(a.out, "Warning: session is about to end")
	}
}

func (a *App) refresh(ctx context.Context) {
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, "Not logged in")
		return
	}
	a.ctrl.RefreshSession(ctx)
	if a.ctrl.State() == session.StateAuthenticated {
		fmt.Fprintln(a.out, "Session refreshed")
	} else {
		fmt.Fprintln(a.out, "Session ended")
	}
}

func (a *App) listSessions(ctx context.Context) {
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, "Not logged in")
		return
	}
	sessions := a.ctrl.FetchUserSessions(ctx)
	if sessions == nil {
		fmt.Fprintln(a.out, "Could not fetch sessions")
		return
	}
	a.lastSessions = sessions

	for i, s := range sessions {
		marker := " "
		if s.Current {
			marker = "*"
		}
		fmt.Fprintf(a.out, "%s %d. %s (last seen %s)\n",
			marker, i+1, s.DeviceName, s.LastSeen.Format("2006-01-02 15:04"))
	}
}

func (a *App) revoke(ctx context.Context, arg string) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(a.lastSessions) {
		fmt.Fprintln(a.out, "Run 'sessions' first, then revoke by its number")
		return
	}
	target := a.lastSessions[n-1]
	if target.Current {
		fmt.Fprintln(a.out, "Refusing to revoke the current session, use 'logout'")
		return
	}
	if err := a.ctrl.RevokeSession(ctx, target.Token); err != nil {
		fmt.Fprintln(a.out, "Revoke failed:", err)
		return
	}
	a.lastSessions = nil
	fmt.Fprintf(a.out, "Revoked session on %s\n", target.DeviceName)
}

func (a *App) dismiss(ctx context.Context) {
	a.ctrl.DismissWarning()
	fmt.Fprintln(a.out, "Warning dismissed")
}
