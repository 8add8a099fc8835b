package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/rdacruz/maintdash/internal/client/gateway"
	"github.com/rdacruz/maintdash/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login prompts for credentials and authenticates through the session
// controller. The password byte slice is wiped before returning. A failed
// attempt is reported on the REPL output; the user can simply retry.
func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	remember, err := getSimpleText(a.reader, "Stay signed in? [y/N]", a.out)
	if err != nil {
		return err
	}
	rememberMe := strings.EqualFold(remember, "y") || strings.EqualFold(remember, "yes")

	sess, err := a.ctrl.Login(ctx, gateway.Credentials{
		Username:   userName,
		Password:   string(password),
		RememberMe: rememberMe,
	})
	if err != nil {
		fmt.Fprintln(a.out, "Login failed:", err)
		return err
	}

	fmt.Fprintf(a.out, "Logged in as %s, session valid until %s\n",
		sess.User.Username, sess.ExpiryAt.Format("15:04:05"))
	return nil
}

// Logout ends the session. Local state is always cleared; server-side
// failures never surface here.
func (a *App) Logout(ctx context.Context) {
	a.ctrl.Logout(ctx)
	a.lastSessions = nil
	fmt.Fprintln(a.out, "Logged out")
}
