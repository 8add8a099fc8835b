package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// getStatus renders the prompt suffix: the logged-in user plus a warning
// marker when the session is about to end.
func (a *App) getStatus() string {
	sess, ok := a.ctrl.Snapshot()
	if !ok {
		return ""
	}
	s := ""
	if sess.User != nil {
		s = sess.User.Username
	}
	if sess.WarningActive {
		s += " !expiring"
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

func (a *App) Root(ctx context.Context) {
	fmt.Fprintln(a.out, "Maintenance dashboard CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(a.reader)

	if !a.isLoggedIn() {
		a.Login(ctx)
	}

	for {
		fmt.Fprintf(a.out, "mdash %s> ", a.getStatus())
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(a.out, "Available commands: whoami, refresh, sessions, revoke <n>, dismiss, logout, exit")
			} else {
				fmt.Fprintln(a.out, "Available commands: login, exit")
			}

		case "login":
			a.Login(ctx)
		case "logout":
			a.Logout(ctx)
		case "whoami":
			a.whoami(ctx)
		case "refresh":
			a.refresh(ctx)
		case "sessions":
			a.listSessions(ctx)
		case "revoke":
			if len(args) == 0 {
				fmt.Fprintln(a.out, "Usage: revoke <n>  (number from 'sessions')")
				continue
			}
			a.revoke(ctx, args[0])
		case "dismiss":
			a.dismiss(ctx)
		case "exit", "quit":
			fmt.Fprintln(a.out, "Bye!")
			return
		default:
			fmt.Fprintln(a.out, "Unknown command:", cmd)
		}
	}
}
