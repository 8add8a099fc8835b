// Package cli provides the interactive maintenance dashboard command-line
// client.
//
// It wires configuration, the local credential store, the REST gateway, and
// an interactive REPL around the session controller. Typical flow: restore a
// persisted session if one exists, prompt for credentials otherwise, then
// execute user commands until exit.
//
// Key features:
//   - Login / Logout with optional remember-me
//   - Manual session refresh and warning dismissal
//   - Listing and revoking other devices' sessions
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
package cli
