// Package session owns the authenticated session end-to-end: login and
// logout, persisted credentials, proactive refresh scheduling, the
// pre-expiry warning, the reference-timezone day cutoff, and the
// server-side multi-device session registry.
//
// The Controller is the public surface and the sole owner of the in-memory
// session. The Scheduler owns every timer for the active session; the
// Refresher interprets the server's reference clock on each refresh. All
// timers run against an injected clock so tests advance time
// deterministically.
package session
