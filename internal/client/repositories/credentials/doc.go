// Package credentials is the durable store for the authenticated session:
// bearer token, user profile, and computed expiry, with a retention policy
// chosen at login and self-healing on corrupt data.
package credentials
