// Package gateway defines the remote session API surface and its REST
// implementation.
//
// The backend is an external collaborator: this package depends only on the
// shape of its JSON requests and responses. Every call is a single HTTP
// round-trip; interpretation of failures (surface, log, or fail-closed) is
// left entirely to the session layer.
package gateway
