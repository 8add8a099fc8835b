package gateway

import "fmt"

// APIError is a non-2xx response that is neither an authorization failure
// nor a transport problem. It preserves the HTTP status and the server's
// message for the caller.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error (HTTP %d)", e.Status)
}
