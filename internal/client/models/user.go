package models

// UserProfile is the profile record resolved once after authentication.
// It is immutable for the lifetime of a session and is the persisted
// (JSON-serialized) form of the user.
type UserProfile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}
