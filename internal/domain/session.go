package domain

import "time"

// Role is the authorization role embedded in the session token.
type Role string

const (
	RoleUser  Role = "User"
	RoleAdmin Role = "Admin"
)

// Claims is the user identity decoded from a bearer token.
type Claims struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email,omitempty"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// IsAdmin reports whether the claims carry the Admin role.
func (c Claims) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// SessionStatus is the state of the session state machine.
type SessionStatus string

const (
	StatusAnonymous     SessionStatus = "anonymous"
	StatusAuthenticated SessionStatus = "authenticated"
)

// SessionState is a snapshot of the session: Anonymous, or Authenticated
// with the decoded claims.
type SessionState struct {
	Status SessionStatus `json:"status"`
	User   *Claims       `json:"user,omitempty"`
}

// Anonymous is the "no session" state.
func Anonymous() SessionState {
	return SessionState{Status: StatusAnonymous}
}

// Authenticated builds the authenticated state for c.
func Authenticated(c Claims) SessionState {
	return SessionState{Status: StatusAuthenticated, User: &c}
}

// IsAuthenticated reports whether the state is Authenticated.
func (s SessionState) IsAuthenticated() bool {
	return s.Status == StatusAuthenticated && s.User != nil
}

// Role returns the authenticated role, or "" for Anonymous.
func (s SessionState) Role() Role {
	if !s.IsAuthenticated() {
		return ""
	}
	return s.User.Role
}

// SessionTransition names the edge taken by the session state machine.
type SessionTransition string

const (
	TransitionLogin   SessionTransition = "login"
	TransitionLogout  SessionTransition = "logout"
	TransitionExpired SessionTransition = "expiry_detected"
)
