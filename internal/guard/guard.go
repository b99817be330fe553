// Package guard decides whether a navigation to a view is allowed for the
// current session. Decisions are pure functions of the requested access
// level and the session state at evaluation time.
package guard

import (
	"net/url"

	"github.com/boddenberg/money-manager-bfa-go/internal/domain"
)

// Access is the protection level a view is tagged with.
type Access int

const (
	Public Access = iota
	AuthRequired
	AdminRequired
)

func (a Access) String() string {
	switch a {
	case AuthRequired:
		return "auth-required"
	case AdminRequired:
		return "admin-required"
	default:
		return "public"
	}
}

// Outcome is the kind of a Decision.
type Outcome string

const (
	Allow    Outcome = "allow"
	Redirect Outcome = "redirect"
)

// Default view paths.
const (
	LoginPath = "/login"
	HomePath  = "/"
)

// Reason explains a redirect.
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonNotLoggedIn   Reason = "not_logged_in"
	ReasonNotAuthorized Reason = "not_authorized"
)

// Decision is the result of evaluating a navigation.
type Decision struct {
	Outcome  Outcome
	Location string // where to send the user on Redirect
	Target   string // originally requested view, set only for login redirects
	Reason   Reason
}

// Allowed reports whether the navigation may proceed.
func (d Decision) Allowed() bool {
	return d.Outcome == Allow
}

// Paths are the redirect destinations.
type Paths struct {
	Login string
	Home  string
}

// DefaultPaths returns the application's login and home views.
func DefaultPaths() Paths {
	return Paths{Login: LoginPath, Home: HomePath}
}

// Evaluate decides a navigation to target, which requires access, for a
// session in state. Anonymous users are sent to the login view with the
// original target preserved; authenticated non-admins asking for an admin
// view are sent home instead.
func Evaluate(access Access, state domain.SessionState, target string) Decision {
	return DefaultPaths().Evaluate(access, state, target)
}

// Evaluate is Evaluate with custom redirect destinations.
func (p Paths) Evaluate(access Access, state domain.SessionState, target string) Decision {
	if access == Public {
		return Decision{Outcome: Allow}
	}

	if !state.IsAuthenticated() {
		return Decision{
			Outcome:  Redirect,
			Location: loginLocation(p.Login, target),
			Target:   target,
			Reason:   ReasonNotLoggedIn,
		}
	}

	if access == AdminRequired && state.Role() != domain.RoleAdmin {
		return Decision{
			Outcome:  Redirect,
			Location: p.Home,
			Reason:   ReasonNotAuthorized,
		}
	}

	return Decision{Outcome: Allow}
}

func loginLocation(login, target string) string {
	if target == "" {
		return login
	}
	return login + "?" + url.Values{"next": {target}}.Encode()
}
