// Package guard decides which screens a session may reach.
//
// Policies are pure functions of a session snapshot. Screens declare an
// ordered policy list; Evaluate runs them left to right and the first
// non-Allow decision wins.
package guard

import (
	"photoshare/internal/models"
	"photoshare/internal/session"
)

// Kind classifies a guard decision.
type Kind int

const (
	Allow Kind = iota
	RedirectLogin
	RedirectHome
	RedirectRoleHome
)

func (k Kind) String() string {
	switch k {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect_login"
	case RedirectHome:
		return "redirect_home"
	case RedirectRoleHome:
		return "redirect_role_home"
	}
	return "unknown"
}

// Decision is the result of evaluating a screen's policies.
type Decision struct {
	Kind Kind
	// Role is set for RedirectRoleHome.
	Role models.Role
}

// Allowed reports whether the decision lets the screen render.
func (d Decision) Allowed() bool {
	return d.Kind == Allow
}

// Target is the path the decision redirects to, or "" for Allow.
func (d Decision) Target() string {
	switch d.Kind {
	case RedirectLogin:
		return PathLogin
	case RedirectHome:
		return PathHome
	case RedirectRoleHome:
		return RoleHome(d.Role)
	}
	return ""
}

// Policy decides for one aspect of access.
type Policy func(session.Session) Decision

var allow = Decision{Kind: Allow}

// AuthRedirect keeps signed-in users away from the login and signup screens.
func AuthRedirect(s session.Session) Decision {
	if !s.IsAuthenticated() {
		return allow
	}
	if s.Role == models.RoleCreator {
		return Decision{Kind: RedirectRoleHome, Role: models.RoleCreator}
	}
	return Decision{Kind: RedirectHome}
}

// ProtectedRoute requires any authenticated session.
func ProtectedRoute(s session.Session) Decision {
	if !s.IsAuthenticated() {
		return Decision{Kind: RedirectLogin}
	}
	return allow
}

// RoleRoute requires the session role to equal required.
func RoleRoute(required models.Role) Policy {
	return func(s session.Session) Decision {
		if s.Role != required {
			return Decision{Kind: RedirectHome}
		}
		return allow
	}
}

// CreatorBlock sends creators from the shared feed to their dashboard.
func CreatorBlock(s session.Session) Decision {
	if s.Role == models.RoleCreator {
		return Decision{Kind: RedirectRoleHome, Role: models.RoleCreator}
	}
	return allow
}

// Evaluate applies policies in order and returns the first non-Allow decision.
func Evaluate(s session.Session, policies ...Policy) Decision {
	for _, p := range policies {
		if d := p(s); !d.Allowed() {
			return d
		}
	}
	return allow
}
