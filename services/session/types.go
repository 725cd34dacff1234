package session

import (
	"time"

	"basavo/authz"
)

// Session is the resolved, role-bearing identity handed to the HTTP layer.
// Ready is always true once Resolve returns so callers never render a
// half-resolved account.
type Session struct {
	authz.Actor
	PhotoURL string `json:"photoURL"`
	Ready    bool   `json:"ready"`
	// Welcome is set exactly once per sign-in lifetime so the greeting
	// is not replayed on every page load.
	Welcome bool `json:"welcome"`
}

// State is the per-account record kept in the session store between
// requests.
type State struct {
	UID          string    `json:"uid"`
	Role         string    `json:"role"`
	WelcomeShown bool      `json:"welcome_shown"`
	CreatedAt    time.Time `json:"created_at"`
}
