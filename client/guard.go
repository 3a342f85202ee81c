// Copyright (c) 2025-2026 Tarikh al-Islam contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package client

// GuardDecision is the outcome of evaluating a protected route.
type GuardDecision int

const (
	// GuardLoading means identity is not yet known; render a neutral
	// placeholder and do not redirect.
	GuardLoading GuardDecision = iota
	// GuardRedirectLogin sends an anonymous visitor to the login view.
	GuardRedirectLogin
	// GuardRedirectHome sends an authenticated user with the wrong
	// role to the public timeline.
	GuardRedirectHome
	// GuardRender renders the protected view.
	GuardRender
)

func (d GuardDecision) String() string {
	switch d {
	case GuardLoading:
		return "loading"
	case GuardRedirectLogin:
		return "redirect-login"
	case GuardRedirectHome:
		return "redirect-home"
	case GuardRender:
		return "render"
	default:
		return "unknown"
	}
}

// Redirect targets used by the router for guard decisions.
const (
	LoginPath = "/login"
	HomePath  = "/"
)

// Guard decides whether a protected view may render for the given
// session snapshot. An empty allowedRoles set means any authenticated
// user. Loading always takes precedence over redirect decisions, so
// identity is never guessed before the initial check completes. The
// decision is a pure function of its inputs.
func Guard(session Session, allowedRoles ...string) GuardDecision {
	if session.Loading {
		return GuardLoading
	}
	if session.User == nil {
		return GuardRedirectLogin
	}
	if len(allowedRoles) == 0 {
		return GuardRender
	}
	for _, role := range allowedRoles {
		if session.User.Role == role {
			return GuardRender
		}
	}
	return GuardRedirectHome
}
