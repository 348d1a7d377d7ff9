package router

import (
	"net/url"
	"strings"
)

// State is what the guard knows about the client at navigation time
type State struct {
	// Activated is false until the startup gate has been passed
	Activated      bool
	Enforce        bool
	Authenticated  bool
	Admin          bool
	OnboardingDone bool
}

// Reason tells which rule produced a decision
type Reason string

const (
	ReasonAllowed         Reason = "allowed"
	ReasonInactive        Reason = "inactive"
	ReasonOnboarding      Reason = "onboarding_required"
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonForbidden       Reason = "admin_required"
	ReasonAuthenticated   Reason = "already_authenticated"
	ReasonNotFound        Reason = "not_found"
)

// RedirectParam is the query parameter carrying the path to return to after login
const RedirectParam = "redirect"

// Decision is the outcome of the guard for one navigation
type Decision struct {
	Redirect bool
	To       Name
	Query    url.Values
	Reason   Reason
}

func allow(reason Reason) Decision {
	return Decision{Reason: reason}
}

func redirect(to Name, reason Reason) Decision {
	return Decision{Redirect: true, To: to, Reason: reason}
}

// Location returns the path the decision redirects to, with its query.
// It is empty for an allowed navigation.
func (d Decision) Location() string {
	if !d.Redirect {
		return ""
	}
	path, err := PathOf(d.To)
	if err != nil {
		path = "/"
	}
	return withQuery(path, d.Query)
}

// Decide runs the guard rules in order; the first that applies wins.
// Decide has no side effects.
func Decide(target Match, s State) Decision {
	if !s.Activated {
		return allow(ReasonInactive)
	}

	requiresAuth := target.RequiresAuth()

	if s.Enforce {
		if requiresAuth && s.Authenticated && !s.OnboardingDone && target.Name() != Onboarding {
			return redirect(Onboarding, ReasonOnboarding)
		}

		if requiresAuth && !s.Authenticated {
			d := redirect(Login, ReasonUnauthenticated)
			d.Query = url.Values{RedirectParam: {target.FullPath}}
			return d
		}

		if target.RequiresAdmin() && !s.Admin {
			return redirect(Landing, ReasonForbidden)
		}
	}

	if name := target.Name(); (name == Login || name == Register) && s.Authenticated {
		return redirect(Landing, ReasonAuthenticated)
	}

	if !target.Matched() {
		return redirect(Landing, ReasonNotFound)
	}

	return allow(ReasonAllowed)
}

// SafeRedirect returns the return-to path carried by a login query when it
// resolves to a known in-app route, else the landing path.
func SafeRedirect(query url.Values) string {
	landing, _ := PathOf(Landing)
	target := query.Get(RedirectParam)
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return landing
	}
	m := Resolve(target)
	if !m.Matched() {
		return landing
	}
	return m.FullPath
}
