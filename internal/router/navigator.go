package router

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Session is the session view the navigator needs
type Session interface {
	InitializeAuth(ctx context.Context)
	IsAuthenticated() bool
	IsAdmin() bool
}

// OnboardingState reports whether the user completed onboarding
type OnboardingState interface {
	OnboardingDone() bool
}

// Navigator guards navigations of one client
type Navigator struct {
	session    Session
	onboarding OnboardingState
	enforce    bool
	activated  atomic.Bool
	logger     zerolog.Logger
}

// NewNavigator creates an inactive Navigator.
// When enforce is false the onboarding, login and admin rules are skipped.
func NewNavigator(session Session, onboarding OnboardingState, enforce bool, logger zerolog.Logger) *Navigator {
	return &Navigator{
		session:    session,
		onboarding: onboarding,
		enforce:    enforce,
		logger:     logger,
	}
}

// Activate passes the startup gate. Navigations before it are always allowed.
func (n *Navigator) Activate() {
	n.activated.Store(true)
}

// Activated reports whether the startup gate has been passed
func (n *Navigator) Activated() bool {
	return n.activated.Load()
}

// Navigate resolves fullPath and decides whether the navigation may proceed.
// A stored credential without a user is refreshed first.
func (n *Navigator) Navigate(ctx context.Context, fullPath string) (Match, Decision) {
	target := Resolve(fullPath)

	state := State{Activated: n.Activated(), Enforce: n.enforce}
	if state.Activated {
		n.session.InitializeAuth(ctx)
		state.Authenticated = n.session.IsAuthenticated()
		state.Admin = n.session.IsAdmin()
		state.OnboardingDone = n.onboarding.OnboardingDone()
	}

	decision := Decide(target, state)
	if decision.Redirect {
		n.logger.Debug().
			Str("path", target.FullPath).
			Str("to", string(decision.To)).
			Str("reason", string(decision.Reason)).
			Msg("Navigation redirected")
	}
	return target, decision
}

// NavigateTo navigates to the named route
func (n *Navigator) NavigateTo(ctx context.Context, name Name) (Match, Decision, error) {
	path, err := PathOf(name)
	if err != nil {
		return Match{}, Decision{}, err
	}
	m, d := n.Navigate(ctx, path)
	return m, d, nil
}
