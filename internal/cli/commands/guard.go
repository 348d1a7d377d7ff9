package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sensorwatch/sensorwatch/internal/router"
)

// RouteAnnotation names the page a command stands for. The navigation guard
// runs against it before the command.
const RouteAnnotation = "sensorwatch/route"

var (
	ErrNotAuthenticated   = errors.New("not authenticated. Please run 'sensorwatch login' first")
	ErrOnboardingRequired = errors.New("onboarding not completed. Please run 'sensorwatch onboarding' first")
	ErrAdminRequired      = errors.New("admin access required")
	ErrSessionExpired     = errors.New("session expired. Please run 'sensorwatch login' again")

	// ErrSkip stops a command without reporting a failure
	ErrSkip = errors.New("skipped")
)

// withRoute annotates cmd with the route it stands for
func withRoute(cmd *cobra.Command, name router.Name) *cobra.Command {
	path, err := router.PathOf(name)
	if err != nil {
		panic(err)
	}
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[RouteAnnotation] = path
	return cmd
}

// Guard navigates to the route of cmd and turns a redirect into an error
func Guard(cmd *cobra.Command, env *Env) error {
	path, ok := cmd.Annotations[RouteAnnotation]
	if !ok {
		return nil
	}

	_, d := env.Navigator.Navigate(cmd.Context(), path)
	if !d.Redirect {
		return nil
	}

	switch d.Reason {
	case router.ReasonUnauthenticated:
		return ErrNotAuthenticated
	case router.ReasonOnboarding:
		return ErrOnboardingRequired
	case router.ReasonForbidden:
		return ErrAdminRequired
	case router.ReasonAuthenticated:
		env.printf("Already logged in as %s. Run 'sensorwatch logout' first to switch accounts.\n", env.Session.User().Username)
		return ErrSkip
	default:
		return fmt.Errorf("cannot open %s: redirected to %s", path, d.Location())
	}
}
