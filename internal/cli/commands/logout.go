package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/sensorwatch/sensorwatch/internal/auth"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := EnvFrom(cmd)
			if err != nil {
				return err
			}

			if _, err := env.Tokens.Require(); errors.Is(err, auth.ErrNoToken) {
				env.println("Not logged in")
				return nil
			}

			env.Session.Logout(cmd.Context())
			env.println("✓ Logged out")
			return nil
		},
	}
}

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := EnvFrom(cmd)
			if err != nil {
				return err
			}

			env.Session.InitializeAuth(cmd.Context())
			user := env.Session.User()
			if user == nil {
				env.println("Not logged in")
				return nil
			}

			printUser(env, user)
			if !env.Prefs.OnboardingDone() {
				env.println("  Onboarding: pending")
			}
			return nil
		},
	}
}
