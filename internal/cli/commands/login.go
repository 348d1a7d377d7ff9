package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sensorwatch/sensorwatch/internal/api"
	"github.com/sensorwatch/sensorwatch/internal/router"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the sensor service",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := EnvFrom(cmd)
			if err != nil {
				return err
			}
			return runLogin(cmd, env, username, password)
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username (or set SENSORWATCH_USERNAME)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set SENSORWATCH_PASSWORD, will prompt if not provided)")

	return withRoute(cmd, router.Login)
}

func runLogin(cmd *cobra.Command, env *Env, username, password string) error {
	// Check for environment variables (useful for scripts)
	if username == "" {
		username = os.Getenv("SENSORWATCH_USERNAME")
	}
	if password == "" {
		password = os.Getenv("SENSORWATCH_PASSWORD")
	}

	if username == "" {
		return fmt.Errorf("username is required (use --username flag or SENSORWATCH_USERNAME env var)")
	}

	if password == "" {
		var err error
		if password, err = env.Prompter.Password("Password"); err != nil {
			return err
		}
	}

	env.printf("Logging in to %s...\n", env.API.BaseURL())

	resp, err := env.Session.Login(cmd.Context(), api.LoginRequest{Username: username, Password: password})
	if err != nil {
		return fmt.Errorf("login failed: %s", env.Session.LastError())
	}

	env.println("✓ Login successful!")
	printUser(env, &resp.User)
	if !env.Prefs.OnboardingDone() {
		env.println("\nNext: run 'sensorwatch onboarding' to set your preferences")
	}
	return nil
}

func printUser(env *Env, user *api.User) {
	if user.Email != "" {
		env.printf("  User: %s (%s)\n", user.Username, user.Email)
	} else {
		env.printf("  User: %s\n", user.Username)
	}
	if env.Session.IsAdmin() {
		env.println("  Role: Admin")
	}
}
