package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sensorwatch/sensorwatch/internal/api"
	"github.com/sensorwatch/sensorwatch/internal/router"
)

// NewRegisterCmd creates the register command
func NewRegisterCmd() *cobra.Command {
	var req api.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := EnvFrom(cmd)
			if err != nil {
				return err
			}

			if req.Password == "" {
				if req.Password, err = env.Prompter.Password("Password"); err != nil {
					return err
				}
			}

			resp, err := env.Session.RegisterAndLogin(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("registration failed: %s", env.Session.LastError())
			}

			env.println("✓ Account created, you are logged in")
			printUser(env, &resp.User)
			env.println("\nNext: run 'sensorwatch onboarding' to set your preferences")
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Username, "username", "", "Username")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password (will prompt if not provided)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")

	return withRoute(cmd, router.Register)
}
