package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sensorwatch/sensorwatch/internal/router"
)

// NewAdminCmd creates the admin command group
func NewAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administration (admin role only)",
	}

	cmd.AddCommand(newAdminDashboardCmd())
	cmd.AddCommand(newAdminUsersCmd())

	return cmd
}

func newAdminDashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show fleet totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := EnvFrom(cmd)
			if err != nil {
				return err
			}

			dash, err := env.API.AdminDashboard(cmd.Context())
			if err != nil {
				return env.apiError(err)
			}

			env.printf("Sensors:           %d (%d active)\n", dash.TotalSensors, dash.ActiveSensors)
			env.printf("Unresolved alerts: %d\n", dash.UnresolvedAlerts)
			env.printf("Users:             %d\n", dash.TotalUsers)
			return nil
		},
	}

	return withRoute(cmd, router.Admin)
}

func newAdminUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List user accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := EnvFrom(cmd)
			if err != nil {
				return err
			}

			users, err := env.API.ListUsers(cmd.Context())
			if err != nil {
				return env.apiError(err)
			}

			w := newTable(env.Out)
			fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tROLE\tACTIVE")
			for _, u := range users {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%t\n", u.ID, u.Username, u.Email, u.Role, u.IsActive)
			}
			return w.Flush()
		},
	}

	return withRoute(cmd, router.UserRoleManager)
}
