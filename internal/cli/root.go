// Package cli is the sensorwatch command line. Every command stands for a page
// of the route table and only runs when the navigation guard lets it through.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sensorwatch/sensorwatch/internal/cli/commands"
	"github.com/sensorwatch/sensorwatch/internal/config"
	"github.com/sensorwatch/sensorwatch/internal/logger"
)

// NewRootCmd builds the command tree. load is called once per invocation,
// before the guard, for every command that needs a client environment.
func NewRootCmd(version string, load commands.Loader) *cobra.Command {
	root := &cobra.Command{
		Use:   "sensorwatch",
		Short: "SensorWatch - Monitor your home sensors",
		Long: `SensorWatch CLI - Follow temperature, humidity and pressure of your sensors.

Sign in with 'sensorwatch login', then list your sensors with 'sensorwatch sensors ls'.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !needsEnv(cmd) {
				return nil
			}

			env, err := load(cmd)
			if err != nil {
				return err
			}
			cmd.SetContext(commands.WithEnv(cmd.Context(), env))

			return commands.Guard(cmd, env)
		},
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sensorwatch version %s\n", version)
		},
	})

	root.AddCommand(commands.NewLoginCmd())
	root.AddCommand(commands.NewRegisterCmd())
	root.AddCommand(commands.NewLogoutCmd())
	root.AddCommand(commands.NewWhoamiCmd())
	root.AddCommand(commands.NewDashCmd())
	root.AddCommand(commands.NewSensorsCmd())
	root.AddCommand(commands.NewReadingsCmd())
	root.AddCommand(commands.NewExportCmd())
	root.AddCommand(commands.NewPrefsCmd())
	root.AddCommand(commands.NewOnboardingCmd())
	root.AddCommand(commands.NewAdminCmd())
	root.AddCommand(commands.NewWeatherCmd())
	root.AddCommand(commands.NewWatchCmd())

	return root
}

// needsEnv reports whether cmd touches the client state
func needsEnv(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "version", "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
		return false
	}
	return cmd.Runnable()
}

// LoadEnv is the production Loader: configuration, logging and the on-disk storage
func LoadEnv(cmd *cobra.Command) (*commands.Env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level := cfg.Logging.Level
	if level == "" {
		level = "warn"
	}
	logger.Init(level, cfg.Logging.Format, cfg.Logging.File)
	log := logger.Component("cli")

	st, err := commands.OpenStorage(cfg, log)
	if err != nil {
		return nil, err
	}

	return commands.NewEnv(cfg, log, st, cmd.OutOrStdout()), nil
}

// Execute runs the root command
func Execute(version string) error {
	if err := NewRootCmd(version, LoadEnv).Execute(); err != nil {
		if errors.Is(err, commands.ErrSkip) {
			return nil
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
