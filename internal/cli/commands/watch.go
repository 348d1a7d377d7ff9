package commands

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sensorwatch/sensorwatch/internal/monitor"
	"github.com/sensorwatch/sensorwatch/internal/readings"
	"github.com/sensorwatch/sensorwatch/internal/router"
)

// NewWatchCmd creates the watch command
func NewWatchCmd() *cobra.Command {
	var schedule string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll sensors and report threshold alerts",
		Long: `Poll the latest measurement of every active sensor on a cron schedule and
print a line whenever a sensor enters or leaves an alert. Stops on Ctrl+C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := EnvFrom(cmd)
			if err != nil {
				return err
			}

			if schedule == "" {
				schedule = env.Config.Watch.Schedule
			}
			if err := monitor.ValidateSchedule(schedule); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			watcher := monitor.NewWatcher(env.API, env.Prefs, func(r monitor.Reading) {
				printReading(env, r)
			}, env.Logger)
			watcher.OnAuthError = env.Session.HandleAuthError

			env.printf("Watching sensors (%s). Press Ctrl+C to stop.\n", schedule)
			if err := watcher.Run(ctx, schedule); err != nil {
				if errors.Is(err, monitor.ErrUnauthorized) {
					return ErrSessionExpired
				}
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", "", "Cron schedule (default from WATCH_SCHEDULE)")

	return withRoute(cmd, router.Notifications)
}

func printReading(env *Env, r monitor.Reading) {
	symbol := readings.TemperatureSymbol(r.Units.Temperature)
	if r.Alert == "" {
		env.printf("✓ %s back in range (%.1f %s)\n", r.Name, r.Values.Temperature, symbol)
		return
	}
	env.printf("⚠ %s: %s (%.1f %s, %.1f %s, %.1f %s) at %s\n", r.Name, r.Alert,
		r.Values.Temperature, symbol,
		r.Values.Humidity, r.Units.Humidity,
		r.Values.Pressure, r.Units.Pressure,
		r.Time)
}
