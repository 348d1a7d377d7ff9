package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sensorwatch/sensorwatch/internal/router"
)

// NewPrefsCmd creates the prefs command group
func NewPrefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "prefs",
		Aliases: []string{"settings"},
		Short:   "View and change preferences",
	}

	cmd.AddCommand(newPrefsListCmd())
	cmd.AddCommand(newPrefsGetCmd())
	cmd.AddCommand(newPrefsSetCmd())
	cmd.AddCommand(newPrefsResetCmd())

	return cmd
}

func newPrefsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List every preference",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := EnvFrom(cmd)
			if err != nil {
				return err
			}

			snapshot := env.Prefs.Snapshot()
			w := newTable(env.Out)
			fmt.Fprintln(w, "KEY\tVALUE")
			for _, key := range env.Prefs.Keys() {
				fmt.Fprintf(w, "%s\t%s\n", key, prefText(snapshot[key]))
			}
			return w.Flush()
		},
	}

	return withRoute(cmd, router.Settings)
}

func newPrefsGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Print one preference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := EnvFrom(cmd)
			if err != nil {
				return err
			}

			value, err := env.Prefs.Value(args[0])
			if err != nil {
				return err
			}
			env.println(prefText(value))
			return nil
		},
	}

	return withRoute(cmd, router.Settings)
}

func newPrefsSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one preference",
		Long: `Change one preference. Maps such as sensorNames take a JSON object:

  sensorwatch prefs set sensorNames '{"1":"Cuisine"}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := EnvFrom(cmd)
			if err != nil {
				return err
			}

			if err := env.Prefs.SetByName(args[0], args[1]); err != nil {
				return err
			}

			value, _ := env.Prefs.Value(args[0])
			env.printf("✓ %s = %s\n", args[0], prefText(value))
			return nil
		},
	}

	return withRoute(cmd, router.Settings)
}

func newPrefsResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Restore every preference to its default",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := EnvFrom(cmd)
			if err != nil {
				return err
			}

			if err := env.Prefs.Reset(); err != nil {
				return fmt.Errorf("failed to reset preferences: %w", err)
			}

			env.println("✓ Preferences restored to defaults")
			return nil
		},
	}

	return withRoute(cmd, router.Settings)
}

// prefText renders maps as JSON and everything else with fmt
func prefText(v any) string {
	if m, ok := v.(map[string]string); ok {
		data, err := json.Marshal(m)
		if err == nil {
			return string(data)
		}
	}
	return fmt.Sprint(v)
}
