package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sensorwatch/sensorwatch/internal/api"
	"github.com/sensorwatch/sensorwatch/internal/dashboard"
	"github.com/sensorwatch/sensorwatch/internal/readings"
	"github.com/sensorwatch/sensorwatch/internal/router"
)

// NewSensorsCmd creates the sensors command group
func NewSensorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sensors",
		Aliases: []string{"sensor"},
		Short:   "List and manage sensors",
	}

	cmd.AddCommand(newSensorsListCmd())
	cmd.AddCommand(newSensorsShowCmd())
	cmd.AddCommand(newSensorsAddCmd())
	cmd.AddCommand(newSensorsRenameCmd())
	cmd.AddCommand(newSensorsRemoveCmd())

	return cmd
}

func newSensorsListCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List sensors with their latest reading",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := EnvFrom(cmd)
			if err != nil {
				return err
			}

			sensors, err := env.API.ListSensors(cmd.Context(), !all)
			if err != nil {
				return env.apiError(err)
			}

			if len(sensors) == 0 {
				env.println("No sensors found.")
				env.println("\nRegister one with: sensorwatch sensors add --mac <address>")
				return nil
			}

			units := env.Prefs.Units()
			w := newTable(env.Out)
			fmt.Fprintln(w, "ID\tNAME\tSTATUS\tBATTERY\tTEMPERATURE\tHUMIDITY\tPRESSURE\tALERT")
			fmt.Fprintln(w, "──\t────\t──────\t───────\t───────────\t────────\t────────\t─────")
			for _, row := range dashboard.Rows(sensors, env.Prefs, time.Local) {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d%%\t%s\t%s\t%s\t%s\n",
					row.ID,
					row.Name,
					row.Status,
					row.Battery,
					formatValue(row.Temperature, readings.TemperatureSymbol(units.Temperature)),
					formatValue(row.Humidity, string(units.Humidity)),
					formatValue(row.Pressure, string(units.Pressure)),
					row.Alert,
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include inactive sensors")

	return withRoute(cmd, router.Devices)
}

func newSensorsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one sensor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := EnvFrom(cmd)
			if err != nil {
				return err
			}
			id, err := parseSensorID(args[0])
			if err != nil {
				return err
			}

			sensor, err := env.API.GetSensor(cmd.Context(), id)
			if err != nil {
				return env.apiError(err)
			}

			row := dashboard.Rows([]api.Sensor{*sensor}, env.Prefs, time.Local)[0]
			units := env.Prefs.Units()

			env.printf("%s (#%d)\n", row.Name, row.ID)
			env.printf("  MAC:         %s\n", sensor.MACAddress)
			env.printf("  Active:      %t\n", sensor.IsActive)
			if sensor.FirmwareVersion != nil {
				env.printf("  Firmware:    %s\n", *sensor.FirmwareVersion)
			}
			env.printf("  Status:      %s (%d%%)\n", row.Status, row.Battery)
			env.printf("  Last seen:   %s\n", row.LastSeen)
			env.printf("  Temperature: %s\n", formatValue(row.Temperature, readings.TemperatureSymbol(units.Temperature)))
			env.printf("  Humidity:    %s\n", formatValue(row.Humidity, string(units.Humidity)))
			env.printf("  Pressure:    %s\n", formatValue(row.Pressure, string(units.Pressure)))
			if row.Alert != "" {
				env.printf("  Alert:       %s\n", row.Alert)
			}
			return nil
		},
	}

	return withRoute(cmd, router.Devices)
}

func newSensorsAddCmd() *cobra.Command {
	var req api.CreateSensorRequest

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a sensor",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := EnvFrom(cmd)
			if err != nil {
				return err
			}

			sensor, err := env.API.CreateSensor(cmd.Context(), req)
			if err != nil {
				return env.apiError(err)
			}

			env.printf("✓ Sensor #%d registered (%s)\n", sensor.ID, sensor.MACAddress)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.MACAddress, "mac", "", "MAC address of the sensor")
	cmd.Flags().StringVar(&req.Name, "name", "", "Name stored on the server")
	cmd.Flags().StringVar(&req.FirmwareVersion, "firmware", "", "Firmware version")
	_ = cmd.MarkFlagRequired("mac")

	return withRoute(cmd, router.Management)
}

func newSensorsRenameCmd() *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Set the display name of a sensor",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := EnvFrom(cmd)
			if err != nil {
				return err
			}
			id, err := parseSensorID(args[0])
			if err != nil {
				return err
			}
			name := args[1]

			if err := env.Prefs.RenameSensor(id, name); err != nil {
				return err
			}

			if remote {
				if _, err := env.API.UpdateSensor(cmd.Context(), id, api.UpdateSensorRequest{Name: &name}); err != nil {
					return env.apiError(err)
				}
			}

			env.printf("✓ Sensor #%d is now named %q\n", id, name)
			return nil
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "Also rename the sensor on the server")

	return withRoute(cmd, router.Management)
}

func newSensorsRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a sensor",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := EnvFrom(cmd)
			if err != nil {
				return err
			}
			id, err := parseSensorID(args[0])
			if err != nil {
				return err
			}

			if err := env.API.DeleteSensor(cmd.Context(), id); err != nil {
				return env.apiError(err)
			}

			env.printf("✓ Sensor #%d deleted\n", id)
			return nil
		},
	}

	return withRoute(cmd, router.Management)
}
