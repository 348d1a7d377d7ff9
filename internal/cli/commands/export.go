package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sensorwatch/sensorwatch/internal/api"
	"github.com/sensorwatch/sensorwatch/internal/export"
	"github.com/sensorwatch/sensorwatch/internal/router"
)

// NewExportCmd creates the export command
func NewExportCmd() *cobra.Command {
	var (
		q      api.MeasurementQuery
		format string
		outDir string
	)

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export measurements of a sensor to CSV or Excel",
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
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			resp, err := env.API.SensorMeasurements(cmd.Context(), id, q)
			if err != nil {
				return env.apiError(err)
			}
			if len(resp.Measurements) == 0 {
				return fmt.Errorf("no measurements to export for sensor #%d", id)
			}

			name := env.Prefs.SensorName(resp.SensorID, resp.SensorName)
			records := export.MeasurementRecords(resp.Measurements, measurementOptions(env, name))

			path, err := export.WriteFile(outDir, name, f, records)
			if err != nil {
				return err
			}

			env.printf("✓ %d measurements written to %s\n", len(records), path)
			return nil
		},
	}

	addQueryFlags(cmd, &q)
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "Output format (csv, xlsx)")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Output directory")

	return withRoute(cmd, router.Devices)
}
