package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sensorwatch/sensorwatch/internal/api"
	"github.com/sensorwatch/sensorwatch/internal/export"
	"github.com/sensorwatch/sensorwatch/internal/readings"
	"github.com/sensorwatch/sensorwatch/internal/router"
)

// NewReadingsCmd creates the readings command group
func NewReadingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "readings",
		Aliases: []string{"r"},
		Short:   "Inspect sensor measurements",
	}

	cmd.AddCommand(newLatestCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newStatsCmd())

	return cmd
}

func newLatestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "latest <id>",
		Short: "Show the latest measurement of a sensor",
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

			latest, err := env.API.SensorLatest(cmd.Context(), id)
			if err != nil {
				return env.apiError(err)
			}

			name := env.Prefs.SensorName(latest.SensorID, latest.SensorName)
			if latest.Measurement == nil {
				env.printf("No measurement yet for %s\n", name)
				return nil
			}

			records := export.MeasurementRecords([]api.Measurement{latest.Measurement.Measurement}, measurementOptions(env, name))
			if err := printRecords(env.Out, records); err != nil {
				return err
			}
			env.printf("\n(%s ago)\n", time.Duration(latest.Measurement.AgeSeconds*float64(time.Second)).Round(time.Second))
			return nil
		},
	}

	return withRoute(cmd, router.Devices)
}

func newHistoryCmd() *cobra.Command {
	var q api.MeasurementQuery

	cmd := &cobra.Command{
		Use:   "history <id>",
		Short: "List recent measurements of a sensor",
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

			resp, err := env.API.SensorMeasurements(cmd.Context(), id, q)
			if err != nil {
				return env.apiError(err)
			}

			if len(resp.Measurements) == 0 {
				env.println("No measurements in this period.")
				return nil
			}

			name := env.Prefs.SensorName(resp.SensorID, resp.SensorName)
			return printRecords(env.Out, export.MeasurementRecords(resp.Measurements, measurementOptions(env, name)))
		},
	}

	addQueryFlags(cmd, &q)

	return withRoute(cmd, router.Devices)
}

func newStatsCmd() *cobra.Command {
	var hours int

	cmd := &cobra.Command{
		Use:   "stats <id>",
		Short: "Show averages and extremes of a sensor",
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

			stats, err := env.API.SensorStats(cmd.Context(), id, hours)
			if err != nil {
				return env.apiError(err)
			}

			units := env.Prefs.Units()
			decimals := env.Prefs.Decimals()
			s := stats.Statistics

			env.printf("%s over the last %dh (%d measurements)\n\n",
				env.Prefs.SensorName(stats.SensorID, stats.SensorName), stats.PeriodHours, stats.MeasurementCount)

			w := newTable(env.Out)
			fmt.Fprintln(w, "\tAVERAGE\tMIN\tMAX")
			temp := func(v float64) float64 { return readings.Round(readings.Temperature(v, units.Temperature), decimals) }
			fmt.Fprintf(w, "Temperature (%s)\t%v\t%v\t%v\n", readings.TemperatureSymbol(units.Temperature),
				temp(s.Temperature.Average), temp(s.Temperature.Minimum), temp(s.Temperature.Maximum))
			hum := func(v float64) float64 {
				return readings.Round(readings.Humidity(v, s.Temperature.Average, units.Humidity), decimals)
			}
			fmt.Fprintf(w, "Humidity (%s)\t%v\t%v\t%v\n", units.Humidity,
				hum(s.Humidity.Average), hum(s.Humidity.Minimum), hum(s.Humidity.Maximum))
			pres := func(v float64) float64 { return readings.Round(readings.Pressure(v, units.Pressure), decimals) }
			fmt.Fprintf(w, "Pressure (%s)\t%v\t%v\t%v\n", units.Pressure,
				pres(s.Pressure.Average), pres(s.Pressure.Minimum), pres(s.Pressure.Maximum))
			fmt.Fprintf(w, "Battery (V)\t%v\t\t\n", s.Battery.Average)
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&hours, "hours", 24, "Period in hours")

	return withRoute(cmd, router.Devices)
}

func addQueryFlags(cmd *cobra.Command, q *api.MeasurementQuery) {
	cmd.Flags().IntVar(&q.Hours, "hours", 0, "Only the last N hours")
	cmd.Flags().IntVar(&q.Limit, "limit", 100, "Maximum number of measurements")
	cmd.Flags().StringVar(&q.StartDate, "start", "", "Start date (ISO 8601)")
	cmd.Flags().StringVar(&q.EndDate, "end", "", "End date (ISO 8601)")
}

func measurementOptions(env *Env, name string) export.MeasurementOptions {
	return export.MeasurementOptions{
		SensorName: name,
		Units:      env.Prefs.Units(),
		Decimals:   env.Prefs.Decimals(),
		Location:   time.Local,
	}
}
