package commands

import (
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sensorwatch/sensorwatch/internal/readings"
	"github.com/sensorwatch/sensorwatch/internal/router"
	"github.com/sensorwatch/sensorwatch/internal/weather"
)

// NewWeatherCmd creates the weather command
func NewWeatherCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "weather [city]",
		Short: "Show the outdoor temperature",
		Long:  "Show the outdoor temperature of a city, the defaultCity preference when omitted.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := EnvFrom(cmd)
			if err != nil {
				return err
			}

			city := env.Prefs.DefaultCity.Get()
			if len(args) == 1 {
				city = strings.TrimSpace(args[0])
			}

			client := weather.New(env.Config.Weather.BaseURL, env.Config.Weather.APIKey, 1, env.Logger)
			client.SetHTTPClient(&http.Client{Timeout: env.Config.API.Timeout})

			current, err := client.Current(cmd.Context(), city)
			if err != nil {
				return err
			}

			unit := env.Prefs.TemperatureUnit.Get()
			decimals := env.Prefs.Decimals()
			symbol := readings.TemperatureSymbol(unit)

			env.printf("%s: %v %s (feels like %v %s)\n", current.City,
				readings.Round(readings.Temperature(current.Temperature, unit), decimals), symbol,
				readings.Round(readings.Temperature(current.FeelsLike, unit), decimals), symbol)
			env.printf("Humidity: %v %%  Pressure: %v hPa\n", current.Humidity, current.Pressure)
			return nil
		},
	}

	return withRoute(cmd, router.Dashboard)
}
