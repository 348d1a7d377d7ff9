package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sensorwatch/sensorwatch/internal/prefs"
	"github.com/sensorwatch/sensorwatch/internal/readings"
	"github.com/sensorwatch/sensorwatch/internal/router"
)

// NewOnboardingCmd creates the onboarding command
func NewOnboardingCmd() *cobra.Command {
	var defaults bool

	cmd := &cobra.Command{
		Use:   "onboarding",
		Short: "Choose units and alert settings before first use",
		Long: `Walk through the first-use settings: display units, alert frequency and
the city used for the outdoor temperature. Pass --defaults to keep every
default without prompting.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := EnvFrom(cmd)
			if err != nil {
				return err
			}

			if !defaults {
				if err := runOnboardingPrompts(env); err != nil {
					return err
				}
			}

			if err := env.Prefs.HasDoneOnboarding.Set(true); err != nil {
				return fmt.Errorf("failed to save onboarding: %w", err)
			}

			env.println("✓ Setup complete")
			env.println("\nNext: sensorwatch sensors ls")
			return nil
		},
	}

	cmd.Flags().BoolVar(&defaults, "defaults", false, "Keep the default settings without prompting")

	return withRoute(cmd, router.Onboarding)
}

func runOnboardingPrompts(env *Env) error {
	p := env.Prefs

	steps := []struct {
		label   string
		items   []string
		current string
		apply   func(string) error
	}{
		{
			label:   "Temperature unit",
			items:   []string{string(readings.Celsius), string(readings.Fahrenheit)},
			current: string(p.TemperatureUnit.Get()),
			apply:   func(v string) error { return p.TemperatureUnit.Set(readings.TemperatureUnit(v)) },
		},
		{
			label:   "Pressure unit",
			items:   []string{string(readings.HectoPascal), string(readings.MillimeterHg), string(readings.InchHg)},
			current: string(p.PressureUnit.Get()),
			apply:   func(v string) error { return p.PressureUnit.Set(readings.PressureUnit(v)) },
		},
		{
			label:   "Humidity unit",
			items:   []string{string(readings.RelativeHumidity), string(readings.AbsoluteHumidity)},
			current: string(p.HumidityUnit.Get()),
			apply:   func(v string) error { return p.HumidityUnit.Set(readings.HumidityUnit(v)) },
		},
		{
			label:   "Alert frequency",
			items:   []string{prefs.FrequencyRealtime, prefs.FrequencyDaily, prefs.FrequencyWeekly},
			current: p.AlertFrequency.Get(),
			apply:   p.AlertFrequency.Set,
		},
	}

	for _, step := range steps {
		value, err := env.Prompter.Select(step.label, step.items, step.current)
		if err != nil {
			return err
		}
		if err := step.apply(value); err != nil {
			return err
		}
	}

	city, err := env.Prompter.Input("City for the outdoor temperature", p.DefaultCity.Get())
	if err != nil {
		return err
	}
	if city = strings.TrimSpace(city); city != "" {
		if err := p.DefaultCity.Set(city); err != nil {
			return err
		}
	}

	return nil
}
