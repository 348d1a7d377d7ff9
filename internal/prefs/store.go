// Package prefs holds the user preferences: display units, language, alert
// thresholds, sensor labels and the onboarding flag.
//
// Each preference is persisted independently under its own key. Absent or
// corrupt stored values silently fall back to the hardcoded default.
package prefs

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/sensorwatch/sensorwatch/internal/readings"
	"github.com/sensorwatch/sensorwatch/internal/storage"
)

// ErrUnknownPreference is returned for a name that matches no preference key
var ErrUnknownPreference = errors.New("unknown preference")

// ErrInvalidValue is returned when a value fails to parse or validate
var ErrInvalidValue = errors.New("invalid value")

// Alert delivery frequencies
const (
	FrequencyRealtime = "En temps réel"
	FrequencyDaily    = "Quotidienne"
	FrequencyWeekly   = "Hebdomadaire"
)

// DefaultSensorNames are the labels of the three sensors shipped with the kit
var DefaultSensorNames = map[string]string{
	"1": "Salon",
	"2": "Chambre parentale",
	"3": "Grenier",
}

// Store exposes one accessor/mutator pair per preference
type Store struct {
	TemperatureUnit *Pref[readings.TemperatureUnit]
	PressureUnit    *Pref[readings.PressureUnit]
	HumidityUnit    *Pref[readings.HumidityUnit]
	DecimalDisplay  *Pref[bool]
	Lang            *Pref[string]
	Theme           *Pref[string]

	AlertMinTemperatureC *Pref[float64]
	AlertMaxTemperatureC *Pref[float64]
	AlertMinTemperatureF *Pref[float64]
	AlertMaxTemperatureF *Pref[float64]
	AlertMinHumidity     *Pref[float64]
	AlertMaxHumidity     *Pref[float64]
	AlertMinPressureHPa  *Pref[float64]
	AlertMaxPressureHPa  *Pref[float64]
	AlertMinPressureMmHg *Pref[float64]
	AlertMaxPressureMmHg *Pref[float64]
	AlertByEmail         *Pref[bool]
	AlertFrequency       *Pref[string]

	SensorNames       *Pref[map[string]string]
	HasDoneOnboarding *Pref[bool]
	DefaultCity       *Pref[string]

	entries []entry
}

// Load reads every preference from s
func Load(s storage.Storage, logger zerolog.Logger) *Store {
	st := &Store{
		TemperatureUnit: newPref(s, logger, "temperatureUnit", readings.Celsius, "oneof=Celsius Fahrenheit"),
		PressureUnit:    newPref(s, logger, "pressureUnit", readings.HectoPascal, "oneof=hPa mmHg inHg"),
		HumidityUnit:    newPref(s, logger, "humidityUnit", readings.RelativeHumidity, "oneof=% g/m3"),
		DecimalDisplay:  newPref(s, logger, "decimalDisplay", true, ""),
		Lang:            newPref(s, logger, "lang", "fr", "oneof=fr en"),
		Theme:           newPref(s, logger, "theme", "light", "oneof=light dark"),

		AlertMinTemperatureC: newPref(s, logger, "alertMinTemperatureC", 15.0, ""),
		AlertMaxTemperatureC: newPref(s, logger, "alertMaxTemperatureC", 28.0, ""),
		AlertMinTemperatureF: newPref(s, logger, "alertMinTemperatureF", 59.0, ""),
		AlertMaxTemperatureF: newPref(s, logger, "alertMaxTemperatureF", 82.4, ""),
		AlertMinHumidity:     newPref(s, logger, "alertMinHumidite", 30.0, "gte=0,lte=100"),
		AlertMaxHumidity:     newPref(s, logger, "alertMaxHumidite", 70.0, "gte=0,lte=100"),
		AlertMinPressureHPa:  newPref(s, logger, "alertMinPressionhpa", 980.0, "gt=0"),
		AlertMaxPressureHPa:  newPref(s, logger, "alertMaxPressionhpa", 1040.0, "gt=0"),
		AlertMinPressureMmHg: newPref(s, logger, "alertMinPressionmmHg", 735.0, "gt=0"),
		AlertMaxPressureMmHg: newPref(s, logger, "alertMaxPressionmmHg", 780.0, "gt=0"),
		AlertByEmail:         newPref(s, logger, "alertByEmail", false, ""),
		AlertFrequency:       newPref(s, logger, "alertFrequency", FrequencyRealtime, "oneof='En temps réel' 'Quotidienne' 'Hebdomadaire'"),

		SensorNames:       newPref(s, logger, "sensorNames", copyNames(DefaultSensorNames), "dive,max=64"),
		HasDoneOnboarding: newPref(s, logger, "hasDoneOnboarding", false, ""),
		DefaultCity:       newPref(s, logger, "defaultCity", "Paris", "max=100"),
	}

	st.entries = []entry{
		st.TemperatureUnit, st.PressureUnit, st.HumidityUnit, st.DecimalDisplay, st.Lang, st.Theme,
		st.AlertMinTemperatureC, st.AlertMaxTemperatureC, st.AlertMinTemperatureF, st.AlertMaxTemperatureF,
		st.AlertMinHumidity, st.AlertMaxHumidity,
		st.AlertMinPressureHPa, st.AlertMaxPressureHPa, st.AlertMinPressureMmHg, st.AlertMaxPressureMmHg,
		st.AlertByEmail, st.AlertFrequency,
		st.SensorNames, st.HasDoneOnboarding, st.DefaultCity,
	}

	return st
}

func copyNames(names map[string]string) map[string]string {
	out := make(map[string]string, len(names))
	for k, v := range names {
		out[k] = v
	}
	return out
}

// OnboardingDone reports whether the onboarding flow was completed
func (s *Store) OnboardingDone() bool {
	return s.HasDoneOnboarding.Get()
}

// Decimals reports whether values are displayed with one decimal
func (s *Store) Decimals() bool {
	return s.DecimalDisplay.Get()
}

// Keys returns every preference key, sorted
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		keys = append(keys, e.Key())
	}
	sort.Strings(keys)
	return keys
}

func (s *Store) lookup(key string) (entry, error) {
	for _, e := range s.entries {
		if e.Key() == key {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownPreference, key)
}

// Value returns the current value of key
func (s *Store) Value(key string) (any, error) {
	e, err := s.lookup(key)
	if err != nil {
		return nil, err
	}
	return e.Any(), nil
}

// SetByName parses text and sets key
func (s *Store) SetByName(key, text string) error {
	e, err := s.lookup(key)
	if err != nil {
		return err
	}
	return e.SetText(text)
}

// SetMany sets several preferences by name, in key order. Every value is
// parsed and validated before the first one is written, so a rejected key
// leaves all preferences unchanged.
func (s *Store) SetMany(values map[string]string) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	writes := make([]func() error, 0, len(keys))
	for _, k := range keys {
		e, err := s.lookup(k)
		if err != nil {
			return err
		}
		write, err := e.prepare(values[k])
		if err != nil {
			return err
		}
		writes = append(writes, write)
	}

	for _, write := range writes {
		if err := write(); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot returns every preference value keyed by storage key
func (s *Store) Snapshot() map[string]any {
	out := make(map[string]any, len(s.entries))
	for _, e := range s.entries {
		out[e.Key()] = e.Any()
	}
	return out
}

// Reset restores every default. All keys are attempted.
func (s *Store) Reset() error {
	var errs []error
	for _, e := range s.entries {
		if err := e.Reset(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Units returns the display units
func (s *Store) Units() readings.Units {
	return readings.Units{
		Temperature: s.TemperatureUnit.Get(),
		Pressure:    s.PressureUnit.Get(),
		Humidity:    s.HumidityUnit.Get(),
	}
}

// Thresholds returns the alert bounds expressed in the display units
func (s *Store) Thresholds() readings.Thresholds {
	th := readings.Thresholds{
		TemperatureMin: s.AlertMinTemperatureC.Get(),
		TemperatureMax: s.AlertMaxTemperatureC.Get(),
		HumidityMin:    s.AlertMinHumidity.Get(),
		HumidityMax:    s.AlertMaxHumidity.Get(),
		PressureMin:    s.AlertMinPressureHPa.Get(),
		PressureMax:    s.AlertMaxPressureHPa.Get(),
	}

	if s.TemperatureUnit.Get() == readings.Fahrenheit {
		th.TemperatureMin = s.AlertMinTemperatureF.Get()
		th.TemperatureMax = s.AlertMaxTemperatureF.Get()
	}

	switch s.PressureUnit.Get() {
	case readings.MillimeterHg:
		th.PressureMin = s.AlertMinPressureMmHg.Get()
		th.PressureMax = s.AlertMaxPressureMmHg.Get()
	case readings.InchHg:
		th.PressureMin = readings.Pressure(th.PressureMin, readings.InchHg)
		th.PressureMax = readings.Pressure(th.PressureMax, readings.InchHg)
	}

	// Absolute humidity bounds follow the relative ones at 20°C
	if s.HumidityUnit.Get() == readings.AbsoluteHumidity {
		th.HumidityMin = readings.Humidity(th.HumidityMin, 20, readings.AbsoluteHumidity)
		th.HumidityMax = readings.Humidity(th.HumidityMax, 20, readings.AbsoluteHumidity)
	}

	return th
}

// SensorName returns the user's label for a sensor, then the backend name, then a generic label
func (s *Store) SensorName(id int, backendName string) string {
	if name, ok := s.SensorNames.Get()[strconv.Itoa(id)]; ok && name != "" {
		return name
	}
	if backendName != "" {
		return backendName
	}
	return fmt.Sprintf("Capteur %d", id)
}

// RenameSensor sets the user's label for a sensor
func (s *Store) RenameSensor(id int, name string) error {
	names := copyNames(s.SensorNames.Get())
	names[strconv.Itoa(id)] = name
	return s.SensorNames.Set(names)
}
