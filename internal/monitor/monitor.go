// Package monitor periodically polls the latest measurement of every active
// sensor and reports the readings that cross an alert threshold.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/sensorwatch/sensorwatch/internal/api"
	"github.com/sensorwatch/sensorwatch/internal/readings"
)

// Sensors is the part of the API client the watcher polls
type Sensors interface {
	ListSensors(ctx context.Context, activeOnly bool) ([]api.Sensor, error)
	SensorLatest(ctx context.Context, id int) (*api.SensorLatest, error)
}

// Settings provides the user's display units, thresholds and sensor labels
type Settings interface {
	Units() readings.Units
	Thresholds() readings.Thresholds
	SensorName(id int, backendName string) string
}

// Reading is the evaluated latest measurement of one sensor
type Reading struct {
	SensorID int
	Name     string
	Time     string
	Values   readings.Values
	Units    readings.Units
	Battery  int
	Status   string
	Alert    string
}

// Handler receives the readings whose alert changed since the previous poll
type Handler func(Reading)

// ErrUnauthorized stops a watch whose credential was rejected by the API
var ErrUnauthorized = errors.New("sensor API rejected the credential")

// parser accepts standard 5-field specs and descriptors such as "@every 1m"
var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Watcher polls sensors on a cron schedule
type Watcher struct {
	sensors  Sensors
	settings Settings
	handler  Handler
	logger   zerolog.Logger

	// OnAuthError receives every authorization failure before the watch stops,
	// typically Session.HandleAuthError
	OnAuthError func(error) error

	mu         sync.Mutex
	lastAlerts map[int]string
}

// NewWatcher creates a Watcher
func NewWatcher(sensors Sensors, settings Settings, handler Handler, logger zerolog.Logger) *Watcher {
	return &Watcher{
		sensors:    sensors,
		settings:   settings,
		handler:    handler,
		logger:     logger,
		lastAlerts: make(map[int]string),
	}
}

// ValidateSchedule checks a cron spec
func ValidateSchedule(spec string) error {
	if _, err := parser.Parse(spec); err != nil {
		return fmt.Errorf("invalid schedule '%s': %w", spec, err)
	}
	return nil
}

// Run polls immediately, then on every tick of schedule until ctx is done
func (w *Watcher) Run(ctx context.Context, schedule string) error {
	if err := ValidateSchedule(schedule); err != nil {
		return err
	}

	ctx, stop := context.WithCancelCause(ctx)
	defer stop(nil)

	c := cron.New(cron.WithParser(parser))
	if _, err := c.AddFunc(schedule, func() { w.tick(ctx, stop) }); err != nil {
		return fmt.Errorf("failed to schedule watch: %w", err)
	}

	w.tick(ctx, stop)
	c.Start()
	w.logger.Info().Str("schedule", schedule).Msg("Sensor watch started")

	<-ctx.Done()
	<-c.Stop().Done()
	w.logger.Info().Msg("Sensor watch stopped")

	if err := context.Cause(ctx); errors.Is(err, ErrUnauthorized) {
		return err
	}
	return nil
}

func (w *Watcher) tick(ctx context.Context, stop context.CancelCauseFunc) {
	_, err := w.Poll(ctx)
	switch {
	case err == nil || errors.Is(err, context.Canceled):
	case errors.Is(err, ErrUnauthorized):
		w.logger.Warn().Err(err).Msg("Sensor watch signed out")
		stop(err)
	default:
		w.logger.Error().Err(err).Msg("Sensor poll failed")
	}
}

// authFailure hands a 401 to OnAuthError and reports whether the poll must stop
func (w *Watcher) authFailure(err error) error {
	if !api.IsUnauthorized(err) {
		return nil
	}
	if w.OnAuthError != nil {
		err = w.OnAuthError(err)
	}
	return fmt.Errorf("%w: %w", ErrUnauthorized, err)
}

// Poll evaluates the latest measurement of every active sensor.
// Readings whose alert differs from the previous poll go to the handler.
// A 401 from the API aborts the poll with ErrUnauthorized.
func (w *Watcher) Poll(ctx context.Context) ([]Reading, error) {
	sensors, err := w.sensors.ListSensors(ctx, true)
	if err != nil {
		if authErr := w.authFailure(err); authErr != nil {
			return nil, authErr
		}
		return nil, fmt.Errorf("failed to list sensors: %w", err)
	}

	units := w.settings.Units()
	thresholds := w.settings.Thresholds()

	var out []Reading
	for _, s := range sensors {
		latest, err := w.sensors.SensorLatest(ctx, s.ID)
		if err != nil {
			if authErr := w.authFailure(err); authErr != nil {
				return out, authErr
			}
			w.logger.Warn().Err(err).Int("sensor_id", s.ID).Msg("Failed to fetch latest measurement")
			continue
		}
		if latest.Measurement == nil {
			w.logger.Debug().Int("sensor_id", s.ID).Msg("No measurement yet")
			continue
		}

		r := evaluate(s, latest.Measurement.Measurement, units, thresholds)
		r.Name = w.settings.SensorName(s.ID, s.Name)
		out = append(out, r)

		if w.changed(r) {
			if r.Alert != "" {
				w.logger.Warn().Int("sensor_id", r.SensorID).Str("alert", r.Alert).Msg("Sensor alert")
			}
			if w.handler != nil {
				w.handler(r)
			}
		}
	}
	return out, nil
}

// changed records r's alert and reports whether it differs from the last one
func (w *Watcher) changed(r Reading) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	prev, seen := w.lastAlerts[r.SensorID]
	w.lastAlerts[r.SensorID] = r.Alert
	if !seen {
		return r.Alert != ""
	}
	return prev != r.Alert
}

func evaluate(s api.Sensor, m api.Measurement, units readings.Units, th readings.Thresholds) Reading {
	battery := readings.VoltageToPercent(m.BatteryVoltage)
	r := Reading{
		SensorID: s.ID,
		Time:     readings.FormatBackendTime(m.Time, time.Local),
		Units:    units,
		Battery:  battery,
		Status:   readings.Status(battery),
	}

	// Alerts need all three quantities
	if m.Temperature == nil || m.Humidity == nil || m.Pressure == nil {
		return r
	}
	r.Values = readings.Convert(*m.Temperature, *m.Humidity, *m.Pressure, units)
	r.Alert = readings.Alert(r.Values, th)
	return r
}
