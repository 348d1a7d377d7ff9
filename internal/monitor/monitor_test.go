package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sensorwatch/sensorwatch/internal/api"
	"github.com/sensorwatch/sensorwatch/internal/readings"
)

func ptr(v float64) *float64 { return &v }

type fakeSensors struct {
	sensors   []api.Sensor
	latest    map[int]*api.SensorLatest
	listErr   error
	latestErr error
}

func (f *fakeSensors) ListSensors(ctx context.Context, activeOnly bool) ([]api.Sensor, error) {
	return f.sensors, f.listErr
}

func (f *fakeSensors) SensorLatest(ctx context.Context, id int) (*api.SensorLatest, error) {
	if f.latestErr != nil {
		return nil, f.latestErr
	}
	l, ok := f.latest[id]
	if !ok {
		return nil, &api.Error{StatusCode: 404, Message: "Capteur non trouvé"}
	}
	return l, nil
}

type fakeSettings struct{}

func (fakeSettings) Units() readings.Units {
	return readings.Units{Temperature: readings.Celsius, Pressure: readings.HectoPascal, Humidity: readings.RelativeHumidity}
}

func (fakeSettings) Thresholds() readings.Thresholds {
	return readings.Thresholds{TemperatureMin: 15, TemperatureMax: 28, HumidityMin: 30, HumidityMax: 70, PressureMin: 980, PressureMax: 1040}
}

func (fakeSettings) SensorName(id int, backendName string) string {
	if id == 1 {
		return "Salon"
	}
	return backendName
}

func latest(id int, temp float64) *api.SensorLatest {
	return &api.SensorLatest{
		SensorID: id,
		Measurement: &api.LatestMeasurement{Measurement: api.Measurement{
			Time:           "2024-03-01T10:30:00",
			Temperature:    ptr(temp),
			Humidity:       ptr(50),
			Pressure:       ptr(1010),
			BatteryVoltage: ptr(3.0),
		}},
	}
}

func TestPoll_ReportsAlertChanges(t *testing.T) {
	sensors := &fakeSensors{
		sensors: []api.Sensor{{ID: 1, Name: "ruuvi-1"}, {ID: 2, Name: "ruuvi-2"}, {ID: 3, Name: "ruuvi-3"}},
		latest: map[int]*api.SensorLatest{
			1: latest(1, 31),
			2: latest(2, 20),
			3: {SensorID: 3, Message: "Aucune mesure"},
		},
	}

	var notified []Reading
	w := NewWatcher(sensors, fakeSettings{}, func(r Reading) { notified = append(notified, r) }, zerolog.Nop())

	out, err := w.Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Salon", out[0].Name)
	assert.Equal(t, readings.AlertTemperatureHigh, out[0].Alert)
	assert.Equal(t, 100, out[0].Battery)
	assert.Equal(t, readings.StatusConnected, out[0].Status)
	assert.Empty(t, out[1].Alert)

	require.Len(t, notified, 1)
	assert.Equal(t, 1, notified[0].SensorID)

	// same state, nothing new
	_, err = w.Poll(context.Background())
	require.NoError(t, err)
	assert.Len(t, notified, 1)

	// back in range is reported once
	sensors.latest[1] = latest(1, 22)
	_, err = w.Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, notified, 2)
	assert.Empty(t, notified[1].Alert)
}

func TestPoll_ListFailure(t *testing.T) {
	w := NewWatcher(&fakeSensors{listErr: errors.New("connection refused")}, fakeSettings{}, nil, zerolog.Nop())
	_, err := w.Poll(context.Background())
	assert.Error(t, err)
}

func TestValidateSchedule(t *testing.T) {
	assert.NoError(t, ValidateSchedule("@every 1m"))
	assert.NoError(t, ValidateSchedule("*/5 * * * *"))
	assert.Error(t, ValidateSchedule("every minute"))
}

func TestRun_StopsWithContext(t *testing.T) {
	sensors := &fakeSensors{sensors: []api.Sensor{{ID: 1}}, latest: map[int]*api.SensorLatest{1: latest(1, 10)}}
	notified := make(chan Reading, 1)
	w := NewWatcher(sensors, fakeSettings{}, func(r Reading) { notified <- r }, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, "@every 1h") }()

	r := <-notified
	assert.Equal(t, readings.AlertTemperatureLow, r.Alert)

	cancel()
	assert.NoError(t, <-done)
}

func TestPoll_Unauthorized(t *testing.T) {
	rejected := &api.Error{StatusCode: 401, Message: "Could not validate credentials"}

	for name, sensors := range map[string]*fakeSensors{
		"list":   {listErr: rejected},
		"latest": {sensors: []api.Sensor{{ID: 1}}, latestErr: rejected},
	} {
		t.Run(name, func(t *testing.T) {
			var handled []error
			w := NewWatcher(sensors, fakeSettings{}, nil, zerolog.Nop())
			w.OnAuthError = func(err error) error {
				handled = append(handled, err)
				return err
			}

			_, err := w.Poll(context.Background())
			assert.ErrorIs(t, err, ErrUnauthorized)
			assert.True(t, api.IsUnauthorized(err))
			require.Len(t, handled, 1)
		})
	}
}

func TestPoll_OtherFailuresKeepPolling(t *testing.T) {
	called := false
	w := NewWatcher(&fakeSensors{listErr: &api.Error{StatusCode: 500}}, fakeSettings{}, nil, zerolog.Nop())
	w.OnAuthError = func(err error) error { called = true; return err }

	_, err := w.Poll(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthorized)
	assert.False(t, called)
}

func TestRun_StopsOnUnauthorized(t *testing.T) {
	w := NewWatcher(&fakeSensors{listErr: &api.Error{StatusCode: 401}}, fakeSettings{}, nil, zerolog.Nop())

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background(), "@every 1h") }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrUnauthorized)
	case <-time.After(5 * time.Second):
		t.Fatal("watch kept running after a rejected credential")
	}
}
