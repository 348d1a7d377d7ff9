package dashboard

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sensorwatch/sensorwatch/internal/api"
	"github.com/sensorwatch/sensorwatch/internal/prefs"
	"github.com/sensorwatch/sensorwatch/internal/readings"
	"github.com/sensorwatch/sensorwatch/internal/storage"
)

func ptr[T any](v T) *T { return &v }

func TestRows(t *testing.T) {
	store := prefs.Load(storage.NewMemory(), zerolog.Nop())

	sensors := []api.Sensor{
		{
			ID: 1, Name: "ruuvi-1", IsActive: true,
			LastMeasurement: &api.LastMeasurement{
				Temperature:    ptr(12.34),
				Humidity:       ptr(50.0),
				Pressure:       ptr(1000.0),
				BatteryVoltage: ptr(2.55),
				Time:           ptr("2024-03-01T10:30:00"),
			},
		},
		{ID: 7, Name: "garage"},
	}

	rows := Rows(sensors, store, time.UTC)
	require.Len(t, rows, 2)

	assert.Equal(t, "Salon", rows[0].Name)
	assert.Equal(t, 12.3, *rows[0].Temperature)
	assert.Equal(t, 10, rows[0].Battery)
	assert.Equal(t, readings.StatusLowBattery, rows[0].Status)
	assert.Equal(t, readings.AlertTemperatureLow, rows[0].Alert)
	assert.Equal(t, "01/03/2024 - 10:30", rows[0].LastSeen)

	assert.Equal(t, "garage", rows[1].Name)
	assert.Equal(t, readings.StatusOffline, rows[1].Status)
	assert.Nil(t, rows[1].Temperature)

	assert.Len(t, Alerts(rows), 1)
}

func TestRows_Fahrenheit(t *testing.T) {
	store := prefs.Load(storage.NewMemory(), zerolog.Nop())
	require.NoError(t, store.TemperatureUnit.Set(readings.Fahrenheit))
	require.NoError(t, store.DecimalDisplay.Set(false))

	rows := Rows([]api.Sensor{{
		ID: 2,
		LastMeasurement: &api.LastMeasurement{
			Temperature: ptr(20.0), Humidity: ptr(50.0), Pressure: ptr(1010.0), BatteryVoltage: ptr(3.0),
		},
	}}, store, time.UTC)

	require.Len(t, rows, 1)
	assert.Equal(t, 68.0, *rows[0].Temperature)
	assert.Empty(t, rows[0].Alert)
	assert.Equal(t, "Chambre parentale", rows[0].Name)
}
