// Package dashboard builds the per-sensor rows shown on the dashboard and
// the sensor pages, in the user's display units.
package dashboard

import (
	"time"

	"github.com/sensorwatch/sensorwatch/internal/api"
	"github.com/sensorwatch/sensorwatch/internal/readings"
)

// Settings provides the display preferences a row depends on
type Settings interface {
	Units() readings.Units
	Thresholds() readings.Thresholds
	SensorName(id int, backendName string) string
	Decimals() bool
}

// Row is one sensor as displayed
type Row struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	MACAddress  string   `json:"mac_address"`
	Active      bool     `json:"active"`
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	Pressure    *float64 `json:"pressure"`
	Battery     int      `json:"battery"`
	Status      string   `json:"status"`
	Alert       string   `json:"alert"`
	LastSeen    string   `json:"last_seen"`
}

// Rows builds one row per sensor from its embedded last measurement
func Rows(sensors []api.Sensor, settings Settings, loc *time.Location) []Row {
	units := settings.Units()
	thresholds := settings.Thresholds()
	decimals := settings.Decimals()

	rows := make([]Row, 0, len(sensors))
	for _, s := range sensors {
		row := Row{
			ID:         s.ID,
			Name:       settings.SensorName(s.ID, s.Name),
			MACAddress: s.MACAddress,
			Active:     s.IsActive,
			Status:     readings.StatusOffline,
		}
		if s.LastSeen != nil {
			row.LastSeen = readings.FormatBackendTime(*s.LastSeen, loc)
		}

		if m := s.LastMeasurement; m != nil {
			row.Battery = readings.VoltageToPercent(m.BatteryVoltage)
			row.Status = readings.Status(row.Battery)
			if m.Time != nil {
				row.LastSeen = readings.FormatBackendTime(*m.Time, loc)
			}

			if m.Temperature != nil && m.Humidity != nil && m.Pressure != nil {
				v := readings.Convert(*m.Temperature, *m.Humidity, *m.Pressure, units)
				row.Alert = readings.Alert(v, thresholds)
				row.Temperature = rounded(v.Temperature, decimals)
				row.Humidity = rounded(v.Humidity, decimals)
				row.Pressure = rounded(v.Pressure, decimals)
			} else if m.Temperature != nil {
				row.Temperature = rounded(readings.Temperature(*m.Temperature, units.Temperature), decimals)
			}
		}

		rows = append(rows, row)
	}
	return rows
}

// Alerts returns the rows that raise an alert
func Alerts(rows []Row) []Row {
	var out []Row
	for _, r := range rows {
		if r.Alert != "" {
			out = append(out, r)
		}
	}
	return out
}

func rounded(v float64, decimals bool) *float64 {
	r := readings.Round(v, decimals)
	return &r
}
