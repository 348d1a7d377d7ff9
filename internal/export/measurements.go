package export

import (
	"fmt"
	"time"

	"github.com/sensorwatch/sensorwatch/internal/api"
	"github.com/sensorwatch/sensorwatch/internal/readings"
)

// MeasurementOptions controls how measurements are rendered
type MeasurementOptions struct {
	SensorName string
	Units      readings.Units
	Decimals   bool
	Location   *time.Location
}

// MeasurementRecords turns API measurements into export records, values in display units
func MeasurementRecords(measurements []api.Measurement, opts MeasurementOptions) []Record {
	tempCol := fmt.Sprintf("Température (%s)", readings.TemperatureSymbol(opts.Units.Temperature))
	humCol := fmt.Sprintf("Humidité (%s)", opts.Units.Humidity)
	presCol := fmt.Sprintf("Pression (%s)", opts.Units.Pressure)

	records := make([]Record, 0, len(measurements))
	for _, m := range measurements {
		var temp, hum, pres any
		if m.Temperature != nil {
			temp = readings.Round(readings.Temperature(*m.Temperature, opts.Units.Temperature), opts.Decimals)
		}
		if m.Humidity != nil {
			tempC := 20.0
			if m.Temperature != nil {
				tempC = *m.Temperature
			}
			hum = readings.Round(readings.Humidity(*m.Humidity, tempC, opts.Units.Humidity), opts.Decimals)
		}
		if m.Pressure != nil {
			pres = readings.Round(readings.Pressure(*m.Pressure, opts.Units.Pressure), opts.Decimals)
		}

		records = append(records, Record{
			{Name: "Date", Value: readings.FormatBackendTime(m.Time, opts.Location)},
			{Name: "Capteur", Value: opts.SensorName},
			{Name: tempCol, Value: temp},
			{Name: humCol, Value: hum},
			{Name: presCol, Value: pres},
			{Name: "Batterie (%)", Value: readings.VoltageToPercent(m.BatteryVoltage)},
		})
	}
	return records
}
