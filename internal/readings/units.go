// Package readings converts and evaluates sensor measurements for display:
// unit conversion, battery level, connection status and threshold alerts.
package readings

import "math"

// TemperatureUnit is the display unit for temperatures
type TemperatureUnit string

const (
	Celsius    TemperatureUnit = "Celsius"
	Fahrenheit TemperatureUnit = "Fahrenheit"
)

// PressureUnit is the display unit for pressures
type PressureUnit string

const (
	HectoPascal  PressureUnit = "hPa"
	MillimeterHg PressureUnit = "mmHg"
	InchHg       PressureUnit = "inHg"
)

// HumidityUnit is the display unit for humidity
type HumidityUnit string

const (
	RelativeHumidity HumidityUnit = "%"
	AbsoluteHumidity HumidityUnit = "g/m3"
)

const (
	hPaPerMmHg = 1.33322387415
	hPaPerInHg = 33.8638866667
)

// CelsiusToFahrenheit converts °C to °F
func CelsiusToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}

// FahrenheitToCelsius converts °F to °C
func FahrenheitToCelsius(f float64) float64 {
	return (f - 32) * 5 / 9
}

// Temperature converts a Celsius reading to unit
func Temperature(c float64, unit TemperatureUnit) float64 {
	if unit == Fahrenheit {
		return CelsiusToFahrenheit(c)
	}
	return c
}

// Pressure converts a hPa reading to unit
func Pressure(hpa float64, unit PressureUnit) float64 {
	switch unit {
	case MillimeterHg:
		return hpa / hPaPerMmHg
	case InchHg:
		return hpa / hPaPerInHg
	default:
		return hpa
	}
}

// Humidity converts a relative humidity reading to unit.
// Absolute humidity needs the temperature in °C (Magnus formula).
func Humidity(rh, tempC float64, unit HumidityUnit) float64 {
	if unit != AbsoluteHumidity {
		return rh
	}
	saturation := 6.112 * math.Exp(17.67*tempC/(tempC+243.5))
	return saturation * rh * 2.1674 / (273.15 + tempC)
}

// Round rounds v to one decimal when decimals is set, to an integer otherwise
func Round(v float64, decimals bool) float64 {
	if decimals {
		return math.Round(v*10) / 10
	}
	return math.Round(v)
}

// TemperatureSymbol returns °C or °F
func TemperatureSymbol(unit TemperatureUnit) string {
	if unit == Fahrenheit {
		return "°F"
	}
	return "°C"
}
