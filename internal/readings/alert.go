package readings

// Alert messages, in evaluation order
const (
	AlertTemperatureLow  = "Température trop basse"
	AlertTemperatureHigh = "Température trop haute"
	AlertHumidityLow     = "Humidité trop basse"
	AlertHumidityHigh    = "Humidité trop haute"
	AlertPressureLow     = "Pression trop basse"
	AlertPressureHigh    = "Pression trop haute"
)

// Thresholds are alert bounds expressed in the display units
type Thresholds struct {
	TemperatureMin float64
	TemperatureMax float64
	HumidityMin    float64
	HumidityMax    float64
	PressureMin    float64
	PressureMax    float64
}

// Values are measurement values expressed in the display units
type Values struct {
	Temperature float64
	Humidity    float64
	Pressure    float64
}

// Units are the display units of a reading
type Units struct {
	Temperature TemperatureUnit
	Pressure    PressureUnit
	Humidity    HumidityUnit
}

// Convert expresses a raw reading (°C, %RH, hPa) in units
func Convert(tempC, rh, hpa float64, units Units) Values {
	return Values{
		Temperature: Temperature(tempC, units.Temperature),
		Humidity:    Humidity(rh, tempC, units.Humidity),
		Pressure:    Pressure(hpa, units.Pressure),
	}
}

// Alert returns the first violated threshold message, or "" when every value is in range
func Alert(v Values, th Thresholds) string {
	switch {
	case v.Temperature < th.TemperatureMin:
		return AlertTemperatureLow
	case v.Temperature > th.TemperatureMax:
		return AlertTemperatureHigh
	case v.Humidity < th.HumidityMin:
		return AlertHumidityLow
	case v.Humidity > th.HumidityMax:
		return AlertHumidityHigh
	case v.Pressure < th.PressureMin:
		return AlertPressureLow
	case v.Pressure > th.PressureMax:
		return AlertPressureHigh
	}
	return ""
}
