package readings

import "math"

// Connection status labels shown for a sensor
const (
	StatusConnected  = "Connecté"
	StatusLowBattery = "Batterie faible"
	StatusOffline    = "Hors ligne"
)

// VoltageToPercent maps a CR2477 cell voltage (2.5V empty, 3.0V full) to a 0-100 percentage.
// A missing voltage reads as 0.
func VoltageToPercent(voltage *float64) int {
	if voltage == nil {
		return 0
	}
	pct := int(math.Round((*voltage - 2.5) / (3.0 - 2.5) * 100))
	return max(0, min(100, pct))
}

// Status derives the connection status from a battery percentage
func Status(battery int) string {
	if battery == 0 {
		return StatusOffline
	}
	if battery < 20 {
		return StatusLowBattery
	}
	return StatusConnected
}
