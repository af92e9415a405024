// Package units provides shared constants and conversions for length and angle units
package units

import "math"

// Length unit constants
const (
	Meters      = "m"
	Millimeters = "mm"
	Centimeters = "cm"
	Inches      = "in"
)

// MillimetersPerMeter is the scale between the tracking server's native
// translation unit and meters.
const MillimetersPerMeter = 1000.0

// ValidUnits contains all valid length unit values
var ValidUnits = []string{Meters, Millimeters, Centimeters, Inches}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "m, mm, cm, in"
}

// ConvertLength converts a length in meters to the target units.
// Positions are carried in meters everywhere inside the module.
func ConvertLength(meters float64, targetUnits string) float64 {
	switch targetUnits {
	case Millimeters:
		return meters * MillimetersPerMeter
	case Centimeters:
		return meters * 100
	case Inches:
		return meters / 0.0254
	default:
		return meters
	}
}

// RadToDeg converts radians to degrees.
func RadToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180
}
