// Package units provides conversions between the sensor's fixed-point wire
// representations and the floating-point units used by the rest of the
// pipeline, plus polar-to-Cartesian projection helpers.
package units

import "math"

// The sensor reports angles as Q14 fractions of a quarter revolution and
// distances as Q2 millimetres. These scale factors are protocol-fixed.
const (
	angleQ14PerDegree = 16384.0 / 90.0
	distQ2PerMM       = 4.0
)

// DegreeBuckets is the number of integer-degree buckets in one revolution.
const DegreeBuckets = 360

// AngleQ14ToDegrees converts a raw Q14 angle field to floating degrees.
func AngleQ14ToDegrees(raw uint16) float64 {
	return float64(raw) * 90.0 / 16384.0
}

// DegreesToAngleQ14 converts floating degrees to the raw Q14 angle field.
// Used by simulators and tests to synthesize wire-format samples.
func DegreesToAngleQ14(deg float64) uint16 {
	return uint16(math.Round(deg * angleQ14PerDegree))
}

// DistQ2ToMillimeters converts a raw Q2 distance field to floating millimetres.
func DistQ2ToMillimeters(raw uint32) float64 {
	return float64(raw) / distQ2PerMM
}

// MillimetersToDistQ2 converts floating millimetres to the raw Q2 distance field.
func MillimetersToDistQ2(mm float64) uint32 {
	if mm <= 0 {
		return 0
	}
	return uint32(math.Round(mm * distQ2PerMM))
}

// PolarToCartesian projects an (angle, range) pair onto the sensor plane.
// X points along the 0 degree axis, Y along the 90 degree axis; units follow
// the distance argument.
func PolarToCartesian(angleDeg, distance float64) (x, y float64) {
	rad := angleDeg * math.Pi / 180.0
	return distance * math.Cos(rad), distance * math.Sin(rad)
}
