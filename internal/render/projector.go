// Package render maps accepted scan records onto a 2D Cartesian point buffer
// and exposes the buffer to a rendering surface. The buffer reflects only the
// most recent poll cycle's accepted points; full-revolution history is the
// sinks' job, not the renderer's.
package render

import (
	"github.com/banshee-data/lidarlog/internal/scan"
	"github.com/banshee-data/lidarlog/internal/units"
)

// Rings are drawn by the surface every RingSpacingMM out to MaxRangeMM, and
// the viewport spans ±MaxRangeMM on both axes.
const (
	MaxRangeMM    = 4000
	RingSpacingMM = 1000
)

// Point is one projected sample in millimetres, sensor at the origin.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PointBuffer accumulates the projection of one poll cycle. Reset at the
// start of each cycle; stable between Add calls within a cycle.
type PointBuffer struct {
	pts []Point
}

// Reset discards the previous cycle's points, keeping capacity.
func (b *PointBuffer) Reset() {
	b.pts = b.pts[:0]
}

// Add projects an accepted record onto the sensor plane.
func (b *PointBuffer) Add(r scan.Record) {
	x, y := units.PolarToCartesian(r.AngleDeg, r.DistanceMM)
	b.pts = append(b.pts, Point{X: x, Y: y})
}

// Points returns the buffer contents. The slice is valid until the next
// Reset; surfaces that retain points across cycles must copy.
func (b *PointBuffer) Points() []Point {
	return b.pts
}

// Len reports the number of projected points in the current cycle.
func (b *PointBuffer) Len() int {
	return len(b.pts)
}
