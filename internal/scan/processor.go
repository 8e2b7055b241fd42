// Package scan implements the per-sample filter pipeline between the sensor
// driver and the record sinks: fixed-point conversion, alternate-sample
// decimation, validity filtering, per-degree rate limiting and
// revolution-wraparound detection.
package scan

import (
	"math"
	"time"

	"github.com/banshee-data/lidarlog/internal/sensor"
	"github.com/banshee-data/lidarlog/internal/units"
)

// DefaultMaxPointsPerDegree caps accepted records per integer degree within
// one revolution, bounding memory and file growth regardless of sensor rate.
const DefaultMaxPointsPerDegree = 5

// Record is a sample that passed every filter. Records are immutable and are
// consumed once by each sink, then discarded.
type Record struct {
	Timestamp  int64 // whole seconds since epoch
	AngleDeg   float64
	DistanceMM float64
	Quality    uint8
	Revolution int
}

// Config controls a Processor.
type Config struct {
	// MaxPointsPerDegree caps accepted records per integer degree per
	// revolution. Zero or negative selects DefaultMaxPointsPerDegree.
	MaxPointsPerDegree int

	// Decimate drops every other examined sample, halving point density
	// independently of the per-degree cap.
	Decimate bool

	// Clock stamps accepted records. Nil selects time.Now.
	Clock func() time.Time
}

// Processor consumes raw sample batches and emits accepted records. It owns
// the per-degree bucket counters and the revolution counter; both are private
// to one session loop and are never shared across goroutines.
type Processor struct {
	maxPerDegree int
	decimate     bool
	clock        func() time.Time

	lastAngle  float64
	skipNext   bool
	revolution int
	buckets    [units.DegreeBuckets]int
}

// NewProcessor returns a Processor with zeroed bucket and revolution state.
func NewProcessor(cfg Config) *Processor {
	maxPerDegree := cfg.MaxPointsPerDegree
	if maxPerDegree <= 0 {
		maxPerDegree = DefaultMaxPointsPerDegree
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Processor{
		maxPerDegree: maxPerDegree,
		decimate:     cfg.Decimate,
		clock:        clock,
	}
}

// Revolution reports the current revolution index. It increments only when a
// wraparound is observed, never speculatively, so a revolution with zero
// accepted samples still counts exactly once.
func (p *Processor) Revolution() int {
	return p.revolution
}

// Process consumes one poll cycle's batch, ordered ascending by angle as
// guaranteed by the driver, and returns the records that passed every filter.
//
// Wraparound is detected by angle regression: the sensor stream carries no
// end-of-revolution marker, and resetting the buckets here keeps both sinks
// consistent. The decimation flag toggles once per sample examined whether or
// not the sample is accepted, and angle bookkeeping happens even for samples
// the decimator drops.
func (p *Processor) Process(batch []sensor.Sample) []Record {
	var out []Record
	for _, s := range batch {
		angle := units.AngleQ14ToDegrees(s.Angle)
		distance := units.DistQ2ToMillimeters(s.Distance)

		if angle < p.lastAngle {
			p.buckets = [units.DegreeBuckets]int{}
			p.revolution++
		}
		p.lastAngle = angle

		if p.decimate {
			skip := p.skipNext
			p.skipNext = !p.skipNext
			if skip {
				continue
			}
		}

		if distance <= 0 {
			continue
		}

		degree := int(math.Floor(angle))
		if degree < 0 || degree >= units.DegreeBuckets {
			continue
		}
		if p.buckets[degree] >= p.maxPerDegree {
			continue
		}

		p.buckets[degree]++
		out = append(out, Record{
			Timestamp:  p.clock().Unix(),
			AngleDeg:   angle,
			DistanceMM: distance,
			Quality:    s.Quality,
			Revolution: p.revolution,
		})
	}
	return out
}
