package sensor

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/banshee-data/lidarlog/internal/units"
)

func init() {
	RegisterDriver(FakeDriverName, func() (Driver, error) {
		return NewFakeDriver(), nil
	})
}

// FakeDriver simulates a scanning sensor. It produces one full revolution of
// evenly spaced, angle-ascending samples per grab, which makes wraparound
// behaviour deterministic: every batch after the first starts below the
// previous batch's final angle.
//
// The CLI selects it with the device path "fake"; tests construct it
// directly to script specific sample patterns and failure modes.
type FakeDriver struct {
	// SamplesPerRev is the number of samples generated per revolution.
	SamplesPerRev int

	// Range maps a sample position to a reading. The default traces a
	// smooth oval wall around the sensor.
	Range func(rev, i int, angleDeg float64) (distanceMM float64, quality uint8)

	// Info is returned by DeviceInfo once connected.
	Info DeviceInfo

	// HealthState is returned by Health.
	HealthState HealthStatus

	// FailGrabs makes the next N grabs report a transient failure.
	FailGrabs int

	ch       Channel
	scanning bool
	motorRPM int
	rev      int
}

// NewFakeDriver returns a fake driver with a 720-sample revolution and a
// deterministic device identity.
func NewFakeDriver() *FakeDriver {
	d := &FakeDriver{
		SamplesPerRev: 720,
		Info: DeviceInfo{
			Model:       0x61,
			FirmwareVer: 0x010C, // 1.12
			HardwareRev: 6,
		},
	}
	for i := range d.Info.SerialNumber {
		d.Info.SerialNumber[i] = byte(0xF0 + i)
	}
	return d
}

func (d *FakeDriver) Connect(ch Channel) error {
	if ch == nil {
		return errors.New("fake driver: nil channel")
	}
	if err := ch.Open(); err != nil {
		return err
	}
	d.ch = ch
	return nil
}

func (d *FakeDriver) DeviceInfo() (DeviceInfo, error) {
	if d.ch == nil {
		return DeviceInfo{}, errors.New("fake driver: not connected")
	}
	return d.Info, nil
}

func (d *FakeDriver) Health() (HealthStatus, error) {
	if d.ch == nil {
		return HealthError, errors.New("fake driver: not connected")
	}
	return d.HealthState, nil
}

func (d *FakeDriver) StartScan() error {
	if d.ch == nil {
		return errors.New("fake driver: not connected")
	}
	d.scanning = true
	return nil
}

func (d *FakeDriver) Stop() error {
	d.scanning = false
	return nil
}

func (d *FakeDriver) SetMotorSpeed(rpm int) error {
	d.motorRPM = rpm
	return nil
}

// Revolutions reports how many full revolutions have been handed out.
func (d *FakeDriver) Revolutions() int {
	return d.rev
}

func (d *FakeDriver) GrabScanBatch(buf []Sample, timeout time.Duration) (int, error) {
	if !d.scanning {
		return 0, errors.New("fake driver: not scanning")
	}
	if d.FailGrabs > 0 {
		d.FailGrabs--
		return 0, fmt.Errorf("fake driver: grab timed out after %v", timeout)
	}

	rangeFn := d.Range
	if rangeFn == nil {
		rangeFn = ovalWall
	}

	n := d.SamplesPerRev
	if n > len(buf) {
		n = len(buf)
	}
	for i := 0; i < n; i++ {
		deg := 360.0 * float64(i) / float64(d.SamplesPerRev)
		mm, quality := rangeFn(d.rev, i, deg)
		buf[i] = Sample{
			Angle:    units.DegreesToAngleQ14(deg),
			Distance: units.MillimetersToDistQ2(mm),
			Quality:  quality,
		}
	}
	d.rev++
	return n, nil
}

// ovalWall is the default simulated environment: a closed wall between 1.5m
// and 2.5m from the sensor.
func ovalWall(rev, i int, angleDeg float64) (float64, uint8) {
	rad := angleDeg * math.Pi / 180.0
	return 2000 + 500*math.Sin(2*rad), 47
}
