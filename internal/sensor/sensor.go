// Package sensor defines the boundary to the scanning range-finder: the raw
// sample and identity types, the Driver interface implemented by vendor
// driver libraries, the byte-transport Channel implementations (serial and
// UDP), and a simulated driver for development and tests.
//
// The low-level wire protocol (framing, checksums, motor control commands)
// lives entirely behind the Driver interface; this package never interprets
// sensor bytes itself.
package sensor

import (
	"fmt"
	"time"
)

// Sample is one raw range reading as handed over by the driver.
// Angle is a Q14 fraction of a revolution (value × 90 / 16384 gives degrees);
// Distance is Q2 millimetres (value / 4 gives mm). Samples are immutable for
// the duration of one poll cycle.
type Sample struct {
	Angle    uint16
	Distance uint32
	Quality  uint8
}

// DeviceInfo identifies the connected sensor. It is reported once after
// connection negotiation for diagnostics and is not used by the pipeline.
type DeviceInfo struct {
	Model        uint8
	FirmwareVer  uint16 // major in the high byte, minor in the low byte
	HardwareRev  uint8
	SerialNumber [16]byte
}

// SerialString renders the serial number the way the vendor tools print it:
// sixteen bytes as uppercase hex with no separators.
func (di DeviceInfo) SerialString() string {
	return fmt.Sprintf("%X", di.SerialNumber[:])
}

// FirmwareString renders the firmware version as "major.minor".
func (di DeviceInfo) FirmwareString() string {
	return fmt.Sprintf("%d.%02d", di.FirmwareVer>>8, di.FirmwareVer&0xFF)
}

// HealthStatus is the device self-reported health state.
type HealthStatus int

const (
	HealthGood HealthStatus = iota
	HealthWarning
	HealthError
)

func (s HealthStatus) String() string {
	switch s {
	case HealthGood:
		return "good"
	case HealthWarning:
		return "warning"
	case HealthError:
		return "error"
	default:
		return fmt.Sprintf("health(%d)", int(s))
	}
}

// Driver is the sensor driver collaborator. Implementations own the wire
// protocol; callers own the Channel lifecycle on failed connections.
//
// GrabScanBatch fills buf with at most len(buf) samples, already
// de-interleaved and ascending by angle within the batch, and returns the
// number of samples written. A failed grab means "no data this cycle" and is
// not fatal to the caller.
type Driver interface {
	Connect(ch Channel) error
	DeviceInfo() (DeviceInfo, error)
	Health() (HealthStatus, error)
	StartScan() error
	Stop() error
	GrabScanBatch(buf []Sample, timeout time.Duration) (int, error)
	SetMotorSpeed(rpm int) error
}
