package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/lidarlog/internal/monitoring"
	"github.com/banshee-data/lidarlog/internal/render"
	"github.com/banshee-data/lidarlog/internal/scan"
	"github.com/banshee-data/lidarlog/internal/sensor"
	"github.com/banshee-data/lidarlog/internal/sink"
)

// State is the session loop's lifecycle position.
type State int

const (
	StateIdle State = iota
	StateNegotiating
	StateConnected
	StateScanning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateNegotiating:
		return "negotiating"
	case StateConnected:
		return "connected"
	case StateScanning:
		return "scanning"
	case StateStopping:
		return "stopping"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Config bounds the loop's polling behaviour.
type Config struct {
	// BatchSize is the raw sample buffer length. Zero selects 8192, the
	// protocol-fixed upper bound on one grab.
	BatchSize int

	// PollTimeout bounds each GrabScanBatch call. Zero selects 1s.
	PollTimeout time.Duration

	// IdleDelay is the fixed sleep between poll cycles, bounding CPU
	// usage. Zero selects 50ms; the visual variant uses 10ms.
	IdleDelay time.Duration

	// MotorRPM is passed to the driver before scanning. Zero lets the
	// driver choose its default speed.
	MotorRPM int
}

// SinkOpener opens the record sink once the connection is up. It receives
// the run ID and the negotiated device identity so database sinks can stamp
// their session rows. An error here is fatal and releases the connection.
type SinkOpener func(runID string, info sensor.DeviceInfo) (sink.RecordSink, error)

// Loop is the top-level driver of one scanning run. It owns the negotiated
// connection, the processor state, and the sink and surface handles; nothing
// here is shared across goroutines. Shutdown is cooperative: context
// cancellation and surface closure are observed at iteration boundaries, and
// the iteration in flight always completes its sink writes.
type Loop struct {
	Negotiator *Negotiator
	Endpoint   Endpoint
	Processor  *scan.Processor
	OpenSink   SinkOpener

	// Surface receives the projected point buffer each cycle. Nil in the
	// headless variant.
	Surface render.Surface

	Config Config

	// RunID labels this run in logs and database session rows. Generated
	// when empty.
	RunID string

	state State
}

// State reports the loop's current lifecycle position.
func (l *Loop) State() State {
	return l.state
}

func (l *Loop) surfaceClosed() bool {
	if l.Surface == nil {
		return false
	}
	select {
	case <-l.Surface.Done():
		return true
	default:
		return false
	}
}

// Run executes one full session: negotiate, health-check, scan until the
// context is cancelled or the surface closes, then stop the device and
// release every resource. Poll failures are transient and logged; only
// negotiation, health and sink-open failures are fatal.
func (l *Loop) Run(ctx context.Context) error {
	if l.RunID == "" {
		l.RunID = uuid.NewString()
	}

	cfg := l.Config
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 8192
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = time.Second
	}
	if cfg.IdleDelay <= 0 {
		cfg.IdleDelay = 50 * time.Millisecond
	}

	l.state = StateNegotiating
	defer func() { l.state = StateIdle }()

	conn, err := l.Negotiator.Negotiate(l.Endpoint)
	if err != nil {
		return err
	}
	defer conn.Close()
	l.state = StateConnected

	monitoring.Logf("run %s: sensor S/N %s, firmware %s, hardware rev %d",
		l.RunID, conn.Info.SerialString(), conn.Info.FirmwareString(), conn.Info.HardwareRev)

	health, err := conn.Driver.Health()
	if err != nil {
		return fmt.Errorf("%w: health query: %v", ErrDeviceUnhealthy, err)
	}
	monitoring.Logf("sensor health status: %s", health)
	if health == sensor.HealthError {
		return fmt.Errorf("%w: internal error reported, reboot the device to retry", ErrDeviceUnhealthy)
	}

	if err := conn.Driver.SetMotorSpeed(cfg.MotorRPM); err != nil {
		monitoring.Logf("set motor speed: %v", err)
	}
	if err := conn.Driver.StartScan(); err != nil {
		return fmt.Errorf("start scan: %w", err)
	}
	defer func() {
		if err := conn.Driver.Stop(); err != nil {
			monitoring.Logf("stop scan: %v", err)
		}
	}()

	out, err := l.OpenSink(l.RunID, conn.Info)
	if err != nil {
		return err
	}
	defer func() {
		if err := out.Close(); err != nil {
			monitoring.Logf("close sink: %v", err)
		}
	}()

	l.state = StateScanning
	batch := make([]sensor.Sample, cfg.BatchSize)
	var buffer render.PointBuffer

	for ctx.Err() == nil && !l.surfaceClosed() {
		n, err := conn.Driver.GrabScanBatch(batch, cfg.PollTimeout)
		if err != nil {
			// Transient: no data this cycle.
			monitoring.Logf("no scan data this cycle: %v", err)
		} else {
			records := l.Processor.Process(batch[:n])
			for _, r := range records {
				if err := out.Write(r); err != nil {
					l.state = StateStopping
					return fmt.Errorf("write record: %w", err)
				}
			}
			if l.Surface != nil {
				buffer.Reset()
				for _, r := range records {
					buffer.Add(r)
				}
				l.Surface.Publish(buffer.Points())
			}
			monitoring.Debugf("revolution %d: %d samples in batch, %d accepted",
				l.Processor.Revolution(), n, len(records))
		}

		select {
		case <-ctx.Done():
		case <-time.After(cfg.IdleDelay):
		}
	}

	l.state = StateStopping
	monitoring.Logf("run %s: scan stopped after %d revolutions", l.RunID, l.Processor.Revolution())
	return nil
}
