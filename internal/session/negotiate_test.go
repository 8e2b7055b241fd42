package session

import (
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/banshee-data/lidarlog/internal/sensor"
)

// scriptChannel is a transport stand-in that records its lifecycle.
type scriptChannel struct {
	baud    int
	openErr error
	opened  bool
	closed  bool
}

func (c *scriptChannel) Open() error {
	if c.openErr != nil {
		return c.openErr
	}
	c.opened = true
	return nil
}

func (c *scriptChannel) Read(p []byte) (int, error)  { return 0, io.EOF }
func (c *scriptChannel) Write(p []byte) (int, error) { return len(p), nil }

func (c *scriptChannel) Close() error {
	c.closed = true
	return nil
}

func (c *scriptChannel) Endpoint() string {
	return fmt.Sprintf("script@%d", c.baud)
}

// scriptDriver answers the identity query only at okBaud, simulating a
// device that talks a single rate.
type scriptDriver struct {
	okBaud int
	ch     *scriptChannel
}

func (d *scriptDriver) Connect(ch sensor.Channel) error {
	sc := ch.(*scriptChannel)
	if err := sc.Open(); err != nil {
		return err
	}
	d.ch = sc
	return nil
}

func (d *scriptDriver) DeviceInfo() (sensor.DeviceInfo, error) {
	if d.ch == nil || d.ch.baud != d.okBaud {
		return sensor.DeviceInfo{}, errors.New("identity query timed out")
	}
	return sensor.DeviceInfo{FirmwareVer: 0x0110}, nil
}

func (d *scriptDriver) Health() (sensor.HealthStatus, error) { return sensor.HealthGood, nil }
func (d *scriptDriver) StartScan() error                     { return nil }
func (d *scriptDriver) Stop() error                          { return nil }
func (d *scriptDriver) SetMotorSpeed(rpm int) error          { return nil }
func (d *scriptDriver) GrabScanBatch(buf []sensor.Sample, timeout time.Duration) (int, error) {
	return 0, errors.New("not scanning")
}

func newScriptNegotiator(okBaud int) (*Negotiator, *[]*scriptChannel) {
	attempts := &[]*scriptChannel{}
	n := &Negotiator{
		Factory: func() (sensor.Driver, error) {
			return &scriptDriver{okBaud: okBaud}, nil
		},
		ChannelFor: func(ep Endpoint, baud int) sensor.Channel {
			ch := &scriptChannel{baud: baud}
			*attempts = append(*attempts, ch)
			return ch
		},
	}
	return n, attempts
}

func TestNegotiateProbesBaudRatesInOrder(t *testing.T) {
	n, attempts := newScriptNegotiator(256000)

	conn, err := n.Negotiate(Endpoint{Transport: TransportSerial, Address: "/dev/ttyUSB0"})
	if err != nil {
		t.Fatalf("Negotiate: %v", err)
	}

	if len(*attempts) != 2 {
		t.Fatalf("made %d attempts, want 2", len(*attempts))
	}
	if (*attempts)[0].baud != 115200 || (*attempts)[1].baud != 256000 {
		t.Errorf("attempt order = [%d, %d], want [115200, 256000]",
			(*attempts)[0].baud, (*attempts)[1].baud)
	}
	if !(*attempts)[0].closed {
		t.Error("failed candidate's channel was not released")
	}
	if (*attempts)[1].closed {
		t.Error("winning candidate's channel was closed prematurely")
	}

	if err := conn.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !(*attempts)[1].closed {
		t.Error("Connection.Close did not release the channel")
	}
}

func TestNegotiateStopsAtFirstWorkingRate(t *testing.T) {
	n, attempts := newScriptNegotiator(115200)

	conn, err := n.Negotiate(Endpoint{Transport: TransportSerial, Address: "/dev/ttyUSB0"})
	if err != nil {
		t.Fatalf("Negotiate: %v", err)
	}
	defer conn.Close()

	if len(*attempts) != 1 {
		t.Errorf("made %d attempts, want 1 (must not probe past a success)", len(*attempts))
	}
}

func TestNegotiateExplicitBaudSingleAttempt(t *testing.T) {
	n, attempts := newScriptNegotiator(115200)

	// Explicit rate that the device does not answer: exactly one attempt,
	// no fallback probing.
	_, err := n.Negotiate(Endpoint{Transport: TransportSerial, Address: "/dev/ttyUSB0", Baud: 256000})
	if !errors.Is(err, ErrConnectionFailed) {
		t.Fatalf("err = %v, want ErrConnectionFailed", err)
	}
	if len(*attempts) != 1 {
		t.Errorf("made %d attempts, want 1", len(*attempts))
	}
	if !(*attempts)[0].closed {
		t.Error("failed attempt's channel was not released")
	}
}

func TestNegotiateAllCandidatesFail(t *testing.T) {
	n, attempts := newScriptNegotiator(0) // no rate works

	_, err := n.Negotiate(Endpoint{Transport: TransportSerial, Address: "/dev/ttyAMA1"})
	if !errors.Is(err, ErrConnectionFailed) {
		t.Fatalf("err = %v, want ErrConnectionFailed", err)
	}
	for i, ch := range *attempts {
		if !ch.closed {
			t.Errorf("attempt %d leaked its channel", i)
		}
	}
}

func TestNegotiateUDPSingleAttempt(t *testing.T) {
	n, attempts := newScriptNegotiator(0)

	_, err := n.Negotiate(Endpoint{Transport: TransportUDP, Address: "192.168.11.2", Port: 8089})
	if !errors.Is(err, ErrConnectionFailed) {
		t.Fatalf("err = %v, want ErrConnectionFailed", err)
	}
	if len(*attempts) != 1 {
		t.Errorf("made %d attempts, want 1 (no rate probing on datagram transports)", len(*attempts))
	}
}

func TestNegotiateFakeEndpointUsesLoopback(t *testing.T) {
	n := &Negotiator{
		Factory: func() (sensor.Driver, error) {
			return sensor.NewFakeDriver(), nil
		},
	}
	conn, err := n.Negotiate(Endpoint{Transport: TransportSerial, Address: "fake"})
	if err != nil {
		t.Fatalf("Negotiate: %v", err)
	}
	defer conn.Close()
	if conn.Channel.Endpoint() != "loopback" {
		t.Errorf("channel endpoint = %q, want loopback", conn.Channel.Endpoint())
	}
}
