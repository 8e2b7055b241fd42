package sensor

import (
	"errors"
	"fmt"
	"io"
	"net"

	"go.bug.st/serial"
)

// ErrChannelClosed is returned by Read/Write on a channel that has not been
// opened or has already been closed.
var ErrChannelClosed = errors.New("sensor: channel not open")

// Channel is a byte transport between driver and sensor. The driver calls
// Open as part of Connect; whoever created the channel closes it, including
// after failed connection attempts.
type Channel interface {
	Open() error
	io.ReadWriteCloser

	// Endpoint describes the transport target for diagnostics and error
	// reporting, e.g. "/dev/ttyUSB0@256000" or "udp 192.168.11.2:8089".
	Endpoint() string
}

// serialChannel is a point-to-point serial transport backed by go.bug.st/serial.
type serialChannel struct {
	path string
	baud int
	port serial.Port
}

// NewSerialChannel returns an unopened serial channel for the device at path
// with the given baud rate.
func NewSerialChannel(path string, baud int) Channel {
	return &serialChannel{path: path, baud: baud}
}

func (c *serialChannel) Open() error {
	mode := &serial.Mode{
		BaudRate: c.baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(c.path, mode)
	if err != nil {
		return fmt.Errorf("open %s: %w", c.Endpoint(), err)
	}
	c.port = port
	return nil
}

func (c *serialChannel) Read(p []byte) (int, error) {
	if c.port == nil {
		return 0, ErrChannelClosed
	}
	return c.port.Read(p)
}

func (c *serialChannel) Write(p []byte) (int, error) {
	if c.port == nil {
		return 0, ErrChannelClosed
	}
	return c.port.Write(p)
}

func (c *serialChannel) Close() error {
	if c.port == nil {
		return nil
	}
	port := c.port
	c.port = nil
	return port.Close()
}

func (c *serialChannel) Endpoint() string {
	return fmt.Sprintf("%s@%d", c.path, c.baud)
}

// udpChannel is a datagram transport. UDP is connectionless, so Open only
// establishes the local socket; liveness is confirmed by the identity query
// during negotiation.
type udpChannel struct {
	host string
	port int
	conn *net.UDPConn
}

// NewUDPChannel returns an unopened datagram channel to host:port.
func NewUDPChannel(host string, port int) Channel {
	return &udpChannel{host: host, port: port}
}

func (c *udpChannel) Open() error {
	addr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", c.host, c.port))
	if err != nil {
		return fmt.Errorf("resolve %s: %w", c.Endpoint(), err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.Endpoint(), err)
	}
	c.conn = conn
	return nil
}

func (c *udpChannel) Read(p []byte) (int, error) {
	if c.conn == nil {
		return 0, ErrChannelClosed
	}
	return c.conn.Read(p)
}

func (c *udpChannel) Write(p []byte) (int, error) {
	if c.conn == nil {
		return 0, ErrChannelClosed
	}
	return c.conn.Write(p)
}

func (c *udpChannel) Close() error {
	if c.conn == nil {
		return nil
	}
	conn := c.conn
	c.conn = nil
	return conn.Close()
}

func (c *udpChannel) Endpoint() string {
	return fmt.Sprintf("udp %s:%d", c.host, c.port)
}

// loopbackChannel carries no bytes. The fake driver synthesizes samples
// internally, so its channel only has to satisfy the lifecycle contract.
type loopbackChannel struct {
	open bool
}

// NewLoopbackChannel returns a channel for drivers that do not touch a wire.
func NewLoopbackChannel() Channel {
	return &loopbackChannel{}
}

func (c *loopbackChannel) Open() error {
	c.open = true
	return nil
}

func (c *loopbackChannel) Read(p []byte) (int, error) {
	if !c.open {
		return 0, ErrChannelClosed
	}
	return 0, io.EOF
}

func (c *loopbackChannel) Write(p []byte) (int, error) {
	if !c.open {
		return 0, ErrChannelClosed
	}
	return len(p), nil
}

func (c *loopbackChannel) Close() error {
	c.open = false
	return nil
}

func (c *loopbackChannel) Endpoint() string {
	return "loopback"
}
