// Package session owns the lifetime of one scanning run: negotiating the
// sensor connection, then driving the poll/process/persist loop until
// shutdown is requested.
package session

import (
	"errors"
	"fmt"

	"github.com/banshee-data/lidarlog/internal/monitoring"
	"github.com/banshee-data/lidarlog/internal/sensor"
)

// DefaultBaudRates is the ordered candidate list probed when no explicit
// baud rate is supplied. A1/A2M8 class devices answer at 115200, A2M7/A3/S1
// class devices at 256000.
var DefaultBaudRates = []int{115200, 256000}

// Transport selects the channel kind used to reach the sensor.
type Transport int

const (
	TransportSerial Transport = iota
	TransportUDP
)

// Endpoint describes where the sensor lives. Address is a device path for
// serial transports or a host for UDP; the special address "fake" selects a
// loopback channel for the simulated driver. Baud zero triggers multi-rate
// probing.
type Endpoint struct {
	Transport Transport
	Address   string
	Baud      int
	Port      int
}

func (ep Endpoint) describe() string {
	if ep.Transport == TransportUDP {
		return fmt.Sprintf("%s:%d", ep.Address, ep.Port)
	}
	return ep.Address
}

var (
	// ErrConnectionFailed reports that no candidate transport produced a
	// live, identity-confirmed connection. The negotiator never retries
	// beyond the explicit baud-rate enumeration; retry policy belongs to
	// the caller.
	ErrConnectionFailed = errors.New("cannot connect to sensor")

	// ErrDeviceUnhealthy reports that a connected device answered the
	// health query with an error status.
	ErrDeviceUnhealthy = errors.New("sensor reports unhealthy status")
)

// Connection is a live negotiated session with the sensor. Close releases
// the transport; the driver needs no separate teardown.
type Connection struct {
	Driver  sensor.Driver
	Channel sensor.Channel
	Info    sensor.DeviceInfo
}

func (c *Connection) Close() error {
	return c.Channel.Close()
}

// Negotiator tries candidate transport parameters in order until a fresh
// driver both connects and answers a device-identity query. Every failed
// candidate releases its channel before the next attempt.
type Negotiator struct {
	// Factory produces one unconnected driver per attempt.
	Factory sensor.DriverFactory

	// BaudRates overrides DefaultBaudRates when probing. Ignored when the
	// endpoint carries an explicit baud rate.
	BaudRates []int

	// ChannelFor overrides channel construction; tests use it to inject
	// scripted transports. Nil selects the real serial/UDP channels.
	ChannelFor func(ep Endpoint, baud int) sensor.Channel
}

func (n *Negotiator) channelFor(ep Endpoint, baud int) sensor.Channel {
	if n.ChannelFor != nil {
		return n.ChannelFor(ep, baud)
	}
	if ep.Address == sensor.FakeDriverName {
		return sensor.NewLoopbackChannel()
	}
	if ep.Transport == TransportUDP {
		return sensor.NewUDPChannel(ep.Address, ep.Port)
	}
	return sensor.NewSerialChannel(ep.Address, baud)
}

// candidates lists the channels to try, in order.
func (n *Negotiator) candidates(ep Endpoint) []sensor.Channel {
	if ep.Transport == TransportUDP || ep.Address == sensor.FakeDriverName || ep.Baud != 0 {
		return []sensor.Channel{n.channelFor(ep, ep.Baud)}
	}
	rates := n.BaudRates
	if len(rates) == 0 {
		rates = DefaultBaudRates
	}
	channels := make([]sensor.Channel, 0, len(rates))
	for _, baud := range rates {
		channels = append(channels, n.channelFor(ep, baud))
	}
	return channels
}

// Negotiate produces a live connection or fails with ErrConnectionFailed.
// The device identity in the returned Connection is diagnostic only.
func (n *Negotiator) Negotiate(ep Endpoint) (*Connection, error) {
	for _, ch := range n.candidates(ep) {
		drv, err := n.Factory()
		if err != nil {
			return nil, fmt.Errorf("create driver: %w", err)
		}

		if err := drv.Connect(ch); err != nil {
			monitoring.Debugf("connect %s: %v", ch.Endpoint(), err)
			ch.Close()
			continue
		}

		// Identity query doubles as the liveness check; UDP transports
		// are connectionless, so a successful dial proves nothing.
		info, err := drv.DeviceInfo()
		if err != nil {
			monitoring.Debugf("identity query on %s: %v", ch.Endpoint(), err)
			ch.Close()
			continue
		}

		return &Connection{Driver: drv, Channel: ch, Info: info}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrConnectionFailed, ep.describe())
}
