// Package cliutil parses the positional command line shared by the logging
// binaries. The surface is deliberately rigid:
//
//	<prog> --channel (-s|--serial) <device path> [baud rate] [output file]
//	<prog> --channel (-u|--udp) <device host> [port] [output file]
//
// Passing the device path "fake" selects the simulated sensor, which needs
// no hardware attached.
package cliutil

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/banshee-data/lidarlog/internal/session"
)

// DefaultUDPPort is used when a UDP invocation omits the port argument.
const DefaultUDPPort = 8089

// ErrUsage marks command-line errors the caller should answer with the usage
// text rather than a stack of wrapped causes.
var ErrUsage = errors.New("usage error")

// Invocation is a parsed command line. OutputPath is empty when the caller
// should derive a timestamped default.
type Invocation struct {
	Endpoint   session.Endpoint
	OutputPath string
}

// Parse interprets args, which must not include the program name.
func Parse(args []string) (*Invocation, error) {
	if len(args) < 3 {
		return nil, fmt.Errorf("%w: expected --channel, a transport flag and an address", ErrUsage)
	}
	if args[0] != "--channel" {
		return nil, fmt.Errorf("%w: first argument must be --channel, got %q", ErrUsage, args[0])
	}

	inv := &Invocation{}
	switch args[1] {
	case "-s", "--serial":
		inv.Endpoint.Transport = session.TransportSerial
	case "-u", "--udp":
		inv.Endpoint.Transport = session.TransportUDP
	default:
		return nil, fmt.Errorf("%w: unknown transport flag %q", ErrUsage, args[1])
	}
	inv.Endpoint.Address = args[2]

	rest := args[3:]
	if len(rest) > 2 {
		return nil, fmt.Errorf("%w: too many arguments", ErrUsage)
	}

	// The optional numeric argument is a baud rate on serial and a port on
	// UDP. A non-numeric argument in that position is the output path.
	if len(rest) > 0 {
		if n, err := strconv.Atoi(rest[0]); err == nil {
			if n <= 0 {
				return nil, fmt.Errorf("%w: %q is not a valid rate or port", ErrUsage, rest[0])
			}
			if inv.Endpoint.Transport == session.TransportUDP {
				inv.Endpoint.Port = n
			} else {
				inv.Endpoint.Baud = n
			}
			rest = rest[1:]
		} else if len(rest) == 2 {
			return nil, fmt.Errorf("%w: %q is not a valid rate or port", ErrUsage, rest[0])
		}
	}
	if len(rest) > 0 {
		inv.OutputPath = rest[0]
	}

	if inv.Endpoint.Transport == session.TransportUDP && inv.Endpoint.Port == 0 {
		inv.Endpoint.Port = DefaultUDPPort
	}
	return inv, nil
}

// Usage writes the invocation synopsis for prog.
func Usage(w io.Writer, prog string) {
	fmt.Fprintf(w, "Usage:\n")
	fmt.Fprintf(w, "  %s --channel -s <device path> [baud rate] [output file]\n", prog)
	fmt.Fprintf(w, "  %s --channel -u <device host> [port] [output file]\n", prog)
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Omitting the baud rate probes the known candidate rates in order.\n")
	fmt.Fprintf(w, "The device path \"fake\" runs against a simulated sensor.\n")
	fmt.Fprintf(w, "Tuning overrides load from the JSON file named by LIDARLOG_TUNING.\n")
}
