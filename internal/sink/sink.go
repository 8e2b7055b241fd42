// Package sink persists accepted scan records. The primary sink is an
// append-only delimited text stream; a fanout combinator lets the session
// loop feed several sinks from one record stream.
package sink

import (
	"errors"

	"github.com/banshee-data/lidarlog/internal/scan"
)

// ErrSinkUnavailable reports that a sink's target could not be created or
// opened for append. The session loop treats this as fatal.
var ErrSinkUnavailable = errors.New("record sink unavailable")

// RecordSink consumes accepted records one at a time. Close flushes whatever
// the sink buffers; durability is only guaranteed through process-normal
// exit, never against abrupt termination.
type RecordSink interface {
	Write(scan.Record) error
	Close() error
}

// Fanout writes every record to each member sink in order, stopping at the
// first write error. Close closes every member and returns the first error.
type Fanout []RecordSink

func (f Fanout) Write(r scan.Record) error {
	for _, s := range f {
		if err := s.Write(r); err != nil {
			return err
		}
	}
	return nil
}

func (f Fanout) Close() error {
	var first error
	for _, s := range f {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
