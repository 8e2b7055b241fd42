package sink

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/banshee-data/lidarlog/internal/scan"
)

// Header is the fixed first line of every record stream, columns in the
// documented order.
var Header = []string{"timestamp", "angle", "distance", "quality", "scan_number"}

// CSVSink appends one delimited text line per record. Lines buffer in memory
// until Close; a hung or killed process may lose the unflushed tail, which is
// accepted rather than mitigated.
type CSVSink struct {
	path string
	file *os.File
	buf  *bufio.Writer
	w    *csv.Writer
}

// NewCSVSink creates (or truncates) the record stream at path and writes the
// header line. Open failures wrap ErrSinkUnavailable.
func NewCSVSink(path string) (*CSVSink, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSinkUnavailable, path, err)
	}
	buf := bufio.NewWriter(file)
	w := csv.NewWriter(buf)
	s := &CSVSink{path: path, file: file, buf: buf, w: w}
	if err := w.Write(Header); err != nil {
		file.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrSinkUnavailable, path, err)
	}
	return s, nil
}

// Path reports where the stream is being written, for startup logging.
func (s *CSVSink) Path() string {
	return s.path
}

func (s *CSVSink) Write(r scan.Record) error {
	return s.w.Write([]string{
		strconv.FormatInt(r.Timestamp, 10),
		strconv.FormatFloat(r.AngleDeg, 'f', 3, 64),
		strconv.FormatFloat(r.DistanceMM, 'f', 3, 64),
		strconv.Itoa(int(r.Quality)),
		strconv.Itoa(r.Revolution),
	})
}

// Close flushes the csv and bufio layers and closes the file.
func (s *CSVSink) Close() error {
	s.w.Flush()
	err := s.w.Error()
	if flushErr := s.buf.Flush(); err == nil {
		err = flushErr
	}
	if closeErr := s.file.Close(); err == nil {
		err = closeErr
	}
	return err
}

// DefaultOutputPath names the record stream when the caller does not supply
// one, e.g. "lidar_data_20260823_151204.csv".
func DefaultOutputPath(now time.Time) string {
	return now.Format("lidar_data_20060102_150405.csv")
}
