// Command visuallogger captures scan data like datalogger while also serving
// a live polar view of the current revolution over HTTP. Closing the view
// (the stop button) or interrupting the process ends the run; the CSV output
// is identical to a headless capture.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/banshee-data/lidarlog/internal/cliutil"
	"github.com/banshee-data/lidarlog/internal/config"
	"github.com/banshee-data/lidarlog/internal/monitoring"
	"github.com/banshee-data/lidarlog/internal/render"
	"github.com/banshee-data/lidarlog/internal/scan"
	"github.com/banshee-data/lidarlog/internal/scandb"
	"github.com/banshee-data/lidarlog/internal/sensor"
	"github.com/banshee-data/lidarlog/internal/session"
	"github.com/banshee-data/lidarlog/internal/sink"
)

// The view refreshes every 100ms, so the poll cycle runs faster than the
// headless default to keep fresh revolutions behind it.
const viewIdleDelay = 10 * time.Millisecond

func main() {
	prog := filepath.Base(os.Args[0])

	inv, err := cliutil.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n\n", prog, err)
		cliutil.Usage(os.Stderr, prog)
		os.Exit(-1)
	}

	tuning, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", prog, err)
		os.Exit(-1)
	}

	factory, err := driverFor(inv.Endpoint)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", prog, err)
		os.Exit(-2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, inv, tuning, factory); err != nil {
		monitoring.Logf("%v", err)
		os.Exit(1)
	}
}

func driverFor(ep session.Endpoint) (sensor.DriverFactory, error) {
	name := sensor.DefaultDriverName
	if ep.Address == sensor.FakeDriverName {
		name = sensor.FakeDriverName
	}
	return sensor.LookupDriver(name)
}

func run(ctx context.Context, inv *cliutil.Invocation, tuning *config.Tuning, factory sensor.DriverFactory) error {
	outPath := inv.OutputPath
	if outPath == "" {
		outPath = sink.DefaultOutputPath(time.Now())
	}
	monitoring.Logf("logging scan data to %s", outPath)

	surface, err := render.NewHTTPSurface(tuning.GetRenderListen())
	if err != nil {
		return fmt.Errorf("start view server: %w", err)
	}
	defer surface.Close()
	monitoring.Logf("live view at http://%s/", surface.Addr())

	loop := &session.Loop{
		Negotiator: &session.Negotiator{Factory: factory},
		Endpoint:   inv.Endpoint,
		Processor: scan.NewProcessor(scan.Config{
			MaxPointsPerDegree: tuning.GetMaxPointsPerDegree(),
			Decimate:           tuning.GetDecimate(),
		}),
		OpenSink: openSinks(outPath, tuning),
		Surface:  surface,
		Config: session.Config{
			BatchSize:   tuning.GetBatchSize(),
			PollTimeout: tuning.GetPollTimeout(),
			IdleDelay:   tuning.GetIdleDelay(viewIdleDelay),
			MotorRPM:    tuning.GetMotorRPM(),
		},
	}
	return loop.Run(ctx)
}

func openSinks(outPath string, tuning *config.Tuning) session.SinkOpener {
	return func(runID string, info sensor.DeviceInfo) (sink.RecordSink, error) {
		csvSink, err := sink.NewCSVSink(outPath)
		if err != nil {
			return nil, err
		}

		dbPath := tuning.GetDatabasePath()
		if dbPath == "" {
			return csvSink, nil
		}

		db, err := scandb.Open(dbPath)
		if err != nil {
			csvSink.Close()
			return nil, err
		}
		sessionID, err := db.StartSession(runID, info.SerialString())
		if err != nil {
			csvSink.Close()
			db.Close()
			return nil, err
		}
		monitoring.Logf("recording session %d in %s", sessionID, dbPath)
		return sink.Fanout{csvSink, &dbSessionSink{db.SessionSink(sessionID), db}}, nil
	}
}

type dbSessionSink struct {
	sink.RecordSink
	db *scandb.ScanDB
}

func (s *dbSessionSink) Close() error {
	err := s.RecordSink.Close()
	if cerr := s.db.Close(); err == nil {
		err = cerr
	}
	return err
}
