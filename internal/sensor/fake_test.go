package sensor

import (
	"testing"
	"time"

	"github.com/banshee-data/lidarlog/internal/units"
)

func TestFakeDriverLifecycle(t *testing.T) {
	d := NewFakeDriver()

	if _, err := d.DeviceInfo(); err == nil {
		t.Fatal("DeviceInfo should fail before Connect")
	}
	if _, err := d.GrabScanBatch(make([]Sample, 16), time.Second); err == nil {
		t.Fatal("GrabScanBatch should fail before StartScan")
	}

	if err := d.Connect(NewLoopbackChannel()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	info, err := d.DeviceInfo()
	if err != nil {
		t.Fatalf("DeviceInfo: %v", err)
	}
	if len(info.SerialString()) != 32 {
		t.Errorf("SerialString() = %q, want 32 hex chars", info.SerialString())
	}
	if info.FirmwareString() != "1.12" {
		t.Errorf("FirmwareString() = %q, want 1.12", info.FirmwareString())
	}

	health, err := d.Health()
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health != HealthGood {
		t.Errorf("Health = %v, want good", health)
	}

	if err := d.StartScan(); err != nil {
		t.Fatalf("StartScan: %v", err)
	}
	if err := d.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if _, err := d.GrabScanBatch(make([]Sample, 16), time.Second); err == nil {
		t.Fatal("GrabScanBatch should fail after Stop")
	}
}

func TestFakeDriverBatchesAscendAndWrap(t *testing.T) {
	d := NewFakeDriver()
	if err := d.Connect(NewLoopbackChannel()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := d.StartScan(); err != nil {
		t.Fatalf("StartScan: %v", err)
	}

	buf := make([]Sample, 8192)
	n, err := d.GrabScanBatch(buf, time.Second)
	if err != nil {
		t.Fatalf("GrabScanBatch: %v", err)
	}
	if n != d.SamplesPerRev {
		t.Fatalf("got %d samples, want %d", n, d.SamplesPerRev)
	}

	prev := -1.0
	for i := 0; i < n; i++ {
		deg := units.AngleQ14ToDegrees(buf[i].Angle)
		if deg < prev {
			t.Fatalf("sample %d regresses within batch: %v < %v", i, deg, prev)
		}
		if deg >= 360 {
			t.Fatalf("sample %d out of range: %v", i, deg)
		}
		prev = deg
	}

	// A second grab restarts at the bottom of the circle, which is what
	// lets the processor detect a revolution boundary.
	n2, err := d.GrabScanBatch(buf, time.Second)
	if err != nil {
		t.Fatalf("second GrabScanBatch: %v", err)
	}
	first := units.AngleQ14ToDegrees(buf[0].Angle)
	if n2 != n || first >= prev {
		t.Errorf("second batch should restart low: first=%v, previous last=%v", first, prev)
	}
	if d.Revolutions() != 2 {
		t.Errorf("Revolutions() = %d, want 2", d.Revolutions())
	}
}

func TestFakeDriverTransientFailure(t *testing.T) {
	d := NewFakeDriver()
	if err := d.Connect(NewLoopbackChannel()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := d.StartScan(); err != nil {
		t.Fatalf("StartScan: %v", err)
	}
	d.FailGrabs = 1

	buf := make([]Sample, 1024)
	if _, err := d.GrabScanBatch(buf, time.Millisecond); err == nil {
		t.Fatal("first grab should fail")
	}
	if _, err := d.GrabScanBatch(buf, time.Millisecond); err != nil {
		t.Fatalf("second grab should succeed: %v", err)
	}
}

func TestLookupDriver(t *testing.T) {
	factory, err := LookupDriver(FakeDriverName)
	if err != nil {
		t.Fatalf("LookupDriver(fake): %v", err)
	}
	drv, err := factory()
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	if _, ok := drv.(*FakeDriver); !ok {
		t.Errorf("factory returned %T, want *FakeDriver", drv)
	}

	if _, err := LookupDriver("no-such-vendor"); err == nil {
		t.Error("LookupDriver should fail for unregistered names")
	}
}

func TestLoopbackChannel(t *testing.T) {
	ch := NewLoopbackChannel()
	if _, err := ch.Read(make([]byte, 4)); err != ErrChannelClosed {
		t.Errorf("Read before Open = %v, want ErrChannelClosed", err)
	}
	if err := ch.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if n, err := ch.Write([]byte("ab")); n != 2 || err != nil {
		t.Errorf("Write = (%d, %v), want (2, nil)", n, err)
	}
	if err := ch.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := ch.Write(nil); err != ErrChannelClosed {
		t.Errorf("Write after Close = %v, want ErrChannelClosed", err)
	}
}
