package metrics

import (
	"testing"
	"time"
)

// waitForTicks polls until the registry has seen at least want ticks.
func waitForTicks(t *testing.T, r *Registry, want uint64) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if r.Ticks() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d ticks, have %d", want, r.Ticks())
}

func TestNewUpdaterDefaultInterval(t *testing.T) {
	u := NewUpdater(New(), 0)
	if u.Interval() != DefaultInterval {
		t.Errorf("expected default interval %v, got %v", DefaultInterval, u.Interval())
	}

	u = NewUpdater(New(), 50*time.Millisecond)
	if u.Interval() != 50*time.Millisecond {
		t.Errorf("expected 50ms interval, got %v", u.Interval())
	}
}

func TestUpdaterNoImmediateTick(t *testing.T) {
	r := New()
	u := NewUpdater(r, time.Minute)
	u.Start()
	defer u.Stop()

	// The first tick is one full interval away.
	time.Sleep(50 * time.Millisecond)
	if r.Ticks() != 0 {
		t.Errorf("expected 0 ticks right after start, got %d", r.Ticks())
	}

	snap := r.Snapshot()
	if snap.RequestCount != 0 || snap.RAMTestMetricCount != 0 || snap.RoomTemperature != 0 {
		t.Errorf("expected zero values right after start, got %+v", snap)
	}
}

func TestUpdaterTicks(t *testing.T) {
	r := New()
	u := NewUpdater(r, 10*time.Millisecond)
	u.Start()
	defer u.Stop()

	waitForTicks(t, r, 3)
	// Stop before comparing so no tick lands between the two counter reads.
	u.Stop()

	snap := r.Snapshot()
	if snap.RequestCount < 3 {
		t.Errorf("expected request_count >= 3, got %f", snap.RequestCount)
	}
	if snap.RequestCount != snap.RAMTestMetricCount {
		t.Errorf("counters diverged: request_count=%f ram_test_metric_count=%f",
			snap.RequestCount, snap.RAMTestMetricCount)
	}
	if snap.RoomTemperature < TempMin || snap.RoomTemperature >= TempMax {
		t.Errorf("expected room_temperature in [%g, %g), got %f", TempMin, TempMax, snap.RoomTemperature)
	}
}

func TestUpdaterStopHaltsTicks(t *testing.T) {
	r := New()
	u := NewUpdater(r, 10*time.Millisecond)
	u.Start()

	waitForTicks(t, r, 1)
	u.Stop()

	n := r.Ticks()
	time.Sleep(50 * time.Millisecond)
	if r.Ticks() != n {
		t.Errorf("ticks advanced after Stop: %d -> %d", n, r.Ticks())
	}
}

func TestUpdaterStopIdempotent(t *testing.T) {
	u := NewUpdater(New(), 10*time.Millisecond)
	u.Start()

	u.Stop()
	u.Stop()

	if u.Running() {
		t.Error("expected Running false after Stop")
	}
}

func TestUpdaterStopBeforeStart(t *testing.T) {
	u := NewUpdater(New(), 10*time.Millisecond)
	// Must not panic or hang.
	u.Stop()
}

func TestUpdaterRunning(t *testing.T) {
	u := NewUpdater(New(), 10*time.Millisecond)

	if u.Running() {
		t.Error("expected Running false before Start")
	}

	u.Start()
	if !u.Running() {
		t.Error("expected Running true after Start")
	}

	// Second Start is a no-op.
	u.Start()

	u.Stop()
	if u.Running() {
		t.Error("expected Running false after Stop")
	}
}

func TestUpdaterCoversCustomMetrics(t *testing.T) {
	r := New()
	err := r.RegisterCustom(Definition{
		Name: "queue_depth",
		Type: "gauge",
		Min:  1,
		Max:  2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	u := NewUpdater(r, 10*time.Millisecond)
	u.Start()
	defer u.Stop()

	waitForTicks(t, r, 1)

	v, ok := r.Snapshot().Custom["queue_depth"]
	if !ok {
		t.Fatal("custom metric missing from snapshot after tick")
	}
	if v < 1 || v >= 2 {
		t.Errorf("expected queue_depth in [1, 2), got %f", v)
	}
}
