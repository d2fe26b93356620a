package sensor

import (
	"context"
	"testing"
	"time"
)

type failingSource struct{ err error }

func (s *failingSource) Subscribe(context.Context) (<-chan Fix, error) { return nil, s.err }
func (s *failingSource) Close() error                                  { return nil }

func waitForFix(t *testing.T, c *Controller) Fix {
	t.Helper()
	select {
	case f := <-c.Fixes():
		return f
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timeout waiting for fix")
		return Fix{}
	}
}

func TestPermissionDeniedFallsBack(t *testing.T) {
	c := NewController(&failingSource{err: ErrPermissionDenied}, 48.8566, 2.3522)
	c.Start(context.Background())

	if c.State() != StateDenied {
		t.Fatalf("expected denied, got %v", c.State())
	}
	f := waitForFix(t, c)
	if f.Source != SourceNetworkFallback || f.AccuracyM != FallbackAccuracyM {
		t.Fatalf("expected fallback fix, got %+v", f)
	}
	if f.Lat != 48.8566 || f.Lng != 2.3522 {
		t.Fatalf("expected reference coordinate, got %+v", f)
	}
	if c.CanStart() {
		t.Fatalf("denied controller must not allow start")
	}
}

func TestHardwareErrorFallsBack(t *testing.T) {
	c := NewController(&failingSource{err: ErrSensorUnavailable}, 1, 2)
	c.Start(context.Background())
	if c.State() != StateError {
		t.Fatalf("expected error state, got %v", c.State())
	}
	if _, ok := c.Latest(); !ok {
		t.Fatalf("expected fallback fix recorded")
	}
}

func TestFirstFixTimeout(t *testing.T) {
	src := NewPushSource()
	c := NewController(src, 48.8566, 2.3522)
	c.firstFixWait = 20 * time.Millisecond
	c.Start(context.Background())
	defer c.Stop()

	f := waitForFix(t, c)
	if f.Source != SourceNetworkFallback || f.AccuracyM != FallbackAccuracyM {
		t.Fatalf("expected fallback fix after timeout, got %+v", f)
	}
	if c.State() != StateTimeout {
		t.Fatalf("expected timeout, got %v", c.State())
	}
	if c.CanStart() {
		t.Fatalf("timed-out controller must not allow start")
	}
}

func TestFixCancelsTimeout(t *testing.T) {
	src := NewPushSource()
	c := NewController(src, 0, 0)
	c.firstFixWait = 30 * time.Millisecond
	c.Start(context.Background())
	defer c.Stop()

	src.Push(Fix{Lat: 45, Lng: 6, AccuracyM: 60})
	f := waitForFix(t, c)
	if f.Source != SourceSensor {
		t.Fatalf("expected sensor fix, got %+v", f)
	}

	time.Sleep(60 * time.Millisecond)
	if c.State() == StateTimeout {
		t.Fatalf("timeout fired despite received fix")
	}
}

func TestAccuracyGatesReady(t *testing.T) {
	src := NewPushSource()
	c := NewController(src, 0, 0)
	c.Start(context.Background())
	defer c.Stop()

	src.Push(Fix{Lat: 45, Lng: 6, AccuracyM: 80})
	waitForFix(t, c)
	if c.State() != StateAcquiring || c.CanStart() {
		t.Fatalf("coarse fix must keep controller acquiring, got %v", c.State())
	}

	src.Push(Fix{Lat: 45.0001, Lng: 6, AccuracyM: 10})
	waitForFix(t, c)
	if c.State() != StateReady || !c.CanStart() {
		t.Fatalf("accurate fix must unblock launch, got %v", c.State())
	}
}

func TestRefreshBudget(t *testing.T) {
	c := NewController(&failingSource{err: ErrPermissionDenied}, 0, 0)
	c.Start(context.Background())

	for i := 0; i < 3; i++ {
		c.Refresh(context.Background())
	}
	if left := c.RefreshesLeft(); left != 0 {
		t.Fatalf("expected exhausted budget, got %d left", left)
	}

	c.Refresh(context.Background())
	if left := c.RefreshesLeft(); left != 0 {
		t.Fatalf("refresh past the budget must be a no-op")
	}
	if c.State() != StateDenied {
		t.Fatalf("expected denied, got %v", c.State())
	}
}

func TestStopReleasesSource(t *testing.T) {
	src := NewPushSource()
	c := NewController(src, 0, 0)
	c.Start(context.Background())
	c.Stop()

	if c.State() != StateIdle {
		t.Fatalf("expected idle after stop, got %v", c.State())
	}
	if src.Push(Fix{Lat: 1, Lng: 2, AccuracyM: 5}) {
		t.Fatalf("push after stop should be rejected")
	}
}
