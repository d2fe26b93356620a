package geo

import (
	"math"
	"testing"
	"time"
)

func TestHaversineMSymmetric(t *testing.T) {
	a := HaversineM(48.8566, 2.3522, 48.8666, 2.3622)
	b := HaversineM(48.8666, 2.3622, 48.8566, 2.3522)
	if math.Abs(a-b) > 1e-9 {
		t.Fatalf("expected symmetric distance, got %v vs %v", a, b)
	}
}

func TestHaversineMZero(t *testing.T) {
	if d := HaversineM(48.8566, 2.3522, 48.8566, 2.3522); d != 0 {
		t.Fatalf("expected zero distance, got %v", d)
	}
}

func TestHaversineMOneDegreeLatitude(t *testing.T) {
	// one degree of latitude is ~111 km anywhere on the sphere
	d := HaversineM(45.0, 6.0, 46.0, 6.0)
	if d < 110000 || d > 112500 {
		t.Fatalf("unexpected distance for 1 degree latitude: %v", d)
	}
}

func TestCumulativeDistanceM(t *testing.T) {
	if d := CumulativeDistanceM(nil); d != 0 {
		t.Fatalf("expected 0 for empty input, got %v", d)
	}
	if d := CumulativeDistanceM([]Point{{48.8566, 2.3522}}); d != 0 {
		t.Fatalf("expected 0 for single point, got %v", d)
	}

	points := []Point{{45.0, 6.0}, {45.5, 6.0}, {46.0, 6.0}}
	whole := CumulativeDistanceM(points)
	direct := HaversineM(45.0, 6.0, 46.0, 6.0)
	if math.Abs(whole-direct) > 1 {
		t.Fatalf("expected segment sum ~ direct distance, got %v vs %v", whole, direct)
	}
}

func TestAverageSpeedKmh(t *testing.T) {
	if v := AverageSpeedKmh(1000, 0); v != 0 {
		t.Fatalf("expected 0 for zero elapsed, got %v", v)
	}
	v := AverageSpeedKmh(5000, 30*time.Minute)
	if math.Abs(v-10) > 1e-9 {
		t.Fatalf("expected 10 km/h, got %v", v)
	}
}

func TestBearingDeg(t *testing.T) {
	north := BearingDeg(45.0, 6.0, 46.0, 6.0)
	if math.Abs(north) > 0.5 {
		t.Fatalf("expected ~0 for due north, got %v", north)
	}
	east := BearingDeg(0.0, 6.0, 0.0, 7.0)
	if math.Abs(east-90) > 0.5 {
		t.Fatalf("expected ~90 for due east, got %v", east)
	}
}
