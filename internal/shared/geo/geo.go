package geo

import (
	"math"
	"time"

	"github.com/golang/geo/s2"
)

const earthRadiusM = 6371000.0

// HaversineM returns the great-circle distance in meters between two
// latitude/longitude pairs given in degrees.
func HaversineM(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusM * c
}

// Point is a bare coordinate pair used for aggregate distance math.
type Point struct {
	Lat float64
	Lng float64
}

// CumulativeDistanceM sums the pairwise Haversine distance over consecutive
// points. Fewer than two points yields 0.
func CumulativeDistanceM(points []Point) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += HaversineM(points[i-1].Lat, points[i-1].Lng, points[i].Lat, points[i].Lng)
	}
	return total
}

// AverageSpeedKmh converts a distance covered over an elapsed duration into
// km/h. Zero or negative elapsed yields 0.
func AverageSpeedKmh(distanceM float64, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return (distanceM / 1000) / elapsed.Hours()
}

// BearingDeg returns the initial bearing from the first point to the second,
// in degrees clockwise from north (0-360).
func BearingDeg(lat1, lng1, lat2, lng2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lng1)
	p2 := s2.LatLngFromDegrees(lat2, lng2)

	lonDiff := p2.Lng.Radians() - p1.Lng.Radians()
	y := math.Sin(lonDiff) * math.Cos(p2.Lat.Radians())
	x := math.Cos(p1.Lat.Radians())*math.Sin(p2.Lat.Radians()) -
		math.Sin(p1.Lat.Radians())*math.Cos(p2.Lat.Radians())*math.Cos(lonDiff)

	deg := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}
