package sensor

import "time"

// FixSource tells consumers whether a position came from the real sensor or
// was synthesized as a network-level fallback.
type FixSource string

const (
	SourceSensor          FixSource = "sensor"
	SourceNetworkFallback FixSource = "network_fallback"
)

// Fix is a single reported position. Immutable once emitted.
type Fix struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	AccuracyM float64   `json:"accuracy_m"`
	Source    FixSource `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	SpeedKmh  *float64  `json:"speed_kmh,omitempty"`
}
