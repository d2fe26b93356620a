package session

import (
	"time"

	"github.com/Rayane-45/Horsly-sub001/internal/gait"
	"github.com/Rayane-45/Horsly-sub001/internal/sensor"
)

// State is the lifecycle position of a training session. Saved and discarded
// are terminal; nothing transitions out of them.
type State string

const (
	StatePrep      State = "prep"
	StateRunning   State = "running"
	StatePaused    State = "paused"
	StateCompleted State = "completed"
	StateSaved     State = "saved"
	StateDiscarded State = "discarded"
)

// Config is chosen during preparation and immutable once the session starts.
type Config struct {
	HorseID         string  `json:"horse_id"`
	Type            string  `json:"type"`
	GoalDurationSec int64   `json:"goal_duration_sec,omitempty"`
	GoalDistanceM   float64 `json:"goal_distance_m,omitempty"`
	AutoPause       bool    `json:"auto_pause"`
	GaitDetection   bool    `json:"gait_detection"`
	SharePosition   bool    `json:"share_position"`
}

// Sample is one accepted fix plus the gait label held when it arrived.
// Samples are append-only for the life of a running session.
type Sample struct {
	Fix  sensor.Fix `json:"fix"`
	Gait gait.Label `json:"gait"`
}

// Stats is an immutable snapshot of the live statistics. Every update builds
// a fresh value and swaps the pointer, so readers never observe a partially
// updated snapshot.
type Stats struct {
	ElapsedMs     int64              `json:"elapsed_ms"`
	DistanceM     float64            `json:"distance_m"`
	AvgSpeedKmh   float64            `json:"avg_speed_kmh"`
	MaxSpeedKmh   float64            `json:"max_speed_kmh"`
	HeadingDeg    float64            `json:"heading_deg"`
	Gait          gait.Label         `json:"gait"`
	GaitBreakdown map[gait.Label]int `json:"gait_breakdown"`
	SampleCount   int                `json:"sample_count"`
}

// Summary is the persisted projection of a completed session.
type Summary struct {
	SessionID   string             `json:"session_id"`
	HorseID     string             `json:"horse_id"`
	Type        string             `json:"type"`
	StartedAt   time.Time          `json:"started_at"`
	EndedAt     time.Time          `json:"ended_at"`
	DurationSec int64              `json:"duration_sec"`
	DistanceM   float64            `json:"distance_m"`
	AvgSpeedKmh float64            `json:"avg_speed_kmh"`
	MaxSpeedKmh float64            `json:"max_speed_kmh"`
	GaitSeconds map[gait.Label]int `json:"gait_seconds"`
	Notes       string             `json:"notes"`
	SampleCount int                `json:"sample_count"`
}

// LiveUpdate is the payload broadcast to stream viewers on every change.
type LiveUpdate struct {
	SessionID string      `json:"session_id"`
	State     State       `json:"state"`
	Fix       *sensor.Fix `json:"fix,omitempty"`
	Stats     *Stats      `json:"stats,omitempty"`
}

// Snapshot is the read-only view served to clients.
type Snapshot struct {
	ID            string       `json:"id"`
	State         State        `json:"state"`
	Config        Config       `json:"config"`
	SensorState   sensor.State `json:"sensor_state"`
	CanStart      bool         `json:"can_start"`
	Prerequisites []string     `json:"prerequisites,omitempty"`
	Fix           *sensor.Fix  `json:"fix,omitempty"`
	Stats         *Stats       `json:"stats,omitempty"`
	StartedAt     *time.Time   `json:"started_at,omitempty"`
	EndedAt       *time.Time   `json:"ended_at,omitempty"`
}
