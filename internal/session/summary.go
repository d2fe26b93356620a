package session

import (
	"time"

	"github.com/Rayane-45/Horsly-sub001/internal/fit"
	"github.com/Rayane-45/Horsly-sub001/internal/gait"
	"github.com/Rayane-45/Horsly-sub001/internal/gpx"
	"github.com/Rayane-45/Horsly-sub001/internal/shared/geo"
)

// BuildSummary reduces a completed session into its persistable shape. Pure
// and deterministic: only the session's own recorded timestamps appear, so
// building twice from the same inputs yields identical summaries.
func BuildSummary(id string, cfg Config, samples []Sample, stats *Stats, startedAt, endedAt time.Time, notes string) Summary {
	s := Summary{
		SessionID:   id,
		HorseID:     cfg.HorseID,
		Type:        cfg.Type,
		StartedAt:   startedAt,
		EndedAt:     endedAt,
		Notes:       notes,
		GaitSeconds: map[gait.Label]int{},
		SampleCount: len(samples),
	}
	if stats != nil {
		s.DurationSec = stats.ElapsedMs / 1000
		s.DistanceM = stats.DistanceM
		s.AvgSpeedKmh = stats.AvgSpeedKmh
		s.MaxSpeedKmh = stats.MaxSpeedKmh
		for k, v := range stats.GaitBreakdown {
			s.GaitSeconds[k] = v
		}
	}
	return s
}

// GPXPoints projects recorded samples into GPX track points.
func GPXPoints(samples []Sample) []gpx.Point {
	points := make([]gpx.Point, 0, len(samples))
	for _, s := range samples {
		points = append(points, gpx.Point{
			Lat:      s.Fix.Lat,
			Lng:      s.Fix.Lng,
			Time:     s.Fix.Timestamp,
			SpeedKmh: s.Fix.SpeedKmh,
		})
	}
	return points
}

// FITRecords projects recorded samples into FIT records, carrying the
// cumulative distance at each point with the same zero-distance rule used
// while tracking.
func FITRecords(samples []Sample) []fit.Record {
	records := make([]fit.Record, 0, len(samples))
	total := 0.0
	for i, s := range samples {
		if i > 0 {
			prev := samples[i-1].Fix
			if prev.Lat != s.Fix.Lat || prev.Lng != s.Fix.Lng {
				total += geo.HaversineM(prev.Lat, prev.Lng, s.Fix.Lat, s.Fix.Lng)
			}
		}
		records = append(records, fit.Record{
			Lat:       s.Fix.Lat,
			Lng:       s.Fix.Lng,
			Time:      s.Fix.Timestamp,
			DistanceM: total,
			SpeedKmh:  s.Fix.SpeedKmh,
		})
	}
	return records
}

// FITActivity maps a summary onto the FIT session totals.
func FITActivity(s Summary) fit.Activity {
	return fit.Activity{
		StartedAt:   s.StartedAt,
		EndedAt:     s.EndedAt,
		DurationSec: s.DurationSec,
		DistanceM:   s.DistanceM,
	}
}
