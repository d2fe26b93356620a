package fit

import (
	"bytes"
	"time"

	"github.com/muktihari/fit/encoder"
	"github.com/muktihari/fit/profile/mesgdef"
	"github.com/muktihari/fit/profile/typedef"
	"github.com/muktihari/fit/proto"
)

// FIT positions are semicircles, not degrees.
const degreesToSemicircles = 2147483648.0 / 180.0

// Record is one recorded position with the cumulative distance at that point.
type Record struct {
	Lat       float64
	Lng       float64
	Time      time.Time
	DistanceM float64
	SpeedKmh  *float64
}

// Activity carries the session totals written to the lap and session
// messages. DurationSec is the pause-exclusive moving time.
type Activity struct {
	StartedAt   time.Time
	EndedAt     time.Time
	DurationSec int64
	DistanceM   float64
}

// Encode renders a FIT activity file. All timestamps come from the recorded
// session, so output is deterministic for the same input.
func Encode(a Activity, records []Record) ([]byte, error) {
	f := proto.FIT{}

	fileID := mesgdef.FileId{
		Type:         typedef.FileActivity,
		Manufacturer: typedef.ManufacturerDevelopment,
		Product:      0,
		SerialNumber: 1,
		TimeCreated:  a.StartedAt,
	}
	f.Messages = append(f.Messages, fileID.ToMesg(nil))

	for _, r := range records {
		rec := mesgdef.Record{
			Timestamp:    r.Time,
			PositionLat:  int32(r.Lat * degreesToSemicircles),
			PositionLong: int32(r.Lng * degreesToSemicircles),
			Distance:     uint32(r.DistanceM * 100), // cm
		}
		if r.SpeedKmh != nil {
			rec.EnhancedSpeed = uint32(*r.SpeedKmh / 3.6 * 1000) // mm/s
		}
		f.Messages = append(f.Messages, rec.ToMesg(nil))
	}

	event := mesgdef.Event{
		Timestamp: a.EndedAt,
		Event:     typedef.EventTimer,
		EventType: typedef.EventTypeStopAll,
	}
	f.Messages = append(f.Messages, event.ToMesg(nil))

	elapsedMs := uint32(a.EndedAt.Sub(a.StartedAt).Milliseconds())
	timerMs := uint32(a.DurationSec * 1000)
	distanceCm := uint32(a.DistanceM * 100)

	lap := mesgdef.Lap{
		Timestamp:        a.EndedAt,
		StartTime:        a.StartedAt,
		TotalElapsedTime: elapsedMs,
		TotalTimerTime:   timerMs,
		TotalDistance:    distanceCm,
		Event:            typedef.EventLap,
		EventType:        typedef.EventTypeStop,
	}
	f.Messages = append(f.Messages, lap.ToMesg(nil))

	session := mesgdef.Session{
		Timestamp:        a.EndedAt,
		StartTime:        a.StartedAt,
		TotalElapsedTime: elapsedMs,
		TotalTimerTime:   timerMs,
		TotalDistance:    distanceCm,
		Sport:            typedef.SportHorsebackRiding,
		SubSport:         typedef.SubSportGeneric,
		Event:            typedef.EventSession,
		EventType:        typedef.EventTypeStop,
		Trigger:          typedef.SessionTriggerActivityEnd,
	}
	f.Messages = append(f.Messages, session.ToMesg(nil))

	var buf bytes.Buffer
	if err := encoder.New(&buf).Encode(&f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
