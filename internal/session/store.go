package session

import (
	"context"
	"encoding/json"

	"github.com/Rayane-45/Horsly-sub001/internal/db"
	"github.com/Rayane-45/Horsly-sub001/internal/gait"
)

// Store persists completed session summaries.
type Store interface {
	SaveSession(ctx context.Context, s Summary) error
	ListSummaries(ctx context.Context, horseID string) ([]Summary, error)
}

type PGStore struct {
	db db.Querier
}

func NewPGStore(q db.Querier) *PGStore {
	return &PGStore{db: q}
}

// SaveSession inserts the summary keyed by session id. Re-saving the same
// session is a no-op, so a retried save cannot double-insert.
func (s *PGStore) SaveSession(ctx context.Context, sum Summary) error {
	gaits, err := json.Marshal(sum.GaitSeconds)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO training_sessions
			(id, horse_id, session_type, started_at, ended_at, duration_s, distance_m, avg_speed_kmh, max_speed_kmh, gait_seconds, notes, sample_count)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (id) DO NOTHING
	`, sum.SessionID, sum.HorseID, sum.Type, sum.StartedAt, sum.EndedAt, sum.DurationSec,
		sum.DistanceM, sum.AvgSpeedKmh, sum.MaxSpeedKmh, gaits, sum.Notes, sum.SampleCount)
	return err
}

func (s *PGStore) ListSummaries(ctx context.Context, horseID string) ([]Summary, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, horse_id, session_type, started_at, ended_at, duration_s, distance_m, avg_speed_kmh, max_speed_kmh, gait_seconds, COALESCE(notes,''), sample_count
		FROM training_sessions
		WHERE horse_id=$1
		ORDER BY started_at DESC
	`, horseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var gaits []byte
		if err := rows.Scan(&sum.SessionID, &sum.HorseID, &sum.Type, &sum.StartedAt, &sum.EndedAt,
			&sum.DurationSec, &sum.DistanceM, &sum.AvgSpeedKmh, &sum.MaxSpeedKmh, &gaits, &sum.Notes, &sum.SampleCount); err != nil {
			return nil, err
		}
		sum.GaitSeconds = map[gait.Label]int{}
		if len(gaits) > 0 {
			if err := json.Unmarshal(gaits, &sum.GaitSeconds); err != nil {
				return nil, err
			}
		}
		out = append(out, sum)
	}
	return out, nil
}
