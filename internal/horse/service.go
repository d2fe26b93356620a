package horse

import (
	"context"

	"github.com/Rayane-45/Horsly-sub001/internal/db"

	"github.com/google/uuid"
)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) CreateHorse(ctx context.Context, input Horse) (Horse, error) {
	input.ID = uuid.NewString()
	row := s.db.QueryRow(ctx, `
		INSERT INTO horses (id, owner_id, name, breed, birth_year, height_cm, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at
	`, input.ID, input.OwnerID, input.Name, input.Breed, input.BirthYear, input.HeightCm, input.Notes)
	if err := row.Scan(&input.CreatedAt, &input.UpdatedAt); err != nil {
		return Horse{}, err
	}
	return input, nil
}

func (s *Service) GetHorse(ctx context.Context, id string) (Horse, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, owner_id, name, breed, birth_year, height_cm, notes, created_at, updated_at
		FROM horses WHERE id=$1
	`, id)
	var h Horse
	if err := row.Scan(&h.ID, &h.OwnerID, &h.Name, &h.Breed, &h.BirthYear, &h.HeightCm, &h.Notes, &h.CreatedAt, &h.UpdatedAt); err != nil {
		return Horse{}, err
	}
	return h, nil
}

func (s *Service) ListHorses(ctx context.Context, ownerID string) ([]Horse, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, owner_id, name, breed, birth_year, height_cm, notes, created_at, updated_at
		FROM horses WHERE owner_id=$1
		ORDER BY name
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var horses []Horse
	for rows.Next() {
		var h Horse
		if err := rows.Scan(&h.ID, &h.OwnerID, &h.Name, &h.Breed, &h.BirthYear, &h.HeightCm, &h.Notes, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, err
		}
		horses = append(horses, h)
	}
	return horses, nil
}

func (s *Service) UpdateHorse(ctx context.Context, id string, patch Horse) (Horse, error) {
	h, err := s.GetHorse(ctx, id)
	if err != nil {
		return Horse{}, err
	}
	if patch.Name != "" {
		h.Name = patch.Name
	}
	if patch.Breed != "" {
		h.Breed = patch.Breed
	}
	if patch.BirthYear != 0 {
		h.BirthYear = patch.BirthYear
	}
	if patch.HeightCm != 0 {
		h.HeightCm = patch.HeightCm
	}
	if patch.Notes != "" {
		h.Notes = patch.Notes
	}

	_, err = s.db.Exec(ctx, `
		UPDATE horses
		SET name=$2, breed=$3, birth_year=$4, height_cm=$5, notes=$6, updated_at=now()
		WHERE id=$1
	`, h.ID, h.Name, h.Breed, h.BirthYear, h.HeightCm, h.Notes)
	if err != nil {
		return Horse{}, err
	}
	return h, nil
}

func (s *Service) DeleteHorse(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM horses WHERE id=$1`, id)
	return err
}
