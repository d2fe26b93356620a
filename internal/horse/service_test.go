package horse

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
)

var errNotFound = errors.New("no rows")

func TestCreateAndGetHorse(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	createdAt := time.Now()

	mock.ExpectQuery(`INSERT INTO horses`).
		WithArgs(pgxmock.AnyArg(), "rider-1", "Éclair", "Selle Français", 2018, 165.0, "forward going").
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(createdAt, createdAt))

	svc := NewService(mock)
	h, err := svc.CreateHorse(context.Background(), Horse{
		OwnerID:   "rider-1",
		Name:      "Éclair",
		Breed:     "Selle Français",
		BirthYear: 2018,
		HeightCm:  165,
		Notes:     "forward going",
	})
	if err != nil {
		t.Fatalf("create horse: %v", err)
	}

	mock.ExpectQuery(`SELECT id, owner_id, name, breed, birth_year, height_cm, notes, created_at, updated_at`).
		WithArgs(h.ID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "owner_id", "name", "breed", "birth_year", "height_cm", "notes", "created_at", "updated_at"}).
			AddRow(h.ID, h.OwnerID, h.Name, h.Breed, h.BirthYear, h.HeightCm, h.Notes, h.CreatedAt, h.UpdatedAt))

	loaded, err := svc.GetHorse(context.Background(), h.ID)
	if err != nil {
		t.Fatalf("get horse: %v", err)
	}
	if loaded.ID != h.ID || loaded.Name != h.Name {
		t.Fatalf("unexpected horse loaded")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateListDelete(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	svc := NewService(mock)

	mock.ExpectQuery(`SELECT id, owner_id, name, breed, birth_year, height_cm, notes, created_at, updated_at`).
		WithArgs("horse-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "owner_id", "name", "breed", "birth_year", "height_cm", "notes", "created_at", "updated_at"}).
			AddRow("horse-1", "rider-1", "Éclair", "Selle Français", 2018, 165.0, "", time.Now(), time.Now()))

	mock.ExpectExec(`UPDATE horses`).
		WithArgs("horse-1", "Tonnerre", "Selle Français", 2018, 165.0, "").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	updated, err := svc.UpdateHorse(context.Background(), "horse-1", Horse{Name: "Tonnerre"})
	if err != nil {
		t.Fatalf("update horse: %v", err)
	}
	if updated.Name != "Tonnerre" {
		t.Fatalf("unexpected update")
	}
	if updated.Breed != "Selle Français" {
		t.Fatalf("patch should keep unset fields")
	}

	mock.ExpectQuery(`SELECT id, owner_id, name, breed, birth_year, height_cm, notes, created_at, updated_at`).
		WithArgs("rider-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "owner_id", "name", "breed", "birth_year", "height_cm", "notes", "created_at", "updated_at"}).
			AddRow("horse-1", "rider-1", "Tonnerre", "Selle Français", 2018, 165.0, "", time.Now(), time.Now()))

	horses, err := svc.ListHorses(context.Background(), "rider-1")
	if err != nil || len(horses) != 1 {
		t.Fatalf("list horses: %v", err)
	}

	mock.ExpectExec(`DELETE FROM horses`).WithArgs("horse-1").WillReturnResult(pgxmock.NewResult("DELETE", 1))
	if err := svc.DeleteHorse(context.Background(), "horse-1"); err != nil {
		t.Fatalf("delete horse: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetHorseNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, owner_id, name, breed, birth_year, height_cm, notes, created_at, updated_at`).
		WithArgs("missing").
		WillReturnError(errNotFound)

	svc := NewService(mock)
	if _, err := svc.GetHorse(context.Background(), "missing"); err == nil {
		t.Fatalf("expected error")
	}
}
