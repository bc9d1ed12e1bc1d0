package store

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres implements Store on a pgxpool. Conflict detection rides on the
// schema's unique indexes and the availability exclusion constraint; pg error
// codes are mapped back to the sentinel errors here and nowhere else.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"
)

// translate maps low-level pgx errors onto store sentinels using the
// violated constraint's name.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		switch pgErr.ConstraintName {
		case "appointments_slot_active":
			return ErrSlotTaken
		case "appointments_student_active":
			return ErrStudentBusy
		default:
			return ErrDuplicate
		}
	case pgExclusionViolation:
		return ErrOverlap
	}
	return err
}
