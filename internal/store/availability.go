package store

import (
	"context"

	"college-appointments-api/internal/model"
)

const slotColumns = `id, professor_id, to_char(date,'YYYY-MM-DD'),
	to_char(start_time,'HH24:MI'), to_char(end_time,'HH24:MI'),
	is_available, created_at, updated_at`

// CreateSlot is the atomic write for availability: the unique tuple index
// rejects exact duplicates (ErrDuplicate) and the gist exclusion constraint
// rejects any interval overlap that slipped past the advisory pre-check
// (ErrOverlap).
func (s *Postgres) CreateSlot(ctx context.Context, slot *model.AvailabilitySlot) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO availability (id, professor_id, date, start_time, end_time, is_available)
		 VALUES ($1, $2, $3::date, $4::time, $5::time, $6)
		 RETURNING created_at, updated_at`,
		slot.ID, slot.ProfessorID, slot.Date, slot.StartTime, slot.EndTime, slot.IsAvailable,
	).Scan(&slot.CreatedAt, &slot.UpdatedAt)
	return translate(err)
}

func (s *Postgres) SlotByID(ctx context.Context, id string) (*model.AvailabilitySlot, error) {
	slot := &model.AvailabilitySlot{}
	err := s.pool.QueryRow(ctx,
		`SELECT `+slotColumns+` FROM availability WHERE id = $1`, id,
	).Scan(&slot.ID, &slot.ProfessorID, &slot.Date, &slot.StartTime, &slot.EndTime,
		&slot.IsAvailable, &slot.CreatedAt, &slot.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return slot, nil
}

func (s *Postgres) FindOpenSlot(ctx context.Context, professorID, date, start, end string) (*model.AvailabilitySlot, error) {
	slot := &model.AvailabilitySlot{}
	err := s.pool.QueryRow(ctx,
		`SELECT `+slotColumns+` FROM availability
		 WHERE professor_id = $1 AND date = $2::date
		   AND start_time = $3::time AND end_time = $4::time
		   AND is_available`,
		professorID, date, start, end,
	).Scan(&slot.ID, &slot.ProfessorID, &slot.Date, &slot.StartTime, &slot.EndTime,
		&slot.IsAvailable, &slot.CreatedAt, &slot.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return slot, nil
}

// ListSlots returns a professor's open slots ordered by (date, start),
// optionally narrowed to one calendar day.
func (s *Postgres) ListSlots(ctx context.Context, professorID, date string) ([]model.AvailabilitySlot, error) {
	q := `SELECT ` + slotColumns + ` FROM availability
	      WHERE professor_id = $1 AND is_available`
	args := []any{professorID}
	if date != "" {
		q += ` AND date = $2::date`
		args = append(args, date)
	}
	q += ` ORDER BY date, start_time`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var out []model.AvailabilitySlot
	for rows.Next() {
		var slot model.AvailabilitySlot
		if err := rows.Scan(&slot.ID, &slot.ProfessorID, &slot.Date, &slot.StartTime,
			&slot.EndTime, &slot.IsAvailable, &slot.CreatedAt, &slot.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, slot)
	}
	return out, rows.Err()
}

// SlotOverlaps runs the half-open interval test [start,end) against the
// professor's slots for that day.
func (s *Postgres) SlotOverlaps(ctx context.Context, professorID, date, start, end string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM availability
			WHERE professor_id = $1 AND date = $2::date
			  AND start_time < $4::time
			  AND end_time > $3::time)`,
		professorID, date, start, end,
	).Scan(&exists)
	return exists, translate(err)
}

func (s *Postgres) DeleteSlot(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM availability WHERE id = $1`, id)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
