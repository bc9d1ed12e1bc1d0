package store

import (
	"context"

	"college-appointments-api/internal/model"
)

const appointmentColumns = `id, student_id, professor_id, to_char(date,'YYYY-MM-DD'),
	to_char(start_time,'HH24:MI'), to_char(end_time,'HH24:MI'),
	status, notes, created_at, updated_at`

// CreateAppointment is the authoritative guard against double booking. Two
// partial unique indexes (active rows only) decide the race: the slot index
// surfaces as ErrSlotTaken, the student index as ErrStudentBusy. Cancelled
// rows do not occupy either key, so a cancelled slot can be rebooked.
func (s *Postgres) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO appointments (id, student_id, professor_id, date, start_time, end_time, status, notes)
		 VALUES ($1, $2, $3, $4::date, $5::time, $6::time, $7, $8)
		 RETURNING created_at, updated_at`,
		a.ID, a.StudentID, a.ProfessorID, a.Date, a.StartTime, a.EndTime, a.Status, a.Notes,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	return translate(err)
}

func (s *Postgres) AppointmentByID(ctx context.Context, id string) (*model.Appointment, error) {
	a := &model.Appointment{}
	err := s.pool.QueryRow(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id,
	).Scan(&a.ID, &a.StudentID, &a.ProfessorID, &a.Date, &a.StartTime, &a.EndTime,
		&a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return a, nil
}

func (s *Postgres) ListStudentAppointments(ctx context.Context, studentID string) ([]model.Appointment, error) {
	return s.listAppointments(ctx, `student_id`, studentID)
}

func (s *Postgres) ListProfessorAppointments(ctx context.Context, professorID string) ([]model.Appointment, error) {
	return s.listAppointments(ctx, `professor_id`, professorID)
}

func (s *Postgres) listAppointments(ctx context.Context, ownerCol, ownerID string) ([]model.Appointment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+appointmentColumns+` FROM appointments
		 WHERE `+ownerCol+` = $1 AND status <> 'cancelled'
		 ORDER BY date, start_time`, ownerID,
	)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		var a model.Appointment
		if err := rows.Scan(&a.ID, &a.StudentID, &a.ProfessorID, &a.Date, &a.StartTime,
			&a.EndTime, &a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Postgres) SlotBooked(ctx context.Context, professorID, date, start string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM appointments
			WHERE professor_id = $1 AND date = $2::date AND start_time = $3::time
			  AND status <> 'cancelled')`,
		professorID, date, start,
	).Scan(&exists)
	return exists, translate(err)
}

func (s *Postgres) StudentBusy(ctx context.Context, studentID, date, start string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM appointments
			WHERE student_id = $1 AND date = $2::date AND start_time = $3::time
			  AND status <> 'cancelled')`,
		studentID, date, start,
	).Scan(&exists)
	return exists, translate(err)
}

// HasScheduledAppointment reports whether a still-scheduled appointment
// references the slot; it gates availability deletion.
func (s *Postgres) HasScheduledAppointment(ctx context.Context, professorID, date, start string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM appointments
			WHERE professor_id = $1 AND date = $2::date AND start_time = $3::time
			  AND status = 'scheduled')`,
		professorID, date, start,
	).Scan(&exists)
	return exists, translate(err)
}

func (s *Postgres) SetAppointmentStatus(ctx context.Context, id string, status model.AppointmentStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE appointments SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
