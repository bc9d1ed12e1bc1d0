// Package booking holds the conflict-resolution core: every rule that
// decides whether a proposed booking or availability change is legal given
// current state. Checks made against reads here are advisory fast paths;
// the store's constrained writes are the correctness boundary, so every
// conflict error a write can return is mapped back to the same rejection
// the pre-check would have produced.
package booking

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"

	"college-appointments-api/internal/model"
	"college-appointments-api/internal/store"
)

// zero-padded 24h clock; "9:00" and "25:00" are both rejected
var timeRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

const dateLayout = "2006-01-02"

type Coordinator struct {
	store store.Store
	now   func() time.Time
}

func New(st store.Store) *Coordinator {
	return &Coordinator{store: st, now: time.Now}
}

func validTime(s string) bool {
	return timeRe.MatchString(s)
}

func validDate(s string) bool {
	_, err := time.Parse(dateLayout, s)
	return err == nil
}

// AddAvailability publishes an open slot for the calling professor.
func (c *Coordinator) AddAvailability(ctx context.Context, professorID, date, start, end string) (*model.AvailabilitySlot, error) {
	if date == "" || start == "" || end == "" {
		return nil, invalid("Date, start time, and end time are required")
	}
	if !validTime(start) || !validTime(end) {
		return nil, invalid("Time must be in HH:MM format")
	}
	// zero-padded HH:MM strings order correctly as intervals
	if start >= end {
		return nil, invalid("End time must be after start time")
	}
	if !validDate(date) {
		return nil, invalid("Date must be in YYYY-MM-DD format")
	}
	if date < c.now().Format(dateLayout) {
		return nil, invalid("Cannot add availability for past dates")
	}

	overlaps, err := c.store.SlotOverlaps(ctx, professorID, date, start, end)
	if err != nil {
		return nil, err
	}
	if overlaps {
		return nil, conflict("Time slot overlaps with existing availability")
	}

	slot := &model.AvailabilitySlot{
		ID:          uuid.New().String(),
		ProfessorID: professorID,
		Date:        date,
		StartTime:   start,
		EndTime:     end,
		IsAvailable: true,
	}
	if err := c.store.CreateSlot(ctx, slot); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicate):
			return nil, conflict("This time slot already exists")
		case errors.Is(err, store.ErrOverlap):
			// a concurrent insert won the exclusion constraint
			return nil, conflict("Time slot overlaps with existing availability")
		}
		return nil, err
	}
	return slot, nil
}

// ProfessorSlots lists a professor's open slots, optionally for one day.
func (c *Coordinator) ProfessorSlots(ctx context.Context, professorID, date string) ([]model.AvailabilitySlot, error) {
	if date != "" && !validDate(date) {
		return nil, invalid("Date must be in YYYY-MM-DD format")
	}
	return c.store.ListSlots(ctx, professorID, date)
}

// OpenSlots lists a professor's slots that no active appointment has
// claimed. The exclusion is computed per request: a slot shown here can
// still be taken before the caller books, and Book remains authoritative.
func (c *Coordinator) OpenSlots(ctx context.Context, professorID, date string) ([]model.AvailabilitySlot, error) {
	slots, err := c.ProfessorSlots(ctx, professorID, date)
	if err != nil {
		return nil, err
	}
	open := make([]model.AvailabilitySlot, 0, len(slots))
	for _, slot := range slots {
		booked, err := c.store.SlotBooked(ctx, slot.ProfessorID, slot.Date, slot.StartTime)
		if err != nil {
			return nil, err
		}
		if !booked {
			open = append(open, slot)
		}
	}
	return open, nil
}

// RemoveAvailability hard-deletes a slot. Only the owning professor may
// delete, and only while no scheduled appointment references the slot.
func (c *Coordinator) RemoveAvailability(ctx context.Context, callerID, slotID string) error {
	slot, err := c.store.SlotByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound("Availability slot not found")
		}
		return err
	}
	if slot.ProfessorID != callerID {
		return forbidden("Can only delete your own availability slots")
	}

	inUse, err := c.store.HasScheduledAppointment(ctx, slot.ProfessorID, slot.Date, slot.StartTime)
	if err != nil {
		return err
	}
	if inUse {
		return conflict("Cannot delete slot with scheduled appointment")
	}
	return c.store.DeleteSlot(ctx, slotID)
}

// Book creates a scheduled appointment for the calling student. The checks
// run in a fixed order so each failure mode is a distinct, stable rejection;
// the final insert re-decides the booked/busy checks atomically, so two
// concurrent bookings of the same slot can never both succeed.
func (c *Coordinator) Book(ctx context.Context, studentID, professorID, date, start, end, notes string) (*model.Appointment, error) {
	if professorID == "" || date == "" || start == "" || end == "" {
		return nil, invalid("Professor ID, date, start time, and end time are required")
	}
	if !validTime(start) || !validTime(end) {
		return nil, invalid("Time must be in HH:MM format")
	}
	if !validDate(date) {
		return nil, invalid("Date must be in YYYY-MM-DD format")
	}

	professor, err := c.store.UserByID(ctx, professorID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if professor == nil || professor.Role != model.RoleProfessor {
		return nil, invalid("Invalid professor ID")
	}

	if _, err := c.store.FindOpenSlot(ctx, professorID, date, start, end); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, conflict("Time slot is not available")
		}
		return nil, err
	}

	booked, err := c.store.SlotBooked(ctx, professorID, date, start)
	if err != nil {
		return nil, err
	}
	if booked {
		return nil, conflict("Time slot is already booked")
	}

	busy, err := c.store.StudentBusy(ctx, studentID, date, start)
	if err != nil {
		return nil, err
	}
	if busy {
		return nil, conflict("You already have an appointment at this time")
	}

	appt := &model.Appointment{
		ID:          uuid.New().String(),
		StudentID:   studentID,
		ProfessorID: professorID,
		Date:        date,
		StartTime:   start,
		EndTime:     end,
		Status:      model.StatusScheduled,
		Notes:       notes,
	}
	if err := c.store.CreateAppointment(ctx, appt); err != nil {
		switch {
		case errors.Is(err, store.ErrSlotTaken), errors.Is(err, store.ErrDuplicate):
			// lost the write race for the slot
			return nil, conflict("Time slot is already booked")
		case errors.Is(err, store.ErrStudentBusy):
			return nil, conflict("You already have an appointment at this time")
		}
		return nil, err
	}
	return appt, nil
}

// StudentAppointments returns the student's non-cancelled appointments
// ordered by date then start time.
func (c *Coordinator) StudentAppointments(ctx context.Context, studentID string) ([]model.Appointment, error) {
	return c.store.ListStudentAppointments(ctx, studentID)
}

// ProfessorAppointments is the professor-side counterpart of
// StudentAppointments.
func (c *Coordinator) ProfessorAppointments(ctx context.Context, professorID string) ([]model.Appointment, error) {
	return c.store.ListProfessorAppointments(ctx, professorID)
}

// Get returns one appointment to a caller on it (its student or professor).
func (c *Coordinator) Get(ctx context.Context, caller *model.User, id string) (*model.Appointment, error) {
	appt, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !onAppointment(caller, appt) {
		return nil, forbidden("Access denied")
	}
	return appt, nil
}

// Cancel moves an appointment to cancelled. Either party may cancel their
// own; a second cancel is reported, not silently absorbed. Cancelling a
// completed appointment stays permitted.
func (c *Coordinator) Cancel(ctx context.Context, caller *model.User, id string) (*model.Appointment, error) {
	appt, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.Role == model.RoleStudent && appt.StudentID != caller.ID {
		return nil, forbidden("Can only cancel your own appointments")
	}
	if caller.Role == model.RoleProfessor && appt.ProfessorID != caller.ID {
		return nil, forbidden("Can only cancel appointments with you")
	}
	if appt.Status == model.StatusCancelled {
		return nil, conflict("Appointment is already cancelled")
	}

	if err := c.store.SetAppointmentStatus(ctx, id, model.StatusCancelled); err != nil {
		return nil, err
	}
	appt.Status = model.StatusCancelled
	return appt, nil
}

// Complete marks an appointment completed; professor on it only, and only
// from the scheduled state.
func (c *Coordinator) Complete(ctx context.Context, caller *model.User, id string) (*model.Appointment, error) {
	appt, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.ProfessorID != caller.ID {
		return nil, forbidden("Can only complete appointments with you")
	}
	switch appt.Status {
	case model.StatusCancelled:
		return nil, conflict("Cannot complete a cancelled appointment")
	case model.StatusCompleted:
		return nil, conflict("Appointment is already completed")
	}

	if err := c.store.SetAppointmentStatus(ctx, id, model.StatusCompleted); err != nil {
		return nil, err
	}
	appt.Status = model.StatusCompleted
	return appt, nil
}

func (c *Coordinator) load(ctx context.Context, id string) (*model.Appointment, error) {
	appt, err := c.store.AppointmentByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("Appointment not found")
		}
		return nil, err
	}
	return appt, nil
}

func onAppointment(caller *model.User, appt *model.Appointment) bool {
	switch caller.Role {
	case model.RoleStudent:
		return appt.StudentID == caller.ID
	case model.RoleProfessor:
		return appt.ProfessorID == caller.ID
	}
	return false
}
