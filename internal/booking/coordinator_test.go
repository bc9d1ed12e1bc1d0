package booking_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"college-appointments-api/internal/booking"
	"college-appointments-api/internal/model"
	"college-appointments-api/internal/store/memory"
)

func setup(t *testing.T) (*booking.Coordinator, *memory.Memory) {
	t.Helper()
	st := memory.New()
	return booking.New(st), st
}

func addUser(t *testing.T, st *memory.Memory, role model.Role) *model.User {
	t.Helper()
	u := &model.User{
		ID:    uuid.New().String(),
		Name:  fmt.Sprintf("%s user", role),
		Email: fmt.Sprintf("%s@college.edu", uuid.New().String()[:8]),
		Role:  role,
	}
	if err := st.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func tomorrow() string {
	return time.Now().AddDate(0, 0, 1).Format("2006-01-02")
}

func wantKind(t *testing.T, err error, kind booking.Kind, msg string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %q, got nil", msg)
	}
	be, ok := err.(*booking.Error)
	if !ok {
		t.Fatalf("expected *booking.Error, got %T: %v", err, err)
	}
	if be.Kind != kind {
		t.Errorf("kind: got %v, want %v", be.Kind, kind)
	}
	if be.Message != msg {
		t.Errorf("message: got %q, want %q", be.Message, msg)
	}
}

// ----- availability -----

func TestAddAvailability(t *testing.T) {
	c, st := setup(t)
	prof := addUser(t, st, model.RoleProfessor)

	slot, err := c.AddAvailability(context.Background(), prof.ID, tomorrow(), "09:00", "10:00")
	if err != nil {
		t.Fatalf("add availability: %v", err)
	}
	if slot.ID == "" {
		t.Fatal("empty slot id")
	}
	if !slot.IsAvailable {
		t.Error("new slot should be available")
	}
	if slot.ProfessorID != prof.ID {
		t.Errorf("professor id: got %s", slot.ProfessorID)
	}
}

func TestAddAvailabilityValidation(t *testing.T) {
	c, st := setup(t)
	prof := addUser(t, st, model.RoleProfessor)
	day := tomorrow()

	tests := []struct {
		name             string
		date, start, end string
		msg              string
	}{
		{"missing date", "", "09:00", "10:00", "Date, start time, and end time are required"},
		{"missing start", day, "", "10:00", "Date, start time, and end time are required"},
		{"missing end", day, "09:00", "", "Date, start time, and end time are required"},
		{"no zero pad", day, "9:00", "10:00", "Time must be in HH:MM format"},
		{"hour out of range", day, "25:00", "26:00", "Time must be in HH:MM format"},
		{"minute out of range", day, "09:60", "10:00", "Time must be in HH:MM format"},
		{"end before start", day, "10:00", "09:00", "End time must be after start time"},
		{"end equals start", day, "09:00", "09:00", "End time must be after start time"},
		{"garbage date", "not-a-date", "09:00", "10:00", "Date must be in YYYY-MM-DD format"},
		{"past date", "2020-01-01", "09:00", "10:00", "Cannot add availability for past dates"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.AddAvailability(context.Background(), prof.ID, tt.date, tt.start, tt.end)
			wantKind(t, err, booking.KindInvalid, tt.msg)
		})
	}
}

func TestAddAvailabilityOverlap(t *testing.T) {
	c, st := setup(t)
	prof := addUser(t, st, model.RoleProfessor)
	day := tomorrow()

	if _, err := c.AddAvailability(context.Background(), prof.ID, day, "09:00", "10:00"); err != nil {
		t.Fatalf("first slot: %v", err)
	}

	// partial overlap
	_, err := c.AddAvailability(context.Background(), prof.ID, day, "09:30", "10:30")
	wantKind(t, err, booking.KindConflict, "Time slot overlaps with existing availability")

	// containing interval
	_, err = c.AddAvailability(context.Background(), prof.ID, day, "08:00", "11:00")
	wantKind(t, err, booking.KindConflict, "Time slot overlaps with existing availability")

	// adjacent is fine, intervals are half-open
	if _, err := c.AddAvailability(context.Background(), prof.ID, day, "10:00", "11:00"); err != nil {
		t.Fatalf("adjacent slot should not conflict: %v", err)
	}

	// another professor can publish the same interval
	other := addUser(t, st, model.RoleProfessor)
	if _, err := c.AddAvailability(context.Background(), other.ID, day, "09:00", "10:00"); err != nil {
		t.Fatalf("other professor same interval: %v", err)
	}
}

func TestRemoveAvailability(t *testing.T) {
	c, st := setup(t)
	prof := addUser(t, st, model.RoleProfessor)
	other := addUser(t, st, model.RoleProfessor)
	student := addUser(t, st, model.RoleStudent)
	day := tomorrow()

	slot, err := c.AddAvailability(context.Background(), prof.ID, day, "09:00", "10:00")
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	err = c.RemoveAvailability(context.Background(), other.ID, slot.ID)
	wantKind(t, err, booking.KindForbidden, "Can only delete your own availability slots")

	err = c.RemoveAvailability(context.Background(), prof.ID, uuid.New().String())
	wantKind(t, err, booking.KindNotFound, "Availability slot not found")

	appt, err := c.Book(context.Background(), student.ID, prof.ID, day, "09:00", "10:00", "")
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	// live booking blocks deletion
	err = c.RemoveAvailability(context.Background(), prof.ID, slot.ID)
	wantKind(t, err, booking.KindConflict, "Cannot delete slot with scheduled appointment")

	if _, err := c.Cancel(context.Background(), student, appt.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	// cancelled booking no longer blocks
	if err := c.RemoveAvailability(context.Background(), prof.ID, slot.ID); err != nil {
		t.Fatalf("delete after cancel: %v", err)
	}
}

// ----- booking -----

func TestBook(t *testing.T) {
	c, st := setup(t)
	prof := addUser(t, st, model.RoleProfessor)
	student := addUser(t, st, model.RoleStudent)
	day := tomorrow()

	if _, err := c.AddAvailability(context.Background(), prof.ID, day, "09:00", "10:00"); err != nil {
		t.Fatalf("add availability: %v", err)
	}

	appt, err := c.Book(context.Background(), student.ID, prof.ID, day, "09:00", "10:00", "thesis review")
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if appt.Status != model.StatusScheduled {
		t.Errorf("status: got %s", appt.Status)
	}
	if appt.Notes != "thesis review" {
		t.Errorf("notes: got %q", appt.Notes)
	}
	if appt.StudentID != student.ID || appt.ProfessorID != prof.ID {
		t.Error("party ids not recorded")
	}
}

func TestBookValidation(t *testing.T) {
	c, st := setup(t)
	prof := addUser(t, st, model.RoleProfessor)
	student := addUser(t, st, model.RoleStudent)
	day := tomorrow()

	_, err := c.Book(context.Background(), student.ID, "", day, "09:00", "10:00", "")
	wantKind(t, err, booking.KindInvalid, "Professor ID, date, start time, and end time are required")

	_, err = c.Book(context.Background(), student.ID, prof.ID, day, "9:00", "10:00", "")
	wantKind(t, err, booking.KindInvalid, "Time must be in HH:MM format")

	// unknown professor
	_, err = c.Book(context.Background(), student.ID, uuid.New().String(), day, "09:00", "10:00", "")
	wantKind(t, err, booking.KindInvalid, "Invalid professor ID")

	// a student id is not a professor id
	other := addUser(t, st, model.RoleStudent)
	_, err = c.Book(context.Background(), student.ID, other.ID, day, "09:00", "10:00", "")
	wantKind(t, err, booking.KindInvalid, "Invalid professor ID")

	// no availability published
	_, err = c.Book(context.Background(), student.ID, prof.ID, day, "09:00", "10:00", "")
	wantKind(t, err, booking.KindConflict, "Time slot is not available")
}

func TestBookSlotAlreadyBooked(t *testing.T) {
	c, st := setup(t)
	prof := addUser(t, st, model.RoleProfessor)
	s1 := addUser(t, st, model.RoleStudent)
	s2 := addUser(t, st, model.RoleStudent)
	day := tomorrow()

	if _, err := c.AddAvailability(context.Background(), prof.ID, day, "09:00", "10:00"); err != nil {
		t.Fatalf("add availability: %v", err)
	}
	if _, err := c.Book(context.Background(), s1.ID, prof.ID, day, "09:00", "10:00", ""); err != nil {
		t.Fatalf("first booking: %v", err)
	}

	_, err := c.Book(context.Background(), s2.ID, prof.ID, day, "09:00", "10:00", "")
	wantKind(t, err, booking.KindConflict, "Time slot is already booked")
}

func TestBookStudentTimeConflict(t *testing.T) {
	c, st := setup(t)
	p1 := addUser(t, st, model.RoleProfessor)
	p2 := addUser(t, st, model.RoleProfessor)
	student := addUser(t, st, model.RoleStudent)
	day := tomorrow()

	for _, p := range []*model.User{p1, p2} {
		if _, err := c.AddAvailability(context.Background(), p.ID, day, "09:00", "10:00"); err != nil {
			t.Fatalf("add availability: %v", err)
		}
	}
	if _, err := c.Book(context.Background(), student.ID, p1.ID, day, "09:00", "10:00", ""); err != nil {
		t.Fatalf("first booking: %v", err)
	}

	// same student, same time, different professor
	_, err := c.Book(context.Background(), student.ID, p2.ID, day, "09:00", "10:00", "")
	wantKind(t, err, booking.KindConflict, "You already have an appointment at this time")
}

func TestConcurrentBooking(t *testing.T) {
	c, st := setup(t)
	prof := addUser(t, st, model.RoleProfessor)
	day := tomorrow()

	if _, err := c.AddAvailability(context.Background(), prof.ID, day, "09:00", "10:00"); err != nil {
		t.Fatalf("add availability: %v", err)
	}

	const n = 10
	students := make([]*model.User, n)
	for i := range students {
		students[i] = addUser(t, st, model.RoleStudent)
	}

	var wg sync.WaitGroup
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := c.Book(context.Background(), students[i].ID, prof.ID, day, "09:00", "10:00", "")
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	successes, conflicts := 0, 0
	for err := range results {
		switch {
		case err == nil:
			successes++
		default:
			be, ok := err.(*booking.Error)
			if !ok || be.Kind != booking.KindConflict {
				t.Errorf("unexpected error: %v", err)
				continue
			}
			conflicts++
		}
	}
	if successes != 1 {
		t.Errorf("expected exactly 1 success, got %d", successes)
	}
	if conflicts != n-1 {
		t.Errorf("expected %d conflicts, got %d", n-1, conflicts)
	}
}

func TestRebookAfterCancel(t *testing.T) {
	c, st := setup(t)
	prof := addUser(t, st, model.RoleProfessor)
	s1 := addUser(t, st, model.RoleStudent)
	s2 := addUser(t, st, model.RoleStudent)
	day := tomorrow()

	if _, err := c.AddAvailability(context.Background(), prof.ID, day, "09:00", "10:00"); err != nil {
		t.Fatalf("add availability: %v", err)
	}
	appt, err := c.Book(context.Background(), s1.ID, prof.ID, day, "09:00", "10:00", "")
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if _, err := c.Cancel(context.Background(), s1, appt.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	// cancelled rows free the uniqueness key for everyone, the original
	// student included
	if _, err := c.Book(context.Background(), s2.ID, prof.ID, day, "09:00", "10:00", ""); err != nil {
		t.Fatalf("rebook by another student: %v", err)
	}
}

// ----- status transitions -----

func TestCancel(t *testing.T) {
	c, st := setup(t)
	prof := addUser(t, st, model.RoleProfessor)
	student := addUser(t, st, model.RoleStudent)
	stranger := addUser(t, st, model.RoleStudent)
	day := tomorrow()

	if _, err := c.AddAvailability(context.Background(), prof.ID, day, "09:00", "10:00"); err != nil {
		t.Fatalf("add availability: %v", err)
	}
	appt, err := c.Book(context.Background(), student.ID, prof.ID, day, "09:00", "10:00", "")
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	_, err = c.Cancel(context.Background(), stranger, appt.ID)
	wantKind(t, err, booking.KindForbidden, "Can only cancel your own appointments")

	got, err := c.Cancel(context.Background(), student, appt.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got.Status != model.StatusCancelled {
		t.Errorf("status: got %s", got.Status)
	}

	// second cancel is a detected error, not a silent success
	_, err = c.Cancel(context.Background(), student, appt.ID)
	wantKind(t, err, booking.KindConflict, "Appointment is already cancelled")
}

func TestProfessorCancel(t *testing.T) {
	c, st := setup(t)
	prof := addUser(t, st, model.RoleProfessor)
	other := addUser(t, st, model.RoleProfessor)
	student := addUser(t, st, model.RoleStudent)
	day := tomorrow()

	if _, err := c.AddAvailability(context.Background(), prof.ID, day, "09:00", "10:00"); err != nil {
		t.Fatalf("add availability: %v", err)
	}
	appt, err := c.Book(context.Background(), student.ID, prof.ID, day, "09:00", "10:00", "")
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	_, err = c.Cancel(context.Background(), other, appt.ID)
	wantKind(t, err, booking.KindForbidden, "Can only cancel appointments with you")

	if _, err := c.Cancel(context.Background(), prof, appt.ID); err != nil {
		t.Fatalf("professor cancel: %v", err)
	}
}

func TestComplete(t *testing.T) {
	c, st := setup(t)
	prof := addUser(t, st, model.RoleProfessor)
	other := addUser(t, st, model.RoleProfessor)
	student := addUser(t, st, model.RoleStudent)
	day := tomorrow()

	if _, err := c.AddAvailability(context.Background(), prof.ID, day, "09:00", "10:00"); err != nil {
		t.Fatalf("add availability: %v", err)
	}
	appt, err := c.Book(context.Background(), student.ID, prof.ID, day, "09:00", "10:00", "")
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	_, err = c.Complete(context.Background(), other, appt.ID)
	wantKind(t, err, booking.KindForbidden, "Can only complete appointments with you")

	got, err := c.Complete(context.Background(), prof, appt.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got.Status != model.StatusCompleted {
		t.Errorf("status: got %s", got.Status)
	}

	_, err = c.Complete(context.Background(), prof, appt.ID)
	wantKind(t, err, booking.KindConflict, "Appointment is already completed")

	// completed appointments can still be cancelled
	if _, err := c.Cancel(context.Background(), prof, appt.ID); err != nil {
		t.Fatalf("cancel completed: %v", err)
	}

	_, err = c.Complete(context.Background(), prof, appt.ID)
	wantKind(t, err, booking.KindConflict, "Cannot complete a cancelled appointment")
}

// ----- queries -----

func TestOpenSlotsExcludeBooked(t *testing.T) {
	c, st := setup(t)
	prof := addUser(t, st, model.RoleProfessor)
	student := addUser(t, st, model.RoleStudent)
	day := tomorrow()

	for _, win := range [][2]string{{"09:00", "10:00"}, {"10:00", "11:00"}, {"11:00", "12:00"}} {
		if _, err := c.AddAvailability(context.Background(), prof.ID, day, win[0], win[1]); err != nil {
			t.Fatalf("add availability: %v", err)
		}
	}
	if _, err := c.Book(context.Background(), student.ID, prof.ID, day, "10:00", "11:00", ""); err != nil {
		t.Fatalf("book: %v", err)
	}

	open, err := c.OpenSlots(context.Background(), prof.ID, day)
	if err != nil {
		t.Fatalf("open slots: %v", err)
	}
	if len(open) != 2 {
		t.Fatalf("expected 2 open slots, got %d", len(open))
	}
	for _, s := range open {
		if s.StartTime == "10:00" {
			t.Error("booked slot listed as open")
		}
	}
}

func TestAppointmentListOrdering(t *testing.T) {
	c, st := setup(t)
	prof := addUser(t, st, model.RoleProfessor)
	student := addUser(t, st, model.RoleStudent)
	day1 := tomorrow()
	day2 := time.Now().AddDate(0, 0, 2).Format("2006-01-02")

	// book out of order
	for _, b := range []struct{ date, start, end string }{
		{day2, "09:00", "10:00"},
		{day1, "14:00", "15:00"},
		{day1, "09:00", "10:00"},
	} {
		if _, err := c.AddAvailability(context.Background(), prof.ID, b.date, b.start, b.end); err != nil {
			t.Fatalf("add availability: %v", err)
		}
		if _, err := c.Book(context.Background(), student.ID, prof.ID, b.date, b.start, b.end, ""); err != nil {
			t.Fatalf("book: %v", err)
		}
	}

	appts, err := c.StudentAppointments(context.Background(), student.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(appts) != 3 {
		t.Fatalf("expected 3 appointments, got %d", len(appts))
	}
	want := [][2]string{{day1, "09:00"}, {day1, "14:00"}, {day2, "09:00"}}
	for i, a := range appts {
		if a.Date != want[i][0] || a.StartTime != want[i][1] {
			t.Errorf("position %d: got (%s, %s), want (%s, %s)", i, a.Date, a.StartTime, want[i][0], want[i][1])
		}
	}
}

func TestGetAppointmentAccess(t *testing.T) {
	c, st := setup(t)
	prof := addUser(t, st, model.RoleProfessor)
	student := addUser(t, st, model.RoleStudent)
	stranger := addUser(t, st, model.RoleStudent)
	day := tomorrow()

	if _, err := c.AddAvailability(context.Background(), prof.ID, day, "09:00", "10:00"); err != nil {
		t.Fatalf("add availability: %v", err)
	}
	appt, err := c.Book(context.Background(), student.ID, prof.ID, day, "09:00", "10:00", "")
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	if _, err := c.Get(context.Background(), student, appt.ID); err != nil {
		t.Errorf("student on the appointment: %v", err)
	}
	if _, err := c.Get(context.Background(), prof, appt.ID); err != nil {
		t.Errorf("professor on the appointment: %v", err)
	}

	_, err = c.Get(context.Background(), stranger, appt.ID)
	wantKind(t, err, booking.KindForbidden, "Access denied")

	_, err = c.Get(context.Background(), student, uuid.New().String())
	wantKind(t, err, booking.KindNotFound, "Appointment not found")
}

// Full walk of the documented scenario: professor publishes, one student
// wins the slot, the loser is told why, a cancel frees the slot, and the
// cancelled record stays reachable by id.
func TestBookingScenario(t *testing.T) {
	c, st := setup(t)
	prof := addUser(t, st, model.RoleProfessor)
	s1 := addUser(t, st, model.RoleStudent)
	s2 := addUser(t, st, model.RoleStudent)
	day := tomorrow()

	if _, err := c.AddAvailability(context.Background(), prof.ID, day, "09:00", "10:00"); err != nil {
		t.Fatalf("add availability: %v", err)
	}

	appt, err := c.Book(context.Background(), s1.ID, prof.ID, day, "09:00", "10:00", "")
	if err != nil {
		t.Fatalf("s1 booking: %v", err)
	}

	_, err = c.Book(context.Background(), s2.ID, prof.ID, day, "09:00", "10:00", "")
	wantKind(t, err, booking.KindConflict, "Time slot is already booked")

	if _, err := c.Cancel(context.Background(), prof, appt.ID); err != nil {
		t.Fatalf("professor cancel: %v", err)
	}

	s1Appts, err := c.StudentAppointments(context.Background(), s1.ID)
	if err != nil {
		t.Fatalf("s1 list: %v", err)
	}
	if len(s1Appts) != 0 {
		t.Errorf("s1 should have no active appointments, got %d", len(s1Appts))
	}

	got, err := c.Get(context.Background(), prof, appt.ID)
	if err != nil {
		t.Fatalf("get cancelled: %v", err)
	}
	if got.Status != model.StatusCancelled {
		t.Errorf("status: got %s", got.Status)
	}
}
