// Package memory implements store.Store with plain maps behind a mutex.
// It enforces the same write-time invariants as the Postgres schema (unique
// email, unique slot tuple, interval exclusion, single active booking per
// slot and per student-time), which makes it a faithful double for conflict
// and race tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"college-appointments-api/internal/model"
	"college-appointments-api/internal/store"
)

type Memory struct {
	mu            sync.Mutex
	users         map[string]model.User
	slots         map[string]model.AvailabilitySlot
	appointments  map[string]model.Appointment
	refreshTokens map[string]store.RefreshToken
}

func New() *Memory {
	return &Memory{
		users:         make(map[string]model.User),
		slots:         make(map[string]model.AvailabilitySlot),
		appointments:  make(map[string]model.Appointment),
		refreshTokens: make(map[string]store.RefreshToken),
	}
}

var _ store.Store = (*Memory)(nil)

// ----- users -----

func (m *Memory) CreateUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return store.ErrDuplicate
		}
	}
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	m.users[u.ID] = *u
	return nil
}

func (m *Memory) UserByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			out := u
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *Memory) UserByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := u
	return &out, nil
}

// ----- availability -----

func (m *Memory) CreateSlot(_ context.Context, s *model.AvailabilitySlot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.slots {
		if existing.ProfessorID != s.ProfessorID || existing.Date != s.Date {
			continue
		}
		if existing.StartTime == s.StartTime && existing.EndTime == s.EndTime {
			return store.ErrDuplicate
		}
		// half-open interval exclusion, same as the gist constraint
		if existing.StartTime < s.EndTime && existing.EndTime > s.StartTime {
			return store.ErrOverlap
		}
	}
	now := time.Now()
	s.CreatedAt, s.UpdatedAt = now, now
	m.slots[s.ID] = *s
	return nil
}

func (m *Memory) SlotByID(_ context.Context, id string) (*model.AvailabilitySlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := s
	return &out, nil
}

func (m *Memory) FindOpenSlot(_ context.Context, professorID, date, start, end string) (*model.AvailabilitySlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.slots {
		if s.ProfessorID == professorID && s.Date == date &&
			s.StartTime == start && s.EndTime == end && s.IsAvailable {
			out := s
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *Memory) ListSlots(_ context.Context, professorID, date string) ([]model.AvailabilitySlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.AvailabilitySlot
	for _, s := range m.slots {
		if s.ProfessorID != professorID || !s.IsAvailable {
			continue
		}
		if date != "" && s.Date != date {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (m *Memory) SlotOverlaps(_ context.Context, professorID, date, start, end string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.slots {
		if s.ProfessorID == professorID && s.Date == date &&
			s.StartTime < end && s.EndTime > start {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) DeleteSlot(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.slots[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.slots, id)
	return nil
}

// ----- appointments -----

func (m *Memory) CreateAppointment(_ context.Context, a *model.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// check-and-insert under one lock: the race-deciding write
	for _, existing := range m.appointments {
		if existing.Status == model.StatusCancelled {
			continue
		}
		if existing.Date != a.Date || existing.StartTime != a.StartTime {
			continue
		}
		if existing.ProfessorID == a.ProfessorID {
			return store.ErrSlotTaken
		}
		if existing.StudentID == a.StudentID {
			return store.ErrStudentBusy
		}
	}
	now := time.Now()
	a.CreatedAt, a.UpdatedAt = now, now
	m.appointments[a.ID] = *a
	return nil
}

func (m *Memory) AppointmentByID(_ context.Context, id string) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := a
	return &out, nil
}

func (m *Memory) ListStudentAppointments(_ context.Context, studentID string) ([]model.Appointment, error) {
	return m.list(func(a model.Appointment) bool { return a.StudentID == studentID })
}

func (m *Memory) ListProfessorAppointments(_ context.Context, professorID string) ([]model.Appointment, error) {
	return m.list(func(a model.Appointment) bool { return a.ProfessorID == professorID })
}

func (m *Memory) list(owned func(model.Appointment) bool) ([]model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Appointment
	for _, a := range m.appointments {
		if owned(a) && a.Status != model.StatusCancelled {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (m *Memory) SlotBooked(_ context.Context, professorID, date, start string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.appointments {
		if a.ProfessorID == professorID && a.Date == date && a.StartTime == start &&
			a.Status != model.StatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) StudentBusy(_ context.Context, studentID, date, start string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.appointments {
		if a.StudentID == studentID && a.Date == date && a.StartTime == start &&
			a.Status != model.StatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) HasScheduledAppointment(_ context.Context, professorID, date, start string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.appointments {
		if a.ProfessorID == professorID && a.Date == date && a.StartTime == start &&
			a.Status == model.StatusScheduled {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) SetAppointmentStatus(_ context.Context, id string, status model.AppointmentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return store.ErrNotFound
	}
	a.Status = status
	a.UpdatedAt = time.Now()
	m.appointments[id] = a
	return nil
}

// ----- refresh tokens -----

func (m *Memory) CreateRefreshToken(_ context.Context, userID, tokenHash string, expiresAt time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New().String()
	m.refreshTokens[id] = store.RefreshToken{
		ID: id, UserID: userID, TokenHash: tokenHash,
		ExpiresAt: expiresAt, CreatedAt: time.Now(),
	}
	return id, nil
}

func (m *Memory) RefreshTokenByHash(_ context.Context, tokenHash string) (*store.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rt := range m.refreshTokens {
		if rt.TokenHash == tokenHash {
			out := rt
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *Memory) RotateRefreshToken(_ context.Context, oldID, newID, userID, newHash string, newExpiry time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.refreshTokens[oldID]
	if !ok {
		return store.ErrNotFound
	}
	old.Revoked = true
	old.ReplacedBy = &newID
	m.refreshTokens[oldID] = old
	m.refreshTokens[newID] = store.RefreshToken{
		ID: newID, UserID: userID, TokenHash: newHash,
		ExpiresAt: newExpiry, CreatedAt: time.Now(),
	}
	return nil
}

func (m *Memory) RevokeRefreshTokens(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, rt := range m.refreshTokens {
		if rt.UserID == userID && !rt.Revoked {
			rt.Revoked = true
			m.refreshTokens[id] = rt
		}
	}
	return nil
}
