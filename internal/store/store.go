package store

import (
	"context"
	"errors"
	"time"

	"college-appointments-api/internal/model"
)

// Sentinel errors the implementations translate storage failures into.
// The write-side conflict errors are the correctness boundary for booking:
// the coordinator's read-side checks are advisory fast paths that can race,
// the constrained insert cannot.
var (
	ErrNotFound    = errors.New("not found")
	ErrDuplicate   = errors.New("duplicate record")
	ErrOverlap     = errors.New("interval overlaps an existing slot")
	ErrSlotTaken   = errors.New("slot already has an active appointment")
	ErrStudentBusy = errors.New("student already has an active appointment at this time")
)

// Store is the persistence handle injected into the coordinator and handlers.
// Both the pgx implementation and the in-memory test double satisfy it.
type Store interface {
	// users
	CreateUser(ctx context.Context, u *model.User) error
	UserByEmail(ctx context.Context, email string) (*model.User, error)
	UserByID(ctx context.Context, id string) (*model.User, error)

	// availability slots
	CreateSlot(ctx context.Context, s *model.AvailabilitySlot) error
	SlotByID(ctx context.Context, id string) (*model.AvailabilitySlot, error)
	FindOpenSlot(ctx context.Context, professorID, date, start, end string) (*model.AvailabilitySlot, error)
	ListSlots(ctx context.Context, professorID, date string) ([]model.AvailabilitySlot, error)
	SlotOverlaps(ctx context.Context, professorID, date, start, end string) (bool, error)
	DeleteSlot(ctx context.Context, id string) error

	// appointments
	CreateAppointment(ctx context.Context, a *model.Appointment) error
	AppointmentByID(ctx context.Context, id string) (*model.Appointment, error)
	ListStudentAppointments(ctx context.Context, studentID string) ([]model.Appointment, error)
	ListProfessorAppointments(ctx context.Context, professorID string) ([]model.Appointment, error)
	SlotBooked(ctx context.Context, professorID, date, start string) (bool, error)
	StudentBusy(ctx context.Context, studentID, date, start string) (bool, error)
	HasScheduledAppointment(ctx context.Context, professorID, date, start string) (bool, error)
	SetAppointmentStatus(ctx context.Context, id string, status model.AppointmentStatus) error

	// refresh tokens
	CreateRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) (string, error)
	RefreshTokenByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)
	RotateRefreshToken(ctx context.Context, oldID, newID, userID, newHash string, newExpiry time.Time) error
	RevokeRefreshTokens(ctx context.Context, userID string) error
}

type RefreshToken struct {
	ID         string
	UserID     string
	TokenHash  string
	ExpiresAt  time.Time
	Revoked    bool
	ReplacedBy *string
	CreatedAt  time.Time
}
