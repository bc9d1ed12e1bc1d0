package model

import "time"

type Role string

const (
	RoleStudent   Role = "student"
	RoleProfessor Role = "professor"
)

// ParseRole validates a role string coming off the wire.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleStudent, RoleProfessor:
		return Role(s), true
	}
	return "", false
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// AvailabilitySlot is a professor-declared open interval [StartTime, EndTime)
// on a calendar day. Date is "YYYY-MM-DD" and times are zero-padded "HH:MM",
// so plain string comparison orders both correctly.
type AvailabilitySlot struct {
	ID          string    `json:"id"`
	ProfessorID string    `json:"professorId"`
	Date        string    `json:"date"`
	StartTime   string    `json:"startTime"`
	EndTime     string    `json:"endTime"`
	IsAvailable bool      `json:"isAvailable"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

type Appointment struct {
	ID          string            `json:"id"`
	StudentID   string            `json:"studentId"`
	ProfessorID string            `json:"professorId"`
	Date        string            `json:"date"`
	StartTime   string            `json:"startTime"`
	EndTime     string            `json:"endTime"`
	Status      AppointmentStatus `json:"status"`
	Notes       string            `json:"notes"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}
