package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// ParseAppointmentStatus accepts "expired" as an alias of completed.
func ParseAppointmentStatus(s string) (AppointmentStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return AppointmentStatusPending, nil
	case "completed", "expired":
		return AppointmentStatusCompleted, nil
	case "cancelled", "canceled":
		return AppointmentStatusCancelled, nil
	default:
		return "", fmt.Errorf("unknown appointment status %q", s)
	}
}

// Next returns the following state of the cycle
// pending -> completed -> cancelled -> pending.
func (s AppointmentStatus) Next() AppointmentStatus {
	switch s {
	case AppointmentStatusPending:
		return AppointmentStatusCompleted
	case AppointmentStatusCompleted:
		return AppointmentStatusCancelled
	default:
		return AppointmentStatusPending
	}
}

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

type Appointment struct {
	Base
	PetID     uuid.UUID         `db:"pet_id" json:"pet_id"`
	ServiceID uuid.UUID         `db:"service_id" json:"service_id"`
	Date      string            `db:"date" json:"date"`
	StartTime string            `db:"start_time" json:"start_time"`
	EndTime   string            `db:"end_time" json:"end_time"`
	Status    AppointmentStatus `db:"status" json:"status"`
	Canceled  bool              `db:"canceled" json:"canceled"`
	Notes     string            `db:"notes" json:"notes,omitempty"`
}

// SetStatus changes the status and keeps the canceled flag in sync.
func (a *Appointment) SetStatus(s AppointmentStatus) {
	a.Status = s
	a.Canceled = s == AppointmentStatusCancelled
}

// Slot returns the interval the appointment occupies.
func (a *Appointment) Slot() Slot {
	return Slot{Date: a.Date, Start: a.StartTime, End: a.EndTime}
}

// AppointmentDetail is an appointment joined with its pet and service.
type AppointmentDetail struct {
	Appointment
	PetName     string    `db:"pet_name" json:"pet_name"`
	OwnerID     uuid.UUID `db:"owner_id" json:"owner_id"`
	ServiceName string    `db:"service_name" json:"service_name"`
}

type CreateAppointmentRequest struct {
	PetID     uuid.UUID `json:"pet_id" binding:"required"`
	ServiceID uuid.UUID `json:"service_id" binding:"required"`
	Date      string    `json:"date" binding:"required,isodate"`
	StartTime string    `json:"start_time" binding:"required,hhmm"`
	EndTime   string    `json:"end_time" binding:"omitempty,hhmm"`
	Notes     string    `json:"notes" binding:"max=1000"`
}

type UpdateAppointmentRequest struct {
	ServiceID *uuid.UUID `json:"service_id"`
	Date      *string    `json:"date" binding:"omitempty,isodate"`
	StartTime *string    `json:"start_time" binding:"omitempty,hhmm"`
	EndTime   *string    `json:"end_time" binding:"omitempty,hhmm"`
	Notes     *string    `json:"notes" binding:"omitempty,max=1000"`
}

type AppointmentFilters struct {
	PetID   uuid.UUID
	OwnerID uuid.UUID
	Date    string
	Status  AppointmentStatus
}

// Slot is a booked or candidate interval on one date.
type Slot struct {
	Date  string `json:"date" db:"date"`
	Start string `json:"start" db:"start"`
	End   string `json:"end" db:"end"`
}

// ParseClock converts "HH:MM" to minutes after midnight.
func ParseClock(s string) (int, bool) {
	t, err := time.Parse(ClockLayout, strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}

// FormatClock converts minutes after midnight to "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ValidDate reports whether s is a "YYYY-MM-DD" date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// AppointmentEvent is published to the broker on every mutation.
type AppointmentEvent struct {
	Type        string            `json:"type"`
	Appointment *Appointment      `json:"appointment"`
	Previous    AppointmentStatus `json:"previous_status,omitempty"`
	OwnerEmail  string            `json:"owner_email,omitempty"`
	OwnerName   string            `json:"owner_name,omitempty"`
	PetName     string            `json:"pet_name,omitempty"`
	ServiceName string            `json:"service_name,omitempty"`
	OccurredAt  time.Time         `json:"occurred_at"`
}

const (
	EventAppointmentCreated       = "appointment.created"
	EventAppointmentUpdated       = "appointment.updated"
	EventAppointmentCancelled     = "appointment.cancelled"
	EventAppointmentStatusChanged = "appointment.status_changed"
	EventAppointmentDeleted       = "appointment.deleted"
)
