package models

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// ActiveStatuses are the statuses that block a mentor's time slot.
var ActiveStatuses = []BookingStatus{BookingStatusPending, BookingStatusConfirmed}

// allowedTransitions is the full status transition table. Times never
// change after creation and rows are never deleted, only cancelled.
var allowedTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCompleted, BookingStatusCancelled},
}

// CanTransitionTo reports whether a status change is allowed.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsActive reports whether the booking still occupies its time slot.
func (s BookingStatus) IsActive() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

// Booking is a time-boxed mentoring appointment between one mentor
// profile and one mentee. Its ID doubles as the call channel name once
// the two parties go live.
type Booking struct {
	ID          uuid.UUID `db:"id"`
	MentorID    uuid.UUID `db:"mentor_id"` // mentor_profiles.id, not the user id
	MenteeID    uuid.UUID `db:"mentee_id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`

	StartTime time.Time `db:"start_time"`
	EndTime   time.Time `db:"end_time"`

	Status BookingStatus `db:"status"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Overlaps reports whether [start, end) intersects the booking's interval.
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartTime.Before(end) && b.EndTime.After(start)
}
