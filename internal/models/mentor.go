package models

import (
	"time"

	"github.com/google/uuid"
)

// MentorProfile links a mentor user to the profile id that bookings and
// availability slots reference.
type MentorProfile struct {
	ID       uuid.UUID `db:"id"`
	UserID   uuid.UUID `db:"user_id"`
	Headline string    `db:"headline"`

	CreatedAt time.Time `db:"created_at"`
}
