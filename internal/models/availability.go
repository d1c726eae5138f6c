package models

import (
	"time"

	"github.com/google/uuid"
)

// AvailabilitySlot is a mentor-declared recurring window of bookable
// time. Owned by the mentor profile service; read-only here.
type AvailabilitySlot struct {
	ID        uuid.UUID    `db:"id"`
	MentorID  uuid.UUID    `db:"mentor_id"` // mentor_profiles.id
	DayOfWeek time.Weekday `db:"day_of_week"`

	// Minutes from midnight, mentor-local.
	StartMinute int `db:"start_minute"`
	EndMinute   int `db:"end_minute"`
}
