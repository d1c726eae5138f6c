package models

import (
	"time"

	"github.com/google/uuid"
)

type CallAttemptStatus string

const (
	CallAttemptStatusRinging CallAttemptStatus = "ringing"
	CallAttemptStatusActive  CallAttemptStatus = "active"
	CallAttemptStatusEnded   CallAttemptStatus = "ended"
)

// CallAttempt is the audit row for one call attempt on a channel. The
// live state machine is in-memory only; this record is what survives it.
type CallAttempt struct {
	ID          uuid.UUID `db:"id"`
	ChannelName string    `db:"channel_name"` // booking id or equivalent shared identifier
	CallerID    uuid.UUID `db:"caller_id"`
	CalleeID    uuid.UUID `db:"callee_id"`
	IsVideo     bool      `db:"is_video"`

	Status    CallAttemptStatus `db:"status"`
	StartedAt time.Time         `db:"started_at"`
	EndedAt   *time.Time        `db:"ended_at"`

	// "rejected" or "ended"; empty while the attempt is open.
	EndReason       string `db:"end_reason"`
	DurationSeconds int    `db:"duration_seconds"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
