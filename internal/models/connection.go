package models

import (
	"time"

	"github.com/google/uuid"
)

type ConnectionStatus string

const (
	ConnectionStatusPending  ConnectionStatus = "pending"
	ConnectionStatusAccepted ConnectionStatus = "accepted"
	ConnectionStatusRejected ConnectionStatus = "rejected"
)

// Connection is the accepted relationship between a mentor and a mentee.
// It is owned by the profile service; this core only reads it as a
// booking precondition.
type Connection struct {
	ID       uuid.UUID        `db:"id"`
	MentorID uuid.UUID        `db:"mentor_id"` // mentor user id
	MenteeID uuid.UUID        `db:"mentee_id"`
	Status   ConnectionStatus `db:"status"`

	CreatedAt time.Time `db:"created_at"`
}
