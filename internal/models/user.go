package models

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	UserRoleMentor UserRole = "mentor"
	UserRoleMentee UserRole = "mentee"
)

// User is the slice of the identity service's user record this core
// needs: a name for call invitations and a role for booking checks.
type User struct {
	ID       uuid.UUID `db:"id"`
	Username string    `db:"username"`
	Role     UserRole  `db:"role"`

	CreatedAt time.Time `db:"created_at"`
}
