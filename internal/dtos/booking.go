package dtos

import (
	"time"

	"github.com/google/uuid"

	"github.com/arnavdesai/MentorLink/internal/models"
)

// CreateSessionRequest is the body of POST /sessions. Times are ISO8601.
type CreateSessionRequest struct {
	MentorProfileID string `json:"mentorProfileId" binding:"required,uuid"`
	MenteeID        string `json:"menteeId" binding:"required,uuid"`
	Title           string `json:"title" binding:"required,max=200"`
	Description     string `json:"description" binding:"max=2000"`
	StartTime       string `json:"startTime" binding:"required"`
	EndTime         string `json:"endTime" binding:"required"`
}

// UpdateSessionStatusRequest is the body of PATCH /sessions/:id/status.
type UpdateSessionStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending confirmed completed cancelled"`
}

type BookingResponse struct {
	ID          uuid.UUID `json:"id"`
	MentorID    uuid.UUID `json:"mentorProfileId"`
	MenteeID    uuid.UUID `json:"menteeId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	StartTime   string    `json:"startTime"`
	EndTime     string    `json:"endTime"`
	Status      string    `json:"status"`
}

// NewBookingResponse normalizes instants to UTC RFC3339 on the way out
// so a created booking round-trips identically through the list endpoint.
func NewBookingResponse(b *models.Booking) BookingResponse {
	return BookingResponse{
		ID:          b.ID,
		MentorID:    b.MentorID,
		MenteeID:    b.MenteeID,
		Title:       b.Title,
		Description: b.Description,
		StartTime:   b.StartTime.UTC().Format(time.RFC3339),
		EndTime:     b.EndTime.UTC().Format(time.RFC3339),
		Status:      string(b.Status),
	}
}

// AvailabilityDayResponse is one element of GET /availability.
type AvailabilityDayResponse struct {
	Day   string                     `json:"day"`
	Slots []AvailabilitySlotResponse `json:"slots"`
}

type AvailabilitySlotResponse struct {
	Start string `json:"start"` // "HH:MM", mentor-local
	End   string `json:"end"`
}
