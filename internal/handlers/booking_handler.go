package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/arnavdesai/MentorLink/internal/apperr"
	"github.com/arnavdesai/MentorLink/internal/dtos"
	"github.com/arnavdesai/MentorLink/internal/middlewares"
	"github.com/arnavdesai/MentorLink/internal/models"
	"github.com/arnavdesai/MentorLink/internal/services"
)

type BookingHandler struct {
	bookingService *services.BookingService
}

func NewBookingHandler(bookingService *services.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// CreateSession handles POST /sessions.
func (h *BookingHandler) CreateSession(c *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req dtos.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	booking, err := h.bookingService.CreateSession(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dtos.NewBookingResponse(booking))
}

// UpdateStatus handles PATCH /sessions/:id/status.
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}

	var req dtos.UpdateSessionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	booking, err := h.bookingService.UpdateStatus(
		c.Request.Context(), userID, bookingID, models.BookingStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.NewBookingResponse(booking))
}

// GetMySessions handles GET /sessions/me.
func (h *BookingHandler) GetMySessions(c *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	bookings, err := h.bookingService.ListForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]dtos.BookingResponse, 0, len(bookings))
	for i := range bookings {
		responses = append(responses, dtos.NewBookingResponse(&bookings[i]))
	}
	c.JSON(http.StatusOK, responses)
}

// GetAvailability handles GET /availability?mentorProfileId=...
func (h *BookingHandler) GetAvailability(c *gin.Context) {
	mentorProfileID, err := uuid.Parse(c.Query("mentorProfileId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mentorProfileId required"})
		return
	}

	days, err := h.bookingService.Availability(c.Request.Context(), mentorProfileID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, days)
}

// respondError maps an error's kind to an HTTP status. Internal
// failures are logged and hidden behind a generic message.
func respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
