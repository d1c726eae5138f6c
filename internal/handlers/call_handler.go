package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/arnavdesai/MentorLink/internal/dtos"
	"github.com/arnavdesai/MentorLink/internal/middlewares"
	"github.com/arnavdesai/MentorLink/internal/services"
)

// CallHandler exposes the signaling POSTs. Each one results in a relay
// broadcast; the caller's own state machine reacts to the echo like any
// other broker event.
type CallHandler struct {
	callService *services.CallService
}

func NewCallHandler(callService *services.CallService) *CallHandler {
	return &CallHandler{callService: callService}
}

// Initiate handles POST /call/initiate.
func (h *CallHandler) Initiate(c *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req dtos.InitiateCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	recipientID, err := uuid.Parse(req.RecipientID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipientId"})
		return
	}

	if err := h.callService.Initiate(c.Request.Context(), userID, recipientID, req.ChannelName, req.IsVideo); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ringing"})
}

// Accept handles POST /call/accept.
func (h *CallHandler) Accept(c *gin.Context) {
	h.action(c, h.callService.Accept, "accepted")
}

// Reject handles POST /call/reject.
func (h *CallHandler) Reject(c *gin.Context) {
	h.action(c, h.callService.Reject, "rejected")
}

// End handles POST /call/end.
func (h *CallHandler) End(c *gin.Context) {
	h.action(c, h.callService.End, "ended")
}

func (h *CallHandler) action(
	c *gin.Context,
	fn func(ctx context.Context, userID uuid.UUID, channelName string) error,
	status string,
) {
	userID, ok := middlewares.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req dtos.CallActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := fn(c.Request.Context(), userID, req.ChannelName); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}
