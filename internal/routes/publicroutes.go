package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/arnavdesai/MentorLink/internal/handlers"
	"github.com/arnavdesai/MentorLink/internal/middlewares"
)

func RegisterPublicEndpoints(
	router *gin.Engine,
	bookingHandler *handlers.BookingHandler,
	webSocketHandler *handlers.WebSocketHandler,
	users middlewares.UserFinder,
	jwtSecret string,
) {
	public := router.Group("/api")

	// Availability is a public read; mentees browse it before booking.
	public.GET("/availability", bookingHandler.GetAvailability)

	// WebSocket endpoint; middleware validates the token from the query
	// string and loads the username from the database.
	wsAuth := middlewares.WebSocketAuthMiddleware(jwtSecret, users)
	public.GET("/ws", wsAuth, webSocketHandler.HandleWebSocket)
}
