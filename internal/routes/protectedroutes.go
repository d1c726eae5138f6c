package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/arnavdesai/MentorLink/internal/handlers"
	"github.com/arnavdesai/MentorLink/internal/middlewares"
)

func RegisterProtectedEndpoints(
	router *gin.Engine,
	bookingHandler *handlers.BookingHandler,
	callHandler *handlers.CallHandler,
	jwtSecret string,
) {
	protected := router.Group("/api")
	protected.Use(middlewares.AuthMiddleware(jwtSecret))

	protected.POST("/sessions", bookingHandler.CreateSession)
	protected.GET("/sessions/me", bookingHandler.GetMySessions)
	protected.PATCH("/sessions/:id/status", bookingHandler.UpdateStatus)

	protected.POST("/call/initiate", callHandler.Initiate)
	protected.POST("/call/accept", callHandler.Accept)
	protected.POST("/call/reject", callHandler.Reject)
	protected.POST("/call/end", callHandler.End)
}
