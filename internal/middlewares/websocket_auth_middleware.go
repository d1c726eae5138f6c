package middlewares

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/arnavdesai/MentorLink/internal/models"
	"github.com/arnavdesai/MentorLink/internal/utils"
)

type wsAuthKey struct{}

// UserFinder is the slice of the user repository the middleware needs.
type UserFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// WebSocketAuthContext holds authenticated WebSocket connection data.
type WebSocketAuthContext struct {
	UserID   uuid.UUID
	Username string
	Role     string
}

// WebSocketAuthMiddleware authenticates WebSocket connections. Browsers
// cannot set headers on upgrade requests, so the token travels in a
// query parameter. The username is loaded from the database, never
// trusted from the client. Must run BEFORE the WebSocket upgrade.
func WebSocketAuthMiddleware(jwtSecret string, users UserFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}

		claims, err := utils.ParseAccessToken(token, jwtSecret)
		if err != nil {
			log.Debug().Err(err).Msg("websocket token validation failed")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
			})
			return
		}

		user, err := users.FindByID(c.Request.Context(), claims.UserID)
		if err != nil {
			log.Warn().Err(err).Str("user_id", claims.UserID.String()).Msg("websocket auth: user lookup failed")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "user not found",
			})
			return
		}

		authCtx := &WebSocketAuthContext{
			UserID:   user.ID,
			Username: user.Username,
			Role:     string(user.Role),
		}
		ctx := context.WithValue(c.Request.Context(), wsAuthKey{}, authCtx)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// GetWebSocketAuth retrieves the authentication context from a request.
func GetWebSocketAuth(c *gin.Context) (*WebSocketAuthContext, error) {
	val := c.Request.Context().Value(wsAuthKey{})
	if val == nil {
		return nil, errors.New("websocket authentication context not found")
	}
	auth, ok := val.(*WebSocketAuthContext)
	if !ok {
		return nil, errors.New("invalid websocket authentication context type")
	}
	return auth, nil
}
