package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/arnavdesai/MentorLink/internal/dtos"
	"github.com/arnavdesai/MentorLink/internal/middlewares"
	"github.com/arnavdesai/MentorLink/internal/relay"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origin policy enforced by the CORS layer in front
	},
}

// SubscribeAuthorizer decides whether a user may follow a call
// channel's events. CallService implements it.
type SubscribeAuthorizer interface {
	AuthorizeSubscriber(ctx context.Context, userID uuid.UUID, channelName string) error
}

// WebSocketHandler bridges connected clients onto the relay. Every
// connection is auto-subscribed to its own user channel; call channels
// are joined and left via subscribe envelopes, gated on booking
// participation.
type WebSocketHandler struct {
	hub  *relay.Hub
	auth SubscribeAuthorizer
}

func NewWebSocketHandler(hub *relay.Hub, auth SubscribeAuthorizer) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, auth: auth}
}

// HandleWebSocket is the WebSocket endpoint. MUST be protected by
// WebSocketAuthMiddleware.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	auth, err := middlewares.GetWebSocketAuth(c)
	if err != nil {
		log.Error().Err(err).Msg("missing websocket authentication context")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error": "internal server error",
		})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := relay.NewClient(auth.UserID, conn)
	h.hub.Subscribe(relay.UserChannel(auth.UserID), client)

	log.Info().
		Str("user_id", auth.UserID.String()).
		Str("username", auth.Username).
		Msg("websocket client connected")

	go h.readPump(client)
	go h.writePump(client)
}

// readPump consumes subscribe/unsubscribe envelopes until the client
// disconnects, then detaches it from every channel.
func (h *WebSocketHandler) readPump(client *relay.Client) {
	defer func() {
		h.hub.UnsubscribeAll(client)
		client.Close()
		log.Info().Str("user_id", client.UserID.String()).Msg("websocket client disconnected")
	}()

	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var raw json.RawMessage
		if err := client.Conn.ReadJSON(&raw); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Msg("unexpected websocket close")
			}
			return
		}

		var msg dtos.SubscribeMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Debug().Err(err).Msg("unparseable websocket message")
			continue
		}

		// Clients may only follow call channels; user channels belong
		// to their owners.
		if !strings.HasPrefix(msg.Channel, "call-") {
			log.Debug().Str("channel", msg.Channel).Msg("subscribe to non-call channel refused")
			continue
		}

		switch msg.Action {
		case "subscribe":
			// Only the booking's two parties may listen in on its
			// call lifecycle.
			channelName := strings.TrimPrefix(msg.Channel, "call-")
			if err := h.auth.AuthorizeSubscriber(context.Background(), client.UserID, channelName); err != nil {
				log.Warn().Err(err).
					Str("user_id", client.UserID.String()).
					Str("channel", msg.Channel).
					Msg("call channel subscribe refused")
				continue
			}
			h.hub.Subscribe(msg.Channel, client)
		case "unsubscribe":
			h.hub.Unsubscribe(msg.Channel, client)
		default:
			log.Debug().Str("action", msg.Action).Msg("unknown websocket action")
		}
	}
}

// writePump drains the client's event queue and keeps the connection
// alive with pings.
func (h *WebSocketHandler) writePump(client *relay.Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Close()
	}()

	for {
		select {
		case ev := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteJSON(ev); err != nil {
				log.Debug().Err(err).Msg("websocket write failed")
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-client.Done:
			return
		}
	}
}
