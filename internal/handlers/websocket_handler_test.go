package handlers_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnavdesai/MentorLink/internal/apperr"
	"github.com/arnavdesai/MentorLink/internal/dtos"
	"github.com/arnavdesai/MentorLink/internal/handlers"
	"github.com/arnavdesai/MentorLink/internal/middlewares"
	"github.com/arnavdesai/MentorLink/internal/models"
	"github.com/arnavdesai/MentorLink/internal/relay"
	"github.com/arnavdesai/MentorLink/internal/services"
	"github.com/arnavdesai/MentorLink/internal/utils"
)

type memAttemptStore struct{}

func (memAttemptStore) Create(ctx context.Context, attempt *models.CallAttempt) error { return nil }
func (memAttemptStore) GetLatestByChannel(ctx context.Context, channelName string) (*models.CallAttempt, error) {
	return nil, apperr.New(apperr.KindNotFound, "call attempt not found")
}
func (memAttemptStore) MarkActive(ctx context.Context, channelName string) error  { return nil }
func (memAttemptStore) End(ctx context.Context, channelName, reason string) error { return nil }

type wsFixture struct {
	server *httptest.Server
	hub    *relay.Hub

	mentorUserID uuid.UUID
	menteeID     uuid.UUID
	outsiderID   uuid.UUID
	bookingID    uuid.UUID
}

func newWSFixture(t *testing.T) *wsFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mentorUserID := uuid.New()
	mentorProfileID := uuid.New()
	menteeID := uuid.New()
	outsiderID := uuid.New()
	bookingID := uuid.New()

	start := time.Date(2026, time.March, 12, 10, 0, 0, 0, time.UTC)
	bookings := &memBookingStore{bookings: map[uuid.UUID]*models.Booking{
		bookingID: {
			ID:        bookingID,
			MentorID:  mentorProfileID,
			MenteeID:  menteeID,
			StartTime: start,
			EndTime:   start.Add(time.Hour),
			Status:    models.BookingStatusConfirmed,
		},
	}}
	users := &memUserStore{users: map[uuid.UUID]*models.User{
		mentorUserID: {ID: mentorUserID, Username: "asha", Role: models.UserRoleMentor},
		menteeID:     {ID: menteeID, Username: "ravi", Role: models.UserRoleMentee},
		outsiderID:   {ID: outsiderID, Username: "zoya", Role: models.UserRoleMentee},
	}}

	hub := relay.NewHub()
	callService := services.NewCallService(
		memAttemptStore{},
		bookings,
		&memMentorStore{profile: &models.MentorProfile{ID: mentorProfileID, UserID: mentorUserID}},
		users,
		hub,
		utils.FixedClock{T: start.Add(30 * time.Minute)},
	)

	router := gin.New()
	router.GET("/api/ws",
		middlewares.WebSocketAuthMiddleware(handlerTestSecret, users),
		handlers.NewWebSocketHandler(hub, callService).HandleWebSocket,
	)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &wsFixture{
		server:       server,
		hub:          hub,
		mentorUserID: mentorUserID,
		menteeID:     menteeID,
		outsiderID:   outsiderID,
		bookingID:    bookingID,
	}
}

func (f *wsFixture) dial(t *testing.T, userID uuid.UUID) *websocket.Conn {
	t.Helper()

	token, err := utils.SignAccessToken(userID, "mentee", handlerTestSecret, time.Hour)
	require.NoError(t, err)

	wsURL := strings.Replace(f.server.URL, "http", "ws", 1) + "/api/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// The connection is live once its user channel registers.
	require.Eventually(t, func() bool {
		return f.hub.SubscriberCount(relay.UserChannel(userID)) == 1
	}, time.Second, 5*time.Millisecond)
	return conn
}

func TestWebSocketRejectsMissingToken(t *testing.T) {
	f := newWSFixture(t)

	wsURL := strings.Replace(f.server.URL, "http", "ws", 1) + "/api/ws"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 401, resp.StatusCode)
}

// A valid token is not enough to follow someone else's call: only the
// booking's two parties may subscribe to its channel.
func TestWebSocketSubscribeRequiresBookingParticipation(t *testing.T) {
	f := newWSFixture(t)
	callChannel := relay.CallChannel(f.bookingID.String())

	conn := f.dial(t, f.outsiderID)
	require.NoError(t, conn.WriteJSON(dtos.SubscribeMessage{
		Action:  "subscribe",
		Channel: callChannel,
	}))

	assert.Never(t, func() bool {
		return f.hub.SubscriberCount(callChannel) > 0
	}, 300*time.Millisecond, 20*time.Millisecond)
}

func TestWebSocketParticipantReceivesCallEvents(t *testing.T) {
	f := newWSFixture(t)
	callChannel := relay.CallChannel(f.bookingID.String())

	conn := f.dial(t, f.menteeID)
	require.NoError(t, conn.WriteJSON(dtos.SubscribeMessage{
		Action:  "subscribe",
		Channel: callChannel,
	}))
	require.Eventually(t, func() bool {
		return f.hub.SubscriberCount(callChannel) == 1
	}, time.Second, 5*time.Millisecond)

	f.hub.Publish(callChannel, relay.NewEvent(relay.EventCallAccepted, callChannel, nil))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev relay.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, relay.EventCallAccepted, ev.Name)
	assert.Equal(t, callChannel, ev.Channel)
}

func TestWebSocketUnsubscribeStopsDelivery(t *testing.T) {
	f := newWSFixture(t)
	callChannel := relay.CallChannel(f.bookingID.String())

	conn := f.dial(t, f.menteeID)
	require.NoError(t, conn.WriteJSON(dtos.SubscribeMessage{Action: "subscribe", Channel: callChannel}))
	require.Eventually(t, func() bool {
		return f.hub.SubscriberCount(callChannel) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.WriteJSON(dtos.SubscribeMessage{Action: "unsubscribe", Channel: callChannel}))
	require.Eventually(t, func() bool {
		return f.hub.SubscriberCount(callChannel) == 0
	}, time.Second, 5*time.Millisecond)
}
