package relay

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Client is one connected WebSocket subscriber. The handler owns the
// read/write pumps; the hub only sees the Deliver side.
type Client struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Conn   *websocket.Conn

	Send chan Event
	Done chan struct{}

	closeOnce sync.Once
}

func NewClient(userID uuid.UUID, conn *websocket.Conn) *Client {
	return &Client{
		ID:     uuid.New(),
		UserID: userID,
		Conn:   conn,
		Send:   make(chan Event, 256),
		Done:   make(chan struct{}),
	}
}

// Deliver enqueues an event for the write pump. Non-blocking: if the
// client's buffer is full the event is dropped, matching the relay's
// best-effort contract.
func (c *Client) Deliver(ev Event) {
	select {
	case c.Send <- ev:
	case <-c.Done:
	default:
	}
}

// Close is safe to call from overlapping cleanup paths.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.Done)
		c.Conn.Close()
	})
}

// IsConnected reports whether the client has been closed.
func (c *Client) IsConnected() bool {
	select {
	case <-c.Done:
		return false
	default:
		return true
	}
}
