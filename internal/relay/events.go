package relay

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Event names carried over the relay. These are part of the wire
// contract with clients and must stay stable.
const (
	EventIncomingCall   = "incoming-call"
	EventCallAccepted   = "call-accepted"
	EventCallRejected   = "call-rejected"
	EventCallEnded      = "call-ended"
	EventBookingCreated = "booking-created"
)

// UserChannel addresses out-of-band notifications and incoming-call
// invitations to one user.
func UserChannel(userID uuid.UUID) string {
	return "user-" + userID.String()
}

// CallChannel scopes lifecycle events to one call attempt. The channel
// name is shared out-of-band, typically a booking id.
func CallChannel(channelName string) string {
	return "call-" + channelName
}

// Event is the envelope every relay message travels in.
type Event struct {
	Name    string          `json:"event"`
	Channel string          `json:"channel"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEvent marshals a payload into an envelope. Marshal failures are
// impossible for the payload types below, so they are swallowed into an
// empty payload rather than propagated.
func NewEvent(name, channel string, payload any) Event {
	data, err := json.Marshal(payload)
	if err != nil {
		data = nil
	}
	return Event{Name: name, Channel: channel, Payload: data}
}

// IncomingCallPayload rides an incoming-call event on a user channel.
type IncomingCallPayload struct {
	ChannelName string    `json:"channel_name"`
	CallerID    uuid.UUID `json:"caller_id"`
	CallerName  string    `json:"caller_name"`
	IsVideo     bool      `json:"is_video"`
}

// CallLifecyclePayload rides call-accepted / call-rejected / call-ended
// events on a call channel.
type CallLifecyclePayload struct {
	ChannelName string `json:"channel_name"`
	Reason      string `json:"reason,omitempty"`
}

// BookingCreatedPayload rides a booking-created notification on the
// mentee's user channel.
type BookingCreatedPayload struct {
	BookingID uuid.UUID `json:"booking_id"`
	Title     string    `json:"title"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
}
