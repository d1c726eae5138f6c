package services

import (
	"context"
	"time"

	"github.com/arnavdesai/MentorLink/internal/models"
	"github.com/arnavdesai/MentorLink/internal/relay"
)

// RelayNotifier publishes booking notifications on the mentee's user
// channel. The relay is fire-and-forget, so this never errors; the
// Notifier interface keeps the error path open for transports that can.
type RelayNotifier struct {
	relay relay.Relay
}

func NewRelayNotifier(r relay.Relay) *RelayNotifier {
	return &RelayNotifier{relay: r}
}

func (n *RelayNotifier) NotifyBookingCreated(ctx context.Context, booking *models.Booking) error {
	channel := relay.UserChannel(booking.MenteeID)
	n.relay.Publish(channel, relay.NewEvent(
		relay.EventBookingCreated,
		channel,
		relay.BookingCreatedPayload{
			BookingID: booking.ID,
			Title:     booking.Title,
			StartTime: booking.StartTime.UTC().Format(time.RFC3339),
			EndTime:   booking.EndTime.UTC().Format(time.RFC3339),
		},
	))
	return nil
}
