package relay_test

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnavdesai/MentorLink/internal/relay"
)

type recordingSubscriber struct {
	mu     sync.Mutex
	events []relay.Event
}

func (s *recordingSubscriber) Deliver(ev relay.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSubscriber) received() []relay.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]relay.Event{}, s.events...)
}

func TestHubDeliversToChannelSubscribers(t *testing.T) {
	hub := relay.NewHub()
	a := &recordingSubscriber{}
	b := &recordingSubscriber{}
	other := &recordingSubscriber{}

	hub.Subscribe("call-123", a)
	hub.Subscribe("call-123", b)
	hub.Subscribe("call-456", other)

	hub.Publish("call-123", relay.NewEvent(relay.EventCallAccepted, "call-123", nil))

	assert.Len(t, a.received(), 1)
	assert.Len(t, b.received(), 1)
	assert.Empty(t, other.received())
	assert.Equal(t, relay.EventCallAccepted, a.received()[0].Name)
}

func TestHubPublishWithoutSubscribersIsNoop(t *testing.T) {
	hub := relay.NewHub()
	assert.NotPanics(t, func() {
		hub.Publish("call-void", relay.NewEvent(relay.EventCallEnded, "call-void", nil))
	})
}

func TestHubUnsubscribeStopsDelivery(t *testing.T) {
	hub := relay.NewHub()
	sub := &recordingSubscriber{}

	hub.Subscribe("call-123", sub)
	hub.Unsubscribe("call-123", sub)
	hub.Publish("call-123", relay.NewEvent(relay.EventCallEnded, "call-123", nil))

	assert.Empty(t, sub.received())
	assert.Zero(t, hub.SubscriberCount("call-123"))
}

func TestHubUnsubscribeAllClearsEveryChannel(t *testing.T) {
	hub := relay.NewHub()
	sub := &recordingSubscriber{}
	userChannel := relay.UserChannel(uuid.New())

	hub.Subscribe(userChannel, sub)
	hub.Subscribe("call-123", sub)
	hub.UnsubscribeAll(sub)

	hub.Publish(userChannel, relay.NewEvent(relay.EventBookingCreated, userChannel, nil))
	hub.Publish("call-123", relay.NewEvent(relay.EventCallEnded, "call-123", nil))
	assert.Empty(t, sub.received())
}

func TestHubDuplicateSubscribeDeliversOnce(t *testing.T) {
	hub := relay.NewHub()
	sub := &recordingSubscriber{}

	hub.Subscribe("call-123", sub)
	hub.Subscribe("call-123", sub)
	hub.Publish("call-123", relay.NewEvent(relay.EventCallAccepted, "call-123", nil))

	assert.Len(t, sub.received(), 1)
	assert.Equal(t, 1, hub.SubscriberCount("call-123"))
}

func TestHubConcurrentPublishAndSubscribe(t *testing.T) {
	hub := relay.NewHub()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		sub := &recordingSubscriber{}
		wg.Add(2)
		go func() {
			defer wg.Done()
			hub.Subscribe("call-123", sub)
			hub.Unsubscribe("call-123", sub)
		}()
		go func() {
			defer wg.Done()
			hub.Publish("call-123", relay.NewEvent(relay.EventCallEnded, "call-123", nil))
		}()
	}
	wg.Wait()
	assert.Zero(t, hub.SubscriberCount("call-123"))
}

func TestEventEnvelopeCarriesPayload(t *testing.T) {
	payload := relay.IncomingCallPayload{
		ChannelName: "123",
		CallerID:    uuid.New(),
		CallerName:  "asha",
		IsVideo:     true,
	}
	ev := relay.NewEvent(relay.EventIncomingCall, relay.UserChannel(uuid.New()), payload)

	require.NotEmpty(t, ev.Payload)
	assert.Contains(t, string(ev.Payload), `"caller_name":"asha"`)
}
