package relay

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Subscriber receives events published on channels it subscribed to.
// Delivery is at-least-once and non-blocking: a slow subscriber drops
// events rather than stalling the publisher.
type Subscriber interface {
	Deliver(ev Event)
}

// Relay delivers named events to named channels. No ordering guarantee
// across channels; in-channel order holds for this in-process hub but
// consumers must not depend on it.
type Relay interface {
	Publish(channel string, ev Event)
	Subscribe(channel string, sub Subscriber)
	Unsubscribe(channel string, sub Subscriber)
}

// Hub is the in-process Relay implementation.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[Subscriber]struct{}
}

func NewHub() *Hub {
	return &Hub{
		channels: make(map[string]map[Subscriber]struct{}),
	}
}

func (h *Hub) Subscribe(channel string, sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.channels[channel]
	if !ok {
		subs = make(map[Subscriber]struct{})
		h.channels[channel] = subs
	}
	subs[sub] = struct{}{}
}

func (h *Hub) Unsubscribe(channel string, sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.channels[channel]
	if !ok {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.channels, channel)
	}
}

// UnsubscribeAll removes a subscriber from every channel. Called when a
// client disconnects.
func (h *Hub) UnsubscribeAll(sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for channel, subs := range h.channels {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.channels, channel)
		}
	}
}

// Publish fans the event out to current subscribers. Publishing to a
// channel nobody listens on is not an error; the relay is best-effort.
func (h *Hub) Publish(channel string, ev Event) {
	h.mu.RLock()
	subs := make([]Subscriber, 0, len(h.channels[channel]))
	for sub := range h.channels[channel] {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	if len(subs) == 0 {
		log.Debug().Str("channel", channel).Str("event", ev.Name).Msg("publish with no subscribers")
		return
	}
	for _, sub := range subs {
		sub.Deliver(ev)
	}
}

// SubscriberCount is used by tests and diagnostics.
func (h *Hub) SubscriberCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}
