package call

import (
	"github.com/arnavdesai/MentorLink/internal/relay"
)

// EventKind is a typed lifecycle event, decoupled from the broker's
// wire-level event names so the pub/sub vendor can be swapped without
// touching the state machine.
type EventKind int

const (
	EventInitiated EventKind = iota
	EventAccepted
	EventRejected
	EventEnded
)

func (k EventKind) String() string {
	switch k {
	case EventInitiated:
		return "initiated"
	case EventAccepted:
		return "accepted"
	case EventRejected:
		return "rejected"
	case EventEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Event is one lifecycle event on a call channel. Delivery is
// at-least-once: duplicates and out-of-order arrivals are expected.
type Event struct {
	Kind        EventKind
	ChannelName string
	Reason      string
}

// EventBus delivers lifecycle events for one call channel. Subscribe
// returns the matching unsubscribe, safe to call more than once.
type EventBus interface {
	Subscribe(channelName string, fn func(Event)) (unsubscribe func())
}

// RelayBus adapts the relay into the typed event bus.
type RelayBus struct {
	relay relay.Relay
}

func NewRelayBus(r relay.Relay) *RelayBus {
	return &RelayBus{relay: r}
}

func (b *RelayBus) Subscribe(channelName string, fn func(Event)) func() {
	sub := &relaySubscriber{channelName: channelName, fn: fn}
	channel := relay.CallChannel(channelName)
	b.relay.Subscribe(channel, sub)
	return func() { b.relay.Unsubscribe(channel, sub) }
}

type relaySubscriber struct {
	channelName string
	fn          func(Event)
}

func (s *relaySubscriber) Deliver(ev relay.Event) {
	kind, ok := kindFromWire(ev.Name)
	if !ok {
		return
	}
	s.fn(Event{Kind: kind, ChannelName: s.channelName})
}

func kindFromWire(name string) (EventKind, bool) {
	switch name {
	case relay.EventIncomingCall:
		return EventInitiated, true
	case relay.EventCallAccepted:
		return EventAccepted, true
	case relay.EventCallRejected:
		return EventRejected, true
	case relay.EventCallEnded:
		return EventEnded, true
	default:
		return 0, false
	}
}
