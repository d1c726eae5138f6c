package call

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arnavdesai/MentorLink/internal/apperr"
	"github.com/arnavdesai/MentorLink/internal/media"
)

// PublisherFunc builds a fresh media provider session for one call
// attempt. Nil disables publishing (signaling-only clients).
type PublisherFunc func() (media.Publisher, error)

// Manager enforces the one-active-attempt-per-client rule and owns the
// dependencies every attempt needs. It is constructed once per client;
// channels are constructed fresh per attempt so no state bleeds between
// successive calls.
type Manager struct {
	mu     sync.Mutex
	active *Channel

	media       *media.Manager
	newPub      PublisherFunc
	signaler    Signaler
	bus         EventBus
	ringTimeout time.Duration
}

func NewManager(mediaMgr *media.Manager, newPub PublisherFunc, signaler Signaler, bus EventBus, ringTimeout time.Duration) *Manager {
	return &Manager{
		media:       mediaMgr,
		newPub:      newPub,
		signaler:    signaler,
		bus:         bus,
		ringTimeout: ringTimeout,
	}
}

// Active returns the current attempt, nil when idle.
func (m *Manager) Active() *Channel {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Initiate starts an outgoing call on the given channel. Rejected with
// a conflict if another attempt is still live.
func (m *Manager) Initiate(ctx context.Context, recipientID uuid.UUID, recipientName, channelName string, isVideo bool) (*Channel, error) {
	ch, err := m.adopt(State{
		Phase:       PhaseIdle,
		ChannelName: channelName,
		IsVideo:     isVideo,
		PeerID:      recipientID,
		PeerName:    recipientName,
	})
	if err != nil {
		return nil, err
	}

	if err := ch.start(ctx); err != nil {
		m.clear(ch)
		return nil, err
	}
	return ch, nil
}

// HandleIncoming registers a ringing attempt for an invitation pulled
// off the user channel. Rejected with a conflict while another attempt
// is live; the caller side will time out with no-answer.
func (m *Manager) HandleIncoming(inv Invitation) (*Channel, error) {
	ch, err := m.adopt(State{
		Phase:       PhaseIdle,
		ChannelName: inv.ChannelName,
		Incoming:    true,
		IsVideo:     inv.IsVideo,
		PeerID:      inv.CallerID,
		PeerName:    inv.CallerName,
	})
	if err != nil {
		return nil, err
	}

	ch.ring()
	return ch, nil
}

// adopt installs a fresh channel as the active attempt.
func (m *Manager) adopt(state State) (*Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil && m.active.State().Phase != PhaseEnded {
		return nil, apperr.New(apperr.KindConflict, "another call attempt is in progress")
	}

	ch := newChannel(state, m.media, m.newPub, m.signaler, m.bus, m.ringTimeout)
	ch.onEnded = func() { m.clear(ch) }
	m.active = ch
	return ch, nil
}

func (m *Manager) clear(ch *Channel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == ch {
		m.active = nil
	}
}
