package call

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/arnavdesai/MentorLink/internal/apperr"
	"github.com/arnavdesai/MentorLink/internal/media"
)

// terminalSignal selects which fire-and-forget REST call accompanies a
// terminal transition.
type terminalSignal int

const (
	signalNone terminalSignal = iota
	signalReject
	signalEnd
)

// Channel is the per-attempt call state machine. One instance per call
// attempt, created on initiation or an incoming invitation, destroyed
// on reaching Ended.
//
// Every transition runs under one mutex, so concurrent triggers (local
// user action, broker event, ring timer, a REST echo) serialize, and
// the terminal transition executes its cleanup at most once.
type Channel struct {
	mu    sync.Mutex
	state State

	tracks      *media.TrackSet
	media       *media.Manager
	publisher   media.Publisher
	newPub      PublisherFunc
	signaler    Signaler
	bus         EventBus
	unsubscribe func()

	ringTimer   *time.Timer
	ringTimeout time.Duration

	onEnded func()
	logger  zerolog.Logger
}

func newChannel(state State, mediaMgr *media.Manager, newPub PublisherFunc, signaler Signaler, bus EventBus, ringTimeout time.Duration) *Channel {
	return &Channel{
		state:       state,
		media:       mediaMgr,
		newPub:      newPub,
		signaler:    signaler,
		bus:         bus,
		ringTimeout: ringTimeout,
		logger: log.With().
			Str("module", "call").
			Str("channel", state.ChannelName).
			Logger(),
	}
}

// State returns a snapshot.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// TrackCount reports the live local tracks; zero after cleanup.
func (c *Channel) TrackCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tracks == nil {
		return 0
	}
	return c.tracks.Len()
}

// start runs the outgoing-call transition Idle → Calling. Local media
// is acquired before any signaling action: if acquisition fails, no
// network call is made and the channel stays Idle.
func (c *Channel) start(ctx context.Context) error {
	tracks, err := c.media.Acquire(ctx, c.state.IsVideo)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.tracks = tracks
	c.state.Phase = PhaseCalling
	c.unsubscribe = c.bus.Subscribe(c.state.ChannelName, c.handleEvent)
	c.armRingTimerLocked(signalEnd)
	c.mu.Unlock()

	if err := c.signaler.Initiate(ctx, c.state.PeerID, c.state.ChannelName, c.state.IsVideo); err != nil {
		c.logger.Warn().Err(err).Msg("initiate signaling failed")
		c.terminate(ctx, ReasonSignalingError, signalNone)
		return err
	}
	c.logger.Info().Bool("video", c.state.IsVideo).Msg("calling")
	return nil
}

// ring runs the incoming-call setup: the channel starts in Calling,
// listening for the caller's cancel. Media is not touched until the
// user accepts.
func (c *Channel) ring() {
	c.mu.Lock()
	c.state.Phase = PhaseCalling
	c.unsubscribe = c.bus.Subscribe(c.state.ChannelName, c.handleEvent)
	c.armRingTimerLocked(signalReject)
	c.mu.Unlock()
	c.logger.Info().Str("caller", c.state.PeerName).Msg("ringing")
}

// Accept answers an incoming call: acquire media first, then POST
// accept. An acquisition failure sends nothing and leaves the channel
// in Calling so the user can retry or decline.
func (c *Channel) Accept(ctx context.Context) error {
	c.mu.Lock()
	if c.state.Phase != PhaseCalling || !c.state.Incoming {
		phase := c.state.Phase
		c.mu.Unlock()
		return apperr.Newf(apperr.KindValidation, "no incoming call to accept (state %s)", phase)
	}
	c.mu.Unlock()

	tracks, err := c.media.Acquire(ctx, c.state.IsVideo)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.state.Phase != PhaseCalling {
		c.mu.Unlock()
		c.media.Release(tracks)
		return apperr.New(apperr.KindValidation, "call ended while acquiring media")
	}
	c.tracks = tracks
	c.state.Phase = PhaseConnected
	c.stopRingTimerLocked()
	c.mu.Unlock()

	if err := c.signaler.Accept(ctx, c.state.ChannelName); err != nil {
		// Best-effort: local state is already Connected.
		c.logger.Warn().Err(err).Msg("accept signaling failed")
	}
	c.publishTracks()
	c.logger.Info().Msg("connected")
	return nil
}

// publishTracks hands the acquired tracks to the media provider on the
// transition into Connected. A provider failure is logged and the call
// stays connected; the provider renegotiates on its own.
func (c *Channel) publishTracks() {
	if c.newPub == nil {
		return
	}
	pub, err := c.newPub()
	if err != nil {
		c.logger.Warn().Err(err).Msg("media provider unavailable")
		return
	}

	c.mu.Lock()
	if c.state.Phase != PhaseConnected {
		c.mu.Unlock()
		pub.Close()
		return
	}
	c.publisher = pub
	tracks := c.tracks
	c.mu.Unlock()

	if err := pub.Publish(tracks); err != nil {
		c.logger.Warn().Err(err).Msg("publishing local tracks failed")
	}
}

// Decline rejects an incoming call: POST reject, then cleanup.
func (c *Channel) Decline(ctx context.Context) {
	c.terminate(ctx, ReasonDeclined, signalReject)
}

// End terminates the attempt from either live phase. Cancelling an
// outgoing ring and hanging up a connected call both signal end first,
// then clean up locally regardless of the signal's outcome.
func (c *Channel) End(ctx context.Context) {
	c.mu.Lock()
	phase, incoming := c.state.Phase, c.state.Incoming
	c.mu.Unlock()

	switch {
	case phase == PhaseCalling && incoming:
		c.terminate(ctx, ReasonDeclined, signalReject)
	case phase == PhaseCalling:
		c.terminate(ctx, ReasonCancelled, signalEnd)
	case phase == PhaseConnected:
		c.terminate(ctx, ReasonEnded, signalEnd)
	}
}

// HandleDialogClose maps a UI close action onto the machine: closing
// while ringing ends the attempt; closing while connected is refused —
// the user must end the call first.
func (c *Channel) HandleDialogClose(ctx context.Context) error {
	c.mu.Lock()
	phase := c.state.Phase
	c.mu.Unlock()

	if phase == PhaseConnected {
		return apperr.New(apperr.KindValidation, "end the call before closing")
	}
	if phase == PhaseCalling {
		c.End(ctx)
	}
	return nil
}

// handleEvent applies a broker event. The broker is at-least-once with
// no ordering guarantee, so duplicates and late events are expected:
// anything arriving after the terminal transition is silently dropped.
func (c *Channel) handleEvent(ev Event) {
	c.mu.Lock()
	if c.state.Phase == PhaseEnded {
		c.mu.Unlock()
		c.logger.Debug().Str("event", ev.Kind.String()).Msg("event after end ignored")
		return
	}

	switch ev.Kind {
	case EventAccepted:
		if c.state.Phase == PhaseCalling && !c.state.Incoming {
			c.state.Phase = PhaseConnected
			c.stopRingTimerLocked()
			c.mu.Unlock()
			c.publishTracks()
			c.logger.Info().Msg("connected")
			return
		}
		c.mu.Unlock()
	case EventRejected:
		c.mu.Unlock()
		c.terminate(context.Background(), ReasonRejected, signalNone)
	case EventEnded:
		c.mu.Unlock()
		c.terminate(context.Background(), ReasonEnded, signalNone)
	default:
		c.mu.Unlock()
	}
}

// terminate is the single transition into Ended. The phase check under
// the mutex guarantees the cleanup below runs at most once per attempt
// no matter how many triggers race. The REST signal is sent before
// local cleanup but its failure never blocks it.
func (c *Channel) terminate(ctx context.Context, reason string, sig terminalSignal) bool {
	c.mu.Lock()
	if c.state.Phase == PhaseEnded {
		c.mu.Unlock()
		return false
	}
	c.state.Phase = PhaseEnded
	c.state.EndReason = reason
	c.stopRingTimerLocked()
	tracks := c.tracks
	c.tracks = nil
	publisher := c.publisher
	c.publisher = nil
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	switch sig {
	case signalReject:
		if err := c.signaler.Reject(ctx, c.state.ChannelName); err != nil {
			c.logger.Warn().Err(err).Msg("reject signaling failed")
		}
	case signalEnd:
		if err := c.signaler.End(ctx, c.state.ChannelName); err != nil {
			c.logger.Warn().Err(err).Msg("end signaling failed")
		}
	}

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			c.logger.Warn().Err(err).Msg("failed to close media provider")
		}
	}
	c.media.Release(tracks)
	if unsubscribe != nil {
		unsubscribe()
	}
	if c.onEnded != nil {
		c.onEnded()
	}
	c.logger.Info().Str("reason", reason).Msg("call ended")
	return true
}

// armRingTimerLocked starts the no-answer timer. Caller holds c.mu.
func (c *Channel) armRingTimerLocked(sig terminalSignal) {
	if c.ringTimeout <= 0 {
		return
	}
	c.ringTimer = time.AfterFunc(c.ringTimeout, func() {
		c.terminate(context.Background(), ReasonNoAnswer, sig)
	})
}

// stopRingTimerLocked cancels the no-answer timer. Caller holds c.mu.
func (c *Channel) stopRingTimerLocked() {
	if c.ringTimer != nil {
		c.ringTimer.Stop()
		c.ringTimer = nil
	}
}
