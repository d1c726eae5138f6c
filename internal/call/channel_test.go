package call_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnavdesai/MentorLink/internal/apperr"
	"github.com/arnavdesai/MentorLink/internal/call"
	"github.com/arnavdesai/MentorLink/internal/media"
)

// fakeTrack counts its closes so tests can prove release runs once.
type fakeTrack struct {
	kind   string
	mu     sync.Mutex
	closes int
}

func (t *fakeTrack) Kind() string             { return t.kind }
func (t *fakeTrack) Local() webrtc.TrackLocal { return nil }
func (t *fakeTrack) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closes++
	return nil
}

func (t *fakeTrack) closeCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closes
}

type fakeSource struct {
	mu       sync.Mutex
	audioErr error
	videoErr error
	acquired []*fakeTrack
}

func (s *fakeSource) OpenAudioTrack(ctx context.Context) (media.Track, error) {
	return s.open("audio", s.audioErr)
}

func (s *fakeSource) OpenVideoTrack(ctx context.Context) (media.Track, error) {
	return s.open("video", s.videoErr)
}

func (s *fakeSource) open(kind string, err error) (media.Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	track := &fakeTrack{kind: kind}
	s.acquired = append(s.acquired, track)
	return track, nil
}

func (s *fakeSource) acquiredCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.acquired)
}

// fakeSignaler records signaling calls and can fail them all.
type fakeSignaler struct {
	mu        sync.Mutex
	initiates int
	accepts   int
	rejects   int
	ends      int
	err       error
}

func (s *fakeSignaler) Initiate(ctx context.Context, recipientID uuid.UUID, channelName string, isVideo bool) error {
	return s.record(&s.initiates)
}
func (s *fakeSignaler) Accept(ctx context.Context, channelName string) error {
	return s.record(&s.accepts)
}
func (s *fakeSignaler) Reject(ctx context.Context, channelName string) error {
	return s.record(&s.rejects)
}
func (s *fakeSignaler) End(ctx context.Context, channelName string) error {
	return s.record(&s.ends)
}

func (s *fakeSignaler) record(counter *int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	*counter++
	return nil
}

func (s *fakeSignaler) counts() (initiates, accepts, rejects, ends int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initiates, s.accepts, s.rejects, s.ends
}

// fakePublisher records provider sessions handed off on connect.
type fakePublisher struct {
	mu        sync.Mutex
	published []*media.TrackSet
	closes    int
}

func (p *fakePublisher) Publish(ts *media.TrackSet) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, ts)
	return nil
}

func (p *fakePublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closes++
	return nil
}

func (p *fakePublisher) publishCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

func (p *fakePublisher) closeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closes
}

// fakeBus fans events to subscribed handlers synchronously.
type fakeBus struct {
	mu       sync.Mutex
	handlers map[string][]func(call.Event)
}

func newFakeBus() *fakeBus {
	return &fakeBus{handlers: make(map[string][]func(call.Event))}
}

func (b *fakeBus) Subscribe(channelName string, fn func(call.Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[channelName] = append(b.handlers[channelName], fn)
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers, channelName)
	}
}

func (b *fakeBus) fire(channelName string, kind call.EventKind) {
	b.mu.Lock()
	handlers := append([]func(call.Event){}, b.handlers[channelName]...)
	b.mu.Unlock()
	for _, fn := range handlers {
		fn(call.Event{Kind: kind, ChannelName: channelName})
	}
}

type fixture struct {
	source    *fakeSource
	signaler  *fakeSignaler
	bus       *fakeBus
	publisher *fakePublisher
	pubErr    error
	manager   *call.Manager
}

func newFixture(ringTimeout time.Duration) *fixture {
	source := &fakeSource{}
	signaler := &fakeSignaler{}
	bus := newFakeBus()
	f := &fixture{
		source:    source,
		signaler:  signaler,
		bus:       bus,
		publisher: &fakePublisher{},
	}
	f.manager = call.NewManager(
		media.NewManager(source),
		func() (media.Publisher, error) {
			if f.pubErr != nil {
				return nil, f.pubErr
			}
			return f.publisher, nil
		},
		signaler, bus, ringTimeout,
	)
	return f
}

func TestInitiateAcquiresMediaBeforeSignaling(t *testing.T) {
	t.Parallel()

	f := newFixture(0)
	f.source.audioErr = assert.AnError

	_, err := f.manager.Initiate(context.Background(), uuid.New(), "mentee", "chan-1", true)
	require.Error(t, err)
	assert.Equal(t, apperr.KindDevice, apperr.KindOf(err))

	// No signaling action of any kind was taken and no attempt is live.
	initiates, _, _, ends := f.signaler.counts()
	assert.Zero(t, initiates)
	assert.Zero(t, ends)
	assert.Nil(t, f.manager.Active())
}

func TestOutgoingCallConnectsOnAccepted(t *testing.T) {
	t.Parallel()

	f := newFixture(0)
	ch, err := f.manager.Initiate(context.Background(), uuid.New(), "mentee", "chan-1", true)
	require.NoError(t, err)
	require.Equal(t, call.PhaseCalling, ch.State().Phase)
	require.Equal(t, 2, ch.TrackCount()) // mic + camera

	// Nothing reaches the media provider until the callee accepts.
	require.Zero(t, f.publisher.publishCount())

	f.bus.fire("chan-1", call.EventAccepted)
	assert.Equal(t, call.PhaseConnected, ch.State().Phase)
	assert.Equal(t, 2, ch.TrackCount())

	// The acquired track set is handed to the provider exactly once.
	require.Equal(t, 1, f.publisher.publishCount())
	assert.Equal(t, 2, f.publisher.published[0].Len())
}

func TestPublisherClosedOnTerminate(t *testing.T) {
	t.Parallel()

	f := newFixture(0)
	ch, err := f.manager.Initiate(context.Background(), uuid.New(), "mentee", "chan-1", false)
	require.NoError(t, err)

	f.bus.fire("chan-1", call.EventAccepted)
	require.Equal(t, 1, f.publisher.publishCount())

	ch.End(context.Background())
	ch.End(context.Background()) // duplicate hang-up closes nothing twice

	assert.Equal(t, call.PhaseEnded, ch.State().Phase)
	assert.Equal(t, 1, f.publisher.closeCount())
	assert.Zero(t, ch.TrackCount())
}

func TestPublisherFailureKeepsCallConnected(t *testing.T) {
	t.Parallel()

	f := newFixture(0)
	f.pubErr = assert.AnError

	ch, err := f.manager.Initiate(context.Background(), uuid.New(), "mentee", "chan-1", false)
	require.NoError(t, err)

	// Losing the media provider degrades the call, never drops it;
	// signaling still owns the lifecycle.
	f.bus.fire("chan-1", call.EventAccepted)
	assert.Equal(t, call.PhaseConnected, ch.State().Phase)
	assert.Equal(t, 1, ch.TrackCount())
}

func TestDuplicateRejectReleasesTracksOnce(t *testing.T) {
	t.Parallel()

	f := newFixture(0)
	ch, err := f.manager.Initiate(context.Background(), uuid.New(), "mentee", "chan-1", false)
	require.NoError(t, err)
	require.Equal(t, 1, f.source.acquiredCount())

	f.bus.fire("chan-1", call.EventRejected)
	f.bus.fire("chan-1", call.EventRejected)

	state := ch.State()
	assert.Equal(t, call.PhaseEnded, state.Phase)
	assert.Equal(t, call.ReasonRejected, state.EndReason)
	assert.Zero(t, ch.TrackCount())
	assert.Equal(t, 1, f.source.acquired[0].closeCount())
}

func TestConcurrentTerminalTriggersCleanUpOnce(t *testing.T) {
	t.Parallel()

	f := newFixture(0)
	ch, err := f.manager.Initiate(context.Background(), uuid.New(), "mentee", "chan-1", false)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.bus.fire("chan-1", call.EventRejected)
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch.End(context.Background())
		}()
	}
	wg.Wait()

	assert.Equal(t, call.PhaseEnded, ch.State().Phase)
	assert.Equal(t, 1, f.source.acquired[0].closeCount())
}

func TestAcceptedAfterEndedIsIgnored(t *testing.T) {
	t.Parallel()

	f := newFixture(0)
	ch, err := f.manager.Initiate(context.Background(), uuid.New(), "mentee", "chan-1", false)
	require.NoError(t, err)

	f.bus.fire("chan-1", call.EventRejected)
	require.Equal(t, call.PhaseEnded, ch.State().Phase)

	// A late accepted must not un-end the attempt or re-acquire media.
	f.bus.fire("chan-1", call.EventAccepted)
	assert.Equal(t, call.PhaseEnded, ch.State().Phase)
	assert.Equal(t, 1, f.source.acquiredCount())
	assert.Zero(t, ch.TrackCount())
}

func TestSecondAttemptWhileActiveIsRejected(t *testing.T) {
	t.Parallel()

	f := newFixture(0)
	_, err := f.manager.Initiate(context.Background(), uuid.New(), "mentee", "chan-1", false)
	require.NoError(t, err)

	_, err = f.manager.Initiate(context.Background(), uuid.New(), "other", "chan-2", false)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = f.manager.HandleIncoming(call.Invitation{ChannelName: "chan-3", CallerID: uuid.New()})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestNewAttemptAllowedAfterEnd(t *testing.T) {
	t.Parallel()

	f := newFixture(0)
	ch, err := f.manager.Initiate(context.Background(), uuid.New(), "mentee", "chan-1", false)
	require.NoError(t, err)
	ch.End(context.Background())

	_, err = f.manager.Initiate(context.Background(), uuid.New(), "mentee", "chan-2", false)
	assert.NoError(t, err)
}

func TestRingTimeoutEndsWithNoAnswer(t *testing.T) {
	t.Parallel()

	f := newFixture(20 * time.Millisecond)
	ch, err := f.manager.Initiate(context.Background(), uuid.New(), "mentee", "chan-1", false)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return ch.State().Phase == call.PhaseEnded
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, call.ReasonNoAnswer, ch.State().EndReason)
	_, _, _, ends := f.signaler.counts()
	assert.Equal(t, 1, ends)
	assert.Zero(t, ch.TrackCount())
}

func TestIncomingAcceptAcquiresThenSignals(t *testing.T) {
	t.Parallel()

	f := newFixture(0)
	ch, err := f.manager.HandleIncoming(call.Invitation{
		ChannelName: "chan-1",
		CallerID:    uuid.New(),
		CallerName:  "mentor",
		IsVideo:     true,
	})
	require.NoError(t, err)
	require.Equal(t, call.PhaseCalling, ch.State().Phase)
	require.Zero(t, ch.TrackCount()) // nothing acquired while ringing

	require.NoError(t, ch.Accept(context.Background()))
	assert.Equal(t, call.PhaseConnected, ch.State().Phase)
	assert.Equal(t, 2, ch.TrackCount())
	_, accepts, _, _ := f.signaler.counts()
	assert.Equal(t, 1, accepts)
	assert.Equal(t, 1, f.publisher.publishCount())
}

func TestIncomingAcceptMediaFailureSendsNothing(t *testing.T) {
	t.Parallel()

	f := newFixture(0)
	ch, err := f.manager.HandleIncoming(call.Invitation{ChannelName: "chan-1", CallerID: uuid.New()})
	require.NoError(t, err)

	f.source.audioErr = assert.AnError
	err = ch.Accept(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperr.KindDevice, apperr.KindOf(err))

	// Still ringing, no accept went out; the user can decline instead.
	assert.Equal(t, call.PhaseCalling, ch.State().Phase)
	_, accepts, _, _ := f.signaler.counts()
	assert.Zero(t, accepts)
}

func TestIncomingDeclineSignalsReject(t *testing.T) {
	t.Parallel()

	f := newFixture(0)
	ch, err := f.manager.HandleIncoming(call.Invitation{ChannelName: "chan-1", CallerID: uuid.New()})
	require.NoError(t, err)

	ch.Decline(context.Background())
	state := ch.State()
	assert.Equal(t, call.PhaseEnded, state.Phase)
	assert.Equal(t, call.ReasonDeclined, state.EndReason)
	_, _, rejects, _ := f.signaler.counts()
	assert.Equal(t, 1, rejects)
}

func TestSignalerFailureNeverBlocksCleanup(t *testing.T) {
	t.Parallel()

	f := newFixture(0)
	ch, err := f.manager.Initiate(context.Background(), uuid.New(), "mentee", "chan-1", false)
	require.NoError(t, err)

	f.signaler.err = assert.AnError
	ch.End(context.Background())

	assert.Equal(t, call.PhaseEnded, ch.State().Phase)
	assert.Zero(t, ch.TrackCount())
	assert.Equal(t, 1, f.source.acquired[0].closeCount())
	assert.Nil(t, f.manager.Active())
}

func TestDialogCloseRules(t *testing.T) {
	t.Parallel()

	f := newFixture(0)
	ch, err := f.manager.Initiate(context.Background(), uuid.New(), "mentee", "chan-1", false)
	require.NoError(t, err)

	f.bus.fire("chan-1", call.EventAccepted)
	require.Equal(t, call.PhaseConnected, ch.State().Phase)

	// Closing the dialog while connected is refused.
	err = ch.HandleDialogClose(context.Background())
	require.Error(t, err)
	assert.Equal(t, call.PhaseConnected, ch.State().Phase)

	// After ending, close is a no-op.
	ch.End(context.Background())
	assert.NoError(t, ch.HandleDialogClose(context.Background()))
}

func TestDialogCloseWhileCallingEndsAttempt(t *testing.T) {
	t.Parallel()

	f := newFixture(0)
	ch, err := f.manager.Initiate(context.Background(), uuid.New(), "mentee", "chan-1", false)
	require.NoError(t, err)

	require.NoError(t, ch.HandleDialogClose(context.Background()))
	state := ch.State()
	assert.Equal(t, call.PhaseEnded, state.Phase)
	_, _, _, ends := f.signaler.counts()
	assert.Equal(t, 1, ends)
}
