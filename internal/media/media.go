package media

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/arnavdesai/MentorLink/internal/apperr"
)

// Track is one acquired local device track.
type Track interface {
	// Kind is "audio" or "video".
	Kind() string
	// Local exposes the track for the media provider to publish. May be
	// nil for test fakes.
	Local() webrtc.TrackLocal
	Close() error
}

// TrackSet owns the tracks acquired for one call attempt. It is never
// shared across two concurrent call attempts on the same client.
type TrackSet struct {
	mu       sync.Mutex
	tracks   []Track
	released bool
}

// Tracks returns the live tracks; empty after release.
func (ts *TrackSet) Tracks() []Track {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.tracks
}

func (ts *TrackSet) Len() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return len(ts.tracks)
}

// DeviceSource opens individual hardware tracks. The Linux build backs
// this with pion/mediadevices; other platforms and tests substitute
// their own.
type DeviceSource interface {
	OpenAudioTrack(ctx context.Context) (Track, error)
	OpenVideoTrack(ctx context.Context) (Track, error)
}

// Manager acquires and releases local audio/video tracks for one call
// attempt.
type Manager struct {
	source DeviceSource
}

func NewManager(source DeviceSource) *Manager {
	return &Manager{source: source}
}

// Acquire opens the microphone, and the camera when wantsVideo. On any
// failure every already-opened track is closed before the error is
// returned, so a failed acquisition leaves nothing behind.
func (m *Manager) Acquire(ctx context.Context, wantsVideo bool) (*TrackSet, error) {
	mic, err := m.source.OpenAudioTrack(ctx)
	if err != nil {
		return nil, classifyDeviceError("microphone", err)
	}

	tracks := []Track{mic}
	if wantsVideo {
		cam, err := m.source.OpenVideoTrack(ctx)
		if err != nil {
			mic.Close()
			return nil, classifyDeviceError("camera", err)
		}
		tracks = append(tracks, cam)
	}

	return &TrackSet{tracks: tracks}, nil
}

// Release stops and releases every track in the set. Safe to call
// multiple times and from overlapping cleanup paths; only the first
// call does work.
func (m *Manager) Release(ts *TrackSet) {
	if ts == nil {
		return
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.released {
		return
	}
	ts.released = true

	for _, track := range ts.tracks {
		if err := track.Close(); err != nil {
			log.Warn().Err(err).Str("kind", track.Kind()).Msg("failed to close media track")
		}
	}
	ts.tracks = nil
}

// classifyDeviceError separates access-denied failures from missing or
// busy hardware.
func classifyDeviceError(device string, err error) error {
	msg := strings.ToLower(err.Error())
	if errors.Is(err, fs.ErrPermission) ||
		strings.Contains(msg, "permission denied") ||
		strings.Contains(msg, "not permitted") {
		return apperr.Wrap(apperr.KindPermission, device+" access denied", err)
	}
	return apperr.Wrap(apperr.KindDevice, device+" unavailable", err)
}
