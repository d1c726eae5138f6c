//go:build linux

package media

import (
	"context"

	"github.com/pion/mediadevices"
	"github.com/pion/mediadevices/pkg/codec/opus"
	"github.com/pion/mediadevices/pkg/codec/vpx"
	_ "github.com/pion/mediadevices/pkg/driver/camera"
	_ "github.com/pion/mediadevices/pkg/driver/microphone"
	"github.com/pion/webrtc/v4"
)

// UserMediaSource captures the local microphone (malgo) and camera
// (V4L2) through pion/mediadevices.
type UserMediaSource struct {
	selector *mediadevices.CodecSelector
}

func NewUserMediaSource() (*UserMediaSource, error) {
	vpxParams, err := vpx.NewVP8Params()
	if err != nil {
		return nil, err
	}
	vpxParams.BitRate = 1_500_000

	opusParams, err := opus.NewParams()
	if err != nil {
		return nil, err
	}

	return &UserMediaSource{
		selector: mediadevices.NewCodecSelector(
			mediadevices.WithVideoEncoders(&vpxParams),
			mediadevices.WithAudioEncoders(&opusParams),
		),
	}, nil
}

func (s *UserMediaSource) OpenAudioTrack(ctx context.Context) (Track, error) {
	stream, err := mediadevices.GetUserMedia(mediadevices.MediaStreamConstraints{
		Audio: func(c *mediadevices.MediaTrackConstraints) {},
		Codec: s.selector,
	})
	if err != nil {
		return nil, err
	}
	return &deviceTrack{kind: "audio", track: stream.GetAudioTracks()[0]}, nil
}

func (s *UserMediaSource) OpenVideoTrack(ctx context.Context) (Track, error) {
	stream, err := mediadevices.GetUserMedia(mediadevices.MediaStreamConstraints{
		Video: func(c *mediadevices.MediaTrackConstraints) {},
		Codec: s.selector,
	})
	if err != nil {
		return nil, err
	}
	return &deviceTrack{kind: "video", track: stream.GetVideoTracks()[0]}, nil
}

type deviceTrack struct {
	kind  string
	track mediadevices.Track
}

func (t *deviceTrack) Kind() string { return t.kind }

func (t *deviceTrack) Local() webrtc.TrackLocal { return t.track }

func (t *deviceTrack) Close() error { return t.track.Close() }
