//go:build !linux

package media

import (
	"context"
	"errors"
)

var errNoCaptureSupport = errors.New("media capture is only supported on linux builds")

// UserMediaSource is a stub on platforms without capture support.
type UserMediaSource struct{}

func NewUserMediaSource() (*UserMediaSource, error) {
	return &UserMediaSource{}, nil
}

func (s *UserMediaSource) OpenAudioTrack(ctx context.Context) (Track, error) {
	return nil, errNoCaptureSupport
}

func (s *UserMediaSource) OpenVideoTrack(ctx context.Context) (Track, error) {
	return nil, errNoCaptureSupport
}
