package media

import (
	"github.com/pion/interceptor"
	"github.com/pion/webrtc/v4"
)

// Publisher is the opaque media provider: once handed a track set it
// publishes the tracks over the transport negotiated out of band.
type Publisher interface {
	Publish(ts *TrackSet) error
	Close() error
}

// WebRTCPublisher attaches acquired tracks to a pion PeerConnection.
type WebRTCPublisher struct {
	pc *webrtc.PeerConnection
}

// DefaultWebRTCConfig uses a public STUN server; deployments override
// this with their own ICE servers.
func DefaultWebRTCConfig() webrtc.Configuration {
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{URLs: []string{"stun:stun.l.google.com:19302"}},
		},
	}
}

func NewWebRTCPublisher(cfg webrtc.Configuration) (*WebRTCPublisher, error) {
	mediaEngine := &webrtc.MediaEngine{}
	if err := mediaEngine.RegisterDefaultCodecs(); err != nil {
		return nil, err
	}

	interceptorRegistry := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(mediaEngine, interceptorRegistry); err != nil {
		return nil, err
	}

	api := webrtc.NewAPI(
		webrtc.WithMediaEngine(mediaEngine),
		webrtc.WithInterceptorRegistry(interceptorRegistry),
	)
	pc, err := api.NewPeerConnection(cfg)
	if err != nil {
		return nil, err
	}
	return &WebRTCPublisher{pc: pc}, nil
}

func (p *WebRTCPublisher) Publish(ts *TrackSet) error {
	for _, track := range ts.Tracks() {
		local := track.Local()
		if local == nil {
			continue
		}
		if _, err := p.pc.AddTransceiverFromTrack(local,
			webrtc.RTPTransceiverInit{Direction: webrtc.RTPTransceiverDirectionSendonly},
		); err != nil {
			return err
		}
	}
	return nil
}

func (p *WebRTCPublisher) Close() error { return p.pc.Close() }
