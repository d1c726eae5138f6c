package call

import "github.com/google/uuid"

// Phase is the lifecycle position of one call attempt. Ended is
// terminal; nothing leaves it.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseCalling
	PhaseConnected
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCalling:
		return "calling"
	case PhaseConnected:
		return "connected"
	case PhaseEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// End reasons recorded on the terminal transition.
const (
	ReasonRejected       = "rejected"
	ReasonDeclined       = "declined"
	ReasonEnded          = "ended"
	ReasonCancelled      = "cancelled"
	ReasonNoAnswer       = "no-answer"
	ReasonSignalingError = "signaling-failed"
)

// State is the snapshot of a call attempt. All mutation funnels through
// the Channel's transition methods; there are no side flags to drift
// out of sync with the phase.
type State struct {
	Phase       Phase
	ChannelName string
	Incoming    bool
	IsVideo     bool
	PeerID      uuid.UUID
	PeerName    string
	EndReason   string
}

// Invitation is an incoming-call event addressed to this client.
type Invitation struct {
	ChannelName string
	CallerID    uuid.UUID
	CallerName  string
	IsVideo     bool
}
