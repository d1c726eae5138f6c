package dtos

// InitiateCallRequest is the body of POST /call/initiate.
type InitiateCallRequest struct {
	RecipientID string `json:"recipientId" binding:"required,uuid"`
	ChannelName string `json:"channelName" binding:"required,max=100"`
	IsVideo     bool   `json:"isVideo"`
}

// CallActionRequest is the body of POST /call/accept, /call/reject and
// /call/end.
type CallActionRequest struct {
	ChannelName string `json:"channelName" binding:"required,max=100"`
}

// SubscribeMessage is the WebSocket envelope clients send to follow or
// leave a call channel.
type SubscribeMessage struct {
	Action  string `json:"action"` // "subscribe" or "unsubscribe"
	Channel string `json:"channel"`
}
