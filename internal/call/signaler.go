package call

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/arnavdesai/MentorLink/internal/apperr"
	"github.com/arnavdesai/MentorLink/internal/dtos"
)

// Signaler performs the REST side of signaling. Calls made on terminal
// transitions are fire-and-forget with respect to local state.
type Signaler interface {
	Initiate(ctx context.Context, recipientID uuid.UUID, channelName string, isVideo bool) error
	Accept(ctx context.Context, channelName string) error
	Reject(ctx context.Context, channelName string) error
	End(ctx context.Context, channelName string) error
}

// HTTPSignaler posts to the signaling endpoints with a bearer token.
type HTTPSignaler struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHTTPSignaler(baseURL, token string) *HTTPSignaler {
	return &HTTPSignaler{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *HTTPSignaler) Initiate(ctx context.Context, recipientID uuid.UUID, channelName string, isVideo bool) error {
	return s.post(ctx, "/api/call/initiate", dtos.InitiateCallRequest{
		RecipientID: recipientID.String(),
		ChannelName: channelName,
		IsVideo:     isVideo,
	})
}

func (s *HTTPSignaler) Accept(ctx context.Context, channelName string) error {
	return s.post(ctx, "/api/call/accept", dtos.CallActionRequest{ChannelName: channelName})
}

func (s *HTTPSignaler) Reject(ctx context.Context, channelName string) error {
	return s.post(ctx, "/api/call/reject", dtos.CallActionRequest{ChannelName: channelName})
}

func (s *HTTPSignaler) End(ctx context.Context, channelName string) error {
	return s.post(ctx, "/api/call/end", dtos.CallActionRequest{ChannelName: channelName})
}

func (s *HTTPSignaler) post(ctx context.Context, path string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return apperr.Wrap(apperr.KindSignaling, "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return apperr.Wrap(apperr.KindSignaling, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.KindSignaling, "signaling request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return apperr.New(apperr.KindSignaling, fmt.Sprintf("signaling request %s returned %d", path, resp.StatusCode))
	}
	return nil
}
