// Command callclient is a terminal client for the call signaling
// server: it dials the WebSocket feed, bridges server events onto a
// local relay, and drives a call attempt end to end (ring, accept,
// media publish, hang up on interrupt).
package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/arnavdesai/MentorLink/internal/call"
	"github.com/arnavdesai/MentorLink/internal/dtos"
	"github.com/arnavdesai/MentorLink/internal/media"
	"github.com/arnavdesai/MentorLink/internal/relay"
)

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "signaling server base URL")
	token := flag.String("token", os.Getenv("MENTORLINK_TOKEN"), "access token")
	channel := flag.String("channel", "", "call channel (booking id); empty waits for incoming calls")
	recipient := flag.String("recipient", "", "recipient user id, required with -channel")
	video := flag.Bool("video", false, "acquire the camera in addition to the microphone")
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if *token == "" {
		log.Fatal().Msg("an access token is required (-token or MENTORLINK_TOKEN)")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	source, err := media.NewUserMediaSource()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up media capture")
	}

	hub := relay.NewHub()
	manager := call.NewManager(
		media.NewManager(source),
		func() (media.Publisher, error) {
			return media.NewWebRTCPublisher(media.DefaultWebRTCConfig())
		},
		call.NewHTTPSignaler(*serverURL, *token),
		call.NewRelayBus(hub),
		45*time.Second,
	)

	conn, err := dialFeed(ctx, *serverURL, *token)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to the event feed")
	}
	defer conn.Close()

	go readFeed(conn, hub, manager)

	if *channel != "" {
		recipientID, err := uuid.Parse(*recipient)
		if err != nil {
			log.Fatal().Msg("-recipient must be the other party's user id")
		}
		if err := followChannel(conn, *channel); err != nil {
			log.Fatal().Err(err).Msg("failed to follow the call channel")
		}
		if _, err := manager.Initiate(ctx, recipientID, "", *channel, *video); err != nil {
			log.Fatal().Err(err).Msg("call failed")
		}
		log.Info().Str("channel", *channel).Msg("calling, interrupt to hang up")
	} else {
		log.Info().Msg("waiting for incoming calls, interrupt to quit")
	}

	<-ctx.Done()
	if active := manager.Active(); active != nil {
		active.End(context.Background())
	}
}

// dialFeed opens the server's WebSocket event feed with the token in
// the query string, the only place a browser peer could carry it too.
func dialFeed(ctx context.Context, serverURL, token string) (*websocket.Conn, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/api/ws"
	u.RawQuery = "token=" + url.QueryEscape(token)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	return conn, err
}

// followChannel asks the feed to deliver a call channel's events.
func followChannel(conn *websocket.Conn, channelName string) error {
	return conn.WriteJSON(dtos.SubscribeMessage{
		Action:  "subscribe",
		Channel: relay.CallChannel(channelName),
	})
}

// readFeed pumps server events onto the local relay, ringing the
// manager on invitations. Incoming calls are answered immediately;
// this client has no UI to prompt with.
func readFeed(conn *websocket.Conn, hub *relay.Hub, manager *call.Manager) {
	for {
		var ev relay.Event
		if err := conn.ReadJSON(&ev); err != nil {
			log.Warn().Err(err).Msg("event feed closed")
			return
		}

		if ev.Name == relay.EventIncomingCall {
			var payload relay.IncomingCallPayload
			if err := json.Unmarshal(ev.Payload, &payload); err != nil {
				log.Warn().Err(err).Msg("malformed invitation")
				continue
			}
			go answer(conn, manager, payload)
			continue
		}

		hub.Publish(ev.Channel, ev)
	}
}

func answer(conn *websocket.Conn, manager *call.Manager, payload relay.IncomingCallPayload) {
	ch, err := manager.HandleIncoming(call.Invitation{
		ChannelName: payload.ChannelName,
		CallerID:    payload.CallerID,
		CallerName:  payload.CallerName,
		IsVideo:     payload.IsVideo,
	})
	if err != nil {
		log.Warn().Err(err).Str("caller", payload.CallerName).Msg("invitation refused")
		return
	}
	if err := followChannel(conn, payload.ChannelName); err != nil {
		log.Warn().Err(err).Msg("failed to follow the call channel")
	}
	if err := ch.Accept(context.Background()); err != nil {
		log.Warn().Err(err).Msg("failed to answer")
		ch.Decline(context.Background())
	}
}
