package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/arnavdesai/MentorLink/internal/apperr"
	"github.com/arnavdesai/MentorLink/internal/models"
	"github.com/arnavdesai/MentorLink/internal/relay"
	"github.com/arnavdesai/MentorLink/internal/utils"
)

type CallAttemptStore interface {
	Create(ctx context.Context, attempt *models.CallAttempt) error
	GetLatestByChannel(ctx context.Context, channelName string) (*models.CallAttempt, error)
	MarkActive(ctx context.Context, channelName string) error
	End(ctx context.Context, channelName, reason string) error
}

// CallService turns the signaling POSTs into relay broadcasts. The
// relay is best-effort, and so is the audit trail: a failed audit write
// is logged and never blocks a broadcast.
type CallService struct {
	attempts CallAttemptStore
	bookings BookingStore
	mentors  MentorStore
	users    UserStore
	relay    relay.Relay
	clock    utils.Clock
}

func NewCallService(
	attempts CallAttemptStore,
	bookings BookingStore,
	mentors MentorStore,
	users UserStore,
	r relay.Relay,
	clock utils.Clock,
) *CallService {
	return &CallService{
		attempts: attempts,
		bookings: bookings,
		mentors:  mentors,
		users:    users,
		relay:    r,
		clock:    clock,
	}
}

// Initiate broadcasts an incoming-call invitation on the recipient's
// user channel. The channel name must reference a confirmed booking the
// caller is a party of, the recipient must be the other party, and the
// current time must fall inside the booking's joinable window.
func (s *CallService) Initiate(
	ctx context.Context,
	callerID uuid.UUID,
	recipientID uuid.UUID,
	channelName string,
	isVideo bool,
) error {
	booking, err := s.authorizeChannel(ctx, callerID, recipientID, channelName)
	if err != nil {
		return err
	}
	if ok, reason := utils.ValidateSessionWindow(booking.StartTime, booking.EndTime, s.clock.Now()); !ok {
		return apperr.New(apperr.KindValidation, reason)
	}

	caller, err := s.users.FindByID(ctx, callerID)
	if err != nil {
		return err
	}

	attempt := &models.CallAttempt{
		ID:          uuid.New(),
		ChannelName: channelName,
		CallerID:    callerID,
		CalleeID:    recipientID,
		IsVideo:     isVideo,
		Status:      models.CallAttemptStatusRinging,
	}
	if err := s.attempts.Create(ctx, attempt); err != nil {
		log.Warn().Err(err).Str("channel", channelName).Msg("failed to record call attempt")
	}

	s.relay.Publish(relay.UserChannel(recipientID), relay.NewEvent(
		relay.EventIncomingCall,
		relay.UserChannel(recipientID),
		relay.IncomingCallPayload{
			ChannelName: channelName,
			CallerID:    callerID,
			CallerName:  caller.Username,
			IsVideo:     isVideo,
		},
	))
	return nil
}

// Accept broadcasts call-accepted on the call channel.
func (s *CallService) Accept(ctx context.Context, userID uuid.UUID, channelName string) error {
	if err := s.authorizeParticipant(ctx, userID, channelName); err != nil {
		return err
	}
	if err := s.attempts.MarkActive(ctx, channelName); err != nil {
		log.Warn().Err(err).Str("channel", channelName).Msg("failed to mark call attempt active")
	}
	s.broadcast(channelName, relay.EventCallAccepted, "")
	return nil
}

// Reject broadcasts call-rejected and closes the audit row.
func (s *CallService) Reject(ctx context.Context, userID uuid.UUID, channelName string) error {
	if err := s.authorizeParticipant(ctx, userID, channelName); err != nil {
		return err
	}
	if err := s.attempts.End(ctx, channelName, "rejected"); err != nil {
		log.Warn().Err(err).Str("channel", channelName).Msg("failed to end call attempt")
	}
	s.broadcast(channelName, relay.EventCallRejected, "rejected")
	return nil
}

// End broadcasts call-ended and closes the audit row.
func (s *CallService) End(ctx context.Context, userID uuid.UUID, channelName string) error {
	if err := s.authorizeParticipant(ctx, userID, channelName); err != nil {
		return err
	}
	if err := s.attempts.End(ctx, channelName, "ended"); err != nil {
		log.Warn().Err(err).Str("channel", channelName).Msg("failed to end call attempt")
	}
	s.broadcast(channelName, relay.EventCallEnded, "ended")
	return nil
}

func (s *CallService) broadcast(channelName, event, reason string) {
	s.relay.Publish(relay.CallChannel(channelName), relay.NewEvent(
		event,
		relay.CallChannel(channelName),
		relay.CallLifecyclePayload{ChannelName: channelName, Reason: reason},
	))
}

// AuthorizeSubscriber checks whether a user may follow a call channel's
// lifecycle events: only the referenced booking's two parties may.
func (s *CallService) AuthorizeSubscriber(ctx context.Context, userID uuid.UUID, channelName string) error {
	bookingID, err := uuid.Parse(channelName)
	if err != nil {
		return apperr.New(apperr.KindValidation, "channel must reference a booking id")
	}
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	mentorUserID, err := s.mentorUserID(ctx, booking)
	if err != nil {
		return err
	}
	if userID != mentorUserID && userID != booking.MenteeID {
		return apperr.New(apperr.KindAuthorization, "not a participant of this booking")
	}
	return nil
}

// authorizeChannel checks that the channel references a confirmed
// booking whose two parties are exactly the caller and the recipient.
func (s *CallService) authorizeChannel(ctx context.Context, callerID, recipientID uuid.UUID, channelName string) (*models.Booking, error) {
	bookingID, err := uuid.Parse(channelName)
	if err != nil {
		return nil, apperr.New(apperr.KindValidation, "channelName must be a booking id")
	}
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingStatusConfirmed {
		return nil, apperr.New(apperr.KindValidation, "booking is not confirmed")
	}

	mentorUserID, err := s.mentorUserID(ctx, booking)
	if err != nil {
		return nil, err
	}
	participants := map[uuid.UUID]bool{mentorUserID: true, booking.MenteeID: true}
	if !participants[callerID] || !participants[recipientID] || callerID == recipientID {
		return nil, apperr.New(apperr.KindAuthorization, "not a participant of this booking")
	}
	return booking, nil
}

// authorizeParticipant checks the acting user against the latest
// attempt on the channel.
func (s *CallService) authorizeParticipant(ctx context.Context, userID uuid.UUID, channelName string) error {
	attempt, err := s.attempts.GetLatestByChannel(ctx, channelName)
	if err != nil {
		return err
	}
	if attempt.CallerID != userID && attempt.CalleeID != userID {
		return apperr.New(apperr.KindAuthorization, "not a participant of this call")
	}
	return nil
}

func (s *CallService) mentorUserID(ctx context.Context, booking *models.Booking) (uuid.UUID, error) {
	profile, err := s.mentors.FindByID(ctx, booking.MentorID)
	if err != nil {
		return uuid.Nil, err
	}
	return profile.UserID, nil
}
