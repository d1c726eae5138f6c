package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/arnavdesai/MentorLink/internal/apperr"
	"github.com/arnavdesai/MentorLink/internal/dtos"
	"github.com/arnavdesai/MentorLink/internal/models"
	"github.com/arnavdesai/MentorLink/internal/utils"
)

// Stores the booking service depends on. The concrete repositories
// satisfy these; tests substitute fakes.
type BookingStore interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.BookingStatus) error
	ListForMentor(ctx context.Context, mentorID uuid.UUID) ([]models.Booking, error)
	ListForMentee(ctx context.Context, menteeID uuid.UUID) ([]models.Booking, error)
}

type ConnectionStore interface {
	GetBetween(ctx context.Context, mentorUserID, menteeID uuid.UUID) (*models.Connection, error)
}

type MentorStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.MentorProfile, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.MentorProfile, error)
}

type UserStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type AvailabilityStore interface {
	ListForMentor(ctx context.Context, mentorID uuid.UUID) ([]models.AvailabilitySlot, error)
}

// Notifier delivers out-of-band notifications. Its failures never fail
// the operation that triggered them.
type Notifier interface {
	NotifyBookingCreated(ctx context.Context, booking *models.Booking) error
}

type BookingService struct {
	bookings     BookingStore
	connections  ConnectionStore
	mentors      MentorStore
	users        UserStore
	availability AvailabilityStore
	notifier     Notifier
	clock        utils.Clock
}

func NewBookingService(
	bookings BookingStore,
	connections ConnectionStore,
	mentors MentorStore,
	users UserStore,
	availability AvailabilityStore,
	notifier Notifier,
	clock utils.Clock,
) *BookingService {
	return &BookingService{
		bookings:     bookings,
		connections:  connections,
		mentors:      mentors,
		users:        users,
		availability: availability,
		notifier:     notifier,
		clock:        clock,
	}
}

// CreateSession validates and persists a mentor-initiated booking. The
// checks run in a fixed order and the first failure wins:
//
//  1. times parse and start < end strictly
//  2. start is not in the past
//  3. mentor profile exists and belongs to the requesting user
//  4. mentee exists and has the mentee role
//  5. an accepted connection exists between the two
//  6. no active booking overlaps [start, end) for this mentor
//
// Mentor-initiated bookings auto-confirm. The mentee notification after
// a successful insert is best-effort: its failure is logged, never
// propagated.
func (s *BookingService) CreateSession(
	ctx context.Context,
	requestingUserID uuid.UUID,
	req dtos.CreateSessionRequest,
) (*models.Booking, error) {
	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return nil, apperr.New(apperr.KindValidation, "startTime must be a valid ISO8601 instant")
	}
	end, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		return nil, apperr.New(apperr.KindValidation, "endTime must be a valid ISO8601 instant")
	}
	if !start.Before(end) {
		return nil, apperr.New(apperr.KindValidation, "startTime must be before endTime")
	}

	if start.Before(s.clock.Now()) {
		return nil, apperr.New(apperr.KindValidation, "cannot book a session in the past")
	}

	mentorProfileID, err := uuid.Parse(req.MentorProfileID)
	if err != nil {
		return nil, apperr.New(apperr.KindValidation, "invalid mentorProfileId")
	}
	profile, err := s.mentors.FindByID(ctx, mentorProfileID)
	if err != nil {
		return nil, err
	}
	if profile.UserID != requestingUserID {
		return nil, apperr.New(apperr.KindAuthorization, "mentor profile is not owned by the requesting user")
	}

	menteeID, err := uuid.Parse(req.MenteeID)
	if err != nil {
		return nil, apperr.New(apperr.KindValidation, "invalid menteeId")
	}
	mentee, err := s.users.FindByID(ctx, menteeID)
	if err != nil {
		return nil, err
	}
	if mentee.Role != models.UserRoleMentee {
		return nil, apperr.New(apperr.KindValidation, "recipient is not a mentee")
	}

	conn, err := s.connections.GetBetween(ctx, profile.UserID, menteeID)
	if err != nil {
		// A missing connection is an authorization failure; anything
		// else (the store itself failing) must surface as-is.
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.New(apperr.KindAuthorization, "no accepted connection with this mentee")
		}
		return nil, err
	}
	if conn.Status != models.ConnectionStatusAccepted {
		return nil, apperr.New(apperr.KindAuthorization, "no accepted connection with this mentee")
	}

	booking := &models.Booking{
		ID:          uuid.New(),
		MentorID:    mentorProfileID,
		MenteeID:    menteeID,
		Title:       req.Title,
		Description: req.Description,
		StartTime:   start.UTC(),
		EndTime:     end.UTC(),
		Status:      models.BookingStatusConfirmed,
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, err
	}

	if err := s.notifier.NotifyBookingCreated(ctx, booking); err != nil {
		log.Warn().Err(err).
			Str("booking_id", booking.ID.String()).
			Msg("booking created but mentee notification failed")
	}

	return booking, nil
}

// UpdateStatus applies one of the allowed status transitions. Only a
// participant of the booking may change it; times are immutable.
func (s *BookingService) UpdateStatus(
	ctx context.Context,
	requestingUserID uuid.UUID,
	bookingID uuid.UUID,
	newStatus models.BookingStatus,
) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeParticipant(ctx, requestingUserID, booking); err != nil {
		return nil, err
	}

	if !booking.Status.CanTransitionTo(newStatus) {
		return nil, apperr.Newf(apperr.KindValidation,
			"cannot change booking status from %s to %s", booking.Status, newStatus)
	}

	if err := s.bookings.UpdateStatus(ctx, bookingID, newStatus); err != nil {
		return nil, err
	}
	booking.Status = newStatus
	return booking, nil
}

// ListForUser returns the caller's bookings, resolving whether they are
// the mentor or the mentee side.
func (s *BookingService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Booking, error) {
	if profile, err := s.mentors.FindByUserID(ctx, userID); err == nil {
		return s.bookings.ListForMentor(ctx, profile.ID)
	}
	return s.bookings.ListForMentee(ctx, userID)
}

// Availability groups a mentor's recurring slots by weekday for the
// read-only collaborator endpoint.
func (s *BookingService) Availability(ctx context.Context, mentorProfileID uuid.UUID) ([]dtos.AvailabilityDayResponse, error) {
	if _, err := s.mentors.FindByID(ctx, mentorProfileID); err != nil {
		return nil, err
	}

	slots, err := s.availability.ListForMentor(ctx, mentorProfileID)
	if err != nil {
		return nil, err
	}

	byDay := make(map[time.Weekday][]dtos.AvailabilitySlotResponse)
	for _, slot := range slots {
		byDay[slot.DayOfWeek] = append(byDay[slot.DayOfWeek], dtos.AvailabilitySlotResponse{
			Start: minuteClock(slot.StartMinute),
			End:   minuteClock(slot.EndMinute),
		})
	}

	days := make([]dtos.AvailabilityDayResponse, 0, len(byDay))
	for day := time.Sunday; day <= time.Saturday; day++ {
		if slots, ok := byDay[day]; ok {
			days = append(days, dtos.AvailabilityDayResponse{Day: day.String(), Slots: slots})
		}
	}
	return days, nil
}

func (s *BookingService) authorizeParticipant(ctx context.Context, userID uuid.UUID, booking *models.Booking) error {
	if booking.MenteeID == userID {
		return nil
	}
	if profile, err := s.mentors.FindByUserID(ctx, userID); err == nil && profile.ID == booking.MentorID {
		return nil
	}
	return apperr.New(apperr.KindAuthorization, "not a participant of this booking")
}

func minuteClock(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
