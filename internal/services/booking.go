package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"eventshub/internal/domain"
	"eventshub/internal/slug"
)

type bookingService struct {
	eventRepo      domain.EventRepository
	bookingRepo    domain.BookingRepository
	emailService   domain.EmailService
	publisher      domain.ChangePublisher
	logger         *slog.Logger
	contextTimeout time.Duration
	now            func() time.Time
}

// NewBookingService creates a BookingService. emailService and publisher may be nil, in
// which case no confirmation emails or change notifications are sent.
func NewBookingService(
	eventRepo domain.EventRepository,
	bookingRepo domain.BookingRepository,
	emailService domain.EmailService,
	publisher domain.ChangePublisher,
	logger *slog.Logger,
	timeout time.Duration,
) domain.BookingService {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &bookingService{
		eventRepo:      eventRepo,
		bookingRepo:    bookingRepo,
		emailService:   emailService,
		publisher:      publisher,
		logger:         logger,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

// Book inserts a booking for identity. There is no existence pre-check: a duplicate is
// detected by the unique (event, user) index and reported as AlreadyBooked.
func (s *bookingService) Book(ctx context.Context, eventID string, identity *domain.Identity) (*domain.BookingResult, error) {
	if identity == nil || strings.TrimSpace(identity.UserID) == "" {
		return &domain.BookingResult{Unauthorized: true}, &domain.Error{
			Kind:    domain.KindUnauthorized,
			Message: "Sign in to book this event",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	eventID = strings.TrimSpace(eventID)
	if _, err := uuid.Parse(eventID); err != nil {
		return &domain.BookingResult{}, domain.NewCastError("event_id", err)
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.BookingResult{}, domain.NewNotFoundError("Event not found")
		}
		return &domain.BookingResult{}, fmt.Errorf("get event: %w", err)
	}

	now := s.now()
	booking := domain.NewBooking(event.ID, identity.UserID, now, now)
	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return &domain.BookingResult{Success: true, AlreadyBooked: true}, nil
		}
		return &domain.BookingResult{}, fmt.Errorf("create booking: %w", err)
	}

	s.sendConfirmation(ctx, identity, event)
	if s.publisher != nil {
		payload := domain.BookingCreatedPayload{BookingID: booking.ID, EventID: event.ID, EventSlug: event.Slug, UserID: identity.UserID}
		if err := s.publisher.Publish(ctx, domain.ChangeBookingCreated, payload); err != nil {
			s.logger.Warn("change notification not published", "routing_key", domain.ChangeBookingCreated, "error", err)
		}
	}
	return &domain.BookingResult{Success: true, Booking: booking}, nil
}

func (s *bookingService) sendConfirmation(ctx context.Context, identity *domain.Identity, event *domain.Event) {
	if s.emailService == nil || identity.Email == "" {
		return
	}
	data := &domain.BookingConfirmationEmailData{
		Email:      identity.Email,
		EventTitle: event.Title,
		EventSlug:  event.Slug,
		Venue:      event.Venue,
		Location:   event.Location,
		Date:       event.Date,
		Time:       event.Time,
	}
	if err := s.emailService.SendBookingConfirmation(ctx, data); err != nil {
		s.logger.Warn("booking confirmation not sent", "slug", event.Slug, "user_id", identity.UserID, "error", err)
	}
}

func (s *bookingService) ListUserBookings(ctx context.Context, userID string) ([]*domain.BookedEvent, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrUnauthorized
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	booked, err := s.bookingRepo.ListByUserWithEvents(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	if booked == nil {
		booked = []*domain.BookedEvent{}
	}
	return booked, nil
}

// CountEventBookings returns how many users booked the event identified by slug.
func (s *bookingService) CountEventBookings(ctx context.Context, eventSlug string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetBySlug(ctx, slug.Normalize(eventSlug))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, domain.NewNotFoundError("Event not found")
		}
		return 0, fmt.Errorf("get event: %w", err)
	}
	n, err := s.bookingRepo.CountByEventID(ctx, event.ID)
	if err != nil {
		return 0, fmt.Errorf("count bookings: %w", err)
	}
	return n, nil
}
