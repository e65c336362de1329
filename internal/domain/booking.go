package domain

import (
	"context"
	"time"
)

// Booking records that a user intends to attend an event. At most one per (event, user).
// swagger:model Booking
type Booking struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewBooking creates a new Booking. ID is typically set by the repository on create.
func NewBooking(eventID, userID string, createdAt, updatedAt time.Time) *Booking {
	return &Booking{
		EventID:   eventID,
		UserID:    userID,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// BookingResult is the outcome of a booking attempt. Booking an event twice is a
// successful no-op reported with AlreadyBooked.
// swagger:model BookingResult
type BookingResult struct {
	Success       bool     `json:"success"`
	AlreadyBooked bool     `json:"already_booked"`
	Unauthorized  bool     `json:"unauthorized,omitempty"`
	Booking       *Booking `json:"booking,omitempty"`
}

// EventSummary is the display projection of an event shown next to a booking.
// swagger:model EventSummary
type EventSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Slug     string `json:"slug"`
	Image    string `json:"image"`
	Location string `json:"location"`
	Date     string `json:"date"`
	Time     string `json:"time"`
}

// BookedEvent bundles a booking with the event it references.
// swagger:model BookedEvent
type BookedEvent struct {
	BookingID string       `json:"booking_id"`
	BookedAt  time.Time    `json:"booked_at"`
	Event     EventSummary `json:"event"`
}

// BookingRepository defines storage operations for bookings. Bookings are append-only.
type BookingRepository interface {
	// Create inserts the booking. A duplicate (event, user) pair yields a KindConflict error.
	Create(ctx context.Context, booking *Booking) error
	// ListByUserWithEvents returns the user's bookings newest first. Bookings whose event
	// no longer exists are omitted.
	ListByUserWithEvents(ctx context.Context, userID string) ([]*BookedEvent, error)
	CountByEventID(ctx context.Context, eventID string) (int, error)
}

// BookingService defines attendee-facing booking operations.
type BookingService interface {
	// Book reserves a spot for identity at the event. A nil identity is reported as
	// Unauthorized in the result and as ErrUnauthorized.
	Book(ctx context.Context, eventID string, identity *Identity) (*BookingResult, error)
	ListUserBookings(ctx context.Context, userID string) ([]*BookedEvent, error)
	CountEventBookings(ctx context.Context, slug string) (int, error)
}
