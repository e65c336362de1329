package domain

import "context"

// Routing keys for change notifications.
const (
	ChangeEventCreated   = "event.created"
	ChangeEventUpdated   = "event.updated"
	ChangeEventDeleted   = "event.deleted"
	ChangeBookingCreated = "booking.created"
)

// ChangePublisher announces committed writes to downstream consumers. Delivery is
// best effort: a failed publish never undoes the write.
type ChangePublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// EventDeletedPayload is published on ChangeEventDeleted.
type EventDeletedPayload struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
}

// BookingCreatedPayload is published on ChangeBookingCreated.
type BookingCreatedPayload struct {
	BookingID string `json:"booking_id"`
	EventID   string `json:"event_id"`
	EventSlug string `json:"event_slug"`
	UserID    string `json:"user_id"`
}
