package domain

import (
	"context"
	"time"
)

// EventMode is how attendees take part in an event.
type EventMode string

const (
	ModeOnline  EventMode = "online"
	ModeOffline EventMode = "offline"
	ModeHybrid  EventMode = "hybrid"
)

// Valid reports whether m is one of the known modes.
func (m EventMode) Valid() bool {
	switch m {
	case ModeOnline, ModeOffline, ModeHybrid:
		return true
	}
	return false
}

// Event represents a bookable event. Slug is derived from Title and unique across events.
// swagger:model Event
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Overview    string    `json:"overview"`
	Image       string    `json:"image"`
	Venue       string    `json:"venue"`
	Location    string    `json:"location"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Mode        EventMode `json:"mode"`
	Audience    string    `json:"audience"`
	Organizer   string    `json:"organizer"`
	Tags        []string  `json:"tags"`
	Agenda      []string  `json:"agenda"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// EventInput carries raw, caller-supplied event fields. On update a blank string
// (or a nil slice) means "keep the stored value".
type EventInput struct {
	Title       string
	Description string
	Overview    string
	Venue       string
	Location    string
	Date        string
	Time        string
	Mode        string
	Audience    string
	Organizer   string
	Tags        []string
	Agenda      []string
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	GetBySlug(ctx context.Context, slug string) (*Event, error)
	// SlugTaken reports whether an event other than excludeID already uses slug.
	// Pass an empty excludeID to check against every event.
	SlugTaken(ctx context.Context, slug, excludeID string) (bool, error)
	// UpdateBySlug overwrites the event stored under oldSlug with event's fields,
	// including its (possibly new) slug, and refreshes event from the stored row.
	UpdateBySlug(ctx context.Context, oldSlug string, event *Event) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*Event, error)
	ListSimilar(ctx context.Context, excludeID string, tags []string, limit int) ([]*Event, error)
}

// EventService defines event lifecycle operations used by the admin dashboard and public pages.
type EventService interface {
	CreateEvent(ctx context.Context, input *EventInput, image []byte) (*Event, error)
	GetEvent(ctx context.Context, slug string) (*Event, error)
	// UpdateEvent applies a partial update to the event identified by slug. image may be nil.
	UpdateEvent(ctx context.Context, slug string, input *EventInput, image []byte) (*Event, error)
	DeleteEvent(ctx context.Context, slug string) error
	ListEvents(ctx context.Context) ([]*Event, error)
	ListSimilarEvents(ctx context.Context, slug string) ([]*Event, error)
}
