package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"eventshub/internal/domain"
	"eventshub/internal/slug"
	"eventshub/internal/validation"
)

const defaultTimeout = 10 * time.Second

// similarEventsLimit caps the "similar events" strip on an event page.
const similarEventsLimit = 3

type eventService struct {
	eventRepo      domain.EventRepository
	images         domain.ImageStore
	imageFolder    string
	publisher      domain.ChangePublisher
	logger         *slog.Logger
	contextTimeout time.Duration
	now            func() time.Time
}

func NewEventService(
	eventRepo domain.EventRepository,
	images domain.ImageStore,
	imageFolder string,
	publisher domain.ChangePublisher,
	logger *slog.Logger,
	timeout time.Duration,
) domain.EventService {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &eventService{
		eventRepo:      eventRepo,
		images:         images,
		imageFolder:    imageFolder,
		publisher:      publisher,
		logger:         logger,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

// CreateEvent validates input, reserves the slug, uploads the image and inserts the event.
// The upload happens only after every check that can be made up front has passed.
func (s *eventService) CreateEvent(ctx context.Context, input *domain.EventInput, image []byte) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := validation.NewEvent(input)
	if len(image) == 0 {
		err = addFieldError(err, "image", "Image file is required")
	}
	if err != nil {
		return nil, err
	}

	event.Slug = slug.Derive(event.Title)
	if event.Slug == "" {
		return nil, domain.NewValidationError(map[string]string{"title": "Title must contain at least one letter or digit"})
	}
	if err := s.ensureSlugFree(ctx, event.Slug, ""); err != nil {
		return nil, err
	}

	uploaded, err := s.upload(ctx, image)
	if err != nil {
		return nil, err
	}
	event.Image = uploaded.URL

	now := s.now()
	event.CreatedAt = now
	event.UpdatedAt = now
	if err := s.eventRepo.Create(ctx, event); err != nil {
		s.discardImage(uploaded.PublicID, event.Slug)
		if errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("create event: %w", err)
	}
	s.notify(ctx, domain.ChangeEventCreated, event)
	return event, nil
}

func (s *eventService) GetEvent(ctx context.Context, eventSlug string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	return s.fetch(ctx, eventSlug)
}

// UpdateEvent applies a partial update. The stored row is addressed by its original slug;
// a changed title may move the event to a new slug.
func (s *eventService) UpdateEvent(ctx context.Context, eventSlug string, input *domain.EventInput, image []byte) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	existing, err := s.fetch(ctx, eventSlug)
	if err != nil {
		return nil, err
	}

	updated, err := validation.MergeUpdate(existing, input)
	if err != nil {
		return nil, err
	}

	if updated.Title != existing.Title {
		newSlug := slug.Derive(updated.Title)
		if newSlug == "" {
			return nil, domain.NewValidationError(map[string]string{"title": "Title must contain at least one letter or digit"})
		}
		if newSlug != existing.Slug {
			if err := s.ensureSlugFree(ctx, newSlug, existing.ID); err != nil {
				return nil, err
			}
			updated.Slug = newSlug
		}
	}

	var uploaded *domain.UploadedImage
	if len(image) > 0 {
		if uploaded, err = s.upload(ctx, image); err != nil {
			return nil, err
		}
		// The replaced image stays in the store.
		updated.Image = uploaded.URL
	}

	updated.UpdatedAt = s.now()
	if err := s.eventRepo.UpdateBySlug(ctx, existing.Slug, updated); err != nil {
		if uploaded != nil {
			s.discardImage(uploaded.PublicID, updated.Slug)
		}
		if errors.Is(err, domain.ErrConflict) || errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	s.notify(ctx, domain.ChangeEventUpdated, updated)
	return updated, nil
}

// DeleteEvent removes the event and, best effort, its image. Bookings referencing the
// event are left in place and drop out of booking lists.
func (s *eventService) DeleteEvent(ctx context.Context, eventSlug string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.fetch(ctx, eventSlug)
	if err != nil {
		return err
	}

	if publicID, ok := s.images.PublicID(event.Image); ok {
		if err := s.images.Delete(ctx, publicID); err != nil {
			s.logger.Warn("failed to delete event image", "slug", event.Slug, "public_id", publicID, "error", err)
		}
	} else {
		s.logger.Warn("no image id in event image url, skipping deletion", "slug", event.Slug, "image", event.Image)
	}

	if err := s.eventRepo.Delete(ctx, event.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewNotFoundError("Event not found")
		}
		return fmt.Errorf("delete event: %w", err)
	}
	s.notify(ctx, domain.ChangeEventDeleted, domain.EventDeletedPayload{ID: event.ID, Slug: event.Slug})
	return nil
}

func (s *eventService) ListEvents(ctx context.Context) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, nil
}

// ListSimilarEvents returns up to three other events sharing a tag with the given one, newest first.
func (s *eventService) ListSimilarEvents(ctx context.Context, eventSlug string) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.fetch(ctx, eventSlug)
	if err != nil {
		return nil, err
	}
	if len(event.Tags) == 0 {
		return []*domain.Event{}, nil
	}
	similar, err := s.eventRepo.ListSimilar(ctx, event.ID, event.Tags, similarEventsLimit)
	if err != nil {
		return nil, fmt.Errorf("list similar events: %w", err)
	}
	if similar == nil {
		similar = []*domain.Event{}
	}
	return similar, nil
}

func (s *eventService) fetch(ctx context.Context, eventSlug string) (*domain.Event, error) {
	key := slug.Normalize(eventSlug)
	if key == "" {
		return nil, domain.NewNotFoundError("Event not found")
	}
	event, err := s.eventRepo.GetBySlug(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewNotFoundError("Event not found")
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

// ensureSlugFree is advisory; the unique index on events.slug has the final word.
func (s *eventService) ensureSlugFree(ctx context.Context, candidate, excludeID string) error {
	taken, err := s.eventRepo.SlugTaken(ctx, candidate, excludeID)
	if err != nil {
		return fmt.Errorf("check slug: %w", err)
	}
	if taken {
		return domain.NewConflictError("title", nil)
	}
	return nil
}

func (s *eventService) upload(ctx context.Context, image []byte) (*domain.UploadedImage, error) {
	uploaded, err := s.images.Upload(ctx, image, s.imageFolder)
	if err != nil {
		if errors.Is(err, domain.ErrNotAnImage) {
			return nil, domain.NewValidationError(map[string]string{"image": "Image file must be a valid image"})
		}
		return nil, domain.NewUploadError(err)
	}
	return uploaded, nil
}

// discardImage removes an image whose event row was never written. It runs on a fresh
// context so a cancelled request still cleans up.
func (s *eventService) discardImage(publicID, eventSlug string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.contextTimeout)
	defer cancel()
	if err := s.images.Delete(ctx, publicID); err != nil {
		s.logger.Warn("failed to delete orphaned event image", "slug", eventSlug, "public_id", publicID, "error", err)
	}
}

func (s *eventService) notify(ctx context.Context, routingKey string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, routingKey, payload); err != nil {
		s.logger.Warn("change notification not published", "routing_key", routingKey, "error", err)
	}
}

// addFieldError merges a field message into err when err is a validation error,
// or starts a new validation error when err is nil.
func addFieldError(err error, field, message string) error {
	if err == nil {
		return domain.NewValidationError(map[string]string{field: message})
	}
	var verr *domain.Error
	if errors.As(err, &verr) && verr.Kind == domain.KindValidation {
		if verr.Fields == nil {
			verr.Fields = map[string]string{}
		}
		verr.Fields[field] = message
	}
	return err
}
