package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"eventshub/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// tickingClock returns a clock that advances one minute per call, so creation order is observable.
func tickingClock() func() time.Time {
	t := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

// fakeEventRepo is an in-memory EventRepository that enforces slug uniqueness like the
// unique index does.
type fakeEventRepo struct {
	byID        map[string]*domain.Event
	slugChecks  int
	ignoreSlugs bool // SlugTaken always reports free, simulating a lost race
	createErr   error
	updateErr   error
	listErr     error
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{byID: make(map[string]*domain.Event)}
}

func copyEvent(e *domain.Event) *domain.Event {
	c := *e
	c.Tags = append([]string(nil), e.Tags...)
	c.Agenda = append([]string(nil), e.Agenda...)
	return &c
}

func (f *fakeEventRepo) slugOwner(slug string) (*domain.Event, bool) {
	for _, e := range f.byID {
		if e.Slug == slug {
			return e, true
		}
	}
	return nil, false
}

func (f *fakeEventRepo) Create(ctx context.Context, e *domain.Event) error {
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.slugOwner(e.Slug); ok {
		return domain.NewConflictError("title", fmt.Errorf("duplicate key value violates unique constraint"))
	}
	e.ID = uuid.NewString()
	f.byID[e.ID] = copyEvent(e)
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if e, ok := f.byID[id]; ok {
		return copyEvent(e), nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) GetBySlug(ctx context.Context, slug string) (*domain.Event, error) {
	if e, ok := f.slugOwner(slug); ok {
		return copyEvent(e), nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) SlugTaken(ctx context.Context, slug, excludeID string) (bool, error) {
	f.slugChecks++
	if f.ignoreSlugs {
		return false, nil
	}
	e, ok := f.slugOwner(slug)
	return ok && e.ID != excludeID, nil
}

func (f *fakeEventRepo) UpdateBySlug(ctx context.Context, oldSlug string, e *domain.Event) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	current, ok := f.slugOwner(oldSlug)
	if !ok {
		return domain.ErrNotFound
	}
	if other, ok := f.slugOwner(e.Slug); ok && other.ID != current.ID {
		return domain.NewConflictError("title", nil)
	}
	stored := copyEvent(e)
	stored.ID = current.ID
	stored.CreatedAt = current.CreatedAt
	f.byID[current.ID] = stored
	*e = *copyEvent(stored)
	return nil
}

func (f *fakeEventRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeEventRepo) sorted() []*domain.Event {
	out := make([]*domain.Event, 0, len(f.byID))
	for _, e := range f.byID {
		out = append(out, copyEvent(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *fakeEventRepo) List(ctx context.Context) ([]*domain.Event, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.sorted(), nil
}

func (f *fakeEventRepo) ListSimilar(ctx context.Context, excludeID string, tags []string, limit int) ([]*domain.Event, error) {
	want := make(map[string]bool, len(tags))
	for _, t := range tags {
		want[t] = true
	}
	var out []*domain.Event
	for _, e := range f.sorted() {
		if e.ID == excludeID {
			continue
		}
		for _, t := range e.Tags {
			if want[t] {
				out = append(out, e)
				break
			}
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

const fakeImageBase = "https://img.test/"

// fakeImageStore records uploads and deletions.
type fakeImageStore struct {
	uploaded  []string
	deleted   []string
	uploadErr error
	deleteErr error
}

func (f *fakeImageStore) Upload(ctx context.Context, data []byte, folder string) (*domain.UploadedImage, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	id := fmt.Sprintf("%s/img-%d", folder, len(f.uploaded)+1)
	f.uploaded = append(f.uploaded, id)
	return &domain.UploadedImage{URL: fakeImageBase + id + ".png", PublicID: id}, nil
}

func (f *fakeImageStore) Delete(ctx context.Context, publicID string) error {
	f.deleted = append(f.deleted, publicID)
	return f.deleteErr
}

func (f *fakeImageStore) PublicID(imageURL string) (string, bool) {
	rest, ok := strings.CutPrefix(imageURL, fakeImageBase)
	if !ok || rest == "" {
		return "", false
	}
	return strings.TrimSuffix(rest, ".png"), true
}

// fakeBookingRepo keeps bookings in memory and joins them against events like the SQL does.
type fakeBookingRepo struct {
	events    *fakeEventRepo
	bookings  []*domain.Booking
	createErr error
}

func (f *fakeBookingRepo) Create(ctx context.Context, b *domain.Booking) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.bookings {
		if existing.EventID == b.EventID && existing.UserID == b.UserID {
			return domain.NewConflictError("booking", nil)
		}
	}
	b.ID = uuid.NewString()
	c := *b
	f.bookings = append(f.bookings, &c)
	return nil
}

func (f *fakeBookingRepo) ListByUserWithEvents(ctx context.Context, userID string) ([]*domain.BookedEvent, error) {
	var out []*domain.BookedEvent
	for i := len(f.bookings) - 1; i >= 0; i-- {
		b := f.bookings[i]
		if b.UserID != userID {
			continue
		}
		ev, ok := f.events.byID[b.EventID]
		if !ok {
			continue
		}
		out = append(out, &domain.BookedEvent{
			BookingID: b.ID,
			BookedAt:  b.CreatedAt,
			Event: domain.EventSummary{
				ID: ev.ID, Title: ev.Title, Slug: ev.Slug, Image: ev.Image,
				Location: ev.Location, Date: ev.Date, Time: ev.Time,
			},
		})
	}
	return out, nil
}

func (f *fakeBookingRepo) CountByEventID(ctx context.Context, eventID string) (int, error) {
	n := 0
	for _, b := range f.bookings {
		if b.EventID == eventID {
			n++
		}
	}
	return n, nil
}

type fakeEmailService struct {
	sent []*domain.BookingConfirmationEmailData
	err  error
}

func (f *fakeEmailService) SendBookingConfirmation(ctx context.Context, data *domain.BookingConfirmationEmailData) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, data)
	return nil
}

type fakeMailer struct {
	to, subject, html, text string
	err                     error
}

func (f *fakeMailer) Send(ctx context.Context, to, subject, html, text string) error {
	f.to, f.subject, f.html, f.text = to, subject, html, text
	return f.err
}

type fakeRenderer struct {
	name string
	err  error
}

func (f *fakeRenderer) Render(name string, data any) (string, string, string, error) {
	f.name = name
	if f.err != nil {
		return "", "", "", f.err
	}
	return "subject", "<p>html</p>", "text", nil
}

type publishedChange struct {
	key     string
	payload any
}

type fakePublisher struct {
	published []publishedChange
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, routingKey string, payload any) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, publishedChange{key: routingKey, payload: payload})
	return nil
}

func (f *fakePublisher) keys() []string {
	out := make([]string, 0, len(f.published))
	for _, p := range f.published {
		out = append(out, p.key)
	}
	return out
}
