package services

import (
	"context"
	"errors"
	"testing"

	"eventshub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventService_PublishesChanges(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	svc := newTestEventService(newFakeEventRepo(), &fakeImageStore{})
	svc.publisher = pub

	ev := mustCreate(t, svc, "Go Meetup")
	_, err := svc.UpdateEvent(ctx, ev.Slug, &domain.EventInput{Venue: "Hall 2"}, nil)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteEvent(ctx, ev.Slug))

	assert.Equal(t, []string{domain.ChangeEventCreated, domain.ChangeEventUpdated, domain.ChangeEventDeleted}, pub.keys())
	assert.Equal(t, domain.EventDeletedPayload{ID: ev.ID, Slug: "go-meetup"}, pub.published[2].payload)
}

func TestEventService_RejectedWritePublishesNothing(t *testing.T) {
	pub := &fakePublisher{}
	svc := newTestEventService(newFakeEventRepo(), &fakeImageStore{})
	svc.publisher = pub

	_, err := svc.CreateEvent(context.Background(), eventInput(""), imageBytes)
	require.Error(t, err)
	assert.Empty(t, pub.published)
}

func TestEventService_PublishFailureDoesNotFailWrite(t *testing.T) {
	svc := newTestEventService(newFakeEventRepo(), &fakeImageStore{})
	svc.publisher = &fakePublisher{err: errors.New("broker down")}

	ev, err := svc.CreateEvent(context.Background(), eventInput("Go Meetup"), imageBytes)
	require.NoError(t, err)
	assert.Equal(t, "go-meetup", ev.Slug)
}

func TestBookingService_PublishesNewBookingsOnly(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture()
	pub := &fakePublisher{}
	f.svc.publisher = pub
	ev := mustCreate(t, f.eventSvc, "Go Meetup")

	res, err := f.svc.Book(ctx, ev.ID, ada)
	require.NoError(t, err)
	_, err = f.svc.Book(ctx, ev.ID, ada)
	require.NoError(t, err)

	require.Len(t, pub.published, 1)
	assert.Equal(t, domain.ChangeBookingCreated, pub.published[0].key)
	assert.Equal(t, domain.BookingCreatedPayload{
		BookingID: res.Booking.ID,
		EventID:   ev.ID,
		EventSlug: "go-meetup",
		UserID:    "user-ada",
	}, pub.published[0].payload)
}
