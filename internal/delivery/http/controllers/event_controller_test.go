package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"eventshub/internal/delivery/http/helpers"
	"eventshub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeEventService implements domain.EventService for handler tests.
type fakeEventService struct {
	events    map[string]*domain.Event
	similar   []*domain.Event
	createErr error
	updateErr error
	deleteErr error
	listErr   error
	lastInput *domain.EventInput
	lastImage []byte
	lastSlug  string
	deleted   []string
}

func (f *fakeEventService) CreateEvent(_ context.Context, input *domain.EventInput, image []byte) (*domain.Event, error) {
	f.lastInput, f.lastImage = input, image
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &domain.Event{ID: "evt-1", Title: input.Title, Slug: "new-event", Tags: input.Tags, Agenda: input.Agenda}, nil
}

func (f *fakeEventService) GetEvent(_ context.Context, slug string) (*domain.Event, error) {
	if e, ok := f.events[slug]; ok {
		return e, nil
	}
	return nil, domain.NewNotFoundError("Event not found")
}

func (f *fakeEventService) UpdateEvent(_ context.Context, slug string, input *domain.EventInput, image []byte) (*domain.Event, error) {
	f.lastSlug, f.lastInput, f.lastImage = slug, input, image
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &domain.Event{ID: "evt-1", Title: input.Title, Slug: slug}, nil
}

func (f *fakeEventService) DeleteEvent(_ context.Context, slug string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, slug)
	return nil
}

func (f *fakeEventService) ListEvents(context.Context) ([]*domain.Event, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []*domain.Event{}
	for _, e := range f.events {
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeEventService) ListSimilarEvents(_ context.Context, slug string) ([]*domain.Event, error) {
	if _, ok := f.events[slug]; !ok {
		return nil, domain.NewNotFoundError("Event not found")
	}
	return f.similar, nil
}

// fakeBookingService implements domain.BookingService for handler tests.
type fakeBookingService struct {
	result       *domain.BookingResult
	err          error
	counts       map[string]int
	bookings     []*domain.BookedEvent
	lastEventID  string
	lastIdentity *domain.Identity
	lastUserID   string
}

func (f *fakeBookingService) Book(_ context.Context, eventID string, identity *domain.Identity) (*domain.BookingResult, error) {
	f.lastEventID, f.lastIdentity = eventID, identity
	return f.result, f.err
}

func (f *fakeBookingService) ListUserBookings(_ context.Context, userID string) ([]*domain.BookedEvent, error) {
	f.lastUserID = userID
	return f.bookings, f.err
}

func (f *fakeBookingService) CountEventBookings(_ context.Context, slug string) (int, error) {
	return f.counts[slug], nil
}

// multipartBody builds a multipart form with the given fields and an optional image.
func multipartBody(t *testing.T, fields map[string]string, image []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if image != nil {
		fw, err := mw.CreateFormFile("image", "cover.png")
		require.NoError(t, err)
		_, err = fw.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func decodeEnvelope(t *testing.T, body io.Reader) helpers.APIResponse {
	t.Helper()
	var env helpers.APIResponse
	require.NoError(t, json.NewDecoder(body).Decode(&env))
	return env
}

func TestEventController_CreateEvent(t *testing.T) {
	pngHeader := []byte("\x89PNG\r\n\x1a\n0000")

	t.Run("parses fields, lists and image", func(t *testing.T) {
		svc := &fakeEventService{}
		ctrl := NewEventController(testLogger, svc, nil)
		body, ct := multipartBody(t, map[string]string{
			"title":  "Go Meetup",
			"mode":   "hybrid",
			"tags":   `["go","cloud"]`,
			"agenda": `["Intro","Talks"]`,
		}, pngHeader)
		req := httptest.NewRequest(http.MethodPost, "/events", body)
		req.Header.Set("Content-Type", ct)
		rr := httptest.NewRecorder()

		ctrl.CreateEvent(rr, req)

		require.Equal(t, http.StatusCreated, rr.Code)
		require.NotNil(t, svc.lastInput)
		assert.Equal(t, "Go Meetup", svc.lastInput.Title)
		assert.Equal(t, "hybrid", svc.lastInput.Mode)
		assert.Equal(t, []string{"go", "cloud"}, svc.lastInput.Tags)
		assert.Equal(t, []string{"Intro", "Talks"}, svc.lastInput.Agenda)
		assert.Equal(t, pngHeader, svc.lastImage)
		var resp EventSuccessResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		require.NotNil(t, resp.Data)
		assert.Equal(t, "new-event", resp.Data.Slug)
		assert.Nil(t, resp.Error)
	})

	t.Run("malformed tags is a cast error", func(t *testing.T) {
		svc := &fakeEventService{}
		ctrl := NewEventController(testLogger, svc, nil)
		body, ct := multipartBody(t, map[string]string{"title": "X", "tags": "go, cloud"}, pngHeader)
		req := httptest.NewRequest(http.MethodPost, "/events", body)
		req.Header.Set("Content-Type", ct)
		rr := httptest.NewRecorder()

		ctrl.CreateEvent(rr, req)

		require.Equal(t, http.StatusBadRequest, rr.Code)
		env := decodeEnvelope(t, rr.Body)
		require.NotNil(t, env.Error)
		assert.Equal(t, helpers.ErrCodeCast, env.Error.Code)
		assert.Contains(t, env.Error.Fields, "tags")
		assert.Nil(t, svc.lastInput)
	})

	t.Run("not multipart", func(t *testing.T) {
		ctrl := NewEventController(testLogger, &fakeEventService{}, nil)
		req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewBufferString(`{"title":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		ctrl.CreateEvent(rr, req)

		require.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, helpers.ErrCodeBadRequest, decodeEnvelope(t, rr.Body).Error.Code)
	})

	errCases := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"validation", domain.NewValidationError(map[string]string{"venue": "Venue is required"}), http.StatusBadRequest, helpers.ErrCodeValidation},
		{"conflict", domain.NewConflictError("title", nil), http.StatusConflict, helpers.ErrCodeConflict},
		{"upload", domain.NewUploadError(errors.New("s3 down")), http.StatusBadGateway, helpers.ErrCodeUpload},
		{"unexpected", errors.New("db gone"), http.StatusInternalServerError, helpers.ErrCodeInternalError},
	}
	for _, tt := range errCases {
		t.Run("service error "+tt.name, func(t *testing.T) {
			ctrl := NewEventController(testLogger, &fakeEventService{createErr: tt.err}, nil)
			body, ct := multipartBody(t, map[string]string{"title": "Go"}, pngHeader)
			req := httptest.NewRequest(http.MethodPost, "/events", body)
			req.Header.Set("Content-Type", ct)
			rr := httptest.NewRecorder()

			ctrl.CreateEvent(rr, req)

			require.Equal(t, tt.wantCode, rr.Code)
			env := decodeEnvelope(t, rr.Body)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantErr, env.Error.Code)
			assert.NotContains(t, env.Error.Message, "db gone")
		})
	}
}

func TestEventController_UpdateEvent(t *testing.T) {
	svc := &fakeEventService{}
	ctrl := NewEventController(testLogger, svc, nil)
	body, ct := multipartBody(t, map[string]string{"title": "Renamed"}, nil)
	req := httptest.NewRequest(http.MethodPut, "/events/old-slug", body)
	req.Header.Set("Content-Type", ct)
	req.SetPathValue("slug", "old-slug")
	rr := httptest.NewRecorder()

	ctrl.UpdateEvent(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "old-slug", svc.lastSlug)
	assert.Equal(t, "Renamed", svc.lastInput.Title)
	assert.Nil(t, svc.lastInput.Tags, "absent list means keep")
	assert.Nil(t, svc.lastImage, "image is optional")
}

func TestEventController_GetEvent(t *testing.T) {
	svc := &fakeEventService{events: map[string]*domain.Event{"go-meetup": {ID: "1", Slug: "go-meetup"}}}
	bookings := &fakeBookingService{counts: map[string]int{"go-meetup": 4}}
	ctrl := NewEventController(testLogger, svc, bookings)

	t.Run("found with count", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/events/go-meetup", nil)
		req.SetPathValue("slug", "go-meetup")
		rr := httptest.NewRecorder()

		ctrl.GetEvent(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var resp EventDetailSuccessResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, "go-meetup", resp.Data.Event.Slug)
		assert.Equal(t, 4, resp.Data.Bookings)
	})

	t.Run("missing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/events/nope", nil)
		req.SetPathValue("slug", "nope")
		rr := httptest.NewRecorder()

		ctrl.GetEvent(rr, req)

		require.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, helpers.ErrCodeNotFound, decodeEnvelope(t, rr.Body).Error.Code)
	})
}

func TestEventController_ListAndSimilar(t *testing.T) {
	svc := &fakeEventService{
		events:  map[string]*domain.Event{"a": {Slug: "a"}},
		similar: []*domain.Event{{Slug: "b"}},
	}
	ctrl := NewEventController(testLogger, svc, nil)

	rr := httptest.NewRecorder()
	ctrl.ListEvents(rr, httptest.NewRequest(http.MethodGet, "/events", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var list EventListSuccessResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&list))
	assert.Len(t, list.Data, 1)

	req := httptest.NewRequest(http.MethodGet, "/events/a/similar", nil)
	req.SetPathValue("slug", "a")
	rr = httptest.NewRecorder()
	ctrl.ListSimilarEvents(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, "b", list.Data[0].Slug)

	svc.listErr = errors.New("boom")
	rr = httptest.NewRecorder()
	ctrl.ListEvents(rr, httptest.NewRequest(http.MethodGet, "/events", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestEventController_DeleteEvent(t *testing.T) {
	svc := &fakeEventService{}
	ctrl := NewEventController(testLogger, svc, nil)

	req := httptest.NewRequest(http.MethodDelete, "/events/go-meetup", nil)
	req.SetPathValue("slug", "go-meetup")
	rr := httptest.NewRecorder()
	ctrl.DeleteEvent(rr, req)
	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, []string{"go-meetup"}, svc.deleted)

	svc.deleteErr = domain.NewNotFoundError("Event not found")
	rr = httptest.NewRecorder()
	ctrl.DeleteEvent(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
