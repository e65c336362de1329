package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"eventshub/internal/delivery/http/helpers"
	"eventshub/internal/domain"
)

// MaxEventFormBytes caps multipart event submissions, image included.
const MaxEventFormBytes = 10 << 20

// EventSuccessResponse is the success envelope for endpoints returning one event.
type EventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// EventListSuccessResponse is the success envelope for endpoints returning events.
type EventListSuccessResponse struct {
	Data  []*domain.Event   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// EventDetail is an event together with how many bookings it has.
type EventDetail struct {
	Event    *domain.Event `json:"event"`
	Bookings int           `json:"bookings"`
}

// EventDetailSuccessResponse is the success envelope for GET /events/{slug}.
type EventDetailSuccessResponse struct {
	Data  *EventDetail      `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type EventController struct {
	Logger   *slog.Logger
	Service  domain.EventService
	Bookings domain.BookingService
}

func NewEventController(logger *slog.Logger, svc domain.EventService, bookings domain.BookingService) *EventController {
	return &EventController{
		Logger:   logger,
		Service:  svc,
		Bookings: bookings,
	}
}

// ListEvents godoc
// @Summary List events
// @Description All events, newest first.
// @Tags events
// @Produce json
// @Success 200 {object} controllers.EventListSuccessResponse
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [get]
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := c.Service.ListEvents(r.Context())
	if err != nil {
		helpers.WriteDomainError(r.Context(), w, c.Logger, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// GetEvent godoc
// @Summary Get an event
// @Description Event by slug, with its booking count.
// @Tags events
// @Produce json
// @Param slug path string true "Event slug"
// @Success 200 {object} controllers.EventDetailSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{slug} [get]
func (c *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	event, err := c.Service.GetEvent(r.Context(), slug)
	if err != nil {
		helpers.WriteDomainError(r.Context(), w, c.Logger, r, err)
		return
	}
	detail := &EventDetail{Event: event}
	if c.Bookings != nil {
		count, err := c.Bookings.CountEventBookings(r.Context(), event.Slug)
		if err != nil {
			helpers.WriteDomainError(r.Context(), w, c.Logger, r, err)
			return
		}
		detail.Bookings = count
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, detail)
}

// ListSimilarEvents godoc
// @Summary List similar events
// @Description Up to three other events sharing at least one tag with the given event.
// @Tags events
// @Produce json
// @Param slug path string true "Event slug"
// @Success 200 {object} controllers.EventListSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{slug}/similar [get]
func (c *EventController) ListSimilarEvents(w http.ResponseWriter, r *http.Request) {
	events, err := c.Service.ListSimilarEvents(r.Context(), r.PathValue("slug"))
	if err != nil {
		helpers.WriteDomainError(r.Context(), w, c.Logger, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// CreateEvent godoc
// @Summary Create an event
// @Description Multipart form. tags and agenda are JSON arrays of strings; image is required.
// @Tags events
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param title formData string true "Title"
// @Param description formData string true "Description"
// @Param overview formData string true "Overview"
// @Param venue formData string true "Venue"
// @Param location formData string true "Location"
// @Param date formData string true "Date (YYYY-MM-DD or any parseable date)"
// @Param time formData string true "Time (HH:MM, optionally with AM/PM)"
// @Param mode formData string true "online, offline or hybrid"
// @Param audience formData string true "Audience"
// @Param organizer formData string true "Organizer"
// @Param tags formData string true "JSON array of tags"
// @Param agenda formData string true "JSON array of agenda items"
// @Param image formData file true "Event image"
// @Success 201 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: validation_error, cast_error or bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 502 {object} helpers.APIResponse "error.code: upload_error"
// @Router /events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	input, image, ok := c.readEventForm(w, r)
	if !ok {
		return
	}
	event, err := c.Service.CreateEvent(r.Context(), input, image)
	if err != nil {
		helpers.WriteDomainError(r.Context(), w, c.Logger, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// UpdateEvent godoc
// @Summary Update an event
// @Description Partial multipart update. Omitted fields keep their values; a new title renames the slug.
// @Tags events
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Event slug"
// @Param title formData string false "Title"
// @Param tags formData string false "JSON array of tags"
// @Param agenda formData string false "JSON array of agenda items"
// @Param image formData file false "Replacement image"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: validation_error or cast_error"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /events/{slug} [put]
func (c *EventController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	input, image, ok := c.readEventForm(w, r)
	if !ok {
		return
	}
	event, err := c.Service.UpdateEvent(r.Context(), r.PathValue("slug"), input, image)
	if err != nil {
		helpers.WriteDomainError(r.Context(), w, c.Logger, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// DeleteEvent godoc
// @Summary Delete an event
// @Description Removes the event and, best effort, its stored image. Bookings are left in place.
// @Tags events
// @Security BearerAuth
// @Param slug path string true "Event slug"
// @Success 204 "No Content"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{slug} [delete]
func (c *EventController) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := c.Service.DeleteEvent(r.Context(), r.PathValue("slug")); err != nil {
		helpers.WriteDomainError(r.Context(), w, c.Logger, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// readEventForm parses a multipart event submission. On failure it has already written
// the response and returns ok=false.
func (c *EventController) readEventForm(w http.ResponseWriter, r *http.Request) (*domain.EventInput, []byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxEventFormBytes)
	if err := r.ParseMultipartForm(MaxEventFormBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			helpers.WriteJSONError(w, http.StatusRequestEntityTooLarge, helpers.ErrCodeBadRequest, "request body is too large")
			return nil, nil, false
		}
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "request must be multipart/form-data")
		return nil, nil, false
	}

	input := &domain.EventInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Overview:    r.FormValue("overview"),
		Venue:       r.FormValue("venue"),
		Location:    r.FormValue("location"),
		Date:        r.FormValue("date"),
		Time:        r.FormValue("time"),
		Mode:        r.FormValue("mode"),
		Audience:    r.FormValue("audience"),
		Organizer:   r.FormValue("organizer"),
	}
	var err error
	if input.Tags, err = jsonList(r, "tags"); err != nil {
		helpers.WriteDomainError(r.Context(), w, c.Logger, r, err)
		return nil, nil, false
	}
	if input.Agenda, err = jsonList(r, "agenda"); err != nil {
		helpers.WriteDomainError(r.Context(), w, c.Logger, r, err)
		return nil, nil, false
	}

	image, err := formFile(r, "image")
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "could not read image file")
		return nil, nil, false
	}
	return input, image, true
}

// jsonList decodes a form field holding a JSON array of strings. An absent or blank
// field yields nil.
func jsonList(r *http.Request, field string) ([]string, error) {
	raw := strings.TrimSpace(r.FormValue(field))
	if raw == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, domain.NewCastError(field, err)
	}
	return out, nil
}

// formFile returns the uploaded file's bytes, or nil when no file was sent.
func formFile(r *http.Request, field string) ([]byte, error) {
	f, _, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	return data, nil
}
