package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"eventshub/internal/delivery/http/helpers"
	"eventshub/internal/delivery/http/middleware"
	"eventshub/internal/domain"
)

// BookRequest is the request body for POST /bookings.
type BookRequest struct {
	EventID string `json:"event_id"`
}

// Validate implements helpers.Validator.
func (b BookRequest) Validate() map[string]string {
	if strings.TrimSpace(b.EventID) == "" {
		return map[string]string{"event_id": "event_id is required"}
	}
	return nil
}

// BookingResultResponse is the envelope for POST /bookings.
type BookingResultResponse struct {
	Data  *domain.BookingResult `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

// BookedEventsSuccessResponse is the success envelope for GET /me/bookings.
type BookedEventsSuccessResponse struct {
	Data  []*domain.BookedEvent `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

type BookingController struct {
	Logger  *slog.Logger
	Service domain.BookingService
}

func NewBookingController(logger *slog.Logger, svc domain.BookingService) *BookingController {
	return &BookingController{
		Logger:  logger,
		Service: svc,
	}
}

// Book godoc
// @Summary Book an event
// @Description Reserves a spot for the caller. Booking the same event twice succeeds with already_booked=true.
// @Description Anonymous callers get success=false, unauthorized=true.
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param booking body BookRequest true "Event to book"
// @Success 201 {object} controllers.BookingResultResponse "new booking"
// @Success 200 {object} controllers.BookingResultResponse "already booked"
// @Failure 400 {object} helpers.APIResponse "error.code: validation_error or cast_error"
// @Failure 401 {object} controllers.BookingResultResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /bookings [post]
func (c *BookingController) Book(w http.ResponseWriter, r *http.Request) {
	var req BookRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	identity, _ := middleware.IdentityFromContext(r.Context())

	result, err := c.Service.Book(r.Context(), strings.TrimSpace(req.EventID), identity)
	if err != nil {
		if result != nil && result.Unauthorized && errors.Is(err, domain.ErrUnauthorized) {
			status, code := helpers.StatusFor(domain.KindUnauthorized)
			helpers.WriteJSONResult(w, status, result, &helpers.APIError{Code: code, Message: errorMessage(err)})
			return
		}
		helpers.WriteDomainError(r.Context(), w, c.Logger, r, err)
		return
	}
	status := http.StatusCreated
	if result.AlreadyBooked {
		status = http.StatusOK
	}
	helpers.WriteJSONSuccess(w, status, result)
}

// ListMyBookings godoc
// @Summary List my bookings
// @Description The caller's bookings, newest first, each with a summary of its event.
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.BookedEventsSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /me/bookings [get]
func (c *BookingController) ListMyBookings(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	bookings, err := c.Service.ListUserBookings(r.Context(), identity.UserID)
	if err != nil {
		helpers.WriteDomainError(r.Context(), w, c.Logger, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, bookings)
}

func errorMessage(err error) string {
	var de *domain.Error
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return err.Error()
}
