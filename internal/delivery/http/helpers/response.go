package helpers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"eventshub/internal/domain"
)

// Error codes for API error responses. Use these with WriteJSONError.
const (
	ErrCodeBadRequest    = "bad_request"
	ErrCodeValidation    = "validation_error"
	ErrCodeCast          = "cast_error"
	ErrCodeConflict      = "conflict"
	ErrCodeNotFound      = "not_found"
	ErrCodeUnauthorized  = "unauthorized"
	ErrCodeForbidden     = "forbidden"
	ErrCodeUpload        = "upload_error"
	ErrCodeInternalError = "internal_error"
)

// APIError is the error object in the standardized API response envelope.
// Fields maps request field names to messages when the error concerns specific fields.
// swagger:model APIError
type APIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// APIResponse is the standardized envelope for all API responses.
// On success: Data is set, Error is nil. On error: Data is nil, Error is set.
// swagger:model APIResponse
type APIResponse struct {
	Data  any       `json:"data"`
	Error *APIError `json:"error"`
}

// WriteJSONSuccess sets Content-Type to application/json, writes statusCode, and
// encodes an APIResponse with the given data and error set to nil.
func WriteJSONSuccess(w http.ResponseWriter, statusCode int, data any) {
	writeJSON(w, statusCode, APIResponse{Data: data})
}

// WriteJSONError sets Content-Type to application/json, writes statusCode, and
// encodes an APIResponse with data nil and the given error code and message.
func WriteJSONError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, APIResponse{Error: &APIError{Code: code, Message: message}})
}

// WriteJSONResult writes an envelope carrying both data and an error. Used when a
// failed operation still has a meaningful result for the client.
func WriteJSONResult(w http.ResponseWriter, statusCode int, data any, apiErr *APIError) {
	writeJSON(w, statusCode, APIResponse{Data: data, Error: apiErr})
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// StatusFor maps an error kind to its HTTP status and error code.
func StatusFor(kind domain.ErrorKind) (int, string) {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest, ErrCodeValidation
	case domain.KindCast:
		return http.StatusBadRequest, ErrCodeCast
	case domain.KindConflict:
		return http.StatusConflict, ErrCodeConflict
	case domain.KindNotFound:
		return http.StatusNotFound, ErrCodeNotFound
	case domain.KindUnauthorized:
		return http.StatusUnauthorized, ErrCodeUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden, ErrCodeForbidden
	case domain.KindUpload:
		return http.StatusBadGateway, ErrCodeUpload
	}
	return http.StatusInternalServerError, ErrCodeInternalError
}

// WriteDomainError writes err as an API error. Categorized errors keep their message and
// field map; anything else is logged and reported as a generic internal error.
func WriteDomainError(ctx context.Context, w http.ResponseWriter, logger *slog.Logger, r *http.Request, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		logger.ErrorContext(ctx, "request failed", "path", r.URL.Path, "method", r.Method, "request_id", domain.RequestIDFromContext(ctx), "err", err)
		WriteJSONError(w, http.StatusInternalServerError, ErrCodeInternalError, "Something went wrong, please try again")
		return
	}
	status, code := StatusFor(de.Kind)
	if de.Kind == domain.KindUpload {
		logger.ErrorContext(ctx, "image upload failed", "path", r.URL.Path, "err", err)
	}
	message := de.Message
	if message == "" {
		message = string(de.Kind)
	}
	writeJSON(w, status, APIResponse{Error: &APIError{Code: code, Message: message, Fields: de.Fields}})
}
