package helpers

import (
	"encoding/json"
	"net/http"
)

// MaxJSONBody caps JSON request bodies.
const MaxJSONBody = 1 << 20

// Validator is implemented by request DTOs that support validation.
// Validate returns a message per invalid field; nil or empty means valid.
type Validator interface {
	Validate() map[string]string
}

// DecodeAndValidate decodes the request body into dest (with DisallowUnknownFields)
// and, if dest implements Validator, runs Validate(). On decode or validation failure
// it writes a 400 JSON error and returns false; otherwise returns true.
// Callers should return immediately when DecodeAndValidate returns false.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, dest any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, "request body must be a single valid JSON object")
		return false
	}
	if v, ok := dest.(Validator); ok {
		if fields := v.Validate(); len(fields) > 0 {
			writeJSON(w, http.StatusBadRequest, APIResponse{Error: &APIError{
				Code:    ErrCodeValidation,
				Message: "Validation failed",
				Fields:  fields,
			}})
			return false
		}
	}
	return true
}
