package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
)

// FieldError points at one offending input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type errorResponse struct {
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

func decodeJSON(r *http.Request, dest any) error {
	if r.Body == nil {
		return errors.New("request body required")
	}
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string, fields ...FieldError) {
	respondJSON(w, status, errorResponse{Message: message, Errors: fields})
}

func respondInternalError(w http.ResponseWriter) {
	respondError(w, http.StatusInternalServerError, "Something went wrong.")
}

// queryInt parses an optional integer query parameter, returning fallback
// when absent.
func queryInt(r *http.Request, name string, fallback int64) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.New(name + " must be an integer")
	}
	return v, nil
}

// pagination extracts the limit/before cursor parameters shared by the list
// endpoints.
func pagination(r *http.Request) (limit int, before int64, err error) {
	rawLimit, err := queryInt(r, "limit", defaultPageLimit)
	if err != nil {
		return 0, 0, err
	}
	if rawLimit < 1 {
		return 0, 0, errors.New("limit must be at least 1")
	}
	if rawLimit > maxPageLimit {
		return 0, 0, errors.New("limit must be at most " + strconv.Itoa(maxPageLimit))
	}

	before, err = queryInt(r, "before", 0)
	if err != nil {
		return 0, 0, err
	}
	if before < 0 {
		return 0, 0, errors.New("before must not be negative")
	}

	return int(rawLimit), before, nil
}
