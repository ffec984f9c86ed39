package api

import (
	"errors"
	"net/http"
	"strconv"

	"courier/internal/store"
)

const msgBadDestination = "Destination failed. The user you're trying to reach does not exist or is invalid. Please check the user ID and try again."

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	claims := sessionFromContext(r.Context())
	user := caller(r.Context())
	respondJSON(w, http.StatusOK, map[string]any{
		"id":       claims.UserID,
		"fullName": fullName(user.FirstName, user.LastName),
		"email":    claims.Email,
	})
}

func (a *API) handleCreateMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content    string `json:"content"`
		ReceiverID int64  `json:"receiverId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var fields []FieldError
	if req.Content == "" {
		fields = append(fields, FieldError{Field: "content", Message: "must not be empty"})
	}
	if req.ReceiverID <= 0 {
		fields = append(fields, FieldError{Field: "receiverId", Message: "is required"})
	}
	if len(fields) > 0 {
		respondError(w, http.StatusBadRequest, "Validation failed.", fields...)
		return
	}

	sender := caller(r.Context())

	// The receiver must exist before anything is written. Sending to
	// yourself needs no lookup.
	if req.ReceiverID != sender.ID {
		if _, err := a.deps.Users.FindByID(r.Context(), req.ReceiverID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondError(w, http.StatusBadRequest, msgBadDestination)
				return
			}
			respondInternalError(w)
			return
		}
	}

	msg, err := a.deps.Messages.Insert(r.Context(), sender.ID, req.ReceiverID, req.Content)
	if err != nil {
		respondInternalError(w)
		return
	}

	messagesSentTotal.Inc()
	respondJSON(w, http.StatusOK, map[string]any{"id": msg.ID})
}

func (a *API) handleListMessages(w http.ResponseWriter, r *http.Request) {
	rawReceiver := r.URL.Query().Get("receiverId")
	if rawReceiver == "" {
		respondError(w, http.StatusBadRequest, "Validation failed.",
			FieldError{Field: "receiverId", Message: "is required"})
		return
	}
	receiverID, err := strconv.ParseInt(rawReceiver, 10, 64)
	if err != nil || receiverID <= 0 {
		respondError(w, http.StatusBadRequest, "Validation failed.",
			FieldError{Field: "receiverId", Message: "must be a positive integer"})
		return
	}

	limit, before, err := pagination(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := a.deps.Engine.ListMessages(r.Context(), caller(r.Context()), receiverID, limit, before)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusBadRequest, msgBadDestination)
			return
		}
		respondInternalError(w)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (a *API) handleListConversations(w http.ResponseWriter, r *http.Request) {
	limit, before, err := pagination(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := a.deps.Engine.ListConversations(r.Context(), caller(r.Context()), limit, before)
	if err != nil {
		respondInternalError(w)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func fullName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	default:
		return first + " " + last
	}
}
