package handler

import (
	"encoding/json"
	"net/http"
)

type FeedbackRequest struct {
	Text string `json:"text"`
}

// AddFeedback — обратная связь оператора по поведению агента
// POST /v1/feedback
func (h *SessionHandler) AddFeedback(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	fb, err := h.service.AddFeedback(r.Context(), id, req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, fb)
}

// ListFeedback
// GET /v1/feedback
func (h *SessionHandler) ListFeedback(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	list, err := h.service.ListFeedback(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
