package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/xela07ax/agentiq-console/internal/domain"
	"github.com/xela07ax/agentiq-console/internal/infra/auth"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError разделяет типы ошибок домена по HTTP-статусам (400, 404, 429, 500)
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrIndexOutOfRange):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidRecord), errors.Is(err, domain.ErrEmptyFeedback):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrRateLimited):
		w.Header().Set("Retry-After", "1")
		http.Error(w, err.Error(), http.StatusTooManyRequests)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// sessionID достает id сессии, положенный auth middleware
func sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := auth.SessionIDFrom(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	}
	return id, ok
}

// selectedActions читает фильтр ?action=A&action=B. Пустой фильтр — все действия.
func selectedActions(r *http.Request) []domain.ActionName {
	raw := r.URL.Query()["action"]
	out := make([]domain.ActionName, 0, len(raw))
	for _, a := range raw {
		if a != "" {
			out = append(out, domain.ActionName(a))
		}
	}
	return out
}
