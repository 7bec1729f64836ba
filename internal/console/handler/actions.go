package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/xela07ax/agentiq-console/internal/console/service"
	"github.com/xela07ax/agentiq-console/internal/domain"
	"go.uber.org/zap"
)

// AvailableActions — справочник действий для выпадающего списка
// GET /v1/catalog
func (h *SessionHandler) AvailableActions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, domain.KnownActions)
}

// Perform выполняет симулированное действие агента
// POST /v1/actions {"action": "...", "confidence"?, "response_time"?, "error"?}
func (h *SessionHandler) Perform(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	var req service.ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.service.PerformAction(r.Context(), id, req)
	if err != nil {
		h.logger.Debug("perform action rejected", zap.String("session_id", id), zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// List возвращает журнал сессии
// GET /v1/actions
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	records, err := h.service.ListActions(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// MarkExecuted помечает предложение записи исполненным
// POST /v1/actions/{index}/executed
func (h *SessionHandler) MarkExecuted(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "index must be an integer", http.StatusBadRequest)
		return
	}

	if err := h.service.MarkExecuted(r.Context(), id, index); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
