package handler

import (
	"context"
	"net/http"

	"github.com/xela07ax/agentiq-console/internal/console/service"
	"github.com/xela07ax/agentiq-console/internal/domain"
	"go.uber.org/zap"
)

// SessionService Описываем, что нам нужно от сервиса
type SessionService interface {
	StartSession(ctx context.Context) (*service.SessionInfo, error)
	PerformAction(ctx context.Context, sessionID string, req service.ActionRequest) (*service.PerformedAction, error)
	ListActions(ctx context.Context, sessionID string) ([]domain.ActionRecord, error)
	MarkExecuted(ctx context.Context, sessionID string, index int) error
	AddFeedback(ctx context.Context, sessionID, text string) (*domain.Feedback, error)
	ListFeedback(ctx context.Context, sessionID string) ([]domain.Feedback, error)
}

type SessionHandler struct {
	service SessionService
	logger  *zap.Logger
}

func NewSessionHandler(s SessionService, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{service: s, logger: logger.Named("session-handler")}
}

// Start открывает новую изолированную сессию
// POST /v1/sessions
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.StartSession(r.Context())
	if err != nil {
		h.logger.Error("failed to start session", zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}
