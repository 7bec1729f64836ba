package handler

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/xela07ax/agentiq-console/internal/domain"
	"go.uber.org/zap"
)

// DashboardService Описываем, что нам нужно от сервиса
type DashboardService interface {
	Report(ctx context.Context, sessionID string, selected []domain.ActionName) (*domain.AuditReport, error)
	ExportCSV(ctx context.Context, w io.Writer, sessionID string, selected []domain.ActionName) error
	ExportPDF(ctx context.Context, w io.Writer, sessionID string, selected []domain.ActionName) error
	AggregateTicketURL(ctx context.Context, sessionID string, selected []domain.ActionName) (string, bool, error)
}

type DashboardHandler struct {
	service DashboardService
	logger  *zap.Logger
}

func NewDashboardHandler(s DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{service: s, logger: logger.Named("dashboard-handler")}
}

// GetReport отдает метрики и флаги аномалий.
// Внимание: показ исполняет ожидающие предложения (повторный запрос их уже не вернет).
// GET /v1/dashboard?action=...&action=...
func (h *DashboardHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	report, err := h.service.Report(r.Context(), id, selectedActions(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ExportCSV
// GET /v1/export.csv?action=...
func (h *DashboardHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "text/csv", "filtered_data.csv", h.service.ExportCSV)
}

// ExportPDF
// GET /v1/export.pdf?action=...
func (h *DashboardHandler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "application/pdf", "filtered_data.pdf", h.service.ExportPDF)
}

type exportFunc func(ctx context.Context, w io.Writer, sessionID string, selected []domain.ActionName) error

func (h *DashboardHandler) export(w http.ResponseWriter, r *http.Request, mime, filename string, fn exportFunc) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	// Пишем в буфер: при ошибке посередине клиент не должен получить обрезанный файл с 200
	var buf bytes.Buffer
	if err := fn(r.Context(), &buf, id, selectedActions(r)); err != nil {
		h.logger.Error("export failed", zap.String("session_id", id), zap.String("mime", mime), zap.Error(err))
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// OpenAggregateTicket — явное подтвержденное действие пользователя:
// перенаправляет на создание одного тикета по всем ошибкам выборки.
// POST /v1/tickets/aggregate?action=...
func (h *DashboardHandler) OpenAggregateTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	link, found, err := h.service.AggregateTicketURL(r.Context(), id, selectedActions(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if !found {
		http.Error(w, "no errors in selection", http.StatusNotFound)
		return
	}
	http.Redirect(w, r, link, http.StatusSeeOther)
}
