package service

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/xela07ax/agentiq-console/internal/archive"
	"github.com/xela07ax/agentiq-console/internal/audit"
	"github.com/xela07ax/agentiq-console/internal/domain"
	"github.com/xela07ax/agentiq-console/internal/export"
	"go.uber.org/zap"
)

// RemediationNotifier транслирует исполненные предложения во внешние системы
type RemediationNotifier interface {
	Publish(ctx context.Context, sessionID string, proposals []domain.RemediationProposal)
}

type DashboardService struct {
	sessions   SessionStore
	aggregator *audit.Aggregator
	links      audit.LinkBuilder
	notifier   RemediationNotifier
	archiver   archive.Archiver
	logger     *zap.Logger
}

func NewDashboardService(
	sessions SessionStore,
	aggregator *audit.Aggregator,
	links audit.LinkBuilder,
	notifier RemediationNotifier,
	archiver archive.Archiver,
	logger *zap.Logger,
) *DashboardService {
	if archiver == nil {
		archiver = noopArchiver{}
	}
	return &DashboardService{
		sessions:   sessions,
		aggregator: aggregator,
		links:      links,
		notifier:   notifier,
		archiver:   archiver,
		logger:     logger.Named("dashboard-service"),
	}
}

// Report строит отчет дашборда. Показанные предложения считаются исполненными:
// второй такой же запрос их уже не вернет.
func (s *DashboardService) Report(ctx context.Context, sessionID string, selected []domain.ActionName) (*domain.AuditReport, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	report := s.aggregator.Report(sess.Log, selected)
	if len(report.Remediations) == 0 {
		return &report, nil
	}

	records := sess.Log.All()
	now := time.Now()
	for _, p := range report.Remediations {
		s.archiver.Log(archive.Event{
			ID:        uuid.New().String(),
			SessionID: sessionID,
			Kind:      archive.KindRemediationExecuted,
			Timestamp: now,
			Record:    records[p.Index],
		})
		s.logger.Info("remediation executed",
			zap.String("session_id", sessionID),
			zap.String("action", string(p.Action)),
			zap.String("remediation", p.Remediation))
	}
	if s.notifier != nil {
		s.notifier.Publish(ctx, sessionID, report.Remediations)
	}
	return &report, nil
}

// filtered — отфильтрованные записи без побочных эффектов (для экспорта)
func (s *DashboardService) filtered(sessionID string, selected []domain.ActionName) ([]domain.ActionRecord, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return audit.Filter(sess.Log.All(), audit.NewSelection(selected...)), nil
}

func (s *DashboardService) ExportCSV(ctx context.Context, w io.Writer, sessionID string, selected []domain.ActionName) error {
	records, err := s.filtered(sessionID, selected)
	if err != nil {
		return err
	}
	return export.WriteCSV(w, records)
}

func (s *DashboardService) ExportPDF(ctx context.Context, w io.Writer, sessionID string, selected []domain.ActionName) error {
	records, err := s.filtered(sessionID, selected)
	if err != nil {
		return err
	}
	return export.WritePDF(w, records)
}

// AggregateTicketURL — ссылка на один тикет по всем ошибкам выборки.
// ok == false, если ошибок нет. Открывать ссылку — явное действие пользователя.
func (s *DashboardService) AggregateTicketURL(ctx context.Context, sessionID string, selected []domain.ActionName) (string, bool, error) {
	records, err := s.filtered(sessionID, selected)
	if err != nil {
		return "", false, err
	}

	errs := 0
	for _, r := range records {
		if r.Error {
			errs++
		}
	}
	if errs == 0 {
		return "", false, nil
	}

	s.logger.Info("aggregate ticket requested", zap.String("session_id", sessionID), zap.Int("errors", errs))
	return s.links.AggregateLink(errs), true, nil
}
