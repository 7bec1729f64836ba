package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xela07ax/agentiq-console/internal/archive"
	"github.com/xela07ax/agentiq-console/internal/domain"
	"github.com/xela07ax/agentiq-console/internal/session"
	"github.com/xela07ax/agentiq-console/internal/simulator"
	"go.uber.org/zap"
)

// SessionStore описывает требования к реестру сессий
type SessionStore interface {
	Create() *session.Session
	Get(id string) (*session.Session, error)
}

// TokenIssuer выпускает токен, привязанный к сессии
type TokenIssuer interface {
	IssueToken(sessionID string) (string, time.Time, error)
}

// ActionObserver — метрики по новым записям и исполненным предложениям
type ActionObserver interface {
	ObserveAction(r domain.ActionRecord)
	ProposalsExecuted(p []domain.RemediationProposal)
}

type SessionService struct {
	sessions  SessionStore
	generator *simulator.Generator
	tokens    TokenIssuer
	observer  ActionObserver
	notifier  RemediationNotifier
	archiver  archive.Archiver
	logger    *zap.Logger
	now       func() time.Time
}

func NewSessionService(
	sessions SessionStore,
	generator *simulator.Generator,
	tokens TokenIssuer,
	observer ActionObserver,
	notifier RemediationNotifier,
	archiver archive.Archiver,
	logger *zap.Logger,
) *SessionService {
	if archiver == nil {
		archiver = noopArchiver{}
	}
	return &SessionService{
		sessions:  sessions,
		generator: generator,
		tokens:    tokens,
		observer:  observer,
		notifier:  notifier,
		archiver:  archiver,
		logger:    logger.Named("session-service"),
		now:       time.Now,
	}
}

type SessionInfo struct {
	SessionID string    `json:"session_id"`
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"` // Всегда "Bearer"
	ExpiresAt time.Time `json:"expires_at"`
}

// StartSession создает изолированную сессию и выдает токен к ней
func (s *SessionService) StartSession(ctx context.Context) (*SessionInfo, error) {
	sess := s.sessions.Create()

	token, exp, err := s.tokens.IssueToken(sess.ID)
	if err != nil {
		s.logger.Error("failed to issue session token", zap.String("session_id", sess.ID), zap.Error(err))
		return nil, fmt.Errorf("session_service: %w", err)
	}

	return &SessionInfo{SessionID: sess.ID, Token: token, TokenType: "Bearer", ExpiresAt: exp}, nil
}

// ActionRequest — тело запроса "Perform Action". Незаданные поля генерируются случайно.
type ActionRequest struct {
	Action domain.ActionName `json:"action"`
	simulator.Overrides
}

type PerformedAction struct {
	Index  int                 `json:"index"`
	Record domain.ActionRecord `json:"record"`
}

// PerformAction создает запись через симулятор и добавляет её в журнал сессии
func (s *SessionService) PerformAction(ctx context.Context, sessionID string, req ActionRequest) (*PerformedAction, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Limiter.Allow() {
		s.logger.Warn("action rate limit exceeded", zap.String("session_id", sessionID))
		return nil, domain.ErrRateLimited
	}

	rec, err := s.generator.Perform(req.Action, req.Overrides)
	if err != nil {
		return nil, err
	}

	idx := sess.Log.Append(rec)
	s.observer.ObserveAction(rec)
	s.archiver.Log(archive.Event{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Kind:      archive.KindActionPerformed,
		Timestamp: rec.Timestamp,
		Record:    rec,
	})

	s.logger.Info("agent performed action",
		zap.String("session_id", sessionID),
		zap.String("action", string(rec.Action)),
		zap.Float64("confidence", rec.Confidence),
		zap.Float64("response_time", rec.ResponseTime),
		zap.Bool("error", rec.Error),
		zap.Bool("sla_breach", rec.SLABreach))

	return &PerformedAction{Index: idx, Record: rec}, nil
}

// ListActions возвращает журнал сессии в порядке вставки
func (s *SessionService) ListActions(ctx context.Context, sessionID string) ([]domain.ActionRecord, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	// гарантируем, что фронтенд получит [], а не null
	records := sess.Log.All()
	if records == nil {
		records = []domain.ActionRecord{}
	}
	return records, nil
}

// MarkExecuted вручную помечает предложение записи исполненным.
// Это ручное действие оператора: предложение могло ни разу не попасть на дашборд.
// Метрики, сигнал и архив — те же, что и при исполнении через показ.
func (s *SessionService) MarkExecuted(ctx context.Context, sessionID string, index int) error {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	rec, changed, err := sess.Log.MarkExecuted(index)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	proposal := domain.RemediationProposal{
		Index:       index,
		RecordID:    rec.ID,
		Action:      rec.Action,
		Timestamp:   rec.Timestamp,
		Remediation: *rec.Remediation,
		Executed:    true,
	}

	s.archiver.Log(archive.Event{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Kind:      archive.KindRemediationExecuted,
		Timestamp: s.now(),
		Record:    rec,
	})
	s.observer.ProposalsExecuted([]domain.RemediationProposal{proposal})
	if s.notifier != nil {
		s.notifier.Publish(ctx, sessionID, []domain.RemediationProposal{proposal})
	}

	s.logger.Info("remediation marked executed by operator",
		zap.String("session_id", sessionID),
		zap.Int("index", index),
		zap.String("remediation", proposal.Remediation))
	return nil
}

func (s *SessionService) AddFeedback(ctx context.Context, sessionID, text string) (*domain.Feedback, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	fb, err := sess.AddFeedback(text, s.now())
	if err != nil {
		return nil, err
	}
	s.logger.Info("feedback received", zap.String("session_id", sessionID), zap.Int("length", len(fb.Text)))
	return &fb, nil
}

func (s *SessionService) ListFeedback(ctx context.Context, sessionID string) ([]domain.Feedback, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Feedback(), nil
}

type noopArchiver struct{}

func (noopArchiver) Log(archive.Event) {}
