package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xela07ax/agentiq-console/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Session — изолированное состояние одного интерактивного пользователя
type Session struct {
	ID        string
	CreatedAt time.Time

	Log     *Log
	Limiter *rate.Limiter // ограничивает частоту "Perform Action"

	mu       sync.Mutex
	feedback []domain.Feedback
	lastSeen time.Time
}

// AddFeedback сохраняет отзыв оператора в рамках сессии
func (s *Session) AddFeedback(text string, now time.Time) (domain.Feedback, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Feedback{}, domain.ErrEmptyFeedback
	}

	fb := domain.Feedback{
		ID:        uuid.New().String(),
		SessionID: s.ID,
		Text:      text,
		CreatedAt: now,
	}

	s.mu.Lock()
	s.feedback = append(s.feedback, fb)
	s.mu.Unlock()
	return fb, nil
}

func (s *Session) Feedback() []domain.Feedback {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Feedback, len(s.feedback))
	copy(out, s.feedback)
	return out
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Options задают лимиты для новых сессий
type Options struct {
	RateLimit float64 // действий в секунду, 0 — без ограничений
	Burst     int
}

// Manager хранит сессии. Никакого глобального синглтона: экземпляр передается явно.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	opts   Options
	now    func() time.Time
	logger *zap.Logger

	onCountChange func(n int) // для метрики активных сессий
}

func NewManager(opts Options, logger *zap.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		opts:     opts,
		now:      time.Now,
		logger:   logger.Named("sessions"),
	}
}

// OnCountChange регистрирует колбэк, вызываемый при изменении числа сессий
func (m *Manager) OnCountChange(fn func(n int)) {
	m.mu.Lock()
	m.onCountChange = fn
	m.mu.Unlock()
}

func (m *Manager) Create() *Session {
	now := m.now()

	limit := rate.Inf
	if m.opts.RateLimit > 0 {
		limit = rate.Limit(m.opts.RateLimit)
	}
	burst := m.opts.Burst
	if burst <= 0 {
		burst = 1
	}

	s := &Session{
		ID:        uuid.New().String(),
		CreatedAt: now,
		Log:       NewLog(),
		Limiter:   rate.NewLimiter(limit, burst),
		lastSeen:  now,
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	n := len(m.sessions)
	cb := m.onCountChange
	m.mu.Unlock()

	if cb != nil {
		cb(n)
	}
	m.logger.Info("session created", zap.String("session_id", s.ID))
	return s
}

// Get возвращает сессию и продлевает её жизнь
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	s.touch(m.now())
	return s, nil
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep удаляет сессии целиком, если они простаивали дольше idleTTL.
// Записи внутри живой сессии никогда не вытесняются.
func (m *Manager) Sweep(idleTTL time.Duration) int {
	deadline := m.now().Add(-idleTTL)

	m.mu.Lock()
	removed := 0
	for id, s := range m.sessions {
		if s.idleSince().Before(deadline) {
			delete(m.sessions, id)
			removed++
		}
	}
	n := len(m.sessions)
	cb := m.onCountChange
	m.mu.Unlock()

	if removed > 0 {
		if cb != nil {
			cb(n)
		}
		m.logger.Info("idle sessions evicted", zap.Int("removed", removed), zap.Int("active", n))
	}
	return removed
}

// StartJanitor периодически чистит простаивающие сессии до отмены контекста.
// При неположительных interval или idleTTL чистка не запускается.
func (m *Manager) StartJanitor(ctx context.Context, interval, idleTTL time.Duration) {
	if interval <= 0 || idleTTL <= 0 {
		m.logger.Warn("session janitor disabled",
			zap.Duration("interval", interval),
			zap.Duration("idle_ttl", idleTTL))
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Sweep(idleTTL)
		case <-ctx.Done():
			m.logger.Debug("session janitor stopped")
			return
		}
	}
}
