package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ReliableStorage оборачивает хранилище в ретраи и Circuit Breaker.
// Если база лежит, предохранитель открывается и воркер не тратит время на таймауты.
type ReliableStorage struct {
	next    Storage
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
	logger  *zap.Logger
}

func NewReliableStorage(next Storage, logger *zap.Logger) *ReliableStorage {
	l := logger.Named("archive-cb")

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "archive-storage",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second, // Время, через которое CB попробует "закрыться"
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &ReliableStorage{
		next:    next,
		cb:      cb,
		timeout: 5 * time.Second,
		logger:  l,
	}
}

func (s *ReliableStorage) WriteBatch(ctx context.Context, events []Event) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		r := retry.New(
			retry.Context(ctx),
			retry.Attempts(3),
			retry.DelayType(retry.BackOffDelay),
		)

		return nil, r.Do(func() error {
			tCtx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			return s.next.WriteBatch(tCtx, events)
		})
	})
	if err != nil {
		return fmt.Errorf("archive: write batch of %d: %w", len(events), err)
	}
	return nil
}

// State — текущее состояние предохранителя (для тестов и метрик)
func (s *ReliableStorage) State() gobreaker.State {
	return s.cb.State()
}
