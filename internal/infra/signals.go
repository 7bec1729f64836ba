package infra

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/agentiq-console/internal/domain"
	"go.uber.org/zap"
)

// RemediationSignal — сообщение в канале RedisChanRemediationExecuted
type RemediationSignal struct {
	SessionID   string            `json:"session_id"`
	RecordID    string            `json:"record_id"`
	Action      domain.ActionName `json:"action"`
	Remediation string            `json:"remediation"`
	ExecutedAt  time.Time         `json:"executed_at"`
}

// RemediationPublisher транслирует исполненные предложения в Redis.
// Сбой доставки не ломает показ дашборда — только предупреждение в лог.
type RemediationPublisher struct {
	rdb     *redis.Client
	logger  *zap.Logger
	timeout time.Duration
}

func NewRemediationPublisher(rdb *redis.Client, logger *zap.Logger) *RemediationPublisher {
	return &RemediationPublisher{
		rdb:     rdb,
		logger:  logger.Named("remediation-publisher"),
		timeout: 2 * time.Second,
	}
}

func (p *RemediationPublisher) Publish(ctx context.Context, sessionID string, proposals []domain.RemediationProposal) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	now := time.Now()
	pipe := p.rdb.Pipeline()
	for _, pr := range proposals {
		payload, err := json.Marshal(RemediationSignal{
			SessionID:   sessionID,
			RecordID:    pr.RecordID,
			Action:      pr.Action,
			Remediation: pr.Remediation,
			ExecutedAt:  now,
		})
		if err != nil {
			p.logger.Error("failed to encode remediation signal", zap.Error(err))
			continue
		}
		pipe.Publish(ctx, RedisChanRemediationExecuted, payload)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		p.logger.Warn("remediation signal delivery failed",
			zap.String("session_id", sessionID),
			zap.String("channel", RedisChanRemediationExecuted),
			zap.Error(err))
		return
	}
	p.logger.Debug("remediation signals published",
		zap.String("session_id", sessionID),
		zap.Int("count", len(proposals)))
}

// ListenResilient — «живучая» подписка на канал Redis: переподключается при обрыве
// и отдает каждое сообщение в onMessage до отмены контекста.
func ListenResilient(
	ctx context.Context,
	rdb *redis.Client,
	logger *zap.Logger,
	channel string,
	onMessage func(payload string),
) {
	for {
		pubsub := rdb.Subscribe(ctx, channel)

		// Проверка успешности подписки
		if _, err := pubsub.Receive(ctx); err != nil {
			pubsub.Close()
			if ctx.Err() != nil {
				return
			}
			logger.Error("failed to subscribe", zap.String("chan", channel), zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
			continue
		}
		logger.Info("subscribed", zap.String("chan", channel))

		ch := pubsub.Channel()

	loop:
		for {
			select {
			case <-ctx.Done():
				pubsub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break loop // Канал закрыт, идем на переподключение
				}
				onMessage(msg.Payload)
			}
		}

		pubsub.Close()
		time.Sleep(1 * time.Second)
	}
}
