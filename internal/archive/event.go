package archive

import (
	"time"

	"github.com/xela07ax/agentiq-console/internal/domain"
)

// EventKind — что произошло с записью
type EventKind string

const (
	KindActionPerformed     EventKind = "ACTION_PERFORMED"
	KindRemediationExecuted EventKind = "REMEDIATION_EXECUTED"
)

// Event — строка аудиторского архива. Архив только пишется: сессии из него не восстанавливаются.
type Event struct {
	ID        string    `json:"id"`         // UUID события
	SessionID string    `json:"session_id"` // Чья сессия
	Kind      EventKind `json:"kind"`
	Timestamp time.Time `json:"timestamp"`

	// Снимок записи на момент события
	Record domain.ActionRecord `json:"record"`
}
