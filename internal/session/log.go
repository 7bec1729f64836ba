package session

import (
	"fmt"
	"sync"

	"github.com/xela07ax/agentiq-console/internal/domain"
)

// Log — append-only журнал действий одной сессии.
// Записи не удаляются и не переупорядочиваются; меняется только флаг RemediationExecuted.
type Log struct {
	mu      sync.RWMutex
	records []domain.ActionRecord
}

func NewLog() *Log {
	return &Log{}
}

// Append добавляет запись в конец журнала и возвращает её позицию
func (l *Log) Append(rec domain.ActionRecord) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
	return len(l.records) - 1
}

// All возвращает копию журнала в порядке вставки
func (l *Log) All() []domain.ActionRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshot()
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// MarkExecuted помечает предложение записи как исполненное.
// Запись без предложения пометить нельзя. Возвращает запись после пометки и
// признак того, что пометка сменила состояние (повторная пометка — false).
func (l *Log) MarkExecuted(index int) (domain.ActionRecord, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if index < 0 || index >= len(l.records) {
		return domain.ActionRecord{}, false, fmt.Errorf("%w: %d (len %d)", domain.ErrIndexOutOfRange, index, len(l.records))
	}
	if l.records[index].Remediation == nil {
		return domain.ActionRecord{}, false, fmt.Errorf("%w: record %d has no remediation", domain.ErrInvalidRecord, index)
	}
	changed := !l.records[index].RemediationExecuted
	l.records[index].RemediationExecuted = true
	return l.records[index], changed, nil
}

// ConsumePending — единственная операция «прочитать и пометить».
// Под одной блокировкой снимает снапшот и помечает исполненными все ожидающие
// предложения среди записей, прошедших keep. Возвращает снапшот ДО пометки и
// индексы помеченных записей. Повторный вызов их уже не вернет.
func (l *Log) ConsumePending(keep func(domain.ActionRecord) bool) ([]domain.ActionRecord, []int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	snap := l.snapshot()
	var consumed []int
	for i := range l.records {
		if !keep(l.records[i]) || !l.records[i].HasPendingRemediation() {
			continue
		}
		l.records[i].RemediationExecuted = true
		consumed = append(consumed, i)
	}
	return snap, consumed
}

func (l *Log) snapshot() []domain.ActionRecord {
	out := make([]domain.ActionRecord, len(l.records))
	copy(out, l.records)
	return out
}
