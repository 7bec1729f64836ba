package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/agentiq-console/internal/domain"
)

func rec(action domain.ActionName, remediation *string) domain.ActionRecord {
	return domain.ActionRecord{
		Action:      action,
		Timestamp:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Remediation: remediation,
	}
}

func str(s string) *string { return &s }

func all(domain.ActionRecord) bool { return true }

func TestLog_AppendPreservesOrder(t *testing.T) {
	l := NewLog()
	assert.Equal(t, 0, l.Append(rec(domain.ActionRiskScoring, nil)))
	assert.Equal(t, 1, l.Append(rec(domain.ActionFraudDetection, nil)))
	assert.Equal(t, 2, l.Append(rec(domain.ActionReleaseDecision, nil)))

	got := l.All()
	require.Len(t, got, 3)
	assert.Equal(t, domain.ActionRiskScoring, got[0].Action)
	assert.Equal(t, domain.ActionFraudDetection, got[1].Action)
	assert.Equal(t, domain.ActionReleaseDecision, got[2].Action)
	assert.Equal(t, 3, l.Len())
}

func TestLog_AllReturnsCopy(t *testing.T) {
	l := NewLog()
	l.Append(rec(domain.ActionRiskScoring, str("fix")))

	got := l.All()
	got[0].RemediationExecuted = true
	got[0].Action = domain.ActionFraudDetection

	again := l.All()
	assert.False(t, again[0].RemediationExecuted)
	assert.Equal(t, domain.ActionRiskScoring, again[0].Action)
}

func TestLog_MarkExecuted(t *testing.T) {
	l := NewLog()
	l.Append(rec(domain.ActionRiskScoring, str("fix")))
	l.Append(rec(domain.ActionRiskScoring, nil))

	got, changed, err := l.MarkExecuted(0)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, got.RemediationExecuted)
	assert.True(t, l.All()[0].RemediationExecuted)

	// пометка «залипает»: повтор не меняет состояние
	_, changed, err = l.MarkExecuted(0)
	require.NoError(t, err)
	assert.False(t, changed)

	_, _, err = l.MarkExecuted(1)
	assert.ErrorIs(t, err, domain.ErrInvalidRecord)

	_, _, err = l.MarkExecuted(2)
	assert.ErrorIs(t, err, domain.ErrIndexOutOfRange)
	_, _, err = l.MarkExecuted(-1)
	assert.ErrorIs(t, err, domain.ErrIndexOutOfRange)
}

func TestLog_ConsumePending(t *testing.T) {
	l := NewLog()
	l.Append(rec(domain.ActionRiskScoring, str("restart")))
	l.Append(rec(domain.ActionFraudDetection, str("scale")))
	l.Append(rec(domain.ActionFraudDetection, nil))

	onlyFraud := func(r domain.ActionRecord) bool { return r.Action == domain.ActionFraudDetection }

	snap, consumed := l.ConsumePending(onlyFraud)
	require.Len(t, snap, 3)
	assert.Equal(t, []int{1}, consumed)
	// снапшот отражает состояние до пометки
	assert.False(t, snap[1].RemediationExecuted)

	after := l.All()
	assert.False(t, after[0].RemediationExecuted, "filtered-out record must stay pending")
	assert.True(t, after[1].RemediationExecuted)
	assert.False(t, after[2].RemediationExecuted)

	_, consumed = l.ConsumePending(onlyFraud)
	assert.Empty(t, consumed)

	_, consumed = l.ConsumePending(all)
	assert.Equal(t, []int{0}, consumed)
}

func TestLog_ConcurrentConsumeSurfacesOnce(t *testing.T) {
	l := NewLog()
	for i := 0; i < 50; i++ {
		l.Append(rec(domain.ActionRiskScoring, str("restart")))
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, consumed := l.ConsumePending(all)
			mu.Lock()
			total += len(consumed)
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, total)
}
