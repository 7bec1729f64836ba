package audit

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/agentiq-console/internal/domain"
	"github.com/xela07ax/agentiq-console/internal/policy"
	"github.com/xela07ax/agentiq-console/internal/session"
	"go.uber.org/zap"
)

type fakeLinks struct{}

func (fakeLinks) RecordLink(action domain.ActionName, ts time.Time) string {
	return fmt.Sprintf("ticket://%s/%d", action, ts.Unix())
}

func (fakeLinks) AggregateLink(n int) string { return fmt.Sprintf("ticket://all/%d", n) }

type recordingObserver struct {
	got [][]domain.RemediationProposal
}

func (o *recordingObserver) ProposalsExecuted(p []domain.RemediationProposal) {
	o.got = append(o.got, p)
}

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func mustRecord(t *testing.T, i int, action domain.ActionName, confidence, rt float64, isErr bool) domain.ActionRecord {
	t.Helper()
	r, err := domain.NewActionRecord(
		fmt.Sprintf("rec-%d", i),
		domain.ActionInput{Action: action, Confidence: confidence, ResponseTime: rt, Error: isErr},
		base.Add(time.Duration(i)*time.Second),
		policy.DefaultPolicy{},
	)
	require.NoError(t, err)
	return r
}

func TestFilter_PreservesOrder(t *testing.T) {
	recs := []domain.ActionRecord{
		mustRecord(t, 0, domain.ActionRiskScoring, 0.9, 1, false),
		mustRecord(t, 1, domain.ActionFraudDetection, 0.9, 1, false),
		mustRecord(t, 2, domain.ActionRiskScoring, 0.9, 1, false),
		mustRecord(t, 3, domain.ActionReleaseDecision, 0.9, 1, false),
		mustRecord(t, 4, domain.ActionRiskScoring, 0.9, 1, false),
	}

	got := Filter(recs, NewSelection(domain.ActionRiskScoring, domain.ActionReleaseDecision))
	ids := make([]string, 0, len(got))
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"rec-0", "rec-2", "rec-3", "rec-4"}, ids)

	assert.Len(t, Filter(recs, NewSelection()), len(recs), "empty selection means all")
	assert.Empty(t, Filter(nil, NewSelection(domain.ActionRiskScoring)))
}

func TestComputeMetrics_EmptyIsZero(t *testing.T) {
	m := ComputeMetrics(nil)
	assert.Equal(t, 0, m.TotalActions)
	assert.Equal(t, 0.0, m.AvgResponseTime)
	assert.Equal(t, 0.0, m.ErrorRate)
	assert.Equal(t, 0.0, m.SLABreachRate)
	assert.False(t, math.IsNaN(m.AvgResponseTime))
}

func TestComputeMetrics(t *testing.T) {
	recs := []domain.ActionRecord{
		mustRecord(t, 0, domain.ActionRiskScoring, 0.9, 1.0, true),
		mustRecord(t, 1, domain.ActionRiskScoring, 0.9, 2.5, false),
		mustRecord(t, 2, domain.ActionFraudDetection, 0.9, 2.0, false),
		mustRecord(t, 3, domain.ActionFraudDetection, 0.9, 0.5, false),
	}
	m := ComputeMetrics(recs)
	assert.Equal(t, 4, m.TotalActions)
	assert.InDelta(t, 1.5, m.AvgResponseTime, 1e-9)
	assert.InDelta(t, 25.0, m.ErrorRate, 1e-9)
	// 2.0 — ровно порог, нарушением не считается
	assert.Equal(t, 1, m.SLABreachCount)
	assert.InDelta(t, 25.0, m.SLABreachRate, 1e-9)
}

func TestLowConfidence(t *testing.T) {
	recs := []domain.ActionRecord{
		mustRecord(t, 0, domain.ActionRiskScoring, 0.79, 1, false),
		mustRecord(t, 1, domain.ActionRiskScoring, 0.8, 1, false),
		mustRecord(t, 2, domain.ActionFraudDetection, 0.5, 1, false),
	}
	flag := LowConfidence(recs)
	assert.Equal(t, 2, flag.Count)
	assert.Equal(t, "rec-0", flag.Records[0].ID)
	assert.Equal(t, "rec-2", flag.Records[1].ID)

	none := LowConfidence(recs[1:2])
	assert.Equal(t, 0, none.Count)
	assert.Empty(t, none.Records)
}

func TestRepeatedErrors_Threshold(t *testing.T) {
	two := []domain.ActionRecord{
		mustRecord(t, 0, domain.ActionRiskScoring, 0.9, 1, true),
		mustRecord(t, 1, domain.ActionRiskScoring, 0.9, 1, true),
		mustRecord(t, 2, domain.ActionRiskScoring, 0.9, 1, false),
	}
	assert.Empty(t, RepeatedErrors(two), "exactly two errors must not trigger")

	three := append(two, mustRecord(t, 3, domain.ActionRiskScoring, 0.9, 1, true),
		mustRecord(t, 4, domain.ActionFraudDetection, 0.9, 1, true))
	assert.Equal(t,
		[]domain.RepeatedErrorFlag{{Action: domain.ActionRiskScoring, Count: 3}},
		RepeatedErrors(three))
}

func TestReport_RepeatedErrorScenario(t *testing.T) {
	log := session.NewLog()
	for i := 0; i < 3; i++ {
		log.Append(mustRecord(t, i, domain.ActionRiskScoring, 0.9, 1.0, true))
	}

	agg := NewAggregator(fakeLinks{}, zap.NewNop())
	rep := agg.Report(log, nil)

	assert.Equal(t, []domain.RepeatedErrorFlag{{Action: domain.ActionRiskScoring, Count: 3}}, rep.RepeatedErrors)
	require.NotNil(t, rep.Errors)
	assert.Equal(t, 3, rep.Errors.Count)
	require.Len(t, rep.Errors.Entries, 3)
	assert.Equal(t, fmt.Sprintf("ticket://%s/%d", domain.ActionRiskScoring, base.Unix()), rep.Errors.Entries[0].TicketLink)
	assert.Equal(t, "ticket://all/3", rep.Errors.AggregateLink)
	assert.Equal(t, 3, rep.Metrics.TotalActions)
	assert.InDelta(t, 100.0, rep.Metrics.ErrorRate, 1e-9)
	assert.Equal(t, map[domain.ActionName]int{domain.ActionRiskScoring: 3}, rep.Frequency)
	assert.Equal(t, 0, rep.LowConfidence.Count)
}

func TestReport_SLARemediationConsumedOnce(t *testing.T) {
	log := session.NewLog()
	log.Append(mustRecord(t, 0, domain.ActionFraudDetection, 0.9, 2.1, false))

	obs := &recordingObserver{}
	agg := NewAggregator(fakeLinks{}, zap.NewNop(), obs)

	first := agg.Report(log, []domain.ActionName{domain.ActionFraudDetection})
	require.Len(t, first.Remediations, 1)
	assert.Equal(t, "Scale resources or optimize workflow", first.Remediations[0].Remediation)
	assert.True(t, first.Remediations[0].Executed)
	assert.Nil(t, first.Errors)
	assert.Equal(t, 1, first.Metrics.SLABreachCount)
	assert.InDelta(t, 100.0, first.Metrics.SLABreachRate, 1e-9)
	assert.True(t, log.All()[0].RemediationExecuted)

	second := agg.Report(log, []domain.ActionName{domain.ActionFraudDetection})
	assert.Empty(t, second.Remediations)
	assert.Len(t, obs.got, 1, "observer notified only for the surfacing report")
}

func TestReport_FlagsShowRecordsAfterConsume(t *testing.T) {
	log := session.NewLog()
	log.Append(mustRecord(t, 0, domain.ActionRiskScoring, 0.5, 1.0, true))
	log.Append(mustRecord(t, 1, domain.ActionFraudDetection, 0.4, 0.5, false))

	rep := NewAggregator(fakeLinks{}, zap.NewNop()).Report(log, nil)
	require.Len(t, rep.Remediations, 1)

	require.Equal(t, 2, rep.LowConfidence.Count)
	assert.True(t, rep.LowConfidence.Records[0].RemediationExecuted)
	assert.False(t, rep.LowConfidence.Records[1].RemediationExecuted, "no proposal, nothing to execute")
	assert.Equal(t, log.All()[0], rep.LowConfidence.Records[0])
}

func TestReport_FilteredOutProposalStaysPending(t *testing.T) {
	log := session.NewLog()
	log.Append(mustRecord(t, 0, domain.ActionRiskScoring, 0.9, 1.0, true))
	log.Append(mustRecord(t, 1, domain.ActionFraudDetection, 0.9, 2.2, false))

	agg := NewAggregator(fakeLinks{}, zap.NewNop())

	rep := agg.Report(log, []domain.ActionName{domain.ActionFraudDetection})
	require.Len(t, rep.Remediations, 1)
	assert.Equal(t, 1, rep.Remediations[0].Index)
	assert.Equal(t, []domain.ActionName{domain.ActionRiskScoring, domain.ActionFraudDetection}, rep.AvailableActions)

	rep = agg.Report(log, nil)
	require.Len(t, rep.Remediations, 1)
	assert.Equal(t, 0, rep.Remediations[0].Index)
	assert.Equal(t, "Restart service or notify support team", rep.Remediations[0].Remediation)
}

func TestReport_EmptyLog(t *testing.T) {
	agg := NewAggregator(fakeLinks{}, zap.NewNop())
	rep := agg.Report(session.NewLog(), nil)

	assert.Equal(t, 0, rep.Metrics.TotalActions)
	assert.Nil(t, rep.Errors)
	assert.Empty(t, rep.RepeatedErrors)
	assert.Empty(t, rep.Remediations)
	assert.Empty(t, rep.Frequency)
}

func TestReport_Explanations(t *testing.T) {
	log := session.NewLog()
	log.Append(mustRecord(t, 0, domain.ActionReleaseDecision, 0.75, 0.7, false))

	rep := NewAggregator(fakeLinks{}, zap.NewNop()).Report(log, nil)
	require.Len(t, rep.Explanations, 1)
	assert.Equal(t, domain.DefaultRationale, rep.Explanations[0].Rationale)
	assert.Equal(t, policy.DefaultPolicyName, rep.Explanations[0].PolicyName)
	assert.Equal(t, 1, rep.LowConfidence.Count)
}
