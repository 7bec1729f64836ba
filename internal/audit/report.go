package audit

import (
	"github.com/xela07ax/agentiq-console/internal/domain"
	"go.uber.org/zap"
)

// ProposalObserver получает предложения, исполненные в момент показа
// (метрики, публикация сигнала во внешние системы).
type ProposalObserver interface {
	ProposalsExecuted(proposals []domain.RemediationProposal)
}

type Aggregator struct {
	links     LinkBuilder
	observers []ProposalObserver
	logger    *zap.Logger
}

func NewAggregator(links LinkBuilder, logger *zap.Logger, observers ...ProposalObserver) *Aggregator {
	return &Aggregator{
		links:     links,
		observers: observers,
		logger:    logger.Named("aggregator"),
	}
}

// Report строит отчет дашборда по журналу и выбранным действиям.
//
// Контракт «чтение = мутация»: все ожидающие предложения отфильтрованных записей
// попадают в отчет ровно один раз и тут же помечаются исполненными в журнале.
// Повторный Report с тем же фильтром вернет их уже не как ожидающие.
// Записи в отчете (флаги, объяснения) отражают состояние после пометки.
func (a *Aggregator) Report(store Store, selected []domain.ActionName) domain.AuditReport {
	sel := NewSelection(selected...)

	snapshot, consumed := store.ConsumePending(func(r domain.ActionRecord) bool {
		return sel.Contains(r.Action)
	})
	for _, idx := range consumed {
		snapshot[idx].RemediationExecuted = true
	}
	filtered := Filter(snapshot, sel)

	report := domain.AuditReport{
		AvailableActions: DistinctActions(snapshot),
		Selected:         selectedOrAll(selected, snapshot),
		Frequency:        Frequency(filtered),
		Metrics:          ComputeMetrics(filtered),
		Explanations:     explanations(filtered),
		LowConfidence:    LowConfidence(filtered),
		RepeatedErrors:   RepeatedErrors(filtered),
		Errors:           ErrorAlerts(filtered, a.links),
		Remediations:     proposals(snapshot, consumed),
	}

	if len(report.Remediations) > 0 {
		a.logger.Info("remediation proposals executed",
			zap.Int("count", len(report.Remediations)))
		for _, o := range a.observers {
			o.ProposalsExecuted(report.Remediations)
		}
	}
	return report
}

func selectedOrAll(selected []domain.ActionName, snapshot []domain.ActionRecord) []domain.ActionName {
	if len(selected) == 0 {
		return DistinctActions(snapshot)
	}
	return selected
}

func explanations(records []domain.ActionRecord) []domain.Explanation {
	out := make([]domain.Explanation, 0, len(records))
	for _, r := range records {
		out = append(out, domain.Explanation{
			Action:     r.Action,
			Rationale:  r.Rationale,
			PolicyName: r.PolicyName,
		})
	}
	return out
}

func proposals(snapshot []domain.ActionRecord, consumed []int) []domain.RemediationProposal {
	out := make([]domain.RemediationProposal, 0, len(consumed))
	for _, idx := range consumed {
		r := snapshot[idx]
		out = append(out, domain.RemediationProposal{
			Index:       idx,
			RecordID:    r.ID,
			Action:      r.Action,
			Timestamp:   r.Timestamp,
			Remediation: *r.Remediation,
			Executed:    true,
		})
	}
	return out
}
