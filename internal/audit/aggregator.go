// Package audit считает метрики и флаги аномалий по журналу действий сессии.
package audit

import (
	"sort"
	"time"

	"github.com/xela07ax/agentiq-console/internal/domain"
)

// Store — то, что агрегатору нужно от журнала сессии.
// ConsumePending обязан быть атомарным: снапшот и пометка под одной блокировкой.
type Store interface {
	All() []domain.ActionRecord
	ConsumePending(keep func(domain.ActionRecord) bool) ([]domain.ActionRecord, []int)
}

// LinkBuilder строит ссылки на тикеты (чистые функции)
type LinkBuilder interface {
	RecordLink(action domain.ActionName, ts time.Time) string
	AggregateLink(errorCount int) string
}

// Selection — множество выбранных действий. Пустое множество означает «все».
type Selection map[domain.ActionName]struct{}

func NewSelection(actions ...domain.ActionName) Selection {
	s := make(Selection, len(actions))
	for _, a := range actions {
		s[a] = struct{}{}
	}
	return s
}

func (s Selection) Contains(a domain.ActionName) bool {
	if len(s) == 0 {
		return true
	}
	_, ok := s[a]
	return ok
}

// Filter оставляет записи выбранных действий, сохраняя порядок
func Filter(records []domain.ActionRecord, sel Selection) []domain.ActionRecord {
	out := make([]domain.ActionRecord, 0, len(records))
	for _, r := range records {
		if sel.Contains(r.Action) {
			out = append(out, r)
		}
	}
	return out
}

// Frequency — количество записей по каждому действию
func Frequency(records []domain.ActionRecord) map[domain.ActionName]int {
	freq := make(map[domain.ActionName]int)
	for _, r := range records {
		freq[r.Action]++
	}
	return freq
}

// ComputeMetrics считает производительность. На пустом наборе все значения — 0, не NaN.
func ComputeMetrics(records []domain.ActionRecord) domain.PerformanceMetrics {
	m := domain.PerformanceMetrics{TotalActions: len(records)}
	if m.TotalActions == 0 {
		return m
	}

	var sum float64
	errs := 0
	for _, r := range records {
		sum += r.ResponseTime
		if r.Error {
			errs++
		}
		if r.SLABreach {
			m.SLABreachCount++
		}
	}

	total := float64(m.TotalActions)
	m.AvgResponseTime = sum / total
	m.ErrorRate = float64(errs) / total * 100
	m.SLABreachRate = float64(m.SLABreachCount) / total * 100
	return m
}

// LowConfidence — записи с уверенностью ниже порога
func LowConfidence(records []domain.ActionRecord) domain.LowConfidenceFlag {
	flag := domain.LowConfidenceFlag{Records: []domain.ActionRecord{}}
	for _, r := range records {
		if r.Confidence < domain.LowConfidenceThreshold {
			flag.Records = append(flag.Records, r)
		}
	}
	flag.Count = len(flag.Records)
	return flag
}

// RepeatedErrors — действия, у которых ошибок строго больше порога (3 и более)
func RepeatedErrors(records []domain.ActionRecord) []domain.RepeatedErrorFlag {
	counts := make(map[domain.ActionName]int)
	for _, r := range records {
		if r.Error {
			counts[r.Action]++
		}
	}

	flags := []domain.RepeatedErrorFlag{}
	for action, n := range counts {
		if n > domain.RepeatedErrorThreshold {
			flags = append(flags, domain.RepeatedErrorFlag{Action: action, Count: n})
		}
	}
	sort.Slice(flags, func(i, j int) bool { return flags[i].Action < flags[j].Action })
	return flags
}

// ErrorAlerts — сводный алерт по ошибкам; nil, если ошибок нет
func ErrorAlerts(records []domain.ActionRecord, links LinkBuilder) *domain.ErrorAlert {
	var entries []domain.ErrorEntry
	for _, r := range records {
		if !r.Error {
			continue
		}
		entries = append(entries, domain.ErrorEntry{
			Action:     r.Action,
			Timestamp:  r.Timestamp,
			Details:    r.Details,
			TicketLink: links.RecordLink(r.Action, r.Timestamp),
		})
	}
	if len(entries) == 0 {
		return nil
	}
	return &domain.ErrorAlert{
		Count:         len(entries),
		Entries:       entries,
		AggregateLink: links.AggregateLink(len(entries)),
	}
}

// DistinctActions — уникальные действия журнала в порядке первого появления
func DistinctActions(records []domain.ActionRecord) []domain.ActionName {
	seen := make(map[domain.ActionName]struct{})
	out := []domain.ActionName{}
	for _, r := range records {
		if _, ok := seen[r.Action]; ok {
			continue
		}
		seen[r.Action] = struct{}{}
		out = append(out, r.Action)
	}
	return out
}
