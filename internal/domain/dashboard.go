package domain

import "time"

// AuditReport — всё, что получает слой отображения: счетчики, метрики и флаги аномалий
type AuditReport struct {
	AvailableActions []ActionName       `json:"available_actions" yaml:"available_actions"` // для фильтра в UI
	Selected         []ActionName       `json:"selected" yaml:"selected"`
	Frequency        map[ActionName]int `json:"frequency" yaml:"frequency"`
	Metrics          PerformanceMetrics `json:"metrics" yaml:"metrics"`
	Explanations     []Explanation      `json:"explanations" yaml:"explanations"`

	LowConfidence  LowConfidenceFlag     `json:"low_confidence" yaml:"low_confidence"`
	RepeatedErrors []RepeatedErrorFlag   `json:"repeated_errors" yaml:"repeated_errors"`
	Errors         *ErrorAlert           `json:"errors,omitempty" yaml:"errors,omitempty"`
	Remediations   []RemediationProposal `json:"remediations" yaml:"remediations"`
}

type PerformanceMetrics struct {
	TotalActions    int     `json:"total_actions" yaml:"total_actions"`
	AvgResponseTime float64 `json:"avg_response_time" yaml:"avg_response_time"`
	ErrorRate       float64 `json:"error_rate" yaml:"error_rate"` // проценты
	SLABreachCount  int     `json:"sla_breach_count" yaml:"sla_breach_count"`
	SLABreachRate   float64 `json:"sla_breach_rate" yaml:"sla_breach_rate"` // проценты
}

// Explanation — объяснение решения агента (Rationale + Policy)
type Explanation struct {
	Action     ActionName `json:"action" yaml:"action"`
	Rationale  string     `json:"rationale" yaml:"rationale"`
	PolicyName string     `json:"policy_name" yaml:"policy_name"`
}

type LowConfidenceFlag struct {
	Count   int            `json:"count" yaml:"count"`
	Records []ActionRecord `json:"records" yaml:"records"`
}

// RepeatedErrorFlag — действие, у которого больше RepeatedErrorThreshold ошибок
type RepeatedErrorFlag struct {
	Action ActionName `json:"action" yaml:"action"`
	Count  int        `json:"count" yaml:"count"`
}

// RepeatedErrorThreshold — флаг срабатывает строго при count > 2
const RepeatedErrorThreshold = 2

type ErrorAlert struct {
	Count         int          `json:"count" yaml:"count"`
	Entries       []ErrorEntry `json:"entries" yaml:"entries"`
	AggregateLink string       `json:"aggregate_ticket_link" yaml:"aggregate_ticket_link"`
}

type ErrorEntry struct {
	Action     ActionName `json:"action" yaml:"action"`
	Timestamp  time.Time  `json:"timestamp" yaml:"timestamp"`
	Details    string     `json:"details" yaml:"details"`
	TicketLink string     `json:"ticket_link" yaml:"ticket_link"`
}

// RemediationProposal — предложение, показанное в этом отчете.
// После показа запись в логе помечается как исполненная.
type RemediationProposal struct {
	Index       int        `json:"index" yaml:"index"` // позиция записи в логе сессии
	RecordID    string     `json:"record_id" yaml:"record_id"`
	Action      ActionName `json:"action" yaml:"action"`
	Timestamp   time.Time  `json:"timestamp" yaml:"timestamp"`
	Remediation string     `json:"remediation" yaml:"remediation"`
	Executed    bool       `json:"executed" yaml:"executed"`
}
