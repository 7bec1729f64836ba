package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ActionName — тип симулируемого действия агента
type ActionName string

const (
	ActionReleaseDecision ActionName = "Release Artefacts Decision Maker"
	ActionRiskScoring     ActionName = "Risk Scoring"
	ActionFraudDetection  ActionName = "Fraud Detection"
)

// KnownActions фиксированный набор действий, которые умеет «выполнять» агент
var KnownActions = []ActionName{
	ActionReleaseDecision,
	ActionRiskScoring,
	ActionFraudDetection,
}

const (
	// SLAThreshold — порог времени ответа (в секундах), после которого фиксируется нарушение SLA
	SLAThreshold = 2.0

	// LowConfidenceThreshold — записи с уверенностью ниже порога требуют ручной проверки
	LowConfidenceThreshold = 0.8

	DefaultRationale = "This action was chosen based on the agent's confidence level and response time."
)

var (
	ErrInvalidRecord   = errors.New("invalid action record")
	ErrUnknownAction   = errors.New("unknown action")
	ErrIndexOutOfRange = errors.New("record index out of range")
	ErrSessionNotFound = errors.New("session not found")
	ErrEmptyFeedback   = errors.New("feedback text is empty")
	ErrRateLimited     = errors.New("too many actions, slow down")
)

// IsKnownAction проверяет, входит ли действие в фиксированный набор
func IsKnownAction(a ActionName) bool {
	for _, k := range KnownActions {
		if k == a {
			return true
		}
	}
	return false
}

// ActionRecord — одно событие решения агента с метаданными результата.
// Запись создается один раз и дальше меняется только флаг RemediationExecuted.
type ActionRecord struct {
	ID           string     `json:"id" yaml:"id"`
	Action       ActionName `json:"action" yaml:"action"`
	Timestamp    time.Time  `json:"timestamp" yaml:"timestamp"`
	Details      string     `json:"details" yaml:"details"`
	Confidence   float64    `json:"confidence" yaml:"confidence"`
	ResponseTime float64    `json:"response_time" yaml:"response_time"` // секунды
	Error        bool       `json:"error" yaml:"error"`
	SLABreach    bool       `json:"sla_breach" yaml:"sla_breach"`

	// Remediation вычисляется политикой при создании; nil — проблем не обнаружено
	Remediation         *string `json:"remediation" yaml:"remediation"`
	RemediationExecuted bool    `json:"remediation_executed" yaml:"remediation_executed"`

	Rationale  string `json:"rationale" yaml:"rationale"`
	PolicyName string `json:"policy_name" yaml:"policy_name"`
}

// HasPendingRemediation — предложение есть и еще ни разу не было показано
func (r *ActionRecord) HasPendingRemediation() bool {
	return r.Remediation != nil && !r.RemediationExecuted
}

// IsSLABreach вычисляет нарушение SLA по времени ответа
func IsSLABreach(responseTime float64) bool {
	return responseTime > SLAThreshold
}

// ActionInput — входные данные для создания записи (из симулятора или ручного ввода)
type ActionInput struct {
	Action       ActionName
	Confidence   float64
	ResponseTime float64
	Error        bool
}

// Validate отклоняет некорректные значения. Ничего не «подрезаем» — только ошибка.
func (in ActionInput) Validate() error {
	if !IsKnownAction(in.Action) {
		return fmt.Errorf("%w: %w: %q", ErrInvalidRecord, ErrUnknownAction, in.Action)
	}
	if math.IsNaN(in.Confidence) || in.Confidence < 0 || in.Confidence > 1 {
		return fmt.Errorf("%w: confidence %v is outside [0,1]", ErrInvalidRecord, in.Confidence)
	}
	if math.IsNaN(in.ResponseTime) || math.IsInf(in.ResponseTime, 0) || in.ResponseTime < 0 {
		return fmt.Errorf("%w: response_time %v must be a non-negative number", ErrInvalidRecord, in.ResponseTime)
	}
	return nil
}

// RemediationDecider — то, что нужно от политики для создания записи
type RemediationDecider interface {
	Name() string
	Decide(action ActionName, isError, slaBreach bool) *string
}

// NewActionRecord собирает валидную запись. SLABreach всегда выводится из ResponseTime.
func NewActionRecord(id string, in ActionInput, now time.Time, policy RemediationDecider) (ActionRecord, error) {
	if err := in.Validate(); err != nil {
		return ActionRecord{}, err
	}

	breach := IsSLABreach(in.ResponseTime)
	return ActionRecord{
		ID:           id,
		Action:       in.Action,
		Timestamp:    now,
		Details:      fmt.Sprintf("Performed %s", in.Action),
		Confidence:   in.Confidence,
		ResponseTime: in.ResponseTime,
		Error:        in.Error,
		SLABreach:    breach,
		Remediation:  policy.Decide(in.Action, in.Error, breach),
		Rationale:    DefaultRationale,
		PolicyName:   policy.Name(),
	}, nil
}
