package policy

import "github.com/xela07ax/agentiq-console/internal/domain"

const (
	DefaultPolicyName = "Default Remediation Policy"

	RemediationRestart = "Restart service or notify support team"
	RemediationScale   = "Scale resources or optimize workflow"
)

// Remediation решает, какое корректирующее действие предложить для записи.
// Реализация должна быть чистой функцией: без побочных эффектов и без ошибок.
type Remediation interface {
	Name() string
	Decide(action domain.ActionName, isError, slaBreach bool) *string
}

// DefaultPolicy — таблица из двух веток. Порядок проверок важен: ошибка важнее SLA.
type DefaultPolicy struct{}

func (DefaultPolicy) Name() string { return DefaultPolicyName }

func (DefaultPolicy) Decide(_ domain.ActionName, isError, slaBreach bool) *string {
	switch {
	case isError:
		return ptr(RemediationRestart)
	case slaBreach:
		return ptr(RemediationScale)
	default:
		return nil
	}
}

func ptr(s string) *string { return &s }
