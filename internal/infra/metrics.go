package infra

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/xela07ax/agentiq-console/internal/domain"
)

type Metrics struct {
	// Traffic: сколько действий выполнили агенты
	ActionsTotal *prometheus.CounterVec

	// Errors: симулированные ошибки агентов (доменные данные, не сбои консоли)
	ActionErrors *prometheus.CounterVec

	// SLA: действия дольше порога
	SLABreaches *prometheus.CounterVec

	// Latency: время ответа агента
	ResponseTime *prometheus.HistogramVec

	// Предложения, исполненные в момент показа
	RemediationsExecuted prometheus.Counter

	SessionsActive prometheus.Gauge

	// Archive: заполненность буфера (backpressure)
	ArchiveBufferFill prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern - Если рег не передан, используем локальный, который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		ActionsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "agentiq_actions_total",
			Help: "Total number of performed agent actions.",
		}, []string{"action"}),

		ActionErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "agentiq_action_errors_total",
			Help: "Total number of agent actions that ended with an error.",
		}, []string{"action"}),

		SLABreaches: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "agentiq_sla_breaches_total",
			Help: "Total number of agent actions slower than the SLA threshold.",
		}, []string{"action"}),

		ResponseTime: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agentiq_response_time_seconds",
			Help:    "Histogram of agent response times.",
			Buckets: []float64{.5, .75, 1, 1.25, 1.5, 1.75, 2, 2.25, 2.5, 5},
		}, []string{"action"}),

		RemediationsExecuted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "agentiq_remediations_executed_total",
			Help: "Total number of remediation proposals executed on display.",
		}),

		SessionsActive: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "agentiq_sessions_active",
			Help: "Current number of live console sessions.",
		}),

		ArchiveBufferFill: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "agentiq_archive_buffer_utilization",
			Help: "Current number of events in archive buffer.",
		}),
	}
}

// ObserveAction учитывает новую запись журнала
func (m *Metrics) ObserveAction(r domain.ActionRecord) {
	action := string(r.Action)
	m.ActionsTotal.WithLabelValues(action).Inc()
	m.ResponseTime.WithLabelValues(action).Observe(r.ResponseTime)
	if r.Error {
		m.ActionErrors.WithLabelValues(action).Inc()
	}
	if r.SLABreach {
		m.SLABreaches.WithLabelValues(action).Inc()
	}
}

// ProposalsExecuted реализует audit.ProposalObserver
func (m *Metrics) ProposalsExecuted(p []domain.RemediationProposal) {
	m.RemediationsExecuted.Add(float64(len(p)))
}
