package postgres

import (
	"context"
	"fmt"
	"time"
)

// ArchiveSummary — сводка по архиву за окно времени
type ArchiveSummary struct {
	Window          time.Duration `json:"window" yaml:"window"`
	Sessions        int           `json:"sessions" yaml:"sessions"`
	Actions         int           `json:"actions" yaml:"actions"`
	Errors          int           `json:"errors" yaml:"errors"`
	SLABreaches     int           `json:"sla_breaches" yaml:"sla_breaches"`
	Remediations    int           `json:"remediations_executed" yaml:"remediations_executed"`
	AvgResponseTime float64       `json:"avg_response_time" yaml:"avg_response_time"`
	P95ResponseTime float64       `json:"p95_response_time" yaml:"p95_response_time"`
}

// Summary собирает сводку по событиям за последние window
func (r *ArchiveRepo) Summary(ctx context.Context, window time.Duration) (*ArchiveSummary, error) {
	s := &ArchiveSummary{Window: window}
	since := time.Now().Add(-window)

	// Записи считаем по ACTION_PERFORMED, исполнения — по REMEDIATION_EXECUTED.
	// PERCENTILE_CONT дает честный P95 времени ответа.
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(DISTINCT session_id),
			COUNT(*) FILTER (WHERE kind = 'ACTION_PERFORMED'),
			COUNT(*) FILTER (WHERE kind = 'ACTION_PERFORMED' AND is_error),
			COUNT(*) FILTER (WHERE kind = 'ACTION_PERFORMED' AND sla_breach),
			COUNT(*) FILTER (WHERE kind = 'REMEDIATION_EXECUTED'),
			COALESCE(AVG(response_time) FILTER (WHERE kind = 'ACTION_PERFORMED'), 0),
			COALESCE(PERCENTILE_CONT(0.95) WITHIN GROUP (ORDER BY response_time) FILTER (WHERE kind = 'ACTION_PERFORMED'), 0)
		FROM action_archive
		WHERE event_time > $1`, since).Scan(
		&s.Sessions,
		&s.Actions,
		&s.Errors,
		&s.SLABreaches,
		&s.Remediations,
		&s.AvgResponseTime,
		&s.P95ResponseTime,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: archive summary: %w", err)
	}
	return s, nil
}
