// Package ticket строит ссылки на создание тикета в Jira.
// Только шаблонизация строк: никаких сетевых вызовов.
package ticket

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/xela07ax/agentiq-console/internal/domain"
)

const summary = "Agent Error Alert from AgentIQ"

// Значения шаблона по умолчанию
const (
	DefaultBaseURL   = "https://jira.example.com/secure/CreateIssueDetails!init.jspa"
	DefaultProjectID = "84922"
	DefaultIssueType = "20"
)

func DefaultLabels() []string { return []string{"AgentIQ", "AutoAlert"} }

// Config — фиксированные параметры шаблона (секция tickets в конфиге)
type Config struct {
	BaseURL   string   `mapstructure:"base_url"`
	ProjectID string   `mapstructure:"project_id"`
	IssueType string   `mapstructure:"issue_type"`
	Labels    []string `mapstructure:"labels"`
}

type Builder struct {
	cfg Config
}

func NewBuilder(cfg Config) *Builder {
	return &Builder{cfg: cfg}
}

// RecordLink — ссылка на тикет для одной ошибочной записи
func (b *Builder) RecordLink(action domain.ActionName, ts time.Time) string {
	desc := fmt.Sprintf("Error detected for action %s at %s.", action, FormatTimestamp(ts))
	return b.build(desc)
}

// AggregateLink — одна ссылка на все ошибки отфильтрованного набора
func (b *Builder) AggregateLink(errorCount int) string {
	desc := fmt.Sprintf(
		"One or more agent actions have logged errors. Error count: %d. Please review the audit dashboard for details.",
		errorCount,
	)
	return b.build(desc)
}

// FormatTimestamp — формат времени, который попадает в описание тикета
func FormatTimestamp(ts time.Time) string {
	return ts.Format("2006-01-02 15:04:05.000000")
}

// build собирает query вручную: порядок параметров фиксирован, пробелы кодируются как %20
func (b *Builder) build(description string) string {
	params := []string{
		"pid=" + escape(b.cfg.ProjectID),
		"issuetype=" + escape(b.cfg.IssueType),
		"summary=" + escape(summary),
		"description=" + escape(description),
		"labels=" + strings.Join(escapeAll(b.cfg.Labels), ","),
	}

	sep := "?"
	if strings.Contains(b.cfg.BaseURL, "?") {
		sep = "&"
	}
	return b.cfg.BaseURL + sep + strings.Join(params, "&")
}

func escape(s string) string {
	// PathEscape кодирует пробел как %20, но оставляет '&', '=' и '+' — добиваем их
	out := url.PathEscape(s)
	r := strings.NewReplacer("&", "%26", "=", "%3D", "+", "%2B")
	return r.Replace(out)
}

func escapeAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = escape(s)
	}
	return out
}
