package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Драйвер Postgres
	"github.com/xela07ax/agentiq-console/internal/archive"
)

// Количество колонок в таблице action_archive
const archiveFields = 14

const schema = `
CREATE TABLE IF NOT EXISTS action_archive (
	id                   UUID PRIMARY KEY,
	session_id           TEXT NOT NULL,
	kind                 TEXT NOT NULL,
	event_time           TIMESTAMPTZ NOT NULL,
	record_id            TEXT NOT NULL,
	action               TEXT NOT NULL,
	record_time          TIMESTAMPTZ NOT NULL,
	confidence           DOUBLE PRECISION NOT NULL,
	response_time        DOUBLE PRECISION NOT NULL,
	is_error             BOOLEAN NOT NULL,
	sla_breach           BOOLEAN NOT NULL,
	remediation          TEXT,
	remediation_executed BOOLEAN NOT NULL,
	policy_name          TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS action_archive_event_time_idx ON action_archive (event_time);
`

type ArchiveRepo struct {
	db *sql.DB
}

// Open открывает пул соединений через pgx. Доступность проверяется отдельно через Ping.
func Open(connString string) (*sql.DB, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

func NewArchiveRepo(db *sql.DB) *ArchiveRepo {
	return &ArchiveRepo{db: db}
}

// Ping проверяет доступность базы при старте
func (r *ArchiveRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// EnsureSchema создает таблицу архива, если её еще нет
func (r *ArchiveRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("postgres: ensure schema: %w", err)
	}
	return nil
}

func (r *ArchiveRepo) Close() error {
	return r.db.Close()
}

// WriteBatch пишет пачку событий одним INSERT
func (r *ArchiveRepo) WriteBatch(ctx context.Context, events []archive.Event) error {
	if len(events) == 0 {
		return nil
	}

	var sb strings.Builder
	vals := make([]interface{}, 0, len(events)*archiveFields)

	// Динамически строим плейсхолдеры для пакетной вставки
	for i, e := range events {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for f := 1; f <= archiveFields; f++ {
			if f > 1 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", i*archiveFields+f)
		}
		sb.WriteString(")")

		rec := e.Record
		vals = append(vals,
			e.ID, e.SessionID, string(e.Kind), e.Timestamp,
			rec.ID, string(rec.Action), rec.Timestamp, rec.Confidence, rec.ResponseTime,
			rec.Error, rec.SLABreach, nullString(rec.Remediation), rec.RemediationExecuted, rec.PolicyName,
		)
	}

	query := "INSERT INTO action_archive (id, session_id, kind, event_time, record_id, action, record_time, " +
		"confidence, response_time, is_error, sla_breach, remediation, remediation_executed, policy_name) VALUES " +
		sb.String()

	if _, err := r.db.ExecContext(ctx, query, vals...); err != nil {
		return fmt.Errorf("postgres: archive insert: %w", err)
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
