// Package sqlite provides a SQLite-backed audit store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/aistats/gateway/internal/core/domain"
	"github.com/aistats/gateway/internal/storage"
)

// Store persists audit records in a SQLite database.
type Store struct {
	db *sqlx.DB
}

var _ storage.AuditStore = (*Store)(nil)

// New opens (or creates) the database at path and initializes the schema.
func New(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute pragma: %w", err)
		}
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize audit schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS audit_records (
id INTEGER PRIMARY KEY AUTOINCREMENT,
request_id TEXT NOT NULL,
team_id TEXT,
endpoint TEXT NOT NULL,
model TEXT,
provider TEXT,
status INTEGER NOT NULL,
error_code TEXT,
finish_reason TEXT,
duration_ms INTEGER NOT NULL,
stage_timings TEXT,
diagnostics TEXT,
created_at TIMESTAMP NOT NULL
)`)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_audit_created_at ON audit_records (created_at DESC)`)
	return err
}

// Record inserts one audit record.
func (s *Store) Record(ctx context.Context, rec *domain.AuditRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	var diagnostics sql.NullString
	if rec.Diagnostics != nil {
		data, err := json.Marshal(rec.Diagnostics)
		if err != nil {
			return fmt.Errorf("marshal diagnostics: %w", err)
		}
		diagnostics = sql.NullString{String: string(data), Valid: true}
	}
	var timings sql.NullString
	if len(rec.StageTimingsMs) > 0 {
		data, err := json.Marshal(rec.StageTimingsMs)
		if err != nil {
			return fmt.Errorf("marshal stage timings: %w", err)
		}
		timings = sql.NullString{String: string(data), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_records
(request_id, team_id, endpoint, model, provider, status, error_code, finish_reason, duration_ms, stage_timings, diagnostics, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RequestID, nullable(rec.TeamID), string(rec.Endpoint), nullable(rec.Model),
		nullable(rec.Provider), rec.Status, nullable(rec.ErrorCode), nullable(rec.FinishReason),
		rec.DurationMillis, timings, diagnostics, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]*domain.AuditRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryxContext(ctx,
		`SELECT request_id, team_id, endpoint, model, provider, status, error_code, finish_reason, duration_ms, stage_timings, diagnostics, created_at
FROM audit_records ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	defer rows.Close()

	var out []*domain.AuditRecord
	for rows.Next() {
		var (
			rec                                      domain.AuditRecord
			teamID, model, provider, errCode, finish sql.NullString
			timings, diags                           sql.NullString
			endpoint                                 string
		)
		if err := rows.Scan(&rec.RequestID, &teamID, &endpoint, &model, &provider,
			&rec.Status, &errCode, &finish, &rec.DurationMillis, &timings, &diags, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		rec.Endpoint = domain.Endpoint(endpoint)
		rec.TeamID = teamID.String
		rec.Model = model.String
		rec.Provider = provider.String
		rec.ErrorCode = errCode.String
		rec.FinishReason = finish.String
		if timings.Valid {
			if err := json.Unmarshal([]byte(timings.String), &rec.StageTimingsMs); err != nil {
				return nil, fmt.Errorf("unmarshal stage timings: %w", err)
			}
		}
		if diags.Valid {
			var d domain.ParamRoutingDiagnostics
			if err := json.Unmarshal([]byte(diags.String), &d); err != nil {
				return nil, fmt.Errorf("unmarshal diagnostics: %w", err)
			}
			rec.Diagnostics = &d
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
