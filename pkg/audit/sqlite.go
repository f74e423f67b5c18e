// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists runs in SQLite.
type SQLiteStore struct {
	db    *sql.DB
	owned bool
}

// OpenSQLite opens (creating if needed) the database at path. The store
// owns the connection and Close releases it.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open audit database %s: %w", path, err)
	}
	s, err := NewSQLiteStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

// NewSQLiteStore wraps an existing connection and ensures the schema.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	if err := ensureSchema(db); err != nil {
		return nil, fmt.Errorf("create audit schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Record stores a run.
func (s *SQLiteStore) Record(ctx context.Context, run Run) error {
	run = normalize(run)
	protocols, err := encodeJSON(run.Protocols)
	if err != nil {
		return err
	}
	diagnostics, err := encodeJSON(run.Diagnostics)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO bmpp_runs (
			run_id, command, source, protocols_json, errors, warnings, status,
			diagnostics_json, error_text, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Command,
		run.Source,
		protocols,
		run.Errors,
		run.Warnings,
		string(run.Status),
		diagnostics,
		run.Error,
		run.StartedAt,
		run.FinishedAt,
	)
	return err
}

// List returns matching runs, most recent first.
func (s *SQLiteStore) List(ctx context.Context, filter Filter) ([]Run, error) {
	query := `
		SELECT run_id, command, source, protocols_json, errors, warnings, status,
			diagnostics_json, error_text, started_at, finished_at
		FROM bmpp_runs
	`
	var (
		clauses []string
		args    []any
	)
	if filter.Command != "" {
		clauses = append(clauses, "command = ?")
		args = append(args, filter.Command)
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Protocol != "" {
		clauses = append(clauses, "EXISTS (SELECT 1 FROM json_each(protocols_json) WHERE value = ?)")
		args = append(args, filter.Protocol)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run             Run
			status          string
			protocolsJSON   string
			diagnosticsJSON string
			started         sql.NullTime
			finished        sql.NullTime
		)
		if err := rows.Scan(
			&run.ID,
			&run.Command,
			&run.Source,
			&protocolsJSON,
			&run.Errors,
			&run.Warnings,
			&status,
			&diagnosticsJSON,
			&run.Error,
			&started,
			&finished,
		); err != nil {
			return nil, err
		}
		run.Status = Status(status)
		if err := json.Unmarshal([]byte(protocolsJSON), &run.Protocols); err != nil {
			return nil, fmt.Errorf("decode protocols of run %s: %w", run.ID, err)
		}
		if diagnosticsJSON != "" && diagnosticsJSON != "null" {
			if err := json.Unmarshal([]byte(diagnosticsJSON), &run.Diagnostics); err != nil {
				return nil, fmt.Errorf("decode diagnostics of run %s: %w", run.ID, err)
			}
		}
		if started.Valid {
			run.StartedAt = started.Time
		}
		if finished.Valid {
			run.FinishedAt = finished.Time
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// Close releases the connection when the store opened it.
func (s *SQLiteStore) Close() error {
	if s.owned {
		return s.db.Close()
	}
	return nil
}

func ensureSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS bmpp_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL UNIQUE,
			command TEXT NOT NULL,
			source TEXT NOT NULL DEFAULT '',
			protocols_json TEXT NOT NULL,
			errors INTEGER NOT NULL,
			warnings INTEGER NOT NULL,
			status TEXT NOT NULL,
			diagnostics_json TEXT,
			error_text TEXT NOT NULL DEFAULT '',
			started_at TIMESTAMP,
			finished_at TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_bmpp_runs_status ON bmpp_runs(status);
		CREATE INDEX IF NOT EXISTS idx_bmpp_runs_command ON bmpp_runs(command);
	`)
	return err
}
