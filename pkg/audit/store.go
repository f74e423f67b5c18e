// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package audit keeps a trail of pipeline runs: what was checked or
// compiled, when, and with which outcome.
package audit

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"

	"github.com/jllopis/bmpp/pkg/diag"
)

// Status is the outcome of a run.
type Status string

const (
	// StatusOK means every protocol was accepted.
	StatusOK Status = "ok"
	// StatusInvalid means validation reported errors.
	StatusInvalid Status = "invalid"
	// StatusFailed means the run stopped on an error, such as a parse error.
	StatusFailed Status = "failed"
)

// Run is one audited pipeline execution.
type Run struct {
	ID          string            `json:"id"`
	Command     string            `json:"command"`
	Source      string            `json:"source,omitempty"`
	Protocols   []string          `json:"protocols"`
	Errors      int               `json:"errors"`
	Warnings    int               `json:"warnings"`
	Status      Status            `json:"status"`
	Diagnostics []diag.Diagnostic `json:"diagnostics,omitempty"`
	Error       string            `json:"error,omitempty"`
	StartedAt   time.Time         `json:"started_at"`
	FinishedAt  time.Time         `json:"finished_at"`
}

// Duration is the wall time of the run.
func (r Run) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Store persists runs.
type Store interface {
	Record(ctx context.Context, run Run) error
	List(ctx context.Context, filter Filter) ([]Run, error)
	Close() error
}

// Filter limits List results. Zero fields match everything.
type Filter struct {
	Command  string
	Status   Status
	Protocol string
	Limit    int
}

func (f Filter) match(r Run) bool {
	if f.Command != "" && r.Command != f.Command {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.Protocol != "" && !slices.Contains(r.Protocols, f.Protocol) {
		return false
	}
	return true
}

// MemoryStore keeps runs in memory.
type MemoryStore struct {
	mu   sync.Mutex
	runs []Run
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Record appends a run.
func (s *MemoryStore) Record(_ context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, normalize(run))
	return nil
}

// List returns matching runs, most recent first.
func (s *MemoryStore) List(_ context.Context, filter Filter) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Run, 0, len(s.runs))
	for i := len(s.runs) - 1; i >= 0; i-- {
		if !filter.match(s.runs[i]) {
			continue
		}
		out = append(out, s.runs[i])
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

func normalize(r Run) Run {
	r.StartedAt = utc(r.StartedAt)
	r.FinishedAt = utc(r.FinishedAt)
	if r.Protocols == nil {
		r.Protocols = []string{}
	}
	return r
}

func utc(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
