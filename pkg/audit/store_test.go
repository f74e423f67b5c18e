// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package audit

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jllopis/bmpp/pkg/diag"
)

func newSQLite(t *testing.T) Store {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+strings.ReplaceAll(t.Name(), "/", "_")+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store, err := NewSQLiteStore(db)
	require.NoError(t, err)
	return store
}

func stores(t *testing.T) map[string]func(*testing.T) Store {
	return map[string]func(*testing.T) Store{
		"memory": func(*testing.T) Store { return NewMemoryStore() },
		"sqlite": newSQLite,
	}
}

func sampleRuns() []Run {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return []Run{
		{
			ID:         uuid.NewString(),
			Command:    "validate",
			Source:     "purchase.bspl",
			Protocols:  []string{"Purchase"},
			Status:     StatusOK,
			StartedAt:  start,
			FinishedAt: start.Add(15 * time.Millisecond),
		},
		{
			ID:        uuid.NewString(),
			Command:   "compile",
			Source:    "broken.bspl",
			Protocols: []string{"Broken", "Inner"},
			Errors:    1,
			Warnings:  2,
			Status:    StatusInvalid,
			Diagnostics: []diag.Diagnostic{{
				Code:      diag.CodeSafetyViolation,
				Protocol:  "Broken",
				Parameter: "price",
				Message:   "parameter price has more than one producer",
				Nodes:     []string{"quote", "counter"},
			}},
			StartedAt:  start.Add(time.Minute),
			FinishedAt: start.Add(time.Minute + 5*time.Millisecond),
		},
		{
			ID:        uuid.NewString(),
			Command:   "compile",
			Source:    "bad.bspl",
			Status:    StatusFailed,
			Error:     "parse error at line 1, column 3",
			StartedAt: start.Add(2 * time.Minute),
		},
	}
}

func TestStores(t *testing.T) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			store := open(t)
			defer store.Close()
			ctx := context.Background()

			runs := sampleRuns()
			for _, r := range runs {
				require.NoError(t, store.Record(ctx, r))
			}

			t.Run("most recent first", func(t *testing.T) {
				got, err := store.List(ctx, Filter{})
				require.NoError(t, err)
				require.Len(t, got, 3)
				assert.Equal(t, runs[2].ID, got[0].ID)
				assert.Equal(t, runs[0].ID, got[2].ID)
			})

			t.Run("round trip", func(t *testing.T) {
				got, err := store.List(ctx, Filter{Status: StatusInvalid})
				require.NoError(t, err)
				require.Len(t, got, 1)
				r := got[0]
				assert.Equal(t, "compile", r.Command)
				assert.Equal(t, []string{"Broken", "Inner"}, r.Protocols)
				assert.Equal(t, 1, r.Errors)
				assert.Equal(t, 2, r.Warnings)
				require.Len(t, r.Diagnostics, 1)
				assert.Equal(t, diag.CodeSafetyViolation, r.Diagnostics[0].Code)
				assert.Equal(t, []string{"quote", "counter"}, r.Diagnostics[0].Nodes)
				assert.Equal(t, 5*time.Millisecond, r.Duration())
			})

			t.Run("filters", func(t *testing.T) {
				got, err := store.List(ctx, Filter{Command: "compile"})
				require.NoError(t, err)
				assert.Len(t, got, 2)

				got, err = store.List(ctx, Filter{Protocol: "Inner"})
				require.NoError(t, err)
				require.Len(t, got, 1)
				assert.Equal(t, runs[1].ID, got[0].ID)

				got, err = store.List(ctx, Filter{Limit: 1})
				require.NoError(t, err)
				require.Len(t, got, 1)
				assert.Equal(t, runs[2].ID, got[0].ID)
			})

			t.Run("failed run has no protocols", func(t *testing.T) {
				got, err := store.List(ctx, Filter{Status: StatusFailed})
				require.NoError(t, err)
				require.Len(t, got, 1)
				assert.Empty(t, got[0].Protocols)
				assert.Equal(t, time.Duration(0), got[0].Duration())
				assert.Contains(t, got[0].Error, "parse error")
			})
		})
	}
}

func TestNewSQLiteStoreNilDB(t *testing.T) {
	_, err := NewSQLiteStore(nil)
	require.Error(t, err)
}

func TestOpenSQLite(t *testing.T) {
	path := t.TempDir() + "/audit.db"
	store, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, store.Record(context.Background(), Run{ID: uuid.NewString(), Command: "format", Status: StatusOK}))
	require.NoError(t, store.Close())

	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()
	got, err := reopened.List(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
