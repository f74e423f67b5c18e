// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, path, content string, mod time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	// Explicit mtimes keep the test independent of file system resolution.
	if err := os.Chtimes(path, mod, mod); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
}

func TestWatcherReloadsChangedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bmpp.yaml")
	base := time.Now().Add(-time.Hour)
	writeConfig(t, path, "codegen:\n  target: go\n", base)

	w, err := NewWatcher(path, WithWatchInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	changes := make(chan *Config, 4)
	w.OnChange(func(cfg *Config) { changes <- cfg })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	defer w.Stop()

	if got := w.Config().Codegen.Target; got != "go" {
		t.Fatalf("initial target = %q, want go", got)
	}

	writeConfig(t, path, "codegen:\n  target: rust\n", base.Add(time.Minute))

	select {
	case cfg := <-changes:
		if cfg.Codegen.Target != "rust" {
			t.Errorf("reloaded target = %q, want rust", cfg.Codegen.Target)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no reload observed")
	}
	if got := w.Config().Codegen.Target; got != "rust" {
		t.Errorf("Config().Codegen.Target = %q, want rust", got)
	}
}

func TestWatcherIgnoresTouchWithoutChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bmpp.yaml")
	base := time.Now().Add(-time.Hour)
	writeConfig(t, path, "codegen:\n  package: orders\n", base)

	w, err := NewWatcher(path)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	calls := 0
	w.OnChange(func(*Config) { calls++ })

	if w.changed() {
		t.Fatal("unchanged file reported as changed")
	}
	writeConfig(t, path, "codegen:\n  package: orders\n", base.Add(time.Minute))
	if !w.changed() {
		t.Fatal("new mtime not detected")
	}
	if err := w.reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if calls != 0 {
		t.Errorf("listeners ran %d times for identical content", calls)
	}
}

func TestWatcherKeepsConfigOnInvalidReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bmpp.yaml")
	writeConfig(t, path, "llm:\n  model: first\n", time.Now())

	w, err := NewWatcher(path, WithOverrides([]string{"codegen.package=orders"}))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if w.Config().Codegen.Package != "orders" {
		t.Errorf("override not applied: %+v", w.Config().Codegen)
	}

	writeConfig(t, path, "codegen:\n  target: cobol\n", time.Now().Add(time.Minute))
	if err := w.reload(); err == nil {
		t.Fatal("expected invalid target to fail the reload")
	}
	if w.Config().LLM.Model != "first" {
		t.Errorf("previous config lost after invalid reload")
	}
}

func TestWatcherMissingFileIsNotAChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bmpp.yaml")
	writeConfig(t, path, "llm:\n  model: kept\n", time.Now())

	w, err := NewWatcher(path)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if w.changed() {
		t.Error("removed file reported as changed")
	}
	if w.Config().LLM.Model != "kept" {
		t.Errorf("config replaced after file removal")
	}
}

func TestWatcherStop(t *testing.T) {
	w, err := NewWatcher("", WithWatchInterval(5*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	// Stopping a watcher that never started must not block.
	w.Stop()

	started, err := NewWatcher("", WithWatchInterval(5*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	started.Start(context.Background())

	done := make(chan struct{})
	go func() {
		started.Stop()
		started.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
}

func TestWatchConfigWithoutFile(t *testing.T) {
	w, cfg, err := WatchConfig(context.Background(), "")
	if err != nil {
		t.Fatalf("WatchConfig: %v", err)
	}
	defer w.Stop()

	if cfg.MCP.Name != "bmpp" {
		t.Errorf("MCP name = %q, want bmpp", cfg.MCP.Name)
	}
}

func TestReloadableConfig(t *testing.T) {
	rc := NewReloadableConfig(&Config{Codegen: CodegenConfig{Target: "go"}, LLM: LLMConfig{Model: "model-1"}})
	if rc.Codegen().Target != "go" || rc.LLM().Model != "model-1" {
		t.Fatalf("unexpected initial config %+v", rc.Get())
	}

	rc.Update(&Config{Codegen: CodegenConfig{Target: "python"}, LLM: LLMConfig{Model: "model-2"}})
	if rc.Codegen().Target != "python" {
		t.Errorf("target = %q, want python", rc.Codegen().Target)
	}
	if rc.Get().LLM.Model != "model-2" {
		t.Errorf("model = %q, want model-2", rc.Get().LLM.Model)
	}
}

func TestWatcherReloadNotifiesListeners(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bmpp.yaml")
	writeConfig(t, path, "codegen:\n  target: go\n", time.Now())

	w, err := NewWatcher(path)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	rc := NewReloadableConfig(w.Config())
	var seen []string
	w.OnChange(rc.Update)
	w.OnChange(func(cfg *Config) { seen = append(seen, cfg.Codegen.Target) })

	writeConfig(t, path, "codegen:\n  target: python\n", time.Now().Add(time.Minute))
	if err := w.reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}

	if len(seen) != 1 || seen[0] != "python" {
		t.Errorf("listener saw %v, want [python]", seen)
	}
	if rc.Codegen().Target != "python" {
		t.Errorf("reloadable target = %q, want python", rc.Codegen().Target)
	}
}
