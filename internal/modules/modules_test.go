// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package modules

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jeranaias/replsh/internal/config"
	"github.com/jeranaias/replsh/internal/registry"
)

func newShellContext(reg *registry.Registry) (*registry.Context, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &registry.Context{Out: out, Registry: reg, Version: "1.2.3-test"}, out
}

// TestRegisterBuiltins tests that every built-in lands in the registry
func TestRegisterBuiltins(t *testing.T) {
	reg := registry.New()
	if err := RegisterBuiltins(reg, "1.2.3-test"); err != nil {
		t.Fatalf("RegisterBuiltins() = %v", err)
	}

	for _, path := range []string{"help", "version", "exit", "modules", "alias", "database connect", "database query"} {
		if _, ok := reg.CommandInfo(path); !ok {
			t.Errorf("CommandInfo(%q) not found", path)
		}
	}

	// The ssh module is declared, not loaded.
	if got := reg.LazyModuleCommands()["ssh"]; len(got) != 4 {
		t.Errorf("ssh declared commands = %v, want 4 entries", got)
	}
	for _, m := range reg.ListModules() {
		if m.Name == "ssh" {
			t.Error("ssh module loaded eagerly, want lazy declaration")
		}
	}
}

// TestVersionCommand tests the version output
func TestVersionCommand(t *testing.T) {
	reg := registry.New()
	if err := RegisterBuiltins(reg, "1.2.3-test"); err != nil {
		t.Fatalf("RegisterBuiltins() = %v", err)
	}
	ctx, out := newShellContext(reg)

	h, _ := reg.CommandInfo("version")
	if err := h.Run(ctx, registry.Args{}); err != nil {
		t.Fatalf("version = %v", err)
	}
	if !strings.Contains(out.String(), "1.2.3-test") {
		t.Errorf("output = %q, want version string", out.String())
	}
}

// TestExitCommand tests the sentinel error
func TestExitCommand(t *testing.T) {
	reg := registry.New()
	if err := RegisterBuiltins(reg, "1.2.3-test"); err != nil {
		t.Fatalf("RegisterBuiltins() = %v", err)
	}
	ctx, _ := newShellContext(reg)

	h, _ := reg.CommandInfo("exit")
	if err := h.Run(ctx, registry.Args{}); !errors.Is(err, ErrExit) {
		t.Errorf("exit = %v, want ErrExit", err)
	}

	// "quit" is an alias for the same command.
	if q, ok := reg.CommandInfo("quit"); !ok || q.Path != "exit" {
		t.Errorf("CommandInfo(\"quit\") = %+v, want alias of exit", q)
	}
}

// TestAliasCommand tests listing, binding and persisting aliases
func TestAliasCommand(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	t.Setenv("REPLSH_CONFIG", configPath)

	reg := registry.New()
	if err := RegisterBuiltins(reg, "1.2.3-test"); err != nil {
		t.Fatalf("RegisterBuiltins() = %v", err)
	}
	ctx, out := newShellContext(reg)
	h, _ := reg.CommandInfo("alias")

	// Binding requires a known target.
	err := h.Run(ctx, registry.Args{Positional: []string{"x", "no", "such"}})
	if err == nil {
		t.Error("alias to unknown target succeeded, want error")
	}

	if err := h.Run(ctx, registry.Args{Positional: []string{"st", "database", "status"}}); err != nil {
		t.Fatalf("alias st = %v", err)
	}
	if got := reg.AllAliases()["st"]; got != "database status" {
		t.Errorf("alias target = %q, want \"database status\"", got)
	}

	// The binding lands in the [aliases] table of the config file.
	cfg, err := config.LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath(%q) = %v", configPath, err)
	}
	if got := cfg.Aliases["st"]; got != "database status" {
		t.Errorf("persisted alias = %q, want \"database status\"", got)
	}

	out.Reset()
	if err := h.Run(ctx, registry.Args{}); err != nil {
		t.Fatalf("alias list = %v", err)
	}
	if !strings.Contains(out.String(), "st") || !strings.Contains(out.String(), "database status") {
		t.Errorf("alias list output = %q, want the new binding", out.String())
	}
}

// TestHelpCommand tests top-level and per-module help
func TestHelpCommand(t *testing.T) {
	reg := registry.New()
	if err := RegisterBuiltins(reg, "1.2.3-test"); err != nil {
		t.Fatalf("RegisterBuiltins() = %v", err)
	}
	ctx, out := newShellContext(reg)
	h, _ := reg.CommandInfo("help")

	if err := h.Run(ctx, registry.Args{}); err != nil {
		t.Fatalf("help = %v", err)
	}
	for _, want := range []string{"help", "version", "database", "ssh"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("help output missing %q", want)
		}
	}

	out.Reset()
	if err := h.Run(ctx, registry.Args{Positional: []string{"db"}}); err != nil {
		t.Fatalf("help db = %v", err)
	}
	if !strings.Contains(out.String(), "connect") || !strings.Contains(out.String(), "query") {
		t.Errorf("help db output = %q, want database commands", out.String())
	}

	if err := h.Run(ctx, registry.Args{Positional: []string{"nosuch"}}); err == nil {
		t.Error("help nosuch = nil, want error")
	}
}

// TestHelpTruncatesLongDescriptions tests that one-line doc text is capped
// in help listings instead of wrapping across the table column.
func TestHelpTruncatesLongDescriptions(t *testing.T) {
	reg := registry.New()
	if err := RegisterBuiltins(reg, "1.2.3-test"); err != nil {
		t.Fatalf("RegisterBuiltins() = %v", err)
	}
	long := strings.Repeat("metrics and counters ", 8) + "END"
	if err := reg.RegisterModule(registry.Module{
		Name:        "metrics",
		Description: long,
		Commands:    []registry.Command{{Name: "show", Description: long}},
	}); err != nil {
		t.Fatalf("RegisterModule(metrics) = %v", err)
	}

	ctx, out := newShellContext(reg)
	h, _ := reg.CommandInfo("help")
	if err := h.Run(ctx, registry.Args{}); err != nil {
		t.Fatalf("help = %v", err)
	}
	if strings.Contains(out.String(), "END") {
		t.Error("help output carries the full description, want it truncated")
	}
	if !strings.Contains(out.String(), "...") {
		t.Errorf("help output = %q, want a truncation ellipsis", out.String())
	}

	out.Reset()
	if err := h.Run(ctx, registry.Args{Positional: []string{"metrics"}}); err != nil {
		t.Fatalf("help metrics = %v", err)
	}
	if strings.Contains(out.String(), "END") {
		t.Error("help metrics output carries the full description, want it truncated")
	}
}

// TestDatabaseLifecycle tests connect, query, tables and disconnect against
// a real SQLite file.
func TestDatabaseLifecycle(t *testing.T) {
	reg := registry.New()
	if err := RegisterBuiltins(reg, "1.2.3-test"); err != nil {
		t.Fatalf("RegisterBuiltins() = %v", err)
	}
	ctx, out := newShellContext(reg)
	path := filepath.Join(t.TempDir(), "test.db")

	connect, _ := reg.CommandInfo("database connect")
	query, _ := reg.CommandInfo("database query")
	tables, _ := reg.CommandInfo("database tables")
	status, _ := reg.CommandInfo("database status")
	disconnect, _ := reg.CommandInfo("database disconnect")

	// Everything but connect fails while disconnected.
	if err := query.Run(ctx, registry.Args{Flags: map[string]string{"sql": "SELECT 1"}}); !errors.Is(err, ErrNotConnected) {
		t.Errorf("query while disconnected = %v, want ErrNotConnected", err)
	}

	if err := connect.Run(ctx, registry.Args{Flags: map[string]string{"path": path}}); err != nil {
		t.Fatalf("connect = %v", err)
	}
	defer disconnect.Run(ctx, registry.Args{})

	if err := connect.Run(ctx, registry.Args{Flags: map[string]string{"path": path}}); !errors.Is(err, ErrAlreadyConnected) {
		t.Errorf("second connect = %v, want ErrAlreadyConnected", err)
	}

	steps := []string{
		"CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)",
		"INSERT INTO users (name) VALUES ('ada'), ('grace')",
	}
	for _, stmt := range steps {
		if err := query.Run(ctx, registry.Args{Flags: map[string]string{"sql": stmt}}); err != nil {
			t.Fatalf("query(%q) = %v", stmt, err)
		}
	}

	out.Reset()
	if err := query.Run(ctx, registry.Args{Flags: map[string]string{"sql": "SELECT name FROM users ORDER BY name", "limit": "10"}}); err != nil {
		t.Fatalf("select = %v", err)
	}
	if !strings.Contains(out.String(), "ada") || !strings.Contains(out.String(), "grace") {
		t.Errorf("select output = %q, want both rows", out.String())
	}

	out.Reset()
	if err := query.Run(ctx, registry.Args{Flags: map[string]string{"sql": "SELECT name FROM users ORDER BY name", "limit": "1"}}); err != nil {
		t.Fatalf("limited select = %v", err)
	}
	if strings.Contains(out.String(), "grace") {
		t.Errorf("limited select output = %q, want one row only", out.String())
	}

	out.Reset()
	if err := tables.Run(ctx, registry.Args{}); err != nil {
		t.Fatalf("tables = %v", err)
	}
	if !strings.Contains(out.String(), "users") {
		t.Errorf("tables output = %q, want \"users\"", out.String())
	}

	out.Reset()
	if err := status.Run(ctx, registry.Args{}); err != nil {
		t.Fatalf("status = %v", err)
	}
	if !strings.Contains(out.String(), path) {
		t.Errorf("status output = %q, want the database path", out.String())
	}

	if err := disconnect.Run(ctx, registry.Args{}); err != nil {
		t.Fatalf("disconnect = %v", err)
	}
	if err := disconnect.Run(ctx, registry.Args{}); !errors.Is(err, ErrNotConnected) {
		t.Errorf("second disconnect = %v, want ErrNotConnected", err)
	}
}

// TestSSHLazyLoad tests that EnsureLoaded turns the declaration into a
// real module.
func TestSSHLazyLoad(t *testing.T) {
	reg := registry.New()
	if err := RegisterBuiltins(reg, "1.2.3-test"); err != nil {
		t.Fatalf("RegisterBuiltins() = %v", err)
	}

	if err := reg.EnsureLoaded("ssh"); err != nil {
		t.Fatalf("EnsureLoaded(ssh) = %v", err)
	}
	for _, path := range []string{"ssh connect", "ssh exec", "ssh tunnel", "ssh disconnect"} {
		if _, ok := reg.CommandInfo(path); !ok {
			t.Errorf("CommandInfo(%q) not found after load", path)
		}
	}

	// Commands needing a session fail cleanly without one.
	ctx, _ := newShellContext(reg)
	h, _ := reg.CommandInfo("ssh exec")
	if err := h.Run(ctx, registry.Args{Flags: map[string]string{"cmd": "true"}}); !errors.Is(err, ErrNoSession) {
		t.Errorf("exec without session = %v, want ErrNoSession", err)
	}
}
