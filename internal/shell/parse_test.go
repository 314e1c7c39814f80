// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package shell

import (
	"reflect"
	"testing"

	"github.com/jeranaias/replsh/internal/registry"
)

// TestSplitLine tests tokenizing with quotes and escapes
func TestSplitLine(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "simple tokens",
			input: "database connect --path test.db",
			want:  []string{"database", "connect", "--path", "test.db"},
		},
		{
			name:  "double quoted value",
			input: `database query --sql "SELECT * FROM users"`,
			want:  []string{"database", "query", "--sql", "SELECT * FROM users"},
		},
		{
			name:  "single quoted value",
			input: `ssh exec --cmd 'ls -la /tmp'`,
			want:  []string{"ssh", "exec", "--cmd", "ls -la /tmp"},
		},
		{
			name:  "single quotes literal inside double quotes",
			input: `query --sql "it''s fine"`,
			want:  []string{"query", "--sql", "it''s fine"},
		},
		{
			name:  "escaped backslash quote",
			input: `query "say \"hi\""`,
			want:  []string{"query", `say "hi"`},
		},
		{
			name:  "collapses runs of whitespace",
			input: "  help   database  ",
			want:  []string{"help", "database"},
		},
		{
			name:  "empty input",
			input: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := splitLine(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitLine(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func connectParams() []registry.ParameterSpec {
	return []registry.ParameterSpec{
		{Name: "host", LongFlag: "--host", ShortFlag: "-h", Required: true},
		{Name: "port", LongFlag: "--port", ShortFlag: "-p", Default: "5432", HasDefault: true},
		{Name: "user", LongFlag: "--user", ShortFlag: "-u"},
	}
}

// TestBindArgs tests flag matching, defaults and positional collection
func TestBindArgs(t *testing.T) {
	tests := []struct {
		name       string
		tokens     []string
		wantFlags  map[string]string
		wantPos    []string
	}{
		{
			name:      "long flags with values",
			tokens:    []string{"--host", "db.local", "--port", "5433"},
			wantFlags: map[string]string{"host": "db.local", "port": "5433"},
		},
		{
			name:      "short flags",
			tokens:    []string{"-h", "db.local", "-u", "ada"},
			wantFlags: map[string]string{"host": "db.local", "port": "5432", "user": "ada"},
		},
		{
			name:      "inline equals form",
			tokens:    []string{"--host=db.local", "--port=5433"},
			wantFlags: map[string]string{"host": "db.local", "port": "5433"},
		},
		{
			name:      "default applied when flag absent",
			tokens:    []string{"--host", "db.local"},
			wantFlags: map[string]string{"host": "db.local", "port": "5432"},
		},
		{
			name:      "positionals kept in order",
			tokens:    []string{"main", "--host", "db.local", "replica"},
			wantFlags: map[string]string{"host": "db.local", "port": "5432"},
			wantPos:   []string{"main", "replica"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := bindArgs(connectParams(), tt.tokens)
			if err != nil {
				t.Fatalf("bindArgs() = %v", err)
			}
			if !reflect.DeepEqual(args.Flags, tt.wantFlags) {
				t.Errorf("flags = %v, want %v", args.Flags, tt.wantFlags)
			}
			if !reflect.DeepEqual(args.Positional, tt.wantPos) {
				t.Errorf("positionals = %v, want %v", args.Positional, tt.wantPos)
			}
		})
	}
}

// TestBindArgsErrors tests rejection of malformed invocations
func TestBindArgsErrors(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
	}{
		{"unknown flag", []string{"--host", "x", "--nosuch", "y"}},
		{"flag without value", []string{"--host"}},
		{"missing required", []string{"--user", "ada"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := bindArgs(connectParams(), tt.tokens); err == nil {
				t.Errorf("bindArgs(%v) = nil, want error", tt.tokens)
			}
		})
	}
}
