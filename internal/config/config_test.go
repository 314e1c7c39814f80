// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefault tests the built-in configuration
func TestDefault(t *testing.T) {
	cfg := Default()

	assert.True(t, cfg.Completion.EnablePrefix)
	assert.True(t, cfg.Completion.EnableSubsequence)
	assert.True(t, cfg.Completion.EnableLevenshtein)
	assert.Equal(t, 3, cfg.Completion.MaxDistance)
	assert.Equal(t, 50, cfg.Completion.Threshold)
	assert.Equal(t, 256, cfg.Completion.CacheSize)
	assert.Equal(t, 512, cfg.Completion.CandidateBudget)
	assert.Equal(t, "replsh> ", cfg.Shell.Prompt)
	assert.NotNil(t, cfg.Aliases)
	assert.NoError(t, cfg.Validate())
}

// TestLoadFromPath tests TOML parsing and default filling
func TestLoadFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[completion]
enable_prefix = true
enable_subsequence = true
enable_levenshtein = false
threshold = 65

[shell]
prompt = "$ "

[aliases]
"db conn" = "database connect"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.False(t, cfg.Completion.EnableLevenshtein)
	assert.Equal(t, 65, cfg.Completion.Threshold)
	// Unset numeric fields fall back to defaults.
	assert.Equal(t, 3, cfg.Completion.MaxDistance)
	assert.Equal(t, 512, cfg.Completion.CandidateBudget)
	assert.Equal(t, "$ ", cfg.Shell.Prompt)
	assert.Equal(t, "database connect", cfg.Aliases["db conn"])
}

// TestLoadFromPathPartialCompletion tests that a [completion] table which
// sets only some keys keeps the defaults for the rest; in particular the
// tier toggles stay enabled rather than decoding as false.
func TestLoadFromPathPartialCompletion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[completion]
threshold = 60
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.Completion.Threshold)
	assert.True(t, cfg.Completion.EnablePrefix)
	assert.True(t, cfg.Completion.EnableSubsequence)
	assert.True(t, cfg.Completion.EnableLevenshtein)
	assert.Equal(t, 256, cfg.Completion.CacheSize)
	assert.True(t, cfg.Shell.Color)

	// An explicit false still sticks.
	content = `
[completion]
enable_levenshtein = false
cache_size = 0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	cfg, err = LoadFromPath(path)
	require.NoError(t, err)
	assert.False(t, cfg.Completion.EnableLevenshtein)
	assert.Equal(t, 0, cfg.Completion.CacheSize)
	assert.True(t, cfg.Completion.EnablePrefix)
}

// TestLoadFromPathMissing tests the not-found error
func TestLoadFromPathMissing(t *testing.T) {
	_, err := LoadFromPath(filepath.Join(t.TempDir(), "nosuch.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

// TestLoadFromPathInvalid tests rejection of malformed and out-of-range files
func TestLoadFromPathInvalid(t *testing.T) {
	dir := t.TempDir()

	malformed := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(malformed, []byte("[completion\n"), 0600))
	_, err := LoadFromPath(malformed)
	assert.Error(t, err)

	outOfRange := filepath.Join(dir, "range.toml")
	require.NoError(t, os.WriteFile(outOfRange, []byte("[completion]\nenable_prefix = true\nthreshold = 250\n"), 0600))
	_, err = LoadFromPath(outOfRange)
	assert.Error(t, err)
}

// TestSaveTOMLPermissions tests the 0600 requirement
func TestSaveTOMLPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, SaveTOML(Default(), path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// Round trip.
	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, Default().Completion, cfg.Completion)
}

// TestApplyEnvOverrides tests the supported environment variables
func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("REPLSH_PROMPT", ">>> ")
	t.Setenv("REPLSH_NO_COLOR", "1")
	t.Setenv("REPLSH_NO_FUZZY", "true")
	t.Setenv("REPLSH_THRESHOLD", "80")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, ">>> ", cfg.Shell.Prompt)
	assert.False(t, cfg.Shell.Color)
	assert.True(t, cfg.Completion.EnablePrefix)
	assert.False(t, cfg.Completion.EnableSubsequence)
	assert.False(t, cfg.Completion.EnableLevenshtein)
	assert.Equal(t, 80, cfg.Completion.Threshold)
}

// TestApplyEnvOverridesInvalidThreshold tests that garbage values are ignored
func TestApplyEnvOverridesInvalidThreshold(t *testing.T) {
	t.Setenv("REPLSH_THRESHOLD", "lots")

	cfg := Default()
	cfg.ApplyEnvOverrides()
	assert.Equal(t, 50, cfg.Completion.Threshold)
}

// TestValidate tests the range checks
func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative threshold", func(c *Config) { c.Completion.Threshold = -1 }},
		{"threshold above 100", func(c *Config) { c.Completion.Threshold = 101 }},
		{"zero max distance", func(c *Config) { c.Completion.MaxDistance = 0 }},
		{"negative cache", func(c *Config) { c.Completion.CacheSize = -1 }},
		{"zero budget", func(c *Config) { c.Completion.CandidateBudget = 0 }},
		{"empty alias", func(c *Config) { c.Aliases[""] = "database connect" }},
		{"empty alias target", func(c *Config) { c.Aliases["db conn"] = " " }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
