// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for replsh.
//
// Configuration is TOML with sensible defaults, environment variable
// overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - $REPLSH_CONFIG
//   - ~/.replsh/config.toml
//   - Built-in defaults
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/replsh/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete replsh configuration.
type Config struct {
	// Completion configuration
	Completion CompletionConfig `toml:"completion"`

	// Shell configuration
	Shell ShellConfig `toml:"shell"`

	// Aliases maps user-defined aliases to canonical command paths
	// (e.g., "db conn" = "database connect")
	Aliases map[string]string `toml:"aliases"`
}

// CompletionConfig tunes the completion engine.
type CompletionConfig struct {
	// EnablePrefix toggles the prefix ranking tier
	EnablePrefix bool `toml:"enable_prefix"`
	// EnableSubsequence toggles the subsequence ranking tier
	EnableSubsequence bool `toml:"enable_subsequence"`
	// EnableLevenshtein toggles the edit-distance ranking tier
	EnableLevenshtein bool `toml:"enable_levenshtein"`
	// MaxDistance is the largest edit distance still suggested
	MaxDistance int `toml:"max_distance"`
	// Threshold is the minimum score (0-100) for a suggestion
	Threshold int `toml:"threshold"`
	// CacheSize bounds the ranking result cache (0 disables caching)
	CacheSize int `toml:"cache_size"`
	// CandidateBudget caps candidates ranked per completion request
	CandidateBudget int `toml:"candidate_budget"`
}

// ShellConfig contains interactive shell settings.
type ShellConfig struct {
	// Prompt is the input prompt string
	Prompt string `toml:"prompt"`
	// HistoryFile is the readline history path (empty = ~/.replsh/history)
	HistoryFile string `toml:"history_file"`
	// Color enables styled output
	Color bool `toml:"color"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Completion: CompletionConfig{
			EnablePrefix:      true,
			EnableSubsequence: true,
			EnableLevenshtein: true,
			MaxDistance:       3,
			Threshold:         50,
			CacheSize:         256,
			CandidateBudget:   512,
		},
		Shell: ShellConfig{
			Prompt: "replsh> ",
			Color:  true,
		},
		Aliases: map[string]string{},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// Dir returns the replsh configuration directory (~/.replsh).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".replsh"), nil
}

// Path returns the configuration file path, honoring $REPLSH_CONFIG.
func Path() (string, error) {
	if p := os.Getenv("REPLSH_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the configuration from the default path, falling back to
// built-in defaults when no file exists. Environment overrides are applied
// last in every case.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	cfg, err := LoadFromPath(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg = Default()
		cfg.ApplyEnvOverrides()
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromPath reads and validates the configuration at an explicit path.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	fillDefaults(cfg, md)
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// fillDefaults fills in any missing values with defaults. The decoded
// struct cannot distinguish an absent key from an explicit zero (a false
// toggle, cache_size = 0), so absence is decided by the decoder metadata.
func fillDefaults(cfg *Config, md toml.MetaData) {
	def := Default()

	if !md.IsDefined("completion", "enable_prefix") {
		cfg.Completion.EnablePrefix = def.Completion.EnablePrefix
	}
	if !md.IsDefined("completion", "enable_subsequence") {
		cfg.Completion.EnableSubsequence = def.Completion.EnableSubsequence
	}
	if !md.IsDefined("completion", "enable_levenshtein") {
		cfg.Completion.EnableLevenshtein = def.Completion.EnableLevenshtein
	}
	if !md.IsDefined("completion", "max_distance") {
		cfg.Completion.MaxDistance = def.Completion.MaxDistance
	}
	if !md.IsDefined("completion", "threshold") {
		cfg.Completion.Threshold = def.Completion.Threshold
	}
	if !md.IsDefined("completion", "cache_size") {
		cfg.Completion.CacheSize = def.Completion.CacheSize
	}
	if !md.IsDefined("completion", "candidate_budget") {
		cfg.Completion.CandidateBudget = def.Completion.CandidateBudget
	}

	if cfg.Shell.Prompt == "" {
		cfg.Shell.Prompt = def.Shell.Prompt
	}
	if !md.IsDefined("shell", "color") {
		cfg.Shell.Color = def.Shell.Color
	}
	if cfg.Aliases == nil {
		cfg.Aliases = map[string]string{}
	}
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes the configuration to the default path.
//
// SECURITY: Config files are written 0600 (owner read/write only).
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration as TOML to an explicit path with 0600
// permissions. The write is atomic: a crash leaves either the old file or
// the new complete file.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the configuration for out-of-range values.
func (c *Config) Validate() error {
	if c.Completion.Threshold < 0 || c.Completion.Threshold > 100 {
		return fmt.Errorf("completion.threshold must be within [0,100], got %d", c.Completion.Threshold)
	}
	if c.Completion.MaxDistance < 1 {
		return fmt.Errorf("completion.max_distance must be at least 1, got %d", c.Completion.MaxDistance)
	}
	if c.Completion.CacheSize < 0 {
		return fmt.Errorf("completion.cache_size must not be negative, got %d", c.Completion.CacheSize)
	}
	if c.Completion.CandidateBudget < 1 {
		return fmt.Errorf("completion.candidate_budget must be at least 1, got %d", c.Completion.CandidateBudget)
	}
	for alias, target := range c.Aliases {
		if strings.TrimSpace(alias) == "" || strings.TrimSpace(target) == "" {
			return fmt.Errorf("aliases must not map empty strings (%q = %q)", alias, target)
		}
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported variables:
//   - REPLSH_PROMPT: shell prompt string
//   - REPLSH_HISTORY: history file path
//   - REPLSH_NO_COLOR: disable styled output ("1"/"true")
//   - REPLSH_NO_FUZZY: disable the subsequence and edit-distance tiers
//   - REPLSH_THRESHOLD: minimum completion score
func (c *Config) ApplyEnvOverrides() {
	if prompt := os.Getenv("REPLSH_PROMPT"); prompt != "" {
		c.Shell.Prompt = prompt
	}
	if history := os.Getenv("REPLSH_HISTORY"); history != "" {
		c.Shell.HistoryFile = history
	}
	if v := os.Getenv("REPLSH_NO_COLOR"); isTruthy(v) {
		c.Shell.Color = false
	}
	if v := os.Getenv("REPLSH_NO_FUZZY"); isTruthy(v) {
		c.Completion.EnableSubsequence = false
		c.Completion.EnableLevenshtein = false
	}
	if v := os.Getenv("REPLSH_THRESHOLD"); v != "" {
		if threshold, err := strconv.Atoi(v); err == nil && threshold >= 0 && threshold <= 100 {
			c.Completion.Threshold = threshold
		}
	}
}

func isTruthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
