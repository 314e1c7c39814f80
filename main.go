// replsh - a modular REPL-style command shell with fuzzy completion.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jeranaias/replsh/internal/completion"
	"github.com/jeranaias/replsh/internal/config"
	"github.com/jeranaias/replsh/internal/modules"
	"github.com/jeranaias/replsh/internal/registry"
	"github.com/jeranaias/replsh/internal/shell"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default ~/.replsh/config.toml)")
	showVersion := flag.Bool("version", false, "print version and exit")
	noColor := flag.Bool("no-color", false, "disable styled output")
	flag.Parse()

	if *showVersion {
		fmt.Printf("replsh %s (%s)\n", Version, GitCommit)
		return
	}

	if err := run(*configPath, *noColor); err != nil {
		fmt.Fprintf(os.Stderr, "replsh: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, noColor bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if noColor {
		cfg.Shell.Color = false
	}

	reg := registry.New()
	if err := modules.RegisterBuiltins(reg, Version); err != nil {
		return err
	}

	engine := completion.NewEngine(reg, engineConfig(cfg))
	reg.OnChange(engine.Invalidate)

	applyConfigAliases(reg, cfg)

	sh := shell.New(reg, engine, cfg, os.Stdout, Version)

	// Live-reload config edits: re-apply aliases and drop the completion
	// namespace so the next keystroke sees the new state.
	watchPath := configPath
	if watchPath == "" {
		if p, err := config.Path(); err == nil {
			watchPath = p
		}
	}
	if watchPath != "" {
		if watcher, err := config.Watch(watchPath, func(next *config.Config) {
			applyConfigAliases(reg, next)
			sh.SetConfig(next)
			engine.Invalidate()
		}); err == nil {
			defer watcher.Close()
		}
	}

	return sh.Run()
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

// applyConfigAliases registers [aliases] table entries. An alias that
// collides with a different existing binding is reported, not fatal.
func applyConfigAliases(reg *registry.Registry, cfg *config.Config) {
	for alias, target := range cfg.Aliases {
		if err := reg.RegisterAlias(alias, target); err != nil {
			log.Printf("config: alias %q: %v", alias, err)
		}
	}
}

func engineConfig(cfg *config.Config) completion.Config {
	return completion.Config{
		Ranker: completion.RankerConfig{
			EnablePrefix:      cfg.Completion.EnablePrefix,
			EnableSubsequence: cfg.Completion.EnableSubsequence,
			EnableLevenshtein: cfg.Completion.EnableLevenshtein,
			MaxDistance:       cfg.Completion.MaxDistance,
			CacheSize:         cfg.Completion.CacheSize,
		},
		Threshold:       cfg.Completion.Threshold,
		CandidateBudget: cfg.Completion.CandidateBudget,
	}
}
