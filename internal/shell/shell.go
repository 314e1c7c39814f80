// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package shell

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/peterh/liner"

	"github.com/jeranaias/replsh/internal/completion"
	"github.com/jeranaias/replsh/internal/config"
	"github.com/jeranaias/replsh/internal/modules"
	"github.com/jeranaias/replsh/internal/registry"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))
)

// =============================================================================
// SHELL
// =============================================================================

// Shell is the interactive REPL: a liner-backed line editor wired to the
// registry for dispatch and to the completion engine for tab completion.
type Shell struct {
	reg       *registry.Registry
	engine    *completion.Engine
	cfg       *config.Config
	out       io.Writer
	sessionID string
	version   string
}

// New creates a shell over the given registry and configuration.
func New(reg *registry.Registry, engine *completion.Engine, cfg *config.Config, out io.Writer, version string) *Shell {
	return &Shell{
		reg:       reg,
		engine:    engine,
		cfg:       cfg,
		out:       out,
		sessionID: uuid.NewString(),
		version:   version,
	}
}

// SessionID returns the unique id of this shell session.
func (s *Shell) SessionID() string {
	return s.sessionID
}

// SetConfig swaps the active configuration; used by the config watcher.
func (s *Shell) SetConfig(cfg *config.Config) {
	s.cfg = cfg
}

// Run drives the read-eval-print loop until the user exits.
func (s *Shell) Run() error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetTabCompletionStyle(liner.TabCircular)
	line.SetWordCompleter(s.completeWord)

	historyPath := s.historyPath()
	s.loadHistory(line, historyPath)
	defer s.saveHistory(line, historyPath)

	log.Printf("shell: session %s started", s.sessionID)
	fmt.Fprintf(s.out, "replsh %s — type %s for available commands\n",
		s.version, hintStyle.Render("help"))

	prompt := s.cfg.Shell.Prompt
	if s.cfg.Shell.Color {
		prompt = promptStyle.Render(prompt)
	}

	for {
		input, err := line.Prompt(prompt)
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(s.out)
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if err := s.Dispatch(input); err != nil {
			if errors.Is(err, modules.ErrExit) {
				return nil
			}
			fmt.Fprintln(s.out, errorStyle.Render("error: "+err.Error()))
		}
	}
}

// =============================================================================
// DISPATCH
// =============================================================================

// Dispatch parses and runs one command line.
func (s *Shell) Dispatch(input string) error {
	tokens := splitLine(input)
	if len(tokens) == 0 {
		return nil
	}

	handle, rest, err := s.resolve(tokens)
	if err != nil {
		s.printSuggestions(tokens[0])
		return err
	}

	args, err := bindArgs(handle.Params, rest)
	if err != nil {
		return fmt.Errorf("%s: %w", handle.Path, err)
	}
	if handle.Run == nil {
		return fmt.Errorf("%s: command has no handler", handle.Path)
	}

	ctx := &registry.Context{Out: s.out, Registry: s.reg, Version: s.version}
	return handle.Run(ctx, args)
}

// resolve maps leading tokens to a command handle. Two-word forms win over
// bare ones, and lazy modules are instantiated before lookup so their
// commands are dispatchable on first use.
func (s *Shell) resolve(tokens []string) (registry.CommandHandle, []string, error) {
	if len(tokens) >= 2 {
		if module, ok := s.reg.ResolveModuleName(tokens[0]); ok {
			if err := s.reg.EnsureLoaded(module); err != nil && !errors.Is(err, registry.ErrUnknownModule) {
				return registry.CommandHandle{}, nil, err
			}
		}
		if h, ok := s.reg.CommandInfo(tokens[0] + " " + tokens[1]); ok {
			return h, tokens[2:], nil
		}
	}
	if h, ok := s.reg.CommandInfo(tokens[0]); ok {
		return h, tokens[1:], nil
	}
	return registry.CommandHandle{}, nil, fmt.Errorf("unknown command %q", strings.Join(tokens, " "))
}

// printSuggestions shows a short did-you-mean list for an unknown command.
func (s *Shell) printSuggestions(word string) {
	suggestions := s.engine.Complete(word)
	if len(suggestions) == 0 {
		return
	}
	if len(suggestions) > 3 {
		suggestions = suggestions[:3]
	}

	fmt.Fprintln(s.out, hintStyle.Render("did you mean:"))
	fmt.Fprint(s.out, renderSuggestionTable(suggestions, terminalWidth()))
}

// =============================================================================
// COMPLETION ADAPTER
// =============================================================================

// completeWord adapts the engine to liner's WordCompleter contract: the
// engine reports how many characters before the cursor each suggestion
// replaces, which becomes the boundary between head and completions.
func (s *Shell) completeWord(line string, pos int) (string, []string, string) {
	before := line[:pos]
	suggestions := s.engine.Complete(before)
	if len(suggestions) == 0 {
		return before, nil, line[pos:]
	}

	span := suggestions[0].ReplaceSpanLength
	if span > len(before) {
		span = len(before)
	}

	completions := make([]string, len(suggestions))
	for i, suggestion := range suggestions {
		completions[i] = suggestion.ReplacementText
	}
	return before[:len(before)-span], completions, line[pos:]
}

// =============================================================================
// HISTORY
// =============================================================================

func (s *Shell) historyPath() string {
	if s.cfg.Shell.HistoryFile != "" {
		return s.cfg.Shell.HistoryFile
	}
	dir, err := config.Dir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "history")
}

func (s *Shell) loadHistory(line *liner.State, path string) {
	if path == "" {
		return
	}
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()
	line.ReadHistory(f)
}

// saveHistory persists readline history with owner-only permissions.
func (s *Shell) saveHistory(line *liner.State, path string) {
	if path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		log.Printf("shell: creating history dir: %v", err)
		return
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		log.Printf("shell: saving history: %v", err)
		return
	}
	defer f.Close()
	if _, err := line.WriteHistory(f); err != nil {
		log.Printf("shell: writing history: %v", err)
	}
}
