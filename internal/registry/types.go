// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package registry

import (
	"io"
	"strings"
)

// =============================================================================
// MODULE AND COMMAND DEFINITIONS
// =============================================================================

// CoreModule is the name of the module whose commands are keyed by their
// bare name instead of "<module> <command>".
const CoreModule = "core"

// Module is a named group of commands registered together.
type Module struct {
	// Name is the canonical module name (e.g., "database")
	Name string

	// Alias is an optional short alias (e.g., "db")
	Alias string

	// Description is shown in help and completion
	Description string

	// Commands are the commands this module exposes
	Commands []Command
}

// Command describes one command of a module prior to registration.
type Command struct {
	// Name is the command name within its module (e.g., "connect")
	Name string

	// Description is the doc text; only the first line is shown in
	// completion metadata
	Description string

	// Aliases are alternative spellings for the full canonical path
	// (e.g., "db conn" for "database connect")
	Aliases []string

	// Params is the ordered typed-parameter schema (may be empty)
	Params []ParameterSpec

	// Run executes the command
	Run Handler
}

// ParameterSpec describes one declared command-line parameter.
type ParameterSpec struct {
	// Name of the parameter (e.g., "host")
	Name string

	// LongFlag is the long option token (e.g., "--host")
	LongFlag string

	// ShortFlag is the single-character option token (e.g., "-h")
	ShortFlag string

	// Description explains the parameter
	Description string

	// Required indicates the parameter must be provided
	Required bool

	// Default is the default value; HasDefault distinguishes an empty
	// default from no default at all
	Default    string
	HasDefault bool
}

// Param builds a ParameterSpec deriving the flag tokens from the name:
// "max_rows" becomes "--max-rows" and "-m".
func Param(name, description string) ParameterSpec {
	long := "--" + strings.ReplaceAll(name, "_", "-")
	short := ""
	if name != "" {
		short = "-" + string(name[0])
	}
	return ParameterSpec{
		Name:        name,
		LongFlag:    long,
		ShortFlag:   short,
		Description: description,
	}
}

// ModuleDescriptor is the read-side view of a module exposed to consumers
// such as the completion engine.
type ModuleDescriptor struct {
	Name        string
	Alias       string
	Description string
}

// CommandHandle is the read-side view of a registered command.
type CommandHandle struct {
	// Path is the canonical path ("database connect" or "help")
	Path string

	// Module and Name are the two segments of the path
	Module string
	Name   string

	// Description is the command doc text
	Description string

	// Params is the ordered parameter schema (possibly empty)
	Params []ParameterSpec

	// Run executes the command (nil for handles of declared-only commands)
	Run Handler
}

// DocLine returns the first line of the command description, used as the
// one-line completion metadata.
func (h CommandHandle) DocLine() string {
	line, _, _ := strings.Cut(strings.TrimSpace(h.Description), "\n")
	return strings.TrimSpace(line)
}

// =============================================================================
// EXECUTION CONTEXT
// =============================================================================

// Context provides access to shell state for command handlers.
// Handlers should check optional fields before use.
type Context struct {
	// Out is where handlers write their output
	Out io.Writer

	// Registry gives handlers access to registered modules and commands
	Registry *Registry

	// Version is the shell version string
	Version string
}

// Args holds the parsed invocation of a command.
type Args struct {
	// Flags maps parameter names (not flag tokens) to their values
	Flags map[string]string

	// Positional are the tokens left over after flag parsing
	Positional []string
}

// Flag returns the value of a named parameter and whether it was set
// (explicitly or via default).
func (a Args) Flag(name string) (string, bool) {
	v, ok := a.Flags[name]
	return v, ok
}

// Handler executes a command.
type Handler func(ctx *Context, args Args) error

// LoaderFunc instantiates a lazily declared module on first use.
type LoaderFunc func() (Module, error)
