// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package registry provides the command and module registry for the shell.
//
// The registry is the single source of truth for everything the shell can
// execute: loaded modules, their commands, command aliases, and modules
// that have been declared lazily (known by name and command list but not
// yet instantiated).
//
// # Key Types
//
//   - Registry: thread-safe registry of modules, commands and aliases
//   - Module: a named group of commands with an optional short alias
//   - CommandHandle: a registered command with its parameter schema
//   - ParameterSpec: one typed --flag/-f parameter of a command
//
// # Canonical Paths
//
// Commands belonging to the core module are keyed by their bare name
// ("help"); commands of every other module are keyed by
// "<module> <command>" ("database connect"). Aliases map an alternative
// spelling onto a canonical path and never chain.
//
// # Lazy Modules
//
// DeclareLazyModule registers a module's name, alias and command list
// without instantiating it, so completion can offer its commands before
// the module is loaded. EnsureLoaded instantiates it on first use.
package registry
