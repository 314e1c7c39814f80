// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package shell implements the interactive REPL front end.
//
// The shell reads lines with a liner-backed editor, completes words
// through the completion engine, resolves commands against the registry
// (loading lazy modules on first use), binds --flag tokens to each
// command's parameter schema, and runs the handler. Unknown commands get
// a short did-you-mean list drawn from the same completion pipeline.
package shell
