// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package modules ships the built-in command modules of replsh.
//
// The core module provides the bare shell commands (help, version, alias,
// modules, exit). The database module is loaded eagerly at startup; the
// ssh module is declared lazily and instantiated on first use, which also
// exercises the declared-command completion path.
package modules
