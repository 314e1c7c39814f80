// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package completion

import (
	"github.com/jeranaias/replsh/internal/registry"
)

// Registry is the read capability the completion engine needs from the
// command registry. Any implementation is substitutable; the engine never
// mutates registry state.
type Registry interface {
	// ListModules returns descriptors for all loaded modules.
	ListModules() []registry.ModuleDescriptor

	// LazyModules returns descriptors for declared-but-unloaded modules.
	LazyModules() []registry.ModuleDescriptor

	// ListModuleCommands returns the command names of a loaded module.
	ListModuleCommands(module string) []string

	// LazyModuleCommands returns declared command lists keyed by module.
	LazyModuleCommands() map[string][]string

	// AllCommands returns the canonical path -> handle map.
	AllCommands() map[string]registry.CommandHandle

	// AllAliases returns the alias -> canonical path map.
	AllAliases() map[string]string

	// CommandInfo resolves a path or alias to its command handle.
	CommandInfo(pathOrAlias string) (registry.CommandHandle, bool)
}
