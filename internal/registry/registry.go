// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrDuplicateModule is returned when a module name is already registered.
	ErrDuplicateModule = errors.New("module already registered")

	// ErrDuplicateCommand is returned when a canonical path is already taken.
	ErrDuplicateCommand = errors.New("command already registered")

	// ErrAliasCollision is returned when an alias is already bound to a
	// different canonical path. Re-registering the identical mapping is a
	// no-op, not an error.
	ErrAliasCollision = errors.New("alias already bound to a different command")

	// ErrUnknownModule is returned by EnsureLoaded for names that are
	// neither loaded nor declared.
	ErrUnknownModule = errors.New("unknown module")
)

// =============================================================================
// REGISTRY
// =============================================================================

// lazyModule tracks a module declared for completion but not yet loaded.
type lazyModule struct {
	desc     ModuleDescriptor
	commands []string
	loader   LoaderFunc
}

// Registry holds all registered modules, commands and aliases.
// All methods are safe for concurrent use; read methods return copies.
type Registry struct {
	mu        sync.RWMutex
	modules   map[string]ModuleDescriptor
	commands  map[string]CommandHandle
	aliases   map[string]string
	lazy      map[string]lazyModule
	listeners []func()
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		modules:  make(map[string]ModuleDescriptor),
		commands: make(map[string]CommandHandle),
		aliases:  make(map[string]string),
		lazy:     make(map[string]lazyModule),
	}
}

// OnChange subscribes fn to registration events: module/command/alias
// registration and lazy declarations. Used by the completion engine owner
// to invalidate the namespace index.
func (r *Registry) OnChange(fn func()) {
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}

// notify runs the change listeners. Must be called without the lock held.
func (r *Registry) notify() {
	r.mu.RLock()
	listeners := make([]func(), len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.RUnlock()

	for _, fn := range listeners {
		fn()
	}
}

// =============================================================================
// REGISTRATION
// =============================================================================

// RegisterModule registers a module and all of its commands and command
// aliases. A lazy declaration for the same name is superseded. The whole
// registration is validated before any state changes, so a rejected module
// leaves the registry untouched.
func (r *Registry) RegisterModule(m Module) error {
	if m.Name == "" {
		return errors.New("module name must not be empty")
	}

	r.mu.Lock()
	if _, ok := r.modules[m.Name]; ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrDuplicateModule, m.Name)
	}

	// Validate commands and aliases up front.
	for _, cmd := range m.Commands {
		path := canonicalPath(m.Name, cmd.Name)
		if _, ok := r.commands[path]; ok {
			r.mu.Unlock()
			return fmt.Errorf("%w: %q", ErrDuplicateCommand, path)
		}
		for _, alias := range cmd.Aliases {
			if existing, ok := r.aliases[alias]; ok && existing != path {
				r.mu.Unlock()
				return fmt.Errorf("%w: %q -> %q", ErrAliasCollision, alias, existing)
			}
		}
	}

	r.modules[m.Name] = ModuleDescriptor{
		Name:        m.Name,
		Alias:       m.Alias,
		Description: m.Description,
	}
	for _, cmd := range m.Commands {
		path := canonicalPath(m.Name, cmd.Name)
		r.commands[path] = CommandHandle{
			Path:        path,
			Module:      m.Name,
			Name:        cmd.Name,
			Description: cmd.Description,
			Params:      append([]ParameterSpec(nil), cmd.Params...),
			Run:         cmd.Run,
		}
		for _, alias := range cmd.Aliases {
			r.aliases[alias] = path
		}
	}
	delete(r.lazy, m.Name)
	r.mu.Unlock()

	r.notify()
	return nil
}

// RegisterCommand registers a single command under an already known module
// name. Core commands use module CoreModule.
func (r *Registry) RegisterCommand(module string, cmd Command) error {
	path := canonicalPath(module, cmd.Name)

	r.mu.Lock()
	if _, ok := r.commands[path]; ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrDuplicateCommand, path)
	}
	for _, alias := range cmd.Aliases {
		if existing, ok := r.aliases[alias]; ok && existing != path {
			r.mu.Unlock()
			return fmt.Errorf("%w: %q -> %q", ErrAliasCollision, alias, existing)
		}
	}
	r.commands[path] = CommandHandle{
		Path:        path,
		Module:      module,
		Name:        cmd.Name,
		Description: cmd.Description,
		Params:      append([]ParameterSpec(nil), cmd.Params...),
		Run:         cmd.Run,
	}
	for _, alias := range cmd.Aliases {
		r.aliases[alias] = path
	}
	r.mu.Unlock()

	r.notify()
	return nil
}

// RegisterAlias binds an alias to a canonical path. Binding an alias that
// already points at a different path is rejected; re-binding the identical
// mapping is a no-op.
func (r *Registry) RegisterAlias(alias, path string) error {
	alias = strings.TrimSpace(alias)
	path = strings.TrimSpace(path)
	if alias == "" || path == "" {
		return errors.New("alias and target must not be empty")
	}

	r.mu.Lock()
	if existing, ok := r.aliases[alias]; ok {
		r.mu.Unlock()
		if existing == path {
			return nil
		}
		return fmt.Errorf("%w: %q -> %q", ErrAliasCollision, alias, existing)
	}
	r.aliases[alias] = path
	r.mu.Unlock()

	r.notify()
	return nil
}

// DeclareLazyModuleCommands declares commands for a module that is not yet
// instantiated, so completion can offer them. Repeated declarations merge:
// the stored list is the sorted union of everything declared so far.
func (r *Registry) DeclareLazyModuleCommands(module string, commands []string) {
	r.declareLazy(ModuleDescriptor{Name: module}, commands, nil)
}

// DeclareLazyModule declares a module with full metadata and an optional
// loader invoked by EnsureLoaded on first use.
func (r *Registry) DeclareLazyModule(desc ModuleDescriptor, commands []string, loader LoaderFunc) {
	r.declareLazy(desc, commands, loader)
}

func (r *Registry) declareLazy(desc ModuleDescriptor, commands []string, loader LoaderFunc) {
	r.mu.Lock()
	entry, ok := r.lazy[desc.Name]
	if !ok {
		entry = lazyModule{desc: desc}
	}
	if desc.Alias != "" {
		entry.desc.Alias = desc.Alias
	}
	if desc.Description != "" {
		entry.desc.Description = desc.Description
	}
	if loader != nil {
		entry.loader = loader
	}
	entry.commands = mergeSorted(entry.commands, commands)
	r.lazy[desc.Name] = entry
	r.mu.Unlock()

	r.notify()
}

// EnsureLoaded instantiates a lazily declared module if it has not been
// loaded yet. Loading an already loaded module is a no-op.
func (r *Registry) EnsureLoaded(name string) error {
	r.mu.RLock()
	_, loaded := r.modules[name]
	entry, declared := r.lazy[name]
	r.mu.RUnlock()

	if loaded {
		return nil
	}
	if !declared {
		return fmt.Errorf("%w: %q", ErrUnknownModule, name)
	}
	if entry.loader == nil {
		return fmt.Errorf("module %q declared without a loader", name)
	}

	m, err := entry.loader()
	if err != nil {
		return fmt.Errorf("loading module %q: %w", name, err)
	}
	return r.RegisterModule(m)
}

// =============================================================================
// LOOKUP
// =============================================================================

// ListModules returns descriptors for all loaded modules, sorted by name.
func (r *Registry) ListModules() []ModuleDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ModuleDescriptor, 0, len(r.modules))
	for _, d := range r.modules {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LazyModules returns descriptors for declared-but-unloaded modules,
// sorted by name.
func (r *Registry) LazyModules() []ModuleDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ModuleDescriptor, 0, len(r.lazy))
	for _, e := range r.lazy {
		out = append(out, e.desc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LazyModuleCommands returns the declared command lists of unloaded
// modules, keyed by module name.
func (r *Registry) LazyModuleCommands() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string][]string, len(r.lazy))
	for name, e := range r.lazy {
		out[name] = append([]string(nil), e.commands...)
	}
	return out
}

// ListModuleCommands returns the sorted command names of a loaded module.
func (r *Registry) ListModuleCommands(module string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	for _, h := range r.commands {
		if h.Module == module {
			out = append(out, h.Name)
		}
	}
	sort.Strings(out)
	return out
}

// AllCommands returns a copy of the canonical path -> handle map.
func (r *Registry) AllCommands() map[string]CommandHandle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]CommandHandle, len(r.commands))
	for path, h := range r.commands {
		out[path] = h
	}
	return out
}

// AllAliases returns a copy of the alias -> canonical path map.
func (r *Registry) AllAliases() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.aliases))
	for alias, path := range r.aliases {
		out[alias] = path
	}
	return out
}

// CommandInfo resolves a path or alias to its command handle. Resolution
// order: alias map, then exact canonical path, then "<module> <command>"
// with the module segment resolved through ResolveModuleName.
func (r *Registry) CommandInfo(pathOrAlias string) (CommandHandle, bool) {
	query := strings.TrimSpace(pathOrAlias)

	r.mu.RLock()
	if target, ok := r.aliases[query]; ok {
		query = target
	}
	if h, ok := r.commands[query]; ok {
		r.mu.RUnlock()
		return h, true
	}
	r.mu.RUnlock()

	parts := strings.Fields(query)
	if len(parts) >= 2 {
		if module, ok := r.ResolveModuleName(parts[0]); ok {
			full := canonicalPath(module, parts[1])
			r.mu.RLock()
			h, ok := r.commands[full]
			r.mu.RUnlock()
			if ok {
				return h, true
			}
		}
	}
	return CommandHandle{}, false
}

// ResolveModuleName resolves a possibly shortened module name to its
// canonical form. Resolution order: exact name (loaded or lazy), declared
// alias, then unique prefix match across all known module names.
func (r *Registry) ResolveModuleName(short string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.modules[short]; ok {
		return short, true
	}
	if _, ok := r.lazy[short]; ok {
		return short, true
	}

	for name, d := range r.modules {
		if d.Alias != "" && d.Alias == short {
			return name, true
		}
	}
	for name, e := range r.lazy {
		if e.desc.Alias != "" && e.desc.Alias == short {
			return name, true
		}
	}

	// Unique-prefix fallback: ambiguous prefixes resolve to nothing.
	var match string
	for name := range r.modules {
		if strings.HasPrefix(name, short) {
			if match != "" {
				return "", false
			}
			match = name
		}
	}
	for name := range r.lazy {
		if strings.HasPrefix(name, short) {
			if match != "" && match != name {
				return "", false
			}
			match = name
		}
	}
	if match != "" {
		return match, true
	}
	return "", false
}

// =============================================================================
// HELPERS
// =============================================================================

// canonicalPath joins module and command into the registry key. Core
// commands are keyed bare.
func canonicalPath(module, command string) string {
	if module == CoreModule {
		return command
	}
	return module + " " + command
}

// mergeSorted returns the sorted, deduplicated union of both lists.
func mergeSorted(existing, extra []string) []string {
	seen := make(map[string]struct{}, len(existing)+len(extra))
	for _, s := range existing {
		seen[s] = struct{}{}
	}
	for _, s := range extra {
		seen[s] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
