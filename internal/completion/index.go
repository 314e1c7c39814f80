// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package completion

import (
	"sort"
	"strings"
	"sync/atomic"

	"github.com/jeranaias/replsh/internal/registry"
)

// =============================================================================
// COMMAND SPACE INDEX
// =============================================================================

// namespace is one immutable generation of the index: a mapping from
// context key (command-path prefix, "" for top level) to the sorted
// candidate list for that key. It is never mutated after publication.
type namespace struct {
	entries map[string][]string
}

// CommandSpaceIndex builds and caches the layered completion namespace
// from the registry.
//
// The index is rebuilt wholesale on the first Lookup after an Invalidate
// and published with an atomic pointer swap, so concurrent readers either
// see the previous complete generation or the new complete generation,
// never a partial rebuild. Invalidate clears the pointer; generation is
// monotonic.
type CommandSpaceIndex struct {
	reg        Registry
	current    atomic.Pointer[namespace]
	dirty      atomic.Uint64
	generation atomic.Uint64
}

// NewCommandSpaceIndex creates an empty, invalidated index.
func NewCommandSpaceIndex(reg Registry) *CommandSpaceIndex {
	return &CommandSpaceIndex{reg: reg}
}

// Invalidate discards the current generation. The next Lookup triggers a
// full rebuild; stale candidates are never served after this call returns.
// The dirty counter is bumped before the pointer is cleared so a rebuild
// already in flight cannot publish a namespace that predates this call.
func (idx *CommandSpaceIndex) Invalidate() {
	idx.dirty.Add(1)
	idx.current.Store(nil)
}

// Generation returns the number of published rebuilds so far.
func (idx *CommandSpaceIndex) Generation() uint64 {
	return idx.generation.Load()
}

// Lookup returns the candidate list for a context key. The returned slice
// belongs to the published generation and must not be modified.
//
// A rebuild races with Invalidate: registry state read before a
// registration must not be published after that registration's
// Invalidate. The dirty counter is snapshotted before rebuilding and the
// result is published only if no Invalidate landed in between; otherwise
// the rebuild is discarded and retried against the fresh registry state.
func (idx *CommandSpaceIndex) Lookup(prefix string) []string {
	for {
		if ns := idx.current.Load(); ns != nil {
			return ns.entries[prefix]
		}
		mark := idx.dirty.Load()
		ns := idx.rebuild()
		if idx.dirty.Load() != mark {
			continue
		}
		if idx.current.CompareAndSwap(nil, ns) {
			idx.generation.Add(1)
			return ns.entries[prefix]
		}
	}
}

// rebuild constructs a fresh namespace from registry state. It is total:
// a module whose metadata cannot be introspected is skipped, and the rest
// of the namespace is still built.
func (idx *CommandSpaceIndex) rebuild() *namespace {
	entries := make(map[string][]string)

	modules := idx.listModulesSafe()
	lazy := idx.lazyCommandsSafe()
	lazyDescs := idx.lazyModulesSafe()

	// Step 1: top level — core commands, module names and short aliases,
	// and lazily declared modules.
	top := make(map[string]struct{})
	for _, name := range idx.moduleCommandsSafe(registry.CoreModule) {
		top[name] = struct{}{}
	}
	for _, m := range modules {
		if m.Name == registry.CoreModule {
			continue
		}
		top[m.Name] = struct{}{}
		if m.Alias != "" {
			top[m.Alias] = struct{}{}
		}
	}
	for _, m := range lazyDescs {
		top[m.Name] = struct{}{}
		if m.Alias != "" {
			top[m.Alias] = struct{}{}
		}
	}
	entries[""] = sortedKeys(top)

	// Step 2: per-module command lists, duplicated under the short alias.
	// A module with no commands gets no entry but stays at top level.
	for _, m := range modules {
		if m.Name == registry.CoreModule {
			continue
		}
		commands := idx.moduleCommandsSafe(m.Name)
		if len(commands) == 0 {
			continue
		}
		sorted := append([]string(nil), commands...)
		sort.Strings(sorted)
		entries[m.Name] = sorted
		if m.Alias != "" {
			entries[m.Alias] = sorted
		}
	}

	// Step 3: lazily declared modules, sourced from the declared lists.
	for _, m := range lazyDescs {
		commands := lazy[m.Name]
		if len(commands) == 0 {
			continue
		}
		sorted := append([]string(nil), commands...)
		sort.Strings(sorted)
		entries[m.Name] = sorted
		if m.Alias != "" {
			entries[m.Alias] = sorted
		}
	}

	// Step 4: two-word aliases contribute their command segment under
	// their module segment. The merge is idempotent and never overwrites
	// an existing list.
	aliases := idx.aliasesSafe()
	for alias := range aliases {
		moduleSeg, commandSeg, ok := strings.Cut(alias, " ")
		if !ok || moduleSeg == "" || commandSeg == "" {
			continue
		}
		entries[moduleSeg] = insertSorted(entries[moduleSeg], commandSeg)
	}

	// Step 5: parameter tokens keyed by the command's full canonical path
	// and every alias of that path.
	for path, handle := range idx.commandsSafe() {
		if len(handle.Params) == 0 {
			continue
		}
		tokens := make([]string, 0, len(handle.Params)*2)
		for _, p := range handle.Params {
			if p.LongFlag != "" {
				tokens = append(tokens, p.LongFlag)
			}
			if p.ShortFlag != "" {
				tokens = append(tokens, p.ShortFlag)
			}
		}
		sort.Strings(tokens)
		entries[path] = mergeCandidates(entries[path], tokens)
		for alias, target := range aliases {
			if target == path {
				entries[alias] = mergeCandidates(entries[alias], tokens)
			}
		}
	}

	return &namespace{entries: entries}
}

// =============================================================================
// GUARDED REGISTRY ACCESS
// =============================================================================

// The rebuild must never fail outright, so each registry call is isolated:
// a panicking registry implementation costs only the data that call would
// have produced.

func (idx *CommandSpaceIndex) listModulesSafe() (out []registry.ModuleDescriptor) {
	defer func() { _ = recover() }()
	return idx.reg.ListModules()
}

func (idx *CommandSpaceIndex) lazyModulesSafe() (out []registry.ModuleDescriptor) {
	defer func() { _ = recover() }()
	return idx.reg.LazyModules()
}

func (idx *CommandSpaceIndex) lazyCommandsSafe() (out map[string][]string) {
	defer func() { _ = recover() }()
	return idx.reg.LazyModuleCommands()
}

func (idx *CommandSpaceIndex) moduleCommandsSafe(module string) (out []string) {
	defer func() { _ = recover() }()
	return idx.reg.ListModuleCommands(module)
}

func (idx *CommandSpaceIndex) aliasesSafe() (out map[string]string) {
	defer func() { _ = recover() }()
	return idx.reg.AllAliases()
}

func (idx *CommandSpaceIndex) commandsSafe() (out map[string]registry.CommandHandle) {
	defer func() { _ = recover() }()
	return idx.reg.AllCommands()
}

// =============================================================================
// HELPERS
// =============================================================================

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// insertSorted inserts value into a sorted list if absent, copying before
// modification so published generations are never mutated.
func insertSorted(list []string, value string) []string {
	i := sort.SearchStrings(list, value)
	if i < len(list) && list[i] == value {
		return list
	}
	out := make([]string, 0, len(list)+1)
	out = append(out, list[:i]...)
	out = append(out, value)
	out = append(out, list[i:]...)
	return out
}

// mergeCandidates returns the sorted union of both lists without mutating
// either.
func mergeCandidates(list, extra []string) []string {
	if len(list) == 0 {
		return append([]string(nil), extra...)
	}
	out := append([]string(nil), list...)
	for _, v := range extra {
		out = insertSorted(out, v)
	}
	return out
}
