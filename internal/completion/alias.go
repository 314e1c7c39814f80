// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package completion

// =============================================================================
// ALIAS RESOLVER
// =============================================================================

// AliasResolver maps short names back to canonical ones. Both directions
// are derived from live registry state on every call; the registry stays
// the single source of truth and aliases never chain.
type AliasResolver struct {
	reg Registry
}

// NewAliasResolver creates a resolver backed by the given registry.
func NewAliasResolver(reg Registry) *AliasResolver {
	return &AliasResolver{reg: reg}
}

// ResolveModule resolves a module name or short alias to the canonical
// module name, considering loaded and lazily declared modules. Returns
// false when the name is unknown.
func (a *AliasResolver) ResolveModule(aliasOrName string) (string, bool) {
	if aliasOrName == "" {
		return "", false
	}
	for _, m := range a.reg.ListModules() {
		if m.Name == aliasOrName || (m.Alias != "" && m.Alias == aliasOrName) {
			return m.Name, true
		}
	}
	for _, m := range a.reg.LazyModules() {
		if m.Name == aliasOrName || (m.Alias != "" && m.Alias == aliasOrName) {
			return m.Name, true
		}
	}
	return "", false
}

// ResolveCommand resolves a command alias to its canonical path in a
// single hop. Non-alias input is returned unchanged.
func (a *AliasResolver) ResolveCommand(aliasOrPath string) string {
	if target, ok := a.reg.AllAliases()[aliasOrPath]; ok {
		return target
	}
	return aliasOrPath
}
