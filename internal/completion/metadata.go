// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package completion

import (
	"strings"
)

// Generic fallbacks for metadata lookups that miss. Completion must stay
// total, so a missing description degrades to one of these instead of
// surfacing an error.
const (
	fallbackParameter     = "parameter"
	fallbackCommand       = "command"
	fallbackModule        = "module"
	fallbackNoDescription = "no description"
)

// =============================================================================
// METADATA EXTRACTOR
// =============================================================================

// MetadataExtractor derives the one-line description shown next to each
// completion candidate.
type MetadataExtractor struct {
	reg     Registry
	aliases *AliasResolver
}

// NewMetadataExtractor creates an extractor backed by the registry.
func NewMetadataExtractor(reg Registry, aliases *AliasResolver) *MetadataExtractor {
	return &MetadataExtractor{reg: reg, aliases: aliases}
}

// Describe returns a human-readable one-liner for a candidate within the
// given context. It never fails; lookup misses return a generic fallback.
func (m *MetadataExtractor) Describe(candidate string, ctx CompletionContext) string {
	if strings.HasPrefix(candidate, "-") {
		return m.describeParameter(candidate, ctx.Prefix)
	}
	if ctx.Prefix == "" {
		return m.describeTopLevel(candidate)
	}
	return m.describeSubCommand(candidate, ctx.Prefix)
}

// describeParameter finds the declared parameter whose long or short flag
// equals the candidate token.
func (m *MetadataExtractor) describeParameter(token, prefix string) string {
	path := m.aliases.ResolveCommand(prefix)
	handle, ok := m.reg.CommandInfo(path)
	if !ok {
		return fallbackParameter
	}
	for _, p := range handle.Params {
		if p.LongFlag == token || p.ShortFlag == token {
			if p.Description != "" {
				return p.Description
			}
			break
		}
	}
	return fallbackParameter
}

// describeTopLevel decides module-vs-core-command for candidates at the
// top level of the namespace.
func (m *MetadataExtractor) describeTopLevel(candidate string) string {
	if name, ok := m.aliases.ResolveModule(candidate); ok {
		if desc := m.moduleDescription(name); desc != "" {
			return desc
		}
		return fallbackModule
	}

	if handle, ok := m.reg.CommandInfo(candidate); ok {
		if line := handle.DocLine(); line != "" {
			return line
		}
	}
	return fallbackCommand
}

// describeSubCommand resolves "<prefix> <candidate>" through the alias
// table and returns the command's first doc line.
func (m *MetadataExtractor) describeSubCommand(candidate, prefix string) string {
	full := m.aliases.ResolveCommand(prefix + " " + candidate)
	if handle, ok := m.reg.CommandInfo(full); ok {
		if line := handle.DocLine(); line != "" {
			return line
		}
	}
	return fallbackNoDescription
}

func (m *MetadataExtractor) moduleDescription(name string) string {
	for _, d := range m.reg.ListModules() {
		if d.Name == name {
			return firstLine(d.Description)
		}
	}
	for _, d := range m.reg.LazyModules() {
		if d.Name == name {
			return firstLine(d.Description)
		}
	}
	return ""
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(line)
}
