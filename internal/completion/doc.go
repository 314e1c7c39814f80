// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package completion implements the context-aware completion engine for
// the shell.
//
// Given the text before the cursor, the engine produces a ranked,
// deduplicated list of suggestions spanning module names, module aliases,
// sub-commands, command aliases, and typed command-line parameters,
// including modules that are declared but not yet loaded.
//
// # Pipeline
//
//	Engine.Complete
//	    -> ContextResolver   classify the input (module / sub-command / parameter)
//	    -> CommandSpaceIndex look up candidates for the context key
//	    -> Ranker            three-tier fuzzy ranking
//	    -> MetadataExtractor attach one-line descriptions
//
// # Ranking Tiers
//
// Each candidate is scored by the first applicable tier: exact prefix
// (score 100), in-order subsequence (50-90, with bonuses for consecutive
// runs and a matching first character), then bounded Levenshtein distance
// (80/60/40 for distances 1/2/3). Tiers are individually toggleable and
// never combined.
//
// # Consistency
//
// The namespace index is rebuilt wholesale into a fresh map and published
// with an atomic pointer swap, so completion calls racing with command
// registration never observe a half-built index.
package completion
