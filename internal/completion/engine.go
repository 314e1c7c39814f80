// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package completion

import (
	"log"
	"strings"
)

// =============================================================================
// SUGGESTIONS
// =============================================================================

// Suggestion is one completion the front end can apply.
type Suggestion struct {
	// ReplacementText is the text to insert
	ReplacementText string

	// ReplaceSpanLength is how many characters before the cursor the
	// replacement overwrites (the length of the partial word)
	ReplaceSpanLength int

	// DisplayText is what the front end shows in the completion menu
	DisplayText string

	// Description is the one-line metadata for the candidate
	Description string
}

// =============================================================================
// ENGINE
// =============================================================================

// DefaultCandidateBudget caps how many candidates are ranked per call.
// The edit-distance tier costs O(len(query) * len(candidate)) per
// candidate, so an unbounded namespace could stall the input loop.
const DefaultCandidateBudget = 512

// Config tunes the engine.
type Config struct {
	// Ranker configures the fuzzy tiers and result cache
	Ranker RankerConfig

	// Threshold is the minimum score for a fuzzy match to be suggested
	Threshold int

	// CandidateBudget bounds the candidate list passed to the ranker;
	// the tail of an oversized (sorted) list is dropped deterministically
	CandidateBudget int
}

// DefaultConfig returns the standard engine configuration.
func DefaultConfig() Config {
	return Config{
		Ranker:          DefaultRankerConfig(),
		Threshold:       DefaultThreshold,
		CandidateBudget: DefaultCandidateBudget,
	}
}

// Engine wires the resolver, index, ranker and metadata extractor into a
// single Complete entry point for the line-editing front end.
//
// The engine owns the CommandSpaceIndex exclusively. Registration events
// must be funneled into Invalidate by whoever owns the registry; the
// engine itself never watches for changes.
type Engine struct {
	reg      Registry
	cfg      Config
	index    *CommandSpaceIndex
	resolver *ContextResolver
	ranker   *Ranker
	meta     *MetadataExtractor
	aliases  *AliasResolver
}

// NewEngine creates a completion engine over the given registry.
func NewEngine(reg Registry, cfg Config) *Engine {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.CandidateBudget <= 0 {
		cfg.CandidateBudget = DefaultCandidateBudget
	}
	aliases := NewAliasResolver(reg)
	return &Engine{
		reg:      reg,
		cfg:      cfg,
		index:    NewCommandSpaceIndex(reg),
		resolver: NewContextResolver(aliases),
		ranker:   NewRanker(cfg.Ranker),
		meta:     NewMetadataExtractor(reg, aliases),
		aliases:  aliases,
	}
}

// Invalidate discards the namespace index. Call on every registration
// event (module load, command registration, lazy declaration, alias).
func (e *Engine) Invalidate() {
	e.index.Invalidate()
}

// Resolve exposes context classification for front ends that need to know
// what kind of token is being completed.
func (e *Engine) Resolve(textBeforeCursor string) CompletionContext {
	return e.resolver.Resolve(textBeforeCursor)
}

// Complete produces ordered suggestions for the text before the cursor.
// It is total: any input and any registry state yields a (possibly empty)
// list. A panic anywhere in the pipeline is swallowed so a broken
// completer can never take the REPL down with it.
func (e *Engine) Complete(textBeforeCursor string) (suggestions []Suggestion) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("completion: recovered from panic: %v", r)
			suggestions = nil
		}
	}()

	ctx := e.resolver.Resolve(textBeforeCursor)

	if ctx.IsParameterContext {
		return e.completeParameters(ctx)
	}

	candidates := e.index.Lookup(ctx.Prefix)
	if len(candidates) > e.cfg.CandidateBudget {
		candidates = candidates[:e.cfg.CandidateBudget]
	}

	entries := e.ranker.Rank(ctx.PartialWord, candidates, e.cfg.Threshold)

	suggestions = make([]Suggestion, 0, len(entries))
	for _, entry := range entries {
		suggestions = append(suggestions, Suggestion{
			ReplacementText:   entry.Text,
			ReplaceSpanLength: len(ctx.PartialWord),
			DisplayText:       entry.Text,
			Description:       e.meta.Describe(entry.Text, ctx),
		})
	}
	return suggestions
}

// completeParameters suggests --flag/-f tokens for the resolved command
// path. Parameter candidates come only from index entries that start with
// a dash, filtered by plain prefix match on the partial token.
func (e *Engine) completeParameters(ctx CompletionContext) []Suggestion {
	if ctx.Prefix == "" {
		return nil
	}

	var out []Suggestion
	for _, token := range e.index.Lookup(ctx.Prefix) {
		if !strings.HasPrefix(token, "-") {
			continue
		}
		if !strings.HasPrefix(token, ctx.PartialWord) {
			continue
		}
		out = append(out, Suggestion{
			ReplacementText:   token,
			ReplaceSpanLength: len(ctx.PartialWord),
			DisplayText:       token,
			Description:       e.meta.Describe(token, ctx),
		})
	}
	return out
}
