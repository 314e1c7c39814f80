// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package completion

import (
	"strings"
	"unicode"
)

// =============================================================================
// COMPLETION CONTEXT
// =============================================================================

// CompletionContext describes what the user is in the middle of typing.
type CompletionContext struct {
	// Prefix is the already-typed command path ("" at top level)
	Prefix string

	// PartialWord is the token being typed; it is both the match target
	// and the span the front end replaces on accept
	PartialWord string

	// IsParameterContext is true when the user is typing a --flag/-f token
	IsParameterContext bool
}

// ContextResolver classifies raw pre-cursor text into a CompletionContext.
type ContextResolver struct {
	aliases *AliasResolver
}

// NewContextResolver creates a resolver that canonicalizes parameter-mode
// prefixes through the given alias resolver.
func NewContextResolver(aliases *AliasResolver) *ContextResolver {
	return &ContextResolver{aliases: aliases}
}

// Resolve parses the text before the cursor.
//
// The trailing-whitespace distinction matters for single-token input:
// "database " (trailing space) means the module is complete and the user
// is about to type a sub-command, while "database" means the module name
// itself is still being typed.
func (r *ContextResolver) Resolve(textBeforeCursor string) CompletionContext {
	tokens := strings.Fields(textBeforeCursor)
	if len(tokens) == 0 {
		return CompletionContext{}
	}

	last := tokens[len(tokens)-1]
	if strings.HasPrefix(last, "-") {
		prefix := strings.Join(tokens[:len(tokens)-1], " ")
		if r.aliases != nil {
			prefix = r.aliases.ResolveCommand(prefix)
		}
		return CompletionContext{
			Prefix:             prefix,
			PartialWord:        last,
			IsParameterContext: true,
		}
	}

	endsWithSpace := endsWithWhitespace(textBeforeCursor)

	switch {
	case len(tokens) == 1 && endsWithSpace:
		return CompletionContext{Prefix: tokens[0], PartialWord: ""}
	case len(tokens) == 1:
		return CompletionContext{Prefix: "", PartialWord: tokens[0]}
	case len(tokens) == 2:
		return CompletionContext{Prefix: tokens[0], PartialWord: tokens[1]}
	default:
		return CompletionContext{
			Prefix:      strings.Join(tokens[:len(tokens)-1], " "),
			PartialWord: tokens[len(tokens)-1],
		}
	}
}

func endsWithWhitespace(s string) bool {
	if s == "" {
		return false
	}
	runes := []rune(s)
	return unicode.IsSpace(runes[len(runes)-1])
}
