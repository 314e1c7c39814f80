// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package shell

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/jeranaias/replsh/internal/registry"
)

// =============================================================================
// LINE TOKENIZING
// =============================================================================

// splitLine splits a command line into tokens, respecting quotes.
// Supports both single and double quotes for arguments with spaces.
func splitLine(input string) []string {
	var tokens []string
	var current strings.Builder
	var inSingleQuote, inDoubleQuote bool

	for i := 0; i < len(input); i++ {
		char := rune(input[i])

		switch {
		case char == '\'' && !inDoubleQuote:
			inSingleQuote = !inSingleQuote

		case char == '"' && !inSingleQuote:
			inDoubleQuote = !inDoubleQuote

		case char == '\\' && i+1 < len(input) && (inDoubleQuote || inSingleQuote):
			next := rune(input[i+1])
			if next == '"' || next == '\'' || next == '\\' {
				current.WriteRune(next)
				i++
			} else {
				current.WriteRune(char)
			}

		case unicode.IsSpace(char) && !inSingleQuote && !inDoubleQuote:
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}

		default:
			current.WriteRune(char)
		}
	}

	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	return tokens
}

// =============================================================================
// FLAG BINDING
// =============================================================================

// bindArgs matches raw tokens against a command's parameter schema.
// Both "--flag value" and "--flag=value" forms are accepted, long or short.
// Unknown flags are rejected; missing required parameters are rejected
// after defaults are applied. Remaining tokens become positionals.
func bindArgs(params []registry.ParameterSpec, tokens []string) (registry.Args, error) {
	args := registry.Args{Flags: make(map[string]string)}

	for i := 0; i < len(tokens); i++ {
		token := tokens[i]
		if !strings.HasPrefix(token, "-") {
			args.Positional = append(args.Positional, token)
			continue
		}

		flag, inline, hasInline := strings.Cut(token, "=")
		spec, ok := findParam(params, flag)
		if !ok {
			return registry.Args{}, fmt.Errorf("unknown flag %q", flag)
		}

		if hasInline {
			args.Flags[spec.Name] = inline
			continue
		}
		if i+1 >= len(tokens) {
			return registry.Args{}, fmt.Errorf("flag %q requires a value", flag)
		}
		args.Flags[spec.Name] = tokens[i+1]
		i++
	}

	for _, spec := range params {
		if _, ok := args.Flags[spec.Name]; ok {
			continue
		}
		if spec.HasDefault {
			args.Flags[spec.Name] = spec.Default
			continue
		}
		if spec.Required {
			return registry.Args{}, fmt.Errorf("missing required flag %s", spec.LongFlag)
		}
	}

	return args, nil
}

func findParam(params []registry.ParameterSpec, flag string) (registry.ParameterSpec, bool) {
	for _, spec := range params {
		if spec.LongFlag == flag || (spec.ShortFlag != "" && spec.ShortFlag == flag) {
			return spec, true
		}
	}
	return registry.ParameterSpec{}, false
}
