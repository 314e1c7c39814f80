// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package shell

import (
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/jeranaias/replsh/internal/completion"
)

// fallbackWidth is used when the output is not a terminal.
const fallbackWidth = 80

// terminalWidth reports the current terminal width in cells.
func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return fallbackWidth
	}
	return width
}

// renderSuggestionTable lays out suggestions in two columns: the candidate
// text padded to a common width, then its description truncated to fit the
// terminal. Widths are measured in display cells, not bytes.
func renderSuggestionTable(suggestions []completion.Suggestion, width int) string {
	if len(suggestions) == 0 {
		return ""
	}

	nameWidth := 0
	for _, s := range suggestions {
		if w := runewidth.StringWidth(s.DisplayText); w > nameWidth {
			nameWidth = w
		}
	}

	var b strings.Builder
	for _, s := range suggestions {
		b.WriteString("  ")
		b.WriteString(runewidth.FillRight(s.DisplayText, nameWidth))
		if s.Description != "" {
			b.WriteString("  ")
			remaining := width - nameWidth - 4
			if remaining > 3 {
				b.WriteString(runewidth.Truncate(s.Description, remaining, "..."))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
