// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package modules

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/replsh/internal/config"
	"github.com/jeranaias/replsh/internal/registry"
	"github.com/jeranaias/replsh/internal/util"
)

// ErrExit signals that the user asked to leave the shell. The REPL loop
// treats it as a clean shutdown, not a command failure.
var ErrExit = errors.New("exit requested")

// =============================================================================
// STYLES
// =============================================================================

var (
	// Section heading style
	headingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("99")).
			Bold(true)

	// Command name style
	commandStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	// Secondary text style
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))
)

// =============================================================================
// CORE COMMANDS
// =============================================================================

// registerCore installs the bare shell commands. Core commands are keyed
// by their bare name, without a module segment.
func registerCore(reg *registry.Registry, version string) error {
	commands := []registry.Command{
		{
			Name:        "help",
			Description: "Show available modules and commands\nWith an argument, show help for that module.",
			Run:         runHelp,
		},
		{
			Name:        "version",
			Description: "Print the shell version",
			Run: func(ctx *registry.Context, _ registry.Args) error {
				fmt.Fprintf(ctx.Out, "replsh %s\n", version)
				return nil
			},
		},
		{
			Name:        "exit",
			Description: "Leave the shell",
			Aliases:     []string{"quit"},
			Run: func(_ *registry.Context, _ registry.Args) error {
				return ErrExit
			},
		},
		{
			Name:        "modules",
			Description: "List loaded and declared modules",
			Run:         runModules,
		},
		{
			Name:        "alias",
			Description: "List command aliases, or bind a new one\nUsage: alias [<name> <target...>]",
			Run:         runAlias,
		},
	}

	for _, cmd := range commands {
		if err := reg.RegisterCommand(registry.CoreModule, cmd); err != nil {
			return err
		}
	}
	return nil
}

func runHelp(ctx *registry.Context, args registry.Args) error {
	if len(args.Positional) > 0 {
		return helpForModule(ctx, args.Positional[0])
	}

	fmt.Fprintln(ctx.Out, headingStyle.Render("Core commands"))
	for _, name := range ctx.Registry.ListModuleCommands(registry.CoreModule) {
		h, ok := ctx.Registry.CommandInfo(name)
		if !ok {
			continue
		}
		fmt.Fprintf(ctx.Out, "  %s  %s\n", commandStyle.Render(padRight(name, 12)), util.TruncateRunes(h.DocLine(), helpDescWidth))
	}

	fmt.Fprintln(ctx.Out)
	fmt.Fprintln(ctx.Out, headingStyle.Render("Modules"))
	for _, m := range ctx.Registry.ListModules() {
		if m.Name == registry.CoreModule {
			continue
		}
		fmt.Fprintf(ctx.Out, "  %s  %s\n", commandStyle.Render(padRight(displayName(m), 12)), firstLine(m.Description))
	}
	for _, m := range ctx.Registry.LazyModules() {
		fmt.Fprintf(ctx.Out, "  %s  %s\n",
			commandStyle.Render(padRight(displayName(m), 12)),
			firstLine(m.Description)+dimStyle.Render(" (not loaded)"))
	}
	return nil
}

func helpForModule(ctx *registry.Context, name string) error {
	canonical, ok := ctx.Registry.ResolveModuleName(name)
	if !ok {
		return fmt.Errorf("unknown module %q", name)
	}

	fmt.Fprintln(ctx.Out, headingStyle.Render(canonical))
	commands := ctx.Registry.ListModuleCommands(canonical)
	if len(commands) == 0 {
		if declared, ok := ctx.Registry.LazyModuleCommands()[canonical]; ok {
			commands = declared
			fmt.Fprintln(ctx.Out, dimStyle.Render("  (module not loaded yet)"))
		}
	}
	for _, cmd := range commands {
		line := ""
		if h, ok := ctx.Registry.CommandInfo(canonical + " " + cmd); ok {
			line = util.TruncateRunes(h.DocLine(), helpDescWidth)
			for _, p := range h.Params {
				line += dimStyle.Render(" [" + p.LongFlag + "]")
			}
		}
		fmt.Fprintf(ctx.Out, "  %s  %s\n", commandStyle.Render(padRight(cmd, 12)), line)
	}
	return nil
}

func runModules(ctx *registry.Context, _ registry.Args) error {
	for _, m := range ctx.Registry.ListModules() {
		if m.Name == registry.CoreModule {
			continue
		}
		fmt.Fprintf(ctx.Out, "%s  loaded\n", padRight(displayName(m), 16))
	}
	for _, m := range ctx.Registry.LazyModules() {
		fmt.Fprintf(ctx.Out, "%s  %s\n", padRight(displayName(m), 16), dimStyle.Render("declared"))
	}
	return nil
}

func runAlias(ctx *registry.Context, args registry.Args) error {
	if len(args.Positional) == 0 {
		aliases := ctx.Registry.AllAliases()
		names := make([]string, 0, len(aliases))
		for alias := range aliases {
			names = append(names, alias)
		}
		sort.Strings(names)
		for _, alias := range names {
			fmt.Fprintf(ctx.Out, "%s = %s\n", padRight(alias, 16), aliases[alias])
		}
		return nil
	}
	if len(args.Positional) < 2 {
		return errors.New("usage: alias <name> <target...>")
	}

	alias := args.Positional[0]
	target := strings.Join(args.Positional[1:], " ")
	if _, ok := ctx.Registry.CommandInfo(target); !ok {
		return fmt.Errorf("alias target %q is not a known command", target)
	}
	if err := ctx.Registry.RegisterAlias(alias, target); err != nil {
		return err
	}
	if err := persistAlias(alias, target); err != nil {
		return fmt.Errorf("alias bound for this session, but saving it failed: %w", err)
	}
	return nil
}

// persistAlias records the binding in the [aliases] table of the config
// file so it survives restarts.
func persistAlias(alias, target string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.Aliases[alias] = target
	return config.Save(cfg)
}

// =============================================================================
// HELPERS
// =============================================================================

func displayName(m registry.ModuleDescriptor) string {
	if m.Alias != "" {
		return m.Name + " (" + m.Alias + ")"
	}
	return m.Name
}

// helpDescWidth bounds one-line descriptions in help and module listings.
const helpDescWidth = 64

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return util.TruncateRunes(line, helpDescWidth)
}

func padRight(s string, width int) string {
	return util.PadRight(s, width)
}
