// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package modules

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/replsh/internal/registry"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrNotConnected     = errors.New("not connected; run \"database connect\" first")
	ErrAlreadyConnected = errors.New("already connected; run \"database disconnect\" first")
)

// defaultQueryLimit caps printed rows when --limit is not given.
const defaultQueryLimit = 50

// =============================================================================
// DATABASE MODULE
// =============================================================================

// dbState holds the single shared connection of the database module.
type dbState struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

var database dbState

// DatabaseModule returns the SQLite client module. It is loaded eagerly at
// startup.
func DatabaseModule() registry.Module {
	return registry.Module{
		Name:        "database",
		Alias:       "db",
		Description: "SQLite client commands",
		Commands: []registry.Command{
			{
				Name:        "connect",
				Description: "Open a SQLite database file",
				Aliases:     []string{"db conn"},
				Params: []registry.ParameterSpec{
					{Name: "path", LongFlag: "--path", ShortFlag: "-p", Description: "database file path", Required: true},
				},
				Run: database.connect,
			},
			{
				Name:        "disconnect",
				Description: "Close the current database connection",
				Run:         database.disconnect,
			},
			{
				Name:        "query",
				Description: "Run a SQL statement and print the rows",
				Aliases:     []string{"db q"},
				Params: []registry.ParameterSpec{
					{Name: "sql", LongFlag: "--sql", ShortFlag: "-s", Description: "statement text", Required: true},
					{Name: "limit", LongFlag: "--limit", ShortFlag: "-l", Description: "maximum rows to print", Default: strconv.Itoa(defaultQueryLimit), HasDefault: true},
				},
				Run: database.query,
			},
			{
				Name:        "tables",
				Description: "List tables in the connected database",
				Run:         database.tables,
			},
			{
				Name:        "status",
				Description: "Show connection state",
				Run:         database.status,
			},
		},
	}
}

func (s *dbState) connect(ctx *registry.Context, args registry.Args) error {
	path, ok := args.Flag("path")
	if !ok || path == "" {
		return errors.New("--path is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return ErrAlreadyConnected
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("opening %s: %w", path, err)
	}

	s.db = db
	s.path = path
	fmt.Fprintf(ctx.Out, "connected to %s\n", path)
	return nil
}

func (s *dbState) disconnect(ctx *registry.Context, _ registry.Args) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return ErrNotConnected
	}

	err := s.db.Close()
	s.db = nil
	s.path = ""
	if err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	fmt.Fprintln(ctx.Out, "disconnected")
	return nil
}

func (s *dbState) query(ctx *registry.Context, args registry.Args) error {
	statement, ok := args.Flag("sql")
	if !ok || strings.TrimSpace(statement) == "" {
		return errors.New("--sql is required")
	}
	limit := defaultQueryLimit
	if v, ok := args.Flag("limit"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			return fmt.Errorf("invalid --limit %q", v)
		}
		limit = parsed
	}

	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db == nil {
		return ErrNotConnected
	}

	rows, err := db.Query(statement)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("reading columns: %w", err)
	}
	fmt.Fprintln(ctx.Out, strings.Join(columns, "\t"))

	values := make([]any, len(columns))
	scan := make([]any, len(columns))
	for i := range values {
		scan[i] = &values[i]
	}

	printed := 0
	for rows.Next() {
		if printed >= limit {
			fmt.Fprintf(ctx.Out, "... (limit %d reached)\n", limit)
			break
		}
		if err := rows.Scan(scan...); err != nil {
			return fmt.Errorf("scanning row: %w", err)
		}
		fields := make([]string, len(values))
		for i, v := range values {
			fields[i] = formatValue(v)
		}
		fmt.Fprintln(ctx.Out, strings.Join(fields, "\t"))
		printed++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("reading rows: %w", err)
	}
	fmt.Fprintf(ctx.Out, "%d row(s)\n", printed)
	return nil
}

func (s *dbState) tables(ctx *registry.Context, _ registry.Args) error {
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db == nil {
		return ErrNotConnected
	}

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`)
	if err != nil {
		return fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("scanning table name: %w", err)
		}
		fmt.Fprintln(ctx.Out, name)
	}
	return rows.Err()
}

func (s *dbState) status(ctx *registry.Context, _ registry.Args) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		fmt.Fprintln(ctx.Out, "not connected")
		return nil
	}
	fmt.Fprintf(ctx.Out, "connected to %s\n", s.path)
	return nil
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}
