// Package migrations creates the tables, stored routines and starter menu
// the webhook relies on.  Every statement is re-runnable: tables use
// IF NOT EXISTS, routines are dropped and recreated, and the seed uses
// INSERT IGNORE.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

//go:embed sql/*.sql
var files embed.FS

// separator splits a file into statements.  Routine bodies contain plain
// semicolons, so a line holding only ";;" marks the end of a statement.
var separator = regexp.MustCompile(`(?m)^;;[ \t]*\r?$`)

// Statement is one executable SQL statement and the file it came from.
type Statement struct {
	File string
	SQL  string
}

// Statements returns every statement in file-name order.
func Statements() ([]Statement, error) {
	names, err := fs.Glob(files, "sql/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	var out []Statement
	for _, name := range names {
		body, err := files.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		for _, part := range separator.Split(string(body), -1) {
			if stmt := strings.TrimSpace(part); stmt != "" {
				out = append(out, Statement{File: strings.TrimPrefix(name, "sql/"), SQL: stmt})
			}
		}
	}
	return out, nil
}

// Apply executes all statements against db in order and stops at the first
// failure.
func Apply(ctx context.Context, db *sql.DB, log zerolog.Logger) error {
	stmts, err := Statements()
	if err != nil {
		return err
	}
	for i, st := range stmts {
		if _, err := db.ExecContext(ctx, st.SQL); err != nil {
			return fmt.Errorf("migration %s (statement %d): %w", st.File, i+1, err)
		}
		log.Debug().Str("file", st.File).Int("statement", i+1).Msg("migration applied")
	}
	log.Info().Int("statements", len(stmts)).Msg("schema up to date")
	return nil
}
