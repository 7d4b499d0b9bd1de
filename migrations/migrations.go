// Package migrations embeds the goose migrations for the SQL stores.
package migrations

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS

// Dialect selects the migration set and the goose dialect.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// Up applies every pending migration for d.
func Up(db *sql.DB, d Dialect) error {
	var gooseDialect string
	switch d {
	case Postgres:
		gooseDialect = "postgres"
	case SQLite:
		gooseDialect = "sqlite3"
	default:
		return fmt.Errorf("unknown migration dialect %q", d)
	}

	goose.SetBaseFS(FS)
	if err := goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.Up(db, string(d)); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}
