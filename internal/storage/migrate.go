package storage

// Schema migrations ship inside the binary so a fresh database needs no
// files on disk. Versions are ordered by filename; each version has a
// matching .up.sql and .down.sql.

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
)

//go:embed migrations/*.sql
var schemaFS embed.FS

// MigrateUp applies every up migration in version order. Statements run
// outside a transaction; SQLite DDL mostly auto-commits anyway.
func MigrateUp(db *sql.DB) error {
	return runMigrations(db, ".up.sql", false)
}

// MigrateDown rolls the schema back, applying down migrations newest
// first.
func MigrateDown(db *sql.DB) error {
	return runMigrations(db, ".down.sql", true)
}

func runMigrations(db *sql.DB, suffix string, newestFirst bool) error {
	names, err := fs.Glob(schemaFS, "migrations/*"+suffix)
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)
	if newestFirst {
		for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
			names[i], names[j] = names[j], names[i]
		}
	}
	for _, name := range names {
		stmt, err := schemaFS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := db.Exec(string(stmt)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}
