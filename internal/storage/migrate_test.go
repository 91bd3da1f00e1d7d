package storage

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"
)

func TestMigrateRoundTripCompatibility(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "schema.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("migrate up: %v", err)
	}
	if err := MigrateDown(db); err != nil {
		t.Fatalf("migrate down: %v", err)
	}

	// Down must actually drop the schema, not just truncate it.
	var n int
	err = db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'tasks'`).Scan(&n)
	if err != nil {
		t.Fatalf("inspect schema: %v", err)
	}
	if n != 0 {
		t.Fatalf("tasks table survived migrate down")
	}

	if err := MigrateUp(db); err != nil {
		t.Fatalf("migrate up after down: %v", err)
	}

	repo, err := NewSQLiteRepository(db)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	created := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	if err := repo.CreateTask(t.Context(), Task{
		ID:        "task-schema-1",
		Title:     "Schema check",
		Status:    "TODO",
		Priority:  "MEDIUM",
		CreatedAt: created,
	}); err != nil {
		t.Fatalf("insert after roundtrip: %v", err)
	}
	got, err := repo.GetTask(t.Context(), "task-schema-1")
	if err != nil {
		t.Fatalf("get after roundtrip: %v", err)
	}
	if got.Title != "Schema check" {
		t.Fatalf("unexpected title after roundtrip: %q", got.Title)
	}
}
