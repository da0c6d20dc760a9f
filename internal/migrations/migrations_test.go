package migrations

import (
	"path/filepath"
	"testing"
	"testing/fstest"

	"servicehours-backend-go/internal/db"
)

func TestApplyIsIdempotent(t *testing.T) {
	database, err := db.Open("sqlite://" + filepath.Join(t.TempDir(), "m.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer database.Close()

	if err := Apply(database); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if err := Apply(database); err != nil {
		t.Fatalf("second apply: %v", err)
	}

	var count int
	if err := database.Get(&count, `SELECT count(*) FROM schema_migrations`); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 recorded migrations, got %d", count)
	}
	for _, table := range []string{"students", "places", "records", "audit", "users", "admin_codes", "id_counters"} {
		var n int
		if err := database.Get(&n, `SELECT count(*) FROM `+table); err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestListMigrationsOrdersByVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"m/V10__later.sql": {Data: []byte("SELECT 1;")},
		"m/V2__second.sql": {Data: []byte("SELECT 1;")},
		"m/V1__first.sql":  {Data: []byte("SELECT 1;")},
		"m/notes.sql":      {Data: []byte("SELECT 1;")},
		"m/readme.txt":     {Data: []byte("skip")},
	}
	migs, err := listMigrations(fsys, "m")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"V1__first.sql", "V2__second.sql", "V10__later.sql", "notes.sql"}
	if len(migs) != len(want) {
		t.Fatalf("expected %d migrations, got %d", len(want), len(migs))
	}
	for i, name := range want {
		if migs[i].Name != name {
			t.Errorf("position %d: expected %s, got %s", i, name, migs[i].Name)
		}
	}
}

func TestApplyFSFailureIsNotRecorded(t *testing.T) {
	database, err := db.Open("sqlite://" + filepath.Join(t.TempDir(), "bad.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer database.Close()

	fsys := fstest.MapFS{
		"m/V1__broken.sql": {Data: []byte("CREATE TABLE (;")},
	}
	if err := ApplyFS(database, fsys, "m"); err == nil {
		t.Fatal("expected broken migration to fail")
	}
	var count int
	if err := database.Get(&count, `SELECT count(*) FROM schema_migrations`); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("failed migration should not be recorded, got %d rows", count)
	}
}
