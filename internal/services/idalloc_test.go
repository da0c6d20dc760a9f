package services

import (
	"context"
	"testing"
)

func TestNextIsStrictlyIncreasing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	var last int64
	for i := 0; i < 5; i++ {
		id := mustPlace(t, s, "Place")
		if id <= last {
			t.Fatalf("id %d not greater than %d", id, last)
		}
		last = id
	}
	if last != 5 {
		t.Fatalf("expected ids starting at 1, last = %d", last)
	}

	restarted := NewIDAllocator(s.DB)
	if err := restarted.Init(ctx); err != nil {
		t.Fatalf("reinit: %v", err)
	}
	s.IDs = restarted
	if id := mustPlace(t, s, "After restart"); id != 6 {
		t.Fatalf("expected 6 after restart, got %d", id)
	}
}

func TestNextSkipsExternallySeededRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustStudent(t, s, "First")
	if _, err := s.DB.ExecContext(ctx, `INSERT INTO students (id, name, program, active) VALUES (50, 'Imported', 'Law', TRUE)`); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if id := mustStudent(t, s, "Next"); id != 51 {
		t.Fatalf("expected 51, got %d", id)
	}
}

func TestNextRejectsUnknownTable(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.IDs.Next(context.Background(), s.DB, "sqlite_master"); err == nil {
		t.Fatal("expected error for unknown table")
	}
}

func TestInitReseedsFromExistingRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if _, err := s.DB.ExecContext(ctx, `INSERT INTO places (id, name, active) VALUES (7, 'Legacy', TRUE)`); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := s.IDs.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	var value int64
	if err := s.DB.GetContext(ctx, &value, `SELECT value FROM id_counters WHERE name = 'places'`); err != nil {
		t.Fatalf("read counter: %v", err)
	}
	if value != 7 {
		t.Fatalf("expected counter 7, got %d", value)
	}
}
