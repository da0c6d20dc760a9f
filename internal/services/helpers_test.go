package services

import (
	"context"
	"path/filepath"
	"testing"

	"servicehours-backend-go/internal/db"
	"servicehours-backend-go/internal/migrations"
	"servicehours-backend-go/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.Open("sqlite://" + filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	if err := migrations.Apply(database); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	ids := NewIDAllocator(database)
	if err := ids.Init(context.Background()); err != nil {
		t.Fatalf("id counters: %v", err)
	}
	return NewStore(database, ids)
}

func mustStudent(t *testing.T, s *Store, name string) int64 {
	t.Helper()
	id, err := s.InsertStudent(context.Background(), "admin", StudentInput{Name: name, Program: "Computer Science"})
	if err != nil {
		t.Fatalf("insert student: %v", err)
	}
	return id
}

func mustPlace(t *testing.T, s *Store, name string) int64 {
	t.Helper()
	id, err := s.InsertPlace(context.Background(), "admin", PlaceInput{Name: name})
	if err != nil {
		t.Fatalf("insert place: %v", err)
	}
	return id
}

func mustRecord(t *testing.T, s *Store, input RecordInput) int64 {
	t.Helper()
	if input.Activity == "" {
		input.Activity = "Tutoring"
	}
	if input.Date.IsZero() {
		input.Date = models.NewDate(2025, 3, 10)
	}
	if input.Year == 0 {
		input.Year = 2025
	}
	if input.Term == 0 {
		input.Term = 1
	}
	id, err := s.InsertRecord(context.Background(), "admin", input)
	if err != nil {
		t.Fatalf("insert record: %v", err)
	}
	return id
}

func auditFor(t *testing.T, s *Store, table string, id int64) []models.AuditEntry {
	t.Helper()
	entries, err := s.ListAudit(context.Background(), AuditFilter{Table: table, EntityID: &id})
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	return entries
}
