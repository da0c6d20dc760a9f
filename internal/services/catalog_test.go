package services

import (
	"context"
	"testing"
)

func TestSoftDeleteAndRestoreStudent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := mustStudent(t, s, "Ana Lopez")

	if err := s.SoftDeleteStudent(ctx, "admin", id); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	active, err := s.ListStudents(ctx, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expected no active students, got %d", len(active))
	}
	all, err := s.ListStudents(ctx, true)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 1 || all[0].Active {
		t.Fatalf("expected one inactive student, got %+v", all)
	}

	if err := s.RestoreStudent(ctx, "admin", id); err != nil {
		t.Fatalf("restore: %v", err)
	}
	student, err := s.GetStudent(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !student.Active || student.Name != "Ana Lopez" {
		t.Fatalf("expected restored student, got %+v", student)
	}

	entries := auditFor(t, s, TableStudents, id)
	if len(entries) != 3 {
		t.Fatalf("expected insert plus two toggles, got %d entries", len(entries))
	}
	if entries[1].Action != ActionDelete || entries[2].Action != ActionUpdate {
		t.Fatalf("unexpected actions %s, %s", entries[1].Action, entries[2].Action)
	}
	before, err := DecodeSnapshot(TableStudents, entries[1].BeforeJSON)
	if err != nil {
		t.Fatalf("decode before: %v", err)
	}
	after, err := DecodeSnapshot(TableStudents, entries[1].AfterJSON)
	if err != nil {
		t.Fatalf("decode after: %v", err)
	}
	if !before.(StudentSnapshot).Active || after.(StudentSnapshot).Active {
		t.Fatalf("delete entry should flip active: before=%+v after=%+v", before, after)
	}
	if entries[1].Actor == nil || *entries[1].Actor != "admin" {
		t.Fatalf("expected actor admin, got %v", entries[1].Actor)
	}
}

func TestSoftDeleteMissingIsNoop(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.SoftDeleteStudent(ctx, "admin", 404); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if err := s.RestorePlace(ctx, "admin", 404); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	entries, err := s.ListAudit(ctx, AuditFilter{})
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no audit entries, got %d", len(entries))
	}
}

func TestSoftDeletePlaceHidesIt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	keep := mustPlace(t, s, "Library")
	gone := mustPlace(t, s, "Clinic")
	if err := s.SoftDeletePlace(ctx, "admin", gone); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	places, err := s.ListPlaces(ctx, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(places) != 1 || places[0].ID != keep {
		t.Fatalf("expected only place %d, got %+v", keep, places)
	}
	entries := auditFor(t, s, TablePlaces, gone)
	if len(entries) != 2 || entries[1].Action != ActionDelete {
		t.Fatalf("unexpected audit trail %+v", entries)
	}
}

func TestInsertStudentValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	cases := []StudentInput{
		{Name: "   ", Program: "Law"},
		{Name: "Ana", Program: ""},
	}
	for _, input := range cases {
		if _, err := s.InsertStudent(ctx, "admin", input); !IsKind(err, KindValidation) {
			t.Fatalf("input %+v: expected validation error, got %v", input, err)
		}
	}
	if _, err := s.InsertPlace(ctx, "admin", PlaceInput{Name: ""}); !IsKind(err, KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	id, err := s.InsertStudent(ctx, "admin", StudentInput{Name: "  Ana  ", Program: " Law "})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	student, err := s.GetStudent(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if student.Name != "Ana" || student.Program != "Law" {
		t.Fatalf("expected trimmed fields, got %+v", student)
	}
}

func TestGetMissingStudent(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetStudent(context.Background(), 99); !IsKind(err, KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
