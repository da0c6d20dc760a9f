package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"servicehours-backend-go/internal/models"
)

type StudentInput struct {
	Name    string `json:"name" validate:"required,max=200"`
	Program string `json:"program" validate:"required,max=200"`
}

type PlaceInput struct {
	Name string `json:"name" validate:"required,max=200"`
}

func (s *Store) InsertStudent(ctx context.Context, actor string, input StudentInput) (int64, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Program = strings.TrimSpace(input.Program)
	if err := s.validateInput(input); err != nil {
		return 0, err
	}
	var id int64
	err := s.mutate(ctx, actor, func(m *mutation) error {
		next, err := m.ids.Next(ctx, m.tx, TableStudents)
		if err != nil {
			return err
		}
		id = next
		if _, err := m.tx.ExecContext(ctx, m.rebind(`
INSERT INTO students (id, name, program, active) VALUES (?, ?, ?, TRUE)
`), id, input.Name, input.Program); err != nil {
			return storageError(err, "insert student")
		}
		after := models.Student{ID: id, Name: input.Name, Program: input.Program, Active: true}
		return m.audit(ctx, ActionInsert, id, nil, studentSnapshot(after))
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Store) ListStudents(ctx context.Context, includeInactive bool) ([]models.Student, error) {
	query := `SELECT id, name, program, active FROM students`
	if !includeInactive {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY id`
	items := []models.Student{}
	if err := s.DB.SelectContext(ctx, &items, query); err != nil {
		return nil, WrapError(err, "list students")
	}
	return items, nil
}

func (s *Store) GetStudent(ctx context.Context, id int64) (models.Student, error) {
	var item models.Student
	err := s.DB.GetContext(ctx, &item, s.DB.Rebind(`SELECT id, name, program, active FROM students WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Student{}, ErrNotFound("Student not found")
	}
	if err != nil {
		return models.Student{}, WrapError(err, "get student")
	}
	return item, nil
}

// SoftDeleteStudent marks the student inactive. A missing id is a no-op.
func (s *Store) SoftDeleteStudent(ctx context.Context, actor string, id int64) error {
	return s.setStudentActive(ctx, actor, id, false)
}

// RestoreStudent marks the student active again. A missing id is a no-op.
func (s *Store) RestoreStudent(ctx context.Context, actor string, id int64) error {
	return s.setStudentActive(ctx, actor, id, true)
}

func (s *Store) setStudentActive(ctx context.Context, actor string, id int64, active bool) error {
	return s.mutate(ctx, actor, func(m *mutation) error {
		var before models.Student
		err := m.tx.GetContext(ctx, &before, m.rebind(`SELECT id, name, program, active FROM students WHERE id = ?`), id)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return WrapError(err, "load student")
		}
		if _, err := m.tx.ExecContext(ctx, m.rebind(`UPDATE students SET active = ? WHERE id = ?`), active, id); err != nil {
			return storageError(err, "update student")
		}
		after := before
		after.Active = active
		return m.audit(ctx, toggleAction(active), id, studentSnapshot(before), studentSnapshot(after))
	})
}

func (s *Store) InsertPlace(ctx context.Context, actor string, input PlaceInput) (int64, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := s.validateInput(input); err != nil {
		return 0, err
	}
	var id int64
	err := s.mutate(ctx, actor, func(m *mutation) error {
		next, err := m.ids.Next(ctx, m.tx, TablePlaces)
		if err != nil {
			return err
		}
		id = next
		if _, err := m.tx.ExecContext(ctx, m.rebind(`
INSERT INTO places (id, name, active) VALUES (?, ?, TRUE)
`), id, input.Name); err != nil {
			return storageError(err, "insert place")
		}
		after := models.Place{ID: id, Name: input.Name, Active: true}
		return m.audit(ctx, ActionInsert, id, nil, placeSnapshot(after))
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Store) ListPlaces(ctx context.Context, includeInactive bool) ([]models.Place, error) {
	query := `SELECT id, name, active FROM places`
	if !includeInactive {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY id`
	items := []models.Place{}
	if err := s.DB.SelectContext(ctx, &items, query); err != nil {
		return nil, WrapError(err, "list places")
	}
	return items, nil
}

func (s *Store) GetPlace(ctx context.Context, id int64) (models.Place, error) {
	var item models.Place
	err := s.DB.GetContext(ctx, &item, s.DB.Rebind(`SELECT id, name, active FROM places WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Place{}, ErrNotFound("Place not found")
	}
	if err != nil {
		return models.Place{}, WrapError(err, "get place")
	}
	return item, nil
}

func (s *Store) SoftDeletePlace(ctx context.Context, actor string, id int64) error {
	return s.setPlaceActive(ctx, actor, id, false)
}

func (s *Store) RestorePlace(ctx context.Context, actor string, id int64) error {
	return s.setPlaceActive(ctx, actor, id, true)
}

func (s *Store) setPlaceActive(ctx context.Context, actor string, id int64, active bool) error {
	return s.mutate(ctx, actor, func(m *mutation) error {
		var before models.Place
		err := m.tx.GetContext(ctx, &before, m.rebind(`SELECT id, name, active FROM places WHERE id = ?`), id)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return WrapError(err, "load place")
		}
		if _, err := m.tx.ExecContext(ctx, m.rebind(`UPDATE places SET active = ? WHERE id = ?`), active, id); err != nil {
			return storageError(err, "update place")
		}
		after := before
		after.Active = active
		return m.audit(ctx, toggleAction(active), id, placeSnapshot(before), placeSnapshot(after))
	})
}

// Deactivation is audited as DELETE, reactivation as UPDATE.
func toggleAction(active bool) string {
	if active {
		return ActionUpdate
	}
	return ActionDelete
}
