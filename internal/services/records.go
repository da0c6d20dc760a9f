package services

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"strings"

	"servicehours-backend-go/internal/models"
)

type RecordInput struct {
	StudentID int64       `json:"studentId" validate:"required,gt=0"`
	PlaceID   int64       `json:"placeId" validate:"required,gt=0"`
	Activity  string      `json:"activity" validate:"required,max=500"`
	Date      models.Date `json:"date" validate:"-"`
	Hours     float64     `json:"hours" validate:"gt=0"`
	Year      int         `json:"year" validate:"gte=2000,lte=2100"`
	Term      int         `json:"term" validate:"oneof=1 2"`
}

// RecordFilter predicates are AND-combined; nil fields do not filter.
type RecordFilter struct {
	PendingOnly     bool
	StudentID       *int64
	Year            *int
	Term            *int
	IncludeInactive bool
}

// StudentStatus summarizes a student's hours for one term.
type StudentStatus struct {
	StudentID   int64   `json:"studentId"`
	Year        int     `json:"year"`
	Term        int     `json:"term"`
	Total       float64 `json:"total"`
	Validated   float64 `json:"validated"`
	Requirement float64 `json:"requirement"`
	Remaining   float64 `json:"remaining"`
}

const recordColumns = `id, student_id, place_id, activity, date, hours, year, term, validated, validator`

func (s *Store) InsertRecord(ctx context.Context, actor string, input RecordInput) (int64, error) {
	input.Activity = strings.TrimSpace(input.Activity)
	if err := s.validateInput(input); err != nil {
		return 0, err
	}
	if input.Date.IsZero() {
		return 0, ErrBadRequest("date is required")
	}
	var id int64
	err := s.mutate(ctx, actor, func(m *mutation) error {
		if err := m.requireExists(ctx, TableStudents, input.StudentID, "Student not found"); err != nil {
			return err
		}
		if err := m.requireExists(ctx, TablePlaces, input.PlaceID, "Place not found"); err != nil {
			return err
		}
		next, err := m.ids.Next(ctx, m.tx, TableRecords)
		if err != nil {
			return err
		}
		id = next
		if _, err := m.tx.ExecContext(ctx, m.rebind(`
INSERT INTO records (`+recordColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, FALSE, NULL)
`), id, input.StudentID, input.PlaceID, input.Activity, input.Date, input.Hours, input.Year, input.Term); err != nil {
			return storageError(err, "insert record")
		}
		var after models.Record
		if err := m.tx.GetContext(ctx, &after, m.rebind(`SELECT `+recordColumns+` FROM records WHERE id = ?`), id); err != nil {
			return WrapError(err, "reload record")
		}
		return m.audit(ctx, ActionInsert, id, nil, recordSnapshot(after))
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (m *mutation) requireExists(ctx context.Context, table string, id int64, message string) error {
	var exists bool
	if err := m.tx.GetContext(ctx, &exists, m.rebind(`SELECT EXISTS(SELECT 1 FROM `+table+` WHERE id = ?)`), id); err != nil {
		return WrapError(err, "check "+table)
	}
	if !exists {
		return ErrNotFound(message)
	}
	return nil
}

func (s *Store) GetRecord(ctx context.Context, id int64) (models.Record, error) {
	var item models.Record
	err := s.DB.GetContext(ctx, &item, s.DB.Rebind(`SELECT `+recordColumns+` FROM records WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Record{}, ErrNotFound("Record not found")
	}
	if err != nil {
		return models.Record{}, WrapError(err, "get record")
	}
	return item, nil
}

// ListRecords returns matching records, newest date first, ties broken by
// newest id, each carrying its student and place names.
func (s *Store) ListRecords(ctx context.Context, filter RecordFilter) ([]models.RecordRow, error) {
	where := []string{}
	args := []interface{}{}
	if filter.PendingOnly {
		where = append(where, "r.validated = FALSE")
	}
	if filter.StudentID != nil {
		where = append(where, "r.student_id = ?")
		args = append(args, *filter.StudentID)
	}
	if filter.Year != nil {
		where = append(where, "r.year = ?")
		args = append(args, *filter.Year)
	}
	if filter.Term != nil {
		where = append(where, "r.term = ?")
		args = append(args, *filter.Term)
	}
	if !filter.IncludeInactive {
		where = append(where, "a.active = TRUE AND l.active = TRUE")
	}
	query := `
SELECT r.id, r.student_id, r.place_id, r.activity, r.date, r.hours, r.year, r.term,
       r.validated, r.validator, a.name AS student_name, l.name AS place_name
FROM records r
JOIN students a ON a.id = r.student_id
JOIN places l ON l.id = r.place_id`
	if len(where) > 0 {
		query += "\nWHERE " + strings.Join(where, " AND ")
	}
	query += "\nORDER BY r.date DESC, r.id DESC"
	rows := []models.RecordRow{}
	if err := s.DB.SelectContext(ctx, &rows, s.DB.Rebind(query), args...); err != nil {
		return nil, WrapError(err, "list records")
	}
	return rows, nil
}

// ValidateRecord credits a record. Validating an unknown id is an error and
// leaves no audit entry.
func (s *Store) ValidateRecord(ctx context.Context, actor string, id int64, validatorName string) error {
	name := strings.TrimSpace(validatorName)
	if name == "" {
		return ErrBadRequest("validator is required")
	}
	return s.mutate(ctx, actor, func(m *mutation) error {
		var before models.Record
		err := m.tx.GetContext(ctx, &before, m.rebind(`SELECT `+recordColumns+` FROM records WHERE id = ?`), id)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound("Record not found")
		}
		if err != nil {
			return WrapError(err, "load record")
		}
		if _, err := m.tx.ExecContext(ctx, m.rebind(`UPDATE records SET validated = TRUE, validator = ? WHERE id = ?`), name, id); err != nil {
			return storageError(err, "validate record")
		}
		var after models.Record
		if err := m.tx.GetContext(ctx, &after, m.rebind(`SELECT `+recordColumns+` FROM records WHERE id = ?`), id); err != nil {
			return WrapError(err, "reload record")
		}
		return m.audit(ctx, ActionValidate, id, recordSnapshot(before), recordSnapshot(after))
	})
}

// AggregateHours sums hours for one student and term.
func (s *Store) AggregateHours(ctx context.Context, studentID int64, year, term int, validatedOnly bool) (float64, error) {
	query := `SELECT COALESCE(SUM(hours), 0) FROM records WHERE student_id = ? AND year = ? AND term = ?`
	if validatedOnly {
		query += ` AND validated = TRUE`
	}
	var total float64
	if err := s.DB.GetContext(ctx, &total, s.DB.Rebind(query), studentID, year, term); err != nil {
		return 0, WrapError(err, "aggregate hours")
	}
	return total, nil
}

func (s *Store) StudentStatus(ctx context.Context, studentID int64, year, term int) (StudentStatus, error) {
	if term != 1 && term != 2 {
		return StudentStatus{}, ErrBadRequest("term must be one of 1 2")
	}
	if _, err := s.GetStudent(ctx, studentID); err != nil {
		return StudentStatus{}, err
	}
	total, err := s.AggregateHours(ctx, studentID, year, term, false)
	if err != nil {
		return StudentStatus{}, err
	}
	validated, err := s.AggregateHours(ctx, studentID, year, term, true)
	if err != nil {
		return StudentStatus{}, err
	}
	return StudentStatus{
		StudentID:   studentID,
		Year:        year,
		Term:        term,
		Total:       total,
		Validated:   validated,
		Requirement: s.HoursRequirement,
		Remaining:   RemainingHours(s.HoursRequirement, validated),
	}, nil
}

func RemainingHours(requirement, validated float64) float64 {
	return math.Max(0, requirement-validated)
}
