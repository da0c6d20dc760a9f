package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"servicehours-backend-go/internal/models"
)

const (
	ActionInsert   = "INSERT"
	ActionUpdate   = "UPDATE"
	ActionDelete   = "DELETE"
	ActionValidate = "VALIDATE"
)

// AuditTimeLayout is fixed width so text order equals time order.
const AuditTimeLayout = "2006-01-02T15:04:05.000000Z"

// Snapshot is the full state of one audited row.
type Snapshot interface {
	SnapshotTable() string
}

type StudentSnapshot struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Program string `json:"program"`
	Active  bool   `json:"active"`
}

func (StudentSnapshot) SnapshotTable() string { return TableStudents }

type PlaceSnapshot struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

func (PlaceSnapshot) SnapshotTable() string { return TablePlaces }

type RecordSnapshot struct {
	ID        int64       `json:"id"`
	StudentID int64       `json:"studentId"`
	PlaceID   int64       `json:"placeId"`
	Activity  string      `json:"activity"`
	Date      models.Date `json:"date"`
	Hours     float64     `json:"hours"`
	Year      int         `json:"year"`
	Term      int         `json:"term"`
	Validated bool        `json:"validated"`
	Validator *string     `json:"validator"`
}

func (RecordSnapshot) SnapshotTable() string { return TableRecords }

// UserSnapshot carries no credential fields.
type UserSnapshot struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	StudentID *int64 `json:"studentId"`
}

func (UserSnapshot) SnapshotTable() string { return TableUsers }

type AdminCodeSnapshot struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
}

func (AdminCodeSnapshot) SnapshotTable() string { return TableAdminCodes }

func studentSnapshot(s models.Student) StudentSnapshot {
	return StudentSnapshot{ID: s.ID, Name: s.Name, Program: s.Program, Active: s.Active}
}

func placeSnapshot(p models.Place) PlaceSnapshot {
	return PlaceSnapshot{ID: p.ID, Name: p.Name, Active: p.Active}
}

func recordSnapshot(r models.Record) RecordSnapshot {
	return RecordSnapshot{
		ID:        r.ID,
		StudentID: r.StudentID,
		PlaceID:   r.PlaceID,
		Activity:  r.Activity,
		Date:      r.Date,
		Hours:     r.Hours,
		Year:      r.Year,
		Term:      r.Term,
		Validated: r.Validated,
		Validator: r.Validator,
	}
}

func userSnapshot(u models.User) UserSnapshot {
	return UserSnapshot{ID: u.ID, Username: u.Username, Role: u.Role, StudentID: u.StudentID}
}

func encodeSnapshot(snap Snapshot) (*string, error) {
	if snap == nil {
		return nil, nil
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, err
	}
	value := string(raw)
	return &value, nil
}

// DecodeSnapshot turns a stored before/after value back into its typed form.
func DecodeSnapshot(table string, raw *string) (Snapshot, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	switch table {
	case TableStudents:
		return decodeInto[StudentSnapshot](*raw)
	case TablePlaces:
		return decodeInto[PlaceSnapshot](*raw)
	case TableRecords:
		return decodeInto[RecordSnapshot](*raw)
	case TableUsers:
		return decodeInto[UserSnapshot](*raw)
	case TableAdminCodes:
		return decodeInto[AdminCodeSnapshot](*raw)
	default:
		return nil, fmt.Errorf("audit: unknown table %q", table)
	}
}

func decodeInto[T Snapshot](raw string) (Snapshot, error) {
	var snap T
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// audit appends one entry inside the mutation's transaction.
func (m *mutation) audit(ctx context.Context, action string, entityID int64, before, after Snapshot) error {
	table := ""
	switch {
	case after != nil:
		table = after.SnapshotTable()
	case before != nil:
		table = before.SnapshotTable()
	default:
		return fmt.Errorf("audit: %s without snapshot", action)
	}
	beforeJSON, err := encodeSnapshot(before)
	if err != nil {
		return WrapError(err, "audit before")
	}
	afterJSON, err := encodeSnapshot(after)
	if err != nil {
		return WrapError(err, "audit after")
	}
	id, err := m.ids.Next(ctx, m.tx, TableAudit)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	var actor *string
	if m.actor != "" {
		value := m.actor
		actor = &value
	}
	entity := entityID
	_, err = m.tx.ExecContext(ctx, m.rebind(`
INSERT INTO audit (id, ts, actor, action, table_name, entity_id, before_json, after_json)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`), id, now.Format(AuditTimeLayout), actor, action, table, entity, beforeJSON, afterJSON)
	if err != nil {
		return storageError(err, "append audit")
	}
	m.entries = append(m.entries, models.AuditEntry{
		ID:         id,
		Timestamp:  now.Truncate(time.Microsecond),
		Actor:      actor,
		Action:     action,
		Table:      table,
		EntityID:   &entity,
		BeforeJSON: beforeJSON,
		AfterJSON:  afterJSON,
	})
	return nil
}

type AuditFilter struct {
	Table    string
	EntityID *int64
	From     *time.Time
	To       *time.Time
	Limit    int
}

type auditRow struct {
	ID         int64   `db:"id"`
	TS         string  `db:"ts"`
	Actor      *string `db:"actor"`
	Action     string  `db:"action"`
	Table      string  `db:"table_name"`
	EntityID   *int64  `db:"entity_id"`
	BeforeJSON *string `db:"before_json"`
	AfterJSON  *string `db:"after_json"`
}

// ListAudit returns audit entries in append order. From is inclusive, To exclusive.
func (s *Store) ListAudit(ctx context.Context, filter AuditFilter) ([]models.AuditEntry, error) {
	where := []string{}
	args := []interface{}{}
	if table := strings.TrimSpace(filter.Table); table != "" {
		where = append(where, "table_name = ?")
		args = append(args, table)
	}
	if filter.EntityID != nil {
		where = append(where, "entity_id = ?")
		args = append(args, *filter.EntityID)
	}
	if filter.From != nil {
		where = append(where, "ts >= ?")
		args = append(args, filter.From.UTC().Format(AuditTimeLayout))
	}
	if filter.To != nil {
		where = append(where, "ts < ?")
		args = append(args, filter.To.UTC().Format(AuditTimeLayout))
	}
	query := `SELECT id, ts, actor, action, table_name, entity_id, before_json, after_json FROM audit`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	rows := []auditRow{}
	if err := s.DB.SelectContext(ctx, &rows, s.DB.Rebind(query), args...); err != nil {
		return nil, WrapError(err, "list audit")
	}
	entries := make([]models.AuditEntry, 0, len(rows))
	for _, row := range rows {
		ts, err := time.Parse(AuditTimeLayout, row.TS)
		if err != nil {
			return nil, WrapError(err, "parse audit timestamp")
		}
		entries = append(entries, models.AuditEntry{
			ID:         row.ID,
			Timestamp:  ts,
			Actor:      row.Actor,
			Action:     row.Action,
			Table:      row.Table,
			EntityID:   row.EntityID,
			BeforeJSON: row.BeforeJSON,
			AfterJSON:  row.AfterJSON,
		})
	}
	return entries, nil
}
