package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const (
	TableStudents   = "students"
	TablePlaces     = "places"
	TableRecords    = "records"
	TableAudit      = "audit"
	TableUsers      = "users"
	TableAdminCodes = "admin_codes"
)

var counterTables = []string{TableStudents, TablePlaces, TableRecords, TableAudit, TableUsers, TableAdminCodes}

// IDAllocator hands out integer identifiers per table from durable counters
// kept in id_counters. A counter never falls below the table's current
// maximum id, so rows inserted behind its back are never collided with.
type IDAllocator struct {
	db *sqlx.DB
}

func NewIDAllocator(db *sqlx.DB) *IDAllocator {
	return &IDAllocator{db: db}
}

// Init creates missing counters and reseeds every counter from the current
// maximum id of its table. Safe to call on every start.
func (a *IDAllocator) Init(ctx context.Context) error {
	for _, table := range counterTables {
		if _, err := a.db.ExecContext(ctx, a.db.Rebind(`
INSERT INTO id_counters (name, value) VALUES (?, 0)
ON CONFLICT (name) DO NOTHING
`), table); err != nil {
			return fmt.Errorf("id counter %s: %w", table, err)
		}
		maxID := `(SELECT COALESCE(MAX(id), 0) FROM ` + table + `)`
		if _, err := a.db.ExecContext(ctx, a.db.Rebind(`
UPDATE id_counters SET value = `+maxID+`
WHERE name = ? AND value < `+maxID), table); err != nil {
			return fmt.Errorf("id counter %s: %w", table, err)
		}
	}
	return nil
}

// Next issues the next identifier for table inside the caller's transaction.
func (a *IDAllocator) Next(ctx context.Context, q sqlx.ExtContext, table string) (int64, error) {
	if !knownTable(table) {
		return 0, fmt.Errorf("id counter: unknown table %q", table)
	}
	maxID := `(SELECT COALESCE(MAX(id), 0) FROM ` + table + `)`
	var value int64
	err := sqlx.GetContext(ctx, q, &value, q.Rebind(`
UPDATE id_counters
SET value = CASE WHEN value >= `+maxID+` THEN value ELSE `+maxID+` END + 1
WHERE name = ?
RETURNING value
`), table)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("id counter %s: not initialized", table)
	}
	if err != nil {
		return 0, fmt.Errorf("id counter %s: %w", table, err)
	}
	return value, nil
}

func knownTable(table string) bool {
	for _, name := range counterTables {
		if name == table {
			return true
		}
	}
	return false
}
