/*
Package sqlite provides the SQLite-backed implementation of every
persistence interface in the engine.

INTERFACES IMPLEMENTED:
  directory.Directory: employee lookups (position + branch)
  roster.Store:        templates, plans, rows, special days, holidays
  timeoff.Store:       time-off requests incl. the peer conflict query

INVARIANTS ENFORCED HERE:
  - One weekly plan per week: UNIQUE index on weekly_plans.week_start,
    insert-or-fail. A second create never mutates the existing plan.
  - Cascading template/plan deletion: FK ON DELETE CASCADE on row tables.
  - Approval atomicity: WithTx wraps scan-then-write in one SQL
    transaction, and the store-level write lock serializes concurrent
    approvals so two conflicting requests cannot both reach approved.

WAL MODE:
  Opened with WAL so readers don't block and crash recovery is sane.
  Foreign keys are switched on explicitly (off by default in SQLite).

USAGE:
  store, err := sqlite.New("./data/scheduling.db")   // or ":memory:"
  defer store.Close()

SEE ALSO:
  - roster/store.go, timeoff/store.go: interface contracts
  - store/memory: in-memory implementation for unit tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/scheduling-engine/directory"
	"github.com/warp/scheduling-engine/engine"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// queryer is satisfied by both *sql.DB and *sql.Tx so the same statement
// helpers run inside and outside transactions.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New opens (and migrates) a SQLite store. Use ":memory:" for tests.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every pooled connection to ":memory:" would get its own empty
	// database, so the pool must stay at one connection.
	if strings.Contains(dbPath, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Employees (collaborator input: the engine reads position + branch)
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		position TEXT NOT NULL,
		branch_id TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Peer-group scan: same position AND same branch
	CREATE INDEX IF NOT EXISTS idx_employees_peer
		ON employees(position, branch_id);

	-- Shift templates (reusable weekly patterns, no calendar binding)
	CREATE TABLE IF NOT EXISTS shift_templates (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS shift_template_rows (
		id TEXT PRIMARY KEY,
		template_id TEXT NOT NULL REFERENCES shift_templates(id) ON DELETE CASCADE,
		employee_id TEXT NOT NULL,
		branch_id TEXT NOT NULL,
		day_of_week INTEGER NOT NULL CHECK (day_of_week BETWEEN 0 AND 6),
		start_minutes INTEGER NOT NULL,
		end_minutes INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_template_rows_template
		ON shift_template_rows(template_id);

	-- Weekly plans: exactly one per distinct week
	CREATE TABLE IF NOT EXISTS weekly_plans (
		id TEXT PRIMARY KEY,
		week_start TEXT NOT NULL,
		source_template_id TEXT,
		status TEXT NOT NULL DEFAULT 'draft',
		notes TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- CRITICAL: insert-or-fail uniqueness, never check-then-insert
	CREATE UNIQUE INDEX IF NOT EXISTS idx_weekly_plans_week
		ON weekly_plans(week_start);

	CREATE TABLE IF NOT EXISTS weekly_plan_rows (
		id TEXT PRIMARY KEY,
		plan_id TEXT NOT NULL REFERENCES weekly_plans(id) ON DELETE CASCADE,
		employee_id TEXT NOT NULL,
		branch_id TEXT NOT NULL,
		day_of_week INTEGER NOT NULL CHECK (day_of_week BETWEEN 0 AND 6),
		start_minutes INTEGER NOT NULL,
		end_minutes INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_plan_rows_plan
		ON weekly_plan_rows(plan_id);

	-- Holidays (advisory reference data)
	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT,
		active BOOLEAN NOT NULL DEFAULT TRUE
	);

	-- Special assignments (Sundays / declared holidays)
	-- No uniqueness per employee/date: duplicates are permitted.
	CREATE TABLE IF NOT EXISTS special_assignments (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		branch_id TEXT NOT NULL,
		date TEXT NOT NULL,
		type TEXT NOT NULL,
		start_minutes INTEGER NOT NULL,
		end_minutes INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_special_assignments_date
		ON special_assignments(date);

	-- Time-off requests
	CREATE TABLE IF NOT EXISTS timeoff_requests (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		date_start TEXT NOT NULL,
		date_end TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		reason TEXT,
		requested_at TEXT NOT NULL,
		decided_at TEXT,
		decision_note TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_timeoff_requests_employee
		ON timeoff_requests(employee_id);
	CREATE INDEX IF NOT EXISTS idx_timeoff_requests_status
		ON timeoff_requests(status);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// DIRECTORY (directory.Directory interface)
// =============================================================================

// SaveEmployee inserts or replaces an employee record (seed data).
func (s *Store) SaveEmployee(ctx context.Context, e directory.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO employees (id, name, position, branch_id, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			position = excluded.position,
			branch_id = excluded.branch_id
	`
	_, err := s.db.ExecContext(ctx, query,
		e.ID, e.Name, e.Position, e.BranchID, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

// Lookup returns an employee, or nil if unknown.
func (s *Store) Lookup(ctx context.Context, id string) (*directory.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var e directory.Employee
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, position, branch_id FROM employees WHERE id = ?", id,
	).Scan(&e.ID, &e.Name, &e.Position, &e.BranchID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lookup employee: %w", err)
	}
	return &e, nil
}

// List returns all employees ordered by name.
func (s *Store) List(ctx context.Context) ([]directory.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, position, branch_id FROM employees ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var employees []directory.Employee
	for rows.Next() {
		var e directory.Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.Position, &e.BranchID); err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}

// deleted maps an exec result to not-found when nothing was affected.
func deleted(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return engine.NotFound(kind, id)
	}
	return nil
}
