package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/warp/scheduling-engine/calendar"
	"github.com/warp/scheduling-engine/timeoff"
)

// =============================================================================
// TIME-OFF REQUESTS (timeoff.Store interface)
// =============================================================================
//
// Public methods take the store lock and delegate to unlocked helpers
// operating on a queryer, so the same statements run inside WithTx
// without re-locking.

// Insert persists a new time-off request.
func (s *Store) Insert(ctx context.Context, r timeoff.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertRequest(ctx, s.db, r)
}

// Get returns a request, or nil if unknown.
func (s *Store) Get(ctx context.Context, id string) (*timeoff.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getRequest(ctx, s.db, id)
}

// PeerOpenRequests returns pending and approved requests of employees
// sharing position+branch, excluding the requester's own. Interval
// filtering happens in the validator via the calendar package.
func (s *Store) PeerOpenRequests(ctx context.Context, position, branchID, excludeEmployeeID string) ([]timeoff.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return peerOpenRequests(ctx, s.db, position, branchID, excludeEmployeeID)
}

// UpdateStatus records a terminal decision.
func (s *Store) UpdateStatus(ctx context.Context, id string, status timeoff.Status, note string, decidedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateRequestStatus(ctx, s.db, id, status, note, decidedAt)
}

// ListByEmployee returns an employee's requests, newest first.
func (s *Store) ListByEmployee(ctx context.Context, employeeID string) ([]timeoff.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryRequests(ctx, s.db, `
		SELECT id, employee_id, date_start, date_end, status, reason, requested_at, decided_at, decision_note
		FROM timeoff_requests
		WHERE employee_id = ?
		ORDER BY requested_at DESC`, employeeID)
}

// ListPending returns all undecided requests, oldest first.
func (s *Store) ListPending(ctx context.Context) ([]timeoff.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryRequests(ctx, s.db, `
		SELECT id, employee_id, date_start, date_end, status, reason, requested_at, decided_at, decision_note
		FROM timeoff_requests
		WHERE status = 'pending'
		ORDER BY requested_at ASC`)
}

// WithTx executes fn within a database transaction. The store write lock
// is held for the whole transaction, so concurrent scan-then-write
// sequences (two racing approvals) serialize instead of both succeeding.
func (s *Store) WithTx(ctx context.Context, fn func(store timeoff.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// txStore runs the same helpers against the open transaction, without
// touching the parent's lock (already held by WithTx).
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) Insert(ctx context.Context, r timeoff.Request) error {
	return insertRequest(ctx, ts.tx, r)
}

func (ts *txStore) Get(ctx context.Context, id string) (*timeoff.Request, error) {
	return getRequest(ctx, ts.tx, id)
}

func (ts *txStore) PeerOpenRequests(ctx context.Context, position, branchID, excludeEmployeeID string) ([]timeoff.Request, error) {
	return peerOpenRequests(ctx, ts.tx, position, branchID, excludeEmployeeID)
}

func (ts *txStore) UpdateStatus(ctx context.Context, id string, status timeoff.Status, note string, decidedAt time.Time) error {
	return updateRequestStatus(ctx, ts.tx, id, status, note, decidedAt)
}

func (ts *txStore) ListByEmployee(ctx context.Context, employeeID string) ([]timeoff.Request, error) {
	return queryRequests(ctx, ts.tx, `
		SELECT id, employee_id, date_start, date_end, status, reason, requested_at, decided_at, decision_note
		FROM timeoff_requests
		WHERE employee_id = ?
		ORDER BY requested_at DESC`, employeeID)
}

func (ts *txStore) ListPending(ctx context.Context) ([]timeoff.Request, error) {
	return queryRequests(ctx, ts.tx, `
		SELECT id, employee_id, date_start, date_end, status, reason, requested_at, decided_at, decision_note
		FROM timeoff_requests
		WHERE status = 'pending'
		ORDER BY requested_at ASC`)
}

// WithTx on an open transaction just runs fn in the same transaction.
func (ts *txStore) WithTx(ctx context.Context, fn func(store timeoff.Store) error) error {
	return fn(ts)
}

// =============================================================================
// UNLOCKED HELPERS
// =============================================================================

func insertRequest(ctx context.Context, q queryer, r timeoff.Request) error {
	query := `
		INSERT INTO timeoff_requests
		(id, employee_id, date_start, date_end, status, reason, requested_at, decided_at, decision_note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	var decidedAt sql.NullString
	if r.DecidedAt != nil {
		decidedAt = nullString(r.DecidedAt.Format(time.RFC3339))
	}
	_, err := q.ExecContext(ctx, query,
		r.ID, r.EmployeeID, r.DateStart.String(), r.DateEnd.String(),
		string(r.Status), nullString(r.Reason),
		r.RequestedAt.Format(time.RFC3339), decidedAt, nullString(r.DecisionNote))
	if err != nil {
		return fmt.Errorf("failed to insert request: %w", err)
	}
	return nil
}

func getRequest(ctx context.Context, q queryer, id string) (*timeoff.Request, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, employee_id, date_start, date_end, status, reason, requested_at, decided_at, decision_note
		FROM timeoff_requests WHERE id = ?`, id)

	r, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return r, nil
}

func peerOpenRequests(ctx context.Context, q queryer, position, branchID, excludeEmployeeID string) ([]timeoff.Request, error) {
	return queryRequests(ctx, q, `
		SELECT r.id, r.employee_id, r.date_start, r.date_end, r.status, r.reason,
		       r.requested_at, r.decided_at, r.decision_note
		FROM timeoff_requests r
		JOIN employees e ON e.id = r.employee_id
		WHERE e.position = ? AND e.branch_id = ?
		  AND r.employee_id != ?
		  AND r.status IN ('pending', 'approved')
		ORDER BY r.requested_at ASC`,
		position, branchID, excludeEmployeeID)
}

func updateRequestStatus(ctx context.Context, q queryer, id string, status timeoff.Status, note string, decidedAt time.Time) error {
	res, err := q.ExecContext(ctx, `
		UPDATE timeoff_requests
		SET status = ?, decision_note = ?, decided_at = ?
		WHERE id = ?`,
		string(status), nullString(note), decidedAt.Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("failed to update request status: %w", err)
	}
	return deleted(res, "request", id)
}

func queryRequests(ctx context.Context, q queryer, query string, args ...any) ([]timeoff.Request, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	var requests []timeoff.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *r)
	}
	return requests, rows.Err()
}

func scanRequest(row rowScanner) (*timeoff.Request, error) {
	var r timeoff.Request
	var dateStart, dateEnd, status, requestedAt string
	var reason, decidedAt, decisionNote sql.NullString

	err := row.Scan(&r.ID, &r.EmployeeID, &dateStart, &dateEnd, &status,
		&reason, &requestedAt, &decidedAt, &decisionNote)
	if err != nil {
		return nil, err
	}

	if r.DateStart, err = calendar.ParseDate(dateStart); err != nil {
		return nil, err
	}
	if r.DateEnd, err = calendar.ParseDate(dateEnd); err != nil {
		return nil, err
	}
	r.Status = timeoff.Status(status)
	r.Reason = reason.String
	r.RequestedAt, _ = time.Parse(time.RFC3339, requestedAt)
	if decidedAt.Valid {
		t, _ := time.Parse(time.RFC3339, decidedAt.String)
		r.DecidedAt = &t
	}
	r.DecisionNote = decisionNote.String
	return &r, nil
}
