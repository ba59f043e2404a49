package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/warp/scheduling-engine/calendar"
	"github.com/warp/scheduling-engine/engine"
	"github.com/warp/scheduling-engine/roster"
)

// =============================================================================
// TEMPLATES (roster.Store interface)
// =============================================================================

// InsertTemplate persists a new shift template.
func (s *Store) InsertTemplate(ctx context.Context, t roster.ShiftTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO shift_templates (id, name, description, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		t.ID, t.Name, nullString(t.Description), t.Active,
		t.CreatedAt.Format(time.RFC3339), t.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert template: %w", err)
	}
	return nil
}

// GetTemplate returns a template, or nil if unknown.
func (s *Store) GetTemplate(ctx context.Context, id string) (*roster.ShiftTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, active, created_at, updated_at
		FROM shift_templates WHERE id = ?`, id)

	t, err := scanTemplate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return t, nil
}

// ListTemplates returns all templates, newest first.
func (s *Store) ListTemplates(ctx context.Context) ([]roster.ShiftTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, active, created_at, updated_at
		FROM shift_templates ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var templates []roster.ShiftTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}

// UpdateTemplate rewrites a template's mutable fields.
func (s *Store) UpdateTemplate(ctx context.Context, t roster.ShiftTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE shift_templates
		SET name = ?, description = ?, active = ?, updated_at = ?
		WHERE id = ?`,
		t.Name, nullString(t.Description), t.Active,
		t.UpdatedAt.Format(time.RFC3339), t.ID)
	if err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}
	return deleted(res, "template", t.ID)
}

// DeleteTemplate removes a template; the FK cascades its rows.
func (s *Store) DeleteTemplate(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM shift_templates WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	return deleted(res, "template", id)
}

// InsertTemplateRow persists one weekday shift within a template.
func (s *Store) InsertTemplateRow(ctx context.Context, row roster.TemplateRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO shift_template_rows
		(id, template_id, employee_id, branch_id, day_of_week, start_minutes, end_minutes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		row.ID, row.TemplateID, row.EmployeeID, row.BranchID,
		row.DayOfWeek, int(row.Start), int(row.End))
	if err != nil {
		return fmt.Errorf("failed to insert template row: %w", err)
	}
	return nil
}

// TemplateRows returns a template's rows ordered by weekday then start.
func (s *Store) TemplateRows(ctx context.Context, templateID string) ([]roster.TemplateRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, template_id, employee_id, branch_id, day_of_week, start_minutes, end_minutes
		FROM shift_template_rows
		WHERE template_id = ?
		ORDER BY day_of_week ASC, start_minutes ASC, id ASC`, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list template rows: %w", err)
	}
	defer rows.Close()

	var result []roster.TemplateRow
	for rows.Next() {
		var r roster.TemplateRow
		var start, end int
		if err := rows.Scan(&r.ID, &r.TemplateID, &r.EmployeeID, &r.BranchID,
			&r.DayOfWeek, &start, &end); err != nil {
			return nil, err
		}
		r.Start = calendar.ClockTime(start)
		r.End = calendar.ClockTime(end)
		result = append(result, r)
	}
	return result, rows.Err()
}

// DeleteTemplateRow removes a single template row.
func (s *Store) DeleteTemplateRow(ctx context.Context, rowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM shift_template_rows WHERE id = ?", rowID)
	if err != nil {
		return fmt.Errorf("failed to delete template row: %w", err)
	}
	return deleted(res, "template row", rowID)
}

// =============================================================================
// PLANS
// =============================================================================

// InsertPlan persists a new weekly plan. The unique week index makes this
// insert-or-fail; a duplicate week surfaces as engine.ErrConflict.
func (s *Store) InsertPlan(ctx context.Context, p roster.WeeklyPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO weekly_plans
		(id, week_start, source_template_id, status, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	var sourceID sql.NullString
	if p.SourceTemplateID != nil {
		sourceID = nullString(*p.SourceTemplateID)
	}
	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.WeekStart.String(), sourceID, string(p.Status), nullString(p.Notes),
		p.CreatedAt.Format(time.RFC3339), p.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("week %s already planned: %w", p.WeekStart, engine.ErrConflict)
		}
		return fmt.Errorf("failed to insert plan: %w", err)
	}
	return nil
}

// GetPlan returns a plan, or nil if unknown.
func (s *Store) GetPlan(ctx context.Context, id string) (*roster.WeeklyPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getPlanWhere(ctx, "id = ?", id)
}

// GetPlanByWeek returns the plan for a normalized week start, or nil.
func (s *Store) GetPlanByWeek(ctx context.Context, weekStart calendar.Date) (*roster.WeeklyPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getPlanWhere(ctx, "week_start = ?", weekStart.String())
}

func (s *Store) getPlanWhere(ctx context.Context, where string, arg any) (*roster.WeeklyPlan, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, week_start, source_template_id, status, notes, created_at, updated_at
		FROM weekly_plans WHERE `+where, arg)

	p, err := scanPlan(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return p, nil
}

// ListPlans returns all plans ordered by week.
func (s *Store) ListPlans(ctx context.Context) ([]roster.WeeklyPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, week_start, source_template_id, status, notes, created_at, updated_at
		FROM weekly_plans ORDER BY week_start DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	var plans []roster.WeeklyPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

// UpdatePlanStatus persists a new status without touching anything else.
func (s *Store) UpdatePlanStatus(ctx context.Context, planID string, status roster.PlanStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE weekly_plans SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC().Format(time.RFC3339), planID)
	if err != nil {
		return fmt.Errorf("failed to update plan status: %w", err)
	}
	return deleted(res, "plan", planID)
}

// DeletePlan removes a plan; its rows cascade.
func (s *Store) DeletePlan(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM weekly_plans WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}
	return deleted(res, "plan", id)
}

// InsertPlanRow persists one concrete shift assignment.
func (s *Store) InsertPlanRow(ctx context.Context, row roster.PlanRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO weekly_plan_rows
		(id, plan_id, employee_id, branch_id, day_of_week, start_minutes, end_minutes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		row.ID, row.PlanID, row.EmployeeID, row.BranchID,
		row.DayOfWeek, int(row.Start), int(row.End))
	if err != nil {
		return fmt.Errorf("failed to insert plan row: %w", err)
	}
	return nil
}

// PlanRows returns a plan's rows ordered by weekday then start.
func (s *Store) PlanRows(ctx context.Context, planID string) ([]roster.PlanRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, plan_id, employee_id, branch_id, day_of_week, start_minutes, end_minutes
		FROM weekly_plan_rows
		WHERE plan_id = ?
		ORDER BY day_of_week ASC, start_minutes ASC, id ASC`, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to list plan rows: %w", err)
	}
	defer rows.Close()

	var result []roster.PlanRow
	for rows.Next() {
		var r roster.PlanRow
		var start, end int
		if err := rows.Scan(&r.ID, &r.PlanID, &r.EmployeeID, &r.BranchID,
			&r.DayOfWeek, &start, &end); err != nil {
			return nil, err
		}
		r.Start = calendar.ClockTime(start)
		r.End = calendar.ClockTime(end)
		result = append(result, r)
	}
	return result, rows.Err()
}

// DeletePlanRow removes a single plan row.
func (s *Store) DeletePlanRow(ctx context.Context, rowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM weekly_plan_rows WHERE id = ?", rowID)
	if err != nil {
		return fmt.Errorf("failed to delete plan row: %w", err)
	}
	return deleted(res, "plan row", rowID)
}

// =============================================================================
// SPECIAL ASSIGNMENTS
// =============================================================================

// InsertAssignment persists a special-day staffing record.
func (s *Store) InsertAssignment(ctx context.Context, a roster.SpecialAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO special_assignments
		(id, employee_id, branch_id, date, type, start_minutes, end_minutes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		a.ID, a.EmployeeID, a.BranchID, a.Date.String(), string(a.Type),
		int(a.Start), int(a.End))
	if err != nil {
		return fmt.Errorf("failed to insert assignment: %w", err)
	}
	return nil
}

// DeleteAssignment removes a special-day staffing record.
func (s *Store) DeleteAssignment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM special_assignments WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}
	return deleted(res, "assignment", id)
}

// AssignmentsFor returns all special assignments on a date.
func (s *Store) AssignmentsFor(ctx context.Context, date calendar.Date) ([]roster.SpecialAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, branch_id, date, type, start_minutes, end_minutes
		FROM special_assignments
		WHERE date = ?
		ORDER BY start_minutes ASC, id ASC`, date.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	var result []roster.SpecialAssignment
	for rows.Next() {
		var a roster.SpecialAssignment
		var dateStr, typ string
		var start, end int
		if err := rows.Scan(&a.ID, &a.EmployeeID, &a.BranchID, &dateStr, &typ, &start, &end); err != nil {
			return nil, err
		}
		a.Date, err = calendar.ParseDate(dateStr)
		if err != nil {
			return nil, err
		}
		a.Type = roster.AssignmentType(typ)
		a.Start = calendar.ClockTime(start)
		a.End = calendar.ClockTime(end)
		result = append(result, a)
	}
	return result, rows.Err()
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// InsertHoliday persists a holiday reference record.
func (s *Store) InsertHoliday(ctx context.Context, h roster.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO holidays (id, date, name, description, active)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		h.ID, h.Date.String(), h.Name, nullString(h.Description), h.Active)
	if err != nil {
		return fmt.Errorf("failed to insert holiday: %w", err)
	}
	return nil
}

// UpdateHoliday rewrites a holiday record.
func (s *Store) UpdateHoliday(ctx context.Context, h roster.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE holidays SET date = ?, name = ?, description = ?, active = ? WHERE id = ?`,
		h.Date.String(), h.Name, nullString(h.Description), h.Active, h.ID)
	if err != nil {
		return fmt.Errorf("failed to update holiday: %w", err)
	}
	return deleted(res, "holiday", h.ID)
}

// ListHolidays returns all holiday records ordered by date.
func (s *Store) ListHolidays(ctx context.Context) ([]roster.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, name, description, active
		FROM holidays ORDER BY date ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}
	defer rows.Close()

	var result []roster.Holiday
	for rows.Next() {
		var h roster.Holiday
		var dateStr string
		var description sql.NullString
		if err := rows.Scan(&h.ID, &dateStr, &h.Name, &description, &h.Active); err != nil {
			return nil, err
		}
		h.Date, err = calendar.ParseDate(dateStr)
		if err != nil {
			return nil, err
		}
		h.Description = description.String
		result = append(result, h)
	}
	return result, rows.Err()
}

// DeleteHoliday removes a holiday record.
func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM holidays WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete holiday: %w", err)
	}
	return deleted(res, "holiday", id)
}

// =============================================================================
// SCANNERS
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row rowScanner) (*roster.ShiftTemplate, error) {
	var t roster.ShiftTemplate
	var description sql.NullString
	var createdAt, updatedAt string
	if err := row.Scan(&t.ID, &t.Name, &description, &t.Active, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	t.Description = description.String
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	t.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &t, nil
}

func scanPlan(row rowScanner) (*roster.WeeklyPlan, error) {
	var p roster.WeeklyPlan
	var weekStart, status, createdAt, updatedAt string
	var sourceID, notes sql.NullString
	if err := row.Scan(&p.ID, &weekStart, &sourceID, &status, &notes, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	p.WeekStart, err = calendar.ParseDate(weekStart)
	if err != nil {
		return nil, err
	}
	if sourceID.Valid {
		p.SourceTemplateID = &sourceID.String
	}
	p.Status = roster.PlanStatus(status)
	p.Notes = notes.String
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &p, nil
}
