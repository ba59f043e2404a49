package roster

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/warp/scheduling-engine/calendar"
	"github.com/warp/scheduling-engine/engine"
)

// =============================================================================
// TEMPLATE SERVICE
// =============================================================================

// TemplateService owns the shift template CRUD surface.
type TemplateService struct {
	Store Store
}

// NewTemplateService creates a template service over a store.
func NewTemplateService(store Store) *TemplateService {
	return &TemplateService{Store: store}
}

// Create creates a template. Name is required.
func (s *TemplateService) Create(ctx context.Context, name, description string) (*ShiftTemplate, error) {
	if name == "" {
		return nil, engine.Invalid("name", "must not be empty")
	}

	now := time.Now().UTC()
	t := ShiftTemplate{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Store.InsertTemplate(ctx, t); err != nil {
		return nil, fmt.Errorf("insert template: %w", err)
	}
	return &t, nil
}

// Rename changes a template's name and description.
func (s *TemplateService) Rename(ctx context.Context, id, name, description string) (*ShiftTemplate, error) {
	if name == "" {
		return nil, engine.Invalid("name", "must not be empty")
	}
	t, err := s.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}

	t.Name = name
	t.Description = description
	t.UpdatedAt = time.Now().UTC()
	if err := s.Store.UpdateTemplate(ctx, *t); err != nil {
		return nil, fmt.Errorf("update template: %w", err)
	}
	return t, nil
}

// SetActive activates or deactivates a template.
func (s *TemplateService) SetActive(ctx context.Context, id string, active bool) (*ShiftTemplate, error) {
	t, err := s.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}

	t.Active = active
	t.UpdatedAt = time.Now().UTC()
	if err := s.Store.UpdateTemplate(ctx, *t); err != nil {
		return nil, fmt.Errorf("update template: %w", err)
	}
	return t, nil
}

// Duplicate deep-copies a template and all its rows with fresh ids.
// The original is left untouched.
func (s *TemplateService) Duplicate(ctx context.Context, id string) (*ShiftTemplate, error) {
	source, err := s.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	copyTpl := ShiftTemplate{
		ID:          uuid.NewString(),
		Name:        source.Name + " (copy)",
		Description: source.Description,
		Active:      source.Active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Store.InsertTemplate(ctx, copyTpl); err != nil {
		return nil, fmt.Errorf("insert template copy: %w", err)
	}

	rows, err := s.Store.TemplateRows(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load template rows: %w", err)
	}
	for _, row := range rows {
		row.ID = uuid.NewString()
		row.TemplateID = copyTpl.ID
		if err := s.Store.InsertTemplateRow(ctx, row); err != nil {
			return nil, fmt.Errorf("copy template row: %w", err)
		}
	}

	return &copyTpl, nil
}

// Delete removes a template and cascades its rows. Irreversible.
func (s *TemplateService) Delete(ctx context.Context, id string) error {
	return s.Store.DeleteTemplate(ctx, id)
}

// AddRow adds one employee's weekday shift to a template. Templates are
// abstract patterns, so no conflict checking happens here: the same
// employee twice on one weekday may represent a legitimately split shift.
func (s *TemplateService) AddRow(ctx context.Context, templateID, employeeID, branchID string, dayOfWeek int, start, end string) (*TemplateRow, error) {
	if _, err := s.mustGet(ctx, templateID); err != nil {
		return nil, err
	}
	startClock, endClock, err := validateRowTimes(employeeID, branchID, dayOfWeek, start, end)
	if err != nil {
		return nil, err
	}

	row := TemplateRow{
		ID:         uuid.NewString(),
		TemplateID: templateID,
		EmployeeID: employeeID,
		BranchID:   branchID,
		DayOfWeek:  dayOfWeek,
		Start:      startClock,
		End:        endClock,
	}
	if err := s.Store.InsertTemplateRow(ctx, row); err != nil {
		return nil, fmt.Errorf("insert template row: %w", err)
	}
	return &row, nil
}

// RemoveRow deletes a single template row.
func (s *TemplateService) RemoveRow(ctx context.Context, rowID string) error {
	return s.Store.DeleteTemplateRow(ctx, rowID)
}

// Get returns a template by id.
func (s *TemplateService) Get(ctx context.Context, id string) (*ShiftTemplate, error) {
	return s.mustGet(ctx, id)
}

// List returns all templates.
func (s *TemplateService) List(ctx context.Context) ([]ShiftTemplate, error) {
	return s.Store.ListTemplates(ctx)
}

// Rows returns all rows of a template.
func (s *TemplateService) Rows(ctx context.Context, templateID string) ([]TemplateRow, error) {
	if _, err := s.mustGet(ctx, templateID); err != nil {
		return nil, err
	}
	return s.Store.TemplateRows(ctx, templateID)
}

func (s *TemplateService) mustGet(ctx context.Context, id string) (*ShiftTemplate, error) {
	t, err := s.Store.GetTemplate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	if t == nil {
		return nil, engine.NotFound("template", id)
	}
	return t, nil
}

// validateRowTimes checks the shared row contract used by both templates
// and plans: weekday in [0,6], parseable clock times, start before end.
func validateRowTimes(employeeID, branchID string, dayOfWeek int, start, end string) (calendar.ClockTime, calendar.ClockTime, error) {
	if employeeID == "" {
		return 0, 0, engine.Invalid("employee_id", "must not be empty")
	}
	if branchID == "" {
		return 0, 0, engine.Invalid("branch_id", "must not be empty")
	}
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return 0, 0, engine.Invalid("day_of_week", "must be in [0,6]")
	}
	startClock, err := calendar.ParseClock(start)
	if err != nil {
		return 0, 0, engine.Invalid("start_time", err.Error())
	}
	endClock, err := calendar.ParseClock(end)
	if err != nil {
		return 0, 0, engine.Invalid("end_time", err.Error())
	}
	if !startClock.Before(endClock) {
		return 0, 0, engine.Invalid("start_time", "must be before end_time")
	}
	return startClock, endClock, nil
}
