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
// PLAN SERVICE
// =============================================================================

// PlanService owns the weekly plan CRUD surface. Exactly one plan may
// exist per calendar week; the store enforces that atomically on insert.
type PlanService struct {
	Store Store
}

// NewPlanService creates a plan service over a store.
func NewPlanService(store Store) *PlanService {
	return &PlanService{Store: store}
}

// Create creates the plan for the week containing weekStart. The date is
// normalized to the Monday of its ISO week. If sourceTemplateID is given,
// all of that template's rows are cloned into plan-scoped rows with their
// weekday preserved verbatim; mapping a weekday to a concrete date is a
// presentation concern, not the engine's.
func (s *PlanService) Create(ctx context.Context, weekStart calendar.Date, sourceTemplateID *string, notes string) (*WeeklyPlan, error) {
	if weekStart.IsZero() {
		return nil, engine.Invalid("week_start", "must be a valid date")
	}
	monday := calendar.MondayOf(weekStart)

	var sourceRows []TemplateRow
	if sourceTemplateID != nil {
		source, err := s.Store.GetTemplate(ctx, *sourceTemplateID)
		if err != nil {
			return nil, fmt.Errorf("get source template: %w", err)
		}
		if source == nil {
			return nil, engine.NotFound("template", *sourceTemplateID)
		}
		sourceRows, err = s.Store.TemplateRows(ctx, *sourceTemplateID)
		if err != nil {
			return nil, fmt.Errorf("load source template rows: %w", err)
		}
	}

	now := time.Now().UTC()
	plan := WeeklyPlan{
		ID:               uuid.NewString(),
		WeekStart:        monday,
		SourceTemplateID: sourceTemplateID,
		Status:           PlanDraft,
		Notes:            notes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	// Insert-or-fail: the unique week constraint lives in the store so a
	// concurrent create cannot slip past a check-then-insert.
	if err := s.Store.InsertPlan(ctx, plan); err != nil {
		if engine.IsConflict(err) {
			return nil, &engine.ConflictError{
				Msg: fmt.Sprintf("week %s is already planned", monday),
			}
		}
		return nil, fmt.Errorf("insert plan: %w", err)
	}

	for _, tr := range sourceRows {
		row := PlanRow{
			ID:         uuid.NewString(),
			PlanID:     plan.ID,
			EmployeeID: tr.EmployeeID,
			BranchID:   tr.BranchID,
			DayOfWeek:  tr.DayOfWeek,
			Start:      tr.Start,
			End:        tr.End,
		}
		if err := s.Store.InsertPlanRow(ctx, row); err != nil {
			// Release the week: a half-cloned plan would sit behind the
			// unique week constraint and block any retry.
			if derr := s.Store.DeletePlan(ctx, plan.ID); derr != nil {
				return nil, fmt.Errorf("clone template row: %v (plan cleanup failed: %w)", err, derr)
			}
			return nil, fmt.Errorf("clone template row: %w", err)
		}
	}

	return &plan, nil
}

// AddRow adds a concrete shift assignment to a plan. Same contract as the
// template manager; plan status does not gate row mutation.
func (s *PlanService) AddRow(ctx context.Context, planID, employeeID, branchID string, dayOfWeek int, start, end string) (*PlanRow, error) {
	if _, err := s.mustGet(ctx, planID); err != nil {
		return nil, err
	}
	startClock, endClock, err := validateRowTimes(employeeID, branchID, dayOfWeek, start, end)
	if err != nil {
		return nil, err
	}

	row := PlanRow{
		ID:         uuid.NewString(),
		PlanID:     planID,
		EmployeeID: employeeID,
		BranchID:   branchID,
		DayOfWeek:  dayOfWeek,
		Start:      startClock,
		End:        endClock,
	}
	if err := s.Store.InsertPlanRow(ctx, row); err != nil {
		return nil, fmt.Errorf("insert plan row: %w", err)
	}
	return &row, nil
}

// RemoveRow deletes a single plan row.
func (s *PlanService) RemoveRow(ctx context.Context, rowID string) error {
	return s.Store.DeletePlanRow(ctx, rowID)
}

// AdvanceStatus persists a new plan status. The engine does not enforce
// transition order; that is the UI's responsibility.
func (s *PlanService) AdvanceStatus(ctx context.Context, planID string, status PlanStatus) (*WeeklyPlan, error) {
	if !ValidPlanStatus(status) {
		return nil, engine.Invalid("status", fmt.Sprintf("unknown plan status %q", status))
	}
	plan, err := s.mustGet(ctx, planID)
	if err != nil {
		return nil, err
	}

	if err := s.Store.UpdatePlanStatus(ctx, planID, status); err != nil {
		return nil, fmt.Errorf("update plan status: %w", err)
	}
	plan.Status = status
	return plan, nil
}

// Get returns a plan by id.
func (s *PlanService) Get(ctx context.Context, id string) (*WeeklyPlan, error) {
	return s.mustGet(ctx, id)
}

// GetByWeek returns the plan for the week containing the given date, or
// a not-found error if that week is unplanned.
func (s *PlanService) GetByWeek(ctx context.Context, date calendar.Date) (*WeeklyPlan, error) {
	monday := calendar.MondayOf(date)
	plan, err := s.Store.GetPlanByWeek(ctx, monday)
	if err != nil {
		return nil, fmt.Errorf("get plan by week: %w", err)
	}
	if plan == nil {
		return nil, engine.NotFound("plan for week", monday.String())
	}
	return plan, nil
}

// List returns all plans.
func (s *PlanService) List(ctx context.Context) ([]WeeklyPlan, error) {
	return s.Store.ListPlans(ctx)
}

// Rows returns all rows of a plan.
func (s *PlanService) Rows(ctx context.Context, planID string) ([]PlanRow, error) {
	if _, err := s.mustGet(ctx, planID); err != nil {
		return nil, err
	}
	return s.Store.PlanRows(ctx, planID)
}

func (s *PlanService) mustGet(ctx context.Context, id string) (*WeeklyPlan, error) {
	p, err := s.Store.GetPlan(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}
	if p == nil {
		return nil, engine.NotFound("plan", id)
	}
	return p, nil
}
