package roster

import (
	"context"

	"github.com/warp/scheduling-engine/calendar"
)

// Store is the persistence interface for the roster. Implementations:
// store/sqlite for the server.
//
// Contract notes:
//   - DeleteTemplate cascades its rows and returns engine.ErrNotFound if
//     the id is unknown; same for DeletePlanRow etc. on missing ids.
//   - InsertPlan enforces the one-plan-per-week invariant atomically
//     (insert-or-fail, not check-then-insert) and returns an error
//     wrapping engine.ErrConflict when the week is already planned.
type Store interface {
	// Templates
	InsertTemplate(ctx context.Context, t ShiftTemplate) error
	GetTemplate(ctx context.Context, id string) (*ShiftTemplate, error)
	ListTemplates(ctx context.Context) ([]ShiftTemplate, error)
	UpdateTemplate(ctx context.Context, t ShiftTemplate) error
	DeleteTemplate(ctx context.Context, id string) error
	InsertTemplateRow(ctx context.Context, row TemplateRow) error
	TemplateRows(ctx context.Context, templateID string) ([]TemplateRow, error)
	DeleteTemplateRow(ctx context.Context, rowID string) error

	// Plans
	InsertPlan(ctx context.Context, p WeeklyPlan) error
	GetPlan(ctx context.Context, id string) (*WeeklyPlan, error)
	GetPlanByWeek(ctx context.Context, weekStart calendar.Date) (*WeeklyPlan, error)
	ListPlans(ctx context.Context) ([]WeeklyPlan, error)
	UpdatePlanStatus(ctx context.Context, planID string, status PlanStatus) error
	DeletePlan(ctx context.Context, id string) error
	InsertPlanRow(ctx context.Context, row PlanRow) error
	PlanRows(ctx context.Context, planID string) ([]PlanRow, error)
	DeletePlanRow(ctx context.Context, rowID string) error

	// Special assignments
	InsertAssignment(ctx context.Context, a SpecialAssignment) error
	DeleteAssignment(ctx context.Context, id string) error
	AssignmentsFor(ctx context.Context, date calendar.Date) ([]SpecialAssignment, error)

	// Holidays (reference data)
	InsertHoliday(ctx context.Context, h Holiday) error
	UpdateHoliday(ctx context.Context, h Holiday) error
	ListHolidays(ctx context.Context) ([]Holiday, error)
	DeleteHoliday(ctx context.Context, id string) error
}
