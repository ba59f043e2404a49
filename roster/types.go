/*
Package roster manages the staffing side of the engine: reusable weekly
shift templates, their instantiation into concrete weekly plans, and
exception-day staffing for Sundays and declared holidays.

KEY CONCEPTS:
  - ShiftTemplate: a reusable, date-independent weekly staffing pattern
  - WeeklyPlan:    a concrete, calendar-bound instantiation for ONE week,
                   keyed by the Monday of its ISO week (unique per week)
  - SpecialAssignment: staffing for a non-recurring date outside the
                   weekly cycle (Sunday or declared holiday)
  - Holiday:       advisory reference data for UI pickers, not a foreign
                   key enforced by the engine

Templates are abstract patterns: no conflict checking happens at template
level, and an employee may appear twice on the same weekday (split shifts
are legitimate). Plans inherit the same row contract.

SEE ALSO:
  - store.go: persistence interface
  - template.go, plan.go, special.go: the services
*/
package roster

import (
	"time"

	"github.com/warp/scheduling-engine/calendar"
)

// =============================================================================
// TEMPLATES
// =============================================================================

// ShiftTemplate is a reusable weekly staffing pattern, not tied to any
// calendar date.
type ShiftTemplate struct {
	ID          string
	Name        string
	Description string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TemplateRow is one employee's shift on one weekday within a template.
type TemplateRow struct {
	ID         string
	TemplateID string
	EmployeeID string
	BranchID   string
	DayOfWeek  int // 0 = Sunday .. 6 = Saturday
	Start      calendar.ClockTime
	End        calendar.ClockTime
}

// =============================================================================
// PLANS
// =============================================================================

// PlanStatus is persisted as-is; the engine does not enforce transition
// order (a UI-level concern).
type PlanStatus string

const (
	PlanDraft     PlanStatus = "draft"
	PlanSent      PlanStatus = "sent"
	PlanConfirmed PlanStatus = "confirmed"
)

// ValidPlanStatus reports whether s is one of the known statuses.
func ValidPlanStatus(s PlanStatus) bool {
	switch s {
	case PlanDraft, PlanSent, PlanConfirmed:
		return true
	}
	return false
}

// WeeklyPlan is the concrete staffing for one calendar week. Exactly one
// plan exists per distinct WeekStart.
type WeeklyPlan struct {
	ID               string
	WeekStart        calendar.Date // Monday of the ISO week
	SourceTemplateID *string
	Status           PlanStatus
	Notes            string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// PlanRow has the same shape as TemplateRow but is scoped to a plan. It is
// the record reporting and downstream attendance expectations read.
type PlanRow struct {
	ID         string
	PlanID     string
	EmployeeID string
	BranchID   string
	DayOfWeek  int
	Start      calendar.ClockTime
	End        calendar.ClockTime
}

// =============================================================================
// SPECIAL DAYS
// =============================================================================

// AssignmentType classifies a special assignment's date.
type AssignmentType string

const (
	AssignmentSunday  AssignmentType = "sunday"
	AssignmentHoliday AssignmentType = "holiday"
)

// SpecialAssignment is one employee's staffing on one specific
// non-recurring date. Not derived from any template.
type SpecialAssignment struct {
	ID         string
	EmployeeID string
	BranchID   string
	Date       calendar.Date
	Type       AssignmentType
	Start      calendar.ClockTime
	End        calendar.ClockTime
}

// Holiday is reference data driving which dates UI pickers offer for
// holiday-type assignments.
type Holiday struct {
	ID          string
	Date        calendar.Date
	Name        string
	Description string
	Active      bool
}
