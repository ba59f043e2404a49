package roster

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PLAN SUMMARY - Scheduled-hours totals consumed by report generation
// =============================================================================

// EmployeeHours aggregates one employee's scheduled load within a plan.
// Hours are decimal to keep fractional shifts (e.g. 7h30) exact across
// summation; report generation downstream must not accumulate float drift.
type EmployeeHours struct {
	EmployeeID string
	Shifts     int
	Hours      decimal.Decimal
}

// PlanSummary is the per-employee staffing total for one weekly plan.
type PlanSummary struct {
	PlanID     string
	WeekStart  string
	Employees  []EmployeeHours
	TotalHours decimal.Decimal
}

var minutesPerHour = decimal.NewFromInt(60)

// Summary computes per-employee scheduled hours for a plan.
func (s *PlanService) Summary(ctx context.Context, planID string) (*PlanSummary, error) {
	plan, err := s.mustGet(ctx, planID)
	if err != nil {
		return nil, err
	}
	rows, err := s.Store.PlanRows(ctx, planID)
	if err != nil {
		return nil, err
	}

	perEmployee := make(map[string]*EmployeeHours)
	total := decimal.Zero
	for _, row := range rows {
		hours := decimal.NewFromInt(int64(row.End.Sub(row.Start))).Div(minutesPerHour)
		eh, ok := perEmployee[row.EmployeeID]
		if !ok {
			eh = &EmployeeHours{EmployeeID: row.EmployeeID, Hours: decimal.Zero}
			perEmployee[row.EmployeeID] = eh
		}
		eh.Shifts++
		eh.Hours = eh.Hours.Add(hours)
		total = total.Add(hours)
	}

	summary := &PlanSummary{
		PlanID:     plan.ID,
		WeekStart:  plan.WeekStart.String(),
		TotalHours: total,
	}
	for _, eh := range perEmployee {
		summary.Employees = append(summary.Employees, *eh)
	}
	sort.Slice(summary.Employees, func(i, j int) bool {
		return summary.Employees[i].EmployeeID < summary.Employees[j].EmployeeID
	})

	return summary, nil
}
