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
// SPECIAL-DAY SERVICE
// =============================================================================

// SpecialDayService owns staffing for specific non-recurring dates and the
// holiday reference table UI pickers read.
type SpecialDayService struct {
	Store Store
}

// NewSpecialDayService creates a special-day service over a store.
func NewSpecialDayService(store Store) *SpecialDayService {
	return &SpecialDayService{Store: store}
}

// Assign records one employee's staffing on a special date.
//
// For type "sunday" the date must actually fall on a Sunday. For type
// "holiday" the holiday table is advisory reference data only; the date
// need not exist there for the operation to succeed.
//
// No uniqueness is enforced per employee/date: duplicates are allowed and
// the last writer wins semantically. Intentional open area.
func (s *SpecialDayService) Assign(ctx context.Context, employeeID, branchID string, date calendar.Date, typ AssignmentType, start, end string) (*SpecialAssignment, error) {
	if date.IsZero() {
		return nil, engine.Invalid("date", "must be a valid date")
	}
	switch typ {
	case AssignmentSunday:
		if date.Weekday() != time.Sunday {
			return nil, engine.Invalid("date", fmt.Sprintf("%s is not a Sunday", date))
		}
	case AssignmentHoliday:
		// Holiday table is advisory only; no lookup.
	default:
		return nil, engine.Invalid("type", fmt.Sprintf("unknown assignment type %q", typ))
	}
	startClock, endClock, err := validateRowTimes(employeeID, branchID, 0, start, end)
	if err != nil {
		return nil, err
	}

	a := SpecialAssignment{
		ID:         uuid.NewString(),
		EmployeeID: employeeID,
		BranchID:   branchID,
		Date:       date,
		Type:       typ,
		Start:      startClock,
		End:        endClock,
	}
	if err := s.Store.InsertAssignment(ctx, a); err != nil {
		return nil, fmt.Errorf("insert assignment: %w", err)
	}
	return &a, nil
}

// Unassign deletes a single special assignment.
func (s *SpecialDayService) Unassign(ctx context.Context, id string) error {
	return s.Store.DeleteAssignment(ctx, id)
}

// ListFor returns all special assignments on a date.
func (s *SpecialDayService) ListFor(ctx context.Context, date calendar.Date) ([]SpecialAssignment, error) {
	return s.Store.AssignmentsFor(ctx, date)
}

// =============================================================================
// HOLIDAY REFERENCE DATA
// =============================================================================

// CreateHoliday adds a holiday record.
func (s *SpecialDayService) CreateHoliday(ctx context.Context, date calendar.Date, name, description string) (*Holiday, error) {
	if name == "" {
		return nil, engine.Invalid("name", "must not be empty")
	}
	if date.IsZero() {
		return nil, engine.Invalid("date", "must be a valid date")
	}

	h := Holiday{
		ID:          uuid.NewString(),
		Date:        date,
		Name:        name,
		Description: description,
		Active:      true,
	}
	if err := s.Store.InsertHoliday(ctx, h); err != nil {
		return nil, fmt.Errorf("insert holiday: %w", err)
	}
	return &h, nil
}

// SetHolidayActive toggles a holiday without deleting its history.
func (s *SpecialDayService) SetHolidayActive(ctx context.Context, id string, active bool) (*Holiday, error) {
	holidays, err := s.Store.ListHolidays(ctx)
	if err != nil {
		return nil, fmt.Errorf("list holidays: %w", err)
	}
	for _, h := range holidays {
		if h.ID == id {
			h.Active = active
			if err := s.Store.UpdateHoliday(ctx, h); err != nil {
				return nil, fmt.Errorf("update holiday: %w", err)
			}
			return &h, nil
		}
	}
	return nil, engine.NotFound("holiday", id)
}

// ListHolidays returns all holiday records.
func (s *SpecialDayService) ListHolidays(ctx context.Context) ([]Holiday, error) {
	return s.Store.ListHolidays(ctx)
}

// DeleteHoliday removes a holiday record.
func (s *SpecialDayService) DeleteHoliday(ctx context.Context, id string) error {
	return s.Store.DeleteHoliday(ctx, id)
}
