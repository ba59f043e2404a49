package timeoff

import (
	"context"
	"fmt"

	"github.com/warp/scheduling-engine/calendar"
	"github.com/warp/scheduling-engine/directory"
	"github.com/warp/scheduling-engine/engine"
	"github.com/warp/scheduling-engine/policy"
)

// =============================================================================
// VALIDATOR
// =============================================================================

// Validator classifies proposed time-off requests. Rule evaluation is a
// pure function of (request, ruleset, existing requests): the rule set is
// injected here, never read from ambient state.
type Validator struct {
	Rules     policy.RuleSet
	Directory directory.Directory
	Requests  Store
}

// NewValidator wires a validator.
func NewValidator(rules policy.RuleSet, dir directory.Directory, requests Store) *Validator {
	return &Validator{Rules: rules, Directory: dir, Requests: requests}
}

// Validate classifies a proposed request.
//
// Preconditions are structural, not policy: a reversed range or an
// unknown employee is a caller bug and returns an error. Policy
// rejections and conflicts come back inside the Result.
func (v *Validator) Validate(ctx context.Context, employeeID string, rng calendar.DateRange) (*Result, error) {
	if employeeID == "" {
		return nil, engine.Invalid("employee_id", "must not be empty")
	}
	if !rng.Valid() {
		return nil, engine.Invalid("date_range", "date_end must not be before date_start")
	}

	emp, err := v.Directory.Lookup(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("lookup employee: %w", err)
	}
	if emp == nil {
		return nil, engine.NotFound("employee", employeeID)
	}

	// Step 1: static policy checks, spec order, first failure wins.
	if reason, ok := policy.Evaluate(v.Rules, emp.Position, rng); !ok {
		return &Result{Outcome: OutcomeInvalid, Reason: reason}, nil
	}

	// Step 2: conflict scan against the position+branch peer group.
	result, err := v.scan(ctx, v.Requests, emp, rng, "")
	if err != nil {
		return nil, err
	}
	if err := v.nameSummaries(ctx, result.Conflicts); err != nil {
		return nil, err
	}
	if err := v.nameSummaries(ctx, result.Pending); err != nil {
		return nil, err
	}
	return result, nil
}

// scan partitions overlapping peer requests into hard conflicts
// (approved) and advisory warnings (pending). excludeRequestID skips a
// specific request, used by the approval-time re-scan.
//
// The summaries come back without employee names. The approval path runs
// scan while the store holds its write lock, and the sqlite store doubles
// as the directory, so a directory read here would re-enter the lock.
// Callers fill the names with nameSummaries once the lock is released.
func (v *Validator) scan(ctx context.Context, store Store, emp *directory.Employee, rng calendar.DateRange, excludeRequestID string) (*Result, error) {
	peers, err := store.PeerOpenRequests(ctx, emp.Position, emp.BranchID, emp.ID)
	if err != nil {
		return nil, fmt.Errorf("scan peer requests: %w", err)
	}

	var conflicts, pending []RequestSummary
	for _, req := range peers {
		if req.ID == excludeRequestID {
			continue
		}
		if !rng.Overlaps(req.Range()) {
			continue
		}
		summary := RequestSummary{
			RequestID:  req.ID,
			EmployeeID: req.EmployeeID,
			DateStart:  req.DateStart,
			DateEnd:    req.DateEnd,
			Status:     req.Status,
		}
		switch req.Status {
		case StatusApproved:
			conflicts = append(conflicts, summary)
		case StatusPending:
			pending = append(pending, summary)
		}
	}

	switch {
	case len(conflicts) > 0:
		return &Result{Outcome: OutcomeConflict, Conflicts: conflicts}, nil
	case len(pending) > 0:
		return &Result{Outcome: OutcomeWarning, Pending: pending}, nil
	default:
		return &Result{Outcome: OutcomeValid}, nil
	}
}

// nameSummaries resolves the peers' display names in place. Must only be
// called while no store lock is held.
func (v *Validator) nameSummaries(ctx context.Context, summaries []RequestSummary) error {
	names := make(map[string]string)
	for i := range summaries {
		id := summaries[i].EmployeeID
		name, ok := names[id]
		if !ok {
			emp, err := v.Directory.Lookup(ctx, id)
			if err != nil {
				return fmt.Errorf("lookup peer employee: %w", err)
			}
			if emp != nil {
				name = emp.Name
			}
			names[id] = name
		}
		summaries[i].EmployeeName = name
	}
	return nil
}
