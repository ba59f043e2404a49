/*
Package timeoff implements the time-off request validator and lifecycle,
the algorithmic heart of the engine.

PURPOSE:
  Given a proposed date range and a requester, classify the request
  against the organization's static policy rules and against other
  employees' overlapping requests, then own the pending -> approved /
  rejected state transitions.

CLASSIFICATION:
  Valid      all rules pass, no overlapping peer requests
  Invalid    a static policy rule fired (reason surfaced verbatim)
  Conflict   an APPROVED peer request overlaps - hard block
  Warning    only PENDING peer requests overlap - advisory, submission
             proceeds and the caller prompts for confirmation

PEER GROUP:
  Conflicts are scoped to employees sharing BOTH position and branch with
  the requester. Two employees in different roles or locations being off
  simultaneously is not a staffing risk; scoping avoids false positives.

THE ONE CORRECTNESS-CRITICAL INVARIANT:
  No two approved requests may ever overlap within the same
  position+branch peer group. The conflict scan therefore re-runs at
  approval time inside a store transaction - the warning computed at
  submission is never the source of truth.

SEE ALSO:
  - validator.go: classification
  - lifecycle.go: submit / approve / reject
  - policy:       the static rules
*/
package timeoff

import (
	"time"

	"github.com/warp/scheduling-engine/calendar"
	"github.com/warp/scheduling-engine/policy"
)

// =============================================================================
// REQUEST
// =============================================================================

// Status is monotonic: pending -> approved or pending -> rejected. Both
// terminal states are final for conflict-detection purposes; a rejected
// request never blocks future ones, an approved one always does.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Request is one employee's time-off request over an inclusive date range.
type Request struct {
	ID           string
	EmployeeID   string
	DateStart    calendar.Date
	DateEnd      calendar.Date
	Status       Status
	Reason       string
	RequestedAt  time.Time
	DecidedAt    *time.Time
	DecisionNote string
}

// Range returns the request's inclusive date range.
func (r Request) Range() calendar.DateRange {
	return calendar.NewRange(r.DateStart, r.DateEnd)
}

// Age returns whole days elapsed since the request was submitted, for
// staleness reporting.
func (r Request) Age(now time.Time) int {
	return int(now.Sub(r.RequestedAt).Hours() / 24)
}

// RequestSummary is the overlap detail surfaced to callers. It carries
// the colliding peer's name, not just an id: operationally useful context
// is the point of this subsystem.
type RequestSummary struct {
	RequestID    string
	EmployeeID   string
	EmployeeName string
	DateStart    calendar.Date
	DateEnd      calendar.Date
	Status       Status
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// Outcome classifies a validation.
type Outcome string

const (
	OutcomeValid    Outcome = "valid"
	OutcomeInvalid  Outcome = "invalid"
	OutcomeConflict Outcome = "conflict"
	OutcomeWarning  Outcome = "warning"
)

// Result is the validator's classification of a proposed request.
// Policy rejections and conflicts are results, not errors: they are
// expected, frequent outcomes.
type Result struct {
	Outcome Outcome

	// Reason is set when Outcome is OutcomeInvalid.
	Reason policy.Reason

	// Conflicts holds overlapping APPROVED peer requests (hard block).
	Conflicts []RequestSummary

	// Pending holds overlapping PENDING peer requests (advisory).
	Pending []RequestSummary
}

// Blocked reports whether the result forbids submission outright.
func (r *Result) Blocked() bool {
	return r.Outcome == OutcomeInvalid || r.Outcome == OutcomeConflict
}

// =============================================================================
// POLICY ERROR - A rule rejection escaping as a typed failure
// =============================================================================

// PolicyError is returned by Submit when a static rule fired. It is the
// business rejection carrying the rule's reason, distinct from the
// structural error taxonomy in the engine package.
type PolicyError struct {
	Reason policy.Reason
}

func (e *PolicyError) Error() string { return e.Reason.Message() }
