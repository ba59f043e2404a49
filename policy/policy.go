/*
Package policy holds the organization-wide time-off rules and their
evaluation.

PURPOSE:
  A small, closed set of named rule flags, each with one evaluation
  function. The rule set is injected into the validator, never read from
  ambient globals, so rule evaluation is a pure function of
  (request, ruleset) and each rule is independently testable.

RULES (evaluated in this order, first failure wins):
  1. December block        - no time off touching December
  2. Recess single-week    - at most one of the two fixed recess weeks
  3. Manager November      - branch managers blocked Nov 24-30

A failing rule produces a Reason, not an error: policy rejection is an
expected outcome and is surfaced verbatim to the end user.
*/
package policy

import (
	"strings"
	"time"

	"github.com/warp/scheduling-engine/calendar"
)

// =============================================================================
// REASONS - Why a request was rejected by policy
// =============================================================================

// Reason identifies the rule that rejected a request.
type Reason string

const (
	ReasonDecemberBlocked         Reason = "december_blocked"
	ReasonRecessOverlapsBothWeeks Reason = "recess_overlaps_both_weeks"
	ReasonManagerNovemberBlocked  Reason = "manager_november_blocked"
)

// Message returns the user-facing rejection text for a reason.
func (r Reason) Message() string {
	switch r {
	case ReasonDecemberBlocked:
		return "time off touching December is blocked"
	case ReasonRecessOverlapsBothWeeks:
		return "a request may cover at most one of the two recess weeks"
	case ReasonManagerNovemberBlocked:
		return "branch managers cannot take time off during the last week of November"
	default:
		return string(r)
	}
}

// =============================================================================
// RULE SET - Organization-wide configuration
// =============================================================================

// RuleSet is the active set of blocking rules. Read-mostly configuration,
// editable by administrators, injected into the validator.
type RuleSet struct {
	// BlockDecember rejects any request touching December of any year.
	BlockDecember bool

	// RecessWindowEnforced rejects requests spanning both fixed recess
	// weeks (Jul 20-26 and Jul 27-Aug 2).
	RecessWindowEnforced bool

	// ManagerNovemberLastWeekBlocked rejects branch-manager requests
	// overlapping Nov 24-30.
	ManagerNovemberLastWeekBlocked bool

	// ManagerPositions lists the positions treated as branch managers.
	ManagerPositions []string
}

// IsManagerPosition reports whether a position counts as a branch manager.
// Case-insensitive.
func (rs RuleSet) IsManagerPosition(position string) bool {
	for _, p := range rs.ManagerPositions {
		if strings.EqualFold(p, position) {
			return true
		}
	}
	return false
}

// =============================================================================
// EVALUATION
// =============================================================================

// Evaluate runs the static rule checks against a proposed date range.
// Returns the first failing rule's reason, or ok=true if all rules pass.
func Evaluate(rs RuleSet, requesterPosition string, rng calendar.DateRange) (Reason, bool) {
	if rs.BlockDecember && touchesDecember(rng) {
		return ReasonDecemberBlocked, false
	}
	if rs.RecessWindowEnforced && overlapsBothRecessWeeks(rng) {
		return ReasonRecessOverlapsBothWeeks, false
	}
	if rs.ManagerNovemberLastWeekBlocked &&
		rs.IsManagerPosition(requesterPosition) &&
		touchesManagerNovemberWindow(rng) {
		return ReasonManagerNovemberBlocked, false
	}
	return "", true
}

// touchesDecember reports whether the range overlaps December of any
// calendar year it touches.
func touchesDecember(rng calendar.DateRange) bool {
	for _, year := range rng.YearsTouched() {
		december := calendar.NewRange(
			calendar.NewDate(year, time.December, 1),
			calendar.NewDate(year, time.December, 31),
		)
		if rng.Overlaps(december) {
			return true
		}
	}
	return false
}

// RecessWeeks returns the two fixed recess sub-windows for a year:
// R1 = [Jul 20, Jul 26] and R2 = [Jul 27, Aug 2].
func RecessWeeks(year int) (calendar.DateRange, calendar.DateRange) {
	r1 := calendar.NewRange(
		calendar.NewDate(year, time.July, 20),
		calendar.NewDate(year, time.July, 26),
	)
	r2 := calendar.NewRange(
		calendar.NewDate(year, time.July, 27),
		calendar.NewDate(year, time.August, 2),
	)
	return r1, r2
}

// overlapsBothRecessWeeks checks the single-week recess rule for the year
// of the range's start date. An employee may take at most one of the two
// recess weeks, not a span crossing both.
func overlapsBothRecessWeeks(rng calendar.DateRange) bool {
	r1, r2 := RecessWeeks(rng.Start.Year())
	return rng.Overlaps(r1) && rng.Overlaps(r2)
}

// touchesManagerNovemberWindow reports whether the range overlaps
// Nov 24-30 of any touched year.
func touchesManagerNovemberWindow(rng calendar.DateRange) bool {
	for _, year := range rng.YearsTouched() {
		window := calendar.NewRange(
			calendar.NewDate(year, time.November, 24),
			calendar.NewDate(year, time.November, 30),
		)
		if rng.Overlaps(window) {
			return true
		}
	}
	return false
}
