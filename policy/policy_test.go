package policy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/warp/scheduling-engine/calendar"
	"github.com/warp/scheduling-engine/policy"
)

func allRules() policy.RuleSet {
	return policy.RuleSet{
		BlockDecember:                  true,
		RecessWindowEnforced:           true,
		ManagerNovemberLastWeekBlocked: true,
		ManagerPositions:               []string{"branch manager"},
	}
}

func rng(start, end string) calendar.DateRange {
	return calendar.NewRange(calendar.MustParseDate(start), calendar.MustParseDate(end))
}

// =============================================================================
// DECEMBER BLOCK
// =============================================================================

func TestEvaluate_DecemberBlock(t *testing.T) {
	// GIVEN: A request straddling the November/December boundary
	// WHEN: Evaluating with the December block active
	// THEN: Rejected, even though only part of the range touches December

	reason, ok := policy.Evaluate(allRules(), "cashier", rng("2025-11-28", "2025-12-02"))
	assert.False(t, ok)
	assert.Equal(t, policy.ReasonDecemberBlocked, reason)

	// Entirely inside December.
	reason, ok = policy.Evaluate(allRules(), "cashier", rng("2025-12-10", "2025-12-12"))
	assert.False(t, ok)
	assert.Equal(t, policy.ReasonDecemberBlocked, reason)

	// Ends the day before December.
	_, ok = policy.Evaluate(allRules(), "cashier", rng("2025-11-20", "2025-11-30"))
	assert.True(t, ok)
}

func TestEvaluate_DecemberBlock_MultiYearSpan(t *testing.T) {
	// A range crossing the year boundary touches December of the first year.
	reason, ok := policy.Evaluate(allRules(), "cashier", rng("2025-12-30", "2026-01-05"))
	assert.False(t, ok)
	assert.Equal(t, policy.ReasonDecemberBlocked, reason)
}

func TestEvaluate_DecemberBlock_Disabled(t *testing.T) {
	rules := allRules()
	rules.BlockDecember = false

	_, ok := policy.Evaluate(rules, "cashier", rng("2025-12-10", "2025-12-12"))
	assert.True(t, ok)
}

// =============================================================================
// RECESS SINGLE-WEEK RULE
// =============================================================================

func TestEvaluate_RecessSingleWeek(t *testing.T) {
	// GIVEN: The two fixed recess weeks, Jul 20-26 and Jul 27-Aug 2
	// WHEN: Requesting a span crossing both
	// THEN: Rejected; a span covering only one week passes

	reason, ok := policy.Evaluate(allRules(), "cashier", rng("2025-07-22", "2025-07-29"))
	assert.False(t, ok)
	assert.Equal(t, policy.ReasonRecessOverlapsBothWeeks, reason)

	// Exactly the first recess week.
	_, ok = policy.Evaluate(allRules(), "cashier", rng("2025-07-20", "2025-07-26"))
	assert.True(t, ok)

	// Exactly the second recess week.
	_, ok = policy.Evaluate(allRules(), "cashier", rng("2025-07-27", "2025-08-02"))
	assert.True(t, ok)

	// Touching neither.
	_, ok = policy.Evaluate(allRules(), "cashier", rng("2025-07-07", "2025-07-11"))
	assert.True(t, ok)
}

func TestRecessWeeks(t *testing.T) {
	r1, r2 := policy.RecessWeeks(2025)
	assert.Equal(t, "[2025-07-20, 2025-07-26]", r1.String())
	assert.Equal(t, "[2025-07-27, 2025-08-02]", r2.String())
	assert.False(t, r1.Overlaps(r2), "the two windows must not overlap")
}

// =============================================================================
// MANAGER NOVEMBER RULE
// =============================================================================

func TestEvaluate_ManagerNovember(t *testing.T) {
	// GIVEN: A branch manager requesting days inside Nov 24-30
	// WHEN: Evaluating with the manager rule active
	// THEN: The manager is rejected, a cashier over the same span is not

	reason, ok := policy.Evaluate(allRules(), "branch manager", rng("2025-11-25", "2025-11-26"))
	assert.False(t, ok)
	assert.Equal(t, policy.ReasonManagerNovemberBlocked, reason)

	_, ok = policy.Evaluate(allRules(), "cashier", rng("2025-11-25", "2025-11-26"))
	assert.True(t, ok)

	// Position matching is case-insensitive.
	_, ok = policy.Evaluate(allRules(), "Branch Manager", rng("2025-11-25", "2025-11-26"))
	assert.False(t, ok)

	// A manager just outside the window passes.
	_, ok = policy.Evaluate(allRules(), "branch manager", rng("2025-11-17", "2025-11-21"))
	assert.True(t, ok)
}

// =============================================================================
// RULE ORDERING
// =============================================================================

func TestEvaluate_FirstFailureWins(t *testing.T) {
	// GIVEN: A manager request violating both the November window and the
	//        December block (Nov 28 - Dec 2)
	// WHEN: Evaluating
	// THEN: The December block fires first

	reason, ok := policy.Evaluate(allRules(), "branch manager", rng("2025-11-28", "2025-12-02"))
	assert.False(t, ok)
	assert.Equal(t, policy.ReasonDecemberBlocked, reason)
}

func TestReason_Message(t *testing.T) {
	assert.NotEmpty(t, policy.ReasonDecemberBlocked.Message())
	assert.NotEmpty(t, policy.ReasonRecessOverlapsBothWeeks.Message())
	assert.NotEmpty(t, policy.ReasonManagerNovemberBlocked.Message())
}
