package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/scheduling-engine/calendar"
	"github.com/warp/scheduling-engine/directory"
	"github.com/warp/scheduling-engine/engine"
	"github.com/warp/scheduling-engine/policy"
	"github.com/warp/scheduling-engine/roster"
	"github.com/warp/scheduling-engine/store/sqlite"
	"github.com/warp/scheduling-engine/timeoff"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedEmployee(t *testing.T, store *sqlite.Store, id, name, position, branch string) {
	t.Helper()
	err := store.SaveEmployee(context.Background(), directory.Employee{
		ID: id, Name: name, Position: position, BranchID: branch,
	})
	require.NoError(t, err)
}

func request(id, employeeID, start, end string, status timeoff.Status) timeoff.Request {
	return timeoff.Request{
		ID:          id,
		EmployeeID:  employeeID,
		DateStart:   calendar.MustParseDate(start),
		DateEnd:     calendar.MustParseDate(end),
		Status:      status,
		RequestedAt: time.Now().UTC(),
	}
}

// =============================================================================
// DIRECTORY TESTS
// =============================================================================

func TestDirectory_UpsertAndLookup(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedEmployee(t, store, "emp-1", "Ana", "cashier", "downtown")

	emp, err := store.Lookup(ctx, "emp-1")
	require.NoError(t, err)
	require.NotNil(t, emp)
	assert.Equal(t, "cashier", emp.Position)

	// Upsert replaces position and branch.
	seedEmployee(t, store, "emp-1", "Ana", "branch manager", "harbor")
	emp, err = store.Lookup(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, "branch manager", emp.Position)
	assert.Equal(t, "harbor", emp.BranchID)

	// Unknown ids resolve to nil, not an error.
	emp, err = store.Lookup(ctx, "emp-ghost")
	require.NoError(t, err)
	assert.Nil(t, emp)
}

// =============================================================================
// TEMPLATE / PLAN PERSISTENCE TESTS
// =============================================================================

func TestTemplates_CascadeDelete(t *testing.T) {
	// GIVEN: A template with rows
	// WHEN: Deleting the template
	// THEN: Its rows go with it (FK ON DELETE CASCADE)

	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	tmpl := roster.ShiftTemplate{ID: "tpl-1", Name: "Standard", Active: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, store.InsertTemplate(ctx, tmpl))
	require.NoError(t, store.InsertTemplateRow(ctx, roster.TemplateRow{
		ID: "row-1", TemplateID: "tpl-1", EmployeeID: "emp-1", BranchID: "downtown",
		DayOfWeek: 1, Start: 9 * 60, End: 17 * 60,
	}))

	require.NoError(t, store.DeleteTemplate(ctx, "tpl-1"))

	rows, err := store.TemplateRows(ctx, "tpl-1")
	require.NoError(t, err)
	assert.Empty(t, rows)

	got, err := store.GetTemplate(ctx, "tpl-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPlans_UniqueWeekConstraint(t *testing.T) {
	// GIVEN: A persisted plan for a week
	// WHEN: Inserting a second plan with the same week_start
	// THEN: Conflict error; the first plan is untouched

	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	week := calendar.MustParseDate("2025-03-10")

	first := roster.WeeklyPlan{ID: "plan-1", WeekStart: week, Status: roster.PlanDraft, Notes: "original", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, store.InsertPlan(ctx, first))

	second := roster.WeeklyPlan{ID: "plan-2", WeekStart: week, Status: roster.PlanDraft, CreatedAt: now, UpdatedAt: now}
	err := store.InsertPlan(ctx, second)
	require.Error(t, err)
	assert.True(t, engine.IsConflict(err))

	got, err := store.GetPlanByWeek(ctx, week)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "plan-1", got.ID)
	assert.Equal(t, "original", got.Notes)
}

func TestPlans_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	tplID := "tpl-1"

	require.NoError(t, store.InsertTemplate(ctx, roster.ShiftTemplate{
		ID: tplID, Name: "Standard", Active: true, CreatedAt: now, UpdatedAt: now,
	}))

	plan := roster.WeeklyPlan{
		ID:               "plan-1",
		WeekStart:        calendar.MustParseDate("2025-03-10"),
		SourceTemplateID: &tplID,
		Status:           roster.PlanDraft,
		Notes:            "week 11",
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	require.NoError(t, store.InsertPlan(ctx, plan))

	got, err := store.GetPlan(ctx, "plan-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "2025-03-10", got.WeekStart.String())
	require.NotNil(t, got.SourceTemplateID)
	assert.Equal(t, tplID, *got.SourceTemplateID)
	assert.Equal(t, "week 11", got.Notes)

	require.NoError(t, store.UpdatePlanStatus(ctx, "plan-1", roster.PlanSent))
	got, err = store.GetPlan(ctx, "plan-1")
	require.NoError(t, err)
	assert.Equal(t, roster.PlanSent, got.Status)

	// Clock times survive the minutes round trip.
	require.NoError(t, store.InsertPlanRow(ctx, roster.PlanRow{
		ID: "row-1", PlanID: "plan-1", EmployeeID: "emp-1", BranchID: "downtown",
		DayOfWeek: 2, Start: 9*60 + 30, End: 17 * 60,
	}))
	rows, err := store.PlanRows(ctx, "plan-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "09:30", rows[0].Start.String())
	assert.Equal(t, "17:00", rows[0].End.String())
}

func TestDeletes_MapMissingToNotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	assert.True(t, engine.IsNotFound(store.DeleteTemplate(ctx, "tpl-ghost")))
	assert.True(t, engine.IsNotFound(store.DeleteTemplateRow(ctx, "row-ghost")))
	assert.True(t, engine.IsNotFound(store.DeletePlanRow(ctx, "row-ghost")))
	assert.True(t, engine.IsNotFound(store.DeleteAssignment(ctx, "as-ghost")))
	assert.True(t, engine.IsNotFound(store.DeleteHoliday(ctx, "hol-ghost")))
}

// =============================================================================
// TIME-OFF PERSISTENCE TESTS
// =============================================================================

func TestTimeOff_PeerOpenRequests_Scoping(t *testing.T) {
	// GIVEN: Requests from the requester, a same-group peer, a different
	//        branch, a different position, and a rejected peer
	// WHEN: Querying open peer requests for cashier/downtown excluding emp-1
	// THEN: Only the same-group pending/approved requests come back

	store := newTestStore(t)
	ctx := context.Background()

	seedEmployee(t, store, "emp-1", "Ana", "cashier", "downtown")
	seedEmployee(t, store, "emp-2", "Bea", "cashier", "downtown")
	seedEmployee(t, store, "emp-3", "Caro", "cashier", "harbor")
	seedEmployee(t, store, "emp-4", "Dan", "branch manager", "downtown")

	require.NoError(t, store.Insert(ctx, request("req-own", "emp-1", "2025-03-10", "2025-03-14", timeoff.StatusApproved)))
	require.NoError(t, store.Insert(ctx, request("req-peer-approved", "emp-2", "2025-03-10", "2025-03-14", timeoff.StatusApproved)))
	require.NoError(t, store.Insert(ctx, request("req-peer-pending", "emp-2", "2025-04-01", "2025-04-04", timeoff.StatusPending)))
	require.NoError(t, store.Insert(ctx, request("req-peer-rejected", "emp-2", "2025-05-01", "2025-05-02", timeoff.StatusRejected)))
	require.NoError(t, store.Insert(ctx, request("req-other-branch", "emp-3", "2025-03-10", "2025-03-14", timeoff.StatusApproved)))
	require.NoError(t, store.Insert(ctx, request("req-other-position", "emp-4", "2025-03-10", "2025-03-14", timeoff.StatusApproved)))

	peers, err := store.PeerOpenRequests(ctx, "cashier", "downtown", "emp-1")
	require.NoError(t, err)

	ids := make([]string, 0, len(peers))
	for _, r := range peers {
		ids = append(ids, r.ID)
	}
	assert.ElementsMatch(t, []string{"req-peer-approved", "req-peer-pending"}, ids)
}

func TestTimeOff_RoundTripAndStatusUpdate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	req := request("req-1", "emp-1", "2025-03-10", "2025-03-14", timeoff.StatusPending)
	req.Reason = "vacation"
	require.NoError(t, store.Insert(ctx, req))

	got, err := store.Get(ctx, "req-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "2025-03-10", got.DateStart.String())
	assert.Equal(t, "2025-03-14", got.DateEnd.String())
	assert.Equal(t, "vacation", got.Reason)
	assert.Nil(t, got.DecidedAt)

	decidedAt := time.Now().UTC()
	require.NoError(t, store.UpdateStatus(ctx, "req-1", timeoff.StatusRejected, "understaffed", decidedAt))

	got, err = store.Get(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, timeoff.StatusRejected, got.Status)
	assert.Equal(t, "understaffed", got.DecisionNote)
	require.NotNil(t, got.DecidedAt)

	missing, err := store.Get(ctx, "req-ghost")
	require.NoError(t, err)
	assert.Nil(t, missing)

	err = store.UpdateStatus(ctx, "req-ghost", timeoff.StatusApproved, "", decidedAt)
	assert.True(t, engine.IsNotFound(err))
}

func TestTimeOff_WithTx_RollsBackOnError(t *testing.T) {
	// GIVEN: A transaction that inserts and then fails
	// WHEN: WithTx returns the callback's error
	// THEN: The insert is rolled back

	store := newTestStore(t)
	ctx := context.Background()

	sentinel := assert.AnError
	err := store.WithTx(ctx, func(tx timeoff.Store) error {
		if err := tx.Insert(ctx, request("req-tx", "emp-1", "2025-03-10", "2025-03-14", timeoff.StatusPending)); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	got, err := store.Get(ctx, "req-tx")
	require.NoError(t, err)
	assert.Nil(t, got, "rolled-back insert must not be visible")
}

func TestTimeOff_WithTx_CommitsOnSuccess(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.WithTx(ctx, func(tx timeoff.Store) error {
		return tx.Insert(ctx, request("req-tx", "emp-1", "2025-03-10", "2025-03-14", timeoff.StatusPending))
	})
	require.NoError(t, err)

	got, err := store.Get(ctx, "req-tx")
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestTimeOff_ListQueries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	older := request("req-old", "emp-1", "2025-03-10", "2025-03-14", timeoff.StatusPending)
	older.RequestedAt = time.Now().UTC().Add(-48 * time.Hour)
	newer := request("req-new", "emp-1", "2025-04-07", "2025-04-11", timeoff.StatusPending)
	approved := request("req-approved", "emp-2", "2025-03-10", "2025-03-14", timeoff.StatusApproved)

	require.NoError(t, store.Insert(ctx, older))
	require.NoError(t, store.Insert(ctx, newer))
	require.NoError(t, store.Insert(ctx, approved))

	mine, err := store.ListByEmployee(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "req-new", mine[0].ID, "newest first")

	pending, err := store.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	for _, r := range pending {
		assert.Equal(t, timeoff.StatusPending, r.Status)
	}
}

// =============================================================================
// SPECIAL ASSIGNMENTS / HOLIDAYS
// =============================================================================

func TestAssignments_FilterByDate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	mayDay := calendar.MustParseDate("2025-05-01")

	require.NoError(t, store.InsertAssignment(ctx, roster.SpecialAssignment{
		ID: "as-1", EmployeeID: "emp-1", BranchID: "downtown",
		Date: mayDay, Type: roster.AssignmentHoliday, Start: 8 * 60, End: 12 * 60,
	}))
	require.NoError(t, store.InsertAssignment(ctx, roster.SpecialAssignment{
		ID: "as-2", EmployeeID: "emp-2", BranchID: "downtown",
		Date: calendar.MustParseDate("2025-05-04"), Type: roster.AssignmentSunday, Start: 10 * 60, End: 14 * 60,
	}))

	listed, err := store.AssignmentsFor(ctx, mayDay)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "as-1", listed[0].ID)
}

func TestHolidays_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	h := roster.Holiday{ID: "hol-1", Date: calendar.MustParseDate("2025-05-01"), Name: "Labor Day", Active: true}
	require.NoError(t, store.InsertHoliday(ctx, h))

	h.Active = false
	require.NoError(t, store.UpdateHoliday(ctx, h))

	listed, err := store.ListHolidays(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.False(t, listed[0].Active)

	require.NoError(t, store.DeleteHoliday(ctx, "hol-1"))
	listed, err = store.ListHolidays(ctx)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

// =============================================================================
// LIFECYCLE OVER A SINGLE STORE
// =============================================================================

// The server wires one sqlite store as the request store and the employee
// directory at the same time. Approval must complete under that wiring:
// WithTx holds the store's write lock for the whole transaction, so no
// directory read may run inside it.
func TestApprove_SingleStoreWiring(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedEmployee(t, store, "emp-1", "Ana", "cashier", "downtown")
	seedEmployee(t, store, "emp-2", "Bea", "cashier", "downtown")

	rules := policy.RuleSet{
		BlockDecember:                  true,
		RecessWindowEnforced:           true,
		ManagerNovemberLastWeekBlocked: true,
		ManagerPositions:               []string{"branch manager"},
	}
	validator := timeoff.NewValidator(rules, store, store)
	lifecycle := timeoff.NewService(store, store, validator)

	// GIVEN two pending overlapping requests from peers.
	week := calendar.NewRange(
		calendar.MustParseDate("2025-03-10"), calendar.MustParseDate("2025-03-14"))
	ana, err := lifecycle.Submit(ctx, "emp-1", week, "spring trip")
	require.NoError(t, err)
	bea, err := lifecycle.Submit(ctx, "emp-2", week, "")
	require.NoError(t, err)
	require.Len(t, bea.PendingOverlaps, 1)

	// WHEN the first one is approved.
	type outcome struct {
		req *timeoff.Request
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		req, err := lifecycle.Approve(ctx, ana.Request.ID)
		done <- outcome{req, err}
	}()

	// THEN approval completes instead of hanging on the store lock.
	select {
	case out := <-done:
		require.NoError(t, out.err)
		assert.Equal(t, timeoff.StatusApproved, out.req.Status)
	case <-time.After(5 * time.Second):
		t.Fatal("approval did not complete")
	}

	// AND the peer's approval fails on the re-scan, with the conflict
	// detail naming who collides.
	_, err = lifecycle.Approve(ctx, bea.Request.ID)
	require.Error(t, err)
	assert.True(t, engine.IsConflict(err))

	var conflictErr *engine.ConflictError
	require.ErrorAs(t, err, &conflictErr)
	summaries, ok := conflictErr.Detail.([]timeoff.RequestSummary)
	require.True(t, ok)
	require.Len(t, summaries, 1)
	assert.Equal(t, ana.Request.ID, summaries[0].RequestID)
	assert.Equal(t, "Ana", summaries[0].EmployeeName)
}
