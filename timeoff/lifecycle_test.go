package timeoff_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/scheduling-engine/directory"
	"github.com/warp/scheduling-engine/engine"
	"github.com/warp/scheduling-engine/store/memory"
	"github.com/warp/scheduling-engine/timeoff"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newLifecycle(t *testing.T) (*timeoff.Service, *memory.RequestStore, *memory.Directory) {
	t.Helper()
	validator, store, dir := newFixture(t)
	return timeoff.NewService(store, dir, validator), store, dir
}

func submit(t *testing.T, svc *timeoff.Service, emp directory.Employee, start, end string) *timeoff.Submission {
	t.Helper()
	sub, err := svc.Submit(context.Background(), emp.ID, span(start, end), "vacation")
	require.NoError(t, err)
	return sub
}

// =============================================================================
// SUBMISSION TESTS
// =============================================================================

func TestSubmit_Valid_CreatesPendingRequest(t *testing.T) {
	svc, store, _ := newLifecycle(t)

	sub := submit(t, svc, ana, "2025-03-10", "2025-03-14")

	assert.NotEmpty(t, sub.Request.ID)
	assert.Equal(t, timeoff.StatusPending, sub.Request.Status)
	assert.Empty(t, sub.PendingOverlaps)

	persisted, err := store.Get(context.Background(), sub.Request.ID)
	require.NoError(t, err)
	require.NotNil(t, persisted)
	assert.Equal(t, ana.ID, persisted.EmployeeID)
}

func TestSubmit_PolicyRejection_NothingPersisted(t *testing.T) {
	// GIVEN: A request touching December
	// WHEN: Submitting
	// THEN: PolicyError with the rule's reason, and no request is stored

	svc, store, _ := newLifecycle(t)

	_, err := svc.Submit(context.Background(), ana.ID, span("2025-12-01", "2025-12-05"), "")
	var policyErr *timeoff.PolicyError
	require.ErrorAs(t, err, &policyErr)
	assert.Equal(t, "december_blocked", string(policyErr.Reason))

	pending, err := store.ListPending(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSubmit_HardConflict_Blocked(t *testing.T) {
	// GIVEN: Bea's approved overlapping request
	// WHEN: Ana submits
	// THEN: ConflictError carrying the colliding peers; nothing persisted

	svc, store, _ := newLifecycle(t)
	seedRequest(t, store, "req-bea", bea, "2025-03-10", "2025-03-14", timeoff.StatusApproved)

	_, err := svc.Submit(context.Background(), ana.ID, span("2025-03-12", "2025-03-16"), "")
	require.True(t, engine.IsConflict(err))

	var conflictErr *engine.ConflictError
	require.ErrorAs(t, err, &conflictErr)
	summaries, ok := conflictErr.Detail.([]timeoff.RequestSummary)
	require.True(t, ok)
	require.Len(t, summaries, 1)
	assert.Equal(t, "req-bea", summaries[0].RequestID)
}

func TestSubmit_PendingOverlap_SucceedsWithWarning(t *testing.T) {
	// A pending peer overlap is advisory: the submission goes through and
	// the overlap is returned for the caller to display.

	svc, store, _ := newLifecycle(t)
	seedRequest(t, store, "req-bea", bea, "2025-03-10", "2025-03-14", timeoff.StatusPending)

	sub := submit(t, svc, ana, "2025-03-12", "2025-03-16")

	assert.Equal(t, timeoff.StatusPending, sub.Request.Status)
	require.Len(t, sub.PendingOverlaps, 1)
	assert.Equal(t, "req-bea", sub.PendingOverlaps[0].RequestID)
}

// =============================================================================
// APPROVAL TESTS
// =============================================================================

func TestApprove_PendingRequest(t *testing.T) {
	svc, _, _ := newLifecycle(t)
	sub := submit(t, svc, ana, "2025-03-10", "2025-03-14")

	approved, err := svc.Approve(context.Background(), sub.Request.ID)
	require.NoError(t, err)
	assert.Equal(t, timeoff.StatusApproved, approved.Status)
	require.NotNil(t, approved.DecidedAt)
}

func TestApprove_UnknownRequest(t *testing.T) {
	svc, _, _ := newLifecycle(t)

	_, err := svc.Approve(context.Background(), "req-ghost")
	assert.True(t, engine.IsNotFound(err))
}

func TestApprove_AlreadyDecided_Conflict(t *testing.T) {
	svc, _, _ := newLifecycle(t)
	sub := submit(t, svc, ana, "2025-03-10", "2025-03-14")

	_, err := svc.Approve(context.Background(), sub.Request.ID)
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), sub.Request.ID)
	assert.True(t, engine.IsConflict(err), "approving twice must fail")

	_, err = svc.Reject(context.Background(), sub.Request.ID, "")
	assert.True(t, engine.IsConflict(err), "rejecting an approved request must fail")
}

func TestApprove_RescanCatchesLateConflict(t *testing.T) {
	// GIVEN: Ana and Bea (same peer group) both submitted overlapping
	//        requests while no approvals existed
	// WHEN: Bea's request is approved, then Ana's
	// THEN: Ana's approval fails; the scan at approval time is the source
	//       of truth, not the warning computed at submission

	svc, _, _ := newLifecycle(t)
	anaSub := submit(t, svc, ana, "2025-03-10", "2025-03-14")
	beaSub := submit(t, svc, bea, "2025-03-12", "2025-03-16")

	_, err := svc.Approve(context.Background(), beaSub.Request.ID)
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), anaSub.Request.ID)
	require.True(t, engine.IsConflict(err))

	var conflictErr *engine.ConflictError
	require.ErrorAs(t, err, &conflictErr)
	summaries, ok := conflictErr.Detail.([]timeoff.RequestSummary)
	require.True(t, ok)
	require.Len(t, summaries, 1)
	assert.Equal(t, beaSub.Request.ID, summaries[0].RequestID)
}

func TestApprove_ConcurrentOverlappingApprovals_OnlyOneWins(t *testing.T) {
	// GIVEN: Two overlapping pending requests from the same peer group
	// WHEN: Both are approved concurrently
	// THEN: Exactly one approval succeeds; the store transaction serializes
	//       the scan-then-write sequence

	svc, _, _ := newLifecycle(t)
	anaSub := submit(t, svc, ana, "2025-03-10", "2025-03-14")
	beaSub := submit(t, svc, bea, "2025-03-12", "2025-03-16")

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, id := range []string{anaSub.Request.ID, beaSub.Request.ID} {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, results[i] = svc.Approve(context.Background(), id)
		}(i, id)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, engine.IsConflict(err), "losing approval must be a conflict, got %v", err)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one of the two approvals may win")
}

func TestApprove_NonOverlappingPeers_BothSucceed(t *testing.T) {
	svc, _, _ := newLifecycle(t)
	anaSub := submit(t, svc, ana, "2025-03-10", "2025-03-14")
	beaSub := submit(t, svc, bea, "2025-03-17", "2025-03-21")

	_, err := svc.Approve(context.Background(), anaSub.Request.ID)
	require.NoError(t, err)
	_, err = svc.Approve(context.Background(), beaSub.Request.ID)
	require.NoError(t, err)
}

// =============================================================================
// REJECTION TESTS
// =============================================================================

func TestReject_PendingRequest(t *testing.T) {
	svc, _, _ := newLifecycle(t)
	sub := submit(t, svc, ana, "2025-03-10", "2025-03-14")

	rejected, err := svc.Reject(context.Background(), sub.Request.ID, "understaffed that week")
	require.NoError(t, err)
	assert.Equal(t, timeoff.StatusRejected, rejected.Status)
	assert.Equal(t, "understaffed that week", rejected.DecisionNote)
	require.NotNil(t, rejected.DecidedAt)
}

func TestReject_FreesTheRangeForPeers(t *testing.T) {
	// After Bea's overlapping request is rejected, Ana's submission over
	// the same days is clean.

	svc, _, _ := newLifecycle(t)
	beaSub := submit(t, svc, bea, "2025-03-10", "2025-03-14")

	_, err := svc.Reject(context.Background(), beaSub.Request.ID, "")
	require.NoError(t, err)

	anaSub := submit(t, svc, ana, "2025-03-10", "2025-03-14")
	assert.Empty(t, anaSub.PendingOverlaps)

	_, err = svc.Approve(context.Background(), anaSub.Request.ID)
	require.NoError(t, err)
}

// =============================================================================
// QUERY TESTS
// =============================================================================

func TestListByEmployee_And_ListPending(t *testing.T) {
	svc, _, _ := newLifecycle(t)
	first := submit(t, svc, ana, "2025-03-10", "2025-03-14")
	submit(t, svc, ana, "2025-04-07", "2025-04-11")
	submit(t, svc, caro, "2025-03-10", "2025-03-14")

	_, err := svc.Approve(context.Background(), first.Request.ID)
	require.NoError(t, err)

	mine, err := svc.ListByEmployee(context.Background(), ana.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	pending, err := svc.ListPending(context.Background())
	require.NoError(t, err)
	assert.Len(t, pending, 2)
	for _, r := range pending {
		assert.NotEqual(t, first.Request.ID, r.ID)
	}

	got, err := svc.Get(context.Background(), first.Request.ID)
	require.NoError(t, err)
	assert.Equal(t, timeoff.StatusApproved, got.Status)

	_, err = svc.Get(context.Background(), "req-ghost")
	assert.True(t, errors.Is(err, engine.ErrNotFound))
}

// =============================================================================
// STALENESS
// =============================================================================

func TestRequest_Age(t *testing.T) {
	req := timeoff.Request{RequestedAt: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}

	assert.Equal(t, 0, req.Age(time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)))
	assert.Equal(t, 1, req.Age(time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)))
	assert.Equal(t, 3, req.Age(time.Date(2025, 3, 13, 10, 0, 0, 0, time.UTC)))
}
