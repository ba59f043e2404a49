package timeoff

import (
	"context"
	"time"
)

// Store persists time-off requests.
//
// PeerOpenRequests is the conflict-scan query: it returns only the
// status pre-filter (pending and approved requests of employees sharing
// position+branch, excluding the requester). Interval overlap is NOT a
// store concern - the validator filters with the calendar package so
// every overlap check in the engine shares one implementation.
type Store interface {
	Insert(ctx context.Context, r Request) error

	// Get returns the request, or nil if the id is unknown.
	Get(ctx context.Context, id string) (*Request, error)

	// PeerOpenRequests returns pending and approved requests belonging
	// to employees who share both position and branch, excluding
	// excludeEmployeeID's own requests.
	PeerOpenRequests(ctx context.Context, position, branchID, excludeEmployeeID string) ([]Request, error)

	// UpdateStatus records a terminal decision on a pending request.
	UpdateStatus(ctx context.Context, id string, status Status, note string, decidedAt time.Time) error

	ListByEmployee(ctx context.Context, employeeID string) ([]Request, error)
	ListPending(ctx context.Context) ([]Request, error)

	// WithTx executes fn within a store transaction. The approval-time
	// conflict re-scan runs inside this so scan-then-write is atomic.
	WithTx(ctx context.Context, fn func(Store) error) error
}
