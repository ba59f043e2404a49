package timeoff

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/warp/scheduling-engine/calendar"
	"github.com/warp/scheduling-engine/directory"
	"github.com/warp/scheduling-engine/engine"
)

// =============================================================================
// LIFECYCLE SERVICE
// =============================================================================

// Service owns request state transitions and is the authority other
// components query for existing requests.
type Service struct {
	Store     Store
	Directory directory.Directory
	Validator *Validator
}

// NewService wires the lifecycle over a store, a directory, and the
// injected rule set.
func NewService(store Store, dir directory.Directory, validator *Validator) *Service {
	return &Service{Store: store, Directory: dir, Validator: validator}
}

// Submission is what Submit hands back: the created pending request plus
// any advisory pending overlaps for the caller to display.
type Submission struct {
	Request         Request
	PendingOverlaps []RequestSummary
}

// Submit validates and, if admissible, records a new pending request.
//
//   - Invalid  -> *PolicyError with the rule's reason
//   - Conflict -> engine.ConflictError carrying the colliding peers
//   - Warning  -> request is created; overlaps returned for confirmation
//   - Valid    -> request is created
func (s *Service) Submit(ctx context.Context, employeeID string, rng calendar.DateRange, reason string) (*Submission, error) {
	result, err := s.Validator.Validate(ctx, employeeID, rng)
	if err != nil {
		return nil, err
	}

	switch result.Outcome {
	case OutcomeInvalid:
		return nil, &PolicyError{Reason: result.Reason}
	case OutcomeConflict:
		return nil, &engine.ConflictError{
			Msg:    "overlaps an approved request of a peer",
			Detail: result.Conflicts,
		}
	}

	req := Request{
		ID:          uuid.NewString(),
		EmployeeID:  employeeID,
		DateStart:   rng.Start,
		DateEnd:     rng.End,
		Status:      StatusPending,
		Reason:      reason,
		RequestedAt: time.Now().UTC(),
	}
	if err := s.Store.Insert(ctx, req); err != nil {
		return nil, fmt.Errorf("insert request: %w", err)
	}

	return &Submission{Request: req, PendingOverlaps: result.Pending}, nil
}

// Approve transitions pending -> approved.
//
// The conflict scan re-runs here, inside the store transaction, because a
// peer's competing request may have been approved between this request's
// submission and now. A newly found hard conflict fails the approval with
// a ConflictError rather than silently creating two approved overlapping
// requests - the scan at approval time is the source of truth, never the
// warning computed at submission.
func (s *Service) Approve(ctx context.Context, requestID string) (*Request, error) {
	// The requester resolves before the transaction opens. The sqlite
	// store doubles as the directory, and its read lock cannot be taken
	// while WithTx holds the write lock. The authoritative pending check
	// still happens inside the transaction.
	peek, err := s.Store.Get(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	if peek == nil {
		return nil, engine.NotFound("request", requestID)
	}
	emp, err := s.Directory.Lookup(ctx, peek.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("lookup employee: %w", err)
	}
	if emp == nil {
		return nil, engine.NotFound("employee", peek.EmployeeID)
	}

	var approved *Request
	var late []RequestSummary

	err = s.Store.WithTx(ctx, func(tx Store) error {
		req, err := s.loadPending(ctx, tx, requestID)
		if err != nil {
			return err
		}

		result, err := s.Validator.scan(ctx, tx, emp, req.Range(), req.ID)
		if err != nil {
			return err
		}
		if result.Outcome == OutcomeConflict {
			late = result.Conflicts
			return &engine.ConflictError{
				Msg:    "conflicting request approved since submission",
				Detail: late,
			}
		}

		now := time.Now().UTC()
		if err := tx.UpdateStatus(ctx, req.ID, StatusApproved, "", now); err != nil {
			return fmt.Errorf("update status: %w", err)
		}

		req.Status = StatusApproved
		req.DecidedAt = &now
		approved = req
		return nil
	})
	if err != nil {
		if len(late) > 0 {
			// The error's Detail aliases this slice, so the names land
			// in the returned conflict. A failed lookup must not mask
			// the conflict itself.
			_ = s.Validator.nameSummaries(ctx, late)
		}
		return nil, err
	}

	return approved, nil
}

// Reject transitions pending -> rejected. Terminal: a rejected request
// never blocks future ones. Re-opening is modeled as a new request.
func (s *Service) Reject(ctx context.Context, requestID, note string) (*Request, error) {
	var rejected *Request

	err := s.Store.WithTx(ctx, func(tx Store) error {
		req, err := s.loadPending(ctx, tx, requestID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if err := tx.UpdateStatus(ctx, req.ID, StatusRejected, note, now); err != nil {
			return fmt.Errorf("update status: %w", err)
		}

		req.Status = StatusRejected
		req.DecidedAt = &now
		req.DecisionNote = note
		rejected = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	return rejected, nil
}

// Get returns a request by id.
func (s *Service) Get(ctx context.Context, id string) (*Request, error) {
	req, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	if req == nil {
		return nil, engine.NotFound("request", id)
	}
	return req, nil
}

// ListByEmployee returns all requests an employee has made.
func (s *Service) ListByEmployee(ctx context.Context, employeeID string) ([]Request, error) {
	return s.Store.ListByEmployee(ctx, employeeID)
}

// ListPending returns all requests awaiting a decision.
func (s *Service) ListPending(ctx context.Context) ([]Request, error) {
	return s.Store.ListPending(ctx)
}

func (s *Service) loadPending(ctx context.Context, tx Store, requestID string) (*Request, error) {
	req, err := tx.Get(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	if req == nil {
		return nil, engine.NotFound("request", requestID)
	}
	if req.Status != StatusPending {
		return nil, &engine.ConflictError{
			Msg: fmt.Sprintf("request %s is %s, only pending requests can be decided", requestID, req.Status),
		}
	}
	return req, nil
}
