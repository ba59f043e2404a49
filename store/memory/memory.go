// Package memory provides in-memory implementations of the time-off
// request store and the employee directory, for unit tests and local
// experimentation.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/scheduling-engine/directory"
	"github.com/warp/scheduling-engine/engine"
	"github.com/warp/scheduling-engine/timeoff"
)

// =============================================================================
// REQUEST STORE - In-memory timeoff.Store
// =============================================================================

// RequestStore keeps requests in a map. The mutex also serializes WithTx
// so the scan-then-write approval sequence is atomic, mirroring the
// sqlite store's locking discipline.
type RequestStore struct {
	mu        sync.Mutex
	requests  map[string]timeoff.Request
	directory *Directory
}

// NewRequestStore creates a request store resolving peers through dir.
func NewRequestStore(dir *Directory) *RequestStore {
	return &RequestStore{
		requests:  make(map[string]timeoff.Request),
		directory: dir,
	}
}

func (m *RequestStore) Insert(_ context.Context, r timeoff.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[r.ID] = r
	return nil
}

func (m *RequestStore) Get(_ context.Context, id string) (*timeoff.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getLocked(id), nil
}

func (m *RequestStore) getLocked(id string) *timeoff.Request {
	r, ok := m.requests[id]
	if !ok {
		return nil
	}
	return &r
}

func (m *RequestStore) PeerOpenRequests(_ context.Context, position, branchID, excludeEmployeeID string) ([]timeoff.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.peerOpenLocked(position, branchID, excludeEmployeeID), nil
}

func (m *RequestStore) peerOpenLocked(position, branchID, excludeEmployeeID string) []timeoff.Request {
	group := directory.Employee{Position: position, BranchID: branchID}

	var result []timeoff.Request
	for _, r := range m.requests {
		if r.EmployeeID == excludeEmployeeID {
			continue
		}
		if r.Status != timeoff.StatusPending && r.Status != timeoff.StatusApproved {
			continue
		}
		emp := m.directory.get(r.EmployeeID)
		if emp == nil || !emp.PeerOf(group) {
			continue
		}
		result = append(result, r)
	}
	sortByRequestedAt(result)
	return result
}

func (m *RequestStore) UpdateStatus(_ context.Context, id string, status timeoff.Status, note string, decidedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateStatusLocked(id, status, note, decidedAt)
}

func (m *RequestStore) updateStatusLocked(id string, status timeoff.Status, note string, decidedAt time.Time) error {
	r, ok := m.requests[id]
	if !ok {
		return engine.NotFound("request", id)
	}
	r.Status = status
	r.DecisionNote = note
	r.DecidedAt = &decidedAt
	m.requests[id] = r
	return nil
}

func (m *RequestStore) ListByEmployee(_ context.Context, employeeID string) ([]timeoff.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []timeoff.Request
	for _, r := range m.requests {
		if r.EmployeeID == employeeID {
			result = append(result, r)
		}
	}
	sortByRequestedAt(result)
	return result, nil
}

func (m *RequestStore) ListPending(_ context.Context) ([]timeoff.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []timeoff.Request
	for _, r := range m.requests {
		if r.Status == timeoff.StatusPending {
			result = append(result, r)
		}
	}
	sortByRequestedAt(result)
	return result, nil
}

// WithTx holds the lock for the whole callback, so two racing approvals
// serialize exactly as they do against sqlite.
func (m *RequestStore) WithTx(_ context.Context, fn func(store timeoff.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(&lockedStore{parent: m})
}

// lockedStore runs against an already-held lock.
type lockedStore struct {
	parent *RequestStore
}

func (ls *lockedStore) Insert(_ context.Context, r timeoff.Request) error {
	ls.parent.requests[r.ID] = r
	return nil
}

func (ls *lockedStore) Get(_ context.Context, id string) (*timeoff.Request, error) {
	return ls.parent.getLocked(id), nil
}

func (ls *lockedStore) PeerOpenRequests(_ context.Context, position, branchID, excludeEmployeeID string) ([]timeoff.Request, error) {
	return ls.parent.peerOpenLocked(position, branchID, excludeEmployeeID), nil
}

func (ls *lockedStore) UpdateStatus(_ context.Context, id string, status timeoff.Status, note string, decidedAt time.Time) error {
	return ls.parent.updateStatusLocked(id, status, note, decidedAt)
}

func (ls *lockedStore) ListByEmployee(ctx context.Context, employeeID string) ([]timeoff.Request, error) {
	var result []timeoff.Request
	for _, r := range ls.parent.requests {
		if r.EmployeeID == employeeID {
			result = append(result, r)
		}
	}
	sortByRequestedAt(result)
	return result, nil
}

func (ls *lockedStore) ListPending(ctx context.Context) ([]timeoff.Request, error) {
	var result []timeoff.Request
	for _, r := range ls.parent.requests {
		if r.Status == timeoff.StatusPending {
			result = append(result, r)
		}
	}
	sortByRequestedAt(result)
	return result, nil
}

func (ls *lockedStore) WithTx(_ context.Context, fn func(store timeoff.Store) error) error {
	return fn(ls)
}

func sortByRequestedAt(rs []timeoff.Request) {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].RequestedAt.Equal(rs[j].RequestedAt) {
			return rs[i].ID < rs[j].ID
		}
		return rs[i].RequestedAt.Before(rs[j].RequestedAt)
	})
}

// =============================================================================
// DIRECTORY - In-memory directory.Directory
// =============================================================================

// Directory holds a fixed set of employees.
type Directory struct {
	mu        sync.RWMutex
	employees map[string]directory.Employee
}

// NewDirectory creates a directory seeded with the given employees.
func NewDirectory(employees ...directory.Employee) *Directory {
	d := &Directory{employees: make(map[string]directory.Employee)}
	for _, e := range employees {
		d.employees[e.ID] = e
	}
	return d
}

// Add registers or replaces an employee.
func (d *Directory) Add(e directory.Employee) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.employees[e.ID] = e
}

func (d *Directory) Lookup(_ context.Context, id string) (*directory.Employee, error) {
	return d.get(id), nil
}

func (d *Directory) get(id string) *directory.Employee {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.employees[id]
	if !ok {
		return nil
	}
	return &e
}

func (d *Directory) List(_ context.Context) ([]directory.Employee, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]directory.Employee, 0, len(d.employees))
	for _, e := range d.employees {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}
