// Package directory defines the employee collaborator input. The engine
// only reads an employee's position and home branch; the records are owned
// by an external HR component.
package directory

import "context"

// Employee is the slice of the HR record the engine depends on.
type Employee struct {
	ID       string
	Name     string
	Position string
	BranchID string
}

// PeerOf reports whether two employees share both position and branch.
// Conflict detection is scoped to this peer group: two employees in
// different roles or different locations being off simultaneously is not
// a staffing risk.
func (e Employee) PeerOf(other Employee) bool {
	return e.Position == other.Position && e.BranchID == other.BranchID
}

// Directory resolves employee ids. Implementations: store/sqlite for the
// server, store/memory for tests.
type Directory interface {
	// Lookup returns the employee, or nil if the id is unknown.
	Lookup(ctx context.Context, id string) (*Employee, error)

	// List returns all known employees.
	List(ctx context.Context) ([]Employee, error)
}
