package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmployee_PeerOf(t *testing.T) {
	ana := Employee{ID: "emp-1", Name: "Ana", Position: "cashier", BranchID: "downtown"}

	tests := []struct {
		name  string
		other Employee
		want  bool
	}{
		{"same position and branch", Employee{Position: "cashier", BranchID: "downtown"}, true},
		{"same position, other branch", Employee{Position: "cashier", BranchID: "harbor"}, false},
		{"other position, same branch", Employee{Position: "branch manager", BranchID: "downtown"}, false},
		{"nothing shared", Employee{Position: "branch manager", BranchID: "harbor"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ana.PeerOf(tt.other))
		})
	}
}
