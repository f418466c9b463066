package directory

import (
	"context"
	"errors"
	"time"
)

// Employee represents a member of the organization.
//
// Password is stored and compared as plaintext because the backing schema
// carries it that way. Known security gap; see DESIGN.md.
type Employee struct {
	ID          int64
	Name        string
	HomeAddress string
	DateOfBirth time.Time
	Password    string
}

// Validate checks employee invariants.
func (e Employee) Validate() error {
	if e.ID <= 0 {
		return errors.New("employee: invalid id")
	}
	if e.Name == "" {
		return errors.New("employee: empty name")
	}
	return nil
}

// EmployeeRef is the (id, name) projection used by department listings.
type EmployeeRef struct {
	ID   int64
	Name string
}

// Department groups employees under at most one manager.
type Department struct {
	Name      string
	ManagerID *int64
}

// EmployeeRepository manages employee lookups.
type EmployeeRepository interface {
	Authenticate(ctx context.Context, employeeID int64, password string) (*Employee, error)
	InDepartment(ctx context.Context, department string) ([]EmployeeRef, error)
}

// DepartmentRepository manages department membership lookups.
type DepartmentRepository interface {
	ManagedBy(ctx context.Context, employeeID int64) (string, error)
	MembershipsFor(ctx context.Context, employeeID int64) ([]string, error)
}
