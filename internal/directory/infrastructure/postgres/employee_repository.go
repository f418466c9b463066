package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	directory "devicedesk/internal/directory/domain"
)

const (
	defaultEmployeesTable   = "employees"
	defaultMembershipsTable = "employee_departments"
)

// EmployeeRepository is a Postgres implementation for employees.
type EmployeeRepository struct {
	db               DBTX
	table            string
	membershipsTable string
}

// NewEmployeeRepository constructs a repository.
func NewEmployeeRepository(db DBTX, opts ...EmployeeOption) *EmployeeRepository {
	repo := &EmployeeRepository{
		db:               db,
		table:            defaultEmployeesTable,
		membershipsTable: defaultMembershipsTable,
	}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// EmployeeOption configures the repository.
type EmployeeOption func(*EmployeeRepository)

// WithEmployeesTable overrides the default employees table name.
func WithEmployeesTable(table string) EmployeeOption {
	return func(repo *EmployeeRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Authenticate loads the employee matching the id and password exactly.
// Returns (nil, nil) when no row matches; a wrong password is
// indistinguishable from an unknown id by design of the source schema.
func (r *EmployeeRepository) Authenticate(ctx context.Context, employeeID int64, password string) (*directory.Employee, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("employee repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT employee_id, name, home_address, date_of_birth, password
FROM %s
WHERE employee_id = $1 AND password = $2
LIMIT 1`, r.table)

	var employee directory.Employee
	if err := r.db.QueryRowContext(ctx, query, employeeID, password).Scan(
		&employee.ID,
		&employee.Name,
		&employee.HomeAddress,
		&employee.DateOfBirth,
		&employee.Password,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("employee authenticate: %w", err)
	}
	employee.DateOfBirth = employee.DateOfBirth.UTC()
	return &employee, nil
}

// InDepartment lists the id and name of every employee belonging to the
// department.
func (r *EmployeeRepository) InDepartment(ctx context.Context, department string) ([]directory.EmployeeRef, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("employee repo: nil db")
	}
	if department == "" {
		return nil, errors.New("employee repo: empty department")
	}

	query := fmt.Sprintf(`
SELECT e.employee_id, e.name
FROM %s e
JOIN %s m ON m.employee_id = e.employee_id
WHERE m.department = $1
ORDER BY e.employee_id ASC`, r.table, r.membershipsTable)

	rows, err := r.db.QueryContext(ctx, query, department)
	if err != nil {
		return nil, fmt.Errorf("employees in department: %w", err)
	}
	defer rows.Close()

	var result []directory.EmployeeRef
	for rows.Next() {
		var ref directory.EmployeeRef
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return nil, fmt.Errorf("employees in department: %w", err)
		}
		result = append(result, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("employees in department: %w", err)
	}
	return result, nil
}
