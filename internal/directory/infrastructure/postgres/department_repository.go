package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const defaultDepartmentsTable = "departments"

// DepartmentRepository is a Postgres implementation for departments.
type DepartmentRepository struct {
	db               DBTX
	table            string
	membershipsTable string
}

// NewDepartmentRepository constructs a repository.
func NewDepartmentRepository(db DBTX, opts ...DepartmentOption) *DepartmentRepository {
	repo := &DepartmentRepository{
		db:               db,
		table:            defaultDepartmentsTable,
		membershipsTable: defaultMembershipsTable,
	}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// DepartmentOption configures the repository.
type DepartmentOption func(*DepartmentRepository)

// WithDepartmentsTable overrides the default departments table name.
func WithDepartmentsTable(table string) DepartmentOption {
	return func(repo *DepartmentRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// ManagedBy returns the name of the department the employee manages, or ""
// when the employee manages nothing. An employee manages at most one
// department.
func (r *DepartmentRepository) ManagedBy(ctx context.Context, employeeID int64) (string, error) {
	if r == nil || r.db == nil {
		return "", errors.New("department repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT name
FROM %s
WHERE manager_id = $1
LIMIT 1`, r.table)

	var name string
	if err := r.db.QueryRowContext(ctx, query, employeeID).Scan(&name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("department managed by: %w", err)
	}
	return name, nil
}

// MembershipsFor lists the departments the employee works in.
func (r *DepartmentRepository) MembershipsFor(ctx context.Context, employeeID int64) ([]string, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("department repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT department
FROM %s
WHERE employee_id = $1
ORDER BY department ASC`, r.membershipsTable)

	rows, err := r.db.QueryContext(ctx, query, employeeID)
	if err != nil {
		return nil, fmt.Errorf("department memberships: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var department string
		if err := rows.Scan(&department); err != nil {
			return nil, fmt.Errorf("department memberships: %w", err)
		}
		result = append(result, department)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("department memberships: %w", err)
	}
	return result, nil
}
