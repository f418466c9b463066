package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	inventory "devicedesk/internal/inventory/domain"
)

const (
	defaultDevicesTable = "devices"
	defaultUsageTable   = "device_used_by"
)

// DeviceRepository is a Postgres implementation for devices.
type DeviceRepository struct {
	db         DBTX
	table      string
	usageTable string
}

// NewDeviceRepository constructs a repository.
func NewDeviceRepository(db DBTX, opts ...DeviceOption) *DeviceRepository {
	repo := &DeviceRepository{db: db, table: defaultDevicesTable, usageTable: defaultUsageTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// DeviceOption configures the repository.
type DeviceOption func(*DeviceRepository)

// WithDevicesTable overrides the default devices table name.
func WithDevicesTable(table string) DeviceOption {
	return func(repo *DeviceRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Get loads a device by id. Returns (nil, nil) when the id is unknown.
func (r *DeviceRepository) Get(ctx context.Context, deviceID int64) (*inventory.Device, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("device repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT device_id, serial_number, purchase_date, purchase_cost, manufacturer, model_number, issued_to
FROM %s
WHERE device_id = $1
LIMIT 1`, r.table)

	var device inventory.Device
	var issuedTo sql.NullInt64
	if err := r.db.QueryRowContext(ctx, query, deviceID).Scan(
		&device.ID,
		&device.SerialNumber,
		&device.PurchaseDate,
		&device.PurchaseCost,
		&device.Manufacturer,
		&device.ModelNumber,
		&issuedTo,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("device get: %w", err)
	}
	if issuedTo.Valid {
		device.IssuedTo = &issuedTo.Int64
	}
	device.PurchaseDate = device.PurchaseDate.UTC()
	return &device, nil
}

// UsedBy lists the devices the employee has used, with their model identity.
func (r *DeviceRepository) UsedBy(ctx context.Context, employeeID int64) ([]inventory.DeviceRef, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("device repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT d.device_id, d.manufacturer, d.model_number
FROM %s u
JOIN %s d ON d.device_id = u.device_id
WHERE u.employee_id = $1
ORDER BY d.device_id ASC`, r.usageTable, r.table)

	rows, err := r.db.QueryContext(ctx, query, employeeID)
	if err != nil {
		return nil, fmt.Errorf("devices used by: %w", err)
	}
	defer rows.Close()

	var result []inventory.DeviceRef
	for rows.Next() {
		var ref inventory.DeviceRef
		if err := rows.Scan(&ref.DeviceID, &ref.Manufacturer, &ref.ModelNumber); err != nil {
			return nil, fmt.Errorf("devices used by: %w", err)
		}
		result = append(result, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("devices used by: %w", err)
	}
	return result, nil
}

// IssuedTo lists the devices currently issued to the employee.
func (r *DeviceRepository) IssuedTo(ctx context.Context, employeeID int64) ([]inventory.IssuedDevice, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("device repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT device_id, purchase_date, manufacturer, model_number
FROM %s
WHERE issued_to = $1
ORDER BY device_id ASC`, r.table)

	rows, err := r.db.QueryContext(ctx, query, employeeID)
	if err != nil {
		return nil, fmt.Errorf("devices issued to: %w", err)
	}
	defer rows.Close()

	var result []inventory.IssuedDevice
	for rows.Next() {
		var issued inventory.IssuedDevice
		if err := rows.Scan(&issued.DeviceID, &issued.PurchaseDate, &issued.Manufacturer, &issued.ModelNumber); err != nil {
			return nil, fmt.Errorf("devices issued to: %w", err)
		}
		issued.PurchaseDate = issued.PurchaseDate.UTC()
		result = append(result, issued)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("devices issued to: %w", err)
	}
	return result, nil
}

// AssignmentsForModel lists every device of the model together with whether
// it is currently issued to the given employee.
func (r *DeviceRepository) AssignmentsForModel(ctx context.Context, modelNumber, manufacturer string, employeeID int64) ([]inventory.Assignment, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("device repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT device_id, issued_to IS NOT DISTINCT FROM $1
FROM %s
WHERE manufacturer = $2 AND model_number = $3
ORDER BY device_id ASC`, r.table)

	rows, err := r.db.QueryContext(ctx, query, employeeID, manufacturer, modelNumber)
	if err != nil {
		return nil, fmt.Errorf("device assignments: %w", err)
	}
	defer rows.Close()

	var result []inventory.Assignment
	for rows.Next() {
		var assignment inventory.Assignment
		if err := rows.Scan(&assignment.DeviceID, &assignment.Held); err != nil {
			return nil, fmt.Errorf("device assignments: %w", err)
		}
		result = append(result, assignment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("device assignments: %w", err)
	}
	return result, nil
}

// UnassignedForModel lists the ids of the model's devices with no holder.
func (r *DeviceRepository) UnassignedForModel(ctx context.Context, modelNumber, manufacturer string) ([]int64, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("device repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT device_id
FROM %s
WHERE manufacturer = $1 AND model_number = $2 AND issued_to IS NULL
ORDER BY device_id ASC`, r.table)

	rows, err := r.db.QueryContext(ctx, query, manufacturer, modelNumber)
	if err != nil {
		return nil, fmt.Errorf("unassigned devices: %w", err)
	}
	defer rows.Close()

	var result []int64
	for rows.Next() {
		var deviceID int64
		if err := rows.Scan(&deviceID); err != nil {
			return nil, fmt.Errorf("unassigned devices: %w", err)
		}
		result = append(result, deviceID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("unassigned devices: %w", err)
	}
	return result, nil
}

// HoldersInDepartment counts, per employee of the department, the issued
// devices of the given model.
func (r *DeviceRepository) HoldersInDepartment(ctx context.Context, department, manufacturer, modelNumber string) ([]inventory.HolderCount, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("device repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT e.employee_id, e.name, COUNT(d.device_id)
FROM employees e
JOIN %s d ON d.issued_to = e.employee_id
JOIN employee_departments m ON m.employee_id = e.employee_id
WHERE m.department = $1 AND d.manufacturer = $2 AND d.model_number = $3
GROUP BY e.employee_id, e.name
ORDER BY e.employee_id ASC`, r.table)

	rows, err := r.db.QueryContext(ctx, query, department, manufacturer, modelNumber)
	if err != nil {
		return nil, fmt.Errorf("department holders: %w", err)
	}
	defer rows.Close()

	var result []inventory.HolderCount
	for rows.Next() {
		var holder inventory.HolderCount
		if err := rows.Scan(&holder.EmployeeID, &holder.Name, &holder.DeviceCount); err != nil {
			return nil, fmt.Errorf("department holders: %w", err)
		}
		result = append(result, holder)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("department holders: %w", err)
	}
	return result, nil
}

// UsageHistoryFor resolves the devices currently issued to the employee and
// returns every usage row for those devices, across all employees who have
// ever used them.
func (r *DeviceRepository) UsageHistoryFor(ctx context.Context, employeeID int64) ([]inventory.UsageRecord, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("device repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT u.device_id, u.employee_id, e.name
FROM %s u
JOIN employees e ON e.employee_id = u.employee_id
WHERE u.device_id IN (
	SELECT d.device_id
	FROM %s d
	JOIN %s du ON du.device_id = d.device_id
	WHERE d.issued_to = $1
)
ORDER BY u.device_id ASC, u.employee_id ASC`, r.usageTable, r.table, r.usageTable)

	rows, err := r.db.QueryContext(ctx, query, employeeID)
	if err != nil {
		return nil, fmt.Errorf("usage history: %w", err)
	}
	defer rows.Close()

	var result []inventory.UsageRecord
	for rows.Next() {
		var record inventory.UsageRecord
		if err := rows.Scan(&record.DeviceID, &record.EmployeeID, &record.Name); err != nil {
			return nil, fmt.Errorf("usage history: %w", err)
		}
		result = append(result, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("usage history: %w", err)
	}
	return result, nil
}

// Issue assigns the device to the employee. The precondition (device
// currently unissued) is expressed in the statement itself, so concurrent
// callers race on a single conditional update and exactly one wins. The
// existence check rides in the same statement, so the failure
// classification comes from the same snapshot as the update.
func (r *DeviceRepository) Issue(ctx context.Context, employeeID, deviceID int64) error {
	if r == nil || r.db == nil {
		return errors.New("device repo: nil db")
	}

	query := fmt.Sprintf(`
WITH target AS (
	SELECT device_id FROM %s WHERE device_id = $2
), claimed AS (
	UPDATE %s
	SET issued_to = $1
	WHERE device_id = $2 AND issued_to IS NULL
	RETURNING device_id
)
SELECT (SELECT COUNT(*) FROM target), (SELECT COUNT(*) FROM claimed)`, r.table, r.table)

	var found, claimed int
	if err := r.db.QueryRowContext(ctx, query, employeeID, deviceID).Scan(&found, &claimed); err != nil {
		return fmt.Errorf("device issue: %w", err)
	}
	switch {
	case claimed == 1:
		return nil
	case found == 0:
		return inventory.ErrDeviceNotFound
	default:
		return inventory.ErrAlreadyIssued
	}
}

// Revoke clears the issuance pointer, but only if the supplied employee is
// the current holder.
func (r *DeviceRepository) Revoke(ctx context.Context, employeeID, deviceID int64) error {
	if r == nil || r.db == nil {
		return errors.New("device repo: nil db")
	}

	query := fmt.Sprintf(`
UPDATE %s
SET issued_to = NULL
WHERE device_id = $1 AND issued_to = $2`, r.table)

	res, err := r.db.ExecContext(ctx, query, deviceID, employeeID)
	if err != nil {
		return fmt.Errorf("device revoke: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("device revoke: %w", err)
	}
	if affected == 0 {
		return inventory.ErrNotHolder
	}
	return nil
}
