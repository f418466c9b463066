package inventory

import (
	"context"
	"errors"
	"time"
)

// Device represents one physical unit. IssuedTo nil means the device is
// unissued; that pointer is the sole issuance-state flag.
type Device struct {
	ID           int64
	SerialNumber string
	PurchaseDate time.Time
	PurchaseCost float64
	Manufacturer string
	ModelNumber  string
	IssuedTo     *int64
}

// Validate checks device invariants.
func (d Device) Validate() error {
	if d.ID <= 0 {
		return errors.New("device: invalid id")
	}
	if d.SerialNumber == "" {
		return errors.New("device: empty serial number")
	}
	if d.Manufacturer == "" || d.ModelNumber == "" {
		return errors.New("device: empty model identity")
	}
	return nil
}

// Issued reports whether the device is currently held by an employee.
func (d Device) Issued() bool {
	return d.IssuedTo != nil
}

// DeviceRef is the (device, model identity) projection of usage listings.
type DeviceRef struct {
	DeviceID     int64
	Manufacturer string
	ModelNumber  string
}

// IssuedDevice is one device currently issued to an employee.
type IssuedDevice struct {
	DeviceID     int64
	PurchaseDate time.Time
	Manufacturer string
	ModelNumber  string
}

// Assignment pairs a device of some model with whether a particular
// employee currently holds it.
type Assignment struct {
	DeviceID int64
	Held     bool
}

// HolderCount is the per-employee count of issued devices of one model
// within a department.
type HolderCount struct {
	EmployeeID  int64
	Name        string
	DeviceCount int
}

// UsageRecord is one row of the usage history: an employee who has used a
// device at some point.
type UsageRecord struct {
	DeviceID   int64
	EmployeeID int64
	Name       string
}

// DeviceRepository manages device persistence and the issuance state
// machine.
type DeviceRepository interface {
	Get(ctx context.Context, deviceID int64) (*Device, error)
	UsedBy(ctx context.Context, employeeID int64) ([]DeviceRef, error)
	IssuedTo(ctx context.Context, employeeID int64) ([]IssuedDevice, error)
	AssignmentsForModel(ctx context.Context, modelNumber, manufacturer string, employeeID int64) ([]Assignment, error)
	UnassignedForModel(ctx context.Context, modelNumber, manufacturer string) ([]int64, error)
	HoldersInDepartment(ctx context.Context, department, manufacturer, modelNumber string) ([]HolderCount, error)
	UsageHistoryFor(ctx context.Context, employeeID int64) ([]UsageRecord, error)
	Issue(ctx context.Context, employeeID, deviceID int64) error
	Revoke(ctx context.Context, employeeID, deviceID int64) error
}
