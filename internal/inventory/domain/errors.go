package inventory

import "errors"

var (
	// ErrDeviceNotFound is returned when a device id does not exist.
	ErrDeviceNotFound = errors.New("inventory: device not found")
	// ErrAlreadyIssued is returned when issuing a device that is held.
	ErrAlreadyIssued = errors.New("inventory: device already issued")
	// ErrNotHolder is returned when revoking a device the employee does not hold.
	ErrNotHolder = errors.New("inventory: employee not assigned to device")
	// ErrModelExists is returned when inserting a model that already exists.
	ErrModelExists = errors.New("inventory: model already exists")
)
