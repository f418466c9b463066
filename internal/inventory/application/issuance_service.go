package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"devicedesk/internal/audit"
	inventory "devicedesk/internal/inventory/domain"
	"devicedesk/internal/observability/metrics"
)

// Reasons surfaced to the presentation layer when a precondition fails.
const (
	ReasonAlreadyIssued = "Device already issued"
	ReasonNotAssigned   = "Employee not assigned to device"
	ReasonDeviceUnknown = "Device not found"
)

// DeviceIssuer is the slice of the device repository the service needs.
type DeviceIssuer interface {
	Issue(ctx context.Context, employeeID, deviceID int64) error
	Revoke(ctx context.Context, employeeID, deviceID int64) error
}

// IssuanceService wraps the issuance state machine with the per-operation
// timeout, audit trail, and metrics.
type IssuanceService struct {
	devices DeviceIssuer
	auditor audit.Logger
	logger  *log.Logger
	timeout time.Duration
}

// NewIssuanceService constructs an issuance service. The auditor may be nil.
func NewIssuanceService(devices DeviceIssuer, auditor audit.Logger, logger *log.Logger, timeout time.Duration) (*IssuanceService, error) {
	if devices == nil {
		return nil, errors.New("issuance: nil device repo")
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &IssuanceService{
		devices: devices,
		auditor: auditor,
		logger:  logger,
		timeout: timeout,
	}, nil
}

// Issue assigns the device to the employee. Returns (true, "") on success
// and (false, reason) when the business precondition fails; any other error
// is an operational failure, never collapsed into a negative result.
func (s *IssuanceService) Issue(ctx context.Context, employeeID, deviceID int64) (bool, string, error) {
	return s.change(ctx, employeeID, deviceID, audit.ActionDeviceIssue, metrics.IssuanceIssued, s.devices.Issue)
}

// Revoke clears the issuance pointer held by the employee.
func (s *IssuanceService) Revoke(ctx context.Context, employeeID, deviceID int64) (bool, string, error) {
	return s.change(ctx, employeeID, deviceID, audit.ActionDeviceRevoke, metrics.IssuanceRevoked, s.devices.Revoke)
}

func (s *IssuanceService) change(ctx context.Context, employeeID, deviceID int64, action, outcome string, op func(context.Context, int64, int64) error) (bool, string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := op(ctx, employeeID, deviceID)
	switch {
	case err == nil:
		metrics.ObserveQuery(action, metrics.ResultSuccess, time.Since(start))
		metrics.IncIssuance(outcome)
		s.audit(ctx, employeeID, deviceID, action)
		return true, "", nil
	case errors.Is(err, inventory.ErrAlreadyIssued):
		metrics.IncIssuance(metrics.IssuanceRejected)
		return false, ReasonAlreadyIssued, nil
	case errors.Is(err, inventory.ErrNotHolder):
		metrics.IncIssuance(metrics.IssuanceRejected)
		return false, ReasonNotAssigned, nil
	case errors.Is(err, inventory.ErrDeviceNotFound):
		metrics.IncIssuance(metrics.IssuanceRejected)
		return false, ReasonDeviceUnknown, nil
	default:
		metrics.ObserveQuery(action, metrics.ResultError, time.Since(start))
		if s.logger != nil {
			s.logger.Printf("%s failed: %v", action, err)
		}
		return false, "", err
	}
}

func (s *IssuanceService) audit(ctx context.Context, employeeID, deviceID int64, action string) {
	if s.auditor == nil {
		return
	}
	entry := audit.Entry{
		Actor:        strconv.FormatInt(employeeID, 10),
		Action:       action,
		ResourceType: "device",
		ResourceID:   strconv.FormatInt(deviceID, 10),
		Metadata:     []byte(fmt.Sprintf(`{"employee_id":%d,"device_id":%d}`, employeeID, deviceID)),
	}
	if err := s.auditor.Log(ctx, entry); err != nil && s.logger != nil {
		s.logger.Printf("audit write failed for %s: %v", action, err)
	}
}
