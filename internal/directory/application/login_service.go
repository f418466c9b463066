package application

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"devicedesk/internal/audit"
	directory "devicedesk/internal/directory/domain"
	"devicedesk/internal/observability/metrics"
)

// Authenticator is the slice of the employee repository the service needs.
type Authenticator interface {
	Authenticate(ctx context.Context, employeeID int64, password string) (*directory.Employee, error)
}

// LoginService wraps the credential lookup with the per-operation timeout,
// metrics, and an audit entry on success.
type LoginService struct {
	employees Authenticator
	auditor   audit.Logger
	logger    *log.Logger
	timeout   time.Duration
}

// NewLoginService constructs a login service. The auditor may be nil.
func NewLoginService(employees Authenticator, auditor audit.Logger, logger *log.Logger, timeout time.Duration) (*LoginService, error) {
	if employees == nil {
		return nil, errors.New("login: nil employee repo")
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &LoginService{employees: employees, auditor: auditor, logger: logger, timeout: timeout}, nil
}

// CheckLogin returns the employee record for matching credentials, or nil
// when either the id is unknown or the password does not match. A store
// failure is returned as an error, never rendered as a failed login.
func (s *LoginService) CheckLogin(ctx context.Context, employeeID int64, password string) (*directory.Employee, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	employee, err := s.employees.Authenticate(ctx, employeeID, password)
	if err != nil {
		metrics.ObserveQuery("check_login", metrics.ResultError, time.Since(start))
		metrics.IncLogin(metrics.ResultError)
		if s.logger != nil {
			s.logger.Printf("check_login failed: %v", err)
		}
		return nil, err
	}
	metrics.ObserveQuery("check_login", metrics.ResultSuccess, time.Since(start))
	if employee == nil {
		metrics.IncLogin("denied")
		return nil, nil
	}

	metrics.IncLogin(metrics.ResultSuccess)
	if s.auditor != nil {
		entry := audit.Entry{
			Actor:        strconv.FormatInt(employeeID, 10),
			Action:       audit.ActionLogin,
			ResourceType: "employee",
			ResourceID:   strconv.FormatInt(employeeID, 10),
		}
		if err := s.auditor.Log(ctx, entry); err != nil && s.logger != nil {
			s.logger.Printf("audit write failed for login: %v", err)
		}
	}
	return employee, nil
}
