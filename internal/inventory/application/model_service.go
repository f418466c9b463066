package application

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"devicedesk/internal/audit"
	inventory "devicedesk/internal/inventory/domain"
	"devicedesk/internal/observability/metrics"
)

// ModelStore is the slice of the model repository the service needs.
type ModelStore interface {
	Get(ctx context.Context, manufacturer, modelNumber string) (*inventory.Model, error)
	CreateWithAllocation(ctx context.Context, model inventory.Model, department string, maxCount int) error
}

// AddModelRequest carries the inputs of an add-model operation.
type AddModelRequest struct {
	Department   string
	Manufacturer string
	ModelNumber  string
	Description  *string
	Weight       float64
	MaxCount     int
}

// ModelService handles model registration.
type ModelService struct {
	models  ModelStore
	auditor audit.Logger
	logger  *log.Logger
	timeout time.Duration
}

// NewModelService constructs a model service. The auditor may be nil.
func NewModelService(models ModelStore, auditor audit.Logger, logger *log.Logger, timeout time.Duration) (*ModelService, error) {
	if models == nil {
		return nil, errors.New("models: nil model repo")
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ModelService{models: models, auditor: auditor, logger: logger, timeout: timeout}, nil
}

// AddModel registers a model and its allocation for the department. When
// the (manufacturer, model number) pair already exists, the existing model
// is returned unchanged and nothing is written; the second call of two
// identical ones is a read. On a fresh insert the returned model is nil.
func (s *ModelService) AddModel(ctx context.Context, req AddModelRequest) (*inventory.Model, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	existing, err := s.models.Get(ctx, req.Manufacturer, req.ModelNumber)
	if err != nil {
		metrics.ObserveQuery(audit.ActionModelAdd, metrics.ResultError, time.Since(start))
		return nil, err
	}
	if existing != nil {
		metrics.ObserveQuery(audit.ActionModelAdd, metrics.ResultSuccess, time.Since(start))
		return existing, nil
	}

	model := inventory.Model{
		Manufacturer: req.Manufacturer,
		ModelNumber:  req.ModelNumber,
		Description:  req.Description,
		Weight:       req.Weight,
	}
	if err := s.models.CreateWithAllocation(ctx, model, req.Department, req.MaxCount); err != nil {
		if errors.Is(err, inventory.ErrModelExists) {
			// Lost a race against another writer; the call degrades to
			// the same read the existing-model path takes.
			existing, err := s.models.Get(ctx, req.Manufacturer, req.ModelNumber)
			if err != nil {
				metrics.ObserveQuery(audit.ActionModelAdd, metrics.ResultError, time.Since(start))
				return nil, err
			}
			metrics.ObserveQuery(audit.ActionModelAdd, metrics.ResultSuccess, time.Since(start))
			return existing, nil
		}
		metrics.ObserveQuery(audit.ActionModelAdd, metrics.ResultError, time.Since(start))
		if s.logger != nil {
			s.logger.Printf("%s failed: %v", audit.ActionModelAdd, err)
		}
		return nil, err
	}
	metrics.ObserveQuery(audit.ActionModelAdd, metrics.ResultSuccess, time.Since(start))

	if s.auditor != nil {
		meta, _ := json.Marshal(map[string]any{
			"manufacturer": req.Manufacturer,
			"model_number": req.ModelNumber,
			"department":   req.Department,
			"max_count":    req.MaxCount,
		})
		entry := audit.Entry{
			Action:       audit.ActionModelAdd,
			ResourceType: "model",
			ResourceID:   req.Manufacturer + "/" + req.ModelNumber,
			Metadata:     meta,
		}
		if err := s.auditor.Log(ctx, entry); err != nil && s.logger != nil {
			s.logger.Printf("audit write failed for %s: %v", audit.ActionModelAdd, err)
		}
	}
	return nil, nil
}
