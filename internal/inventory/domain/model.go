package inventory

import (
	"context"
	"errors"
)

// Model identifies a product type. Identity is always the pair
// (manufacturer, model number), never the model number alone.
type Model struct {
	Manufacturer string
	ModelNumber  string
	Description  *string
	Weight       float64
}

// Validate checks model invariants.
func (m Model) Validate() error {
	if m.Manufacturer == "" {
		return errors.New("model: empty manufacturer")
	}
	if m.ModelNumber == "" {
		return errors.New("model: empty model number")
	}
	if m.Weight < 0 {
		return errors.New("model: negative weight")
	}
	return nil
}

// Allocation caps how many units of a model a department may hold.
type Allocation struct {
	Manufacturer string
	ModelNumber  string
	Department   string
	MaxCount     int
}

// MonthlyCost is one row of the per-month purchase cost report.
// AverageCost is rounded to two decimals by the query.
type MonthlyCost struct {
	Year        int
	Month       int
	AverageCost float64
}

// ModelRepository manages model and allocation persistence.
type ModelRepository interface {
	List(ctx context.Context) ([]Model, error)
	Get(ctx context.Context, manufacturer, modelNumber string) (*Model, error)
	ForDevice(ctx context.Context, deviceID int64) (*Model, error)
	AllocationsForDepartment(ctx context.Context, department string) ([]Allocation, error)
	MonthlyCost(ctx context.Context, manufacturer, modelNumber string) ([]MonthlyCost, error)
	CreateWithAllocation(ctx context.Context, model Model, department string, maxCount int) error
}
