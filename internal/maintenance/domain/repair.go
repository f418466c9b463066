package maintenance

import (
	"context"
	"errors"
	"time"
)

// Repair is one repair job done to a device.
type Repair struct {
	ID          int64
	FaultReport string
	StartDate   time.Time
	EndDate     *time.Time
	Cost        float64
	DoneTo      int64
	DoneBy      string
}

// Validate checks repair invariants.
func (r Repair) Validate() error {
	if r.ID <= 0 {
		return errors.New("repair: invalid id")
	}
	if r.FaultReport == "" {
		return errors.New("repair: empty fault report")
	}
	if r.DoneTo <= 0 {
		return errors.New("repair: invalid device id")
	}
	if r.DoneBy == "" {
		return errors.New("repair: empty service abn")
	}
	if r.Cost < 0 {
		return errors.New("repair: negative cost")
	}
	return nil
}

// Provider is a repair service business.
type Provider struct {
	ABN   string
	Name  string
	Email string
}

// RepairDetail joins a repair with the provider that performed it.
type RepairDetail struct {
	Repair
	Provider Provider
}

// RepairRepository manages repair persistence.
type RepairRepository interface {
	ForDevice(ctx context.Context, deviceID int64) ([]Repair, error)
	Get(ctx context.Context, repairID int64) (*RepairDetail, error)
	LogRepair(ctx context.Context, repair Repair) error
}
