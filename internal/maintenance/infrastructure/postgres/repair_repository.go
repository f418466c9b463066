package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	maintenance "devicedesk/internal/maintenance/domain"
)

const (
	defaultRepairsTable  = "repairs"
	defaultServicesTable = "services"
)

// DBTX abstracts the database handle so repositories work with either a
// *sql.DB or a *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// RepairRepository is a Postgres implementation for repairs.
type RepairRepository struct {
	db            DBTX
	table         string
	servicesTable string
}

// NewRepairRepository constructs a repository.
func NewRepairRepository(db DBTX, opts ...RepairOption) *RepairRepository {
	repo := &RepairRepository{db: db, table: defaultRepairsTable, servicesTable: defaultServicesTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// RepairOption configures the repository.
type RepairOption func(*RepairRepository)

// WithRepairsTable overrides the default repairs table name.
func WithRepairsTable(table string) RepairOption {
	return func(repo *RepairRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// ForDevice lists every repair made to a device.
func (r *RepairRepository) ForDevice(ctx context.Context, deviceID int64) ([]maintenance.Repair, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("repair repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT repair_id, fault_report, start_date, end_date, cost, done_to, done_by
FROM %s
WHERE done_to = $1
ORDER BY repair_id ASC`, r.table)

	rows, err := r.db.QueryContext(ctx, query, deviceID)
	if err != nil {
		return nil, fmt.Errorf("repairs for device: %w", err)
	}
	defer rows.Close()

	var result []maintenance.Repair
	for rows.Next() {
		repair, err := scanRepair(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("repairs for device: %w", err)
		}
		result = append(result, repair)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repairs for device: %w", err)
	}
	return result, nil
}

// Get loads one repair together with its service provider. Returns
// (nil, nil) when the repair id is unknown.
func (r *RepairRepository) Get(ctx context.Context, repairID int64) (*maintenance.RepairDetail, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("repair repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT r.repair_id, r.fault_report, r.start_date, r.end_date, r.cost,
       s.abn, s.service_name, s.email, r.done_to
FROM %s r
JOIN %s s ON s.abn = r.done_by
WHERE r.repair_id = $1
LIMIT 1`, r.table, r.servicesTable)

	var detail maintenance.RepairDetail
	var endDate sql.NullTime
	if err := r.db.QueryRowContext(ctx, query, repairID).Scan(
		&detail.ID,
		&detail.FaultReport,
		&detail.StartDate,
		&endDate,
		&detail.Cost,
		&detail.Provider.ABN,
		&detail.Provider.Name,
		&detail.Provider.Email,
		&detail.DoneTo,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("repair get: %w", err)
	}
	detail.StartDate = detail.StartDate.UTC()
	if endDate.Valid {
		end := endDate.Time.UTC()
		detail.EndDate = &end
	}
	detail.DoneBy = detail.Provider.ABN
	return &detail, nil
}

// LogRepair inserts a new repair row.
func (r *RepairRepository) LogRepair(ctx context.Context, repair maintenance.Repair) error {
	if r == nil || r.db == nil {
		return errors.New("repair repo: nil db")
	}
	if err := repair.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (repair_id, fault_report, start_date, end_date, cost, done_to, done_by)
VALUES ($1, $2, $3, $4, $5, $6, $7)`, r.table)

	_, err := r.db.ExecContext(ctx, query,
		repair.ID,
		repair.FaultReport,
		repair.StartDate,
		repair.EndDate,
		repair.Cost,
		repair.DoneTo,
		repair.DoneBy,
	)
	if err != nil {
		return fmt.Errorf("repair log: %w", err)
	}
	return nil
}

func scanRepair(scan func(...any) error) (maintenance.Repair, error) {
	var repair maintenance.Repair
	var endDate sql.NullTime
	if err := scan(
		&repair.ID,
		&repair.FaultReport,
		&repair.StartDate,
		&endDate,
		&repair.Cost,
		&repair.DoneTo,
		&repair.DoneBy,
	); err != nil {
		return maintenance.Repair{}, err
	}
	repair.StartDate = repair.StartDate.UTC()
	if endDate.Valid {
		end := endDate.Time.UTC()
		repair.EndDate = &end
	}
	return repair, nil
}
