package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	inventory "devicedesk/internal/inventory/domain"
)

const (
	defaultModelsTable      = "models"
	defaultAllocationsTable = "model_allocations"
)

// ModelRepository is a Postgres implementation for models and allocations.
// It holds a *sql.DB rather than a DBTX because CreateWithAllocation opens
// its own transaction.
type ModelRepository struct {
	db               *sql.DB
	table            string
	allocationsTable string
	devicesTable     string
}

// NewModelRepository constructs a repository.
func NewModelRepository(db *sql.DB, opts ...ModelOption) *ModelRepository {
	repo := &ModelRepository{
		db:               db,
		table:            defaultModelsTable,
		allocationsTable: defaultAllocationsTable,
		devicesTable:     defaultDevicesTable,
	}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// ModelOption configures the repository.
type ModelOption func(*ModelRepository)

// WithModelsTable overrides the default models table name.
func WithModelsTable(table string) ModelOption {
	return func(repo *ModelRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// List loads every model.
func (r *ModelRepository) List(ctx context.Context) ([]inventory.Model, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("model repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT manufacturer, description, model_number, weight
FROM %s
ORDER BY manufacturer ASC, model_number ASC`, r.table)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("model list: %w", err)
	}
	defer rows.Close()

	var result []inventory.Model
	for rows.Next() {
		model, err := scanModel(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("model list: %w", err)
		}
		result = append(result, model)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("model list: %w", err)
	}
	return result, nil
}

// Get loads one model by identity. Returns (nil, nil) when absent.
func (r *ModelRepository) Get(ctx context.Context, manufacturer, modelNumber string) (*inventory.Model, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("model repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT manufacturer, description, model_number, weight
FROM %s
WHERE manufacturer = $1 AND model_number = $2
LIMIT 1`, r.table)

	model, err := scanModel(r.db.QueryRowContext(ctx, query, manufacturer, modelNumber).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("model get: %w", err)
	}
	return &model, nil
}

// ForDevice loads the model of a device. Returns (nil, nil) when the device
// id is unknown.
func (r *ModelRepository) ForDevice(ctx context.Context, deviceID int64) (*inventory.Model, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("model repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT m.manufacturer, m.description, m.model_number, m.weight
FROM %s d
JOIN %s m ON m.manufacturer = d.manufacturer AND m.model_number = d.model_number
WHERE d.device_id = $1
LIMIT 1`, r.devicesTable, r.table)

	model, err := scanModel(r.db.QueryRowContext(ctx, query, deviceID).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("model for device: %w", err)
	}
	return &model, nil
}

// AllocationsForDepartment lists the model allocations of a department.
func (r *ModelRepository) AllocationsForDepartment(ctx context.Context, department string) ([]inventory.Allocation, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("model repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT manufacturer, model_number, max_count
FROM %s
WHERE department = $1
ORDER BY manufacturer ASC, model_number ASC`, r.allocationsTable)

	rows, err := r.db.QueryContext(ctx, query, department)
	if err != nil {
		return nil, fmt.Errorf("department allocations: %w", err)
	}
	defer rows.Close()

	var result []inventory.Allocation
	for rows.Next() {
		allocation := inventory.Allocation{Department: department}
		if err := rows.Scan(&allocation.Manufacturer, &allocation.ModelNumber, &allocation.MaxCount); err != nil {
			return nil, fmt.Errorf("department allocations: %w", err)
		}
		result = append(result, allocation)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("department allocations: %w", err)
	}
	return result, nil
}

// MonthlyCost averages the purchase cost of the model's devices per
// calendar month, most recent first.
func (r *ModelRepository) MonthlyCost(ctx context.Context, manufacturer, modelNumber string) ([]inventory.MonthlyCost, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("model repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT CAST(EXTRACT(year FROM purchase_date) AS int) AS year,
       CAST(EXTRACT(month FROM purchase_date) AS int) AS month,
       CAST(ROUND(AVG(purchase_cost)::numeric, 2) AS double precision) AS average_cost
FROM %s
WHERE manufacturer = $1 AND model_number = $2
GROUP BY year, month
ORDER BY year DESC, month DESC`, r.devicesTable)

	rows, err := r.db.QueryContext(ctx, query, manufacturer, modelNumber)
	if err != nil {
		return nil, fmt.Errorf("model cost: %w", err)
	}
	defer rows.Close()

	var result []inventory.MonthlyCost
	for rows.Next() {
		var cost inventory.MonthlyCost
		if err := rows.Scan(&cost.Year, &cost.Month, &cost.AverageCost); err != nil {
			return nil, fmt.Errorf("model cost: %w", err)
		}
		result = append(result, cost)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("model cost: %w", err)
	}
	return result, nil
}

// CreateWithAllocation inserts the model row and the department's
// allocation row in one transaction. A failure between the two inserts
// rolls back both, so no model ever exists without its allocation.
// Returns ErrModelExists when the (manufacturer, model number) pair is
// already present, which a caller racing another writer can hit even
// after a negative Get.
func (r *ModelRepository) CreateWithAllocation(ctx context.Context, model inventory.Model, department string, maxCount int) error {
	if r == nil || r.db == nil {
		return errors.New("model repo: nil db")
	}
	if err := model.Validate(); err != nil {
		return err
	}
	if department == "" {
		return errors.New("model repo: empty department")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("model create: %w", err)
	}

	insertModel := fmt.Sprintf(`
INSERT INTO %s (manufacturer, model_number, description, weight)
VALUES ($1, $2, $3, $4)`, r.table)
	if _, err := tx.ExecContext(ctx, insertModel, model.Manufacturer, model.ModelNumber, model.Description, model.Weight); err != nil {
		_ = tx.Rollback()
		if isUniqueViolation(err) {
			return inventory.ErrModelExists
		}
		return fmt.Errorf("model create: %w", err)
	}

	insertAllocation := fmt.Sprintf(`
INSERT INTO %s (manufacturer, model_number, department, max_count)
VALUES ($1, $2, $3, $4)`, r.allocationsTable)
	if _, err := tx.ExecContext(ctx, insertAllocation, model.Manufacturer, model.ModelNumber, department, maxCount); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("model create: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("model create: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func scanModel(scan func(...any) error) (inventory.Model, error) {
	var model inventory.Model
	var description sql.NullString
	if err := scan(&model.Manufacturer, &description, &model.ModelNumber, &model.Weight); err != nil {
		return inventory.Model{}, err
	}
	if description.Valid {
		model.Description = &description.String
	}
	return model, nil
}
