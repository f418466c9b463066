package integration_test

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var fleetSchema = []string{
	`CREATE TABLE IF NOT EXISTS employees (
	employee_id   BIGINT PRIMARY KEY,
	name          TEXT NOT NULL,
	home_address  TEXT NOT NULL DEFAULT '',
	date_of_birth DATE NOT NULL,
	password      TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS departments (
	name       TEXT PRIMARY KEY,
	manager_id BIGINT REFERENCES employees(employee_id)
)`,
	`CREATE TABLE IF NOT EXISTS employee_departments (
	employee_id BIGINT NOT NULL REFERENCES employees(employee_id),
	department  TEXT NOT NULL REFERENCES departments(name),
	PRIMARY KEY (employee_id, department)
)`,
	`CREATE TABLE IF NOT EXISTS models (
	manufacturer TEXT NOT NULL,
	model_number TEXT NOT NULL,
	description  TEXT,
	weight       DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (manufacturer, model_number)
)`,
	`CREATE TABLE IF NOT EXISTS model_allocations (
	manufacturer TEXT NOT NULL,
	model_number TEXT NOT NULL,
	department   TEXT NOT NULL REFERENCES departments(name),
	max_count    INT NOT NULL,
	PRIMARY KEY (manufacturer, model_number, department),
	FOREIGN KEY (manufacturer, model_number) REFERENCES models(manufacturer, model_number)
)`,
	`CREATE TABLE IF NOT EXISTS devices (
	device_id     BIGINT PRIMARY KEY,
	serial_number TEXT NOT NULL,
	purchase_date DATE NOT NULL,
	purchase_cost DOUBLE PRECISION NOT NULL,
	manufacturer  TEXT NOT NULL,
	model_number  TEXT NOT NULL,
	issued_to     BIGINT REFERENCES employees(employee_id),
	FOREIGN KEY (manufacturer, model_number) REFERENCES models(manufacturer, model_number)
)`,
	`CREATE TABLE IF NOT EXISTS device_used_by (
	device_id   BIGINT NOT NULL REFERENCES devices(device_id),
	employee_id BIGINT NOT NULL REFERENCES employees(employee_id),
	PRIMARY KEY (device_id, employee_id)
)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
	id             TEXT PRIMARY KEY,
	actor          TEXT NOT NULL DEFAULT '',
	action         TEXT NOT NULL,
	resource_type  TEXT NOT NULL DEFAULT '',
	resource_id    TEXT NOT NULL DEFAULT '',
	metadata       JSONB,
	payload_digest TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	for _, stmt := range fleetSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("apply schema: %v", err)
		}
	}
	cleanup := []string{
		"DELETE FROM audit_logs",
		"DELETE FROM device_used_by",
		"DELETE FROM devices",
		"DELETE FROM model_allocations",
		"DELETE FROM models",
		"DELETE FROM employee_departments",
		"DELETE FROM departments",
		"DELETE FROM employees",
	}
	for _, stmt := range cleanup {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("clean tables: %v", err)
		}
	}
	return db
}

func seedEmployee(t *testing.T, db *sql.DB, id int64, name string) {
	t.Helper()
	_, err := db.Exec(`
INSERT INTO employees (employee_id, name, home_address, date_of_birth, password)
VALUES ($1, $2, '', '1990-01-01', 'pw')`, id, name)
	if err != nil {
		t.Fatalf("seed employee %d: %v", id, err)
	}
}

func seedDepartment(t *testing.T, db *sql.DB, name string, managerID *int64) {
	t.Helper()
	if _, err := db.Exec(`INSERT INTO departments (name, manager_id) VALUES ($1, $2)`, name, managerID); err != nil {
		t.Fatalf("seed department %s: %v", name, err)
	}
}

func seedMembership(t *testing.T, db *sql.DB, employeeID int64, department string) {
	t.Helper()
	if _, err := db.Exec(`INSERT INTO employee_departments (employee_id, department) VALUES ($1, $2)`, employeeID, department); err != nil {
		t.Fatalf("seed membership: %v", err)
	}
}

func seedModel(t *testing.T, db *sql.DB, manufacturer, modelNumber string, weight float64) {
	t.Helper()
	if _, err := db.Exec(`
INSERT INTO models (manufacturer, model_number, description, weight)
VALUES ($1, $2, NULL, $3)`, manufacturer, modelNumber, weight); err != nil {
		t.Fatalf("seed model: %v", err)
	}
}

func seedDescribedModel(t *testing.T, db *sql.DB, manufacturer, modelNumber, description string, weight float64) {
	t.Helper()
	if _, err := db.Exec(`
INSERT INTO models (manufacturer, model_number, description, weight)
VALUES ($1, $2, $3, $4)`, manufacturer, modelNumber, description, weight); err != nil {
		t.Fatalf("seed model: %v", err)
	}
}

func seedAllocation(t *testing.T, db *sql.DB, manufacturer, modelNumber, department string, maxCount int) {
	t.Helper()
	if _, err := db.Exec(`
INSERT INTO model_allocations (manufacturer, model_number, department, max_count)
VALUES ($1, $2, $3, $4)`, manufacturer, modelNumber, department, maxCount); err != nil {
		t.Fatalf("seed allocation: %v", err)
	}
}

func seedDevice(t *testing.T, db *sql.DB, id int64, manufacturer, modelNumber, purchaseDate string, cost float64, issuedTo *int64) {
	t.Helper()
	_, err := db.Exec(`
INSERT INTO devices (device_id, serial_number, purchase_date, purchase_cost, manufacturer, model_number, issued_to)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, "SN-"+purchaseDate, purchaseDate, cost, manufacturer, modelNumber, issuedTo)
	if err != nil {
		t.Fatalf("seed device %d: %v", id, err)
	}
}

func seedUsage(t *testing.T, db *sql.DB, deviceID, employeeID int64) {
	t.Helper()
	if _, err := db.Exec(`INSERT INTO device_used_by (device_id, employee_id) VALUES ($1, $2)`, deviceID, employeeID); err != nil {
		t.Fatalf("seed usage: %v", err)
	}
}

func ptr(v int64) *int64 { return &v }
