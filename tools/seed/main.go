package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"

	"devicedesk/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var schema = []string{
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
	`CREATE TABLE IF NOT EXISTS services (
	abn          TEXT PRIMARY KEY,
	service_name TEXT NOT NULL,
	email        TEXT NOT NULL DEFAULT ''
)`,
	`CREATE TABLE IF NOT EXISTS repairs (
	repair_id    BIGINT PRIMARY KEY,
	fault_report TEXT NOT NULL,
	start_date   DATE NOT NULL,
	end_date     DATE,
	cost         DOUBLE PRECISION NOT NULL,
	done_to      BIGINT NOT NULL REFERENCES devices(device_id),
	done_by      TEXT NOT NULL REFERENCES services(abn)
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

var seedStatements = []string{
	`INSERT INTO employees (employee_id, name, home_address, date_of_birth, password) VALUES
	(1001, 'Ada Wong', '12 Harbor St', '1988-04-02', 'changeme'),
	(1002, 'Raj Patel', '4 Elm Ave', '1992-11-19', 'changeme'),
	(1003, 'Mei Chen', '77 Lake Rd', '1985-06-30', 'changeme')
	ON CONFLICT DO NOTHING`,
	`INSERT INTO departments (name, manager_id) VALUES
	('Engineering', 1001),
	('Sales', NULL)
	ON CONFLICT DO NOTHING`,
	`INSERT INTO employee_departments (employee_id, department) VALUES
	(1001, 'Engineering'), (1002, 'Engineering'), (1003, 'Sales')
	ON CONFLICT DO NOTHING`,
	`INSERT INTO models (manufacturer, model_number, description, weight) VALUES
	('Acme', 'X1', 'Flagship phone', 0.18),
	('Acme', 'T4', NULL, 1.20),
	('Globex', 'GL-9', 'Rugged tablet', 0.61)
	ON CONFLICT DO NOTHING`,
	`INSERT INTO model_allocations (manufacturer, model_number, department, max_count) VALUES
	('Acme', 'X1', 'Engineering', 10),
	('Acme', 'T4', 'Engineering', 4),
	('Globex', 'GL-9', 'Sales', 6)
	ON CONFLICT DO NOTHING`,
	`INSERT INTO devices (device_id, serial_number, purchase_date, purchase_cost, manufacturer, model_number, issued_to) VALUES
	(5001, 'SN-5001', '2023-03-03', 100, 'Acme', 'X1', 1001),
	(5002, 'SN-5002', '2023-03-21', 200, 'Acme', 'X1', NULL),
	(5003, 'SN-5003', '2023-04-11', 50,  'Acme', 'X1', 1002),
	(5004, 'SN-5004', '2022-12-01', 900, 'Globex', 'GL-9', NULL)
	ON CONFLICT DO NOTHING`,
	`INSERT INTO device_used_by (device_id, employee_id) VALUES
	(5001, 1001), (5001, 1002), (5003, 1002)
	ON CONFLICT DO NOTHING`,
	`INSERT INTO services (abn, service_name, email) VALUES
	('53004085616', 'FixIt Pty Ltd', 'help@fixit.example')
	ON CONFLICT DO NOTHING`,
	`INSERT INTO repairs (repair_id, fault_report, start_date, end_date, cost, done_to, done_by) VALUES
	(9001, 'Cracked screen', '2023-05-02', '2023-05-09', 120, 5001, '53004085616'),
	(9002, 'Battery drain', '2023-06-15', NULL, 80, 5003, '53004085616')
	ON CONFLICT DO NOTHING`,
}

func main() {
	skipSeed := flag.Bool("schema-only", false, "create tables without demo data")
	flag.Parse()

	logger := log.New(os.Stdout, "seed ", log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	db, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	ctx := context.Background()
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			logger.Fatalf("schema: %v", err)
		}
	}
	logger.Print("schema ready")

	if *skipSeed {
		return
	}
	for _, stmt := range seedStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			logger.Fatalf("seed: %v", err)
		}
	}
	logger.Print("demo data seeded")
}
