package integration_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"devicedesk/internal/audit"
	"devicedesk/internal/inventory/application"
	inventory "devicedesk/internal/inventory/domain"
	inventorypostgres "devicedesk/internal/inventory/infrastructure/postgres"
)

func TestIssueConcurrencySingleWinner(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	const contenders = 8
	for i := int64(0); i < contenders; i++ {
		seedEmployee(t, db, 2000+i, "Contender")
	}
	seedModel(t, db, "Acme", "X1", 0.18)
	seedDevice(t, db, 5100, "Acme", "X1", "2023-03-03", 100, nil)

	repo := inventorypostgres.NewDeviceRepository(db)
	service, err := application.NewIssuanceService(repo, audit.NewRepository(db), nil, 5*time.Second)
	if err != nil {
		t.Fatalf("issuance service: %v", err)
	}

	var wg sync.WaitGroup
	results := make(chan struct {
		ok     bool
		reason string
		err    error
	}, contenders)
	for i := int64(0); i < contenders; i++ {
		wg.Add(1)
		go func(employeeID int64) {
			defer wg.Done()
			ok, reason, err := service.Issue(ctx, employeeID, 5100)
			results <- struct {
				ok     bool
				reason string
				err    error
			}{ok, reason, err}
		}(2000 + i)
	}
	wg.Wait()
	close(results)

	winners, rejected := 0, 0
	for result := range results {
		if result.err != nil {
			t.Fatalf("unexpected operational error: %v", result.err)
		}
		switch {
		case result.ok:
			winners++
		case result.reason == application.ReasonAlreadyIssued:
			rejected++
		default:
			t.Fatalf("unexpected rejection reason %q", result.reason)
		}
	}
	if winners != 1 || rejected != contenders-1 {
		t.Fatalf("expected exactly one winner, got %d winners and %d rejections", winners, rejected)
	}

	device, err := repo.Get(ctx, 5100)
	if err != nil {
		t.Fatalf("get device: %v", err)
	}
	if device == nil || !device.Issued() {
		t.Fatal("device must end up issued")
	}
}

func TestRevokeThenGetShowsUnissued(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	seedEmployee(t, db, 1001, "Ada Wong")
	seedModel(t, db, "Acme", "X1", 0.18)
	seedDevice(t, db, 5001, "Acme", "X1", "2023-03-03", 100, ptr(1001))

	repo := inventorypostgres.NewDeviceRepository(db)

	if err := repo.Revoke(ctx, 1001, 5001); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	device, err := repo.Get(ctx, 5001)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if device == nil || device.Issued() {
		t.Fatalf("expected unissued device after revoke, got %+v", device)
	}

	if err := repo.Revoke(ctx, 1001, 5001); !errors.Is(err, inventory.ErrNotHolder) {
		t.Fatalf("second revoke must fail with ErrNotHolder, got %v", err)
	}
}

func TestRevokeRequiresExactHolder(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	seedEmployee(t, db, 1001, "Ada Wong")
	seedEmployee(t, db, 1002, "Raj Patel")
	seedModel(t, db, "Acme", "X1", 0.18)
	seedDevice(t, db, 5001, "Acme", "X1", "2023-03-03", 100, ptr(1001))

	repo := inventorypostgres.NewDeviceRepository(db)
	if err := repo.Revoke(ctx, 1002, 5001); !errors.Is(err, inventory.ErrNotHolder) {
		t.Fatalf("revoke by a non-holder must fail, got %v", err)
	}

	device, err := repo.Get(ctx, 5001)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if device == nil || device.IssuedTo == nil || *device.IssuedTo != 1001 {
		t.Fatalf("holder must be untouched, got %+v", device)
	}
}

func TestAssignmentsForModelHeldFlag(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	seedEmployee(t, db, 1001, "Ada Wong")
	seedEmployee(t, db, 1002, "Raj Patel")
	seedModel(t, db, "Acme", "X1", 0.18)
	seedDevice(t, db, 5001, "Acme", "X1", "2023-03-03", 100, ptr(1001))
	seedDevice(t, db, 5002, "Acme", "X1", "2023-03-21", 200, ptr(1002))
	seedDevice(t, db, 5003, "Acme", "X1", "2023-04-11", 50, nil)

	repo := inventorypostgres.NewDeviceRepository(db)
	assignments, err := repo.AssignmentsForModel(ctx, "X1", "Acme", 1001)
	if err != nil {
		t.Fatalf("assignments: %v", err)
	}

	want := map[int64]bool{5001: true, 5002: false, 5003: false}
	if len(assignments) != len(want) {
		t.Fatalf("expected %d assignments, got %d", len(want), len(assignments))
	}
	for _, assignment := range assignments {
		held, known := want[assignment.DeviceID]
		if !known {
			t.Fatalf("unexpected device %d", assignment.DeviceID)
		}
		if assignment.Held != held {
			t.Fatalf("device %d: held=%v want %v", assignment.DeviceID, assignment.Held, held)
		}
	}
}

func TestUnassignedDevicesForModel(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	seedEmployee(t, db, 1001, "Ada Wong")
	seedModel(t, db, "Acme", "X1", 0.18)
	seedModel(t, db, "Globex", "GL-9", 0.61)
	seedDevice(t, db, 5001, "Acme", "X1", "2023-03-03", 100, ptr(1001))
	seedDevice(t, db, 5002, "Acme", "X1", "2023-03-21", 200, nil)
	seedDevice(t, db, 5004, "Globex", "GL-9", "2022-12-01", 900, nil)
	// usage history must not affect the unassigned listing
	seedUsage(t, db, 5002, 1001)

	repo := inventorypostgres.NewDeviceRepository(db)
	ids, err := repo.UnassignedForModel(ctx, "X1", "Acme")
	if err != nil {
		t.Fatalf("unassigned: %v", err)
	}
	if len(ids) != 1 || ids[0] != 5002 {
		t.Fatalf("expected [5002], got %v", ids)
	}
}

func TestUsageHistoryCoversAllPastUsers(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	seedEmployee(t, db, 1001, "Ada Wong")
	seedEmployee(t, db, 1002, "Raj Patel")
	seedEmployee(t, db, 1003, "Mei Chen")
	seedModel(t, db, "Acme", "X1", 0.18)
	seedDevice(t, db, 5001, "Acme", "X1", "2023-03-03", 100, ptr(1001))
	seedDevice(t, db, 5002, "Acme", "X1", "2023-03-21", 200, ptr(1003))
	seedUsage(t, db, 5001, 1001)
	seedUsage(t, db, 5001, 1002)
	seedUsage(t, db, 5002, 1003)

	repo := inventorypostgres.NewDeviceRepository(db)
	history, err := repo.UsageHistoryFor(ctx, 1001)
	if err != nil {
		t.Fatalf("usage history: %v", err)
	}

	// devices issued to 1001: only 5001; every user of 5001 appears.
	if len(history) != 2 {
		t.Fatalf("expected 2 usage rows, got %v", history)
	}
	if history[0].DeviceID != 5001 || history[0].EmployeeID != 1001 || history[0].Name != "Ada Wong" {
		t.Fatalf("unexpected first row: %+v", history[0])
	}
	if history[1].EmployeeID != 1002 || history[1].Name != "Raj Patel" {
		t.Fatalf("unexpected second row: %+v", history[1])
	}
}

func TestHoldersInDepartment(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	seedEmployee(t, db, 1001, "Ada Wong")
	seedEmployee(t, db, 1002, "Raj Patel")
	seedEmployee(t, db, 1003, "Mei Chen")
	seedDepartment(t, db, "Engineering", ptr(1001))
	seedDepartment(t, db, "Sales", nil)
	seedMembership(t, db, 1001, "Engineering")
	seedMembership(t, db, 1002, "Engineering")
	seedMembership(t, db, 1003, "Sales")
	seedModel(t, db, "Acme", "X1", 0.18)
	seedDevice(t, db, 5001, "Acme", "X1", "2023-03-03", 100, ptr(1001))
	seedDevice(t, db, 5002, "Acme", "X1", "2023-03-21", 200, ptr(1001))
	seedDevice(t, db, 5003, "Acme", "X1", "2023-04-11", 50, ptr(1003))

	repo := inventorypostgres.NewDeviceRepository(db)
	holders, err := repo.HoldersInDepartment(ctx, "Engineering", "Acme", "X1")
	if err != nil {
		t.Fatalf("holders: %v", err)
	}
	if len(holders) != 1 {
		t.Fatalf("expected one engineering holder, got %v", holders)
	}
	if holders[0].EmployeeID != 1001 || holders[0].DeviceCount != 2 {
		t.Fatalf("unexpected holder row: %+v", holders[0])
	}
}

func TestModelCostAggregation(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	seedModel(t, db, "Acme", "X1", 0.18)
	seedDevice(t, db, 5001, "Acme", "X1", "2023-03-03", 100, nil)
	seedDevice(t, db, 5002, "Acme", "X1", "2023-03-21", 200, nil)
	seedDevice(t, db, 5003, "Acme", "X1", "2023-04-11", 50, nil)

	repo := inventorypostgres.NewModelRepository(db)
	costs, err := repo.MonthlyCost(ctx, "Acme", "X1")
	if err != nil {
		t.Fatalf("monthly cost: %v", err)
	}

	want := []inventory.MonthlyCost{
		{Year: 2023, Month: 4, AverageCost: 50.00},
		{Year: 2023, Month: 3, AverageCost: 150.00},
	}
	if len(costs) != len(want) {
		t.Fatalf("expected %d rows, got %v", len(want), costs)
	}
	for i := range want {
		if costs[i] != want[i] {
			t.Fatalf("row %d: got %+v want %+v", i, costs[i], want[i])
		}
	}
}

func TestAddModelIdempotentAndAtomic(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	seedDepartment(t, db, "Engineering", nil)

	models := inventorypostgres.NewModelRepository(db)
	service, err := application.NewModelService(models, nil, nil, 5*time.Second)
	if err != nil {
		t.Fatalf("model service: %v", err)
	}

	req := application.AddModelRequest{
		Department:   "Engineering",
		Manufacturer: "Acme",
		ModelNumber:  "X1",
		Weight:       0.18,
		MaxCount:     10,
	}
	existing, err := service.AddModel(ctx, req)
	if err != nil {
		t.Fatalf("first add: %v", err)
	}
	if existing != nil {
		t.Fatalf("first add must insert, got existing %+v", existing)
	}

	existing, err = service.AddModel(ctx, req)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if existing == nil || existing.Manufacturer != "Acme" || existing.ModelNumber != "X1" {
		t.Fatalf("second add must return the existing model, got %+v", existing)
	}

	var modelRows int
	if err := db.QueryRow(`SELECT COUNT(*) FROM models WHERE manufacturer = 'Acme' AND model_number = 'X1'`).Scan(&modelRows); err != nil {
		t.Fatalf("count models: %v", err)
	}
	if modelRows != 1 {
		t.Fatalf("expected exactly one model row, got %d", modelRows)
	}

	// a failing allocation insert (unknown department) must roll back the
	// model insert as well
	bad := application.AddModelRequest{
		Department:   "NoSuchDept",
		Manufacturer: "Globex",
		ModelNumber:  "GL-9",
		Weight:       0.61,
		MaxCount:     6,
	}
	if _, err := service.AddModel(ctx, bad); err == nil {
		t.Fatal("expected failure for unknown department")
	}
	if err := db.QueryRow(`SELECT COUNT(*) FROM models WHERE manufacturer = 'Globex'`).Scan(&modelRows); err != nil {
		t.Fatalf("count models: %v", err)
	}
	if modelRows != 0 {
		t.Fatalf("partial failure must leave zero rows, got %d", modelRows)
	}
}

func TestIssueClassifiesMissingAndHeldDevices(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	seedEmployee(t, db, 1, "Ada")
	seedEmployee(t, db, 2, "Grace")
	seedModel(t, db, "Acme", "X1", 0.18)
	seedDevice(t, db, 5300, "Acme", "X1", "2023-03-03", 100, ptr(2))

	repo := inventorypostgres.NewDeviceRepository(db)

	if err := repo.Issue(ctx, 1, 999); !errors.Is(err, inventory.ErrDeviceNotFound) {
		t.Fatalf("unknown device: got %v, want ErrDeviceNotFound", err)
	}
	if err := repo.Issue(ctx, 1, 5300); !errors.Is(err, inventory.ErrAlreadyIssued) {
		t.Fatalf("held device: got %v, want ErrAlreadyIssued", err)
	}

	device, err := repo.Get(ctx, 5300)
	if err != nil {
		t.Fatalf("get device: %v", err)
	}
	if device == nil || device.IssuedTo == nil || *device.IssuedTo != 2 {
		t.Fatalf("holder must be unchanged, got %+v", device)
	}
}

func TestCreateWithAllocationDuplicateModel(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	seedDepartment(t, db, "Engineering", nil)
	seedModel(t, db, "Acme", "X1", 0.18)

	repo := inventorypostgres.NewModelRepository(db)

	dup := inventory.Model{Manufacturer: "Acme", ModelNumber: "X1", Weight: 0.18}
	if err := repo.CreateWithAllocation(ctx, dup, "Engineering", 10); !errors.Is(err, inventory.ErrModelExists) {
		t.Fatalf("duplicate insert: got %v, want ErrModelExists", err)
	}

	var allocations int
	if err := db.QueryRow(`SELECT COUNT(*) FROM model_allocations WHERE manufacturer = 'Acme'`).Scan(&allocations); err != nil {
		t.Fatalf("count allocations: %v", err)
	}
	if allocations != 0 {
		t.Fatalf("failed create must write no allocation, got %d", allocations)
	}
}
